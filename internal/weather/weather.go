// Package weather queries the configured live-weather API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type Config struct {
	URL  string
	Key  string
	City string
}

// Report is the slice of the API response the frontend shows.
type Report struct {
	Weather     string `json:"weather"`
	Temperature string `json:"temperature"`
	Humidity    int    `json:"humidity"`
}

type Client struct {
	cfg    Config
	client *http.Client
}

func New(cfg Config) *Client {
	return &Client{cfg: cfg, client: &http.Client{Timeout: 10 * time.Second}}
}

type liveResponse struct {
	Lives []struct {
		Weather     string `json:"weather"`
		Temperature string `json:"temperature"`
		Humidity    string `json:"humidity"`
	} `json:"lives"`
}

func (c *Client) Current(ctx context.Context) (Report, error) {
	q := url.Values{}
	q.Set("key", c.cfg.Key)
	q.Set("city", c.cfg.City)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL+"?"+q.Encode(), nil)
	if err != nil {
		return Report{}, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Report{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Report{}, fmt.Errorf("weather api returned %s", resp.Status)
	}

	var lr liveResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return Report{}, err
	}
	if len(lr.Lives) == 0 {
		return Report{}, fmt.Errorf("weather api returned no data")
	}
	live := lr.Lives[0]
	humidity := 0
	fmt.Sscanf(live.Humidity, "%d", &humidity)
	return Report{Weather: live.Weather, Temperature: live.Temperature, Humidity: humidity}, nil
}
