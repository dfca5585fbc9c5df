// Package notify sends push notifications to a Bark-style endpoint.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	logx "homehub/pkg/logx"
)

// Sender delivers one push message to one device.
// Failures are logged and returned; the caller never retries.
type Sender interface {
	Send(ctx context.Context, deviceKey, body, title string) error
}

type Config struct {
	URL        string
	RatePerSec int           // default 5
	Timeout    time.Duration // default 10s
}

type Service struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	log     logx.Logger
}

func New(cfg Config, log logx.Logger) *Service {
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		log:     log,
	}
}

type pushPayload struct {
	Body      string `json:"body"`
	Title     string `json:"title"`
	DeviceKey string `json:"device_key"`
}

// Send posts one push. Sends are rate limited process-wide so a job fanning
// out to many users cannot hammer the push service.
func (s *Service) Send(ctx context.Context, deviceKey, body, title string) error {
	if title == "" {
		title = "Daily Events"
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(pushPayload{Body: body, Title: title, DeviceKey: deviceKey})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error("push send failed", logx.Err(err))
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("push endpoint returned %s", resp.Status)
		s.log.Error("push send failed", logx.Int("status", resp.StatusCode))
		return err
	}
	return nil
}
