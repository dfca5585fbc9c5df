// Package scrape pulls recipe listings from an explore page and stores new
// foods and ingredients. It is a single linear pass per page: no retries,
// no concurrency.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"homehub/internal/store"
	logx "homehub/pkg/logx"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/78.0.3904.108 Safari/537.36"

// Recipe is one parsed listing entry.
type Recipe struct {
	Name        string
	Link        string
	Ingredients string // raw "、"-joined ingredient text
}

type Config struct {
	ExploreURL string // printf pattern with one %d page number
	BaseURL    string // prefix for relative recipe links
	Timeout    time.Duration
}

type Service struct {
	cfg         Config
	client      *http.Client
	foods       *store.FoodStore
	ingredients *store.IngredientStore
	log         logx.Logger
}

func New(cfg Config, foods *store.FoodStore, ingredients *store.IngredientStore, log logx.Logger) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Service{
		cfg:         cfg,
		client:      &http.Client{Timeout: timeout},
		foods:       foods,
		ingredients: ingredients,
		log:         log,
	}
}

// ScrapePage fetches one listing page and stores its recipes.
// It returns how many new foods were created.
func (s *Service) ScrapePage(ctx context.Context, page int) (int, error) {
	if strings.TrimSpace(s.cfg.ExploreURL) == "" {
		return 0, errors.New("scrape.explore_url is not configured")
	}
	body, err := s.fetch(ctx, fmt.Sprintf(s.cfg.ExploreURL, page))
	if err != nil {
		return 0, err
	}
	recipes, err := ParsePage(body, s.cfg.BaseURL)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, r := range recipes {
		ok, err := s.saveRecipe(ctx, r)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	s.log.Info("scrape finished", logx.Int("page", page), logx.Int("recipes", len(recipes)), logx.Int("created", created))
	return created, nil
}

func (s *Service) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: %s", url, resp.Status)
	}
	b, err := io.ReadAll(resp.Body)
	return string(b), err
}

// saveRecipe stores one recipe unless a food with the same name exists.
// It reports whether a new food was created.
func (s *Service) saveRecipe(ctx context.Context, r Recipe) (bool, error) {
	if _, err := s.foods.GetByName(ctx, r.Name); err == nil {
		s.log.Debug("recipe already known", logx.String("name", r.Name))
		return false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	// Scraped rows belong to the bootstrap admin.
	foodID, err := s.foods.Save(ctx, store.FoodInput{Name: r.Name, Procedure: r.Link, UserID: 1})
	if err != nil {
		return false, err
	}

	names := strings.Split(r.Ingredients, "、")
	if len(names) <= 1 {
		return true, nil
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		ing, err := s.ingredients.GetByName(ctx, name)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return true, err
			}
			id, err := s.ingredients.Save(ctx, 0, name, 1)
			if err != nil {
				return true, err
			}
			ing.ID = id
		}
		if err := s.ingredients.Link(ctx, foodID, ing.ID); err != nil {
			return true, err
		}
	}
	return true, nil
}

// ParsePage walks the listing HTML collecting recipe names (<p class="name">
// with their first link) and ingredient lines (<p class="ing ellipsis">).
// Entries are paired by position; a missing ingredient line reads as empty.
func ParsePage(page, baseURL string) ([]Recipe, error) {
	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, err
	}

	var names, links, ings []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "p" {
			switch attr(n, "class") {
			case "name":
				names = append(names, strings.TrimSpace(text(n)))
				links = append(links, firstLink(n))
			case "ing ellipsis":
				ings = append(ings, strings.TrimSpace(text(n)))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	recipes := make([]Recipe, 0, len(names))
	for i, name := range names {
		if name == "" {
			continue
		}
		r := Recipe{Name: name}
		if links[i] != "" {
			r.Link = baseURL + links[i]
		}
		if i < len(ings) {
			r.Ingredients = ings[i]
		}
		recipes = append(recipes, r)
	}
	return recipes, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func text(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(text(c))
	}
	return b.String()
}

func firstLink(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "a" {
		return attr(n, "href")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if href := firstLink(c); href != "" {
			return href
		}
	}
	return ""
}
