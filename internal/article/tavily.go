package article

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// TavilyBackend asks the Tavily extract API for a page's raw content.
type TavilyBackend struct {
	APIKey       string
	ExtractDepth string // basic or advanced
	Timeout      time.Duration
	BaseURL      string
	client       *http.Client
}

func NewTavilyBackend(apiKey, extractDepth string, timeout time.Duration) *TavilyBackend {
	if extractDepth == "" {
		extractDepth = "basic"
	}
	client, timeout := newAPIClient(timeout)
	return &TavilyBackend{
		APIKey:       apiKey,
		ExtractDepth: extractDepth,
		Timeout:      timeout,
		BaseURL:      "https://api.tavily.com/extract",
		client:       client,
	}
}

func (t *TavilyBackend) Name() string {
	return "tavily"
}

func (t *TavilyBackend) IsAvailable() bool {
	return t.APIKey != ""
}

type tavilyRequest struct {
	URLs         []string `json:"urls"`
	ExtractDepth string   `json:"extract_depth,omitempty"`
}

type tavilyResponse struct {
	Results []struct {
		URL        string `json:"url"`
		Title      string `json:"title"`
		RawContent string `json:"raw_content"`
	} `json:"results"`
	Failed []struct {
		URL   string `json:"url"`
		Error string `json:"error"`
	} `json:"failed_results"`
}

func (t *TavilyBackend) Text(ctx context.Context, rawURL string) (*Article, error) {
	if !t.IsAvailable() {
		return nil, fmt.Errorf("tavily: %w", ErrUnconfigured)
	}

	payload, err := json.Marshal(tavilyRequest{URLs: []string{rawURL}, ExtractDepth: t.ExtractDepth})
	if err != nil {
		return nil, fmt.Errorf("tavily: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("tavily: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.APIKey)

	body, err := callAPI(t.client, "tavily", req)
	if err != nil {
		return nil, err
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("tavily: failed to parse response: %w", err)
	}

	if len(parsed.Results) == 0 {
		if len(parsed.Failed) > 0 {
			return nil, fmt.Errorf("tavily: extraction failed for %s: %s", rawURL, parsed.Failed[0].Error)
		}
		return nil, fmt.Errorf("tavily: no results returned for %s", rawURL)
	}

	r := parsed.Results[0]
	a := &Article{URL: r.URL, Title: r.Title, Text: CleanNewlines(r.RawContent)}
	if a.URL == "" {
		a.URL = rawURL
	}
	return a, nil
}
