package article

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// JinaBackend reads pages through r.jina.ai, which renders the page itself
// and answers with a small header block followed by markdown.
type JinaBackend struct {
	APIKey  string // optional, raises the rate limit
	Timeout time.Duration
	BaseURL string
	client  *http.Client
}

func NewJinaBackend(apiKey string, timeout time.Duration) *JinaBackend {
	client, timeout := newAPIClient(timeout)
	return &JinaBackend{
		APIKey:  apiKey,
		Timeout: timeout,
		BaseURL: "https://r.jina.ai/",
		client:  client,
	}
}

func (j *JinaBackend) Name() string {
	return "jina"
}

func (j *JinaBackend) IsAvailable() bool {
	return true
}

func (j *JinaBackend) Text(ctx context.Context, rawURL string) (*Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.BaseURL+rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("jina: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")
	if j.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+j.APIKey)
	}

	body, err := callAPI(j.client, "jina", req)
	if err != nil {
		return nil, err
	}

	page := parseJinaPage(string(body))
	return &Article{
		URL:   rawURL,
		Title: page.headers["Title"],
		Text:  plainText(page.markdown),
	}, nil
}

type jinaPage struct {
	headers  map[string]string
	markdown string
}

// parseJinaPage splits the "Key: value" header lines from the markdown body.
// Without a "Markdown Content:" line the body starts at the first line that
// is not a header.
func parseJinaPage(content string) jinaPage {
	page := jinaPage{headers: make(map[string]string)}
	lines := strings.Split(content, "\n")

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			key, ok = strings.CutSuffix(strings.TrimSpace(line), ":")
		}
		if !ok || strings.HasPrefix(key, "#") || strings.ContainsAny(key, "*[`") {
			page.markdown = strings.Join(lines[i:], "\n")
			return page
		}
		if key == "Markdown Content" {
			page.markdown = strings.Join(lines[i+1:], "\n")
			return page
		}
		page.headers[key] = strings.TrimSpace(value)
	}
	return page
}

// plainText drops heading marks and bold/underline emphasis.
func plainText(md string) string {
	lines := strings.Split(md, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(strings.TrimLeft(line, "#"))
		line = strings.NewReplacer("**", "", "__", "").Replace(line)
		lines[i] = line
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
