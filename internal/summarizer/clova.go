// Package summarizer condenses article text with the CLOVA Summary API.
package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultEndpoint  = "https://naveropenapi.apigw.ntruss.com/text-summary/v1/summarize"
	DefaultChunkSize = 2000
)

var (
	ErrEmptyContent = errors.New("summarizer: nothing to summarize")
	ErrMissingKeys  = errors.New("summarizer: client id and secret not configured")
)

type Options struct {
	Language     string
	Model        string
	Tone         int
	SummaryCount int
}

func DefaultOptions() Options {
	return Options{
		Language:     "ko",
		Model:        "general",
		Tone:         3,
		SummaryCount: 3,
	}
}

// ClovaClient summarizes long text chunk by chunk and joins the results.
type ClovaClient struct {
	ClientID     string
	ClientSecret string
	Endpoint     string
	ChunkSize    int
	Options      Options
	client       *http.Client
}

func NewClovaClient(clientID, clientSecret string, timeout time.Duration) *ClovaClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ClovaClient{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     DefaultEndpoint,
		ChunkSize:    DefaultChunkSize,
		Options:      DefaultOptions(),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *ClovaClient) Name() string {
	return "clova"
}

func (c *ClovaClient) IsAvailable() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type clovaRequest struct {
	Document clovaDocument `json:"document"`
	Option   clovaOption   `json:"option"`
}

type clovaDocument struct {
	Content string `json:"content"`
	Title   string `json:"title"`
}

type clovaOption struct {
	Language     string `json:"language"`
	Model        string `json:"model"`
	Tone         int    `json:"tone"`
	SummaryCount int    `json:"summaryCount"`
}

type clovaResponse struct {
	Summary string `json:"summary"`
}

// Summarize sends every chunk of text and concatenates the summaries. A failed
// chunk fails the whole summary.
func (c *ClovaClient) Summarize(ctx context.Context, text string) (string, error) {
	if !c.IsAvailable() {
		return "", ErrMissingKeys
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyContent
	}

	var summary strings.Builder
	for _, chunk := range Chunk(text, c.ChunkSize) {
		part, err := c.summarizeChunk(ctx, chunk)
		if err != nil {
			return "", err
		}
		summary.WriteString(part)
	}
	return summary.String(), nil
}

func (c *ClovaClient) summarizeChunk(ctx context.Context, chunk string) (string, error) {
	body, err := json.Marshal(clovaRequest{
		Document: clovaDocument{Content: chunk},
		Option: clovaOption{
			Language:     c.Options.Language,
			Model:        c.Options.Model,
			Tone:         c.Options.Tone,
			SummaryCount: c.Options.SummaryCount,
		},
	})
	if err != nil {
		return "", fmt.Errorf("summarizer: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("summarizer: failed to create request: %w", err)
	}
	req.Header.Set("X-NCP-APIGW-API-KEY-ID", c.ClientID)
	req.Header.Set("X-NCP-APIGW-API-KEY", c.ClientSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("summarizer: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("summarizer: failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case 401, 403:
			return "", fmt.Errorf("summarizer: authentication failed: %s", string(respBody))
		case 429:
			return "", fmt.Errorf("summarizer: rate limited: %s", string(respBody))
		default:
			return "", fmt.Errorf("summarizer: HTTP %d: %s", resp.StatusCode, string(respBody))
		}
	}

	var parsed clovaResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("summarizer: failed to parse response: %w", err)
	}
	return parsed.Summary, nil
}

// Chunk splits text into pieces of at most size characters.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	runes := []rune(text)
	chunks := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
