// Package article turns a linked page into plain text for summarising.
package article

import (
	"context"
	"fmt"
)

// Article is the readable text of one linked page.
type Article struct {
	URL   string
	Title string
	Text  string
}

// Backend is the interface for article text backends
type Backend interface {
	// Name returns the unique identifier for this backend
	Name() string

	// Text fetches url and returns its readable text
	Text(ctx context.Context, url string) (*Article, error)

	// IsAvailable checks if the backend is properly configured
	IsAvailable() bool
}

// Names lists the backends New accepts.
var Names = []string{"paragraphs", "readability", "jina", "tavily"}

// Settings carries what the backends need to be constructed.
type Settings struct {
	Local        LocalConfig
	JinaAPIKey   string
	TavilyAPIKey string
	TavilyDepth  string
}

// New returns the named backend. An empty name selects paragraphs.
func New(name string, s Settings) (Backend, error) {
	switch name {
	case "", "paragraphs":
		return NewParagraphBackend(s.Local), nil
	case "readability":
		return NewReadabilityBackend(s.Local), nil
	case "jina":
		return NewJinaBackend(s.JinaAPIKey, s.Local.Options.Timeout), nil
	case "tavily":
		return NewTavilyBackend(s.TavilyAPIKey, s.TavilyDepth, s.Local.Options.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown article backend: %s (available: paragraphs, readability, jina, tavily)", name)
	}
}
