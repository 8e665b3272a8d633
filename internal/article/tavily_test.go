package article

import (
	"context"
	"errors"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTavilyBackend_IsAvailable(t *testing.T) {
	tests := []struct {
		apiKey string
		want   bool
	}{
		{"", false},
		{"tvly-xxx", true},
	}
	for _, tt := range tests {
		b := NewTavilyBackend(tt.apiKey, "basic", 10*time.Second)
		if got := b.IsAvailable(); got != tt.want {
			t.Errorf("IsAvailable(%q) = %v, want %v", tt.apiKey, got, tt.want)
		}
	}
}

func TestTavilyBackend_Defaults(t *testing.T) {
	b := NewTavilyBackend("key", "", 0)
	if b.Name() != "tavily" {
		t.Errorf("expected 'tavily', got %q", b.Name())
	}
	if b.ExtractDepth != "basic" {
		t.Errorf("expected default extract_depth 'basic', got %q", b.ExtractDepth)
	}
	if b.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %v", b.Timeout)
	}
	if b.BaseURL != "https://api.tavily.com/extract" {
		t.Errorf("expected default BaseURL, got %q", b.BaseURL)
	}
}

func TestTavilyBackend_Text_Unavailable(t *testing.T) {
	_, err := NewTavilyBackend("", "basic", 10*time.Second).Text(context.Background(), "https://example.com")
	if !errors.Is(err, ErrUnconfigured) {
		t.Errorf("unexpected error: %v", err)
	}
}

func newTestTavilyBackend(serverURL, apiKey string) *TavilyBackend {
	b := NewTavilyBackend(apiKey, "basic", 10*time.Second)
	b.BaseURL = serverURL
	return b
}

func TestTavilyBackend_Text_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var req tavilyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
			return
		}
		if len(req.URLs) != 1 || req.URLs[0] != "https://example.com" {
			t.Errorf("expected URL 'https://example.com', got %v", req.URLs)
		}
		if req.ExtractDepth != "basic" {
			t.Errorf("expected extract_depth basic, got %q", req.ExtractDepth)
		}

		w.Write([]byte(`{"results":[{"url":"https://example.com","title":"Example Page","raw_content":"This is the\nextracted content."}],"failed_results":[],"response_time":1.5}`))
	}))
	defer server.Close()

	a, err := newTestTavilyBackend(server.URL, "test-key").Text(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if a.Title != "Example Page" {
		t.Errorf("expected title 'Example Page', got %q", a.Title)
	}
	if a.Text != "This is the extracted content." {
		t.Errorf("unexpected text %q", a.Text)
	}
}

func TestTavilyBackend_Text_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "failed url",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"results":[],"failed_results":[{"url":"https://example.com","error":"blocked"}]}`))
			},
			want: "extraction failed for https://example.com: blocked",
		},
		{
			name: "no results",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"results":[]}`))
			},
			want: "no results",
		},
		{
			name: "auth",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail": "invalid key"}`))
			},
			want: "authentication failed",
		},
		{
			name: "rate limit",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			want: "rate limited",
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`not valid json`))
			},
			want: "failed to parse",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := newTestTavilyBackend(server.URL, "key").Text(context.Background(), "https://example.com")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
