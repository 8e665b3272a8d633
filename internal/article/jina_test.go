package article

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestJinaBackend_Defaults(t *testing.T) {
	b := NewJinaBackend("", 0)
	if b.Name() != "jina" {
		t.Errorf("expected 'jina', got %q", b.Name())
	}
	if !b.IsAvailable() {
		t.Error("Jina should always be available")
	}
	if b.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %v", b.Timeout)
	}
	if b.BaseURL != "https://r.jina.ai/" {
		t.Errorf("expected default BaseURL, got %q", b.BaseURL)
	}
}

func newTestJinaBackend(serverURL, apiKey string) *JinaBackend {
	b := NewJinaBackend(apiKey, 10*time.Second)
	b.BaseURL = serverURL + "/"
	return b
}

func TestJinaBackend_Text_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if !strings.Contains(r.URL.Path, "news.hada.io") {
			t.Errorf("expected path containing the target, got %q", r.URL.Path)
		}

		w.Write([]byte(`Title: Rust 2025 Survey

URL Source: https://news.hada.io/topic?id=1

Markdown Content:
# Rust 2025 Survey

**Results** are in.`))
	}))
	defer server.Close()

	a, err := newTestJinaBackend(server.URL, "").Text(context.Background(), "https://news.hada.io/topic?id=1")
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}

	if a.URL != "https://news.hada.io/topic?id=1" {
		t.Errorf("unexpected URL %q", a.URL)
	}
	if a.Title != "Rust 2025 Survey" {
		t.Errorf("unexpected title %q", a.Title)
	}
	if a.Text != "Rust 2025 Survey\n\nResults are in." {
		t.Errorf("unexpected text %q", a.Text)
	}
}

func TestJinaBackend_Text_Authorization(t *testing.T) {
	tests := []struct {
		apiKey string
		want   string
	}{
		{"", ""},
		{"test-api-key", "Bearer test-api-key"},
	}
	for _, tt := range tests {
		var captured string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = r.Header.Get("Authorization")
			w.Write([]byte("Title: Test\n\nContent here"))
		}))

		newTestJinaBackend(server.URL, tt.apiKey).Text(context.Background(), "https://example.com")
		server.Close()

		if captured != tt.want {
			t.Errorf("apiKey %q: expected Authorization %q, got %q", tt.apiKey, tt.want, captured)
		}
	}
}

func TestJinaBackend_Text_Errors(t *testing.T) {
	tests := []struct {
		status  int
		wantErr error
		want    string
	}{
		{http.StatusTooManyRequests, ErrRateLimited, "rate limited"},
		{http.StatusForbidden, ErrUnauthorized, "nope"},
		{http.StatusInternalServerError, nil, "HTTP 500"},
	}
	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte("nope"))
		}))

		_, err := newTestJinaBackend(server.URL, "").Text(context.Background(), "https://example.com")
		server.Close()

		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("status %d: expected error containing %q, got %v", tt.status, tt.want, err)
		}
		if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
			t.Errorf("status %d: expected %v, got %v", tt.status, tt.wantErr, err)
		}
	}
}

func TestParseJinaPage(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		headers  map[string]string
		markdown string
	}{
		{
			name:     "with marker",
			content:  "Title: Example Title\nURL Source: https://example.com\nPublished Time: 2024-01-15\n\nMarkdown Content:\n# Heading\n\nBody: text",
			headers:  map[string]string{"Title": "Example Title", "URL Source": "https://example.com", "Published Time": "2024-01-15"},
			markdown: "# Heading\n\nBody: text",
		},
		{
			name:     "without marker",
			content:  "Title: Test\nURL: https://test.com\n\n# Content\n\nBody",
			headers:  map[string]string{"Title": "Test", "URL": "https://test.com"},
			markdown: "# Content\n\nBody",
		},
		{
			name:     "no headers",
			content:  "plain text only",
			headers:  map[string]string{},
			markdown: "plain text only",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := parseJinaPage(tt.content)
			if len(page.headers) != len(tt.headers) {
				t.Errorf("expected %d headers, got %v", len(tt.headers), page.headers)
			}
			for k, v := range tt.headers {
				if page.headers[k] != v {
					t.Errorf("header %q = %q, want %q", k, page.headers[k], v)
				}
			}
			if page.markdown != tt.markdown {
				t.Errorf("markdown = %q, want %q", page.markdown, tt.markdown)
			}
		})
	}
}

func TestPlainText(t *testing.T) {
	got := plainText("# Heading\n\n**Bold** and __underline__\n\n## Sub heading")
	want := "Heading\n\nBold and underline\n\nSub heading"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
