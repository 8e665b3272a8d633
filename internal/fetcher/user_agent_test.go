package fetcher

import (
	"strings"
	"testing"
)

func TestGetUserAgent(t *testing.T) {
	uas := newSeededSelector(1)

	tests := []struct {
		input    string
		contains string
	}{
		{"chrome", "Chrome/"},
		{"Firefox", "Firefox/"},
		{" safari ", "Safari/"},
		{"edge", "Edg/"},
	}
	for _, tt := range tests {
		got := uas.GetUserAgent(tt.input)
		if !strings.Contains(got, tt.contains) {
			t.Errorf("GetUserAgent(%q) = %q, want it to contain %q", tt.input, got, tt.contains)
		}
	}
}

func TestGetUserAgent_Auto(t *testing.T) {
	all := allUserAgents()
	for _, input := range []string{"", "auto"} {
		got := newSeededSelector(7).GetUserAgent(input)
		found := false
		for _, ua := range all {
			if ua == got {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("GetUserAgent(%q) returned unknown agent %q", input, got)
		}
	}
}

func TestGetUserAgent_Literal(t *testing.T) {
	got := newSeededSelector(1).GetUserAgent("MyBot/2.0 (+https://example.com)")
	if got != "MyBot/2.0 (+https://example.com)" {
		t.Errorf("expected literal user agent to pass through, got %q", got)
	}
}

func TestGetUserAgent_Reproducible(t *testing.T) {
	a := newSeededSelector(42).GetUserAgent("auto")
	b := newSeededSelector(42).GetUserAgent("auto")
	if a != b {
		t.Errorf("same seed gave different agents: %q vs %q", a, b)
	}
}
