package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/byteowlz/trackr/internal/article"
	"github.com/byteowlz/trackr/internal/fetcher"
	"github.com/byteowlz/trackr/internal/source"
	"github.com/byteowlz/trackr/internal/summarizer"
	"github.com/byteowlz/trackr/internal/weather"
)

func TestExitCode(t *testing.T) {
	_, unknown := source.Lookup("nope", nil)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"timeout", fmt.Errorf("list: %w", &fetcher.Error{Reason: fetcher.ReasonTimeout, URL: "https://news.hada.io"}), ExitNetworkError},
		{"http", &fetcher.Error{Reason: fetcher.ReasonHTTP, StatusCode: 503}, ExitNetworkError},
		{"unknown source", unknown, ExitInvalidInput},
		{"invalid page", fmt.Errorf("list: %w", source.ErrInvalidPage), ExitInvalidInput},
		{"missing clova keys", summarizer.ErrMissingKeys, ExitConfigError},
		{"missing weather key", fmt.Errorf("weather: %w", weather.ErrMissingAPIKey), ExitConfigError},
		{"unconfigured article backend", fmt.Errorf("tavily: %w", article.ErrUnconfigured), ExitConfigError},
		{"other", errors.New("boom"), ExitProcessError},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("%s: exitCode = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestCheckPage(t *testing.T) {
	quiet = true
	defer func() { quiet = false }()

	tests := []struct {
		page int
		want int
	}{
		{1, ExitSuccess},
		{7, ExitSuccess},
		{0, ExitInvalidInput},
		{-3, ExitInvalidInput},
	}
	for _, tt := range tests {
		err := checkPage(tt.page)
		got := ExitSuccess
		var e *exitErr
		if errors.As(err, &e) {
			got = e.code
		} else if err != nil {
			t.Fatalf("page %d: unexpected error type %T", tt.page, err)
		}
		if got != tt.want {
			t.Errorf("checkPage(%d) exit code = %d, want %d", tt.page, got, tt.want)
		}
	}
}
