// Package source holds the board definitions trackr knows how to read.
package source

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/byteowlz/trackr/internal/fetcher"
	"github.com/byteowlz/trackr/internal/listing"
)

var (
	ErrUnknownSource = errors.New("unknown source")
	ErrInvalidPage   = errors.New("page number must be 1 or greater")
)

// Source is a board: where its pages live, how to read them and how to fetch them.
type Source struct {
	Name  string
	Title string
	// URLTemplate may contain {page} (1-based) and {offset} (0-based).
	URLTemplate    string
	Rules          listing.Rules
	Timeout        time.Duration
	MaxRedirects   int
	UseProxy       bool
	BrowserCookies bool
	FetchMode      fetcher.FetchMode
}

// Override carries user configuration for a source. Zero values keep the preset.
type Override struct {
	Title            string
	URL              string
	BaseURL          string
	MarkerClass      string
	NoiseSelector    string
	DescriptionClass string
	InfoClass        string
	InfoLinkClass    string
	SkipCount        *int
	Timeout          int
	MaxRedirects     int
	UseProxy         *bool
	BrowserCookies   *bool
	FetchMode        string
}

func builtins() map[string]Source {
	return map[string]Source{
		"geeknews": {
			Name:        "geeknews",
			Title:       "GeekNews Tracker",
			URLTemplate: "https://news.hada.io/new?page={page}",
			Rules: listing.Rules{
				BaseURL:          "https://news.hada.io/",
				MarkerClass:      "topictitle",
				DescriptionClass: "topicdesc",
				InfoClass:        "topicinfo",
				InfoLinkClass:    "u",
			},
			Timeout:   5 * time.Second,
			FetchMode: fetcher.FetchModeStatic,
		},
		"clien": {
			Name:        "clien",
			Title:       "Clien Tracker",
			URLTemplate: "https://www.clien.net/service/group/allreview?&po={offset}",
			Rules: listing.Rules{
				BaseURL:       "https://www.clien.net/service/group/allreview",
				MarkerClass:   "list_title",
				NoiseSelector: "span.shortname.fixed",
				// the first two list_title blocks are pinned notices
				SkipCount: 2,
			},
			MaxRedirects: 10,
			UseProxy:     true,
			FetchMode:    fetcher.FetchModeStatic,
		},
	}
}

// Lookup returns the named source with any override applied. Names not in
// the presets are accepted when the override defines at least a URL and marker.
func Lookup(name string, overrides map[string]Override) (Source, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	src, known := builtins()[key]
	ov, overridden := overrides[key]

	if !known {
		if !overridden || ov.URL == "" || ov.MarkerClass == "" {
			return Source{}, fmt.Errorf("%w: %q", ErrUnknownSource, name)
		}
		src = Source{Name: key, Title: key, FetchMode: fetcher.FetchModeStatic}
	}

	if overridden {
		src = apply(src, ov)
	}
	return src, nil
}

// Names lists every preset and configured source, sorted.
func Names(overrides map[string]Override) []string {
	seen := map[string]bool{}
	for name := range builtins() {
		seen[name] = true
	}
	for name, ov := range overrides {
		if ov.URL != "" && ov.MarkerClass != "" {
			seen[strings.ToLower(name)] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func apply(src Source, ov Override) Source {
	if ov.Title != "" {
		src.Title = ov.Title
	}
	if ov.URL != "" {
		src.URLTemplate = ov.URL
	}
	if ov.BaseURL != "" {
		src.Rules.BaseURL = ov.BaseURL
	}
	if ov.MarkerClass != "" {
		src.Rules.MarkerClass = ov.MarkerClass
	}
	if ov.NoiseSelector != "" {
		src.Rules.NoiseSelector = ov.NoiseSelector
	}
	if ov.DescriptionClass != "" {
		src.Rules.DescriptionClass = ov.DescriptionClass
	}
	if ov.InfoClass != "" {
		src.Rules.InfoClass = ov.InfoClass
	}
	if ov.InfoLinkClass != "" {
		src.Rules.InfoLinkClass = ov.InfoLinkClass
	}
	if ov.SkipCount != nil {
		src.Rules.SkipCount = *ov.SkipCount
	}
	if ov.Timeout > 0 {
		src.Timeout = time.Duration(ov.Timeout) * time.Second
	}
	if ov.MaxRedirects > 0 {
		src.MaxRedirects = ov.MaxRedirects
	}
	if ov.UseProxy != nil {
		src.UseProxy = *ov.UseProxy
	}
	if ov.BrowserCookies != nil {
		src.BrowserCookies = *ov.BrowserCookies
	}
	if ov.FetchMode != "" {
		src.FetchMode = fetcher.FetchMode(ov.FetchMode)
	}
	if src.Rules.BaseURL == "" {
		src.Rules.BaseURL = src.URLTemplate
	}
	return src
}

// PageURL builds the listing URL for a 1-based page number.
func (s Source) PageURL(page int) (string, error) {
	if page < 1 {
		return "", ErrInvalidPage
	}
	r := strings.NewReplacer(
		"{page}", strconv.Itoa(page),
		"{offset}", strconv.Itoa(page-1),
	)
	return r.Replace(s.URLTemplate), nil
}
