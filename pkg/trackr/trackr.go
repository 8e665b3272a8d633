// Package trackr reads board listings and summarises the linked articles.
package trackr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/byteowlz/trackr/internal/article"
	"github.com/byteowlz/trackr/internal/browser"
	"github.com/byteowlz/trackr/internal/cache"
	"github.com/byteowlz/trackr/internal/config"
	"github.com/byteowlz/trackr/internal/fetcher"
	"github.com/byteowlz/trackr/internal/listing"
	"github.com/byteowlz/trackr/internal/logging"
	"github.com/byteowlz/trackr/internal/source"
	"github.com/byteowlz/trackr/internal/summarizer"
	"github.com/byteowlz/trackr/internal/weather"
)

type Tracker struct {
	config     *config.Config
	fetcher    *fetcher.Fetcher
	cookies    *browser.CookieExtractor
	cache      cache.Cache
	article    article.Backend
	summarizer *summarizer.ClovaClient
	weather    *weather.Client
	log        *logging.Logger
}

type ListOptions struct {
	Page      int
	Summarize bool
	UseJS     *bool // nil = source/config default, true = force, false = disable
	// Browser, when set, reads cookies from that browser even if the source
	// does not ask for them.
	Browser string
}

// Entry is one listing item, optionally with the summary of its article.
type Entry struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	Description  string `json:"description"`
	InfoURL      string `json:"info_url,omitempty"`
	Summary      string `json:"summary,omitempty"`
	SummaryError string `json:"summary_error,omitempty"`
}

type Listing struct {
	Source    string    `json:"source"`
	Title     string    `json:"title"`
	PageTitle string    `json:"page_title,omitempty"`
	Page      int       `json:"page"`
	URL       string    `json:"url"`
	UsedJS    bool      `json:"used_js"`
	FetchedAt time.Time `json:"fetched_at"`
	Items     []Entry   `json:"items"`
}

type Summary struct {
	URL    string `json:"url"`
	Title  string `json:"title"`
	Text   string `json:"summary"`
	Cached bool   `json:"cached"`
}

type SourceInfo struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// New wires a Tracker from cfg. A nil log discards diagnostics.
func New(ctx context.Context, cfg *config.Config, log *logging.Logger) (*Tracker, error) {
	if log == nil {
		log = logging.Discard()
	}

	c, err := cache.New(ctx, cache.Options{
		Backend:       cfg.Cache.Backend,
		RedisAddr:     cfg.Cache.RedisAddr,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
		Prefix:        cfg.Cache.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	browserType, err := browser.ParseBrowserType(cfg.Browser.Default)
	if err != nil {
		return nil, err
	}

	f := fetcher.New()
	backend, err := article.New(cfg.Summary.ArticleBackend, article.Settings{
		Local: article.LocalConfig{
			Fetcher: f,
			Options: fetcher.Options{
				Mode:         fetcher.FetchModeStatic,
				Timeout:      cfg.NetworkTimeout(),
				UserAgent:    cfg.Network.UserAgent,
				BrowserAgent: cfg.Network.BrowserAgent,
				MaxRedirects: cfg.Network.MaxRedirects,
			},
		},
		JinaAPIKey:   cfg.Summary.JinaAPIKey,
		TavilyAPIKey: cfg.Summary.TavilyAPIKey,
		TavilyDepth:  cfg.Summary.TavilyDepth,
	})
	if err != nil {
		return nil, err
	}

	sum := summarizer.NewClovaClient(cfg.Summary.ClientID, cfg.Summary.ClientSecret, cfg.NetworkTimeout())
	if cfg.Summary.Endpoint != "" {
		sum.Endpoint = cfg.Summary.Endpoint
	}
	if cfg.Summary.ChunkSize > 0 {
		sum.ChunkSize = cfg.Summary.ChunkSize
	}
	sum.Options = summarizer.Options{
		Language:     cfg.Summary.Language,
		Model:        cfg.Summary.Model,
		Tone:         cfg.Summary.Tone,
		SummaryCount: cfg.Summary.SummaryCount,
	}

	w := weather.NewClient(cfg.Weather.APIKey, f, c)
	w.Log = log
	if timeout := cfg.NetworkTimeout(); timeout > 0 {
		w.Timeout = timeout
	}
	if cfg.Weather.Endpoint != "" {
		w.Endpoint = cfg.Weather.Endpoint
	}
	if cfg.Weather.CacheTTL > 0 {
		w.CacheTTL = time.Duration(cfg.Weather.CacheTTL) * time.Second
	}

	log.Debugf("cache=%s article_backend=%s browser=%s", cfg.Cache.Backend, backend.Name(), browserType)

	return &Tracker{
		config:     cfg,
		fetcher:    f,
		cookies:    browser.NewCookieExtractor(browserType),
		cache:      c,
		article:    backend,
		summarizer: sum,
		weather:    w,
		log:        log,
	}, nil
}

func (t *Tracker) Close() error {
	if closer, ok := t.cache.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (t *Tracker) Sources() []SourceInfo {
	overrides := t.config.SourceOverrides()
	var infos []SourceInfo
	for _, name := range source.Names(overrides) {
		src, err := source.Lookup(name, overrides)
		if err != nil {
			continue
		}
		infos = append(infos, SourceInfo{Name: src.Name, Title: src.Title, URL: src.URLTemplate})
	}
	return infos
}

// List fetches one page of a source and extracts its items. A page that
// yields no items is returned with an empty Items slice, not an error.
func (t *Tracker) List(ctx context.Context, name string, opts ListOptions) (*Listing, error) {
	src, err := source.Lookup(name, t.config.SourceOverrides())
	if err != nil {
		return nil, err
	}

	page := opts.Page
	if page == 0 {
		page = 1
	}
	pageURL, err := src.PageURL(page)
	if err != nil {
		return nil, err
	}

	fetchOpts := t.fetchOptions(ctx, src, pageURL, opts)
	t.log.Debugf("fetching %s (mode=%s)", pageURL, fetchOpts.Mode)

	result, err := t.fetcher.Fetch(ctx, pageURL, fetchOpts)
	if err != nil {
		return nil, err
	}

	extracted := listing.ExtractPage(result.Body, src.Rules)
	t.log.Debugf("extracted %d items from %s", len(extracted.Items), pageURL)

	l := &Listing{
		Source:    src.Name,
		Title:     src.Title,
		PageTitle: extracted.Title,
		Page:      page,
		URL:       pageURL,
		UsedJS:    result.UsedJS,
		FetchedAt: time.Now(),
		Items:     make([]Entry, 0, len(extracted.Items)),
	}

	for _, item := range extracted.Items {
		entry := Entry{
			Title:       item.Title,
			URL:         item.URL,
			Description: item.Description,
			InfoURL:     item.InfoURL,
		}
		if opts.Summarize {
			s, err := t.Summarize(ctx, item.URL)
			if err != nil {
				t.log.Warnf("summary of %s failed: %v", item.URL, err)
				entry.SummaryError = err.Error()
			} else {
				entry.Summary = s.Text
			}
		}
		l.Items = append(l.Items, entry)
	}

	return l, nil
}

func (t *Tracker) fetchOptions(ctx context.Context, src source.Source, pageURL string, opts ListOptions) fetcher.Options {
	nc := t.config.Network

	fo := fetcher.Options{
		Mode:         fetcher.FetchMode(nc.FetchMode),
		Timeout:      t.config.NetworkTimeout(),
		UserAgent:    nc.UserAgent,
		BrowserAgent: nc.BrowserAgent,
		MaxRedirects: nc.MaxRedirects,
		NoRedirects:  !nc.FollowRedirects,
	}
	if src.FetchMode != "" {
		fo.Mode = src.FetchMode
	}
	if opts.UseJS != nil {
		fo.Mode = fetcher.FetchModeStatic
		if *opts.UseJS {
			fo.Mode = fetcher.FetchModeJS
		}
	}
	if src.Timeout > 0 {
		fo.Timeout = src.Timeout
	}
	if src.MaxRedirects > 0 {
		fo.MaxRedirects = src.MaxRedirects
	}
	if src.UseProxy {
		fo.Proxy = fetcher.Proxy{HTTP: nc.HTTPProxy, HTTPS: nc.HTTPSProxy}
	}

	if src.BrowserCookies || opts.Browser != "" {
		extractor := t.cookies
		if opts.Browser != "" {
			if bt, err := browser.ParseBrowserType(opts.Browser); err == nil {
				extractor = browser.NewCookieExtractor(bt)
			} else {
				t.log.Warnf("%v", err)
			}
		}
		cookies, err := extractor.ExtractCookies(ctx, pageURL)
		if err != nil {
			// not fatal, the board may still be readable anonymously
			t.log.Warnf("cookie extraction for %s failed: %v", pageURL, err)
		}
		t.log.Debugf("using %d browser cookies for %s", len(cookies), pageURL)
		fo.Cookies = cookies
	}

	return fo
}

// Summarize returns the summary of the article at url, cached by URL.
func (t *Tracker) Summarize(ctx context.Context, url string) (*Summary, error) {
	key := "summary:" + url
	if data, ok, err := t.cache.Get(ctx, key); err != nil {
		t.log.Warnf("cache read failed: %v", err)
	} else if ok {
		var s Summary
		if json.Unmarshal(data, &s) == nil {
			s.Cached = true
			return &s, nil
		}
	}

	if !t.article.IsAvailable() {
		return nil, fmt.Errorf("%s: %w", t.article.Name(), article.ErrUnconfigured)
	}
	a, err := t.article.Text(ctx, url)
	if err != nil {
		return nil, err
	}
	t.log.Debugf("article %s: %d characters via %s", url, len(a.Text), t.article.Name())

	text, err := t.summarizer.Summarize(ctx, a.Text)
	if err != nil {
		return nil, err
	}

	s := &Summary{URL: url, Title: a.Title, Text: text}
	if data, err := json.Marshal(s); err == nil {
		ttl := time.Duration(t.config.Summary.CacheTTL) * time.Second
		if err := t.cache.Set(ctx, key, data, ttl); err != nil {
			t.log.Warnf("cache write failed: %v", err)
		}
	}
	return s, nil
}

// Weather returns the current reading for city, or the configured city when
// city is empty.
func (t *Tracker) Weather(ctx context.Context, city string) (*weather.Reading, error) {
	if city == "" {
		city = t.config.Weather.City
	}
	return t.weather.Current(ctx, city)
}
