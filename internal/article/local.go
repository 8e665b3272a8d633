package article

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/byteowlz/trackr/internal/fetcher"
)

// LocalConfig is shared by the backends that fetch the page themselves.
type LocalConfig struct {
	Fetcher *fetcher.Fetcher
	Options fetcher.Options
}

func (lc LocalConfig) fetch(ctx context.Context, rawURL string) (*fetcher.Result, error) {
	f := lc.Fetcher
	if f == nil {
		f = fetcher.New()
	}
	return f.Fetch(ctx, rawURL, lc.Options)
}

// ParagraphBackend joins the text of every <p> element with single spaces.
type ParagraphBackend struct {
	config LocalConfig
}

func NewParagraphBackend(config LocalConfig) *ParagraphBackend {
	return &ParagraphBackend{config: config}
}

func (p *ParagraphBackend) Name() string {
	return "paragraphs"
}

func (p *ParagraphBackend) IsAvailable() bool {
	return true
}

func (p *ParagraphBackend) Text(ctx context.Context, rawURL string) (*Article, error) {
	result, err := p.config.fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("paragraphs: %w", err)
	}
	return paragraphsFromHTML(rawURL, result.Body), nil
}

func paragraphsFromHTML(rawURL, html string) *Article {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return &Article{URL: rawURL}
	}

	var parts []string
	doc.Find("p").Each(func(i int, s *goquery.Selection) {
		parts = append(parts, s.Text())
	})

	return &Article{
		URL:   rawURL,
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Text:  strings.Join(parts, " "),
	}
}

// ReadabilityBackend keeps only the main content block of the page.
type ReadabilityBackend struct {
	config LocalConfig
}

func NewReadabilityBackend(config LocalConfig) *ReadabilityBackend {
	return &ReadabilityBackend{config: config}
}

func (r *ReadabilityBackend) Name() string {
	return "readability"
}

func (r *ReadabilityBackend) IsAvailable() bool {
	return true
}

func (r *ReadabilityBackend) Text(ctx context.Context, rawURL string) (*Article, error) {
	result, err := r.config.fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("readability: %w", err)
	}
	return readableFromHTML(result.URL, result.Body)
}

func readableFromHTML(rawURL, html string) (*Article, error) {
	pageURL, _ := url.Parse(rawURL)

	parsed, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		return nil, fmt.Errorf("readability: failed to parse %s: %w", rawURL, err)
	}

	return &Article{
		URL:   rawURL,
		Title: parsed.Title,
		Text:  CleanNewlines(parsed.TextContent),
	}, nil
}

// CleanNewlines joins lines broken mid-sentence and keeps paragraph breaks.
func CleanNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var paragraphs []string
	for _, paragraph := range strings.Split(text, "\n\n") {
		var lines []string
		for _, line := range strings.Split(paragraph, "\n") {
			line = strings.Join(strings.Fields(line), " ")
			if line == "" {
				continue
			}
			if n := len(lines); n > 0 && !endsSentence(lines[n-1]) && !startsSentence(line) {
				lines[n-1] += " " + line
				continue
			}
			lines = append(lines, line)
		}
		if len(lines) > 0 {
			paragraphs = append(paragraphs, strings.Join(lines, "\n"))
		}
	}

	return strings.TrimSpace(strings.Join(paragraphs, "\n\n"))
}

func endsSentence(line string) bool {
	return strings.HasSuffix(line, ".") ||
		strings.HasSuffix(line, "!") ||
		strings.HasSuffix(line, "?") ||
		strings.HasSuffix(line, ":") ||
		strings.HasSuffix(line, ";") ||
		strings.HasSuffix(line, "다")
}

func startsSentence(line string) bool {
	c := line[0]
	return c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		strings.HasPrefix(line, "- ") ||
		strings.HasPrefix(line, "* ") ||
		strings.HasPrefix(line, "• ")
}
