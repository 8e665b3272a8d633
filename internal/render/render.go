// Package render writes listings, summaries and weather readings as plain
// text, markdown or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/byteowlz/trackr/internal/weather"
	"github.com/byteowlz/trackr/pkg/trackr"
)

type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatMarkdown, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown format: %s (available: text, markdown, json)", s)
}

var strict = bluemonday.StrictPolicy()

// Listing writes one page of a source. width wraps descriptions and summaries
// in text output; 0 disables wrapping.
func Listing(w io.Writer, format Format, l *trackr.Listing, width int) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, l)
	case FormatMarkdown:
		return listingMarkdown(w, l)
	default:
		return listingText(w, l, width)
	}
}

func listingText(w io.Writer, l *trackr.Listing, width int) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (page %d)\n%s\n", l.Title, l.Page, l.URL)

	for i, item := range l.Items {
		indent := strings.Repeat(" ", len(fmt.Sprint(i+1))+2)
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, item.Title)
		fmt.Fprintf(&b, "%s%s\n", indent, item.URL)
		b.WriteString(indentText(wrapText(item.Description, width-len(indent)), indent))
		b.WriteString("\n")
		if item.InfoURL != "" {
			fmt.Fprintf(&b, "%sComments: %s\n", indent, item.InfoURL)
		}
		if item.Summary != "" {
			b.WriteString(indentText(wrapText("Summary: "+item.Summary, width-len(indent)), indent))
			b.WriteString("\n")
		}
		if item.SummaryError != "" {
			fmt.Fprintf(&b, "%sSummary unavailable: %s\n", indent, item.SummaryError)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func listingMarkdown(w io.Writer, l *trackr.Listing) error {
	var md strings.Builder
	fmt.Fprintf(&md, "# %s\n\n", markdownText(l.Title))
	fmt.Fprintf(&md, "Page %d of <%s>\n\n", l.Page, l.URL)

	for i, item := range l.Items {
		fmt.Fprintf(&md, "%d. [%s](%s)\n", i+1, markdownText(item.Title), item.URL)
		fmt.Fprintf(&md, "   %s\n", markdownText(item.Description))
		if item.InfoURL != "" {
			fmt.Fprintf(&md, "   [comments](%s)\n", item.InfoURL)
		}
		if item.Summary != "" {
			fmt.Fprintf(&md, "\n   > %s\n", markdownText(item.Summary))
		}
		md.WriteString("\n")
	}

	_, err := io.WriteString(w, md.String())
	return err
}

func Summary(w io.Writer, format Format, s *trackr.Summary, width int) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, s)
	case FormatMarkdown:
		title := s.Title
		if title == "" {
			title = s.URL
		}
		_, err := fmt.Fprintf(w, "## [%s](%s)\n\n%s\n", markdownText(title), s.URL, markdownText(s.Text))
		return err
	default:
		var b strings.Builder
		if s.Title != "" {
			b.WriteString(s.Title + "\n")
		}
		b.WriteString(s.URL + "\n\n")
		b.WriteString(wrapText(s.Text, width) + "\n")
		_, err := io.WriteString(w, b.String())
		return err
	}
}

func Weather(w io.Writer, format Format, r *weather.Reading) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, r)
	case FormatMarkdown:
		_, err := fmt.Fprintf(w, "**%s** %.1f°C <span style=\"color:%s\">%s</span>\n",
			markdownText(r.City), r.TempC, r.Band.Color, r.Band.Name)
		return err
	default:
		_, err := fmt.Fprintf(w, "%s: %.1f°C (%s)\n", r.City, r.TempC, r.Band.Name)
		return err
	}
}

func Sources(w io.Writer, format Format, sources []trackr.SourceInfo) error {
	if format == FormatJSON {
		return writeJSON(w, sources)
	}
	var b strings.Builder
	for _, s := range sources {
		if format == FormatMarkdown {
			fmt.Fprintf(&b, "- **%s** %s `%s`\n", s.Name, markdownText(s.Title), s.URL)
			continue
		}
		fmt.Fprintf(&b, "%-10s %-20s %s\n", s.Name, s.Title, s.URL)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// markdownText strips markup from scraped text and escapes the characters
// that would break link syntax.
func markdownText(s string) string {
	s = strict.Sanitize(s)
	s = strings.NewReplacer("[", `\[`, "]", `\]`, "\n", " ").Replace(s)
	return strings.TrimSpace(s)
}

func indentText(text, indent string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

func wrapText(text string, lineWidth int) string {
	if lineWidth <= 0 {
		return text
	}

	var result strings.Builder
	paragraphs := strings.Split(text, "\n\n")

	for i, paragraph := range paragraphs {
		if i > 0 {
			result.WriteString("\n\n")
		}

		words := strings.Fields(paragraph)
		if len(words) == 0 {
			continue
		}

		currentLine := words[0]
		for _, word := range words[1:] {
			if len([]rune(currentLine))+1+len([]rune(word)) <= lineWidth {
				currentLine += " " + word
			} else {
				result.WriteString(currentLine + "\n")
				currentLine = word
			}
		}
		result.WriteString(currentLine)
	}

	return result.String()
}
