// Package listing pulls repeating board entries out of a listing page.
package listing

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// NoDescription stands in for an entry without a description sibling.
	NoDescription = "No description available"
	// NoTitle is the page title when the document has no <title>.
	NoTitle = "No Title Found"

	// DefaultNoiseSelector matches the short-name badges boards nest inside titles.
	DefaultNoiseSelector = "span.shortname.fixed"
)

// Rules describe where the entries live in a source's markup.
type Rules struct {
	BaseURL          string
	MarkerClass      string
	NoiseSelector    string
	DescriptionClass string
	InfoClass        string
	InfoLinkClass    string
	SkipCount        int
}

// Item is one extracted entry. InfoURL is empty when the source has no
// secondary link for the entry.
type Item struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	InfoURL     string `json:"info_url,omitempty"`
}

// Page is a parsed listing page: its <title> text and the extracted items.
type Page struct {
	Title string `json:"title"`
	Items []Item `json:"items"`
}

// ExtractPage parses html once and returns the document title with its items.
func ExtractPage(html string, rules Rules) Page {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Page{Title: NoTitle, Items: []Item{}}
	}
	return Page{
		Title: pageTitle(doc),
		Items: extractItems(doc, rules),
	}
}

// Extract returns the items of html in document order. Malformed markup or a
// missing marker yields an empty slice.
func Extract(html string, rules Rules) []Item {
	return ExtractPage(html, rules).Items
}

func pageTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return NoTitle
	}
	return title
}

func extractItems(doc *goquery.Document, rules Rules) []Item {
	items := []Item{}
	if strings.TrimSpace(rules.MarkerClass) == "" {
		return items
	}

	base, err := url.Parse(rules.BaseURL)
	if err != nil || !base.IsAbs() {
		base = nil
	}

	marker := classSelector(rules.MarkerClass)

	doc.Find(marker).Each(func(i int, s *goquery.Selection) {
		anchor := s.Find("a").First()
		if anchor.Length() == 0 {
			return
		}

		title := anchorText(anchor, rules.NoiseSelector)
		if title == "" {
			return
		}

		href, _ := anchor.Attr("href")
		link, ok := resolve(base, href)
		if !ok {
			return
		}

		siblings := s.NextUntil(marker)

		item := Item{
			Title:       title,
			URL:         link,
			Description: NoDescription,
		}

		if rules.DescriptionClass != "" {
			desc := siblings.Filter(classSelector(rules.DescriptionClass)).First()
			if desc.Length() > 0 {
				item.Description = strings.TrimSpace(desc.Text())
			}
		}

		if rules.InfoClass != "" {
			info := siblings.Filter(classSelector(rules.InfoClass)).First()
			linkSel := "a"
			if rules.InfoLinkClass != "" {
				linkSel = "a" + classSelector(rules.InfoLinkClass)
			}
			if infoHref, exists := info.Find(linkSel).First().Attr("href"); exists {
				if infoURL, ok := resolve(base, infoHref); ok {
					item.InfoURL = infoURL
				}
			}
		}

		items = append(items, item)
	})

	if rules.SkipCount <= 0 {
		return items
	}
	if rules.SkipCount >= len(items) {
		return []Item{}
	}
	return items[rules.SkipCount:]
}

// anchorText returns the visible anchor text without noise elements, with
// runs of whitespace collapsed.
func anchorText(anchor *goquery.Selection, noise string) string {
	if noise == "" {
		noise = DefaultNoiseSelector
	}
	clean := anchor.Clone()
	clean.Find(noise).Remove()
	return strings.Join(strings.Fields(clean.Text()), " ")
}

// resolve turns href into an absolute http(s) URL, using base for relative references.
func resolve(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	if !ref.IsAbs() {
		if base == nil {
			return "", false
		}
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return "", false
	}
	return ref.String(), true
}

// classSelector accepts "name", ".name" or a space separated class list.
func classSelector(class string) string {
	fields := strings.Fields(class)
	for i, f := range fields {
		fields[i] = "." + strings.TrimPrefix(f, ".")
	}
	return strings.Join(fields, "")
}
