// Package browser reads the user's browser cookies so logged-in boards can be
// fetched with the same session.
package browser

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strings"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all" // Import all browser support
)

type BrowserType string

const (
	BrowserAuto    BrowserType = "auto"
	BrowserChrome  BrowserType = "chrome"
	BrowserFirefox BrowserType = "firefox"
	BrowserSafari  BrowserType = "safari"
	BrowserZen     BrowserType = "zen"
)

// autoOrder is the preference order when the browser is "auto".
var autoOrder = []BrowserType{BrowserChrome, BrowserFirefox, BrowserZen, BrowserSafari}

// storedCookie is one cookie together with the store it was read from.
type storedCookie struct {
	browser  string
	filePath string
	cookie   http.Cookie
}

type cookieSource func(ctx context.Context) iter.Seq2[storedCookie, error]

type CookieExtractor struct {
	browserType BrowserType
	source      cookieSource
}

func NewCookieExtractor(browserType BrowserType) *CookieExtractor {
	if browserType == "" {
		browserType = BrowserAuto
	}
	return &CookieExtractor{
		browserType: browserType,
		source:      kookyCookies,
	}
}

// ParseBrowserType validates a configured browser name.
func ParseBrowserType(name string) (BrowserType, error) {
	bt := BrowserType(strings.ToLower(strings.TrimSpace(name)))
	switch bt {
	case "":
		return BrowserAuto, nil
	case BrowserAuto, BrowserChrome, BrowserFirefox, BrowserSafari, BrowserZen:
		return bt, nil
	}
	return "", fmt.Errorf("unknown browser: %s (available: auto, chrome, firefox, safari, zen)", name)
}

// ExtractCookies returns the cookies stored for the host of targetURL. With
// BrowserAuto the first browser holding any matching cookie wins.
func (ce *CookieExtractor) ExtractCookies(ctx context.Context, targetURL string) ([]*http.Cookie, error) {
	parsedURL, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	host := parsedURL.Hostname()
	if host == "" {
		return nil, fmt.Errorf("no host in URL: %s", targetURL)
	}

	byBrowser := make(map[BrowserType][]*http.Cookie)
	for sc, err := range ce.source(ctx) {
		if err != nil {
			continue
		}
		if !matchesDomain(sc.cookie.Domain, host) {
			continue
		}
		for _, bt := range autoOrder {
			if matchesBrowserType(sc.browser, sc.filePath, bt) {
				c := sc.cookie
				byBrowser[bt] = append(byBrowser[bt], &c)
				break
			}
		}
	}

	if ce.browserType != BrowserAuto {
		return byBrowser[ce.browserType], nil
	}
	for _, bt := range autoOrder {
		if cookies := byBrowser[bt]; len(cookies) > 0 {
			return cookies, nil
		}
	}
	return nil, nil
}

func kookyCookies(ctx context.Context) iter.Seq2[storedCookie, error] {
	return func(yield func(storedCookie, error) bool) {
		for cookie, err := range kooky.TraverseCookies(ctx) {
			if err != nil {
				if !yield(storedCookie{}, err) {
					return
				}
				continue
			}
			sc := storedCookie{
				cookie: http.Cookie{
					Name:     cookie.Name,
					Value:    cookie.Value,
					Path:     cookie.Path,
					Domain:   cookie.Domain,
					Expires:  cookie.Expires,
					Secure:   cookie.Secure,
					HttpOnly: cookie.HttpOnly,
				},
			}
			if cookie.Browser != nil {
				sc.browser = cookie.Browser.Browser()
				sc.filePath = cookie.Browser.FilePath()
			}
			if !yield(sc, nil) {
				return
			}
		}
	}
}

func matchesBrowserType(browser, filePath string, browserType BrowserType) bool {
	browserName := strings.ToLower(browser)
	switch browserType {
	case BrowserAuto:
		return true
	case BrowserChrome:
		return strings.Contains(browserName, "chrome") || strings.Contains(browserName, "chromium")
	case BrowserFirefox:
		return strings.Contains(browserName, "firefox") && !strings.Contains(strings.ToLower(filePath), "zen")
	case BrowserSafari:
		return strings.Contains(browserName, "safari")
	case BrowserZen:
		return strings.Contains(browserName, "zen") ||
			(strings.Contains(browserName, "firefox") && strings.Contains(strings.ToLower(filePath), "zen"))
	}
	return false
}

func matchesDomain(cookieDomain, targetDomain string) bool {
	if cookieDomain == "" || targetDomain == "" {
		return false
	}

	cookieDomain = strings.TrimPrefix(cookieDomain, ".")
	if cookieDomain == targetDomain {
		return true
	}
	return strings.HasSuffix(targetDomain, "."+cookieDomain)
}
