package browser

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"testing"
)

func fakeSource(cookies ...storedCookie) cookieSource {
	return func(ctx context.Context) iter.Seq2[storedCookie, error] {
		return func(yield func(storedCookie, error) bool) {
			if !yield(storedCookie{}, errors.New("locked store")) {
				return
			}
			for _, c := range cookies {
				if !yield(c, nil) {
					return
				}
			}
		}
	}
}

func stored(browser, path, domain, name string) storedCookie {
	return storedCookie{
		browser:  browser,
		filePath: path,
		cookie:   http.Cookie{Name: name, Value: "v", Domain: domain},
	}
}

func TestMatchesDomain(t *testing.T) {
	tests := []struct {
		cookie, target string
		want           bool
	}{
		{"www.clien.net", "www.clien.net", true},
		{".clien.net", "www.clien.net", true},
		{"clien.net", "www.clien.net", true},
		{"clien.net", "notclien.net", false},
		{"www.clien.net", "clien.net", false},
		{"", "clien.net", false},
		{"clien.net", "", false},
	}
	for _, tt := range tests {
		if got := matchesDomain(tt.cookie, tt.target); got != tt.want {
			t.Errorf("matchesDomain(%q, %q) = %v, want %v", tt.cookie, tt.target, got, tt.want)
		}
	}
}

func TestMatchesBrowserType(t *testing.T) {
	tests := []struct {
		browser, path string
		bt            BrowserType
		want          bool
	}{
		{"chromium", "", BrowserChrome, true},
		{"firefox", "/home/u/.mozilla/firefox", BrowserFirefox, true},
		{"firefox", "/home/u/.zen/abc.default", BrowserFirefox, false},
		{"firefox", "/home/u/.zen/abc.default", BrowserZen, true},
		{"safari", "", BrowserSafari, true},
		{"safari", "", BrowserChrome, false},
		{"anything", "", BrowserAuto, true},
	}
	for _, tt := range tests {
		if got := matchesBrowserType(tt.browser, tt.path, tt.bt); got != tt.want {
			t.Errorf("matchesBrowserType(%q, %q, %s) = %v, want %v", tt.browser, tt.path, tt.bt, got, tt.want)
		}
	}
}

func TestExtractCookies(t *testing.T) {
	source := fakeSource(
		stored("firefox", "/home/u/.mozilla/firefox", ".clien.net", "ff"),
		stored("chrome", "/home/u/.config/google-chrome", "www.clien.net", "session"),
		stored("chrome", "/home/u/.config/google-chrome", "news.hada.io", "other"),
	)

	tests := []struct {
		bt   BrowserType
		want []string
	}{
		{BrowserAuto, []string{"session"}},
		{BrowserFirefox, []string{"ff"}},
		{BrowserSafari, nil},
	}
	for _, tt := range tests {
		ce := NewCookieExtractor(tt.bt)
		ce.source = source

		cookies, err := ce.ExtractCookies(context.Background(), "https://www.clien.net/service/group/allreview")
		if err != nil {
			t.Fatalf("%s: ExtractCookies failed: %v", tt.bt, err)
		}
		if len(cookies) != len(tt.want) {
			t.Fatalf("%s: expected %v, got %d cookies", tt.bt, tt.want, len(cookies))
		}
		for i, c := range cookies {
			if c.Name != tt.want[i] {
				t.Errorf("%s: cookie %d = %q, want %q", tt.bt, i, c.Name, tt.want[i])
			}
		}
	}
}

func TestExtractCookies_InvalidURL(t *testing.T) {
	ce := NewCookieExtractor(BrowserAuto)
	ce.source = fakeSource()
	if _, err := ce.ExtractCookies(context.Background(), "not a url"); err == nil {
		t.Error("expected error for URL without host")
	}
}

func TestParseBrowserType(t *testing.T) {
	tests := []struct {
		in      string
		want    BrowserType
		wantErr bool
	}{
		{"", BrowserAuto, false},
		{" Chrome ", BrowserChrome, false},
		{"zen", BrowserZen, false},
		{"edge", "", true},
	}
	for _, tt := range tests {
		got, err := ParseBrowserType(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseBrowserType(%q) = %q, %v", tt.in, got, err)
		}
	}
}
