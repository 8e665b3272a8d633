package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

type FetchMode string

const (
	FetchModeAuto   FetchMode = "auto"
	FetchModeStatic FetchMode = "static"
	FetchModeJS     FetchMode = "javascript"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRedirects = 10
)

// Proxy holds per-scheme proxy addresses. Empty fields mean a direct connection.
type Proxy struct {
	HTTP  string
	HTTPS string
}

type Options struct {
	Mode            FetchMode
	Timeout         time.Duration
	UserAgent       string
	BrowserAgent    string
	Cookies         []*http.Cookie
	Proxy           Proxy
	MaxRedirects    int
	NoRedirects     bool
	WaitForSelector string
}

// Result is the success side of a fetch.
type Result struct {
	Body       string
	URL        string
	StatusCode int
	UsedJS     bool
}

type Fetcher struct {
	userAgentSelect *UserAgentSelector
}

func New() *Fetcher {
	return &Fetcher{
		userAgentSelect: NewUserAgentSelector(),
	}
}

// Fetch performs a single GET. Every failure is returned as *Error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, opts Options) (*Result, error) {
	switch opts.Mode {
	case FetchModeJS:
		return f.fetchWithJS(ctx, rawURL, opts)
	case FetchModeAuto:
		result, err := f.fetchStatic(ctx, rawURL, opts)
		if err != nil {
			return nil, err
		}
		if needsJSRendering(result.Body) {
			return f.fetchWithJS(ctx, rawURL, opts)
		}
		return result, nil
	default:
		return f.fetchStatic(ctx, rawURL, opts)
	}
}

func (f *Fetcher) fetchStatic(ctx context.Context, rawURL string, opts Options) (*Result, error) {
	client, err := f.newClient(opts)
	if err != nil {
		return nil, newError(ReasonNetwork, rawURL, 0, err)
	}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, newError(ReasonNetwork, rawURL, 0, fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("User-Agent", f.userAgent(opts))
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")

	for _, cookie := range opts.Cookies {
		req.AddCookie(cookie)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, classify(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		io.Copy(io.Discard, resp.Body)
		return nil, newError(ReasonHTTP, rawURL, resp.StatusCode, fmt.Errorf("HTTP error: %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(rawURL, fmt.Errorf("failed to read response body: %w", err))
	}

	return &Result{
		Body:       string(body),
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
	}, nil
}

func (f *Fetcher) userAgent(opts Options) string {
	if opts.UserAgent != "" {
		return opts.UserAgent
	}
	return f.userAgentSelect.GetUserAgent(opts.BrowserAgent)
}

func (f *Fetcher) newClient(opts Options) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	proxyFunc, err := opts.Proxy.resolver()
	if err != nil {
		return nil, err
	}
	transport.Proxy = proxyFunc

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if opts.NoRedirects {
				return http.ErrUseLastResponse
			}
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}, nil
}

// resolver returns a transport proxy function choosing the address by request scheme.
func (p Proxy) resolver() (func(*http.Request) (*url.URL, error), error) {
	if p.HTTP == "" && p.HTTPS == "" {
		return nil, nil
	}

	parsed := make(map[string]*url.URL, 2)
	for scheme, addr := range map[string]string{"http": p.HTTP, "https": p.HTTPS} {
		if addr == "" {
			continue
		}
		u, err := url.Parse(addr)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid %s proxy address %q", scheme, addr)
		}
		parsed[scheme] = u
	}

	return func(req *http.Request) (*url.URL, error) {
		return parsed[req.URL.Scheme], nil
	}, nil
}

func classify(rawURL string, err error) *Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return newError(ReasonTimeout, rawURL, 0, err)
	}
	return newError(ReasonNetwork, rawURL, 0, err)
}
