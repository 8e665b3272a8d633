package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
)

// fetchWithJS renders the page in headless Chrome. Chrome does not expose the
// document status code here, so only network and timeout failures are reported.
func (f *Fetcher) fetchWithJS(ctx context.Context, rawURL string, opts Options) (*Result, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts, chromedp.UserAgent(f.userAgent(opts)))

	if proxy := opts.Proxy.forURL(rawURL); proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(proxy))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	chromeCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	chromeCtx, cancelTimeout := context.WithTimeout(chromeCtx, timeout)
	defer cancelTimeout()

	var html, location string

	tasks := []chromedp.Action{
		chromedp.Navigate(rawURL),
	}

	if opts.WaitForSelector != "" {
		tasks = append(tasks, chromedp.WaitVisible(opts.WaitForSelector))
	} else {
		tasks = append(tasks, chromedp.WaitReady("body"))
	}

	tasks = append(tasks,
		chromedp.OuterHTML("html", &html),
		chromedp.Location(&location),
	)

	if err := chromedp.Run(chromeCtx, tasks...); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(chromeCtx.Err(), context.DeadlineExceeded) {
			return nil, newError(ReasonTimeout, rawURL, 0, err)
		}
		return nil, newError(ReasonNetwork, rawURL, 0, fmt.Errorf("failed to run Chrome tasks: %w", err))
	}

	if location == "" {
		location = rawURL
	}

	return &Result{
		Body:   html,
		URL:    location,
		UsedJS: true,
	}, nil
}

func (p Proxy) forURL(rawURL string) string {
	if strings.HasPrefix(strings.ToLower(rawURL), "https://") {
		return p.HTTPS
	}
	return p.HTTP
}

// needsJSRendering guesses whether a static body is only a client-side app shell.
func needsJSRendering(html string) bool {
	lowerHTML := strings.ToLower(html)

	for _, marker := range []string{"data-reactroot", "ng-app", "v-app", `id="__next"`, `id="root"></div>`, `id="app"></div>`} {
		if strings.Contains(lowerHTML, marker) && len(visibleBody(lowerHTML)) < 1000 {
			return true
		}
	}

	if strings.Contains(lowerHTML, "loading") && len(strings.TrimSpace(html)) < 2000 {
		return true
	}

	scriptCount := strings.Count(lowerHTML, "<script")
	return scriptCount > 5 && len(visibleBody(lowerHTML)) < 1000
}

// visibleBody returns the body markup with script blocks removed.
func visibleBody(lowerHTML string) string {
	body := lowerHTML
	if start := strings.Index(body, "<body"); start != -1 {
		body = body[start:]
		if end := strings.Index(body, "</body>"); end != -1 {
			body = body[:end]
		}
	}

	for {
		start := strings.Index(body, "<script")
		if start == -1 {
			break
		}
		end := strings.Index(body[start:], "</script>")
		if end == -1 {
			body = body[:start]
			break
		}
		body = body[:start] + body[start+end+len("</script>"):]
	}

	return strings.TrimSpace(body)
}
