package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// maxFetchBytes bounds how much of an upstream response is read; arXiv
// PDFs rarely exceed 20MB and anything larger is not worth enriching.
const maxFetchBytes = 50 << 20

// Fetcher is the shared HTTP client for upstream document and image
// fetches. It identifies itself with a User-Agent and rate-limits requests
// so unreliable upstream hosts are not hammered by the cascade.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// FetcherConfig configures upstream fetching.
type FetcherConfig struct {
	Timeout   time.Duration
	RateLimit float64 // requests per second
	UserAgent string
}

// NewFetcher creates a rate-limited HTTP fetcher.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 2
	}
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		userAgent: cfg.UserAgent,
	}
}

// Get fetches a URL and returns body bytes plus the declared content type.
// Any non-2xx status maps to ErrUpstreamUnavailable. When typePrefix is
// non-empty the response's Content-Type must start with it.
func (f *Fetcher) Get(ctx context.Context, url, typePrefix string) ([]byte, string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("%w: %s returned %d", ErrUpstreamUnavailable, url, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if typePrefix != "" && !strings.HasPrefix(contentType, typePrefix) {
		return nil, "", fmt.Errorf("%w: %s returned content type %q, want %q",
			ErrUpstreamUnavailable, url, contentType, typePrefix)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, "", fmt.Errorf("%w: reading body: %v", ErrUpstreamUnavailable, err)
	}
	return body, contentType, nil
}

// pdfURL derives the PDF location from an abstract-page URL following the
// arXiv convention (…/abs/<id> serves the paper at …/pdf/<id>.pdf).
func pdfURL(sourceURL string) string {
	if strings.Contains(sourceURL, "/abs/") {
		u := strings.Replace(sourceURL, "/abs/", "/pdf/", 1)
		if !strings.HasSuffix(u, ".pdf") {
			u += ".pdf"
		}
		return u
	}
	return sourceURL
}
