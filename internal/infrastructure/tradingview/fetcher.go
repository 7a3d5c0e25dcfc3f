package tradingview

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"NewsDigest/internal/ports"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// DocumentFetcher downloads article pages with browser-like headers.
type DocumentFetcher struct {
	client    *http.Client
	userAgent string
	cookie    string
}

var _ ports.DocumentFetcher = (*DocumentFetcher)(nil)

// NewDocumentFetcher builds a fetcher; timeout bounds each request.
func NewDocumentFetcher(client *http.Client, timeout time.Duration, userAgent, cookie string) *DocumentFetcher {
	if client == nil {
		client = &http.Client{}
	}
	if timeout > 0 {
		c := *client
		c.Timeout = timeout
		client = &c
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &DocumentFetcher{client: client, userAgent: userAgent, cookie: cookie}
}

// Fetch returns the raw body of url.
func (f *DocumentFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("cookie", f.cookie)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("fetch %s: %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return string(body), nil
}
