package scraper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
)

const (
	UserAgent = "rocksalt-curator/1.0 (+https://therocksalt.com)"
	Timeout   = 30 * time.Second
)

// StatusError is returned when a page responds with a non-200 status
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}

// Fetcher downloads and parses HTML pages
type Fetcher struct {
	client     *http.Client
	maxRetries int
	retryWait  time.Duration
}

// FetcherOptions configures a Fetcher. Zero values fall back to defaults.
type FetcherOptions struct {
	HTTPClient *http.Client
	MaxRetries int
	RetryWait  time.Duration
}

// NewFetcher creates a Fetcher
func NewFetcher(opts FetcherOptions) *Fetcher {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: Timeout}
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Fetcher{client: client, maxRetries: retries, retryWait: opts.RetryWait}
}

// withoutRetries returns a copy of f that makes a single attempt per page
func (f *Fetcher) withoutRetries() *Fetcher {
	c := *f
	c.maxRetries = 0
	return &c
}

// Document fetches url and parses it. Network errors and 5xx responses are
// retried; other non-200 statuses fail immediately with a *StatusError.
func (f *Fetcher) Document(ctx context.Context, url string) (*goquery.Document, error) {
	b := backoff.NewExponentialBackOff()
	if f.retryWait > 0 {
		b.InitialInterval = f.retryWait
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(f.maxRetries)), ctx)

	var doc *goquery.Document
	err := backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("User-Agent", UserAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetching page: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			statusErr := &StatusError{StatusCode: resp.StatusCode, URL: url}
			if resp.StatusCode >= 500 {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		doc, err = goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("parsing HTML: %w", err))
		}
		return nil
	}, policy)

	return doc, err
}
