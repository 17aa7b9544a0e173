// Package ticketing fetches events from the ticketing REST APIs
// (Bandsintown and Songkick) and maps them onto event.RawEvent.
//
// Adapters never return errors: an HTTP failure, a malformed payload or a
// missing credential is logged and yields an empty list so the rest of a
// curation run carries on. Transient failures (network errors, 429 and 5xx
// responses) are retried with exponential backoff.
package ticketing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dghubble/sling"
)

const (
	// UserAgent identifies the curator to upstream APIs
	UserAgent = "rocksalt-curator/1.0 (+https://therocksalt.com)"

	defaultTimeout = 30 * time.Second
	defaultRetries = 2
)

// Options configures an API adapter. Zero values fall back to defaults.
type Options struct {
	HTTPClient *http.Client
	BaseURL    string
	MaxRetries int
	RetryWait  time.Duration // initial backoff interval
}

// StatusError is returned for a non-2xx response
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.URL, e.StatusCode)
}

// Temporary reports whether the request is worth retrying
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// client wraps a sling base with retry
type client struct {
	base       *sling.Sling
	maxRetries int
	retryWait  time.Duration
}

func newClient(opts Options, defaultBase string) *client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBase
	}
	// sling resolves paths against the base, which must end in a slash
	if baseURL[len(baseURL)-1] != '/' {
		baseURL += "/"
	}

	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	} else if retries == 0 {
		retries = defaultRetries
	}

	return &client{
		base: sling.New().
			Client(httpClient).
			Base(baseURL).
			Set("Accept", "application/json").
			Set("User-Agent", UserAgent),
		maxRetries: retries,
		retryWait:  opts.RetryWait,
	}
}

// getJSON issues a GET for path with the given query struct and decodes a
// 2xx JSON body into out
func (c *client) getJSON(ctx context.Context, path string, query interface{}, out interface{}) error {
	req, err := c.base.New().Get(path).QueryStruct(query).Request()
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req = req.WithContext(ctx)

	b := backoff.NewExponentialBackOff()
	if c.retryWait > 0 {
		b.InitialInterval = c.retryWait
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)

	return backoff.Retry(func() error {
		resp, err := c.base.Do(req, out, nil)
		if err != nil {
			if resp == nil {
				// Transport failure, worth another attempt
				return err
			}
			return backoff.Permanent(fmt.Errorf("decoding response: %w", err))
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			statusErr := &StatusError{StatusCode: resp.StatusCode, URL: redact(req)}
			if statusErr.Temporary() {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}
		return nil
	}, policy)
}

// redact drops the query string, which carries API keys
func redact(req *http.Request) string {
	u := *req.URL
	u.RawQuery = ""
	return u.String()
}

// flexID decodes an identifier that upstreams send as either a JSON string
// or a number
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*f = flexID(strconv.FormatInt(i, 10))
		return nil
	}
	*f = flexID(n.String())
	return nil
}
