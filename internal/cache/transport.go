package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/therocksalt/curator/internal/logger"
)

// Transport is an http.RoundTripper that serves successful GET responses
// from a Cache. Only the body of 200 responses is stored. Cache errors are
// logged and never fail the request.
type Transport struct {
	Base  http.RoundTripper
	Cache Cache
	TTL   time.Duration

	// Observe, when set, is called once per GET with whether it was a hit
	Observe func(hit bool)
}

// NewTransport wraps base (http.DefaultTransport when nil)
func NewTransport(base http.RoundTripper, c Cache, ttl time.Duration) *Transport {
	return &Transport{Base: base, Cache: c, TTL: ttl}
}

// NewClient builds an http.Client whose GETs go through the cache
func NewClient(timeout time.Duration, c Cache, ttl time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: NewTransport(nil, c, ttl),
	}
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.Cache == nil || req.Method != http.MethodGet {
		return base.RoundTrip(req)
	}

	ctx := req.Context()
	key := cacheKey(req.URL)

	body, err := t.Cache.Get(ctx, key)
	switch {
	case err == nil:
		t.observe(true)
		return cachedResponse(req, body), nil
	case !errors.Is(err, ErrCacheMiss):
		logger.Warn("Cache read failed", logger.Fields{"url": logURL(req.URL), "error": err.Error()})
	}
	t.observe(false)

	resp, err := base.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		return resp, err
	}

	body, err = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}

	if err := t.Cache.Set(ctx, key, body, t.TTL); err != nil {
		logger.Warn("Cache write failed", logger.Fields{"url": logURL(req.URL), "error": err.Error()})
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	return resp, nil
}

// cacheKey hashes the full URL so query credentials never reach the cache
func cacheKey(u *url.URL) string {
	sum := sha256.Sum256([]byte(u.String()))
	return "http:" + hex.EncodeToString(sum[:])
}

// logURL drops the query string, which carries API keys
func logURL(u *url.URL) string {
	c := *u
	c.RawQuery = ""
	c.User = nil
	return c.String()
}

func (t *Transport) observe(hit bool) {
	if t.Observe != nil {
		t.Observe(hit)
	}
}

func cachedResponse(req *http.Request, body []byte) *http.Response {
	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"X-Cache": []string{"HIT"}},
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
