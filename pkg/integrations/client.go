package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/partscout/pkg/cache"
	"github.com/matzehuels/partscout/pkg/httputil"
	"github.com/matzehuels/partscout/pkg/observability"
)

// Client provides shared HTTP functionality for all supplier API clients.
// It handles caching, retry logic, and common request headers.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	keyer     cache.Keyer
	namespace string
	ttl       time.Duration
	headers   map[string]string
	policy    httputil.Policy
	logger    *log.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithPolicy sets the retry policy applied to every request.
func WithPolicy(p httputil.Policy) ClientOption {
	return func(c *Client) { c.policy = p }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithKeyer sets the cache keyer. Defaults to [cache.DefaultKeyer].
func WithKeyer(k cache.Keyer) ClientOption {
	return func(c *Client) { c.keyer = k }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Client that caches under namespace for ttl.
// Headers are applied to all requests made through this client.
// Pass nil for headers if no default headers are needed, and nil for
// c to disable caching.
func NewClient(c cache.Cache, namespace string, ttl time.Duration, headers map[string]string, opts ...ClientOption) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	client := &Client{
		http:      NewHTTPClient(),
		cache:     c,
		keyer:     cache.NewDefaultKeyer(),
		namespace: namespace,
		ttl:       ttl,
		headers:   headers,
		policy:    httputil.DefaultPolicy(),
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Cached retrieves a value from cache or executes fetch and caches the result.
// If refresh is true, the cache is bypassed and fetch is always called.
// The fetch function should populate v; on success, v is stored in the cache.
// Failed fetches are never cached.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	return c.cached(ctx, c.keyer.HTTPKey(c.namespace, key), refresh, v, fetch)
}

// CachedSearch is Cached keyed by a normalized search, so that the same term
// asked with a different currency or lookup mode is fetched separately.
func (c *Client) CachedSearch(ctx context.Context, supplierID, term string, opts cache.SearchKeyOpts, refresh bool, v any, fetch func() error) error {
	return c.cached(ctx, c.keyer.SearchKey(supplierID, term, opts), refresh, v, fetch)
}

func (c *Client) cached(ctx context.Context, fullKey string, refresh bool, v any, fetch func() error) error {
	if !refresh {
		data, hit, err := c.cache.Get(ctx, fullKey)
		if err != nil {
			c.logger.Debug("cache read failed", "key", fullKey, "err", err)
		}
		if hit && json.Unmarshal(data, v) == nil {
			c.logger.Debug("cache hit", "key", fullKey)
			return nil
		}
	}
	if err := fetch(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	if err := c.cache.Set(ctx, fullKey, data, c.ttl); err != nil {
		c.logger.Debug("cache write failed", "key", fullKey, "err", err)
	}
	return nil
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
// It uses the client's default headers and handles retries automatically.
func (c *Client) Get(ctx context.Context, endpoint string, v any) error {
	return c.GetWithHeaders(ctx, endpoint, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, endpoint string, headers map[string]string, v any) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, "", headers, v)
}

// PostForm performs a form-encoded POST and JSON-decodes the response into v.
func (c *Client) PostForm(ctx context.Context, endpoint string, form url.Values, headers map[string]string, v any) error {
	return c.do(ctx, http.MethodPost, endpoint, []byte(form.Encode()), "application/x-www-form-urlencoded", headers, v)
}

// PostJSON performs a JSON POST of body and JSON-decodes the response into v.
func (c *Client) PostJSON(ctx context.Context, endpoint string, body any, headers map[string]string, v any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, endpoint, data, "application/json", headers, v)
}

// do runs one logical request under the retry policy. Each attempt builds a
// fresh request so bodies can be replayed.
func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, contentType string, headers map[string]string, v any) error {
	return c.policy.Do(ctx, func(attempt int) error {
		var r io.Reader
		if body != nil {
			r = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, r)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		for k, val := range c.headers {
			req.Header.Set(k, val)
		}
		for k, val := range headers {
			req.Header.Set(k, val)
		}

		host, path := req.URL.Host, req.URL.Path
		hooks := observability.HTTP()
		hooks.OnRequest(ctx, method, host, path)
		start := time.Now()

		resp, err := c.http.Do(req)
		if err != nil {
			hooks.OnError(ctx, method, host, path, err)
			c.logger.Debug("request failed", "method", method, "url", rawURL, "attempt", attempt, "err", err)
			if httputil.IsTransient(err) {
				return httputil.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
			}
			return fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		defer resp.Body.Close()
		hooks.OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return httputil.Retryable(fmt.Errorf("%w: reading body: %v", ErrNetwork, err))
		}
		if err := checkStatus(resp.StatusCode, data); err != nil {
			return err
		}
		if v == nil || len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("%w: decoding response: %v", ErrMalformed, err)
		}
		return nil
	})
}

// checkStatus classifies a response. 408, 429 and 5xx are retryable.
func checkStatus(code int, body []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}
	se := &StatusError{Code: code, Body: body, Message: errorMessage(body)}
	switch {
	case code == http.StatusUnauthorized:
		se.kind = ErrUnauthorized
	case code == http.StatusForbidden:
		se.kind = ErrForbidden
	case code == http.StatusNotFound:
		se.kind = ErrNotFound
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= 500:
		se.kind = ErrNetwork
		return httputil.Retryable(se)
	default:
		se.kind = ErrRemote
	}
	return se
}

// StatusError is a non-2xx response. It unwraps to one of the package
// sentinels so callers can classify it with errors.Is.
type StatusError struct {
	Code    int
	Body    []byte
	Message string
	kind    error
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%v: status %d", e.kind, e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *StatusError) Unwrap() error { return e.kind }

// ErrorBody is the {"errors":[...]} envelope both supported supplier APIs
// use for failures.
type ErrorBody struct {
	Errors []struct {
		ErrorCode string `json:"errorCode"`
		Message   string `json:"message"`
	} `json:"errors"`
}

// HasCode reports whether any entry carries code.
func (b ErrorBody) HasCode(code string) bool {
	for _, e := range b.Errors {
		if e.ErrorCode == code {
			return true
		}
	}
	return false
}

// errorMessage returns the first error message in body, if any. Only the
// first entry is used; the APIs never document when there are more.
func errorMessage(body []byte) string {
	var eb ErrorBody
	if json.Unmarshal(body, &eb) != nil || len(eb.Errors) == 0 {
		return ""
	}
	return strings.TrimSpace(eb.Errors[0].Message)
}
