package integrations

import (
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// DefaultTimeout bounds a single HTTP request to a supplier.
const DefaultTimeout = 15 * time.Second

var (
	// ErrNotFound is returned for HTTP 404 responses.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")

	// ErrUnauthorized is returned for HTTP 401 responses and rejected credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned for HTTP 403 responses.
	ErrForbidden = errors.New("forbidden")

	// ErrRemote is returned for any other non-2xx response.
	ErrRemote = errors.New("remote error")

	// ErrMalformed is returned when a response body cannot be decoded.
	ErrMalformed = errors.New("malformed response")
)

// NewHTTPClient creates an HTTP client with the standard supplier timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// NormalizeTerm trims a search term and collapses inner whitespace.
func NormalizeTerm(term string) string {
	return strings.Join(strings.Fields(term), " ")
}

var htmlTags = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes markup tags some suppliers embed in descriptions.
func StripHTML(s string) string {
	return strings.TrimSpace(htmlTags.ReplaceAllString(s, ""))
}

// BuildURL joins base and path and appends query. A nil query adds nothing.
func BuildURL(base, path string, query url.Values) string {
	u := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// PathEscape percent-encodes a single path segment, including "/".
func PathEscape(s string) string { return url.PathEscape(s) }
