// Package cache provides byte-oriented caches for supplier responses.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for the HTTP API and multi-process setups
//   - [NullCache]: caching disabled
//
// Keys are built by a [Keyer] so that the same search made with different
// currencies or lookup modes never shares an entry.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// Cache stores opaque byte values with an optional time-to-live.
//
// Implementations must be safe for concurrent use; the dispatcher's workers
// share one Cache.
type Cache interface {
	// Get returns the value for key. hit is false on a miss or an expired
	// entry; err is reserved for backend failures.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	// Set stores data under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey keys a raw response from a supplier namespace ("ti:").
	HTTPKey(namespace, key string) string
	// SearchKey keys a normalized search result.
	SearchKey(supplierID, term string, opts SearchKeyOpts) string
}

// SearchKeyOpts holds the parameters that change a supplier's answer for the
// same term.
type SearchKeyOpts struct {
	Currency   string `json:"currency,omitempty"`
	LookupType string `json:"lookup_type,omitempty"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// SearchKey returns "search:<supplier>:<hash>", where the hash covers the
// case-folded term and opts.
func (DefaultKeyer) SearchKey(supplierID, term string, opts SearchKeyOpts) string {
	data, _ := json.Marshal([]any{strings.ToUpper(strings.TrimSpace(term)), opts})
	return "search:" + supplierID + ":" + digest(data)
}

// digest is the hex SHA-256 of data.
func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
