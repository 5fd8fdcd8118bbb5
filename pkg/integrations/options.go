package integrations

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/partscout/pkg/cache"
	"github.com/matzehuels/partscout/pkg/httputil"
)

// DefaultCacheTTL is how long supplier answers are reused.
const DefaultCacheTTL = 24 * time.Hour

// Options carries the process-wide settings every supplier client shares.
// The zero value is usable: no cache, default retry policy and timeout.
type Options struct {
	Cache      cache.Cache
	Keyer      cache.Keyer
	TTL        time.Duration
	Policy     httputil.Policy
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *log.Logger
	// Refresh bypasses cached answers.
	Refresh bool
}

// NewClient builds a Client for one supplier namespace from o.
func (o Options) NewClient(namespace string, headers map[string]string) *Client {
	ttl := o.TTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	var opts []ClientOption
	if o.HTTPClient != nil {
		opts = append(opts, WithHTTPClient(o.HTTPClient))
	} else if o.Timeout > 0 {
		opts = append(opts, WithTimeout(o.Timeout))
	}
	if o.Policy.Attempts > 0 {
		opts = append(opts, WithPolicy(o.Policy))
	}
	if o.Keyer != nil {
		opts = append(opts, WithKeyer(o.Keyer))
	}
	if o.Logger != nil {
		opts = append(opts, WithLogger(o.Logger))
	}
	return NewClient(o.Cache, namespace, ttl, headers, opts...)
}

// Log returns o.Logger or the default logger.
func (o Options) Log() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}
