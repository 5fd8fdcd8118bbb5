package supplier

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/matzehuels/partscout/pkg/errors"
	"github.com/matzehuels/partscout/pkg/part"
)

// Adapter is one supplier's search client.
type Adapter interface {
	// Setup validates and stores credentials. It is called by the Registry
	// once per configuration change. A missing required parameter yields an
	// error wrapping [ErrMissingConfig].
	Setup(cfg Config) error

	// Search looks up term. A confirmed zero match is (&Result{}, nil); an
	// error means the remote call could not be completed.
	Search(ctx context.Context, term string) (*Result, error)
}

// Result is the outcome of one supplier search. Total may exceed
// len(Parts) when the supplier paginates or caps results.
type Result struct {
	Parts []part.Part `json:"parts"`
	Total int         `json:"total"`
}

// SupportLevel describes how a supplier is reached. It is informational.
type SupportLevel int

const (
	OfficialAPI SupportLevel = iota
	InofficialAPI
	Scraping
)

func (l SupportLevel) String() string {
	switch l {
	case OfficialAPI:
		return "official API"
	case InofficialAPI:
		return "inofficial API"
	case Scraping:
		return "scraping"
	default:
		return fmt.Sprintf("SupportLevel(%d)", int(l))
	}
}

// MarshalText renders the level for JSON output.
func (l SupportLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Identity names a supplier.
type Identity struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	SupportLevel SupportLevel `json:"support_level"`
}

// Param describes one configuration parameter of a supplier.
type Param struct {
	Name    string
	Default string
	// Secret params are masked in diagnostics.
	Secret bool
	// Global params fall back to the process-wide value of the same name.
	Global bool
	// Optional params may be left empty.
	Optional bool
}

// Definition describes a supplier the Registry can discover.
type Definition struct {
	ID           string
	Name         string
	SupportLevel SupportLevel
	Params       []Param
	New          func() Adapter
}

// Identity returns the definition's identity.
func (d *Definition) Identity() Identity {
	return Identity{ID: d.ID, Name: d.Name, SupportLevel: d.SupportLevel}
}

// ErrMissingConfig is wrapped by Setup errors for absent required params.
var ErrMissingConfig = stderrors.New("missing configuration")

// Config is the merged parameter set handed to Adapter.Setup.
type Config map[string]string

// Get returns the trimmed value for key.
func (c Config) Get(key string) string {
	return strings.TrimSpace(c[key])
}

// Require returns an error naming the first key that is empty.
func (c Config) Require(keys ...string) error {
	for _, k := range keys {
		if c.Get(k) == "" {
			return fmt.Errorf("%w: %q is not set", ErrMissingConfig, k)
		}
	}
	return nil
}

// Currency returns the configured currency, upper-cased, or
// [part.ReferenceCurrency] when none is set.
func (c Config) Currency() string {
	if cur := strings.ToUpper(c.Get("currency")); cur != "" {
		return cur
	}
	return part.ReferenceCurrency
}

// Enabled reports whether the "enabled" key allows the supplier. An absent
// key counts as enabled.
func (c Config) Enabled() bool {
	switch strings.ToLower(c.Get("enabled")) {
	case "false", "0", "no", "off":
		return false
	}
	return true
}

// Masked returns a copy with secret params of def replaced by "***".
func (c Config) Masked(def *Definition) Config {
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = v
	}
	for _, p := range def.Params {
		if p.Secret && out[p.Name] != "" {
			out[p.Name] = "***"
		}
	}
	return out
}

// fingerprint is a stable digest of the config.
func (c Config) fingerprint() string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(c[k])
		b.WriteByte(0)
	}
	return b.String()
}

// merge builds the Setup config for def from its section and the global
// params. Section values win, then globals for Global params, then defaults.
func merge(def *Definition, section, global Config) Config {
	out := make(Config, len(def.Params)+len(section))
	for k, v := range section {
		out[k] = v
	}
	for _, p := range def.Params {
		if out.Get(p.Name) != "" {
			continue
		}
		if p.Global && global.Get(p.Name) != "" {
			out[p.Name] = global.Get(p.Name)
			continue
		}
		if p.Default != "" {
			out[p.Name] = p.Default
		}
	}
	return out
}

// SearchError attributes a failure to a supplier and an action.
type SearchError struct {
	Supplier Identity
	Action   string
	Err      error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", strings.ToLower(e.Supplier.Name), e.Action, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// classify gives an adapter error a code when it has none.
func classify(err error) error {
	if err == nil || errors.GetCode(err) != "" {
		return err
	}
	return errors.Wrap(errors.ErrCodeRemote, err, "remote call failed")
}
