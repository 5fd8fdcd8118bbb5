package supplier

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/partscout/pkg/errors"
	"github.com/matzehuels/partscout/pkg/observability"
)

// State is the lifecycle stage of a Registry.
type State int

const (
	Undiscovered State = iota
	Discovered
	Configured
)

func (s State) String() string {
	switch s {
	case Undiscovered:
		return "undiscovered"
	case Discovered:
		return "discovered"
	case Configured:
		return "configured"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type entry struct {
	def         *Definition
	adapter     Adapter
	loaded      bool
	used        bool // Setup has been called on adapter
	fingerprint string
	config      Config
}

// Registry holds the available suppliers and the subset that configured
// successfully. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	defs    []*Definition
	entries map[string]*entry
	state   State
	logger  *log.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger for discovery and configuration diagnostics.
func WithLogger(l *log.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates a Registry over defs. Nothing is instantiated until
// Discover.
func NewRegistry(defs []*Definition, opts ...RegistryOption) *Registry {
	r := &Registry{
		defs:    defs,
		entries: make(map[string]*entry),
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Discover validates every definition and instantiates its adapter. Invalid
// definitions are logged and skipped. Adapters of definitions seen in an
// earlier run are kept. It returns the number of available suppliers.
func (r *Registry) Discover() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.discoverLocked()
}

func (r *Registry) discoverLocked() int {
	next := make(map[string]*entry, len(r.defs))
	for _, def := range r.defs {
		if err := validateDefinition(def, next); err != nil {
			r.logger.Error("skipping supplier", "err", err)
			continue
		}
		if old, ok := r.entries[def.ID]; ok && old.def == def {
			next[def.ID] = old
			continue
		}
		adapter, err := instantiate(def)
		if err != nil {
			r.logger.Error("skipping supplier", "supplier", def.ID, "err", err)
			continue
		}
		next[def.ID] = &entry{def: def, adapter: adapter}
	}
	r.entries = next
	if r.state == Undiscovered {
		r.state = Discovered
	}
	return len(next)
}

func validateDefinition(def *Definition, seen map[string]*entry) error {
	if def == nil {
		return errors.New(errors.ErrCodeDiscovery, "nil supplier definition")
	}
	if err := errors.ValidateSupplierID(def.ID); err != nil {
		return errors.Wrap(errors.ErrCodeDiscovery, err, "invalid supplier definition")
	}
	switch {
	case def.Name == "":
		return errors.New(errors.ErrCodeDiscovery, "supplier %q has no name", def.ID)
	case def.New == nil:
		return errors.New(errors.ErrCodeDiscovery, "supplier %q has no constructor", def.ID)
	}
	if _, dup := seen[def.ID]; dup {
		return errors.New(errors.ErrCodeDiscovery, "duplicate supplier id %q", def.ID)
	}
	return nil
}

// instantiate calls def.New, turning a panic or nil adapter into an error.
func instantiate(def *Definition) (a Adapter, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.New(errors.ErrCodeDiscovery, "constructor panicked: %v", p)
		}
	}()
	a = def.New()
	if a == nil {
		return nil, errors.New(errors.ErrCodeDiscovery, "constructor returned nil")
	}
	return a, nil
}

// Configure sets up every available supplier that has a section in
// sections and is not disabled there. global supplies values for Global
// params. Adapters whose merged config did not change since their last
// successful setup are left alone. A changed config is applied to a new
// adapter instance that replaces the old one only once its setup
// succeeded; searches already running keep the instance they started
// with. It returns the number of loaded suppliers.
func (r *Registry) Configure(global Config, sections map[string]Config) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Undiscovered {
		r.discoverLocked()
	}

	for id := range sections {
		if _, ok := r.entries[id]; !ok {
			r.logger.Warn("unknown supplier in configuration", "supplier", id)
		}
	}

	for _, id := range r.sortedIDsLocked() {
		e := r.entries[id]
		section, ok := sections[id]
		if !ok || !section.Enabled() {
			e.loaded = false
			e.fingerprint = ""
			continue
		}

		cfg := merge(e.def, section, global)
		fp := cfg.fingerprint()
		if e.loaded && e.fingerprint == fp {
			continue
		}

		adapter, err := e.freshAdapter()
		if err == nil {
			err = setup(adapter, cfg)
		}
		if err != nil {
			e.loaded = false
			e.fingerprint = ""
			observability.Search().OnSetupFailed(context.Background(), id, err)
			r.logger.Error("failed to set up supplier",
				"supplier", id, "err", errors.Wrap(errors.ErrCodeConfig, err, "setup %s", id))
			continue
		}
		e.adapter = adapter
		e.loaded = true
		e.fingerprint = fp
		e.config = cfg
		r.logger.Debug("loaded supplier", "supplier", id, "config", cfg.Masked(e.def))
	}

	loaded, available := r.countLocked()
	if loaded < available {
		r.logger.Info(fmt.Sprintf("only loaded %d of %d available suppliers", loaded, available))
	}
	r.state = Configured
	return loaded
}

// freshAdapter returns the discovered adapter the first time and a new
// instance afterwards, so Setup never runs on an adapter that may be
// serving searches.
func (e *entry) freshAdapter() (Adapter, error) {
	if !e.used {
		e.used = true
		return e.adapter, nil
	}
	return instantiate(e.def)
}

func setup(a Adapter, cfg Config) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("setup panicked: %v", p)
		}
	}()
	return a.Setup(cfg)
}

func (r *Registry) countLocked() (loaded, available int) {
	for _, e := range r.entries {
		if e.loaded {
			loaded++
		}
	}
	return loaded, len(r.entries)
}

func (r *Registry) sortedIDsLocked() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Available returns every discovered supplier, sorted by ID.
func (r *Registry) Available() []Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Identity, 0, len(r.entries))
	for _, id := range r.sortedIDsLocked() {
		out = append(out, r.entries[id].def.Identity())
	}
	return out
}

// Loaded returns the configured adapters keyed by ID.
func (r *Registry) Loaded() map[string]Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Adapter)
	for id, e := range r.entries {
		if e.loaded {
			out[id] = e.adapter
		}
	}
	return out
}

// LoadedIdentities returns the configured suppliers, sorted by ID.
func (r *Registry) LoadedIdentities() []Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Identity
	for _, id := range r.sortedIDsLocked() {
		if e := r.entries[id]; e.loaded {
			out = append(out, e.def.Identity())
		}
	}
	return out
}

// Lookup returns a loaded adapter by ID.
func (r *Registry) Lookup(id string) (Adapter, Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok || !e.loaded {
		return nil, Identity{}, errors.New(errors.ErrCodeSupplierNotFound, "supplier %q is not loaded", id)
	}
	return e.adapter, e.def.Identity(), nil
}

// ConfigOf returns the merged config a loaded supplier was set up with.
func (r *Registry) ConfigOf(id string) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok || !e.loaded {
		return nil, false
	}
	return e.config, true
}

// State returns the lifecycle stage.
func (r *Registry) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}
