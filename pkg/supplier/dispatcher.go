package supplier

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/partscout/pkg/errors"
	"github.com/matzehuels/partscout/pkg/inventory"
	"github.com/matzehuels/partscout/pkg/observability"
)

// Route selects the suppliers a search goes to. With SupplierID set the
// supplier is searched first; with Only it is searched alone.
type Route struct {
	SupplierID string
	Only       bool
}

// Handle is the pending result of one supplier's search.
type Handle struct {
	ID       uuid.UUID
	Supplier Identity
	Company  inventory.Company
	Term     string

	future *Future
}

// Result blocks until the search finished or ctx is done.
func (h *Handle) Result(ctx context.Context) (*Result, error) {
	return h.future.Wait(ctx)
}

// Done is closed when the search has finished.
func (h *Handle) Done() <-chan struct{} { return h.future.Done() }

// Ready reports whether the search has finished.
func (h *Handle) Ready() bool { return h.future.Ready() }

// Dispatcher fans a search term out to the loaded suppliers.
type Dispatcher struct {
	reg    *Registry
	pool   *Pool
	logger *log.Logger

	mu        sync.RWMutex
	companies map[string]inventory.Company
	ready     bool
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the logger for per-supplier diagnostics.
func WithDispatcherLogger(l *log.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDispatcher creates a Dispatcher. A nil pool gets a default-sized one.
func NewDispatcher(reg *Registry, pool *Pool, opts ...DispatcherOption) *Dispatcher {
	if pool == nil {
		pool = NewPool(DefaultPoolSize)
	}
	d := &Dispatcher{
		reg:       reg,
		pool:      pool,
		logger:    log.Default(),
		companies: make(map[string]inventory.Company),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetupCompanies makes sure every loaded supplier exists as a company in
// inv and records the mapping. It must be called before Search.
//
// The company currency is the supplier's configured currency. A
// "primary_key" param is used as the known PK.
func (d *Dispatcher) SetupCompanies(ctx context.Context, inv inventory.Store) error {
	companies := make(map[string]inventory.Company)
	for _, id := range d.reg.LoadedIdentities() {
		cfg, _ := d.reg.ConfigOf(id.ID)
		want := inventory.Company{
			Name:       id.Name,
			Currency:   cfg.Currency(),
			IsSupplier: true,
		}
		if pk := cfg.Get("primary_key"); pk != "" {
			n, err := strconv.Atoi(pk)
			if err != nil {
				return errors.Wrap(errors.ErrCodeConfig, err, "%s: invalid primary_key %q", id.ID, pk)
			}
			want.PK = n
		}

		got, err := inv.EnsureCompany(ctx, want)
		if err != nil {
			return &SearchError{Supplier: id, Action: "set up company", Err: err}
		}
		companies[id.ID] = got
		d.logger.Debug("supplier company ready", "supplier", id.ID, "pk", got.PK)
	}

	d.mu.Lock()
	d.companies = companies
	d.ready = true
	d.mu.Unlock()
	return nil
}

// Companies returns the supplier ID to company mapping.
func (d *Dispatcher) Companies() map[string]inventory.Company {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]inventory.Company, len(d.companies))
	for k, v := range d.companies {
		out[k] = v
	}
	return out
}

// Search submits term to the suppliers selected by route and returns one
// Handle per supplier without waiting. The preferred supplier comes first;
// the rest follow sorted by ID.
//
// Jobs keep running when ctx is cancelled so that an abandoned handle never
// leaves a half-finished request behind; ctx values such as the logger are
// still visible to the adapters.
func (d *Dispatcher) Search(ctx context.Context, term string, route Route) ([]*Handle, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "search term is empty")
	}

	d.mu.RLock()
	ready := d.ready
	companies := d.companies
	d.mu.RUnlock()
	if !ready {
		return nil, errors.New(errors.ErrCodeNotReady, "SetupCompanies must be called before Search")
	}

	selected, err := d.selectSuppliers(route)
	if err != nil {
		return nil, err
	}

	jobCtx := context.WithoutCancel(ctx)
	handles := make([]*Handle, 0, len(selected))
	for _, s := range selected {
		h := &Handle{
			ID:       uuid.New(),
			Supplier: s.identity,
			Company:  companies[s.identity.ID],
			Term:     term,
		}
		adapter, identity := s.adapter, s.identity
		h.future = d.pool.Submit(func() (*Result, error) {
			return d.run(jobCtx, adapter, identity, term)
		})
		handles = append(handles, h)
	}
	return handles, nil
}

type selection struct {
	adapter  Adapter
	identity Identity
}

func (d *Dispatcher) selectSuppliers(route Route) ([]selection, error) {
	var out []selection
	if route.SupplierID != "" {
		a, id, err := d.reg.Lookup(route.SupplierID)
		if err != nil {
			return nil, err
		}
		out = append(out, selection{a, id})
		if route.Only {
			return out, nil
		}
	}

	loaded := d.reg.Loaded()
	ids := make([]string, 0, len(loaded))
	for id := range loaded {
		if id != route.SupplierID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		_, identity, err := d.reg.Lookup(id)
		if err != nil {
			continue
		}
		out = append(out, selection{loaded[id], identity})
	}
	return out, nil
}

// run executes one supplier search. Panics are confined to this handle.
func (d *Dispatcher) run(ctx context.Context, a Adapter, id Identity, term string) (res *Result, err error) {
	hooks := observability.Search()
	hooks.OnSearchStart(ctx, id.ID, term)
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			d.logger.Error("supplier panicked", "supplier", id.ID, "term", term, "panic", p, "stack", string(debug.Stack()))
			res = nil
			err = &SearchError{
				Supplier: id,
				Action:   fmt.Sprintf("search '%s'", term),
				Err:      errors.New(errors.ErrCodeInternal, "panic: %v", p),
			}
		}
		parts := 0
		if res != nil {
			parts = len(res.Parts)
		}
		hooks.OnSearchComplete(ctx, id.ID, term, parts, time.Since(start), err)
	}()

	res, err = a.Search(ctx, term)
	if err != nil {
		d.logger.Warn("supplier search failed", "supplier", id.ID, "term", term, "err", err)
		return nil, &SearchError{Supplier: id, Action: fmt.Sprintf("search '%s'", term), Err: classify(err)}
	}
	if res == nil {
		res = &Result{}
	}
	d.logger.Debug("supplier search done", "supplier", id.ID, "term", term, "parts", len(res.Parts), "total", res.Total)
	return res, nil
}

// Completed is a finished handle delivered by Collect.
type Completed struct {
	Handle *Handle
	Result *Result
	Err    error
}

// Collect delivers handles as they finish, first finished first. The
// channel is closed once every handle was delivered or ctx is done.
func Collect(ctx context.Context, handles []*Handle) <-chan Completed {
	out := make(chan Completed, len(handles))
	var wg sync.WaitGroup
	wg.Add(len(handles))
	for _, h := range handles {
		go func() {
			defer wg.Done()
			select {
			case <-h.Done():
				res, err := h.future.result, h.future.err
				out <- Completed{Handle: h, Result: res, Err: err}
			case <-ctx.Done():
			}
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
