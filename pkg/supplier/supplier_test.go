package supplier

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/partscout/pkg/part"
)

// fakeAdapter is a scripted Adapter shared by the package tests.
type fakeAdapter struct {
	setupErr error
	search   func(ctx context.Context, term string) (*Result, error)

	mu       sync.Mutex
	setups   int
	lastCfg  Config
	searches atomic.Int32
}

func (f *fakeAdapter) Setup(cfg Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setups++
	f.lastCfg = cfg
	return f.setupErr
}

func (f *fakeAdapter) Search(ctx context.Context, term string) (*Result, error) {
	f.searches.Add(1)
	if f.search != nil {
		return f.search(ctx, term)
	}
	return &Result{Parts: []part.Part{{SKU: term, Description: "part"}}, Total: 1}, nil
}

func (f *fakeAdapter) setupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setups
}

func def(id string, a Adapter) *Definition {
	return &Definition{
		ID:   id,
		Name: "Supplier " + id,
		Params: []Param{
			{Name: "currency", Global: true},
		},
		New: func() Adapter { return a },
	}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

// sectionsFor enables every id with an empty section.
func sectionsFor(ids ...string) map[string]Config {
	out := make(map[string]Config, len(ids))
	for _, id := range ids {
		out[id] = Config{}
	}
	return out
}

func idsOf(handles []*Handle) []string {
	out := make([]string, len(handles))
	for i, h := range handles {
		out[i] = h.Supplier.ID
	}
	return out
}

var errSetup = fmt.Errorf("%w: %q is not set", ErrMissingConfig, "api_key")
