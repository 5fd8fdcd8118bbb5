// Package inventory records suppliers as companies in an inventory system.
//
// A [Store] makes sure a company exists for every loaded supplier before any
// search runs. Implementations:
//
//   - [MemoryStore]: in-process, for tests and dry runs
//   - inventree.Store: an InvenTree server over its REST API
//   - mongo.Store: a MongoDB collection
package inventory

import (
	"context"
	"strings"
	"sync"

	"github.com/matzehuels/partscout/pkg/errors"
)

// Company is a supplier as the inventory system knows it.
type Company struct {
	PK         int    `json:"pk" bson:"pk"`
	Name       string `json:"name" bson:"name"`
	Currency   string `json:"currency" bson:"currency"`
	IsSupplier bool   `json:"is_supplier" bson:"is_supplier"`
}

// Store ensures companies exist.
type Store interface {
	// EnsureCompany returns the stored company matching c, creating it when
	// needed. A non-zero c.PK is looked up first; otherwise the company is
	// matched by name. The returned company always carries its PK.
	EnsureCompany(ctx context.Context, c Company) (Company, error)
}

// Validate checks the fields every store needs.
func (c Company) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "company name is empty")
	}
	return nil
}

// MemoryStore is a Store backed by a map.
type MemoryStore struct {
	mu     sync.Mutex
	byName map[string]Company
	nextPK int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byName: make(map[string]Company), nextPK: 1}
}

// EnsureCompany implements Store.
func (s *MemoryStore) EnsureCompany(ctx context.Context, c Company) (Company, error) {
	if err := c.Validate(); err != nil {
		return Company{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.PK != 0 {
		for _, existing := range s.byName {
			if existing.PK == c.PK {
				return existing, nil
			}
		}
	}
	if existing, ok := s.byName[c.Name]; ok {
		return existing, nil
	}
	c.PK = s.nextPK
	s.nextPK++
	s.byName[c.Name] = c
	return c, nil
}

// Companies returns a snapshot of the stored companies.
func (s *MemoryStore) Companies() []Company {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Company, 0, len(s.byName))
	for _, c := range s.byName {
		out = append(out, c)
	}
	return out
}

var _ Store = (*MemoryStore)(nil)
