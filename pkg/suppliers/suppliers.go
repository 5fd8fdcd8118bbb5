// Package suppliers provides the complete list of supported suppliers.
//
// This package exists to break import cycles: the individual supplier
// packages (future, ti) import pkg/supplier, so pkg/supplier cannot import
// them back. Instead, consumers that need the full supplier list import this
// package.
//
// Usage:
//
//	reg := supplier.NewRegistry(suppliers.All(opts))
package suppliers

import (
	"sort"

	"github.com/matzehuels/partscout/pkg/integrations"
	"github.com/matzehuels/partscout/pkg/integrations/future"
	"github.com/matzehuels/partscout/pkg/integrations/ti"
	"github.com/matzehuels/partscout/pkg/supplier"
)

// constructors is the canonical list of supported suppliers.
var constructors = []func(integrations.Options) *supplier.Definition{
	future.Definition,
	ti.Definition,
}

// All returns a definition for every supported supplier, sharing opts.
func All(opts integrations.Options) []*supplier.Definition {
	defs := make([]*supplier.Definition, 0, len(constructors))
	for _, c := range constructors {
		defs = append(defs, c(opts))
	}
	return defs
}

// IDs returns the IDs of every supported supplier, sorted.
func IDs() []string {
	var ids []string
	for _, d := range All(integrations.Options{}) {
		ids = append(ids, d.ID)
	}
	sort.Strings(ids)
	return ids
}

// Find returns the definition with the given ID, or nil if not found.
func Find(id string, opts integrations.Options) *supplier.Definition {
	for _, d := range All(opts) {
		if d.ID == id {
			return d
		}
	}
	return nil
}
