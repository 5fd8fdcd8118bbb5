// Package pkg provides the core libraries for Partscout supplier part search.
//
// # Overview
//
// Partscout sends a part number to several electronic component suppliers at
// once and normalizes their answers into one record shape. The pkg directory
// is organized into these areas:
//
//  1. [part] - The canonical part record and price normalization
//  2. [supplier] - Adapter contract, registry, worker pool and dispatcher
//  3. [integrations] - Supplier API clients (Future Electronics, Texas Instruments)
//  4. [inventory] - Where supplier companies are recorded (InvenTree, MongoDB)
//  5. [cache], [config], [httputil], [observability] - Shared infrastructure
//
// # Architecture
//
// The typical data flow through Partscout:
//
//	config.toml + suppliers.toml
//	         ↓
//	    [supplier.Registry] (discover and set up adapters)
//	         ↓
//	    [supplier.Dispatcher] (one job per supplier on a bounded pool)
//	         ↓
//	    [integrations] clients (retry, cache, decode)
//	         ↓
//	    []part.Part per supplier handle
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/partscout/pkg/integrations"
//	    "github.com/matzehuels/partscout/pkg/inventory"
//	    "github.com/matzehuels/partscout/pkg/supplier"
//	    "github.com/matzehuels/partscout/pkg/suppliers"
//	)
//
//	reg := supplier.NewRegistry(suppliers.All(integrations.Options{}))
//	reg.Configure(supplier.Config{"currency": "EUR"}, map[string]supplier.Config{
//	    "ti": {"client_key": key, "client_secret": secret},
//	})
//
//	pool := supplier.NewPool(supplier.DefaultPoolSize)
//	defer pool.Close()
//	d := supplier.NewDispatcher(reg, pool)
//	if err := d.SetupCompanies(ctx, inventory.NewMemoryStore()); err != nil {
//	    return err
//	}
//
//	handles, err := d.Search(ctx, "LM358", supplier.Route{})
//	for done := range supplier.Collect(ctx, handles) {
//	    fmt.Println(done.Handle.Supplier.Name, len(done.Result.Parts), done.Err)
//	}
//
// # Extensibility
//
// A new supplier is a [supplier.Definition] with a constructor for its
// [supplier.Adapter]; add it to the list in [suppliers].
package pkg
