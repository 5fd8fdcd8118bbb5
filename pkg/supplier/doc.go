// Package supplier searches electronic component suppliers concurrently.
//
// # Overview
//
// A [Registry] holds the supplier [Definition]s known to the program. It
// discovers them (validates and instantiates each [Adapter]) and configures
// them from per-supplier [Config] sections. Suppliers that fail either step
// are logged and left out; the rest are "loaded".
//
// A [Dispatcher] submits a search term to every loaded supplier through a
// bounded [Pool] and hands back one [Handle] per supplier immediately:
//
//	reg := supplier.NewRegistry(suppliers.All)
//	reg.Configure(global, sections)
//
//	d := supplier.NewDispatcher(reg, supplier.NewPool(8))
//	if err := d.SetupCompanies(ctx, store); err != nil {
//	    return err
//	}
//	handles, err := d.Search(ctx, "LM358", supplier.Route{})
//	for c := range supplier.Collect(ctx, handles) {
//	    // first finished, first shown
//	}
//
// # Failure Isolation
//
// A slow, failing or panicking supplier only affects its own Handle. Jobs
// run detached from the caller's cancellation, so dropping a Handle never
// interrupts a request in flight.
//
// # Routing
//
// [Route] puts a preferred supplier first, or with Only searches it alone.
// An unknown or unloaded supplier ID fails the whole Search before any
// supplier is contacted.
package supplier
