// Package integrations provides HTTP clients for supplier part-search APIs.
//
// # Overview
//
// This package contains the shared HTTP plumbing used by every supplier
// adapter. Each supplier has its own subpackage:
//
//   - [future]: Future Electronics (license key, single request)
//   - [ti]: Texas Instruments (OAuth2 client credentials, paginated)
//
// # Client Pattern
//
// Supplier clients wrap a [Client] and expose a Search method:
//
//	adapter := ti.New()
//	err := adapter.Setup(cfg)  // client_key, client_secret, currency
//	res, err := adapter.Search(ctx, "LM358")
//
// [Client] handles:
//   - Retry of transient failures through [httputil.Policy]
//   - Status classification into [ErrNotFound], [ErrUnauthorized],
//     [ErrForbidden], [ErrRemote] and [ErrNetwork]
//   - Optional response caching via [cache.Cache]
//
// Error bodies of the form {"errors":[{"message":...}]} are parsed into
// [StatusError.Message]; only the first entry is used.
//
// # Adding a New Supplier
//
//  1. Create a subpackage: pkg/integrations/<supplier>/
//  2. Define response structs matching the API schema
//  3. Implement supplier.Adapter with Setup and Search
//  4. Use [NewClient] for HTTP with caching and retries
//  5. Add a supplier.Definition to the suppliers table
//
// [future]: github.com/matzehuels/partscout/pkg/integrations/future
// [ti]: github.com/matzehuels/partscout/pkg/integrations/ti
// [httputil.Policy]: github.com/matzehuels/partscout/pkg/httputil.Policy
// [cache.Cache]: github.com/matzehuels/partscout/pkg/cache.Cache
package integrations
