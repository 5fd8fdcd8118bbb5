// Package future provides a supplier adapter for the Future Electronics API.
//
// # Overview
//
// Searches go to the PIM lookup endpoint with the license key in the
// x-orbweaver-licensekey header. One request returns every matching offer.
//
// # Configuration
//
//	[future]
//	api_key = "..."
//	lookup_type = "contains"  # exact, contains or starts_with
//
// # Mapping
//
// Price breaks at or below the offer's minimum order quantity are folded
// into a single break at the minimum (see [part.CollapseBelowMinimum]). The
// largest image and the first datasheet document are used. Attributes other
// than description, manufacturer and package type end up in Parameters.
//
// An HTTP 404 is an empty result. 401 and 403 are reported as
// UNAUTHORIZED errors.
//
// [part.CollapseBelowMinimum]: github.com/matzehuels/partscout/pkg/part.CollapseBelowMinimum
package future
