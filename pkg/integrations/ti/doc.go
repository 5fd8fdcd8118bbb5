// Package ti provides a supplier adapter for the Texas Instruments store API.
//
// # Authentication
//
// The API uses OAuth2 client credentials. The bearer token is cached and
// renewed once less than a minute of validity remains; a 401 on any call
// drops it so the next call fetches a fresh one.
//
// # Search
//
// A search first asks for the term as an exact orderable part number. When
// TI answers with ERR-TICOM-INV-API-1002 (no such OPN), the term is searched
// as a generic part number, 100 products per page, until the last page.
//
// TI's catalog lists parts it does not sell; asking for them yields 403.
// 403 and 404 are therefore empty results rather than errors.
//
// # Configuration
//
//	[ti]
//	client_key = "..."
//	client_secret = "..."
//	currency = "EUR"  # falls back to USD when TI has no EUR prices
package ti
