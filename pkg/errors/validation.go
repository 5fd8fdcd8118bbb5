package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxTermLength bounds search terms; real part numbers are far shorter.
const maxTermLength = 128

// ValidateSearchTerm validates a part-number search term before it is sent
// to any supplier.
//
// The validation rules are intentionally conservative:
//   - No empty or whitespace-only terms
//   - No control characters
//   - Maximum length of 128 characters
//
// Supplier-specific escaping is done by the adapters themselves.
func ValidateSearchTerm(term string) error {
	if strings.TrimSpace(term) == "" {
		return New(ErrCodeInvalidTerm, "search term cannot be empty")
	}

	if len(term) > maxTermLength {
		return New(ErrCodeInvalidTerm, "search term too long (max %d characters)", maxTermLength)
	}

	for _, r := range term {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidTerm, "search term contains invalid control characters")
		}
	}

	return nil
}

// supplierIDRegex matches supplier identifiers ("ti", "future", "lcsc_v2").
var supplierIDRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_]*$`)

// ValidateSupplierID validates a supplier identifier.
// Identifiers double as TOML table names and environment variable
// fragments, so they are restricted to lowercase letters, digits and '_'.
func ValidateSupplierID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidSupplier, "supplier id cannot be empty")
	}
	if !supplierIDRegex.MatchString(id) {
		return New(ErrCodeInvalidSupplier, "invalid supplier id: %q", id)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// currencyRegex matches ISO 4217 alphabetic codes.
var currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// ValidateCurrency validates an ISO 4217 alphabetic currency code.
func ValidateCurrency(code string) error {
	if !currencyRegex.MatchString(code) {
		return New(ErrCodeInvalidInput, "invalid ISO 4217 currency code: %q", code)
	}
	return nil
}
