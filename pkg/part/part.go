// Package part defines the canonical part record every supplier adapter
// produces, together with the price normalization rules shared by them.
//
// # Canonical Record
//
// A [Part] describes one supplier listing of one manufacturer part. Adapters
// map their upstream schema onto it field by field; fields an upstream does
// not provide stay at their zero value. [Part.Validate] checks the invariants
// every adapter must satisfy:
//
//   - SKU and MPN are not both empty
//   - QuantityAvailable is never negative
//   - every PriceBreaks key is a positive quantity
//
// # Prices
//
// Unit prices are [decimal.Decimal] values so that a break like 0.0123 EUR
// survives decoding, caching and re-encoding unchanged. Two helpers encode
// the normalization policy shared by adapters:
//
//   - [CollapseBelowMinimum] folds breaks below the minimum order quantity
//   - [SelectPriceList] picks the price list for the target currency,
//     falling back to a reference currency
package part

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/matzehuels/partscout/pkg/errors"
)

// ReferenceCurrency is the currency adapters fall back to when an upstream
// does not quote the configured one.
const ReferenceCurrency = "USD"

// Part is the normalized description of one supplier listing.
//
// Zero values: all strings empty, CategoryPath and Parameters nil,
// PriceBreaks nil. A Part is treated as immutable once an adapter returns it.
type Part struct {
	Description       string            `json:"description"`
	ImageURL          string            `json:"image_url,omitempty"`
	DatasheetURL      string            `json:"datasheet_url,omitempty"`
	SupplierLink      string            `json:"supplier_link,omitempty"`
	SKU               string            `json:"sku"`
	Manufacturer      string            `json:"manufacturer"`
	ManufacturerLink  string            `json:"manufacturer_link,omitempty"`
	MPN               string            `json:"mpn"`
	QuantityAvailable int               `json:"quantity_available"`
	Packaging         string            `json:"packaging,omitempty"`
	CategoryPath      []string          `json:"category_path,omitempty"`
	Parameters        map[string]string `json:"parameters,omitempty"`
	PriceBreaks       PriceBreaks       `json:"price_breaks"`
	Currency          string            `json:"currency"`
}

// Validate reports the first violated invariant as an
// [errors.ErrCodeInvalidPart] error.
func (p *Part) Validate() error {
	if p.SKU == "" && p.MPN == "" {
		return errors.New(errors.ErrCodeInvalidPart, "part has neither SKU nor MPN")
	}
	if p.QuantityAvailable < 0 {
		return errors.New(errors.ErrCodeInvalidPart, "part %s has negative quantity %d", p.key(), p.QuantityAvailable)
	}
	for qty, price := range p.PriceBreaks {
		if qty <= 0 {
			return errors.New(errors.ErrCodeInvalidPart, "part %s has price break at non-positive quantity %d", p.key(), qty)
		}
		if price.IsNegative() {
			return errors.New(errors.ErrCodeInvalidPart, "part %s has negative price %s at quantity %d", p.key(), price, qty)
		}
	}
	if len(p.PriceBreaks) > 0 && p.Currency == "" {
		return errors.New(errors.ErrCodeInvalidPart, "part %s has prices without a currency", p.key())
	}
	return nil
}

func (p *Part) key() string {
	if p.SKU != "" {
		return p.SKU
	}
	return p.MPN
}

// PriceBreak is one upstream (quantity, unit price) pair before
// normalization.
type PriceBreak struct {
	Quantity  int
	UnitPrice decimal.Decimal
}

// PriceBreaks maps a minimum order quantity to the unit price that applies
// from that quantity on.
type PriceBreaks map[int]decimal.Decimal

// Quantities returns the break quantities in ascending order.
func (pb PriceBreaks) Quantities() []int {
	qs := make([]int, 0, len(pb))
	for q := range pb {
		qs = append(qs, q)
	}
	sort.Ints(qs)
	return qs
}

// Best returns the unit price that applies when ordering qty pieces, i.e.
// the price of the largest break not above qty. ok is false when qty is
// below every break.
func (pb PriceBreaks) Best(qty int) (price decimal.Decimal, ok bool) {
	best := -1
	for q := range pb {
		if q <= qty && q > best {
			best = q
		}
	}
	if best < 0 {
		return decimal.Decimal{}, false
	}
	return pb[best], true
}

// CollapseBelowMinimum builds PriceBreaks that only contain purchasable
// quantities.
//
// Every break at or below minimum is folded into one entry at minimum that
// holds the lowest unit price among them; breaks above minimum are kept as
// they are. Breaks with a non-positive quantity are dropped. A non-positive
// minimum disables folding.
//
//	{1: 2.00, 10: 1.50, 100: 1.20}, minimum 10  ->  {10: 1.50, 100: 1.20}
func CollapseBelowMinimum(breaks []PriceBreak, minimum int) PriceBreaks {
	out := make(PriceBreaks, len(breaks))
	var (
		bestForMinimum decimal.Decimal
		haveMinimum    bool
	)
	for _, b := range breaks {
		if b.Quantity <= 0 {
			continue
		}
		if minimum > 0 && b.Quantity <= minimum {
			if !haveMinimum || b.UnitPrice.LessThan(bestForMinimum) {
				bestForMinimum = b.UnitPrice
				haveMinimum = true
			}
			continue
		}
		out[b.Quantity] = b.UnitPrice
	}
	if haveMinimum {
		out[minimum] = bestForMinimum
	}
	return out
}

// PriceList is one currency-tagged list of price breaks as quoted by an
// upstream API.
type PriceList struct {
	Currency string
	Breaks   []PriceBreak
}

// SelectPriceList returns the list quoted in target, else the list quoted in
// reference. ok is false when neither is present. An empty reference means
// [ReferenceCurrency].
func SelectPriceList(lists []PriceList, target, reference string) (PriceList, bool) {
	if reference == "" {
		reference = ReferenceCurrency
	}
	var (
		fallback PriceList
		found    bool
	)
	for _, l := range lists {
		if l.Currency == target {
			return l, true
		}
		if l.Currency == reference && !found {
			fallback, found = l, true
		}
	}
	return fallback, found
}
