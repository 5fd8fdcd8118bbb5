package future

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/matzehuels/partscout/pkg/cache"
	perrors "github.com/matzehuels/partscout/pkg/errors"
	"github.com/matzehuels/partscout/pkg/integrations"
	"github.com/matzehuels/partscout/pkg/part"
	"github.com/matzehuels/partscout/pkg/supplier"
)

const (
	// ID is the supplier ID used in configuration.
	ID = "future"
	// DefaultBaseURL is the production API root.
	DefaultBaseURL = "https://api.futureelectronics.com/api/"

	licenseHeader = "x-orbweaver-licensekey"
)

// LookupType selects how part numbers are matched.
type LookupType string

const (
	Exact      LookupType = "exact"
	Contains   LookupType = "contains"
	StartsWith LookupType = "starts_with"
)

// ParseLookupType parses s. An empty string means Contains.
func ParseLookupType(s string) (LookupType, error) {
	switch LookupType(strings.ToLower(strings.TrimSpace(s))) {
	case "", Contains:
		return Contains, nil
	case Exact:
		return Exact, nil
	case StartsWith:
		return StartsWith, nil
	}
	return "", fmt.Errorf("unknown lookup_type %q (want exact, contains or starts_with)", s)
}

// Definition describes Future Electronics for the supplier registry.
func Definition(opts integrations.Options) *supplier.Definition {
	return &supplier.Definition{
		ID:           ID,
		Name:         "Future Electronics",
		SupportLevel: supplier.OfficialAPI,
		Params: []supplier.Param{
			{Name: "api_key", Secret: true},
			{Name: "currency", Global: true, Optional: true},
			{Name: "lookup_type", Default: string(Contains), Optional: true},
			{Name: "base_url", Default: DefaultBaseURL, Optional: true},
		},
		New: func() supplier.Adapter { return New(opts) },
	}
}

// Adapter searches the Future Electronics PIM lookup API.
//
// Setup must be called before Search. After Setup the Adapter is safe for
// concurrent use.
type Adapter struct {
	opts    integrations.Options
	client  *integrations.Client
	baseURL string
	lookup  LookupType
	// currency is informational; the API decides the quoted currency.
	currency string
}

// New creates an unconfigured Adapter.
func New(opts integrations.Options) *Adapter {
	return &Adapter{opts: opts}
}

// Setup implements supplier.Adapter.
func (a *Adapter) Setup(cfg supplier.Config) error {
	if err := cfg.Require("api_key"); err != nil {
		return err
	}
	lookup, err := ParseLookupType(cfg.Get("lookup_type"))
	if err != nil {
		return err
	}
	base := cfg.Get("base_url")
	if base == "" {
		base = DefaultBaseURL
	}
	if err := perrors.ValidateURL(base); err != nil {
		return err
	}

	a.baseURL = base
	a.lookup = lookup
	a.currency = cfg.Currency()
	a.client = a.opts.NewClient(ID+":", map[string]string{licenseHeader: cfg.Get("api_key")})
	return nil
}

// Search implements supplier.Adapter.
func (a *Adapter) Search(ctx context.Context, term string) (*supplier.Result, error) {
	if a.client == nil {
		return nil, perrors.New(perrors.ErrCodeNotReady, "future: Setup was not called")
	}
	term = integrations.NormalizeTerm(term)

	var res supplier.Result
	keyOpts := cache.SearchKeyOpts{LookupType: string(a.lookup)}
	err := a.client.CachedSearch(ctx, ID, term, keyOpts, a.opts.Refresh, &res, func() error {
		return a.fetch(ctx, term, &res)
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *Adapter) fetch(ctx context.Context, term string, res *supplier.Result) error {
	q := url.Values{
		"part_number": {term},
		"lookup_type": {string(a.lookup)},
	}
	var data lookupResponse
	err := a.client.Get(ctx, integrations.BuildURL(a.baseURL, "v1/pim-future/lookup", q), &data)
	switch {
	case errors.Is(err, integrations.ErrNotFound):
		*res = supplier.Result{}
		return nil
	case err != nil:
		return classify(err, "lookup")
	}

	parts := make([]part.Part, 0, len(data.Offers))
	for _, o := range data.Offers {
		parts = append(parts, o.toPart())
	}
	*res = supplier.Result{Parts: parts, Total: len(parts)}
	return nil
}

// classify maps client errors onto error codes.
func classify(err error, action string) error {
	switch {
	case errors.Is(err, integrations.ErrUnauthorized):
		return perrors.Wrap(perrors.ErrCodeUnauthorized, err, "%s rejected the license key", action)
	case errors.Is(err, integrations.ErrForbidden):
		return perrors.Wrap(perrors.ErrCodeForbidden, err, "%s is not allowed for this license key", action)
	case errors.Is(err, integrations.ErrNetwork):
		return perrors.Wrap(perrors.ErrCodeNetwork, err, "%s failed", action)
	default:
		return perrors.Wrap(perrors.ErrCodeRemote, err, "%s failed", action)
	}
}

type lookupResponse struct {
	Offers []offer `json:"offers"`
}

type offer struct {
	PartAttributes []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"part_attributes"`
	Quantities struct {
		Minimum   int `json:"quantity_minimum"`
		Available int `json:"quantity_available"`
	} `json:"quantities"`
	Pricing []struct {
		QuantityFrom int             `json:"quantity_from"`
		UnitPrice    decimal.Decimal `json:"unit_price"`
	} `json:"pricing"`
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
	Documents []struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	} `json:"documents"`
	PartID struct {
		WebURL           string `json:"web_url"`
		SellerPartNumber string `json:"seller_part_number"`
		MPN              string `json:"mpn"`
	} `json:"part_id"`
	Currency struct {
		Code string `json:"currency_code"`
	} `json:"currency"`
}

// Attributes consumed into dedicated Part fields.
const (
	attrDescription  = "description (en)"
	attrManufacturer = "manufacturerName"
	attrPackage      = "packageType"
)

func (o offer) toPart() part.Part {
	attrs := make(map[string]string, len(o.PartAttributes))
	for _, a := range o.PartAttributes {
		attrs[a.Name] = a.Value
	}

	breaks := make([]part.PriceBreak, 0, len(o.Pricing))
	for _, p := range o.Pricing {
		breaks = append(breaks, part.PriceBreak{Quantity: p.QuantityFrom, UnitPrice: p.UnitPrice})
	}

	p := part.Part{
		Description:       integrations.StripHTML(attrs[attrDescription]),
		DatasheetURL:      o.datasheet(),
		SupplierLink:      o.PartID.WebURL,
		SKU:               o.PartID.SellerPartNumber,
		Manufacturer:      attrs[attrManufacturer],
		MPN:               o.PartID.MPN,
		QuantityAvailable: max(o.Quantities.Available, 0),
		Packaging:         attrs[attrPackage],
		PriceBreaks:       part.CollapseBelowMinimum(breaks, o.Quantities.Minimum),
		Currency:          strings.ToUpper(o.Currency.Code),
	}
	// Images come smallest first.
	if n := len(o.Images); n > 0 {
		p.ImageURL = o.Images[n-1].URL
	}

	delete(attrs, attrDescription)
	delete(attrs, attrManufacturer)
	delete(attrs, attrPackage)
	if len(attrs) > 0 {
		p.Parameters = attrs
	}
	return p
}

func (o offer) datasheet() string {
	for _, d := range o.Documents {
		if strings.EqualFold(d.Type, "datasheet") {
			return d.URL
		}
	}
	return ""
}

var _ supplier.Adapter = (*Adapter)(nil)
