package ti

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matzehuels/partscout/pkg/cache"
	perrors "github.com/matzehuels/partscout/pkg/errors"
	"github.com/matzehuels/partscout/pkg/integrations"
	"github.com/matzehuels/partscout/pkg/part"
	"github.com/matzehuels/partscout/pkg/supplier"
)

const (
	// ID is the supplier ID used in configuration.
	ID = "ti"
	// Name is also the manufacturer of every part TI sells.
	Name = "Texas Instruments"
	// DefaultBaseURL is the production API root.
	DefaultBaseURL = "https://transact.ti.com/"

	// errNoSuchOPN means the exact orderable part number does not exist.
	errNoSuchOPN = "ERR-TICOM-INV-API-1002"

	pageSize = 100
	maxPages = 50
)

// Definition describes Texas Instruments for the supplier registry.
func Definition(opts integrations.Options) *supplier.Definition {
	return &supplier.Definition{
		ID:           ID,
		Name:         Name,
		SupportLevel: supplier.OfficialAPI,
		Params: []supplier.Param{
			{Name: "client_key", Secret: true},
			{Name: "client_secret", Secret: true},
			{Name: "currency", Global: true, Optional: true},
			{Name: "base_url", Default: DefaultBaseURL, Optional: true},
		},
		New: func() supplier.Adapter { return New(opts) },
	}
}

// Adapter searches the TI store API.
//
// Setup must be called before Search. After Setup the Adapter is safe for
// concurrent use; the bearer token is shared between searches.
type Adapter struct {
	opts     integrations.Options
	client   *integrations.Client
	tokens   *tokenSource
	baseURL  string
	currency string
}

// New creates an unconfigured Adapter.
func New(opts integrations.Options) *Adapter {
	return &Adapter{opts: opts}
}

// Setup implements supplier.Adapter.
func (a *Adapter) Setup(cfg supplier.Config) error {
	if err := cfg.Require("client_key", "client_secret"); err != nil {
		return err
	}
	base := cfg.Get("base_url")
	if base == "" {
		base = DefaultBaseURL
	}
	if err := perrors.ValidateURL(base); err != nil {
		return err
	}
	currency := cfg.Currency()
	if err := perrors.ValidateCurrency(currency); err != nil {
		return err
	}

	tokenOpts := a.opts
	tokenOpts.Cache = nil

	a.baseURL = base
	a.currency = currency
	a.client = a.opts.NewClient(ID+":", nil)
	a.tokens = &tokenSource{
		client:   tokenOpts.NewClient(ID+":token:", nil),
		endpoint: integrations.BuildURL(base, "v1/oauth/accesstoken", nil),
		key:      cfg.Get("client_key"),
		secret:   cfg.Get("client_secret"),
		now:      time.Now,
	}
	return nil
}

// Search implements supplier.Adapter. An exact orderable part number lookup
// is tried first; when TI reports that the OPN does not exist, the term is
// searched as a generic part number across all pages.
func (a *Adapter) Search(ctx context.Context, term string) (*supplier.Result, error) {
	if a.client == nil {
		return nil, perrors.New(perrors.ErrCodeNotReady, "ti: Setup was not called")
	}
	term = integrations.NormalizeTerm(term)

	var res supplier.Result
	keyOpts := cache.SearchKeyOpts{Currency: a.currency}
	err := a.client.CachedSearch(ctx, ID, term, keyOpts, a.opts.Refresh, &res, func() error {
		return a.fetch(ctx, term, &res)
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *Adapter) fetch(ctx context.Context, term string, res *supplier.Result) error {
	products, err := a.exact(ctx, term)
	if err != nil {
		return err
	}
	if products == nil {
		if products, err = a.generic(ctx, term); err != nil {
			return err
		}
	}

	parts := make([]part.Part, 0, len(products))
	for _, p := range products {
		parts = append(parts, p.toPart(a.currency))
	}
	*res = supplier.Result{Parts: parts, Total: len(parts)}
	return nil
}

// exact looks up term as an orderable part number. It returns nil products
// when the generic lookup should be tried, and an empty slice when TI does
// not carry the part.
func (a *Adapter) exact(ctx context.Context, term string) ([]product, error) {
	var resp exactResponse
	err := a.get(ctx, "v2/store/products/"+integrations.PathEscape(term), a.query(), &resp)
	if err != nil {
		if notCarried(err) {
			return []product{}, nil
		}
		var se *integrations.StatusError
		if errors.As(err, &se) && bodyHasCode(se.Body, errNoSuchOPN) {
			return nil, nil
		}
		return nil, classify(err, "product lookup")
	}
	if resp.HasCode(errNoSuchOPN) {
		return nil, nil
	}
	if len(resp.Errors) > 0 {
		return nil, perrors.New(perrors.ErrCodeRemote, "product lookup failed with %q", resp.Errors[0].Message)
	}
	return []product{resp.product}, nil
}

// generic pages through the products matching term as a generic part
// number. Pages are cached one by one so that a search failing part way
// does not fetch the earlier pages again.
func (a *Adapter) generic(ctx context.Context, term string) ([]product, error) {
	var out []product
	for page := 0; page < maxPages; page++ {
		q := a.query()
		q.Set("gpn", term)
		q.Set("size", strconv.Itoa(pageSize))
		q.Set("page", strconv.Itoa(page))

		var resp pageResponse
		key := fmt.Sprintf("gpn:%s:%s:%d", a.currency, term, page)
		err := a.client.Cached(ctx, key, a.opts.Refresh, &resp, func() error {
			return a.get(ctx, "v2/store/products", q, &resp)
		})
		if err != nil {
			if notCarried(err) {
				return []product{}, nil
			}
			return nil, classify(err, "product search")
		}
		out = append(out, resp.Content...)
		if resp.Last {
			return out, nil
		}
	}
	a.opts.Log().Warn("stopped paging through TI results", "term", term, "pages", maxPages, "parts", len(out))
	return out, nil
}

func (a *Adapter) query() url.Values {
	return url.Values{
		"exclude-evms": {"true"},
		"currency":     {a.currency},
	}
}

// get performs an authenticated GET. A 401 drops the cached token.
func (a *Adapter) get(ctx context.Context, path string, q url.Values, v any) error {
	token, err := a.tokens.Token(ctx)
	if err != nil {
		return err
	}
	err = a.client.GetWithHeaders(ctx, integrations.BuildURL(a.baseURL, path, q),
		map[string]string{"Authorization": "Bearer " + token}, v)
	if errors.Is(err, integrations.ErrUnauthorized) {
		a.tokens.Invalidate()
	}
	return err
}

// notCarried reports a 403 or 404. TI's inventory includes parts of other
// manufacturers that answer 403; both mean TI does not sell the part.
func notCarried(err error) bool {
	return errors.Is(err, integrations.ErrNotFound) || errors.Is(err, integrations.ErrForbidden)
}

func bodyHasCode(body []byte, code string) bool {
	return strings.Contains(string(body), code)
}

// classify maps client errors onto error codes. Already coded errors pass
// through.
func classify(err error, action string) error {
	if perrors.GetCode(err) != "" {
		return err
	}
	switch {
	case errors.Is(err, integrations.ErrUnauthorized):
		return perrors.Wrap(perrors.ErrCodeUnauthorized, err, "%s rejected the credentials", action)
	case errors.Is(err, integrations.ErrNetwork):
		return perrors.Wrap(perrors.ErrCodeNetwork, err, "%s failed", action)
	default:
		return perrors.Wrap(perrors.ErrCodeRemote, err, "%s failed", action)
	}
}

type exactResponse struct {
	product
	integrations.ErrorBody
}

type pageResponse struct {
	Content []product `json:"content"`
	Last    bool      `json:"last"`
}

type product struct {
	Description          string      `json:"description"`
	BuyNowURL            string      `json:"buyNowUrl"`
	TIPartNumber         string      `json:"tiPartNumber"`
	Quantity             int         `json:"quantity"`
	PackageCarrier       string      `json:"packageCarrier"`
	MinimumOrderQuantity int         `json:"minimumOrderQuantity"`
	Pricing              []priceList `json:"pricing"`
}

type priceList struct {
	Currency    string `json:"currency"`
	PriceBreaks []struct {
		Quantity int             `json:"priceBreakQuantity"`
		Price    decimal.Decimal `json:"price"`
	} `json:"priceBreaks"`
}

func (p product) toPart(currency string) part.Part {
	lists := make([]part.PriceList, 0, len(p.Pricing))
	for _, pl := range p.Pricing {
		breaks := make([]part.PriceBreak, 0, len(pl.PriceBreaks))
		for _, b := range pl.PriceBreaks {
			breaks = append(breaks, part.PriceBreak{Quantity: b.Quantity, UnitPrice: b.Price})
		}
		lists = append(lists, part.PriceList{Currency: strings.ToUpper(pl.Currency), Breaks: breaks})
	}

	chosen, ok := part.SelectPriceList(lists, currency, part.ReferenceCurrency)
	if !ok {
		chosen = part.PriceList{Currency: currency}
	}

	return part.Part{
		Description:       integrations.StripHTML(p.Description),
		SupplierLink:      p.BuyNowURL,
		SKU:               p.TIPartNumber,
		Manufacturer:      Name,
		ManufacturerLink:  p.BuyNowURL,
		MPN:               p.TIPartNumber,
		QuantityAvailable: max(p.Quantity, 0),
		Packaging:         p.PackageCarrier,
		PriceBreaks:       part.CollapseBelowMinimum(chosen.Breaks, p.MinimumOrderQuantity),
		Currency:          chosen.Currency,
	}
}

var _ supplier.Adapter = (*Adapter)(nil)
