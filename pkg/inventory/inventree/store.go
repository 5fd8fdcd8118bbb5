// Package inventree records supplier companies in an InvenTree server.
//
// Companies are looked up by primary key when one is known, then by name,
// and created through POST /api/company/ otherwise. Requests authenticate
// with an API token ("Authorization: Token <token>"). Lookups go through
// the same retry policy as supplier searches; the create is sent once, and
// after a network failure the name lookup is repeated in case the server
// committed it anyway.
package inventree

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	perrors "github.com/matzehuels/partscout/pkg/errors"
	"github.com/matzehuels/partscout/pkg/httputil"
	"github.com/matzehuels/partscout/pkg/integrations"
	"github.com/matzehuels/partscout/pkg/inventory"
)

// Store is an inventory.Store backed by the InvenTree REST API.
type Store struct {
	client *integrations.Client
	// writer never retries; creating a company is not idempotent.
	writer *integrations.Client
	host   string
}

// New creates a Store for the server at host. Responses are never cached.
func New(host, token string, opts integrations.Options) (*Store, error) {
	if err := perrors.ValidateURL(host); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeConfig, err, "inventree host")
	}
	if token == "" {
		return nil, perrors.New(perrors.ErrCodeConfig, "inventree token is not set")
	}
	opts.Cache = nil
	headers := map[string]string{"Authorization": "Token " + token}
	writeOpts := opts
	writeOpts.Policy = httputil.Policy{Attempts: 1}
	return &Store{
		client: opts.NewClient("inventree:", headers),
		writer: writeOpts.NewClient("inventree:", headers),
		host:   host,
	}, nil
}

// EnsureCompany implements inventory.Store.
func (s *Store) EnsureCompany(ctx context.Context, c inventory.Company) (inventory.Company, error) {
	if err := c.Validate(); err != nil {
		return inventory.Company{}, err
	}

	if c.PK != 0 {
		var got inventory.Company
		err := s.client.Get(ctx, integrations.BuildURL(s.host, fmt.Sprintf("api/company/%d/", c.PK), nil), &got)
		switch {
		case err == nil:
			return got, nil
		case !errors.Is(err, integrations.ErrNotFound):
			return inventory.Company{}, s.wrap(err, "get company %d", c.PK)
		}
	}

	if found, ok, err := s.findByName(ctx, c); err != nil || ok {
		return found, err
	}

	body := map[string]any{"name": c.Name, "currency": c.Currency, "is_supplier": c.IsSupplier}
	var created inventory.Company
	err := s.writer.PostJSON(ctx, integrations.BuildURL(s.host, "api/company/", nil), body, nil, &created)
	if err == nil {
		return created, nil
	}
	if errors.Is(err, integrations.ErrNetwork) && ctx.Err() == nil {
		if found, ok, lookupErr := s.findByName(ctx, c); lookupErr == nil && ok {
			return found, nil
		}
	}
	return inventory.Company{}, s.wrap(err, "create company %q", c.Name)
}

func (s *Store) findByName(ctx context.Context, c inventory.Company) (inventory.Company, bool, error) {
	var found []inventory.Company
	q := url.Values{"name": {c.Name}, "is_supplier": {strconv.FormatBool(c.IsSupplier)}}
	if err := s.client.Get(ctx, integrations.BuildURL(s.host, "api/company/", q), &found); err != nil {
		return inventory.Company{}, false, s.wrap(err, "find company %q", c.Name)
	}
	for _, f := range found {
		if f.Name == c.Name {
			return f, true, nil
		}
	}
	return inventory.Company{}, false, nil
}

func (s *Store) wrap(err error, format string, args ...any) error {
	code := perrors.ErrCodeRemote
	switch {
	case errors.Is(err, integrations.ErrUnauthorized):
		code = perrors.ErrCodeUnauthorized
	case errors.Is(err, integrations.ErrForbidden):
		code = perrors.ErrCodeForbidden
	case errors.Is(err, integrations.ErrNetwork):
		code = perrors.ErrCodeNetwork
	}
	return perrors.Wrap(code, err, "inventree: "+format, args...)
}

var _ inventory.Store = (*Store)(nil)
