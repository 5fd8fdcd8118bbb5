package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/partscout/pkg/cache"
	"github.com/matzehuels/partscout/pkg/config"
	"github.com/matzehuels/partscout/pkg/errors"
	"github.com/matzehuels/partscout/pkg/integrations"
	"github.com/matzehuels/partscout/pkg/inventory"
	"github.com/matzehuels/partscout/pkg/part"
	"github.com/matzehuels/partscout/pkg/supplier"
)

type stubAdapter struct {
	delay time.Duration
	err   error
}

func (s *stubAdapter) Setup(supplier.Config) error { return nil }

func (s *stubAdapter) Search(ctx context.Context, term string) (*supplier.Result, error) {
	time.Sleep(s.delay)
	if s.err != nil {
		return nil, s.err
	}
	return &supplier.Result{Parts: []part.Part{{SKU: term}, {SKU: term + "-2"}}, Total: 2}, nil
}

func newTestDispatcher(t *testing.T, adapters map[string]*stubAdapter) *supplier.Dispatcher {
	t.Helper()
	quiet := newLogger(io.Discard, LogInfo)

	var defs []*supplier.Definition
	sections := map[string]supplier.Config{}
	for id, a := range adapters {
		defs = append(defs, &supplier.Definition{
			ID:   id,
			Name: strings.ToUpper(id),
			New:  func() supplier.Adapter { return a },
		})
		sections[id] = supplier.Config{}
	}
	reg := supplier.NewRegistry(defs, supplier.WithLogger(quiet))
	reg.Configure(supplier.Config{}, sections)

	pool := supplier.NewPool(4)
	t.Cleanup(pool.Close)
	d := supplier.NewDispatcher(reg, pool, supplier.WithDispatcherLogger(quiet))
	require.NoError(t, d.SetupCompanies(context.Background(), inventory.NewMemoryStore()))
	return d
}

func TestSearchOptsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    searchOpts
		wantErr bool
	}{
		{"defaults", searchOpts{wait: waitOrder, quantity: 1}, false},
		{"first", searchOpts{wait: waitFirst, quantity: 1}, false},
		{"bad wait", searchOpts{wait: "never", quantity: 1}, true},
		{"only without supplier", searchOpts{wait: waitOrder, only: true, quantity: 1}, true},
		{"only with supplier", searchOpts{wait: waitOrder, only: true, supplier: "ti", quantity: 1}, false},
		{"zero quantity", searchOpts{wait: waitOrder}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCollectOrder(t *testing.T) {
	d := newTestDispatcher(t, map[string]*stubAdapter{
		"alpha": {delay: 50 * time.Millisecond},
		"beta":  {},
	})
	handles, err := d.Search(context.Background(), "lm358", supplier.Route{})
	require.NoError(t, err)

	var got []string
	require.NoError(t, collect(context.Background(), handles, waitOrder, func(r searchRecord) {
		got = append(got, r.Supplier.ID)
	}))
	assert.Equal(t, []string{"alpha", "beta"}, got)
}

func TestCollectFirst(t *testing.T) {
	d := newTestDispatcher(t, map[string]*stubAdapter{
		"alpha": {delay: 100 * time.Millisecond},
		"beta":  {},
	})
	handles, err := d.Search(context.Background(), "lm358", supplier.Route{})
	require.NoError(t, err)

	var got []string
	require.NoError(t, collect(context.Background(), handles, waitFirst, func(r searchRecord) {
		got = append(got, r.Supplier.ID)
	}))
	assert.Equal(t, []string{"beta", "alpha"}, got)
}

func TestCollectStopsOnCancel(t *testing.T) {
	d := newTestDispatcher(t, map[string]*stubAdapter{"alpha": {delay: time.Second}})
	handles, err := d.Search(context.Background(), "lm358", supplier.Route{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	for _, wait := range []string{waitOrder, waitFirst} {
		err := collect(ctx, handles, wait, func(searchRecord) {
			t.Error("nothing should be emitted")
		})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}
}

func TestNewRecordCarriesErrors(t *testing.T) {
	d := newTestDispatcher(t, map[string]*stubAdapter{
		"alpha": {err: errors.New(errors.ErrCodeUnauthorized, "bad key")},
	})
	handles, err := d.Search(context.Background(), "lm358", supplier.Route{})
	require.NoError(t, err)

	var rec searchRecord
	require.NoError(t, collect(context.Background(), handles, waitOrder, func(r searchRecord) { rec = r }))
	assert.Equal(t, errors.ErrCodeUnauthorized, rec.Code)
	assert.Contains(t, rec.Error, "alpha: search 'lm358'")
	assert.NotNil(t, rec.Parts)
	assert.Empty(t, rec.Parts)
}

func TestCapParts(t *testing.T) {
	parts := []part.Part{{SKU: "a"}, {SKU: "b"}, {SKU: "c"}}
	assert.Len(t, capParts(parts, 2), 2)
	assert.Len(t, capParts(parts, 0), 3)
	assert.Len(t, capParts(parts, 10), 3)
}

func TestFormatPrices(t *testing.T) {
	p := part.Part{Currency: "EUR", PriceBreaks: part.PriceBreaks{
		1:    decimal.RequireFromString("0.52"),
		10:   decimal.RequireFromString("0.45"),
		100:  decimal.RequireFromString("0.3812"),
		1000: decimal.RequireFromString("0.30"),
	}}
	assert.Equal(t, "1+ 0.52 · 10+ 0.45 · 100+ 0.3812 · … EUR", formatPrices(p))
	assert.Equal(t, "-", formatPrices(part.Part{}))
}

func TestFormatUnitPrice(t *testing.T) {
	p := part.Part{Currency: "USD", PriceBreaks: part.CollapseBelowMinimum([]part.PriceBreak{
		{Quantity: 1, UnitPrice: decimal.RequireFromString("0.52")},
		{Quantity: 10, UnitPrice: decimal.RequireFromString("0.45")},
		{Quantity: 100, UnitPrice: decimal.RequireFromString("0.38")},
	}, 10)}

	assert.Equal(t, "-", formatUnitPrice(p, 5), "below the minimum order")
	assert.Equal(t, "0.45 USD", formatUnitPrice(p, 10))
	assert.Equal(t, "0.45 USD", formatUnitPrice(p, 99))
	assert.Equal(t, "0.38 USD", formatUnitPrice(p, 2500))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestNewCacheBackends(t *testing.T) {
	c := New(io.Discard, LogInfo)
	ctx := context.Background()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	cfg := config.Default()
	cfg.Cache.Backend = config.CacheNone
	store, _, err := c.newCache(ctx, cfg, false)
	require.NoError(t, err)
	assert.IsType(t, cache.NullCache{}, store)

	cfg.Cache.Backend = config.CacheFile
	store, _, err = c.newCache(ctx, cfg, false)
	require.NoError(t, err)
	assert.IsType(t, &cache.FileCache{}, store)

	store, _, err = c.newCache(ctx, cfg, true)
	require.NoError(t, err)
	assert.IsType(t, cache.NullCache{}, store)

	mr := miniredis.RunT(t)
	cfg.Cache.Backend = config.CacheRedis
	cfg.Cache.RedisAddr = mr.Addr()
	store, keyer, err := c.newCache(ctx, cfg, false)
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &cache.RedisCache{}, store)
	assert.True(t, strings.HasPrefix(keyer.HTTPKey("ti", "x"), redisPrefix))
}

func TestNewInventoryBackends(t *testing.T) {
	c := New(io.Discard, LogInfo)
	ctx := context.Background()

	cfg := config.Default()
	inv, closer, err := c.newInventory(ctx, cfg, integrations.Options{}, false)
	require.NoError(t, err)
	assert.Nil(t, closer)
	assert.IsType(t, &inventory.MemoryStore{}, inv)

	cfg.Inventory = config.InventoryConfig{Backend: config.InventoryInvenTree, Host: "https://inventree.example.com", Token: "t"}
	inv, _, err = c.newInventory(ctx, cfg, integrations.Options{}, true)
	require.NoError(t, err)
	assert.IsType(t, &inventory.MemoryStore{}, inv)

	cfg.Inventory.Host = "not a url"
	_, _, err = c.newInventory(ctx, cfg, integrations.Options{}, false)
	assert.Error(t, err)
}

func TestNewEnvWithoutSuppliers(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.GlobalFile), []byte("workers = 2\n"), 0o600))

	c := New(io.Discard, LogInfo)
	c.configDir = dir
	e, err := c.newEnv(context.Background(), envOptions{dryRun: true})
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, 2, e.pool.Size())
	assert.Empty(t, e.registry.Loaded())
	assert.Len(t, e.registry.Available(), 2)
}

func TestPersistCompanies(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.SuppliersFile),
		[]byte("[ti]\nclient_key = \"k\"\nclient_secret = \"s\"\n"), 0o600))

	c := New(io.Discard, LogInfo)
	c.configDir = dir
	e, err := c.newEnv(context.Background(), envOptions{dryRun: true})
	require.NoError(t, err)
	defer e.Close()
	require.Contains(t, e.dispatch.Companies(), "ti")

	c.persistCompanies(e)
	data, err := os.ReadFile(filepath.Join(dir, config.SuppliersFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "primary_key = 1")
}
