package supplier

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/matzehuels/partscout/pkg/errors"
)

func TestRegistryFailingSetupIsExcluded(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry([]*Definition{
		def("alpha", &fakeAdapter{}),
		def("bravo", &fakeAdapter{setupErr: errSetup}),
		def("charlie", &fakeAdapter{}),
		def("delta", &fakeAdapter{}),
	}, WithLogger(log.New(&buf)))

	require.Equal(t, 4, r.Discover())
	loaded := r.Configure(Config{}, sectionsFor("alpha", "bravo", "charlie", "delta"))

	assert.Equal(t, 3, loaded)
	assert.Len(t, r.Available(), 4)
	assert.Len(t, r.Loaded(), 3)
	assert.NotContains(t, r.Loaded(), "bravo")
	assert.Equal(t, Configured, r.State())

	out := buf.String()
	assert.Contains(t, out, "only loaded 3 of 4 available suppliers")
	assert.Contains(t, out, "CONFIG_ERROR")
}

func TestRegistryDiscoverSkipsInvalidDefinitions(t *testing.T) {
	good := def("good", &fakeAdapter{})
	r := NewRegistry([]*Definition{
		good,
		def("good", &fakeAdapter{}), // duplicate
		def("Bad-ID", &fakeAdapter{}),
		{ID: "noname", New: func() Adapter { return &fakeAdapter{} }},
		{ID: "nonew", Name: "No New"},
		{ID: "nilnew", Name: "Nil", New: func() Adapter { return nil }},
		{ID: "panics", Name: "Panics", New: func() Adapter { panic("boom") }},
		nil,
	}, WithLogger(quietLogger()))

	assert.Equal(t, 1, r.Discover())
	assert.Equal(t, []Identity{good.Identity()}, r.Available())
}

func TestRegistryRediscoverKeepsInstances(t *testing.T) {
	created := 0
	d := &Definition{ID: "ti", Name: "TI", New: func() Adapter {
		created++
		return &fakeAdapter{}
	}}
	r := NewRegistry([]*Definition{d}, WithLogger(quietLogger()))
	r.Discover()
	r.Discover()
	assert.Equal(t, 1, created)
}

func TestRegistryConfigureSkipsDisabledAndMissing(t *testing.T) {
	a, b := &fakeAdapter{}, &fakeAdapter{}
	r := NewRegistry([]*Definition{def("alpha", a), def("bravo", b), def("charlie", &fakeAdapter{})},
		WithLogger(quietLogger()))

	loaded := r.Configure(Config{}, map[string]Config{
		"alpha":   {},
		"bravo":   {"enabled": "false"},
		"unknown": {},
	})
	assert.Equal(t, 1, loaded)
	assert.Equal(t, 0, b.setupCount(), "disabled supplier must not be set up")
}

func TestRegistryConfigureImplicitDiscover(t *testing.T) {
	r := NewRegistry([]*Definition{def("alpha", &fakeAdapter{})}, WithLogger(quietLogger()))
	assert.Equal(t, Undiscovered, r.State())
	assert.Equal(t, 1, r.Configure(Config{}, sectionsFor("alpha")))
}

func TestRegistryConfigureMergesGlobals(t *testing.T) {
	a := &fakeAdapter{}
	d := &Definition{
		ID: "alpha", Name: "Alpha",
		Params: []Param{
			{Name: "currency", Global: true},
			{Name: "region", Default: "eu"},
			{Name: "api_key", Secret: true},
		},
		New: func() Adapter { return a },
	}
	r := NewRegistry([]*Definition{d}, WithLogger(quietLogger()))
	r.Configure(Config{"currency": "EUR", "language": "de"}, map[string]Config{"alpha": {"api_key": "k"}})

	assert.Equal(t, "EUR", a.lastCfg.Get("currency"))
	assert.Equal(t, "eu", a.lastCfg.Get("region"))
	assert.Equal(t, "k", a.lastCfg.Get("api_key"))
	assert.Empty(t, a.lastCfg.Get("language"), "non-declared globals are not copied")

	// Section values win over globals.
	r.Configure(Config{"currency": "EUR"}, map[string]Config{"alpha": {"api_key": "k", "currency": "gbp"}})
	assert.Equal(t, "GBP", a.lastCfg.Currency())
}

func TestRegistryConfigureSkipsUnchanged(t *testing.T) {
	a := &fakeAdapter{}
	r := NewRegistry([]*Definition{def("alpha", a)}, WithLogger(quietLogger()))

	r.Configure(Config{}, map[string]Config{"alpha": {"k": "1"}})
	r.Configure(Config{}, map[string]Config{"alpha": {"k": "1"}})
	assert.Equal(t, 1, a.setupCount())

	r.Configure(Config{}, map[string]Config{"alpha": {"k": "2"}})
	assert.Equal(t, 2, a.setupCount())
}

func TestRegistryReconfigureReplacesAdapter(t *testing.T) {
	created := 0
	d := &Definition{ID: "alpha", Name: "Alpha", New: func() Adapter {
		created++
		return &fakeAdapter{}
	}}
	r := NewRegistry([]*Definition{d}, WithLogger(quietLogger()))

	r.Configure(Config{}, map[string]Config{"alpha": {"k": "1"}})
	first, _, err := r.Lookup("alpha")
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	r.Configure(Config{}, map[string]Config{"alpha": {"k": "1"}})
	same, _, _ := r.Lookup("alpha")
	assert.Same(t, first, same, "unchanged config keeps the instance")

	r.Configure(Config{}, map[string]Config{"alpha": {"k": "2"}})
	second, _, err := r.Lookup("alpha")
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.NotSame(t, first, second)
	assert.Equal(t, 1, first.(*fakeAdapter).setupCount(), "old instance is not set up again")
	assert.Equal(t, "2", second.(*fakeAdapter).lastCfg.Get("k"))
}

func TestRegistryReconfigureFailureUnloads(t *testing.T) {
	fail := false
	d := &Definition{ID: "alpha", Name: "Alpha", New: func() Adapter {
		if fail {
			return &fakeAdapter{setupErr: errSetup}
		}
		return &fakeAdapter{}
	}}
	r := NewRegistry([]*Definition{d}, WithLogger(quietLogger()))
	require.Equal(t, 1, r.Configure(Config{}, map[string]Config{"alpha": {"k": "1"}}))

	fail = true
	assert.Equal(t, 0, r.Configure(Config{}, map[string]Config{"alpha": {"k": "2"}}))
	_, _, err := r.Lookup("alpha")
	assert.True(t, perrors.Is(err, perrors.ErrCodeSupplierNotFound))
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry([]*Definition{def("alpha", &fakeAdapter{})}, WithLogger(quietLogger()))
	r.Configure(Config{}, sectionsFor("alpha"))

	_, id, err := r.Lookup("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", id.ID)

	_, _, err = r.Lookup("zulu")
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.ErrCodeSupplierNotFound))
	assert.True(t, strings.Contains(err.Error(), "zulu"))
}

func TestConfigRequire(t *testing.T) {
	cfg := Config{"client_key": "k", "client_secret": " "}
	err := cfg.Require("client_key", "client_secret")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingConfig))
	assert.Contains(t, err.Error(), "client_secret")
	assert.NoError(t, cfg.Require("client_key"))
}

func TestConfigCurrency(t *testing.T) {
	assert.Equal(t, "USD", Config{}.Currency())
	assert.Equal(t, "EUR", Config{"currency": " eur "}.Currency())
}

func TestConfigMasked(t *testing.T) {
	d := &Definition{Params: []Param{{Name: "api_key", Secret: true}, {Name: "currency"}}}
	m := Config{"api_key": "secret", "currency": "EUR"}.Masked(d)
	assert.Equal(t, "***", m["api_key"])
	assert.Equal(t, "EUR", m["currency"])
}

func TestSupportLevelString(t *testing.T) {
	assert.Equal(t, "official API", OfficialAPI.String())
	assert.Equal(t, "scraping", Scraping.String())
}
