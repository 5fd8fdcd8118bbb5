// Package config loads partscout's TOML configuration.
//
// Two files live in the config directory:
//
//   - config.toml: global settings (currency, cache, inventory backend)
//   - suppliers.toml: one table per supplier id with its params
//
// The directory is $XDG_CONFIG_HOME/partscout, falling back to
// ~/.config/partscout. Supplier params can be overridden from the
// environment as PARTSCOUT_<SUPPLIER>_<PARAM>, which keeps secrets out of
// the files.
//
// # Example
//
//	cfg, err := config.Load(config.DefaultDir(), suppliers.IDs()...)
//	if err != nil {
//	    return err
//	}
//	reg.Configure(cfg.Global(), cfg.Sections())
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/partscout/pkg/errors"
	"github.com/matzehuels/partscout/pkg/supplier"
)

const (
	appName = "partscout"

	// GlobalFile is the name of the global settings file.
	GlobalFile = "config.toml"
	// SuppliersFile is the name of the per-supplier settings file.
	SuppliersFile = "suppliers.toml"

	// EnvPrefix prefixes supplier param overrides.
	EnvPrefix = "PARTSCOUT_"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Inventory backends.
const (
	InventoryInvenTree = "inventree"
	InventoryMongo     = "mongo"
	InventoryMemory    = "memory"
)

// Defaults applied to missing global settings.
const (
	DefaultMaxResults     = 10
	DefaultRequestTimeout = 15 * time.Second
	DefaultRetryAttempts  = 3
	DefaultRetryDelay     = time.Second
	DefaultWorkers        = 8
	DefaultCacheTTL       = 24 * time.Hour
)

// Config is the loaded configuration.
type Config struct {
	Currency       string          `toml:"currency"`
	Language       string          `toml:"language"`
	Location       string          `toml:"location"`
	MaxResults     int             `toml:"max_results"`
	RequestTimeout time.Duration   `toml:"request_timeout"`
	RetryAttempts  int             `toml:"retry_attempts"`
	RetryDelay     time.Duration   `toml:"retry_delay"`
	Workers        int             `toml:"workers"`
	Cache          CacheConfig     `toml:"cache"`
	Inventory      InventoryConfig `toml:"inventory"`

	// Suppliers maps supplier id to its params as strings.
	Suppliers map[string]supplier.Config `toml:"-"`

	// Dir is the directory the files were read from.
	Dir string `toml:"-"`

	// Warnings lists unknown keys found in config.toml.
	Warnings []string `toml:"-"`
}

// CacheConfig selects and tunes the response cache.
type CacheConfig struct {
	Backend   string        `toml:"backend"`
	TTL       time.Duration `toml:"ttl"`
	RedisAddr string        `toml:"redis_addr"`
}

// InventoryConfig selects where supplier companies are recorded.
type InventoryConfig struct {
	Backend       string `toml:"backend"`
	Host          string `toml:"host"`
	Token         string `toml:"token"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// DefaultDir returns the configuration directory.
func DefaultDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+appName)
	}
	return filepath.Join(home, ".config", appName)
}

// Default returns a Config with every default applied and no suppliers.
func Default() *Config {
	c := &Config{Suppliers: map[string]supplier.Config{}}
	c.applyDefaults()
	return c
}

// Load reads both files from dir. Missing files are not an error. Env
// overrides are applied for the given supplier ids.
func Load(dir string, supplierIDs ...string) (*Config, error) {
	c := &Config{Dir: dir, Suppliers: map[string]supplier.Config{}}

	md, err := toml.DecodeFile(filepath.Join(dir, GlobalFile), c)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "read %s", GlobalFile)
	default:
		for _, key := range md.Undecoded() {
			c.Warnings = append(c.Warnings, fmt.Sprintf("%s: unknown key %q", GlobalFile, key.String()))
		}
	}

	var raw map[string]map[string]any
	_, err = toml.DecodeFile(filepath.Join(dir, SuppliersFile), &raw)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "read %s", SuppliersFile)
	default:
		for id, table := range raw {
			section := make(supplier.Config, len(table))
			for k, v := range table {
				section[k] = stringify(v)
			}
			c.Suppliers[id] = section
		}
	}

	c.applyEnv(os.Environ(), supplierIDs)
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = DefaultRetryAttempts
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheFile
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Inventory.Backend == "" {
		c.Inventory.Backend = InventoryMemory
	}
	c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))
}

// applyEnv copies PARTSCOUT_<ID>_<PARAM> variables into the matching
// supplier section.
func (c *Config) applyEnv(environ []string, supplierIDs []string) {
	for _, id := range supplierIDs {
		prefix := EnvPrefix + strings.ToUpper(id) + "_"
		for _, kv := range environ {
			name, value, ok := strings.Cut(kv, "=")
			if !ok || !strings.HasPrefix(name, prefix) || value == "" {
				continue
			}
			param := strings.ToLower(strings.TrimPrefix(name, prefix))
			if param == "" {
				continue
			}
			if c.Suppliers[id] == nil {
				c.Suppliers[id] = supplier.Config{}
			}
			c.Suppliers[id][param] = value
		}
	}
}

// Validate checks the global settings.
func (c *Config) Validate() error {
	if c.Currency != "" {
		if err := errors.ValidateCurrency(c.Currency); err != nil {
			return errors.Wrap(errors.ErrCodeConfig, err, "currency")
		}
	}
	if c.MaxResults < 0 {
		return errors.New(errors.ErrCodeConfig, "max_results must not be negative")
	}
	if c.Workers < 0 {
		return errors.New(errors.ErrCodeConfig, "workers must not be negative")
	}
	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeConfig, "cache.redis_addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Inventory.Backend {
	case InventoryMemory:
	case InventoryInvenTree:
		if c.Inventory.Host == "" {
			return errors.New(errors.ErrCodeConfig, "inventory.host is required for the inventree backend")
		}
	case InventoryMongo:
		if c.Inventory.MongoURI == "" {
			return errors.New(errors.ErrCodeConfig, "inventory.mongo_uri is required for the mongo backend")
		}
	default:
		return errors.New(errors.ErrCodeConfig, "unknown inventory backend %q", c.Inventory.Backend)
	}
	return nil
}

// Global returns the settings that suppliers may inherit.
func (c *Config) Global() supplier.Config {
	g := supplier.Config{}
	if c.Currency != "" {
		g["currency"] = c.Currency
	}
	if c.Language != "" {
		g["language"] = c.Language
	}
	if c.Location != "" {
		g["location"] = c.Location
	}
	return g
}

// Sections returns a copy of the supplier sections.
func (c *Config) Sections() map[string]supplier.Config {
	out := make(map[string]supplier.Config, len(c.Suppliers))
	for id, section := range c.Suppliers {
		cp := make(supplier.Config, len(section))
		for k, v := range section {
			cp[k] = v
		}
		out[id] = cp
	}
	return out
}

// SetSupplierParam sets one param in memory. Call Save to persist it.
func (c *Config) SetSupplierParam(id, key, value string) {
	if c.Suppliers == nil {
		c.Suppliers = map[string]supplier.Config{}
	}
	if c.Suppliers[id] == nil {
		c.Suppliers[id] = supplier.Config{}
	}
	c.Suppliers[id][key] = value
}

// Save writes the supplier sections back to suppliers.toml in c.Dir.
// Values that came from the environment are written too, so callers that
// care should only Save after changing a non-secret param.
func (c *Config) Save() error {
	if c.Dir == "" {
		return errors.New(errors.ErrCodeConfig, "config directory is not set")
	}
	if err := os.MkdirAll(c.Dir, 0o700); err != nil {
		return errors.Wrap(errors.ErrCodeConfig, err, "create config directory")
	}

	out := make(map[string]map[string]any, len(c.Suppliers))
	for id, section := range c.Suppliers {
		table := make(map[string]any, len(section))
		for k, v := range section {
			table[k] = typed(k, v)
		}
		out[id] = table
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return errors.Wrap(errors.ErrCodeConfig, err, "encode %s", SuppliersFile)
	}

	path := filepath.Join(c.Dir, SuppliersFile)
	tmp, err := os.CreateTemp(c.Dir, ".suppliers-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfig, err, "write %s", SuppliersFile)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeConfig, err, "write %s", SuppliersFile)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeConfig, err, "write %s", SuppliersFile)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeConfig, err, "write %s", SuppliersFile)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeConfig, err, "write %s", SuppliersFile)
	}
	return nil
}

// SupplierIDs returns the configured supplier ids, sorted.
func (c *Config) SupplierIDs() []string {
	ids := make([]string, 0, len(c.Suppliers))
	for id := range c.Suppliers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func stringify(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// typed restores the TOML type of the few params that are not strings.
func typed(key, value string) any {
	switch key {
	case "enabled":
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	case "primary_key":
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return value
}
