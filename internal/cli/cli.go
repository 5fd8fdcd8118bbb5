package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/partscout/pkg/buildinfo"
	"github.com/matzehuels/partscout/pkg/cache"
	"github.com/matzehuels/partscout/pkg/config"
	"github.com/matzehuels/partscout/pkg/errors"
	"github.com/matzehuels/partscout/pkg/httputil"
	"github.com/matzehuels/partscout/pkg/integrations"
	"github.com/matzehuels/partscout/pkg/inventory"
	"github.com/matzehuels/partscout/pkg/inventory/inventree"
	"github.com/matzehuels/partscout/pkg/inventory/mongo"
	"github.com/matzehuels/partscout/pkg/supplier"
	"github.com/matzehuels/partscout/pkg/suppliers"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "partscout"

	// redisPrefix scopes every key the CLI writes to a shared Redis.
	redisPrefix = appName + ":"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger    *log.Logger
	configDir string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Partscout searches electronic component suppliers",
		Long:         `Partscout sends a part number to every configured supplier API at once and lists the offers, stock and price breaks each of them returns.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configDir, "config-dir", "", "configuration directory (default $XDG_CONFIG_HOME/partscout)")

	root.AddCommand(c.searchCommand())
	root.AddCommand(c.suppliersCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Environment Factory
// =============================================================================

// env is everything a search needs, built from the configuration.
type env struct {
	cfg       *config.Config
	cache     cache.Cache
	inventory inventory.Store
	registry  *supplier.Registry
	pool      *supplier.Pool
	dispatch  *supplier.Dispatcher
	closers   []func() error
}

// Close releases the pool, the cache and the inventory connection.
func (e *env) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i]()
	}
}

type envOptions struct {
	noCache bool
	refresh bool
	dryRun  bool
}

// newEnv loads the configuration, configures every supplier and records
// their companies in the inventory.
func (c *CLI) newEnv(ctx context.Context, o envOptions) (*env, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg}
	store, keyer, err := c.newCache(ctx, cfg, o.noCache)
	if err != nil {
		return nil, err
	}
	e.cache = store
	e.closers = append(e.closers, store.Close)

	opts := integrations.Options{
		Cache:   store,
		Keyer:   keyer,
		TTL:     cfg.Cache.TTL,
		Timeout: cfg.RequestTimeout,
		Logger:  c.Logger,
		Refresh: o.refresh,
		Policy: httputil.Policy{
			Attempts:  cfg.RetryAttempts,
			BaseDelay: cfg.RetryDelay,
			MaxDelay:  httputil.DefaultPolicy().MaxDelay,
			Jitter:    httputil.DefaultPolicy().Jitter,
		},
	}

	e.registry = supplier.NewRegistry(suppliers.All(opts), supplier.WithLogger(c.Logger))
	e.registry.Configure(cfg.Global(), cfg.Sections())

	inv, closeInv, err := c.newInventory(ctx, cfg, opts, o.dryRun)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.inventory = inv
	if closeInv != nil {
		e.closers = append(e.closers, closeInv)
	}

	e.pool = supplier.NewPool(cfg.Workers)
	e.dispatch = supplier.NewDispatcher(e.registry, e.pool, supplier.WithDispatcherLogger(c.Logger))
	if err := e.dispatch.SetupCompanies(ctx, inv); err != nil {
		e.Close()
		return nil, err
	}
	if !o.dryRun && cfg.Inventory.Backend != config.InventoryMemory {
		c.persistCompanies(e)
	}
	return e, nil
}

// persistCompanies writes newly learned primary keys back to suppliers.toml.
func (c *CLI) persistCompanies(e *env) {
	changed := false
	for id, company := range e.dispatch.Companies() {
		if company.PK == 0 {
			continue
		}
		pk := strconv.Itoa(company.PK)
		if e.cfg.Suppliers[id]["primary_key"] == pk {
			continue
		}
		e.cfg.SetSupplierParam(id, "primary_key", pk)
		changed = true
	}
	if !changed {
		return
	}
	if err := e.cfg.Save(); err != nil {
		c.Logger.Warn("could not store supplier company keys", "err", err)
	}
}

func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.resolvedConfigDir(), suppliers.IDs()...)
	if err != nil {
		return nil, err
	}
	for _, w := range cfg.Warnings {
		c.Logger.Warn(w)
	}
	return cfg, nil
}

func (c *CLI) newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, cache.Keyer, error) {
	if noCache {
		return cache.NewNullCache(), cache.NewDefaultKeyer(), nil
	}
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), cache.NewDefaultKeyer(), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr)
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeConfig, err, "connect to redis at %s", cfg.Cache.RedisAddr)
		}
		return rc, cache.NewScopedKeyer(cache.NewDefaultKeyer(), redisPrefix), nil
	default:
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), cache.NewDefaultKeyer(), nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			c.Logger.Warn("file cache unavailable, caching disabled", "dir", dir, "err", err)
			return cache.NewNullCache(), cache.NewDefaultKeyer(), nil
		}
		return fc, cache.NewDefaultKeyer(), nil
	}
}

func (c *CLI) newInventory(ctx context.Context, cfg *config.Config, opts integrations.Options, dryRun bool) (inventory.Store, func() error, error) {
	if dryRun {
		return inventory.NewMemoryStore(), nil, nil
	}
	switch cfg.Inventory.Backend {
	case config.InventoryInvenTree:
		s, err := inventree.New(cfg.Inventory.Host, cfg.Inventory.Token, opts)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	case config.InventoryMongo:
		db := cfg.Inventory.MongoDatabase
		if db == "" {
			db = appName
		}
		s, err := mongo.Connect(ctx, cfg.Inventory.MongoURI, db)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return s.Close(context.Background()) }, nil
	default:
		return inventory.NewMemoryStore(), nil, nil
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/partscout/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
