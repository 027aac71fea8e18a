// Package cli implements the intelstream command-line interface.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/crosswire-labs/intelstream/internal/adapters/driven/cache/memory"
	rediscache "github.com/crosswire-labs/intelstream/internal/adapters/driven/cache/redis"
	sqlitecache "github.com/crosswire-labs/intelstream/internal/adapters/driven/cache/sqlite"
	"github.com/crosswire-labs/intelstream/internal/adapters/driven/config/file"
	"github.com/crosswire-labs/intelstream/internal/core/ports/driven"
	"github.com/crosswire-labs/intelstream/internal/core/ports/driving"
	"github.com/crosswire-labs/intelstream/internal/core/services"
	"github.com/crosswire-labs/intelstream/internal/logger"
	"github.com/crosswire-labs/intelstream/internal/providers/filings"
	"github.com/crosswire-labs/intelstream/internal/providers/legislative"
	"github.com/crosswire-labs/intelstream/internal/providers/news"
)

var version = "0.1.0"

var (
	verboseFlag bool
	configDir   string
)

// Services consumed by the commands. Set by ensureServices during a
// normal run; tests inject fakes directly.
var (
	aggregatorService driving.Aggregator
	registryService   driving.Registry
	configStore       *file.ConfigStore
	itemCache         driven.ItemCache
	closers           []io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "intelstream",
	Short: "Multi-source intelligence aggregation",
	Long: `Intelstream merges intelligence items from multiple providers into a
single deduplicated stream. Providers are drained concurrently, results
arrive in first-available order, and one failing source never aborts a
run.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.intelstream)")
}

// Execute runs the root command.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

// ensureServices wires the aggregation stack from configuration. Safe
// to call from several commands; wiring happens once.
func ensureServices() error {
	if aggregatorService != nil {
		return nil
	}

	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	configStore = store
	cfg := store.Config()

	cache, err := buildCache(cfg.Cache)
	if err != nil {
		return err
	}
	itemCache = cache
	if cache != nil {
		closers = append(closers, cache)
	}

	registry := services.NewRegistry()
	registerProviders(registry, cfg, cache)
	registryService = registry

	aggregator := services.NewAggregator(registry)
	aggregator.SetMinRelevance(cfg.Aggregator.MinRelevance)
	aggregatorService = aggregator

	logger.Debug("wired %d providers, cache backend %q", registry.Len(), cfg.Cache.Backend)
	return nil
}

// buildCache constructs the configured cache backend. "none" disables
// caching entirely.
func buildCache(cfg file.CacheConfig) (driven.ItemCache, error) {
	switch cfg.Backend {
	case "", "memory":
		return memory.NewStore(), nil
	case "sqlite":
		store, err := sqlitecache.NewStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite cache: %w", err)
		}
		return store, nil
	case "redis":
		store, err := rediscache.NewStore(rootCmd.Context(), rediscache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("opening redis cache: %w", err)
		}
		return store, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// registerProviders registers every enabled provider from the config.
func registerProviders(registry driving.Registry, cfg file.Config, cache driven.ItemCache) {
	ttl := cfg.Cache.TTL.Std()

	if p := cfg.Providers.News; p.Enabled {
		registry.Register(news.New(news.Config{
			Feeds:             p.Feeds,
			CacheTTL:          ttl,
			RequestsPerSecond: p.RequestsPerSecond,
		}, cache))
	}
	if p := cfg.Providers.Legislative; p.Enabled {
		registry.Register(legislative.New(legislative.Config{
			BaseURL:  p.BaseURL,
			APIKey:   p.APIKey,
			CacheTTL: ttl,
		}, cache))
	}
	if p := cfg.Providers.Filings; p.Enabled {
		registry.Register(filings.New(filings.Config{
			BaseURL:  p.BaseURL,
			APIKey:   p.APIKey,
			CacheTTL: ttl,
		}, cache))
	}
}

// closeServices releases providers and the cache backend.
func closeServices() {
	if registryService != nil {
		for _, p := range registryService.List() {
			if err := p.Close(); err != nil {
				logger.Warn("closing provider %s: %v", p.Name(), err)
			}
		}
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Warn("closing resource: %v", err)
		}
	}
	closers = nil
}
