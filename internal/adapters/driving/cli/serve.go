package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crosswire-labs/intelstream/internal/adapters/driven/config/file"
	"github.com/crosswire-labs/intelstream/internal/adapters/driving/httpapi"
	"github.com/crosswire-labs/intelstream/internal/core/services"
	"github.com/crosswire-labs/intelstream/internal/logger"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP streaming gateway",
	Long: `Serves the aggregation engine over HTTP. GET /v1/stream pushes one
server-sent event per item as it arrives. The config file is watched
and reloaded while the server runs.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if aggregatorService == nil || registryService == nil {
		return errors.New("aggregation service not configured")
	}

	listen := serveListen
	if listen == "" && configStore != nil {
		listen = configStore.Config().Server.Listen
	}
	if listen == "" {
		listen = ":8080"
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startConfigWatcher(ctx)

	cmd.Printf("listening on %s\n", listen)
	return httpapi.NewServer(aggregatorService, registryService).Run(ctx, listen)
}

// startConfigWatcher keeps the running aggregator in sync with edits
// to config.toml. Relevance floor changes apply to subsequent requests;
// provider set changes still need a restart.
func startConfigWatcher(ctx context.Context) {
	if configStore == nil {
		return
	}
	aggregator, ok := aggregatorService.(*services.Aggregator)
	if !ok {
		return
	}

	watcher, err := file.NewWatcher(configStore, func(cfg file.Config) {
		aggregator.SetMinRelevance(cfg.Aggregator.MinRelevance)
	})
	if err != nil {
		logger.Warn("config watcher unavailable: %v", err)
		return
	}
	go watcher.Run(ctx)
}
