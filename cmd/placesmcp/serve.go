package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/NERVsystems/placesmcp/pkg/config"
	"github.com/NERVsystems/placesmcp/pkg/directory"
	"github.com/NERVsystems/placesmcp/pkg/places"
	"github.com/NERVsystems/placesmcp/pkg/server"
	"github.com/NERVsystems/placesmcp/pkg/tools"
	"github.com/NERVsystems/placesmcp/pkg/version"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve JSON-RPC over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := newLogger(cfg.Logging, os.Stderr)
			slog.SetDefault(logger)

			srv, err := buildServer(ctx, cfg, logger)
			if err != nil {
				return err
			}
			return srv.RunHTTP(ctx, cfg.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func newStdioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Serve newline-delimited JSON-RPC on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := newLogger(cfg.Logging, os.Stderr)
			slog.SetDefault(logger)

			srv, err := buildServer(ctx, cfg, logger)
			if err != nil {
				return err
			}
			return srv.RunStdio(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// buildServer wires the directory, provider client and tools from cfg.
func buildServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*server.Server, error) {
	store, err := buildStore(ctx, cfg.Directory)
	if err != nil {
		return nil, err
	}

	client := places.NewClient(places.Options{
		APIKey:            cfg.Provider.APIKey,
		BaseURL:           cfg.Provider.BaseURL,
		RequestsPerSecond: cfg.Provider.RequestsPerSecond,
		Burst:             cfg.Provider.Burst,
		GeocodeCacheSize:  cfg.Provider.GeocodeCache.Size,
		GeocodeCacheTTL:   cfg.Provider.GeocodeCache.TTL,
		HTTPClient:        newHTTPClient(cfg.Provider.Timeout),
		Logger:            logger.With("component", "places"),
	})
	if !client.Configured() {
		logger.Warn("no provider API key configured; searches that need the provider will fail",
			"env", config.EnvAPIKey)
	}

	var widget *server.Widget
	widgetURI := ""
	if cfg.Server.Widget {
		widget = server.DefaultWidget()
		widget.URI = cfg.Server.WidgetURI
		widgetURI = widget.URI
	}

	registry := tools.NewRegistry(store, client, tools.Options{
		DetailTimeout:  cfg.Provider.DetailTimeout,
		MaxConcurrency: cfg.Search.MaxConcurrency,
		ProviderSource: cfg.Search.ProviderSource,
		WidgetURI:      widgetURI,
	}, logger)

	logger.Info("starting places MCP server",
		"version", version.BuildVersion,
		"directory", cfg.Directory.Backend,
		"log_level", cfg.Logging.Level)

	return server.NewServer(registry, server.Options{
		HTTPPath: cfg.Server.Path,
		Widget:   widget,
	}, logger), nil
}

// buildStore opens the configured directory backend.
func buildStore(ctx context.Context, cfg config.DirectoryConfig) (directory.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return directory.NewMemoryStore(cfg.Places), nil
	case config.BackendFile:
		return directory.NewFileStore(cfg.File), nil
	case config.BackendDynamoDB:
		store, err := directory.NewDynamoStoreFromEnv(ctx, cfg.DynamoDB.Table, cfg.DynamoDB.Region, cfg.DynamoDB.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to open dynamodb directory: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown directory backend %q", cfg.Backend)
	}
}

// newHTTPClient returns the provider HTTP client with the configured overall
// timeout, or nil to keep the client default.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		return nil
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: timeout,
	}
}
