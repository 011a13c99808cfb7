// Command placesmcp serves curated local-business search tools over MCP.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/NERVsystems/placesmcp/pkg/config"
	"github.com/NERVsystems/placesmcp/pkg/version"
)

var rootArgs struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "placesmcp",
		Short:         "Curated local-business search for chat assistants",
		Long:          "placesmcp exposes search_places, get_place_details and get_directions over JSON-RPC (MCP), backed by a curated directory and the Google Maps web services.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&rootArgs.configPath, "config", "c", "", "Path to a YAML config file")
	root.PersistentFlags().BoolVar(&rootArgs.debug, "debug", false, "Enable debug logging")

	root.AddCommand(
		newServeCmd(),
		newStdioCmd(),
		newVersionCmd(),
		newShowConfigCmd(),
		newGenerateConfigCmd(),
		newDirectoryCmd(),
		newPolylineCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads and validates the configuration named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootArgs.configPath)
	if err != nil {
		return nil, err
	}
	if rootArgs.debug {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. Logs always go to stderr because
// stdout carries the stdio transport.
func newLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func newShowConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show-config",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
