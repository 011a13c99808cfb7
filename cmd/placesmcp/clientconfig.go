package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// clientServerName is the key written under mcpServers.
const clientServerName = "places"

func newGenerateConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate-config <path>",
		Short: "Create or update a Claude Desktop client config that launches this server over stdio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := generateClientConfig(args[0], rootArgs.configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote client config to %s\n", args[0])
			return nil
		},
	}
}

func validateConfigPath(path string) error {
	if path == "" {
		return errors.New("config path is required")
	}
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return fmt.Errorf("config path %q must have a .json extension", path)
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return fmt.Errorf("config path %q must not contain '..'", path)
		}
	}
	return nil
}

// generateClientConfig creates or updates a Claude Desktop client config file.
// Existing keys are preserved; only mcpServers.places is replaced.
func generateClientConfig(outputPath, serverConfigPath string) error {
	if err := validateConfigPath(outputPath); err != nil {
		return err
	}

	execPath, err := os.Executable()
	if err != nil {
		execPath = os.Args[0]
	}
	absExecPath, err := filepath.Abs(execPath)
	if err != nil {
		absExecPath = execPath
	}

	args := []string{"stdio"}
	if serverConfigPath != "" {
		if abs, err := filepath.Abs(serverConfigPath); err == nil {
			serverConfigPath = abs
		}
		args = append(args, "--config", serverConfigPath)
	}

	config := make(map[string]any)
	if data, err := os.ReadFile(outputPath); err == nil {
		if err := json.Unmarshal(data, &config); err != nil || config == nil {
			slog.Default().Warn("existing config is not valid JSON, will create new", "path", outputPath, "error", err)
			config = make(map[string]any)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read existing config: %w", err)
	}

	mcpServers, ok := config["mcpServers"].(map[string]any)
	if !ok {
		mcpServers = make(map[string]any)
		config["mcpServers"] = mcpServers
	}
	mcpServers[clientServerName] = map[string]any{
		"command": absExecPath,
		"args":    args,
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
