// Package cli defines the patreg command tree: registry loads, statistics
// queries and the API server, sharing one config/logger initialization chain.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/turtacn/patreg-insight/internal/config"
	"github.com/turtacn/patreg-insight/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config *config.Config
	Logger logging.Logger
}

// NewRootCommand creates the root cobra command with global flags and all
// subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "patreg",
		Short: "Registry ingestion and statistics for patents, companies and ownership links",
		Long: "patreg loads official registry exports (patents, companies, ownership\n" +
			"links) into PostgreSQL, serves the query and statistics API, and computes\n" +
			"aggregate figures over the loaded data.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./patreg.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")

	cmd.AddCommand(
		newLoadCmd(),
		newStatsCmd(),
		newServeCmd(),
	)

	return cmd
}

// persistentPreRun loads config, builds the logger and stores a CLIContext on
// the command's context for subcommands to pick up.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := initConfig(opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	ctx := context.WithValue(cmd.Context(), cliContextKey{}, &CLIContext{
		Config: cfg,
		Logger: logger,
	})
	cmd.SetContext(ctx)

	return nil
}

// initConfig loads configuration with priority: --config flag > default file
// locations > environment variables.
func initConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}

	searchPaths := []string{"./patreg.yaml"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(homeDir, ".patreg", "config.yaml"))
	}
	searchPaths = append(searchPaths, "/etc/patreg/config.yaml")

	for _, p := range searchPaths {
		if _, statErr := os.Stat(p); statErr == nil {
			return config.Load(p)
		}
	}

	// No config file found; env vars and defaults only.
	return config.LoadFromEnv()
}

// initLogger creates a logger configured for CLI usage. Console format on
// stderr keeps stdout free for command output.
func initLogger(cfg *config.Config) (logging.Logger, error) {
	logCfg := cfg.Log
	logCfg.Format = "console"
	logCfg.OutputPaths = []string{"stderr"}
	return logging.NewLogger(logCfg)
}

// getCLIContext extracts the CLIContext stored by persistentPreRun.
func getCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, fmt.Errorf("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, fmt.Errorf("CLI context not initialized")
	}
	return cliCtx, nil
}

// printJSON writes data as indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand()
	rootCmd.SetContext(context.Background())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %s\n", err.Error())
		return err
	}
	return nil
}
