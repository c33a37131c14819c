// Package main implements the artisan CLI, the example front-end that
// drives internal/app.App: generate artifacts, manage model routing,
// inspect and trigger fine-tuning, walk the dependency graph, and
// assemble sprint packages.
//
// # File Index
//
//   - main.go           - entry point, rootCmd, global flags, app bootstrap
//   - cmd_generate.go   - generateCmd
//   - cmd_models.go     - modelsCmd, routingCmd
//   - cmd_finetune.go   - finetuneCmd (pool stats, trigger, cancel, jobs)
//   - cmd_graph.go      - graphCmd (staleness, impact, tree)
//   - cmd_package.go    - packageCmd
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/localforge/artisan/internal/app"
	"github.com/localforge/artisan/internal/config"
	"github.com/localforge/artisan/internal/secrets"
)

var (
	configPath string
	dataDir    string
	verbose    bool

	theApp *app.App
)

var rootCmd = &cobra.Command{
	Use:   "artisan",
	Short: "Local-first artifact generation engine",
	Long: `artisan turns meeting notes into validated diagrams, docs, and code
prototypes using a tiered local/cloud model pipeline, with automatic
fine-tuning on high-scoring output and a content-addressed dependency
graph linking artifacts together.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.DebugMode = true
		}

		dir := dataDir
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("resolving data directory: %w", err)
			}
			dir = filepath.Join(home, ".artisan")
		}

		theApp, err = app.New(cfg, dir, secrets.NewEnvSource())
		if err != nil {
			return fmt.Errorf("initializing artisan: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if theApp != nil {
			_ = theApp.Close()
		}
	},
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(configPath)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config YAML (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory for persisted state (default: ~/.artisan)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(generateCmd, modelsCmd, routingCmd, finetuneCmd, graphCmd, packageCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func logger() *zap.Logger {
	if theApp == nil {
		return zap.NewNop()
	}
	return theApp.Logger
}
