// Command finetune-worker runs the fine-tuning worker (C7) as its own OS
// process, separate from the artisan CLI/library process, per spec.md §5's
// concurrency model: a single worker polls the jobs directory and runs
// training jobs strictly sequentially since GPU/VRAM is a shared resource.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/localforge/artisan/internal/app"
	"github.com/localforge/artisan/internal/config"
	"github.com/localforge/artisan/internal/secrets"
)

func main() {
	var configPath, dataDir string
	flag.StringVar(&configPath, "config", "", "Path to config YAML (default: built-in defaults)")
	flag.StringVar(&dataDir, "data-dir", "", "Directory for persisted state (default: ~/.artisan)")
	flag.Parse()

	if err := run(configPath, dataDir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, dataDir string) error {
	var cfg *config.Config
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
	}

	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolving data directory: %w", err)
		}
		dataDir = filepath.Join(home, ".artisan")
	}

	a, err := app.New(cfg, dataDir, secrets.NewEnvSource())
	if err != nil {
		return fmt.Errorf("initializing artisan: %w", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Logger.Info("fine-tuning worker starting", zap.String("data_dir", dataDir))
	err = a.RunFineTuningWorker(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("fine-tuning worker: %w", err)
	}
	a.Logger.Info("fine-tuning worker stopped")
	return nil
}
