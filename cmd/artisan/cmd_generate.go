package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/localforge/artisan/cmd/artisan/ui"
	"github.com/localforge/artisan/internal/artifacttype"
	"github.com/localforge/artisan/internal/orchestrator"
)

var (
	genNotesFile  string
	genContextID  string
	genTemperature float64
	genMaxRetries  int
)

var generateCmd = &cobra.Command{
	Use:   "generate <artifact-type>",
	Short: "Generate a single artifact from meeting notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t := artifacttype.Name(args[0])

		notes, err := readNotes(genNotesFile)
		if err != nil {
			return err
		}

		opts := orchestrator.DefaultOptions(theApp.Config.Generation)
		if cmd.Flags().Changed("temperature") {
			opts.Temperature = genTemperature
		}
		if cmd.Flags().Changed("max-retries") {
			opts.MaxRetriesPerModel = genMaxRetries
		}

		progress := func(pct int, message string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.ProgressBar(pct, 30), ui.MutedStyle.Render(message))
		}

		result := theApp.GenerateArtifact(context.Background(), t, notes, genContextID, opts, progress)
		logger().Debug("generate_artifact finished", zap.Bool("success", result.Success), zap.String("type", string(t)))

		if !result.Success {
			fmt.Fprintln(cmd.OutOrStdout(), ui.ErrorStyle.Render("generation failed: "+result.ErrorType))
			return fmt.Errorf("generation failed: %s", result.ErrorType)
		}

		status := ui.SuccessStyle.Render("valid")
		if !result.IsValid {
			status = ui.WarningStyle.Render("best-effort (" + result.Warning + ")")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\nmodel: %s  score: %d  artifact_id: %s\n\n%s\n",
			status, result.ModelUsed, result.Score, result.ArtifactID, result.Content)
		return nil
	},
}

func readNotes(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading meeting notes from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading meeting notes from %s: %w", path, err)
	}
	return string(data), nil
}

func init() {
	generateCmd.Flags().StringVarP(&genNotesFile, "notes", "n", "", "Path to meeting notes file (default: stdin)")
	generateCmd.Flags().StringVar(&genContextID, "context-id", "", "Reuse a previously built context by id")
	generateCmd.Flags().Float64Var(&genTemperature, "temperature", 0, "Override generation temperature")
	generateCmd.Flags().IntVar(&genMaxRetries, "max-retries", 0, "Override max retries per model")
}
