package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/localforge/artisan/cmd/artisan/ui"
	"github.com/localforge/artisan/internal/artifacttype"
	"github.com/localforge/artisan/internal/sprintpkg"
)

var (
	pkgNotesFile string
	pkgPreset    string
	pkgTypes     []string
)

var packageCmd = &cobra.Command{
	Use:   "package",
	Short: "Generate a sprint package: an ordered set of artifacts from one set of notes",
	RunE: func(cmd *cobra.Command, args []string) error {
		notes, err := readNotes(pkgNotesFile)
		if err != nil {
			return err
		}

		var customTypes []artifacttype.Name
		for _, t := range pkgTypes {
			customTypes = append(customTypes, artifacttype.Name(t))
		}

		progress := func(evt sprintpkg.ProgressEvent) {
			if evt.Type != "progress" {
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.MutedStyle.Render(fmt.Sprintf("%v", evt.Data)))
		}

		result, err := theApp.GeneratePackage(context.Background(), notes, pkgPreset, customTypes, progress)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\npackage %s — success rate %.0f%% (%.1fs)\n", result.PackageID, result.SuccessRate*100, result.TotalTimeSeconds)
		for _, a := range result.Artifacts {
			status := ui.SuccessStyle.Render("ok")
			if !a.Success {
				status = ui.ErrorStyle.Render("failed: " + a.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %-20s %s\n", a.Type, status)
		}
		return nil
	},
}

func init() {
	packageCmd.Flags().StringVarP(&pkgNotesFile, "notes", "n", "", "Path to meeting notes file (default: stdin)")
	packageCmd.Flags().StringVar(&pkgPreset, "preset", "", fmt.Sprintf("Preset name (%v)", sprintpkg.PresetNames()))
	packageCmd.Flags().StringSliceVar(&pkgTypes, "types", nil, "Explicit ordered artifact type list (overridden by --preset)")
}
