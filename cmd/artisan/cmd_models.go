package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/localforge/artisan/cmd/artisan/ui"
	"github.com/localforge/artisan/internal/artifacttype"
	"github.com/localforge/artisan/internal/modelregistry"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List known models and their status",
	RunE: func(cmd *cobra.Command, args []string) error {
		models := theApp.ListModels()
		if len(models) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), ui.MutedStyle.Render("no models known yet"))
			return nil
		}
		for _, m := range models {
			status := string(m.Status)
			if m.Status == modelregistry.StatusAvailable {
				status = ui.SuccessStyle.Render(status)
			}
			ft := ""
			if m.IsFineTuned {
				ft = ui.InfoStyle.Render(" [fine-tuned]")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) %s%s\n", m.ID, m.Provider, status, ft)
		}
		return nil
	},
}

var (
	routingType     string
	routingPrimary  string
	routingFallback []string
)

var routingCmd = &cobra.Command{
	Use:   "routing",
	Short: "View or update per-artifact-type model routing",
	RunE: func(cmd *cobra.Command, args []string) error {
		if routingType == "" {
			return fmt.Errorf("routing: --type is required")
		}
		t := artifacttype.Name(routingType)

		if routingPrimary == "" {
			r, ok := theApp.GetRouting(t)
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), ui.MutedStyle.Render("no routing configured for "+routingType))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "primary: %s\nfallbacks: %s\nenabled: %v\n",
				r.PrimaryModel, strings.Join(r.Fallbacks, ", "), r.Enabled)
			return nil
		}

		err := theApp.UpdateRouting([]modelregistry.Routing{
			{ArtifactType: t, PrimaryModel: routingPrimary, Fallbacks: routingFallback, Enabled: true},
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.SuccessStyle.Render("routing updated"))
		return nil
	},
}

func init() {
	routingCmd.Flags().StringVar(&routingType, "type", "", "Artifact type (required)")
	routingCmd.Flags().StringVar(&routingPrimary, "primary", "", "Set the primary model id (omit to only view)")
	routingCmd.Flags().StringSliceVar(&routingFallback, "fallback", nil, "Fallback model ids, in order")
}
