package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/localforge/artisan/cmd/artisan/ui"
	"github.com/localforge/artisan/internal/depgraph"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect the content-addressed artifact dependency graph",
}

var stalenessID string

var graphStalenessCmd = &cobra.Command{
	Use:   "staleness",
	Short: "Check whether an artifact is stale relative to its upstreams",
	RunE: func(cmd *cobra.Command, args []string) error {
		if stalenessID == "" {
			return fmt.Errorf("graph staleness: --id is required")
		}
		report, err := theApp.CheckStaleness(stalenessID)
		if err != nil {
			return err
		}
		if !report.IsStale {
			fmt.Fprintln(cmd.OutOrStdout(), ui.SuccessStyle.Render("up to date"))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.WarningStyle.Render("stale — newer upstreams: "+strings.Join(report.StaleUpstreams, ", ")))
		if report.StaleSince != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "stale since: %s\n", report.StaleSince.Format("2006-01-02T15:04:05Z07:00"))
		}
		if report.Recommendation != "" {
			fmt.Fprintln(cmd.OutOrStdout(), ui.MutedStyle.Render(report.Recommendation))
		}
		return nil
	},
}

var impactID string

var graphImpactCmd = &cobra.Command{
	Use:   "impact",
	Short: "List every artifact downstream of an artifact, with depth",
	RunE: func(cmd *cobra.Command, args []string) error {
		if impactID == "" {
			return fmt.Errorf("graph impact: --id is required")
		}
		entries, err := theApp.GetImpactAnalysis(impactID)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(cmd.OutOrStdout(), "depth %d: %s (%s)\n", e.Depth, e.ArtifactID, e.Type)
		}
		return nil
	},
}

var treeRoot string

var graphTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the dependency tree (or full forest if --root is omitted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		forest, err := theApp.GetDependencyTree(treeRoot)
		if err != nil {
			return err
		}
		for _, root := range forest {
			printTree(cmd, root, 0)
		}
		return nil
	},
}

func printTree(cmd *cobra.Command, node *depgraph.TreeNode, depth int) {
	indent := strings.Repeat("  ", depth)
	marker := ""
	if node.IsStale {
		marker = ui.WarningStyle.Render(" [stale]")
	}
	if node.Circular {
		marker = ui.ErrorStyle.Render(" [circular]")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s%s (%s v%d)%s\n", indent, node.ArtifactID, node.Type, node.Version, marker)
	for _, child := range node.Children {
		printTree(cmd, child, depth+1)
	}
}

func init() {
	graphStalenessCmd.Flags().StringVar(&stalenessID, "id", "", "Artifact id (required)")
	graphImpactCmd.Flags().StringVar(&impactID, "id", "", "Artifact id (required)")
	graphTreeCmd.Flags().StringVar(&treeRoot, "root", "", "Root artifact id (default: full forest)")

	graphCmd.AddCommand(graphStalenessCmd, graphImpactCmd, graphTreeCmd)
}
