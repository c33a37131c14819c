package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/localforge/artisan/cmd/artisan/ui"
	"github.com/localforge/artisan/internal/artifacttype"
)

var finetuneCmd = &cobra.Command{
	Use:   "finetune",
	Short: "Inspect and control the fine-tuning pool and worker",
}

var statsType string

var finetuneStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show pool stats for an artifact type",
	RunE: func(cmd *cobra.Command, args []string) error {
		if statsType == "" {
			return fmt.Errorf("finetune stats: --type is required")
		}
		s := theApp.GetPoolStats(artifacttype.Name(statsType))
		fmt.Fprintf(cmd.OutOrStdout(), "total: %d  real: %d  synthetic: %d (%.0f%%)\nready_for_training: %v  ready_for_graduation: %v  needs_bootstrap: %v\n",
			s.Total, s.Real, s.Synthetic, s.SyntheticPct, s.ReadyForTraining, s.ReadyForGraduation, s.NeedsBootstrap)
		return nil
	},
}

var (
	triggerType      string
	triggerBaseModel string
	triggerForce     bool
)

var finetuneTriggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Schedule a training job for an artifact type",
	RunE: func(cmd *cobra.Command, args []string) error {
		if triggerType == "" {
			return fmt.Errorf("finetune trigger: --type is required")
		}
		job, err := theApp.TriggerTraining(artifacttype.Name(triggerType), triggerBaseModel, triggerForce)
		if err != nil {
			return err
		}
		if job == nil {
			fmt.Fprintln(cmd.OutOrStdout(), ui.MutedStyle.Render("no job scheduled (already locked or suppressed)"))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.SuccessStyle.Render("scheduled job "+job.ID))
		return nil
	},
}

var cancelJobID string

var finetuneCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Request cancellation of a queued or running training job",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cancelJobID == "" {
			return fmt.Errorf("finetune cancel: --job is required")
		}
		if err := theApp.CancelTraining(cancelJobID); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.SuccessStyle.Render("cancellation requested"))
		return nil
	},
}

var jobsFilterType string

var finetuneJobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List training jobs, optionally filtered by artifact type",
	RunE: func(cmd *cobra.Command, args []string) error {
		jobs, err := theApp.ListJobs(artifacttype.Name(jobsFilterType))
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), ui.MutedStyle.Render("no jobs"))
			return nil
		}
		for _, j := range jobs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s  status=%s  progress=%d%%  examples=%d\n",
				j.ID, j.ArtifactType, j.BaseModel, j.Status, j.Progress, j.ExamplesCount)
		}
		return nil
	},
}

func init() {
	finetuneStatsCmd.Flags().StringVar(&statsType, "type", "", "Artifact type (required)")

	finetuneTriggerCmd.Flags().StringVar(&triggerType, "type", "", "Artifact type (required)")
	finetuneTriggerCmd.Flags().StringVar(&triggerBaseModel, "base-model", "", "Base model to fine-tune from")
	finetuneTriggerCmd.Flags().BoolVar(&triggerForce, "force", false, "Force scheduling past an active lock or suppress window")

	finetuneCancelCmd.Flags().StringVar(&cancelJobID, "job", "", "Job id (required)")

	finetuneJobsCmd.Flags().StringVar(&jobsFilterType, "type", "", "Filter by artifact type (default: all)")

	finetuneCmd.AddCommand(finetuneStatsCmd, finetuneTriggerCmd, finetuneCancelCmd, finetuneJobsCmd)
}
