package main

import (
	"fmt"

	"github.com/Veraticus/stow/internal/cli"
	"github.com/Veraticus/stow/internal/model"
	"github.com/Veraticus/stow/internal/service"
	"github.com/spf13/cobra"
)

// minInsightSamples is how much feedback a folder needs before it is ranked.
const minInsightSamples = 3

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show what stow has learned",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}

	cmd.Flags().IntP("recent", "n", 10, "Recent feedback entries to show")

	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	recent, _ := cmd.Flags().GetInt("recent")

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := openStore(cmd.Context(), settings)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	return printStats(cmd, store, recent)
}

func printStats(cmd *cobra.Command, store service.Storage, recent int) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	decisions, err := store.CountDecisions(ctx)
	if err != nil {
		return err
	}
	ignored, err := store.ListIgnored(ctx)
	if err != nil {
		return err
	}
	patterns, err := store.ListIgnorePatterns(ctx)
	if err != nil {
		return err
	}
	insights, err := store.FolderInsights(ctx, minInsightSamples)
	if err != nil {
		return err
	}

	var accepts, rejects, total int
	for _, in := range insights {
		total += in.Total
		accepts += int(in.AcceptRate*float64(in.Total) + 0.5)
		rejects += int(in.RejectRate*float64(in.Total) + 0.5)
	}
	skips := total - accepts - rejects

	summary := fmt.Sprintf("  • Remembered files: %d\n", decisions) +
		fmt.Sprintf("  • Ignored files: %d\n", len(ignored)) +
		fmt.Sprintf("  • Ignore patterns: %d\n", len(patterns)) +
		fmt.Sprintf("  • Feedback on ranked folders: %d accepted, %d rejected, %d skipped", accepts, rejects, skips)
	fmt.Fprintln(out, cli.RenderBox(cli.ChartIcon+" Learning", summary))

	if len(insights) > 0 {
		fmt.Fprintln(out, cli.FormatTitle("Folders"))
		fmt.Fprintln(out, cli.InsightsTable(insights))
		if problems := problemFolders(insights); len(problems) > 0 {
			fmt.Fprintln(out, cli.FormatWarning("Suggestions for these folders are usually wrong:"))
			for _, p := range problems {
				fmt.Fprintln(out, "  "+p.Folder)
			}
		}
	}

	if recent > 0 {
		records, err := store.ListLearning(ctx, recent)
		if err != nil {
			return err
		}
		if len(records) > 0 {
			fmt.Fprintln(out, cli.FormatTitle("Recent feedback"))
			fmt.Fprintln(out, cli.LearningTable(records))
		}
	}
	return nil
}

// problemFolders returns folders whose suggestions are rejected more often than accepted.
func problemFolders(insights []model.FolderInsight) []model.FolderInsight {
	var out []model.FolderInsight
	for _, in := range insights {
		if in.RejectRate > in.AcceptRate {
			out = append(out, in)
		}
	}
	return out
}
