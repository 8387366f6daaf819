package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/stow/internal/cli"
	"github.com/Veraticus/stow/internal/common"
	"github.com/Veraticus/stow/internal/config"
	"github.com/Veraticus/stow/internal/coordinator"
	"github.com/Veraticus/stow/internal/daemon"
	"github.com/Veraticus/stow/internal/engine"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func sortCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sort [dir]",
		Short: "Sort files that are already sitting in a folder",
		Long: `Run one pass over the files already present in a directory.

Without an argument every configured watch directory is sorted.

Examples:
  stow sort                 # Sort everything in the watched folders
  stow sort ~/Desktop       # Sort one folder
  stow sort --review        # Review all uncertain files in one list
  stow sort --dry-run       # Show what would happen`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSort,
	}

	cmd.Flags().Bool("review", false, "Ask about uncertain files together instead of one at a time")
	cmd.Flags().Bool("dry-run", false, "Show decisions without moving anything")
	cmd.Flags().Bool("no-prompt", false, "Never ask, only move confident matches")

	return cmd
}

func runSort(cmd *cobra.Command, args []string) error {
	review, _ := cmd.Flags().GetBool("review")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noPrompt, _ := cmd.Flags().GetBool("no-prompt")
	out := cmd.OutOrStdout()

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	dirs := settings.WatchDirs
	if len(args) == 1 {
		dirs = []string{config.ExpandPath(args[0])}
	}

	filter := daemon.Filter{PartialSuffixes: settings.PartialSuffixes, IgnoreHidden: settings.IgnoreHidden}
	var files []string
	for _, dir := range dirs {
		found, listErr := filter.ListFiles(dir)
		if listErr != nil {
			return common.NewUserError(fmt.Sprintf("Cannot read %s", dir), listErr)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("Nothing to sort."))
		return nil
	}

	var prompter engine.Prompter
	if !dryRun && !noPrompt && cli.IsInteractive(os.Stdin) {
		prompter = cli.NewCLIPrompter(os.Stdin, out)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, prompter)
	if err != nil {
		return err
	}
	defer a.Close()

	if dryRun {
		return explainAll(cmd, a, files)
	}

	var reports []engine.Report
	if review {
		reports = a.organizer.HandleBatch(ctx, files)
	} else {
		reports = sortFiles(ctx, a.organizer, files, out, prompter == nil)
	}

	if pending := a.retry.Len(); pending > 0 {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Waiting for %d locked file(s)...", pending)))
		reports = mergeReports(reports, drainRetries(ctx, a.organizer, a.retry, settings.LoopTick))
	}

	if summary := cli.SummarizeReports(reports); summary != "" {
		fmt.Fprintln(out, summary)
	}
	fmt.Fprintln(out, cli.RenderBox("Sort Complete", tally(reports)))

	printStillLocked(out, a.retry)
	return nil
}

type fileHandler interface {
	HandleFile(ctx context.Context, path string) engine.Report
}

type retryHandler interface {
	ProcessRetries(ctx context.Context) []engine.Report
}

// sortFiles handles files one at a time. The progress bar is only drawn
// when nobody is being prompted, since prompts would land inside it.
func sortFiles(ctx context.Context, h fileHandler, files []string, out io.Writer, showProgress bool) []engine.Report {
	var bar *progressbar.ProgressBar
	if showProgress {
		bar = newProgressBar(out, len(files))
	}

	reports := make([]engine.Report, 0, len(files))
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		reports = append(reports, h.HandleFile(ctx, f))
		if bar != nil {
			if err := bar.Add(1); err != nil {
				slog.Warn("Failed to update progress bar", "error", err)
			}
		}
	}
	return reports
}

// drainRetries keeps retrying locked files until each one has moved or been
// given up on, or ctx is cancelled.
func drainRetries(ctx context.Context, h retryHandler, queue *coordinator.Retry, tick time.Duration) []engine.Report {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	var reports []engine.Report
	for queue.Len() > 0 {
		reports = append(reports, h.ProcessRetries(ctx)...)
		if queue.Len() == 0 {
			break
		}
		select {
		case <-ctx.Done():
			return reports
		case <-ticker.C:
		}
	}
	return reports
}

func printStillLocked(out io.Writer, queue *coordinator.Retry) {
	entries := queue.List()
	if len(entries) == 0 {
		return
	}
	fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d locked file(s) were left in place:", len(entries))))
	for _, e := range entries {
		fmt.Fprintf(out, "  %s → %s\n", e.Path, e.Folder)
	}
}

// mergeReports replaces earlier reports with later ones for the same path.
// Intermediate "still locked" retry reports are dropped.
func mergeReports(reports, later []engine.Report) []engine.Report {
	index := make(map[string]int, len(reports))
	for i, r := range reports {
		index[r.Path] = i
	}
	for _, r := range later {
		if r.Status == engine.StatusQueued {
			continue
		}
		if i, ok := index[r.Path]; ok {
			reports[i] = r
			continue
		}
		index[r.Path] = len(reports)
		reports = append(reports, r)
	}
	return reports
}

func explainAll(cmd *cobra.Command, a *app, files []string) error {
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		res, action, err := a.organizer.Explain(cmd.Context(), f)
		if err != nil {
			return err
		}
		folder := "-"
		if res.Folder != "" {
			folder = res.FolderName()
		}
		rows = append(rows, []string{filepath.Base(f), folder, fmt.Sprintf("%.0f%%", res.Confidence*100), string(res.Method), action.String()})
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable(
		[]string{"File", "Folder", "Confidence", "Method", "Decision"}, rows,
		[]cli.Alignment{cli.AlignLeft, cli.AlignLeft, cli.AlignRight}))
	return nil
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Sorting files...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

func tally(reports []engine.Report) string {
	counts := make(map[engine.Status]int)
	for _, r := range reports {
		counts[r.Status]++
	}
	return fmt.Sprintf("  • Files examined: %d\n", len(reports)) +
		fmt.Sprintf("  • Moved: %d\n", counts[engine.StatusMoved]) +
		fmt.Sprintf("  • Left in place: %d\n", counts[engine.StatusSkipped]+counts[engine.StatusIgnored]+counts[engine.StatusDuplicate]) +
		fmt.Sprintf("  • Locked: %d\n", counts[engine.StatusQueued]) +
		fmt.Sprintf("  • Failed: %d", counts[engine.StatusFailed])
}
