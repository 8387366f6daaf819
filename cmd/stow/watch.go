package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/stow/internal/cli"
	"github.com/Veraticus/stow/internal/common"
	"github.com/Veraticus/stow/internal/coordinator"
	"github.com/Veraticus/stow/internal/daemon"
	"github.com/Veraticus/stow/internal/engine"
	"github.com/Veraticus/stow/internal/watcher"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch download folders and file new arrivals",
		Long: `Watch the configured directories and sort files as they arrive.

Arrivals are collected until the folder has been quiet for the batch window,
then handled together. Confident matches are moved right away. Uncertain
ones are asked about when stow runs in a terminal and left alone otherwise.

Examples:
  stow watch
  stow watch --dir ~/Desktop --dir ~/Downloads
  stow watch --no-prompt`,
		RunE: runWatch,
	}

	cmd.Flags().StringSlice("dir", nil, "Directory to watch (repeatable, overrides watch.directories)")
	cmd.Flags().Bool("no-prompt", false, "Never ask, only move confident matches")

	_ = viper.BindPFlag("watch.directories", cmd.Flags().Lookup("dir"))

	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	noPrompt, _ := cmd.Flags().GetBool("no-prompt")
	out := cmd.OutOrStdout()

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if len(settings.WatchDirs) == 0 {
		return common.NewUserError("Nothing to watch, set watch.directories or pass --dir", common.ErrMissingConfig)
	}

	lock, err := daemon.AcquireLock(filepath.Join(filepath.Dir(settings.DatabasePath), "stow.lock"))
	if err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return common.NewUserError("Another stow watch is already running", err)
		}
		return err
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			slog.Warn("Failed to release lock", "error", unlockErr)
		}
	}()

	interrupts := cli.NewInterruptHandler(os.Stderr)
	ctx := interrupts.HandleInterrupts(cmd.Context(), true)

	var (
		pausing  *daemon.PausingPrompter
		prompter engine.Prompter
	)
	if !noPrompt && cli.IsInteractive(os.Stdin) {
		pausing = &daemon.PausingPrompter{Prompter: cli.NewCLIPrompter(os.Stdin, out)}
		prompter = pausing
	}

	a, err := newApp(ctx, prompter)
	if err != nil {
		return err
	}
	defer a.Close()

	w, err := watcher.New(settings.WatchDirs, slog.Default())
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	filter := daemon.Filter{PartialSuffixes: settings.PartialSuffixes, IgnoreHidden: settings.IgnoreHidden}
	loop := daemon.NewLoop(a.organizer, coordinator.NewBatch(settings.BatchWindow), w.Events(), filter,
		daemon.WithTick(settings.LoopTick),
		daemon.WithReporter(printReports(out)),
	)
	if pausing != nil {
		pausing.Loop = loop
	}

	// Files that arrived while stow was not running join the first batch.
	for _, dir := range settings.WatchDirs {
		files, listErr := filter.ListFiles(dir)
		if listErr != nil {
			slog.Warn("Failed to list watched directory", "dir", dir, "error", listErr)
			continue
		}
		for _, f := range files {
			loop.Observe(f)
		}
	}

	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%s Watching %d folder(s)", cli.BoxIcon, len(settings.WatchDirs))))
	for _, dir := range settings.WatchDirs {
		fmt.Fprintln(out, cli.SubtleStyle.Render("  "+dir))
	}
	if prompter == nil {
		fmt.Fprintln(out, cli.FormatInfo("Not prompting: only confident matches will be moved."))
	}

	if err := loop.Run(ctx); err != nil {
		return err
	}

	printStillLocked(out, a.retry)
	return nil
}

func printReports(out io.Writer) daemon.ReportFunc {
	return func(_ string, reports []engine.Report) {
		if summary := cli.SummarizeReports(reports); summary != "" {
			fmt.Fprintln(out, summary)
		}
	}
}
