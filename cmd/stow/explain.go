package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/stow/internal/cli"
	"github.com/Veraticus/stow/internal/common"
	"github.com/spf13/cobra"
)

func explainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <file>",
		Short: "Show where a file would go and why",
		Long: `Match a file against your folders without moving it, and print every
score that went into the decision.`,
		Args: cobra.ExactArgs(1),
		RunE: runExplain,
	}
}

func runExplain(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return common.NewUserError(fmt.Sprintf("Cannot read %s", args[0]), statErr)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	res, action, err := a.organizer.Explain(ctx, path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var body string
	if res.Folder == "" {
		body = fmt.Sprintf("%s %s\n%s", cli.BoldStyle.Render("File:"), filepath.Base(path),
			cli.SubtleStyle.Render("No folder looks like a match."))
	} else {
		body = fmt.Sprintf("%s %s\n", cli.BoldStyle.Render("File:"), filepath.Base(path)) +
			fmt.Sprintf("%s %s %s\n", cli.BoldStyle.Render("Folder:"), cli.FolderIcon, res.Folder) +
			fmt.Sprintf("%s %s via %s\n", cli.BoldStyle.Render("Confidence:"), cli.FormatConfidence(res.Confidence), res.Method) +
			fmt.Sprintf("%s %s", cli.BoldStyle.Render("Decision:"), action)
		if res.Reasoning != "" {
			body += fmt.Sprintf("\n%s %s", cli.BoldStyle.Render("Why:"), res.Reasoning)
		}
	}
	fmt.Fprintln(out, cli.RenderBox("Explain", body))
	fmt.Fprintln(out, cli.ScoresTable(res))
	fmt.Fprintln(out, cli.SubtleStyle.Render(fmt.Sprintf("Thresholds: auto-move ≥ %.2f, ask ≥ %.2f",
		a.settings.AutoThreshold, a.settings.SuggestThreshold)))
	return nil
}
