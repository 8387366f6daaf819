package main

import (
	"fmt"

	"github.com/Veraticus/stow/internal/cli"
	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent moves that can be undone",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}

	cmd.Flags().IntP("limit", "n", 10, "Maximum entries to show")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := openStore(cmd.Context(), settings)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.ListUndoHistory(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No moves recorded yet."))
		return nil
	}
	fmt.Fprintln(out, cli.HistoryTable(entries))
	return nil
}
