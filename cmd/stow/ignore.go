package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/Veraticus/stow/internal/cli"
	"github.com/Veraticus/stow/internal/common"
	"github.com/Veraticus/stow/internal/storage"
	"github.com/spf13/cobra"
)

func ignoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ignore",
		Short: "Manage files and patterns stow never touches",
	}

	cmd.AddCommand(ignoreAddCmd())
	cmd.AddCommand(ignorePatternCmd())
	cmd.AddCommand(ignoreListCmd())
	cmd.AddCommand(ignoreRemovePatternCmd())

	return cmd
}

// withStore opens the database for the duration of fn.
func withStore(cmd *cobra.Command, fn func(*storage.SQLiteStorage) error) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := openStore(cmd.Context(), settings)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(store)
}

func ignoreAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <filename>",
		Short: "Never process a file with this name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reason, _ := cmd.Flags().GetString("reason")
			name := filepath.Base(args[0])
			return withStore(cmd, func(store *storage.SQLiteStorage) error {
				if err := store.MarkIgnored(cmd.Context(), name, reason); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Ignoring "+name))
				return nil
			})
		},
	}
	cmd.Flags().String("reason", "", "Why the file is ignored")
	return cmd
}

func ignorePatternCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pattern <glob>",
		Short: "Never process files whose name matches a glob",
		Example: `  stow ignore pattern '*.torrent'
  stow ignore pattern 'Screenshot *'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reason, _ := cmd.Flags().GetString("reason")
			return withStore(cmd, func(store *storage.SQLiteStorage) error {
				if err := store.AddIgnorePattern(cmd.Context(), args[0], reason); err != nil {
					return common.NewUserError(fmt.Sprintf("Cannot use pattern %q", args[0]), err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Ignoring files matching "+args[0]))
				return nil
			})
		},
	}
	cmd.Flags().String("reason", "", "Why matching files are ignored")
	return cmd
}

func ignoreListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List ignored files and patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(store *storage.SQLiteStorage) error {
				names, err := store.ListIgnored(cmd.Context())
				if err != nil {
					return err
				}
				patterns, err := store.ListIgnorePatterns(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(names) == 0 && len(patterns) == 0 {
					fmt.Fprintln(out, cli.FormatInfo("Nothing is ignored."))
					return nil
				}

				rows := make([][]string, 0, len(names)+len(patterns))
				for _, n := range names {
					rows = append(rows, []string{"file", n, ""})
				}
				for _, p := range patterns {
					rows = append(rows, []string{"pattern", p.Pattern, p.Reason})
				}
				fmt.Fprintln(out, cli.RenderTable([]string{"Kind", "Name", "Reason"}, rows, nil))
				return nil
			})
		},
	}
}

func ignoreRemovePatternCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-pattern <glob>",
		Short: "Stop ignoring files that match a glob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *storage.SQLiteStorage) error {
				err := store.RemoveIgnorePattern(cmd.Context(), args[0])
				if errors.Is(err, common.ErrNotFound) {
					return common.NewUserError(fmt.Sprintf("No pattern %q", args[0]), err)
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Removed pattern "+args[0]))
				return nil
			})
		},
	}
}
