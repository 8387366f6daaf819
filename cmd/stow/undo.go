package main

import (
	"errors"
	"fmt"

	"github.com/Veraticus/stow/internal/cli"
	"github.com/Veraticus/stow/internal/common"
	"github.com/Veraticus/stow/internal/model"
	"github.com/spf13/cobra"
)

func undoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Put a moved file back where it came from",
		Long: `Reverse a move recorded in the history. The file returns to its original
location and stow forgets that it belongs in the folder it was moved to.

Examples:
  stow undo           # Undo the most recent move
  stow undo --id 12   # Undo a specific move (see stow history)`,
		Args: cobra.NoArgs,
		RunE: runUndo,
	}

	cmd.Flags().Bool("last", false, "Undo the most recent move (default)")
	cmd.Flags().Int64("id", 0, "History entry to undo")
	cmd.MarkFlagsMutuallyExclusive("last", "id")

	return cmd
}

func runUndo(cmd *cobra.Command, _ []string) error {
	id, _ := cmd.Flags().GetInt64("id")

	ctx := cmd.Context()
	a, err := newApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	var entry *model.UndoEntry
	if id > 0 {
		entry, err = a.organizer.Undo(ctx, id)
	} else {
		entry, err = a.organizer.UndoLast(ctx)
	}

	switch {
	case errors.Is(err, common.ErrNothingToUndo):
		return common.NewUserError("Nothing to undo", err)
	case errors.Is(err, common.ErrMissingSource):
		return common.NewUserError("The moved file is no longer where stow put it", err)
	case errors.Is(err, common.ErrMissingDestination):
		return common.NewUserError("The original location is occupied or gone", err)
	case err != nil:
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Restored %s to %s", entry.Filename, entry.Src)))
	return nil
}
