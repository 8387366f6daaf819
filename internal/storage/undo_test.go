package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/Veraticus/stow/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndo_TrimsToLimit(t *testing.T) {
	store, cleanup := createTestStorage(t, WithUndoLimit(3))
	defer cleanup()
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		name := fmt.Sprintf("f%d.pdf", i)
		require.NoError(t, store.AppendUndoEntry(ctx, name, "/in/"+name, "/out/"+name))
	}

	entries, err := store.ListUndoHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3, "oldest entries must be evicted")

	names := []string{entries[0].Filename, entries[1].Filename, entries[2].Filename}
	assert.Equal(t, []string{"f5.pdf", "f4.pdf", "f3.pdf"}, names)
}

func TestUndo_DefaultLimit(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	for i := 0; i < DefaultMaxUndoHistory+4; i++ {
		name := fmt.Sprintf("f%d.pdf", i)
		require.NoError(t, store.AppendUndoEntry(ctx, name, "/in", "/out"))
	}

	entries, err := store.ListUndoHistory(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, entries, DefaultMaxUndoHistory)
}

func TestUndo_GetAndDelete(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.AppendUndoEntry(ctx, "essay.docx", "/in/essay.docx", "/docs/English/essay.docx"))
	entries, err := store.ListUndoHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry, err := store.GetUndoEntry(ctx, entries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "/in/essay.docx", entry.Src)
	assert.Equal(t, "/docs/English/essay.docx", entry.Dst)
	assert.False(t, entry.CreatedAt.IsZero())

	require.NoError(t, store.DeleteUndoEntry(ctx, entry.ID))

	_, err = store.GetUndoEntry(ctx, entry.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = store.GetUndoEntry(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidID)
}
