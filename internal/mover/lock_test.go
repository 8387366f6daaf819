package mover

import (
	"path/filepath"
	"testing"

	"github.com/Veraticus/stow/internal/testutil"
	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsHeldOpen(t *testing.T) {
	root := t.TempDir()
	src := testutil.WriteFile(t, root, "report.pdf", "pdf")

	assert.False(t, isHeldOpen(src))

	holder := flock.New(src)
	require.NoError(t, holder.Lock())
	assert.True(t, isHeldOpen(src))

	require.NoError(t, holder.Unlock())
	assert.False(t, isHeldOpen(src))
}

func TestIsHeldOpen_MissingFileIsNotCreated(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.pdf")

	assert.False(t, isHeldOpen(missing))
	assert.NoFileExists(t, missing)
}
