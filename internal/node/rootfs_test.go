package node

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firmadyne-tools/fwextract/internal/job"
)

func TestArchiveIfRootPacksWhenOutputWanted(t *testing.T) {
	root := t.TempDir()
	makeUnixRoot(t, root)

	input := filepath.Join(t.TempDir(), "seed.bin")
	require.NoError(t, os.WriteFile(input, []byte("x"), 0o644))
	outDir := t.TempDir()

	j := job.New(input, outDir, false, true, nil)
	n, err := New(j, input, 0)
	require.NoError(t, err)

	changed, err := archiveIfRoot(n, root)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, j.RootfsDone())
	assert.FileExists(t, j.RootfsPath())
}

func TestArchiveIfRootClearsWantWithoutOutput(t *testing.T) {
	root := t.TempDir()
	makeUnixRoot(t, root)

	input := filepath.Join(t.TempDir(), "seed.bin")
	require.NoError(t, os.WriteFile(input, []byte("x"), 0o644))

	j := job.New(input, "", false, true, nil)
	n, err := New(j, input, 0)
	require.NoError(t, err)

	changed, err := archiveIfRoot(n, root)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.False(t, j.WantRootfs())
}

func TestArchiveIfRootNoRootFound(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "random"), 0o755))

	input := filepath.Join(t.TempDir(), "seed.bin")
	require.NoError(t, os.WriteFile(input, []byte("x"), 0o644))

	j := job.New(input, t.TempDir(), false, true, nil)
	n, err := New(j, input, 0)
	require.NoError(t, err)

	changed, err := archiveIfRoot(n, dir)
	require.NoError(t, err)
	assert.False(t, changed)
}
