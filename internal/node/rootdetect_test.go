package node

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeUnixRoot(t *testing.T, base string) {
	t.Helper()
	for _, dir := range []string{"bin", "etc", "lib", "usr", "tmp"} {
		require.NoError(t, os.MkdirAll(filepath.Join(base, dir), 0o755))
	}
}

func TestFindRootfsDirect(t *testing.T) {
	root := t.TempDir()
	makeUnixRoot(t, root)

	found, path, err := FindRootfs(root, false)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, root, path)
}

func TestFindRootfsUnwrapsSingleChildChain(t *testing.T) {
	outer := t.TempDir()
	inner := filepath.Join(outer, "squashfs-root")
	require.NoError(t, os.MkdirAll(inner, 0o755))
	makeUnixRoot(t, inner)

	found, path, err := FindRootfs(outer, false)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, inner, path)
}

func TestFindRootfsRecursesOneLevel(t *testing.T) {
	outer := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(outer, "decoy"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(outer, "extra"), 0o755))
	target := filepath.Join(outer, "extra", "rootfs")
	require.NoError(t, os.MkdirAll(target, 0o755))
	makeUnixRoot(t, target)

	found, path, err := FindRootfs(outer, true)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, target, path)
}

func TestFindRootfsNoMatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "random"), 0o755))

	found, _, err := FindRootfs(dir, true)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFindRootfsBelowThreshold(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"bin", "etc"} { // only 2 of the canonical names
		require.NoError(t, os.MkdirAll(filepath.Join(dir, name), 0o755))
	}

	found, _, err := FindRootfs(dir, false)
	require.NoError(t, err)
	assert.False(t, found)
}
