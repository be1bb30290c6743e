package node

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firmadyne-tools/fwextract/internal/job"
	"github.com/firmadyne-tools/fwextract/internal/oracle"
)

func TestOrderChildrenSortsByNameThenLength(t *testing.T) {
	files := []string{
		filepath.Join("dir", "bbbb"),
		filepath.Join("dir", "a"),
		filepath.Join("dir", "cc"),
		filepath.Join("dir", "aaa"),
	}

	ordered := orderChildren(files, "")
	names := make([]string, len(ordered))
	for i, f := range ordered {
		names[i] = filepath.Base(f)
	}
	assert.Equal(t, []string{"a", "cc", "aaa", "bbbb"}, names)
}

func TestOrderChildrenPromotesOriginalName(t *testing.T) {
	files := []string{
		filepath.Join("dir", "a"),
		filepath.Join("dir", "uImage.bin"),
		filepath.Join("dir", "zz"),
	}
	desc := `gzip compressed data, original file name: "uImage.bin"`

	ordered := orderChildren(files, desc)
	assert.Equal(t, "uImage.bin", filepath.Base(ordered[0]))
	assert.Len(t, ordered, 3)
}

func TestOrderChildrenKeepsDuplicateBaseNames(t *testing.T) {
	files := []string{
		filepath.Join("dir", "lib", "modules.dep"),
		filepath.Join("dir", "usr", "lib", "modules.dep"),
		filepath.Join("dir", "init"),
	}

	ordered := orderChildren(files, "")
	assert.Len(t, ordered, 3, "files sharing a base name are distinct children")
	assert.ElementsMatch(t, files, ordered)
	assert.Equal(t, "init", filepath.Base(ordered[0]))
}

func TestOrderChildrenWithoutOriginalNameHint(t *testing.T) {
	files := []string{filepath.Join("dir", "b"), filepath.Join("dir", "a")}
	ordered := orderChildren(files, "POSIX tar archive")
	assert.Equal(t, []string{"a", "b"}, []string{filepath.Base(ordered[0]), filepath.Base(ordered[1])})
}

func TestRecurseChildrenBreadthBound(t *testing.T) {
	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	for i := 0; i < 20; i++ {
		content := append([]byte{0x00, 0xff, 0xfe, byte(i)}, make([]byte, 32)...)
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: fmt.Sprintf("blob%02d.bin", i), Typeflag: tar.TypeReg,
			Mode: 0o644, Size: int64(len(content)),
		}))
		_, err := tw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())

	path := filepath.Join(t.TempDir(), "junk.tar")
	require.NoError(t, os.WriteFile(path, tarBuf.Bytes(), 0o644))

	j := job.New(path, t.TempDir(), false, true, oracle.NewBundled())
	n, err := New(j, path, 0)
	require.NoError(t, err)
	defer n.Close()

	done, err := Process(context.Background(), n)
	require.NoError(t, err)

	assert.True(t, n.Terminate, "the container node must be terminated by the breadth limit")
	assert.True(t, done, "a terminated node reports done regardless of outputs")
	assert.False(t, j.RootfsDone())
	// The container plus children 0 through RECURSION_BREADTH inclusive;
	// the breadth check fires before child index RECURSION_BREADTH+1 runs.
	assert.Equal(t, 1+job.RecursionBreadth+1, j.Visited())
}

func TestDescribeFromEmptyDescriptionIsOther(t *testing.T) {
	assert.Equal(t, oracle.Other{}, oracle.Describe(oracle.Finding{Description: ""}))
}
