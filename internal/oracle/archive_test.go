package oracle

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTarArchive(t *testing.T, files map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name, Mode: 0o644, Size: int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())

	path := filepath.Join(t.TempDir(), "archive.tar")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestScanArchiveTar(t *testing.T) {
	path := writeTarArchive(t, map[string]string{"etc/hosts": "127.0.0.1 localhost\n"})
	work := t.TempDir()

	modules, err := scanArchive(path, work, ScanOptions{Extract: true})
	require.NoError(t, err)
	require.Len(t, modules, 1)
	require.NotEmpty(t, modules[0].ExtractedDirectory)

	data, err := os.ReadFile(filepath.Join(modules[0].ExtractedDirectory, "etc", "hosts"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1 localhost\n", string(data))
}

func TestScanArchiveZip(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("bin/busybox")
	require.NoError(t, err)
	_, err = w.Write([]byte("#!/bin/sh\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "archive.zip")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	work := t.TempDir()

	modules, err := scanArchive(path, work, ScanOptions{Extract: true})
	require.NoError(t, err)
	require.Len(t, modules, 1)

	data, err := os.ReadFile(filepath.Join(modules[0].ExtractedDirectory, "bin", "busybox"))
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\n", string(data))
}

func TestScanArchiveNoMatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.bin")
	require.NoError(t, os.WriteFile(path, []byte("not an archive"), 0o644))

	modules, err := scanArchive(path, t.TempDir(), ScanOptions{Extract: true})
	require.NoError(t, err)
	assert.Nil(t, modules)
}

func TestScanArchiveWithoutExtractReportsOnly(t *testing.T) {
	path := writeTarArchive(t, map[string]string{"a": "b"})

	modules, err := scanArchive(path, t.TempDir(), ScanOptions{})
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Empty(t, modules[0].ExtractedDirectory)
}
