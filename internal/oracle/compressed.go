package oracle

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

var magics = []struct {
	name  string
	bytes []byte
}{
	{"gzip", []byte{0x1f, 0x8b}},
	{"bzip2", []byte("BZh")},
	{"zstd", []byte{0x28, 0xb5, 0x2f, 0xfd}},
	{"xz", []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}},
	{"lzma", []byte{0x5d, 0x00, 0x00}},
	{"lz4", []byte{0x04, 0x22, 0x4d, 0x18}},
}

// scanCompressed implements the oracle's "compressed" category. gzip and
// bzip2 come from the standard library, zstd from
// github.com/klauspost/compress (grounded on
// backend/compress/zstd_handler.go), and xz/lzma from
// github.com/ulikunitz/xz (grounded on backend/press/alg_xz.go). lz4 is
// recognized by magic only: the corpus's lz4 package (id01/go-lz4, in
// backend/press/alg_lz4.go) decodes raw blocks, not the .lz4 frame
// format firmware ships in, so there is no corpus-grounded decoder for
// it (see SPEC_FULL.md §4.1a).
func scanCompressed(path, workDir string, opts ScanOptions) ([]Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head := make([]byte, 8)
	n, _ := f.ReadAt(head, 0)
	head = head[:n]

	var kind string
	for _, m := range magics {
		if bytes.HasPrefix(head, m.bytes) {
			kind = m.name
			break
		}
	}
	if kind == "" {
		return nil, nil
	}

	desc := fmt.Sprintf("%s compressed data", kind)
	if !opts.Extract || kind == "lz4" {
		return []Module{{Results: []Finding{{Description: desc}}}}, nil
	}

	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	outName := "decompressed"
	var r io.Reader
	switch kind {
	case "gzip":
		gz, err := gzip.NewReader(in)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		if gz.Name != "" {
			desc += fmt.Sprintf(", original file name: %q", gz.Name)
			outName = filepath.Base(gz.Name)
		}
		r = gz
	case "bzip2":
		r = bzip2.NewReader(in)
	case "zstd":
		zr, err := zstd.NewReader(in)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	case "xz":
		xr, err := xz.NewReader(in)
		if err != nil {
			return nil, err
		}
		r = xr
	case "lzma":
		lr, err := lzma.NewReader(in)
		if err != nil {
			return nil, err
		}
		r = lr
	}

	dest := filepath.Join(workDir, "compressed-"+uuid.NewString())
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, err
	}
	out, err := os.Create(filepath.Join(dest, outName))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return nil, err
	}
	if err := out.Close(); err != nil {
		return nil, err
	}

	return []Module{{
		Results:            []Finding{{Description: desc}},
		ExtractedDirectory: dest,
	}}, nil
}
