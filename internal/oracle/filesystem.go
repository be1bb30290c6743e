package oracle

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/diskfs/go-diskfs/filesystem/squashfs"
	"github.com/google/uuid"
)

var squashfsMagic = []byte{'h', 's', 'q', 's'}

// fsMagics recognizes embedded filesystem formats the bundled oracle
// does not decode (§1 Non-goals: cramfs/jffs2/ubifs/yaffs2/romfs decoding
// is out of scope for the bundled implementation). They still surface a
// Finding so the cascade's trace log names what it saw.
var fsMagics = []struct {
	name  string
	bytes []byte
}{
	{"cramfs", []byte{0x45, 0x3d, 0xcd, 0x28}},
	{"jffs2", []byte{0x85, 0x19}},
	{"ubifs", []byte{0x31, 0x18, 0x10, 0x06}},
	{"romfs", []byte("-rom1fs-")},
	{"ext", []byte{0x53, 0xef}}, // superblock magic at offset 1080, handled separately below
}

// scanFilesystem implements the oracle's "filesystem" category.
// squashfs is decoded for real via github.com/diskfs/go-diskfs,
// grounded directly on backend/archive/squashfs/squashfs.go. Other
// formats are recognized-but-not-decoded, per the Non-goal above.
func scanFilesystem(path, workDir string, opts ScanOptions) ([]Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head := make([]byte, 8)
	n, _ := f.ReadAt(head, 0)
	head = head[:n]

	if len(head) >= 4 && string(head[:4]) == string(squashfsMagic) {
		return scanSquashfs(path, f, workDir, opts)
	}

	ext := make([]byte, 2)
	if n, _ := f.ReadAt(ext, 1080); n == 2 && ext[0] == 0x53 && ext[1] == 0xef {
		return []Module{{Results: []Finding{{Description: "ext2/ext3/ext4 filesystem, recognized, not decoded"}}}}, nil
	}

	for _, m := range fsMagics {
		if m.name == "ext" {
			continue
		}
		if len(head) >= len(m.bytes) && string(head[:len(m.bytes)]) == string(m.bytes) {
			return []Module{{Results: []Finding{{Description: fmt.Sprintf("%s filesystem, recognized, not decoded", m.name)}}}}, nil
		}
	}

	return nil, nil
}

func scanSquashfs(path string, f *os.File, workDir string, opts ScanOptions) ([]Module, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	desc := "Squashfs filesystem"
	if !opts.Extract {
		return []Module{{Results: []Finding{{Description: desc}}}}, nil
	}

	sqfs, err := squashfs.Read(&fileStorage{f: f}, info.Size(), 0, 1024*1024)
	if err != nil {
		return []Module{{Results: []Finding{{Description: desc}}}}, nil
	}

	dest := filepath.Join(workDir, "squashfs-root-"+uuid.NewString())
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, err
	}
	if err := copySquashfsTree(sqfs, "/", dest); err != nil {
		return nil, err
	}

	return []Module{{
		Results:            []Finding{{Description: desc}},
		ExtractedDirectory: dest,
	}}, nil
}

// copySquashfsTree walks the decoded squashfs image and materializes it
// as a real directory tree so the rest of the engine (root detector,
// tarball packer) can operate on plain files, the same boundary
// rclone's own squashfs Fs draws against its wrapped VFS.
func copySquashfsTree(sqfs *squashfs.FileSystem, native, dest string) error {
	entries, err := sqfs.ReadDir(native)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		childNative := filepath.ToSlash(filepath.Join(native, entry.Name()))
		childDest := filepath.Join(dest, entry.Name())
		if entry.IsDir() {
			if err := os.MkdirAll(childDest, 0o755); err != nil {
				return err
			}
			if err := copySquashfsTree(sqfs, childNative, childDest); err != nil {
				return err
			}
			continue
		}
		if entry.Mode()&fs.ModeSymlink != 0 {
			continue
		}
		in, err := sqfs.OpenFile(childNative, os.O_RDONLY)
		if err != nil {
			return err
		}
		out, err := os.OpenFile(childDest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			in.Close()
			return err
		}
		_, err = io.Copy(out, in)
		in.Close()
		out.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
