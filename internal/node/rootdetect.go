package node

import (
	"os"
	"path/filepath"

	"github.com/firmadyne-tools/fwextract/internal/job"
)

// FindRootfs implements the root detector (§4.6): it unwraps
// single-child directory chains, counts canonical UNIX subdirectories,
// and optionally recurses one level into each immediate subdirectory.
func FindRootfs(start string, recurse bool) (bool, string, error) {
	path := start

	for {
		entries, err := os.ReadDir(path)
		if err != nil {
			return false, start, err
		}
		if len(entries) != 1 || !entries[0].IsDir() {
			break
		}
		path = filepath.Join(path, entries[0].Name())
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return false, start, err
	}

	count := 0
	var subdirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		subdirs = append(subdirs, e.Name())
		if job.UnixDirs[e.Name()] {
			count++
		}
	}

	if count >= job.UnixThreshold {
		return true, path, nil
	}

	if recurse {
		for _, name := range subdirs {
			found, hit, err := FindRootfs(filepath.Join(path, name), false)
			if err != nil {
				continue
			}
			if found {
				return true, hit, nil
			}
		}
	}

	return false, start, nil
}
