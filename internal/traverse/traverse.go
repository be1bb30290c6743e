// Package traverse seeds a Job from its input path and drives the
// top-level extraction (§2 "Traversal engine").
package traverse

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/firmadyne-tools/fwextract/internal/job"
	"github.com/firmadyne-tools/fwextract/internal/node"
	"github.com/firmadyne-tools/fwextract/internal/oracle"
	"github.com/firmadyne-tools/fwextract/internal/rlog"
	"github.com/firmadyne-tools/fwextract/internal/tarball"
)

// Options configures a single extraction run (the CLI's view of a Job).
type Options struct {
	Input      string
	Output     string
	WantKernel bool
	WantRootfs bool
	Oracle     oracle.Oracle // nil selects the bundled oracle
}

// Result summarizes what a run produced, for callers and tests.
type Result struct {
	KernelPath string // "" if no kernel was written
	RootfsPath string // "" if no rootfs was written
	Visited    int
}

// Extract is the engine's single entry point. The distilled spec's
// §1 "given such a blob" covers both a bare file and an already-extracted
// directory tree; for a directory this first tries the root detector
// directly against it (extractor.py's os.walk seeding never revisits the
// directory itself, which would silently miss an input that is already a
// UNIX root), then seeds every regular file within it at depth 0, exactly
// as extractor.py's Extractor.extract() does, whether or not the root
// detector matched; seeding stops as soon as the job is complete.
func Extract(ctx context.Context, opts Options) (*Result, error) {
	input, err := filepath.Abs(opts.Input)
	if err != nil {
		return nil, errors.Wrap(err, "resolving input path")
	}
	output := opts.Output
	if output != "" {
		output, err = filepath.Abs(output)
		if err != nil {
			return nil, errors.Wrap(err, "resolving output path")
		}
		if err := os.MkdirAll(output, 0o755); err != nil {
			return nil, errors.Wrap(err, "creating output directory")
		}
	}

	o := opts.Oracle
	if o == nil {
		o = oracle.NewBundled()
	}
	j := job.New(input, output, opts.WantKernel, opts.WantRootfs, o)

	info, err := os.Stat(input)
	if err != nil {
		return nil, errors.Wrap(err, "reading input path")
	}

	var seeds []string
	if info.IsDir() {
		if found, root, ferr := node.FindRootfs(input, true); ferr == nil && found {
			rlog.Infof(0, input, "input directory is already a Linux filesystem in %s", root)
			if path := j.RootfsPath(); path != "" {
				if err := tarball.Pack(root, path); err != nil {
					return nil, errors.Wrap(err, "packing rootfs")
				}
			} else {
				j.ClearWantRootfs()
			}
		}
		seeds, err = walkRegularFiles(input)
		if err != nil {
			return nil, errors.Wrap(err, "walking input directory")
		}
	} else {
		seeds = []string{input}
	}

	for _, path := range seeds {
		if j.Complete() {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := node.New(j, path, 0)
		if err != nil {
			rlog.Errorf(0, path, "failed to stage seed: %v", err)
			continue
		}
		if _, err := node.Process(ctx, n); err != nil {
			rlog.Errorf(0, path, "%+v", err)
		}
	}

	result := &Result{Visited: j.Visited()}
	if p := j.KernelPath(); p != "" && fileExists(p) {
		result.KernelPath = p
	}
	if p := j.RootfsPath(); p != "" && fileExists(p) {
		result.RootfsPath = p
	}
	return result, nil
}

func walkRegularFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
