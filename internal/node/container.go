package node

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/firmadyne-tools/fwextract/internal/job"
	"github.com/firmadyne-tools/fwextract/internal/oracle"
	"github.com/firmadyne-tools/fwextract/internal/rlog"
)

// openContainer implements §4.3, shared by the archive phase (1) and the
// compressed phase (6): ask the oracle to extract recursively, and for
// each produced directory either archive a detected UNIX root or process
// its children one at a time, in order, within the RECURSION_BREADTH bound.
func openContainer(ctx context.Context, n *Node, category oracle.Category) (bool, error) {
	modules, err := n.Job.Oracle.Scan(ctx, n.SourcePath, category, oracle.ScanOptions{Extract: true, Recurse: true}, n.Scratch)
	if err != nil {
		return false, err
	}

	for _, m := range modules {
		var desc string
		for _, f := range m.Results {
			rlog.Infof(n.Depth, n.SourcePath, "%s", f.Description)
			desc = f.Description
			break
		}
		if m.ExtractedDirectory == "" {
			continue
		}

		if changed, err := archiveIfRoot(n, m.ExtractedDirectory); changed || err != nil {
			return changed, err
		}

		changed, err := recurseChildren(ctx, n, m.ExtractedDirectory, desc)
		if changed || err != nil {
			return changed, err
		}
	}
	return false, nil
}

// recurseChildren implements §4.3 steps 2-4: walk dir's files in the
// (length, then name) sort order, optionally promote an "original file
// name" hint to the front, and process children 0 through
// RECURSION_BREADTH inclusive (RECURSION_BREADTH+1 in all), setting
// terminate if further children remain.
func recurseChildren(ctx context.Context, n *Node, dir, desc string) (bool, error) {
	rlog.Debugf(n.Depth, n.SourcePath, "recursing into %s", dir)

	files, err := walkFiles(dir)
	if err != nil {
		return false, err
	}
	files = orderChildren(files, desc)

	count := 0
	for _, path := range files {
		if count > job.RecursionBreadth {
			n.Terminate = true
			rlog.Debugf(n.Depth, n.SourcePath, "skipping: recursion breadth %d", job.RecursionBreadth)
			return true, nil
		}

		child, err := New(n.Job, path, n.Depth+1)
		if err != nil {
			rlog.Errorf(n.Depth, path, "failed to stage child: %v", err)
			count++
			continue
		}
		done, err := Process(ctx, child)
		child.Close()
		if err != nil {
			rlog.Errorf(n.Depth, path, "processing failed: %v", err)
		} else if done && n.Complete() {
			return true, nil
		}
		count++
	}
	return false, nil
}

// walkFiles returns every regular file under dir, recursively.
func walkFiles(dir string) ([]string, error) {
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

// orderChildren sorts by base name, then stably re-sorts by name
// length, so shorter names come first and ties break lexicographically,
// plus the "original file name" promotion. Files are carried as full
// paths throughout: a container may hold files sharing a base name in
// different subdirectories and each is a distinct child.
func orderChildren(files []string, desc string) []string {
	ordered := make([]string, len(files))
	copy(ordered, files)

	sort.Slice(ordered, func(i, j int) bool {
		ni, nj := filepath.Base(ordered[i]), filepath.Base(ordered[j])
		if ni != nj {
			return ni < nj
		}
		return ordered[i] < ordered[j]
	})
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(filepath.Base(ordered[i])) < len(filepath.Base(ordered[j]))
	})

	if rec, ok := oracle.Describe(oracle.Finding{Description: desc}).(oracle.OriginalName); ok {
		for i, f := range ordered {
			if filepath.Base(f) == rec.Name {
				ordered = append(ordered[:i:i], ordered[i+1:]...)
				ordered = append([]string{f}, ordered...)
				break
			}
		}
	}

	return ordered
}
