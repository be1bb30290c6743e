package node

import (
	"context"

	"github.com/firmadyne-tools/fwextract/internal/oracle"
	"github.com/firmadyne-tools/fwextract/internal/rlog"
	"github.com/firmadyne-tools/fwextract/internal/tarball"
)

// checkRootfs implements cascade phase 5 (§4.2 "Phase 5 detail"): scan
// for a filesystem, extract it, run the root detector on each produced
// directory in turn, and archive the first one that holds a UNIX root.
func checkRootfs(ctx context.Context, n *Node) (bool, error) {
	if n.Job.RootfsDone() {
		return false, nil
	}

	modules, err := n.Job.Oracle.Scan(ctx, n.SourcePath, oracle.CategoryFilesystem, oracle.ScanOptions{Extract: true, Recurse: true}, n.Scratch)
	if err != nil {
		return false, err
	}

	for _, m := range modules {
		for _, f := range m.Results {
			rlog.Infof(n.Depth, n.SourcePath, "%s", f.Description)
			break
		}
		if m.ExtractedDirectory == "" {
			continue
		}
		if changed, err := archiveIfRoot(n, m.ExtractedDirectory); changed || err != nil {
			return changed, err
		}
	}
	return false, nil
}

// archiveIfRoot runs the root detector on dir and, if it finds a UNIX
// root, packs it to O/T.tar.gz (or clears want_rootfs with no output
// directory). Shared by checkRootfs and the container opener (§4.3 step
// 1), which both "archive D' (or clear want_rootfs)" on detection.
func archiveIfRoot(n *Node, dir string) (bool, error) {
	found, root, err := FindRootfs(dir, true)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	rlog.Infof(n.Depth, n.SourcePath, "found Linux filesystem in %s", root)
	if path := n.Job.RootfsPath(); path != "" {
		if err := tarball.Pack(root, path); err != nil {
			return false, err
		}
	} else {
		n.Job.ClearWantRootfs()
	}
	return true, nil
}
