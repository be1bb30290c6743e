package node

import (
	"context"

	"github.com/firmadyne-tools/fwextract/internal/job"
	"github.com/firmadyne-tools/fwextract/internal/oracle"
	"github.com/firmadyne-tools/fwextract/internal/rlog"
)

// phaseFunc is the common shape every cascade phase implements: inspect
// the node, optionally mutate job state, and report whether state
// changed (§9 "Polymorphism of phases" — modeled as a fixed ordered list
// of function values, not an inheritance hierarchy).
type phaseFunc func(ctx context.Context, n *Node) (changed bool, err error)

// cascade is the six-phase analysis table from §4.2.
var cascade = []phaseFunc{
	func(ctx context.Context, n *Node) (bool, error) { return openContainer(ctx, n, oracle.CategoryArchive) },
	checkEncryption,
	checkFirmware,
	checkKernel,
	checkRootfs,
	func(ctx context.Context, n *Node) (bool, error) { return openContainer(ctx, n, oracle.CategoryCompressed) },
}

// Process is the node processor's public contract (§4.2): it returns
// true iff the node (and transitively its children) is complete, always
// deletes the node's scratch directory, and runs the four preflight
// short-circuits before the analysis cascade.
func Process(ctx context.Context, n *Node) (bool, error) {
	rlog.Debugf(n.Depth, n.SourcePath, "digest %s", n.Digest)

	if n.Job.Complete() {
		return true, nil
	}
	if n.Depth > job.RecursionDepth {
		rlog.Debugf(n.Depth, n.SourcePath, "skipping: recursion depth %d", n.Depth)
		return n.Complete(), nil
	}
	if n.Job.TestAndMarkVisited(n.Digest) {
		rlog.Debugf(n.Depth, n.SourcePath, "skipping: already visited %s", n.Digest)
		return n.Complete(), nil
	}
	if isBlacklisted(n.SourcePath) {
		rlog.Debugf(n.Depth, n.SourcePath, "skipping: blacklisted type")
		return n.Complete(), nil
	}

	if err := n.EnsureScratch(); err != nil {
		return false, err
	}
	defer n.Close()

	for _, phase := range cascade {
		if err := ctx.Err(); err != nil {
			return n.Complete(), err
		}

		changed, err := phase(ctx, n)
		if err != nil {
			// §7 kind 2: one bad phase never aborts the job; log and
			// continue with the remaining phases/siblings.
			rlog.Errorf(n.Depth, n.SourcePath, "%+v", err)
			continue
		}
		if changed && n.Complete() {
			return true, nil
		}
	}

	return n.Complete(), nil
}
