// Package node implements the extraction node: the per-file unit of work
// the traversal engine drives through the analysis cascade (§3, §4.2).
package node

import (
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary; digest bit-width mandated by the spec
	"encoding/hex"
	"io"
	"os"

	"github.com/firmadyne-tools/fwextract/internal/job"
	"github.com/firmadyne-tools/fwextract/internal/rlog"
)

// Node is one ExtractionNode (§3): a candidate file, its depth, its
// content digest, and the scratch directory it owns while processed.
type Node struct {
	Job        *job.Job
	SourcePath string
	Depth      int
	Digest     string // hex-encoded MD5, per §3 "128-bit content digest"
	Tag        string
	Scratch    string
	Terminate  bool
}

// New constructs a Node, hashing the file eagerly as construction
// requires (§3 "Lifecycle").
func New(j *job.Job, path string, depth int) (*Node, error) {
	digest, err := digestFile(path)
	if err != nil {
		return nil, err
	}
	return &Node{
		Job:        j,
		SourcePath: path,
		Depth:      depth,
		Digest:     digest,
		Tag:        job.Tag,
	}, nil
}

// Complete mirrors the Job invariant: terminate ∨ (kernel_done ∧
// rootfs_done). It never gets "more done" than the job itself, since
// kernel/rootfs completion is tracked at the job (output-file) level.
func (n *Node) Complete() bool {
	return n.Terminate || n.Job.Complete()
}

// EnsureScratch creates the node's scratch directory on first use (§3:
// "Created lazily only if the node is actually processed").
func (n *Node) EnsureScratch() error {
	if n.Scratch != "" {
		return nil
	}
	dir, err := os.MkdirTemp("", "fwextract-node-*")
	if err != nil {
		return err
	}
	n.Scratch = dir
	return nil
}

// Close wipes the scratch directory on every exit path (§3, §5). Cleanup
// failures are logged but non-fatal (§7 kind 3).
func (n *Node) Close() {
	if n.Scratch == "" {
		return
	}
	if err := os.RemoveAll(n.Scratch); err != nil {
		rlog.Errorf(n.Depth, n.SourcePath, "failed to remove scratch %s: %v", n.Scratch, err)
	}
	n.Scratch = ""
}

func digestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New() //nolint:gosec
	const blockSize = 64 * 1024
	if _, err := io.CopyBuffer(h, f, make([]byte, blockSize)); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
