package node

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/firmadyne-tools/fwextract/internal/oracle"
	"github.com/firmadyne-tools/fwextract/internal/rlog"
)

// checkFirmware implements cascade phase 3 (§4.5): scan for a firmware
// descriptor and carve kernel/rootfs slices out of the node's own file.
// Carved children inherit depth (not depth+1): carving does not peel a
// real container layer (§4.5 "Children of carving").
func checkFirmware(ctx context.Context, n *Node) (bool, error) {
	modules, err := n.Job.Oracle.Scan(ctx, n.SourcePath, oracle.CategoryHeader, oracle.ScanOptions{}, n.Scratch)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(n.SourcePath)
	if err != nil {
		return false, err
	}
	fileSize := info.Size()

	for _, m := range modules {
		for _, f := range m.Results {
			switch rec := oracle.Describe(f).(type) {
			case oracle.UImageKernel:
				changed, err := carveUImage(ctx, n, f.Offset, rec.Size, fileSize)
				if changed || err != nil {
					return changed, err
				}
			case oracle.TrxDual:
				changed, err := carveTrx(ctx, n, rec, fileSize)
				if changed || err != nil {
					return changed, err
				}
			}
		}
	}
	return false, nil
}

func carveUImage(ctx context.Context, n *Node, offset, size uint64, fileSize int64) (bool, error) {
	kernelOffset := offset + 64
	if size == 0 || int64(kernelOffset+size) > fileSize {
		return false, nil
	}

	rlog.Infof(n.Depth, n.SourcePath, "uImage kernel at 0x%x, size %d", kernelOffset, size)

	carved, err := ddCopy(n.Scratch, n.SourcePath, int64(kernelOffset), int64(size))
	if err != nil {
		return false, err
	}

	child, err := New(n.Job, carved, n.Depth)
	if err != nil {
		return false, err
	}
	defer child.Close()
	done, err := Process(ctx, child)
	return done, err
}

func carveTrx(ctx context.Context, n *Node, rec oracle.TrxDual, fileSize int64) (bool, error) {
	kernelLen := rec.KernelLen
	rootfsLen := rec.RootfsLen

	// Infer missing lengths from offsets, per §4.1. The reference
	// design's guard here reads "kernel_offset != rootfs_size", which
	// compares two unrelated quantities and can never usefully fire;
	// this implementation uses the corrected comparison named in
	// SPEC_FULL.md §9 ("kernel_offset != rootfs_offset"), which actually
	// guards against a degenerate zero-length carve when the two
	// offsets coincide.
	if rec.KernelOffset != rec.RootfsOffset {
		if !rec.HasKernelLen {
			kernelLen = rec.RootfsOffset - rec.KernelOffset
		}
		if !rec.HasRootfsLen {
			rootfsLen = uint64(fileSize) - rec.RootfsOffset
		}
	}

	if kernelLen == 0 || int64(rec.KernelOffset+kernelLen) > fileSize {
		return false, nil
	}
	if rootfsLen == 0 || int64(rec.RootfsOffset+rootfsLen) > fileSize {
		return false, nil
	}

	rlog.Infof(n.Depth, n.SourcePath, "TRX dual image: kernel 0x%x+%d, rootfs 0x%x+%d",
		rec.KernelOffset, kernelLen, rec.RootfsOffset, rootfsLen)

	kernelPath, err := ddCopy(n.Scratch, n.SourcePath, int64(rec.KernelOffset), int64(kernelLen))
	if err != nil {
		return false, err
	}
	kernelNode, err := New(n.Job, kernelPath, n.Depth)
	if err != nil {
		return false, err
	}
	defer kernelNode.Close()
	if _, err := Process(ctx, kernelNode); err != nil {
		return false, err
	}

	rootfsPath, err := ddCopy(n.Scratch, n.SourcePath, int64(rec.RootfsOffset), int64(rootfsLen))
	if err != nil {
		return false, err
	}
	rootfsNode, err := New(n.Job, rootfsPath, n.Depth)
	if err != nil {
		return false, err
	}
	defer rootfsNode.Close()
	if _, err := Process(ctx, rootfsNode); err != nil {
		return false, err
	}

	// Re-evaluate the carving node's own completion after both children
	// have run, per §4.5 ("after both children return, re-evaluate
	// completion and report it") — not either child's individual status.
	return n.Complete(), nil
}

// ddCopy extracts size bytes starting at offset from src into a fresh
// file under dir, mirroring extractor.py's Extractor.io_dd.
func ddCopy(dir, src string, offset, size int64) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	if _, err := in.Seek(offset, io.SeekStart); err != nil {
		return "", err
	}

	outPath := filepath.Join(dir, "carve-"+uuid.NewString())
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	if _, err := io.CopyN(out, in, size); err != nil {
		out.Close()
		return "", err
	}
	return outPath, out.Close()
}
