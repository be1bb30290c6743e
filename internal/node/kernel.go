package node

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/firmadyne-tools/fwextract/internal/oracle"
	"github.com/firmadyne-tools/fwextract/internal/rlog"
)

// checkKernel implements cascade phase 4 (§4.2 "Phase 4 detail"): a
// "kernel version" finding containing "Linux" causes the node to be
// copied verbatim to O/T.kernel; any other OS match rejects the file
// without consuming it.
func checkKernel(ctx context.Context, n *Node) (bool, error) {
	if n.Job.KernelDone() {
		return false, nil
	}

	modules, err := n.Job.Oracle.Scan(ctx, n.SourcePath, oracle.CategoryKernel, oracle.ScanOptions{}, n.Scratch)
	if err != nil {
		return false, err
	}

	for _, m := range modules {
		for _, f := range m.Results {
			rec, ok := oracle.Describe(f).(oracle.KernelVersion)
			if !ok {
				continue
			}
			if !rec.IsLinux {
				rlog.Debugf(n.Depth, n.SourcePath, "ignoring non-Linux kernel: %s", f.Description)
				return false, nil
			}

			rlog.Infof(n.Depth, n.SourcePath, "%s", f.Description)
			if path := n.Job.KernelPath(); path != "" {
				if err := copyFile(n.SourcePath, path); err != nil {
					return false, err
				}
			} else {
				n.Job.ClearWantKernel()
			}
			return true, nil
		}
	}
	return false, nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
