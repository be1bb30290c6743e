// Package job holds the state shared by every extraction node processed
// during a single run: the output location, the two independent
// kernel/rootfs goals, and the visited-digest set that bounds the
// traversal.
package job

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/firmadyne-tools/fwextract/internal/oracle"
)

// Recursion bounds, per §3 of the specification.
const (
	RecursionDepth   = 3
	RecursionBreadth = 5
)

// Tag names every output file written by this job. The reference design
// uses a single shared tag so only the first successful kernel/rootfs
// per job survives.
const Tag = "1"

// UnixDirs is the canonical set of subdirectory names the root detector
// looks for (§4.6).
var UnixDirs = map[string]bool{
	"bin": true, "etc": true, "dev": true, "home": true, "lib": true,
	"mnt": true, "opt": true, "root": true, "run": true, "sbin": true,
	"tmp": true, "usr": true, "var": true,
}

// UnixThreshold is the minimum number of UnixDirs entries required for a
// directory to be recognized as a UNIX root.
const UnixThreshold = 4

// Job carries the parameters fixed for the entire run plus the mutable
// visited set (§3 "Job").
type Job struct {
	InputPath string
	OutputDir string
	Oracle    oracle.Oracle

	mu         sync.Mutex
	wantKernel bool
	wantRootfs bool
	visited    map[string]bool
}

// New constructs a Job. wantKernel/wantRootfs correspond to the CLI's
// -nk/-nf flags (inverted: true means "extract").
func New(input, output string, wantKernel, wantRootfs bool, o oracle.Oracle) *Job {
	return &Job{
		InputPath:  input,
		OutputDir:  output,
		Oracle:     o,
		wantKernel: wantKernel,
		wantRootfs: wantRootfs,
		visited:    make(map[string]bool),
	}
}

// KernelPath returns O/T.kernel, or "" if no output directory was given.
func (j *Job) KernelPath() string {
	if j.OutputDir == "" {
		return ""
	}
	return filepath.Join(j.OutputDir, Tag+".kernel")
}

// RootfsPath returns O/T.tar.gz, or "" if no output directory was given.
func (j *Job) RootfsPath() string {
	if j.OutputDir == "" {
		return ""
	}
	return filepath.Join(j.OutputDir, Tag+".tar.gz")
}

// WantKernel reports whether the job is still trying to produce a kernel.
func (j *Job) WantKernel() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.wantKernel
}

// WantRootfs reports whether the job is still trying to produce a rootfs.
func (j *Job) WantRootfs() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.wantRootfs
}

// ClearWantKernel is called when want_kernel was true but there is no
// output directory to satisfy it into (§4.2 phase 4 detail).
func (j *Job) ClearWantKernel() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.wantKernel = false
}

// ClearWantRootfs is the rootfs analogue of ClearWantKernel.
func (j *Job) ClearWantRootfs() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.wantRootfs = false
}

// KernelDone reports kernel_done = ¬want_kernel ∨ exists(O/T.kernel).
func (j *Job) KernelDone() bool {
	if !j.WantKernel() {
		return true
	}
	return fileExists(j.KernelPath())
}

// RootfsDone is the rootfs analogue of KernelDone.
func (j *Job) RootfsDone() bool {
	if !j.WantRootfs() {
		return true
	}
	return fileExists(j.RootfsPath())
}

// Complete reports whether both goals are satisfied.
func (j *Job) Complete() bool {
	return j.KernelDone() && j.RootfsDone()
}

// TestAndMarkVisited is the sole critical section shared across nodes: it
// tests digest for membership and inserts it atomically. It returns true
// if digest was already present (the caller should short-circuit).
func (j *Job) TestAndMarkVisited(digest string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.visited[digest] {
		return true
	}
	j.visited[digest] = true
	return false
}

// Visited reports the number of distinct digests seen so far. Exposed for
// tests asserting visited-set monotonicity (§8).
func (j *Job) Visited() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.visited)
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
