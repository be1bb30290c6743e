// Package oracle defines the signature-oracle contract (§4.1) and a
// bundled implementation of it (§4.1a) backed by real decoders. The node
// processor consumes only this interface, so a caller may substitute a
// different oracle (e.g. one shelling out to a real binwalk binary)
// without touching the extraction engine.
package oracle

import "context"

// Category selects which family of signatures to scan for.
type Category string

// The five categories the node processor's cascade consults.
const (
	CategoryHeader     Category = "header"
	CategoryKernel     Category = "kernel"
	CategoryFilesystem Category = "filesystem"
	CategoryArchive    Category = "archive"
	CategoryCompressed Category = "compressed"
)

// Finding is one signature match within a scanned file.
type Finding struct {
	Description string
	Offset      uint64
}

// Module groups the findings produced by one oracle pass over a file,
// plus the directory it decoded into, if any.
type Module struct {
	Results            []Finding
	ExtractedDirectory string
}

// ScanOptions mirrors binwalk's -e (extract) and -r (recurse) flags.
type ScanOptions struct {
	Extract bool
	Recurse bool
}

// Oracle is the black-box signature scanner the node processor drives.
// workDir is an explicit base directory the oracle should decode into
// (replacing a chdir-based contract — see SPEC_FULL.md §9).
type Oracle interface {
	Scan(ctx context.Context, path string, category Category, opts ScanOptions, workDir string) ([]Module, error)
}
