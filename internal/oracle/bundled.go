package oracle

import "context"

// Bundled is the oracle implementation shipped with this repository. It
// backs every category with a real, if deliberately non-exhaustive,
// decoder (§4.1a) so the engine is runnable out of the box.
type Bundled struct{}

// NewBundled constructs the default oracle.
func NewBundled() *Bundled { return &Bundled{} }

// Scan implements Oracle.
func (b *Bundled) Scan(_ context.Context, path string, category Category, opts ScanOptions, workDir string) ([]Module, error) {
	switch category {
	case CategoryHeader:
		return scanHeader(path)
	case CategoryKernel:
		return scanKernel(path)
	case CategoryArchive:
		return scanArchive(path, workDir, opts)
	case CategoryCompressed:
		return scanCompressed(path, workDir, opts)
	case CategoryFilesystem:
		return scanFilesystem(path, workDir, opts)
	default:
		return nil, nil
	}
}
