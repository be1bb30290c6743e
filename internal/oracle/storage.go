package oracle

import (
	"errors"
	"io/fs"
	"os"

	"github.com/diskfs/go-diskfs/backend"
)

// fileStorage adapts an already-open read-only image file to the
// backend.Storage interface go-diskfs decoders consume. The decoder
// only ever reads; the write-side methods exist to satisfy the
// interface.
type fileStorage struct {
	f *os.File
}

var errStorageReadOnly = errors.New("internal error: filesystem image storage is read-only")

func (s *fileStorage) ReadAt(p []byte, off int64) (n int, err error) {
	return s.f.ReadAt(p, off)
}

func (s *fileStorage) Read(p []byte) (n int, err error) {
	return s.f.Read(p)
}

func (s *fileStorage) Seek(offset int64, whence int) (int64, error) {
	return s.f.Seek(offset, whence)
}

func (s *fileStorage) Stat() (fs.FileInfo, error) {
	return s.f.Stat()
}

func (s *fileStorage) Close() error {
	return s.f.Close()
}

// WriteAt method dummy stub to satisfy interface
func (s *fileStorage) WriteAt(p []byte, off int64) (n int, err error) {
	return 0, errStorageReadOnly
}

// Sys returns OS-specific file for ioctl calls via fd
func (s *fileStorage) Sys() (*os.File, error) {
	return s.f, nil
}

// Writable returns file for read-write operations
func (s *fileStorage) Writable() (backend.WritableFile, error) {
	return nil, errStorageReadOnly
}

// check interfaces
var _ backend.Storage = (*fileStorage)(nil)
