// Package documents stores uploaded receipt files on the local filesystem.
// Stored names are random UUIDs so user-supplied filenames never touch the
// filesystem; the original name is kept in the database only.
package documents

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"buchhaltung/internal/core"
)

// allowedExtensions lists the receipt file types accepted for upload.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

type Store struct {
	dir     string
	maxSize int64
}

// NewStore creates (if necessary) the upload directory and returns a store.
// maxSize caps the size of a single file in bytes.
func NewStore(dir string, maxSize int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Store{dir: dir, maxSize: maxSize}, nil
}

// Save writes the uploaded content under a fresh UUID name and returns the
// stored filename. originalName is only used for its extension.
func (s *Store) Save(originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return "", core.Validationf("file type %q is not allowed", ext)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(r, s.maxSize+1))
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write file: %w", err)
	}
	if n > s.maxSize {
		os.Remove(path)
		return "", core.Validationf("file exceeds maximum size of %d bytes", s.maxSize)
	}
	return name, nil
}

// Open returns the stored file for reading.
func (s *Store) Open(filename string) (*os.File, error) {
	path, err := s.safePath(filename)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, core.NotFoundf("file %s not found", filename)
	}
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// Remove deletes a stored file. A missing file is not an error; the database
// row is authoritative and the file may already be gone.
func (s *Store) Remove(filename string) error {
	path, err := s.safePath(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// safePath rejects names that would escape the upload directory.
func (s *Store) safePath(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) {
		return "", core.Validationf("invalid filename")
	}
	return filepath.Join(s.dir, filename), nil
}
