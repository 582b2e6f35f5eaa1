package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"grocerybooks/internal/parser"
)

// Store keeps uploaded receipt text files under one directory
type Store struct {
	basePath string
}

// New creates a new file store with the given base path
func New(basePath string) (*Store, error) {
	// Create base directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create filestore directory: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

// Save stores a file under a fresh unique name and returns that name
func (s *Store) Save(filename string, r io.Reader) (string, error) {
	// Preserve original extension
	newFilename := uuid.NewString() + filepath.Ext(filename)
	fullPath := filepath.Join(s.basePath, newFilename)

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(fullPath) // Clean up on error
		return "", fmt.Errorf("write file: %w", err)
	}
	return newFilename, nil
}

// Get returns a reader for the named file
func (s *Store) Get(filename string) (*os.File, error) {
	fullPath, err := s.path(filename)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// ReadLines returns the text lines of a stored receipt
func (s *Store) ReadLines(filename string) ([]string, error) {
	f, err := s.Get(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	lines, err := parser.ReadLines(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return lines, nil
}

// Delete removes the named file; a missing file is not an error
func (s *Store) Delete(filename string) error {
	if filename == "" {
		return nil
	}
	fullPath, err := s.path(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// FullPath returns the full filesystem path for a filename
func (s *Store) FullPath(filename string) string {
	return filepath.Join(s.basePath, filename)
}

// path resolves a stored name, refusing anything outside the base directory
func (s *Store) path(filename string) (string, error) {
	if !filepath.IsLocal(filename) {
		return "", fmt.Errorf("invalid file name %q", filename)
	}
	return filepath.Join(s.basePath, filename), nil
}
