// Package home manages the bindery home directory and the on-disk
// artifact layout for downloaded books.
package home

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/canytam/bindery/internal/book"
)

const (
	// DefaultDirName is the default name for the bindery home directory.
	DefaultDirName = ".bindery"

	// LibraryDirName is the subdirectory holding per-site book trees.
	LibraryDirName = "library"

	// CompletedTag is the root segment books are relocated under once
	// the source reports them finished.
	CompletedTag = "completed"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the bindery home directory structure.
//
// Artifacts for a book live under exactly one of two roots at a time:
//
//	<library>/<site>/<bookDir>/...        (active)
//	<library>/completed/<bookDir>/...     (archived)
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.bindery).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// LibraryPath returns the path to the library directory.
func (d *Dir) LibraryPath() string {
	return filepath.Join(d.path, LibraryDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.LibraryPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create library directory: %w", err)
	}
	return nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// BookDir returns the active root directory for a book.
func (d *Dir) BookDir(site, bookDir string) string {
	return filepath.Join(d.LibraryPath(), site, bookDir)
}

// CompletedBookDir returns the archived root directory for a book.
func (d *Dir) CompletedBookDir(bookDir string) string {
	return filepath.Join(d.LibraryPath(), CompletedTag, bookDir)
}

// ImagesDir returns the directory holding image URL list artifacts.
func (d *Dir) ImagesDir(site, bookDir string) string {
	return filepath.Join(d.BookDir(site, bookDir), bookDir+"-images")
}

// PDFDir returns the directory holding assembled chapter PDFs.
func (d *Dir) PDFDir(site, bookDir string) string {
	return filepath.Join(d.BookDir(site, bookDir), bookDir+"-pdf")
}

// ImageListPath returns the path to a chapter's image URL list artifact.
// Chapter indices are 1-based.
func (d *Dir) ImageListPath(site, bookDir string, ch book.Chapter) string {
	name := fmt.Sprintf("ch%04d - %s - %s.txt", ch.Index, book.Sanitize(ch.Name), site)
	return filepath.Join(d.ImagesDir(site, bookDir), name)
}

// PDFPath returns the path to a chapter's assembled PDF artifact.
func (d *Dir) PDFPath(site, bookDir string, ch book.Chapter) string {
	name := fmt.Sprintf("ch%04d - %s.pdf", ch.Index, book.Sanitize(ch.Name))
	return filepath.Join(d.PDFDir(site, bookDir), name)
}

// ImageListExists reports whether discovery already produced a URL list
// for the chapter. This existence check is the sole resumability signal.
func (d *Dir) ImageListExists(site, bookDir string, ch book.Chapter) bool {
	_, err := os.Stat(d.ImageListPath(site, bookDir, ch))
	return err == nil
}

// PDFExists reports whether the chapter's PDF artifact exists.
func (d *Dir) PDFExists(site, bookDir string, ch book.Chapter) bool {
	_, err := os.Stat(d.PDFPath(site, bookDir, ch))
	return err == nil
}

// Archived reports whether the book already lives under the completed root.
func (d *Dir) Archived(bookDir string) bool {
	_, err := os.Stat(d.CompletedBookDir(bookDir))
	return err == nil
}

// EnsureBookDirs creates the active book tree for a book.
func (d *Dir) EnsureBookDirs(site, bookDir string) error {
	for _, dir := range []string{
		d.ImagesDir(site, bookDir),
		d.PDFDir(site, bookDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Archive relocates a book from its active root to the completed root.
// The move is a single rename, so an observer never sees the book at
// both roots. Archiving an already archived book is a no-op.
func (d *Dir) Archive(site, bookDir string) error {
	if d.Archived(bookDir) {
		return nil
	}

	src := d.BookDir(site, bookDir)
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("book directory missing: %w", err)
	}

	dst := d.CompletedBookDir(bookDir)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create completed root: %w", err)
	}

	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to archive book: %w", err)
	}
	return nil
}

// WriteArtifact writes data to path atomically: the content lands in a
// temporary file in the destination directory and is renamed into place,
// so readers never observe a partially written artifact.
func WriteArtifact(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close artifact: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to finalize artifact: %w", err)
	}
	return nil
}
