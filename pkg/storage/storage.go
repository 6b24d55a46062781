package storage

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// ErrFileNotFound means no stored file matches the given id.
var ErrFileNotFound = errors.New("file not found")

// FileInfo describes one stored file.
type FileInfo struct {
	ID       string // unique file identifier
	Name     string // original file name
	Size     int64  // size in bytes
	MimeType string // detected MIME type
	Path     string // implementation-specific storage path
}

// Storage stores uploaded source documents before they enter the chunking
// pipeline. Implementations exist for the local filesystem and MinIO.
type Storage interface {
	// Save stores the file content and returns its metadata.
	Save(reader io.Reader, filename string) (FileInfo, error)

	// Get returns a reader for the stored file.
	Get(id string) (io.ReadCloser, error)

	// Delete removes a stored file.
	Delete(id string) error

	// List returns metadata for every stored file.
	List() ([]FileInfo, error)

	// Exists reports whether a file with the given id is stored.
	Exists(id string) (bool, error)
}

// getMimeType maps a filename extension to a MIME type.
func getMimeType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt", ".text", ".log":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
