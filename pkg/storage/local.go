package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalStorage stores files on the local filesystem under a base directory,
// partitioned by upload date.
type LocalStorage struct {
	basePath string
}

// LocalConfig holds local storage settings.
type LocalConfig struct {
	Path string // base storage directory
}

// NewLocalStorage creates a local storage rooted at cfg.Path, creating the
// directory when necessary.
func NewLocalStorage(cfg LocalConfig) (*LocalStorage, error) {
	absPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{basePath: absPath}, nil
}

// Save writes the file under a year/month/day directory with a uuid name.
func (s *LocalStorage) Save(reader io.Reader, filename string) (FileInfo, error) {
	id := uuid.New().String()
	ext := filepath.Ext(filename)

	now := time.Now()
	datePath := filepath.Join(
		fmt.Sprintf("%04d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()),
	)

	dirPath := filepath.Join(s.basePath, datePath)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return FileInfo{}, fmt.Errorf("failed to create directory: %w", err)
	}

	filePath := filepath.Join(dirPath, id+ext)
	file, err := os.Create(filePath)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, reader)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to write file: %w", err)
	}

	return FileInfo{
		ID:       id,
		Name:     filename,
		Size:     size,
		MimeType: getMimeType(filename),
		Path:     filepath.Join(datePath, id+ext),
	}, nil
}

// Get opens the stored file with the given id.
func (s *LocalStorage) Get(id string) (io.ReadCloser, error) {
	filePath, err := s.findFilePathByID(id)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes the stored file with the given id.
func (s *LocalStorage) Delete(id string) error {
	filePath, err := s.findFilePathByID(id)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// List walks the storage tree and returns metadata for every file.
func (s *LocalStorage) List() ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.Walk(s.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(s.basePath, path)
		if err != nil {
			return err
		}

		fileName := filepath.Base(path)
		id := strings.TrimSuffix(fileName, filepath.Ext(fileName))

		files = append(files, FileInfo{
			ID:       id,
			Name:     fileName,
			Size:     info.Size(),
			MimeType: getMimeType(fileName),
			Path:     relPath,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return files, nil
}

// Exists reports whether a file with the given id is stored.
func (s *LocalStorage) Exists(id string) (bool, error) {
	_, err := s.findFilePathByID(id)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// findFilePathByID walks the tree looking for the file whose basename
// (minus extension) matches id.
func (s *LocalStorage) findFilePathByID(id string) (string, error) {
	var filePath string
	var found bool

	err := filepath.Walk(s.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		fileName := filepath.Base(path)
		if strings.TrimSuffix(fileName, filepath.Ext(fileName)) == id {
			filePath = path
			found = true
			return io.EOF // sentinel to stop the walk early
		}
		return nil
	})
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("error searching for file: %w", err)
	}

	if !found {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, id)
	}
	return filePath, nil
}
