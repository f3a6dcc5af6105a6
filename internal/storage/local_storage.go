// Package storage keeps uploaded answer recordings on local disk for the
// short time it takes to analyze them.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	nanoid "github.com/jaevor/go-nanoid"
)

var (
	ErrTooLarge  = errors.New("upload exceeds size limit")
	ErrInvalidID = errors.New("invalid upload id")
)

type LocalStorage struct {
	basePath string
	newID    func() string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, err
	}
	gen, err := nanoid.Standard(21)
	if err != nil {
		return nil, err
	}
	return &LocalStorage{basePath: basePath, newID: gen}, nil
}

// NewID returns a fresh URL-safe identifier for an upload.
func (ls *LocalStorage) NewID() string {
	return ls.newID()
}

// Files are sharded by the first two characters of their id.
func (ls *LocalStorage) getPathFromID(id string) (string, error) {
	if len(id) < 3 || strings.ContainsAny(id, `/\.`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return filepath.Join(ls.basePath, id[:2], id), nil
}

// Save writes data under id. A positive maxBytes caps the stored size; an
// oversized upload is removed and reported as ErrTooLarge.
func (ls *LocalStorage) Save(id string, data io.Reader, maxBytes int64) (int64, error) {
	filePath, err := ls.getPathFromID(id)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o750); err != nil {
		return 0, err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return 0, err
	}

	src := data
	if maxBytes > 0 {
		src = io.LimitReader(data, maxBytes+1)
	}
	n, err := io.Copy(file, src)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err == nil && maxBytes > 0 && n > maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(filePath)
		return 0, err
	}
	return n, nil
}

func (ls *LocalStorage) Open(id string) (io.ReadCloser, error) {
	filePath, err := ls.getPathFromID(id)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("upload %s not found: %w", id, err)
		}
		return nil, err
	}

	return file, nil
}

// Delete is idempotent.
func (ls *LocalStorage) Delete(id string) error {
	filePath, err := ls.getPathFromID(id)
	if err != nil {
		return err
	}

	err = os.Remove(filePath)
	if os.IsNotExist(err) {
		return nil
	}

	return err
}

// Sweep removes uploads last modified before now-olderThan, left behind by a
// crash mid-request. It returns how many files were removed.
func (ls *LocalStorage) Sweep(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	removed := 0

	err := filepath.WalkDir(ls.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return err
			}
			removed++
		}
		return nil
	})

	return removed, err
}
