package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/noah-isme/sma-enrollment-wizard/pkg/storage"
)

// FileSlotRepository stores each slot as <dir>/<key>.json. It is the terminal client's
// local storage and survives process restarts.
type FileSlotRepository struct {
	files *storage.LocalStorage
}

// NewFileSlotRepository prepares the directory and returns the repository.
func NewFileSlotRepository(dir string) (*FileSlotRepository, error) {
	files, err := storage.NewLocalStorage(dir)
	if err != nil {
		return nil, err
	}
	return &FileSlotRepository{files: files}, nil
}

// Get reads the slot file.
func (r *FileSlotRepository) Get(_ context.Context, key string) ([]byte, error) {
	payload, err := r.files.Read(slotFileName(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, slotEmpty(key)
		}
		return nil, fmt.Errorf("read slot %s: %w", key, err)
	}
	return payload, nil
}

// Set writes the slot file atomically.
func (r *FileSlotRepository) Set(_ context.Context, key string, payload []byte) error {
	if _, err := r.files.Save(slotFileName(key), payload); err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	return nil
}

// Remove deletes the slot file if present.
func (r *FileSlotRepository) Remove(_ context.Context, key string) error {
	if err := r.files.Delete(slotFileName(key)); err != nil {
		return fmt.Errorf("remove slot %s: %w", key, err)
	}
	return nil
}

// Path reports where a slot lives on disk.
func (r *FileSlotRepository) Path(key string) string {
	return r.files.Path(slotFileName(key))
}

// slotFileName flattens a key into a single file name; session keys contain ':'.
func slotFileName(key string) string {
	replacer := strings.NewReplacer(":", "_", "/", "_", "\\", "_")
	return replacer.Replace(key) + ".json"
}
