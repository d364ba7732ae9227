package repository

import (
	"context"
	"fmt"
	"sync"

	appErrors "github.com/noah-isme/sma-enrollment-wizard/pkg/errors"
)

// SlotRepository persists the serialized wizard record under a string key.
// Get returns appErrors.ErrSlotEmpty when nothing is stored.
type SlotRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte) error
	Remove(ctx context.Context, key string) error
}

// MemorySlotRepository keeps slots in process memory.
type MemorySlotRepository struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewMemorySlotRepository constructs an empty in-memory repository.
func NewMemorySlotRepository() *MemorySlotRepository {
	return &MemorySlotRepository{slots: make(map[string][]byte)}
}

// Get returns a copy of the stored payload.
func (r *MemorySlotRepository) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	payload, ok := r.slots[key]
	if !ok {
		return nil, slotEmpty(key)
	}
	return append([]byte(nil), payload...), nil
}

// Set replaces the payload stored under key.
func (r *MemorySlotRepository) Set(_ context.Context, key string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[key] = append([]byte(nil), payload...)
	return nil
}

// Remove deletes the slot; removing a missing slot is not an error.
func (r *MemorySlotRepository) Remove(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.slots, key)
	return nil
}

func slotEmpty(key string) error {
	return appErrors.Wrap(fmt.Errorf("slot %s", key), appErrors.ErrSlotEmpty.Code, appErrors.ErrSlotEmpty.Status, appErrors.ErrSlotEmpty.Message)
}
