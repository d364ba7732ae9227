package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-enrollment-wizard/internal/models"
	appErrors "github.com/noah-isme/sma-enrollment-wizard/pkg/errors"
)

type slotRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte) error
	Remove(ctx context.Context, key string) error
}

// FormStore is the single source of truth for one session's answers. It reads the
// persisted slot exactly once and writes the full record back after every update.
type FormStore struct {
	mu      sync.RWMutex
	repo    slotRepository
	key     string
	state   models.StoreState
	sealed  bool
	record  models.EnrollmentRecord
	metrics *MetricsService
	logger  *zap.Logger
}

// NewFormStore constructs an uninitialized store bound to a slot key.
func NewFormStore(repo slotRepository, key string, metrics *MetricsService, logger *zap.Logger) *FormStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormStore{repo: repo, key: key, metrics: metrics, logger: logger}
}

// Key returns the slot key backing the store.
func (s *FormStore) Key() string {
	return s.key
}

// Load reads the persisted record. Only the first successful call reads; later calls
// return immediately. Missing or malformed payloads yield an empty record.
func (s *FormStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != models.StoreUninitialized {
		return nil
	}

	start := time.Now()
	payload, err := s.repo.Get(ctx, s.key)
	s.metrics.ObserveSlotOperation("get", time.Since(start))
	switch {
	case errors.Is(err, appErrors.ErrSlotEmpty):
		s.setRecord(models.EnrollmentRecord{})
		return nil
	case err != nil:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment progress")
	}

	var record models.EnrollmentRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		s.logger.Warn("discarding malformed enrollment slot", zap.String("slot", s.key), zap.Error(err))
		record = models.EnrollmentRecord{}
	}
	s.setRecord(record)
	return nil
}

// State reports whether the store has loaded and whether anything was recorded.
func (s *FormStore) State() models.StoreState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Loaded is true once the initial read has completed.
func (s *FormStore) Loaded() bool {
	return s.State() != models.StoreUninitialized
}

// Snapshot returns a copy of the current record.
func (s *FormStore) Snapshot() models.EnrollmentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.Clone()
}

// Seal refuses updates until Unseal. Clear still works.
func (s *FormStore) Seal() {
	s.mu.Lock()
	s.sealed = true
	s.mu.Unlock()
}

// Unseal lifts Seal.
func (s *FormStore) Unseal() {
	s.mu.Lock()
	s.sealed = false
	s.mu.Unlock()
}

// Sealed reports whether updates are currently refused.
func (s *FormStore) Sealed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sealed
}

// Update merges partial into the record and persists the result. Updates before the
// initial load are refused so they cannot clobber unread progress, and so are updates
// while the store is sealed for submission.
func (s *FormStore) Update(ctx context.Context, partial models.EnrollmentRecord) (models.EnrollmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == models.StoreUninitialized {
		return models.EnrollmentRecord{}, appErrors.ErrStoreNotLoaded
	}
	if s.sealed {
		return models.EnrollmentRecord{}, errStoreSealed()
	}

	merged := s.record.Merge(partial)
	payload, err := json.Marshal(merged)
	if err != nil {
		return models.EnrollmentRecord{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode enrollment progress")
	}

	start := time.Now()
	err = s.repo.Set(ctx, s.key, payload)
	s.metrics.ObserveSlotOperation("set", time.Since(start))
	if err != nil {
		return models.EnrollmentRecord{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save enrollment progress")
	}

	s.setRecord(merged)
	return merged.Clone(), nil
}

// Clear removes the persisted slot and resets the in-memory record to empty.
func (s *FormStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	err := s.repo.Remove(ctx, s.key)
	s.metrics.ObserveSlotOperation("remove", time.Since(start))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear enrollment progress")
	}
	s.setRecord(models.EnrollmentRecord{})
	return nil
}

func errStoreSealed() error {
	return appErrors.Clone(appErrors.ErrConflict, "Submission in progress; answers can no longer be changed")
}

func (s *FormStore) setRecord(record models.EnrollmentRecord) {
	s.record = record
	if record.IsEmpty() {
		s.state = models.StoreEmpty
		return
	}
	s.state = models.StorePopulated
}
