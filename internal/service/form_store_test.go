package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-enrollment-wizard/internal/models"
	appErrors "github.com/noah-isme/sma-enrollment-wizard/pkg/errors"
)

func TestFormStoreLoadsOnce(t *testing.T) {
	repo := newFakeSlotRepo()
	repo.slots["slot"] = []byte(`{"fullName":"Asha Rao"}`)
	store := NewFormStore(repo, "slot", nil, nil)

	assert.Equal(t, models.StoreUninitialized, store.State())
	assert.False(t, store.Loaded())

	require.NoError(t, store.Load(context.Background()))
	require.NoError(t, store.Load(context.Background()))
	assert.Equal(t, 1, repo.gets)
	assert.Equal(t, models.StorePopulated, store.State())
	assert.Equal(t, "Asha Rao", models.Deref(store.Snapshot().FullName))
}

func TestFormStoreMissingAndMalformedSlots(t *testing.T) {
	repo := newFakeSlotRepo()
	empty := NewFormStore(repo, "missing", nil, nil)
	require.NoError(t, empty.Load(context.Background()))
	assert.Equal(t, models.StoreEmpty, empty.State())

	repo.slots["broken"] = []byte(`{not json`)
	broken := NewFormStore(repo, "broken", nil, nil)
	require.NoError(t, broken.Load(context.Background()))
	assert.Equal(t, models.StoreEmpty, broken.State())
	assert.True(t, broken.Snapshot().IsEmpty())
}

func TestFormStoreLoadFailureStaysUninitialized(t *testing.T) {
	repo := newFakeSlotRepo()
	repo.getErr = errBoom
	store := NewFormStore(repo, "slot", nil, nil)
	err := store.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.False(t, store.Loaded())

	repo.getErr = nil
	require.NoError(t, store.Load(context.Background()))
	assert.True(t, store.Loaded())
}

func TestFormStoreRefusesWritesBeforeLoad(t *testing.T) {
	repo := newFakeSlotRepo()
	repo.slots["slot"] = []byte(`{"fullName":"Asha Rao"}`)
	store := NewFormStore(repo, "slot", nil, nil)

	_, err := store.Update(context.Background(), models.EnrollmentRecord{City: models.StringPtr("Pune")})
	assert.ErrorIs(t, err, appErrors.ErrStoreNotLoaded)
	assert.Equal(t, 0, repo.sets)
	assert.JSONEq(t, `{"fullName":"Asha Rao"}`, string(repo.slots["slot"]))
}

func TestFormStoreUpdatePersistsMergedRecord(t *testing.T) {
	repo := newFakeSlotRepo()
	repo.slots["slot"] = []byte(`{"fullName":"Asha Rao","studentClass":"10"}`)
	store := NewFormStore(repo, "slot", nil, nil)
	require.NoError(t, store.Load(context.Background()))

	merged, err := store.Update(context.Background(), models.EnrollmentRecord{Subjects: []string{"Math", "Science"}})
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", models.Deref(merged.FullName))

	var persisted models.EnrollmentRecord
	require.NoError(t, json.Unmarshal(repo.slots["slot"], &persisted))
	assert.Equal(t, "10", models.Deref(persisted.StudentClass))
	assert.Equal(t, []string{"Math", "Science"}, persisted.Subjects)
}

func TestFormStoreUpdateFailureKeepsPreviousRecord(t *testing.T) {
	repo := newFakeSlotRepo()
	store := NewFormStore(repo, "slot", nil, nil)
	require.NoError(t, store.Load(context.Background()))

	repo.setErr = errBoom
	_, err := store.Update(context.Background(), models.EnrollmentRecord{City: models.StringPtr("Pune")})
	require.Error(t, err)
	assert.True(t, store.Snapshot().IsEmpty())
	assert.Equal(t, models.StoreEmpty, store.State())
}

func TestFormStoreClear(t *testing.T) {
	repo := newFakeSlotRepo()
	repo.slots["slot"] = []byte(`{"fullName":"Asha Rao"}`)
	store := NewFormStore(repo, "slot", nil, nil)
	require.NoError(t, store.Load(context.Background()))

	require.NoError(t, store.Clear(context.Background()))
	assert.False(t, repo.has("slot"))
	assert.Equal(t, models.StoreEmpty, store.State())
	assert.True(t, store.Snapshot().IsEmpty())
}

func TestFormStoreSnapshotIsACopy(t *testing.T) {
	repo := newFakeSlotRepo()
	store := NewFormStore(repo, "slot", nil, nil)
	require.NoError(t, store.Load(context.Background()))
	_, err := store.Update(context.Background(), models.EnrollmentRecord{Subjects: []string{"Math"}})
	require.NoError(t, err)

	snap := store.Snapshot()
	snap.Subjects[0] = "Hindi"
	assert.Equal(t, []string{"Math"}, store.Snapshot().Subjects)
}

func TestFormStoreSealRefusesUpdates(t *testing.T) {
	repo := newFakeSlotRepo()
	store := NewFormStore(repo, "slot", nil, nil)
	ctx := context.Background()
	require.NoError(t, store.Load(ctx))
	_, err := store.Update(ctx, models.EnrollmentRecord{City: models.StringPtr("Bengaluru")})
	require.NoError(t, err)

	store.Seal()
	_, err = store.Update(ctx, models.EnrollmentRecord{City: models.StringPtr("Mysuru")})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Equal(t, "Bengaluru", models.Deref(store.Snapshot().City))

	require.NoError(t, store.Clear(ctx), "clear is allowed while sealed")
	store.Unseal()
	_, err = store.Update(ctx, models.EnrollmentRecord{City: models.StringPtr("Mysuru")})
	assert.NoError(t, err)
}
