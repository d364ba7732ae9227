package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-enrollment-wizard/internal/models"
	"github.com/noah-isme/sma-enrollment-wizard/internal/validation"
	appErrors "github.com/noah-isme/sma-enrollment-wizard/pkg/errors"
)

func TestGuardPendingUntilLoaded(t *testing.T) {
	wizard := NewWizardService(nil, nil, nil)
	store := NewFormStore(newFakeSlotRepo(), "slot", nil, nil)
	decision := wizard.Guard(store, models.StepAcademicDetails)
	assert.Equal(t, models.GuardPending, decision.Outcome)
}

func TestGuardRedirects(t *testing.T) {
	wizard := NewWizardService(nil, NewMetricsService(), nil)
	ctx := context.Background()

	store := NewFormStore(newFakeSlotRepo(), "slot", nil, nil)
	_, decision, err := wizard.View(ctx, store, models.StepAcademicDetails)
	require.NoError(t, err)
	assert.Equal(t, models.GuardRedirect, decision.Outcome)
	assert.Equal(t, models.StepStudentDetails, decision.Target)

	_, decision, err = wizard.View(ctx, store, models.StepAddressGuardian)
	require.NoError(t, err)
	assert.Equal(t, models.GuardRedirect, decision.Outcome)
	assert.Equal(t, models.StepAcademicDetails, decision.Target)

	view, decision, err := wizard.View(ctx, store, models.StepStudentDetails)
	require.NoError(t, err)
	assert.Equal(t, models.GuardProceed, decision.Outcome)
	assert.Equal(t, "Step 1 of 4", view.Progress.Label)
	assert.Empty(t, view.BackPath)
	assert.Equal(t, "/enroll/step-2", view.NextPath)
}

func TestGuardRedirectsToStudentDetailsWithoutClass(t *testing.T) {
	wizard := NewWizardService(nil, nil, nil)
	repo := newFakeSlotRepo()
	repo.slots["slot"] = []byte(`{"fullName":"Asha Rao"}`)
	store := NewFormStore(repo, "slot", nil, nil)

	_, decision, err := wizard.View(context.Background(), store, models.StepAcademicDetails)
	require.NoError(t, err)
	assert.Equal(t, models.GuardRedirect, decision.Outcome)
	assert.Equal(t, models.StepStudentDetails, decision.Target)
}

func TestSubmitStudentDetails(t *testing.T) {
	wizard := NewWizardService(nil, nil, nil)
	repo := newFakeSlotRepo()
	store := NewFormStore(repo, "slot", nil, nil)
	ctx := context.Background()

	bad := validStudentInput()
	bad.Mobile = "1234567890"
	_, _, err := wizard.SubmitStudentDetails(ctx, store, bad)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "Must be a valid 10-digit Indian mobile number", appErr.Fields["mobile"])
	assert.Equal(t, 0, repo.sets)

	result, decision, err := wizard.SubmitStudentDetails(ctx, store, validStudentInput())
	require.NoError(t, err)
	assert.Equal(t, models.GuardProceed, decision.Outcome)
	assert.Equal(t, "/enroll/step-2", result.NextPath)
	assert.Equal(t, "Asha Rao", models.Deref(result.Record.FullName))
	assert.True(t, repo.has("slot"))
}

func TestSubmitAcademicDetailsUsesRecordedClass(t *testing.T) {
	wizard := NewWizardService(nil, nil, nil)
	store := NewFormStore(newFakeSlotRepo(), "slot", nil, nil)
	ctx := context.Background()

	_, _, err := wizard.SubmitStudentDetails(ctx, store, validStudentInput())
	require.NoError(t, err)

	two := validAcademicInput()
	two.Subjects = []string{"Physics", "Chemistry"}
	_, _, err = wizard.SubmitAcademicDetails(ctx, store, two)
	require.Error(t, err)
	assert.Equal(t, "Class 11 students must select at least 3 subjects", appErrors.FromError(err).Fields["subjects"])

	result, _, err := wizard.SubmitAcademicDetails(ctx, store, validAcademicInput())
	require.NoError(t, err)
	assert.Equal(t, "/enroll/step-3", result.NextPath)
}

func TestSubmitBeforePrerequisiteRedirects(t *testing.T) {
	wizard := NewWizardService(nil, nil, nil)
	repo := newFakeSlotRepo()
	store := NewFormStore(repo, "slot", nil, nil)

	_, decision, err := wizard.SubmitAddressDetails(context.Background(), store, validAddressInput())
	require.NoError(t, err)
	assert.Equal(t, models.GuardRedirect, decision.Outcome)
	assert.Equal(t, models.StepAcademicDetails, decision.Target)
	assert.Equal(t, 0, repo.sets)
}

func TestStepTwoResubmissionIsIdempotent(t *testing.T) {
	wizard := NewWizardService(nil, nil, nil)
	store := NewFormStore(newFakeSlotRepo(), "slot", nil, nil)
	ctx := context.Background()

	_, _, err := wizard.SubmitStudentDetails(ctx, store, validStudentInput())
	require.NoError(t, err)
	_, _, err = wizard.SubmitAcademicDetails(ctx, store, validAcademicInput())
	require.NoError(t, err)
	first := store.Snapshot()

	_, _, err = wizard.SubmitAcademicDetails(ctx, store, validAcademicInput())
	require.NoError(t, err)
	assert.Equal(t, first, store.Snapshot())
	assert.Equal(t, "Asha Rao", models.Deref(store.Snapshot().FullName))
}

func TestStepOneValuesSurviveReload(t *testing.T) {
	repo := newFakeSlotRepo()
	wizard := NewWizardService(nil, nil, nil)
	ctx := context.Background()

	sessions := newTestSessions(repo)
	session := sessions.Session("6a1d7c1e-6a55-4d7e-9b7e-0f4f4b9b2c11")
	_, _, err := wizard.SubmitStudentDetails(ctx, session.Store, validStudentInput())
	require.NoError(t, err)

	reloaded := newTestSessions(repo).Session(session.ID)
	view, decision, err := wizard.View(ctx, reloaded.Store, models.StepStudentDetails)
	require.NoError(t, err)
	require.Equal(t, models.GuardProceed, decision.Outcome)
	assert.Equal(t, "Asha Rao", models.Deref(view.Values.FullName))
	assert.Equal(t, "9876543210", models.Deref(view.Values.Mobile))
	assert.Nil(t, view.Values.Subjects)
}

func TestAcademicViewOffersSubjectsForClass(t *testing.T) {
	wizard := NewWizardService(nil, nil, nil)
	store := NewFormStore(newFakeSlotRepo(), "slot", nil, nil)
	ctx := context.Background()

	in := validStudentInput()
	in.StudentClass = "9"
	_, _, err := wizard.SubmitStudentDetails(ctx, store, in)
	require.NoError(t, err)

	view, _, err := wizard.View(ctx, store, models.StepAcademicDetails)
	require.NoError(t, err)
	assert.Equal(t, models.SubjectsForClass("9"), view.Options["subjects"])
	assert.Equal(t, "/enroll/step-1", view.BackPath)
}

func TestViewRejectsReviewAndUnknownSteps(t *testing.T) {
	wizard := NewWizardService(validation.NewEngine(), nil, nil)
	store := NewFormStore(newFakeSlotRepo(), "slot", nil, nil)
	_, _, err := wizard.View(context.Background(), store, models.StepReview)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	_, _, err = wizard.View(context.Background(), store, models.Step(7))
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestBackKeepsRecord(t *testing.T) {
	wizard := NewWizardService(nil, nil, nil)
	path, ok := wizard.Back(models.StepAddressGuardian)
	assert.True(t, ok)
	assert.Equal(t, "/enroll/step-2", path)
	_, ok = wizard.Back(models.StepStudentDetails)
	assert.False(t, ok)
}
