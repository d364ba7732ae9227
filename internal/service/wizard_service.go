package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-enrollment-wizard/internal/models"
	"github.com/noah-isme/sma-enrollment-wizard/internal/validation"
	appErrors "github.com/noah-isme/sma-enrollment-wizard/pkg/errors"
)

// StepValidationMessage heads every field-scoped step rejection.
const StepValidationMessage = "Please fix the highlighted fields"

// WizardService runs the step guards and merges validated step forms into a FormStore.
type WizardService struct {
	engine  *validation.Engine
	metrics *MetricsService
	logger  *zap.Logger
}

// NewWizardService constructs the step controller.
func NewWizardService(engine *validation.Engine, metrics *MetricsService, logger *zap.Logger) *WizardService {
	if engine == nil {
		engine = validation.NewEngine()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WizardService{engine: engine, metrics: metrics, logger: logger}
}

// Engine exposes the validation engine shared with the review service.
func (s *WizardService) Engine() *validation.Engine {
	return s.engine
}

// Guard decides whether step may be entered given the store's current record.
// Nothing is decided until the store has loaded.
func (s *WizardService) Guard(store *FormStore, step models.Step) models.GuardDecision {
	if !store.Loaded() {
		return models.GuardDecision{Outcome: models.GuardPending}
	}
	record := store.Snapshot()

	var decision models.GuardDecision
	switch step {
	case models.StepAcademicDetails:
		switch {
		case blank(record.FullName):
			decision = redirectTo(models.StepStudentDetails, "Complete Student Details first")
		case blank(record.StudentClass):
			decision = redirectTo(models.StepStudentDetails, "Select your class in Student Details before choosing subjects")
		}
	case models.StepAddressGuardian:
		if len(record.Subjects) == 0 {
			decision = redirectTo(models.StepAcademicDetails, "Complete Academic Details first")
		}
	}

	if decision.Outcome == models.GuardRedirect {
		s.metrics.RecordGuardRedirect(step)
		s.logger.Debug("guard redirect",
			zap.String("requested", step.Slug()),
			zap.String("target", decision.Target.Slug()),
		)
		return decision
	}
	return models.GuardDecision{Outcome: models.GuardProceed, Target: step}
}

// View loads the store if needed, applies the guard and builds the step screen.
// When the decision is not GuardProceed the returned view is empty.
func (s *WizardService) View(ctx context.Context, store *FormStore, step models.Step) (models.StepView, models.GuardDecision, error) {
	if !step.Valid() || step == models.StepReview {
		return models.StepView{}, models.GuardDecision{}, appErrors.Clone(appErrors.ErrNotFound, "unknown step")
	}
	if err := store.Load(ctx); err != nil {
		return models.StepView{}, models.GuardDecision{}, err
	}
	decision := s.Guard(store, step)
	if decision.Outcome != models.GuardProceed {
		return models.StepView{}, decision, nil
	}
	return s.buildView(step, store.Snapshot()), decision, nil
}

// SubmitStudentDetails validates and merges the step 1 form.
func (s *WizardService) SubmitStudentDetails(ctx context.Context, store *FormStore, in validation.StudentDetailsInput) (models.StepResult, models.GuardDecision, error) {
	return s.submit(ctx, store, models.StepStudentDetails, func(models.EnrollmentRecord) (models.EnrollmentRecord, validation.FieldErrors) {
		errs := s.engine.ValidateStudentDetails(&in)
		return in.ToRecord(), errs
	})
}

// SubmitAcademicDetails validates the step 2 form against rules derived from the
// recorded class, then merges it.
func (s *WizardService) SubmitAcademicDetails(ctx context.Context, store *FormStore, in validation.AcademicDetailsInput) (models.StepResult, models.GuardDecision, error) {
	return s.submit(ctx, store, models.StepAcademicDetails, func(current models.EnrollmentRecord) (models.EnrollmentRecord, validation.FieldErrors) {
		rules := validation.NewAcademicRules(models.Deref(current.StudentClass))
		errs := rules.Validate(s.engine, &in)
		return in.ToRecord(), errs
	})
}

// SubmitAddressDetails validates and merges the step 3 form.
func (s *WizardService) SubmitAddressDetails(ctx context.Context, store *FormStore, in validation.AddressDetailsInput) (models.StepResult, models.GuardDecision, error) {
	return s.submit(ctx, store, models.StepAddressGuardian, func(models.EnrollmentRecord) (models.EnrollmentRecord, validation.FieldErrors) {
		errs := s.engine.ValidateAddressDetails(&in)
		return in.ToRecord(), errs
	})
}

// Back returns the path of the step before step. Recorded answers are kept.
func (s *WizardService) Back(step models.Step) (string, bool) {
	prev, ok := step.Previous()
	if !ok {
		return "", false
	}
	return prev.Path(), true
}

type stepValidator func(current models.EnrollmentRecord) (models.EnrollmentRecord, validation.FieldErrors)

func (s *WizardService) submit(ctx context.Context, store *FormStore, step models.Step, validate stepValidator) (models.StepResult, models.GuardDecision, error) {
	if err := store.Load(ctx); err != nil {
		return models.StepResult{}, models.GuardDecision{}, err
	}
	if store.Sealed() {
		s.metrics.RecordStepSubmission(step, false)
		return models.StepResult{}, models.GuardDecision{}, errStoreSealed()
	}
	decision := s.Guard(store, step)
	if decision.Outcome != models.GuardProceed {
		return models.StepResult{}, decision, nil
	}

	partial, errs := validate(store.Snapshot())
	if !errs.Empty() {
		s.metrics.RecordStepSubmission(step, false)
		return models.StepResult{}, decision, errs.Err(StepValidationMessage)
	}

	record, err := store.Update(ctx, partial)
	if err != nil {
		return models.StepResult{}, decision, err
	}
	s.metrics.RecordStepSubmission(step, true)

	next, _ := step.Next()
	s.logger.Info("step accepted", zap.String("step", step.Slug()), zap.String("next", next.Slug()))
	return models.StepResult{Step: step, NextPath: next.Path(), Record: record}, decision, nil
}

func (s *WizardService) buildView(step models.Step, record models.EnrollmentRecord) models.StepView {
	view := models.StepView{
		Step:     step,
		Title:    step.Title(),
		Path:     step.Path(),
		Progress: models.ProgressFor(step),
		Values:   stepValues(step, record),
		Options:  stepOptions(step, record),
	}
	if back, ok := s.Back(step); ok {
		view.BackPath = back
	}
	if next, ok := step.Next(); ok {
		view.NextPath = next.Path()
	}
	return view
}

// stepValues narrows the record to the fields owned by step, for pre-filling its form.
func stepValues(step models.Step, r models.EnrollmentRecord) models.EnrollmentRecord {
	switch step {
	case models.StepStudentDetails:
		return models.EnrollmentRecord{
			FullName: r.FullName, Email: r.Email, Mobile: r.Mobile,
			StudentClass: r.StudentClass, Board: r.Board, Language: r.Language,
		}.Clone()
	case models.StepAcademicDetails:
		return models.EnrollmentRecord{
			Subjects: r.Subjects, ExamGoal: r.ExamGoal, StudyHours: r.StudyHours,
			HasScholarship: r.HasScholarship, LastExamScore: r.LastExamScore, Achievements: r.Achievements,
		}.Clone()
	case models.StepAddressGuardian:
		return models.EnrollmentRecord{
			PinCode: r.PinCode, City: r.City, State: r.State, Address: r.Address,
			GuardianName: r.GuardianName, GuardianMobile: r.GuardianMobile,
			PaymentPlan: r.PaymentPlan, PaymentMode: r.PaymentMode,
		}.Clone()
	default:
		return r.Clone()
	}
}

func stepOptions(step models.Step, r models.EnrollmentRecord) map[string][]string {
	switch step {
	case models.StepStudentDetails:
		return map[string][]string{
			"studentClass": models.ClassOptions,
			"board":        models.BoardOptions,
			"language":     models.LanguageOptions,
		}
	case models.StepAcademicDetails:
		return map[string][]string{
			"subjects": models.SubjectsForClass(models.Deref(r.StudentClass)),
			"examGoal": models.ExamGoalOptions,
		}
	case models.StepAddressGuardian:
		return map[string][]string{
			"paymentPlan": models.PaymentPlanOptions,
			"paymentMode": models.PaymentModeOptions,
		}
	default:
		return nil
	}
}

func redirectTo(target models.Step, reason string) models.GuardDecision {
	return models.GuardDecision{Outcome: models.GuardRedirect, Target: target, Reason: reason}
}

func blank(p *string) bool {
	return p == nil || strings.TrimSpace(*p) == ""
}
