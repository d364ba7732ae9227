package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-enrollment-wizard/internal/models"
	"github.com/noah-isme/sma-enrollment-wizard/internal/validation"
	appErrors "github.com/noah-isme/sma-enrollment-wizard/pkg/errors"
)

// SubmissionSuccessMessage is shown once an enrollment has been submitted.
const SubmissionSuccessMessage = "Your enrollment has been submitted."

type receiptDispatcher interface {
	Dispatch(ctx context.Context, submission models.Submission) (string, *time.Time, error)
}

// ReviewConfig tunes the terminal submission.
type ReviewConfig struct {
	Delay time.Duration
}

// ReviewService renders the review screen and performs the final submission.
type ReviewService struct {
	engine   *validation.Engine
	receipts receiptDispatcher
	cfg      ReviewConfig
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
	wait     func(time.Duration)
}

// NewReviewService constructs the review service. receipts may be nil, in which case
// submissions produce no receipt link.
func NewReviewService(engine *validation.Engine, receipts receiptDispatcher, cfg ReviewConfig, metrics *MetricsService, logger *zap.Logger) *ReviewService {
	if engine == nil {
		engine = validation.NewEngine()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	return &ReviewService{
		engine:   engine,
		receipts: receipts,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
		wait:     time.Sleep,
	}
}

// View builds the review screen from the session's record.
func (s *ReviewService) View(ctx context.Context, session *Session) (models.ReviewView, error) {
	if err := session.Store.Load(ctx); err != nil {
		return models.ReviewView{}, err
	}
	record := session.Store.Snapshot()
	_, _, complete := s.engine.FirstIncompleteStep(record)
	return models.ReviewView{
		Progress:   models.ProgressFor(models.StepReview),
		Sections:   ReviewSections(record),
		Complete:   complete,
		Submitting: session.Submitting(),
	}, nil
}

// Submit performs the terminal action: wait out the configured delay, emit the record
// as a diagnostic, clear the persisted slot and reset the in-memory record. A second
// call while one is in flight is refused, and so are step edits: the store stays sealed
// until Submit returns. The delay runs to completion even if ctx is cancelled.
func (s *ReviewService) Submit(ctx context.Context, session *Session) (models.Submission, error) {
	if !session.BeginSubmit() {
		s.metrics.RecordSubmission("conflict")
		return models.Submission{}, appErrors.Clone(appErrors.ErrConflict, "Submission already in progress")
	}
	defer session.EndSubmit()
	session.Store.Seal()
	defer session.Store.Unseal()

	ctx = context.WithoutCancel(ctx)
	if err := session.Store.Load(ctx); err != nil {
		s.metrics.RecordSubmission("failed")
		return models.Submission{}, err
	}

	record := session.Store.Snapshot()
	if step, errs, ok := s.engine.FirstIncompleteStep(record); !ok {
		s.metrics.RecordSubmission("incomplete")
		appErr := appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("Complete %s before submitting", step.Title()))
		appErr.Fields = map[string]string(errs)
		return models.Submission{}, appErr
	}

	s.wait(s.cfg.Delay)

	submission := models.Submission{
		ID:          uuid.NewString(),
		SessionID:   session.ID,
		SubmittedAt: s.now().UTC(),
		Record:      record,
		Message:     SubmissionSuccessMessage,
	}

	pretty, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		s.metrics.RecordSubmission("failed")
		return models.Submission{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode submission")
	}
	s.logger.Info("final submission payload",
		zap.String("submission_id", submission.ID),
		zap.String("session_id", session.ID),
		zap.String("payload", string(pretty)),
	)

	if s.receipts != nil {
		url, expires, err := s.receipts.Dispatch(ctx, submission)
		if err != nil {
			s.logger.Warn("receipt dispatch failed", zap.String("submission_id", submission.ID), zap.Error(err))
		} else {
			submission.ReceiptURL = url
			submission.ReceiptExpiresAt = expires
		}
	}

	if err := session.Store.Clear(ctx); err != nil {
		s.metrics.RecordSubmission("failed")
		return models.Submission{}, err
	}

	s.metrics.RecordSubmission("success")
	return submission, nil
}

// Reset discards the session's progress ("Start New Form").
func (s *ReviewService) Reset(ctx context.Context, session *Session) error {
	if session.Submitting() {
		return appErrors.Clone(appErrors.ErrConflict, "Submission already in progress")
	}
	if err := session.Store.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info("enrollment progress reset", zap.String("session_id", session.ID))
	return nil
}

// ReviewSections groups the record's displayable values by originating step. Absent
// values are skipped; composite lines appear only when all their parts are present.
func ReviewSections(r models.EnrollmentRecord) []models.ReviewSection {
	student := sectionFor(models.StepStudentDetails)
	student.add("Name", r.FullName)
	student.add("Email", r.Email)
	student.add("Mobile", r.Mobile)
	student.add("Class", r.StudentClass)
	student.add("Board", r.Board)
	student.add("Language", r.Language)

	academic := sectionFor(models.StepAcademicDetails)
	if len(r.Subjects) > 0 {
		academic.addValue("Subjects", strings.Join(r.Subjects, ", "))
	}
	academic.add("Goal", r.ExamGoal)
	if r.StudyHours != nil {
		academic.addValue("Study Hours", formatNumber(*r.StudyHours))
	}
	if r.HasScholarship != nil {
		academic.addValue("Scholarship", yesNo(*r.HasScholarship))
	}
	if r.Scholarship() && r.LastExamScore != nil {
		academic.addValue("Last Exam Score", formatNumber(*r.LastExamScore))
	}
	academic.add("Achievements", r.Achievements)

	address := sectionFor(models.StepAddressGuardian)
	if !blank(r.Address) && !blank(r.City) && !blank(r.State) && !blank(r.PinCode) {
		address.addValue("Address", fmt.Sprintf("%s, %s, %s - %s", *r.Address, *r.City, *r.State, *r.PinCode))
	}
	address.add("Guardian", r.GuardianName)
	address.add("Guardian Mobile", r.GuardianMobile)
	if !blank(r.PaymentPlan) && !blank(r.PaymentMode) {
		address.addValue("Payment", fmt.Sprintf("%s (%s)", *r.PaymentPlan, *r.PaymentMode))
	}

	return []models.ReviewSection{student.ReviewSection, academic.ReviewSection, address.ReviewSection}
}

type sectionBuilder struct {
	models.ReviewSection
}

func sectionFor(step models.Step) *sectionBuilder {
	return &sectionBuilder{models.ReviewSection{
		Title:    step.Title(),
		Step:     step,
		EditPath: step.Path(),
		Items:    []models.ReviewItem{},
	}}
}

func (b *sectionBuilder) add(label string, value *string) {
	if blank(value) {
		return
	}
	b.addValue(label, *value)
}

func (b *sectionBuilder) addValue(label, value string) {
	b.Items = append(b.Items, models.ReviewItem{Label: label, Value: value})
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
