package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-enrollment-wizard/internal/middleware"
	"github.com/noah-isme/sma-enrollment-wizard/internal/models"
	"github.com/noah-isme/sma-enrollment-wizard/internal/service"
	"github.com/noah-isme/sma-enrollment-wizard/internal/validation"
	appErrors "github.com/noah-isme/sma-enrollment-wizard/pkg/errors"
	"github.com/noah-isme/sma-enrollment-wizard/pkg/response"
)

type wizardService interface {
	View(ctx context.Context, store *service.FormStore, step models.Step) (models.StepView, models.GuardDecision, error)
	SubmitStudentDetails(ctx context.Context, store *service.FormStore, in validation.StudentDetailsInput) (models.StepResult, models.GuardDecision, error)
	SubmitAcademicDetails(ctx context.Context, store *service.FormStore, in validation.AcademicDetailsInput) (models.StepResult, models.GuardDecision, error)
	SubmitAddressDetails(ctx context.Context, store *service.FormStore, in validation.AddressDetailsInput) (models.StepResult, models.GuardDecision, error)
	Back(step models.Step) (string, bool)
}

// WizardHandler exposes the three data-entry steps.
type WizardHandler struct {
	service   wizardService
	apiPrefix string
}

// NewWizardHandler builds the handler. apiPrefix is prepended to wizard paths to form
// redirect locations, e.g. "/api/v1".
func NewWizardHandler(service wizardService, apiPrefix string) *WizardHandler {
	return &WizardHandler{service: service, apiPrefix: strings.TrimRight(apiPrefix, "/")}
}

// GetStep godoc
// @Summary Render a wizard step
// @Description Returns the step view pre-filled from saved progress, or 303 to an earlier step when its prerequisites are missing.
// @Tags Wizard
// @Produce json
// @Param step path string true "step-1, step-2 or step-3"
// @Success 200 {object} response.Envelope
// @Success 303 {object} response.Envelope
// @Router /enroll/{step} [get]
func (h *WizardHandler) GetStep(step models.Step) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := middleware.SessionFromContext(c)
		if session == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "session required"))
			return
		}
		session.Lock()
		defer session.Unlock()

		view, decision, err := h.service.View(c.Request.Context(), session.Store, step)
		if err != nil {
			response.Error(c, err)
			return
		}
		if h.redirected(c, decision) {
			return
		}
		response.JSON(c, http.StatusOK, view)
	}
}

// SubmitStep godoc
// @Summary Submit a wizard step
// @Description Validates the step form, merges it into saved progress and returns the next path. Field errors come back as 422 with a field map.
// @Tags Wizard
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param step path string true "step-1, step-2 or step-3"
// @Success 200 {object} response.Envelope
// @Success 303 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /enroll/{step} [post]
func (h *WizardHandler) SubmitStep(step models.Step) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := middleware.SessionFromContext(c)
		if session == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "session required"))
			return
		}

		var (
			result   models.StepResult
			decision models.GuardDecision
			err      error
		)
		ctx := c.Request.Context()

		session.Lock()
		defer session.Unlock()

		switch step {
		case models.StepStudentDetails:
			var in validation.StudentDetailsInput
			if !bind(c, &in) {
				return
			}
			result, decision, err = h.service.SubmitStudentDetails(ctx, session.Store, in)
		case models.StepAcademicDetails:
			var in validation.AcademicDetailsInput
			if !bind(c, &in) {
				return
			}
			result, decision, err = h.service.SubmitAcademicDetails(ctx, session.Store, in)
		case models.StepAddressGuardian:
			var in validation.AddressDetailsInput
			if !bind(c, &in) {
				return
			}
			result, decision, err = h.service.SubmitAddressDetails(ctx, session.Store, in)
		default:
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown step"))
			return
		}

		if err != nil {
			response.Error(c, err)
			return
		}
		if h.redirected(c, decision) {
			return
		}
		response.JSON(c, http.StatusOK, result)
	}
}

// Back godoc
// @Summary Go back one step
// @Description Answers 303 to the previous step. Saved answers are kept.
// @Tags Wizard
// @Produce json
// @Param step path string true "step-2, step-3 or review"
// @Success 303 {object} response.Envelope
// @Router /enroll/{step}/back [post]
func (h *WizardHandler) Back(step models.Step) gin.HandlerFunc {
	return func(c *gin.Context) {
		path, ok := h.service.Back(step)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "already at the first step"))
			return
		}
		response.Redirect(c, h.apiPrefix+path, "")
	}
}

func (h *WizardHandler) redirected(c *gin.Context, decision models.GuardDecision) bool {
	switch decision.Outcome {
	case models.GuardRedirect:
		response.Redirect(c, h.apiPrefix+decision.Target.Path(), decision.Reason)
		return true
	case models.GuardPending:
		response.Error(c, appErrors.ErrStoreNotLoaded)
		return true
	default:
		return false
	}
}

// bind decodes JSON or form bodies depending on the request content type. A value of
// the wrong type for a known field is reported against that field.
func bind(c *gin.Context, dst interface{}) bool {
	err := c.ShouldBind(dst)
	if err == nil {
		return true
	}
	if fields, ok := validation.DecodeErrors(err); ok {
		response.Error(c, fields.Err(service.StepValidationMessage))
		return false
	}
	response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid step payload"))
	return false
}
