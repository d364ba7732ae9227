package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-enrollment-wizard/internal/middleware"
	"github.com/noah-isme/sma-enrollment-wizard/internal/models"
	"github.com/noah-isme/sma-enrollment-wizard/internal/service"
	appErrors "github.com/noah-isme/sma-enrollment-wizard/pkg/errors"
	"github.com/noah-isme/sma-enrollment-wizard/pkg/response"
)

type reviewService interface {
	View(ctx context.Context, session *service.Session) (models.ReviewView, error)
	Submit(ctx context.Context, session *service.Session) (models.Submission, error)
	Reset(ctx context.Context, session *service.Session) error
}

type receiptService interface {
	Open(token, format string) (service.ReceiptFile, error)
}

// ReviewHandler exposes the review screen, final submission and receipts.
type ReviewHandler struct {
	review   reviewService
	receipts receiptService
}

// NewReviewHandler builds the handler.
func NewReviewHandler(review reviewService, receipts receiptService) *ReviewHandler {
	return &ReviewHandler{review: review, receipts: receipts}
}

// View godoc
// @Summary Review collected answers
// @Tags Review
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /enroll/review [get]
func (h *ReviewHandler) View(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	if session == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "session required"))
		return
	}
	view, err := h.review.View(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Submit godoc
// @Summary Confirm and submit the enrollment
// @Description Waits out the submission delay, records the payload, clears saved progress and returns a signed receipt link.
// @Tags Review
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /enroll/review/submit [post]
func (h *ReviewHandler) Submit(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	if session == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "session required"))
		return
	}
	submission, err := h.review.Submit(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission)
}

// Reset godoc
// @Summary Start a new form
// @Description Discards saved progress for the current session.
// @Tags Review
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /enroll [delete]
func (h *ReviewHandler) Reset(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	if session == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "session required"))
		return
	}
	session.Lock()
	defer session.Unlock()
	if err := h.review.Reset(c.Request.Context(), session); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Receipt godoc
// @Summary Download a submission receipt
// @Tags Review
// @Produce application/pdf
// @Produce text/csv
// @Produce json
// @Param token path string true "Signed receipt token"
// @Param format query string false "pdf (default), csv or json"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enroll/receipts/{token} [get]
func (h *ReviewHandler) Receipt(c *gin.Context) {
	file, err := h.receipts.Open(c.Param("token"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
