package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-enrollment-wizard/internal/models"
	appErrors "github.com/noah-isme/sma-enrollment-wizard/pkg/errors"
	"github.com/noah-isme/sma-enrollment-wizard/pkg/export"
	"github.com/noah-isme/sma-enrollment-wizard/pkg/jobs"
	"github.com/noah-isme/sma-enrollment-wizard/pkg/storage"
)

// ArtifactJob writes the JSON, PDF and CSV copies of one submission.
type ArtifactJob = jobs.Job[models.Submission]

// ArtifactQueue is the worker pool that runs ArtifactJobs.
type ArtifactQueue = jobs.Queue[models.Submission]

// Receipt formats served by Open.
const (
	ReceiptFormatJSON = "json"
	ReceiptFormatPDF  = "pdf"
	ReceiptFormatCSV  = "csv"
)

var receiptFiles = map[string]struct {
	name        string
	contentType string
}{
	ReceiptFormatJSON: {"submission.json", "application/json"},
	ReceiptFormatPDF:  {"receipt.pdf", "application/pdf"},
	ReceiptFormatCSV:  {"receipt.csv", "text/csv"},
}

type artifactStore interface {
	Save(filename string, data []byte) (string, error)
	Read(filename string) ([]byte, error)
}

type documentRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

type jobQueue interface {
	Enqueue(job ArtifactJob) error
}

// ReceiptFile is a rendered receipt ready to be served.
type ReceiptFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ReceiptService writes submission artifacts and issues signed links to them.
type ReceiptService struct {
	store   artifactStore
	signer  *storage.SignedURLSigner
	pdf     documentRenderer
	csv     documentRenderer
	queue   jobQueue
	baseURL string
	metrics *MetricsService
	logger  *zap.Logger
}

// NewReceiptService constructs the service. baseURL is the receipts route prefix the
// signed token is appended to, e.g. "/api/v1/enroll/receipts".
func NewReceiptService(store artifactStore, signer *storage.SignedURLSigner, baseURL string, metrics *MetricsService, logger *zap.Logger) *ReceiptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptService{
		store:   store,
		signer:  signer,
		pdf:     export.NewPDFExporter(),
		csv:     export.NewCSVExporter(),
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// UseQueue routes artifact writes through q. Without a queue, or once q is closed,
// Dispatch writes inline.
func (s *ReceiptService) UseQueue(q jobQueue) {
	s.queue = q
}

// Dispatch schedules the artifacts for a submission and returns the signed receipt link.
func (s *ReceiptService) Dispatch(ctx context.Context, submission models.Submission) (string, *time.Time, error) {
	if s.queue != nil {
		err := s.queue.Enqueue(ArtifactJob{ID: submission.ID, Payload: submission})
		switch {
		case errors.Is(err, jobs.ErrClosed):
			s.logger.Warn("artifact queue closed, writing inline", zap.String("submission_id", submission.ID))
			if err := s.WriteArtifacts(ctx, submission); err != nil {
				return "", nil, err
			}
		case err != nil:
			return "", nil, fmt.Errorf("enqueue submission artifacts: %w", err)
		}
	} else if err := s.WriteArtifacts(ctx, submission); err != nil {
		return "", nil, err
	}

	token, expires, err := s.signer.Generate(submission.ID, submission.ID)
	if err != nil {
		return "", nil, fmt.Errorf("sign receipt link: %w", err)
	}
	return s.baseURL + "/" + token, &expires, nil
}

// NewArtifactQueue builds the worker pool that writes artifacts for this service.
// It still has to be started and handed to UseQueue.
func (s *ReceiptService) NewArtifactQueue(cfg jobs.QueueConfig[models.Submission]) *ArtifactQueue {
	cfg.OnExhausted = s.OnExhausted
	if cfg.Logger == nil {
		cfg.Logger = s.logger
	}
	return jobs.NewQueue("submission-artifacts", s.HandleJob, cfg)
}

// HandleJob is the queue handler for submission artifact jobs.
func (s *ReceiptService) HandleJob(ctx context.Context, job ArtifactJob) error {
	if job.Attempt > 0 {
		s.logger.Info("retrying submission artifacts", zap.String("submission_id", job.Payload.ID), zap.Int("attempt", job.Attempt))
	}
	return s.WriteArtifacts(ctx, job.Payload)
}

// OnExhausted reports an artifact job that ran out of retries. The submission itself is
// logged so an operator can rebuild the receipt by hand.
func (s *ReceiptService) OnExhausted(job ArtifactJob, err error) {
	s.metrics.RecordArtifactFailure()
	s.logger.Error("submission artifacts lost",
		zap.String("submission_id", job.Payload.ID),
		zap.Stringp("student", job.Payload.Record.FullName),
		zap.Time("submitted_at", job.Payload.SubmittedAt),
		zap.Int("attempts", job.Attempt),
		zap.Error(err))
}

// WriteArtifacts renders and stores every receipt format for submission.
func (s *ReceiptService) WriteArtifacts(_ context.Context, submission models.Submission) error {
	payload, err := json.MarshalIndent(submission, "", "  ")
	if err != nil {
		return fmt.Errorf("encode submission %s: %w", submission.ID, err)
	}
	doc := ReceiptDocument(submission)
	pdf, err := s.pdf.Render(doc)
	if err != nil {
		return fmt.Errorf("render pdf receipt %s: %w", submission.ID, err)
	}
	csv, err := s.csv.Render(doc)
	if err != nil {
		return fmt.Errorf("render csv receipt %s: %w", submission.ID, err)
	}

	for format, content := range map[string][]byte{
		ReceiptFormatJSON: payload,
		ReceiptFormatPDF:  pdf,
		ReceiptFormatCSV:  csv,
	} {
		if _, err := s.store.Save(path.Join(submission.ID, receiptFiles[format].name), content); err != nil {
			return fmt.Errorf("store %s receipt %s: %w", format, submission.ID, err)
		}
	}
	s.logger.Info("submission artifacts written", zap.String("submission_id", submission.ID))
	return nil
}

// Open verifies a signed receipt token and returns the requested format.
func (s *ReceiptService) Open(token, format string) (ReceiptFile, error) {
	if format == "" {
		format = ReceiptFormatPDF
	}
	file, ok := receiptFiles[format]
	if !ok {
		return ReceiptFile{}, appErrors.Clone(appErrors.ErrBadRequest, "format must be one of pdf, csv or json")
	}

	claims, err := s.signer.Parse(token)
	switch {
	case errors.Is(err, storage.ErrTokenExpired):
		return ReceiptFile{}, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "receipt link expired")
	case err != nil:
		return ReceiptFile{}, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid receipt link")
	}

	content, err := s.store.Read(path.Join(claims.Path, file.name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ReceiptFile{}, appErrors.Clone(appErrors.ErrNotFound, "receipt not ready yet")
		}
		return ReceiptFile{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read receipt")
	}
	return ReceiptFile{
		Filename:    fmt.Sprintf("enrollment-%s.%s", claims.SubjectID, format),
		ContentType: file.contentType,
		Content:     content,
	}, nil
}

// ReceiptDocument lays a submission out for the PDF and CSV exporters.
func ReceiptDocument(submission models.Submission) export.Document {
	doc := export.Document{
		Title:    "Enrollment Receipt",
		Subtitle: fmt.Sprintf("Submission %s, %s", submission.ID, submission.SubmittedAt.UTC().Format(time.RFC1123)),
	}
	for _, section := range ReviewSections(submission.Record) {
		pairs := make([]export.Pair, 0, len(section.Items))
		for _, item := range section.Items {
			pairs = append(pairs, export.Pair{Label: item.Label, Value: item.Value})
		}
		doc.Sections = append(doc.Sections, export.Section{Heading: section.Title, Pairs: pairs})
	}
	return doc
}
