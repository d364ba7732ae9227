package service

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/noah-isme/sma-enrollment-wizard/internal/models"
	appErrors "github.com/noah-isme/sma-enrollment-wizard/pkg/errors"
	"github.com/noah-isme/sma-enrollment-wizard/pkg/jobs"
	"github.com/noah-isme/sma-enrollment-wizard/pkg/storage"
)

func newTestReceipts(t *testing.T) *ReceiptService {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("receipt-secret", time.Hour)
	return NewReceiptService(files, signer, "/api/v1/enroll/receipts/", nil, nil)
}

func testSubmission() models.Submission {
	return models.Submission{
		ID:          "3f0b9f7e-1111-4c1e-8f51-2a8b7c5d9e01",
		SubmittedAt: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		Record:      completeRecord(),
		Message:     SubmissionSuccessMessage,
	}
}

func tokenFrom(t *testing.T, url string) string {
	t.Helper()
	const prefix = "/api/v1/enroll/receipts/"
	require.Contains(t, url, prefix)
	return url[len(prefix):]
}

func TestReceiptDispatchInline(t *testing.T) {
	receipts := newTestReceipts(t)
	url, expires, err := receipts.Dispatch(context.Background(), testSubmission())
	require.NoError(t, err)
	require.NotNil(t, expires)
	token := tokenFrom(t, url)

	pdf, err := receipts.Open(token, "")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.Equal(t, "%PDF", string(pdf.Content[:4]))

	csv, err := receipts.Open(token, ReceiptFormatCSV)
	require.NoError(t, err)
	assert.Contains(t, string(csv.Content), "Student Details,Name,Asha Rao")

	raw, err := receipts.Open(token, ReceiptFormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(raw.Content), `"fullName": "Asha Rao"`)
	assert.Equal(t, "enrollment-3f0b9f7e-1111-4c1e-8f51-2a8b7c5d9e01.json", raw.Filename)
}

func TestReceiptOpenRejectsBadInput(t *testing.T) {
	receipts := newTestReceipts(t)
	_, err := receipts.Open("whatever", "docx")
	assert.ErrorIs(t, err, appErrors.ErrBadRequest)

	_, err = receipts.Open("not.a.real.token", ReceiptFormatPDF)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestReceiptOpenBeforeArtifactsWritten(t *testing.T) {
	receipts := newTestReceipts(t)
	receipts.UseQueue(&recordingQueue{})
	url, _, err := receipts.Dispatch(context.Background(), testSubmission())
	require.NoError(t, err)

	_, err = receipts.Open(tokenFrom(t, url), ReceiptFormatPDF)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestReceiptDispatchThroughQueue(t *testing.T) {
	defer goleak.VerifyNone(t)

	receipts := newTestReceipts(t)
	queue := receipts.NewArtifactQueue(jobs.QueueConfig[models.Submission]{
		Workers:    1,
		MaxRetries: 1,
		RetryDelay: 10 * time.Millisecond,
	})
	queue.Start(context.Background())
	defer queue.Stop()
	receipts.UseQueue(queue)

	url, _, err := receipts.Dispatch(context.Background(), testSubmission())
	require.NoError(t, err)
	token := tokenFrom(t, url)

	require.Eventually(t, func() bool {
		_, err := receipts.Open(token, ReceiptFormatCSV)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestReceiptDrainWritesQueuedArtifacts(t *testing.T) {
	defer goleak.VerifyNone(t)

	receipts := newTestReceipts(t)
	queue := receipts.NewArtifactQueue(jobs.QueueConfig[models.Submission]{Workers: 1})
	queue.Start(context.Background())
	receipts.UseQueue(queue)

	url, _, err := receipts.Dispatch(context.Background(), testSubmission())
	require.NoError(t, err)
	require.NoError(t, queue.Drain(context.Background()))

	_, err = receipts.Open(tokenFrom(t, url), ReceiptFormatPDF)
	assert.NoError(t, err)
}

func TestReceiptDispatchAfterDrainWritesInline(t *testing.T) {
	defer goleak.VerifyNone(t)

	receipts := newTestReceipts(t)
	queue := receipts.NewArtifactQueue(jobs.QueueConfig[models.Submission]{})
	queue.Start(context.Background())
	receipts.UseQueue(queue)
	require.NoError(t, queue.Drain(context.Background()))

	url, _, err := receipts.Dispatch(context.Background(), testSubmission())
	require.NoError(t, err)
	_, err = receipts.Open(tokenFrom(t, url), ReceiptFormatJSON)
	assert.NoError(t, err)
}

func TestReceiptArtifactFailuresAreCounted(t *testing.T) {
	metrics := NewMetricsService()
	receipts := NewReceiptService(failingStore{}, storage.NewSignedURLSigner("receipt-secret", time.Hour), "/r", metrics, nil)

	job := ArtifactJob{ID: "s-1", Payload: testSubmission()}
	jobErr := receipts.HandleJob(context.Background(), job)
	require.Error(t, jobErr)
	receipts.OnExhausted(job, jobErr)

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	var failed float64
	for _, family := range families {
		if family.GetName() == "submission_artifacts_failed_total" {
			failed = family.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, failed)
}

type failingStore struct{}

func (failingStore) Save(string, []byte) (string, error) { return "", errors.New("disk full") }
func (failingStore) Read(string) ([]byte, error)         { return nil, fs.ErrNotExist }

type recordingQueue struct {
	jobs []ArtifactJob
}

func (q *recordingQueue) Enqueue(job ArtifactJob) error {
	q.jobs = append(q.jobs, job)
	return nil
}
