package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-enrollment-wizard/internal/handler"
	"github.com/noah-isme/sma-enrollment-wizard/internal/middleware"
	"github.com/noah-isme/sma-enrollment-wizard/internal/repository"
	"github.com/noah-isme/sma-enrollment-wizard/internal/service"
	"github.com/noah-isme/sma-enrollment-wizard/pkg/config"
	"github.com/noah-isme/sma-enrollment-wizard/pkg/storage"
)

type testServer struct {
	engine *gin.Engine
	slots  *repository.MemorySlotRepository
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Env:       config.EnvDevelopment,
		APIPrefix: "/api/v1",
		Session:   config.SessionConfig{Secret: "router-secret", TTL: time.Hour, CookieName: "enrollment_session"},
		Metrics:   config.MetricsConfig{Enabled: true},
	}
	slots := repository.NewMemorySlotRepository()
	metrics := service.NewMetricsService()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	wizard := service.NewWizardService(nil, metrics, nil)
	receipts := service.NewReceiptService(files, storage.NewSignedURLSigner("receipt-secret", time.Hour), "/api/v1/enroll/receipts", metrics, nil)
	review := service.NewReviewService(wizard.Engine(), receipts, service.ReviewConfig{}, metrics, nil)
	sessions := service.NewSessionService(service.SessionConfig{Secret: cfg.Session.Secret, TTL: cfg.Session.TTL}, slots, metrics, nil)

	engine := New(Dependencies{
		Config:   cfg,
		Sessions: sessions,
		Wizard:   wizard,
		Review:   review,
		Receipts: receipts,
		Metrics:  metrics,
		Checks: map[string]handler.ReadinessCheck{
			"slots": func(context.Context) error { return nil },
		},
	})
	return &testServer{engine: engine, slots: slots}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set(middleware.SessionHeader, s.token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	if token := w.Header().Get(middleware.SessionHeader); token != "" {
		s.token = token
	}
	return w
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

var (
	studentBody = map[string]interface{}{
		"fullName": "Asha Rao", "email": "asha@example.com", "mobile": "9876543210",
		"studentClass": "10", "board": "State Board", "language": "Hinglish",
	}
	academicBody = map[string]interface{}{
		"subjects": []string{"Math", "Science"}, "examGoal": "Board Excellence",
		"studyHours": "15", "hasScholarship": false,
	}
	addressBody = map[string]interface{}{
		"pinCode": "560001", "state": "Karnataka", "city": "Bengaluru",
		"address": "12 MG Road, Near Metro", "guardianName": "Ravi Rao",
		"guardianMobile": "9123456789", "paymentPlan": "Quarterly", "paymentMode": "Card",
	}
)

func TestAcademicStepRedirectsWithoutStudentDetails(t *testing.T) {
	srv := newTestServer(t)
	w := srv.do(t, http.MethodGet, "/api/v1/enroll/step-2", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/api/v1/enroll/step-1", w.Header().Get("Location"))
	assert.NotEmpty(t, srv.token)
}

func TestValidationErrorsAreFieldScoped(t *testing.T) {
	srv := newTestServer(t)
	bad := map[string]interface{}{}
	for k, v := range studentBody {
		bad[k] = v
	}
	bad["mobile"] = "1234567890"

	w := srv.do(t, http.MethodPost, "/api/v1/enroll/step-1", bad)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Must be a valid 10-digit Indian mobile number", env.Error.Fields["mobile"])
}

func TestFullWizardFlow(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/api/v1/enroll/step-1", studentBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = srv.do(t, http.MethodGet, "/api/v1/enroll/step-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"fullName":"Asha Rao"`)

	w = srv.do(t, http.MethodPost, "/api/v1/enroll/step-3", addressBody)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	w = srv.do(t, http.MethodPost, "/api/v1/enroll/step-2", academicBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = srv.do(t, http.MethodPost, "/api/v1/enroll/step-3/back", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/api/v1/enroll/step-2", w.Header().Get("Location"))

	w = srv.do(t, http.MethodPost, "/api/v1/enroll/step-3", addressBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(decode(t, w).Data), `"nextPath":"/enroll/review"`)

	w = srv.do(t, http.MethodGet, "/api/v1/enroll/review", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"complete":true`)

	w = srv.do(t, http.MethodPost, "/api/v1/enroll/review/submit", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var submission struct {
		ID         string `json:"id"`
		ReceiptURL string `json:"receiptUrl"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &submission))
	require.NotEmpty(t, submission.ReceiptURL)

	_, err := srv.slots.Get(context.Background(), "enrollmentFormData:"+sessionIDFromToken(t, srv))
	assert.Error(t, err, "slot must be cleared after submission")

	receiptURL, err := url.Parse(submission.ReceiptURL)
	require.NoError(t, err)
	w = srv.do(t, http.MethodGet, receiptURL.Path+"?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Academic Details,Subjects,\"Math, Science\"")

	w = srv.do(t, http.MethodPost, "/api/v1/enroll/review/submit", nil)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestResetClearsProgress(t *testing.T) {
	srv := newTestServer(t)
	w := srv.do(t, http.MethodPost, "/api/v1/enroll/step-1", studentBody)
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodDelete, "/api/v1/enroll", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = srv.do(t, http.MethodGet, "/api/v1/enroll/step-2", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestObservabilityEndpoints(t *testing.T) {
	srv := newTestServer(t)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/ready", nil).Code)

	srv.do(t, http.MethodGet, "/api/v1/enroll/step-3", nil)
	w := srv.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `wizard_guard_redirects_total{step="step-3"} 1`)
}

func sessionIDFromToken(t *testing.T, srv *testServer) string {
	t.Helper()
	sessions := service.NewSessionService(service.SessionConfig{Secret: "router-secret", TTL: time.Hour}, srv.slots, nil, nil)
	id, err := sessions.ParseToken(srv.token)
	require.NoError(t, err)
	require.False(t, strings.Contains(id, ":"))
	return id
}

func TestBrowserFormWithTickedScholarship(t *testing.T) {
	srv := newTestServer(t)
	w := srv.do(t, http.MethodPost, "/api/v1/enroll/step-1", studentBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	form := url.Values{
		"subjects":       {"Math", "Science"},
		"examGoal":       {"Board Excellence"},
		"studyHours":     {"15"},
		"hasScholarship": {"on"},
		"lastExamScore":  {"85"},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/enroll/step-2", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(middleware.SessionHeader, srv.token)
	w = httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := string(decode(t, w).Data)
	assert.Contains(t, data, `"hasScholarship":true`)
	assert.Contains(t, data, `"lastExamScore":85`)
}

func TestMistypedJSONFieldIsFieldScoped(t *testing.T) {
	srv := newTestServer(t)
	bad := map[string]interface{}{}
	for k, v := range studentBody {
		bad[k] = v
	}
	bad["studentClass"] = 10

	w := srv.do(t, http.MethodPost, "/api/v1/enroll/step-1", bad)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Must be text", env.Error.Fields["studentClass"])
}
