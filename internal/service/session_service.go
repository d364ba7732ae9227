package service

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-enrollment-wizard/internal/models"
	appErrors "github.com/noah-isme/sma-enrollment-wizard/pkg/errors"
)

const sessionIssuer = "enrollment-wizard"

// SessionConfig controls session token signing.
type SessionConfig struct {
	Secret  string
	TTL     time.Duration
	SlotKey string
}

// Session is one wizard run. Requests of the same session are serialised through Lock.
type Session struct {
	ID    string
	Store *FormStore

	mu         sync.Mutex
	submitting atomic.Bool
	lastSeen   atomic.Int64
}

// Lock serialises request handling for the session.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the request lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// BeginSubmit raises the busy flag. It returns false when a submission is already in flight.
func (s *Session) BeginSubmit() bool {
	return s.submitting.CompareAndSwap(false, true)
}

// EndSubmit lowers the busy flag.
func (s *Session) EndSubmit() {
	s.submitting.Store(false)
}

// Submitting reports whether a submission is in flight.
func (s *Session) Submitting() bool {
	return s.submitting.Load()
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// SessionService issues session tokens and owns one FormStore per session.
type SessionService struct {
	cfg     SessionConfig
	repo    slotRepository
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionService constructs the session registry.
func NewSessionService(cfg SessionConfig, repo slotRepository, metrics *MetricsService, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * 24 * time.Hour
	}
	if cfg.SlotKey == "" {
		cfg.SlotKey = "enrollmentFormData"
	}
	return &SessionService{
		cfg:      cfg,
		repo:     repo,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// TTL returns the lifetime of issued tokens.
func (s *SessionService) TTL() time.Duration {
	return s.cfg.TTL
}

// SlotKey derives the persisted slot key of a session.
func (s *SessionService) SlotKey(sessionID string) string {
	return s.cfg.SlotKey + ":" + sessionID
}

// Issue starts a new session and returns its signed token.
func (s *SessionService) Issue() (*Session, string, error) {
	id := uuid.NewString()
	token, err := s.sign(id)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue session")
	}
	return s.Session(id), token, nil
}

// ParseToken validates a session token and returns the session id it carries.
func (s *SessionService) ParseToken(token string) (string, error) {
	claims := &models.SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithIssuer(sessionIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid session token")
	}
	if !parsed.Valid || claims.SessionID == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid session claims")
	}
	if _, err := uuid.Parse(claims.SessionID); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid session id")
	}
	return claims.SessionID, nil
}

// Resolve returns the session named by token, or starts a new one when the token is
// missing or invalid. newToken is non-empty only when a session was started.
func (s *SessionService) Resolve(token string) (session *Session, newToken string, err error) {
	if token != "" {
		id, parseErr := s.ParseToken(token)
		if parseErr == nil {
			return s.Session(id), "", nil
		}
		if !errors.Is(parseErr, jwt.ErrTokenExpired) {
			s.logger.Debug("rejecting session token", zap.Error(parseErr))
		}
	}
	return s.Issue()
}

// Session returns the registered session for id, creating it on first use.
func (s *SessionService) Session(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		session = &Session{
			ID:    id,
			Store: NewFormStore(s.repo, s.SlotKey(id), s.metrics, s.logger.With(zap.String("session_id", id))),
		}
		s.sessions[id] = session
	}
	session.touch(s.now())
	return session
}

// Active returns the number of sessions held in memory.
func (s *SessionService) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Prune drops in-memory sessions idle for longer than maxIdle. Persisted slots are
// untouched, so a returning session reloads its progress.
func (s *SessionService) Prune(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle).UnixNano()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, session := range s.sessions {
		if session.Submitting() {
			continue
		}
		if session.lastSeen.Load() < cutoff {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *SessionService) sign(id string) (string, error) {
	issuedAt := s.now().UTC()
	claims := &models.SessionClaims{
		SessionID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   id,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.cfg.TTL)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
}
