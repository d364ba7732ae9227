package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-enrollment-wizard/pkg/errors"
)

func newTestSessions(repo slotRepository) *SessionService {
	return NewSessionService(SessionConfig{Secret: "test-secret", TTL: time.Hour}, repo, nil, nil)
}

func TestSessionIssueAndResolve(t *testing.T) {
	sessions := newTestSessions(newFakeSlotRepo())

	session, token, err := sessions.Issue()
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, "enrollmentFormData:"+session.ID, session.Store.Key())

	resolved, newToken, err := sessions.Resolve(token)
	require.NoError(t, err)
	assert.Empty(t, newToken)
	assert.Same(t, session, resolved)
}

func TestSessionResolveStartsNewSessionForBadTokens(t *testing.T) {
	sessions := newTestSessions(newFakeSlotRepo())
	other := NewSessionService(SessionConfig{Secret: "another-secret"}, newFakeSlotRepo(), nil, nil)
	_, foreign, err := other.Issue()
	require.NoError(t, err)

	for _, token := range []string{"", "garbage", foreign} {
		session, newToken, err := sessions.Resolve(token)
		require.NoError(t, err)
		assert.NotEmpty(t, newToken)
		assert.NotEmpty(t, session.ID)
	}
	assert.Equal(t, 3, sessions.Active())
}

func TestSessionParseTokenRejectsExpired(t *testing.T) {
	sessions := newTestSessions(newFakeSlotRepo())
	sessions.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	_, token, err := sessions.Issue()
	require.NoError(t, err)

	sessions.now = time.Now
	_, err = sessions.ParseToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestSessionBusyFlag(t *testing.T) {
	sessions := newTestSessions(newFakeSlotRepo())
	session := sessions.Session("5f1d7c1e-6a55-4d7e-9b7e-0f4f4b9b2c11")
	assert.True(t, session.BeginSubmit())
	assert.False(t, session.BeginSubmit())
	assert.True(t, session.Submitting())
	session.EndSubmit()
	assert.False(t, session.Submitting())
}

func TestSessionPrune(t *testing.T) {
	sessions := newTestSessions(newFakeSlotRepo())
	base := time.Now()
	sessions.now = func() time.Time { return base }
	idle := sessions.Session("idle")
	busy := sessions.Session("busy")
	require.True(t, busy.BeginSubmit())

	sessions.now = func() time.Time { return base.Add(2 * time.Hour) }
	sessions.Session("fresh")

	assert.Equal(t, 1, sessions.Prune(time.Hour))
	assert.Equal(t, 2, sessions.Active())
	assert.NotSame(t, idle, sessions.Session("idle"))
}
