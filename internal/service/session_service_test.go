package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/vaccine-registration/pkg/errors"
)

func TestSessionServiceIssueAndValidate(t *testing.T) {
	svc := NewSessionService(SessionConfig{Secret: "secret", TTL: time.Hour, Issuer: "test"})

	sid, token, err := svc.Issue()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, sid, got)
}

func TestSessionServiceRejectsForeignSecret(t *testing.T) {
	issuer := NewSessionService(SessionConfig{Secret: "one", TTL: time.Hour, Issuer: "test"})
	verifier := NewSessionService(SessionConfig{Secret: "two", TTL: time.Hour, Issuer: "test"})

	_, token, err := issuer.Issue()
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrSessionRequired)
}

func TestSessionServiceRejectsExpired(t *testing.T) {
	svc := NewSessionService(SessionConfig{Secret: "secret", TTL: time.Minute, Issuer: "test"})
	start := time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	_, token, err := svc.Issue()
	require.NoError(t, err)

	svc.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = svc.Validate(token)
	require.Error(t, err)
}

func TestSessionServiceRejectsGarbage(t *testing.T) {
	svc := NewSessionService(SessionConfig{Secret: "secret", Issuer: "test"})
	_, err := svc.Validate("not-a-token")
	require.Error(t, err)
	assert.Equal(t, 30*time.Minute, svc.TTL())
}

func TestSessionServiceRenewKeepsSessionID(t *testing.T) {
	start := time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)
	now := start
	svc := NewSessionService(SessionConfig{Secret: "s", TTL: 30 * time.Minute, Issuer: "test", Now: func() time.Time { return now }})

	sid, token, err := svc.Issue()
	require.NoError(t, err)
	session, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, start.Add(30*time.Minute), session.ExpiresAt.UTC())
	assert.False(t, svc.NeedsRenewal(session))

	now = start.Add(16 * time.Minute)
	assert.True(t, svc.NeedsRenewal(session))
	renewed, err := svc.Renew(sid)
	require.NoError(t, err)

	now = start.Add(31 * time.Minute)
	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, appErrors.ErrSessionRequired)
	got, err := svc.Validate(renewed)
	require.NoError(t, err)
	assert.Equal(t, sid, got)
}
