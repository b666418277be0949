package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	appErrors "github.com/noah-isme/vaccine-registration/pkg/errors"
)

// SessionConfig configures session token signing.
type SessionConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
	Now    func() time.Time
}

// SessionClaims is the payload of the session cookie.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Session is a validated session token.
type Session struct {
	ID        string
	ExpiresAt time.Time
}

// SessionService issues and validates the signed cookie that identifies a form session.
type SessionService struct {
	config SessionConfig
	now    func() time.Time
}

// NewSessionService constructs the service.
func NewSessionService(config SessionConfig) *SessionService {
	if config.TTL <= 0 {
		config.TTL = 30 * time.Minute
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &SessionService{config: config, now: now}
}

// TTL is how long a session and its form state live.
func (s *SessionService) TTL() time.Duration {
	return s.config.TTL
}

// Issue starts a new session and returns its id with the signed token.
func (s *SessionService) Issue() (string, string, error) {
	sid := uuid.NewString()
	token, err := s.Renew(sid)
	if err != nil {
		return "", "", err
	}
	return sid, token, nil
}

// Renew signs a fresh token for an existing session id, extending it by the TTL.
func (s *SessionService) Renew(sid string) (string, error) {
	issuedAt := s.now().UTC()
	claims := &SessionClaims{
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   sid,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.TTL)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign session")
	}
	return signed, nil
}

// Validate returns the session id carried by a token.
func (s *SessionService) Validate(tokenString string) (string, error) {
	session, err := s.Parse(tokenString)
	if err != nil {
		return "", err
	}
	return session.ID, nil
}

// NeedsRenewal reports whether less than half of the TTL is left on session.
// Renewing keeps the cookie sliding with the form state TTL.
func (s *SessionService) NeedsRenewal(session Session) bool {
	return session.ExpiresAt.Sub(s.now()) < s.config.TTL/2
}

// Parse validates a token and returns its session.
func (s *SessionService) Parse(tokenString string) (Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer(s.config.Issuer))
	if err != nil {
		return Session{}, appErrors.Wrap(err, appErrors.ErrSessionRequired.Code, appErrors.ErrSessionRequired.Status, "invalid session")
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return Session{}, appErrors.Clone(appErrors.ErrSessionRequired, "invalid session claims")
	}
	if _, err := uuid.Parse(claims.SessionID); err != nil {
		return Session{}, appErrors.Wrap(err, appErrors.ErrSessionRequired.Code, appErrors.ErrSessionRequired.Status, "invalid session id")
	}
	session := Session{ID: claims.SessionID}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}
