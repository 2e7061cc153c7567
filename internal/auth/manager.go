// Package auth issues and verifies the JWT sessions used by the HTTP API.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
)

// Claims are the JWT claims of a session token.
type Claims struct {
	UserID    int64  `json:"userId"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Manager signs session tokens with an HMAC secret and tracks which sessions
// are still live, so a token stops working at logout even before it expires.
type Manager struct {
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
	sessions *SessionStore
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
		sessions: NewSessionStore(),
	}
}

// Issue starts a session for userID and returns its signed token.
func (m *Manager) Issue(userID int64) (string, models.Session, error) {
	now := m.now().UTC().Truncate(time.Second)
	sess := models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:    userID,
		SessionID: sess.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(sess.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", models.Session{}, fmt.Errorf("failed to sign token: %w", err)
	}

	m.sessions.Add(sess)
	return signed, sess, nil
}

// Verify checks the token signature and expiry and that its session has not
// been revoked. Every failure wraps models.ErrUnauthorized.
func (m *Manager) Verify(tokenString string) (models.Session, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return models.Session{}, fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	}

	sess, ok := m.sessions.Get(claims.SessionID, m.now())
	if !ok {
		return models.Session{}, fmt.Errorf("%w: session is not active", models.ErrUnauthorized)
	}
	if sess.UserID != claims.UserID {
		return models.Session{}, fmt.Errorf("%w: session does not match token", models.ErrUnauthorized)
	}
	return sess, nil
}

// Revoke ends a session. Revoking an unknown session is not an error.
func (m *Manager) Revoke(sessionID string) {
	m.sessions.Remove(sessionID)
}

// RevokeUser ends every session of userID and returns how many were live.
func (m *Manager) RevokeUser(userID int64) int {
	return m.sessions.RemoveUser(userID)
}
