package auth

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
)

// SessionStore keeps live sessions in memory.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]models.Session)}
}

func (s *SessionStore) Add(sess models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

// Get returns the session if it exists and has not expired at now. Expired
// sessions are dropped.
func (s *SessionStore) Get(id string, now time.Time) (models.Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return models.Session{}, false
	}
	if sess.Expired(now) {
		s.Remove(id)
		return models.Session{}, false
	}
	return sess, true
}

func (s *SessionStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *SessionStore) RemoveUser(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ErrMissingToken is returned by BearerToken when no token is present.
var ErrMissingToken = errors.New("token not provided")

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
