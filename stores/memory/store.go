package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"listsync/core"

	"github.com/sirupsen/logrus"
)

// memStore keeps sessions in process memory. Sessions are lost on restart.
type memStore struct {
	mu       sync.RWMutex
	sessions map[string]core.Session
}

// NewStore creates a new in-memory store.
func NewStore() *memStore {
	return &memStore{sessions: make(map[string]core.Session)}
}

// Get retrieves a session by its ID.
func (s *memStore) Get(ctx context.Context, id string) (*core.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()

	log := logrus.WithField("session_id", id)
	if !ok {
		log.Debug("Session not found")
		return nil, core.ErrSessionNotFound
	}
	if session.Expired(time.Now()) {
		log.Debug("Session expired")
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, core.ErrSessionNotFound
	}
	return &session, nil
}

// Save creates or replaces a session.
func (s *memStore) Save(ctx context.Context, session *core.Session) error {
	if session.ID == "" {
		return fmt.Errorf("session ID cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = *session
	logrus.WithFields(logrus.Fields{
		"session_id": session.ID,
		"account_id": session.AccountID,
	}).Debug("Session saved")
	return nil
}

// Delete removes a session.
func (s *memStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
