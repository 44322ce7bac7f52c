package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"listsync/core"

	"github.com/sirupsen/logrus"
)

// fsStore keeps one JSON file per session under basePath.
type fsStore struct {
	basePath string
}

// NewStore creates a new filesystem-based store.
func NewStore(basePath string) *fsStore {
	if err := os.MkdirAll(basePath, 0700); err != nil {
		log.Fatalf("failed to create base directory: %v", err)
	}
	return &fsStore{basePath: basePath}
}

func (s *fsStore) sessionPath(id string) (string, error) {
	// Session ids are single path elements; anything else would escape
	// basePath.
	if id == "" || id == "." || id == ".." || filepath.Base(id) != id {
		return "", fmt.Errorf("invalid session id %q", id)
	}
	return filepath.Join(s.basePath, id+".json"), nil
}

// Get retrieves a session by its ID.
func (s *fsStore) Get(ctx context.Context, id string) (*core.Session, error) {
	filePath, err := s.sessionPath(id)
	if err != nil {
		return nil, core.ErrSessionNotFound
	}
	log := logrus.WithFields(logrus.Fields{"session_id": id, "path": filePath})

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("Session file not found")
			return nil, core.ErrSessionNotFound
		}
		log.WithError(err).Error("Failed to read session file")
		return nil, err
	}

	var session core.Session
	if err := json.Unmarshal(data, &session); err != nil {
		log.WithError(err).Error("Failed to unmarshal session")
		return nil, err
	}
	if session.Expired(time.Now()) {
		log.Debug("Session expired, removing file")
		_ = os.Remove(filePath)
		return nil, core.ErrSessionNotFound
	}
	return &session, nil
}

// Save creates or replaces a session.
func (s *fsStore) Save(ctx context.Context, session *core.Session) error {
	filePath, err := s.sessionPath(session.ID)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"session_id": session.ID, "path": filePath})

	data, err := json.Marshal(session)
	if err != nil {
		log.WithError(err).Error("Failed to marshal session")
		return err
	}

	// Write to a temporary file first so readers never see a partial one.
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		log.WithError(err).Error("Failed to write session file")
		return err
	}
	if err := os.Rename(tmp, filePath); err != nil {
		log.WithError(err).Error("Failed to move session file into place")
		return err
	}
	log.Debug("Session saved")
	return nil
}

// Delete removes a session file.
func (s *fsStore) Delete(ctx context.Context, id string) error {
	filePath, err := s.sessionPath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).WithField("session_id", id).Error("Failed to delete session file")
		return err
	}
	return nil
}
