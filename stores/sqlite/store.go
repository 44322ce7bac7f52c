package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"listsync/core"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db *sql.DB
}

const sessionTableStmt = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	email TEXT NOT NULL,
	name TEXT,
	image TEXT,
	provider TEXT NOT NULL,
	subject TEXT,
	credential TEXT,
	linked INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);`

// NewStore opens (and migrates) a SQLite session database.
func NewStore(dataSourceName string) (*sqliteStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if _, err = db.Exec(sessionTableStmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}
	return &sqliteStore{db}, nil
}

// Close closes the database.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func (s *sqliteStore) Get(ctx context.Context, id string) (*core.Session, error) {
	log := logrus.WithField("session_id", id)
	var session core.Session
	session.ID = id
	err := s.db.QueryRowContext(ctx, `
		SELECT account_id, email, name, image, provider, subject, credential, linked, created_at, expires_at
		FROM sessions WHERE id = ?`, id).Scan(
		&session.AccountID, &session.Email, &session.Name, &session.Image, &session.Provider,
		&session.Subject, &session.Credential, &session.Linked, &session.CreatedAt, &session.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("Session not found")
			return nil, core.ErrSessionNotFound
		}
		log.WithError(err).Error("Failed to retrieve session")
		return nil, err
	}
	if session.Expired(time.Now()) {
		log.Debug("Session expired")
		_ = s.Delete(ctx, id)
		return nil, core.ErrSessionNotFound
	}
	return &session, nil
}

func (s *sqliteStore) Save(ctx context.Context, session *core.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, account_id, email, name, image, provider, subject, credential, linked, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			account_id = excluded.account_id,
			email = excluded.email,
			name = excluded.name,
			image = excluded.image,
			provider = excluded.provider,
			subject = excluded.subject,
			credential = excluded.credential,
			linked = excluded.linked,
			expires_at = excluded.expires_at`,
		session.ID, session.AccountID, session.Email, session.Name, session.Image, session.Provider,
		session.Subject, session.Credential, session.Linked, session.CreatedAt.UTC(), session.ExpiresAt.UTC())
	if err != nil {
		logrus.WithError(err).WithField("session_id", session.ID).Error("Failed to save session")
		return err
	}
	return nil
}

func (s *sqliteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	return err
}
