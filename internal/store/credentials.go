package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrNoToken is returned when the session has no stored bearer token.
var ErrNoToken = errors.New("no auth token stored for session")

// SetToken stores (or replaces) the bearer token of a session.
func (db *DB) SetToken(session, token string) error {
	_, err := db.Exec(`
		INSERT INTO credentials (session, token, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(session) DO UPDATE SET
			token = excluded.token,
			updated_at = excluded.updated_at`,
		session, token, time.Now().UnixMilli())
	return err
}

// Token returns the stored bearer token, or ErrNoToken.
func (db *DB) Token(session string) (string, error) {
	var token string
	err := db.QueryRow(`SELECT token FROM credentials WHERE session = ?`, session).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && token == "") {
		return "", ErrNoToken
	}
	return token, err
}

// ClearToken removes the stored token of a session.
func (db *DB) ClearToken(session string) error {
	_, err := db.Exec(`DELETE FROM credentials WHERE session = ?`, session)
	return err
}

// TokenSource exposes one session's stored token as an opaque lookup.
type TokenSource struct {
	db      *DB
	session string
}

// NewTokenSource returns the credential lookup for session.
func NewTokenSource(db *DB, session string) *TokenSource {
	return &TokenSource{db: db, session: session}
}

// Token implements the "current auth token" lookup.
func (s *TokenSource) Token(_ context.Context) (string, error) {
	return s.db.Token(s.session)
}
