package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Storage slot names. Exactly these two slots exist; they are always
// written together and cleared together.
const (
	slotIdentity = "identity"
	slotToken    = "token"
)

// ErrCorruptSession indicates the persisted session could not be decoded.
// Callers treat this as "no session" rather than a fatal condition.
var ErrCorruptSession = errors.New("persisted session is corrupt")

// SessionStore defines the durable local storage contract for sessions.
type SessionStore interface {
	// Load returns the persisted session, or (nil, nil) when none exists.
	// A decodable-but-incomplete record returns ErrCorruptSession.
	Load(ctx context.Context) (*Session, error)

	// Save persists the session atomically (both slots or neither).
	Save(ctx context.Context, s *Session) error

	// Clear removes the persisted session atomically.
	// Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// SQLiteSessionStore implements SessionStore on the session_store table.
type SQLiteSessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a SQLite-backed session store.
func NewSessionStore(db *sql.DB) *SQLiteSessionStore {
	return &SQLiteSessionStore{db: db}
}

// Load reads both slots and reconstructs the session.
func (s *SQLiteSessionStore) Load(ctx context.Context) (*Session, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT slot, value FROM session_store WHERE slot IN (?, ?)",
		slotIdentity, slotToken,
	)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string, 2)
	for rows.Next() {
		var slot, value string
		if err := rows.Scan(&slot, &value); err != nil {
			return nil, fmt.Errorf("scanning session slot: %w", err)
		}
		values[slot] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session slots: %w", err)
	}

	if len(values) == 0 {
		return nil, nil // no persisted session
	}

	// Both slots are written together; one without the other means a torn
	// or tampered record. Fail closed.
	rawIdentity, okIdentity := values[slotIdentity]
	token, okToken := values[slotToken]
	if !okIdentity || !okToken || token == "" {
		return nil, ErrCorruptSession
	}

	var identity Identity
	if err := json.Unmarshal([]byte(rawIdentity), &identity); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSession, err)
	}
	if identity.ID == "" || !IsValidRole(identity.Role) {
		return nil, ErrCorruptSession
	}

	return &Session{Identity: identity, Token: token}, nil
}

// Save writes both slots in a single transaction.
func (s *SQLiteSessionStore) Save(ctx context.Context, sess *Session) error {
	if sess == nil || sess.Token == "" {
		return fmt.Errorf("refusing to persist a session without a token")
	}

	rawIdentity, err := json.Marshal(sess.Identity)
	if err != nil {
		return fmt.Errorf("encoding identity: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := time.Now().UTC().Format(time.RFC3339)
	for slot, value := range map[string]string{
		slotIdentity: string(rawIdentity),
		slotToken:    sess.Token,
	} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session_store (slot, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(slot) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			slot, value, now,
		); err != nil {
			return fmt.Errorf("writing session slot %s: %w", slot, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing session: %w", err)
	}
	return nil
}

// Clear deletes both slots in a single transaction.
func (s *SQLiteSessionStore) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM session_store WHERE slot IN (?, ?)",
		slotIdentity, slotToken,
	); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing clear: %w", err)
	}
	return nil
}
