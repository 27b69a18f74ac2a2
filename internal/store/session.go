package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ilmhub/coinhub/internal/model"
)

// Sealer encrypts upstream tokens at rest.
type Sealer interface {
	Seal(plaintext string) ([]byte, error)
	Open(sealed []byte) (string, error)
}

type SessionStore struct {
	db     *sql.DB
	sealer Sealer
}

func NewSessionStore(db *sql.DB, sealer Sealer) *SessionStore {
	return &SessionStore{db: db, sealer: sealer}
}

const sessionCols = `id, token, bearer_sealed, user_id, role, expires_at, created_at`

func (s *SessionStore) scanSession(scanner interface{ Scan(...any) error }) (*model.Session, error) {
	var (
		sess   model.Session
		sealed []byte
	)
	err := scanner.Scan(&sess.ID, &sess.Token, &sealed, &sess.UserID, &sess.Role, &sess.ExpiresAt, &sess.CreatedAt)
	if err != nil {
		return nil, err
	}
	bearer, err := s.sealer.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("open bearer for session %d: %w", sess.ID, err)
	}
	sess.Bearer = bearer
	return &sess, nil
}

// Create stores a new session for an upstream login. The cookie token is 32
// crypto-random bytes, hex-encoded.
func (s *SessionStore) Create(bearer string, userID int64, role model.Role, expiresAt time.Time) (*model.Session, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(tokenBytes)

	sealed, err := s.sealer.Seal(bearer)
	if err != nil {
		return nil, fmt.Errorf("seal bearer: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO sessions (token, bearer_sealed, user_id, role, expires_at, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		token, sealed, userID, int(role), expiresAt.UTC(), time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE id = ?`, id)
	return s.scanSession(row)
}

// GetByToken returns the session for the given token, or nil if expired or not found.
func (s *SessionStore) GetByToken(token string) (*model.Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM sessions WHERE token = ? AND expires_at > ?`,
		token, time.Now().UTC(),
	)
	sess, err := s.scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by token: %w", err)
	}
	return sess, nil
}

func (s *SessionStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes expired sessions and returns their ids so callers can
// release whatever they hold for them.
func (s *SessionStore) DeleteExpired() ([]int64, error) {
	now := time.Now().UTC()
	rows, err := s.db.Query(`SELECT id FROM sessions WHERE expires_at <= ?`, now)
	if err != nil {
		return nil, fmt.Errorf("list expired sessions: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan expired session: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expired sessions: %w", err)
	}

	if _, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, now); err != nil {
		return nil, fmt.Errorf("delete expired sessions: %w", err)
	}
	return ids, nil
}

// DeleteByUserID removes every session of a user and returns their ids.
func (s *SessionStore) DeleteByUserID(userID int64) ([]int64, error) {
	rows, err := s.db.Query(`DELETE FROM sessions WHERE user_id = ? RETURNING id`, userID)
	if err != nil {
		return nil, fmt.Errorf("delete sessions by user: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan deleted session: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("delete sessions by user: %w", err)
	}
	return ids, nil
}
