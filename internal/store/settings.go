package store

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ilmhub/coinhub/internal/vault"
)

const vaultSaltKey = "vault_salt"

type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the value for key, or "" with ok=false if it is unset.
func (s *SettingsStore) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SettingsStore) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// VaultSalt returns the salt sealed tokens are keyed with, creating it on
// first use. Changing it invalidates every stored session.
func (s *SettingsStore) VaultSalt() ([]byte, error) {
	value, ok, err := s.Get(vaultSaltKey)
	if err != nil {
		return nil, err
	}
	if ok {
		salt, err := hex.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("decode vault salt: %w", err)
		}
		return salt, nil
	}

	salt, err := vault.GenerateSalt()
	if err != nil {
		return nil, err
	}
	if err := s.Set(vaultSaltKey, hex.EncodeToString(salt)); err != nil {
		return nil, err
	}
	return salt, nil
}
