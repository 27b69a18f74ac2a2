package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	SaltSize  = 16
	nonceSize = 12
	keySize   = 32
	argonTime = 3
	argonMem  = 64 * 1024
	argonPar  = 4
)

var ErrSealed = errors.New("sealed value is invalid")

// GenerateSalt returns 16 cryptographically random bytes.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey derives a 32-byte AES-256 key from a secret and salt using Argon2id.
func DeriveKey(secret string, salt []byte) []byte {
	return argon2.IDKey([]byte(secret), salt, argonTime, argonMem, argonPar, keySize)
}

// Vault seals short secrets such as upstream bearer tokens. The key is
// derived once, so Seal and Open are cheap enough to run per request.
type Vault struct {
	gcm cipher.AEAD
}

func New(secret string, salt []byte) (*Vault, error) {
	if secret == "" {
		return nil, errors.New("vault secret is empty")
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt length = %d, want %d", len(salt), SaltSize)
	}
	block, err := aes.NewCipher(DeriveKey(secret, salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return &Vault{gcm: gcm}, nil
}

// Seal encrypts plaintext. Output format: [12-byte nonce][AES-256-GCM ciphertext]
func (v *Vault) Seal(plaintext string) ([]byte, error) {
	nonce := make([]byte, nonceSize, nonceSize+len(plaintext)+v.gcm.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return v.gcm.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// Open reverses Seal. Tampered or foreign data fails with ErrSealed.
func (v *Vault) Open(sealed []byte) (string, error) {
	if len(sealed) < nonceSize+v.gcm.Overhead() {
		return "", fmt.Errorf("%w: too short", ErrSealed)
	}
	plaintext, err := v.gcm.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSealed, err)
	}
	return string(plaintext), nil
}
