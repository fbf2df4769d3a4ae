// Package cryptox seals sensitive backend data (session tokens, encrypted
// storage files, deck backups) with AES-256-GCM under an argon2id-derived key.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"errors"

	"github.com/taurisky/taurisky/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	KeySize   = 32
	SaltSize  = 16
	nonceSize = 12
)

var (
	ErrInvalidKey     = errors.New("key must be 32 bytes for AES-256")
	ErrCipherTooShort = errors.New("invalid encrypted data: too short")
)

// DeriveKey stretches password with argon2id into a 32-byte AES key.
func DeriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, KeySize)
}

// GenerateSalt returns a fresh random salt for DeriveKey.
func GenerateSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

// Sealer encrypts and decrypts blobs with a fixed key. The wire form is
// base64(nonce || ciphertext) so sealed values fit in text columns and files.
type Sealer struct {
	aead cipher.AEAD
}

func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext under a random nonce.
func (s *Sealer) Seal(plaintext []byte) string {
	nonce := common.GenerateRandByteArray(nonceSize)
	combined := s.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(combined)
}

// Open reverses Seal.
func (s *Sealer) Open(sealed string) ([]byte, error) {
	combined, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, err
	}
	if len(combined) < nonceSize {
		return nil, ErrCipherTooShort
	}
	nonce, ciphertext := combined[:nonceSize], combined[nonceSize:]
	return s.aead.Open(nil, nonce, ciphertext, nil)
}

// SealJSON marshals v and seals the result.
func (s *Sealer) SealJSON(v any) (string, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(plaintext)
	return s.Seal(plaintext), nil
}

// OpenJSON opens sealed and unmarshals it into v.
func (s *Sealer) OpenJSON(sealed string, v any) error {
	plaintext, err := s.Open(sealed)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(plaintext)
	return json.Unmarshal(plaintext, v)
}
