// Package cryptox implements the field-level encryption used to store note
// text at rest. Each field is sealed with AES-256-GCM under a single
// process-wide key; the ciphertext, initialization vector and authentication
// tag are kept as separate values so they can live in separate columns.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// ErrAuthentication is returned by Decrypt when the authentication tag does
// not verify: the data was tampered with, corrupted, or sealed under a
// different key.
var ErrAuthentication = errors.New("authentication failed")

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// EncryptedField is the at-rest representation of one text field. A zero
// value (empty Ciphertext) represents the empty string.
type EncryptedField struct {
	Ciphertext []byte
	IV         []byte
	Tag        []byte
}

// Cipher seals and opens text fields with a fixed key for the lifetime of
// the process.
type Cipher struct {
	aead cipher.AEAD
}

// New creates a Cipher from a raw 32-byte key.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key length %d, want %d", len(key), KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// NewFromPassphrase derives a 32-byte key from a passphrase and salt with
// argon2id and builds a Cipher from it. The same passphrase and salt always
// yield the same key, so notes survive restarts.
func NewFromPassphrase(passphrase, salt []byte) (*Cipher, error) {
	key := argon2.IDKey(passphrase, salt, 1, 64*1024, 4, KeySize)
	return New(key)
}

// Encrypt seals plaintext with a fresh random 12-byte IV. The GCM tag is
// split off the sealed output and returned separately. An empty plaintext
// produces a zero-valued EncryptedField.
func (c *Cipher) Encrypt(plaintext string) (EncryptedField, error) {
	if plaintext == "" {
		return EncryptedField{}, nil
	}

	iv := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return EncryptedField{}, err
	}

	sealed := c.aead.Seal(nil, iv, []byte(plaintext), nil)
	split := len(sealed) - c.aead.Overhead()

	return EncryptedField{
		Ciphertext: sealed[:split],
		IV:         iv,
		Tag:        sealed[split:],
	}, nil
}

// Decrypt opens a sealed field. It returns ErrAuthentication when the tag
// does not verify; it never returns garbage plaintext. A zero-valued field
// decrypts to the empty string.
func (c *Cipher) Decrypt(f EncryptedField) (string, error) {
	if len(f.Ciphertext) == 0 && len(f.Tag) == 0 {
		return "", nil
	}

	sealed := make([]byte, 0, len(f.Ciphertext)+len(f.Tag))
	sealed = append(sealed, f.Ciphertext...)
	sealed = append(sealed, f.Tag...)

	plaintext, err := c.aead.Open(nil, f.IV, sealed, nil)
	if err != nil {
		return "", ErrAuthentication
	}
	return string(plaintext), nil
}
