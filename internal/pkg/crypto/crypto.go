// Package crypto provides field-level encryption for PII columns.
//
// The cipher key is derived from ENCRYPTION_KEY with PBKDF2-HMAC-SHA256 and a
// fixed application salt, then used with AES-256-GCM. Encrypted values are
// base64url strings (nonce prepended), safe for varchar columns.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

var (
	ErrInvalidKeyLength = errors.New("encryption key must be exactly 32 characters")
	ErrDecryptFailed    = errors.New("failed to decrypt value")
)

const (
	// KeySize is the required length of ENCRYPTION_KEY.
	KeySize = 32

	keySalt       = "financepro_salt_2025"
	keyIterations = 100000
)

// Cipher encrypts and decrypts PII field values.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives the AES key from the configured passphrase.
func NewCipher(encryptionKey string) (*Cipher, error) {
	if len(encryptionKey) != KeySize {
		return nil, ErrInvalidKeyLength
	}

	key := pbkdf2.Key([]byte(encryptionKey), []byte(keySalt), keyIterations, KeySize, sha256.New)

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

// Encrypt encrypts a plaintext value for storage.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt recovers the plaintext of a stored value.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrDecryptFailed
	}

	ns := c.aead.NonceSize()
	if len(raw) < ns {
		return "", ErrDecryptFailed
	}

	plain, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", ErrDecryptFailed
	}

	return string(plain), nil
}

// EncryptPtr encrypts a nullable value. Nil and empty stay nil.
func (c *Cipher) EncryptPtr(v *string) (*string, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	enc, err := c.Encrypt(*v)
	if err != nil {
		return nil, err
	}
	return &enc, nil
}

// DecryptPtr decrypts a nullable column. Nil stays nil.
func (c *Cipher) DecryptPtr(v *string) (*string, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	plain, err := c.Decrypt(*v)
	if err != nil {
		return nil, err
	}
	return &plain, nil
}

// ============================================================
// Masking helpers for API responses
// ============================================================

// MaskPhone keeps the last 4 digits visible.
func MaskPhone(phone string) string {
	if len(phone) < 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

// MaskDocumento keeps the first 3 and last 2 characters visible.
// Used for cedulas and RUC numbers.
func MaskDocumento(doc string) string {
	if len(doc) < 6 {
		return "****"
	}
	return doc[:3] + strings.Repeat("*", len(doc)-5) + doc[len(doc)-2:]
}

// MaskEmail keeps the first 2 characters of the local part and the domain.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 2 {
		return "****"
	}
	return email[:2] + "***" + email[at:]
}

// MaskValue fully hides a value (addresses, birth dates).
func MaskValue(v string) string {
	if v == "" {
		return ""
	}
	return "****"
}

// MaskPtr applies a masking function to a nullable decrypted value.
func MaskPtr(v *string, mask func(string) string) string {
	if v == nil {
		return ""
	}
	return mask(*v)
}
