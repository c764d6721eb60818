// Package cryptox implements field-level encryption with a user-held master
// secret. Every call derives a fresh key from the secret and a random salt
// (PBKDF2-SHA512) and seals with AES-256-GCM.
//
// Blob format: four hex segments joined by ':' in the fixed order
//
//	salt:nonce:authTag:ciphertext
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/docsync/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize   = 64
	NonceSize  = 16
	TagSize    = 16
	KeySize    = 32
	Iterations = 100_000

	separator = ":"
)

// randRead is a test seam for crypto/rand.
var randRead = rand.Read

// DeriveKey stretches secret with salt into a 256-bit AES key.
func DeriveKey(secret string, salt []byte) []byte {
	return pbkdf2.Key([]byte(secret), salt, Iterations, KeySize, sha512.New)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, NonceSize)
}

// EncryptString seals plaintext as-is and returns the blob text.
func EncryptString(plaintext, secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("%w: master secret is empty", common.ErrValidation)
	}

	salt := make([]byte, SaltSize)
	if _, err := randRead(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	nonce := make([]byte, NonceSize)
	if _, err := randRead(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	aead, err := newGCM(DeriveKey(secret, salt))
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}

	sealed := aead.Seal(nil, nonce, []byte(plaintext), nil)
	ct, tag := sealed[:len(sealed)-TagSize], sealed[len(sealed)-TagSize:]

	return strings.Join([]string{
		hex.EncodeToString(salt),
		hex.EncodeToString(nonce),
		hex.EncodeToString(tag),
		hex.EncodeToString(ct),
	}, separator), nil
}

// DecryptString opens a blob produced by EncryptString. A malformed blob or a
// wrong secret fails with common.ErrDecryption.
func DecryptString(blob, secret string) (string, error) {
	salt, nonce, tag, ct, err := parseBlob(blob)
	if err != nil {
		return "", err
	}

	aead, err := newGCM(DeriveKey(secret, salt))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}

	plain, err := aead.Open(nil, nonce, append(ct, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", common.ErrDecryption)
	}
	return string(plain), nil
}

// Encrypt converts v to text (strings raw, anything else as JSON) and seals it.
func Encrypt(v any, secret string) (string, error) {
	if s, ok := v.(string); ok {
		return EncryptString(s, secret)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode value: %w", err)
	}
	return EncryptString(string(b), secret)
}

// Decrypt opens blob and parses the plaintext as JSON, falling back to the
// raw text when it is not valid JSON. Callers that need a string back
// verbatim (e.g. "123") should use DecryptString.
func Decrypt(blob, secret string) (any, error) {
	s, err := DecryptString(blob, secret)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s, nil
	}
	return v, nil
}

// IsBlob reports whether s has the shape of an encrypted blob.
func IsBlob(s string) bool {
	_, _, _, _, err := parseBlob(s)
	return err == nil
}

func parseBlob(blob string) (salt, nonce, tag, ct []byte, err error) {
	parts := strings.Split(blob, separator)
	if len(parts) != 4 {
		return nil, nil, nil, nil, fmt.Errorf("%w: expected 4 segments, got %d", common.ErrDecryption, len(parts))
	}

	decoded := make([][]byte, 4)
	for i, p := range parts {
		b, err := hex.DecodeString(p)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("%w: segment %d: %v", common.ErrDecryption, i, err)
		}
		decoded[i] = b
	}

	salt, nonce, tag, ct = decoded[0], decoded[1], decoded[2], decoded[3]
	if len(salt) == 0 || len(nonce) != NonceSize || len(tag) != TagSize {
		return nil, nil, nil, nil, fmt.Errorf("%w: malformed blob header", common.ErrDecryption)
	}
	return salt, nonce, tag, ct, nil
}
