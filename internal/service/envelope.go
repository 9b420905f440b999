package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"zenledger/pkg/apperror"

	"golang.org/x/crypto/pbkdf2"
)

// Envelope layout: EnvelopePrefix + base64(salt || nonce || ciphertext+tag).
// The version prefix makes encrypted records unambiguous; anything without
// it is legacy data.
const (
	EnvelopePrefix = "ZLE1:"

	envelopeSaltSize  = 16
	envelopeNonceSize = 12
	envelopeKeySize   = 32 // AES-256
	envelopeTagSize   = 16 // GCM authentication tag

	// MinKDFIterations is the floor for the PBKDF2 work factor. Key
	// derivation cost is the deliberate defense against PIN brute-forcing.
	MinKDFIterations = 100_000
)

// PBKDF2EnvelopeCodec implements ports.EnvelopeCodec with
// PBKDF2-SHA256 key derivation and AES-256-GCM.
type PBKDF2EnvelopeCodec struct {
	iterations int
}

// NewEnvelopeCodec creates a codec with the given PBKDF2 work factor.
// Values below MinKDFIterations are raised to it.
func NewEnvelopeCodec(iterations int) *PBKDF2EnvelopeCodec {
	if iterations < MinKDFIterations {
		iterations = MinKDFIterations
	}
	return &PBKDF2EnvelopeCodec{iterations: iterations}
}

// Encrypt derives a fresh key from (pin, random salt) and seals plaintext
// under AES-256-GCM with a fresh nonce. Both salt and nonce come from
// crypto/rand on every call, so a (key, nonce) pair is never reused.
func (c *PBKDF2EnvelopeCodec) Encrypt(plaintext []byte, pin string) (string, error) {
	salt := make([]byte, envelopeSaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", apperror.InternalError(fmt.Errorf("generating salt: %w", err))
	}

	nonce := make([]byte, envelopeNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", apperror.InternalError(fmt.Errorf("generating nonce: %w", err))
	}

	aesGCM, err := c.aead(pin, salt)
	if err != nil {
		return "", err
	}

	blob := make([]byte, 0, envelopeSaltSize+envelopeNonceSize+len(plaintext)+envelopeTagSize)
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = aesGCM.Seal(blob, nonce, plaintext, nil)

	return EnvelopePrefix + base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt re-derives the key from the embedded salt and opens the
// ciphertext. Tag verification failure yields CRYPTO_001 without
// distinguishing a wrong PIN from corrupted data. Envelopes without the
// version prefix (written by earlier releases) are accepted.
func (c *PBKDF2EnvelopeCodec) Decrypt(envelope string, pin string) ([]byte, error) {
	encoded := strings.TrimPrefix(envelope, EnvelopePrefix)

	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, apperror.ErrCorruptedData("envelope", fmt.Errorf("decoding base64: %w", err))
	}
	if len(blob) < envelopeSaltSize+envelopeNonceSize+envelopeTagSize {
		return nil, apperror.ErrCorruptedData("envelope", fmt.Errorf("blob too short: %d bytes", len(blob)))
	}

	salt := blob[:envelopeSaltSize]
	nonce := blob[envelopeSaltSize : envelopeSaltSize+envelopeNonceSize]
	ciphertext := blob[envelopeSaltSize+envelopeNonceSize:]

	aesGCM, err := c.aead(pin, salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, apperror.ErrAuthenticationFailed()
	}
	return plaintext, nil
}

func (c *PBKDF2EnvelopeCodec) aead(pin string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(pin), salt, c.iterations, envelopeKeySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("creating cipher: %w", err))
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("creating GCM: %w", err))
	}
	return aesGCM, nil
}

// IsEnvelope reports whether stored carries the envelope version prefix.
func IsEnvelope(stored string) bool {
	return strings.HasPrefix(stored, EnvelopePrefix)
}
