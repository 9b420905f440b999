package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for PIN verification material.
const (
	pinHashTime    = 1
	pinHashMemory  = 64 * 1024 // 64MB
	pinHashThreads = 4
	pinHashKeyLen  = 32
	pinHashSaltLen = 16

	pinHashPrefix = "$argon2id$"
)

// Argon2PINHasher implements ports.PINHasher using Argon2id.
//
// Earlier releases stored the raw PIN string in the settings record; the
// auth gate detects that via IsEncoded and upgrades it after a successful
// legacy verification.
type Argon2PINHasher struct{}

// NewPINHasher creates a new Argon2id PIN hasher.
func NewPINHasher() *Argon2PINHasher {
	return &Argon2PINHasher{}
}

// Hash generates an Argon2id hash of the PIN.
// Returns format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func (h *Argon2PINHasher) Hash(pin string) (string, error) {
	salt := make([]byte, pinHashSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(pin), salt, pinHashTime, pinHashMemory, pinHashThreads, pinHashKeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		pinHashMemory, pinHashTime, pinHashThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify checks if a PIN matches the given Argon2id hash.
func (h *Argon2PINHasher) Verify(pin string, encodedHash string) (bool, error) {
	salt, hash, params, err := decodePINHash(encodedHash)
	if err != nil {
		return false, err
	}

	otherHash := argon2.IDKey([]byte(pin), salt, params.time, params.memory, params.threads, params.keyLen)

	return subtle.ConstantTimeCompare(hash, otherHash) == 1, nil
}

// IsEncoded reports whether stored is an Argon2id encoded hash rather
// than a raw legacy PIN.
func (h *Argon2PINHasher) IsEncoded(stored string) bool {
	return strings.HasPrefix(stored, pinHashPrefix)
}

type pinHashParams struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
}

func decodePINHash(encodedHash string) (salt, hash []byte, params pinHashParams, err error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return nil, nil, params, fmt.Errorf("invalid hash format: expected 6 parts, got %d", len(parts))
	}

	if parts[1] != "argon2id" {
		return nil, nil, params, fmt.Errorf("unsupported algorithm: %s", parts[1])
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, params, fmt.Errorf("parsing version: %w", err)
	}

	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads); err != nil {
		return nil, nil, params, fmt.Errorf("parsing params: %w", err)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, params, fmt.Errorf("decoding salt: %w", err)
	}

	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, params, fmt.Errorf("decoding hash: %w", err)
	}

	params.keyLen = uint32(len(hash))

	return salt, hash, params, nil
}
