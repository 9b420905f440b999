package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"zenledger/internal/core/domain"
	"zenledger/internal/core/ports"
	"zenledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// SecureStore implements ports.RecordStore: encrypt-on-write and
// decrypt-on-read over a raw device-local namespace, with silent upgrade
// of legacy unencrypted records on first access.
//
// The settings record is always plaintext — it must be readable before
// any PIN exists.
type SecureStore struct {
	kv      ports.KVStore
	codec   ports.EnvelopeCodec
	session *Session
	log     zerolog.Logger

	// allowPlaintextFallback permits encrypted-class writes to degrade to
	// plaintext when no PIN is available. Off by default; every fallback
	// is logged.
	allowPlaintextFallback bool

	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
}

// NewSecureStore creates a record store over kv.
func NewSecureStore(kv ports.KVStore, codec ports.EnvelopeCodec, session *Session, allowPlaintextFallback bool, log zerolog.Logger) *SecureStore {
	return &SecureStore{
		kv:                     kv,
		codec:                  codec,
		session:                session,
		allowPlaintextFallback: allowPlaintextFallback,
		log:                    log,
		keyLocks:               make(map[string]*sync.Mutex),
	}
}

// lockKey serializes operations per logical key: a write in flight for key
// K completes before another operation on K starts. Different keys are
// independent.
func (s *SecureStore) lockKey(key string) func() {
	s.mu.Lock()
	l, ok := s.keyLocks[key]
	if !ok {
		l = &sync.Mutex{}
		s.keyLocks[key] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// resolvePIN returns the explicit PIN if given, else the session-cached one.
func (s *SecureStore) resolvePIN(opts ports.RecordOptions) string {
	if opts.PIN != "" {
		return opts.PIN
	}
	if pin, ok := s.session.Current(); ok {
		return pin
	}
	return ""
}

// Set serializes value and persists it under key, encrypting
// encrypted-class records under the available PIN.
func (s *SecureStore) Set(ctx context.Context, key string, value any, opts ports.RecordOptions) error {
	unlock := s.lockKey(key)
	defer unlock()
	return s.setLocked(ctx, key, value, opts)
}

func (s *SecureStore) setLocked(ctx context.Context, key string, value any, opts ports.RecordOptions) error {
	data, err := json.Marshal(value)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("serializing record %q: %w", key, err))
	}

	if !opts.Encrypt || key == domain.RecordSettings {
		return s.put(ctx, key, data)
	}

	pin := s.resolvePIN(opts)
	if pin == "" {
		if !s.allowPlaintextFallback {
			return apperror.ErrNoKeyAvailable(key)
		}
		s.log.Warn().Str("record", key).Msg("no PIN available, storing record unencrypted")
		return s.put(ctx, key, data)
	}

	return s.encryptAndPut(ctx, key, data, pin)
}

// Get loads the record for key into out. Records carrying the envelope
// prefix are decrypted; records without it are legacy data, read as
// plaintext JSON (or a prefixless envelope from an earlier release) and
// opportunistically re-encrypted under the current PIN.
func (s *SecureStore) Get(ctx context.Context, key string, out any, opts ports.RecordOptions) (bool, error) {
	unlock := s.lockKey(key)
	defer unlock()

	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("reading record %q: %w", key, err))
	}
	if raw == nil {
		return false, nil
	}

	if !opts.Encrypt || key == domain.RecordSettings {
		if err := json.Unmarshal(raw, out); err != nil {
			return false, apperror.ErrCorruptedData(key, err)
		}
		return true, nil
	}

	pin := s.resolvePIN(opts)
	if pin == "" {
		if !s.allowPlaintextFallback {
			return false, apperror.ErrNoKeyAvailable(key)
		}
		// Best effort without a key: the record may still be legacy plaintext.
		s.log.Warn().Str("record", key).Msg("no PIN available, attempting plaintext read")
		if err := json.Unmarshal(raw, out); err != nil {
			return false, apperror.ErrNoKeyAvailable(key)
		}
		return true, nil
	}

	stored := string(raw)
	if IsEnvelope(stored) {
		// Versioned envelope: a decrypt failure is real, never a legacy format.
		plaintext, err := s.codec.Decrypt(stored, pin)
		if err != nil {
			return false, err
		}
		if err := json.Unmarshal(plaintext, out); err != nil {
			return false, apperror.ErrCorruptedData(key, err)
		}
		return true, nil
	}

	return s.getLegacy(ctx, key, raw, out, pin)
}

// getLegacy handles pre-migration records: plaintext JSON first, then a
// prefixless envelope. Either way the record is rewritten as a versioned
// envelope so it is encrypted after its first access post-upgrade.
func (s *SecureStore) getLegacy(ctx context.Context, key string, raw []byte, out any, pin string) (bool, error) {
	if err := json.Unmarshal(raw, out); err == nil {
		s.log.Info().Str("record", key).Msg("migrating legacy plaintext record to encrypted envelope")
		s.migrate(ctx, key, raw, pin)
		return true, nil
	}

	plaintext, err := s.codec.Decrypt(string(raw), pin)
	if err != nil {
		return false, apperror.ErrCorruptedData(key, err)
	}
	if err := json.Unmarshal(plaintext, out); err != nil {
		return false, apperror.ErrCorruptedData(key, err)
	}

	s.log.Info().Str("record", key).Msg("migrating prefixless envelope to versioned format")
	s.migrate(ctx, key, plaintext, pin)
	return true, nil
}

// migrate re-encrypts a legacy record in place. A failed migration never
// fails the read; the record is picked up again on the next access.
func (s *SecureStore) migrate(ctx context.Context, key string, plaintext []byte, pin string) {
	if err := s.encryptAndPut(ctx, key, plaintext, pin); err != nil {
		s.log.Warn().Err(err).Str("record", key).Msg("failed to re-encrypt legacy record")
	}
}

func (s *SecureStore) encryptAndPut(ctx context.Context, key string, plaintext []byte, pin string) error {
	envelope, err := s.codec.Encrypt(plaintext, pin)
	if err != nil {
		return err
	}
	return s.put(ctx, key, []byte(envelope))
}

func (s *SecureStore) put(ctx context.Context, key string, data []byte) error {
	if err := s.kv.Put(ctx, key, data); err != nil {
		return apperror.ErrStorageWrite(key, err)
	}
	return nil
}

// Remove deletes one record unconditionally.
func (s *SecureStore) Remove(ctx context.Context, key string) error {
	unlock := s.lockKey(key)
	defer unlock()

	if err := s.kv.Delete(ctx, key); err != nil {
		return apperror.ErrStorageWrite(key, err)
	}
	return nil
}

// Clear deletes the entire namespace unconditionally. Callers confirm
// destructive intent before calling.
func (s *SecureStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Clear(ctx); err != nil {
		return apperror.ErrStorageWrite("*", err)
	}
	return nil
}
