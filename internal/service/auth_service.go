package service

import (
	"context"
	"crypto/subtle"

	"zenledger/internal/core/domain"
	"zenledger/internal/core/ports"
	"zenledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// AuthService implements ports.AuthGate. It validates a PIN against the
// stored settings record and is the only path by which the record store
// receives a usable key.
type AuthService struct {
	store   ports.RecordStore
	session *Session
	hasher  ports.PINHasher
	ledger  ports.Ledger
	log     zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(store ports.RecordStore, session *Session, hasher ports.PINHasher, ledger ports.Ledger, log zerolog.Logger) *AuthService {
	return &AuthService{
		store:   store,
		session: session,
		hasher:  hasher,
		ledger:  ledger,
		log:     log,
	}
}

// Settings reads the settings record, falling back to defaults when none
// exists yet.
func (s *AuthService) Settings(ctx context.Context) (domain.UserSettings, error) {
	settings := domain.DefaultSettings()
	if _, err := s.store.Get(ctx, domain.RecordSettings, &settings, ports.RecordOptions{}); err != nil {
		return domain.DefaultSettings(), err
	}
	return settings, nil
}

// Authenticate compares pin to the stored verification material and
// unlocks the session on success. Settings written by earlier releases
// hold the raw PIN; those are verified by constant-time equality and
// upgraded to an Argon2id hash on the spot.
func (s *AuthService) Authenticate(ctx context.Context, pin string) (bool, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return false, err
	}
	if !settings.HasPIN() {
		return false, nil
	}

	if s.hasher.IsEncoded(settings.PINHash) {
		match, err := s.hasher.Verify(pin, settings.PINHash)
		if err != nil {
			return false, apperror.InternalError(err)
		}
		if !match {
			return false, nil
		}
		s.session.Unlock(pin)
		return true, nil
	}

	// Legacy format: the settings record stores the PIN itself.
	if subtle.ConstantTimeCompare([]byte(pin), []byte(settings.PINHash)) != 1 {
		return false, nil
	}
	s.session.Unlock(pin)
	s.upgradePINHash(ctx, settings, pin)
	return true, nil
}

// upgradePINHash rewrites legacy raw-PIN settings with an Argon2id hash.
// Failure is logged, never fatal: authentication already succeeded and the
// upgrade runs again on the next login.
func (s *AuthService) upgradePINHash(ctx context.Context, settings domain.UserSettings, pin string) {
	hash, err := s.hasher.Hash(pin)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to hash PIN for legacy upgrade")
		return
	}
	settings.PINHash = hash
	if err := s.store.Set(ctx, domain.RecordSettings, settings, ports.RecordOptions{}); err != nil {
		s.log.Warn().Err(err).Msg("failed to upgrade legacy PIN verification material")
		return
	}
	s.log.Info().Msg("upgraded legacy PIN storage to Argon2id hash")
}

// SetupPin stores new verification material, marks first launch as done
// and unlocks the session.
func (s *AuthService) SetupPin(ctx context.Context, pin string) error {
	if pin == "" {
		return apperror.Validation("PIN must not be empty")
	}

	settings, err := s.Settings(ctx)
	if err != nil {
		// A corrupted settings record is replaced outright on setup.
		s.log.Warn().Err(err).Msg("replacing unreadable settings record")
		settings = domain.DefaultSettings()
	}

	hash, err := s.hasher.Hash(pin)
	if err != nil {
		return apperror.InternalError(err)
	}
	settings.PINHash = hash
	settings.IsFirstLaunch = false

	if err := s.store.Set(ctx, domain.RecordSettings, settings, ports.RecordOptions{}); err != nil {
		return err
	}
	s.session.Unlock(pin)
	return nil
}

// Logout locks the session immediately.
func (s *AuthService) Logout() {
	s.session.Lock()
}

// LoadData performs the migration-aware load of both encrypted
// collections. With an empty pin the session-cached PIN is used; if
// neither is available the load fails rather than proceeding without a
// key.
func (s *AuthService) LoadData(ctx context.Context, pin string) error {
	if pin == "" {
		cached, ok := s.session.Current()
		if !ok {
			return apperror.ErrNoKeyAvailable(domain.RecordAccounts)
		}
		pin = cached
	}
	return s.ledger.Load(ctx, pin)
}
