package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"zenledger/internal/core/domain"
	"zenledger/internal/core/ports"
	"zenledger/pkg/apperror"
	"zenledger/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, allowFallback bool) (*SecureStore, *inMemoryKV, *Session) {
	t.Helper()
	kv := newInMemoryKV()
	session := NewSession(time.Hour)
	store := NewSecureStore(kv, testCodec(), session, allowFallback, logger.Nop())
	return store, kv, session
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestSecureStore_PlaintextRecord(t *testing.T) {
	store, kv, _ := newTestStore(t, false)
	ctx := context.Background()

	settings := domain.DefaultSettings()
	require.NoError(t, store.Set(ctx, domain.RecordSettings, settings, ports.RecordOptions{}))

	// Settings are stored as readable JSON, never an envelope.
	assert.False(t, IsEnvelope(string(kv.raw(domain.RecordSettings))))

	var loaded domain.UserSettings
	found, err := store.Get(ctx, domain.RecordSettings, &loaded, ports.RecordOptions{})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, settings, loaded)
}

func TestSecureStore_SettingsNeverEncrypted(t *testing.T) {
	store, kv, session := newTestStore(t, false)
	session.Unlock("1234")

	// Even with Encrypt requested and a PIN available, settings stay plaintext.
	require.NoError(t, store.Set(context.Background(), domain.RecordSettings, domain.DefaultSettings(), ports.RecordOptions{Encrypt: true}))
	assert.False(t, IsEnvelope(string(kv.raw(domain.RecordSettings))))
}

func TestSecureStore_EncryptedRoundTrip(t *testing.T) {
	store, kv, session := newTestStore(t, false)
	session.Unlock("1234")
	ctx := context.Background()

	value := payload{Name: "accounts", Count: 3}
	require.NoError(t, store.Set(ctx, domain.RecordAccounts, value, ports.RecordOptions{Encrypt: true}))

	assert.True(t, IsEnvelope(string(kv.raw(domain.RecordAccounts))))

	var loaded payload
	found, err := store.Get(ctx, domain.RecordAccounts, &loaded, ports.RecordOptions{Encrypt: true})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, value, loaded)
}

func TestSecureStore_ExplicitPINOverridesSession(t *testing.T) {
	store, _, session := newTestStore(t, false)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, domain.RecordAccounts, payload{Name: "x"}, ports.RecordOptions{Encrypt: true, PIN: "9999"}))

	// Session PIN differs; the explicit PIN must win on read too.
	session.Unlock("1234")
	var loaded payload
	found, err := store.Get(ctx, domain.RecordAccounts, &loaded, ports.RecordOptions{Encrypt: true, PIN: "9999"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "x", loaded.Name)

	// Reading with the (wrong) session PIN fails authentication.
	_, err = store.Get(ctx, domain.RecordAccounts, &loaded, ports.RecordOptions{Encrypt: true})
	assert.Equal(t, apperror.CodeAuthenticationFailed, apperror.Code(err))
}

func TestSecureStore_GetAbsentReturnsNotFound(t *testing.T) {
	store, _, _ := newTestStore(t, false)

	loaded := payload{Name: "default"}
	found, err := store.Get(context.Background(), domain.RecordAccounts, &loaded, ports.RecordOptions{Encrypt: true})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "default", loaded.Name, "out must stay untouched so callers keep their default")
}

func TestSecureStore_NoKeyAvailable(t *testing.T) {
	store, _, _ := newTestStore(t, false)
	ctx := context.Background()

	err := store.Set(ctx, domain.RecordAccounts, payload{}, ports.RecordOptions{Encrypt: true})
	assert.Equal(t, apperror.CodeNoKeyAvailable, apperror.Code(err))
}

func TestSecureStore_PlaintextFallbackOptIn(t *testing.T) {
	store, kv, _ := newTestStore(t, true)
	ctx := context.Background()

	// With the fallback policy enabled, the write degrades to plaintext.
	require.NoError(t, store.Set(ctx, domain.RecordAccounts, payload{Name: "open"}, ports.RecordOptions{Encrypt: true}))
	assert.False(t, IsEnvelope(string(kv.raw(domain.RecordAccounts))))

	var loaded payload
	found, err := store.Get(ctx, domain.RecordAccounts, &loaded, ports.RecordOptions{Encrypt: true})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "open", loaded.Name)
}

func TestSecureStore_LegacyPlaintextMigration(t *testing.T) {
	store, kv, session := newTestStore(t, false)
	session.Unlock("1234")
	ctx := context.Background()

	// Simulate pre-migration data: plain JSON under an encrypted-class key.
	legacy, err := json.Marshal(payload{Name: "legacy", Count: 7})
	require.NoError(t, err)
	require.NoError(t, kv.Put(ctx, domain.RecordAccounts, legacy))

	var loaded payload
	found, err := store.Get(ctx, domain.RecordAccounts, &loaded, ports.RecordOptions{Encrypt: true})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "legacy", loaded.Name)

	// The record is re-encrypted after its first access.
	assert.True(t, IsEnvelope(string(kv.raw(domain.RecordAccounts))))

	var reloaded payload
	found, err = store.Get(ctx, domain.RecordAccounts, &reloaded, ports.RecordOptions{Encrypt: true})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, loaded, reloaded)
}

func TestSecureStore_LegacyPrefixlessEnvelopeMigration(t *testing.T) {
	store, kv, session := newTestStore(t, false)
	session.Unlock("1234")
	ctx := context.Background()

	// Records from the earliest encrypted release: bare base64 envelope.
	codec := testCodec()
	data, err := json.Marshal(payload{Name: "old-envelope"})
	require.NoError(t, err)
	envelope, err := codec.Encrypt(data, "1234")
	require.NoError(t, err)
	require.NoError(t, kv.Put(ctx, domain.RecordAudit, []byte(envelope[len(EnvelopePrefix):])))

	var loaded payload
	found, err := store.Get(ctx, domain.RecordAudit, &loaded, ports.RecordOptions{Encrypt: true})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "old-envelope", loaded.Name)

	assert.True(t, IsEnvelope(string(kv.raw(domain.RecordAudit))))
}

func TestSecureStore_CorruptedRecord(t *testing.T) {
	store, kv, session := newTestStore(t, false)
	session.Unlock("1234")
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, domain.RecordAccounts, []byte("neither json nor envelope")))

	var loaded payload
	found, err := store.Get(ctx, domain.RecordAccounts, &loaded, ports.RecordOptions{Encrypt: true})
	assert.False(t, found)
	assert.Equal(t, apperror.CodeCorruptedData, apperror.Code(err))
}

func TestSecureStore_WrongPINOnVersionedEnvelopeIsAuthError(t *testing.T) {
	store, _, session := newTestStore(t, false)
	session.Unlock("1234")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, domain.RecordAccounts, payload{Name: "x"}, ports.RecordOptions{Encrypt: true}))

	// A versioned envelope under the wrong PIN must fail authentication,
	// not fall through to the legacy path.
	session.Unlock("0000")
	var loaded payload
	_, err := store.Get(ctx, domain.RecordAccounts, &loaded, ports.RecordOptions{Encrypt: true})
	assert.Equal(t, apperror.CodeAuthenticationFailed, apperror.Code(err))
}

func TestSecureStore_StorageWriteError(t *testing.T) {
	store, kv, session := newTestStore(t, false)
	session.Unlock("1234")
	kv.failPuts = errors.New("disk full")

	err := store.Set(context.Background(), domain.RecordAccounts, payload{}, ports.RecordOptions{Encrypt: true})
	assert.Equal(t, apperror.CodeStorageWrite, apperror.Code(err))
}

func TestSecureStore_RemoveAndClear(t *testing.T) {
	store, kv, _ := newTestStore(t, false)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, domain.RecordSettings, domain.DefaultSettings(), ports.RecordOptions{}))
	require.NoError(t, store.Remove(ctx, domain.RecordSettings))
	assert.Nil(t, kv.raw(domain.RecordSettings))

	require.NoError(t, store.Set(ctx, domain.RecordSettings, domain.DefaultSettings(), ports.RecordOptions{}))
	require.NoError(t, store.Clear(ctx))
	assert.Nil(t, kv.raw(domain.RecordSettings))
}

func TestSecureStore_SessionExpiryBlocksEncryptedAccess(t *testing.T) {
	kv := newInMemoryKV()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	session := NewSession(time.Hour)
	session.now = func() time.Time { return now }
	store := NewSecureStore(kv, testCodec(), session, false, logger.Nop())
	ctx := context.Background()

	session.Unlock("1234")
	require.NoError(t, store.Set(ctx, domain.RecordAccounts, payload{Name: "x"}, ports.RecordOptions{Encrypt: true}))

	now = now.Add(61 * time.Minute)
	var loaded payload
	_, err := store.Get(ctx, domain.RecordAccounts, &loaded, ports.RecordOptions{Encrypt: true})
	assert.Equal(t, apperror.CodeNoKeyAvailable, apperror.Code(err))
}
