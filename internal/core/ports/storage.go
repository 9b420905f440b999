package ports

import "context"

// KVStore is the raw device-local namespace: opaque byte records keyed by
// logical names. Implementations do not interpret values.
type KVStore interface {
	// Get returns the stored bytes for key, or (nil, nil) when absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Clear removes every record in the namespace.
	Clear(ctx context.Context) error
}

// RecordOptions controls encryption for a single record operation.
type RecordOptions struct {
	// Encrypt marks the record as encrypted-class. The settings record is
	// always stored in plaintext regardless of this flag.
	Encrypt bool
	// PIN overrides the session-cached PIN when non-empty.
	PIN string
}

// RecordStore persists typed records, encrypting and decrypting
// encrypted-class records transparently. Operations on the same key are
// serialized; operations on different keys are independent.
type RecordStore interface {
	// Set serializes value and persists it under key.
	Set(ctx context.Context, key string, value any, opts RecordOptions) error
	// Get loads the record into out (a pointer). It returns false when no
	// record exists, leaving out untouched so callers keep their default.
	Get(ctx context.Context, key string, out any, opts RecordOptions) (bool, error)
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
