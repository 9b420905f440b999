package apperror

import (
	"errors"
	"fmt"
)

// AppError is a structured error carrying a stable machine-readable code.
type AppError struct {
	Code    string
	Message string
	Err     error // Wrapped internal error (not shown in user-facing messages)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Code extracts the error code from err, or "" if err is not an AppError.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code string) bool {
	return Code(err) == code
}

// Error codes grouped by concern.
const (
	CodeAuthenticationFailed = "CRYPTO_001"
	CodeNoKeyAvailable       = "CRYPTO_002"
	CodeCorruptedData        = "STORE_001"
	CodeStorageWrite         = "STORE_002"
	CodeAccountNotFound      = "LEDGER_001"
	CodeValidation           = "LEDGER_002"
	CodeInternal             = "SYS_001"
)

// ---- Cryptography (CRYPTO) ----

// ErrAuthenticationFailed signals an AEAD tag verification failure.
// Wrong PIN and corrupted ciphertext are deliberately indistinguishable.
func ErrAuthenticationFailed() *AppError {
	return New(CodeAuthenticationFailed, "Authentication failed: wrong PIN or corrupted data")
}

// ErrNoKeyAvailable signals an encrypted operation with no PIN cached or supplied.
func ErrNoKeyAvailable(key string) *AppError {
	return New(CodeNoKeyAvailable, fmt.Sprintf("No key available for encrypted record %q", key))
}

// ---- Record store (STORE) ----

// ErrCorruptedData signals stored text that is neither valid plaintext nor a valid envelope.
func ErrCorruptedData(key string, err error) *AppError {
	return Wrap(CodeCorruptedData, fmt.Sprintf("Stored record %q is corrupted", key), err)
}

// ErrStorageWrite signals a rejected write in the underlying persistence layer.
func ErrStorageWrite(key string, err error) *AppError {
	return Wrap(CodeStorageWrite, fmt.Sprintf("Failed to write record %q", key), err)
}

// ---- Ledger (LEDGER) ----

// ErrAccountNotFound signals a mutation referencing an unknown account id.
func ErrAccountNotFound(id string) *AppError {
	return New(CodeAccountNotFound, fmt.Sprintf("Account %s not found", id))
}

// Validation returns a LEDGER_002 input validation error.
func Validation(message string) *AppError {
	return New(CodeValidation, message)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(CodeInternal, "Internal error", err)
}
