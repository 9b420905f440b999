package domain

// Logical record names in the device-local namespace.
const (
	RecordSettings = "settings"
	RecordAccounts = "accounts"
	RecordAudit    = "audit"
)

// UserSettings is the one record stored in plaintext: it must be readable
// before any PIN is supplied, since it drives authentication.
//
// PINHash holds either an Argon2id encoded hash (current format) or, for
// data written by earlier releases, the raw PIN string itself. The raw
// form is verified by constant-time equality and upgraded in place on the
// next successful authentication.
type UserSettings struct {
	DefaultCurrency  Currency `json:"defaultCurrency"`
	PINHash          string   `json:"pinHash,omitempty"`
	BiometricEnabled bool     `json:"biometricEnabled"`
	IsFirstLaunch    bool     `json:"isFirstLaunch"`
}

// DefaultSettings returns the settings used before any setup has happened.
func DefaultSettings() UserSettings {
	return UserSettings{
		DefaultCurrency:  CurrencyUSD,
		BiometricEnabled: false,
		IsFirstLaunch:    true,
	}
}

// HasPIN reports whether a PIN has been configured.
func (s UserSettings) HasPIN() bool {
	return s.PINHash != ""
}
