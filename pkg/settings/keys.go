// Package settings resolves the collector's per-project configuration.
// Deployment-wide values form the lower layer and project values override
// them; secrets stored through pkg/secrets take precedence over plain values.
package settings

import (
	"strconv"
	"strings"
	"time"
)

// Setting keys as stored by the host.
const (
	KeyEncryptionKey        = "encryption-key"
	KeyEncryptionKeyVersion = "encryption-key-version"
	KeyEnabled              = "enabled"
	KeyEnableGeolocation    = "enable-geolocation"
	KeyGeolocationTimeout   = "geolocation-timeout"
	KeyZeroBounceAPIKey     = "zerobounce-api-key"
	KeyZeroBounceEmailField = "zerobounce-email-field"
	KeyNumverifyAPIKey      = "numverify-api-key"
	KeyNumverifyPhoneField  = "numverify-phone-field"
	KeyDebugMode            = "debug-mode"
	KeyDebugEditableIP      = "debug-editable-ip"
)

// Keys lists every known setting key.
func Keys() []string {
	return []string{
		KeyEncryptionKey, KeyEncryptionKeyVersion, KeyEnabled,
		KeyEnableGeolocation, KeyGeolocationTimeout,
		KeyZeroBounceAPIKey, KeyZeroBounceEmailField,
		KeyNumverifyAPIKey, KeyNumverifyPhoneField,
		KeyDebugMode, KeyDebugEditableIP,
	}
}

// Sensitive reports whether key holds a credential.
func Sensitive(key string) bool {
	switch key {
	case KeyEncryptionKey, KeyZeroBounceAPIKey, KeyNumverifyAPIKey:
		return true
	}
	return false
}

// SystemOnly reports whether key is read from the deployment scope only.
func SystemOnly(key string) bool {
	return key == KeyEncryptionKey || key == KeyEncryptionKeyVersion
}

const (
	DefaultGeolocationTimeout = 3 * time.Second
	MinGeolocationTimeout     = 1 * time.Second
	MaxGeolocationTimeout     = 30 * time.Second
)

// Settings is the resolved configuration for one project.
type Settings struct {
	ProjectID            string
	EncryptionKey        string
	EncryptionKeyVersion string
	Enabled              bool
	GeolocationEnabled   bool
	GeolocationTimeout   time.Duration
	ZeroBounceAPIKey     string
	ZeroBounceEmailField string
	NumverifyAPIKey      string
	NumverifyPhoneField  string
	DebugMode            bool
	DebugEditableIP      bool

	// Sources maps each resolved key to the scope that supplied it.
	Sources map[string]string
}

// EmailValidationConfigured reports whether both the API key and the
// designated email field are set.
func (s Settings) EmailValidationConfigured() bool {
	return strings.TrimSpace(s.ZeroBounceAPIKey) != "" && strings.TrimSpace(s.ZeroBounceEmailField) != ""
}

// PhoneValidationConfigured reports whether both the API key and the
// designated phone field are set.
func (s Settings) PhoneValidationConfigured() bool {
	return strings.TrimSpace(s.NumverifyAPIKey) != "" && strings.TrimSpace(s.NumverifyPhoneField) != ""
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on", "y":
		return true
	}
	return false
}

// ParseTimeout reads a seconds value and clamps it to the geolocation window.
func ParseTimeout(v string) time.Duration {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return DefaultGeolocationTimeout
	}
	d := time.Duration(n) * time.Second
	if d < MinGeolocationTimeout {
		return MinGeolocationTimeout
	}
	if d > MaxGeolocationTimeout {
		return MaxGeolocationTimeout
	}
	return d
}
