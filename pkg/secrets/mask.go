package secrets

import (
	"strings"

	masker "github.com/goliatone/go-masker"
)

const maskRule = "preserveEnds(2,2)"

var defaultSecretFields = []string{
	"api_key", "apikey", "access_key",
	"encryption_key", "encryption-key",
	"zerobounce-api-key", "numverify-api-key",
	"email", "phone", "ip", "ip_address",
}

func init() {
	for _, field := range defaultSecretFields {
		masker.Default.RegisterMaskField(field, maskRule)
	}
}

// Mask hides the middle of a sensitive value for logging.
func Mask(value string) string {
	if value == "" {
		return ""
	}
	if masked, err := masker.Default.String(maskRule, value); err == nil {
		return masked
	}
	runes := []rune(value)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-2:])
}

// MaskValues returns a masked copy of the provided map for safe logging.
func MaskValues(values map[Reference]SecretValue) map[string]any {
	if len(values) == 0 {
		return nil
	}
	masked := make(map[string]any, len(values))
	for ref, val := range values {
		keyName := ref.Key
		if strings.TrimSpace(keyName) == "" {
			keyName = ref.Integration
		}
		masked[keyName] = map[string]any{
			"value":   Mask(string(val.Data)),
			"version": val.Version,
		}
	}
	return masked
}
