// Package ipcrypt encrypts participant IP addresses with a deployment-wide
// AES-256-CTR key and tags the ciphertext with the key version that produced it.
//
// The format is "<base64 ciphertext>||<version>" and is compatible with
// openssl_encrypt(aes-256-ctr) output using the same key and IV.
package ipcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"unicode"
)

const (
	// Delimiter separates ciphertext and key version.
	Delimiter = "||"
	// DefaultVersion is used when no key version is configured.
	DefaultVersion = "v1"
	// UnknownVersion is reported for values without a version suffix.
	UnknownVersion = "unknown"
	// Unknown is the IP sentinel used when no address could be resolved.
	Unknown = "UNKNOWN"

	keySize = 32
)

// iv is fixed per deployment so identical addresses encrypt identically.
var iv = []byte("1234567891011121")

var (
	ErrNoKey         = errors.New("ipcrypt: encryption key not configured")
	ErrEmpty         = errors.New("ipcrypt: empty value")
	ErrDecryptFailed = errors.New("ipcrypt: decryption failed")
)

// EncryptedValue is a ciphertext plus the key version that produced it.
type EncryptedValue struct {
	Ciphertext string
	Version    string
}

func (v EncryptedValue) String() string {
	version := v.Version
	if strings.TrimSpace(version) == "" {
		version = DefaultVersion
	}
	return v.Ciphertext + Delimiter + version
}

// Parse splits s at the last delimiter. A value without a delimiter is
// returned whole with UnknownVersion.
func Parse(s string) EncryptedValue {
	s = strings.TrimSpace(s)
	idx := strings.LastIndex(s, Delimiter)
	if idx < 0 {
		return EncryptedValue{Ciphertext: s, Version: UnknownVersion}
	}
	version := strings.TrimSpace(s[idx+len(Delimiter):])
	if version == "" {
		version = UnknownVersion
	}
	return EncryptedValue{Ciphertext: s[:idx], Version: version}
}

// Cipher encrypts and decrypts IP values with one key.
type Cipher struct {
	block   cipher.Block
	version string
}

// New builds a Cipher. The key is NUL padded or truncated to 32 bytes.
func New(key, version string) (*Cipher, error) {
	if key == "" {
		return nil, ErrNoKey
	}
	k := make([]byte, keySize)
	copy(k, key)
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("ipcrypt: init cipher: %w", err)
	}
	if strings.TrimSpace(version) == "" {
		version = DefaultVersion
	}
	return &Cipher{block: block, version: version}, nil
}

// Version returns the key version stamped on new values.
func (c *Cipher) Version() string { return c.version }

// Encrypt returns the tagged ciphertext of plaintext.
func (c *Cipher) Encrypt(plaintext string) (EncryptedValue, error) {
	if plaintext == "" {
		return EncryptedValue{}, ErrEmpty
	}
	out := make([]byte, len(plaintext))
	cipher.NewCTR(c.block, iv).XORKeyStream(out, []byte(plaintext))
	return EncryptedValue{
		Ciphertext: base64.StdEncoding.EncodeToString(out),
		Version:    c.version,
	}, nil
}

// Decrypt recovers the address in v. CTR mode carries no authentication, so
// the plaintext must look like an IP address (or the Unknown sentinel);
// anything else is reported as ErrDecryptFailed.
func (c *Cipher) Decrypt(v EncryptedValue) (string, error) {
	if strings.TrimSpace(v.Ciphertext) == "" {
		return "", ErrEmpty
	}
	raw, err := base64.StdEncoding.DecodeString(v.Ciphertext)
	if err != nil || len(raw) == 0 {
		return "", ErrDecryptFailed
	}
	out := make([]byte, len(raw))
	cipher.NewCTR(c.block, iv).XORKeyStream(out, raw)
	plain := string(out)
	if !plausible(plain) {
		return "", ErrDecryptFailed
	}
	return plain, nil
}

// DecryptString parses and decrypts s.
func (c *Cipher) DecryptString(s string) (string, EncryptedValue, error) {
	v := Parse(s)
	ip, err := c.Decrypt(v)
	return ip, v, err
}

func plausible(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return false
		}
	}
	if s == Unknown {
		return true
	}
	_, err := netip.ParseAddr(s)
	return err == nil
}
