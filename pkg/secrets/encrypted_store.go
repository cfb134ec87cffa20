package secrets

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/chacha20poly1305"

	iface "github.com/goliatone/go-survey-collector/pkg/interfaces/secrets"
)

// EncryptedStoreProvider persists integration API keys sealed with
// XChaCha20-Poly1305. The reference identity is bound as additional data,
// so a record copied to another project or key fails to open.
type EncryptedStoreProvider struct {
	store iface.Store
	aead  cipherSuite
	now   func() time.Time
}

type cipherSuite interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	NonceSize() int
}

var _ Provider = (*EncryptedStoreProvider)(nil)

// NewEncryptedStoreProvider builds a provider using the given store and key.
func NewEncryptedStoreProvider(store iface.Store, key []byte) (*EncryptedStoreProvider, error) {
	if store == nil {
		return nil, fmt.Errorf("encrypted provider: store required")
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("encrypted provider: key must be %d bytes", chacha20poly1305.KeySize)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("encrypted provider: %w", err)
	}
	return &EncryptedStoreProvider{
		store: store,
		aead:  aead,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

func (p *EncryptedStoreProvider) Get(ctx context.Context, ref Reference) (SecretValue, error) {
	if err := ValidateReference(ref); err != nil {
		return SecretValue{}, err
	}
	var (
		rec iface.Record
		err error
	)
	if ref.Version != "" {
		rec, err = p.store.GetVersion(ctx, string(ref.Scope), ref.SubjectID, ref.Integration, ref.Key, ref.Version)
	} else {
		rec, err = p.store.GetLatest(ctx, string(ref.Scope), ref.SubjectID, ref.Integration, ref.Key)
	}
	if err != nil {
		return SecretValue{}, translateStoreError(err)
	}
	plain, err := p.aead.Open(nil, rec.Nonce, rec.Cipher, associatedData(ref))
	if err != nil {
		return SecretValue{}, fmt.Errorf("%w: %v", ErrSealBroken, err)
	}
	return SecretValue{Data: plain, Version: rec.Version, Retrieved: p.now()}, nil
}

func (p *EncryptedStoreProvider) Put(ctx context.Context, ref Reference, value []byte) (string, error) {
	if err := ValidateReference(ref); err != nil {
		return "", err
	}
	if len(value) == 0 {
		return "", ErrEmptyValue
	}
	if ref.Version == "" {
		ref.Version = p.now().Format(time.RFC3339Nano)
	}
	nonce := make([]byte, p.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	rec := iface.Record{
		Scope:       string(ref.Scope),
		SubjectID:   ref.SubjectID,
		Integration: ref.Integration,
		Key:         ref.Key,
		Version:     ref.Version,
		Cipher:      p.aead.Seal(nil, nonce, value, associatedData(ref)),
		Nonce:       nonce,
		Metadata:    map[string]any{"created_at": p.now()},
	}
	if err := p.store.Put(ctx, rec); err != nil {
		return "", translateStoreError(err)
	}
	return ref.Version, nil
}

func (p *EncryptedStoreProvider) Delete(ctx context.Context, ref Reference) error {
	if err := ValidateReference(ref); err != nil {
		return err
	}
	return translateStoreError(p.store.Delete(ctx, string(ref.Scope), ref.SubjectID, ref.Integration, ref.Key))
}

// associatedData ignores the version so every version of a key shares it.
func associatedData(ref Reference) []byte {
	return []byte(string(ref.Scope) + "\x00" + ref.SubjectID + "\x00" + ref.Integration + "\x00" + ref.Key)
}

func translateStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, ErrNotFound):
		return ErrNotFound
	default:
		return err
	}
}
