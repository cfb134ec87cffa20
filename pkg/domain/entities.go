package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RecordMeta captures identifiers and audit fields shared across entities.
type RecordMeta struct {
	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	DeletedAt time.Time `bun:",soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureID assigns a UUID when the struct is about to be persisted.
func (m *RecordMeta) EnsureID() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
}

// Touch stamps the record for a write at now: it assigns an ID and a
// creation time on first write and always moves UpdatedAt.
func (m *RecordMeta) Touch(now time.Time) {
	m.EnsureID()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// JSONMap persists arbitrary metadata fields as JSON.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("null"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value any) error {
	if m == nil {
		return errors.New("JSONMap: Scan on nil pointer")
	}
	switch v := value.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("JSONMap: unsupported type %T", value)
	}
}

// Setting scopes.
const (
	SettingScopeSystem  = "system"
	SettingScopeProject = "project"

	// SystemSubjectID owns deployment-wide settings.
	SystemSubjectID = "deployment"
)

// Setting is one key/value configuration entry owned by a scope. System
// settings use SystemSubjectID; project settings use the project id.
type Setting struct {
	bun.BaseModel `bun:"table:collector_settings,alias:cs"`
	RecordMeta

	Scope     string `bun:",notnull" json:"scope"`
	SubjectID string `bun:",notnull" json:"subject_id"`
	Key       string `bun:",notnull" json:"key"`
	Value     string `bun:",nullzero" json:"value"`
}

// AuditEntry records privileged actions (IP decryption, field designation).
type AuditEntry struct {
	bun.BaseModel `bun:"table:collector_audit,alias:ca"`
	RecordMeta

	Verb       string  `bun:",notnull" json:"verb"`
	ActorID    string  `bun:",nullzero" json:"actor_id"`
	ProjectID  string  `bun:",nullzero" json:"project_id"`
	ObjectType string  `bun:",nullzero" json:"object_type"`
	ObjectID   string  `bun:",nullzero" json:"object_id"`
	Metadata   JSONMap `bun:",type:jsonb" json:"metadata"`
}
