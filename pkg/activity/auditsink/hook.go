package auditsink

import (
	"context"
	"time"

	"github.com/goliatone/go-survey-collector/pkg/activity"
	"github.com/goliatone/go-survey-collector/pkg/domain"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/store"
	"github.com/google/uuid"
)

// Hook persists activity events as audit entries.
type Hook struct {
	Repository store.AuditRepository
	Logger     logger.Logger
}

// Notify maps the activity event into a domain.AuditEntry and stores it.
// Storage failures are logged; the caller's action is never blocked.
func (h Hook) Notify(ctx context.Context, evt activity.Event) {
	if h.Repository == nil {
		return
	}
	entry := &domain.AuditEntry{
		RecordMeta: domain.RecordMeta{ID: uuid.New()},
		Verb:       evt.Verb,
		ActorID:    evt.ActorID,
		ProjectID:  evt.ProjectID,
		ObjectType: evt.ObjectType,
		ObjectID:   evt.ObjectID,
		Metadata:   domain.JSONMap(activity.CloneMetadata(evt.Metadata)),
	}
	entry.CreatedAt = evt.OccurredAt
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.UpdatedAt = entry.CreatedAt
	if err := h.Repository.Create(ctx, entry); err != nil {
		logger.OrNop(h.Logger).Error("activity: audit entry not stored",
			logger.Field{Key: "verb", Value: evt.Verb},
			logger.Field{Key: "error", Value: err},
		)
	}
}
