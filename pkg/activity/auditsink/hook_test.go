package auditsink

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-survey-collector/internal/storage/memory"
	"github.com/goliatone/go-survey-collector/pkg/activity"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/store"
)

func TestHookNotifyStoresEntry(t *testing.T) {
	repo := memory.NewAuditRepository()
	hooks := activity.Hooks{Hook{Repository: repo}, nil, activity.Nop{}}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	hooks.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbIPDecrypted,
		ActorID:    "admin-1",
		ProjectID:  "12",
		ObjectType: "encrypted_ip",
		ObjectID:   "v2",
		Metadata:   map[string]any{"key_version": "v2"},
		OccurredAt: now,
	})

	res, err := repo.ListByVerb(context.Background(), activity.VerbIPDecrypted, store.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Total != 1 {
		t.Fatalf("expected one audit entry, got %d", res.Total)
	}
	entry := res.Items[0]
	if entry.ActorID != "admin-1" || entry.ProjectID != "12" || entry.Metadata["key_version"] != "v2" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if !entry.CreatedAt.Equal(now) {
		t.Fatalf("expected occurred-at timestamp, got %v", entry.CreatedAt)
	}
}

func TestHookWithoutRepositoryIsNoop(t *testing.T) {
	Hook{}.Notify(context.Background(), activity.Event{Verb: "x"})
}
