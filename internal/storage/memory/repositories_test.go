package memory

import (
	"context"
	"testing"

	"github.com/goliatone/go-survey-collector/pkg/domain"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/host"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/store"
)

func TestSettingRepositoryUpsert(t *testing.T) {
	repo := NewSettingRepository()
	ctx := context.Background()

	first := &domain.Setting{Scope: domain.SettingScopeProject, SubjectID: "12", Key: "zerobounce-email-field", Value: "email"}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second := &domain.Setting{Scope: domain.SettingScopeProject, SubjectID: "12", Key: "zerobounce-email-field", Value: "email_2"}
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected upsert to update the existing row")
	}

	got, err := repo.Get(ctx, domain.SettingScopeProject, "12", "zerobounce-email-field")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Value != "email_2" {
		t.Fatalf("expected updated value, got %s", got.Value)
	}

	rows, err := repo.ListScope(ctx, domain.SettingScopeProject, "12")
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected one row, got %d (%v)", len(rows), err)
	}
	if _, err := repo.Get(ctx, domain.SettingScopeProject, "13", "zerobounce-email-field"); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAuditRepositoryListByVerb(t *testing.T) {
	repo := NewAuditRepository()
	ctx := context.Background()
	for _, verb := range []string{"ip.decrypted", "field.designated", "ip.decrypted"} {
		if err := repo.Create(ctx, &domain.AuditEntry{Verb: verb, ActorID: "admin"}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	result, err := repo.ListByVerb(ctx, "ip.decrypted", store.ListOptions{Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Total != 2 || len(result.Items) != 1 {
		t.Fatalf("unexpected result total=%d items=%d", result.Total, len(result.Items))
	}
}

func TestDictionaryMatchesWholeTags(t *testing.T) {
	dict := NewDictionary("12",
		host.FieldMeta{FieldName: "ip_enc", Instrument: "survey", Annotation: "@SURVEY-IP-ENCRYPT @READONLY"},
		host.FieldMeta{FieldName: "ip", Instrument: "survey", Annotation: "@survey-ip"},
		host.FieldMeta{FieldName: "other", Instrument: "intake", Annotation: "@SURVEY-IP"},
	)
	fields, err := dict.FieldsWithTag(context.Background(), "@SURVEY-IP", "survey")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(fields) != 1 {
		t.Fatalf("expected only the exact tag on the instrument, got %v", fields)
	}
	if _, ok := fields["ip"]; !ok {
		t.Fatalf("expected ip field, got %v", fields)
	}
	if !HasTag(`@ZEROBOUNCE-STATUS="x"`, "@ZEROBOUNCE-STATUS") {
		t.Fatalf("expected parameterised tag to match")
	}
	if err := dict.SetAnnotation(context.Background(), "13", "ip", "@HIDDEN"); err != host.ErrUnavailable {
		t.Fatalf("expected foreign project to be rejected, got %v", err)
	}
}

func TestRecordsReportsUnknownFields(t *testing.T) {
	records := NewRecords("ip", "zb_status")
	key := host.RecordKey{ProjectID: "12", RecordID: "1", EventID: "e1", RepeatInstance: 2}
	result, err := records.WriteRecord(context.Background(), host.WriteRequest{Key: key, Values: map[string]string{"ip": "x", "missing": "y"}})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(result.Written) != 1 || len(result.Errors) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	row, _ := records.ReadRecord(context.Background(), key)
	if row["ip"] != "x" {
		t.Fatalf("expected partial write to keep applied values")
	}
	other, _ := records.ReadRecord(context.Background(), host.RecordKey{ProjectID: "12", RecordID: "1", EventID: "e1"})
	if len(other) != 0 {
		t.Fatalf("expected first instance to be untouched, got %v", other)
	}
}

func TestAuditRepositoryPagesInInsertionOrderAndHidesRetired(t *testing.T) {
	repo := NewAuditRepository()
	ctx := context.Background()
	var ids []*domain.AuditEntry
	for _, object := range []string{"a", "b", "c"} {
		entry := &domain.AuditEntry{Verb: "ip.decrypted", ObjectID: object}
		if err := repo.Create(ctx, entry); err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, entry)
	}
	if err := repo.SoftDelete(ctx, ids[0].ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, ids[0].ID); err != store.ErrNotFound {
		t.Fatalf("expected retired entry to be hidden, got %v", err)
	}
	page, err := repo.List(ctx, store.ListOptions{Offset: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 1 || page.Items[0].ObjectID != "c" {
		t.Fatalf("unexpected page %+v", page)
	}
	all, _ := repo.List(ctx, store.ListOptions{IncludeSoftDeleted: true})
	if all.Total != 3 || all.Items[0].ObjectID != "a" {
		t.Fatalf("expected retired entry with IncludeSoftDeleted, got %+v", all)
	}
}
