package api

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/soaringjerry/Mindful/internal/checkin"
	"github.com/soaringjerry/Mindful/internal/services"
)

func rec(id string, flagged ...checkin.Topic) checkin.SurveyRecord {
	return checkin.SurveyRecord{
		ID:             id,
		Date:           time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Summary:        checkin.Summary{Bad: len(flagged)},
		PositiveTopics: []checkin.Topic{},
		NeutralTopics:  []checkin.Topic{},
		FlaggedTopics:  flagged,
	}
}

func TestMemoryStoreRecords(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore()
	if err := s.AddRecord(ctx, "u1", rec("r1", checkin.TopicSleep)); err != nil {
		t.Fatalf("AddRecord: %v", err)
	}
	_ = s.AddRecord(ctx, "u1", rec("r2"))
	_ = s.AddRecord(ctx, "u2", rec("r3"))
	if err := s.AddRecord(ctx, "u1", rec("r1")); !errors.Is(err, ErrDuplicateRecord) {
		t.Fatalf("expected duplicate id error, got %v", err)
	}

	list, _ := s.ListRecords(ctx, "u1")
	if len(list) != 2 || list[0].ID != "r2" || list[1].ID != "r1" {
		t.Fatalf("expected newest first, got %+v", list)
	}
	list[1].FlaggedTopics[0] = checkin.TopicFood
	got, _ := s.GetRecord(ctx, "u1", "r1")
	if got == nil || got.FlaggedTopics[0] != checkin.TopicSleep {
		t.Fatalf("store leaked its slices")
	}
	if got, _ := s.GetRecord(ctx, "u2", "r1"); got != nil {
		t.Fatalf("records must be owner scoped")
	}

	ok, _ := s.RemoveRecord(ctx, "u1", "r1")
	if !ok {
		t.Fatalf("RemoveRecord returned false")
	}
	if ok, _ := s.RemoveRecord(ctx, "u1", "r1"); ok {
		t.Fatalf("second remove should report false")
	}
	if n, _ := s.RemoveAllRecords(ctx, "u1"); n != 1 {
		t.Fatalf("RemoveAllRecords = %d", n)
	}
	owners, _ := s.ListOwners(ctx)
	if len(owners) != 1 || owners[0] != "u2" {
		t.Fatalf("unexpected owners %v", owners)
	}
}

func TestMemoryStoreUsers(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore()
	if err := s.AddUser(ctx, &User{ID: "u1", Email: "A@x.io"}); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	if err := s.AddUser(ctx, &User{ID: "u2", Email: "a@x.io"}); !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	u, _ := s.FindUserByEmail(ctx, "a@X.io")
	if u == nil || u.ID != "u1" {
		t.Fatalf("lookup should be case-insensitive")
	}
	if u, _ := s.FindUserByEmail(ctx, "b@x.io"); u != nil {
		t.Fatalf("expected nil for missing user")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore()
	_ = s.AddUser(ctx, &User{ID: "u1", Email: "a@x.io", PassHash: []byte("h")})
	_ = s.AddRecord(ctx, "u1", rec("r1", checkin.TopicEyes))
	_ = s.AddRecord(ctx, "u1", rec("r2"))

	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := SaveSnapshot(ctx, s, path); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	loaded, err := NewMemoryStoreFromPath(path)
	if err != nil {
		t.Fatalf("NewMemoryStoreFromPath: %v", err)
	}
	list, _ := loaded.ListRecords(ctx, "u1")
	if len(list) != 2 || list[0].ID != "r2" || list[1].FlaggedTopics[0] != checkin.TopicEyes {
		t.Fatalf("unexpected loaded records %+v", list)
	}
	if u, _ := loaded.FindUserByEmail(ctx, "a@x.io"); u == nil || string(u.PassHash) != "h" {
		t.Fatalf("user not restored")
	}
	if _, err := NewMemoryStoreFromPath(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing snapshot")
	}
}

func TestRecordStoreAdapterRequiresOwner(t *testing.T) {
	a := NewRecordStore(newMemoryStore())
	_, err := a.ListRecords(context.Background(), "")
	se, ok := services.AsServiceError(err)
	if !ok || se.Code != services.ErrorUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := a.AddRecord(context.Background(), "u1", checkin.SurveyRecord{}); err == nil {
		t.Fatalf("expected error for record without id")
	}
}

func TestMemoryStoreReplaceRecord(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore()
	_ = s.AddRecord(ctx, "u1", rec("r1", checkin.TopicSleep))
	_ = s.AddRecord(ctx, "u1", rec("r2"))

	ok, err := s.ReplaceRecord(ctx, "u1", "r1", rec("r1b", checkin.TopicSleep))
	if err != nil || !ok {
		t.Fatalf("ReplaceRecord = %v, %v", ok, err)
	}
	list, _ := s.ListRecords(ctx, "u1")
	if len(list) != 2 || list[0].ID != "r1b" || list[1].ID != "r2" {
		t.Fatalf("replacement should become newest: %+v", list)
	}

	if _, err := s.ReplaceRecord(ctx, "u1", "r1b", rec("r2")); !errors.Is(err, ErrDuplicateRecord) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if got, _ := s.GetRecord(ctx, "u1", "r1b"); got == nil {
		t.Fatalf("failed replace must keep the old record")
	}
	if ok, _ := s.ReplaceRecord(ctx, "u1", "gone", rec("r9")); ok {
		t.Fatalf("replacing a missing record should report false")
	}
	if got, _ := s.GetRecord(ctx, "u1", "r9"); got != nil {
		t.Fatalf("missing target must not add the new record")
	}
}

func TestRecordStoreAdapterDuplicateIsConflict(t *testing.T) {
	ctx := context.Background()
	a := NewRecordStore(newMemoryStore())
	if err := a.AddRecord(ctx, "u1", rec("r1")); err != nil {
		t.Fatalf("AddRecord: %v", err)
	}
	err := a.AddRecord(ctx, "u1", rec("r1"))
	se, ok := services.AsServiceError(err)
	if !ok || se.Code != services.ErrorConflict || !errors.Is(err, ErrDuplicateRecord) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLoadSnapshotRecordArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	// newest first; the second record uses Foundation's numeric date encoding
	body := `[
	  {"id":"B","date":"2026-01-02T08:00:00Z","summary":{"good":1,"neutral":0,"bad":0},"reflection":"","positiveTopics":["focus"],"neutralTopics":[],"flaggedTopics":[]},
	  {"id":"A","date":788918400,"summary":{"good":0,"neutral":0,"bad":1},"reflection":"meh","positiveTopics":[],"neutralTopics":[],"flaggedTopics":["sleep"]}
	]`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadSnapshot(path, ""); err == nil {
		t.Fatalf("record array without an owner should fail")
	}
	snap, err := LoadSnapshot(path, "u1")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	recs := snap.Records["u1"]
	if len(recs) != 2 || recs[0].ID != "B" || recs[1].ID != "A" {
		t.Fatalf("unexpected records %+v", recs)
	}
	if want := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC); !recs[1].Date.Equal(want) {
		t.Fatalf("reference-date seconds decoded to %v, want %v", recs[1].Date, want)
	}
	if recs[1].PositiveTopics == nil || recs[1].FlaggedTopics[0] != checkin.TopicSleep {
		t.Fatalf("topics not decoded: %+v", recs[1])
	}

	st := NewMemoryStoreFromSnapshot(snap)
	list, _ := st.ListRecords(context.Background(), "u1")
	if len(list) != 2 || list[0].ID != "B" {
		t.Fatalf("memory store should keep newest first: %+v", list)
	}
}
