package services

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/soaringjerry/Mindful/internal/checkin"
)

type stubQuestions []checkin.Question

func (s stubQuestions) Enabled() []checkin.Question { return s }

type stubRecordStore struct {
	recs   map[string][]checkin.SurveyRecord
	addErr error
}

func newStubRecordStore() *stubRecordStore {
	return &stubRecordStore{recs: map[string][]checkin.SurveyRecord{}}
}

func (s *stubRecordStore) AddRecord(_ context.Context, ownerID string, rec checkin.SurveyRecord) error {
	if s.addErr != nil {
		return s.addErr
	}
	s.recs[ownerID] = append([]checkin.SurveyRecord{rec}, s.recs[ownerID]...)
	return nil
}

func (s *stubRecordStore) GetRecord(_ context.Context, ownerID, id string) (*checkin.SurveyRecord, error) {
	for _, r := range s.recs[ownerID] {
		if r.ID == id {
			dup := r
			return &dup, nil
		}
	}
	return nil, nil
}

func (s *stubRecordStore) RemoveRecord(_ context.Context, ownerID, id string) (bool, error) {
	list := s.recs[ownerID]
	for i, r := range list {
		if r.ID == id {
			s.recs[ownerID] = append(list[:i:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ReplaceRecord fails as a unit: with addErr set nothing is removed.
func (s *stubRecordStore) ReplaceRecord(ctx context.Context, ownerID, oldID string, rec checkin.SurveyRecord) (bool, error) {
	if cur, _ := s.GetRecord(ctx, ownerID, oldID); cur == nil {
		return false, nil
	}
	if s.addErr != nil {
		return false, s.addErr
	}
	_, _ = s.RemoveRecord(ctx, ownerID, oldID)
	return true, s.AddRecord(ctx, ownerID, rec)
}

func (s *stubRecordStore) RemoveAllRecords(_ context.Context, ownerID string) (int, error) {
	n := len(s.recs[ownerID])
	delete(s.recs, ownerID)
	return n, nil
}

func (s *stubRecordStore) ListRecords(_ context.Context, ownerID string) ([]checkin.SurveyRecord, error) {
	return append([]checkin.SurveyRecord(nil), s.recs[ownerID]...), nil
}

func newTestSessionService(store RecordStore) *SessionService {
	svc := NewSessionService(stubQuestions(testQuestions()), store, nil, nil)
	n := 0
	svc.idGen = func() string { n++; return "id" + strconv.Itoa(n) }
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC) }
	return svc
}

func TestSessionServiceLifecycle(t *testing.T) {
	store := newStubRecordStore()
	svc := newTestSessionService(store)
	ctx := context.Background()

	snap, err := svc.Start("u1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	id := snap.Session.ID
	if snap.Current == nil || snap.Current.ID != "q-sleep" || snap.Progress.Total != 3 {
		t.Fatalf("unexpected start snapshot %+v", snap)
	}

	cat, _, err := svc.Answer("u1", id, "q-sleep", checkin.ScaleAnswer(2))
	if err != nil || cat != checkin.CategoryNegative {
		t.Fatalf("Answer = %s, %v", cat, err)
	}
	if _, err := svc.Next("u1", id); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if _, _, err := svc.Answer("u1", id, "q-caffeine", checkin.ChoiceAnswer("Some")); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if _, err := svc.SetReflection("u1", id, "long day"); err != nil {
		t.Fatalf("SetReflection: %v", err)
	}

	view, err := svc.Summary("u1", id)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(view.Flagged) != 1 || view.Flagged[0].Summary != "This area may need attention." {
		t.Fatalf("unexpected flagged lines %+v", view.Flagged)
	}
	if len(view.Neutral) != 1 || view.Neutral[0].Name != "Caffeine" {
		t.Fatalf("unexpected neutral lines %+v", view.Neutral)
	}

	rec, err := svc.Finalize(ctx, "u1", id)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if rec.Summary != (checkin.Summary{Good: 0, Neutral: 1, Bad: 1}) || rec.Reflection != "long day" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if len(store.recs["u1"]) != 1 {
		t.Fatalf("record not stored")
	}
	if _, err := svc.Finalize(ctx, "u1", id); !errors.Is(err, ErrSessionFinalized) {
		t.Fatalf("expected ErrSessionFinalized, got %v", err)
	}
	view, err = svc.Summary("u1", id)
	if err != nil || view.Reflection != "long day" {
		t.Fatalf("summary after finalize: %+v %v", view, err)
	}
}

func TestSessionServiceOwnership(t *testing.T) {
	svc := newTestSessionService(newStubRecordStore())
	if _, err := svc.Start(""); err == nil {
		t.Fatalf("expected error for empty owner")
	}
	snap, _ := svc.Start("u1")
	if _, err := svc.Get("u2", snap.Session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected not found for foreign owner, got %v", err)
	}
	if _, _, err := svc.Answer("u2", snap.Session.ID, "q-sleep", checkin.ScaleAnswer(5)); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected not found for foreign answer, got %v", err)
	}
}

func TestSessionServiceFinalizeStoreFailure(t *testing.T) {
	store := newStubRecordStore()
	store.addErr = errors.New("unavailable")
	svc := newTestSessionService(store)
	snap, _ := svc.Start("u1")
	if _, err := svc.Finalize(context.Background(), "u1", snap.Session.ID); err == nil {
		t.Fatalf("expected store error")
	}
	store.addErr = nil
	if _, err := svc.Finalize(context.Background(), "u1", snap.Session.ID); err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}
}

func TestSessionServicePrune(t *testing.T) {
	svc := newTestSessionService(newStubRecordStore())
	old, _ := svc.Start("u1")
	svc.now = func() time.Time { return time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC) }
	fresh, _ := svc.Start("u1")

	if n := svc.PruneBefore(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)); n != 1 {
		t.Fatalf("pruned %d, want 1", n)
	}
	if _, err := svc.Get("u1", old.Session.ID); err == nil {
		t.Fatalf("old session should be gone")
	}
	if _, err := svc.Get("u1", fresh.Session.ID); err != nil {
		t.Fatalf("fresh session should remain: %v", err)
	}
	if err := svc.Discard("u1", fresh.Session.ID); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if err := svc.Discard("u1", fresh.Session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected not found after discard, got %v", err)
	}
}
