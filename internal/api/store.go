package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/soaringjerry/Mindful/internal/checkin"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	PassHash  []byte    `json:"pass_hash"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrDuplicateUser   = errors.New("user already exists")
	ErrDuplicateRecord = errors.New("record already exists")
)

type memoryStore struct {
	mu           sync.RWMutex
	records      map[string][]checkin.SurveyRecord
	usersByEmail map[string]*User
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		records:      map[string][]checkin.SurveyRecord{},
		usersByEmail: map[string]*User{},
	}
}

// NewMemoryStore returns a process-local Store.
func NewMemoryStore() Store { return newMemoryStore() }

func (s *memoryStore) AddRecord(_ context.Context, ownerID string, rec checkin.SurveyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records[ownerID] {
		if r.ID == rec.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateRecord, rec.ID)
		}
	}
	s.records[ownerID] = append([]checkin.SurveyRecord{cloneRecord(rec)}, s.records[ownerID]...)
	return nil
}

// ReplaceRecord swaps oldID for rec under one lock; rec becomes the newest
// entry. It reports false and leaves the list untouched when oldID is absent.
func (s *memoryStore) ReplaceRecord(_ context.Context, ownerID, oldID string, rec checkin.SurveyRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.records[ownerID]
	i := slices.IndexFunc(list, func(r checkin.SurveyRecord) bool { return r.ID == oldID })
	if i < 0 {
		return false, nil
	}
	if rec.ID != oldID && slices.ContainsFunc(list, func(r checkin.SurveyRecord) bool { return r.ID == rec.ID }) {
		return false, fmt.Errorf("%w: %s", ErrDuplicateRecord, rec.ID)
	}
	rest := slices.Delete(slices.Clone(list), i, i+1)
	s.records[ownerID] = append([]checkin.SurveyRecord{cloneRecord(rec)}, rest...)
	return true, nil
}

func (s *memoryStore) GetRecord(_ context.Context, ownerID, id string) (*checkin.SurveyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records[ownerID] {
		if r.ID == id {
			out := cloneRecord(r)
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) RemoveRecord(_ context.Context, ownerID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.records[ownerID]
	i := slices.IndexFunc(list, func(r checkin.SurveyRecord) bool { return r.ID == id })
	if i < 0 {
		return false, nil
	}
	s.records[ownerID] = slices.Delete(slices.Clone(list), i, i+1)
	return true, nil
}

func (s *memoryStore) RemoveAllRecords(_ context.Context, ownerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.records[ownerID])
	delete(s.records, ownerID)
	return n, nil
}

func (s *memoryStore) ListRecords(_ context.Context, ownerID string) ([]checkin.SurveyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]checkin.SurveyRecord, 0, len(s.records[ownerID]))
	for _, r := range s.records[ownerID] {
		out = append(out, cloneRecord(r))
	}
	return out, nil
}

func (s *memoryStore) ListOwners(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.records))
	for owner, recs := range s.records {
		if len(recs) > 0 {
			out = append(out, owner)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (s *memoryStore) AddUser(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := s.usersByEmail[key]; ok {
		return ErrDuplicateUser
	}
	dup := *u
	s.usersByEmail[key] = &dup
	return nil
}

func (s *memoryStore) FindUserByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	dup := *u
	return &dup, nil
}

func (s *memoryStore) ListUsers(_ context.Context) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*User, 0, len(s.usersByEmail))
	for _, u := range s.usersByEmail {
		dup := *u
		out = append(out, &dup)
	}
	slices.SortFunc(out, func(a, b *User) int { return strings.Compare(a.Email, b.Email) })
	return out, nil
}

func cloneRecord(r checkin.SurveyRecord) checkin.SurveyRecord {
	return r.WithReflection(r.ID, r.Reflection)
}

// Snapshot is the JSON file layout of a memory store. Records per owner are
// newest first.
type Snapshot struct {
	Users   []*User                           `json:"users"`
	Records map[string][]checkin.SurveyRecord `json:"records"`
}

// NewMemoryStoreFromPath loads a JSON snapshot written by SaveSnapshot. A
// missing file yields os.ErrNotExist.
func NewMemoryStoreFromPath(path string) (Store, error) {
	snap, err := LoadSnapshot(path, "")
	if err != nil {
		return nil, err
	}
	return NewMemoryStoreFromSnapshot(snap), nil
}

// NewMemoryStoreFromSnapshot builds a memory store holding snap's contents.
func NewMemoryStoreFromSnapshot(snap *Snapshot) Store {
	s := newMemoryStore()
	for _, u := range snap.Users {
		if u == nil || u.Email == "" {
			continue
		}
		s.usersByEmail[strings.ToLower(u.Email)] = u
	}
	for owner, recs := range snap.Records {
		s.records[owner] = append([]checkin.SurveyRecord(nil), recs...)
	}
	return s
}

// LoadSnapshot reads either a Snapshot object or a bare JSON array of records
// as kept by the mobile app, newest first. Array records are assigned to
// legacyOwner, which must then be set. A missing or unnamed file yields
// os.ErrNotExist.
func LoadSnapshot(path, legacyOwner string) (*Snapshot, error) {
	if strings.TrimSpace(path) == "" {
		return nil, os.ErrNotExist
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if strings.TrimSpace(legacyOwner) == "" {
			return nil, fmt.Errorf("snapshot %s is a record array: an owner for its records is required", path)
		}
		recs, err := decodeLegacyRecords(trimmed)
		if err != nil {
			return nil, fmt.Errorf("decode legacy records %s: %w", path, err)
		}
		return &Snapshot{Records: map[string][]checkin.SurveyRecord{legacyOwner: recs}}, nil
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return &snap, nil
}

// appleEpoch is the reference date of Foundation's default Date encoding,
// which writes seconds since 2001-01-01 UTC as a bare number.
var appleEpoch = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

type legacyRecord struct {
	ID             string          `json:"id"`
	Date           json.RawMessage `json:"date"`
	Summary        checkin.Summary `json:"summary"`
	Reflection     string          `json:"reflection"`
	PositiveTopics []checkin.Topic `json:"positiveTopics"`
	NeutralTopics  []checkin.Topic `json:"neutralTopics"`
	FlaggedTopics  []checkin.Topic `json:"flaggedTopics"`
}

func decodeLegacyRecords(b []byte) ([]checkin.SurveyRecord, error) {
	var raw []legacyRecord
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	out := make([]checkin.SurveyRecord, 0, len(raw))
	for i, r := range raw {
		if r.ID == "" {
			return nil, fmt.Errorf("record %d has no id", i)
		}
		date, err := legacyDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", r.ID, err)
		}
		out = append(out, checkin.SurveyRecord{
			ID:             r.ID,
			Date:           date,
			Summary:        r.Summary,
			Reflection:     r.Reflection,
			PositiveTopics: nonNilTopics(r.PositiveTopics),
			NeutralTopics:  nonNilTopics(r.NeutralTopics),
			FlaggedTopics:  nonNilTopics(r.FlaggedTopics),
		})
	}
	return out, nil
}

// legacyDate accepts RFC 3339 strings and Foundation reference-date numbers.
func legacyDate(raw json.RawMessage) (time.Time, error) {
	var t time.Time
	if err := json.Unmarshal(raw, &t); err == nil {
		return t.UTC(), nil
	}
	var secs float64
	if err := json.Unmarshal(raw, &secs); err != nil {
		return time.Time{}, fmt.Errorf("unsupported date %s", string(raw))
	}
	return appleEpoch.Add(time.Duration(secs * float64(time.Second))), nil
}

func nonNilTopics(ts []checkin.Topic) []checkin.Topic {
	if ts == nil {
		return []checkin.Topic{}
	}
	return ts
}

// TakeSnapshot reads everything out of st.
func TakeSnapshot(ctx context.Context, st Store) (*Snapshot, error) {
	users, err := st.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	owners, err := st.ListOwners(ctx)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Users: users, Records: map[string][]checkin.SurveyRecord{}}
	for _, owner := range owners {
		recs, err := st.ListRecords(ctx, owner)
		if err != nil {
			return nil, err
		}
		snap.Records[owner] = recs
	}
	return snap, nil
}

// SaveSnapshot writes st as a JSON snapshot at path.
func SaveSnapshot(ctx context.Context, st Store, path string) error {
	snap, err := TakeSnapshot(ctx, st)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
