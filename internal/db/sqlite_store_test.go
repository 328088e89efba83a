package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/Mindful/internal/api"
	"github.com/soaringjerry/Mindful/internal/checkin"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	sqlDB, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, RunMigrations(sqlDB, ""))
	st, err := NewSQLiteStore(sqlDB, nil)
	require.NoError(t, err)
	return st
}

func sampleRecord(id string) checkin.SurveyRecord {
	return checkin.SurveyRecord{
		ID:             id,
		Date:           time.Date(2026, 4, 2, 7, 30, 0, 0, time.UTC),
		Summary:        checkin.Summary{Good: 2, Neutral: 0, Bad: 1},
		Reflection:     "ok",
		PositiveTopics: []checkin.Topic{checkin.TopicSleep, checkin.TopicFocus},
		NeutralTopics:  []checkin.Topic{},
		FlaggedTopics:  []checkin.Topic{checkin.TopicEyes},
	}
}

func TestSQLiteRecords(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.AddRecord(ctx, "u1", sampleRecord("r1")))
	require.NoError(t, st.AddRecord(ctx, "u1", sampleRecord("r2")))
	require.NoError(t, st.AddRecord(ctx, "u2", sampleRecord("r3")))
	assert.ErrorIs(t, st.AddRecord(ctx, "u1", sampleRecord("r1")), api.ErrDuplicateRecord)

	list, err := st.ListRecords(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "r2", list[0].ID, "newest first")
	assert.Equal(t, sampleRecord("r1"), list[1])

	got, err := st.GetRecord(ctx, "u1", "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []checkin.Topic{checkin.TopicSleep, checkin.TopicFocus}, got.PositiveTopics)

	missing, err := st.GetRecord(ctx, "u2", "r1")
	require.NoError(t, err)
	assert.Nil(t, missing, "records are owner scoped")

	ok, err := st.RemoveRecord(ctx, "u1", "r1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = st.RemoveRecord(ctx, "u1", "r1")
	require.NoError(t, err)
	assert.False(t, ok)

	owners, err := st.ListOwners(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, owners)

	n, err := st.RemoveAllRecords(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	empty, err := st.ListRecords(ctx, "u1")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestSQLiteReplaceRecord(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	require.NoError(t, st.AddRecord(ctx, "u1", sampleRecord("r1")))
	require.NoError(t, st.AddRecord(ctx, "u1", sampleRecord("r2")))
	require.NoError(t, st.AddRecord(ctx, "u2", sampleRecord("r3")))

	edited := sampleRecord("r1").WithReflection("r1b", "better")
	ok, err := st.ReplaceRecord(ctx, "u1", "r1", edited)
	require.NoError(t, err)
	assert.True(t, ok)
	list, err := st.ListRecords(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "r1b", list[0].ID, "edited record becomes newest")
	assert.Equal(t, "better", list[0].Reflection)

	// a failed insert rolls the delete back
	_, err = st.ReplaceRecord(ctx, "u1", "r2", sampleRecord("r3"))
	assert.ErrorIs(t, err, api.ErrDuplicateRecord)
	got, err := st.GetRecord(ctx, "u1", "r2")
	require.NoError(t, err)
	assert.NotNil(t, got)

	ok, err = st.ReplaceRecord(ctx, "u1", "missing", sampleRecord("r9"))
	require.NoError(t, err)
	assert.False(t, ok)
	got, err = st.GetRecord(ctx, "u1", "r9")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteUsers(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, st.AddUser(ctx, &api.User{ID: "u1", Email: "a@x.io", PassHash: []byte("hash"), CreatedAt: created}))
	err := st.AddUser(ctx, &api.User{ID: "u2", Email: "A@X.io", PassHash: []byte("hash")})
	assert.True(t, errors.Is(err, api.ErrDuplicateUser), "got %v", err)

	u, err := st.FindUserByEmail(ctx, "A@x.io")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, []byte("hash"), u.PassHash)
	assert.True(t, created.Equal(u.CreatedAt))

	none, err := st.FindUserByEmail(ctx, "b@x.io")
	require.NoError(t, err)
	assert.Nil(t, none)

	users, err := st.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestRunMigrationsFromDir(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	sqlDB, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	defer sqlDB.Close()

	require.NoError(t, RunMigrations(sqlDB, filepath.Join(t.TempDir(), "absent")))
	require.NoError(t, RunMigrations(sqlDB, "migrations"), "migrations are idempotent")
	var n int
	require.NoError(t, sqlDB.QueryRow(`SELECT COUNT(*) FROM survey_records`).Scan(&n))
	assert.Zero(t, n)
	require.NoError(t, sqlDB.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 1, n, "each migration is recorded once")
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mindful.db")
	sqlDB, st, err := Open(path, "", nil)
	require.NoError(t, err)
	defer sqlDB.Close()
	require.NoError(t, st.AddRecord(context.Background(), "u1", sampleRecord("r1")))
}
