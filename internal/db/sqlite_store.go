package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/soaringjerry/Mindful/internal/api"
	"github.com/soaringjerry/Mindful/internal/checkin"
	"github.com/soaringjerry/Mindful/internal/logging"
)

// SQLiteStore keeps records and users in SQLite. Record lists are ordered by
// insertion sequence, newest first.
type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

func NewSQLiteStore(db *sql.DB, log *zap.Logger) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db, log: logging.OrNop(log)}, nil
}

func NewStore(db *sql.DB, log *zap.Logger) (api.Store, error) {
	return NewSQLiteStore(db, log)
}

// Open opens the database file at path and applies migrations.
func Open(path, migrationsDir string, log *zap.Logger) (*sql.DB, *SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", path)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := RunMigrations(sqlDB, migrationsDir); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	st, err := NewSQLiteStore(sqlDB, log)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, err
	}
	return sqlDB, st, nil
}

func encodeTopics(ts []checkin.Topic) (string, error) {
	if ts == nil {
		ts = []checkin.Topic{}
	}
	b, err := json.Marshal(ts)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeTopics(s string) ([]checkin.Topic, error) {
	out := []checkin.Topic{}
	if strings.TrimSpace(s) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decode topics: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) AddRecord(ctx context.Context, ownerID string, rec checkin.SurveyRecord) error {
	return s.insertRecord(ctx, s.db, ownerID, rec)
}

func (s *SQLiteStore) insertRecord(ctx context.Context, ex execer, ownerID string, rec checkin.SurveyRecord) error {
	pos, err := encodeTopics(rec.PositiveTopics)
	if err != nil {
		return err
	}
	neu, err := encodeTopics(rec.NeutralTopics)
	if err != nil {
		return err
	}
	flg, err := encodeTopics(rec.FlaggedTopics)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx, `INSERT INTO survey_records
		(id, owner_id, date, good, neutral, bad, reflection, positive_topics, neutral_topics, flagged_topics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, ownerID, rec.Date.UTC(), rec.Summary.Good, rec.Summary.Neutral, rec.Summary.Bad,
		rec.Reflection, pos, neu, flg)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", api.ErrDuplicateRecord, rec.ID)
	}
	if err != nil {
		s.log.Error("insert record", zap.String("record_id", rec.ID), zap.Error(err))
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// ReplaceRecord deletes oldID and inserts rec in one transaction, so a failed
// insert leaves the old row in place.
func (s *SQLiteStore) ReplaceRecord(ctx context.Context, ownerID, oldID string, rec checkin.SurveyRecord) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM survey_records WHERE owner_id = ? AND id = ?`, ownerID, oldID)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if err := s.insertRecord(ctx, tx, ownerID, rec); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit replace: %w", err)
	}
	return true, nil
}

const recordColumns = `id, date, good, neutral, bad, reflection, positive_topics, neutral_topics, flagged_topics`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (checkin.SurveyRecord, error) {
	var (
		rec           checkin.SurveyRecord
		date          time.Time
		pos, neu, flg string
	)
	if err := row.Scan(&rec.ID, &date, &rec.Summary.Good, &rec.Summary.Neutral, &rec.Summary.Bad,
		&rec.Reflection, &pos, &neu, &flg); err != nil {
		return rec, err
	}
	rec.Date = date.UTC()
	var err error
	if rec.PositiveTopics, err = decodeTopics(pos); err != nil {
		return rec, err
	}
	if rec.NeutralTopics, err = decodeTopics(neu); err != nil {
		return rec, err
	}
	if rec.FlaggedTopics, err = decodeTopics(flg); err != nil {
		return rec, err
	}
	return rec, nil
}

func (s *SQLiteStore) GetRecord(ctx context.Context, ownerID, id string) (*checkin.SurveyRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM survey_records WHERE owner_id = ? AND id = ?`, ownerID, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return &rec, nil
}

func (s *SQLiteStore) RemoveRecord(ctx context.Context, ownerID, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM survey_records WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) RemoveAllRecords(ctx context.Context, ownerID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM survey_records WHERE owner_id = ?`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *SQLiteStore) ListRecords(ctx context.Context, ownerID string) ([]checkin.SurveyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM survey_records WHERE owner_id = ? ORDER BY seq DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()
	out := []checkin.SurveyRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT owner_id FROM survey_records ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddUser(ctx context.Context, u *api.User) error {
	if u == nil {
		return errors.New("nil user")
	}
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (id, email, pass_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PassHash, created.UTC())
	if isUniqueViolation(err) {
		return api.ErrDuplicateUser
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindUserByEmail(ctx context.Context, email string) (*api.User, error) {
	var u api.User
	err := s.db.QueryRowContext(ctx, `SELECT id, email, pass_hash, created_at FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.PassHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*api.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, email, pass_hash, created_at FROM users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	out := []*api.User{}
	for rows.Next() {
		var u api.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PassHash, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.CreatedAt = u.CreatedAt.UTC()
		out = append(out, &u)
	}
	return out, rows.Err()
}

var _ api.Store = (*SQLiteStore)(nil)
