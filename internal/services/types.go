package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soaringjerry/Mindful/internal/checkin"
)

// RecordStore persists finalized records per owner. List order is the store's
// policy; both bundled stores return newest first.
type RecordStore interface {
	AddRecord(ctx context.Context, ownerID string, rec checkin.SurveyRecord) error
	GetRecord(ctx context.Context, ownerID, id string) (*checkin.SurveyRecord, error)
	RemoveRecord(ctx context.Context, ownerID, id string) (bool, error)
	ReplaceRecord(ctx context.Context, ownerID, oldID string, rec checkin.SurveyRecord) (bool, error)
	RemoveAllRecords(ctx context.Context, ownerID string) (int, error)
	ListRecords(ctx context.Context, ownerID string) ([]checkin.SurveyRecord, error)
}

// QuestionSource supplies the ordered, enabled questions for a new session.
type QuestionSource interface {
	Enabled() []checkin.Question
}

type User struct {
	ID        string
	Email     string
	PassHash  []byte
	CreatedAt time.Time
}

func newID() string { return uuid.NewString() }

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}
