package api

import (
	"context"

	"github.com/soaringjerry/Mindful/internal/checkin"
)

// Store is the persistence surface shared by the in-memory and SQLite
// backends. Record lists come back newest first.
type Store interface {
	AddRecord(ctx context.Context, ownerID string, rec checkin.SurveyRecord) error
	GetRecord(ctx context.Context, ownerID, id string) (*checkin.SurveyRecord, error)
	RemoveRecord(ctx context.Context, ownerID, id string) (bool, error)
	// ReplaceRecord removes oldID and adds rec atomically. It reports false
	// when oldID does not exist, in which case nothing changes.
	ReplaceRecord(ctx context.Context, ownerID, oldID string, rec checkin.SurveyRecord) (bool, error)
	RemoveAllRecords(ctx context.Context, ownerID string) (int, error)
	ListRecords(ctx context.Context, ownerID string) ([]checkin.SurveyRecord, error)
	ListOwners(ctx context.Context) ([]string, error)

	AddUser(ctx context.Context, u *User) error
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
}

var _ Store = (*memoryStore)(nil)
