package api

import (
	"context"
	"errors"
	"strings"

	"github.com/soaringjerry/Mindful/internal/checkin"
	"github.com/soaringjerry/Mindful/internal/services"
)

type recordStoreAdapter struct {
	store Store
}

// NewRecordStore exposes a Store as the record port the services consume.
func NewRecordStore(store Store) services.RecordStore {
	return &recordStoreAdapter{store: store}
}

func requireOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return services.NewUnauthorizedError("owner required")
	}
	return nil
}

func (a *recordStoreAdapter) AddRecord(ctx context.Context, ownerID string, rec checkin.SurveyRecord) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	if rec.ID == "" {
		return services.NewInvalidError("record id required")
	}
	return duplicateAsConflict(a.store.AddRecord(ctx, ownerID, rec))
}

func (a *recordStoreAdapter) ReplaceRecord(ctx context.Context, ownerID, oldID string, rec checkin.SurveyRecord) (bool, error) {
	if err := requireOwner(ownerID); err != nil {
		return false, err
	}
	if rec.ID == "" {
		return false, services.NewInvalidError("record id required")
	}
	ok, err := a.store.ReplaceRecord(ctx, ownerID, oldID, rec)
	return ok, duplicateAsConflict(err)
}

func duplicateAsConflict(err error) error {
	if errors.Is(err, ErrDuplicateRecord) {
		return &services.ServiceError{Code: services.ErrorConflict, Message: "record already exists", Err: err}
	}
	return err
}

func (a *recordStoreAdapter) GetRecord(ctx context.Context, ownerID, id string) (*checkin.SurveyRecord, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	return a.store.GetRecord(ctx, ownerID, id)
}

func (a *recordStoreAdapter) RemoveRecord(ctx context.Context, ownerID, id string) (bool, error) {
	if err := requireOwner(ownerID); err != nil {
		return false, err
	}
	return a.store.RemoveRecord(ctx, ownerID, id)
}

func (a *recordStoreAdapter) RemoveAllRecords(ctx context.Context, ownerID string) (int, error) {
	if err := requireOwner(ownerID); err != nil {
		return 0, err
	}
	return a.store.RemoveAllRecords(ctx, ownerID)
}

func (a *recordStoreAdapter) ListRecords(ctx context.Context, ownerID string) ([]checkin.SurveyRecord, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	return a.store.ListRecords(ctx, ownerID)
}

var _ services.RecordStore = (*recordStoreAdapter)(nil)
