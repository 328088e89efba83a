package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/soaringjerry/Mindful/internal/checkin"
	"github.com/soaringjerry/Mindful/internal/logging"
	"github.com/soaringjerry/Mindful/internal/metrics"
)

// RecordService serves the past-records screen over the injected store.
type RecordService struct {
	store   RecordStore
	metrics *metrics.Metrics
	log     *zap.Logger
	idGen   func() string
}

func NewRecordService(store RecordStore, m *metrics.Metrics, log *zap.Logger) *RecordService {
	return &RecordService{store: store, metrics: m, log: logging.OrNop(log), idGen: newID}
}

func (s *RecordService) List(ctx context.Context, ownerID string) ([]checkin.SurveyRecord, error) {
	recs, err := s.store.ListRecords(ctx, ownerID)
	s.metrics.RecordOp("list", err)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []checkin.SurveyRecord{}
	}
	return recs, nil
}

func (s *RecordService) Get(ctx context.Context, ownerID, id string) (checkin.SurveyRecord, error) {
	rec, err := s.store.GetRecord(ctx, ownerID, id)
	if err != nil {
		return checkin.SurveyRecord{}, err
	}
	if rec == nil {
		return checkin.SurveyRecord{}, ErrRecordNotFound
	}
	return *rec, nil
}

func (s *RecordService) Delete(ctx context.Context, ownerID, id string) error {
	ok, err := s.store.RemoveRecord(ctx, ownerID, id)
	s.metrics.RecordOp("remove", err)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRecordNotFound
	}
	s.log.Info("record deleted", zap.String("record_id", id), zap.String("owner_id", ownerID))
	return nil
}

func (s *RecordService) DeleteAll(ctx context.Context, ownerID string) (int, error) {
	n, err := s.store.RemoveAllRecords(ctx, ownerID)
	s.metrics.RecordOp("remove_all", err)
	if err != nil {
		return 0, err
	}
	s.log.Info("records cleared", zap.String("owner_id", ownerID), zap.Int("count", n))
	return n, nil
}

// UpdateReflection replaces a record with an edited copy under a new id.
// Records are never changed in place.
func (s *RecordService) UpdateReflection(ctx context.Context, ownerID, id, reflection string) (checkin.SurveyRecord, error) {
	old, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return checkin.SurveyRecord{}, err
	}
	updated := old.WithReflection(s.idGen(), reflection)
	ok, err := s.store.ReplaceRecord(ctx, ownerID, old.ID, updated)
	if err != nil {
		s.metrics.RecordOp("update", err)
		s.log.Error("reflection edit failed", zap.String("record_id", old.ID), zap.Error(err))
		return checkin.SurveyRecord{}, err
	}
	if !ok {
		// removed between the read and the swap
		s.metrics.RecordOp("update", ErrRecordNotFound)
		return checkin.SurveyRecord{}, ErrRecordNotFound
	}
	s.metrics.RecordOp("update", nil)
	return updated, nil
}

// TopicTrend counts how often a topic landed in each category.
type TopicTrend struct {
	Topic    checkin.Topic `json:"topic"`
	Name     string        `json:"name"`
	Flagged  int           `json:"flagged"`
	Neutral  int           `json:"neutral"`
	Positive int           `json:"positive"`
	Total    int           `json:"total"`
}

type TrendPoint struct {
	Date    string          `json:"date"`
	Count   int             `json:"count"`
	Summary checkin.Summary `json:"summary"`
}

// Trends summarizes stored records to help spot recurring patterns.
type Trends struct {
	TotalRecords int             `json:"total_records"`
	Totals       checkin.Summary `json:"totals"`
	Topics       []TopicTrend    `json:"topics"`
	Timeseries   []TrendPoint    `json:"timeseries"`
}

// Trends aggregates records dated within [since, now]; a zero since includes all.
func (s *RecordService) Trends(ctx context.Context, ownerID string, since time.Time) (*Trends, error) {
	recs, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	filtered := make([]checkin.SurveyRecord, 0, len(recs))
	for _, r := range recs {
		if since.IsZero() || !r.Date.Before(since) {
			filtered = append(filtered, r)
		}
	}
	return BuildTrends(filtered), nil
}

