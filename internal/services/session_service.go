package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/soaringjerry/Mindful/internal/checkin"
	"github.com/soaringjerry/Mindful/internal/logging"
	"github.com/soaringjerry/Mindful/internal/metrics"
)

// SessionService owns the in-progress check-ins and hands finalized records
// to the injected RecordStore.
type SessionService struct {
	questions QuestionSource
	store     RecordStore
	metrics   *metrics.Metrics
	log       *zap.Logger
	now       func() time.Time
	idGen     func() string

	mu    sync.RWMutex
	flows map[string]*Flow
}

func NewSessionService(questions QuestionSource, store RecordStore, m *metrics.Metrics, log *zap.Logger) *SessionService {
	return &SessionService{
		questions: questions,
		store:     store,
		metrics:   m,
		log:       logging.OrNop(log),
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     newID,
		flows:     map[string]*Flow{},
	}
}

// Start opens a session over the currently enabled questions.
func (s *SessionService) Start(ownerID string) (Snapshot, error) {
	if strings.TrimSpace(ownerID) == "" {
		return Snapshot{}, NewUnauthorizedError("owner required")
	}
	id := s.idGen()
	flow := NewFlow(ownerID, checkin.NewSession(id, s.now()), s.questions.Enabled())
	flow.now = s.now
	flow.idGen = s.idGen

	s.mu.Lock()
	s.flows[id] = flow
	s.mu.Unlock()

	s.metrics.SessionStarted()
	s.log.Info("session started", zap.String("session_id", id), zap.String("owner_id", ownerID), zap.Int("questions", len(flow.questions)))
	return flow.Snapshot(), nil
}

// Flow returns the owner's flow for direct subscription.
func (s *SessionService) Flow(ownerID, id string) (*Flow, error) {
	s.mu.RLock()
	flow, ok := s.flows[id]
	s.mu.RUnlock()
	if !ok || flow.ownerID != ownerID {
		return nil, ErrSessionNotFound
	}
	return flow, nil
}

func (s *SessionService) Get(ownerID, id string) (Snapshot, error) {
	flow, err := s.Flow(ownerID, id)
	if err != nil {
		return Snapshot{}, err
	}
	return flow.Snapshot(), nil
}

// Answer records an answer and reports its category.
func (s *SessionService) Answer(ownerID, id, questionID string, a checkin.Answer) (checkin.Category, Snapshot, error) {
	flow, err := s.Flow(ownerID, id)
	if err != nil {
		return "", Snapshot{}, err
	}
	cat, snap, err := flow.Answer(questionID, a)
	if err != nil {
		return "", Snapshot{}, err
	}
	q, _ := flow.question(questionID)
	s.metrics.Answer(cat, q.Topic)
	s.log.Debug("answer recorded", zap.String("session_id", id), zap.String("question_id", questionID), zap.String("category", string(cat)))
	return cat, snap, nil
}

func (s *SessionService) Skip(ownerID, id string) (Snapshot, error) {
	flow, err := s.Flow(ownerID, id)
	if err != nil {
		return Snapshot{}, err
	}
	snap, err := flow.Skip()
	if err != nil {
		return Snapshot{}, err
	}
	s.metrics.Skip()
	return snap, nil
}

func (s *SessionService) Next(ownerID, id string) (Snapshot, error) {
	flow, err := s.Flow(ownerID, id)
	if err != nil {
		return Snapshot{}, err
	}
	return flow.Next()
}

func (s *SessionService) Back(ownerID, id string) (Snapshot, error) {
	flow, err := s.Flow(ownerID, id)
	if err != nil {
		return Snapshot{}, err
	}
	return flow.Back()
}

func (s *SessionService) SetReflection(ownerID, id, note string) (Snapshot, error) {
	flow, err := s.Flow(ownerID, id)
	if err != nil {
		return Snapshot{}, err
	}
	return flow.SetReflection(note)
}

// Summary previews the grouped summary without finalizing.
func (s *SessionService) Summary(ownerID, id string) (SummaryView, error) {
	flow, err := s.Flow(ownerID, id)
	if err != nil {
		return SummaryView{}, err
	}
	flow.mu.Lock()
	rec := flow.record
	flow.mu.Unlock()
	if rec != nil {
		return BuildSummaryView(*rec), nil
	}
	return BuildSummaryView(flow.Preview()), nil
}

// Finalize closes the session and stores its record. A store failure leaves
// the session open so the caller can retry.
func (s *SessionService) Finalize(ctx context.Context, ownerID, id string) (checkin.SurveyRecord, error) {
	flow, err := s.Flow(ownerID, id)
	if err != nil {
		return checkin.SurveyRecord{}, err
	}
	rec, _, err := flow.Finalize(func(rec checkin.SurveyRecord) error {
		err := s.store.AddRecord(ctx, ownerID, rec)
		s.metrics.RecordOp("add", err)
		if err != nil {
			return fmt.Errorf("store record: %w", err)
		}
		return nil
	})
	if err != nil {
		s.log.Warn("finalize failed", zap.String("session_id", id), zap.Error(err))
		return checkin.SurveyRecord{}, err
	}
	s.metrics.SessionFinalized(rec.Summary)
	s.log.Info("session finalized",
		zap.String("session_id", id),
		zap.String("record_id", rec.ID),
		zap.Int("good", rec.Summary.Good),
		zap.Int("neutral", rec.Summary.Neutral),
		zap.Int("bad", rec.Summary.Bad))
	return rec, nil
}

// Discard drops a session without storing anything.
func (s *SessionService) Discard(ownerID, id string) error {
	flow, err := s.Flow(ownerID, id)
	if err != nil {
		return err
	}
	finalized := flow.Snapshot().Finalized
	s.mu.Lock()
	delete(s.flows, id)
	s.mu.Unlock()
	if finalized {
		s.metrics.SessionsEvicted(1)
	} else {
		s.metrics.SessionsDropped(1)
	}
	return nil
}

// PruneBefore drops sessions started before cutoff and returns how many went.
func (s *SessionService) PruneBefore(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped, evicted := 0, 0
	for id, flow := range s.flows {
		snap := flow.Snapshot()
		if !snap.Session.Date.Before(cutoff) {
			continue
		}
		delete(s.flows, id)
		if snap.Finalized {
			evicted++
		} else {
			dropped++
		}
	}
	s.metrics.SessionsDropped(dropped)
	s.metrics.SessionsEvicted(evicted)
	if dropped+evicted > 0 {
		s.log.Info("pruned sessions", zap.Int("dropped", dropped), zap.Int("evicted", evicted))
	}
	return dropped + evicted
}
