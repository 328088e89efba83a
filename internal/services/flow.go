package services

import (
	"sync"
	"time"

	"github.com/soaringjerry/Mindful/internal/checkin"
)

// Progress drives the progress dots of a check-in.
type Progress struct {
	Index    int  `json:"index"`
	Total    int  `json:"total"`
	Answered int  `json:"answered"`
	Skipped  int  `json:"skipped"`
	Done     bool `json:"done"`
}

// Snapshot is a read-only view of a flow after a transition.
type Snapshot struct {
	OwnerID   string                `json:"-"`
	Session   checkin.Session       `json:"session"`
	Current   *checkin.Question     `json:"current,omitempty"`
	Progress  Progress              `json:"progress"`
	Record    *checkin.SurveyRecord `json:"record,omitempty"`
	Finalized bool                  `json:"finalized"`
}

// Flow serializes every transition of one session and tracks the question
// cursor. Subscribers run after each transition, outside the lock.
type Flow struct {
	mu        sync.Mutex
	ownerID   string
	questions []checkin.Question
	session   checkin.Session
	index     int
	answered  map[string]bool
	record    *checkin.SurveyRecord
	subs      map[int]func(Snapshot)
	nextSub   int
	now       func() time.Time
	idGen     func() string
}

func NewFlow(ownerID string, session checkin.Session, questions []checkin.Question) *Flow {
	return &Flow{
		ownerID:   ownerID,
		questions: append([]checkin.Question(nil), questions...),
		session:   session,
		answered:  map[string]bool{},
		subs:      map[int]func(Snapshot){},
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     newID,
	}
}

// Subscribe registers fn for every later transition and returns its cancel func.
func (f *Flow) Subscribe(fn func(Snapshot)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// Answer records a for questionID without moving the cursor.
func (f *Flow) Answer(questionID string, a checkin.Answer) (checkin.Category, Snapshot, error) {
	var cat checkin.Category
	snap, err := f.transition(func() error {
		q, ok := f.question(questionID)
		if !ok {
			return ErrQuestionNotFound
		}
		cat = checkin.Categorize(a, q)
		f.session = checkin.RecordResponse(f.session, q, a, f.now(), f.idGen())
		f.answered[q.ID] = true
		return nil
	})
	return cat, snap, err
}

// Skip skips the question under the cursor and advances.
func (f *Flow) Skip() (Snapshot, error) {
	return f.transition(func() error {
		if f.index >= len(f.questions) {
			return NewConflictError("no current question")
		}
		f.session = checkin.SkipQuestion(f.session, f.questions[f.index], f.now(), f.idGen())
		f.index++
		return nil
	})
}

// Next advances past a question that has been answered at least once.
func (f *Flow) Next() (Snapshot, error) {
	return f.transition(func() error {
		if f.index >= len(f.questions) {
			return NewConflictError("no current question")
		}
		if !f.answered[f.questions[f.index].ID] {
			return NewConflictError("make a selection to continue")
		}
		f.index++
		return nil
	})
}

// Back moves the cursor to the previous question; it stops at the first.
func (f *Flow) Back() (Snapshot, error) {
	return f.transition(func() error {
		if f.index > 0 {
			f.index--
		}
		return nil
	})
}

func (f *Flow) SetReflection(note string) (Snapshot, error) {
	return f.transition(func() error {
		f.session = f.session.WithReflection(note)
		return nil
	})
}

// Finalize snapshots the session into a record and hands it to commit while
// the flow is still locked. A commit error leaves the flow open. It may be
// called before the last question; once finalized the flow rejects further
// transitions.
func (f *Flow) Finalize(commit func(checkin.SurveyRecord) error) (checkin.SurveyRecord, Snapshot, error) {
	var rec checkin.SurveyRecord
	snap, err := f.transition(func() error {
		rec = checkin.Finalize(f.session, f.idGen())
		if commit != nil {
			if err := commit(rec); err != nil {
				return err
			}
		}
		f.record = &rec
		return nil
	})
	return rec, snap, err
}

// Preview builds the record Finalize would produce without closing the flow.
func (f *Flow) Preview() checkin.SurveyRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return checkin.Finalize(f.session, "")
}

func (f *Flow) transition(step func() error) (Snapshot, error) {
	f.mu.Lock()
	if f.record != nil {
		f.mu.Unlock()
		return Snapshot{}, ErrSessionFinalized
	}
	if err := step(); err != nil {
		f.mu.Unlock()
		return Snapshot{}, err
	}
	snap := f.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return snap, nil
}

func (f *Flow) question(id string) (checkin.Question, bool) {
	for _, q := range f.questions {
		if q.ID == id {
			return q, true
		}
	}
	return checkin.Question{}, false
}

func (f *Flow) snapshotLocked() Snapshot {
	snap := Snapshot{
		OwnerID:   f.ownerID,
		Session:   f.session,
		Record:    f.record,
		Finalized: f.record != nil,
		Progress:  f.progressLocked(),
	}
	if f.index < len(f.questions) {
		q := f.questions[f.index]
		snap.Current = &q
	}
	return snap
}

func (f *Flow) progressLocked() Progress {
	p := Progress{Index: f.index, Total: len(f.questions), Done: f.index >= len(f.questions)}
	for _, r := range f.session.ActiveResponses() {
		if r.WasSkipped {
			p.Skipped++
		} else {
			p.Answered++
		}
	}
	return p
}
