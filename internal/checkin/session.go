package checkin

import (
	"slices"
	"time"
)

// TopicSet keeps insertion order and holds each topic at most once.
// Methods never modify the receiver's backing array.
type TopicSet []Topic

func (s TopicSet) Contains(t Topic) bool { return slices.Contains(s, t) }

// Without returns a copy of s with t removed.
func (s TopicSet) Without(t Topic) TopicSet {
	out := make(TopicSet, 0, len(s))
	for _, v := range s {
		if v != t {
			out = append(out, v)
		}
	}
	return out
}

// With returns a copy of s with t appended unless already present.
func (s TopicSet) With(t Topic) TopicSet {
	out := make(TopicSet, len(s), len(s)+1)
	copy(out, s)
	if s.Contains(t) {
		return out
	}
	return append(out, t)
}

// Response records one answer event. Re-answering appends another Response;
// only the latest one per question drives categorization.
type Response struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"questionId"`
	Answer     Answer    `json:"answer"`
	Timestamp  time.Time `json:"timestamp"`
	WasSkipped bool      `json:"wasSkipped"`
}

// Session is one check-in run. A topic appears in at most one of the three
// membership sets at any time.
type Session struct {
	ID             string     `json:"id"`
	Date           time.Time  `json:"date"`
	Responses      []Response `json:"responses"`
	ReflectionNote *string    `json:"reflectionNote,omitempty"`
	PositiveTopics TopicSet   `json:"positiveTopics"`
	NeutralTopics  TopicSet   `json:"neutralTopics"`
	FlaggedTopics  TopicSet   `json:"flaggedTopics"`
}

func NewSession(id string, date time.Time) Session {
	return Session{
		ID:             id,
		Date:           date,
		Responses:      []Response{},
		PositiveTopics: TopicSet{},
		NeutralTopics:  TopicSet{},
		FlaggedTopics:  TopicSet{},
	}
}

// Event is a session transition input: Answered or Skipped.
type Event interface {
	apply(Session) Session
}

// Answered records a non-skipped answer to Question.
type Answered struct {
	ResponseID string
	Question   Question
	Answer     Answer
	At         time.Time
}

// Skipped records that Question was passed over.
type Skipped struct {
	ResponseID string
	Question   Question
	At         time.Time
}

// Apply returns the session that results from e. s is left untouched.
func Apply(s Session, e Event) Session {
	return e.apply(s)
}

func (e Answered) apply(s Session) Session {
	s.Responses = append(slices.Clip(s.Responses), Response{
		ID:         e.ResponseID,
		QuestionID: e.Question.ID,
		Answer:     e.Answer,
		Timestamp:  e.At,
	})
	s = s.clearTopic(e.Question.Topic)
	switch Categorize(e.Answer, e.Question) {
	case CategoryPositive:
		s.PositiveTopics = s.PositiveTopics.With(e.Question.Topic)
	case CategoryNeutral:
		s.NeutralTopics = s.NeutralTopics.With(e.Question.Topic)
	default:
		s.FlaggedTopics = s.FlaggedTopics.With(e.Question.Topic)
	}
	return s
}

func (e Skipped) apply(s Session) Session {
	s.Responses = append(slices.Clip(s.Responses), Response{
		ID:         e.ResponseID,
		QuestionID: e.Question.ID,
		Answer:     SkipSentinel,
		Timestamp:  e.At,
		WasSkipped: true,
	})
	return s.clearTopic(e.Question.Topic)
}

func (s Session) clearTopic(t Topic) Session {
	s.PositiveTopics = s.PositiveTopics.Without(t)
	s.NeutralTopics = s.NeutralTopics.Without(t)
	s.FlaggedTopics = s.FlaggedTopics.Without(t)
	return s
}

// RecordResponse categorizes a and moves q's topic into the matching set.
// Topics are tracked per topic, not per question: two questions sharing a
// topic overwrite each other, last write wins.
func RecordResponse(s Session, q Question, a Answer, at time.Time, responseID string) Session {
	return Apply(s, Answered{ResponseID: responseID, Question: q, Answer: a, At: at})
}

// SkipQuestion appends a skipped response and clears q's topic from every set.
func SkipQuestion(s Session, q Question, at time.Time, responseID string) Session {
	return Apply(s, Skipped{ResponseID: responseID, Question: q, At: at})
}

// WithReflection returns a copy carrying the reflection note.
func (s Session) WithReflection(note string) Session {
	s.ReflectionNote = &note
	return s
}

// TopicCategory reports which set currently holds t.
func (s Session) TopicCategory(t Topic) (Category, bool) {
	switch {
	case s.PositiveTopics.Contains(t):
		return CategoryPositive, true
	case s.NeutralTopics.Contains(t):
		return CategoryNeutral, true
	case s.FlaggedTopics.Contains(t):
		return CategoryNegative, true
	}
	return "", false
}

// ActiveResponses returns the latest response per question, in order of each
// question's first appearance.
func (s Session) ActiveResponses() []Response {
	idx := map[string]int{}
	out := make([]Response, 0, len(s.Responses))
	for _, r := range s.Responses {
		if i, ok := idx[r.QuestionID]; ok {
			out[i] = r
			continue
		}
		idx[r.QuestionID] = len(out)
		out = append(out, r)
	}
	return out
}
