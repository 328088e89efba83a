package checkin

import (
	"slices"
	"time"
)

// Summary holds good/neutral/bad topic counts.
type Summary struct {
	Good    int `json:"good"`
	Neutral int `json:"neutral"`
	Bad     int `json:"bad"`
}

// SurveyRecord is the immutable snapshot of a finalized session.
type SurveyRecord struct {
	ID             string    `json:"id"`
	Date           time.Time `json:"date"`
	Summary        Summary   `json:"summary"`
	Reflection     string    `json:"reflection"`
	PositiveTopics []Topic   `json:"positiveTopics"`
	NeutralTopics  []Topic   `json:"neutralTopics"`
	FlaggedTopics  []Topic   `json:"flaggedTopics"`
}

// Finalize snapshots s into a record. The topic slices are copies, so later
// session transitions never reach the returned record.
func Finalize(s Session, id string) SurveyRecord {
	reflection := ""
	if s.ReflectionNote != nil {
		reflection = *s.ReflectionNote
	}
	return SurveyRecord{
		ID:   id,
		Date: s.Date,
		Summary: Summary{
			Good:    len(s.PositiveTopics),
			Neutral: len(s.NeutralTopics),
			Bad:     len(s.FlaggedTopics),
		},
		Reflection:     reflection,
		PositiveTopics: cloneTopics(s.PositiveTopics),
		NeutralTopics:  cloneTopics(s.NeutralTopics),
		FlaggedTopics:  cloneTopics(s.FlaggedTopics),
	}
}

// WithReflection returns a new record under id carrying the edited note.
// Stores replace records by remove+add, never in place.
func (r SurveyRecord) WithReflection(id, reflection string) SurveyRecord {
	out := r
	out.ID = id
	out.Reflection = reflection
	out.PositiveTopics = cloneTopics(r.PositiveTopics)
	out.NeutralTopics = cloneTopics(r.NeutralTopics)
	out.FlaggedTopics = cloneTopics(r.FlaggedTopics)
	return out
}

func cloneTopics(ts []Topic) []Topic {
	if ts == nil {
		return []Topic{}
	}
	return slices.Clone(ts)
}
