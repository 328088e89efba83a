package checkin

import (
	"encoding/json"
	"errors"
)

// InputKind is how a question collects its answer.
type InputKind string

const (
	// InputScale is a 1-5 slider.
	InputScale InputKind = "scale"
	// InputChoice is a button group over Question.Options.
	InputChoice InputKind = "choice"
)

// Question belongs to exactly one topic and is immutable during a session.
type Question struct {
	ID      string       `json:"id"`
	Title   string       `json:"title"`
	Topic   Topic        `json:"topic"`
	Kind    InputKind    `json:"kind"`
	Options []string     `json:"options,omitempty"`
	Enabled bool         `json:"enabled"`
	Scoring *ScoringRule `json:"scoring,omitempty"`
}

// Category is the three-way classification of one answer.
type Category string

const (
	CategoryPositive Category = "positive"
	CategoryNeutral  Category = "neutral"
	CategoryNegative Category = "negative"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryPositive, CategoryNeutral, CategoryNegative:
		return true
	}
	return false
}

// AnswerKind tags an Answer. The zero value is a scale answer so the zero
// Answer equals the skip sentinel scale(0).
type AnswerKind uint8

const (
	AnswerScale AnswerKind = iota
	AnswerChoice
)

// Answer is either a scale integer or a choice label.
type Answer struct {
	kind   AnswerKind
	scale  int
	choice string
}

// SkipSentinel is recorded for skipped questions; 0 is never a valid slider value.
var SkipSentinel = ScaleAnswer(0)

func ScaleAnswer(v int) Answer { return Answer{kind: AnswerScale, scale: v} }

func ChoiceAnswer(label string) Answer { return Answer{kind: AnswerChoice, choice: label} }

func (a Answer) Kind() AnswerKind { return a.kind }

// Scale returns the slider value and whether the answer is a scale answer.
func (a Answer) Scale() (int, bool) { return a.scale, a.kind == AnswerScale }

// Choice returns the label and whether the answer is a choice answer.
func (a Answer) Choice() (string, bool) { return a.choice, a.kind == AnswerChoice }

type answerWire struct {
	Scale  *int    `json:"scale,omitempty"`
	Choice *string `json:"choice,omitempty"`
}

var errAnswerShape = errors.New("answer must carry exactly one of scale or choice")

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.kind == AnswerChoice {
		return json.Marshal(answerWire{Choice: &a.choice})
	}
	return json.Marshal(answerWire{Scale: &a.scale})
}

func (a *Answer) UnmarshalJSON(b []byte) error {
	var w answerWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	switch {
	case w.Scale != nil && w.Choice == nil:
		*a = ScaleAnswer(*w.Scale)
	case w.Choice != nil && w.Scale == nil:
		*a = ChoiceAnswer(*w.Choice)
	default:
		return errAnswerShape
	}
	return nil
}
