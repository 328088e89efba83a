package checkin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinalizeScenarioE(t *testing.T) {
	s := NewSession("s1", t0)
	s = RecordResponse(s, scaleQuestion(TopicFocus, nil), ScaleAnswer(5), t0, "r1")
	s = RecordResponse(s, scaleQuestion(TopicSleep, nil), ScaleAnswer(1), t0, "r2")

	rec := Finalize(s, "rec1")
	assert.Equal(t, Summary{Good: 1, Neutral: 0, Bad: 1}, rec.Summary)
	assert.Equal(t, "", rec.Reflection)
	assert.Equal(t, t0, rec.Date)
	assert.Equal(t, []Topic{TopicFocus}, rec.PositiveTopics)
	assert.Equal(t, []Topic{TopicSleep}, rec.FlaggedTopics)
	assert.Empty(t, rec.NeutralTopics)

	rec = Finalize(s.WithReflection("slept badly"), "rec2")
	assert.Equal(t, "slept badly", rec.Reflection)
}

func TestFinalizeEmptySession(t *testing.T) {
	rec := Finalize(NewSession("s1", t0), "rec1")
	assert.Equal(t, Summary{}, rec.Summary)
	assert.Equal(t, "", rec.Reflection)
	assert.NotNil(t, rec.PositiveTopics)
	assert.NotNil(t, rec.NeutralTopics)
	assert.NotNil(t, rec.FlaggedTopics)
}

func TestFinalizeIsSnapshot(t *testing.T) {
	s := NewSession("s1", t0)
	s = RecordResponse(s, scaleQuestion(TopicFocus, nil), ScaleAnswer(5), t0, "r1")
	rec := Finalize(s, "rec1")

	s.PositiveTopics[0] = TopicSleep
	s = RecordResponse(s, scaleQuestion(TopicRest, nil), ScaleAnswer(3), t0, "r2")
	assert.Equal(t, []Topic{TopicFocus}, rec.PositiveTopics)
	assert.Empty(t, rec.NeutralTopics)
}

func TestFinalizeTwiceIsValueEqual(t *testing.T) {
	s := RecordResponse(NewSession("s1", t0), scaleQuestion(TopicEyes, nil), ScaleAnswer(3), t0, "r1")
	a := Finalize(s, "a")
	b := Finalize(s, "b")
	assert.NotEqual(t, a.ID, b.ID)
	b.ID = a.ID
	assert.Equal(t, a, b)
}

func TestRecordWithReflection(t *testing.T) {
	rec := Finalize(RecordResponse(NewSession("s1", t0), scaleQuestion(TopicEyes, nil), ScaleAnswer(5), t0, "r1"), "rec1")
	edited := rec.WithReflection("rec2", "better now")
	assert.Equal(t, "rec2", edited.ID)
	assert.Equal(t, "better now", edited.Reflection)
	assert.Equal(t, rec.Summary, edited.Summary)
	assert.Equal(t, "", rec.Reflection)
}
