package checkin

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scaleQuestion(topic Topic, rule *ScoringRule) Question {
	return Question{ID: "q-" + string(topic), Title: "Test " + topic.DisplayName(), Topic: topic, Kind: InputScale, Enabled: true, Scoring: rule}
}

func choiceQuestion(topic Topic, rule *ScoringRule) Question {
	return Question{ID: "c-" + string(topic), Topic: topic, Kind: InputChoice, Options: []string{"None", "Some", "Plenty"}, Enabled: true, Scoring: rule}
}

func intp(v int) *int    { return &v }
func boolp(v bool) *bool { return &v }

func TestCategorizeDefaultScale(t *testing.T) {
	q := scaleQuestion(TopicSleep, nil)
	cases := []struct {
		v    int
		want Category
	}{
		{-3, CategoryNegative},
		{0, CategoryNegative},
		{1, CategoryNegative},
		{2, CategoryNegative},
		{3, CategoryNeutral},
		{4, CategoryPositive},
		{5, CategoryPositive},
		{6, CategoryPositive},
		{100, CategoryPositive},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Categorize(ScaleAnswer(c.v), q), "scale %d", c.v)
	}
}

func TestCategorizeDefaultChoice(t *testing.T) {
	q := choiceQuestion(TopicHydration, nil)
	cases := map[string]Category{
		"Plenty": CategoryPositive,
		"High":   CategoryPositive,
		"Some":   CategoryNeutral,
		"Medium": CategoryNeutral,
		"None":   CategoryNegative,
		"Low":    CategoryNegative,
		"plenty": CategoryNegative,
		" High":  CategoryNegative,
		"":       CategoryNegative,
		"Lots":   CategoryNegative,
	}
	for label, want := range cases {
		assert.Equal(t, want, Categorize(ChoiceAnswer(label), q), "choice %q", label)
	}
}

func TestCategorizeHigherIsWorse(t *testing.T) {
	rule := ScoringRuleSpec{FlaggedMaxScale: intp(5), PositiveMinScale: intp(1), HigherIsBetter: boolp(false)}.Rule()
	q := scaleQuestion(TopicSugar, &rule)

	assert.Equal(t, CategoryNegative, Categorize(ScaleAnswer(5), q))
	assert.Equal(t, CategoryPositive, Categorize(ScaleAnswer(1), q))
	assert.Equal(t, CategoryNeutral, Categorize(ScaleAnswer(3), q))
}

func TestCategorizeScaleThresholdVariants(t *testing.T) {
	cases := []struct {
		name string
		rule ScaleRule
		v    int
		want Category
	}{
		{"bounds flagged", Bounds(2, 4), 2, CategoryNegative},
		{"bounds middle", Bounds(2, 4), 3, CategoryNeutral},
		{"bounds positive", Bounds(2, 4), 4, CategoryPositive},
		{"flagged only fires", FlaggedOnly(1), 1, CategoryNegative},
		{"flagged only middle band", FlaggedOnly(1), 2, CategoryNeutral},
		{"flagged only high still neutral", FlaggedOnly(1), 5, CategoryNeutral},
		{"positive only fires", PositiveOnly(5), 5, CategoryPositive},
		{"positive only low is neutral", PositiveOnly(5), 1, CategoryNeutral},
		{"no thresholds falls through", NoThresholds(), 1, CategoryNegative},
		{"no thresholds falls through high", NoThresholds(), 4, CategoryPositive},
		{"contradictory rule prefers flagged", Bounds(4, 2), 3, CategoryNegative},
		{"out of range low", Bounds(2, 4), 0, CategoryNegative},
		{"out of range high", Bounds(2, 4), 6, CategoryPositive},
		{"inverted flagged only", FlaggedOnly(4).WithHigherIsBetter(false), 5, CategoryNegative},
		{"inverted positive only", PositiveOnly(2).WithHigherIsBetter(false), 2, CategoryPositive},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rule := ScoringRule{Scale: c.rule}
			assert.Equal(t, c.want, Categorize(ScaleAnswer(c.v), scaleQuestion(TopicFocus, &rule)))
		})
	}
}

func TestCategorizeChoiceRule(t *testing.T) {
	rule := ScoringRule{Choices: ChoiceRule{
		Positive: []string{"None", "Shared"},
		Neutral:  []string{"Some"},
		Flagged:  []string{"Plenty", "Shared"},
	}}
	q := choiceQuestion(TopicCaffeine, &rule)

	assert.Equal(t, CategoryPositive, Categorize(ChoiceAnswer("None"), q))
	assert.Equal(t, CategoryNeutral, Categorize(ChoiceAnswer("Some"), q))
	assert.Equal(t, CategoryNegative, Categorize(ChoiceAnswer("Plenty"), q))
	assert.Equal(t, CategoryNegative, Categorize(ChoiceAnswer("Shared"), q), "flagged wins on overlap")
	// unlisted labels fall back to defaults
	assert.Equal(t, CategoryPositive, Categorize(ChoiceAnswer("High"), q))
	assert.Equal(t, CategoryNeutral, Categorize(ChoiceAnswer("Medium"), q))
}

func TestCategorizeRuleForOtherKindFallsThrough(t *testing.T) {
	scaleOnly := ScoringRule{Scale: Bounds(4, 5)}
	assert.Equal(t, CategoryPositive, Categorize(ChoiceAnswer("Plenty"), choiceQuestion(TopicFood, &scaleOnly)))

	choiceOnly := ScoringRule{Choices: ChoiceRule{Flagged: []string{"5"}}}
	assert.Equal(t, CategoryPositive, Categorize(ScaleAnswer(5), scaleQuestion(TopicFood, &choiceOnly)))
}

func TestScoringRuleJSON(t *testing.T) {
	var q Question
	raw := `{"id":"sugar-1","title":"Sugar today?","topic":"sugar","kind":"scale","enabled":true,
		"scoring":{"flaggedMaxScale":4,"higherIsBetter":false}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &q))
	require.NotNil(t, q.Scoring)

	limit, ok := q.Scoring.Scale.FlaggedMax()
	require.True(t, ok)
	assert.Equal(t, 4, limit)
	_, ok = q.Scoring.Scale.PositiveMin()
	assert.False(t, ok)
	assert.False(t, q.Scoring.Scale.HigherIsBetter())

	out, err := json.Marshal(q.Scoring)
	require.NoError(t, err)
	assert.JSONEq(t, `{"flaggedMaxScale":4,"higherIsBetter":false}`, string(out))
}

func TestAnswerJSON(t *testing.T) {
	var a Answer
	require.NoError(t, json.Unmarshal([]byte(`{"choice":"Some"}`), &a))
	label, ok := a.Choice()
	require.True(t, ok)
	assert.Equal(t, "Some", label)

	require.NoError(t, json.Unmarshal([]byte(`{"scale":0}`), &a))
	assert.Equal(t, SkipSentinel, a)

	assert.Error(t, json.Unmarshal([]byte(`{}`), &a))
	assert.Error(t, json.Unmarshal([]byte(`{"scale":1,"choice":"Some"}`), &a))
}
