package checkin

import (
	"encoding/json"
	"slices"
)

type thresholdKind uint8

const (
	thresholdsNone thresholdKind = iota
	thresholdsFlagged
	thresholdsPositive
	thresholdsBoth
)

// ScaleRule overrides the default slider thresholds. Both bounds are inclusive.
// Build one with NoThresholds, FlaggedOnly, PositiveOnly or Bounds.
type ScaleRule struct {
	kind          thresholdKind
	flaggedMax    int
	positiveMin   int
	higherIsWorse bool
}

func NoThresholds() ScaleRule { return ScaleRule{} }

func FlaggedOnly(flaggedMax int) ScaleRule {
	return ScaleRule{kind: thresholdsFlagged, flaggedMax: flaggedMax}
}

func PositiveOnly(positiveMin int) ScaleRule {
	return ScaleRule{kind: thresholdsPositive, positiveMin: positiveMin}
}

func Bounds(flaggedMax, positiveMin int) ScaleRule {
	return ScaleRule{kind: thresholdsBoth, flaggedMax: flaggedMax, positiveMin: positiveMin}
}

// NewScaleRule builds the variant matching which optional fields are set.
// A nil higherIsBetter means higher is better.
func NewScaleRule(flaggedMax, positiveMin *int, higherIsBetter *bool) ScaleRule {
	var r ScaleRule
	switch {
	case flaggedMax != nil && positiveMin != nil:
		r = Bounds(*flaggedMax, *positiveMin)
	case flaggedMax != nil:
		r = FlaggedOnly(*flaggedMax)
	case positiveMin != nil:
		r = PositiveOnly(*positiveMin)
	}
	if higherIsBetter != nil {
		r = r.WithHigherIsBetter(*higherIsBetter)
	}
	return r
}

// WithHigherIsBetter returns a copy with the given direction. When false, larger
// slider values are worse (more sugar, more caffeine).
func (r ScaleRule) WithHigherIsBetter(v bool) ScaleRule {
	r.higherIsWorse = !v
	return r
}

func (r ScaleRule) HigherIsBetter() bool { return !r.higherIsWorse }

func (r ScaleRule) HasThresholds() bool { return r.kind != thresholdsNone }

func (r ScaleRule) FlaggedMax() (int, bool) {
	return r.flaggedMax, r.kind == thresholdsFlagged || r.kind == thresholdsBoth
}

func (r ScaleRule) PositiveMin() (int, bool) {
	return r.positiveMin, r.kind == thresholdsPositive || r.kind == thresholdsBoth
}

// categorize reports ok=false when the rule carries no thresholds.
func (r ScaleRule) categorize(v int) (Category, bool) {
	hib := r.HigherIsBetter()
	if limit, ok := r.FlaggedMax(); ok {
		if hib && v <= limit || !hib && v >= limit {
			return CategoryNegative, true
		}
	}
	if limit, ok := r.PositiveMin(); ok {
		if hib && v >= limit || !hib && v <= limit {
			return CategoryPositive, true
		}
	}
	if r.HasThresholds() {
		return CategoryNeutral, true
	}
	return "", false
}

// ChoiceRule lists which button labels count toward each category.
// The lists are expected to be disjoint; flagged wins on overlap.
type ChoiceRule struct {
	Positive []string
	Neutral  []string
	Flagged  []string
}

func (r ChoiceRule) categorize(label string) (Category, bool) {
	switch {
	case slices.Contains(r.Flagged, label):
		return CategoryNegative, true
	case slices.Contains(r.Positive, label):
		return CategoryPositive, true
	case slices.Contains(r.Neutral, label):
		return CategoryNeutral, true
	}
	return "", false
}

// ScoringRule is the optional per-question override. Only the half matching
// the answer kind is consulted.
type ScoringRule struct {
	Scale   ScaleRule
	Choices ChoiceRule
}

// ScoringRuleSpec is the flat wire/config form of a ScoringRule.
type ScoringRuleSpec struct {
	PositiveChoices  []string `json:"positiveChoices,omitempty" yaml:"positiveChoices,omitempty"`
	NeutralChoices   []string `json:"neutralChoices,omitempty" yaml:"neutralChoices,omitempty"`
	FlaggedChoices   []string `json:"flaggedChoices,omitempty" yaml:"flaggedChoices,omitempty"`
	FlaggedMaxScale  *int     `json:"flaggedMaxScale,omitempty" yaml:"flaggedMaxScale,omitempty"`
	PositiveMinScale *int     `json:"positiveMinScale,omitempty" yaml:"positiveMinScale,omitempty"`
	HigherIsBetter   *bool    `json:"higherIsBetter,omitempty" yaml:"higherIsBetter,omitempty"`
}

func (s ScoringRuleSpec) Rule() ScoringRule {
	return ScoringRule{
		Scale: NewScaleRule(s.FlaggedMaxScale, s.PositiveMinScale, s.HigherIsBetter),
		Choices: ChoiceRule{
			Positive: s.PositiveChoices,
			Neutral:  s.NeutralChoices,
			Flagged:  s.FlaggedChoices,
		},
	}
}

func (r ScoringRule) Spec() ScoringRuleSpec {
	s := ScoringRuleSpec{
		PositiveChoices: r.Choices.Positive,
		NeutralChoices:  r.Choices.Neutral,
		FlaggedChoices:  r.Choices.Flagged,
	}
	if v, ok := r.Scale.FlaggedMax(); ok {
		s.FlaggedMaxScale = &v
	}
	if v, ok := r.Scale.PositiveMin(); ok {
		s.PositiveMinScale = &v
	}
	if !r.Scale.HigherIsBetter() {
		f := false
		s.HigherIsBetter = &f
	}
	return s
}

func (r ScoringRule) MarshalJSON() ([]byte, error) { return json.Marshal(r.Spec()) }

func (r *ScoringRule) UnmarshalJSON(b []byte) error {
	var s ScoringRuleSpec
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = s.Rule()
	return nil
}

var (
	defaultPositiveChoices = []string{"Plenty", "High"}
	defaultNeutralChoices  = []string{"Some", "Medium"}
)

// Categorize maps an answer to a category, preferring the question's scoring
// rule and falling back to the defaults. It is total: any input yields one of
// the three categories, and misconfigured rules resolve toward negative.
func Categorize(a Answer, q Question) Category {
	if q.Scoring != nil {
		if c, ok := categorizeWithRule(a, *q.Scoring); ok {
			return c
		}
	}
	return defaultCategory(a)
}

func categorizeWithRule(a Answer, r ScoringRule) (Category, bool) {
	if v, ok := a.Scale(); ok {
		return r.Scale.categorize(v)
	}
	label, _ := a.Choice()
	return r.Choices.categorize(label)
}

func defaultCategory(a Answer) Category {
	if v, ok := a.Scale(); ok {
		switch {
		case v >= 4:
			return CategoryPositive
		case v == 3:
			return CategoryNeutral
		}
		return CategoryNegative
	}
	label, _ := a.Choice()
	switch {
	case slices.Contains(defaultPositiveChoices, label):
		return CategoryPositive
	case slices.Contains(defaultNeutralChoices, label):
		return CategoryNeutral
	}
	// "None", "Low" and unrecognized labels
	return CategoryNegative
}
