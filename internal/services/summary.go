package services

import "github.com/soaringjerry/Mindful/internal/checkin"

type TopicLine struct {
	Topic   checkin.Topic `json:"topic"`
	Name    string        `json:"name"`
	Summary string        `json:"summary"`
}

// SummaryView groups a record's topics the way the summary screen lists them:
// things to focus on, things that are okay, things going well.
type SummaryView struct {
	Flagged    []TopicLine     `json:"flagged"`
	Neutral    []TopicLine     `json:"neutral"`
	Positive   []TopicLine     `json:"positive"`
	Counts     checkin.Summary `json:"counts"`
	Reflection string          `json:"reflection"`
}

func BuildSummaryView(rec checkin.SurveyRecord) SummaryView {
	return SummaryView{
		Flagged:    topicLines(rec.FlaggedTopics, checkin.CategoryNegative),
		Neutral:    topicLines(rec.NeutralTopics, checkin.CategoryNeutral),
		Positive:   topicLines(rec.PositiveTopics, checkin.CategoryPositive),
		Counts:     rec.Summary,
		Reflection: rec.Reflection,
	}
}

func topicLines(ts []checkin.Topic, c checkin.Category) []TopicLine {
	out := make([]TopicLine, 0, len(ts))
	for _, t := range ts {
		out = append(out, TopicLine{Topic: t, Name: t.DisplayName(), Summary: t.Summary(c)})
	}
	return out
}
