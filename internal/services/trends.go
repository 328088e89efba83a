package services

import (
	"sort"

	"github.com/soaringjerry/Mindful/internal/checkin"
)

// BuildTrends counts category membership per topic and records per day.
// Topics come back in catalog order, skipping topics that never appeared.
func BuildTrends(recs []checkin.SurveyRecord) *Trends {
	byTopic := map[checkin.Topic]*TopicTrend{}
	byDay := map[string]*TrendPoint{}
	var totals checkin.Summary

	bump := func(ts []checkin.Topic, inc func(*TopicTrend)) {
		for _, t := range ts {
			tt, ok := byTopic[t]
			if !ok {
				tt = &TopicTrend{Topic: t, Name: t.DisplayName()}
				byTopic[t] = tt
			}
			inc(tt)
			tt.Total++
		}
	}
	for _, r := range recs {
		bump(r.FlaggedTopics, func(tt *TopicTrend) { tt.Flagged++ })
		bump(r.NeutralTopics, func(tt *TopicTrend) { tt.Neutral++ })
		bump(r.PositiveTopics, func(tt *TopicTrend) { tt.Positive++ })

		totals.Good += r.Summary.Good
		totals.Neutral += r.Summary.Neutral
		totals.Bad += r.Summary.Bad

		day := r.Date.UTC().Format("2006-01-02")
		p, ok := byDay[day]
		if !ok {
			p = &TrendPoint{Date: day}
			byDay[day] = p
		}
		p.Count++
		p.Summary.Good += r.Summary.Good
		p.Summary.Neutral += r.Summary.Neutral
		p.Summary.Bad += r.Summary.Bad
	}

	topics := make([]TopicTrend, 0, len(byTopic))
	for _, t := range checkin.AllTopics() {
		if tt, ok := byTopic[t]; ok {
			topics = append(topics, *tt)
		}
	}
	return &Trends{
		TotalRecords: len(recs),
		Totals:       totals,
		Topics:       topics,
		Timeseries:   buildTimeseries(byDay),
	}
}

func buildTimeseries(points map[string]*TrendPoint) []TrendPoint {
	days := make([]string, 0, len(points))
	for d := range points {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]TrendPoint, 0, len(days))
	for _, d := range days {
		out = append(out, *points[d])
	}
	return out
}
