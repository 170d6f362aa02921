// Package mastery derives per-topic accuracy from question stats.
package mastery

import (
	"sort"

	"github.com/smartstudy/backend/internal/models"
)

// Compute sums question stats per topic. Topics with no recorded attempts
// are omitted.
func Compute(questions []models.Question) map[string]models.TopicMastery {
	out := make(map[string]models.TopicMastery)
	for _, q := range questions {
		if q.Stats.Attempts() == 0 {
			continue
		}
		m := out[q.Topic]
		m.Correct += q.Stats.Correct
		m.Incorrect += q.Stats.Incorrect
		m.Total = m.Correct + m.Incorrect
		out[q.Topic] = m
	}
	return out
}

// Ranked lists attempted topics from weakest to strongest. Ties keep the
// order in which topics first appear in questions.
func Ranked(questions []models.Question) []string {
	m := Compute(questions)
	var topics []string
	seen := make(map[string]bool)
	for _, q := range questions {
		if _, ok := m[q.Topic]; ok && !seen[q.Topic] {
			seen[q.Topic] = true
			topics = append(topics, q.Topic)
		}
	}
	sort.SliceStable(topics, func(i, j int) bool {
		return m[topics[i]].Ratio() < m[topics[j]].Ratio()
	})
	return topics
}

// Weakest returns up to n topics from the front of Ranked.
func Weakest(questions []models.Question, n int) []string {
	ranked := Ranked(questions)
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// Entries renders mastery for display in first-appearance topic order.
func Entries(questions []models.Question) []models.MasteryEntry {
	m := Compute(questions)
	entries := []models.MasteryEntry{}
	seen := make(map[string]bool)
	for _, q := range questions {
		tm, ok := m[q.Topic]
		if !ok || seen[q.Topic] {
			continue
		}
		seen[q.Topic] = true
		entries = append(entries, models.MasteryEntry{
			Topic:        q.Topic,
			TopicMastery: tm,
			Percent:      int(tm.Ratio()*100 + 0.5),
		})
	}
	return entries
}
