// Package quality hides questions that users rated poorly or flagged as
// unclear.
package quality

import "github.com/smartstudy/backend/internal/models"

const (
	// MaxLowRating and below excludes a question.
	MaxLowRating = 2
	// UnclearThreshold or more flags excludes a question.
	UnclearThreshold = 2
)

// Excluded reports whether the feedback for one question hides it. A
// missing rating or flag count never excludes.
func Excluded(id string, ratings, unclear map[string]int) bool {
	if r, ok := ratings[id]; ok && r <= MaxLowRating {
		return true
	}
	return unclear[id] >= UnclearThreshold
}

// Filter returns questions that pass, preserving order.
func Filter(questions []models.Question, ratings, unclear map[string]int) []models.Question {
	out := make([]models.Question, 0, len(questions))
	for _, q := range questions {
		if !Excluded(q.ID, ratings, unclear) {
			out = append(out, q)
		}
	}
	return out
}
