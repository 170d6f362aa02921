package triage

import (
	"strings"

	"github.com/smartstudy/backend/internal/models"
)

// StructuralScore holds the individual structural checks for a suggestion.
type StructuralScore struct {
	QuestionLengthOK bool
	AnswerCountOK    bool
	AnswersNonEmpty  bool
	AnswersDistinct  bool
}

func (s StructuralScore) passed() int {
	n := 0
	for _, ok := range []bool{s.QuestionLengthOK, s.AnswerCountOK, s.AnswersNonEmpty, s.AnswersDistinct} {
		if ok {
			n++
		}
	}
	return n
}

// ComputeStructuralScore evaluates structural compliance for a suggestion.
func ComputeStructuralScore(s models.Suggestion) StructuralScore {
	qLen := len(strings.TrimSpace(s.Question))

	nonEmpty := true
	distinct := true
	seen := make(map[string]bool, len(s.Answers))
	for _, a := range s.Answers {
		key := strings.ToLower(strings.TrimSpace(a))
		if key == "" {
			nonEmpty = false
		}
		if seen[key] {
			distinct = false
		}
		seen[key] = true
	}

	return StructuralScore{
		QuestionLengthOK: qLen >= 10 && qLen <= 500,
		AnswerCountOK:    len(s.Answers) >= 2 && len(s.Answers) <= 6,
		AnswersNonEmpty:  nonEmpty,
		AnswersDistinct:  distinct,
	}
}

// ComputeQualityScore calculates a composite score (0.0-1.0).
//
// Formula: verification * 0.60 + structural * 0.40
func ComputeQualityScore(v *Verdict, structural StructuralScore) float64 {
	verificationScore := 0.4 // unverified
	if v != nil {
		if !v.Matches {
			verificationScore = 0.0
		} else {
			switch v.Confidence {
			case "high":
				verificationScore = 1.0
			case "medium":
				verificationScore = 0.7
			default:
				verificationScore = 0.4
			}
		}
	}

	structuralScore := float64(structural.passed()) / 4.0
	return verificationScore*0.60 + structuralScore*0.40
}

// ClassifyQuality maps a verified score to a suggestion status.
func ClassifyQuality(score float64) models.SuggestionStatus {
	if score >= 0.80 {
		return models.SuggestionVerified
	}
	return models.SuggestionNeedsReview
}
