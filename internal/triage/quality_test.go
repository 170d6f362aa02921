package triage

import (
	"testing"

	"github.com/smartstudy/backend/internal/models"
)

func TestComputeStructuralScore(t *testing.T) {
	good := models.Suggestion{
		Question: "Which muscle flexes the elbow?",
		Answers:  []string{"Biceps brachii", "Triceps brachii", "Deltoid", "Trapezius"},
		Correct:  0,
	}
	s := ComputeStructuralScore(good)
	if s.passed() != 4 {
		t.Errorf("expected all checks to pass, got %+v", s)
	}

	dup := good
	dup.Answers = []string{"Deltoid", "deltoid "}
	if ComputeStructuralScore(dup).AnswersDistinct {
		t.Error("duplicate answers should fail the distinct check")
	}

	blank := good
	blank.Answers = []string{"Deltoid", "  "}
	if ComputeStructuralScore(blank).AnswersNonEmpty {
		t.Error("blank answer should fail the non-empty check")
	}

	tooMany := good
	tooMany.Answers = []string{"a", "b", "c", "d", "e", "f", "g"}
	if ComputeStructuralScore(tooMany).AnswerCountOK {
		t.Error("seven answers should fail the count check")
	}

	short := good
	short.Question = "Why?"
	if ComputeStructuralScore(short).QuestionLengthOK {
		t.Error("short question should fail the length check")
	}
}

func TestComputeQualityScore(t *testing.T) {
	full := StructuralScore{true, true, true, true}

	tests := []struct {
		name    string
		verdict *Verdict
		want    float64
	}{
		{"high confidence match", &Verdict{Matches: true, Confidence: "high"}, 1.0},
		{"medium confidence match", &Verdict{Matches: true, Confidence: "medium"}, 0.82},
		{"mismatch", &Verdict{Matches: false, Confidence: "high"}, 0.40},
		{"unverified", nil, 0.64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeQualityScore(tt.verdict, full)
			if diff := got - tt.want; diff > 0.001 || diff < -0.001 {
				t.Errorf("score = %.3f, want %.3f", got, tt.want)
			}
		})
	}
}

func TestClassifyQuality(t *testing.T) {
	if ClassifyQuality(0.85) != models.SuggestionVerified {
		t.Error("0.85 should be verified")
	}
	if ClassifyQuality(0.79) != models.SuggestionNeedsReview {
		t.Error("0.79 should need review")
	}
}
