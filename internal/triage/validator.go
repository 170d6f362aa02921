package triage

import (
	"context"
	"fmt"
	"log"

	"github.com/smartstudy/backend/internal/models"
)

// Verdict is the model's blind answer to a suggested question.
type Verdict struct {
	SelectedIndex int    `json:"selected_index"`
	Matches       bool   `json:"matches"`
	Confidence    string `json:"confidence"`
	Reasoning     string `json:"reasoning"`
	PromptTokens  int    `json:"prompt_tokens"`
	OutputTokens  int    `json:"output_tokens"`
}

// Validator asks a model to answer each suggestion without seeing the
// author's key. A nil LLMClient disables model verification.
type Validator struct {
	llm LLMClient
}

func NewValidator(llm LLMClient) *Validator {
	return &Validator{llm: llm}
}

func (v *Validator) Enabled() bool {
	return v != nil && v.llm != nil
}

func (v *Validator) Verify(ctx context.Context, s models.Suggestion) (*Verdict, error) {
	if !v.Enabled() {
		return nil, fmt.Errorf("validator not configured")
	}

	resp, err := v.llm.Generate(ctx, verificationSystemPrompt, buildVerificationPrompt(s))
	if err != nil {
		return nil, fmt.Errorf("verification call failed: %w", err)
	}

	idx, parsed, err := parseVerification(resp.Content, len(s.Answers))
	if err != nil {
		return nil, err
	}

	return &Verdict{
		SelectedIndex: idx,
		Matches:       idx == s.Correct,
		Confidence:    parsed.Confidence,
		Reasoning:     parsed.Reasoning,
		PromptTokens:  resp.PromptTokens,
		OutputTokens:  resp.OutputTokens,
	}, nil
}

// Triage assigns a status and a moderator note to a suggestion. Structural
// checks always run; a failed model call passes the suggestion through as
// pending.
func (v *Validator) Triage(ctx context.Context, s models.Suggestion) (models.SuggestionStatus, string) {
	structural := ComputeStructuralScore(s)

	if !v.Enabled() {
		if structural.passed() < 4 {
			return models.SuggestionNeedsReview, "failed structural checks"
		}
		return models.SuggestionPending, ""
	}

	verdict, err := v.Verify(ctx, s)
	if err != nil {
		log.Printf("WARN: [triage] verification failed for suggestion %s: %v (passing as unvalidated)", s.ID, err)
		return models.SuggestionPending, "verification unavailable"
	}

	score := ComputeQualityScore(verdict, structural)
	status := ClassifyQuality(score)

	note := fmt.Sprintf("model chose %s (%s confidence), author marked %s; score %.2f",
		choiceLetter(verdict.SelectedIndex), verdict.Confidence, choiceLetter(s.Correct), score)
	return status, note
}
