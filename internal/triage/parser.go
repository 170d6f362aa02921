package triage

import (
	"encoding/json"
	"fmt"
	"strings"
)

type verificationResponse struct {
	SelectedAnswer string `json:"selected_answer"`
	Confidence     string `json:"confidence"`
	Reasoning      string `json:"reasoning"`
}

// parseVerification decodes the model's JSON answer and maps the chosen
// letter back to an answer index.
func parseVerification(content string, answerCount int) (int, verificationResponse, error) {
	var resp verificationResponse
	if err := json.Unmarshal([]byte(stripCodeFences(content)), &resp); err != nil {
		return -1, resp, fmt.Errorf("failed to parse verification response: %w", err)
	}

	letter := strings.ToUpper(strings.TrimSpace(resp.SelectedAnswer))
	letter = strings.Trim(letter, "()")
	if len(letter) != 1 {
		return -1, resp, fmt.Errorf("selected_answer %q is not a single letter", resp.SelectedAnswer)
	}
	idx := int(letter[0] - 'A')
	if idx < 0 || idx >= answerCount {
		return -1, resp, fmt.Errorf("selected_answer %q out of range for %d answers", resp.SelectedAnswer, answerCount)
	}
	resp.Confidence = strings.ToLower(strings.TrimSpace(resp.Confidence))
	return idx, resp, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSpace(s)
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}

// choiceLetter renders an answer index as A, B, C...
func choiceLetter(i int) string {
	return string(rune('A' + i))
}
