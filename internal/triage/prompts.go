package triage

import (
	"fmt"
	"strings"

	"github.com/smartstudy/backend/internal/models"
)

const verificationSystemPrompt = `You are an experienced massage therapy instructor preparing students for the MBLEx licensing exam. You are reviewing a practice question written by a student. Decide which answer is correct using standard massage therapy curriculum (anatomy, physiology, kinesiology, pathology, ethics, SOAP documentation). Think through each choice before answering. Respond with JSON only.`

func buildVerificationPrompt(s models.Suggestion) string {
	var sb strings.Builder

	if s.Topic != "" {
		sb.WriteString("TOPIC: ")
		sb.WriteString(s.Topic)
		sb.WriteString("\n\n")
	}

	sb.WriteString("QUESTION:\n")
	sb.WriteString(s.Question)
	sb.WriteString("\n\nCHOICES:\n")
	for i, a := range s.Answers {
		sb.WriteString(fmt.Sprintf("(%s) %s\n", choiceLetter(i), a))
	}

	sb.WriteString(`
Select the BEST answer. Respond with JSON only:
{
  "selected_answer": "B",
  "confidence": "high",
  "reasoning": "Short explanation of why this answer is correct and the others are not"
}`)

	return sb.String()
}
