package models

import "time"

type SuggestionStatus string

const (
	SuggestionPending     SuggestionStatus = "pending"
	SuggestionVerified    SuggestionStatus = "verified"
	SuggestionNeedsReview SuggestionStatus = "needs_review"
)

// Suggestion is a user-authored question offered for the bank.
type Suggestion struct {
	ID          string           `json:"id"`
	Question    string           `json:"question"`
	Answers     []string         `json:"answers"`
	Correct     int              `json:"correct"`
	Topic       string           `json:"topic"`
	SubmittedAt time.Time        `json:"submittedAt"`
	Status      SuggestionStatus `json:"status"`
	Note        string           `json:"note,omitempty"`
}

// Report flags a problem with an existing question.
type Report struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"questionId"`
	Question   string    `json:"question"`
	Reason     string    `json:"reason"`
	ReportedAt time.Time `json:"reportedAt"`
}

type SuggestionRequest struct {
	Question string   `json:"question"`
	Answers  []string `json:"answers"`
	Correct  int      `json:"correct"`
	Topic    string   `json:"topic"`
}

type ReportRequest struct {
	QuestionID string `json:"questionId"`
	Question   string `json:"question"`
	Reason     string `json:"reason"`
}

type SubmissionResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}
