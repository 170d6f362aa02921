package models

import (
	"bytes"
	"encoding/json"
	"time"
)

type QuizMode string

const (
	ModeByTopic        QuizMode = "byTopic"
	ModeUnanswered     QuizMode = "unanswered"
	ModeMissed         QuizMode = "missed"
	ModeBookmarked     QuizMode = "bookmarked"
	ModeAdaptive       QuizMode = "adaptive"
	ModeBalanced       QuizMode = "balanced"
	ModeWeakTopic      QuizMode = "weakTopic"
	ModeDailyChallenge QuizMode = "dailyChallenge"
	ModeSmartReview    QuizMode = "smartReview"
	ModeReview         QuizMode = "review"
)

var ValidQuizModes = map[QuizMode]bool{
	ModeByTopic:        true,
	ModeUnanswered:     true,
	ModeMissed:         true,
	ModeBookmarked:     true,
	ModeAdaptive:       true,
	ModeBalanced:       true,
	ModeWeakTopic:      true,
	ModeDailyChallenge: true,
	ModeSmartReview:    true,
	ModeReview:         true,
}

type SessionState string

const (
	SessionNotStarted SessionState = "not_started"
	SessionInProgress SessionState = "in_progress"
	SessionCompleted  SessionState = "completed"
)

// StartQuizRequest is the wire form of a quiz request. Length is a number
// or "all"; an empty or zero length also means all candidates.
type StartQuizRequest struct {
	Mode   QuizMode   `json:"mode"`
	Topic  string     `json:"topic,omitempty"`
	Length QuizLength `json:"length,omitempty"`
	Streak *int       `json:"streak,omitempty"`
}

// QuizLength holds the raw length text. It decodes from a JSON number as
// well as a string, so 5, "5" and "all" are all accepted.
type QuizLength string

func (l *QuizLength) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*l = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = QuizLength(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*l = QuizLength(n.String())
	return nil
}

type AnswerRequest struct {
	QuestionID string `json:"question_id,omitempty"`
	Choice     int    `json:"choice"`
}

type SessionResponse struct {
	Mode       QuizMode      `json:"mode"`
	State      SessionState  `json:"state"`
	Total      int           `json:"total"`
	Current    int           `json:"current"`
	Correct    int           `json:"correct"`
	Streak     int           `json:"streak"`
	BestStreak int           `json:"best_streak"`
	Question   *QuestionView `json:"question,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	// Empty is set when a start request matched no questions. The session
	// fields then describe whatever session was already active.
	Empty bool `json:"empty,omitempty"`
}

type AnswerResponse struct {
	Correct       bool            `json:"correct"`
	CorrectIndex  int             `json:"correct_index"`
	CorrectAnswer string          `json:"correct_answer"`
	Explanation   string          `json:"explanation,omitempty"`
	NewBadges     []Badge         `json:"new_badges,omitempty"`
	Session       SessionResponse `json:"session"`
	Summary       *QuizSummary    `json:"summary,omitempty"`
}

// QuizSummary is produced once, when the last question is answered.
type QuizSummary struct {
	Result           QuizResultRecord `json:"result"`
	Percent          int              `json:"percent"`
	DueReviews       int              `json:"due_reviews"`
	SmartReviewReady int              `json:"smart_review_ready"`
}
