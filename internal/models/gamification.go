package models

import "time"

// BadgeState is what badge predicates see after each answer.
type BadgeState struct {
	Streak     int
	Correct    int
	QuizLength int
	Current    int
}

type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type BadgeStatus struct {
	Badge
	Earned bool `json:"earned"`
}

type BadgesResponse struct {
	Badges []BadgeStatus `json:"badges"`
	Earned int           `json:"earned"`
}

// QuizResultRecord is appended to the history log per completed quiz.
type QuizResultRecord struct {
	Streak int       `json:"streak"`
	Total  int       `json:"total"`
	Score  int       `json:"score"`
	Date   time.Time `json:"date"`
}

type HistoryResponse struct {
	Results []QuizResultRecord `json:"results"`
	Count   int                `json:"count"`
}
