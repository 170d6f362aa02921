package models

import "time"

// ReviewRecord marks a question for spaced review. Times are epoch
// milliseconds so the persisted form matches the browser-side records.
type ReviewRecord struct {
	LastMissed int64 `json:"lastMissed"`
	Interval   int64 `json:"interval"`
}

func NewReviewRecord(missedAt time.Time, interval time.Duration) ReviewRecord {
	return ReviewRecord{
		LastMissed: missedAt.UnixMilli(),
		Interval:   interval.Milliseconds(),
	}
}

// DueAt is the instant after which the record is due.
func (r ReviewRecord) DueAt() time.Time {
	return time.UnixMilli(r.LastMissed + r.Interval)
}

// Due reports whether strictly more than Interval has elapsed since LastMissed.
func (r ReviewRecord) Due(now time.Time) bool {
	return now.UnixMilli()-r.LastMissed > r.Interval
}

type DueReview struct {
	Question QuestionView `json:"question"`
	DueAt    time.Time    `json:"due_at"`
}

type DueReviewsResponse struct {
	Due   []DueReview `json:"due"`
	Count int         `json:"count"`
}
