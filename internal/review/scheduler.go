// Package review keeps the spaced-review records of missed questions.
package review

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/smartstudy/backend/internal/models"
	"github.com/smartstudy/backend/internal/storage"
)

const DefaultInterval = 24 * time.Hour

// Scheduler stores one record per question under review_<id>. A miss
// (re)starts the record with a flat interval; a correct answer clears it.
type Scheduler struct {
	repo     storage.Repository
	interval time.Duration
}

func NewScheduler(repo storage.Repository, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{repo: repo, interval: interval}
}

func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

func (s *Scheduler) OnMissed(ctx context.Context, questionID string, now time.Time) error {
	rec := models.NewReviewRecord(now, s.interval)
	if err := storage.SetJSON(ctx, s.repo, storage.ReviewKey(questionID), rec); err != nil {
		return fmt.Errorf("schedule review for %s: %w", questionID, err)
	}
	return nil
}

func (s *Scheduler) OnCorrect(ctx context.Context, questionID string) error {
	if err := s.repo.Delete(ctx, storage.ReviewKey(questionID)); err != nil {
		return fmt.Errorf("clear review for %s: %w", questionID, err)
	}
	return nil
}

// Record returns the question's review record, if any. A corrupt record is
// reported as absent.
func (s *Scheduler) Record(ctx context.Context, questionID string) (models.ReviewRecord, bool, error) {
	rec, found, err := storage.GetJSON[models.ReviewRecord](ctx, s.repo, storage.ReviewKey(questionID))
	if err != nil {
		if isCorrupt(err) {
			return models.ReviewRecord{}, false, nil
		}
		return models.ReviewRecord{}, false, err
	}
	return rec, found, nil
}

// Records loads every stored review record keyed by question id.
func (s *Scheduler) Records(ctx context.Context) (map[string]models.ReviewRecord, error) {
	keys, err := s.repo.Keys(ctx, storage.ReviewPrefix)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	out := make(map[string]models.ReviewRecord, len(keys))
	for _, k := range keys {
		rec, found, err := storage.GetJSON[models.ReviewRecord](ctx, s.repo, k)
		if err != nil && !isCorrupt(err) {
			return nil, err
		}
		if found && err == nil {
			out[k[len(storage.ReviewPrefix):]] = rec
		}
	}
	return out, nil
}

// Due pairs a question with the time it became due.
type Due struct {
	Question models.Question
	DueAt    time.Time
}

// DueNow returns the questions whose record is due at now, oldest miss
// first. Questions without a record are never due.
func (s *Scheduler) DueNow(ctx context.Context, questions []models.Question, now time.Time) ([]Due, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}

	var due []Due
	for _, q := range questions {
		rec, ok := records[q.ID]
		if !ok || !rec.Due(now) {
			continue
		}
		due = append(due, Due{Question: q, DueAt: rec.DueAt()})
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].DueAt.Before(due[j].DueAt)
	})
	return due, nil
}

// Questions strips DueNow results down to the questions.
func Questions(due []Due) []models.Question {
	out := make([]models.Question, len(due))
	for i, d := range due {
		out[i] = d.Question
	}
	return out
}

func isCorrupt(err error) bool {
	return errors.Is(err, storage.ErrCorrupt)
}
