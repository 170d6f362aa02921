package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/smartstudy/backend/internal/models"
	"github.com/smartstudy/backend/internal/quiz"
	"github.com/smartstudy/backend/internal/review"
	"github.com/smartstudy/backend/internal/storage"
)

// ChallengeRetention is how many days of daily challenge caches are kept.
const ChallengeRetention = 7

const jobTimeout = 30 * time.Second

type QuizBuilder interface {
	BuildQuiz(ctx context.Context, req quiz.Request, now time.Time) ([]models.Question, error)
}

type Bank interface {
	Loaded() bool
	All() []models.Question
}

type DueLister interface {
	DueNow(ctx context.Context, questions []models.Question, now time.Time) ([]review.Due, error)
}

type HistoryTrimmer interface {
	TrimHistory(ctx context.Context) (int, error)
}

// Scheduler runs the background maintenance jobs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	repo      storage.Repository
	bank      Bank
	builder   QuizBuilder
	reviews   DueLister
	history   HistoryTrimmer
	loc       *time.Location
	now       func() time.Time
}

func New(repo storage.Repository, bank Bank, builder QuizBuilder, reviews DueLister, history HistoryTrimmer, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		repo:      repo,
		bank:      bank,
		builder:   builder,
		reviews:   reviews,
		history:   history,
		loc:       loc,
		now:       time.Now,
	}
}

// Start registers every job and runs the scheduler in the background.
func (s *Scheduler) Start() error {
	jobs := []struct {
		name string
		add  func() (*gocron.Job, error)
	}{
		{"warm daily challenge", func() (*gocron.Job, error) {
			return s.scheduler.Every(1).Day().At("00:05").Do(s.runWarm)
		}},
		{"prune challenges", func() (*gocron.Job, error) {
			return s.scheduler.Every(1).Day().At("00:10").Do(s.runPrune)
		}},
		{"trim history", func() (*gocron.Job, error) {
			return s.scheduler.Every(1).Day().At("03:00").Do(s.runTrim)
		}},
		{"due reviews", func() (*gocron.Job, error) {
			return s.scheduler.Every(30).Minutes().Do(s.runDue)
		}},
	}
	for _, j := range jobs {
		if _, err := j.add(); err != nil {
			return fmt.Errorf("schedule %s: %w", j.name, err)
		}
	}

	s.scheduler.StartAsync()
	log.Printf("[scheduler] started %d jobs (%s)", len(jobs), s.loc)
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// ── Jobs ────────────────────────────────────────────────

// WarmDailyChallenge builds today's challenge so the first request hits
// the cache. It is a no-op until the bank has loaded.
func (s *Scheduler) WarmDailyChallenge(ctx context.Context) (int, error) {
	if !s.bank.Loaded() {
		log.Printf("[scheduler] bank not loaded, skipping daily challenge warmup")
		return 0, nil
	}
	qs, err := s.builder.BuildQuiz(ctx, quiz.Request{Mode: models.ModeDailyChallenge}, s.now())
	if err != nil {
		return 0, fmt.Errorf("warm daily challenge: %w", err)
	}
	return len(qs), nil
}

// PruneChallenges deletes challenge caches older than ChallengeRetention
// days. Keys that do not parse as a date are left alone.
func (s *Scheduler) PruneChallenges(ctx context.Context) (int, error) {
	keys, err := s.repo.Keys(ctx, storage.ChallengePrefix)
	if err != nil {
		return 0, fmt.Errorf("list challenges: %w", err)
	}

	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	cutoff := today.AddDate(0, 0, -ChallengeRetention)

	removed := 0
	for _, key := range keys {
		day, ok := storage.ParseChallengeKey(key, s.loc)
		if !ok || !day.Before(cutoff) {
			continue
		}
		if err := s.repo.Delete(ctx, key); err != nil {
			return removed, fmt.Errorf("delete %s: %w", key, err)
		}
		removed++
	}
	return removed, nil
}

func (s *Scheduler) DueReviews(ctx context.Context) (int, error) {
	due, err := s.reviews.DueNow(ctx, s.bank.All(), s.now())
	if err != nil {
		return 0, err
	}
	return len(due), nil
}

// ── gocron adapters ─────────────────────────────────────

func (s *Scheduler) runWarm() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	n, err := s.WarmDailyChallenge(ctx)
	if err != nil {
		log.Printf("WARN: [scheduler] %v", err)
		return
	}
	log.Printf("[scheduler] daily challenge ready (%d questions)", n)
}

func (s *Scheduler) runPrune() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	n, err := s.PruneChallenges(ctx)
	if err != nil {
		log.Printf("WARN: [scheduler] prune challenges: %v", err)
	}
	if n > 0 {
		log.Printf("[scheduler] pruned %d old daily challenges", n)
	}
}

func (s *Scheduler) runTrim() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	n, err := s.history.TrimHistory(ctx)
	if err != nil {
		log.Printf("WARN: [scheduler] trim history: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[scheduler] trimmed %d quiz results", n)
	}
}

func (s *Scheduler) runDue() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	n, err := s.DueReviews(ctx)
	if err != nil {
		log.Printf("WARN: [scheduler] due reviews: %v", err)
		return
	}
	log.Printf("[scheduler] %d questions due for review", n)
}
