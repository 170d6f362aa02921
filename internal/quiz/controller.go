package quiz

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/smartstudy/backend/internal/gamification"
	"github.com/smartstudy/backend/internal/models"
)

// OutcomeStore records per-question results.
type OutcomeStore interface {
	Pool
	RecordOutcome(ctx context.Context, id string, correct bool) (models.Question, error)
	AddMissed(ctx context.Context, id string) error
	RemoveMissed(ctx context.Context, id string) error
	Loaded() bool
}

type ReviewTracker interface {
	DueLister
	OnMissed(ctx context.Context, id string, now time.Time) error
	OnCorrect(ctx context.Context, id string) error
}

type Rewards interface {
	CheckNewlyEarned(ctx context.Context, state models.BadgeState) ([]models.Badge, error)
	RecordResult(ctx context.Context, streak, total, score int, at time.Time) (models.QuizResultRecord, error)
}

// Controller owns the single active session and applies the side effects
// of every answer: stats, missed list, review records, badges and history.
type Controller struct {
	selector *Selector
	store    OutcomeStore
	reviews  ReviewTracker
	rewards  Rewards
	now      func() time.Time

	mu         sync.Mutex
	session    *Session
	lastStreak int
}

func NewController(selector *Selector, store OutcomeStore, reviews ReviewTracker, rewards Rewards) *Controller {
	return &Controller{
		selector: selector,
		store:    store,
		reviews:  reviews,
		rewards:  rewards,
		now:      time.Now,
	}
}

// Start builds a quiz and replaces the active session. An empty pool
// leaves the current session alone and returns ErrEmptyQuiz. A negative
// req.Streak means the streak carried over from the previous session.
func (c *Controller) Start(ctx context.Context, req Request) (models.SessionResponse, error) {
	if !c.store.Loaded() {
		return models.SessionResponse{}, ErrNotReady
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if req.Streak < 0 {
		req.Streak = c.lastStreak
	}
	now := c.now()
	questions, err := c.selector.BuildQuiz(ctx, req, now)
	if err != nil {
		return models.SessionResponse{}, err
	}
	if len(questions) == 0 {
		return models.SessionResponse{}, ErrEmptyQuiz
	}

	c.session = NewSession(req.Mode, questions, now)
	log.Printf("[quiz] started %s quiz with %d questions", req.Mode, len(questions))
	return c.session.Response(), nil
}

func (c *Controller) Current() models.SessionResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return models.SessionResponse{State: models.SessionNotStarted}
	}
	return c.session.Response()
}

func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.lastStreak = c.session.Streak
	}
	c.session = nil
}

// Answer scores choice for the current question. questionID, when set,
// must name the current question; otherwise the answer is rejected as
// stale and nothing changes.
func (c *Controller) Answer(ctx context.Context, questionID string, choice int) (*models.AnswerResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil, ErrNoActiveSession
	}
	q, ok := c.session.CurrentQuestion()
	if !ok {
		return nil, ErrNoActiveSession
	}
	if questionID != "" && questionID != q.ID {
		return nil, ErrStaleQuestion
	}
	if q.Correct < 0 || q.Correct >= len(q.Answers) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuestion, q.ID)
	}

	before := *c.session
	ans, err := c.session.Answer(choice)
	if err != nil {
		return nil, err
	}

	if _, err := c.store.RecordOutcome(ctx, q.ID, ans.Correct); err != nil {
		*c.session = before
		return nil, fmt.Errorf("record outcome: %w", err)
	}

	now := c.now()
	c.applyReview(ctx, q.ID, ans.Correct, now)

	resp := &models.AnswerResponse{
		Correct:       ans.Correct,
		CorrectIndex:  q.Correct,
		CorrectAnswer: q.Answers[q.Correct],
		Explanation:   q.Explanation,
	}

	badges, err := c.rewards.CheckNewlyEarned(ctx, c.session.BadgeState())
	if err != nil {
		log.Printf("[quiz] badge check failed: %v", err)
	}
	resp.NewBadges = badges
	c.lastStreak = c.session.Streak

	if ans.Completed {
		resp.Summary = c.complete(ctx, now)
	}
	resp.Session = c.session.Response()
	return resp, nil
}

func (c *Controller) applyReview(ctx context.Context, id string, correct bool, now time.Time) {
	if correct {
		if err := c.reviews.OnCorrect(ctx, id); err != nil {
			log.Printf("[quiz] failed to clear review for %s: %v", id, err)
		}
		if err := c.store.RemoveMissed(ctx, id); err != nil {
			log.Printf("[quiz] failed to update missed list: %v", err)
		}
		return
	}
	if err := c.reviews.OnMissed(ctx, id, now); err != nil {
		log.Printf("[quiz] failed to schedule review for %s: %v", id, err)
	}
	if err := c.store.AddMissed(ctx, id); err != nil {
		log.Printf("[quiz] failed to update missed list: %v", err)
	}
}

func (c *Controller) complete(ctx context.Context, now time.Time) *models.QuizSummary {
	s := c.session
	total := len(s.Questions)

	rec, err := c.rewards.RecordResult(ctx, s.BestStreak, total, s.Correct, now)
	if err != nil {
		log.Printf("[quiz] failed to save quiz result: %v", err)
	}

	summary := &models.QuizSummary{
		Result:  rec,
		Percent: gamification.Percent(s.Correct, total),
	}

	if due, err := c.reviews.DueNow(ctx, c.store.All(), now); err == nil {
		summary.DueReviews = len(due)
	} else {
		log.Printf("[quiz] failed to count due reviews: %v", err)
	}
	if smart, err := c.selector.BuildQuiz(ctx, Request{Mode: models.ModeSmartReview}, now); err == nil {
		summary.SmartReviewReady = len(smart)
	}

	log.Printf("[quiz] completed %s quiz: %d/%d, best streak %d", s.Mode, s.Correct, total, s.BestStreak)
	return summary
}
