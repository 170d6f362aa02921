package quiz

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/smartstudy/backend/internal/mastery"
	"github.com/smartstudy/backend/internal/models"
	"github.com/smartstudy/backend/internal/quality"
	"github.com/smartstudy/backend/internal/review"
	"github.com/smartstudy/backend/internal/storage"
)

var (
	ErrUnknownMode   = errors.New("unknown quiz mode")
	ErrTopicRequired = errors.New("topic is required for byTopic quizzes")
	ErrBadLength     = errors.New("length must be a positive number or \"all\"")
)

// smartReview thresholds.
const (
	smartReviewMinIncorrect = 1
	smartReviewMaxAccuracy  = 0.7
)

// Pool is the question bank as the selector sees it.
type Pool interface {
	All() []models.Question
	Ratings() map[string]int
	UnclearFlags() map[string]int
	MissedIDs() []string
}

type DueLister interface {
	DueNow(ctx context.Context, questions []models.Question, now time.Time) ([]review.Due, error)
}

type Options struct {
	DailyChallengeSize int
	DailyWeakTopics    int
	WeakTopicCount     int
	Location           *time.Location
}

func (o Options) withDefaults() Options {
	if o.DailyChallengeSize <= 0 {
		o.DailyChallengeSize = 5
	}
	if o.DailyWeakTopics <= 0 {
		o.DailyWeakTopics = 2
	}
	if o.WeakTopicCount <= 0 {
		o.WeakTopicCount = 3
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	return o
}

// Request selects a pool. Length 0 means every candidate.
type Request struct {
	Mode   models.QuizMode
	Topic  string
	Length int
	Streak int
}

// ParseLength accepts a positive integer or "all" (also the empty string).
func ParseLength(s string) (int, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "all" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, ErrBadLength
	}
	return n, nil
}

// AdaptiveDifficulty maps the running streak to a difficulty tier.
func AdaptiveDifficulty(streak int) models.Difficulty {
	switch {
	case streak >= 10:
		return models.DifficultyHard
	case streak >= 5:
		return models.DifficultyModerate
	default:
		return models.DifficultyEasy
	}
}

// Selector builds quiz pools. Every pool starts from the quality-filtered
// bank; randomness comes from one seeded source so tests can pin it.
type Selector struct {
	pool    Pool
	reviews DueLister
	repo    storage.Repository
	opts    Options

	rngMu sync.Mutex
	rng   *rand.Rand

	dailyMu sync.Mutex
}

func NewSelector(pool Pool, reviews DueLister, repo storage.Repository, opts Options, rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{pool: pool, reviews: reviews, repo: repo, opts: opts.withDefaults(), rng: rng}
}

// BuildQuiz returns the questions for req. Fewer candidates than the
// requested length is not an error, and neither is an empty result.
func (s *Selector) BuildQuiz(ctx context.Context, req Request, now time.Time) ([]models.Question, error) {
	if !models.ValidQuizModes[req.Mode] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
	}
	if req.Length < 0 {
		return nil, ErrBadLength
	}

	all := s.pool.All()
	filtered := quality.Filter(all, s.pool.Ratings(), s.pool.UnclearFlags())

	switch req.Mode {
	case models.ModeDailyChallenge:
		quiz, err := s.dailyChallenge(ctx, all, filtered, now)
		if err != nil {
			return nil, err
		}
		return truncate(quiz, req.Length), nil
	case models.ModeBalanced:
		quiz := s.balanced(filtered, req.Length)
		s.shuffle(quiz)
		return quiz, nil
	case models.ModeWeakTopic:
		candidates := weakTopic(all, filtered, s.opts.WeakTopicCount)
		s.shuffle(candidates)
		return truncate(candidates, req.Length), nil
	}

	candidates, err := s.candidates(ctx, req, filtered, now)
	if err != nil {
		return nil, err
	}
	s.shuffle(candidates)
	return truncate(candidates, req.Length), nil
}

func (s *Selector) candidates(ctx context.Context, req Request, filtered []models.Question, now time.Time) ([]models.Question, error) {
	switch req.Mode {
	case models.ModeByTopic:
		if strings.TrimSpace(req.Topic) == "" {
			return nil, ErrTopicRequired
		}
		return where(filtered, func(q models.Question) bool { return q.Topic == req.Topic }), nil

	case models.ModeUnanswered:
		return where(filtered, func(q models.Question) bool { return !q.Answered }), nil

	case models.ModeMissed:
		missed := make(map[string]bool)
		for _, id := range s.pool.MissedIDs() {
			missed[id] = true
		}
		return where(filtered, func(q models.Question) bool { return missed[q.ID] }), nil

	case models.ModeBookmarked:
		return where(filtered, func(q models.Question) bool { return q.Bookmarked }), nil

	case models.ModeAdaptive:
		tier := AdaptiveDifficulty(req.Streak)
		return where(filtered, func(q models.Question) bool { return q.Difficulty == tier }), nil

	case models.ModeSmartReview:
		return where(filtered, NeedsSmartReview), nil

	case models.ModeReview:
		due, err := s.reviews.DueNow(ctx, filtered, now)
		if err != nil {
			return nil, fmt.Errorf("due reviews: %w", err)
		}
		return review.Questions(due), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
}

// NeedsSmartReview selects questions missed more than once or answered
// with under 70% accuracy. Never-attempted questions are excluded.
func NeedsSmartReview(q models.Question) bool {
	if q.Stats.Attempts() == 0 {
		return false
	}
	return q.Stats.Incorrect > smartReviewMinIncorrect || q.Stats.Accuracy() < smartReviewMaxAccuracy
}

// balanced deals questions round-robin from per-topic buckets, each
// shuffled, until length is reached or the buckets run dry.
func (s *Selector) balanced(filtered []models.Question, length int) []models.Question {
	var order []string
	buckets := make(map[string][]models.Question)
	for _, q := range filtered {
		if _, ok := buckets[q.Topic]; !ok {
			order = append(order, q.Topic)
		}
		buckets[q.Topic] = append(buckets[q.Topic], q)
	}
	for _, topic := range order {
		s.shuffle(buckets[topic])
	}

	limit := len(filtered)
	if length > 0 && length < limit {
		limit = length
	}
	out := make([]models.Question, 0, limit)
	for round := 0; len(out) < limit; round++ {
		for _, topic := range order {
			if len(out) == limit {
				break
			}
			if b := buckets[topic]; round < len(b) {
				out = append(out, b[round])
			}
		}
	}
	return out
}

// weakTopic keeps questions from the n weakest attempted topics.
func weakTopic(all, filtered []models.Question, n int) []models.Question {
	weak := mastery.Weakest(all, n)
	in := make(map[string]bool, len(weak))
	for _, t := range weak {
		in[t] = true
	}
	return where(filtered, func(q models.Question) bool { return in[q.Topic] })
}

// dailyChallenge returns the day's cached set, creating it on first use
// from the two weakest topics (or the whole pool when fewer topics have
// been attempted). Cached questions are refreshed from the bank in cached
// order and are not reshuffled.
func (s *Selector) dailyChallenge(ctx context.Context, all, filtered []models.Question, now time.Time) ([]models.Question, error) {
	s.dailyMu.Lock()
	defer s.dailyMu.Unlock()

	key := storage.ChallengeKey(now.In(s.opts.Location))
	cached, found, err := storage.GetJSON[[]models.Question](ctx, s.repo, key)
	switch {
	case errors.Is(err, storage.ErrCorrupt):
		log.Printf("WARN: [quiz] corrupt %s, regenerating: %v", key, err)
	case err != nil:
		return nil, fmt.Errorf("load daily challenge: %w", err)
	case found && len(cached) > 0:
		return refresh(cached, all), nil
	}

	weak := mastery.Weakest(all, s.opts.DailyWeakTopics)
	candidates := filtered
	if len(weak) > 0 {
		in := make(map[string]bool, len(weak))
		for _, t := range weak {
			in[t] = true
		}
		candidates = where(filtered, func(q models.Question) bool { return in[q.Topic] })
	}
	candidates = append([]models.Question(nil), candidates...)
	s.shuffle(candidates)
	quiz := truncate(candidates, s.opts.DailyChallengeSize)

	if len(quiz) > 0 {
		if err := storage.SetJSON(ctx, s.repo, key, quiz); err != nil {
			return nil, fmt.Errorf("save daily challenge: %w", err)
		}
		log.Printf("[quiz] daily challenge %s created with %d questions from %v", key, len(quiz), weak)
	}
	return quiz, nil
}

func (s *Selector) shuffle(qs []models.Question) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	Shuffle(s.rng, qs)
}

// Shuffle is an in-place Fisher-Yates shuffle.
func Shuffle[T any](rng *rand.Rand, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

func where(qs []models.Question, keep func(models.Question) bool) []models.Question {
	out := make([]models.Question, 0, len(qs))
	for _, q := range qs {
		if keep(q) {
			out = append(out, q)
		}
	}
	return out
}

func truncate(qs []models.Question, length int) []models.Question {
	if length > 0 && len(qs) > length {
		return qs[:length]
	}
	return qs
}

func refresh(cached, all []models.Question) []models.Question {
	byID := make(map[string]models.Question, len(all))
	for _, q := range all {
		byID[q.ID] = q
	}
	out := make([]models.Question, 0, len(cached))
	for _, c := range cached {
		if q, ok := byID[c.ID]; ok {
			out = append(out, q)
		}
	}
	return out
}
