package questions

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/smartstudy/backend/internal/models"
	"github.com/smartstudy/backend/internal/storage"
)

var (
	ErrNotFound      = errors.New("question not found")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	ErrNotLoaded     = errors.New("questions not loaded")
)

// Store is the single owner of the question bank and the per-question user
// data (bookmarks, ratings, unclear flags, missed list). Every mutator
// persists before it returns; on a persistence failure the in-memory
// change is rolled back.
type Store struct {
	repo storage.Repository

	mu        sync.RWMutex
	questions []*models.Question
	byID      map[string]*models.Question
	topics    []string
	ratings   map[string]int
	unclear   map[string]int
	missed    []string
	report    models.LoadReport
}

func NewStore(repo storage.Repository) *Store {
	return &Store{
		repo:    repo,
		byID:    make(map[string]*models.Question),
		ratings: make(map[string]int),
		unclear: make(map[string]int),
	}
}

// ── Loading ─────────────────────────────────────────────

// Init uses the cached bank when it is a non-empty array and loads fresh
// from fetcher otherwise. An empty or corrupt cache is removed first.
func (s *Store) Init(ctx context.Context, fetcher Fetcher) (models.LoadReport, error) {
	ok, err := s.LoadCached(ctx)
	if err != nil {
		return s.fail(err)
	}
	if ok {
		return s.Report(), nil
	}
	return s.loadFresh(ctx, fetcher, false)
}

// Reload discards the cache and loads fresh. Stats of questions whose id
// survives the reload are carried over. When the fetch fails the current
// bank stays installed and is written back to the cache.
func (s *Store) Reload(ctx context.Context, fetcher Fetcher) (models.LoadReport, error) {
	if err := s.repo.Delete(ctx, storage.KeyQuestions); err != nil {
		return s.fail(fmt.Errorf("invalidate cache: %w", err))
	}
	report, err := s.loadFresh(ctx, fetcher, true)
	if err != nil && s.Loaded() {
		if cerr := storage.SetJSON(ctx, s.repo, storage.KeyQuestions, s.snapshot()); cerr != nil {
			log.Printf("WARN: [questions] failed to restore cache after reload error: %v", cerr)
		}
	}
	return report, err
}

func (s *Store) loadFresh(ctx context.Context, fetcher Fetcher, keepStats bool) (models.LoadReport, error) {
	sources, skipped, err := fetcher.FetchAll(ctx)
	if err != nil {
		log.Printf("[questions] failed to load question modules: %v", err)
		return s.fail(err)
	}
	report, err := s.load(ctx, sources, keepStats)
	if err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	s.report.Skipped = append(skipped, s.report.Skipped...)
	s.report.Sources += len(skipped)
	report = s.report
	s.mu.Unlock()
	return report, nil
}

// LoadCached installs the persisted bank. It returns false, after removing
// the key, when the cache is missing, empty, corrupt or holds a record that
// would be rejected by ParseSource.
func (s *Store) LoadCached(ctx context.Context) (bool, error) {
	cached, found, err := storage.GetJSON[[]models.Question](ctx, s.repo, storage.KeyQuestions)
	switch {
	case errors.Is(err, storage.ErrCorrupt):
		log.Printf("WARN: [questions] corrupt cache, clearing and reloading: %v", err)
		if err := s.repo.Delete(ctx, storage.KeyQuestions); err != nil {
			return false, fmt.Errorf("clear corrupt cache: %w", err)
		}
		return false, nil
	case err != nil:
		return false, err
	case !found:
		return false, nil
	case len(cached) == 0:
		log.Printf("WARN: [questions] empty cache, loading fresh")
		if err := s.repo.Delete(ctx, storage.KeyQuestions); err != nil {
			return false, fmt.Errorf("clear empty cache: %w", err)
		}
		return false, nil
	}
	if err := validateCached(cached); err != nil {
		log.Printf("WARN: [questions] invalid cached bank, clearing and reloading: %v", err)
		if err := s.repo.Delete(ctx, storage.KeyQuestions); err != nil {
			return false, fmt.Errorf("clear invalid cache: %w", err)
		}
		return false, nil
	}

	if err := s.install(ctx, cached, nil); err != nil {
		return false, err
	}

	s.mu.Lock()
	s.report = models.LoadReport{Loaded: true, FromCache: true, Questions: len(s.questions)}
	s.mu.Unlock()
	log.Printf("[questions] loaded %d questions from cache", len(cached))
	return true, nil
}

// Load flattens parsed sources into the bank. A source that fails to parse
// is skipped and reported; it never aborts the load.
func (s *Store) Load(ctx context.Context, sources []RawSource) (models.LoadReport, error) {
	return s.load(ctx, sources, false)
}

func (s *Store) load(ctx context.Context, sources []RawSource, keepStats bool) (models.LoadReport, error) {
	report := models.LoadReport{Sources: len(sources)}
	seen := make(map[string]bool)
	var all []models.Question

	for _, src := range sources {
		qs, dropped, err := ParseSource(src)
		if err != nil {
			log.Printf("[questions] %s failed: %v", src.Path, err)
			report.Skipped = append(report.Skipped, models.SkippedSource{Path: src.Path, Error: err.Error()})
			continue
		}
		report.Dropped += dropped
		for _, q := range qs {
			if seen[q.ID] {
				log.Printf("WARN: [questions] duplicate id %q in %s ignored", q.ID, src.Path)
				report.Dropped++
				continue
			}
			seen[q.ID] = true
			all = append(all, q)
		}
		log.Printf("[questions] loaded %s (%d)", src.Path, len(qs))
	}

	var previous map[string]models.QuestionStats
	if keepStats {
		previous = s.statsByID()
	}

	if err := s.install(ctx, all, previous); err != nil {
		return report, err
	}
	if err := storage.SetJSON(ctx, s.repo, storage.KeyQuestions, s.snapshot()); err != nil {
		return report, fmt.Errorf("cache questions: %w", err)
	}

	report.Loaded = true
	report.Questions = len(all)
	s.mu.Lock()
	s.report = report
	s.mu.Unlock()
	log.Printf("[questions] final question count: %d (%d sources skipped)", len(all), len(report.Skipped))
	return report, nil
}

// install replaces the in-memory bank, resets answered flags and reapplies
// persisted user data.
func (s *Store) install(ctx context.Context, qs []models.Question, carry map[string]models.QuestionStats) error {
	bookmarks, _, err := storage.GetJSON[[]string](ctx, s.repo, storage.KeyBookmarks)
	if err != nil && !errors.Is(err, storage.ErrCorrupt) {
		return err
	}
	ratings, _, err := storage.GetJSON[map[string]int](ctx, s.repo, storage.KeyRatings)
	if err != nil && !errors.Is(err, storage.ErrCorrupt) {
		return err
	}
	unclear, _, err := storage.GetJSON[map[string]int](ctx, s.repo, storage.KeyUnclearFlags)
	if err != nil && !errors.Is(err, storage.ErrCorrupt) {
		return err
	}
	missed, _, err := storage.GetJSON[[]string](ctx, s.repo, storage.KeyMissed)
	if err != nil && !errors.Is(err, storage.ErrCorrupt) {
		return err
	}

	bookmarked := make(map[string]bool, len(bookmarks))
	for _, id := range bookmarks {
		bookmarked[id] = true
	}

	questions := make([]*models.Question, 0, len(qs))
	byID := make(map[string]*models.Question, len(qs))
	var topics []string
	topicSeen := make(map[string]bool)
	for i := range qs {
		q := qs[i].Clone()
		q.Answered = false
		q.Bookmarked = bookmarked[q.ID]
		if st, ok := carry[q.ID]; ok {
			q.Stats = st
		}
		questions = append(questions, &q)
		byID[q.ID] = &q
		if q.Topic != "" && !topicSeen[q.Topic] {
			topicSeen[q.Topic] = true
			topics = append(topics, q.Topic)
		}
	}

	if ratings == nil {
		ratings = make(map[string]int)
	}
	if unclear == nil {
		unclear = make(map[string]int)
	}

	s.mu.Lock()
	s.questions = questions
	s.byID = byID
	s.topics = topics
	s.ratings = ratings
	s.unclear = unclear
	s.missed = missed
	s.mu.Unlock()
	return nil
}

func validateCached(qs []models.Question) error {
	seen := make(map[string]bool, len(qs))
	for i, q := range qs {
		if err := ValidateQuestion(q); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if seen[q.ID] {
			return fmt.Errorf("record %d: duplicate id %q", i, q.ID)
		}
		seen[q.ID] = true
	}
	return nil
}

func (s *Store) fail(err error) (models.LoadReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.report.Loaded {
		s.report = models.LoadReport{Error: err.Error()}
	}
	return s.report, err
}

// ── Reads ───────────────────────────────────────────────

func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report.Loaded
}

func (s *Store) Report() models.LoadReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := s.report
	r.Skipped = slices.Clone(r.Skipped)
	return r
}

// All returns copies of every question in load order.
func (s *Store) All() []models.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) Get(id string) (models.Question, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.byID[id]
	if !ok {
		return models.Question{}, false
	}
	return q.Clone(), true
}

// Topics lists distinct topics in first-appearance order.
func (s *Store) Topics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.topics)
}

func (s *Store) Ratings() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCounts(s.ratings)
}

func (s *Store) UnclearFlags() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCounts(s.unclear)
}

func (s *Store) MissedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.missed)
}

// ── Mutations ───────────────────────────────────────────

// RecordOutcome adds one correct or incorrect result to the question's
// stats and marks it answered for this load.
func (s *Store) RecordOutcome(ctx context.Context, id string, correct bool) (models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.byID[id]
	if !ok {
		return models.Question{}, ErrNotFound
	}
	prevStats, prevAnswered := q.Stats, q.Answered
	if correct {
		q.Stats.Correct++
	} else {
		q.Stats.Incorrect++
	}
	q.Answered = true

	if err := s.persistQuestionsLocked(ctx); err != nil {
		q.Stats, q.Answered = prevStats, prevAnswered
		return models.Question{}, err
	}
	return q.Clone(), nil
}

// ToggleBookmark flips the bookmark and returns the new state.
func (s *Store) ToggleBookmark(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.byID[id]
	if !ok {
		return false, ErrNotFound
	}
	q.Bookmarked = !q.Bookmarked

	var ids []string
	for _, item := range s.questions {
		if item.Bookmarked {
			ids = append(ids, item.ID)
		}
	}
	if ids == nil {
		ids = []string{}
	}

	if err := storage.SetJSON(ctx, s.repo, storage.KeyBookmarks, ids); err != nil {
		q.Bookmarked = !q.Bookmarked
		return false, fmt.Errorf("persist bookmarks: %w", err)
	}
	if err := s.persistQuestionsLocked(ctx); err != nil {
		log.Printf("WARN: [questions] bookmark saved but cache not refreshed: %v", err)
	}
	return q.Bookmarked, nil
}

func (s *Store) Rate(ctx context.Context, id string, rating int) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	prev, had := s.ratings[id]
	s.ratings[id] = rating
	if err := storage.SetJSON(ctx, s.repo, storage.KeyRatings, s.ratings); err != nil {
		if had {
			s.ratings[id] = prev
		} else {
			delete(s.ratings, id)
		}
		return fmt.Errorf("persist ratings: %w", err)
	}
	return nil
}

// FlagUnclear increments the question's unclear count and returns it.
func (s *Store) FlagUnclear(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return 0, ErrNotFound
	}
	s.unclear[id]++
	if err := storage.SetJSON(ctx, s.repo, storage.KeyUnclearFlags, s.unclear); err != nil {
		s.unclear[id]--
		if s.unclear[id] == 0 {
			delete(s.unclear, id)
		}
		return 0, fmt.Errorf("persist unclear flags: %w", err)
	}
	return s.unclear[id], nil
}

// AddMissed appends id to the missed list if it is not already there.
func (s *Store) AddMissed(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.missed, id) {
		return nil
	}
	next := append(slices.Clone(s.missed), id)
	if err := storage.SetJSON(ctx, s.repo, storage.KeyMissed, next); err != nil {
		return fmt.Errorf("persist missed: %w", err)
	}
	s.missed = next
	return nil
}

func (s *Store) RemoveMissed(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.missed, id)
	if i < 0 {
		return nil
	}
	next := slices.Delete(slices.Clone(s.missed), i, i+1)
	if err := storage.SetJSON(ctx, s.repo, storage.KeyMissed, next); err != nil {
		return fmt.Errorf("persist missed: %w", err)
	}
	s.missed = next
	return nil
}

// ── Helpers ─────────────────────────────────────────────

func (s *Store) persistQuestionsLocked(ctx context.Context) error {
	if err := storage.SetJSON(ctx, s.repo, storage.KeyQuestions, s.snapshotLocked()); err != nil {
		return fmt.Errorf("persist questions: %w", err)
	}
	return nil
}

func (s *Store) snapshot() []models.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() []models.Question {
	out := make([]models.Question, len(s.questions))
	for i, q := range s.questions {
		out[i] = q.Clone()
	}
	return out
}

func (s *Store) statsByID() map[string]models.QuestionStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.QuestionStats, len(s.questions))
	for _, q := range s.questions {
		out[q.ID] = q.Stats
	}
	return out
}

func cloneCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
