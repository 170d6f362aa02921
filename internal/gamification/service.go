package gamification

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/smartstudy/backend/internal/models"
)

type Service struct {
	store        *Store
	historyLimit int
}

func NewService(store *Store, historyLimit int) *Service {
	return &Service{store: store, historyLimit: historyLimit}
}

// Load prunes earned badges that have left the catalog. Call once at
// startup.
func (s *Service) Load(ctx context.Context) error {
	kept, err := s.store.PruneEarned(ctx)
	if err != nil {
		return err
	}
	log.Printf("[gamification] %d badges earned", len(kept))
	return nil
}

// ── Badges ──────────────────────────────────────────────

// CheckNewlyEarned evaluates every unearned badge against state, persists
// the ones that now hold and returns them in catalog order. A badge is
// reported at most once over the lifetime of the store.
func (s *Service) CheckNewlyEarned(ctx context.Context, state models.BadgeState) ([]models.Badge, error) {
	earned, err := s.store.EarnedIDs(ctx)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(earned))
	for _, id := range earned {
		have[id] = true
	}

	candidates := CheckBadges(state, have)
	if len(candidates) == 0 {
		return nil, nil
	}

	added, err := s.store.AppendEarned(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("award badges: %w", err)
	}

	badges := make([]models.Badge, 0, len(added))
	for _, id := range added {
		badges = append(badges, Catalog[catalogIndex[id]].Badge)
	}
	return badges, nil
}

func (s *Service) Badges(ctx context.Context) (*models.BadgesResponse, error) {
	earned, err := s.store.EarnedIDs(ctx)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(earned))
	for _, id := range earned {
		have[id] = true
	}

	resp := &models.BadgesResponse{Badges: make([]models.BadgeStatus, 0, len(Catalog))}
	for _, d := range Catalog {
		resp.Badges = append(resp.Badges, models.BadgeStatus{Badge: d.Badge, Earned: have[d.ID]})
		if have[d.ID] {
			resp.Earned++
		}
	}
	return resp, nil
}

// ── History ─────────────────────────────────────────────

// RecordResult appends a completed quiz to the bounded history log.
func (s *Service) RecordResult(ctx context.Context, streak, total, score int, at time.Time) (models.QuizResultRecord, error) {
	rec := models.QuizResultRecord{Streak: streak, Total: total, Score: score, Date: at.UTC()}
	if err := s.store.AppendResult(ctx, rec, s.historyLimit); err != nil {
		return rec, err
	}
	return rec, nil
}

// History returns results newest first.
func (s *Service) History(ctx context.Context) ([]models.QuizResultRecord, error) {
	results, err := s.store.Results(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.QuizResultRecord, len(results))
	for i, r := range results {
		out[len(results)-1-i] = r
	}
	return out, nil
}

// TrimHistory enforces the history limit on whatever is stored.
func (s *Service) TrimHistory(ctx context.Context) (int, error) {
	return s.store.TrimResults(ctx, s.historyLimit)
}

// Percent rounds score/total to a whole percentage.
func Percent(score, total int) int {
	if total <= 0 {
		return 0
	}
	return (score*100 + total/2) / total
}
