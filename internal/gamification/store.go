package gamification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"

	"github.com/smartstudy/backend/internal/models"
	"github.com/smartstudy/backend/internal/storage"
)

type Store struct {
	repo storage.Repository
}

func NewStore(repo storage.Repository) *Store {
	return &Store{repo: repo}
}

// ── Earned Badges ───────────────────────────────────────

// PruneEarned drops ids that are no longer in the catalog and returns the
// surviving list in earn order.
func (s *Store) PruneEarned(ctx context.Context) ([]string, error) {
	var kept []string
	_, err := storage.UpdateJSON(ctx, s.repo, storage.KeyEarnedBadges, func(ids *[]string) error {
		kept = slices.DeleteFunc(slices.Clone(*ids), func(id string) bool {
			if !KnownBadge(id) {
				log.Printf("[gamification] pruning unknown badge %q", id)
				return true
			}
			return false
		})
		kept = dedupe(kept)
		*ids = kept
		if *ids == nil {
			*ids = []string{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("prune earned badges: %w", err)
	}
	return kept, nil
}

func (s *Store) EarnedIDs(ctx context.Context) ([]string, error) {
	ids, _, err := storage.GetJSON[[]string](ctx, s.repo, storage.KeyEarnedBadges)
	if errors.Is(err, storage.ErrCorrupt) {
		log.Printf("WARN: [gamification] corrupt earned badges, starting over: %v", err)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get earned badges: %w", err)
	}
	return ids, nil
}

// AppendEarned adds ids not already present. It returns the ids that were
// actually added, so concurrent evaluators never double report.
func (s *Store) AppendEarned(ctx context.Context, ids []string) ([]string, error) {
	var added []string
	_, err := storage.UpdateJSON(ctx, s.repo, storage.KeyEarnedBadges, func(cur *[]string) error {
		added = nil
		for _, id := range ids {
			if !slices.Contains(*cur, id) {
				*cur = append(*cur, id)
				added = append(added, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("append earned badges: %w", err)
	}
	return added, nil
}

// ── Quiz History ────────────────────────────────────────

// AppendResult adds rec and trims the log to the newest limit entries.
func (s *Store) AppendResult(ctx context.Context, rec models.QuizResultRecord, limit int) error {
	_, err := storage.UpdateJSON(ctx, s.repo, storage.KeyQuizResults, func(results *[]models.QuizResultRecord) error {
		*results = trimOldest(append(*results, rec), limit)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append quiz result: %w", err)
	}
	return nil
}

// TrimResults applies limit to the stored log and returns how many entries
// were dropped.
func (s *Store) TrimResults(ctx context.Context, limit int) (int, error) {
	dropped := 0
	_, err := storage.UpdateJSON(ctx, s.repo, storage.KeyQuizResults, func(results *[]models.QuizResultRecord) error {
		before := len(*results)
		*results = trimOldest(*results, limit)
		dropped = before - len(*results)
		if *results == nil {
			*results = []models.QuizResultRecord{}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("trim quiz results: %w", err)
	}
	return dropped, nil
}

func (s *Store) Results(ctx context.Context) ([]models.QuizResultRecord, error) {
	results, _, err := storage.GetJSON[[]models.QuizResultRecord](ctx, s.repo, storage.KeyQuizResults)
	if errors.Is(err, storage.ErrCorrupt) {
		log.Printf("WARN: [gamification] corrupt quiz history ignored: %v", err)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz results: %w", err)
	}
	return results, nil
}

func trimOldest(results []models.QuizResultRecord, limit int) []models.QuizResultRecord {
	if limit <= 0 || len(results) <= limit {
		return results
	}
	return slices.Clone(results[len(results)-limit:])
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
