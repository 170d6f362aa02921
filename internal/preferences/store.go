// Package preferences keeps the client's study settings under their own
// storage keys so each can be read independently.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/smartstudy/backend/internal/models"
	"github.com/smartstudy/backend/internal/storage"
)

var ErrInvalidDifficulty = errors.New("invalid difficulty")

type Store struct {
	repo storage.Repository
}

func NewStore(repo storage.Repository) *Store {
	return &Store{repo: repo}
}

// Get assembles the stored preferences. Missing or corrupt keys fall back
// to their zero value.
func (s *Store) Get(ctx context.Context) (models.Preferences, error) {
	var p models.Preferences
	var err error

	if p.Settings, err = readKey[map[string]any](ctx, s.repo, storage.KeySettings); err != nil {
		return p, err
	}
	if p.AdaptiveMode, err = readKey[bool](ctx, s.repo, storage.KeyAdaptiveMode); err != nil {
		return p, err
	}
	if p.Difficulty, err = readKey[models.Difficulty](ctx, s.repo, storage.KeyDifficulty); err != nil {
		return p, err
	}
	if p.TimerEnabled, err = readKey[bool](ctx, s.repo, storage.KeyTimerEnabled); err != nil {
		return p, err
	}
	if p.Settings == nil {
		p.Settings = map[string]any{}
	}
	return p, nil
}

// Put replaces all four preference keys.
func (s *Store) Put(ctx context.Context, p models.Preferences) error {
	if p.Difficulty != "" && !models.ValidDifficulties[p.Difficulty] {
		return fmt.Errorf("%w: %q", ErrInvalidDifficulty, p.Difficulty)
	}
	if p.Settings == nil {
		p.Settings = map[string]any{}
	}

	if err := storage.SetJSON(ctx, s.repo, storage.KeySettings, p.Settings); err != nil {
		return err
	}
	if err := storage.SetJSON(ctx, s.repo, storage.KeyAdaptiveMode, p.AdaptiveMode); err != nil {
		return err
	}
	if p.Difficulty == "" {
		if err := s.repo.Delete(ctx, storage.KeyDifficulty); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("delete %s: %w", storage.KeyDifficulty, err)
		}
	} else if err := storage.SetJSON(ctx, s.repo, storage.KeyDifficulty, p.Difficulty); err != nil {
		return err
	}
	return storage.SetJSON(ctx, s.repo, storage.KeyTimerEnabled, p.TimerEnabled)
}

func readKey[T any](ctx context.Context, repo storage.Repository, key string) (T, error) {
	v, _, err := storage.GetJSON[T](ctx, repo, key)
	if errors.Is(err, storage.ErrCorrupt) {
		log.Printf("WARN: [preferences] ignoring corrupt %s: %v", key, err)
		var zero T
		return zero, nil
	}
	return v, err
}
