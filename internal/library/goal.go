package library

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mrlokans/readtrack/internal/entities"
	"github.com/mrlokans/readtrack/internal/errors"
)

// Goal returns the current reading goal, if one is set.
func (r *Repository) Goal() (entities.ReadingGoal, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.goal == nil {
		return entities.ReadingGoal{}, false
	}
	return *r.goal, true
}

// SetGoal validates and stores the reading goal. It is written through to
// the store immediately when the store keeps settings.
func (r *Repository) SetGoal(ctx context.Context, goal entities.ReadingGoal) error {
	if err := r.validator.Validate(goal); err != nil {
		return err
	}

	r.mu.Lock()
	g := goal
	r.goal = &g
	r.version++
	r.mu.Unlock()

	settings, ok := r.store.(SettingsStore)
	if !ok {
		return nil
	}
	data, err := json.Marshal(goal)
	if err != nil {
		return fmt.Errorf("failed to encode reading goal: %w", err)
	}
	if err := settings.SetSetting(ctx, entities.SettingKeyReadingGoal, string(data)); err != nil {
		return errors.Persistence(err, "failed to save reading goal")
	}
	return nil
}

func (r *Repository) loadGoal(ctx context.Context) error {
	settings, ok := r.store.(SettingsStore)
	if !ok {
		return nil
	}
	value, found, err := settings.GetSetting(ctx, entities.SettingKeyReadingGoal)
	if err != nil || !found {
		return err
	}

	var goal entities.ReadingGoal
	if err := json.Unmarshal([]byte(value), &goal); err != nil {
		return fmt.Errorf("failed to decode reading goal: %w", err)
	}

	r.mu.Lock()
	r.goal = &goal
	r.mu.Unlock()
	return nil
}
