package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// StepConfigStore persists per-step configuration rows.
type StepConfigStore struct {
	db *sqlx.DB
}

// NewStepConfigStore returns a store bound to the given connection pool.
func NewStepConfigStore(db *sqlx.DB) *StepConfigStore {
	return &StepConfigStore{db: db}
}

// Get returns the step configuration or nil when the step is unconfigured.
func (s *StepConfigStore) Get(ctx context.Context, step int) (*StepConfig, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var cfg StepConfig
	err := s.db.GetContext(ctx, &cfg, `SELECT * FROM step_configs WHERE step_number = $1`, step)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get step config", err)
	}
	return &cfg, nil
}

// Upsert merges the patch into the step row in a single statement:
// an absent row is created with empty defaults for unset fields, and on
// conflict only the non-nil patch fields overwrite stored values.
func (s *StepConfigStore) Upsert(ctx context.Context, step int, patch StepConfigPatch) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO step_configs (step_number, join_link, share_link, reward_file_id, reward_caption)
		VALUES ($1, COALESCE($2, ''), COALESCE($3, ''), COALESCE($4, ''), COALESCE($5, ''))
		ON CONFLICT (step_number) DO UPDATE
		SET join_link      = COALESCE($2, step_configs.join_link),
		    share_link     = COALESCE($3, step_configs.share_link),
		    reward_file_id = COALESCE($4, step_configs.reward_file_id),
		    reward_caption = COALESCE($5, step_configs.reward_caption)`,
		step, patch.JoinLink, patch.ShareLink, patch.RewardFileID, patch.RewardCaption,
	)
	if err != nil {
		return wrapErr("upsert step config", err)
	}
	return nil
}

// Delete removes the step row entirely and reports whether it existed.
func (s *StepConfigStore) Delete(ctx context.Context, step int) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM step_configs WHERE step_number = $1`, step)
	if err != nil {
		return false, wrapErr("delete step config", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr("delete step config", err)
	}
	return n == 1, nil
}

// List returns all configured steps ordered by step number.
func (s *StepConfigStore) List(ctx context.Context) ([]StepConfig, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var configs []StepConfig
	err := s.db.SelectContext(ctx, &configs, `SELECT * FROM step_configs ORDER BY step_number`)
	if err != nil {
		return nil, wrapErr("list step configs", err)
	}
	return configs, nil
}
