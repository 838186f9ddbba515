package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// UserStore persists users. Mutations that guard progression invariants
// are expressed as conditional UPDATEs so concurrent duplicates lose
// cleanly instead of corrupting state.
type UserStore struct {
	db *sqlx.DB
}

// NewUserStore returns a store bound to the given connection pool.
func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

// GetOrCreate returns the user, creating the row on first contact.
// The upsert resolves duplicate-key races to "fetch existing" and
// refreshes username and last_active_at in the same round trip.
func (s *UserStore) GetOrCreate(ctx context.Context, id int64, username string) (*User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var u User
	err := s.db.GetContext(ctx, &u, `
		INSERT INTO users (user_id, username)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    last_active_at = now()
		RETURNING *`,
		id, username,
	)
	if err != nil {
		return nil, wrapErr("get or create user", err)
	}
	return &u, nil
}

// Get returns the user or nil when absent.
func (s *UserStore) Get(ctx context.Context, id int64) (*User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var u User
	err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE user_id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get user", err)
	}
	return &u, nil
}

// MarkTaskDone sets the task flag only while the user is still on the
// given step. Returns false when the signal is stale (step already
// advanced) or the user is unknown; that outcome mutates nothing.
func (s *UserStore) MarkTaskDone(ctx context.Context, id int64, step int, task Task) (bool, error) {
	var column string
	switch task {
	case TaskJoin:
		column = "join_completed"
	case TaskShare:
		column = "share_completed"
	default:
		return false, errors.New("storage: unknown task")
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET `+column+` = TRUE,
		    last_active_at = now()
		WHERE user_id = $1 AND current_step = $2`,
		id, step,
	)
	if err != nil {
		return false, wrapErr("mark task done", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr("mark task done", err)
	}
	return n == 1, nil
}

// AdvanceFromStep commits the step transition: both flags must still be
// set and the user must still be on the given step at commit time. The
// WHERE clause re-checks the preconditions atomically, so of N
// concurrent duplicates exactly one advances and the rest see false.
func (s *UserStore) AdvanceFromStep(ctx context.Context, id int64, step int) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET current_step = current_step + 1,
		    join_completed = FALSE,
		    share_completed = FALSE,
		    last_reward_step = $2,
		    last_active_at = now()
		WHERE user_id = $1
		  AND current_step = $2
		  AND join_completed
		  AND share_completed`,
		id, step,
	)
	if err != nil {
		return false, wrapErr("advance user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr("advance user", err)
	}
	return n == 1, nil
}

// Recent lists the most recently active users for the admin view.
func (s *UserStore) Recent(ctx context.Context, limit int) ([]User, error) {
	if limit <= 0 {
		limit = 50
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var users []User
	err := s.db.SelectContext(ctx, &users, `
		SELECT * FROM users
		ORDER BY last_active_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, wrapErr("list recent users", err)
	}
	return users, nil
}

// Stats aggregates user and step counters for the admin statistics view.
func (s *UserStore) Stats(ctx context.Context, activeSince time.Time) (*UserStats, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var st UserStats
	err := s.db.GetContext(ctx, &st, `
		SELECT
			(SELECT COUNT(*) FROM users)                                        AS total_users,
			(SELECT COUNT(*) FROM users WHERE last_active_at > $1)              AS active_users,
			(SELECT COUNT(*) FROM step_configs)                                 AS configured_steps,
			(SELECT COUNT(*) FROM step_configs WHERE reward_file_id <> '')      AS rewards_set`,
		activeSince,
	)
	if err != nil {
		return nil, wrapErr("user stats", err)
	}
	return &st, nil
}

// CountByStep breaks users down by their current step.
func (s *UserStore) CountByStep(ctx context.Context) ([]StepCount, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var counts []StepCount
	err := s.db.SelectContext(ctx, &counts, `
		SELECT current_step, COUNT(*) AS users
		FROM users
		GROUP BY current_step
		ORDER BY current_step`,
	)
	if err != nil {
		return nil, wrapErr("count users by step", err)
	}
	return counts, nil
}
