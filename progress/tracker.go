// Package progress owns the per-user step/task state machine: task
// completion flags, step advancement, and at-most-once reward issuance.
// Every mutation is a conditional update at the storage layer, so stale
// and duplicate signals lose without corrupting state.
package progress

import (
	"context"
	"errors"
	"log/slog"

	"gatebot/core/logger"
	"gatebot/storage"
)

var (
	// ErrTaskIncomplete signals a reward claim before both tasks are
	// done, or a claim that lost a concurrent race. Expected outcome,
	// never logged as an error.
	ErrTaskIncomplete = errors.New("progress: tasks incomplete")
	// ErrRewardNotConfigured signals a claim on a step without a reward.
	ErrRewardNotConfigured = errors.New("progress: reward not configured")
)

// UserStore is the persistence surface the tracker drives.
type UserStore interface {
	GetOrCreate(ctx context.Context, id int64, username string) (*storage.User, error)
	Get(ctx context.Context, id int64) (*storage.User, error)
	MarkTaskDone(ctx context.Context, id int64, step int, task storage.Task) (bool, error)
	AdvanceFromStep(ctx context.Context, id int64, step int) (bool, error)
}

// StepGetter resolves step configuration for reward checks.
type StepGetter interface {
	Get(ctx context.Context, step int) (*storage.StepConfig, error)
}

// Reward is the deliverable released by a successful advance. Delivery
// happens out of band after the state transition commits; the tracker
// never rolls back on delivery failure.
type Reward struct {
	Step    int
	FileID  string
	Caption string
}

// Tracker applies user progression transitions.
type Tracker struct {
	users UserStore
	steps StepGetter
}

// NewTracker wires the tracker over its stores.
func NewTracker(users UserStore, steps StepGetter) *Tracker {
	return &Tracker{users: users, steps: steps}
}

// GetOrCreate returns the user, creating one on first contact with
// current_step=1 and both flags clear.
func (t *Tracker) GetOrCreate(ctx context.Context, id int64, username string) (*storage.User, error) {
	return t.users.GetOrCreate(ctx, id, username)
}

// Get returns the user or nil when unknown.
func (t *Tracker) Get(ctx context.Context, id int64) (*storage.User, error) {
	return t.users.Get(ctx, id)
}

// MarkJoinCompleted flags the join task for the given step. A stale
// signal (user already past the step) is a no-op and returns false.
func (t *Tracker) MarkJoinCompleted(ctx context.Context, id int64, step int) (bool, error) {
	return t.markTask(ctx, id, step, storage.TaskJoin)
}

// MarkShareCompleted flags the share task for the given step.
func (t *Tracker) MarkShareCompleted(ctx context.Context, id int64, step int) (bool, error) {
	return t.markTask(ctx, id, step, storage.TaskShare)
}

func (t *Tracker) markTask(ctx context.Context, id int64, step int, task storage.Task) (bool, error) {
	applied, err := t.users.MarkTaskDone(ctx, id, step, task)
	if err != nil {
		return false, err
	}
	logger.Debug(ctx, "service.progress", "task.mark",
		slog.Int64("user_id", id),
		slog.Int("step", step),
		slog.String("task", string(task)),
		slog.Bool("applied", applied),
	)
	return applied, nil
}

// TryAdvanceAndIssueReward performs the single atomic transition from
// step N to N+1. Preconditions: the user is still on the step, both
// flags are set, and the step has a reward configured. On success the
// reward is returned for out-of-band delivery, the step increments by
// one, both flags reset, and last_reward_step records the step. Losing
// concurrent duplicates observe ErrTaskIncomplete.
func (t *Tracker) TryAdvanceAndIssueReward(ctx context.Context, id int64, step int) (*Reward, error) {
	cfg, err := t.steps.Get(ctx, step)
	if err != nil {
		return nil, err
	}
	if !cfg.HasReward() {
		return nil, ErrRewardNotConfigured
	}

	advanced, err := t.users.AdvanceFromStep(ctx, id, step)
	if err != nil {
		return nil, err
	}
	if !advanced {
		return nil, ErrTaskIncomplete
	}

	logger.Info(ctx, "service.progress", "step.advance",
		slog.Int64("user_id", id),
		slog.Int("from_step", step),
		slog.Int("to_step", step+1),
	)

	return &Reward{
		Step:    step,
		FileID:  cfg.RewardFileID,
		Caption: cfg.RewardCaption,
	}, nil
}
