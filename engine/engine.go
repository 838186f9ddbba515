package engine

import (
	"context"
	"errors"
	"fmt"

	"gatebot/access"
	"gatebot/progress"
	"gatebot/steps"
	"gatebot/storage"
)

// Outcome is the engine's answer to an inbound event: a short
// acknowledgment for the click, whether state changed (re-render
// needed), and an optional reward to deliver out of band.
type Outcome struct {
	Ack     string
	Changed bool
	Reward  *progress.Reward
}

// Engine glues the tracker, the step registry, and access control into
// the per-event decision flow. It keeps no state of its own.
type Engine struct {
	tracker *progress.Tracker
	steps   *steps.Registry
	access  *access.Checker
}

// New wires the engine.
func New(tracker *progress.Tracker, registry *steps.Registry, checker *access.Checker) *Engine {
	return &Engine{tracker: tracker, steps: registry, access: checker}
}

// Start handles the /start command: get-or-create the user and render
// the current step.
func (e *Engine) Start(ctx context.Context, userID int64, username string) (RenderModel, error) {
	u, err := e.tracker.GetOrCreate(ctx, userID, username)
	if err != nil {
		return RenderModel{}, err
	}
	return e.render(ctx, u)
}

// RenderCurrent re-renders the current step for a known user.
func (e *Engine) RenderCurrent(ctx context.Context, userID int64) (RenderModel, error) {
	u, err := e.tracker.Get(ctx, userID)
	if err != nil {
		return RenderModel{}, err
	}
	if u == nil {
		return RenderModel{}, fmt.Errorf("engine: unknown user %d", userID)
	}
	return e.render(ctx, u)
}

func (e *Engine) render(ctx context.Context, u *storage.User) (RenderModel, error) {
	cfg, err := e.steps.Get(ctx, u.CurrentStep)
	if err != nil {
		return RenderModel{}, err
	}
	return BuildRenderModel(u, cfg, e.access.IsAdmin(ctx, u.ID)), nil
}

// CompleteTask handles a self-reported task completion for a step.
// Stale signals (the user already advanced past the step) acknowledge
// without mutating anything.
func (e *Engine) CompleteTask(ctx context.Context, userID int64, step int, task storage.Task) (Outcome, error) {
	var (
		applied bool
		err     error
	)
	switch task {
	case storage.TaskJoin:
		applied, err = e.tracker.MarkJoinCompleted(ctx, userID, step)
	case storage.TaskShare:
		applied, err = e.tracker.MarkShareCompleted(ctx, userID, step)
	default:
		return Outcome{}, fmt.Errorf("engine: unknown task %q", task)
	}
	if err != nil {
		return Outcome{}, err
	}

	if !applied {
		return Outcome{Ack: "This step is already behind you"}, nil
	}
	ack := "✅ Join marked as completed!"
	if task == storage.TaskShare {
		ack = "✅ Share marked as completed!"
	}
	return Outcome{Ack: ack, Changed: true}, nil
}

// ClaimReward handles a reward request for a step. On success the
// caller must deliver the reward and then re-render the (new) current
// step. Expected refusals come back as acknowledgments, not errors.
func (e *Engine) ClaimReward(ctx context.Context, userID int64, step int) (Outcome, error) {
	reward, err := e.tracker.TryAdvanceAndIssueReward(ctx, userID, step)
	switch {
	case errors.Is(err, progress.ErrTaskIncomplete):
		return Outcome{Ack: "❌ Complete both tasks first!"}, nil
	case errors.Is(err, progress.ErrRewardNotConfigured):
		return Outcome{Ack: "❌ No video configured for this step"}, nil
	case err != nil:
		return Outcome{}, err
	}

	return Outcome{
		Ack:     "✅ Video sent! Moving to next step...",
		Changed: true,
		Reward:  reward,
	}, nil
}

// IsAdmin exposes the access decision to the transport layer.
func (e *Engine) IsAdmin(ctx context.Context, userID int64) bool {
	return e.access.IsAdmin(ctx, userID)
}
