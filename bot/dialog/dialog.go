// Package dialog tracks in-memory multi-step admin dialogues. Each
// user has at most one pending dialogue; its expected input is encoded
// in a typed Kind instead of free-form temp data, so handlers switch on
// the kind and read exactly the fields that kind carries.
package dialog

import (
	"context"
	"sync"

	"log/slog"

	"gatebot/core/logger"
)

// Kind enumerates what input a pending dialogue is waiting for.
type Kind int

const (
	// KindNone marks the absence of a dialogue.
	KindNone Kind = iota
	// KindStepSetup awaits a "STEP|JOIN_LINK|SHARE_LINK" line.
	KindStepSetup
	// KindResetStep awaits the number of the step to reset.
	KindResetStep
	// KindAwaitVideo awaits a video upload.
	KindAwaitVideo
	// KindAwaitVideoStep awaits the step number to attach a received video to.
	KindAwaitVideoStep
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindStepSetup:
		return "step_setup"
	case KindResetStep:
		return "reset_step"
	case KindAwaitVideo:
		return "await_video"
	case KindAwaitVideoStep:
		return "await_video_step"
	default:
		return "unknown"
	}
}

// Pending is the state of one in-flight dialogue. MediaRef and Caption
// are only meaningful for KindAwaitVideoStep, where they carry the
// video received in the previous turn.
type Pending struct {
	Kind     Kind
	MediaRef string
	Caption  string
}

// Manager stores pending dialogues keyed by user ID. Zero value is not
// usable; construct with NewManager.
type Manager struct {
	mu      sync.RWMutex
	pending map[int64]Pending
}

// NewManager constructs an empty dialogue manager.
func NewManager() *Manager {
	return &Manager{pending: make(map[int64]Pending)}
}

// Begin starts (or replaces) a dialogue for the user.
func (m *Manager) Begin(userID int64, p Pending) {
	m.mu.Lock()
	m.pending[userID] = p
	m.mu.Unlock()
	logger.Debug(context.Background(), "service.dialog", "dialog.begin",
		slog.Int64("user_id", userID),
		slog.String("kind", p.Kind.String()),
	)
}

// Get returns the user's pending dialogue, if any.
func (m *Manager) Get(userID int64) (Pending, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pending[userID]
	return p, ok
}

// Clear ends the user's dialogue.
func (m *Manager) Clear(userID int64) {
	m.mu.Lock()
	_, had := m.pending[userID]
	delete(m.pending, userID)
	m.mu.Unlock()
	if had {
		logger.Debug(context.Background(), "service.dialog", "dialog.clear",
			slog.Int64("user_id", userID),
		)
	}
}

// InProgress reports whether the user has an active dialogue.
func (m *Manager) InProgress(userID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pending[userID]
	return ok && p.Kind != KindNone
}

// Advance transitions the dialogue to the next kind, preserving or
// replacing the carried media reference.
func (m *Manager) Advance(ctx context.Context, userID int64, next Pending) {
	m.mu.Lock()
	prev := m.pending[userID]
	m.pending[userID] = next
	m.mu.Unlock()
	logger.Debug(ctx, "service.dialog", "dialog.advance",
		slog.Int64("user_id", userID),
		slog.String("from", prev.Kind.String()),
		slog.String("to", next.Kind.String()),
	)
}
