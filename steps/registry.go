// Package steps is the typed registry over step configuration rows.
// It enforces positive step numbers and validates admin-supplied links
// before they reach storage.
package steps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"gatebot/core/logger"
	"gatebot/storage"
)

// ErrInvalidStep rejects non-positive step numbers.
var ErrInvalidStep = errors.New("steps: step number must be a positive integer")

// ValidationError reports a rejected admin input field. It is recovered
// locally: the admin is shown a corrective prompt and nothing mutates.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("steps: invalid %s: %s", e.Field, e.Reason)
}

// Store is the subset of the persistence layer the registry needs.
type Store interface {
	Get(ctx context.Context, step int) (*storage.StepConfig, error)
	Upsert(ctx context.Context, step int, patch storage.StepConfigPatch) error
	Delete(ctx context.Context, step int) (bool, error)
	List(ctx context.Context) ([]storage.StepConfig, error)
}

// Registry wraps the step config store with input validation.
type Registry struct {
	store    Store
	validate *validator.Validate
}

// NewRegistry builds a registry over the given store.
func NewRegistry(store Store) *Registry {
	return &Registry{
		store:    store,
		validate: validator.New(),
	}
}

// Get returns the configuration for a step, or nil when unconfigured.
func (r *Registry) Get(ctx context.Context, step int) (*storage.StepConfig, error) {
	if step < 1 {
		return nil, ErrInvalidStep
	}
	return r.store.Get(ctx, step)
}

// Upsert validates and merges a partial configuration into the step.
// Empty-string link fields are allowed and clear the stored link.
func (r *Registry) Upsert(ctx context.Context, step int, patch storage.StepConfigPatch) error {
	if step < 1 {
		return ErrInvalidStep
	}
	if err := r.checkLink("join link", patch.JoinLink); err != nil {
		return err
	}
	if err := r.checkLink("share link", patch.ShareLink); err != nil {
		return err
	}
	if err := r.store.Upsert(ctx, step, patch); err != nil {
		return err
	}
	logger.Info(ctx, "service.steps", "step.upsert",
		slog.Int("step", step),
		slog.Bool("join_link", patch.JoinLink != nil),
		slog.Bool("share_link", patch.ShareLink != nil),
		slog.Bool("reward", patch.RewardFileID != nil),
	)
	return nil
}

// Reset clears the whole configuration row for a step and reports
// whether anything was configured.
func (r *Registry) Reset(ctx context.Context, step int) (bool, error) {
	if step < 1 {
		return false, ErrInvalidStep
	}
	existed, err := r.store.Delete(ctx, step)
	if err != nil {
		return false, err
	}
	logger.Info(ctx, "service.steps", "step.reset",
		slog.Int("step", step),
		slog.Bool("existed", existed),
	)
	return existed, nil
}

// List returns all configured steps in order.
func (r *Registry) List(ctx context.Context) ([]storage.StepConfig, error) {
	return r.store.List(ctx)
}

func (r *Registry) checkLink(field string, link *string) error {
	if link == nil || *link == "" {
		return nil
	}
	if err := r.validate.Var(*link, "url,startswith=http"); err != nil {
		return &ValidationError{Field: field, Reason: "must be an http(s) URL"}
	}
	return nil
}
