// Package storage is the persistence layer. It owns the three durable
// entities (users, step configs, admin settings) and every conditional
// update that guards the progression invariants. No business decisions
// live here; services read current rows and ask for guarded transitions.
package storage

import (
	"strings"
	"time"
)

// Task identifies one of the two per-step completion flags.
type Task string

const (
	// TaskJoin is the "join the channel" task.
	TaskJoin Task = "join"
	// TaskShare is the "share the link" task.
	TaskShare Task = "share"
)

// User tracks a single Telegram user's progression through the steps.
// join_completed and share_completed are scoped to current_step and are
// reset whenever the step advances.
type User struct {
	ID             int64     `db:"user_id"`
	Username       string    `db:"username"`
	CurrentStep    int       `db:"current_step"`
	JoinCompleted  bool      `db:"join_completed"`
	ShareCompleted bool      `db:"share_completed"`
	LastRewardStep int       `db:"last_reward_step"`
	JoinedAt       time.Time `db:"joined_at"`
	LastActiveAt   time.Time `db:"last_active_at"`
}

// TaskDone reports whether the given task flag is set.
func (u *User) TaskDone(task Task) bool {
	if u == nil {
		return false
	}
	switch task {
	case TaskJoin:
		return u.JoinCompleted
	case TaskShare:
		return u.ShareCompleted
	}
	return false
}

// StepConfig holds the per-step links and reward. A missing row means
// the step is unconfigured; partially filled rows are legal.
type StepConfig struct {
	StepNumber    int       `db:"step_number"`
	JoinLink      string    `db:"join_link"`
	ShareLink     string    `db:"share_link"`
	RewardFileID  string    `db:"reward_file_id"`
	RewardCaption string    `db:"reward_caption"`
	CreatedAt     time.Time `db:"created_at"`
}

// HasJoinLink reports whether a usable join link is configured.
// Nil-safe so an unconfigured step renders as "not set".
func (c *StepConfig) HasJoinLink() bool {
	return c != nil && strings.HasPrefix(c.JoinLink, "http")
}

// HasShareLink reports whether a usable share link is configured.
func (c *StepConfig) HasShareLink() bool {
	return c != nil && strings.HasPrefix(c.ShareLink, "http")
}

// HasReward reports whether a reward is attached to the step.
func (c *StepConfig) HasReward() bool {
	return c != nil && c.RewardFileID != ""
}

// StepConfigPatch carries partial step configuration updates.
// Nil fields keep the stored value; non-nil fields overwrite it.
type StepConfigPatch struct {
	JoinLink      *string
	ShareLink     *string
	RewardFileID  *string
	RewardCaption *string
}

// UserStats aggregates counters for the admin statistics view.
type UserStats struct {
	TotalUsers      int `db:"total_users"`
	ActiveUsers     int `db:"active_users"`
	ConfiguredSteps int `db:"configured_steps"`
	RewardsSet      int `db:"rewards_set"`
}

// StepCount is one row of the users-by-step breakdown.
type StepCount struct {
	Step  int `db:"current_step"`
	Users int `db:"users"`
}
