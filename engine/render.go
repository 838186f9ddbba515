// Package engine is the stateless decision layer: it maps (user state,
// step configuration, event) to state transitions and render models.
// Render models are transport-free; the bot layer turns them into
// Telegram messages and inline keyboards.
package engine

import (
	"fmt"
	"strconv"
	"strings"

	"gatebot/storage"
)

// Callback uniques shared between the engine and the transport layer.
const (
	CbMarkJoin     = "mark_join"
	CbMarkShare    = "mark_share"
	CbClaimReward  = "claim_reward"
	CbLinkNotSet   = "no_link"
	CbRewardNotSet = "no_reward"
	CbProgressInfo = "progress_info"
	CbAdminPanel   = "admin_panel"
)

// ActionKind distinguishes the two button flavours.
type ActionKind int

const (
	// ActionLink opens an external URL.
	ActionLink ActionKind = iota
	// ActionCallback fires a callback with Unique and Data.
	ActionCallback
)

// Action is one vertically stacked button of the render model.
type Action struct {
	Kind   ActionKind
	Label  string
	URL    string
	Unique string
	Data   string
}

// RenderModel describes what to display for a user's current step.
type RenderModel struct {
	Text    string
	Actions []Action
}

// taskState is the three-way render state of a single task.
type taskState int

const (
	taskCompleted taskState = iota
	taskActionable
	taskUnavailable
)

func joinState(u *storage.User, cfg *storage.StepConfig) taskState {
	switch {
	case u.JoinCompleted:
		return taskCompleted
	case cfg.HasJoinLink():
		return taskActionable
	default:
		return taskUnavailable
	}
}

func shareState(u *storage.User, cfg *storage.StepConfig) taskState {
	switch {
	case u.ShareCompleted:
		return taskCompleted
	case cfg.HasShareLink():
		return taskActionable
	default:
		return taskUnavailable
	}
}

// BuildRenderModel computes the render model for the user's current
// step. It is a pure function of its inputs: the same user and config
// always produce the same model. cfg may be nil (unconfigured step);
// both tasks then render unavailable and no reward action appears.
func BuildRenderModel(u *storage.User, cfg *storage.StepConfig, isAdmin bool) RenderModel {
	step := strconv.Itoa(u.CurrentStep)
	var actions []Action

	switch joinState(u, cfg) {
	case taskCompleted:
		actions = append(actions, Action{Kind: ActionCallback, Label: "✅ Joined", Unique: CbMarkJoin, Data: step})
	case taskActionable:
		actions = append(actions, Action{Kind: ActionLink, Label: "📣 Join Channel", URL: cfg.JoinLink})
	case taskUnavailable:
		actions = append(actions, Action{Kind: ActionCallback, Label: "📣 Join (Not Set)", Unique: CbLinkNotSet})
	}

	switch shareState(u, cfg) {
	case taskCompleted:
		actions = append(actions, Action{Kind: ActionCallback, Label: "✅ Shared", Unique: CbMarkShare, Data: step})
	case taskActionable:
		actions = append(actions, Action{Kind: ActionLink, Label: "📤 Share Link", URL: cfg.ShareLink})
	case taskUnavailable:
		actions = append(actions, Action{Kind: ActionCallback, Label: "📤 Share (Not Set)", Unique: CbLinkNotSet})
	}

	bothDone := u.JoinCompleted && u.ShareCompleted
	switch {
	case bothDone && cfg.HasReward():
		actions = append(actions, Action{Kind: ActionCallback, Label: "🎬 Get Video", Unique: CbClaimReward, Data: step})
	case bothDone:
		actions = append(actions, Action{Kind: ActionCallback, Label: "🎬 Video Not Set", Unique: CbRewardNotSet})
	case u.JoinCompleted != u.ShareCompleted:
		actions = append(actions, Action{Kind: ActionCallback, Label: "⏳ Progress (1/2 tasks done)", Unique: CbProgressInfo})
	}

	if isAdmin {
		actions = append(actions, Action{Kind: ActionCallback, Label: "🛠 Admin Panel", Unique: CbAdminPanel})
	}

	return RenderModel{
		Text:    stepText(u),
		Actions: actions,
	}
}

func stepText(u *storage.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🌟 *STEP %d* 🌟\n\n", u.CurrentStep)
	b.WriteString("📋 *Tasks to complete:*\n")
	b.WriteString("1️⃣ Join the channel via the button below\n")
	b.WriteString("2️⃣ Share the link with friends\n")
	b.WriteString("3️⃣ Claim your video once both are done\n\n")
	b.WriteString("✅ *Your progress:*\n")
	fmt.Fprintf(&b, "• Join channel: %s\n", progressMark(u.JoinCompleted))
	fmt.Fprintf(&b, "• Share link: %s\n", progressMark(u.ShareCompleted))
	b.WriteString("\nCome back and tap a task button to mark it completed.")
	return b.String()
}

func progressMark(done bool) string {
	if done {
		return "✅ Completed"
	}
	return "❌ Not completed"
}
