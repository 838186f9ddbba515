package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"gatebot/bot/dialog"
	"gatebot/core/logger"
	tghelpers "gatebot/core/telegram/helpers"
	"gatebot/core/telegram/keyboard"
	"gatebot/steps"
	"gatebot/storage"

	tele "gopkg.in/telebot.v4"
)

// Admin panel callback keys.
const (
	cbAdminSetup    = "admin_setup"
	cbAdminSteps    = "admin_steps"
	cbAdminUsers    = "admin_users"
	cbAdminStats    = "admin_stats"
	cbAdminReset    = "admin_reset"
	cbAdminAddVideo = "admin_addvideo"
	cbAdminCancel   = "admin_cancel"
)

const (
	recentUsersLimit = 50
	activeWindow     = 7 * 24 * time.Hour
)

// requireAdmin guards handlers that are reachable without the
// admin-only command middleware. Callback invocations get a toast,
// message invocations a plain denial.
func (a *App) requireAdmin(c tele.Context) bool {
	ctx := tghelpers.BuildContext(c)
	sender := c.Sender()
	if sender != nil && a.engine.IsAdmin(ctx, sender.ID) {
		return true
	}
	if c.Callback() != nil {
		_ = c.Respond(&tele.CallbackResponse{Text: "Not allowed"})
	} else {
		_ = tghelpers.SendText(c, "Not allowed")
	}
	return false
}

// handleAdminPanel shows the admin menu. Reachable from the /admin
// command and the panel button on the step render.
func (a *App) handleAdminPanel(c tele.Context) error {
	if !a.requireAdmin(c) {
		return nil
	}
	if c.Callback() != nil {
		_ = c.Respond()
	}
	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "➕ Setup Step", Unique: cbAdminSetup},
			{Text: "🎬 Add Video", Unique: cbAdminAddVideo},
		},
		[]keyboard.InlineBtn{
			{Text: "📋 View Steps", Unique: cbAdminSteps},
			{Text: "♻️ Reset Step", Unique: cbAdminReset},
		},
		[]keyboard.InlineBtn{
			{Text: "👥 Users", Unique: cbAdminUsers},
			{Text: "📊 Statistics", Unique: cbAdminStats},
		},
	)
	return tghelpers.SendMD(c, "🛠 *Admin Panel*\n\nPick an action:", markup)
}

// handleAdminSetup starts the step setup dialogue.
func (a *App) handleAdminSetup(c tele.Context) error {
	if !a.requireAdmin(c) {
		return nil
	}
	_ = c.Respond()
	a.dialogs.Begin(c.Sender().ID, dialog.Pending{Kind: dialog.KindStepSetup})
	markup := keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "❌ Cancel", Unique: cbAdminCancel},
	})
	return tghelpers.SendMD(c,
		"Send the step configuration in one line:\n\n"+
			"`STEP|JOIN_LINK|SHARE_LINK`\n\n"+
			"Example: `1|https://t.me/mychannel|https://t.me/share/url?url=x`",
		markup)
}

// handleAdminSteps lists every configured step with what it has set.
func (a *App) handleAdminSteps(c tele.Context) error {
	if !a.requireAdmin(c) {
		return nil
	}
	_ = c.Respond()
	ctx := tghelpers.BuildContext(c)

	configs, err := a.steps.List(ctx)
	if err != nil {
		logger.Error(ctx, "tg", "admin.steps_failed", slog.String("err", err.Error()))
		return tghelpers.SendText(c, "Failed to load steps.")
	}
	if len(configs) == 0 {
		return tghelpers.SendMD(c, "📋 *Steps*\n\nNo steps configured yet.")
	}

	var b strings.Builder
	b.WriteString("📋 *Steps*\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "*Step %d*\n", cfg.StepNumber)
		fmt.Fprintf(&b, "• Join link: %s\n", setMark(cfg.HasJoinLink()))
		fmt.Fprintf(&b, "• Share link: %s\n", setMark(cfg.HasShareLink()))
		fmt.Fprintf(&b, "• Video: %s\n\n", setMark(cfg.HasReward()))
	}
	return tghelpers.SendMD(c, b.String())
}

// handleAdminUsers shows the most recently active users.
func (a *App) handleAdminUsers(c tele.Context) error {
	if !a.requireAdmin(c) {
		return nil
	}
	_ = c.Respond()
	ctx := tghelpers.BuildContext(c)

	users, err := a.users.Recent(ctx, recentUsersLimit)
	if err != nil {
		logger.Error(ctx, "tg", "admin.users_failed", slog.String("err", err.Error()))
		return tghelpers.SendText(c, "Failed to load users.")
	}
	if len(users) == 0 {
		return tghelpers.SendMD(c, "👥 *Users*\n\nNobody here yet.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👥 *Users* (last %d)\n\n", len(users))
	for _, u := range users {
		name := logger.SanitizeLimit(u.Username, 32)
		if name == "" {
			name = strconv.FormatInt(u.ID, 10)
		}
		fmt.Fprintf(&b, "• %s — step %d (%s)\n",
			name, u.CurrentStep, u.LastActiveAt.Format("2006-01-02"))
	}
	return tghelpers.SendMD(c, b.String())
}

// handleAdminStats shows aggregate counters and the users-by-step
// breakdown.
func (a *App) handleAdminStats(c tele.Context) error {
	if !a.requireAdmin(c) {
		return nil
	}
	_ = c.Respond()
	ctx := tghelpers.BuildContext(c)

	stats, err := a.users.Stats(ctx, time.Now().Add(-activeWindow))
	if err != nil {
		logger.Error(ctx, "tg", "admin.stats_failed", slog.String("err", err.Error()))
		return tghelpers.SendText(c, "Failed to load statistics.")
	}
	counts, err := a.users.CountByStep(ctx)
	if err != nil {
		logger.Error(ctx, "tg", "admin.stats_failed", slog.String("err", err.Error()))
		return tghelpers.SendText(c, "Failed to load statistics.")
	}

	var b strings.Builder
	b.WriteString("📊 *Statistics*\n\n")
	fmt.Fprintf(&b, "• Total users: %d\n", stats.TotalUsers)
	fmt.Fprintf(&b, "• Active (7 days): %d\n", stats.ActiveUsers)
	fmt.Fprintf(&b, "• Configured steps: %d\n", stats.ConfiguredSteps)
	fmt.Fprintf(&b, "• Videos set: %d\n", stats.RewardsSet)
	if len(counts) > 0 {
		b.WriteString("\n*Users per step:*\n")
		for _, sc := range counts {
			fmt.Fprintf(&b, "• Step %d: %d\n", sc.Step, sc.Users)
		}
	}
	return tghelpers.SendMD(c, b.String())
}

// handleAdminReset starts the reset dialogue.
func (a *App) handleAdminReset(c tele.Context) error {
	if !a.requireAdmin(c) {
		return nil
	}
	_ = c.Respond()
	a.dialogs.Begin(c.Sender().ID, dialog.Pending{Kind: dialog.KindResetStep})
	markup := keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "❌ Cancel", Unique: cbAdminCancel},
	})
	return tghelpers.SendMD(c, "Send the number of the step to reset. Its links and video will be removed.", markup)
}

// handleAdminAddVideo starts the video upload dialogue.
func (a *App) handleAdminAddVideo(c tele.Context) error {
	if !a.requireAdmin(c) {
		return nil
	}
	_ = c.Respond()
	a.dialogs.Begin(c.Sender().ID, dialog.Pending{Kind: dialog.KindAwaitVideo})
	markup := keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "❌ Cancel", Unique: cbAdminCancel},
	})
	return tghelpers.SendMD(c, "Send me the video for a step. Its caption is kept with it.", markup)
}

// handleAdminCancel aborts the current dialogue.
func (a *App) handleAdminCancel(c tele.Context) error {
	if !a.requireAdmin(c) {
		return nil
	}
	a.dialogs.Clear(c.Sender().ID)
	return c.Respond(&tele.CallbackResponse{Text: "Cancelled"})
}

// handleAddVideoCommand is /addvideo STEP sent as a reply to a video:
// the one-shot alternative to the upload dialogue.
func (a *App) handleAddVideoCommand(c tele.Context) error {
	if !a.requireAdmin(c) {
		return nil
	}
	ctx := tghelpers.BuildContext(c)

	msg := c.Message()
	if msg == nil || msg.ReplyTo == nil || msg.ReplyTo.Video == nil {
		return tghelpers.SendText(c, "Reply to a video with /addvideo STEP to attach it.")
	}
	args := c.Args()
	if len(args) != 1 {
		return tghelpers.SendText(c, "Usage: /addvideo STEP (as a reply to a video)")
	}
	step, err := strconv.Atoi(args[0])
	if err != nil {
		return tghelpers.SendText(c, "Step must be a number.")
	}

	video := msg.ReplyTo.Video
	if err := a.attachVideo(ctx, step, video.FileID, msg.ReplyTo.Caption); err != nil {
		return a.reportStepError(c, err)
	}
	return tghelpers.SendText(c, fmt.Sprintf("✅ Video attached to step %d", step))
}

// InProgress implements the router dialogue interface.
func (a *App) InProgress(userID int64) bool {
	return a.dialogs.InProgress(userID)
}

// HandleMessage advances the sender's pending dialogue with the new
// message. Routed here only while a dialogue is in progress.
func (a *App) HandleMessage(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	// Dialogues are only ever started by admins, but admin status may
	// have been revoked mid-dialogue.
	if !a.engine.IsAdmin(ctx, sender.ID) {
		a.dialogs.Clear(sender.ID)
		return nil
	}

	pending, ok := a.dialogs.Get(sender.ID)
	if !ok {
		return nil
	}

	switch pending.Kind {
	case dialog.KindStepSetup:
		return a.dialogStepSetup(c, ctx)
	case dialog.KindResetStep:
		return a.dialogResetStep(c, ctx)
	case dialog.KindAwaitVideo:
		return a.dialogAwaitVideo(c, ctx)
	case dialog.KindAwaitVideoStep:
		return a.dialogAwaitVideoStep(c, ctx, pending)
	default:
		a.dialogs.Clear(sender.ID)
		return nil
	}
}

// dialogStepSetup parses "STEP|JOIN_LINK|SHARE_LINK".
func (a *App) dialogStepSetup(c tele.Context, ctx context.Context) error {
	parts := strings.SplitN(strings.TrimSpace(c.Text()), "|", 3)
	if len(parts) != 3 {
		return tghelpers.SendText(c, "Format: STEP|JOIN_LINK|SHARE_LINK")
	}
	step, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return tghelpers.SendText(c, "Step must be a number. Format: STEP|JOIN_LINK|SHARE_LINK")
	}
	joinLink := strings.TrimSpace(parts[1])
	shareLink := strings.TrimSpace(parts[2])

	patch := storage.StepConfigPatch{JoinLink: &joinLink, ShareLink: &shareLink}
	if err := a.steps.Upsert(ctx, step, patch); err != nil {
		return a.reportStepError(c, err)
	}

	a.dialogs.Clear(c.Sender().ID)
	return tghelpers.SendText(c, fmt.Sprintf("✅ Step %d configured", step))
}

// dialogResetStep parses the step number and clears its configuration.
func (a *App) dialogResetStep(c tele.Context, ctx context.Context) error {
	step, err := strconv.Atoi(strings.TrimSpace(c.Text()))
	if err != nil {
		return tghelpers.SendText(c, "Send just the step number.")
	}

	existed, err := a.steps.Reset(ctx, step)
	if err != nil {
		return a.reportStepError(c, err)
	}

	a.dialogs.Clear(c.Sender().ID)
	if !existed {
		return tghelpers.SendText(c, fmt.Sprintf("Step %d had no configuration.", step))
	}
	return tghelpers.SendText(c, fmt.Sprintf("✅ Step %d reset", step))
}

// dialogAwaitVideo captures the uploaded video and asks for the step.
func (a *App) dialogAwaitVideo(c tele.Context, ctx context.Context) error {
	msg := c.Message()
	if msg == nil || msg.Video == nil {
		return tghelpers.SendText(c, "That is not a video. Send the video file, or cancel from the panel.")
	}

	a.dialogs.Advance(ctx, c.Sender().ID, dialog.Pending{
		Kind:     dialog.KindAwaitVideoStep,
		MediaRef: msg.Video.FileID,
		Caption:  msg.Caption,
	})
	return tghelpers.SendText(c, "Got it. Which step is this video for? Send the number.")
}

// dialogAwaitVideoStep attaches the previously received video.
func (a *App) dialogAwaitVideoStep(c tele.Context, ctx context.Context, pending dialog.Pending) error {
	step, err := strconv.Atoi(strings.TrimSpace(c.Text()))
	if err != nil {
		return tghelpers.SendText(c, "Send just the step number.")
	}

	if err := a.attachVideo(ctx, step, pending.MediaRef, pending.Caption); err != nil {
		return a.reportStepError(c, err)
	}

	a.dialogs.Clear(c.Sender().ID)
	return tghelpers.SendText(c, fmt.Sprintf("✅ Video attached to step %d", step))
}

func (a *App) attachVideo(ctx context.Context, step int, fileID, caption string) error {
	patch := storage.StepConfigPatch{RewardFileID: &fileID, RewardCaption: &caption}
	return a.steps.Upsert(ctx, step, patch)
}

// reportStepError turns expected validation failures into corrective
// prompts and keeps the dialogue open; unexpected errors are logged.
func (a *App) reportStepError(c tele.Context, err error) error {
	ctx := tghelpers.BuildContext(c)
	var vErr *steps.ValidationError
	switch {
	case errors.As(err, &vErr):
		return tghelpers.SendText(c, fmt.Sprintf("Invalid %s: %s. Try again.", vErr.Field, vErr.Reason))
	case errors.Is(err, steps.ErrInvalidStep):
		return tghelpers.SendText(c, "Step must be a positive number. Try again.")
	default:
		logger.Error(ctx, "tg", "admin.step_op_failed", slog.String("err", err.Error()))
		return tghelpers.SendText(c, "Something went wrong, try again.")
	}
}

func setMark(set bool) string {
	if set {
		return "✅ set"
	}
	return "— not set"
}
