package bot

import (
	"log/slog"

	"gatebot/core/logger"
	"gatebot/core/telegram/callbacks"
	tghelpers "gatebot/core/telegram/helpers"
	"gatebot/storage"

	tele "gopkg.in/telebot.v4"
)

// handleStart is /start: registers the user on first contact and shows
// the current step.
func (a *App) handleStart(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	rm, err := a.engine.Start(ctx, sender.ID, sender.Username)
	if err != nil {
		logger.Error(ctx, "tg", "start.failed", slog.String("err", err.Error()))
		return tghelpers.SendText(c, "Something went wrong, please try again later.")
	}
	return tghelpers.SendMD(c, rm.Text, markupFor(rm))
}

// rerender replaces the clicked step message with a fresh render of the
// user's (possibly new) current step.
func (a *App) rerender(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	rm, err := a.engine.RenderCurrent(ctx, sender.ID)
	if err != nil {
		logger.Error(ctx, "tg", "rerender.failed", slog.String("err", err.Error()))
		return nil
	}
	return tghelpers.DeleteAndSendMD(c, rm.Text, markupFor(rm))
}

// handleMarkTask processes the "I joined" / "I shared" buttons. The
// callback payload carries the step the button was rendered for, so a
// click on an outdated message is recognized as stale.
func (a *App) handleMarkTask(task storage.Task) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		step, err := callbacks.PayloadInt(c)
		if err != nil {
			return c.Respond(&tele.CallbackResponse{Text: "Malformed button data"})
		}

		out, err := a.engine.CompleteTask(ctx, sender.ID, step, task)
		if err != nil {
			logger.Error(ctx, "tg", "task.mark_failed", slog.String("err", err.Error()))
			return c.Respond(&tele.CallbackResponse{Text: "Something went wrong, try again"})
		}

		if err := c.Respond(&tele.CallbackResponse{Text: out.Ack}); err != nil {
			return err
		}
		if out.Changed {
			return a.rerender(c)
		}
		return nil
	}
}

// handleClaimReward processes the "Get Video" button: advance, deliver,
// re-render the next step.
func (a *App) handleClaimReward(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	step, err := callbacks.PayloadInt(c)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Malformed button data"})
	}

	out, err := a.engine.ClaimReward(ctx, sender.ID, step)
	if err != nil {
		logger.Error(ctx, "tg", "reward.claim_failed", slog.String("err", err.Error()))
		return c.Respond(&tele.CallbackResponse{Text: "Something went wrong, try again"})
	}

	if err := c.Respond(&tele.CallbackResponse{Text: out.Ack}); err != nil {
		return err
	}
	if out.Reward != nil {
		// State already advanced; delivery failures are retried by the
		// dispatcher and logged, never rolled back.
		if err := tghelpers.SendVideo(c, out.Reward.FileID, out.Reward.Caption); err != nil {
			logger.Error(ctx, "tg", "reward.delivery_failed",
				slog.Int("step", out.Reward.Step),
				slog.String("err", err.Error()),
			)
		}
	}
	if out.Changed {
		return a.rerender(c)
	}
	return nil
}

// handleLinkNotSet acknowledges taps on unconfigured task buttons.
func (a *App) handleLinkNotSet(c tele.Context) error {
	return c.Respond(&tele.CallbackResponse{Text: "This task is not available yet, check back later"})
}

func (a *App) handleRewardNotSet(c tele.Context) error {
	return c.Respond(&tele.CallbackResponse{Text: "The video for this step is not ready yet"})
}

func (a *App) handleProgressInfo(c tele.Context) error {
	return c.Respond(&tele.CallbackResponse{Text: "Complete both tasks to unlock the video"})
}

// handleUnknownText nudges users who type instead of tapping buttons.
func (a *App) handleUnknownText(c tele.Context) error {
	return tghelpers.SendText(c, "Use the buttons under the step message, or /start to show it again.")
}
