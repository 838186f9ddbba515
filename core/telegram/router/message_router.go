package router

import (
	"context"
	"time"

	tg "gatebot/core/telegram"
	"gatebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Dialog is the minimal interface for a multi-step dialogue manager.
// Text and video updates are handed to it whenever the sender has a
// dialogue in progress.
type Dialog interface {
	InProgress(userID int64) bool
	HandleMessage(c tele.Context) error
}

// TextOptions controls fallback behaviour for text/video updates and
// the admin gate for bare-word command dispatch.
type TextOptions struct {
	IsAdmin       func(ctx context.Context, userID int64) bool
	OnAdminReject tele.HandlerFunc

	UnknownText  tele.HandlerFunc
	UnknownVideo tele.HandlerFunc
}

// TextRoutes builds handlers routing plain text and video messages:
// active dialogues first, then bare command lookups, then fallbacks.
func TextRoutes(dialogs Dialog, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if dialogs != nil && dialogs.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "dialog", start, func() error {
				return dialogs.HandleMessage(c)
			})
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				h := cmd.Handler
				if cmd.AdminOnly {
					// Bare-word dispatch bypasses the per-command
					// routes, so the admin gate is applied here too.
					// No configured check means no access.
					adminOpts := middleware.AdminOptions{
						IsAdmin:  opts.IsAdmin,
						OnReject: opts.OnAdminReject,
					}
					if adminOpts.IsAdmin == nil {
						adminOpts.IsAdmin = func(context.Context, int64) bool { return false }
					}
					h = middleware.AdminOnlyMiddleware(adminOpts)(h)
				}
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, func() error {
					return h(c)
				})
			}
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", nil)
		return nil
	}

	videoHandler := func(c tele.Context) error {
		start := time.Now()
		if dialogs != nil && dialogs.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "dialog_video", start, func() error {
				return dialogs.HandleMessage(c)
			})
		}
		if opts.UnknownVideo != nil {
			return handleWithSummary(c, "unexpected_video", start, func() error {
				return opts.UnknownVideo(c)
			})
		}
		logHandlerSummary(c, "unexpected_video", start, "skip", nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
		{
			Endpoint: tele.OnVideo,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(videoHandler)),
		},
	}
}
