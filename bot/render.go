// Package bot binds the decision engine to Telegram: command and
// callback handlers, the admin panel, and multi-step admin dialogues.
package bot

import (
	"gatebot/core/telegram/keyboard"
	"gatebot/engine"

	tele "gopkg.in/telebot.v4"
)

// markupFor converts a render model's actions into an inline keyboard,
// one button per row.
func markupFor(rm engine.RenderModel) *tele.ReplyMarkup {
	buttons := make([]keyboard.InlineBtn, 0, len(rm.Actions))
	for _, a := range rm.Actions {
		btn := keyboard.InlineBtn{Text: a.Label}
		if a.Kind == engine.ActionLink {
			btn.URL = a.URL
		} else {
			btn.Unique = a.Unique
			btn.Data = a.Data
		}
		buttons = append(buttons, btn)
	}
	return keyboard.InlineButtons(buttons)
}
