package middleware

import (
	"context"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks behave. IsAdmin is
// consulted per update so runtime admin changes take effect without a
// restart.
type AdminOptions struct {
	IsAdmin  func(ctx context.Context, userID int64) bool
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware ensures that only an admin user can invoke downstream handlers.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}
			if opts.IsAdmin != nil && !opts.IsAdmin(context.Background(), sender.ID) {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
