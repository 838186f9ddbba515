package telegram

import (
	"gatebot/core/telegram/middleware"
)

// DefaultMiddlewares builds the shared global middleware chain: panic
// recovery first, then per-update receipt logging.
func DefaultMiddlewares() []Middleware {
	return []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
	}
}
