// Package access answers the single question "is this user the admin".
package access

import (
	"context"
	"log/slog"
	"strconv"

	"gatebot/core/logger"
)

// SettingAdminID is the admin_settings key holding the persisted
// administrator identifier.
const SettingAdminID = "admin_id"

// Settings reads persisted admin settings.
type Settings interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

// Checker decides admin access from the configured identity and the
// persisted admin_id override.
type Checker struct {
	staticID int64
	settings Settings
}

// NewChecker builds a checker. staticID of 0 means no compiled-in admin.
func NewChecker(staticID int64, settings Settings) *Checker {
	return &Checker{staticID: staticID, settings: settings}
}

// IsAdmin reports whether userID is the administrator. Malformed or
// unreadable stored values mean "not admin", never a failure.
func (c *Checker) IsAdmin(ctx context.Context, userID int64) bool {
	if c.staticID != 0 && userID == c.staticID {
		return true
	}
	if c.settings == nil {
		return false
	}

	value, ok, err := c.settings.Get(ctx, SettingAdminID)
	if err != nil {
		logger.Warn(ctx, "service.access", "admin.lookup_failed",
			slog.String("err", err.Error()),
		)
		return false
	}
	if !ok {
		return false
	}

	stored, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		logger.Warn(ctx, "service.access", "admin.malformed_setting",
			slog.String("value", logger.SanitizeLimit(value, 32)),
		)
		return false
	}
	return userID == stored
}
