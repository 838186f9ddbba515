package bot

import (
	"context"
	"strconv"

	"log/slog"

	"github.com/jmoiron/sqlx"

	"gatebot/access"
	"gatebot/bot/dialog"
	coreconfig "gatebot/core/config"
	"gatebot/core/logger"
	tg "gatebot/core/telegram"
	"gatebot/core/telegram/commands"
	tghelpers "gatebot/core/telegram/helpers"
	"gatebot/core/telegram/router"
	"gatebot/engine"
	"gatebot/progress"
	"gatebot/steps"
	"gatebot/storage"

	tele "gopkg.in/telebot.v4"
)

// App assembles every layer of the bot around a database handle and a
// configuration, and exposes the Telegram run options.
type App struct {
	cfg *coreconfig.Config

	users    *storage.UserStore
	settings *storage.SettingStore

	steps   *steps.Registry
	engine  *engine.Engine
	dialogs *dialog.Manager

	registry *tg.Registry
}

// New wires stores, services, the engine, and the command/callback
// registry.
func New(cfg *coreconfig.Config, db *sqlx.DB) *App {
	users := storage.NewUserStore(db)
	settings := storage.NewSettingStore(db)
	configs := storage.NewStepConfigStore(db)

	registry := steps.NewRegistry(configs)
	tracker := progress.NewTracker(users, registry)
	checker := access.NewChecker(cfg.Telegram.AdminID, settings)

	a := &App{
		cfg:      cfg,
		users:    users,
		settings: settings,
		steps:    registry,
		engine:   engine.New(tracker, registry, checker),
		dialogs:  dialog.NewManager(),
		registry: tg.NewRegistry(),
	}
	a.registerCommands()
	a.registerCallbacks()
	return a
}

func (a *App) registerCommands() {
	a.registry.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Show your current step",
	})
	a.registry.RegisterCommand("/admin", commands.Command{
		Handler:     a.handleAdminPanel,
		Description: "Open the admin panel",
		AdminOnly:   true,
		Hidden:      true,
	})
	a.registry.RegisterCommand("/addvideo", commands.Command{
		Handler:     a.handleAddVideoCommand,
		Description: "Attach a video to a step (reply to a video)",
		AdminOnly:   true,
		Hidden:      true,
	})
}

func (a *App) registerCallbacks() {
	register := func(key string, h tele.HandlerFunc) {
		_ = a.registry.RegisterCallback(key, h)
	}

	register(engine.CbMarkJoin, a.handleMarkTask(storage.TaskJoin))
	register(engine.CbMarkShare, a.handleMarkTask(storage.TaskShare))
	register(engine.CbClaimReward, a.handleClaimReward)
	register(engine.CbLinkNotSet, a.handleLinkNotSet)
	register(engine.CbRewardNotSet, a.handleRewardNotSet)
	register(engine.CbProgressInfo, a.handleProgressInfo)
	register(engine.CbAdminPanel, a.handleAdminPanel)

	register(cbAdminSetup, a.handleAdminSetup)
	register(cbAdminSteps, a.handleAdminSteps)
	register(cbAdminUsers, a.handleAdminUsers)
	register(cbAdminStats, a.handleAdminStats)
	register(cbAdminReset, a.handleAdminReset)
	register(cbAdminAddVideo, a.handleAdminAddVideo)
	register(cbAdminCancel, a.handleAdminCancel)
}

// seedAdminID persists the configured admin id on first start so admin
// checks survive a config rollback.
func (a *App) seedAdminID(ctx context.Context) error {
	if a.cfg.Telegram.AdminID == 0 {
		return nil
	}
	_, exists, err := a.settings.Get(ctx, access.SettingAdminID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	value := strconv.FormatInt(a.cfg.Telegram.AdminID, 10)
	if err := a.settings.Set(ctx, access.SettingAdminID, value); err != nil {
		return err
	}
	logger.Info(ctx, "service.access", "admin.seeded",
		slog.Int64("admin_id", a.cfg.Telegram.AdminID),
	)
	return nil
}

// TelegramRunOptions builds the full route table and lifecycle hooks
// for the Telegram runtime.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	onAdminReject := func(c tele.Context) error {
		return tghelpers.SendText(c, "This command is for administrators.")
	}

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		IsAdmin:       a.engine.IsAdmin,
		OnAdminReject: onAdminReject,
	})
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a, a.registry, router.TextOptions{
		IsAdmin:       a.engine.IsAdmin,
		OnAdminReject: onAdminReject,
		UnknownText:   a.handleUnknownText,
	})...)

	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(),
		Routes:      routes,
		OnStart: func(ctx context.Context, _ tg.Runtime) error {
			return a.seedAdminID(ctx)
		},
	}, nil
}
