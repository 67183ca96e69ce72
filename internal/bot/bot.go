package bot

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/himera-continuity/internal/bot/handlers"
	"github.com/Proton-105/himera-continuity/internal/bot/keyboard"
	errors "github.com/Proton-105/himera-continuity/internal/errors"
	"github.com/Proton-105/himera-continuity/internal/i18n"
	"github.com/Proton-105/himera-continuity/internal/middleware"
	"github.com/Proton-105/himera-continuity/pkg/config"
)

const defaultBotName = "Himera"

// Deps carries the collaborators the bot shares with the rest of the process.
type Deps struct {
	Locales    *i18n.Manager
	ErrHandler *errors.Handler
	Tracker    *UpdateTracker
}

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot    *telebot.Bot
	longPoller *telebot.LongPoller
	log        *slog.Logger
	cfg        config.Config
	router     *Router
	keyboard   *keyboard.Builder
	menus      *handlers.Menus
	errHandler *errors.Handler
	tracker    *UpdateTracker
	logChannel *LogChannel
	started    atomic.Bool
}

// New builds a telegram bot instance configured according to the application settings.
func New(cfg config.Config, log *slog.Logger, deps Deps) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}
	if deps.Locales == nil {
		return nil, fmt.Errorf("initialize bot: locales are required")
	}
	if deps.Tracker == nil {
		deps.Tracker = NewUpdateTracker()
	}
	if deps.ErrHandler == nil {
		deps.ErrHandler = errors.NewHandler(log, cfg.Sentry.Enabled)
	}

	var (
		base       telebot.Poller
		longPoller *telebot.LongPoller
	)
	if cfg.Bot.Mode == "webhook" {
		base = &telebot.Webhook{Listen: cfg.Bot.WebhookListen}
	} else {
		longPoller = &telebot.LongPoller{Timeout: cfg.Bot.Timeout}
		base = longPoller
	}

	settings := telebot.Settings{
		Token:   cfg.Bot.Token,
		Poller:  telebot.NewMiddlewarePoller(base, deps.Tracker.Filter),
		Offline: cfg.Bot.Offline,
		OnError: func(err error, c telebot.Context) {
			log.Error("telebot error", slog.Any("error", err))
		},
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	kb := keyboard.NewBuilder(log, keyboard.MenuOptions{
		Topics:        cfg.Help.Topics,
		BotUsername:   tb.Me.Username,
		StatusPageURL: cfg.Help.StatusPageURL,
		DashboardURL:  cfg.Help.DashboardURL,
		PrivacyURL:    cfg.Help.PrivacyURL,
	})

	menus := handlers.NewMenus(kb, deps.Locales, log)
	botName := tb.Me.FirstName
	if botName == "" {
		botName = defaultBotName
	}
	menus.SetBotName(botName)

	b := &Bot{
		telebot:    tb,
		longPoller: longPoller,
		log:        log,
		cfg:        cfg,
		router:     NewRouter(log),
		keyboard:   kb,
		menus:      menus,
		errHandler: deps.ErrHandler,
		tracker:    deps.Tracker,
		logChannel: NewLogChannel(tb, cfg.Bot.LogChannel, log),
	}
	b.router.SetBotUsername(tb.Me.Username)

	b.setupRouter()
	b.registerTelebotHandlers()

	return b, nil
}

// Start runs the telegram bot event loop. It blocks until Stop is called.
func (b *Bot) Start() {
	if b.telebot == nil {
		return
	}

	b.started.Store(true)
	b.telebot.Start()
}

// Stop gracefully stops the telegram bot. Stopping a bot that never started is a no-op.
func (b *Bot) Stop() {
	if b.telebot == nil || !b.started.CompareAndSwap(true, false) {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

// LongPoller returns the long poller, or nil in webhook mode.
func (b *Bot) LongPoller() *telebot.LongPoller {
	return b.longPoller
}

// LogChannel returns the status sink for the configured log channel.
func (b *Bot) LogChannel() *LogChannel {
	return b.logChannel
}

// Tracker returns the update tracker fed by the poller.
func (b *Bot) Tracker() *UpdateTracker {
	return b.tracker
}

// Router exposes the update router.
func (b *Bot) Router() *Router {
	return b.router
}

// PublishCommands replaces the bot's command menu.
func (b *Bot) PublishCommands() error {
	if err := b.telebot.SetCommands(Commands()); err != nil {
		return errors.NewTransportError("setMyCommands", err)
	}
	return nil
}

func (b *Bot) setupRouter() {
	b.router.Use(CorrelationMiddleware())
	b.router.Use(RecoveryMiddleware(b.log, b.errHandler))
	b.router.Use(ErrorHandlingMiddleware(b.errHandler))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(middleware.Metrics)

	b.router.RegisterCommand(CommandStart, b.menus.Start())
	b.router.RegisterCommand(CommandHelp, b.menus.Help())
	b.router.RegisterCommand(CommandQuickHelp, b.menus.QuickHelp())
	b.router.RegisterCommand(CommandPrivacy, b.menus.Privacy())
	b.router.RegisterCommand(CommandDonate, b.menus.Donate())
	b.router.RegisterCommand(CommandMarkdownHelp, b.menus.MarkdownHelp())
	b.router.RegisterCommand(CommandFormatHelp, b.menus.FormatHelp())
	b.router.RegisterCommand(CommandFillingHelp, b.menus.FormatHelp())

	b.router.RegisterCallback(keyboard.RoutePrefix, b.menus.HelpCallback())
}

func (b *Bot) registerTelebotHandlers() {
	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)
}
