package handlers

import (
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/himera-continuity/internal/bot/keyboard"
	"github.com/Proton-105/himera-continuity/internal/i18n"
)

// Menus serves the start and help commands and the help callback routes.
type Menus struct {
	kb      *keyboard.Builder
	locales *i18n.Manager
	log     *slog.Logger
	botName string
}

// NewMenus builds the menu handlers.
func NewMenus(kb *keyboard.Builder, locales *i18n.Manager, log *slog.Logger) *Menus {
	if log == nil {
		log = slog.Default()
	}

	return &Menus{kb: kb, locales: locales, log: log}
}

// SetBotName sets the display name rendered into menu texts. Call it before
// the bot starts polling.
func (m *Menus) SetBotName(name string) {
	m.botName = name
}

// Start handles /start. In private chats an optional payload of "help" or
// "help_<topic>" opens the help menu or a topic directly.
func (m *Menus) Start() Handler {
	return func(c telebot.Context) error {
		t := m.translator(c)

		if !isPrivate(c) {
			return c.Send(t.T("start-chat"))
		}

		switch payload := commandPayload(c); {
		case payload == "help":
			return m.sendHelpMenu(c, t)
		case strings.HasPrefix(payload, keyboard.RoutePrefix):
			topic := strings.TrimPrefix(payload, keyboard.RoutePrefix)
			if m.kb.HasTopic(topic) {
				return m.sendTopic(c, t, strings.ToLower(topic))
			}
			m.log.Debug("unknown help topic in start payload", slog.String("topic", topic))
		}

		markup, err := m.kb.StartMenu(t)
		if err != nil {
			return err
		}

		return c.Send(i18n.Render(t, "start-pm", m.vars()), markup, telebot.ModeHTML, telebot.NoPreview)
	}
}

func (m *Menus) translator(c telebot.Context) i18n.Translator {
	lang := ""
	if c != nil && c.Sender() != nil {
		lang = c.Sender().LanguageCode
	}
	return m.locales.Translator(lang)
}

func (m *Menus) vars() map[string]string {
	return map[string]string{"BotName": m.botName}
}

func isPrivate(c telebot.Context) bool {
	chat := c.Chat()
	return chat != nil && chat.Type == telebot.ChatPrivate
}

func commandPayload(c telebot.Context) string {
	msg := c.Message()
	if msg == nil {
		return ""
	}
	return strings.TrimSpace(msg.Payload)
}
