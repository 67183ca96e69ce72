package handlers

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/himera-continuity/internal/i18n"
)

// QuickHelp sends the short command list; private chats also get a link to the full menu.
func (m *Menus) QuickHelp() Handler {
	return func(c telebot.Context) error {
		t := m.translator(c)
		text := i18n.Render(t, "quick-help", m.vars())

		if !isPrivate(c) {
			return c.Send(text, telebot.ModeHTML)
		}

		markup, err := m.kb.QuickHelpMenu(t)
		if err != nil {
			return err
		}
		return c.Send(text, markup, telebot.ModeHTML)
	}
}

// Privacy sends the privacy notice with a link to the policy when one is configured.
func (m *Menus) Privacy() Handler {
	return func(c telebot.Context) error {
		t := m.translator(c)

		markup, err := m.kb.PrivacyMenu(t)
		if err != nil {
			return err
		}
		return c.Send(t.T("privacy"), markup)
	}
}

// Donate sends the donation text.
func (m *Menus) Donate() Handler {
	return func(c telebot.Context) error {
		return c.Send(m.translator(c).T("donate"), telebot.NoPreview)
	}
}

// MarkdownHelp sends the formatting cheat sheet.
func (m *Menus) MarkdownHelp() Handler {
	return func(c telebot.Context) error {
		text := i18n.Render(m.translator(c), "markdown-helper", m.vars())
		return c.Send(text, telebot.ModeHTML, telebot.NoPreview)
	}
}

// FormatHelp sends the fillings reference.
func (m *Menus) FormatHelp() Handler {
	return func(c telebot.Context) error {
		return c.Send(m.translator(c).T("filling-format-helper"), telebot.ModeHTML, telebot.NoPreview)
	}
}
