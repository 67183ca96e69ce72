package handlers

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/himera-continuity/internal/bot/keyboard"
	"github.com/Proton-105/himera-continuity/internal/continuity"
	"github.com/Proton-105/himera-continuity/internal/i18n"
)

var topicNamePattern = regexp.MustCompile(`^\w+$`)

// Help handles /help: the category menu in private chats, a link to it in groups.
func (m *Menus) Help() Handler {
	return func(c telebot.Context) error {
		t := m.translator(c)

		if !isPrivate(c) {
			markup, err := m.kb.HelpInPrivate(t)
			if err != nil {
				return err
			}
			return c.Send(t.T("help-chat"), markup)
		}

		return m.sendHelpMenu(c, t)
	}
}

// HelpCallback serves the help_ callback routes.
func (m *Menus) HelpCallback() CallbackHandler {
	return func(c telebot.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}

		t := m.translator(c)

		data, err := keyboard.ParseCallback(cb.Data)
		if err != nil {
			return c.Respond()
		}
		route, arg := data.Route, data.Arg

		switch {
		case route == keyboard.RouteBack:
			markup, err := m.kb.HelpMenu(t)
			if err != nil {
				return err
			}
			return m.edit(c, i18n.Render(t, "help-pm", m.vars()), markup)

		case route == keyboard.RouteClose:
			outcome, err := ClassifyError(c.Delete())
			if err != nil {
				return err
			}
			if outcome == continuity.OutcomeForbidden {
				return c.Respond(&telebot.CallbackResponse{Text: i18n.TextOr(t, "cant-delete", "I can't delete the message")})
			}
			return c.Respond()

		case strings.HasPrefix(route, keyboard.RouteCategoryPrefix) && strings.HasSuffix(route, ")"):
			category := strings.TrimSuffix(strings.TrimPrefix(route, keyboard.RouteCategoryPrefix), ")")
			page, convErr := strconv.Atoi(arg)
			if convErr != nil {
				page = 1
			}

			markup, err := m.kb.CategoryMenu(t, category, page)
			if err != nil {
				return err
			}
			return m.edit(c, i18n.Render(t, "category-header", map[string]string{"Category": category}), markup)

		case strings.HasPrefix(route, keyboard.RoutePluginPrefix):
			topic := strings.TrimSuffix(strings.TrimPrefix(route, keyboard.RoutePluginPrefix), ")")
			if !topicNamePattern.MatchString(topic) {
				return fmt.Errorf("unable to find topic name in callback %q", cb.Data)
			}

			markup, err := m.kb.TopicMenu(t)
			if err != nil {
				return err
			}
			return m.edit(c, m.topicText(t, topic), markup)

		default:
			m.log.Debug("unknown help route", slog.String("data", cb.Data))
			return c.Respond()
		}
	}
}

func (m *Menus) sendHelpMenu(c telebot.Context, t i18n.Translator) error {
	markup, err := m.kb.HelpMenu(t)
	if err != nil {
		return err
	}
	return c.Send(i18n.Render(t, "help-pm", m.vars()), markup, telebot.ModeHTML)
}

func (m *Menus) sendTopic(c telebot.Context, t i18n.Translator, topic string) error {
	markup, err := m.kb.TopicMenu(t)
	if err != nil {
		return err
	}
	return c.Send(m.topicText(t, topic), markup, telebot.ModeHTML, telebot.NoPreview)
}

func (m *Menus) topicText(t i18n.Translator, topic string) string {
	title := i18n.TextOr(t, topic+"-button", strings.ToUpper(topic[:1])+topic[1:])
	header := i18n.Render(t, "topic-help-header", map[string]string{"Topic": title})
	return header + "\n\n" + i18n.Render(t, topic+"-help", m.vars())
}

// edit replaces the callback message and acknowledges the callback. An
// unchanged message is not an error.
func (m *Menus) edit(c telebot.Context, text string, markup *telebot.ReplyMarkup) error {
	outcome, err := ClassifyError(c.Edit(text, markup, telebot.ModeHTML, telebot.NoPreview))
	if err != nil {
		return err
	}
	if outcome == continuity.OutcomeUnmodified {
		m.log.Debug("help message already up to date")
	}
	return c.Respond()
}
