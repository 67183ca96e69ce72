package keyboard

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/himera-continuity/internal/i18n"
)

// Callback routes of the help menu.
const (
	RoutePrefix         = "help_"
	RouteBack           = "help_back"
	RouteClose          = "help_close"
	RouteCategoryPrefix = "help_category("
	RoutePluginPrefix   = "help_plugin("

	defaultCategory  = "General"
	topicsPerPage    = 8
	buttonsPerRow    = 2
	startGroupRights = "change_info+post_messages+edit_messages+delete_messages+restrict_members+invite_users+pin_messages+promote_members+manage_video_chats+manage_chat"
)

// CategoryRoute returns the callback route opening category.
func CategoryRoute(category string) string {
	return RouteCategoryPrefix + category + ")"
}

// PluginRoute returns the callback route opening the help of topic.
func PluginRoute(topic string) string {
	return RoutePluginPrefix + topic + ")"
}

// MenuOptions configures the menus rendered by Builder.
type MenuOptions struct {
	Topics        []string
	BotUsername   string
	StatusPageURL string
	DashboardURL  string
	PrivacyURL    string
}

// Topic is one helpable section listed in the help menu.
type Topic struct {
	Name     string
	Button   string
	Category string
}

// Builder renders the start and help menus.
type Builder struct {
	log  *slog.Logger
	opts MenuOptions
}

// NewBuilder returns a new Builder instance.
func NewBuilder(log *slog.Logger, opts MenuOptions) *Builder {
	if log == nil {
		log = slog.Default()
	}

	topics := make([]string, 0, len(opts.Topics))
	for _, topic := range opts.Topics {
		topic = strings.ToLower(strings.TrimSpace(topic))
		if topic != "" {
			topics = append(topics, topic)
		}
	}
	opts.Topics = topics

	return &Builder{log: log, opts: opts}
}

// SetBotUsername updates the username used in deep links once it is known.
func (b *Builder) SetBotUsername(username string) {
	b.opts.BotUsername = username
}

// HasTopic reports whether name is a registered help topic.
func (b *Builder) HasTopic(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, topic := range b.opts.Topics {
		if topic == name {
			return true
		}
	}
	return false
}

// Topics resolves every registered topic for the translator's language.
func (b *Builder) Topics(t i18n.Translator) []Topic {
	topics := make([]Topic, 0, len(b.opts.Topics))
	for _, name := range b.opts.Topics {
		topics = append(topics, Topic{
			Name:     name,
			Button:   i18n.TextOr(t, name+"-button", strings.ToUpper(name[:1])+name[1:]),
			Category: i18n.TextOr(t, name+"-category", defaultCategory),
		})
	}

	sort.SliceStable(topics, func(i, j int) bool { return topics[i].Button < topics[j].Button })
	return topics
}

// Categories returns the sorted category names of all topics.
func (b *Builder) Categories(t i18n.Translator) []string {
	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, topic := range b.Topics(t) {
		if _, ok := seen[topic.Category]; ok {
			continue
		}
		seen[topic.Category] = struct{}{}
		categories = append(categories, topic.Category)
	}

	sort.Strings(categories)
	return categories
}

// StartMenu builds the private chat start menu.
func (b *Builder) StartMenu(t i18n.Translator) (*telebot.ReplyMarkup, error) {
	kb := NewInlineKeyboard().AddRow(
		InlineButton{Text: t.T("add-to-group-button"), URL: b.deepLink("startgroup=true&admin=" + startGroupRights)},
		InlineButton{Text: t.T("start-help-button"), URL: b.deepLink("start=help")},
	)

	if b.opts.StatusPageURL != "" && b.opts.DashboardURL != "" {
		kb.AddRow(
			InlineButton{Text: t.T("status-page-button"), URL: b.opts.StatusPageURL},
			InlineButton{Text: t.T("dashboard-button"), URL: b.opts.DashboardURL},
		)
	}

	kb.AddRow(InlineButton{Text: t.T("help-button"), Unique: RouteBack})
	return kb.Build()
}

// HelpMenu lists the help categories two per row followed by navigation.
func (b *Builder) HelpMenu(t i18n.Translator) (*telebot.ReplyMarkup, error) {
	categories := b.Categories(t)
	buttons := make([]InlineButton, 0, len(categories))
	for _, category := range categories {
		buttons = append(buttons, InlineButton{Text: "📁 " + category, Unique: CategoryRoute(category)})
	}

	kb := NewInlineKeyboard().AddGrid(buttonsPerRow, buttons...)
	kb.AddRow(
		InlineButton{Text: i18n.TextOr(t, "main-menu-button", "🏠 Main Menu"), Unique: RouteBack},
		InlineButton{Text: i18n.TextOr(t, "close-button", "✗ Close"), Unique: RouteClose},
	)
	return kb.Build()
}

// CategoryMenu lists the topics of category, paginated when they do not fit one page.
func (b *Builder) CategoryMenu(t i18n.Translator, category string, page int) (*telebot.ReplyMarkup, error) {
	buttons := make([]InlineButton, 0)
	for _, topic := range b.Topics(t) {
		if topic.Category == category {
			buttons = append(buttons, InlineButton{Text: topic.Button, Unique: PluginRoute(topic.Name)})
		}
	}

	totalPages := (len(buttons) + topicsPerPage - 1) / topicsPerPage
	if totalPages < 1 {
		totalPages = 1
	}
	page = min(max(page, 1), totalPages)

	start := (page - 1) * topicsPerPage
	end := min(start+topicsPerPage, len(buttons))

	kb := NewInlineKeyboard().AddGrid(buttonsPerRow, buttons[start:end]...)
	if totalPages > 1 {
		kb.AddRow(PageNavigation(t, CategoryRoute(category), page, totalPages)...)
	}
	kb.AddRow(b.navigationRow(t)...)

	return kb.Build()
}

// TopicMenu renders the navigation under a topic's help text.
func (b *Builder) TopicMenu(t i18n.Translator) (*telebot.ReplyMarkup, error) {
	return NewInlineKeyboard().AddRow(b.navigationRow(t)...).Build()
}

// HelpInPrivate links group users to the help menu in a private chat.
func (b *Builder) HelpInPrivate(t i18n.Translator) (*telebot.ReplyMarkup, error) {
	return NewInlineKeyboard().AddRow(
		InlineButton{Text: t.T("help-chat-button"), URL: b.deepLink("start=help")},
	).Build()
}

// QuickHelpMenu offers the full help menu from the quick help message.
func (b *Builder) QuickHelpMenu(t i18n.Translator) (*telebot.ReplyMarkup, error) {
	return NewInlineKeyboard().AddRow(
		InlineButton{Text: i18n.TextOr(t, "full-help-button", "📚 Full Help Menu"), Unique: RouteBack},
	).Build()
}

// PrivacyMenu links the privacy policy, or returns nil when none is configured.
func (b *Builder) PrivacyMenu(t i18n.Translator) (*telebot.ReplyMarkup, error) {
	if b.opts.PrivacyURL == "" {
		return nil, nil
	}

	return NewInlineKeyboard().AddRow(
		InlineButton{Text: i18n.TextOr(t, "privacy-policy-button", "Privacy Policy"), URL: b.opts.PrivacyURL},
	).Build()
}

func (b *Builder) navigationRow(t i18n.Translator) []InlineButton {
	return []InlineButton{
		{Text: i18n.TextOr(t, "back-button", "🔙 Back"), Unique: RouteBack},
		{Text: i18n.TextOr(t, "close-button", "✗ Close"), Unique: RouteClose},
	}
}

func (b *Builder) deepLink(query string) string {
	if b.opts.BotUsername == "" {
		b.log.Warn("bot username unknown, deep link will not resolve")
	}
	return fmt.Sprintf("https://t.me/%s?%s", b.opts.BotUsername, query)
}
