package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/himera-continuity/internal/bot/keyboard"
	"github.com/Proton-105/himera-continuity/internal/continuity"
	"github.com/Proton-105/himera-continuity/internal/i18n"
)

type sentMessage struct {
	what any
	opts []any
}

func (s sentMessage) text() string {
	text, _ := s.what.(string)
	return text
}

func (s sentMessage) markup() *telebot.ReplyMarkup {
	for _, opt := range s.opts {
		if markup, ok := opt.(*telebot.ReplyMarkup); ok && markup != nil {
			return markup
		}
	}
	return nil
}

type fakeContext struct {
	telebot.Context

	chat     *telebot.Chat
	sender   *telebot.User
	message  *telebot.Message
	callback *telebot.Callback
	store    map[string]any

	editErr   error
	deleteErr error

	sent      []sentMessage
	edits     []sentMessage
	responses [][]*telebot.CallbackResponse
	deletes   int
}

func newPrivateContext(payload string) *fakeContext {
	return &fakeContext{
		chat:    &telebot.Chat{ID: 7, Type: telebot.ChatPrivate},
		sender:  &telebot.User{ID: 7, LanguageCode: "en"},
		message: &telebot.Message{ID: 1, Payload: payload},
	}
}

func newCallbackContext(data string) *fakeContext {
	c := newPrivateContext("")
	c.callback = &telebot.Callback{Data: data, Message: c.message}
	return c
}

func (f *fakeContext) Chat() *telebot.Chat         { return f.chat }
func (f *fakeContext) Sender() *telebot.User       { return f.sender }
func (f *fakeContext) Message() *telebot.Message   { return f.message }
func (f *fakeContext) Callback() *telebot.Callback { return f.callback }

func (f *fakeContext) Get(key string) any {
	return f.store[key]
}

func (f *fakeContext) Set(key string, val any) {
	if f.store == nil {
		f.store = make(map[string]any)
	}
	f.store[key] = val
}

func (f *fakeContext) Send(what any, opts ...any) error {
	f.sent = append(f.sent, sentMessage{what: what, opts: opts})
	return nil
}

func (f *fakeContext) Edit(what any, opts ...any) error {
	f.edits = append(f.edits, sentMessage{what: what, opts: opts})
	return f.editErr
}

func (f *fakeContext) Delete() error {
	f.deletes++
	return f.deleteErr
}

func (f *fakeContext) Respond(resp ...*telebot.CallbackResponse) error {
	f.responses = append(f.responses, resp)
	return nil
}

func newTestMenus(t *testing.T) *Menus {
	t.Helper()

	locales, err := i18n.LoadFromDir("../../i18n/locales", "en")
	require.NoError(t, err)

	kb := keyboard.NewBuilder(nil, keyboard.MenuOptions{
		Topics:      []string{"main", "lifecycle"},
		BotUsername: "himera_bot",
	})

	m := NewMenus(kb, locales, nil)
	m.SetBotName("Himera")
	return m
}

func TestStart(t *testing.T) {
	m := newTestMenus(t)

	t.Run("private start menu", func(t *testing.T) {
		c := newPrivateContext("")
		require.NoError(t, m.Start()(c))

		require.Len(t, c.sent, 1)
		assert.Contains(t, c.sent[0].text(), "<b>Himera</b>")
		require.NotNil(t, c.sent[0].markup())
		assert.Len(t, c.sent[0].markup().InlineKeyboard, 2)
	})

	t.Run("group chat", func(t *testing.T) {
		c := newPrivateContext("")
		c.chat.Type = telebot.ChatSuperGroup
		require.NoError(t, m.Start()(c))

		require.Len(t, c.sent, 1)
		assert.Contains(t, c.sent[0].text(), "I'm alive")
		assert.Nil(t, c.sent[0].markup())
	})

	t.Run("help payload", func(t *testing.T) {
		c := newPrivateContext("help")
		require.NoError(t, m.Start()(c))

		require.Len(t, c.sent, 1)
		assert.Contains(t, c.sent[0].text(), "Pick a category")
		assert.Equal(t, "help_category(General)", c.sent[0].markup().InlineKeyboard[0][0].Data)
	})

	t.Run("topic payload", func(t *testing.T) {
		c := newPrivateContext("help_lifecycle")
		require.NoError(t, m.Start()(c))

		require.Len(t, c.sent, 1)
		assert.Contains(t, c.sent[0].text(), "Here is the help for <b>Lifecycle</b>")
		assert.Contains(t, c.sent[0].text(), "measured downtime")
		assert.Equal(t, keyboard.RouteBack, c.sent[0].markup().InlineKeyboard[0][0].Data)
	})

	t.Run("unknown topic payload falls back to start menu", func(t *testing.T) {
		c := newPrivateContext("help_ghost")
		require.NoError(t, m.Start()(c))

		require.Len(t, c.sent, 1)
		assert.Contains(t, c.sent[0].text(), "Hey there!")
	})
}

func TestHelp(t *testing.T) {
	m := newTestMenus(t)

	t.Run("group links to private chat", func(t *testing.T) {
		c := newPrivateContext("")
		c.chat.Type = telebot.ChatGroup
		require.NoError(t, m.Help()(c))

		require.Len(t, c.sent, 1)
		assert.Equal(t, "Contact me in PM to get the list of possible commands.", c.sent[0].text())
		assert.Equal(t, "https://t.me/himera_bot?start=help", c.sent[0].markup().InlineKeyboard[0][0].URL)
	})

	t.Run("private shows categories", func(t *testing.T) {
		c := newPrivateContext("")
		require.NoError(t, m.Help()(c))

		require.Len(t, c.sent, 1)
		categories := c.sent[0].markup().InlineKeyboard[0]
		assert.Equal(t, "📁 General", categories[0].Text)
		assert.Equal(t, "📁 Operations", categories[1].Text)
	})
}

func TestHelpCallback(t *testing.T) {
	m := newTestMenus(t)

	t.Run("back edits to help menu", func(t *testing.T) {
		c := newCallbackContext(keyboard.RouteBack)
		require.NoError(t, m.HelpCallback()(c))

		require.Len(t, c.edits, 1)
		assert.Contains(t, c.edits[0].text(), "Pick a category")
		assert.Len(t, c.responses, 1)
	})

	t.Run("unchanged message is not an error", func(t *testing.T) {
		c := newCallbackContext(keyboard.RouteBack)
		c.editErr = telebot.ErrMessageNotModified
		require.NoError(t, m.HelpCallback()(c))
		assert.Len(t, c.responses, 1)
	})

	t.Run("edit failure propagates", func(t *testing.T) {
		c := newCallbackContext(keyboard.RouteBack)
		c.editErr = telebot.ErrUnauthorized
		assert.ErrorIs(t, m.HelpCallback()(c), telebot.ErrUnauthorized)
	})

	t.Run("close deletes the message", func(t *testing.T) {
		c := newCallbackContext(keyboard.RouteClose)
		require.NoError(t, m.HelpCallback()(c))

		assert.Equal(t, 1, c.deletes)
		require.Len(t, c.responses, 1)
		assert.Empty(t, c.responses[0])
	})

	t.Run("close without rights answers the callback", func(t *testing.T) {
		c := newCallbackContext(keyboard.RouteClose)
		c.deleteErr = telebot.ErrNoRightsToDelete
		require.NoError(t, m.HelpCallback()(c))

		require.Len(t, c.responses, 1)
		require.Len(t, c.responses[0], 1)
		assert.Equal(t, "I can't delete the message", c.responses[0][0].Text)
	})

	t.Run("category lists its topics", func(t *testing.T) {
		c := newCallbackContext("help_category(Operations):1")
		require.NoError(t, m.HelpCallback()(c))

		require.Len(t, c.edits, 1)
		assert.Contains(t, c.edits[0].text(), "<b>Operations Topics</b>")
		assert.Equal(t, "help_plugin(lifecycle)", c.edits[0].markup().InlineKeyboard[0][0].Data)
	})

	t.Run("plugin shows topic help", func(t *testing.T) {
		c := newCallbackContext("help_plugin(main)")
		require.NoError(t, m.HelpCallback()(c))

		require.Len(t, c.edits, 1)
		assert.Contains(t, c.edits[0].text(), "Here is the help for <b>Main</b>")
		assert.Contains(t, c.edits[0].text(), "/quickhelp")
	})

	t.Run("malformed plugin route", func(t *testing.T) {
		c := newCallbackContext("help_plugin(bad name)")
		assert.Error(t, m.HelpCallback()(c))
		assert.Empty(t, c.edits)
	})
}

func TestMiscCommands(t *testing.T) {
	m := newTestMenus(t)

	testCases := []struct {
		name       string
		handler    Handler
		group      bool
		wantText   string
		wantMarkup bool
	}{
		{name: "quick help private", handler: m.QuickHelp(), wantText: "Himera quick help", wantMarkup: true},
		{name: "quick help group", handler: m.QuickHelp(), group: true, wantText: "Himera quick help"},
		{name: "privacy without policy url", handler: m.Privacy(), wantText: "restart marker"},
		{name: "donate", handler: m.Donate(), wantText: "Thanks for thinking of us"},
		{name: "markdown help", handler: m.MarkdownHelp(), wantText: "<b>Formatting</b>"},
		{name: "format help", handler: m.FormatHelp(), wantText: "{fullname}"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newPrivateContext("")
			if tc.group {
				c.chat.Type = telebot.ChatGroup
			}

			require.NoError(t, tc.handler(c))
			require.Len(t, c.sent, 1)
			assert.Contains(t, c.sent[0].text(), tc.wantText)
			assert.Equal(t, tc.wantMarkup, c.sent[0].markup() != nil)
		})
	}
}

func TestClassifyError(t *testing.T) {
	other := errors.New("boom")

	testCases := []struct {
		name        string
		err         error
		wantOutcome continuity.Outcome
		wantErr     error
	}{
		{name: "nil", err: nil, wantOutcome: continuity.OutcomeOK},
		{name: "not modified", err: telebot.ErrMessageNotModified, wantOutcome: continuity.OutcomeUnmodified},
		{name: "same content", err: telebot.ErrSameMessageContent, wantOutcome: continuity.OutcomeUnmodified},
		{name: "no rights", err: telebot.ErrNoRightsToDelete, wantOutcome: continuity.OutcomeForbidden},
		{name: "forbidden code", err: telebot.NewError(403, "Forbidden: bot was kicked from the channel chat"), wantOutcome: continuity.OutcomeForbidden},
		{
			name:        "delete window expired",
			err:         errors.New("telegram: Bad Request: message can't be deleted for everyone (400)"),
			wantOutcome: continuity.OutcomeForbidden,
		},
		{
			name:        "unlisted forbidden description",
			err:         errors.New("telegram: Forbidden: bot can't initiate conversation with a user (403)"),
			wantOutcome: continuity.OutcomeForbidden,
		},
		{name: "other", err: other, wantOutcome: continuity.OutcomeOK, wantErr: other},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			outcome, err := ClassifyError(tc.err)
			assert.Equal(t, tc.wantOutcome, outcome)
			assert.Equal(t, tc.wantErr, err)
		})
	}
}

func TestRequestContext(t *testing.T) {
	assert.Equal(t, context.Background(), RequestContext(nil))

	c := newPrivateContext("")
	assert.Equal(t, context.Background(), RequestContext(c))

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	c.Set(ContextKey, ctx)
	assert.Equal(t, ctx, RequestContext(c))
}
