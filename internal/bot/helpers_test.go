package bot

import (
	"io"
	"log/slog"

	telebot "gopkg.in/telebot.v3"
)

type fakeContext struct {
	telebot.Context

	update   telebot.Update
	text     string
	sender   *telebot.User
	callback *telebot.Callback
	store    map[string]any

	sent      []string
	responses []*telebot.CallbackResponse
}

func (f *fakeContext) Update() telebot.Update      { return f.update }
func (f *fakeContext) Text() string                { return f.text }
func (f *fakeContext) Sender() *telebot.User       { return f.sender }
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

func (f *fakeContext) Send(what any, _ ...any) error {
	text, _ := what.(string)
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeContext) Respond(resp ...*telebot.CallbackResponse) error {
	f.responses = append(f.responses, resp...)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
