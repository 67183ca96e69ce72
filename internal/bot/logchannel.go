package bot

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"strconv"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/himera-continuity/internal/bot/handlers"
	"github.com/Proton-105/himera-continuity/internal/continuity"
)

// Messenger is the part of *telebot.Bot the log channel needs.
type Messenger interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
	Delete(msg telebot.Editable) error
}

// LogChannel posts lifecycle status lines to the operators' chat.
type LogChannel struct {
	api    Messenger
	chatID int64
	log    *slog.Logger
}

var _ continuity.StatusSink = (*LogChannel)(nil)

// NewLogChannel returns a sink posting to chatID. A zero chatID disables it.
func NewLogChannel(api Messenger, chatID int64, log *slog.Logger) *LogChannel {
	if log == nil {
		log = slog.Default()
	}

	return &LogChannel{api: api, chatID: chatID, log: log.With(slog.Int64("log_channel", chatID))}
}

// Enabled reports whether status lines have a destination.
func (l *LogChannel) Enabled() bool {
	return l != nil && l.api != nil && l.chatID != 0
}

// Post sends text to the log channel.
func (l *LogChannel) Post(ctx context.Context, text string) (*continuity.MessageRef, error) {
	if !l.Enabled() {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msg, err := l.api.Send(telebot.ChatID(l.chatID), text, &telebot.SendOptions{DisableWebPagePreview: true})
	if err != nil {
		return nil, fmt.Errorf("send status: %w", err)
	}

	return l.ref(msg), nil
}

// Reply sends text as a reply to an earlier status message, or as a plain
// message when that one no longer exists.
func (l *LogChannel) Reply(ctx context.Context, text string, to continuity.MessageRef) (*continuity.MessageRef, error) {
	if !l.Enabled() {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := &telebot.SendOptions{
		ReplyTo:               &telebot.Message{ID: int(to.MessageID), Chat: &telebot.Chat{ID: to.ChatID}},
		AllowWithoutReply:     true,
		DisableWebPagePreview: true,
	}

	msg, err := l.api.Send(telebot.ChatID(to.ChatID), text, opts)
	if err != nil {
		return nil, fmt.Errorf("send reply: %w", err)
	}

	return l.ref(msg), nil
}

// Delete removes a status message. Missing delete rights are reported as
// OutcomeForbidden, and a message that is already gone counts as deleted.
func (l *LogChannel) Delete(ctx context.Context, ref continuity.MessageRef) (continuity.Outcome, error) {
	if !l.Enabled() {
		return continuity.OutcomeOK, nil
	}
	if err := ctx.Err(); err != nil {
		return continuity.OutcomeOK, err
	}

	err := l.api.Delete(telebot.StoredMessage{
		MessageID: strconv.FormatInt(ref.MessageID, 10),
		ChatID:    ref.ChatID,
	})
	if stdErrors.Is(err, telebot.ErrNotFoundToDelete) {
		l.log.Debug("status message already deleted", slog.Int64("message_id", ref.MessageID))
		return continuity.OutcomeOK, nil
	}

	outcome, err := handlers.ClassifyError(err)
	if err != nil {
		return outcome, fmt.Errorf("delete status: %w", err)
	}
	return outcome, nil
}

func (l *LogChannel) ref(msg *telebot.Message) *continuity.MessageRef {
	if msg == nil {
		return nil
	}

	chatID := l.chatID
	if msg.Chat != nil {
		chatID = msg.Chat.ID
	}
	return &continuity.MessageRef{ChatID: chatID, MessageID: int64(msg.ID)}
}
