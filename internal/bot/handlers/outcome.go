package handlers

import (
	"errors"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/himera-continuity/internal/continuity"
)

// ClassifyError turns the Telegram failures that are expected during edits
// and deletes into outcomes. Any other error is returned unchanged.
func ClassifyError(err error) (continuity.Outcome, error) {
	if err == nil {
		return continuity.OutcomeOK, nil
	}

	switch {
	case errors.Is(err, telebot.ErrMessageNotModified), errors.Is(err, telebot.ErrSameMessageContent):
		return continuity.OutcomeUnmodified, nil
	case errors.Is(err, telebot.ErrNoRightsToDelete):
		return continuity.OutcomeForbidden, nil
	}

	var tgErr *telebot.Error
	if errors.As(err, &tgErr) && tgErr.Code == 403 {
		return continuity.OutcomeForbidden, nil
	}

	// Descriptions telebot does not know come back as plain errors, e.g.
	// "message can't be deleted for everyone" past the 48h delete window.
	text := strings.ToLower(err.Error())
	if strings.Contains(text, "message can't be deleted") || strings.HasSuffix(text, "(403)") {
		return continuity.OutcomeForbidden, nil
	}

	return continuity.OutcomeOK, err
}
