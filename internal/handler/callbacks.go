package handler

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"supportbot/internal/messenger"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// cleanCallbackData removes all non-printable characters from callback data
func cleanCallbackData(data string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(data))
}

// replyPrefix is how a reply button arrives when its unique was not routed
var replyPrefix = btnReply.Unique + "|"

// parseTicketID extracts the ticket id from reply button data
func parseTicketID(data string) (int64, bool) {
	data = strings.TrimPrefix(cleanCallbackData(data), replyPrefix)
	id, err := strconv.ParseInt(data, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// editMessage edits a message in place. "message is not modified" means a
// concurrent callback already drew the same content and counts as success.
func (h *Handler) editMessage(ctx context.Context, chatID int64, messageID int, text string, markup *tele.ReplyMarkup) (messenger.Message, error) {
	msg, err := h.msgr.EditMessage(ctx, chatID, messageID, text, &messenger.SendOptions{ReplyMarkup: markup})
	if err == nil {
		return msg, nil
	}

	if strings.Contains(err.Error(), "message is not modified") {
		h.logger.Debug("Message already modified by another callback",
			zap.Int64("chat_id", chatID),
			zap.Int("message_id", messageID),
		)
		return messenger.Message{ID: messageID, ChatID: chatID}, nil
	}

	h.logger.Warn("Failed to edit message",
		zap.Int64("chat_id", chatID),
		zap.Int("message_id", messageID),
		zap.Error(err),
	)
	return messenger.Message{}, err
}

// handleCallback handles callbacks that did not match a registered button,
// such as buttons whose unique prefix was lost
func (h *Handler) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		h.logger.Warn("handleCallback: callback is nil")
		return nil
	}

	data := cleanCallbackData(callback.Data)
	h.logger.Info("handleCallback: Processing callback",
		zap.String("data", data),
		zap.String("unique", callback.Unique),
		zap.Int64("user_id", c.Sender().ID),
	)

	switch data {
	case btnCancel.Unique:
		return h.handleCancel(c)
	case btnNewTicket.Unique:
		return h.handleNewTicket(c)
	case btnSetEmail.Unique:
		return h.handleSetEmail(c)
	case btnLanguage.Unique:
		return h.handleToggleLanguage(c)
	}

	if strings.HasPrefix(data, replyPrefix) && h.authService.IsAdmin(c.Sender().ID) {
		return h.handleReplyButton(c)
	}

	h.logger.Warn("Unhandled callback",
		zap.String("data", data),
		zap.String("unique", callback.Unique),
	)
	h.respond(c)
	return nil
}
