package handler

import (
	"context"
	"strings"

	"supportbot/internal/messenger"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// dataLanguage caches the user's language for the duration of a flow
const dataLanguage = "lang"

// handleText handles all text messages based on state
func (h *Handler) handleText(c tele.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID
	text := strings.TrimSpace(c.Text())

	// Ignore commands (starting with /)
	if strings.HasPrefix(text, "/") {
		return nil
	}

	st, err := h.states.Get(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to get user state", zap.Int64("user_id", userID), zap.Error(err))
		_, err = h.send(ctx, userID, tr(h.language(ctx, userID), "error"), nil)
		return err
	}

	if st == nil {
		lang := h.language(ctx, userID)
		_, err = h.send(ctx, userID, tr(lang, "no_flow"), mainMenuMarkup(lang, h.authService.IsAdmin(userID)))
		return err
	}

	route, ok := h.routes[st.State]
	if !ok {
		h.logger.Warn("No handler for state, clearing",
			zap.Int64("user_id", userID),
			zap.String("state", string(st.State)),
		)
		if err := h.states.Clear(ctx, userID); err != nil {
			h.logger.Error("Failed to clear unknown state", zap.Int64("user_id", userID), zap.Error(err))
		}
		lang := h.language(ctx, userID)
		_, err = h.send(ctx, userID, tr(lang, "no_flow"), mainMenuMarkup(lang, h.authService.IsAdmin(userID)))
		return err
	}

	return route(c, st)
}

// trackInput records the user's message so it is swept with the flow
func (h *Handler) trackInput(ctx context.Context, c tele.Context) {
	if err := h.conv.TrackUserMessage(ctx, c.Sender().ID, messenger.FromTele(c.Message())); err != nil {
		h.logger.Warn("Failed to track user input", zap.Int64("user_id", c.Sender().ID), zap.Error(err))
	}
}

// inputError reports invalid input and re-asks the current question
func (h *Handler) inputError(ctx context.Context, userID int64, lang, errKey, promptKey string) error {
	errMsg, err := h.send(ctx, userID, tr(lang, errKey), nil)
	if err != nil {
		return nil
	}

	if _, err := h.conv.HandleInputError(ctx, userID, errMsg, tr(lang, promptKey), promptOpts(lang), h.delays.Cleanup); err != nil {
		h.logger.Error("Failed to recover from input error",
			zap.Int64("user_id", userID),
			zap.String("prompt", promptKey),
			zap.Error(err),
		)
	}
	return nil
}

// askNext sends the prompt of the next step and tracks it
func (h *Handler) askNext(ctx context.Context, userID int64, lang, promptKey string) error {
	prompt, err := h.send(ctx, userID, tr(lang, promptKey), cancelMarkup(lang))
	if err != nil {
		return err
	}
	if err := h.conv.TrackBotMessage(ctx, userID, prompt); err != nil {
		h.logger.Warn("Failed to track prompt", zap.Int64("user_id", userID), zap.Error(err))
	}
	return nil
}

// failFlow aborts a conversation after an unexpected error
func (h *Handler) failFlow(ctx context.Context, userID int64, lang string, cause error) error {
	h.logger.Error("Conversation failed", zap.Int64("user_id", userID), zap.Error(cause))

	if err := h.conv.CancelConversation(ctx, userID, 0); err != nil {
		h.logger.Warn("Failed to cancel failed conversation", zap.Int64("user_id", userID), zap.Error(err))
	}
	_, err := h.send(ctx, userID, tr(lang, "error"), mainMenuMarkup(lang, h.authService.IsAdmin(userID)))
	return err
}

func promptOpts(lang string) *messenger.SendOptions {
	return &messenger.SendOptions{ReplyMarkup: cancelMarkup(lang)}
}
