package handler

import (
	"context"

	"supportbot/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleStart handles /start command
func (h *Handler) handleStart(c tele.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	h.logger.Info("User started bot",
		zap.Int64("user_id", userID),
		zap.String("username", c.Sender().Username),
	)

	h.dropConversation(ctx, userID)

	lang := h.language(ctx, userID)
	_, err := h.send(ctx, userID, tr(lang, "main_menu"), mainMenuMarkup(lang, h.authService.IsAdmin(userID)))
	return err
}

// handleCancel cancels current conversation and shows the main menu
func (h *Handler) handleCancel(c tele.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID
	h.respond(c)

	if err := h.conv.CancelConversation(ctx, userID, 0); err != nil {
		h.logger.Error("Failed to cancel conversation", zap.Int64("user_id", userID), zap.Error(err))
	}

	lang := h.language(ctx, userID)
	_, err := h.send(ctx, userID, tr(lang, "cancelled")+"\n\n"+tr(lang, "main_menu"),
		mainMenuMarkup(lang, h.authService.IsAdmin(userID)))
	return err
}

// handleToggleLanguage switches language and redraws the main menu in place
func (h *Handler) handleToggleLanguage(c tele.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	lang, err := h.userService.ToggleLanguage(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to toggle language", zap.Int64("user_id", userID), zap.Error(err))
		h.respond(c, &tele.CallbackResponse{Text: tr(lang, "error")})
		return nil
	}
	h.respond(c, &tele.CallbackResponse{Text: tr(lang, "language_changed")})

	markup := mainMenuMarkup(lang, h.authService.IsAdmin(userID))
	if c.Callback() != nil && c.Callback().Message != nil {
		_, err := h.editMessage(ctx, userID, c.Callback().Message.ID, tr(lang, "main_menu"), markup)
		if err == nil {
			return nil
		}
	}
	_, err = h.send(ctx, userID, tr(lang, "main_menu"), markup)
	return err
}

// dropConversation cancels an active conversation, if there is one
func (h *Handler) dropConversation(ctx context.Context, userID int64) {
	st, err := h.states.Get(ctx, userID)
	if err != nil {
		h.logger.Warn("Failed to read state", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if st == nil {
		return
	}
	if err := h.conv.CancelConversation(ctx, userID, 0); err != nil {
		h.logger.Warn("Failed to cancel previous conversation",
			zap.Int64("user_id", userID),
			zap.String("state", string(st.State)),
			zap.Error(err),
		)
	}
}

// stateLanguage returns the cached language of a flow or looks it up
func (h *Handler) stateLanguage(ctx context.Context, st *domain.UserState) string {
	if lang := st.String(dataLanguage); lang != "" {
		return lang
	}
	return h.language(ctx, st.UserID)
}
