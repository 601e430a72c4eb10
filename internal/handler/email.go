package handler

import (
	"context"
	"errors"

	"supportbot/internal/domain"
	"supportbot/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleSetEmail starts the email registration flow
func (h *Handler) handleSetEmail(c tele.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID
	h.respond(c)

	lang := h.language(ctx, userID)

	prompt := tr(lang, "ask_email")
	current, err := h.userService.Email(ctx, userID)
	if err != nil {
		h.logger.Warn("Failed to get current email", zap.Int64("user_id", userID), zap.Error(err))
	} else if current != "" {
		prompt = tr(lang, "ask_email_current", current)
	}

	_, err = h.conv.RestartConversationStep(ctx, userID, domain.StateEmailInput,
		prompt, promptOpts(lang), map[string]any{dataLanguage: lang})
	if err != nil {
		return h.failFlow(ctx, userID, lang, err)
	}
	return nil
}

func (h *Handler) onEmail(c tele.Context, st *domain.UserState) error {
	ctx := context.Background()
	userID := st.UserID
	lang := h.stateLanguage(ctx, st)
	h.trackInput(ctx, c)

	email, err := h.userService.RegisterEmail(ctx, userID, c.Text())
	if errors.Is(err, service.ErrInvalidEmail) {
		return h.inputError(ctx, userID, lang, "email_invalid", "ask_email")
	}
	if err != nil {
		return h.failFlow(ctx, userID, lang, err)
	}

	h.logger.Info("Email registered", zap.Int64("user_id", userID))

	if err := h.conv.CompleteConversationWithDelayedCleanup(ctx, userID, h.delays.Cleanup); err != nil {
		h.logger.Warn("Failed to complete email conversation", zap.Int64("user_id", userID), zap.Error(err))
	}

	_, err = h.send(ctx, userID, tr(lang, "email_saved", email), mainMenuMarkup(lang, h.authService.IsAdmin(userID)))
	return err
}
