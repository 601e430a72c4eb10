package handler

import (
	"context"
	"strconv"
	"strings"

	"supportbot/internal/domain"
	"supportbot/internal/messenger"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleNewTicket starts the ticket flow
func (h *Handler) handleNewTicket(c tele.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID
	h.respond(c)

	lang := h.language(ctx, userID)
	_, err := h.conv.RestartConversationStep(ctx, userID, domain.StateTicketSubject,
		tr(lang, "ask_subject"), promptOpts(lang), map[string]any{dataLanguage: lang})
	if err != nil {
		return h.failFlow(ctx, userID, lang, err)
	}
	return nil
}

func (h *Handler) onTicketSubject(c tele.Context, st *domain.UserState) error {
	ctx := context.Background()
	userID := st.UserID
	lang := h.stateLanguage(ctx, st)
	h.trackInput(ctx, c)

	subject := strings.TrimSpace(c.Text())
	if err := h.ticketService.ValidateSubject(subject); err != nil {
		return h.inputError(ctx, userID, lang, "subject_invalid", "ask_subject")
	}

	err := h.conv.AdvanceConversation(ctx, userID, domain.StateTicketMessage, map[string]any{
		domain.DataTicketSubject: subject,
	})
	if err != nil {
		return h.failFlow(ctx, userID, lang, err)
	}
	return h.askNext(ctx, userID, lang, "ask_message")
}

func (h *Handler) onTicketMessage(c tele.Context, st *domain.UserState) error {
	ctx := context.Background()
	userID := st.UserID
	lang := h.stateLanguage(ctx, st)
	h.trackInput(ctx, c)

	text := strings.TrimSpace(c.Text())
	if err := h.ticketService.ValidateMessage(text); err != nil {
		return h.inputError(ctx, userID, lang, "message_invalid", "ask_message")
	}

	ticket, err := h.ticketService.CreateTicket(ctx, userID, st.String(domain.DataTicketSubject), text)
	if err != nil {
		return h.failFlow(ctx, userID, lang, err)
	}

	h.logger.Info("Ticket created",
		zap.Int64("user_id", userID),
		zap.Int64("ticket_id", ticket.ID),
	)

	if err := h.conv.CompleteConversationWithDelayedCleanup(ctx, userID, h.delays.Cleanup); err != nil {
		h.logger.Warn("Failed to complete ticket conversation", zap.Int64("user_id", userID), zap.Error(err))
	}

	_, err = h.send(ctx, userID, tr(lang, "ticket_created", ticket.ID), mainMenuMarkup(lang, h.authService.IsAdmin(userID)))
	h.notifyAdmins(ctx, ticket)
	return err
}

// notifyAdmins shows the new ticket to every admin in place of their menu
func (h *Handler) notifyAdmins(ctx context.Context, ticket *domain.Ticket) {
	for _, adminID := range h.authService.AdminIDs() {
		lang := h.language(ctx, adminID)

		markup := &tele.ReplyMarkup{}
		markup.Inline(markup.Row(
			markup.Data(tr(lang, "btn_reply", ticket.ID), btnReply.Unique, strconv.FormatInt(ticket.ID, 10)),
		))

		text := tr(lang, "admin_new_ticket", ticket.ID, ticket.Subject, ticket.Message)
		opts := &messenger.SendOptions{ReplyMarkup: markup}
		if _, err := h.menus.SendNotificationWithAutoMenu(ctx, adminID, text, opts, h.delays.AutoMenu); err != nil {
			h.logger.Error("Failed to notify admin",
				zap.Int64("admin_id", adminID),
				zap.Int64("ticket_id", ticket.ID),
				zap.Error(err),
			)
		}
	}
}
