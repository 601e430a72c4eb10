package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"supportbot/internal/adminmenu"
	"supportbot/internal/domain"
	"supportbot/internal/messenger"
	"supportbot/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// ticketListLimit caps the admin ticket list
const ticketListLimit = 10

// AdminPanel builds the admin main panel in the admin's current language
func AdminPanel(users *service.UserService, stats *service.StatsService) adminmenu.PanelFunc {
	return func(ctx context.Context, adminID int64) (string, *messenger.SendOptions, error) {
		// lookup failure already falls back to the default language
		lang, _ := users.Language(ctx, adminID)
		summary := stats.PanelStats(ctx)
		return tr(lang, "admin_panel", summary.OpenTickets), &messenger.SendOptions{ReplyMarkup: adminPanelMarkup(lang)}, nil
	}
}

func adminPanelMarkup(lang string) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(menu.Data(tr(lang, "btn_tickets"), btnAdminTickets.Unique)),
		menu.Row(
			menu.Data(tr(lang, "btn_language"), btnAdminLanguage.Unique),
			menu.Data(tr(lang, "btn_close"), btnAdminClose.Unique),
		),
	)
	return menu
}

func backToPanelMarkup(lang string) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(menu.Data(tr(lang, "btn_back"), btnAdminBack.Unique)))
	return menu
}

// handleAdmin shows the admin panel, replacing the previous admin menu
func (h *Handler) handleAdmin(c tele.Context) error {
	ctx := context.Background()
	adminID := c.Sender().ID
	h.respond(c)

	text, opts, err := h.panel(ctx, adminID)
	if err != nil {
		h.logger.Error("Failed to build admin panel", zap.Int64("admin_id", adminID), zap.Error(err))
		return err
	}

	_, err = h.menus.ReplaceAdminMenu(ctx, adminID, text, opts)
	return err
}

// handleAdminBack redraws the panel in the current menu message
func (h *Handler) handleAdminBack(c tele.Context) error {
	ctx := context.Background()
	adminID := c.Sender().ID
	h.respond(c)

	text, opts, err := h.panel(ctx, adminID)
	if err != nil {
		h.logger.Error("Failed to build admin panel", zap.Int64("admin_id", adminID), zap.Error(err))
		return err
	}
	return h.showInMenu(ctx, c, text, opts.ReplyMarkup)
}

// handleAdminLanguage switches admin's language and redraws the panel
func (h *Handler) handleAdminLanguage(c tele.Context) error {
	ctx := context.Background()
	adminID := c.Sender().ID

	lang, err := h.userService.ToggleLanguage(ctx, adminID)
	if err != nil {
		h.logger.Error("Failed to toggle language", zap.Int64("admin_id", adminID), zap.Error(err))
		h.respond(c, &tele.CallbackResponse{Text: tr(lang, "error")})
		return nil
	}
	h.respond(c, &tele.CallbackResponse{Text: tr(lang, "language_changed")})

	text, opts, err := h.panel(ctx, adminID)
	if err != nil {
		return err
	}
	return h.showInMenu(ctx, c, text, opts.ReplyMarkup)
}

// handleAdminClose removes the panel and forgets it
func (h *Handler) handleAdminClose(c tele.Context) error {
	ctx := context.Background()
	adminID := c.Sender().ID
	h.respond(c)

	if msg := c.Callback().Message; msg != nil {
		if err := h.msgr.DeleteMessages(ctx, adminID, []int{msg.ID}); err != nil {
			h.logger.Warn("Failed to delete admin panel",
				zap.Int64("admin_id", adminID),
				zap.Int("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}
	return h.menus.ClearLastMenu(ctx, adminID)
}

// handleAdminTickets lists open tickets in the current menu message
func (h *Handler) handleAdminTickets(c tele.Context) error {
	ctx := context.Background()
	adminID := c.Sender().ID
	lang := h.language(ctx, adminID)

	tickets, err := h.ticketService.OpenTickets(ctx, ticketListLimit)
	if err != nil {
		h.logger.Error("Failed to list open tickets", zap.Int64("admin_id", adminID), zap.Error(err))
		h.respond(c, &tele.CallbackResponse{Text: tr(lang, "error")})
		return nil
	}
	h.respond(c)

	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(tickets)+1)

	var sb strings.Builder
	if len(tickets) == 0 {
		sb.WriteString(tr(lang, "admin_no_tickets"))
	} else {
		sb.WriteString(tr(lang, "admin_tickets"))
	}
	for _, ticket := range tickets {
		fmt.Fprintf(&sb, "#%d %s\n", ticket.ID, ticket.Subject)
		btn := markup.Data(tr(lang, "btn_reply", ticket.ID), btnReply.Unique, strconv.FormatInt(ticket.ID, 10))
		rows = append(rows, markup.Row(btn))
	}
	rows = append(rows, markup.Row(markup.Data(tr(lang, "btn_back"), btnAdminBack.Unique)))
	markup.Inline(rows...)

	return h.showInMenu(ctx, c, sb.String(), markup)
}

// showInMenu edits the callback's message in place and records it as the
// current menu. When editing is impossible the menu is replaced instead.
func (h *Handler) showInMenu(ctx context.Context, c tele.Context, text string, markup *tele.ReplyMarkup) error {
	adminID := c.Sender().ID

	if cb := c.Callback(); cb != nil && cb.Message != nil {
		msg, err := h.editMessage(ctx, adminID, cb.Message.ID, text, markup)
		if err == nil {
			return h.menus.UpdateMenuWithoutCleanup(ctx, adminID, msg)
		}
	}

	_, err := h.menus.ReplaceAdminMenu(ctx, adminID, text, &messenger.SendOptions{ReplyMarkup: markup})
	return err
}

// handleReplyButton starts the reply flow for a ticket
func (h *Handler) handleReplyButton(c tele.Context) error {
	ctx := context.Background()
	adminID := c.Sender().ID
	lang := h.language(ctx, adminID)

	ticketID, ok := parseTicketID(c.Callback().Data)
	if !ok {
		h.logger.Warn("Invalid reply button data", zap.String("data", c.Callback().Data))
		h.respond(c)
		return nil
	}

	ticket, err := h.ticketService.GetOpenTicket(ctx, ticketID)
	if errors.Is(err, service.ErrTicketNotFound) || errors.Is(err, service.ErrTicketClosed) {
		h.respond(c, &tele.CallbackResponse{Text: tr(lang, "ticket_gone"), ShowAlert: true})
		return nil
	}
	if err != nil {
		h.logger.Error("Failed to load ticket", zap.Int64("ticket_id", ticketID), zap.Error(err))
		h.respond(c, &tele.CallbackResponse{Text: tr(lang, "error")})
		return nil
	}
	h.respond(c)

	_, err = h.conv.RestartConversationStep(ctx, adminID, domain.StateAdminTicketReply,
		tr(lang, "ask_reply", ticket.ID, ticket.Subject), promptOpts(lang),
		map[string]any{domain.DataTicketID: ticket.ID, dataLanguage: lang})
	if err != nil {
		return h.failFlow(ctx, adminID, lang, err)
	}
	return nil
}

func (h *Handler) onAdminReply(c tele.Context, st *domain.UserState) error {
	ctx := context.Background()
	adminID := st.UserID
	lang := h.stateLanguage(ctx, st)

	ticketID, ok := st.Int64(domain.DataTicketID)
	if !ok {
		return h.failFlow(ctx, adminID, lang, errors.New("reply state without ticket id"))
	}

	text := strings.TrimSpace(c.Text())
	ticket, err := h.ticketService.Reply(ctx, ticketID, adminID, text)
	if errors.Is(err, service.ErrTicketNotFound) || errors.Is(err, service.ErrTicketClosed) {
		if err := h.conv.CancelConversation(ctx, adminID, 0); err != nil {
			h.logger.Warn("Failed to cancel reply conversation", zap.Int64("admin_id", adminID), zap.Error(err))
		}
		_, err = h.menus.ReplaceAdminMenu(ctx, adminID, tr(lang, "ticket_gone"),
			&messenger.SendOptions{ReplyMarkup: backToPanelMarkup(lang)})
		return err
	}
	if err != nil {
		return h.failFlow(ctx, adminID, lang, err)
	}

	h.logger.Info("Ticket answered",
		zap.Int64("admin_id", adminID),
		zap.Int64("ticket_id", ticket.ID),
		zap.Int64("user_id", ticket.UserID),
	)

	ownerLang := h.language(ctx, ticket.UserID)
	if _, err := h.send(ctx, ticket.UserID, tr(ownerLang, "reply_to_user", ticket.ID, ticket.Subject, text), nil); err != nil {
		h.logger.Warn("Reply not delivered to ticket owner",
			zap.Int64("ticket_id", ticket.ID),
			zap.Int64("user_id", ticket.UserID),
			zap.Error(err),
		)
	}

	if err := h.conv.CompleteConversation(ctx, adminID, nil, 0); err != nil {
		h.logger.Warn("Failed to complete reply conversation", zap.Int64("admin_id", adminID), zap.Error(err))
	}

	_, err = h.menus.CleanupAdminInteraction(ctx, adminID, messenger.FromTele(c.Message()),
		tr(lang, "reply_sent", ticket.ID), &messenger.SendOptions{ReplyMarkup: backToPanelMarkup(lang)},
		h.delays.Cleanup)
	return err
}
