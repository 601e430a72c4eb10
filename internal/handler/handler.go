package handler

import (
	"context"
	"time"

	"supportbot/internal/adminmenu"
	"supportbot/internal/conversation"
	"supportbot/internal/domain"
	"supportbot/internal/messenger"
	"supportbot/internal/middleware"
	"supportbot/internal/service"
	"supportbot/internal/state"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Services groups the business services used by handlers
type Services struct {
	Auth   *service.AuthService
	User   *service.UserService
	Ticket *service.TicketService
	Stats  *service.StatsService
}

// Delays configures the pauses of cleanup and menu reopening
type Delays struct {
	Cleanup  time.Duration
	AutoMenu time.Duration
}

// stateHandler handles text input of an active conversation
type stateHandler func(c tele.Context, st *domain.UserState) error

// Handler manages all bot interactions
type Handler struct {
	bot           *tele.Bot
	authService   *service.AuthService
	userService   *service.UserService
	ticketService *service.TicketService
	statsService  *service.StatsService
	states        *state.Store
	conv          *conversation.Engine
	menus         *adminmenu.Tracker
	panel         adminmenu.PanelFunc
	msgr          messenger.Messenger
	delays        Delays
	logger        *zap.Logger

	routes map[domain.StateName]stateHandler
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	services Services,
	states *state.Store,
	conv *conversation.Engine,
	menus *adminmenu.Tracker,
	msgr messenger.Messenger,
	delays Delays,
	logger *zap.Logger,
) *Handler {
	h := &Handler{
		bot:           bot,
		authService:   services.Auth,
		userService:   services.User,
		ticketService: services.Ticket,
		statsService:  services.Stats,
		states:        states,
		conv:          conv,
		menus:         menus,
		panel:         AdminPanel(services.User, services.Stats),
		msgr:          msgr,
		delays:        delays,
		logger:        logger,
	}

	h.routes = map[domain.StateName]stateHandler{
		domain.StateTicketSubject:    h.onTicketSubject,
		domain.StateTicketMessage:    h.onTicketMessage,
		domain.StateEmailInput:       h.onEmail,
		domain.StateAdminTicketReply: h.onAdminReply,
	}
	return h
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	h.bot.Use(middleware.Recover(h.logger), middleware.EnsureUser(h.authService, h.logger))

	// Commands
	h.bot.Handle("/start", h.handleStart)
	h.bot.Handle("/cancel", h.handleCancel)
	h.bot.Handle("/ticket", h.handleNewTicket)
	h.bot.Handle("/email", h.handleSetEmail)

	// Text messages
	h.bot.Handle(tele.OnText, h.handleText)

	// Callback queries (inline buttons)
	h.bot.Handle(&btnCancel, h.handleCancel)
	h.bot.Handle(&btnNewTicket, h.handleNewTicket)
	h.bot.Handle(&btnSetEmail, h.handleSetEmail)
	h.bot.Handle(&btnLanguage, h.handleToggleLanguage)

	admin := h.bot.Group()
	admin.Use(middleware.AdminOnly(h.authService, h.logger))
	admin.Handle("/admin", h.handleAdmin)
	admin.Handle(&btnAdminPanel, h.handleAdmin)
	admin.Handle(&btnAdminTickets, h.handleAdminTickets)
	admin.Handle(&btnAdminBack, h.handleAdminBack)
	admin.Handle(&btnAdminLanguage, h.handleAdminLanguage)
	admin.Handle(&btnAdminClose, h.handleAdminClose)
	admin.Handle(&btnReply, h.handleReplyButton)

	// Generic callback handler for dynamic data
	h.bot.Handle(tele.OnCallback, h.handleCallback)
}

// language returns user's language, falling back to the default on error
func (h *Handler) language(ctx context.Context, userID int64) string {
	lang, err := h.userService.Language(ctx, userID)
	if err != nil {
		h.logger.Warn("Failed to get user language", zap.Int64("user_id", userID), zap.Error(err))
	}
	return lang
}

// send delivers text to a private chat through the messenger
func (h *Handler) send(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) (messenger.Message, error) {
	var opts *messenger.SendOptions
	if markup != nil {
		opts = &messenger.SendOptions{ReplyMarkup: markup}
	}
	msg, err := h.msgr.SendMessage(ctx, chatID, text, opts)
	if err != nil {
		h.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return msg, err
}

// respond acknowledges a callback query, if the update is one
func (h *Handler) respond(c tele.Context, resp ...*tele.CallbackResponse) {
	if c.Callback() == nil {
		return
	}
	if err := c.Respond(resp...); err != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(err))
	}
}

// Inline keyboard buttons
var (
	btnNewTicket     = tele.Btn{Unique: "new_ticket"}
	btnSetEmail      = tele.Btn{Unique: "set_email"}
	btnLanguage      = tele.Btn{Unique: "toggle_lang"}
	btnCancel        = tele.Btn{Unique: "cancel"}
	btnAdminPanel    = tele.Btn{Unique: "admin_panel"}
	btnAdminTickets  = tele.Btn{Unique: "admin_tickets"}
	btnAdminBack     = tele.Btn{Unique: "admin_back"}
	btnAdminLanguage = tele.Btn{Unique: "admin_lang"}
	btnAdminClose    = tele.Btn{Unique: "admin_close"}
	btnReply         = tele.Btn{Unique: "reply"}
)

// mainMenuMarkup returns the main menu keyboard
func mainMenuMarkup(lang string, isAdmin bool) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	rows := []tele.Row{
		menu.Row(menu.Data(tr(lang, "btn_new_ticket"), btnNewTicket.Unique)),
		menu.Row(menu.Data(tr(lang, "btn_set_email"), btnSetEmail.Unique)),
		menu.Row(menu.Data(tr(lang, "btn_language"), btnLanguage.Unique)),
	}
	if isAdmin {
		rows = append(rows, menu.Row(menu.Data(tr(lang, "btn_admin_panel"), btnAdminPanel.Unique)))
	}
	menu.Inline(rows...)
	return menu
}

// cancelMarkup returns the keyboard attached to conversation prompts
func cancelMarkup(lang string) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(menu.Data(tr(lang, "btn_cancel"), btnCancel.Unique)))
	return menu
}
