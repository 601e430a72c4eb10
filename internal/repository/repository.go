package repository

import (
	"context"

	"supportbot/internal/domain"
)

// UserRepository defines user data operations
type UserRepository interface {
	EnsureUserExists(ctx context.Context, userID int64) error
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	GetLanguage(ctx context.Context, userID int64) (string, error)
	SetLanguage(ctx context.Context, userID int64, language string) error
	SetEmail(ctx context.Context, userID int64, email string) error
}

// TicketRepository defines support ticket operations
type TicketRepository interface {
	CreateTicket(ctx context.Context, userID int64, subject, message string) (int64, error)
	GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error)
	ListOpenTickets(ctx context.Context, limit int) ([]domain.Ticket, error)
	CountOpenTickets(ctx context.Context) (int, error)
	CloseTicket(ctx context.Context, ticketID int64) error
	AddReply(ctx context.Context, ticketID, adminID int64, text string) error
}
