package testutil

import (
	"time"

	"supportbot/internal/domain"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestUser creates a test user
func NewTestUser(userID int64, language string) *domain.User {
	return &domain.User{
		UserID:    userID,
		Language:  language,
		CreatedAt: time.Now(),
	}
}

// NewTestTicket creates an open test ticket
func NewTestTicket(id, userID int64, subject, message string) *domain.Ticket {
	return &domain.Ticket{
		ID:        id,
		UserID:    userID,
		Subject:   subject,
		Message:   message,
		Status:    domain.TicketOpen,
		CreatedAt: time.Now(),
	}
}
