package domain

import "time"

// TicketStatus describes ticket lifecycle
type TicketStatus string

const (
	TicketOpen   TicketStatus = "open"
	TicketClosed TicketStatus = "closed"
)

// Ticket represents a support request opened by a user
type Ticket struct {
	ID        int64
	UserID    int64
	Subject   string
	Message   string
	Status    TicketStatus
	CreatedAt time.Time
	ClosedAt  *time.Time
}

// TicketReply is an admin answer to a ticket
type TicketReply struct {
	ID        int64
	TicketID  int64
	AdminID   int64
	Text      string
	CreatedAt time.Time
}
