package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"supportbot/internal/domain"
)

// TicketRepo implements repository.TicketRepository
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo creates a new ticket repository
func NewTicketRepo(db *sql.DB) *TicketRepo {
	return &TicketRepo{db: db}
}

// CreateTicket opens a ticket and returns its id
func (r *TicketRepo) CreateTicket(ctx context.Context, userID int64, subject, message string) (int64, error) {
	query := `
		INSERT INTO tickets (user_id, subject, message, status)
		VALUES ($1, $2, $3, 'open')
		RETURNING id
	`
	var id int64
	if err := r.db.QueryRowContext(ctx, query, userID, subject, message).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// GetTicket returns a ticket or nil if not found
func (r *TicketRepo) GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	query := `SELECT id, user_id, subject, message, status, created_at, closed_at FROM tickets WHERE id = $1`

	var t domain.Ticket
	var closedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, ticketID).Scan(
		&t.ID, &t.UserID, &t.Subject, &t.Message, &t.Status, &t.CreatedAt, &closedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if closedAt.Valid {
		t.ClosedAt = &closedAt.Time
	}
	return &t, nil
}

// ListOpenTickets returns the oldest open tickets first
func (r *TicketRepo) ListOpenTickets(ctx context.Context, limit int) ([]domain.Ticket, error) {
	query := `
		SELECT id, user_id, subject, message, status, created_at
		FROM tickets
		WHERE status = 'open'
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.UserID, &t.Subject, &t.Message, &t.Status, &t.CreatedAt); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}

	return tickets, rows.Err()
}

// CountOpenTickets returns number of tickets waiting for an answer
func (r *TicketRepo) CountOpenTickets(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM tickets WHERE status = 'open'`
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CloseTicket marks a ticket closed
func (r *TicketRepo) CloseTicket(ctx context.Context, ticketID int64) error {
	query := `UPDATE tickets SET status = 'closed', closed_at = NOW() WHERE id = $1 AND status = 'open'`
	res, err := r.db.ExecContext(ctx, query, ticketID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("ticket %d is not open", ticketID)
	}
	return nil
}

// AddReply stores an admin answer
func (r *TicketRepo) AddReply(ctx context.Context, ticketID, adminID int64, text string) error {
	query := `
		INSERT INTO ticket_replies (ticket_id, admin_id, text)
		VALUES ($1, $2, $3)
	`
	_, err := r.db.ExecContext(ctx, query, ticketID, adminID, text)
	return err
}
