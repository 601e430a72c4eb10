package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"supportbot/internal/domain"
	"supportbot/internal/repository"
)

// Ticket input limits, in characters
const (
	SubjectMinLen = 5
	SubjectMaxLen = 100
	MessageMinLen = 10
	MessageMaxLen = 2000
)

var (
	// ErrSubjectLength is returned when a subject is outside SubjectMinLen..SubjectMaxLen
	ErrSubjectLength = errors.New("ticket subject length out of range")
	// ErrMessageLength is returned when a message is outside MessageMinLen..MessageMaxLen
	ErrMessageLength = errors.New("ticket message length out of range")
	// ErrTicketNotFound is returned for unknown ticket ids
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrTicketClosed is returned when replying to a closed ticket
	ErrTicketClosed = errors.New("ticket already closed")
)

// TicketService handles support ticket logic
type TicketService struct {
	ticketRepo repository.TicketRepository
}

// NewTicketService creates a new ticket service
func NewTicketService(ticketRepo repository.TicketRepository) *TicketService {
	return &TicketService{ticketRepo: ticketRepo}
}

// ValidateSubject checks subject length
func (s *TicketService) ValidateSubject(subject string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(subject))
	if n < SubjectMinLen || n > SubjectMaxLen {
		return ErrSubjectLength
	}
	return nil
}

// ValidateMessage checks message length
func (s *TicketService) ValidateMessage(message string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(message))
	if n < MessageMinLen || n > MessageMaxLen {
		return ErrMessageLength
	}
	return nil
}

// CreateTicket validates input and opens a ticket
func (s *TicketService) CreateTicket(ctx context.Context, userID int64, subject, message string) (*domain.Ticket, error) {
	if err := s.ValidateSubject(subject); err != nil {
		return nil, err
	}
	if err := s.ValidateMessage(message); err != nil {
		return nil, err
	}

	subject = strings.TrimSpace(subject)
	message = strings.TrimSpace(message)

	id, err := s.ticketRepo.CreateTicket(ctx, userID, subject, message)
	if err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	return &domain.Ticket{
		ID:      id,
		UserID:  userID,
		Subject: subject,
		Message: message,
		Status:  domain.TicketOpen,
	}, nil
}

// OpenTickets returns up to limit open tickets
func (s *TicketService) OpenTickets(ctx context.Context, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.ticketRepo.ListOpenTickets(ctx, limit)
}

// GetOpenTicket returns an open ticket by id
func (s *TicketService) GetOpenTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.ticketRepo.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	if ticket.Status != domain.TicketOpen {
		return nil, ErrTicketClosed
	}
	return ticket, nil
}

// Reply stores an admin answer and closes the ticket
func (s *TicketService) Reply(ctx context.Context, ticketID, adminID int64, text string) (*domain.Ticket, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrMessageLength
	}

	ticket, err := s.GetOpenTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if err := s.ticketRepo.AddReply(ctx, ticketID, adminID, text); err != nil {
		return nil, fmt.Errorf("add reply: %w", err)
	}
	if err := s.ticketRepo.CloseTicket(ctx, ticketID); err != nil {
		return nil, fmt.Errorf("close ticket: %w", err)
	}

	ticket.Status = domain.TicketClosed
	return ticket, nil
}
