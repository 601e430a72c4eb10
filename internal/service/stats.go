package service

import (
	"context"

	"supportbot/internal/metrics"
	"supportbot/internal/repository"

	"go.uber.org/zap"
)

// PanelStats is the summary shown on the admin panel
type PanelStats struct {
	OpenTickets int
}

// StatsService collects admin panel statistics
type StatsService struct {
	ticketRepo repository.TicketRepository
	logger     *zap.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(ticketRepo repository.TicketRepository, logger *zap.Logger) *StatsService {
	return &StatsService{
		ticketRepo: ticketRepo,
		logger:     logger,
	}
}

// PanelStats returns counters for the admin panel. A failed query is logged
// and yields zero counters so the panel can still be shown.
func (s *StatsService) PanelStats(ctx context.Context) PanelStats {
	open, err := s.ticketRepo.CountOpenTickets(ctx)
	if err != nil {
		s.logger.Error("Failed to count open tickets", zap.Error(err))
		return PanelStats{}
	}
	metrics.SetOpenTickets(open)
	return PanelStats{OpenTickets: open}
}

// RefreshOpenTickets updates the open tickets gauge
func (s *StatsService) RefreshOpenTickets(ctx context.Context) error {
	open, err := s.ticketRepo.CountOpenTickets(ctx)
	if err != nil {
		return err
	}
	metrics.SetOpenTickets(open)
	return nil
}
