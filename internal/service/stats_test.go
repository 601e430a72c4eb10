package service

import (
	"context"
	"fmt"
	"testing"

	"supportbot/internal/metrics"
	"supportbot/internal/testutil"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestStatsService_PanelStats(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		mockError error
		expected  PanelStats
	}{
		{
			name:     "open tickets counted",
			count:    3,
			expected: PanelStats{OpenTickets: 3},
		},
		{
			name:      "database error yields zero",
			mockError: fmt.Errorf("db error"),
			expected:  PanelStats{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(testutil.MockTicketRepository)
			mockRepo.On("CountOpenTickets", mock.Anything).Return(tt.count, tt.mockError)

			service := NewStatsService(mockRepo, testutil.NewTestLogger())
			stats := service.PanelStats(context.Background())

			assert.Equal(t, tt.expected, stats)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestStatsService_RefreshOpenTickets(t *testing.T) {
	mockRepo := new(testutil.MockTicketRepository)
	mockRepo.On("CountOpenTickets", mock.Anything).Return(4, nil).Once()
	mockRepo.On("CountOpenTickets", mock.Anything).Return(0, fmt.Errorf("db error")).Once()

	service := NewStatsService(mockRepo, testutil.NewTestLogger())

	assert.NoError(t, service.RefreshOpenTickets(context.Background()))
	assert.Equal(t, float64(4), promtest.ToFloat64(metrics.OpenTickets))

	assert.Error(t, service.RefreshOpenTickets(context.Background()))
	assert.Equal(t, float64(4), promtest.ToFloat64(metrics.OpenTickets))
}
