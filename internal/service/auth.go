package service

import (
	"context"

	"supportbot/internal/repository"
)

// AuthService handles user registration and admin checks
type AuthService struct {
	userRepo repository.UserRepository
	adminIDs []int64
	admins   map[int64]struct{}
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, adminIDs []int64) *AuthService {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &AuthService{
		userRepo: userRepo,
		adminIDs: append([]int64(nil), adminIDs...),
		admins:   admins,
	}
}

// IsAdmin reports whether user is a configured admin
func (s *AuthService) IsAdmin(userID int64) bool {
	_, ok := s.admins[userID]
	return ok
}

// AdminIDs returns configured admins in configuration order
func (s *AuthService) AdminIDs() []int64 {
	return append([]int64(nil), s.adminIDs...)
}

// EnsureUserExists creates user record if doesn't exist
func (s *AuthService) EnsureUserExists(ctx context.Context, userID int64) error {
	return s.userRepo.EnsureUserExists(ctx, userID)
}
