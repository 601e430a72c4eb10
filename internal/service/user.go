package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"supportbot/internal/domain"
	"supportbot/internal/repository"
)

// ErrInvalidEmail is returned for malformed email input
var ErrInvalidEmail = errors.New("invalid email address")

// UserService handles user profile settings
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Language returns user's language, falling back to the default
func (s *UserService) Language(ctx context.Context, userID int64) (string, error) {
	language, err := s.userRepo.GetLanguage(ctx, userID)
	if err != nil {
		return domain.DefaultLanguage, err
	}
	if language != domain.LanguageRU && language != domain.LanguageEN {
		return domain.DefaultLanguage, nil
	}
	return language, nil
}

// ToggleLanguage switches between supported languages and returns the new one
func (s *UserService) ToggleLanguage(ctx context.Context, userID int64) (string, error) {
	current, err := s.Language(ctx, userID)
	if err != nil {
		return current, err
	}

	next := domain.LanguageEN
	if current == domain.LanguageEN {
		next = domain.LanguageRU
	}
	if err := s.userRepo.SetLanguage(ctx, userID, next); err != nil {
		return current, err
	}
	return next, nil
}

// Email returns user's registered email, empty when none is set
func (s *UserService) Email(ctx context.Context, userID int64) (string, error) {
	user, err := s.userRepo.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", nil
	}
	return user.Email, nil
}

// RegisterEmail validates and stores user's email, returning the normalized address
func (s *UserService) RegisterEmail(ctx context.Context, userID int64, input string) (string, error) {
	email, err := NormalizeEmail(input)
	if err != nil {
		return "", err
	}
	if err := s.userRepo.SetEmail(ctx, userID, email); err != nil {
		return "", fmt.Errorf("save email: %w", err)
	}
	return email, nil
}

// NormalizeEmail checks that input is a bare address with a dotted domain
func NormalizeEmail(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" || len(input) > 254 {
		return "", ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(input)
	if err != nil || addr.Name != "" || addr.Address != input {
		return "", ErrInvalidEmail
	}

	at := strings.LastIndex(addr.Address, "@")
	domainPart := addr.Address[at+1:]
	if !strings.Contains(domainPart, ".") || strings.HasSuffix(domainPart, ".") {
		return "", ErrInvalidEmail
	}

	return strings.ToLower(addr.Address), nil
}
