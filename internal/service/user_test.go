package service

import (
	"context"
	"fmt"
	"testing"

	"supportbot/internal/domain"
	"supportbot/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestUserService_Language(t *testing.T) {
	tests := []struct {
		name         string
		stored       string
		mockError    error
		expectedLang string
		expectError  bool
	}{
		{name: "russian", stored: "ru", expectedLang: "ru"},
		{name: "english", stored: "en", expectedLang: "en"},
		{name: "unknown falls back", stored: "de", expectedLang: "ru"},
		{name: "missing user", stored: "", expectedLang: "ru"},
		{name: "db error", mockError: fmt.Errorf("db error"), expectedLang: "ru", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(testutil.MockUserRepository)
			mockRepo.On("GetLanguage", mock.Anything, int64(1)).Return(tt.stored, tt.mockError)

			service := NewUserService(mockRepo)
			lang, err := service.Language(context.Background(), 1)

			assert.Equal(t, tt.expectedLang, lang)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUserService_ToggleLanguage(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		expected string
	}{
		{name: "ru to en", current: "ru", expected: "en"},
		{name: "en to ru", current: "en", expected: "ru"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(testutil.MockUserRepository)
			mockRepo.On("GetLanguage", mock.Anything, int64(1)).Return(tt.current, nil)
			mockRepo.On("SetLanguage", mock.Anything, int64(1), tt.expected).Return(nil)

			service := NewUserService(mockRepo)
			lang, err := service.ToggleLanguage(context.Background(), 1)

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, lang)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_ToggleLanguageSaveError(t *testing.T) {
	mockRepo := new(testutil.MockUserRepository)
	mockRepo.On("GetLanguage", mock.Anything, int64(1)).Return("ru", nil)
	mockRepo.On("SetLanguage", mock.Anything, int64(1), "en").Return(fmt.Errorf("db error"))

	service := NewUserService(mockRepo)
	lang, err := service.ToggleLanguage(context.Background(), 1)

	assert.Error(t, err)
	assert.Equal(t, "ru", lang)
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		valid    bool
	}{
		{name: "plain", input: "user@example.com", expected: "user@example.com", valid: true},
		{name: "trimmed and lowered", input: "  User@Example.COM ", expected: "user@example.com", valid: true},
		{name: "subdomain", input: "a.b@mail.example.org", expected: "a.b@mail.example.org", valid: true},
		{name: "empty", input: "", valid: false},
		{name: "no at", input: "userexample.com", valid: false},
		{name: "no dot in domain", input: "user@localhost", valid: false},
		{name: "trailing dot", input: "user@example.", valid: false},
		{name: "display name", input: "User <user@example.com>", valid: false},
		{name: "spaces", input: "us er@example.com", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, err := NormalizeEmail(tt.input)
			if tt.valid {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, email)
			} else {
				assert.ErrorIs(t, err, ErrInvalidEmail)
			}
		})
	}
}

func TestUserService_RegisterEmail(t *testing.T) {
	mockRepo := new(testutil.MockUserRepository)
	mockRepo.On("SetEmail", mock.Anything, int64(1), "user@example.com").Return(nil)

	service := NewUserService(mockRepo)
	email, err := service.RegisterEmail(context.Background(), 1, "User@Example.com")

	assert.NoError(t, err)
	assert.Equal(t, "user@example.com", email)
	mockRepo.AssertExpectations(t)
}

func TestUserService_RegisterEmailInvalid(t *testing.T) {
	mockRepo := new(testutil.MockUserRepository)

	service := NewUserService(mockRepo)
	_, err := service.RegisterEmail(context.Background(), 1, "nope")

	assert.ErrorIs(t, err, ErrInvalidEmail)
	mockRepo.AssertNotCalled(t, "SetEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_Email(t *testing.T) {
	withEmail := testutil.NewTestUser(1, "ru")
	withEmail.Email = "user@example.com"

	tests := []struct {
		name        string
		user        *domain.User
		mockError   error
		expected    string
		expectError bool
	}{
		{name: "registered", user: withEmail, expected: "user@example.com"},
		{name: "no email", user: testutil.NewTestUser(1, "ru"), expected: ""},
		{name: "unknown user", user: nil, expected: ""},
		{name: "db error", mockError: fmt.Errorf("db error"), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(testutil.MockUserRepository)
			mockRepo.On("GetUser", mock.Anything, int64(1)).Return(tt.user, tt.mockError)

			service := NewUserService(mockRepo)
			email, err := service.Email(context.Background(), 1)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, email)
		})
	}
}
