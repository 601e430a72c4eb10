package middleware

import (
	"fmt"
	"testing"

	"supportbot/internal/service"
	"supportbot/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
)

func newTestContext(t *testing.T, userID int64, text string) tele.Context {
	t.Helper()
	bot, err := tele.NewBot(tele.Settings{Token: "test", Offline: true})
	require.NoError(t, err)

	return bot.NewContext(tele.Update{
		Message: &tele.Message{
			ID:     1,
			Sender: &tele.User{ID: userID},
			Chat:   &tele.Chat{ID: userID},
			Text:   text,
		},
	})
}

func TestAdminOnly(t *testing.T) {
	tests := []struct {
		name       string
		userID     int64
		expectNext bool
	}{
		{name: "admin passes", userID: 100, expectNext: true},
		{name: "user rejected", userID: 42, expectNext: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := service.NewAuthService(new(testutil.MockUserRepository), []int64{100})
			called := false
			handler := AdminOnly(auth, testutil.NewTestLogger())(func(c tele.Context) error {
				called = true
				return nil
			})

			err := handler(newTestContext(t, tt.userID, "/admin"))
			assert.NoError(t, err)
			assert.Equal(t, tt.expectNext, called)
		})
	}
}

func TestEnsureUser(t *testing.T) {
	tests := []struct {
		name      string
		mockError error
	}{
		{name: "user ensured", mockError: nil},
		{name: "database error still handled", mockError: fmt.Errorf("db error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(testutil.MockUserRepository)
			repo.On("EnsureUserExists", mock.Anything, int64(42)).Return(tt.mockError)
			auth := service.NewAuthService(repo, nil)

			called := false
			handler := EnsureUser(auth, testutil.NewTestLogger())(func(c tele.Context) error {
				called = true
				return nil
			})

			assert.NoError(t, handler(newTestContext(t, 42, "hi")))
			assert.True(t, called)
			repo.AssertExpectations(t)
		})
	}
}

func TestRecover(t *testing.T) {
	handler := Recover(testutil.NewTestLogger())(func(c tele.Context) error {
		panic("boom")
	})

	var err error
	assert.NotPanics(t, func() {
		err = handler(newTestContext(t, 42, "hi"))
	})
	assert.ErrorContains(t, err, "boom")
}
