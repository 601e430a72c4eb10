package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestUserRepo_EnsureUserExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepo(db)

	userID := int64(123)

	mock.ExpectExec("INSERT INTO users").
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.EnsureUserExists(context.Background(), userID)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetLanguage(t *testing.T) {
	tests := []struct {
		name          string
		userID        int64
		mockRows      *sqlmock.Rows
		mockError     error
		expected      string
		expectedError bool
	}{
		{
			name:          "english user",
			userID:        123,
			mockRows:      sqlmock.NewRows([]string{"language"}).AddRow("en"),
			expected:      "en",
			expectedError: false,
		},
		{
			name:          "user not exists",
			userID:        789,
			mockError:     sql.ErrNoRows,
			expected:      "",
			expectedError: false,
		},
		{
			name:          "database error",
			userID:        1,
			mockError:     fmt.Errorf("connection reset"),
			expected:      "",
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			assert.NoError(t, err)
			defer db.Close()

			repo := NewUserRepo(db)

			query := "SELECT language FROM users WHERE user_id = \\$1"

			if tt.mockError != nil {
				mock.ExpectQuery(query).WithArgs(tt.userID).WillReturnError(tt.mockError)
			} else {
				mock.ExpectQuery(query).WithArgs(tt.userID).WillReturnRows(tt.mockRows)
			}

			language, err := repo.GetLanguage(context.Background(), tt.userID)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, language)

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepo_GetUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepo(db)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery("SELECT user_id, language").
		WithArgs(int64(123)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "language", "email", "created_at"}).
			AddRow(123, "ru", "a@b.c", created))

	user, err := repo.GetUser(context.Background(), 123)

	assert.NoError(t, err)
	assert.NotNil(t, user)
	assert.Equal(t, int64(123), user.UserID)
	assert.Equal(t, "ru", user.Language)
	assert.Equal(t, "a@b.c", user.Email)
	assert.Equal(t, created, user.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetUserNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepo(db)

	mock.ExpectQuery("SELECT user_id, language").
		WithArgs(int64(5)).
		WillReturnError(sql.ErrNoRows)

	user, err := repo.GetUser(context.Background(), 5)

	assert.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_SetLanguage(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepo(db)

	mock.ExpectExec("INSERT INTO users").
		WithArgs(int64(123), "en").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.SetLanguage(context.Background(), 123, "en")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_SetEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepo(db)

	mock.ExpectExec("UPDATE users SET email").
		WithArgs(int64(123), "user@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.SetEmail(context.Background(), 123, "user@example.com")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
