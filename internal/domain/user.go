package domain

import "time"

// User represents a bot user
type User struct {
	UserID    int64
	Language  string
	Email     string
	CreatedAt time.Time
}

// Supported interface languages
const (
	LanguageRU = "ru"
	LanguageEN = "en"

	DefaultLanguage = LanguageRU
)
