package domain

import (
	"encoding/json"
	"time"
)

// StateName identifies the active step of a multi-step conversation
type StateName string

const (
	StateTicketSubject    StateName = "ticket_subject_input"
	StateTicketMessage    StateName = "ticket_message_input"
	StateEmailInput       StateName = "email_input"
	StateAdminTicketReply StateName = "admin_ticket_reply"
)

// Well-known keys of UserState.Data
const (
	DataCleanupMessageIDs = "cleanup_message_ids"
	DataTicketSubject     = "ticket_subject"
	DataTicketID          = "ticket_id"
)

// UserState is the single in-progress conversation of one user
type UserState struct {
	UserID       int64          `json:"-"`
	State        StateName      `json:"state"`
	Data         map[string]any `json:"data"`
	SessionToken string         `json:"session_token"`
	CreatedAt    time.Time      `json:"created_at"`
}

// CleanupMessageIDs returns the tracked message ids in insertion order.
// The second result is false when the payload carries no cleanup list at all.
func (s *UserState) CleanupMessageIDs() ([]int, bool) {
	if s == nil || s.Data == nil {
		return nil, false
	}
	raw, ok := s.Data[DataCleanupMessageIDs]
	if !ok || raw == nil {
		return nil, false
	}

	switch v := raw.(type) {
	case []int:
		return append([]int{}, v...), true
	case []any:
		ids := make([]int, 0, len(v))
		for _, item := range v {
			if id, ok := toInt64(item); ok {
				ids = append(ids, int(id))
			}
		}
		return ids, true
	default:
		return nil, false
	}
}

// SetCleanupMessageIDs replaces the tracked message ids
func (s *UserState) SetCleanupMessageIDs(ids []int) {
	if s.Data == nil {
		s.Data = make(map[string]any)
	}
	s.Data[DataCleanupMessageIDs] = append([]int{}, ids...)
}

// Int64 reads an integer value from Data regardless of how it was decoded
func (s *UserState) Int64(key string) (int64, bool) {
	if s == nil || s.Data == nil {
		return 0, false
	}
	return toInt64(s.Data[key])
}

// String reads a string value from Data
func (s *UserState) String(key string) string {
	if s == nil || s.Data == nil {
		return ""
	}
	v, _ := s.Data[key].(string)
	return v
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
