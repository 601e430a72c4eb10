package messenger

import (
	"context"

	tele "gopkg.in/telebot.v3"
)

// Message identifies a chat message
type Message struct {
	ID     int
	ChatID int64
}

// SendOptions carries optional formatting for outgoing messages
type SendOptions struct {
	ReplyMarkup *tele.ReplyMarkup
	ParseMode   tele.ParseMode
}

// Messenger is the subset of the chat API the bot core depends on
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts *SendOptions) (Message, error)
	EditMessage(ctx context.Context, chatID int64, messageID int, text string, opts *SendOptions) (Message, error)
	// DeleteMessages deletes up to MaxDeleteBatch messages in a single call
	DeleteMessages(ctx context.Context, chatID int64, messageIDs []int) error
}

// MaxDeleteBatch is the Telegram limit for one deleteMessages call
const MaxDeleteBatch = 100

// FromTele converts a telebot message
func FromTele(m *tele.Message) Message {
	if m == nil {
		return Message{}
	}
	msg := Message{ID: m.ID}
	if m.Chat != nil {
		msg.ChatID = m.Chat.ID
	}
	return msg
}
