package messenger

import (
	"context"
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v3"
)

// Telebot implements Messenger with a telebot bot.
// telebot calls are not context-aware, ctx is only checked before each call.
type Telebot struct {
	bot *tele.Bot
}

// NewTelebot creates a messenger backed by bot
func NewTelebot(bot *tele.Bot) *Telebot {
	return &Telebot{bot: bot}
}

// SendMessage sends text to chatID
func (t *Telebot) SendMessage(ctx context.Context, chatID int64, text string, opts *SendOptions) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}

	sent, err := t.bot.Send(tele.ChatID(chatID), text, toSendOptions(opts))
	if err != nil {
		return Message{}, fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return FromTele(sent), nil
}

// EditMessage replaces text and markup of an existing message
func (t *Telebot) EditMessage(ctx context.Context, chatID int64, messageID int, text string, opts *SendOptions) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}

	stored := tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}
	edited, err := t.bot.Edit(stored, text, toSendOptions(opts))
	if err != nil {
		return Message{}, fmt.Errorf("edit message %d in %d: %w", messageID, chatID, err)
	}
	return FromTele(edited), nil
}

// DeleteMessages removes a batch of messages with one deleteMessages request
func (t *Telebot) DeleteMessages(ctx context.Context, chatID int64, messageIDs []int) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if len(messageIDs) > MaxDeleteBatch {
		return fmt.Errorf("delete batch of %d exceeds limit %d", len(messageIDs), MaxDeleteBatch)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := map[string]any{
		"chat_id":     chatID,
		"message_ids": messageIDs,
	}
	if _, err := t.bot.Raw("deleteMessages", params); err != nil {
		return fmt.Errorf("delete messages in %d: %w", chatID, err)
	}
	return nil
}

func toSendOptions(opts *SendOptions) *tele.SendOptions {
	out := &tele.SendOptions{}
	if opts == nil {
		return out
	}
	out.ReplyMarkup = opts.ReplyMarkup
	out.ParseMode = opts.ParseMode
	return out
}
