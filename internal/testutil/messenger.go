package testutil

import (
	"context"
	"errors"
	"sync"

	"supportbot/internal/messenger"
)

// ErrFakeDelete is returned by FakeMessenger for batches marked to fail
var ErrFakeDelete = errors.New("fake: message can't be deleted")

// SentMessage records an outgoing or edited message
type SentMessage struct {
	ChatID int64
	ID     int
	Text   string
	Opts   *messenger.SendOptions
}

// DeleteCall records one DeleteMessages invocation
type DeleteCall struct {
	ChatID int64
	IDs    []int
	Err    error
}

// FakeMessenger is an in-memory messenger.Messenger that records every call
type FakeMessenger struct {
	mu sync.Mutex

	nextID      int
	sent        []SentMessage
	edited      []SentMessage
	deletes     []DeleteCall
	calls       []string
	failDelete  map[int]bool
	failSends   int
	sendErr     error
	deleteHooks []func(ids []int)
}

// NewFakeMessenger creates a fake whose first sent message gets id firstID
func NewFakeMessenger(firstID int) *FakeMessenger {
	return &FakeMessenger{
		nextID:     firstID,
		failDelete: make(map[int]bool),
	}
}

// FailDeleteFor makes any delete batch containing one of ids fail
func (f *FakeMessenger) FailDeleteFor(ids ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.failDelete[id] = true
	}
}

// FailNextSends makes the next n SendMessage calls return err
func (f *FakeMessenger) FailNextSends(n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSends = n
	f.sendErr = err
}

// OnDelete registers a hook called with each delete batch
func (f *FakeMessenger) OnDelete(hook func(ids []int)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteHooks = append(f.deleteHooks, hook)
}

// SendMessage implements messenger.Messenger
func (f *FakeMessenger) SendMessage(_ context.Context, chatID int64, text string, opts *messenger.SendOptions) (messenger.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, "send")
	if f.failSends > 0 {
		f.failSends--
		return messenger.Message{}, f.sendErr
	}

	msg := messenger.Message{ID: f.nextID, ChatID: chatID}
	f.nextID++
	f.sent = append(f.sent, SentMessage{ChatID: chatID, ID: msg.ID, Text: text, Opts: opts})
	return msg, nil
}

// EditMessage implements messenger.Messenger
func (f *FakeMessenger) EditMessage(_ context.Context, chatID int64, messageID int, text string, opts *messenger.SendOptions) (messenger.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, "edit")
	f.edited = append(f.edited, SentMessage{ChatID: chatID, ID: messageID, Text: text, Opts: opts})
	return messenger.Message{ID: messageID, ChatID: chatID}, nil
}

// DeleteMessages implements messenger.Messenger
func (f *FakeMessenger) DeleteMessages(_ context.Context, chatID int64, messageIDs []int) error {
	f.mu.Lock()
	ids := append([]int(nil), messageIDs...)
	f.calls = append(f.calls, "delete")

	var err error
	for _, id := range ids {
		if f.failDelete[id] {
			err = ErrFakeDelete
			break
		}
	}
	f.deletes = append(f.deletes, DeleteCall{ChatID: chatID, IDs: ids, Err: err})
	hooks := append([]func([]int){}, f.deleteHooks...)
	f.mu.Unlock()

	for _, hook := range hooks {
		hook(ids)
	}
	return err
}

// Sent returns all successfully sent messages
func (f *FakeMessenger) Sent() []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SentMessage(nil), f.sent...)
}

// Edited returns all edits
func (f *FakeMessenger) Edited() []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SentMessage(nil), f.edited...)
}

// DeleteCalls returns every delete invocation, failed ones included
func (f *FakeMessenger) DeleteCalls() []DeleteCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]DeleteCall(nil), f.deletes...)
}

// DeletedIDs returns ids from delete batches that succeeded
func (f *FakeMessenger) DeletedIDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int
	for _, call := range f.deletes {
		if call.Err == nil {
			ids = append(ids, call.IDs...)
		}
	}
	return ids
}

// RequestedDeleteIDs returns ids from all delete batches
func (f *FakeMessenger) RequestedDeleteIDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int
	for _, call := range f.deletes {
		ids = append(ids, call.IDs...)
	}
	return ids
}

// Calls returns the ordered call log ("send", "edit", "delete")
func (f *FakeMessenger) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
