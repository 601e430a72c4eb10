package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"supportbot/internal/domain"
	"supportbot/internal/messenger"
	"supportbot/internal/metrics"
	"supportbot/internal/state"
	"supportbot/internal/tasks"

	"go.uber.org/zap"
)

// DefaultCleanupDelay gives the user time to read the last message before a sweep
const DefaultCleanupDelay = 2 * time.Second

// ErrNotTracking means the active state was not started with StartConversation
var ErrNotTracking = errors.New("conversation does not track messages")

// Engine keeps multi-step conversations from leaving clutter in the chat.
// Message ids produced during a flow are recorded in the user's state and
// swept when the flow completes, is cancelled or restarts.
type Engine struct {
	states *state.Store
	msgr   messenger.Messenger
	tasks  *tasks.Registry
	logger *zap.Logger

	sweepSeq atomic.Uint64
}

// NewEngine creates a conversation engine
func NewEngine(states *state.Store, msgr messenger.Messenger, registry *tasks.Registry, logger *zap.Logger) *Engine {
	return &Engine{
		states: states,
		msgr:   msgr,
		tasks:  registry,
		logger: logger,
	}
}

// StartConversation begins a trackable flow, replacing any previous state
func (e *Engine) StartConversation(ctx context.Context, userID int64, name domain.StateName, data map[string]any) error {
	payload := make(map[string]any, len(data)+1)
	for k, v := range data {
		payload[k] = v
	}
	payload[domain.DataCleanupMessageIDs] = []int{}

	if err := e.states.Set(ctx, userID, name, payload); err != nil {
		return fmt.Errorf("start conversation %s: %w", name, err)
	}
	return nil
}

// AdvanceConversation moves an active flow to its next step. data is merged
// into the current payload and tracked messages are kept.
func (e *Engine) AdvanceConversation(ctx context.Context, userID int64, name domain.StateName, data map[string]any) error {
	_, err := e.states.Update(ctx, userID, func(st *domain.UserState) error {
		if _, ok := st.CleanupMessageIDs(); !ok {
			return ErrNotTracking
		}
		st.State = name
		for k, v := range data {
			if k == domain.DataCleanupMessageIDs {
				continue
			}
			st.Data[k] = v
		}
		return nil
	})
	if err != nil {
		e.logger.Warn("Failed to advance conversation",
			zap.String("operation", "advance_conversation"),
			zap.Int64("user_id", userID),
			zap.String("state", string(name)),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// TrackBotMessage records an outgoing message of the current flow
func (e *Engine) TrackBotMessage(ctx context.Context, userID int64, msg messenger.Message) error {
	return e.track(ctx, userID, msg, "track_bot_message")
}

// TrackUserMessage records a message the user sent as part of the current flow
func (e *Engine) TrackUserMessage(ctx context.Context, userID int64, msg messenger.Message) error {
	return e.track(ctx, userID, msg, "track_user_message")
}

func (e *Engine) track(ctx context.Context, userID int64, msg messenger.Message, op string) error {
	_, err := e.states.Update(ctx, userID, func(st *domain.UserState) error {
		ids, ok := st.CleanupMessageIDs()
		if !ok {
			return ErrNotTracking
		}
		st.SetCleanupMessageIDs(append(ids, msg.ID))
		return nil
	})
	if err != nil {
		e.logger.Warn("Failed to track message",
			zap.String("operation", op),
			zap.Int64("user_id", userID),
			zap.Int("message_id", msg.ID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// CleanupConversation deletes the tracked messages of the current flow after
// delay. With keepLast the most recently tracked message is spared. Deletion is
// best-effort and the state itself is left untouched.
func (e *Engine) CleanupConversation(ctx context.Context, userID int64, keepLast bool, delay time.Duration) error {
	st, err := e.states.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("cleanup conversation: %w", err)
	}

	ids, _ := st.CleanupMessageIDs()
	if keepLast && len(ids) > 0 {
		ids = ids[:len(ids)-1]
	}
	if len(ids) == 0 {
		return nil
	}

	if err := sleep(ctx, delay); err != nil {
		return err
	}

	e.deleteBatches(ctx, userID, ids)
	return nil
}

// CancelConversation sweeps the flow's messages and clears the state.
// The state is cleared even when the sweep fails.
func (e *Engine) CancelConversation(ctx context.Context, userID int64, delay time.Duration) error {
	cleanupErr := e.CleanupConversation(ctx, userID, false, delay)
	if cleanupErr != nil {
		e.logger.Warn("Cleanup failed while cancelling conversation",
			zap.String("operation", "cancel_conversation"),
			zap.Int64("user_id", userID),
			zap.Error(cleanupErr),
		)
	}

	// the sweep may have been cut short by ctx, clearing must still happen
	if err := e.states.Clear(context.WithoutCancel(ctx), userID); err != nil {
		return errors.Join(cleanupErr, err)
	}
	return nil
}

// CompleteConversation finishes a flow: sweeps its messages and clears the state.
// finalMsg is not spared when it is tracked; use CleanupConversation with
// keepLast to keep a result message visible.
func (e *Engine) CompleteConversation(ctx context.Context, userID int64, finalMsg *messenger.Message, delay time.Duration) error {
	if finalMsg != nil {
		e.logger.Debug("Completing conversation",
			zap.Int64("user_id", userID),
			zap.Int("final_message_id", finalMsg.ID),
		)
	}
	return e.CancelConversation(ctx, userID, delay)
}

// CompleteConversationWithDelayedCleanup clears the state right away so the
// user's next input is not blocked, and sweeps the flow's messages in the
// background after delay.
func (e *Engine) CompleteConversationWithDelayedCleanup(ctx context.Context, userID int64, delay time.Duration) error {
	st, err := e.states.Get(ctx, userID)
	if err != nil {
		e.logger.Warn("Could not read tracked messages before completing",
			zap.String("operation", "complete_conversation_delayed"),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
	ids, _ := st.CleanupMessageIDs()

	if err := e.states.Clear(ctx, userID); err != nil {
		return fmt.Errorf("complete conversation: %w", err)
	}

	if len(ids) == 0 {
		return nil
	}

	key := fmt.Sprintf("sweep:%d:%d", userID, e.sweepSeq.Add(1))
	e.tasks.Schedule(key, delay, func(ctx context.Context) {
		e.deleteBatches(ctx, userID, ids)
	})
	return nil
}

// HandleInputError recovers from invalid input so that exactly one prompt is
// left in the chat: after delay every tracked message and errMsg are deleted
// and a fresh prompt is sent and tracked in their place. Messages tracked
// concurrently stay tracked. State name and the rest of the payload are
// preserved.
func (e *Engine) HandleInputError(ctx context.Context, userID int64, errMsg messenger.Message, promptText string, opts *messenger.SendOptions, delay time.Duration) (messenger.Message, error) {
	if err := e.TrackBotMessage(ctx, userID, errMsg); err != nil {
		return messenger.Message{}, fmt.Errorf("handle input error: %w", err)
	}

	if err := sleep(ctx, delay); err != nil {
		return messenger.Message{}, err
	}

	st, err := e.states.Get(ctx, userID)
	if err != nil {
		return messenger.Message{}, fmt.Errorf("handle input error: %w", err)
	}
	ids, _ := st.CleanupMessageIDs()

	stale := make([]int, 0, len(ids))
	for _, id := range ids {
		if id != errMsg.ID {
			stale = append(stale, id)
		}
	}
	e.deleteBatches(ctx, userID, stale)

	prompt, err := e.msgr.SendMessage(ctx, userID, promptText, opts)
	if err != nil {
		e.logger.Error("Failed to send prompt after input error",
			zap.String("operation", "handle_input_error"),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return messenger.Message{}, fmt.Errorf("send prompt: %w", err)
	}

	e.deleteBatches(ctx, userID, []int{errMsg.ID})

	// ids tracked while deleting and sending are kept
	handled := make(map[int]struct{}, len(stale)+1)
	for _, id := range stale {
		handled[id] = struct{}{}
	}
	handled[errMsg.ID] = struct{}{}

	_, err = e.states.Update(ctx, userID, func(st *domain.UserState) error {
		current, _ := st.CleanupMessageIDs()
		kept := make([]int, 0, len(current)+1)
		for _, id := range current {
			if _, ok := handled[id]; !ok {
				kept = append(kept, id)
			}
		}
		st.SetCleanupMessageIDs(append(kept, prompt.ID))
		return nil
	})
	if err != nil {
		e.logger.Warn("Failed to reset tracked messages",
			zap.String("operation", "handle_input_error"),
			zap.Int64("user_id", userID),
			zap.Int("prompt_id", prompt.ID),
			zap.Error(err),
		)
		return prompt, err
	}
	return prompt, nil
}

// RestartConversationStep wipes any tracked backlog immediately, starts a new
// flow in state name and sends its first prompt.
func (e *Engine) RestartConversationStep(ctx context.Context, userID int64, name domain.StateName, promptText string, opts *messenger.SendOptions, data map[string]any) (messenger.Message, error) {
	if err := e.CleanupConversation(ctx, userID, false, 0); err != nil {
		e.logger.Warn("Cleanup failed while restarting conversation",
			zap.String("operation", "restart_conversation_step"),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}

	if err := e.StartConversation(ctx, userID, name, data); err != nil {
		return messenger.Message{}, err
	}

	prompt, err := e.msgr.SendMessage(ctx, userID, promptText, opts)
	if err != nil {
		e.logger.Error("Failed to send conversation prompt",
			zap.String("operation", "restart_conversation_step"),
			zap.Int64("user_id", userID),
			zap.String("state", string(name)),
			zap.Error(err),
		)
		return messenger.Message{}, fmt.Errorf("send prompt: %w", err)
	}

	if err := e.TrackBotMessage(ctx, userID, prompt); err != nil {
		return prompt, err
	}
	return prompt, nil
}

// deleteBatches deletes ids in chunks of messenger.MaxDeleteBatch. A failing
// chunk is logged and the remaining chunks are still attempted.
func (e *Engine) deleteBatches(ctx context.Context, chatID int64, ids []int) {
	for start := 0; start < len(ids); start += messenger.MaxDeleteBatch {
		end := start + messenger.MaxDeleteBatch
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		if err := e.msgr.DeleteMessages(ctx, chatID, batch); err != nil {
			metrics.IncDeleteFailure()
			e.logger.Warn("Failed to delete messages",
				zap.Int64("user_id", chatID),
				zap.Ints("message_ids", batch),
				zap.Error(err),
			)
			continue
		}
		metrics.AddDeleted(len(batch))
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
