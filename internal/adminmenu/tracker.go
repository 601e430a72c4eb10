package adminmenu

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"supportbot/internal/kv"
	"supportbot/internal/messenger"
	"supportbot/internal/metrics"
	"supportbot/internal/tasks"

	"go.uber.org/zap"
)

const (
	// MenuTTL bounds how long a menu pointer is remembered
	MenuTTL = 24 * time.Hour
	// DefaultAutoMenuDelay is the pause between a notification and the reopened panel
	DefaultAutoMenuDelay = 3 * time.Second
	// DefaultCleanupDelay is the pause before an admin's own reply is deleted
	DefaultCleanupDelay = 2 * time.Second
)

// PanelFunc builds the admin's main panel at the time it is shown
type PanelFunc func(ctx context.Context, adminID int64) (string, *messenger.SendOptions, error)

// Tracker keeps at most one live menu message per admin. Showing a new menu
// deletes the previous one first, like switching a browser tab.
type Tracker struct {
	kv     kv.Store
	msgr   messenger.Messenger
	tasks  *tasks.Registry
	panel  PanelFunc
	logger *zap.Logger
}

// NewTracker creates a menu tracker. panel is used to reopen the main panel
// after notifications.
func NewTracker(store kv.Store, msgr messenger.Messenger, registry *tasks.Registry, panel PanelFunc, logger *zap.Logger) *Tracker {
	return &Tracker{
		kv:     store,
		msgr:   msgr,
		tasks:  registry,
		panel:  panel,
		logger: logger,
	}
}

// Key returns the KV key of an admin's menu pointer
func Key(adminID int64) string {
	return fmt.Sprintf("admin_last_menu:%d", adminID)
}

func autoMenuTask(adminID int64) string {
	return fmt.Sprintf("auto_menu:%d", adminID)
}

// TrackAdminMenu remembers msg as the admin's current menu, replacing any previous pointer
func (t *Tracker) TrackAdminMenu(ctx context.Context, adminID int64, msg messenger.Message) error {
	value := []byte(strconv.Itoa(msg.ID))
	if err := t.kv.Set(ctx, Key(adminID), value, MenuTTL); err != nil {
		metrics.IncStoreError("track_menu")
		t.logger.Error("Failed to track admin menu",
			zap.String("operation", "track_admin_menu"),
			zap.Int64("admin_id", adminID),
			zap.Int("message_id", msg.ID),
			zap.Error(err),
		)
		return fmt.Errorf("track admin menu: %w", err)
	}
	return nil
}

// UpdateMenuWithoutCleanup records msg as current menu for in-place navigation
// where the message was edited rather than replaced.
func (t *Tracker) UpdateMenuWithoutCleanup(ctx context.Context, adminID int64, msg messenger.Message) error {
	return t.TrackAdminMenu(ctx, adminID, msg)
}

// LastMenuID returns the tracked menu message id. found is false when nothing is tracked.
func (t *Tracker) LastMenuID(ctx context.Context, adminID int64) (id int, found bool, err error) {
	raw, err := t.kv.Get(ctx, Key(adminID))
	if errors.Is(err, kv.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		metrics.IncStoreError("get_menu")
		t.logger.Error("Failed to read admin menu pointer",
			zap.String("operation", "get_last_menu_id"),
			zap.Int64("admin_id", adminID),
			zap.Error(err),
		)
		return 0, false, fmt.Errorf("get admin menu: %w", err)
	}

	id, convErr := strconv.Atoi(strings.TrimSpace(string(raw)))
	if convErr != nil {
		t.logger.Warn("Discarding corrupt admin menu pointer",
			zap.Int64("admin_id", adminID),
			zap.String("value", string(raw)),
		)
		return 0, false, nil
	}
	return id, true, nil
}

// ClearLastMenu forgets the admin's menu and cancels a pending panel reopen
func (t *Tracker) ClearLastMenu(ctx context.Context, adminID int64) error {
	t.tasks.Cancel(autoMenuTask(adminID))

	if err := t.kv.Delete(ctx, Key(adminID)); err != nil {
		metrics.IncStoreError("clear_menu")
		t.logger.Error("Failed to clear admin menu pointer",
			zap.String("operation", "clear_last_menu"),
			zap.Int64("admin_id", adminID),
			zap.Error(err),
		)
		return fmt.Errorf("clear admin menu: %w", err)
	}
	return nil
}

// ReplaceAdminMenu deletes the admin's previous menu, sends a new one and
// tracks it. Failure to delete the old menu is tolerated. If the pointer
// lookup or the send fails, the message is sent again without the cleanup
// step so the admin is never left without a menu.
func (t *Tracker) ReplaceAdminMenu(ctx context.Context, adminID int64, text string, opts *messenger.SendOptions) (messenger.Message, error) {
	msg, err := t.replace(ctx, adminID, text, opts)
	if err == nil {
		metrics.IncMenuReplacement("replaced")
		return msg, nil
	}

	t.logger.Warn("Menu replacement failed, sending without cleanup",
		zap.String("operation", "replace_admin_menu"),
		zap.Int64("admin_id", adminID),
		zap.Error(err),
	)

	msg, err = t.msgr.SendMessage(ctx, adminID, text, opts)
	if err != nil {
		metrics.IncMenuReplacement("failed")
		t.logger.Error("Failed to send admin menu",
			zap.String("operation", "replace_admin_menu"),
			zap.Int64("admin_id", adminID),
			zap.Error(err),
		)
		return messenger.Message{}, fmt.Errorf("send admin menu: %w", err)
	}
	metrics.IncMenuReplacement("fallback")

	// pointer write failure is already logged, the admin has the message
	_ = t.TrackAdminMenu(ctx, adminID, msg)
	return msg, nil
}

func (t *Tracker) replace(ctx context.Context, adminID int64, text string, opts *messenger.SendOptions) (messenger.Message, error) {
	oldID, found, err := t.LastMenuID(ctx, adminID)
	if err != nil {
		return messenger.Message{}, err
	}

	if found {
		if err := t.msgr.DeleteMessages(ctx, adminID, []int{oldID}); err != nil {
			t.logger.Warn("Could not delete previous admin menu",
				zap.Int64("admin_id", adminID),
				zap.Int("message_id", oldID),
				zap.Error(err),
			)
		}
	}

	msg, err := t.msgr.SendMessage(ctx, adminID, text, opts)
	if err != nil {
		return messenger.Message{}, err
	}

	_ = t.TrackAdminMenu(ctx, adminID, msg)
	return msg, nil
}

// SendNotificationReplacingMenu shows a notification in place of the admin's current menu
func (t *Tracker) SendNotificationReplacingMenu(ctx context.Context, adminID int64, text string, opts *messenger.SendOptions) (messenger.Message, error) {
	return t.ReplaceAdminMenu(ctx, adminID, text, opts)
}

// SendNotificationWithAutoMenu shows a notification in place of the current
// menu and reopens the main panel after autoMenuDelay. The panel is built when
// the reopen fires, not when it is scheduled. A newer notification for the same
// admin replaces a reopen that has not fired yet.
func (t *Tracker) SendNotificationWithAutoMenu(ctx context.Context, adminID int64, text string, opts *messenger.SendOptions, autoMenuDelay time.Duration) (messenger.Message, error) {
	msg, err := t.SendNotificationReplacingMenu(ctx, adminID, text, opts)
	if err != nil {
		return messenger.Message{}, err
	}

	if autoMenuDelay > 0 && t.panel != nil {
		t.tasks.Schedule(autoMenuTask(adminID), autoMenuDelay, func(ctx context.Context) {
			t.reopenPanel(ctx, adminID)
		})
	}
	return msg, nil
}

func (t *Tracker) reopenPanel(ctx context.Context, adminID int64) {
	text, opts, err := t.panel(ctx, adminID)
	if err != nil {
		t.logger.Error("Failed to build admin panel",
			zap.String("operation", "auto_menu"),
			zap.Int64("admin_id", adminID),
			zap.Error(err),
		)
		return
	}

	if _, err := t.ReplaceAdminMenu(ctx, adminID, text, opts); err != nil {
		t.logger.Error("Failed to reopen admin panel",
			zap.String("operation", "auto_menu"),
			zap.Int64("admin_id", adminID),
			zap.Error(err),
		)
	}
}

// CleanupAdminInteraction answers an admin's reply with a response that becomes
// the current menu, and deletes the admin's own reply after cleanupDelay.
func (t *Tracker) CleanupAdminInteraction(ctx context.Context, adminID int64, adminReply messenger.Message, text string, opts *messenger.SendOptions, cleanupDelay time.Duration) (messenger.Message, error) {
	msg, err := t.msgr.SendMessage(ctx, adminID, text, opts)
	if err != nil {
		t.logger.Error("Failed to send admin response",
			zap.String("operation", "cleanup_admin_interaction"),
			zap.Int64("admin_id", adminID),
			zap.Error(err),
		)
		return messenger.Message{}, fmt.Errorf("send admin response: %w", err)
	}

	_ = t.TrackAdminMenu(ctx, adminID, msg)

	key := fmt.Sprintf("admin_reply:%d:%d", adminID, adminReply.ID)
	t.tasks.Schedule(key, cleanupDelay, func(ctx context.Context) {
		if err := t.msgr.DeleteMessages(ctx, adminID, []int{adminReply.ID}); err != nil {
			metrics.IncDeleteFailure()
			t.logger.Warn("Could not delete admin reply",
				zap.Int64("admin_id", adminID),
				zap.Int("message_id", adminReply.ID),
				zap.Error(err),
			)
			return
		}
		metrics.AddDeleted(1)
	})

	return msg, nil
}
