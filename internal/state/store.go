package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"supportbot/internal/domain"
	"supportbot/internal/kv"
	"supportbot/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTTL is how long an idle conversation state survives
const DefaultTTL = time.Hour

// ErrNoState is returned by Update when the user has no active state
var ErrNoState = errors.New("no active state")

// Store persists one UserState per user in the KV backend
type Store struct {
	kv     kv.Store
	ttl    time.Duration
	logger *zap.Logger
	locks  *userLocks
	now    func() time.Time
}

// NewStore creates a state store. A non-positive ttl selects DefaultTTL.
func NewStore(backend kv.Store, ttl time.Duration, logger *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		kv:     backend,
		ttl:    ttl,
		logger: logger,
		locks:  newUserLocks(),
		now:    time.Now,
	}
}

// Key returns the KV key of a user's state
func Key(userID int64) string {
	return fmt.Sprintf("user_state:%d", userID)
}

// Set replaces the user's state. Every call issues a new session token.
func (s *Store) Set(ctx context.Context, userID int64, name domain.StateName, data map[string]any) error {
	release := s.locks.lock(userID)
	defer release()

	return s.write(ctx, userID, s.newState(userID, name, data), "set")
}

// Get returns the user's state, or nil when there is none.
// A payload that cannot be decoded is treated as absent.
func (s *Store) Get(ctx context.Context, userID int64) (*domain.UserState, error) {
	return s.read(ctx, userID)
}

// Clear removes the user's state. Clearing an absent state succeeds.
func (s *Store) Clear(ctx context.Context, userID int64) error {
	release := s.locks.lock(userID)
	defer release()

	if err := s.kv.Delete(ctx, Key(userID)); err != nil {
		metrics.IncStoreError("clear")
		s.logger.Error("Failed to clear user state",
			zap.String("operation", "clear_state"),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return fmt.Errorf("clear state for user %d: %w", userID, err)
	}
	return nil
}

// Update applies fn to the current state and writes the result back while
// holding the user's lock, so concurrent updates for one user do not lose writes.
// State name, data and session token are kept unless fn changes them.
func (s *Store) Update(ctx context.Context, userID int64, fn func(st *domain.UserState) error) (*domain.UserState, error) {
	release := s.locks.lock(userID)
	defer release()

	st, err := s.read(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrNoState
	}
	if st.Data == nil {
		st.Data = make(map[string]any)
	}

	if err := fn(st); err != nil {
		return nil, err
	}

	if err := s.write(ctx, userID, st, "update"); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Store) newState(userID int64, name domain.StateName, data map[string]any) *domain.UserState {
	payload := make(map[string]any, len(data))
	for k, v := range data {
		payload[k] = v
	}
	return &domain.UserState{
		UserID:       userID,
		State:        name,
		Data:         payload,
		SessionToken: uuid.NewString(),
		CreatedAt:    s.now().UTC(),
	}
}

func (s *Store) read(ctx context.Context, userID int64) (*domain.UserState, error) {
	raw, err := s.kv.Get(ctx, Key(userID))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		metrics.IncStoreError("get")
		s.logger.Error("Failed to read user state",
			zap.String("operation", "get_state"),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get state for user %d: %w", userID, err)
	}

	var st domain.UserState
	if err := json.Unmarshal(raw, &st); err != nil || st.State == "" {
		s.logger.Warn("Discarding corrupt user state",
			zap.String("operation", "get_state"),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return nil, nil
	}
	st.UserID = userID
	return &st, nil
}

func (s *Store) write(ctx context.Context, userID int64, st *domain.UserState, op string) error {
	raw, err := json.Marshal(st)
	if err != nil {
		s.logger.Error("Failed to encode user state",
			zap.String("operation", op),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return fmt.Errorf("encode state for user %d: %w", userID, err)
	}

	if err := s.kv.Set(ctx, Key(userID), raw, s.ttl); err != nil {
		metrics.IncStoreError(op)
		s.logger.Error("Failed to write user state",
			zap.String("operation", op),
			zap.Int64("user_id", userID),
			zap.String("state", string(st.State)),
			zap.Error(err),
		)
		return fmt.Errorf("%s state for user %d: %w", op, userID, err)
	}
	return nil
}
