package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserState_CleanupMessageIDs(t *testing.T) {
	tests := []struct {
		name     string
		data     map[string]any
		expected []int
		ok       bool
	}{
		{
			name:     "nil data",
			data:     nil,
			expected: nil,
			ok:       false,
		},
		{
			name:     "no cleanup list",
			data:     map[string]any{"category": "billing"},
			expected: nil,
			ok:       false,
		},
		{
			name:     "typed list",
			data:     map[string]any{DataCleanupMessageIDs: []int{3, 1, 2}},
			expected: []int{3, 1, 2},
			ok:       true,
		},
		{
			name:     "decoded json list",
			data:     map[string]any{DataCleanupMessageIDs: []any{float64(10), float64(11)}},
			expected: []int{10, 11},
			ok:       true,
		},
		{
			name:     "empty list",
			data:     map[string]any{DataCleanupMessageIDs: []int{}},
			expected: []int{},
			ok:       true,
		},
		{
			name:     "empty decoded json list",
			data:     map[string]any{DataCleanupMessageIDs: []any{}},
			expected: []int{},
			ok:       true,
		},
		{
			name:     "wrong type",
			data:     map[string]any{DataCleanupMessageIDs: "100,101"},
			expected: nil,
			ok:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &UserState{Data: tt.data}
			ids, ok := st.CleanupMessageIDs()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestUserState_JSONRoundTripKeepsIDs(t *testing.T) {
	st := &UserState{State: StateTicketSubject, Data: map[string]any{DataTicketID: int64(7)}}
	st.SetCleanupMessageIDs([]int{100, 101})

	raw, err := json.Marshal(st)
	require.NoError(t, err)

	var decoded UserState
	require.NoError(t, json.Unmarshal(raw, &decoded))

	ids, ok := decoded.CleanupMessageIDs()
	assert.True(t, ok)
	assert.Equal(t, []int{100, 101}, ids)

	ticketID, ok := decoded.Int64(DataTicketID)
	assert.True(t, ok)
	assert.Equal(t, int64(7), ticketID)
}

func TestUserState_SetCleanupMessageIDsCopies(t *testing.T) {
	ids := []int{1, 2}
	st := &UserState{}
	st.SetCleanupMessageIDs(ids)
	ids[0] = 99

	got, _ := st.CleanupMessageIDs()
	assert.Equal(t, []int{1, 2}, got)
}
