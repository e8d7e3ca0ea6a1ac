package chat

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/internal/app/user"
)

func TestHistory_AllPreservesArrivalOrder(t *testing.T) {
	h := NewHistory()

	for i := 0; i < 3; i++ {
		h.Append(ChatMessage{
			From:    user.User{ID: "c1", Name: "Alice"},
			Content: fmt.Sprintf("msg-%d", i),
		})
	}

	all := h.All()
	require.Len(t, all, 3)
	for i, msg := range all {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), msg.Content)
	}
}

func TestHistory_AllReturnsCopy(t *testing.T) {
	h := NewHistory()
	h.Append(ChatMessage{From: user.User{ID: "c1", Name: "Alice"}, Content: "hi"})

	all := h.All()
	all[0].Content = "tampered"

	assert.Equal(t, "hi", h.All()[0].Content)
	assert.Equal(t, 1, h.Len())
}

func TestHistory_MessagesKeepSenderByValue(t *testing.T) {
	h := NewHistory()

	sender := user.User{ID: "c1", Name: "Alice"}
	h.Append(ChatMessage{From: sender, Content: "hi"})

	// A later rename must not rewrite already-logged messages.
	sender.Name = "Alicia"

	assert.Equal(t, "Alice", h.All()[0].From.Name)
}
