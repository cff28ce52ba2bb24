package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-realtime/internal/events"
)

// mustSender checks the new-message payload and returns its raw sender.
func mustSender(t *testing.T, frame events.Frame) json.RawMessage {
	t.Helper()
	var payload struct {
		ChatID  int `json:"chat_id"`
		Message struct {
			Content string          `json:"content"`
			Sender  json.RawMessage `json:"sender"`
		} `json:"message"`
	}
	require.NoError(t, json.Unmarshal(frame.Data, &payload))
	require.Equal(t, 50, payload.ChatID)
	require.Equal(t, "hi", payload.Message.Content)
	return payload.Message.Sender
}
