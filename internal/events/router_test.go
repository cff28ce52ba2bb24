package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-realtime/internal/models"
	"chat-realtime/internal/registry"
)

type fakeEndpoint struct {
	id     string
	closed bool

	mu     sync.Mutex
	frames [][]byte
}

func (f *fakeEndpoint) ID() string { return f.id }

func (f *fakeEndpoint) Send(frame []byte) bool {
	if f.closed {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, frame)
	return true
}

func (f *fakeEndpoint) received(t *testing.T) []Frame {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Frame, 0, len(f.frames))
	for _, raw := range f.frames {
		frame, err := Decode(raw)
		require.NoError(t, err)
		out = append(out, frame)
	}
	return out
}

func TestFanoutDeliversToEveryEndpointOfRecipients(t *testing.T) {
	reg := registry.New()
	a1 := &fakeEndpoint{id: "a1"}
	a2 := &fakeEndpoint{id: "a2"}
	b := &fakeEndpoint{id: "b"}
	c := &fakeEndpoint{id: "c"}
	reg.Register(1, a1)
	reg.Register(1, a2)
	reg.Register(2, b)
	reg.Register(3, c)

	router := NewRouter(reg)
	ev := NewMessageAlert{ChatID: 9}
	require.NoError(t, router.Fanout(context.Background(), ev, []int{1, 2, 4}))

	for _, ep := range []*fakeEndpoint{a1, a2, b} {
		frames := ep.received(t)
		require.Len(t, frames, 1, ep.id)
		assert.Equal(t, KindNewMessageAlert, frames[0].Event)
		assert.JSONEq(t, `{"chat_id":9}`, string(frames[0].Data))
	}
	assert.Empty(t, c.received(t))
}

func TestFanoutSkipsClosedEndpoint(t *testing.T) {
	reg := registry.New()
	dead := &fakeEndpoint{id: "dead", closed: true}
	live := &fakeEndpoint{id: "live"}
	reg.Register(1, dead)
	reg.Register(1, live)

	router := NewRouter(reg)
	require.NoError(t, router.Fanout(context.Background(), Alert{Message: "hi"}, []int{1}))
	assert.Len(t, live.received(t), 1)
}

func TestFanoutEmptyRecipients(t *testing.T) {
	router := NewRouter(registry.New())
	assert.NoError(t, router.Fanout(context.Background(), RefetchChats{}, nil))
}

func TestFanoutPreservesOrderPerEndpoint(t *testing.T) {
	reg := registry.New()
	ep := &fakeEndpoint{id: "a"}
	reg.Register(1, ep)
	router := NewRouter(reg)

	for i := 1; i <= 5; i++ {
		require.NoError(t, router.Fanout(context.Background(), NewMessageAlert{ChatID: i}, []int{1}))
	}

	frames := ep.received(t)
	require.Len(t, frames, 5)
	for i, frame := range frames {
		var payload NewMessageAlert
		require.NoError(t, json.Unmarshal(frame.Data, &payload))
		assert.Equal(t, i+1, payload.ChatID)
	}
}

func TestOnlineUsersEncodesAsArray(t *testing.T) {
	raw, err := Encode(OnlineUsers{Users: []int{2, 5}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"online-users","data":[2,5]}`, string(raw))

	raw, err = Encode(OnlineUsers{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"online-users","data":[]}`, string(raw))
}

func TestNewMessageFrameCarriesSenderSummary(t *testing.T) {
	msg := models.Message{ID: 4, ChatID: 7, SenderID: 1, Content: "hi"}
	view := models.NewMessageView(msg, models.UserSummary{ID: 1, DisplayName: "Ann"})

	raw, err := Encode(NewMessage{ChatID: 7, Message: view})
	require.NoError(t, err)

	frame, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, KindNewMessage, frame.Event)

	var payload struct {
		ChatID  int `json:"chat_id"`
		Message struct {
			Content string `json:"content"`
			Sender  struct {
				DisplayName string `json:"display_name"`
			} `json:"sender"`
		} `json:"message"`
	}
	require.NoError(t, json.Unmarshal(frame.Data, &payload))
	assert.Equal(t, 7, payload.ChatID)
	assert.Equal(t, "hi", payload.Message.Content)
	assert.Equal(t, "Ann", payload.Message.Sender.DisplayName)
}

func TestWithout(t *testing.T) {
	assert.Equal(t, []int{1, 3}, Without([]int{1, 2, 3, 2}, 2))
	assert.Empty(t, Without(nil, 1))
}
