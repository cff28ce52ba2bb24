package ws

import (
	"context"
	"encoding/json"

	"chat-realtime/internal/events"
	"chat-realtime/internal/log"
	"chat-realtime/internal/models"
	"chat-realtime/internal/observability"
)

// inbound is the payload shared by every client event. Fields a kind does
// not use are ignored.
type inbound struct {
	ChatID    int   `json:"chat_id"`
	UserID    int   `json:"user_id"`
	MemberIDs []int `json:"member_ids"`
}

type inboundFunc func(ctx context.Context, c *Client, in inbound)

func (h *Handler) routes() map[events.Kind]inboundFunc {
	return map[events.Kind]inboundFunc{
		events.KindStartTyping: h.typing(func(chatID int, user models.UserSummary) events.Event {
			return events.StartTyping{ChatID: chatID, User: user}
		}),
		events.KindStopTyping: h.typing(func(chatID int, user models.UserSummary) events.Event {
			return events.StopTyping{ChatID: chatID, User: user}
		}),
		events.KindChatJoined: h.announce,
		events.KindChatLeaved: h.announce,
	}
}

func (h *Handler) dispatch(ctx context.Context, c *Client, raw []byte) {
	frame, err := events.Decode(raw)
	if err != nil {
		h.reject(ctx, c, "malformed event")
		return
	}
	fn, ok := h.inbound[frame.Event]
	if !ok {
		h.reject(ctx, c, "unknown event "+string(frame.Event))
		return
	}

	var in inbound
	if len(frame.Data) > 0 {
		if err := json.Unmarshal(frame.Data, &in); err != nil {
			h.reject(ctx, c, "malformed "+string(frame.Event)+" payload")
			return
		}
	}
	observability.IncWSEvent(string(frame.Event))
	fn(ctx, c, in)
}

// typing relays a typing indicator to the listed members, minus the sender.
func (h *Handler) typing(build func(chatID int, user models.UserSummary) events.Event) inboundFunc {
	return func(ctx context.Context, c *Client, in inbound) {
		if in.ChatID == 0 {
			h.reject(ctx, c, "chat_id is required")
			return
		}
		h.fanout(ctx, build(in.ChatID, c.user), events.Without(in.MemberIDs, c.info.UserID))
	}
}

// announce re-sends the presence snapshot to the listed members.
func (h *Handler) announce(ctx context.Context, _ *Client, in inbound) {
	h.tracker.Announce(ctx, in.MemberIDs)
}

func (h *Handler) fanout(ctx context.Context, ev events.Event, recipients []int) {
	if err := h.notifier.Fanout(ctx, ev, recipients); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldEvent, string(ev.Kind())).Msg("ws fanout failed")
	}
}

// reject answers the sender alone with an alert.
func (h *Handler) reject(ctx context.Context, c *Client, message string) {
	frame, err := events.Encode(events.Alert{Message: message})
	if err != nil {
		return
	}
	l := log.Ctx(ctx)
	l.Debug().Str("alert", message).Msg("ws event rejected")
	c.Send(frame)
}
