package events

import (
	"context"

	"chat-realtime/internal/log"
	"chat-realtime/internal/observability"
	"chat-realtime/internal/registry"
)

// Resolver finds the live endpoints of a set of identities.
type Resolver interface {
	Resolve(userIDs []int) []registry.Endpoint
}

// Notifier is what domain services use to push events.
type Notifier interface {
	Fanout(ctx context.Context, ev Event, recipients []int) error
}

// Router delivers events to every live endpoint of the recipients. It keeps
// no state besides the resolver. Offline recipients are skipped silently.
type Router struct {
	resolver Resolver
}

func NewRouter(resolver Resolver) *Router {
	return &Router{resolver: resolver}
}

// Fanout encodes ev once and queues it on each resolved endpoint. Only an
// encoding failure is reported. Per endpoint, frames keep the order in which
// Fanout was called.
func (r *Router) Fanout(ctx context.Context, ev Event, recipients []int) error {
	if len(recipients) == 0 {
		return nil
	}
	frame, err := Encode(ev)
	if err != nil {
		return err
	}

	kind := string(ev.Kind())
	delivered, dropped := 0, 0
	for _, ep := range r.resolver.Resolve(recipients) {
		if ep.Send(frame) {
			delivered++
			continue
		}
		dropped++
		l := log.Ctx(ctx)
		l.Warn().Str(log.FieldEvent, kind).Str(log.FieldEndpointID, ep.ID()).Msg("fanout dropped frame")
	}
	observability.AddFanout(kind, delivered, dropped)
	return nil
}

// Without returns ids minus exclude, preserving order.
func Without(ids []int, exclude int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}
