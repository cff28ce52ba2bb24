// Package presence tracks which users have at least one live endpoint and
// broadcasts the full online set to their contacts whenever it changes.
package presence

import (
	"context"
	"sort"
	"sync"

	"chat-realtime/internal/events"
	"chat-realtime/internal/log"
	"chat-realtime/internal/observability"
	"chat-realtime/internal/registry"
)

// Contacts resolves everyone who shares at least one chat with a user.
type Contacts interface {
	ListContacts(ctx context.Context, userID int) ([]int, error)
}

// Mirror publishes the local presence set to a shared store.
type Mirror interface {
	Add(ctx context.Context, userID int) error
	Remove(ctx context.Context, userID int) error
}

type Option func(*Tracker)

// WithMirror sets a mirror that is updated on every presence transition.
func WithMirror(m Mirror) Option {
	return func(t *Tracker) { t.mirror = m }
}

// Tracker owns the presence set. Endpoint registration goes through it so
// that registry and presence never disagree.
type Tracker struct {
	mu     sync.Mutex
	reg    *registry.Registry
	online map[int]struct{}

	contacts Contacts
	notifier events.Notifier
	mirror   Mirror
}

func NewTracker(reg *registry.Registry, contacts Contacts, notifier events.Notifier, opts ...Option) *Tracker {
	t := &Tracker{
		reg:      reg,
		online:   make(map[int]struct{}),
		contacts: contacts,
		notifier: notifier,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Connect registers ep for userID. On the user's first endpoint the user is
// marked online and the snapshot goes out to the user and their contacts.
func (t *Tracker) Connect(ctx context.Context, userID int, ep registry.Endpoint) {
	t.mu.Lock()
	first := t.reg.Register(userID, ep)
	if first {
		t.online[userID] = struct{}{}
		observability.SetOnlineUsers(len(t.online))
	}
	t.mu.Unlock()

	if !first {
		return
	}
	t.mirrorUpdate(ctx, userID, true)
	t.broadcast(ctx, userID, true)
}

// Disconnect removes ep. When it was the user's last endpoint the user goes
// offline and the snapshot is sent to their contacts.
func (t *Tracker) Disconnect(ctx context.Context, userID int, ep registry.Endpoint) {
	t.mu.Lock()
	last := t.reg.Unregister(userID, ep)
	if last {
		delete(t.online, userID)
		observability.SetOnlineUsers(len(t.online))
	}
	t.mu.Unlock()

	if !last {
		return
	}
	t.mirrorUpdate(ctx, userID, false)
	t.broadcast(ctx, userID, false)
}

// Snapshot returns the online users in ascending order.
func (t *Tracker) Snapshot() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Announce sends the current snapshot to recipients.
func (t *Tracker) Announce(ctx context.Context, recipients []int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sendLocked(ctx, recipients)
}

func (t *Tracker) broadcast(ctx context.Context, userID int, includeSelf bool) {
	recipients, err := t.contacts.ListContacts(ctx, userID)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Int(log.FieldUserID, userID).Msg("presence: contacts lookup failed")
		return
	}
	if includeSelf {
		recipients = append(recipients, userID)
	}

	// Snapshot and send under one lock so later transitions never reach an
	// endpoint ahead of earlier ones.
	t.Announce(ctx, recipients)
}

func (t *Tracker) sendLocked(ctx context.Context, recipients []int) {
	if len(recipients) == 0 {
		return
	}
	ev := events.OnlineUsers{Users: t.snapshotLocked()}
	if err := t.notifier.Fanout(ctx, ev, recipients); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("presence: fanout failed")
	}
}

func (t *Tracker) snapshotLocked() []int {
	ids := make([]int, 0, len(t.online))
	for id := range t.online {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (t *Tracker) mirrorUpdate(ctx context.Context, userID int, online bool) {
	if t.mirror == nil {
		return
	}
	var err error
	if online {
		err = t.mirror.Add(ctx, userID)
	} else {
		err = t.mirror.Remove(ctx, userID)
	}
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Int(log.FieldUserID, userID).Bool("online", online).Msg("presence: mirror update failed")
	}
}
