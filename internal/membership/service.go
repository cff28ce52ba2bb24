// Package membership implements the chat lifecycle: creating one-to-one
// chats and groups, changing group membership, renaming and deleting.
package membership

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"chat-realtime/internal/apperr"
	"chat-realtime/internal/events"
	"chat-realtime/internal/log"
	"chat-realtime/internal/models"
	"chat-realtime/internal/repositories"
	"chat-realtime/internal/storage"
)

type Option func(*Service)

// WithPicker overrides how a new creator is drawn when the creator leaves.
func WithPicker(pick func(n int) int) Option {
	return func(s *Service) { s.pick = pick }
}

type Service struct {
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
	users    repositories.UserRepository
	store    storage.Store
	notifier events.Notifier

	pairs *pairLocks
	pick  func(n int) int
}

func NewService(
	chats repositories.ChatRepository,
	messages repositories.MessageRepository,
	users repositories.UserRepository,
	store storage.Store,
	notifier events.Notifier,
	opts ...Option,
) *Service {
	s := &Service{
		chats:    chats,
		messages: messages,
		users:    users,
		store:    store,
		notifier: notifier,
		pairs:    newPairLocks(),
		pick:     rand.Intn,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GroupInput carries the fields of a new group.
type GroupInput struct {
	Name    string
	Members []int
	Avatar  *storage.File
}

// CreateOneToOne opens a private chat between actor and receiver. At most one
// such chat exists per pair.
func (s *Service) CreateOneToOne(ctx context.Context, actor, receiver int) (models.Chat, error) {
	if actor == receiver {
		return models.Chat{}, fmt.Errorf("%w: cannot start a chat with yourself", apperr.ErrInvalidOperation)
	}

	unlock := s.pairs.Lock(models.PairKey(actor, receiver))
	defer unlock()

	_, err := s.chats.FindOneToOne(ctx, actor, receiver)
	if err == nil {
		return models.Chat{}, repositories.ErrChatExists
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return models.Chat{}, err
	}

	users, err := s.requireUsers(ctx, []int{actor, receiver})
	if err != nil {
		return models.Chat{}, err
	}

	chat, err := s.chats.CreateChat(ctx, models.Chat{
		Name:    users[actor].DisplayName + "-" + users[receiver].DisplayName,
		Members: []int{actor, receiver},
	})
	if err != nil {
		return models.Chat{}, err
	}

	for _, viewer := range chat.Members {
		summary := summaryFor(chat, viewer, users)
		s.fanout(ctx, events.RefetchChats{Chat: &summary}, []int{viewer})
	}
	return chat, nil
}

// CreateGroup creates a group owned by actor. actor is always a member. The
// minimum group size is not enforced here, only on removal and leave.
func (s *Service) CreateGroup(ctx context.Context, actor int, in GroupInput) (models.Chat, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Chat{}, fmt.Errorf("%w: group name is required", apperr.ErrInvalidOperation)
	}
	if in.Avatar == nil {
		return models.Chat{}, fmt.Errorf("%w: please upload an avatar for the group", apperr.ErrInvalidOperation)
	}

	members := uniqueSorted(append(append([]int(nil), in.Members...), actor))
	if len(members) > models.MaxGroupMembers {
		return models.Chat{}, fmt.Errorf("%w: group members limit of %d reached", apperr.ErrLimitExceeded, models.MaxGroupMembers)
	}
	if _, err := s.requireUsers(ctx, members); err != nil {
		return models.Chat{}, err
	}

	avatar, err := s.store.Upload(ctx, storage.FolderAvatars, *in.Avatar)
	if err != nil {
		return models.Chat{}, err
	}

	chat, err := s.chats.CreateChat(ctx, models.Chat{
		IsGroup:   true,
		Name:      name,
		AvatarID:  avatar.StorageID,
		AvatarURL: avatar.URL,
		CreatorID: actor,
		Members:   members,
	})
	if err != nil {
		s.release(ctx, []string{avatar.StorageID})
		return models.Chat{}, err
	}

	summary := models.ChatSummary{ID: chat.ID, IsGroup: true, Name: chat.Name, AvatarURL: chat.AvatarURL, Members: chat.Members}
	s.fanout(ctx, events.RefetchChats{Chat: &summary}, chat.Members)
	s.fanout(ctx, events.Alert{Message: fmt.Sprintf("Welcome to %s group", chat.Name)}, chat.Members)
	return chat, nil
}

// AddMembers adds ids to a group. Ids already present are ignored.
func (s *Service) AddMembers(ctx context.Context, chatID, actor int, ids []int) (models.Chat, error) {
	ids = uniqueSorted(ids)
	if len(ids) == 0 {
		return models.Chat{}, fmt.Errorf("%w: no members given", apperr.ErrInvalidOperation)
	}
	users, err := s.requireUsers(ctx, ids)
	if err != nil {
		return models.Chat{}, err
	}

	var added []int
	chat, err := s.chats.MutateChat(ctx, chatID, func(c models.Chat) (models.Chat, error) {
		var next models.Chat
		var err error
		next, added, err = applyAdd(c, actor, ids)
		return next, err
	})
	if err != nil {
		return models.Chat{}, err
	}
	if len(added) == 0 {
		return chat, nil
	}

	names := make([]string, 0, len(added))
	summaries := make([]models.UserSummary, 0, len(added))
	for _, id := range added {
		names = append(names, users[id].DisplayName)
		summaries = append(summaries, users[id].Summary())
	}

	s.fanout(ctx, events.MemberAdded{ChatID: chat.ID, MemberIDs: added}, chat.Members)
	s.fanout(ctx, events.MemberAddedAlert{
		ChatID:  chat.ID,
		Alert:   fmt.Sprintf("%s has been added in the group %s", strings.Join(names, ", "), chat.Name),
		Members: summaries,
	}, chat.Members)
	return chat, nil
}

// RemoveMember removes target from a group. Everyone who was a member before
// the removal is notified, including target.
func (s *Service) RemoveMember(ctx context.Context, chatID, actor, target int) (models.Chat, error) {
	user, err := s.users.GetUser(ctx, target)
	if err != nil {
		return models.Chat{}, err
	}

	var previous []int
	chat, err := s.chats.MutateChat(ctx, chatID, func(c models.Chat) (models.Chat, error) {
		previous = c.Members
		return applyRemove(c, actor, target)
	})
	if err != nil {
		return models.Chat{}, err
	}

	s.fanout(ctx, events.MemberRemoved{ChatID: chat.ID, UserID: target}, previous)
	s.fanout(ctx, events.MemberRemovedAlert{
		ChatID: chat.ID,
		Alert:  fmt.Sprintf("%s has been removed from the group %s", user.DisplayName, chat.Name),
		UserID: target,
	}, previous)
	return chat, nil
}

// LeaveGroup removes actor from a group and records a system message.
func (s *Service) LeaveGroup(ctx context.Context, chatID, actor int) (models.Chat, error) {
	user, err := s.users.GetUser(ctx, actor)
	if err != nil {
		return models.Chat{}, err
	}

	var previous []int
	chat, err := s.chats.MutateChat(ctx, chatID, func(c models.Chat) (models.Chat, error) {
		previous = c.Members
		return applyLeave(c, actor, s.pick)
	})
	if err != nil {
		return models.Chat{}, err
	}

	msg := models.Message{
		ChatID:   chat.ID,
		SenderID: actor,
		Content:  fmt.Sprintf("%s has left the group", user.DisplayName),
		IsLeft:   true,
	}
	saved, err := s.messages.CreateMessage(ctx, msg)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Int(log.FieldChatID, chat.ID).Int(log.FieldUserID, actor).Msg("failed to record leave message")
		saved = msg
	}

	s.fanout(ctx, events.MemberLeft{
		ChatID:  chat.ID,
		UserID:  actor,
		Message: models.NewMessageView(saved, user.Summary()),
	}, previous)
	return chat, nil
}

// Rename changes a group's name.
func (s *Service) Rename(ctx context.Context, chatID, actor int, name string) (models.Chat, error) {
	chat, err := s.chats.MutateChat(ctx, chatID, func(c models.Chat) (models.Chat, error) {
		return applyRename(c, actor, name)
	})
	if err != nil {
		return models.Chat{}, err
	}

	s.fanout(ctx, events.RefetchChats{}, chat.Members)
	return chat, nil
}

// DeleteChat removes a chat with its messages. The creator check runs against
// the locked row, and the members at that moment are notified. Stored objects
// are released afterwards; failures there are logged and not reported.
func (s *Service) DeleteChat(ctx context.Context, chatID, actor int) (models.Chat, error) {
	chat, storageIDs, err := s.chats.DeleteChat(ctx, chatID, func(c models.Chat) error {
		return checkDelete(c, actor)
	})
	if err != nil {
		return models.Chat{}, err
	}
	s.release(ctx, storageIDs)

	s.fanout(ctx, events.RefetchChats{}, chat.Members)
	return chat, nil
}

// requireUsers loads ids and fails with NotFound if any is missing.
func (s *Service) requireUsers(ctx context.Context, ids []int) (map[int]models.User, error) {
	list, err := s.users.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	users := make(map[int]models.User, len(list))
	for _, u := range list {
		users[u.ID] = u
	}
	for _, id := range ids {
		if _, ok := users[id]; !ok {
			return nil, fmt.Errorf("%w: user %d", repositories.ErrUserNotFound, id)
		}
	}
	return users, nil
}

func (s *Service) release(ctx context.Context, storageIDs []string) {
	if len(storageIDs) == 0 {
		return
	}
	if err := s.store.Delete(ctx, storageIDs); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Strs("storage_ids", storageIDs).Msg("failed to delete stored objects")
	}
}

func (s *Service) fanout(ctx context.Context, ev events.Event, recipients []int) {
	if err := s.notifier.Fanout(ctx, ev, recipients); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldEvent, string(ev.Kind())).Msg("fanout failed")
	}
}

func uniqueSorted(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}
