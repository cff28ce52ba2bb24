package membership

import (
	"context"
	"fmt"
	"strings"

	"chat-realtime/internal/apperr"
	"chat-realtime/internal/events"
	"chat-realtime/internal/models"
	"chat-realtime/internal/repositories"
)

// Profile returns the caller's own profile.
func (s *Service) Profile(ctx context.Context, actor int) (models.User, error) {
	return s.users.GetUser(ctx, actor)
}

// SearchUsers finds users by name, never including actor.
func (s *Service) SearchUsers(ctx context.Context, actor int, name string) ([]models.UserSummary, error) {
	return s.searchUsers(ctx, repositories.UserQuery{Name: strings.TrimSpace(name), Exclude: []int{actor}})
}

// SearchNonContacts finds users actor has no one-to-one chat with yet.
func (s *Service) SearchNonContacts(ctx context.Context, actor int, name string) ([]models.UserSummary, error) {
	chats, err := s.chats.ListChatsForUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	exclude := []int{actor}
	for _, c := range chats {
		if !c.IsGroup {
			exclude = append(exclude, c.Members...)
		}
	}
	return s.searchUsers(ctx, repositories.UserQuery{Name: strings.TrimSpace(name), Exclude: uniqueSorted(exclude)})
}

// SearchNonMembers finds users who could be added to a group. Only members
// of the group may search it.
func (s *Service) SearchNonMembers(ctx context.Context, chatID, actor int, name string) ([]models.UserSummary, error) {
	chat, err := s.memberChat(ctx, chatID, actor)
	if err != nil {
		return nil, err
	}
	if !chat.IsGroup {
		return nil, apperr.ErrNotGroupChat
	}
	found, err := s.searchUsers(ctx, repositories.UserQuery{Name: strings.TrimSpace(name), Exclude: chat.Members})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: no such user with this name %s exists", apperr.ErrNotFound, name)
	}
	return found, nil
}

// SearchGroupMembers finds the other members of a chat by name.
func (s *Service) SearchGroupMembers(ctx context.Context, chatID, actor int, name string) ([]models.UserSummary, error) {
	chat, err := s.memberChat(ctx, chatID, actor)
	if err != nil {
		return nil, err
	}
	only := events.Without(chat.Members, actor)
	return s.searchUsers(ctx, repositories.UserQuery{Name: strings.TrimSpace(name), Only: only})
}

func (s *Service) searchUsers(ctx context.Context, q repositories.UserQuery) ([]models.UserSummary, error) {
	users, err := s.users.SearchUsers(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, u.Summary())
	}
	return out, nil
}
