package membership

import (
	"context"
	"fmt"

	"chat-realtime/internal/apperr"
	"chat-realtime/internal/events"
	"chat-realtime/internal/models"
)

// ChatDetails is a chat with optional member profiles.
type ChatDetails struct {
	models.Chat
	Profiles []models.User `json:"profiles,omitempty"`
}

// MemberList is the member roster of a chat.
type MemberList struct {
	Members   []models.UserSummary `json:"members"`
	CreatorID int                  `json:"creator_id"`
	IsGroup   bool                 `json:"is_group"`
}

func (s *Service) GetChat(ctx context.Context, chatID, actor int, populate bool) (ChatDetails, error) {
	chat, err := s.memberChat(ctx, chatID, actor)
	if err != nil {
		return ChatDetails{}, err
	}
	details := ChatDetails{Chat: chat}
	if populate {
		if details.Profiles, err = s.users.GetUsers(ctx, chat.Members); err != nil {
			return ChatDetails{}, err
		}
	}
	return details, nil
}

func (s *Service) ListMembers(ctx context.Context, chatID, actor int) (MemberList, error) {
	chat, err := s.memberChat(ctx, chatID, actor)
	if err != nil {
		return MemberList{}, err
	}
	users, err := s.users.GetUsers(ctx, chat.Members)
	if err != nil {
		return MemberList{}, err
	}

	list := MemberList{Members: make([]models.UserSummary, 0, len(users)), CreatorID: chat.CreatorID, IsGroup: chat.IsGroup}
	for _, u := range users {
		list.Members = append(list.Members, u.Summary())
	}
	return list, nil
}

// ListMyChats lists every chat of actor. One-to-one chats are named after the
// other member.
func (s *Service) ListMyChats(ctx context.Context, actor int) ([]models.ChatSummary, error) {
	chats, err := s.chats.ListChatsForUser(ctx, actor)
	if err != nil {
		return nil, err
	}

	var others []int
	for _, c := range chats {
		if !c.IsGroup {
			if id, ok := c.OtherMember(actor); ok {
				others = append(others, id)
			}
		}
	}
	users := map[int]models.User{}
	if len(others) > 0 {
		list, err := s.users.GetUsers(ctx, uniqueSorted(others))
		if err != nil {
			return nil, err
		}
		for _, u := range list {
			users[u.ID] = u
		}
	}

	out := make([]models.ChatSummary, 0, len(chats))
	for _, c := range chats {
		out = append(out, summaryFor(c, actor, users))
	}
	return out, nil
}

// ListMyGroups lists the groups actor currently owns.
func (s *Service) ListMyGroups(ctx context.Context, actor int) ([]models.ChatSummary, error) {
	groups, err := s.chats.ListGroupsCreatedBy(ctx, actor)
	if err != nil {
		return nil, err
	}
	out := make([]models.ChatSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, models.ChatSummary{ID: g.ID, IsGroup: true, Name: g.Name, AvatarURL: g.AvatarURL, Members: g.Members})
	}
	return out, nil
}

func (s *Service) memberChat(ctx context.Context, chatID, actor int) (models.Chat, error) {
	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return models.Chat{}, err
	}
	if !chat.HasMember(actor) {
		return models.Chat{}, fmt.Errorf("%w: you are not allowed to access this chat", apperr.ErrForbidden)
	}
	return chat, nil
}

// summaryFor builds the chat as viewer sees it: members exclude the viewer
// and a one-to-one chat takes the other member's name and avatar.
func summaryFor(chat models.Chat, viewer int, users map[int]models.User) models.ChatSummary {
	summary := models.ChatSummary{
		ID:        chat.ID,
		IsGroup:   chat.IsGroup,
		Name:      chat.Name,
		AvatarURL: chat.AvatarURL,
		Members:   events.Without(chat.Members, viewer),
	}
	if !chat.IsGroup {
		if other, ok := chat.OtherMember(viewer); ok {
			if u, ok := users[other]; ok {
				summary.Name = u.DisplayName
				summary.AvatarURL = u.AvatarURL
			}
		}
	}
	return summary
}
