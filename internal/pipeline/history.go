package pipeline

import (
	"context"
	"fmt"
	"strings"

	"chat-realtime/internal/apperr"
	"chat-realtime/internal/models"
)

// Page is one page of chat history, newest first.
type Page struct {
	Messages   []models.MessageView `json:"messages"`
	Page       int                  `json:"page"`
	TotalPages int                  `json:"total_pages"`
}

// ListMessages returns page (1-based) of a chat's history to a member.
func (s *Service) ListMessages(ctx context.Context, chatID, actor, page int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if err := s.requireMember(ctx, chatID, actor); err != nil {
		return Page{}, err
	}

	msgs, total, err := s.messages.ListMessages(ctx, chatID, PageSize, (page-1)*PageSize)
	if err != nil {
		return Page{}, err
	}
	views, err := s.project(ctx, msgs)
	if err != nil {
		return Page{}, err
	}
	return Page{
		Messages:   views,
		Page:       page,
		TotalPages: (total + PageSize - 1) / PageSize,
	}, nil
}

// SearchMessages finds messages whose content contains query.
func (s *Service) SearchMessages(ctx context.Context, chatID, actor int, query string) ([]models.MessageView, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search text is required", apperr.ErrInvalidOperation)
	}
	if err := s.requireMember(ctx, chatID, actor); err != nil {
		return nil, err
	}

	msgs, err := s.messages.SearchMessages(ctx, chatID, query)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("%w: message %q not found", apperr.ErrNotFound, query)
	}
	return s.project(ctx, msgs)
}

func (s *Service) requireMember(ctx context.Context, chatID, actor int) error {
	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.HasMember(actor) {
		return fmt.Errorf("%w: you are not allowed to access this chat", apperr.ErrForbidden)
	}
	return nil
}

// project inlines sender summaries. Senders that no longer exist keep only
// their id.
func (s *Service) project(ctx context.Context, msgs []models.Message) ([]models.MessageView, error) {
	views := make([]models.MessageView, 0, len(msgs))
	if len(msgs) == 0 {
		return views, nil
	}

	seen := map[int]bool{}
	var ids []int
	for _, m := range msgs {
		if !seen[m.SenderID] {
			seen[m.SenderID] = true
			ids = append(ids, m.SenderID)
		}
	}
	users, err := s.users.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]models.UserSummary, len(users))
	for _, u := range users {
		byID[u.ID] = u.Summary()
	}

	for _, m := range msgs {
		sender, ok := byID[m.SenderID]
		if !ok {
			sender = models.UserSummary{ID: m.SenderID}
		}
		views = append(views, models.NewMessageView(m, sender))
	}
	return views, nil
}
