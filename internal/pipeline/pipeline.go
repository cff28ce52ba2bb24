// Package pipeline persists chat messages and pushes them to members.
//
// Persistence always completes before any push. A push that fails after a
// successful write is not retried; clients recover by fetching history.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"chat-realtime/internal/apperr"
	"chat-realtime/internal/events"
	"chat-realtime/internal/log"
	"chat-realtime/internal/models"
	"chat-realtime/internal/repositories"
	"chat-realtime/internal/storage"
)

// PageSize is the number of messages per history page.
const PageSize = 20

type Service struct {
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
	users    repositories.UserRepository
	store    storage.Store
	notifier events.Notifier
}

func NewService(
	chats repositories.ChatRepository,
	messages repositories.MessageRepository,
	users repositories.UserRepository,
	store storage.Store,
	notifier events.Notifier,
) *Service {
	return &Service{chats: chats, messages: messages, users: users, store: store, notifier: notifier}
}

// SendMessage stores a text message from sender and pushes it to the chat.
func (s *Service) SendMessage(ctx context.Context, chatID, sender int, content string) (models.MessageView, error) {
	if strings.TrimSpace(content) == "" {
		return models.MessageView{}, fmt.Errorf("%w: message content is required", apperr.ErrInvalidOperation)
	}

	chat, me, err := s.senderContext(ctx, chatID, sender)
	if err != nil {
		return models.MessageView{}, err
	}

	msg, err := s.messages.CreateMessage(ctx, models.Message{ChatID: chat.ID, SenderID: sender, Content: content})
	if err != nil {
		return models.MessageView{}, err
	}

	view := models.NewMessageView(msg, me.Summary())
	s.deliver(ctx, chat, view)
	return view, nil
}

// SendAttachments uploads files and stores them as one message. If the
// message cannot be stored the uploaded objects are deleted again.
func (s *Service) SendAttachments(ctx context.Context, chatID, sender int, content string, files []storage.File) (models.MessageView, error) {
	if len(files) == 0 {
		return models.MessageView{}, fmt.Errorf("%w: please upload attachments", apperr.ErrInvalidOperation)
	}
	if len(files) > models.MaxAttachments {
		return models.MessageView{}, fmt.Errorf("%w: files can't be more than %d", apperr.ErrLimitExceeded, models.MaxAttachments)
	}

	chat, me, err := s.senderContext(ctx, chatID, sender)
	if err != nil {
		return models.MessageView{}, err
	}

	attachments := make(models.Attachments, 0, len(files))
	for _, f := range files {
		att, err := s.store.Upload(ctx, storage.FolderAttachments, f)
		if err != nil {
			s.release(ctx, attachments.StorageIDs())
			return models.MessageView{}, err
		}
		attachments = append(attachments, att)
	}

	msg, err := s.messages.CreateMessage(ctx, models.Message{
		ChatID:      chat.ID,
		SenderID:    sender,
		Content:     content,
		Attachments: attachments,
	})
	if err != nil {
		s.release(ctx, attachments.StorageIDs())
		return models.MessageView{}, err
	}

	view := models.NewMessageView(msg, me.Summary())
	s.deliver(ctx, chat, view)
	return view, nil
}

// UpdateMessage edits the text of actor's own message.
func (s *Service) UpdateMessage(ctx context.Context, messageID, actor int, content string) (models.MessageView, error) {
	if strings.TrimSpace(content) == "" {
		return models.MessageView{}, fmt.Errorf("%w: message content is required", apperr.ErrInvalidOperation)
	}

	msg, err := s.ownMessage(ctx, messageID, actor)
	if err != nil {
		return models.MessageView{}, err
	}
	if msg.IsDeleted {
		return models.MessageView{}, fmt.Errorf("%w: a deleted message cannot be edited", apperr.ErrInvalidOperation)
	}

	updated, err := s.messages.UpdateContent(ctx, messageID, content)
	if err != nil {
		return models.MessageView{}, err
	}
	return s.announce(ctx, updated, func(v models.MessageView) events.Event {
		return events.MessageUpdated{ChatID: v.ChatID, Message: v}
	})
}

// DeleteMessage soft-deletes actor's own message.
func (s *Service) DeleteMessage(ctx context.Context, messageID, actor int) (models.MessageView, error) {
	if _, err := s.ownMessage(ctx, messageID, actor); err != nil {
		return models.MessageView{}, err
	}

	deleted, err := s.messages.SoftDelete(ctx, messageID)
	if err != nil {
		return models.MessageView{}, err
	}
	return s.announce(ctx, deleted, func(v models.MessageView) events.Event {
		return events.MessageDeleted{ChatID: v.ChatID, Message: v}
	})
}

func (s *Service) senderContext(ctx context.Context, chatID, sender int) (models.Chat, models.User, error) {
	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return models.Chat{}, models.User{}, err
	}
	if !chat.HasMember(sender) {
		return models.Chat{}, models.User{}, fmt.Errorf("%w: you are not a member of this chat", apperr.ErrForbidden)
	}
	me, err := s.users.GetUser(ctx, sender)
	if err != nil {
		return models.Chat{}, models.User{}, err
	}
	return chat, me, nil
}

func (s *Service) ownMessage(ctx context.Context, messageID, actor int) (models.Message, error) {
	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		return models.Message{}, err
	}
	if msg.SenderID != actor {
		return models.Message{}, fmt.Errorf("%w: only the sender can change this message", apperr.ErrForbidden)
	}
	return msg, nil
}

// announce pushes a changed message to the current members of its chat.
func (s *Service) announce(ctx context.Context, msg models.Message, build func(models.MessageView) events.Event) (models.MessageView, error) {
	sender, err := s.users.GetUser(ctx, msg.SenderID)
	if err != nil {
		return models.MessageView{}, err
	}
	view := models.NewMessageView(msg, sender.Summary())

	chat, err := s.chats.GetChat(ctx, msg.ChatID)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Int(log.FieldMessageID, msg.ID).Msg("message changed but chat lookup failed")
		return view, nil
	}
	s.fanout(ctx, build(view), chat.Members)
	return view, nil
}

func (s *Service) deliver(ctx context.Context, chat models.Chat, view models.MessageView) {
	s.fanout(ctx, events.NewMessage{ChatID: chat.ID, Message: view}, chat.Members)
	s.fanout(ctx, events.NewMessageAlert{ChatID: chat.ID}, chat.Members)
}

func (s *Service) fanout(ctx context.Context, ev events.Event, recipients []int) {
	if err := s.notifier.Fanout(ctx, ev, recipients); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldEvent, string(ev.Kind())).Msg("fanout failed")
	}
}

func (s *Service) release(ctx context.Context, storageIDs []string) {
	if len(storageIDs) == 0 {
		return
	}
	if err := s.store.Delete(ctx, storageIDs); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Strs("storage_ids", storageIDs).Msg("failed to delete orphaned uploads")
	}
}
