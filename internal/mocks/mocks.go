package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-realtime/internal/events"
	"chat-realtime/internal/models"
	"chat-realtime/internal/repositories"
	"chat-realtime/internal/storage"
)

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) CreateChat(ctx context.Context, chat models.Chat) (models.Chat, error) {
	args := m.Called(ctx, chat)
	var out models.Chat
	if val := args.Get(0); val != nil {
		out = val.(models.Chat)
	}
	return out, args.Error(1)
}

func (m *ChatRepositoryMock) FindOneToOne(ctx context.Context, a, b int) (models.Chat, error) {
	args := m.Called(ctx, a, b)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

// MutateChat returns the configured error, or applies fn to the configured
// chat the way the repository would inside its transaction.
func (m *ChatRepositoryMock) MutateChat(ctx context.Context, chatID int, fn func(models.Chat) (models.Chat, error)) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	if err := args.Error(1); err != nil {
		return models.Chat{}, err
	}
	current := args.Get(0).(models.Chat)
	return fn(current.Clone())
}

// DeleteChat returns the configured error, or runs check against the
// configured chat and, when it passes, returns the chat with the configured
// storage ids.
func (m *ChatRepositoryMock) DeleteChat(ctx context.Context, chatID int, check func(models.Chat) error) (models.Chat, []string, error) {
	args := m.Called(ctx, chatID)
	if err := args.Error(2); err != nil {
		return models.Chat{}, nil, err
	}
	current := args.Get(0).(models.Chat)
	if check != nil {
		if err := check(current.Clone()); err != nil {
			return models.Chat{}, nil, err
		}
	}
	var ids []string
	if val := args.Get(1); val != nil {
		ids = val.([]string)
	}
	return current, ids, nil
}

func (m *ChatRepositoryMock) ListChatsForUser(ctx context.Context, userID int) ([]models.Chat, error) {
	args := m.Called(ctx, userID)
	var list []models.Chat
	if val := args.Get(0); val != nil {
		list = val.([]models.Chat)
	}
	return list, args.Error(1)
}

func (m *ChatRepositoryMock) ListGroupsCreatedBy(ctx context.Context, userID int) ([]models.Chat, error) {
	args := m.Called(ctx, userID)
	var list []models.Chat
	if val := args.Get(0); val != nil {
		list = val.([]models.Chat)
	}
	return list, args.Error(1)
}

func (m *ChatRepositoryMock) ListContacts(ctx context.Context, userID int) ([]int, error) {
	args := m.Called(ctx, userID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) UpdateContent(ctx context.Context, messageID int, content string) (models.Message, error) {
	args := m.Called(ctx, messageID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) SoftDelete(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, chatID, limit, offset int) ([]models.Message, int, error) {
	args := m.Called(ctx, chatID, limit, offset)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Int(1), args.Error(2)
}

func (m *MessageRepositoryMock) SearchMessages(ctx context.Context, chatID int, query string) ([]models.Message, error) {
	args := m.Called(ctx, chatID, query)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUsers(ctx context.Context, userIDs []int) ([]models.User, error) {
	args := m.Called(ctx, userIDs)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) SearchUsers(ctx context.Context, q repositories.UserQuery) ([]models.User, error) {
	args := m.Called(ctx, q)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) Upload(ctx context.Context, folder string, f storage.File) (models.Attachment, error) {
	args := m.Called(ctx, folder, f)
	var att models.Attachment
	if val := args.Get(0); val != nil {
		att = val.(models.Attachment)
	}
	return att, args.Error(1)
}

func (m *StoreMock) Delete(ctx context.Context, storageIDs []string) error {
	args := m.Called(ctx, storageIDs)
	return args.Error(0)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Fanout(ctx context.Context, ev events.Event, recipients []int) error {
	args := m.Called(ctx, ev, recipients)
	return args.Error(0)
}

var _ repositories.ChatRepository = (*ChatRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ storage.Store = (*StoreMock)(nil)
var _ events.Notifier = (*NotifierMock)(nil)
