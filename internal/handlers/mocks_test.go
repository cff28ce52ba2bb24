package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-realtime/internal/membership"
	"chat-realtime/internal/models"
	"chat-realtime/internal/pipeline"
	"chat-realtime/internal/storage"
)

type ChatServiceMock struct {
	mock.Mock
}

func (m *ChatServiceMock) chat(args mock.Arguments) (models.Chat, error) {
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatServiceMock) CreateOneToOne(ctx context.Context, actor, receiver int) (models.Chat, error) {
	return m.chat(m.Called(ctx, actor, receiver))
}

func (m *ChatServiceMock) CreateGroup(ctx context.Context, actor int, in membership.GroupInput) (models.Chat, error) {
	return m.chat(m.Called(ctx, actor, in))
}

func (m *ChatServiceMock) AddMembers(ctx context.Context, chatID, actor int, ids []int) (models.Chat, error) {
	return m.chat(m.Called(ctx, chatID, actor, ids))
}

func (m *ChatServiceMock) RemoveMember(ctx context.Context, chatID, actor, target int) (models.Chat, error) {
	return m.chat(m.Called(ctx, chatID, actor, target))
}

func (m *ChatServiceMock) LeaveGroup(ctx context.Context, chatID, actor int) (models.Chat, error) {
	return m.chat(m.Called(ctx, chatID, actor))
}

func (m *ChatServiceMock) Rename(ctx context.Context, chatID, actor int, name string) (models.Chat, error) {
	return m.chat(m.Called(ctx, chatID, actor, name))
}

func (m *ChatServiceMock) DeleteChat(ctx context.Context, chatID, actor int) (models.Chat, error) {
	return m.chat(m.Called(ctx, chatID, actor))
}

func (m *ChatServiceMock) GetChat(ctx context.Context, chatID, actor int, populate bool) (membership.ChatDetails, error) {
	args := m.Called(ctx, chatID, actor, populate)
	var details membership.ChatDetails
	if val := args.Get(0); val != nil {
		details = val.(membership.ChatDetails)
	}
	return details, args.Error(1)
}

func (m *ChatServiceMock) ListMembers(ctx context.Context, chatID, actor int) (membership.MemberList, error) {
	args := m.Called(ctx, chatID, actor)
	var list membership.MemberList
	if val := args.Get(0); val != nil {
		list = val.(membership.MemberList)
	}
	return list, args.Error(1)
}

func (m *ChatServiceMock) ListMyChats(ctx context.Context, actor int) ([]models.ChatSummary, error) {
	args := m.Called(ctx, actor)
	var list []models.ChatSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatSummary)
	}
	return list, args.Error(1)
}

func (m *ChatServiceMock) ListMyGroups(ctx context.Context, actor int) ([]models.ChatSummary, error) {
	args := m.Called(ctx, actor)
	var list []models.ChatSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatSummary)
	}
	return list, args.Error(1)
}

type MessageServiceMock struct {
	mock.Mock
}

func (m *MessageServiceMock) view(args mock.Arguments) (models.MessageView, error) {
	var v models.MessageView
	if val := args.Get(0); val != nil {
		v = val.(models.MessageView)
	}
	return v, args.Error(1)
}

func (m *MessageServiceMock) SendMessage(ctx context.Context, chatID, sender int, content string) (models.MessageView, error) {
	return m.view(m.Called(ctx, chatID, sender, content))
}

func (m *MessageServiceMock) SendAttachments(ctx context.Context, chatID, sender int, content string, files []storage.File) (models.MessageView, error) {
	return m.view(m.Called(ctx, chatID, sender, content, files))
}

func (m *MessageServiceMock) UpdateMessage(ctx context.Context, messageID, actor int, content string) (models.MessageView, error) {
	return m.view(m.Called(ctx, messageID, actor, content))
}

func (m *MessageServiceMock) DeleteMessage(ctx context.Context, messageID, actor int) (models.MessageView, error) {
	return m.view(m.Called(ctx, messageID, actor))
}

func (m *MessageServiceMock) ListMessages(ctx context.Context, chatID, actor, page int) (pipeline.Page, error) {
	args := m.Called(ctx, chatID, actor, page)
	var p pipeline.Page
	if val := args.Get(0); val != nil {
		p = val.(pipeline.Page)
	}
	return p, args.Error(1)
}

func (m *MessageServiceMock) SearchMessages(ctx context.Context, chatID, actor int, query string) ([]models.MessageView, error) {
	args := m.Called(ctx, chatID, actor, query)
	var msgs []models.MessageView
	if val := args.Get(0); val != nil {
		msgs = val.([]models.MessageView)
	}
	return msgs, args.Error(1)
}

type DirectoryServiceMock struct {
	mock.Mock
}

func (m *DirectoryServiceMock) users(args mock.Arguments) ([]models.UserSummary, error) {
	var users []models.UserSummary
	if val := args.Get(0); val != nil {
		users = val.([]models.UserSummary)
	}
	return users, args.Error(1)
}

func (m *DirectoryServiceMock) Profile(ctx context.Context, actor int) (models.User, error) {
	args := m.Called(ctx, actor)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *DirectoryServiceMock) SearchUsers(ctx context.Context, actor int, name string) ([]models.UserSummary, error) {
	return m.users(m.Called(ctx, actor, name))
}

func (m *DirectoryServiceMock) SearchNonContacts(ctx context.Context, actor int, name string) ([]models.UserSummary, error) {
	return m.users(m.Called(ctx, actor, name))
}

func (m *DirectoryServiceMock) SearchNonMembers(ctx context.Context, chatID, actor int, name string) ([]models.UserSummary, error) {
	return m.users(m.Called(ctx, chatID, actor, name))
}

func (m *DirectoryServiceMock) SearchGroupMembers(ctx context.Context, chatID, actor int, name string) ([]models.UserSummary, error) {
	return m.users(m.Called(ctx, chatID, actor, name))
}
