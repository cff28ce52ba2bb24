package handlers

import (
	"context"

	"chat-realtime/internal/membership"
	"chat-realtime/internal/models"
	"chat-realtime/internal/pipeline"
	"chat-realtime/internal/storage"
)

// ChatService is the chat and membership surface used by the handlers.
type ChatService interface {
	CreateOneToOne(ctx context.Context, actor, receiver int) (models.Chat, error)
	CreateGroup(ctx context.Context, actor int, in membership.GroupInput) (models.Chat, error)
	AddMembers(ctx context.Context, chatID, actor int, ids []int) (models.Chat, error)
	RemoveMember(ctx context.Context, chatID, actor, target int) (models.Chat, error)
	LeaveGroup(ctx context.Context, chatID, actor int) (models.Chat, error)
	Rename(ctx context.Context, chatID, actor int, name string) (models.Chat, error)
	DeleteChat(ctx context.Context, chatID, actor int) (models.Chat, error)

	GetChat(ctx context.Context, chatID, actor int, populate bool) (membership.ChatDetails, error)
	ListMembers(ctx context.Context, chatID, actor int) (membership.MemberList, error)
	ListMyChats(ctx context.Context, actor int) ([]models.ChatSummary, error)
	ListMyGroups(ctx context.Context, actor int) ([]models.ChatSummary, error)
}

// DirectoryService looks up user profiles.
type DirectoryService interface {
	Profile(ctx context.Context, actor int) (models.User, error)
	SearchUsers(ctx context.Context, actor int, name string) ([]models.UserSummary, error)
	SearchNonContacts(ctx context.Context, actor int, name string) ([]models.UserSummary, error)
	SearchNonMembers(ctx context.Context, chatID, actor int, name string) ([]models.UserSummary, error)
	SearchGroupMembers(ctx context.Context, chatID, actor int, name string) ([]models.UserSummary, error)
}

// MessageService is the message surface used by the handlers.
type MessageService interface {
	SendMessage(ctx context.Context, chatID, sender int, content string) (models.MessageView, error)
	SendAttachments(ctx context.Context, chatID, sender int, content string, files []storage.File) (models.MessageView, error)
	UpdateMessage(ctx context.Context, messageID, actor int, content string) (models.MessageView, error)
	DeleteMessage(ctx context.Context, messageID, actor int) (models.MessageView, error)
	ListMessages(ctx context.Context, chatID, actor, page int) (pipeline.Page, error)
	SearchMessages(ctx context.Context, chatID, actor int, query string) ([]models.MessageView, error)
}

var (
	_ ChatService      = (*membership.Service)(nil)
	_ DirectoryService = (*membership.Service)(nil)
	_ MessageService   = (*pipeline.Service)(nil)
)
