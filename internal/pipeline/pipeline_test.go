package pipeline

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-realtime/internal/apperr"
	"chat-realtime/internal/events"
	"chat-realtime/internal/mocks"
	"chat-realtime/internal/models"
	"chat-realtime/internal/registry"
	"chat-realtime/internal/repositories"
	"chat-realtime/internal/storage"
)

type fixture struct {
	chats    *mocks.ChatRepositoryMock
	messages *mocks.MessageRepositoryMock
	users    *mocks.UserRepositoryMock
	store    *mocks.StoreMock
	notifier *mocks.NotifierMock
	svc      *Service
}

func newFixture() *fixture {
	f := &fixture{
		chats:    new(mocks.ChatRepositoryMock),
		messages: new(mocks.MessageRepositoryMock),
		users:    new(mocks.UserRepositoryMock),
		store:    new(mocks.StoreMock),
		notifier: new(mocks.NotifierMock),
	}
	f.svc = NewService(f.chats, f.messages, f.users, f.store, f.notifier)
	return f
}

func (f *fixture) assert(t *testing.T) {
	f.chats.AssertExpectations(t)
	f.messages.AssertExpectations(t)
	f.users.AssertExpectations(t)
	f.store.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

var ann = models.User{ID: 1, DisplayName: "Ann"}

func chat3() models.Chat {
	return models.Chat{ID: 7, IsGroup: true, Name: "g", CreatorID: 1, Members: []int{1, 2, 3}}
}

func TestSendMessageRequiresMembership(t *testing.T) {
	f := newFixture()
	f.chats.On("GetChat", mock.Anything, 7).Return(chat3(), nil).Once()

	_, err := f.svc.SendMessage(context.Background(), 7, 9, "hi")
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	f.assert(t)
}

func TestSendMessageUnknownChat(t *testing.T) {
	f := newFixture()
	f.chats.On("GetChat", mock.Anything, 7).Return(nil, repositories.ErrChatNotFound).Once()

	_, err := f.svc.SendMessage(context.Background(), 7, 1, "hi")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	f.assert(t)
}

func TestSendMessageEmpty(t *testing.T) {
	f := newFixture()
	_, err := f.svc.SendMessage(context.Background(), 7, 1, "   ")
	assert.True(t, errors.Is(err, apperr.ErrInvalidOperation))
}

func TestSendMessagePersistFailureSendsNothing(t *testing.T) {
	f := newFixture()
	f.chats.On("GetChat", mock.Anything, 7).Return(chat3(), nil).Once()
	f.users.On("GetUser", mock.Anything, 1).Return(ann, nil).Once()
	f.messages.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()

	_, err := f.svc.SendMessage(context.Background(), 7, 1, "hi")
	assert.ErrorIs(t, err, assert.AnError)
	f.notifier.AssertNotCalled(t, "Fanout", mock.Anything, mock.Anything, mock.Anything)
	f.assert(t)
}

func files(n int) []storage.File {
	out := make([]storage.File, n)
	for i := range out {
		out[i] = storage.File{Name: "f.png", Size: 1, Body: bytes.NewReader([]byte{byte(i)})}
	}
	return out
}

func TestSendAttachmentsCount(t *testing.T) {
	f := newFixture()
	_, err := f.svc.SendAttachments(context.Background(), 7, 1, "", nil)
	assert.True(t, errors.Is(err, apperr.ErrInvalidOperation))

	_, err = f.svc.SendAttachments(context.Background(), 7, 1, "", files(6))
	assert.True(t, errors.Is(err, apperr.ErrLimitExceeded))
}

func TestSendAttachments(t *testing.T) {
	f := newFixture()
	fs := files(2)
	a1 := models.Attachment{StorageID: "attachments/1", FileTypeLabel: "image"}
	a2 := models.Attachment{StorageID: "attachments/2", FileTypeLabel: "image"}
	stored := models.Message{ID: 3, ChatID: 7, SenderID: 1, Content: "look", Attachments: models.Attachments{a1, a2}}

	f.chats.On("GetChat", mock.Anything, 7).Return(chat3(), nil).Once()
	f.users.On("GetUser", mock.Anything, 1).Return(ann, nil).Once()
	f.store.On("Upload", mock.Anything, storage.FolderAttachments, fs[0]).Return(a1, nil).Once()
	f.store.On("Upload", mock.Anything, storage.FolderAttachments, fs[1]).Return(a2, nil).Once()
	f.messages.On("CreateMessage", mock.Anything, models.Message{ChatID: 7, SenderID: 1, Content: "look", Attachments: models.Attachments{a1, a2}}).Return(stored, nil).Once()
	view := models.NewMessageView(stored, ann.Summary())
	f.notifier.On("Fanout", mock.Anything, events.NewMessage{ChatID: 7, Message: view}, []int{1, 2, 3}).Return(nil).Once()
	f.notifier.On("Fanout", mock.Anything, events.NewMessageAlert{ChatID: 7}, []int{1, 2, 3}).Return(nil).Once()

	got, err := f.svc.SendAttachments(context.Background(), 7, 1, "look", fs)
	require.NoError(t, err)
	assert.Equal(t, view, got)
	f.assert(t)
}

func TestSendAttachmentsCompensatesOnPersistFailure(t *testing.T) {
	f := newFixture()
	fs := files(2)

	f.chats.On("GetChat", mock.Anything, 7).Return(chat3(), nil).Once()
	f.users.On("GetUser", mock.Anything, 1).Return(ann, nil).Once()
	f.store.On("Upload", mock.Anything, storage.FolderAttachments, fs[0]).Return(models.Attachment{StorageID: "a"}, nil).Once()
	f.store.On("Upload", mock.Anything, storage.FolderAttachments, fs[1]).Return(models.Attachment{StorageID: "b"}, nil).Once()
	f.messages.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()
	f.store.On("Delete", mock.Anything, []string{"a", "b"}).Return(nil).Once()

	_, err := f.svc.SendAttachments(context.Background(), 7, 1, "", fs)
	assert.ErrorIs(t, err, assert.AnError)
	f.assert(t)
}

func TestSendAttachmentsUploadFailureReleasesEarlierUploads(t *testing.T) {
	f := newFixture()
	fs := files(2)

	f.chats.On("GetChat", mock.Anything, 7).Return(chat3(), nil).Once()
	f.users.On("GetUser", mock.Anything, 1).Return(ann, nil).Once()
	f.store.On("Upload", mock.Anything, storage.FolderAttachments, fs[0]).Return(models.Attachment{StorageID: "a"}, nil).Once()
	f.store.On("Upload", mock.Anything, storage.FolderAttachments, fs[1]).Return(nil, apperr.ErrUploadFailure).Once()
	f.store.On("Delete", mock.Anything, []string{"a"}).Return(nil).Once()

	_, err := f.svc.SendAttachments(context.Background(), 7, 1, "", fs)
	assert.True(t, errors.Is(err, apperr.ErrUploadFailure))
	f.assert(t)
}

func TestUpdateMessage(t *testing.T) {
	f := newFixture()
	orig := models.Message{ID: 4, ChatID: 7, SenderID: 1, Content: "helo"}
	edited := models.Message{ID: 4, ChatID: 7, SenderID: 1, Content: "hello", IsEdited: true}

	f.messages.On("GetMessage", mock.Anything, 4).Return(orig, nil).Once()
	f.messages.On("UpdateContent", mock.Anything, 4, "hello").Return(edited, nil).Once()
	f.users.On("GetUser", mock.Anything, 1).Return(ann, nil).Once()
	f.chats.On("GetChat", mock.Anything, 7).Return(chat3(), nil).Once()
	view := models.NewMessageView(edited, ann.Summary())
	f.notifier.On("Fanout", mock.Anything, events.MessageUpdated{ChatID: 7, Message: view}, []int{1, 2, 3}).Return(nil).Once()

	got, err := f.svc.UpdateMessage(context.Background(), 4, 1, "hello")
	require.NoError(t, err)
	assert.True(t, got.IsEdited)
	f.assert(t)
}

func TestUpdateMessageRules(t *testing.T) {
	f := newFixture()
	f.messages.On("GetMessage", mock.Anything, 4).Return(models.Message{ID: 4, SenderID: 1}, nil).Once()
	_, err := f.svc.UpdateMessage(context.Background(), 4, 2, "x")
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	f.messages.On("GetMessage", mock.Anything, 5).Return(models.Message{ID: 5, SenderID: 1, IsDeleted: true}, nil).Once()
	_, err = f.svc.UpdateMessage(context.Background(), 5, 1, "x")
	assert.True(t, errors.Is(err, apperr.ErrInvalidOperation))

	f.messages.On("GetMessage", mock.Anything, 6).Return(nil, repositories.ErrMessageNotFound).Once()
	_, err = f.svc.UpdateMessage(context.Background(), 6, 1, "x")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	f.assert(t)
}

func TestDeleteMessage(t *testing.T) {
	f := newFixture()
	deleted := models.Message{ID: 4, ChatID: 7, SenderID: 1, IsDeleted: true}

	f.messages.On("GetMessage", mock.Anything, 4).Return(models.Message{ID: 4, ChatID: 7, SenderID: 1, Content: "oops"}, nil).Once()
	f.messages.On("SoftDelete", mock.Anything, 4).Return(deleted, nil).Once()
	f.users.On("GetUser", mock.Anything, 1).Return(ann, nil).Once()
	f.chats.On("GetChat", mock.Anything, 7).Return(chat3(), nil).Once()
	f.notifier.On("Fanout", mock.Anything, events.MessageDeleted{ChatID: 7, Message: models.NewMessageView(deleted, ann.Summary())}, []int{1, 2, 3}).Return(nil).Once()

	got, err := f.svc.DeleteMessage(context.Background(), 4, 1)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
	assert.Empty(t, got.Content)
	f.assert(t)
}

func TestListMessagesPaging(t *testing.T) {
	f := newFixture()
	f.chats.On("GetChat", mock.Anything, 7).Return(chat3(), nil).Once()
	f.messages.On("ListMessages", mock.Anything, 7, PageSize, PageSize).Return([]models.Message{{ID: 1, SenderID: 1}, {ID: 2, SenderID: 9}}, 41, nil).Once()
	f.users.On("GetUsers", mock.Anything, []int{1, 9}).Return([]models.User{ann}, nil).Once()

	page, err := f.svc.ListMessages(context.Background(), 7, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, "Ann", page.Messages[0].Sender.DisplayName)
	assert.Equal(t, 9, page.Messages[1].Sender.ID)
	f.assert(t)
}

func TestListMessagesForbidden(t *testing.T) {
	f := newFixture()
	f.chats.On("GetChat", mock.Anything, 7).Return(chat3(), nil).Once()
	_, err := f.svc.ListMessages(context.Background(), 7, 9, 1)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	f.assert(t)
}

func TestSearchMessagesEmptyIsNotFound(t *testing.T) {
	f := newFixture()
	f.chats.On("GetChat", mock.Anything, 7).Return(chat3(), nil).Once()
	f.messages.On("SearchMessages", mock.Anything, 7, "zzz").Return([]models.Message{}, nil).Once()

	_, err := f.svc.SearchMessages(context.Background(), 7, 1, " zzz ")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	f.assert(t)
}

// memStore backs the end-to-end scenario with in-memory tables.
type memStore struct {
	repositories.ChatRepository

	mu       sync.Mutex
	chats    map[int]models.Chat
	users    map[int]models.User
	messages []models.Message
}

func (m *memStore) GetChat(_ context.Context, id int) (models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[id]
	if !ok {
		return models.Chat{}, repositories.ErrChatNotFound
	}
	return c.Clone(), nil
}

type memMessages struct{ *memStore }

func (m memMessages) CreateMessage(_ context.Context, msg models.Message) (models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = len(m.messages) + 1
	m.messages = append(m.messages, msg)
	return msg, nil
}

func (m memMessages) GetMessage(context.Context, int) (models.Message, error) {
	return models.Message{}, repositories.ErrMessageNotFound
}

func (m memMessages) UpdateContent(context.Context, int, string) (models.Message, error) {
	return models.Message{}, repositories.ErrMessageNotFound
}

func (m memMessages) SoftDelete(context.Context, int) (models.Message, error) {
	return models.Message{}, repositories.ErrMessageNotFound
}

func (m memMessages) ListMessages(_ context.Context, chatID, limit, offset int) ([]models.Message, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Message
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].ChatID == chatID {
			out = append(out, m.messages[i])
		}
	}
	total := len(out)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return out[offset:end], total, nil
}

func (m memMessages) SearchMessages(context.Context, int, string) ([]models.Message, error) {
	return nil, nil
}

type memUsers struct{ *memStore }

func (m memUsers) GetUser(_ context.Context, id int) (models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return models.User{}, repositories.ErrUserNotFound
	}
	return u, nil
}

func (m memUsers) GetUsers(_ context.Context, ids []int) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memUsers) SearchUsers(context.Context, repositories.UserQuery) ([]models.User, error) {
	return nil, nil
}

type capture struct {
	id string

	mu     sync.Mutex
	frames [][]byte
}

func (c *capture) ID() string { return c.id }

func (c *capture) Send(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, frame)
	return true
}

func TestGroupMessageReachesConnectedMembers(t *testing.T) {
	const a, b, c, g = 1, 2, 3, 50
	store := &memStore{
		chats: map[int]models.Chat{g: {ID: g, IsGroup: true, Name: "G", CreatorID: a, Members: []int{a, b, c}}},
		users: map[int]models.User{a: {ID: a, DisplayName: "A"}, b: {ID: b, DisplayName: "B"}, c: {ID: c, DisplayName: "C"}},
	}
	reg := registry.New()
	epB, epC := &capture{id: "b"}, &capture{id: "c"}
	reg.Register(b, epB)
	reg.Register(c, epC)

	svc := NewService(store, memMessages{store}, memUsers{store}, storage.Disabled{Reason: "test"}, events.NewRouter(reg))

	_, err := svc.SendMessage(context.Background(), g, a, "hi")
	require.NoError(t, err)

	for _, ep := range []*capture{epB, epC} {
		require.NotEmpty(t, ep.frames, ep.id)
		frame, err := events.Decode(ep.frames[0])
		require.NoError(t, err)
		assert.Equal(t, events.KindNewMessage, frame.Event)
		assert.JSONEq(t, `{"id":1,"display_name":"A"}`, string(mustSender(t, frame)))
	}

	page, err := svc.ListMessages(context.Background(), g, b, 1)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "hi", page.Messages[0].Content)
	assert.Equal(t, a, page.Messages[0].Sender.ID)
	assert.Equal(t, 1, page.TotalPages)
}
