package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"chat-realtime/internal/apperr"
	"chat-realtime/internal/models"
)

var (
	ErrChatNotFound = fmt.Errorf("%w: chat not found", apperr.ErrNotFound)
	ErrChatExists   = fmt.Errorf("%w: chat already exists", apperr.ErrConflict)
)

const uniqueViolation = "23505"

// ChatRepository abstracts chat persistence.
type ChatRepository interface {
	CreateChat(ctx context.Context, chat models.Chat) (models.Chat, error)
	FindOneToOne(ctx context.Context, a, b int) (models.Chat, error)
	GetChat(ctx context.Context, chatID int) (models.Chat, error)
	MutateChat(ctx context.Context, chatID int, fn func(models.Chat) (models.Chat, error)) (models.Chat, error)
	DeleteChat(ctx context.Context, chatID int, check func(models.Chat) error) (models.Chat, []string, error)
	ListChatsForUser(ctx context.Context, userID int) ([]models.Chat, error)
	ListGroupsCreatedBy(ctx context.Context, userID int) ([]models.Chat, error)
	ListContacts(ctx context.Context, userID int) ([]int, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

const chatColumns = `id, is_group, name, avatar_id, avatar_url, creator_id, created_at, updated_at`

// CreateChat inserts the chat and its members atomically. A second
// one-to-one chat for the same pair fails with ErrChatExists.
func (r *ChatRepo) CreateChat(ctx context.Context, chat models.Chat) (created models.Chat, err error) {
	var pairKey sql.NullString
	if !chat.IsGroup {
		if len(chat.Members) != 2 {
			return models.Chat{}, fmt.Errorf("%w: one-to-one chat needs two members", apperr.ErrInvalidOperation)
		}
		pairKey = sql.NullString{String: models.PairKey(chat.Members[0], chat.Members[1]), Valid: true}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Chat{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.GetContext(ctx, &created, `INSERT INTO chats (is_group, name, avatar_id, avatar_url, creator_id, pair_key)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+chatColumns,
		chat.IsGroup, chat.Name, chat.AvatarID, chat.AvatarURL, chat.CreatorID, pairKey)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.Chat{}, ErrChatExists
		}
		return models.Chat{}, err
	}

	created.Members = dedupe(chat.Members)
	if err = insertMembers(ctx, tx, created.ID, created.Members); err != nil {
		return models.Chat{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Chat{}, err
	}
	return created, nil
}

// FindOneToOne returns the non-group chat between a and b.
func (r *ChatRepo) FindOneToOne(ctx context.Context, a, b int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE pair_key=$1`, models.PairKey(a, b))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	if err != nil {
		return models.Chat{}, err
	}
	chat.Members, err = r.members(ctx, r.db, chat.ID)
	return chat, err
}

// GetChat fetches a chat with its members.
func (r *ChatRepo) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	if err != nil {
		return models.Chat{}, err
	}
	chat.Members, err = r.members(ctx, r.db, chat.ID)
	return chat, err
}

// DeleteChat locks the chat, runs check against the locked row and then
// removes it; members and messages cascade. It returns the chat as it was
// when locked, and the storage ids of the avatar and every attachment so the
// caller can release them. If check fails nothing is deleted.
func (r *ChatRepo) DeleteChat(ctx context.Context, chatID int, check func(models.Chat) error) (deleted models.Chat, storageIDs []string, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Chat{}, nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.GetContext(ctx, &deleted, `SELECT `+chatColumns+` FROM chats WHERE id=$1 FOR UPDATE`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, nil, ErrChatNotFound
	}
	if err != nil {
		return models.Chat{}, nil, err
	}
	if deleted.Members, err = r.members(ctx, tx, chatID); err != nil {
		return models.Chat{}, nil, err
	}
	if check != nil {
		if err = check(deleted.Clone()); err != nil {
			return models.Chat{}, nil, err
		}
	}

	if deleted.AvatarID != "" {
		storageIDs = append(storageIDs, deleted.AvatarID)
	}
	var attachments []models.Attachments
	if err = tx.SelectContext(ctx, &attachments, `SELECT attachments FROM messages WHERE chat_id=$1 AND attachments <> '[]'::jsonb`, chatID); err != nil {
		return models.Chat{}, nil, err
	}
	for _, a := range attachments {
		storageIDs = append(storageIDs, a.StorageIDs()...)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM chats WHERE id=$1`, chatID); err != nil {
		return models.Chat{}, nil, err
	}
	if err = tx.Commit(); err != nil {
		return models.Chat{}, nil, err
	}
	return deleted, storageIDs, nil
}

// ListChatsForUser returns every chat the user belongs to, most recently
// updated first.
func (r *ChatRepo) ListChatsForUser(ctx context.Context, userID int) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.db.SelectContext(ctx, &chats, `SELECT c.id, c.is_group, c.name, c.avatar_id, c.avatar_url, c.creator_id, c.created_at, c.updated_at
        FROM chats c INNER JOIN chat_members cm ON cm.chat_id = c.id
        WHERE cm.user_id=$1 ORDER BY c.updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return chats, r.attachMembers(ctx, chats)
}

// ListContacts returns everyone sharing at least one chat with userID.
func (r *ChatRepo) ListContacts(ctx context.Context, userID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids, `SELECT DISTINCT other.user_id FROM chat_members mine
        INNER JOIN chat_members other ON other.chat_id = mine.chat_id
        WHERE mine.user_id=$1 AND other.user_id<>$1 ORDER BY other.user_id`, userID)
	return ids, err
}

type queryer interface {
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func (r *ChatRepo) members(ctx context.Context, q queryer, chatID int) ([]int, error) {
	var ids []int
	err := q.SelectContext(ctx, &ids, `SELECT user_id FROM chat_members WHERE chat_id=$1 ORDER BY user_id`, chatID)
	if ids == nil {
		ids = []int{}
	}
	return ids, err
}

func (r *ChatRepo) attachMembers(ctx context.Context, chats []models.Chat) error {
	if len(chats) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(chats))
	for _, c := range chats {
		ids = append(ids, int64(c.ID))
	}

	var rows []struct {
		ChatID int `db:"chat_id"`
		UserID int `db:"user_id"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT chat_id, user_id FROM chat_members WHERE chat_id = ANY($1) ORDER BY user_id`, pq.Array(ids)); err != nil {
		return err
	}

	byChat := make(map[int][]int, len(chats))
	for _, row := range rows {
		byChat[row.ChatID] = append(byChat[row.ChatID], row.UserID)
	}
	for i := range chats {
		chats[i].Members = byChat[chats[i].ID]
		if chats[i].Members == nil {
			chats[i].Members = []int{}
		}
	}
	return nil
}

func insertMembers(ctx context.Context, tx *sqlx.Tx, chatID int, ids []int) error {
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `INSERT INTO chat_members (chat_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, chatID, id); err != nil {
			return err
		}
	}
	return nil
}

func dedupe(ids []int) []int {
	set := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := set[id]; ok {
			continue
		}
		set[id] = struct{}{}
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
