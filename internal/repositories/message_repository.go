package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"chat-realtime/internal/apperr"
	"chat-realtime/internal/models"
)

var ErrMessageNotFound = fmt.Errorf("%w: message not found", apperr.ErrNotFound)

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg models.Message) (models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	UpdateContent(ctx context.Context, messageID int, content string) (models.Message, error)
	SoftDelete(ctx context.Context, messageID int) (models.Message, error)
	ListMessages(ctx context.Context, chatID, limit, offset int) ([]models.Message, int, error)
	SearchMessages(ctx context.Context, chatID int, query string) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, chat_id, sender_id, content, attachments, is_deleted, is_edited, is_left, created_at, updated_at`

// CreateMessage stores a message. It also bumps the chat so chat lists sort
// by latest activity.
func (r *MessageRepo) CreateMessage(ctx context.Context, msg models.Message) (created models.Message, err error) {
	if msg.Attachments == nil {
		msg.Attachments = models.Attachments{}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.GetContext(ctx, &created, `INSERT INTO messages (chat_id, sender_id, content, attachments, is_left)
        VALUES ($1, $2, $3, $4, $5) RETURNING `+messageColumns,
		msg.ChatID, msg.SenderID, msg.Content, msg.Attachments, msg.IsLeft)
	if err != nil {
		return models.Message{}, err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE chats SET updated_at=NOW() WHERE id=$1`, msg.ChatID); err != nil {
		return models.Message{}, err
	}
	if err = tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return created, nil
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// UpdateContent replaces the text of a message and flags it edited.
func (r *MessageRepo) UpdateContent(ctx context.Context, messageID int, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `UPDATE messages SET content=$2, is_edited=TRUE, updated_at=NOW()
        WHERE id=$1 RETURNING `+messageColumns, messageID, content)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// SoftDelete clears the content and marks the message deleted. The row and
// its attachments are kept.
func (r *MessageRepo) SoftDelete(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `UPDATE messages SET content='', is_deleted=TRUE, updated_at=NOW()
        WHERE id=$1 RETURNING `+messageColumns, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// ListMessages returns one page of messages, newest first, and the total
// number of messages in the chat.
func (r *MessageRepo) ListMessages(ctx context.Context, chatID, limit, offset int) ([]models.Message, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM messages WHERE chat_id=$1`, chatID); err != nil {
		return nil, 0, err
	}

	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages
        WHERE chat_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, chatID, limit, offset)
	return msgs, total, err
}

// SearchMessages matches content case-insensitively, newest first. Deleted
// messages never match.
func (r *MessageRepo) SearchMessages(ctx context.Context, chatID int, query string) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages
        WHERE chat_id=$1 AND is_deleted = FALSE AND content ILIKE $2 ESCAPE '\'
        ORDER BY created_at DESC, id DESC`, chatID, likePattern(query))
	return msgs, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}
