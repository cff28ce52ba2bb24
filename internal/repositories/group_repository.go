package repositories

import (
	"context"
	"database/sql"
	"errors"

	"chat-realtime/internal/models"
)

// MutateChat loads the chat under a row lock, applies fn and persists the
// result in the same transaction. Concurrent mutations of one chat are
// serialized. If fn fails nothing is written.
func (r *ChatRepo) MutateChat(ctx context.Context, chatID int, fn func(models.Chat) (models.Chat, error)) (updated models.Chat, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Chat{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current models.Chat
	err = tx.GetContext(ctx, &current, `SELECT `+chatColumns+` FROM chats WHERE id=$1 FOR UPDATE`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	if err != nil {
		return models.Chat{}, err
	}
	if current.Members, err = r.members(ctx, tx, chatID); err != nil {
		return models.Chat{}, err
	}

	updated, err = fn(current.Clone())
	if err != nil {
		return models.Chat{}, err
	}
	updated.ID = current.ID
	updated.Members = dedupe(updated.Members)

	err = tx.QueryRowxContext(ctx, `UPDATE chats SET name=$2, avatar_id=$3, avatar_url=$4, creator_id=$5, updated_at=NOW()
        WHERE id=$1 RETURNING updated_at`,
		updated.ID, updated.Name, updated.AvatarID, updated.AvatarURL, updated.CreatorID).Scan(&updated.UpdatedAt)
	if err != nil {
		return models.Chat{}, err
	}

	added, removed := diffMembers(current.Members, updated.Members)
	if err = insertMembers(ctx, tx, chatID, added); err != nil {
		return models.Chat{}, err
	}
	for _, id := range removed {
		if _, err = tx.ExecContext(ctx, `DELETE FROM chat_members WHERE chat_id=$1 AND user_id=$2`, chatID, id); err != nil {
			return models.Chat{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Chat{}, err
	}
	return updated, nil
}

// ListGroupsCreatedBy returns the groups whose current creator is userID.
func (r *ChatRepo) ListGroupsCreatedBy(ctx context.Context, userID int) ([]models.Chat, error) {
	var groups []models.Chat
	err := r.db.SelectContext(ctx, &groups, `SELECT `+chatColumns+` FROM chats WHERE is_group = TRUE AND creator_id=$1 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return groups, r.attachMembers(ctx, groups)
}

func diffMembers(before, after []int) (added, removed []int) {
	was := make(map[int]bool, len(before))
	for _, id := range before {
		was[id] = true
	}
	is := make(map[int]bool, len(after))
	for _, id := range after {
		is[id] = true
		if !was[id] {
			added = append(added, id)
		}
	}
	for _, id := range before {
		if !is[id] {
			removed = append(removed, id)
		}
	}
	return added, removed
}
