package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"chat-realtime/internal/apperr"
	"chat-realtime/internal/models"
)

var ErrUserNotFound = fmt.Errorf("%w: user not found", apperr.ErrNotFound)

// UserRepository reads profiles written by the auth service.
type UserRepository interface {
	GetUser(ctx context.Context, userID int) (models.User, error)
	GetUsers(ctx context.Context, userIDs []int) ([]models.User, error)
	SearchUsers(ctx context.Context, q UserQuery) ([]models.User, error)
}

// UserQuery filters the user directory. Name matches display names
// case-insensitively; an empty Name matches everyone. A non-nil Only limits
// the result to those ids.
type UserQuery struct {
	Name    string
	Only    []int
	Exclude []int
	Limit   int
}

const defaultSearchLimit = 50

type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) GetUser(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT id, display_name, email, avatar_url, created_at FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetUsers returns the users that exist among userIDs, ordered by id.
func (r *UserRepo) GetUsers(ctx context.Context, userIDs []int) ([]models.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `SELECT id, display_name, email, avatar_url, created_at FROM users WHERE id = ANY($1) ORDER BY id`, pq.Array(int64s(userIDs)))
	return users, err
}

// SearchUsers returns the users matching q, ordered by display name.
func (r *UserRepo) SearchUsers(ctx context.Context, q UserQuery) ([]models.User, error) {
	if q.Only != nil && len(q.Only) == 0 {
		return []models.User{}, nil
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	query := `SELECT id, display_name, email, avatar_url, created_at FROM users
        WHERE display_name ILIKE $1 AND NOT (id = ANY($2))`
	args := []interface{}{likePattern(q.Name), pq.Array(int64s(q.Exclude))}
	if q.Only != nil {
		query += ` AND id = ANY($3)`
		args = append(args, pq.Array(int64s(q.Only)))
	}
	query += fmt.Sprintf(` ORDER BY display_name, id LIMIT %d`, limit)

	users := []models.User{}
	err := r.db.SelectContext(ctx, &users, query, args...)
	return users, err
}

func int64s(ids []int) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		out = append(out, int64(id))
	}
	return out
}
