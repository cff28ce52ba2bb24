package presence

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"chat-realtime/internal/config"
	"chat-realtime/internal/log"
)

const defaultOnlineKey = "chat:online_users"

// releaseScript decrements a user's instance count and drops the field once
// no instance holds the user.
var releaseScript = redis.NewScript(`
local n = redis.call("HINCRBY", KEYS[1], ARGV[1], -1)
if n <= 0 then
  redis.call("HDEL", KEYS[1], ARGV[1])
  return 0
end
return n
`)

// RedisMirror keeps a Redis hash of online user ids shared by every instance.
// Each field counts the instances where the user has at least one endpoint,
// so a user leaves the shared set only when the last instance lets go. An
// instance that dies without disconnecting its users leaves their counts
// behind.
type RedisMirror struct {
	client *redis.Client
	key    string
}

func NewRedisMirror(cfg config.RedisConfig) (*RedisMirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	key := cfg.OnlineKey
	if key == "" {
		key = defaultOnlineKey
	}

	l := log.L()
	l.Info().Str("address", cfg.Address).Str("key", key).Msg("presence mirror connected")
	return &RedisMirror{client: client, key: key}, nil
}

// Add records that this instance now holds userID.
func (m *RedisMirror) Add(ctx context.Context, userID int) error {
	return m.client.HIncrBy(ctx, m.key, strconv.Itoa(userID), 1).Err()
}

// Remove records that this instance no longer holds userID.
func (m *RedisMirror) Remove(ctx context.Context, userID int) error {
	return releaseScript.Run(ctx, m.client, []string{m.key}, strconv.Itoa(userID)).Err()
}

// Members reads the users held by at least one instance.
func (m *RedisMirror) Members(ctx context.Context) ([]int, error) {
	raw, err := m.client.HGetAll(ctx, m.key).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(raw))
	for field, count := range raw {
		id, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		if n, err := strconv.Atoi(count); err != nil || n <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (m *RedisMirror) Close() error {
	return m.client.Close()
}
