package authentication

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "refresh_token:"

	// keys outlive ExpiresAt so validation can still report "expired" and
	// perform the cleanup delete itself
	redisRetention = time.Hour
)

const updateTokenScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("HSET", KEYS[1], "token", ARGV[1])
return 1
`

const deleteOwnedScript = `
if redis.call("HGET", KEYS[1], "user_id") == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var (
	updateTokenLua = redis.NewScript(updateTokenScript)
	deleteOwnedLua = redis.NewScript(deleteOwnedScript)
)

type redisRecordRepository struct {
	client redis.UniversalClient
}

// NewRedisRecordRepository stores each record as a hash under refresh_token:<id>.
func NewRedisRecordRepository(client redis.UniversalClient) RecordRepository {
	return &redisRecordRepository{client: client}
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

func (r *redisRecordRepository) Create(ctx context.Context, record *RefreshToken) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	key := redisKey(record.ID)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"user_id", record.UserID,
			"token", record.Token,
			"expires_at", strconv.FormatInt(record.ExpiresAt.UnixNano(), 10),
			"created_at", strconv.FormatInt(record.CreatedAt.UnixNano(), 10),
		)
		pipe.ExpireAt(ctx, key, record.ExpiresAt.Add(redisRetention))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create refresh token record: %w", err)
	}
	return nil
}

func (r *redisRecordRepository) ReadByID(ctx context.Context, id string) (*RefreshToken, error) {
	fields, err := r.client.HGetAll(ctx, redisKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresponsiveDatabase, err)
	}
	if len(fields) == 0 {
		return nil, ErrRecordNotFound
	}

	expires, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt expires_at for %s", ErrUnresponsiveDatabase, id)
	}
	created, _ := strconv.ParseInt(fields["created_at"], 10, 64)

	return &RefreshToken{
		ID:        id,
		UserID:    fields["user_id"],
		Token:     fields["token"],
		ExpiresAt: time.Unix(0, expires).UTC(),
		CreatedAt: time.Unix(0, created).UTC(),
	}, nil
}

func (r *redisRecordRepository) UpdateToken(ctx context.Context, id, token string) error {
	n, err := updateTokenLua.Run(ctx, r.client, []string{redisKey(id)}, token).Int()
	return countResult(n, err)
}

func (r *redisRecordRepository) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, redisKey(id)).Result()
	return countResult(int(n), err)
}

func (r *redisRecordRepository) DeleteOwned(ctx context.Context, id, userID string) error {
	n, err := deleteOwnedLua.Run(ctx, r.client, []string{redisKey(id)}, userID).Int()
	return countResult(n, err)
}

func countResult(n int, err error) error {
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrUnresponsiveDatabase, err)
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}
