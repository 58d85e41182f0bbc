package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is returned when no refresh token is cached for the user.
	ErrNotFound = errors.New("refresh token not cached")
	// ErrMismatch is returned by Swap when the cached token is not the expected one.
	ErrMismatch = errors.New("cached refresh token does not match")
	// ErrUnavailable wraps every failure to talk to Redis.
	ErrUnavailable = errors.New("refresh token cache unavailable")
	// ErrInvalidTTL is returned for entries that would never expire.
	ErrInvalidTTL = errors.New("refresh token ttl must be positive")
)

const (
	swapStatusNotFound = 0
	swapStatusSwapped  = 1
	swapStatusMismatch = 2
)

const swapScript = `
local current = redis.call("GET", KEYS[1])
if not current then
  return 0
end
if current ~= ARGV[1] then
  return 2
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`

var swapLua = redis.NewScript(swapScript)

// RefreshTokenCache keeps the single currently valid refresh token of each
// user. Every operation touches exactly one key.
type RefreshTokenCache struct {
	client redis.UniversalClient
	prefix string
}

func NewRefreshTokenCache(client redis.UniversalClient, prefix string) *RefreshTokenCache {
	return &RefreshTokenCache{client: client, prefix: prefix}
}

func (c *RefreshTokenCache) key(userID uuid.UUID) string {
	return c.prefix + "refreshToken:" + userID.String()
}

// Put stores token as the user's current refresh token, replacing any
// previous one.
func (c *RefreshTokenCache) Put(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	if err := c.client.Set(ctx, c.key(userID), token, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return nil
}

func (c *RefreshTokenCache) Get(ctx context.Context, userID uuid.UUID) (string, error) {
	value, err := c.client.Get(ctx, c.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return value, nil
}

// Delete removes the user's entry. Deleting an absent entry is not an error.
func (c *RefreshTokenCache) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return nil
}

// Swap replaces the cached token with next only if it still equals
// expected, atomically on the Redis side.
func (c *RefreshTokenCache) Swap(ctx context.Context, userID uuid.UUID, expected string, next string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	status, err := swapLua.Run(ctx, c.client, []string{c.key(userID)}, expected, next, ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	switch status {
	case swapStatusSwapped:
		return nil
	case swapStatusNotFound:
		return ErrNotFound
	case swapStatusMismatch:
		return ErrMismatch
	default:
		return fmt.Errorf("%w: unknown swap status %d", ErrUnavailable, status)
	}
}

func (c *RefreshTokenCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return nil
}
