package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/Techtaurant/be/internal/cache"
	"github.com/Techtaurant/be/internal/metrics"
	"github.com/Techtaurant/be/internal/repository"
	"github.com/Techtaurant/be/internal/token"
)

const (
	testSecret     = "0123456789abcdef0123456789abcdef"
	testAccessTTL  = time.Hour
	testRefreshTTL = 7 * 24 * time.Hour
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	clock   *testClock
	mr      *miniredis.Miniredis
	cache   *cache.RefreshTokenCache
	codec   *token.Codec
	users   *repository.MockUserRepository
	tokens  *TokenService
	refresh *RefreshService
	logout  *LogoutService
	login   *LoginService
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	storeTimeout   time.Duration
	compareAndSwap bool
	wrapCache      func(refreshTokenCache) refreshTokenCache
}

func withStoreTimeout(d time.Duration) fixtureOption {
	return func(c *fixtureConfig) { c.storeTimeout = d }
}

func withoutCompareAndSwap() fixtureOption {
	return func(c *fixtureConfig) { c.compareAndSwap = false }
}

func withCacheWrapper(wrap func(refreshTokenCache) refreshTokenCache) fixtureOption {
	return func(c *fixtureConfig) { c.wrapCache = wrap }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	cfg := fixtureConfig{storeTimeout: time.Second, compareAndSwap: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	rc := cache.NewRefreshTokenCache(client, "test:")

	clock := &testClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
	signer, err := token.NewSigner([]byte(testSecret))
	require.NoError(t, err)
	codec, err := token.NewCodec(signer, testAccessTTL, testRefreshTTL, token.WithClock(clock.Now))
	require.NoError(t, err)

	var store refreshTokenCache = rc
	if cfg.wrapCache != nil {
		store = cfg.wrapCache(rc)
	}

	users := new(repository.MockUserRepository)
	tokens := NewTokenService(codec, store, cfg.storeTimeout, metrics.New())

	return &fixture{
		clock:   clock,
		mr:      mr,
		cache:   rc,
		codec:   codec,
		users:   users,
		tokens:  tokens,
		refresh: NewRefreshService(tokens, users, cfg.compareAndSwap),
		logout:  NewLogoutService(tokens),
		login:   NewLoginService(tokens, users),
	}
}

func (f *fixture) cached(t *testing.T, userID uuid.UUID) string {
	t.Helper()

	value, err := f.cache.Get(context.Background(), userID)
	require.NoError(t, err)
	return value
}
