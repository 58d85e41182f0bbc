package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Techtaurant/be/internal/model"
	"github.com/Techtaurant/be/pkg/apierror"
)

func TestRefresh_RotatesPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	f.users.On("FindRole", mock.Anything, userID).Return(model.RoleUser, nil)

	first, err := f.tokens.Issue(ctx, userID, model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, first.RefreshToken, f.cached(t, userID))

	second, err := f.refresh.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.Equal(t, second.RefreshToken, f.cached(t, userID))

	claims, err := f.codec.VerifyAccess(second.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, model.RoleUser, claims.Role)

	assert.Equal(t, testRefreshTTL, f.mr.TTL("test:refreshToken:"+userID.String()))
}

func TestRefresh_RejectsReplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	f.users.On("FindRole", mock.Anything, userID).Return(model.RoleUser, nil)

	r1, err := f.tokens.Issue(ctx, userID, model.RoleUser)
	require.NoError(t, err)

	r2, err := f.refresh.Refresh(ctx, r1.RefreshToken)
	require.NoError(t, err)

	_, err = f.refresh.Refresh(ctx, r1.RefreshToken)
	assert.ErrorIs(t, err, apierror.InvalidRefreshToken.Err())

	// The replay attempt leaves the live session untouched.
	assert.Equal(t, r2.RefreshToken, f.cached(t, userID))
	_, err = f.refresh.Refresh(ctx, r2.RefreshToken)
	assert.NoError(t, err)
}

func TestRefresh_PicksUpRoleChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	f.users.On("FindRole", mock.Anything, userID).Return(model.RoleAdmin, nil)

	pair, err := f.tokens.Issue(ctx, userID, model.RoleUser)
	require.NoError(t, err)

	next, err := f.refresh.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	claims, err := f.codec.VerifyAccess(next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, claims.Role)
}

func TestRefresh_Failures(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name      string
		prepare   func(t *testing.T, f *fixture) string
		want      *apierror.APIError
		readsRole bool
	}{
		{
			name:    "missing",
			prepare: func(*testing.T, *fixture) string { return "   " },
			want:    apierror.MissingRefreshToken.Err(),
		},
		{
			name:    "malformed",
			prepare: func(*testing.T, *fixture) string { return "not.a.token" },
			want:    apierror.MalformedToken.Err(),
		},
		{
			name: "expired",
			prepare: func(t *testing.T, f *fixture) string {
				pair, err := f.tokens.Issue(context.Background(), userID, model.RoleUser)
				require.NoError(t, err)
				f.clock.Advance(testRefreshTTL + time.Second)
				return pair.RefreshToken
			},
			want: apierror.TokenExpired.Err(),
		},
		{
			name: "access token presented",
			prepare: func(t *testing.T, f *fixture) string {
				pair, err := f.tokens.Issue(context.Background(), userID, model.RoleUser)
				require.NoError(t, err)
				return pair.AccessToken
			},
			want: apierror.UnsupportedToken.Err(),
		},
		{
			name: "tampered signature",
			prepare: func(t *testing.T, f *fixture) string {
				pair, err := f.tokens.Issue(context.Background(), userID, model.RoleUser)
				require.NoError(t, err)
				return flipSignature(pair.RefreshToken)
			},
			want: apierror.InvalidRefreshToken.Err(),
		},
		{
			name: "logged out",
			prepare: func(t *testing.T, f *fixture) string {
				pair, err := f.tokens.Issue(context.Background(), userID, model.RoleUser)
				require.NoError(t, err)
				f.logout.Logout(context.Background(), "", pair.RefreshToken)
				return pair.RefreshToken
			},
			want: apierror.InvalidRefreshToken.Err(),
		},
		{
			name: "superseded by new login",
			prepare: func(t *testing.T, f *fixture) string {
				old, err := f.tokens.Issue(context.Background(), userID, model.RoleUser)
				require.NoError(t, err)
				_, err = f.tokens.Issue(context.Background(), userID, model.RoleUser)
				require.NoError(t, err)
				return old.RefreshToken
			},
			want: apierror.InvalidRefreshToken.Err(),
		},
		{
			name: "user deleted",
			prepare: func(t *testing.T, f *fixture) string {
				f.users.On("FindRole", mock.Anything, userID).Return(model.Role(""), model.ErrUserNotFound)
				pair, err := f.tokens.Issue(context.Background(), userID, model.RoleUser)
				require.NoError(t, err)
				return pair.RefreshToken
			},
			want:      apierror.InvalidRefreshToken.Err(),
			readsRole: true,
		},
		{
			name: "cache unavailable",
			prepare: func(t *testing.T, f *fixture) string {
				pair, err := f.tokens.Issue(context.Background(), userID, model.RoleUser)
				require.NoError(t, err)
				f.mr.SetError("ERR simulated outage")
				return pair.RefreshToken
			},
			want: apierror.UnknownError.Err(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			presented := tt.prepare(t, f)

			pair, err := f.refresh.Refresh(context.Background(), presented)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, pair.AccessToken)
			if !tt.readsRole {
				f.users.AssertNotCalled(t, "FindRole", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestRefresh_RoleLookupTimeout(t *testing.T) {
	f := newFixture(t, withStoreTimeout(20*time.Millisecond))
	ctx := context.Background()
	userID := uuid.New()

	f.users.On("FindRole", mock.Anything, userID).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(model.Role(""), context.DeadlineExceeded)

	pair, err := f.tokens.Issue(ctx, userID, model.RoleUser)
	require.NoError(t, err)

	start := time.Now()
	_, err = f.refresh.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, apierror.UnknownError.Err())
	assert.Less(t, time.Since(start), time.Second)

	// A retryable failure leaves the presented token live.
	assert.Equal(t, pair.RefreshToken, f.cached(t, userID))
}

// racingCache lets another rotation land between the read and the write.
type racingCache struct {
	refreshTokenCache
	winner string
}

func (c *racingCache) Swap(ctx context.Context, userID uuid.UUID, expected string, next string, ttl time.Duration) error {
	if err := c.refreshTokenCache.Put(ctx, userID, c.winner, ttl); err != nil {
		return err
	}
	return c.refreshTokenCache.Swap(ctx, userID, expected, next, ttl)
}

func TestRefresh_CompareAndSwapLosesRace(t *testing.T) {
	racer := &racingCache{winner: "rotated-elsewhere"}
	f := newFixture(t, withCacheWrapper(func(inner refreshTokenCache) refreshTokenCache {
		racer.refreshTokenCache = inner
		return racer
	}))
	ctx := context.Background()
	userID := uuid.New()
	f.users.On("FindRole", mock.Anything, userID).Return(model.RoleUser, nil)

	pair, err := f.tokens.Issue(ctx, userID, model.RoleUser)
	require.NoError(t, err)

	_, err = f.refresh.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, apierror.InvalidRefreshToken.Err())
	assert.Equal(t, "rotated-elsewhere", f.cached(t, userID))
}

func TestRefresh_ConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	f.users.On("FindRole", mock.Anything, userID).Return(model.RoleUser, nil)

	pair, err := f.tokens.Issue(ctx, userID, model.RoleUser)
	require.NoError(t, err)

	const callers = 8
	var (
		wg      sync.WaitGroup
		wins    atomic.Int32
		mu      sync.Mutex
		winning string
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next, err := f.refresh.Refresh(ctx, pair.RefreshToken)
			if err != nil {
				return
			}
			wins.Add(1)
			mu.Lock()
			winning = next.RefreshToken
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
	assert.Equal(t, winning, f.cached(t, userID))
}

func TestRefresh_LastWriterWinsWithoutCompareAndSwap(t *testing.T) {
	f := newFixture(t, withoutCompareAndSwap())
	ctx := context.Background()
	userID := uuid.New()
	f.users.On("FindRole", mock.Anything, userID).Return(model.RoleUser, nil)

	pair, err := f.tokens.Issue(ctx, userID, model.RoleUser)
	require.NoError(t, err)

	next, err := f.refresh.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, next.RefreshToken, f.cached(t, userID))
}

func flipSignature(raw string) string {
	b := []byte(raw)
	i := len(b) - 10
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}
