package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinescope/cinescope/src/internal/domain"
)

func newStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionStore(client), mr
}

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)

	sess := &domain.Session{Token: "tok", UserID: "user-1", CreatedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, store.Put(ctx, sess, time.Hour))

	assert.True(t, mr.Exists("sess:tok"))
	assert.Equal(t, time.Hour, mr.TTL("sess:tok"))

	got, err := store.Get(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.False(t, got.ExpiresAt.IsZero())
}

func TestGetMissing(t *testing.T) {
	store, _ := newStore(t)
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionExpiresWithTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)

	require.NoError(t, store.Put(ctx, &domain.Session{Token: "tok", UserID: "u"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "tok")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)

	require.NoError(t, store.Put(ctx, &domain.Session{Token: "tok", UserID: "u"}, time.Minute))
	require.NoError(t, store.Delete(ctx, "tok"))
	assert.False(t, mr.Exists("sess:tok"))
}

func TestStoreFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)
	mr.Close()

	err := store.Delete(ctx, "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete session")
}
