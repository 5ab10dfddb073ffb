//nolint:testpackage // Testing key layout requires same package access
package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/referer-classifier/internal/domain"
	"github.com/jonesrussell/referer-classifier/internal/logger"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return New(client, time.Hour, logger.NewNop()), mr
}

func TestCache_SetGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	term := "shoes"
	result := &domain.Result{
		Medium:     domain.MediumSearch,
		Source:     "Google",
		SearchTerm: &term,
	}

	key := Key("http://www.google.com/search?q=shoes", "example.com")
	c.Set(ctx, key, result)

	got, ok := c.Get(ctx, key)
	require.True(t, ok, "expected cache hit")
	assert.Equal(t, domain.MediumSearch, got.Medium)
	assert.Equal(t, "Google", got.Source)
	require.NotNil(t, got.SearchTerm)
	assert.Equal(t, "shoes", *got.SearchTerm)
}

func TestCache_Miss(t *testing.T) {
	c, _ := newTestCache(t)

	_, ok := c.Get(context.Background(), Key("http://nope.example/", ""))
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	key := Key("https://facebook.com/post", "example.com")
	c.Set(ctx, key, &domain.Result{Medium: domain.MediumSocial, Source: "Facebook"})

	mr.FastForward(2 * time.Hour)

	_, ok := c.Get(ctx, key)
	assert.False(t, ok, "expected entry to expire")
}

func TestCache_UndecodableEntryIsMiss(t *testing.T) {
	c, mr := newTestCache(t)

	key := Key("https://t.co/abc", "")
	require.NoError(t, mr.Set(key, "{not json"))

	_, ok := c.Get(context.Background(), key)
	assert.False(t, ok, "expected undecodable entry to read as a miss")
}

func TestNewClient_RequiresAddress(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrEmptyAddress)
}

func TestKey_DistinguishesPageHosts(t *testing.T) {
	a := Key("https://google.com/", "site-a.example")
	b := Key("https://google.com/", "site-b.example")
	assert.NotEqual(t, a, b)
}
