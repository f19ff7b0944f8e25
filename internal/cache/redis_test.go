package cache

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sakif/editorialchain/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*NewsCache, *mr.Miniredis) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewNewsCache(client, "test:news:", ttl), m
}

func samplePage() *model.NewsPage {
	return &model.NewsPage{
		Status:       "success",
		TotalResults: 1,
		Results: []model.Article{{
			ArticleID:   "a1",
			Title:       "Go 2 released",
			Creator:     []string{"gopher"},
			ReadingTime: 3,
		}},
		NextPage: "cursor-2",
	}
}

func TestNewsCache_SetGet(t *testing.T) {
	c, m := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "country=us", samplePage()))
	assert.True(t, m.Exists("test:news:country=us"))

	got, ok, err := c.Get(ctx, "country=us")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, samplePage(), got)
}

func TestNewsCache_Miss(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	got, ok, err := c.Get(context.Background(), "nothing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestNewsCache_TTLExpiry(t *testing.T) {
	c, m := newTestCache(t, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", samplePage()))
	assert.Equal(t, 30*time.Second, m.TTL("test:news:k"))

	m.FastForward(31 * time.Second)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewsCache_CorruptValueIsAMiss(t *testing.T) {
	c, m := newTestCache(t, time.Minute)
	require.NoError(t, m.Set("test:news:bad", "{{{"))

	_, ok, err := c.Get(context.Background(), "bad")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, m.Exists("test:news:bad"))
}

func TestNewsCache_ServerDown(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: m.Addr(), MaxRetries: -1})
	defer client.Close()
	c := NewNewsCache(client, "", time.Minute)
	m.Close()

	_, _, err = c.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, c.Set(context.Background(), "k", samplePage()))
	assert.Error(t, c.Ping(context.Background()))
}

func TestNewNewsCache_Defaults(t *testing.T) {
	c := NewNewsCache(redis.NewClient(&redis.Options{Addr: "localhost:0"}), "", 0)
	assert.Equal(t, "news:", c.prefix)
	assert.Equal(t, DefaultTTL, c.ttl)
}
