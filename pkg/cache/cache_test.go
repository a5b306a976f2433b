package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StrathCole/zentro-oracle/pkg/logging"
	"github.com/StrathCole/zentro-oracle/pkg/oracle"
)

const account = "ZenPriceAccount1111111111111111111111111111"

func newTestCache(t *testing.T) (*QuoteCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c, err := New(client, account, Options{TTL: time.Minute, Logger: logging.NewNoopLogger()})
	require.NoError(t, err)
	return c, mr
}

var sample = oracle.Quote{Price: 0.62, Timestamp: 1_700_000_000_000, Confidence: 0.97, Status: oracle.StatusActive}

func TestNew(t *testing.T) {
	_, err := New(nil, account, Options{})
	require.ErrorIs(t, err, ErrClientRequired)

	c, err := New(redis.NewClient(&redis.Options{}), account, Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultKeyPrefix+account, c.Key())
	assert.Equal(t, DefaultTTL, c.ttl)
	assert.Equal(t, "zentro.quotes."+account, Channel(account))
}

func TestStoreAndLatest(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, err := c.Latest(ctx)
	require.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Store(ctx, sample))

	got, err := c.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample, got)

	assert.True(t, mr.Exists(c.Key()))
	assert.Equal(t, time.Minute, mr.TTL(c.Key()))

	mr.FastForward(2 * time.Minute)
	_, err = c.Latest(ctx)
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestLatest_Malformed(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set(c.Key(), "not json"))

	_, err := c.Latest(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestStore_Unavailable(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.Error(t, c.Store(ctx, sample))
}

func TestCallback(t *testing.T) {
	c, _ := newTestCache(t)

	c.Callback()(sample)

	got, err := c.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sample, got)
}

func TestWatch(t *testing.T) {
	c, mr := newTestCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan oracle.Quote, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.Watch(ctx, func(q oracle.Quote) { got <- q })
	}()

	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels(Channel(account))) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mr.Publish(Channel(account), "garbage")
	require.NoError(t, c.Store(context.Background(), sample))

	select {
	case q := <-got:
		assert.Equal(t, sample, q)
	case <-time.After(2 * time.Second):
		t.Fatal("published quote not delivered")
	}

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
