// Package cache keeps the latest oracle quote in Redis and fans it out over
// Redis pub/sub.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/StrathCole/zentro-oracle/pkg/logging"
	"github.com/StrathCole/zentro-oracle/pkg/metrics"
	"github.com/StrathCole/zentro-oracle/pkg/oracle"
)

const (
	// DefaultKeyPrefix prefixes the account address in cache keys.
	DefaultKeyPrefix = "zentro:quote:"
	// DefaultTTL bounds how long a cached quote survives without refresh.
	DefaultTTL = 2 * time.Minute

	channelPrefix = "zentro.quotes."
	writeTimeout  = 2 * time.Second
)

// Options configures a QuoteCache.
type Options struct {
	KeyPrefix string
	TTL       time.Duration
	Logger    *logging.Logger
}

// QuoteCache stores the latest quote of one oracle account.
type QuoteCache struct {
	client  *redis.Client
	account string
	key     string
	channel string
	ttl     time.Duration
	logger  *logging.Logger
}

// New creates a cache for account backed by client.
func New(client *redis.Client, account string, opts Options) (*QuoteCache, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNoopLogger()
	}
	return &QuoteCache{
		client:  client,
		account: account,
		key:     opts.KeyPrefix + account,
		channel: Channel(account),
		ttl:     opts.TTL,
		logger:  opts.Logger,
	}, nil
}

// Channel returns the pub/sub channel quotes of account are published on.
func Channel(account string) string {
	return channelPrefix + account
}

// Key returns the Redis key holding the latest quote.
func (c *QuoteCache) Key() string {
	return c.key
}

// Store writes q as the latest quote and publishes it.
func (c *QuoteCache) Store(ctx context.Context, q oracle.Quote) error {
	payload, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to encode quote: %w", err)
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, c.key, payload, c.ttl)
		pipe.Publish(ctx, c.channel, payload)
		return nil
	})
	metrics.RecordCacheWrite(err == nil)
	if err != nil {
		return fmt.Errorf("failed to store quote for %s: %w", c.account, err)
	}
	return nil
}

// Latest returns the cached quote, or ErrCacheMiss.
func (c *QuoteCache) Latest(ctx context.Context) (oracle.Quote, error) {
	payload, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return oracle.Quote{}, fmt.Errorf("%w: %s", ErrCacheMiss, c.account)
	}
	if err != nil {
		return oracle.Quote{}, fmt.Errorf("failed to read cached quote for %s: %w", c.account, err)
	}

	var q oracle.Quote
	if err := json.Unmarshal(payload, &q); err != nil {
		return oracle.Quote{}, fmt.Errorf("failed to decode cached quote for %s: %w", c.account, err)
	}
	return q, nil
}

// Callback returns a feed subscriber that stores every pushed quote.
// Write failures are logged.
func (c *QuoteCache) Callback() func(oracle.Quote) {
	return func(q oracle.Quote) {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := c.Store(ctx, q); err != nil {
			c.logger.Warn("Failed to cache quote", "account", c.account, "error", err)
		}
	}
}

// Watch delivers quotes published for the account to fn until ctx is
// cancelled. Undecodable messages are logged and skipped.
func (c *QuoteCache) Watch(ctx context.Context, fn func(oracle.Quote)) error {
	return c.watch(ctx, nil, fn)
}

// watch calls subscribed, if set, once the subscription is confirmed.
func (c *QuoteCache) watch(ctx context.Context, subscribed func(), fn func(oracle.Quote)) error {
	pubsub := c.client.Subscribe(ctx, c.channel)
	defer pubsub.Close()

	// Wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", c.channel, err)
	}
	if subscribed != nil {
		subscribed()
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var q oracle.Quote
			if err := json.Unmarshal([]byte(msg.Payload), &q); err != nil {
				c.logger.Warn("Skipping malformed quote message", "channel", msg.Channel, "error", err)
				continue
			}
			fn(q)
		}
	}
}
