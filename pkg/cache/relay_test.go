package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StrathCole/zentro-oracle/pkg/oracle"
)

func TestRelay_FansOutStoredQuotes(t *testing.T) {
	c, _ := newTestCache(t)
	relay := NewRelay(c)
	assert.Equal(t, account, relay.Address())

	var order []string
	first := make(chan oracle.Quote, 1)
	second := make(chan oracle.Quote, 1)
	relay.Subscribe("first", func(q oracle.Quote) {
		order = append(order, "first")
		first <- q
	})
	relay.Subscribe("panics", func(oracle.Quote) { panic("boom") })
	relay.Subscribe("second", func(q oracle.Quote) {
		order = append(order, "second")
		second <- q
	})
	relay.Subscribe("ignored", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	select {
	case <-relay.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("relay never subscribed")
	}

	require.NoError(t, c.Store(context.Background(), sample))
	for _, ch := range []chan oracle.Quote{first, second} {
		select {
		case q := <-ch:
			assert.Equal(t, sample, q)
		case <-time.After(2 * time.Second):
			t.Fatal("quote not relayed")
		}
	}
	assert.Equal(t, []string{"first", "second"}, order)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestRelay_Unsubscribe(t *testing.T) {
	c, _ := newTestCache(t)
	relay := NewRelay(c)

	calls := 0
	relay.Subscribe("a", func(oracle.Quote) { calls++ })
	relay.Subscribe("b", func(oracle.Quote) { calls += 10 })
	relay.Unsubscribe("a")
	relay.Unsubscribe("missing")

	relay.deliver(sample)
	assert.Equal(t, 10, calls)
	assert.Equal(t, []string{"b"}, relay.ids)
}
