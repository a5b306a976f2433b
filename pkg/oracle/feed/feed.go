// Package feed polls an oracle account and pushes quotes to subscribers.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/StrathCole/zentro-oracle/pkg/logging"
	"github.com/StrathCole/zentro-oracle/pkg/metrics"
	"github.com/StrathCole/zentro-oracle/pkg/oracle"
	"github.com/StrathCole/zentro-oracle/pkg/oracle/aggregator"
)

// DefaultPollInterval is the polling interval used when none is configured.
const DefaultPollInterval = 30 * time.Second

// Callback receives quotes pushed by a feed. Callbacks run synchronously on
// the notifying goroutine and must not call Tick, Ingest or AggregateSources
// on the same feed. Subscribe, Unsubscribe and Destroy are safe.
type Callback func(oracle.Quote)

// Config configures a Feed.
type Config struct {
	// Address is the oracle account the feed is bound to.
	Address string
	// Symbol tags updates built from account reads. Defaults to Address.
	Symbol string
	// SourceAccounts are additional oracle accounts read by AggregateSources.
	SourceAccounts []string

	PollInterval time.Duration
	MaxAge       time.Duration

	Reader     *oracle.Reader
	Aggregator aggregator.Aggregator
	// History backs GetHistoricalPrices. Defaults to a SyntheticHistory
	// anchored at the last pushed price.
	History HistoryProvider

	Logger *logging.Logger
	// OnTickFailed is called with every failed tick error.
	OnTickFailed func(error)
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Feed owns one polling loop and one subscriber registry for a single
// oracle account.
type Feed struct {
	address        string
	symbol         string
	sourceAccounts []string
	interval       time.Duration
	maxAge         time.Duration

	reader       *oracle.Reader
	aggregator   aggregator.Aggregator
	history      HistoryProvider
	logger       *logging.Logger
	onTickFailed func(error)
	now          func() time.Time

	// ctx is cancelled by Destroy and stops the polling loop.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	state   State
	subs    *registry
	last    oracle.Quote
	hasLast bool

	// notifyMu serializes notification passes.
	notifyMu sync.Mutex

	done     chan struct{}
	doneOnce sync.Once
}

// New creates a feed in the Uninitialized state.
func New(cfg Config) (*Feed, error) {
	if cfg.Address == "" {
		return nil, ErrAddressRequired
	}
	if cfg.Reader == nil {
		return nil, ErrReaderRequired
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = oracle.DefaultMaxAge
	}
	if cfg.Symbol == "" {
		cfg.Symbol = cfg.Address
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNoopLogger()
	}
	if cfg.Aggregator == nil {
		cfg.Aggregator = aggregator.NewAverageAggregator(cfg.MaxAge, cfg.Logger)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Feed{
		address:        cfg.Address,
		symbol:         cfg.Symbol,
		sourceAccounts: append([]string(nil), cfg.SourceAccounts...),
		interval:       cfg.PollInterval,
		maxAge:         cfg.MaxAge,
		reader:         cfg.Reader,
		aggregator:     cfg.Aggregator,
		history:        cfg.History,
		logger:         cfg.Logger.With("account", cfg.Address),
		onTickFailed:   cfg.OnTickFailed,
		now:            cfg.Now,
		ctx:            ctx,
		cancel:         cancel,
		state:          StateUninitialized,
		subs:           newRegistry(),
		done:           make(chan struct{}),
	}, nil
}

// Address returns the oracle account the feed is bound to.
func (f *Feed) Address() string {
	return f.address
}

// State returns the current lifecycle state.
func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Initialize confirms that the bound account exists and starts polling.
// On failure the feed stays Uninitialized.
func (f *Feed) Initialize(ctx context.Context) error {
	f.mu.Lock()
	state := f.state
	f.mu.Unlock()

	switch state {
	case StatePolling:
		return ErrAlreadyInitialized
	case StateDestroyed:
		return ErrFeedDestroyed
	}

	if err := f.reader.CheckAccount(ctx, f.address); err != nil {
		if errors.Is(err, oracle.ErrAccountNotFound) {
			return fmt.Errorf("%w: %s: %w", ErrOracleAccountNotFound, f.address, err)
		}
		return fmt.Errorf("initialize feed %s: %w", f.address, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case StatePolling:
		return ErrAlreadyInitialized
	case StateDestroyed:
		return ErrFeedDestroyed
	}
	f.state = StatePolling
	go f.run()

	f.logger.Info("Oracle feed started", "interval", f.interval.String())
	return nil
}

// run drives polling until the feed context is cancelled.
func (f *Feed) run() {
	defer f.closeDone()

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-f.ctx.Done():
			f.logger.Debug("Oracle feed polling stopped")
			return
		case <-ticker.C:
			// Failures are logged and reported inside Tick; polling continues.
			_ = f.Tick(f.ctx)
		}
	}
}

// Tick performs one polling step: read the bound account and push the
// decoded quote to every subscriber. A read or decode failure is logged,
// passed to OnTickFailed and returned wrapped in ErrTickFailed; no
// subscriber is notified. Tick is a no-op unless the feed is Polling.
func (f *Feed) Tick(ctx context.Context) error {
	if f.State() != StatePolling {
		return nil
	}

	q, err := f.reader.ReadQuote(ctx, f.address)
	if err != nil {
		if f.State() == StateDestroyed {
			return nil
		}
		err = fmt.Errorf("%w: %w", ErrTickFailed, err)
		f.logger.Warn("Oracle feed tick failed", "error", err)
		metrics.RecordTick(f.address, "failed")
		if f.onTickFailed != nil {
			f.onTickFailed(err)
		}
		return err
	}

	if f.publish(q) {
		metrics.RecordTick(f.address, "ok")
	}
	return nil
}

// GetCurrentPrice reads the bound account on demand. Read and decode errors
// are returned to the caller.
func (f *Feed) GetCurrentPrice(ctx context.Context) (oracle.Quote, error) {
	return f.reader.ReadQuote(ctx, f.address)
}

// LastQuote returns the most recent quote pushed to subscribers.
func (f *Feed) LastQuote() (oracle.Quote, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last, f.hasLast
}

// Subscribe registers cb under id, replacing any callback already
// registered under it. A replaced subscriber keeps its position.
// Subscribe is a no-op on a destroyed feed.
func (f *Feed) Subscribe(id string, cb Callback) {
	if cb == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateDestroyed {
		return
	}
	f.subs.put(id, cb)
}

// Unsubscribe removes the callback registered under id, if any.
func (f *Feed) Unsubscribe(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs.remove(id)
}

// Subscribers returns the registered subscriber ids in notification order.
func (f *Feed) Subscribers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs.ids()
}

// Destroy stops polling and clears all subscribers. It does not wait for an
// in-flight tick; use Done for that. Destroy is idempotent and safe to call
// from inside a subscriber callback.
func (f *Feed) Destroy() {
	f.mu.Lock()
	if f.state == StateDestroyed {
		f.mu.Unlock()
		return
	}
	wasPolling := f.state == StatePolling
	f.state = StateDestroyed
	f.subs.clear()
	f.mu.Unlock()

	f.cancel()
	if !wasPolling {
		f.closeDone()
	}
	f.logger.Info("Oracle feed destroyed")
}

// Done is closed once the feed is destroyed and its polling loop has exited.
func (f *Feed) Done() <-chan struct{} {
	return f.done
}

func (f *Feed) closeDone() {
	f.doneOnce.Do(func() { close(f.done) })
}

// publish records q as the last quote and runs one notification pass.
// It reports false when the feed was destroyed before the pass started.
func (f *Feed) publish(q oracle.Quote) bool {
	f.notifyMu.Lock()
	defer f.notifyMu.Unlock()

	f.mu.Lock()
	if f.state == StateDestroyed {
		f.mu.Unlock()
		return false
	}
	f.last, f.hasLast = q, true
	targets := f.subs.snapshot()
	f.mu.Unlock()

	metrics.RecordQuote(f.address, q.Price, q.Confidence)
	for _, s := range targets {
		f.invoke(s, q)
	}
	return true
}

// invoke runs one callback, recovering a panic so later callbacks still run.
func (f *Feed) invoke(s subscriber, q oracle.Quote) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("Subscriber callback panicked",
				"subscriber", s.id,
				"panic", fmt.Sprint(r))
			metrics.RecordNotification(f.address, false)
		}
	}()
	s.cb(q)
	metrics.RecordNotification(f.address, true)
}
