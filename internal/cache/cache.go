package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/idilsaglam/tada/internal/logger"
	"github.com/idilsaglam/tada/internal/model"
)

var (
	// ErrStaleRead is returned by Load when a write or CancelPendingReads
	// landed while the read was in flight; its result was discarded.
	ErrStaleRead = errors.New("read superseded")
)

// Fetcher reads the authoritative card aggregate.
type Fetcher interface {
	FetchCard(ctx context.Context, cardID string) (*model.Card, error)
}

type Option func(*Cache)

func WithLogger(l *logger.Logger) Option { return func(c *Cache) { c.log = l } }

// WithOnRefresh registers a hook called after a background or initial
// read publishes a fresh card. It is not called for Set.
func WithOnRefresh(fn func(cardID string, card *model.Card)) Option {
	return func(c *Cache) { c.onRefresh = fn }
}

// WithOnError registers a hook for failed background reads.
func WithOnError(fn func(cardID string, err error)) Option {
	return func(c *Cache) { c.onError = fn }
}

// Cache holds card aggregates keyed by card id for one client session.
// Entries are replaced wholesale; values handed in and out are copies.
type Cache struct {
	fetcher   Fetcher
	log       *logger.Logger
	onRefresh func(string, *model.Card)
	onError   func(string, error)

	base   context.Context
	cancel context.CancelFunc
	group  singleflight.Group
	wg     sync.WaitGroup

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	card  *model.Card
	stale bool
	// gen advances on every Set and CancelPendingReads. A read only
	// publishes if gen is unchanged since it started.
	gen        uint64
	readCtx    context.Context
	cancelRead context.CancelFunc
}

func New(f Fetcher, opts ...Option) *Cache {
	base, cancel := context.WithCancel(context.Background())
	c := &Cache{
		fetcher: f,
		log:     logger.Nop(),
		base:    base,
		cancel:  cancel,
		entries: map[string]*entry{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns a copy of the cached card.
func (c *Cache) Get(cardID string) (*model.Card, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[cardID]
	if !ok || e.card == nil {
		return nil, false
	}
	return e.card.Clone(), true
}

// Stale reports whether the entry was invalidated and not yet refetched.
func (c *Cache) Stale(cardID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[cardID]
	return ok && e.stale
}

// Set replaces the entry. Any read in flight for the card is cancelled
// and can no longer publish.
func (c *Cache) Set(cardID string, card *model.Card) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryLocked(cardID)
	e.cancelReadsLocked()
	e.card = card.Clone()
}

// CancelPendingReads cancels every read in flight for cardID.
func (c *Cache) CancelPendingReads(cardID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[cardID]; ok {
		e.cancelReadsLocked()
	}
}

// Invalidate marks the entry stale and schedules a background read.
// Cards that were never loaded are ignored.
func (c *Cache) Invalidate(cardID string) {
	c.mu.Lock()
	e, ok := c.entries[cardID]
	if ok {
		e.stale = true
	}
	c.mu.Unlock()
	if !ok {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if _, err := c.read(c.base, cardID); err != nil {
			if errors.Is(err, ErrStaleRead) || errors.Is(err, context.Canceled) {
				c.log.Debug("background read discarded", "card_id", cardID, "error", err)
				return
			}
			c.log.Warn("background read failed", "card_id", cardID, "error", err)
			if c.onError != nil {
				c.onError(cardID, err)
			}
		}
	}()
}

// Load reads the card synchronously and publishes it. Used on view
// activation.
func (c *Cache) Load(ctx context.Context, cardID string) (*model.Card, error) {
	c.mu.Lock()
	c.entryLocked(cardID)
	c.mu.Unlock()
	return c.read(ctx, cardID)
}

// Wait blocks until scheduled background reads finish.
func (c *Cache) Wait() { c.wg.Wait() }

// Close cancels all reads. The cache must not be used afterwards.
func (c *Cache) Close() {
	c.cancel()
	c.wg.Wait()
}

func (c *Cache) read(ctx context.Context, cardID string) (*model.Card, error) {
	c.mu.Lock()
	e := c.entryLocked(cardID)
	gen := e.gen
	if e.readCtx == nil {
		e.readCtx, e.cancelRead = context.WithCancel(c.base)
	}
	rctx := e.readCtx
	c.mu.Unlock()

	key := fmt.Sprintf("%s@%d", cardID, gen)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		return c.fetcher.FetchCard(rctx, cardID)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		c.mu.Lock()
		superseded := e.gen != gen
		c.mu.Unlock()
		if superseded {
			return nil, ErrStaleRead
		}
		return nil, fmt.Errorf("fetch card %s: %w", cardID, res.Err)
	}
	card, _ := res.Val.(*model.Card)

	c.mu.Lock()
	if c.entries[cardID] != e || e.gen != gen {
		c.mu.Unlock()
		return nil, ErrStaleRead
	}
	e.card = card.Clone()
	e.stale = false
	out := e.card.Clone()
	c.mu.Unlock()

	if c.onRefresh != nil {
		c.onRefresh(cardID, out.Clone())
	}
	return out, nil
}

func (c *Cache) entryLocked(cardID string) *entry {
	e, ok := c.entries[cardID]
	if !ok {
		e = &entry{}
		c.entries[cardID] = e
	}
	return e
}

func (e *entry) cancelReadsLocked() {
	e.gen++
	if e.cancelRead != nil {
		e.cancelRead()
		e.readCtx, e.cancelRead = nil, nil
	}
}
