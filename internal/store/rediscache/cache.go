package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/idilsaglam/tada/internal/logger"
	"github.com/idilsaglam/tada/internal/model"
)

const keyPrefix = "tada:card:"

// Cache is a read-through cache of card aggregates for the API server.
// Entries are dropped after every item mutation on the card.
type Cache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func New(addr string, ttl time.Duration, log *logger.Logger) (*Cache, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	if log == nil {
		log = logger.Nop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Cache{log: log.With("service", "RedisCardCache"), rdb: rdb, ttl: ttl}, nil
}

var errStaleFill = errors.New("card changed during fill")

func key(cardID string) string { return keyPrefix + cardID }

// versionKey counts invalidations of a card. A fill only lands if the
// count is unchanged since the caller read it.
func versionKey(cardID string) string { return keyPrefix + cardID + ":v" }

// GetCard reports a miss as (nil, false, nil).
func (c *Cache) GetCard(ctx context.Context, cardID string) (*model.Card, bool, error) {
	raw, err := c.rdb.Get(ctx, key(cardID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var card model.Card
	if err := json.Unmarshal(raw, &card); err != nil {
		c.log.Warn("bad cached card payload", "card_id", cardID, "error", err)
		_ = c.rdb.Del(ctx, key(cardID)).Err()
		return nil, false, nil
	}
	return &card, true, nil
}

// Version returns the card's invalidation count; read it before loading
// the card that will be passed to PutCard.
func (c *Cache) Version(ctx context.Context, cardID string) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey(cardID)).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get version: %w", err)
	}
	return v, nil
}

// PutCard stores card only if no Forget ran since version was read.
// A skipped fill is not an error.
func (c *Cache) PutCard(ctx context.Context, card *model.Card, version int64) error {
	raw, err := json.Marshal(card)
	if err != nil {
		return err
	}
	vk := versionKey(card.PublicID)
	err = c.rdb.Watch(ctx, func(tx *goredis.Tx) error {
		cur, err := tx.Get(ctx, vk).Int64()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		if cur != version {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.Set(ctx, key(card.PublicID), raw, c.ttl)
			return nil
		})
		return err
	}, vk)
	if errors.Is(err, errStaleFill) || errors.Is(err, goredis.TxFailedErr) {
		c.log.Debug("skipped stale card fill", "card_id", card.PublicID, "version", version)
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis put: %w", err)
	}
	return nil
}

// Forget bumps the card's version, then drops the cached copy.
func (c *Cache) Forget(ctx context.Context, cardID string) error {
	_, err := c.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Incr(ctx, versionKey(cardID))
		p.Del(ctx, key(cardID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis forget: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
