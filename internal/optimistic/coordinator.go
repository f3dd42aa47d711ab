package optimistic

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/idilsaglam/tada/internal/logger"
	"github.com/idilsaglam/tada/internal/model"
)

// Fixed user-facing notification text. Rejections are never
// parameterized with the server's reason.
const (
	UpdateErrorHeader = "Unable to update checklist item"
	DeleteErrorHeader = "Unable to delete checklist item"
	ErrorMessage      = "Please try again later, or contact customer support."
)

// Store is the slice of the card cache the coordinator needs.
// *cache.Cache satisfies it.
type Store interface {
	Get(cardID string) (*model.Card, bool)
	Set(cardID string, card *model.Card)
	Invalidate(cardID string)
	CancelPendingReads(cardID string)
}

// Mutator sends item mutations to the server.
type Mutator interface {
	UpdateItem(ctx context.Context, d model.Delta) error
	DeleteItem(ctx context.Context, itemID string) error
}

type Notifier interface {
	ShowError(header, message string)
}

type NotifierFunc func(header, message string)

func (f NotifierFunc) ShowError(header, message string) { f(header, message) }

type Status int

const (
	Settled Status = iota
	Rejected
)

func (s Status) String() string {
	if s == Rejected {
		return "rejected"
	}
	return "settled"
}

type Outcome struct {
	Status Status
	Reason error
}

func (o Outcome) OK() bool { return o.Status == Settled }

// Coordinator runs the snapshot, apply, dispatch and reconcile pipeline
// for item edits against a shared card cache.
type Coordinator struct {
	store    Store
	mutator  Mutator
	notifier Notifier
	log      *logger.Logger
}

func NewCoordinator(store Store, mutator Mutator, notifier Notifier, log *logger.Logger) *Coordinator {
	if log == nil {
		log = logger.Nop()
	}
	if notifier == nil {
		notifier = NotifierFunc(func(string, string) {})
	}
	return &Coordinator{
		store:    store,
		mutator:  mutator,
		notifier: notifier,
		log:      log.With("service", "OptimisticCoordinator"),
	}
}

// Begin cancels outstanding reads of the card, snapshots it and publishes
// the speculative value. It never blocks. The returned mutation must be
// dispatched and then passed to Settle.
func (c *Coordinator) Begin(cardID string, d model.Delta) (*Mutation, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	m := &Mutation{
		ID:      uuid.NewString(),
		CardID:  cardID,
		Kind:    KindUpdate,
		ItemID:  d.ItemID,
		Delta:   d,
		mutator: c.mutator,
	}
	c.store.CancelPendingReads(cardID)
	m.snapshot = c.beginSpeculativeEdit(cardID, func(card *model.Card) *model.Card {
		return model.ApplyDelta(card, d)
	})
	c.log.Debug("speculative edit", "mutation_id", m.ID, "card_id", cardID, "item_id", d.ItemID, "fields", d.Fields(), "cached", m.snapshot != nil)
	return m, nil
}

// BeginDelete is Begin for removing an item.
func (c *Coordinator) BeginDelete(cardID, itemID string) (*Mutation, error) {
	if itemID == "" {
		return nil, fmt.Errorf("%w: missing item id", model.ErrInvalidDelta)
	}
	m := &Mutation{
		ID:      uuid.NewString(),
		CardID:  cardID,
		Kind:    KindDelete,
		ItemID:  itemID,
		mutator: c.mutator,
	}
	c.store.CancelPendingReads(cardID)
	m.snapshot = c.beginSpeculativeEdit(cardID, func(card *model.Card) *model.Card {
		return model.RemoveItem(card, itemID)
	})
	c.log.Debug("speculative delete", "mutation_id", m.ID, "card_id", cardID, "item_id", itemID, "cached", m.snapshot != nil)
	return m, nil
}

// beginSpeculativeEdit reads the cached card as the snapshot and writes
// apply(card) back in one step. No cached card means no snapshot and no
// write.
func (c *Coordinator) beginSpeculativeEdit(cardID string, apply func(*model.Card) *model.Card) *Snapshot {
	prev, ok := c.store.Get(cardID)
	if !ok {
		return nil
	}
	c.store.Set(cardID, apply(prev))
	return &Snapshot{card: prev}
}

// Settle reconciles a dispatched mutation with its result. On success the
// snapshot is dropped; on failure the cache is restored to it verbatim
// and the user is notified. Either way the card is invalidated.
//
// Restoring replaces the whole card, so a later speculative edit to the
// same card is hidden until the refetch lands.
func (c *Coordinator) Settle(m *Mutation, err error) Outcome {
	if m.settled {
		return m.outcome
	}
	m.settled = true
	defer c.store.Invalidate(m.CardID)

	if err == nil {
		m.snapshot = nil
		m.outcome = Outcome{Status: Settled}
		c.log.Debug("mutation settled", "mutation_id", m.ID, "card_id", m.CardID, "item_id", m.ItemID, "kind", m.Kind)
		return m.outcome
	}

	if m.snapshot != nil {
		c.store.Set(m.CardID, m.snapshot.Card())
		m.snapshot = nil
	}
	header := UpdateErrorHeader
	if m.Kind == KindDelete {
		header = DeleteErrorHeader
	}
	c.notifier.ShowError(header, ErrorMessage)
	c.log.Warn("mutation rejected", "mutation_id", m.ID, "card_id", m.CardID, "item_id", m.ItemID, "kind", m.Kind, "error", err)
	m.outcome = Outcome{Status: Rejected, Reason: err}
	return m.outcome
}

// Submit runs the whole pipeline and blocks for the round trip. The error
// is non-nil only when the delta is invalid and nothing was sent.
func (c *Coordinator) Submit(ctx context.Context, cardID string, d model.Delta) (Outcome, error) {
	m, err := c.Begin(cardID, d)
	if err != nil {
		return Outcome{}, err
	}
	return c.Settle(m, m.Dispatch(ctx)), nil
}

func (c *Coordinator) Delete(ctx context.Context, cardID, itemID string) (Outcome, error) {
	m, err := c.BeginDelete(cardID, itemID)
	if err != nil {
		return Outcome{}, err
	}
	return c.Settle(m, m.Dispatch(ctx)), nil
}
