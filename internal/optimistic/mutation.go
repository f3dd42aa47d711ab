package optimistic

import (
	"context"
	"errors"

	"github.com/idilsaglam/tada/internal/model"
)

type Kind int

const (
	KindUpdate Kind = iota
	KindDelete
)

func (k Kind) String() string {
	if k == KindDelete {
		return "delete"
	}
	return "update"
}

// Snapshot is the cached card as it was right before a speculative edit.
// A nil *Snapshot means nothing was cached and there is nothing to restore.
type Snapshot struct {
	card *model.Card
}

// Card returns a copy of the captured card.
func (s *Snapshot) Card() *model.Card {
	if s == nil {
		return nil
	}
	return s.card.Clone()
}

// Mutation is one in-flight edit. It owns its snapshot exclusively.
type Mutation struct {
	ID     string
	CardID string
	Kind   Kind
	ItemID string
	Delta  model.Delta

	mutator  Mutator
	snapshot *Snapshot
	settled  bool
	outcome  Outcome
}

// Snapshot exposes the rollback point; nil in degraded mode or once settled.
func (m *Mutation) Snapshot() *Snapshot { return m.snapshot }

// Dispatch performs the remote call. It is the only blocking step and is
// never cancelled by cache activity.
func (m *Mutation) Dispatch(ctx context.Context) error {
	if m.mutator == nil {
		return errors.New("no mutator configured")
	}
	switch m.Kind {
	case KindDelete:
		return m.mutator.DeleteItem(ctx, m.ItemID)
	default:
		return m.mutator.UpdateItem(ctx, m.Delta)
	}
}
