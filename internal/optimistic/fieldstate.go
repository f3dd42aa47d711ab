package optimistic

import (
	"errors"
	"fmt"

	"github.com/idilsaglam/tada/internal/model"
)

var ErrInvalidTransition = errors.New("invalid field state transition")

// FieldState is where one editable field is in the optimistic cycle:
// Clean → Speculative → Settling → Clean, or Settling → Rejected → Clean.
type FieldState int

const (
	StateClean FieldState = iota
	StateSpeculative
	StateSettling
	StateRejected
)

func (s FieldState) String() string {
	switch s {
	case StateSpeculative:
		return "speculative"
	case StateSettling:
		return "settling"
	case StateRejected:
		return "rejected"
	default:
		return "clean"
	}
}

type fieldEntry struct {
	state    FieldState
	inflight int
}

// FieldTracker is the pending-mutation set of one item row, keyed by
// field. A field stays Settling while any of its mutations is in flight.
type FieldTracker struct {
	fields map[model.Field]*fieldEntry
}

func NewFieldTracker() *FieldTracker {
	return &FieldTracker{fields: map[model.Field]*fieldEntry{}}
}

func (t *FieldTracker) State(f model.Field) FieldState {
	if e, ok := t.fields[f]; ok {
		return e.state
	}
	return StateClean
}

func (t *FieldTracker) InFlight(f model.Field) int {
	if e, ok := t.fields[f]; ok {
		return e.inflight
	}
	return 0
}

// Edit marks a local change. Allowed from any state.
func (t *FieldTracker) Edit(f model.Field) {
	t.entry(f).state = StateSpeculative
}

func (t *FieldTracker) Dispatch(f model.Field) error {
	e := t.entry(f)
	if e.state != StateSpeculative {
		return t.invalid(f, e.state, StateSettling)
	}
	e.state = StateSettling
	e.inflight++
	return nil
}

func (t *FieldTracker) Succeed(f model.Field) error {
	e := t.entry(f)
	if e.inflight == 0 {
		return t.invalid(f, e.state, StateClean)
	}
	e.inflight--
	if e.state == StateSettling && e.inflight == 0 {
		e.state = StateClean
	}
	return nil
}

func (t *FieldTracker) Fail(f model.Field) error {
	e := t.entry(f)
	if e.inflight == 0 {
		return t.invalid(f, e.state, StateRejected)
	}
	e.inflight--
	e.state = StateRejected
	return nil
}

// Restore finishes a rejection once the field was resynced from the
// restored card.
func (t *FieldTracker) Restore(f model.Field) error {
	e := t.entry(f)
	if e.state != StateRejected {
		return t.invalid(f, e.state, StateClean)
	}
	if e.inflight > 0 {
		e.state = StateSettling
	} else {
		e.state = StateClean
	}
	return nil
}

func (t *FieldTracker) entry(f model.Field) *fieldEntry {
	e, ok := t.fields[f]
	if !ok {
		e = &fieldEntry{}
		t.fields[f] = e
	}
	return e
}

func (t *FieldTracker) invalid(f model.Field, from, to FieldState) error {
	return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, f, from, to)
}
