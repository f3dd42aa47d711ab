package checklist

import (
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/optimistic"
)

// fieldSpec is the capability set of one editable field.
type fieldSpec struct {
	// restricted fields need the admin role.
	restricted bool
	// overridesReadOnly fields stay editable on read-only rows.
	overridesReadOnly bool
}

var fieldSpecs = map[model.Field]fieldSpec{
	model.FieldCompleted: {overridesReadOnly: true},
	model.FieldWash:      {restricted: true},
	model.FieldIron:      {restricted: true},
	model.FieldQuantity:  {},
	model.FieldTitle:     {},
}

// CardReader reads the cached card a row belongs to.
type CardReader interface {
	Get(cardID string) (*model.Card, bool)
}

// Row is the edit surface of one checklist item. It mirrors the cached
// item locally, turns UI events into deltas and starts mutations.
// Every method that returns a *optimistic.Mutation returns nil when
// nothing was sent; a non-nil mutation must be dispatched and then
// passed back to Settle.
type Row struct {
	CardID   string
	Role     model.Role
	ReadOnly bool

	coord  *optimistic.Coordinator
	cards  CardReader
	fields *optimistic.FieldTracker

	item      model.ChecklistItem
	title     TitleBuffer
	completed bool
	wash      bool
	iron      bool
	quantity  int
}

func NewRow(coord *optimistic.Coordinator, cards CardReader, cardID string, item model.ChecklistItem, role model.Role, readOnly bool) *Row {
	r := &Row{
		CardID:   cardID,
		Role:     role,
		ReadOnly: readOnly,
		coord:    coord,
		cards:    cards,
		fields:   optimistic.NewFieldTracker(),
	}
	r.item = item
	r.title = NewTitleBuffer(item.Title)
	r.completed, r.wash, r.iron, r.quantity = item.Completed, item.Wash, item.Iron, item.Quantity
	return r
}

func (r *Row) ID() string { return r.item.PublicID }

// Item is the row as the user currently sees it, draft title included.
func (r *Row) Item() model.ChecklistItem {
	it := r.item
	it.Title = r.title.Draft()
	it.Completed, it.Wash, it.Iron, it.Quantity = r.completed, r.wash, r.iron, r.quantity
	return it
}

func (r *Row) FieldState(f model.Field) optimistic.FieldState { return r.fields.State(f) }

// Editable reports whether the current actor may edit f on this row.
func (r *Row) Editable(f model.Field) bool {
	spec := fieldSpecs[f]
	if r.ReadOnly && !spec.overridesReadOnly {
		return false
	}
	if spec.restricted && !r.Role.IsAdmin() {
		return false
	}
	return true
}

func (r *Row) ToggleCompleted() *optimistic.Mutation { return r.toggle(model.FieldCompleted) }
func (r *Row) ToggleWash() *optimistic.Mutation      { return r.toggle(model.FieldWash) }
func (r *Row) ToggleIron() *optimistic.Mutation      { return r.toggle(model.FieldIron) }

func (r *Row) toggle(f model.Field) *optimistic.Mutation {
	if !r.Editable(f) {
		return nil
	}
	var v bool
	switch f {
	case model.FieldCompleted:
		r.completed = !r.completed
		v = r.completed
	case model.FieldWash:
		r.wash = !r.wash
		v = r.wash
	case model.FieldIron:
		r.iron = !r.iron
		v = r.iron
	default:
		return nil
	}
	return r.begin(model.ToggleDelta(r.ID(), f, v))
}

// SetQuantityText handles a typed quantity. It always submits, even when
// the value did not change.
func (r *Row) SetQuantityText(raw string) *optimistic.Mutation {
	return r.setQuantity(ParseQuantity(raw))
}

// StepQuantity adds step to the quantity, clamped to [MinQuantity, max].
func (r *Row) StepQuantity(step, max int) *optimistic.Mutation {
	return r.setQuantity(ClampQuantity(r.quantity+step, max))
}

func (r *Row) setQuantity(q int) *optimistic.Mutation {
	if !r.Editable(model.FieldQuantity) {
		return nil
	}
	r.quantity = q
	return r.begin(model.QuantityDelta(r.ID(), q))
}

// EditTitle updates the draft title. Nothing is sent.
func (r *Row) EditTitle(raw string) {
	if !r.Editable(model.FieldTitle) {
		return
	}
	r.title.Edit(raw)
}

func (r *Row) TitleDraft() string { return r.title.Draft() }

// CommitTitle runs on Enter, blur or confirm. Empty or unchanged titles
// revert the draft and send nothing.
func (r *Row) CommitTitle() *optimistic.Mutation {
	if !r.Editable(model.FieldTitle) {
		return nil
	}
	plain, ok := r.title.Commit()
	if !ok {
		return nil
	}
	return r.begin(model.TitleDelta(r.ID(), plain))
}

// CommitTitleText replaces the draft with raw and commits it, as a blur
// carrying the widget's markup does.
func (r *Row) CommitTitleText(raw string) *optimistic.Mutation {
	r.EditTitle(raw)
	return r.CommitTitle()
}

// CancelTitle is the Escape key: drop the draft, send nothing.
func (r *Row) CancelTitle() {
	if !r.Editable(model.FieldTitle) {
		return
	}
	r.title.Revert()
}

// Delete removes the item. Read-only rows cannot delete.
func (r *Row) Delete() *optimistic.Mutation {
	if r.ReadOnly {
		return nil
	}
	m, err := r.coord.BeginDelete(r.CardID, r.ID())
	if err != nil {
		return nil
	}
	return m
}

func (r *Row) begin(d model.Delta) *optimistic.Mutation {
	fields := d.Fields()
	for _, f := range fields {
		r.fields.Edit(f)
	}
	m, err := r.coord.Begin(r.CardID, d)
	if err != nil {
		r.resync(fields)
		return nil
	}
	for _, f := range fields {
		_ = r.fields.Dispatch(f)
	}
	r.item = d.Merge(r.item)
	return m
}

// Settle reconciles m through the coordinator and moves the row's field
// states. Rejected fields are resynced from the restored cache entry.
func (r *Row) Settle(m *optimistic.Mutation, err error) optimistic.Outcome {
	out := r.coord.Settle(m, err)
	fields := m.Delta.Fields()
	for _, f := range fields {
		if out.OK() {
			_ = r.fields.Succeed(f)
		} else {
			_ = r.fields.Fail(f)
		}
	}
	if !out.OK() {
		r.resync(fields)
		for _, f := range fields {
			_ = r.fields.Restore(f)
		}
	}
	return out
}

// Sync takes a fresh server copy of the item. Fields with a mutation in
// flight keep their local value.
func (r *Row) Sync(item model.ChecklistItem) {
	if item.PublicID != r.item.PublicID {
		return
	}
	r.item = item
	for f := range fieldSpecs {
		if r.fields.State(f) == optimistic.StateClean {
			r.copyField(f, item)
		}
	}
}

func (r *Row) resync(fields []model.Field) {
	item := r.item
	if r.cards != nil {
		if card, ok := r.cards.Get(r.CardID); ok {
			if it, found := card.FindItem(r.ID()); found {
				item = it
			}
		}
	}
	r.item = item
	for _, f := range fields {
		r.copyField(f, item)
	}
}

func (r *Row) copyField(f model.Field, item model.ChecklistItem) {
	switch f {
	case model.FieldTitle:
		r.title.Rebase(item.Title)
	case model.FieldCompleted:
		r.completed = item.Completed
	case model.FieldWash:
		r.wash = item.Wash
	case model.FieldIron:
		r.iron = item.Iron
	case model.FieldQuantity:
		r.quantity = item.Quantity
	}
}
