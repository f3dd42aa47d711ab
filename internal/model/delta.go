package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidDelta = errors.New("invalid delta")

// Delta is a partial update of one checklist item. It is both the unit of
// a speculative edit and the wire payload of the update call. Nil fields
// are unchanged.
type Delta struct {
	ItemID    string   `json:"checklistItemPublicId"`
	Title     *string  `json:"title,omitempty"`
	ItemValue *float64 `json:"itemValue,omitempty"`
	Quantity  *int     `json:"quantity,omitempty"`
	Wash      *bool    `json:"wash,omitempty"`
	Iron      *bool    `json:"iron,omitempty"`
	Completed *bool    `json:"completed,omitempty"`
}

// Field names the mutable attributes a delta can carry.
type Field string

const (
	FieldTitle     Field = "title"
	FieldItemValue Field = "itemValue"
	FieldQuantity  Field = "quantity"
	FieldWash      Field = "wash"
	FieldIron      Field = "iron"
	FieldCompleted Field = "completed"
)

func TitleDelta(itemID, title string) Delta { return Delta{ItemID: itemID, Title: &title} }
func QuantityDelta(itemID string, q int) Delta {
	return Delta{ItemID: itemID, Quantity: &q}
}

// ToggleDelta builds a single-field delta for one of the boolean fields.
func ToggleDelta(itemID string, f Field, v bool) Delta {
	d := Delta{ItemID: itemID}
	switch f {
	case FieldWash:
		d.Wash = &v
	case FieldIron:
		d.Iron = &v
	case FieldCompleted:
		d.Completed = &v
	}
	return d
}

// Fields lists the attributes set on d, in a stable order.
func (d Delta) Fields() []Field {
	var out []Field
	if d.Title != nil {
		out = append(out, FieldTitle)
	}
	if d.ItemValue != nil {
		out = append(out, FieldItemValue)
	}
	if d.Quantity != nil {
		out = append(out, FieldQuantity)
	}
	if d.Wash != nil {
		out = append(out, FieldWash)
	}
	if d.Iron != nil {
		out = append(out, FieldIron)
	}
	if d.Completed != nil {
		out = append(out, FieldCompleted)
	}
	return out
}

func (d Delta) Validate() error {
	if strings.TrimSpace(d.ItemID) == "" {
		return fmt.Errorf("%w: missing item id", ErrInvalidDelta)
	}
	if len(d.Fields()) == 0 {
		return fmt.Errorf("%w: no fields changed", ErrInvalidDelta)
	}
	if d.Quantity != nil && *d.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1, got %d", ErrInvalidDelta, *d.Quantity)
	}
	if d.ItemValue != nil && *d.ItemValue < 0 {
		return fmt.Errorf("%w: negative item value", ErrInvalidDelta)
	}
	if d.Title != nil && strings.TrimSpace(*d.Title) == "" {
		return fmt.Errorf("%w: empty title", ErrInvalidDelta)
	}
	return nil
}

// Merge shallow-merges d's set fields over it.
func (d Delta) Merge(it ChecklistItem) ChecklistItem {
	if d.Title != nil {
		it.Title = *d.Title
	}
	if d.ItemValue != nil {
		it.ItemValue = *d.ItemValue
	}
	if d.Quantity != nil {
		it.Quantity = *d.Quantity
	}
	if d.Wash != nil {
		it.Wash = *d.Wash
	}
	if d.Iron != nil {
		it.Iron = *d.Iron
	}
	if d.Completed != nil {
		it.Completed = *d.Completed
	}
	return it
}
