package model

import (
	"errors"
	"reflect"
	"testing"
)

func sampleCard() *Card {
	return &Card{
		PublicID: "card-1",
		Title:    "Order 42",
		Checklists: []Checklist{
			{PublicID: "cl-1", Name: "Shirts", Items: []ChecklistItem{
				{PublicID: "it-1", Title: "Socks", ItemValue: 2.5, Quantity: 2},
				{PublicID: "it-2", Title: "Shirt", ItemValue: 10, Quantity: 1, Wash: true},
			}},
			{PublicID: "cl-2", Name: "Other", Items: []ChecklistItem{
				{PublicID: "it-3", Title: "Coat", ItemValue: 30, Quantity: 1},
			}},
		},
	}
}

func TestApplyDeltaMergesMatchingItemOnly(t *testing.T) {
	t.Parallel()

	c := sampleCard()
	before := c.Clone()
	out := ApplyDelta(c, QuantityDelta("it-1", 5))

	got, ok := out.FindItem("it-1")
	if !ok {
		t.Fatal("item it-1 missing after apply")
	}
	if got.Quantity != 5 || got.Title != "Socks" {
		t.Errorf("unexpected merged item: %+v", got)
	}
	other, _ := out.FindItem("it-2")
	if !other.Wash || other.Quantity != 1 {
		t.Errorf("unrelated item changed: %+v", other)
	}
	if !reflect.DeepEqual(c, before) {
		t.Error("ApplyDelta mutated its input")
	}
}

func TestApplyDeltaAcrossChecklists(t *testing.T) {
	t.Parallel()

	c := sampleCard()
	c.Checklists[1].Items = append(c.Checklists[1].Items, ChecklistItem{PublicID: "it-1", Title: "Socks copy", Quantity: 1})
	out := ApplyDelta(c, ToggleDelta("it-1", FieldCompleted, true))

	for _, cl := range out.Checklists {
		for _, it := range cl.Items {
			if it.PublicID == "it-1" && !it.Completed {
				t.Errorf("item in %s not merged", cl.PublicID)
			}
		}
	}
}

func TestApplyDeltaNilCard(t *testing.T) {
	t.Parallel()
	if ApplyDelta(nil, QuantityDelta("x", 1)) != nil {
		t.Error("expected nil for nil card")
	}
}

func TestRemoveItem(t *testing.T) {
	t.Parallel()

	c := sampleCard()
	out := RemoveItem(c, "it-2")
	if _, ok := out.FindItem("it-2"); ok {
		t.Error("it-2 still present")
	}
	if len(out.Items()) != 2 {
		t.Errorf("expected 2 items, got %d", len(out.Items()))
	}
	if _, ok := c.FindItem("it-2"); !ok {
		t.Error("RemoveItem mutated its input")
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	c := sampleCard()
	cp := c.Clone()
	cp.Checklists[0].Items[0].Title = "changed"
	if c.Checklists[0].Items[0].Title != "Socks" {
		t.Error("clone shares item storage with the original")
	}
}

func TestProgressAndTotal(t *testing.T) {
	t.Parallel()

	c := sampleCard()
	c.Checklists[0].Items[0].Completed = true
	done, total := c.Progress()
	if done != 1 || total != 3 {
		t.Errorf("progress = %d/%d, want 1/3", done, total)
	}
	if it, _ := c.FindItem("it-1"); it.Total() != 5 {
		t.Errorf("total = %v, want 5", it.Total())
	}
}

func TestDeltaValidate(t *testing.T) {
	t.Parallel()

	zero := 0
	neg := -1.0
	blank := "   "
	tests := []struct {
		name    string
		delta   Delta
		wantErr bool
	}{
		{"ok quantity", QuantityDelta("it-1", 3), false},
		{"ok toggle", ToggleDelta("it-1", FieldWash, true), false},
		{"missing id", QuantityDelta("", 3), true},
		{"no fields", Delta{ItemID: "it-1"}, true},
		{"zero quantity", Delta{ItemID: "it-1", Quantity: &zero}, true},
		{"negative value", Delta{ItemID: "it-1", ItemValue: &neg}, true},
		{"blank title", Delta{ItemID: "it-1", Title: &blank}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.delta.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidDelta) {
				t.Errorf("error does not wrap ErrInvalidDelta: %v", err)
			}
		})
	}
}

func TestDeltaFields(t *testing.T) {
	t.Parallel()

	d := ToggleDelta("it-1", FieldIron, false)
	if got := d.Fields(); !reflect.DeepEqual(got, []Field{FieldIron}) {
		t.Errorf("Fields() = %v", got)
	}
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	if ParseRole(" Admin ") != RoleAdmin {
		t.Error("expected admin")
	}
	if ParseRole("owner") != RoleMember {
		t.Error("unknown role should default to member")
	}
}
