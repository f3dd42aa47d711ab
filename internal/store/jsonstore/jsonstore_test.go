package jsonstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/idilsaglam/tada/internal/model"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	cards, err := Load(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("expected no cards, got %d", len(cards))
	}
}

func TestSaveThenLoad(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "cards.json")
	in := []model.Card{{PublicID: "c1", Title: "Order", Checklists: []model.Checklist{{
		PublicID: "cl", Name: "Shirts",
		Items: []model.ChecklistItem{{PublicID: "i1", Title: "Socks", Quantity: 3, Wash: true}},
	}}}}
	if err := Save(p, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	it, ok := out[0].FindItem("i1")
	if !ok || it.Quantity != 3 || !it.Wash {
		t.Errorf("loaded item = %+v", it)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "cards.json")
	if err := os.WriteFile(p, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(p); err == nil {
		t.Fatal("expected unmarshal error")
	}
}
