package rediscache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/idilsaglam/tada/internal/model"
)

func TestNewRequiresAddr(t *testing.T) {
	t.Parallel()
	if _, err := New("", time.Minute, nil); err == nil {
		t.Fatal("expected error for empty addr")
	}
}

func TestKey(t *testing.T) {
	t.Parallel()
	if got := key("abc"); got != "tada:card:abc" {
		t.Errorf("key = %q", got)
	}
}

func TestRoundTripAgainstRedis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis integration tests")
	}
	c, err := New(addr, time.Minute, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	card := &model.Card{PublicID: "rt-card", Title: "t", Checklists: []model.Checklist{}}
	v, err := c.Version(ctx, "rt-card")
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if err := c.PutCard(ctx, card, v); err != nil {
		t.Fatalf("PutCard: %v", err)
	}
	got, ok, err := c.GetCard(ctx, "rt-card")
	if err != nil || !ok || got.Title != "t" {
		t.Fatalf("GetCard = %+v, %v, %v", got, ok, err)
	}
	if err := c.Forget(ctx, "rt-card"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if _, ok, _ := c.GetCard(ctx, "rt-card"); ok {
		t.Error("card still cached after Forget")
	}

	// A fill that started before the Forget must not land.
	if err := c.PutCard(ctx, card, v); err != nil {
		t.Fatalf("stale PutCard: %v", err)
	}
	if _, ok, _ := c.GetCard(ctx, "rt-card"); ok {
		t.Error("stale fill was stored")
	}
}

func TestVersionKey(t *testing.T) {
	t.Parallel()
	if got := versionKey("abc"); got != "tada:card:abc:v" {
		t.Errorf("versionKey = %q", got)
	}
}
