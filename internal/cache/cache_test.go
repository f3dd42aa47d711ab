package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/idilsaglam/tada/internal/model"
)

// fakeFetcher serves whatever card is current on the "server".
// When gate is set each fetch signals started and waits for a release,
// ignoring its context so the generation check alone must drop results.
type fakeFetcher struct {
	mu      sync.Mutex
	card    *model.Card
	err     error
	calls   int32
	gate    bool
	started chan struct{}
	release chan struct{}
}

func newFakeFetcher(card *model.Card) *fakeFetcher {
	return &fakeFetcher{card: card, started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (f *fakeFetcher) FetchCard(ctx context.Context, cardID string) (*model.Card, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	card, err, gate := f.card.Clone(), f.err, f.gate
	f.mu.Unlock()
	if gate {
		f.started <- struct{}{}
		<-f.release
	}
	return card, err
}

func (f *fakeFetcher) setCard(c *model.Card) {
	f.mu.Lock()
	f.card = c
	f.mu.Unlock()
}

func testCard(qty int) *model.Card {
	return &model.Card{PublicID: "card-1", Checklists: []model.Checklist{{
		PublicID: "cl-1",
		Items:    []model.ChecklistItem{{PublicID: "it-1", Title: "Socks", Quantity: qty}},
	}}}
}

func TestLoadPublishesCard(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher(testCard(1))
	var refreshed int32
	c := New(f, WithOnRefresh(func(string, *model.Card) { atomic.AddInt32(&refreshed, 1) }))
	defer c.Close()

	if _, err := c.Load(context.Background(), "card-1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, ok := c.Get("card-1")
	if !ok || got.Checklists[0].Items[0].Quantity != 1 {
		t.Fatalf("unexpected cached card: %+v", got)
	}
	if atomic.LoadInt32(&refreshed) != 1 {
		t.Errorf("expected one refresh notification, got %d", refreshed)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	t.Parallel()

	c := New(newFakeFetcher(nil))
	defer c.Close()
	c.Set("card-1", testCard(1))

	got, _ := c.Get("card-1")
	got.Checklists[0].Items[0].Quantity = 99
	again, _ := c.Get("card-1")
	if again.Checklists[0].Items[0].Quantity != 1 {
		t.Error("mutating a Get result leaked into the cache")
	}
}

func TestInvalidateRefetches(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher(testCard(1))
	c := New(f)
	defer c.Close()
	if _, err := c.Load(context.Background(), "card-1"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	f.setCard(testCard(7))
	c.Invalidate("card-1")
	c.Wait()

	got, _ := c.Get("card-1")
	if got.Checklists[0].Items[0].Quantity != 7 {
		t.Errorf("quantity = %d, want 7 after refetch", got.Checklists[0].Items[0].Quantity)
	}
	if c.Stale("card-1") {
		t.Error("entry still stale after refetch")
	}
}

func TestInvalidateUnknownCardIsNoop(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher(testCard(1))
	c := New(f)
	defer c.Close()
	c.Invalidate("missing")
	c.Wait()
	if atomic.LoadInt32(&f.calls) != 0 {
		t.Errorf("expected no fetch, got %d", f.calls)
	}
}

func TestSpeculativeWriteWinsOverOutstandingRead(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher(testCard(1))
	c := New(f)
	defer c.Close()
	c.Set("card-1", testCard(1))

	f.mu.Lock()
	f.gate = true
	f.mu.Unlock()

	errc := make(chan error, 1)
	go func() {
		_, err := c.Load(context.Background(), "card-1")
		errc <- err
	}()
	select {
	case <-f.started:
	case <-time.After(2 * time.Second):
		t.Fatal("read never started")
	}

	c.CancelPendingReads("card-1")
	c.Set("card-1", testCard(5))
	close(f.release)

	if err := <-errc; !errors.Is(err, ErrStaleRead) {
		t.Fatalf("Load err = %v, want ErrStaleRead", err)
	}
	got, _ := c.Get("card-1")
	if got.Checklists[0].Items[0].Quantity != 5 {
		t.Errorf("outstanding read overwrote speculative entry: quantity %d", got.Checklists[0].Items[0].Quantity)
	}
}

func TestBackgroundReadErrorReported(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher(testCard(1))
	var reported atomic.Value
	c := New(f, WithOnError(func(_ string, err error) { reported.Store(err) }))
	defer c.Close()
	if _, err := c.Load(context.Background(), "card-1"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	f.mu.Lock()
	f.err = errors.New("boom")
	f.mu.Unlock()
	c.Invalidate("card-1")
	c.Wait()

	if reported.Load() == nil {
		t.Fatal("expected background error to be reported")
	}
	if !c.Stale("card-1") {
		t.Error("entry should stay stale after a failed refetch")
	}
	if got, ok := c.Get("card-1"); !ok || got.Checklists[0].Items[0].Quantity != 1 {
		t.Error("failed refetch should keep the last good value")
	}
}
