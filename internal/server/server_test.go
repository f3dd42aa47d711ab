package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/idilsaglam/tada/internal/api"
	"github.com/idilsaglam/tada/internal/cache"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/optimistic"
	"github.com/idilsaglam/tada/internal/store/sqlstore"
)

func init() { gin.SetMode(gin.TestMode) }

type memCardCache struct {
	mu       sync.Mutex
	cards    map[string]*model.Card
	versions map[string]int64
	forgot   []string
}

func (m *memCardCache) GetCard(_ context.Context, id string) (*model.Card, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	return c.Clone(), ok, nil
}
func (m *memCardCache) Version(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.versions[id], nil
}
func (m *memCardCache) PutCard(_ context.Context, c *model.Card, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.versions[c.PublicID] != version {
		return nil
	}
	m.cards[c.PublicID] = c.Clone()
	return nil
}
func (m *memCardCache) Forget(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[id]++
	delete(m.cards, id)
	m.forgot = append(m.forgot, id)
	return nil
}

type env struct {
	srv   *httptest.Server
	repo  *sqlstore.Store
	cache *memCardCache
}

func newEnv(t *testing.T, token string) *env {
	t.Helper()
	return newEnvWithRepo(t, token, nil)
}

// newEnvWithRepo lets wrap put a Repository in front of the sqlite store.
func newEnvWithRepo(t *testing.T, token string, wrap func(*sqlstore.Store) Repository) *env {
	t.Helper()
	repo, err := sqlstore.Open(filepath.Join(t.TempDir(), "tada.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	_, err = repo.CreateCard(context.Background(), &model.Card{
		PublicID: "card-1",
		Title:    "Order 42",
		Checklists: []model.Checklist{{Name: "Shirts", Items: []model.ChecklistItem{
			{PublicID: "it-1", Title: "Socks", ItemValue: 2.5, Quantity: 2},
			{PublicID: "it-2", Title: "Shirt", ItemValue: 10, Quantity: 1},
		}}},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	cc := &memCardCache{cards: map[string]*model.Card{}, versions: map[string]int64{}}
	var r Repository = repo
	if wrap != nil {
		r = wrap(repo)
	}
	srv := httptest.NewServer(NewRouter(RouterConfig{Repo: r, Cache: cc, Token: token}))
	t.Cleanup(srv.Close)
	return &env{srv: srv, repo: repo, cache: cc}
}

func TestHealthCheck(t *testing.T) {
	e := newEnv(t, "")
	resp, err := http.Get(e.srv.URL + "/healthcheck")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestClientRoundTrip(t *testing.T) {
	e := newEnv(t, "")
	client := api.New(e.srv.URL)
	ctx := context.Background()

	card, err := client.FetchCard(ctx, "card-1")
	if err != nil {
		t.Fatalf("FetchCard: %v", err)
	}
	if len(card.Items()) != 2 {
		t.Fatalf("items = %d", len(card.Items()))
	}
	if _, ok := e.cache.cards["card-1"]; !ok {
		t.Error("card not written to server cache")
	}

	if err := client.UpdateItem(ctx, model.QuantityDelta("it-1", 4)); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if len(e.cache.forgot) != 1 || e.cache.forgot[0] != "card-1" {
		t.Errorf("cache drops = %v", e.cache.forgot)
	}
	if err := client.DeleteItem(ctx, "it-2"); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	card, err = client.FetchCard(ctx, "card-1")
	if err != nil {
		t.Fatalf("FetchCard: %v", err)
	}
	it, _ := card.FindItem("it-1")
	if it.Quantity != 4 || len(card.Items()) != 1 {
		t.Errorf("card after mutations = %+v", card)
	}
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	e := newEnv(t, "")
	client := api.New(e.srv.URL)
	ctx := context.Background()

	var apiErr *api.Error
	err := client.UpdateItem(ctx, model.QuantityDelta("it-1", 0))
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest || apiErr.Code != "invalid_delta" {
		t.Errorf("err = %v", err)
	}
	err = client.DeleteItem(ctx, "missing")
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Errorf("err = %v", err)
	}
	_, err = client.FetchCard(ctx, "missing")
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Errorf("err = %v", err)
	}
}

func TestTokenRequired(t *testing.T) {
	e := newEnv(t, "s3cret")
	ctx := context.Background()

	var apiErr *api.Error
	if _, err := api.New(e.srv.URL).FetchCard(ctx, "card-1"); !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Errorf("err = %v, want 401", err)
	}
	if _, err := api.New(e.srv.URL, api.WithToken("s3cret")).FetchCard(ctx, "card-1"); err != nil {
		t.Errorf("FetchCard with token: %v", err)
	}
}

func TestUpdateRejectsBadBody(t *testing.T) {
	e := newEnv(t, "")
	req, _ := http.NewRequest(http.MethodPatch, e.srv.URL+"/api/checklist-items/it-1", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

// Full client stack against the real server: speculative edits, rejected
// edits rolled back, cache converging with the database.
func TestOptimisticEditsAgainstServer(t *testing.T) {
	e := newEnv(t, "")
	client := api.New(e.srv.URL)
	cc := cache.New(client)
	defer cc.Close()
	ctx := context.Background()
	if _, err := cc.Load(ctx, "card-1"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	var notes []string
	coord := optimistic.NewCoordinator(cc, client, optimistic.NotifierFunc(func(h, _ string) { notes = append(notes, h) }), nil)

	out, err := coord.Submit(ctx, "card-1", model.ToggleDelta("it-1", model.FieldCompleted, true))
	if err != nil || !out.OK() {
		t.Fatalf("Submit = %+v, %v", out, err)
	}

	before, _ := cc.Get("card-1")
	out, err = coord.Delete(ctx, "card-1", "missing-item")
	if err != nil || out.OK() {
		t.Fatalf("Delete of missing item = %+v, %v", out, err)
	}
	if len(notes) != 1 || notes[0] != optimistic.DeleteErrorHeader {
		t.Errorf("notifications = %v", notes)
	}
	cc.Wait()

	got, _ := cc.Get("card-1")
	want, err := e.repo.GetCard(ctx, "card-1")
	if err != nil {
		t.Fatal(err)
	}
	it, _ := got.FindItem("it-1")
	if !it.Completed {
		t.Error("completed edit not visible after refetch")
	}
	if len(got.Items()) != len(want.Items()) || len(before.Items()) != len(got.Items()) {
		t.Errorf("cache %+v diverged from server %+v", got, want)
	}
}

// slowReadRepo runs onRead once, after the first card read and before the
// handler gets the result back.
type slowReadRepo struct {
	*sqlstore.Store
	once   sync.Once
	onRead func()
}

func (r *slowReadRepo) GetCard(ctx context.Context, cardID string) (*model.Card, error) {
	card, err := r.Store.GetCard(ctx, cardID)
	r.once.Do(r.onRead)
	return card, err
}

func TestCacheFillRacingMutationIsDropped(t *testing.T) {
	var client *api.Client
	ctx := context.Background()
	e := newEnvWithRepo(t, "", func(s *sqlstore.Store) Repository {
		return &slowReadRepo{Store: s, onRead: func() {
			if err := client.UpdateItem(ctx, model.QuantityDelta("it-1", 7)); err != nil {
				t.Errorf("UpdateItem during read: %v", err)
			}
		}}
	})
	client = api.New(e.srv.URL)

	// This read saw quantity 2; the PATCH committed before it was cached.
	if _, err := client.FetchCard(ctx, "card-1"); err != nil {
		t.Fatalf("FetchCard: %v", err)
	}
	if _, ok := e.cache.cards["card-1"]; ok {
		t.Error("fill from before the mutation was cached")
	}

	card, err := client.FetchCard(ctx, "card-1")
	if err != nil {
		t.Fatalf("FetchCard: %v", err)
	}
	if it, _ := card.FindItem("it-1"); it.Quantity != 7 {
		t.Errorf("refetch quantity = %d, want 7", it.Quantity)
	}
	if _, ok := e.cache.cards["card-1"]; !ok {
		t.Error("fresh read not cached")
	}
}
