package tui

import (
	"context"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/tada/internal/cache"
	"github.com/idilsaglam/tada/internal/logger"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/optimistic"
)

// Backend is the remote side of the view: reads and item mutations.
type Backend interface {
	cache.Fetcher
	optimistic.Mutator
}

// Run loads the card and runs the interactive view until the user quits.
func Run(ctx context.Context, backend Backend, opts Options) error {
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	// Filled in once the program exists; fetches that land before then
	// are picked up by New's initial reload.
	var prog atomic.Pointer[tea.Program]
	send := func(msg tea.Msg) {
		if p := prog.Load(); p != nil {
			p.Send(msg)
		}
	}

	cards := cache.New(backend,
		cache.WithLogger(opts.Log),
		cache.WithOnRefresh(func(cardID string, _ *model.Card) {
			send(cardRefreshedMsg{cardID: cardID})
		}),
		cache.WithOnError(func(cardID string, err error) {
			send(fetchFailedMsg{cardID: cardID, err: err})
		}),
	)
	defer cards.Close()

	if _, err := cards.Load(ctx, opts.CardID); err != nil {
		return err
	}

	p := tea.NewProgram(New(cards, backend, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	prog.Store(p)
	_, err := p.Run()
	return err
}
