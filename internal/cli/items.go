package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/idilsaglam/tada/internal/cache"
	"github.com/idilsaglam/tada/internal/checklist"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/optimistic"
	"github.com/idilsaglam/tada/internal/store/jsonstore"
	"github.com/idilsaglam/tada/internal/tui"
	"github.com/idilsaglam/tada/internal/ui"
)

func doCard(ctx context.Context, cardID string, opt Options) int {
	err := tui.Run(ctx, opt.backend(), tui.Options{
		CardID:   cardID,
		Role:     opt.role(),
		ReadOnly: opt.Config.UI.ReadOnly,
		Timeout:  opt.Config.HTTP.Timeout,
		Log:      opt.Log,
	})
	if err != nil {
		ui.Fail("card: " + err.Error())
		return 1
	}
	return 0
}

func doShow(ctx context.Context, cardID string, opt Options) int {
	card, err := opt.backend().FetchCard(ctx, cardID)
	if err != nil {
		ui.Fail("show: " + err.Error())
		return 1
	}
	ui.Panel(ui.CardLines(card))
	return 0
}

func doToggle(ctx context.Context, cardID string, n int, field model.Field, opt Options) int {
	return editItem(ctx, cardID, n, opt, "toggled", func(r *checklist.Row) (*optimistic.Mutation, string) {
		if !r.Editable(field) {
			return nil, string(field) + ": not editable here"
		}
		switch field {
		case model.FieldCompleted:
			return r.ToggleCompleted(), ""
		case model.FieldWash:
			return r.ToggleWash(), ""
		case model.FieldIron:
			return r.ToggleIron(), ""
		}
		return nil, "toggle: unknown field " + string(field)
	})
}

func doQuantity(ctx context.Context, cardID string, n int, raw string, opt Options) int {
	return editItem(ctx, cardID, n, opt, "quantity set", func(r *checklist.Row) (*optimistic.Mutation, string) {
		if !r.Editable(model.FieldQuantity) {
			return nil, "quantity: not editable here"
		}
		if strings.HasPrefix(raw, "+") || strings.HasPrefix(raw, "-") {
			if step, err := strconv.Atoi(raw); err == nil {
				return r.StepQuantity(step, 0), ""
			}
		}
		return r.SetQuantityText(raw), ""
	})
}

func doRename(ctx context.Context, cardID string, n int, title string, opt Options) int {
	return editItem(ctx, cardID, n, opt, "renamed", func(r *checklist.Row) (*optimistic.Mutation, string) {
		if !r.Editable(model.FieldTitle) {
			return nil, "rename: not editable here"
		}
		m := r.CommitTitleText(title)
		if m == nil {
			return nil, "rename: empty or unchanged title"
		}
		return m, ""
	})
}

func doRemove(ctx context.Context, cardID string, n int, opt Options) int {
	return editItem(ctx, cardID, n, opt, "removed", func(r *checklist.Row) (*optimistic.Mutation, string) {
		m := r.Delete()
		if m == nil {
			return nil, "rm: card is read-only"
		}
		return m, ""
	})
}

// editItem loads the card, runs edit on the n-th item's row and settles
// the resulting mutation before printing the refreshed item.
func editItem(ctx context.Context, cardID string, n int, opt Options, done string,
	edit func(*checklist.Row) (*optimistic.Mutation, string)) int {

	backend := opt.backend()
	cards := cache.New(backend, cache.WithLogger(opt.Log))
	defer cards.Close()

	card, err := cards.Load(ctx, cardID)
	if err != nil {
		ui.Fail("load: " + err.Error())
		return 1
	}
	items := card.Items()
	if n < 1 || n > len(items) {
		ui.Fail(fmt.Sprintf("index out of range: have %d, got %d", len(items), n))
		fmt.Fprintln(os.Stderr, ui.Current().Muted.Render("Hint: run `tada show "+cardID+"` to see valid indexes"))
		return 2
	}

	notify := optimistic.NotifierFunc(func(header, message string) { ui.Popup(os.Stderr, header, message) })
	coord := optimistic.NewCoordinator(cards, backend, notify, opt.Log)
	row := checklist.NewRow(coord, cards, cardID, items[n-1], opt.role(), opt.Config.UI.ReadOnly)

	m, reason := edit(row)
	if m == nil {
		if reason == "" {
			reason = "nothing to change"
		}
		ui.Fail(reason)
		return 1
	}

	dctx, cancel := context.WithTimeout(ctx, opt.Config.HTTP.Timeout)
	defer cancel()
	out := row.Settle(m, m.Dispatch(dctx))
	cards.Wait()
	if !out.OK() {
		return 1
	}

	ui.OK(done)
	if fresh, ok := cards.Get(cardID); ok {
		if it, found := fresh.FindItem(row.ID()); found {
			fmt.Println(ui.ItemLine(n, it))
		}
	}
	return 0
}

// doExport writes the card into a JSON fixture file, replacing any card
// with the same id already in it.
func doExport(ctx context.Context, cardID, file string, opt Options) int {
	card, err := opt.backend().FetchCard(ctx, cardID)
	if err != nil {
		ui.Fail("export: " + err.Error())
		return 1
	}
	cards, err := jsonstore.Load(file)
	if err != nil {
		ui.Fail("load: " + err.Error())
		return 1
	}
	replaced := false
	for i := range cards {
		if cards[i].PublicID == card.PublicID {
			cards[i] = *card
			replaced = true
		}
	}
	if !replaced {
		cards = append(cards, *card)
	}
	if err := jsonstore.Save(file, cards); err != nil {
		ui.Fail("save: " + err.Error())
		return 1
	}
	ui.OK(fmt.Sprintf("exported %q (%d items)", card.Title, len(card.Items())))
	return 0
}
