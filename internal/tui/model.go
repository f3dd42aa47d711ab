package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/tada/internal/checklist"
	"github.com/idilsaglam/tada/internal/logger"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/optimistic"
	"github.com/idilsaglam/tada/internal/ui"
)

// Options configure one card view.
type Options struct {
	CardID      string
	Role        model.Role
	ReadOnly    bool
	MaxQuantity int
	// Timeout bounds each mutation round trip.
	Timeout time.Duration
	Log     *logger.Logger
}

type mode int

const (
	browsing mode = iota
	editingTitle
	editingQuantity
)

// cardRefreshedMsg is sent by the cache when a fetch for the card lands.
type cardRefreshedMsg struct{ cardID string }

type fetchFailedMsg struct {
	cardID string
	err    error
}

// settledMsg carries a dispatched mutation's result back into Update.
type settledMsg struct {
	row      *checklist.Row
	mutation *optimistic.Mutation
	err      error
}

type popup struct{ header, message string }

var rowFields = []model.Field{
	model.FieldTitle, model.FieldCompleted, model.FieldWash, model.FieldIron, model.FieldQuantity,
}

// Model is the Bubble Tea card view. Update is the only place mutations
// begin and settle; dispatches run as commands.
type Model struct {
	opts   Options
	cards  optimistic.Store
	coord  *optimistic.Coordinator
	log    *logger.Logger
	title  string
	rows   []*checklist.Row
	cursor int

	mode    mode
	ti      textinput.Model
	keys    keyMap
	help    help.Model
	popup   *popup
	status  string
	pending int
	width   int
}

// New builds the view over a loaded card cache. The model is the
// coordinator's notifier.
func New(cards optimistic.Store, mutator optimistic.Mutator, opts Options) *Model {
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	m := &Model{
		opts:  opts,
		cards: cards,
		log:   opts.Log.With("component", "tui", "card_id", opts.CardID),
		keys:  defaultKeys(),
		help:  help.New(),
		width: 80,
	}
	m.coord = optimistic.NewCoordinator(cards, mutator, m, opts.Log)
	m.ti = textinput.New()
	m.ti.Prompt = "> "
	m.ti.CharLimit = 200
	m.reload()
	return m
}

// ShowError implements optimistic.Notifier.
func (m *Model) ShowError(header, message string) {
	m.popup = &popup{header: header, message: message}
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case cardRefreshedMsg:
		if msg.cardID == m.opts.CardID {
			m.reload()
		}
		return m, nil

	case fetchFailedMsg:
		m.status = "refresh failed: " + msg.err.Error()
		return m, nil

	case settledMsg:
		m.pending--
		out := msg.row.Settle(msg.mutation, msg.err)
		m.log.Debug("settled", "item_id", msg.mutation.ItemID, "kind", msg.mutation.Kind, "status", out.Status)
		m.reload()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case editingTitle:
			return m.updateTitle(msg)
		case editingQuantity:
			return m.updateQuantity(msg)
		}
		return m.updateBrowsing(msg)
	}
	return m, nil
}

func (m *Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.popup = nil
	row := m.selected()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Refresh):
		m.cards.Invalidate(m.opts.CardID)
		m.status = "refreshing…"
	case row == nil:
	case key.Matches(msg, m.keys.Complete):
		return m, m.start(row, row.ToggleCompleted())
	case key.Matches(msg, m.keys.Wash):
		return m, m.start(row, row.ToggleWash())
	case key.Matches(msg, m.keys.Iron):
		return m, m.start(row, row.ToggleIron())
	case key.Matches(msg, m.keys.Inc):
		return m, m.start(row, row.StepQuantity(1, m.opts.MaxQuantity))
	case key.Matches(msg, m.keys.Dec):
		return m, m.start(row, row.StepQuantity(-1, m.opts.MaxQuantity))
	case key.Matches(msg, m.keys.Delete):
		return m, m.start(row, row.Delete())
	case key.Matches(msg, m.keys.Edit):
		if !row.Editable(model.FieldTitle) {
			return m, nil
		}
		m.mode = editingTitle
		m.ti.Placeholder = "Item title..."
		m.ti.SetValue(row.TitleDraft())
		m.ti.CursorEnd()
		return m, m.ti.Focus()
	case key.Matches(msg, m.keys.Quantity):
		if !row.Editable(model.FieldQuantity) {
			return m, nil
		}
		m.mode = editingQuantity
		m.ti.Placeholder = "Quantity"
		m.ti.SetValue(fmt.Sprint(row.Item().Quantity))
		m.ti.CursorEnd()
		return m, m.ti.Focus()
	}
	return m, nil
}

func (m *Model) updateTitle(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	row := m.selected()
	if row == nil {
		m.endEdit()
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Commit):
		m.endEdit()
		return m, m.start(row, row.CommitTitle())
	case key.Matches(msg, m.keys.Cancel):
		row.CancelTitle()
		m.endEdit()
		return m, nil
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	row.EditTitle(m.ti.Value())
	return m, cmd
}

func (m *Model) updateQuantity(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	row := m.selected()
	if row == nil {
		m.endEdit()
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Commit):
		raw := m.ti.Value()
		m.endEdit()
		return m, m.start(row, row.SetQuantityText(raw))
	case key.Matches(msg, m.keys.Cancel):
		m.endEdit()
		return m, nil
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m *Model) endEdit() {
	m.mode = browsing
	m.ti.SetValue("")
	m.ti.Blur()
}

// start turns a begun mutation into the command that dispatches it.
func (m *Model) start(row *checklist.Row, mu *optimistic.Mutation) tea.Cmd {
	m.reload()
	if mu == nil {
		return nil
	}
	m.pending++
	timeout := m.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return settledMsg{row: row, mutation: mu, err: mu.Dispatch(ctx)}
	}
}

// reload rebuilds the row list from the cached card, keeping row state
// for items that are still present.
func (m *Model) reload() {
	card, ok := m.cards.Get(m.opts.CardID)
	if !ok {
		return
	}
	m.title = card.Title
	m.status = ""

	existing := make(map[string]*checklist.Row, len(m.rows))
	for _, r := range m.rows {
		existing[r.ID()] = r
	}
	var selectedID string
	if r := m.selected(); r != nil {
		selectedID = r.ID()
	}

	rows := make([]*checklist.Row, 0, len(existing))
	for _, it := range card.Items() {
		if r, ok := existing[it.PublicID]; ok {
			r.Sync(it)
			rows = append(rows, r)
			continue
		}
		rows = append(rows, checklist.NewRow(m.coord, m.cards, m.opts.CardID, it, m.opts.Role, m.opts.ReadOnly))
	}
	m.rows = rows

	for i, r := range rows {
		if r.ID() == selectedID {
			m.cursor = i
		}
	}
	if m.cursor >= len(rows) {
		m.cursor = len(rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) selected() *checklist.Row {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor]
}

func rowPending(r *checklist.Row) bool {
	for _, f := range rowFields {
		if r.FieldState(f) != optimistic.StateClean {
			return true
		}
	}
	return false
}

func (m *Model) View() string {
	th := ui.Current()
	done := 0
	var sum float64
	for _, r := range m.rows {
		it := r.Item()
		if it.Completed {
			done++
		}
		sum += it.Total()
	}

	header := fmt.Sprintf("%s   %s %d  %s %d  %s %s",
		th.Title.Render(m.title),
		th.Success.Render(th.SymDone), done,
		th.Pending.Render(th.SymPending), len(m.rows)-done,
		th.Accent.Render("Total"), ui.Money(sum),
	)
	lines := []string{header, th.Muted.Render(ui.ProgressBar(done, len(m.rows), 28)), ""}

	if len(m.rows) == 0 {
		lines = append(lines, th.Muted.Render("(no items)"))
	}
	for i, r := range m.rows {
		prefix := "  "
		if i == m.cursor {
			prefix = th.Selected.Render("> ")
		}
		line := prefix + ui.ItemLine(i+1, r.Item())
		if rowPending(r) {
			line += " " + th.Pending.Render("…")
		}
		lines = append(lines, line)
	}

	if m.mode != browsing {
		label := "Edit title"
		if m.mode == editingQuantity {
			label = "Quantity"
		}
		lines = append(lines, "", label+"\n"+m.ti.View())
	}
	if m.popup != nil {
		lines = append(lines, "", th.Error.Render("✖ "+m.popup.header), th.Muted.Render("  "+m.popup.message))
	}
	if m.status != "" {
		lines = append(lines, "", th.Muted.Render(m.status))
	}
	if m.pending > 0 {
		lines = append(lines, th.Pending.Render(fmt.Sprintf("saving %d…", m.pending)))
	}
	lines = append(lines, "", m.help.View(m.keys))
	return ui.Frame([]string{strings.Join(lines, "\n")})
}
