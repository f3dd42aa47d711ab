package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/tada/internal/model"
)

func OK(msg string)   { fmt.Println(current.Success.Render(current.SymDone + " " + msg)) }
func Fail(msg string) { fmt.Fprintln(os.Stderr, current.Error.Render("✖ "+msg)) }

// Popup prints a notification header and message to w.
func Popup(w io.Writer, header, message string) {
	fmt.Fprintln(w, current.Error.Render("✖ "+header))
	fmt.Fprintln(w, current.Muted.Render("  "+message))
}

// ProgressBar renders a Unicode progress bar with percentage.
func ProgressBar(done, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if width < 5 {
		width = 5
	}
	filled := int(float64(done) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	pct := int(float64(done) / float64(total) * 100)
	return fmt.Sprintf("%s %3d%%", bar, pct)
}

// Frame wraps lines in the theme's border.
func Frame(lines []string) string {
	return lipgloss.NewStyle().
		Border(current.Border).
		BorderForeground(current.BorderColor).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// Panel prints a framed box.
func Panel(lines []string) { fmt.Println(Frame(lines)) }

func Money(v float64) string { return fmt.Sprintf("R$ %.2f", v) }

// ItemLine renders one checklist item on a single line.
func ItemLine(index int, it model.ChecklistItem) string {
	box, title := current.Muted.Render(current.BoxUnchecked), it.Title
	if it.Completed {
		box, title = current.Success.Render(current.BoxChecked), current.Done.Render(it.Title)
	}
	var flags []string
	if it.Wash {
		flags = append(flags, current.Accent.Render(current.SymWash))
	}
	if it.Iron {
		flags = append(flags, current.Accent.Render(current.SymIron))
	}
	line := fmt.Sprintf("%s %s %s  %s %d × %s = %s",
		current.Muted.Render(fmt.Sprintf("%2d.", index)), box, title,
		current.Muted.Render("Qtd"), it.Quantity, Money(it.ItemValue), current.Title.Render(Money(it.Total())))
	if len(flags) > 0 {
		line += "  " + strings.Join(flags, " ")
	}
	return line
}

// CardLines renders a card: header with counts, progress, then each
// checklist with 1-based item indexes running across the whole card.
func CardLines(card *model.Card) []string {
	done, total := card.Progress()
	var sum float64
	for _, it := range card.Items() {
		sum += it.Total()
	}
	lines := []string{
		fmt.Sprintf("%s  %s %d  %s %d  %s %s",
			current.Title.Render(card.Title),
			current.Success.Render(current.SymDone), done,
			current.Pending.Render(current.SymPending), total-done,
			current.Accent.Render("Total"), Money(sum),
		),
		current.Muted.Render(ProgressBar(done, total, 28)),
	}
	n := 0
	for _, cl := range card.Checklists {
		lines = append(lines, "", current.Accent.Render(cl.Name))
		if len(cl.Items) == 0 {
			lines = append(lines, current.Muted.Render("(none)"))
			continue
		}
		for _, it := range cl.Items {
			n++
			lines = append(lines, ItemLine(n, it))
		}
	}
	return lines
}
