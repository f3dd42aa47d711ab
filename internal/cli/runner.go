package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/idilsaglam/tada/internal/api"
	"github.com/idilsaglam/tada/internal/auth"
	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/logger"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/tui"
	"github.com/idilsaglam/tada/internal/ui"
)

// Options carry the resolved root flags and config.
type Options struct {
	Config *config.Config
	Log    *logger.Logger
	Auth   auth.Store
	// Backend replaces the HTTP client built from Config.
	Backend tui.Backend
}

func (o Options) backend() tui.Backend {
	if o.Backend != nil {
		return o.Backend
	}
	return api.New(o.Config.Server.URL,
		api.WithToken(o.Auth.Token()),
		api.WithTimeout(o.Config.HTTP.Timeout),
		api.WithLogger(o.Log),
	)
}

func (o Options) role() model.Role { return model.ParseRole(o.Config.Actor.Role) }

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, opt Options) int {
	if opt.Config == nil {
		opt.Config = config.Default()
	}
	if opt.Log == nil {
		opt.Log = logger.Nop()
	}
	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0

	case "card":
		if len(a) != 1 {
			ui.Fail("usage: tada card <card-id>")
			return 2
		}
		return doCard(ctx, a[0], opt)

	case "show":
		if len(a) != 1 {
			ui.Fail("usage: tada show <card-id>")
			return 2
		}
		return doShow(ctx, a[0], opt)

	case "toggle":
		if len(a) < 2 || len(a) > 3 {
			ui.Fail("usage: tada toggle <card-id> <index> [completed|wash|iron]")
			return 2
		}
		n, ok := index("toggle", a[1])
		if !ok {
			return 2
		}
		field := model.FieldCompleted
		if len(a) == 3 {
			field = model.Field(strings.ToLower(a[2]))
		}
		return doToggle(ctx, a[0], n, field, opt)

	case "qty":
		if len(a) != 3 {
			ui.Fail("usage: tada qty <card-id> <index> <quantity|+n|-n>")
			return 2
		}
		n, ok := index("qty", a[1])
		if !ok {
			return 2
		}
		return doQuantity(ctx, a[0], n, a[2], opt)

	case "rename":
		if len(a) < 3 {
			ui.Fail("usage: tada rename <card-id> <index> <title...>")
			return 2
		}
		n, ok := index("rename", a[1])
		if !ok {
			return 2
		}
		return doRename(ctx, a[0], n, strings.Join(a[2:], " "), opt)

	case "rm":
		if len(a) != 2 {
			ui.Fail("usage: tada rm <card-id> <index>")
			return 2
		}
		n, ok := index("rm", a[1])
		if !ok {
			return 2
		}
		return doRemove(ctx, a[0], n, opt)

	case "export":
		if len(a) < 1 || len(a) > 2 {
			ui.Fail("usage: tada export <card-id> [file]")
			return 2
		}
		file := ""
		if len(a) == 2 {
			file = a[1]
		}
		return doExport(ctx, a[0], file, opt)

	case "auth":
		return runAuth(a, opt)

	case "config":
		return runConfig(a, opt)
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(os.Stderr)
	PrintHelp()
	return 2
}

func index(cmd, raw string) (int, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		ui.Fail(cmd + ": not a number: " + raw)
		return 0, false
	}
	return n, true
}

func PrintHelp() {
	fmt.Printf(`tada - checklist cards with instant edits

Usage:
  tada [flags] <subcommand> [args]

Subcommands:
  card <card>                     Open the interactive card view
  show <card>                     Print a card with totals and progress
  toggle <card> <n> [field]       Toggle completed (default), wash or iron
  qty <card> <n> <q|+n|-n>        Set or step an item's quantity: +n/-n steps the
                                  current value, a bare q sets it (below 1 or not
                                  a number becomes 1)
  rename <card> <n> <title...>    Rename an item
  rm <card> <n>                   Delete an item
  export <card> [file]            Write the card to a JSON fixture (default cards.json)
  auth login <token>|logout|status|whoami
  config init [--project]|path

Items are addressed by their 1-based index across the whole card, as shown by "show".

Examples:
  tada card 4f1c...
  tada toggle 4f1c... 2
  tada toggle 4f1c... 2 wash
  tada qty 4f1c... 3 +1
  tada qty 4f1c... 3 5
  tada rename 4f1c... 1 "Camisa social"
`)
}
