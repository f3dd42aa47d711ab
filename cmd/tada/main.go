package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/idilsaglam/tada/internal/auth"
	"github.com/idilsaglam/tada/internal/cli"
	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/logger"
	"github.com/idilsaglam/tada/internal/ui"
)

func main() {
	// Root flags (apply to every subcommand); set flags win over config.
	configFile := flag.StringP("config", "c", "", "extra config file merged last")
	server := flag.StringP("server", "s", "", "API base URL")
	role := flag.String("role", "", "actor role: admin or member")
	readOnly := flag.Bool("read-only", false, "open cards read-only (completion stays editable)")
	theme := flag.String("theme", "", "classic, neon or mono")
	flag.SetInterspersed(false)
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintHelp()
		os.Exit(2)
	}

	paths := []string{config.GlobalPath(), config.ProjectPath()}
	if *configFile != "" {
		paths = append(paths, *configFile)
	}
	cfg, err := config.LoadFrom(paths...)
	if err != nil {
		ui.Fail(err.Error())
		os.Exit(1)
	}
	if flag.CommandLine.Changed("server") {
		cfg.Server.URL = *server
	}
	if flag.CommandLine.Changed("role") {
		cfg.Actor.Role = *role
	}
	if flag.CommandLine.Changed("read-only") {
		cfg.UI.ReadOnly = *readOnly
	}
	if flag.CommandLine.Changed("theme") {
		cfg.UI.Theme = *theme
	}
	ui.SetTheme(cfg.UI.Theme)

	// Logs go to a file so they never land on the terminal UI.
	log := logger.Nop()
	if cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o700); err == nil {
			if l, err := logger.New(cfg.Log.Mode, cfg.Log.File); err == nil {
				log = l
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, args, cli.Options{
		Config: cfg,
		Log:    log,
		Auth:   auth.Store{Dir: config.Dir()},
	})
	stop()
	log.Sync()
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
