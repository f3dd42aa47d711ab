package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/idilsaglam/tada/internal/auth"
	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/ui"
)

func runAuth(args []string, opt Options) int {
	if len(args) == 0 {
		ui.Fail("usage: tada auth <login|logout|status|whoami>")
		return 2
	}
	switch args[0] {
	case "login":
		if len(args) != 2 {
			ui.Fail("usage: tada auth login <token>")
			return 2
		}
		if err := opt.Auth.Set(args[1], nil); err != nil {
			ui.Fail("auth: " + err.Error())
			return 1
		}
		ui.OK("token saved")
		return 0

	case "logout":
		if err := opt.Auth.Delete(); err != nil {
			ui.Fail("auth: " + err.Error())
			return 1
		}
		ui.OK("logged out")
		return 0

	case "status":
		ti, err := opt.Auth.Get()
		if err != nil {
			ui.Fail("auth: " + err.Error())
			return 1
		}
		if ti == nil {
			fmt.Println(ui.Current().Muted.Render("not logged in"))
			return 1
		}
		lines := []string{
			ui.Current().Title.Render("Authenticated"),
			"source:  " + ti.Source,
			"token:   " + mask(ti.Token),
		}
		if ti.ExpiresAt != nil {
			state := "valid"
			if time.Now().After(*ti.ExpiresAt) {
				state = ui.Current().Error.Render("expired")
			}
			lines = append(lines, fmt.Sprintf("expires: %s (%s)", ti.ExpiresAt.Format(time.RFC3339), state))
		}
		ui.Panel(lines)
		return 0

	case "whoami":
		ti, err := opt.Auth.Get()
		if err != nil || ti == nil {
			ui.Fail("not logged in")
			return 1
		}
		payload, ok := auth.JWTPayload(ti.Token)
		if !ok {
			fmt.Println(ui.Current().Muted.Render("opaque token, no claims to show"))
			return 0
		}
		fmt.Println(payload)
		return 0
	}
	ui.Fail("unknown auth subcommand: " + args[0])
	return 2
}

func runConfig(args []string, opt Options) int {
	if len(args) == 0 {
		ui.Fail("usage: tada config <init [--project]|path>")
		return 2
	}
	switch args[0] {
	case "path":
		fmt.Println(config.GlobalPath())
		fmt.Println(config.ProjectPath())
		return 0
	case "init":
		path := config.GlobalPath()
		if len(args) > 1 && args[1] == "--project" {
			path = config.ProjectPath()
		}
		if _, err := os.Stat(path); err == nil {
			ui.Fail("config exists: " + path)
			return 1
		}
		if err := config.WriteDefault(path); err != nil {
			ui.Fail("config: " + err.Error())
			return 1
		}
		ui.OK("wrote " + path)
		return 0
	}
	ui.Fail("unknown config subcommand: " + args[0])
	return 2
}

func mask(tok string) string {
	if len(tok) <= 8 {
		return strings.Repeat("*", len(tok))
	}
	return tok[:4] + strings.Repeat("*", 8) + tok[len(tok)-4:]
}
