package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"revisit/internal/cli"
	"revisit/internal/clock"
	"revisit/internal/config"
	"revisit/internal/ics"
	appLog "revisit/internal/log"
	"revisit/internal/prefs"
	"revisit/internal/store"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"Config file path." type:"path" default:"${config_path}"`
	LogLevel string `help:"Override the configured log level (debug, info, warn, error)."`

	Serve   cli.ServeCmd   `cmd:"" help:"Run the HTTP API."`
	Ics     cli.IcsCmd     `cmd:"" help:"Write a calendar file for a reminder."`
	Link    cli.LinkCmd    `cmd:"" help:"Print an add-event link for a calendar provider."`
	Summary cli.SummaryCmd `cmd:"" help:"Print a plain-text reminder summary."`
	Inspect cli.InspectCmd `cmd:"" help:"Read back a calendar file."`
	Recent  cli.RecentCmd  `cmd:"" help:"Show the last and recent offset selections."`
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "./config.yaml"
	}
	return filepath.Join(dir, "revisit", "config.yaml")
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("revisit"),
		kong.Description("Turn a thought into a calendar reminder some weeks, months or years out"),
		kong.UsageOnError(),
		kong.Vars{
			"version":     "v0.1.0",
			"config_path": defaultConfigPath(),
		},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		if cfg == nil {
			appLog.Error("failed to load config", err, "config_path", CLI.Config)
			os.Exit(1)
		}
		appLog.Warn("failed to write default config", "config_path", CLI.Config, "reason", err.Error())
	}
	if CLI.LogLevel != "" {
		cfg.LogLevel = CLI.LogLevel
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		appLog.Error("failed to open store", err, "store_path", cfg.StorePath)
		os.Exit(1)
	}
	defer st.Close()

	opts := []ics.Option{
		ics.WithProductID(cfg.ICS.ProductID),
		ics.WithUIDDomain(cfg.ICS.UIDDomain),
	}
	if cfg.ICS.RandomUID {
		opts = append(opts, ics.WithRandomUID())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCtx := &cli.Context{
		Ctx:      ctx,
		Config:   cfg,
		Prefs:    prefs.NewService(st, cfg.Default()),
		Renderer: ics.NewRenderer(opts...),
		Clock:    clock.SystemClock{},
		Out:      os.Stdout,
	}

	if err := kctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		st.Close()
		os.Exit(1)
	}
}
