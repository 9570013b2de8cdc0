// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/arena/admin"
	"github.com/bureau-foundation/arena/console"
	"github.com/bureau-foundation/arena/lib/clock"
	"github.com/bureau-foundation/arena/lib/config"
	"github.com/bureau-foundation/arena/lib/process"
	"github.com/bureau-foundation/arena/lib/version"
	"github.com/bureau-foundation/arena/savefile"
	"github.com/bureau-foundation/arena/server"
	"github.com/bureau-foundation/arena/settings"
	"github.com/bureau-foundation/arena/world"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)
	pflag.StringVarP(&configPath, "config", "c", "", "path to the YAML bootstrap config (default $ARENA_CONFIG)")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: arena-server [flags] [command,command,...]\n\n")
		fmt.Fprintf(os.Stderr, "Trailing arguments are joined and run as comma-separated commands once the server is up.\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if showVersion {
		fmt.Printf("arena-server %s\n", version.Info())
		fmt.Printf("  %s\n", version.Runtime())
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	input, err := readline.NewEx(&readline.Config{
		HistoryFile:     cfg.Paths.History,
		HistoryLimit:    500,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("opening console input: %w", err)
	}
	defer input.Close()

	realClock := clock.Real()
	sink, logger := newConsole(console.Options{
		Console:      input.Stdout(),
		Terminal:     os.Stdout,
		Clock:        realClock,
		LogDirectory: cfg.Paths.Logs,
	})
	defer sink.Close()

	store, err := settings.Open(cfg.Paths.Settings, settings.Builtin(), logger.With("component", "settings"))
	if err != nil {
		return err
	}
	adminStore, err := admin.Open(admin.Config{
		Path:   cfg.Paths.AdminDB,
		Logger: logger.With("component", "admin"),
	})
	if err != nil {
		return err
	}
	defer adminStore.Close()

	compression, err := savefile.ParseCompression(cfg.Save.Compression)
	if err != nil {
		return err
	}
	saves := savefile.NewStore(cfg.Paths.Saves, cfg.Save.Extension, compression)

	catalog := world.NewMapCatalog(cfg.Paths.Maps, logger.With("component", "maps"))
	if err := catalog.Reload(); err != nil {
		logger.Warn("loading custom maps failed", "directory", cfg.Paths.Maps, "error", err)
	}

	arena := server.New(server.Config{
		Clock:         realClock,
		Engine:        world.NewSim(realClock, logger.With("component", "engine")),
		Catalog:       catalog,
		Saves:         saves,
		Settings:      store,
		Admin:         adminStore,
		Sink:          sink,
		MapDirectory:  cfg.Paths.Maps,
		QueueSize:     cfg.Server.QueueSize,
		TickRate:      cfg.Server.TickRate,
		FlushInterval: cfg.Server.SettingsFlush,
		Logger:        logger.With("component", "server"),
	})

	go readConsole(input, arena, logger.With("component", "input"))

	return arena.Run(ctx, pflag.Args())
}

// newConsole builds the output sink and makes its logger the process
// default, so library code logging through slog reaches the console.
func newConsole(options console.Options) (*console.Sink, *slog.Logger) {
	sink := console.NewSink(options)
	logger := console.NewLogger(sink)
	slog.SetDefault(logger)
	return sink, logger
}

// lineReader is the part of readline the input goroutine needs.
type lineReader interface {
	Readline() (string, error)
}

type lineTarget interface {
	PostLine(line string) bool
	Stop()
}

// readConsole posts every local line to the control loop until input
// ends. Interrupt or end of input stops the server.
func readConsole(input lineReader, target lineTarget, logger *slog.Logger) {
	for {
		line, err := input.Readline()
		if err != nil {
			if !errors.Is(err, readline.ErrInterrupt) && !errors.Is(err, io.EOF) {
				logger.Warn("console input failed", "error", err)
			}
			target.Stop()
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !target.PostLine(line) {
			return
		}
	}
}
