// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package server assembles the control plane: it owns the world and
// every collaborator, registers the operator commands, wires settings
// changes to the components they affect, and drives everything from a
// single control loop.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bureau-foundation/arena/admin"
	"github.com/bureau-foundation/arena/autosave"
	"github.com/bureau-foundation/arena/command"
	"github.com/bureau-foundation/arena/console"
	"github.com/bureau-foundation/arena/lib/clock"
	"github.com/bureau-foundation/arena/remote"
	"github.com/bureau-foundation/arena/round"
	"github.com/bureau-foundation/arena/savefile"
	"github.com/bureau-foundation/arena/settings"
	"github.com/bureau-foundation/arena/world"
)

// updateSaveName is the slot restored at startup when autoUpdate is on.
const updateSaveName = "autosavebe"

// Config holds the server's collaborators. Logger may be nil; every
// other field is required.
type Config struct {
	Clock    clock.Clock
	Engine   world.Engine
	Catalog  world.Catalog
	Saves    *savefile.Store
	Settings *settings.Store
	Admin    *admin.Store
	Sink     *console.Sink

	// MapDirectory is shown by the maps command.
	MapDirectory string

	QueueSize     int
	TickRate      time.Duration
	FlushInterval time.Duration

	Logger *slog.Logger
}

// Server is the running control plane. All of its state is owned by
// the control loop; the only entry points safe from other goroutines
// are Post, PostLine and Stop.
type Server struct {
	clock    clock.Clock
	engine   world.Engine
	catalog  world.Catalog
	saves    *savefile.Store
	settings *settings.Store
	admin    *admin.Store
	sink     *console.Sink
	logger   *slog.Logger

	mapDirectory string

	loop      *Loop
	registry  *command.Registry
	suggester *command.Suggester
	autosave  *autosave.Manager
	round     *round.Controller
	remote    *remote.Channel

	// ctx is the context passed to Run. Handlers use it for store
	// queries and for re-enabling the remote channel.
	ctx context.Context

	lastMode   world.Gamemode
	autoPaused bool
	known      map[string]world.Player
}

// New builds a Server and registers its commands and hooks. Nothing
// runs until Run.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	server := &Server{
		clock:        cfg.Clock,
		engine:       cfg.Engine,
		catalog:      cfg.Catalog,
		saves:        cfg.Saves,
		settings:     cfg.Settings,
		admin:        cfg.Admin,
		sink:         cfg.Sink,
		logger:       logger,
		mapDirectory: cfg.MapDirectory,
		ctx:          context.Background(),
		known:        map[string]world.Player{},
	}

	server.loop = NewLoop(LoopConfig{
		Clock:         cfg.Clock,
		QueueSize:     cfg.QueueSize,
		TickRate:      cfg.TickRate,
		OnTick:        server.tick,
		FlushInterval: cfg.FlushInterval,
		OnFlush:       server.flush,
		Logger:        logger,
	})

	server.registry = command.NewRegistry(logger)
	server.registerCommands()
	server.suggester = command.NewSuggester(server.registry, server.sink, command.DefaultConfirmName)

	server.autosave = autosave.NewManager(autosave.Config{
		Clock:    cfg.Clock,
		Saves:    cfg.Saves,
		World:    cfg.Engine,
		Settings: cfg.Settings,
		Logger:   logger,
	})

	server.round = round.NewController(round.Config{
		Clock:    cfg.Clock,
		Engine:   cfg.Engine,
		Catalog:  cfg.Catalog,
		Post:     func(fn func()) { server.loop.Post(fn) },
		Delay:    server.roundExtraTime,
		Mode:     func() world.Gamemode { return server.lastMode },
		RulesFor: server.rulesFor,
		OnLoaded: server.worldLoaded,
		Logger:   logger,
	})

	server.remote = remote.New(remote.Config{
		Address:  server.remoteAddress,
		Post:     server.loop.PostContext,
		Dispatch: func(line string) { server.suggester.Handle(line) },
		Mirror:   server.sink,
		Logger:   logger,
	})

	server.restorePreferences()
	server.wireHooks()
	return server
}

// restorePreferences loads the last gamemode and shuffle mode.
func (server *Server) restorePreferences() {
	mode, err := world.ParseGamemode(server.settings.Key(settings.KeyLastMode, string(world.Survival)))
	if err != nil {
		mode = world.Survival
	}
	server.lastMode = mode

	shuffle, err := world.ParseShuffleMode(server.settings.Key(settings.KeyShuffleMode, string(world.ShuffleCustom)))
	if err != nil {
		shuffle = world.ShuffleAll
	}
	server.catalog.SetShuffleMode(shuffle)

	server.sink.SetDebug(server.settings.Bool(settings.Debug))
	server.applyFileLogging(settings.Value{})
}

func (server *Server) wireHooks() {
	for _, name := range []string{settings.SocketInput, settings.SocketInputPort, settings.SocketInputAddress} {
		server.settings.OnChange(name, func(settings.Value) { server.toggleRemote() })
	}
	server.settings.OnChange(settings.AutosaveSpacing, func(settings.Value) { server.autosave.Reset() })
	server.settings.OnChange(settings.Debug, func(value settings.Value) { server.sink.SetDebug(value.Bool()) })
	server.settings.OnChange(settings.Logging, server.applyFileLogging)
	server.settings.OnChange(settings.MaxLogLength, server.applyFileLogging)

	server.engine.OnTerminal(server.round.HandleTerminal)
	server.engine.OnPlayersChanged(func(int) { server.playersChanged() })
}

func (server *Server) applyFileLogging(settings.Value) {
	server.sink.SetFileLogging(
		server.settings.Bool(settings.Logging),
		int64(server.settings.Int(settings.MaxLogLength)),
	)
}

func (server *Server) roundExtraTime() time.Duration {
	return time.Duration(server.settings.Int(settings.RoundExtraTime)) * time.Second
}

func (server *Server) remoteAddress() string {
	return net.JoinHostPort(
		server.settings.String(settings.SocketInputAddress),
		strconv.Itoa(server.settings.Int(settings.SocketInputPort)),
	)
}

// Post queues fn on the control loop.
func (server *Server) Post(fn func()) bool { return server.loop.Post(fn) }

// PostLine queues an operator input line.
func (server *Server) PostLine(line string) bool {
	return server.loop.Post(func() { server.suggester.Handle(line) })
}

// Stop asks Run to return.
func (server *Server) Stop() { server.loop.Stop() }

// Done is closed once Run's loop has exited.
func (server *Server) Done() <-chan struct{} { return server.loop.Done() }

// Run performs startup on the loop goroutine, then serves until ctx is
// done or the exit command runs. startArgs are command-line arguments
// holding comma-separated commands to run first.
func (server *Server) Run(ctx context.Context, startArgs []string) error {
	server.ctx = ctx

	server.toggleRemote()
	server.loadUpdateSave()
	server.runStartCommands(startArgs)
	server.sink.Infof("Server loaded. Type 'help' for help.")

	server.loop.Run(ctx)

	server.ctx = context.WithoutCancel(ctx)
	server.round.Cancel()
	server.remote.Disable()
	server.flush()
	return nil
}

func (server *Server) toggleRemote() {
	err := server.remote.Toggle(server.ctx, server.settings.Bool(settings.SocketInput))
	switch {
	case errors.Is(err, remote.ErrAddressInUse):
		server.sink.Errorf("Command input socket already in use. Is another instance of the server running?")
	case err != nil:
		server.sink.Errorf("Could not open command input socket: %v", err)
	}
}

// loadUpdateSave restores the pre-update autosave when autoUpdate is on.
func (server *Server) loadUpdateSave() {
	if !server.settings.Bool(settings.AutoUpdate) {
		return
	}
	path := server.saves.Path(updateSaveName)
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := server.loadSave(path); err != nil {
		server.sink.Errorf("Failed to load auto-update save: %v", err)
		return
	}
	server.sink.Infof("Auto-save loaded.")
}

// runStartCommands dispatches the command-line commands followed by
// the startCommands setting.
func (server *Server) runStartCommands(args []string) {
	var commands []string
	if len(args) > 0 {
		parsed := strings.Split(strings.Join(args, " "), ",")
		server.sink.Infof("Found %d command-line arguments to parse.", len(parsed))
		commands = append(commands, parsed...)
	}
	if startup := server.settings.String(settings.StartCommands); startup != "" {
		parsed := strings.Split(startup, ",")
		server.sink.Infof("Found %d startup commands.", len(parsed))
		commands = append(commands, parsed...)
	}

	for _, line := range commands {
		response := server.registry.Dispatch(line)
		if response.Kind != command.Valid {
			server.sink.Errorf("Invalid command argument sent: '%s': %s", line, response.Kind)
			server.sink.Errorf("Argument usage: <command-1> <command1-args...>,<command-2> <command-2-args2...>")
		}
	}
}

// tick runs once per loop tick.
func (server *Server) tick() {
	server.autosave.Tick()
}

// flush forces settings and the admin store to disk.
func (server *Server) flush() {
	if err := server.settings.Persist(); err != nil {
		server.logger.Error("settings flush failed", "error", err)
	}
	if err := server.admin.Checkpoint(server.ctx); err != nil {
		server.logger.Error("admin store checkpoint failed", "error", err)
	}
}

// rulesFor derives the ruleset for m in the last gamemode with the
// operator's global rules applied.
func (server *Server) rulesFor(m world.Map) world.Rules {
	rules := m.ApplyRules(server.lastMode)
	global, err := parseGlobalRules(server.settings.Key(settings.KeyGlobalRules, ""))
	if err == nil {
		rules, err = applyGlobalRules(rules, global)
	}
	if err != nil {
		server.sink.Errorf("Error applying custom rules, proceeding without them: %v", err)
		return m.ApplyRules(server.lastMode)
	}
	return rules
}

// worldLoaded runs after any map or save finishes loading.
func (server *Server) worldLoaded() {
	server.autosave.Reset()
}

// saveLoaded pauses a freshly loaded save nobody is playing.
func (server *Server) saveLoaded() {
	if server.settings.Bool(settings.AutoPause) && len(server.engine.Players()) == 0 {
		server.engine.SetState(world.StatePaused)
		server.autoPaused = true
	}
}

func (server *Server) openListener() {
	if err := server.engine.OpenListener(server.settings.Int(settings.Port)); err != nil {
		server.sink.Errorf("Failed to open server listener: %v", err)
	}
}

// loadSave replaces the world with the save at path. On failure the
// world is unchanged.
func (server *Server) loadSave(path string) error {
	snapshot, err := server.saves.Load(path)
	if err != nil {
		return err
	}
	server.round.Cancel()
	if err := server.engine.Restore(snapshot); err != nil {
		return err
	}
	server.engine.SetState(world.StatePlaying)
	server.openListener()
	server.worldLoaded()
	server.saveLoaded()
	return nil
}
