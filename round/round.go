// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package round moves the server from one round to the next. When a
// round ends it picks the next map, announces it, and after a
// cancellable delay swaps the world inside the engine's reload
// bracket.
package round

import (
	"errors"
	"log/slog"
	"time"

	"github.com/bureau-foundation/arena/lib/clock"
	"github.com/bureau-foundation/arena/world"
)

// Config holds a Controller's collaborators. All fields except Logger
// are required.
type Config struct {
	Clock   clock.Clock
	Engine  world.Engine
	Catalog world.Catalog

	// Post runs a function on the control loop. Timer callbacks use it
	// so the reload itself never runs on the timer goroutine.
	Post func(func())

	// Delay is the wait between a round ending and the next map
	// loading.
	Delay func() time.Duration

	// Mode is the gamemode the next round is played in.
	Mode func() world.Gamemode

	// RulesFor derives the ruleset for a map in the current mode.
	RulesFor func(world.Map) world.Rules

	// OnLoaded runs after every successful reload.
	OnLoaded func()

	Logger *slog.Logger
}

// Controller tracks at most one pending reload. It is driven from the
// control loop and is not safe for concurrent use.
type Controller struct {
	cfg    Config
	logger *slog.Logger

	generation uint64
	timer      *clock.Timer
	pending    bool
	awaiting   bool
}

// NewController returns an idle Controller.
func NewController(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.OnLoaded == nil {
		cfg.OnLoaded = func() {}
	}
	return &Controller{cfg: cfg, logger: logger}
}

// InTerminalWait reports whether a round has ended and the next one
// has not finished loading.
func (controller *Controller) InTerminalWait() bool { return controller.awaiting }

// Pending reports whether a delayed reload is scheduled.
func (controller *Controller) Pending() bool { return controller.pending }

// Generation identifies the most recent schedule or cancel. A timer
// that fires for an older generation does nothing.
func (controller *Controller) Generation() uint64 { return controller.generation }

// ScheduleReload replaces any pending reload with one that runs
// loadNext, either immediately or after the configured delay.
func (controller *Controller) ScheduleReload(wait bool, loadNext func() error) {
	controller.awaiting = true
	controller.cancelPending()

	if !wait {
		controller.reload(loadNext)
		return
	}

	generation := controller.generation
	controller.pending = true
	controller.timer = controller.cfg.Clock.AfterFunc(controller.cfg.Delay(), func() {
		controller.cfg.Post(func() {
			controller.fire(generation, loadNext)
		})
	})
}

// Cancel drops any pending reload and leaves the terminal wait.
// Cancelling with nothing pending is harmless.
func (controller *Controller) Cancel() {
	controller.cancelPending()
	controller.awaiting = false
}

func (controller *Controller) cancelPending() {
	controller.generation++
	if controller.timer != nil {
		controller.timer.Stop()
		controller.timer = nil
	}
	controller.pending = false
}

func (controller *Controller) fire(generation uint64, loadNext func() error) {
	if generation != controller.generation || !controller.pending {
		controller.logger.Debug("stale reload skipped", "generation", generation, "current", controller.generation)
		return
	}
	controller.pending = false
	controller.timer = nil
	controller.reload(loadNext)
}

// reload runs loadNext inside the engine's reload bracket. On failure
// the bracket is aborted and the public listener closed, so clients
// never see a half-loaded world.
func (controller *Controller) reload(loadNext func() error) {
	engine := controller.cfg.Engine
	engine.BeginReload()

	if err := loadNext(); err != nil {
		engine.AbortReload()
		controller.awaiting = false
		var mapErr *world.MapError
		if errors.As(err, &mapErr) {
			controller.logger.Error("map failed to load", "map", mapErr.Map, "error", mapErr.Err)
		} else {
			controller.logger.Error("reload failed", "error", err)
		}
		engine.CloseListener()
		return
	}

	if current, ok := engine.CurrentMap(); ok {
		engine.ApplyRuleset(controller.cfg.RulesFor(current))
	}
	engine.Play()
	engine.EndReload()
	controller.awaiting = false
	controller.cfg.OnLoaded()
}

// HandleTerminal reacts to the end of a round. Events arriving while a
// reload is already awaited are ignored.
func (controller *Controller) HandleTerminal(event world.TerminalEvent) {
	if controller.awaiting {
		controller.logger.Debug("terminal event ignored during reload wait", "winner", event.Winner)
		return
	}
	engine := controller.cfg.Engine

	current, hasCurrent := engine.CurrentMap()
	controller.logger.Info("game over",
		"map", current.Name,
		"wave", engine.Wave(),
		"players", len(engine.Players()),
		"winner", event.Winner,
	)

	var previous *world.Map
	if hasCurrent {
		previous = &current
	}
	mode := controller.cfg.Mode()
	next := controller.cfg.Catalog.SelectNext(mode, previous)
	if next == nil {
		engine.KickAll("game over")
		engine.SetState(world.StateMenu)
		engine.CloseListener()
		controller.logger.Info("no next map, server stopped")
		return
	}

	chosen := *next
	delay := controller.cfg.Delay()
	engine.SetState(world.StateGameOver)
	engine.Announce(announcement(event, chosen, delay))
	controller.logger.Info("next map selected", "map", chosen.Name, "delay", delay)

	controller.ScheduleReload(true, func() error {
		return engine.LoadMap(chosen, controller.cfg.RulesFor(chosen))
	})
}

func announcement(event world.TerminalEvent, next world.Map, delay time.Duration) string {
	text := "Game over!"
	if event.Winner != "" {
		text = event.Winner + " team is victorious!"
	}
	text += " Next map: " + next.Name
	if next.Author != "" {
		text += " by " + next.Author
	}
	return text + ". New game begins in " + delay.String() + "."
}
