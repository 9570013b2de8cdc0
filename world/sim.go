// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package world

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/bureau-foundation/arena/lib/clock"
)

var _ Engine = (*Sim)(nil)

// ErrInvalidMap is wrapped in a MapError when map data cannot be
// loaded.
var ErrInvalidMap = errors.New("invalid map data")

// Sim is a bookkeeping Engine: it holds the state a real simulation
// would expose to the control plane (current map, rules, wave,
// players, listener) and honors the reload bracket, but advances no
// gameplay. It is not safe for concurrent use.
type Sim struct {
	clock  clock.Clock
	logger *slog.Logger

	state     State
	current   *Map
	rules     Rules
	wave      int
	players   []Player
	listening bool
	port      int

	reloading     bool
	buffered      []string
	announcements []string

	onTerminal func(TerminalEvent)
	onPlayers  func(count int)
}

// NewSim returns a Sim in the menu state.
func NewSim(clk clock.Clock, logger *slog.Logger) *Sim {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sim{clock: clk, logger: logger}
}

func (sim *Sim) IsRoundActive() bool { return sim.state != StateMenu }
func (sim *Sim) State() State        { return sim.state }

func (sim *Sim) SetState(state State) {
	if state == StateMenu {
		sim.Reset()
		return
	}
	sim.state = state
}

func (sim *Sim) BeginReload() {
	sim.reloading = true
	sim.buffered = nil
}

// EndReload closes the bracket and delivers announcements made while
// it was open.
func (sim *Sim) EndReload() {
	sim.reloading = false
	pending := sim.buffered
	sim.buffered = nil
	for _, text := range pending {
		sim.deliver(text)
	}
}

// AbortReload closes the bracket and discards buffered announcements.
func (sim *Sim) AbortReload() {
	sim.reloading = false
	sim.buffered = nil
}

// Reloading reports whether a reload bracket is open.
func (sim *Sim) Reloading() bool { return sim.reloading }

func (sim *Sim) LoadMap(m Map, rules Rules) error {
	if m.Name == "" || m.Width <= 0 || m.Height <= 0 {
		return &MapError{Map: m.Name, Err: fmt.Errorf("%w: %dx%d", ErrInvalidMap, m.Width, m.Height)}
	}
	loaded := m
	sim.current = &loaded
	sim.rules = rules.Clone()
	sim.wave = 1
	sim.logger.Debug("map loaded", "map", m.Name, "mode", string(rules.Mode))
	return nil
}

func (sim *Sim) ApplyRuleset(rules Rules) { sim.rules = rules.Clone() }

func (sim *Sim) Play() {
	if sim.current == nil {
		return
	}
	sim.state = StatePlaying
}

func (sim *Sim) Reset() {
	sim.state = StateMenu
	sim.current = nil
	sim.rules = Rules{}
	sim.wave = 0
}

func (sim *Sim) CurrentMap() (Map, bool) {
	if sim.current == nil {
		return Map{}, false
	}
	return *sim.current, true
}

func (sim *Sim) Rules() Rules { return sim.rules.Clone() }
func (sim *Sim) Wave() int    { return sim.wave }

func (sim *Sim) RunWave() {
	if sim.IsRoundActive() {
		sim.wave++
	}
}

func (sim *Sim) Players() []Player { return slices.Clone(sim.players) }

// Join adds a connected player.
func (sim *Sim) Join(player Player) {
	sim.players = append(sim.players, player)
	sim.notifyPlayers()
}

// Leave removes the player with id.
func (sim *Sim) Leave(id string) {
	before := len(sim.players)
	sim.players = slices.DeleteFunc(sim.players, func(player Player) bool { return player.ID == id })
	if len(sim.players) != before {
		sim.notifyPlayers()
	}
}

// Kick disconnects the first player whose name matches, ignoring case.
func (sim *Sim) Kick(name, reason string) bool {
	for _, player := range sim.players {
		if strings.EqualFold(player.Name, name) {
			sim.logger.Info("player kicked", "player", player.Name, "reason", reason)
			sim.Leave(player.ID)
			return true
		}
	}
	return false
}

func (sim *Sim) KickAll(reason string) {
	if len(sim.players) == 0 {
		return
	}
	sim.logger.Info("kicking all players", "count", len(sim.players), "reason", reason)
	sim.players = nil
	sim.notifyPlayers()
}

// SetAdmin updates the admin flag of a connected player.
func (sim *Sim) SetAdmin(id string, admin bool) {
	for index := range sim.players {
		if sim.players[index].ID == id {
			sim.players[index].Admin = admin
		}
	}
}

func (sim *Sim) notifyPlayers() {
	if sim.onPlayers != nil {
		sim.onPlayers(len(sim.players))
	}
}

// OnPlayersChanged registers fn to run with the new player count after
// every join, leave or kick.
func (sim *Sim) OnPlayersChanged(fn func(count int)) { sim.onPlayers = fn }

// Announce sends text to every client. Inside a reload bracket the
// message is held until EndReload.
func (sim *Sim) Announce(text string) {
	if sim.reloading {
		sim.buffered = append(sim.buffered, text)
		return
	}
	sim.deliver(text)
}

func (sim *Sim) deliver(text string) {
	sim.announcements = append(sim.announcements, text)
	sim.logger.Debug("announcement", "text", text)
}

// Announcements returns every message delivered to clients so far.
func (sim *Sim) Announcements() []string { return slices.Clone(sim.announcements) }

func (sim *Sim) OpenListener(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}
	sim.listening = true
	sim.port = port
	return nil
}

func (sim *Sim) CloseListener() {
	if sim.listening {
		sim.logger.Info("public listener closed", "port", sim.port)
	}
	sim.listening = false
}

func (sim *Sim) Listening() bool { return sim.listening }

func (sim *Sim) GameOver(winner string) {
	if !sim.IsRoundActive() {
		return
	}
	if sim.onTerminal != nil {
		sim.onTerminal(TerminalEvent{Winner: winner})
	}
}

func (sim *Sim) OnTerminal(fn func(TerminalEvent)) { sim.onTerminal = fn }

func (sim *Sim) Snapshot() Snapshot {
	snapshot := Snapshot{
		Rules:   sim.rules.Clone(),
		Wave:    sim.wave,
		State:   sim.state,
		SavedAt: sim.clock.Now(),
	}
	if sim.current != nil {
		snapshot.Map = *sim.current
	}
	return snapshot
}

// Restore replaces the world with snapshot and resumes play.
func (sim *Sim) Restore(snapshot Snapshot) error {
	if err := sim.LoadMap(snapshot.Map, snapshot.Rules); err != nil {
		return err
	}
	sim.wave = snapshot.Wave
	sim.state = StatePlaying
	return nil
}
