// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package world describes the simulation the control plane drives: the
// Engine it issues state transitions to, the Catalog it picks maps
// from, and the value types (maps, rules, players, snapshots) passed
// between them. Sim is an in-process Engine that tracks everything the
// control plane observes without simulating gameplay.
package world

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// State is the engine's top-level lifecycle state.
type State int

const (
	StateMenu State = iota
	StatePlaying
	StatePaused
	// StateGameOver holds between a terminal event and the next map
	// being loaded.
	StateGameOver
)

func (state State) String() string {
	switch state {
	case StateMenu:
		return "menu"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateGameOver:
		return "game over"
	default:
		return fmt.Sprintf("State(%d)", int(state))
	}
}

// Gamemode selects the ruleset applied on top of a map's base rules.
type Gamemode string

const (
	Survival Gamemode = "survival"
	Sandbox  Gamemode = "sandbox"
	Attack   Gamemode = "attack"
	PvP      Gamemode = "pvp"
	Editor   Gamemode = "editor"
)

// Gamemodes lists every mode in display order.
func Gamemodes() []Gamemode {
	return []Gamemode{Survival, Sandbox, Attack, PvP, Editor}
}

// ParseGamemode accepts a mode name in any case.
func ParseGamemode(name string) (Gamemode, error) {
	for _, mode := range Gamemodes() {
		if strings.EqualFold(string(mode), name) {
			return mode, nil
		}
	}
	return "", fmt.Errorf("no gamemode with name %q", name)
}

// Rules is the ruleset a round is played under. Extra carries
// operator-defined global rules merged on top of every mode.
type Rules struct {
	Mode              Gamemode       `yaml:"mode" cbor:"mode"`
	WaveTimer         bool           `yaml:"wave_timer" cbor:"wave_timer"`
	WaveSpacing       int            `yaml:"wave_spacing" cbor:"wave_spacing"`
	Waves             bool           `yaml:"waves" cbor:"waves"`
	PvP               bool           `yaml:"pvp" cbor:"pvp"`
	AttackMode        bool           `yaml:"attack_mode" cbor:"attack_mode"`
	InfiniteResources bool           `yaml:"infinite_resources" cbor:"infinite_resources"`
	Editor            bool           `yaml:"editor" cbor:"editor"`
	Extra             map[string]any `yaml:"extra,omitempty" cbor:"extra,omitempty"`
}

// Clone returns a copy whose Extra map is not shared.
func (rules Rules) Clone() Rules {
	clone := rules
	if rules.Extra != nil {
		clone.Extra = make(map[string]any, len(rules.Extra))
		for key, value := range rules.Extra {
			clone.Extra[key] = value
		}
	}
	return clone
}

// Map is a playable map as known to the catalog.
type Map struct {
	Name        string     `yaml:"name" cbor:"name"`
	File        string     `yaml:"-" cbor:"file,omitempty"`
	Author      string     `yaml:"author" cbor:"author,omitempty"`
	Description string     `yaml:"description" cbor:"description,omitempty"`
	Width       int        `yaml:"width" cbor:"width"`
	Height      int        `yaml:"height" cbor:"height"`
	Custom      bool       `yaml:"-" cbor:"custom"`
	Modes       []Gamemode `yaml:"modes" cbor:"modes,omitempty"`
	Rules       Rules      `yaml:"rules" cbor:"rules"`
}

// Supports reports whether the map may be played in mode. A map that
// lists no modes supports all of them except pvp and attack, which
// must be opted into.
func (m Map) Supports(mode Gamemode) bool {
	if len(m.Modes) == 0 {
		return mode != PvP && mode != Attack
	}
	return slices.Contains(m.Modes, mode)
}

// FileName is the map's file name without directory or extension,
// with spaces replaced by underscores, or "unknown" for maps with no
// backing file.
func (m Map) FileName() string {
	if m.File == "" {
		return "unknown"
	}
	base := filepath.Base(m.File)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(base, " ", "_")
}

// ApplyRules derives the rules for playing the map in mode: the map's
// base rules with the mode's switches forced on top.
func (m Map) ApplyRules(mode Gamemode) Rules {
	rules := m.Rules.Clone()
	rules.Mode = mode
	if rules.WaveSpacing <= 0 {
		rules.WaveSpacing = 120
	}
	switch mode {
	case Survival:
		rules.Waves = true
		rules.WaveTimer = true
	case Sandbox:
		rules.InfiniteResources = true
		rules.Waves = true
		rules.WaveTimer = false
	case Attack:
		rules.AttackMode = true
		rules.WaveTimer = true
	case PvP:
		rules.PvP = true
		rules.WaveTimer = true
	case Editor:
		rules.Editor = true
		rules.InfiniteResources = true
		rules.Waves = false
		rules.WaveTimer = false
	}
	return rules
}

// MapError is a failure attributable to a specific map, such as
// invalid map data encountered while loading it.
type MapError struct {
	Map string
	Err error
}

func (e *MapError) Error() string {
	return fmt.Sprintf("map %q: %v", e.Map, e.Err)
}

func (e *MapError) Unwrap() error { return e.Err }

// Player is a connected client.
type Player struct {
	ID    string `cbor:"id"`
	Name  string `cbor:"name"`
	IP    string `cbor:"ip"`
	Admin bool   `cbor:"admin"`
	Team  string `cbor:"team"`
}

// TerminalEvent reports that the active round reached an end
// condition. Winner is empty for a loss or draw.
type TerminalEvent struct {
	Winner string
}

// Snapshot is the persisted form of a running world.
type Snapshot struct {
	Map     Map       `cbor:"map"`
	Rules   Rules     `cbor:"rules"`
	Wave    int       `cbor:"wave"`
	State   State     `cbor:"state"`
	SavedAt time.Time `cbor:"saved_at"`
}

// Engine is the simulation as seen by the control plane. Every method
// is called from the control loop.
type Engine interface {
	IsRoundActive() bool
	State() State
	SetState(State)

	// BeginReload opens a reload transaction: until EndReload or
	// AbortReload, clients observe nothing of the world changing.
	BeginReload()
	EndReload()
	AbortReload()

	LoadMap(Map, Rules) error
	ApplyRuleset(Rules)
	Play()
	Reset()

	CurrentMap() (Map, bool)
	Rules() Rules
	Wave() int
	RunWave()

	Players() []Player
	Kick(name, reason string) bool
	KickAll(reason string)
	SetAdmin(id string, admin bool)
	OnPlayersChanged(func(count int))
	Announce(text string)

	OpenListener(port int) error
	CloseListener()
	Listening() bool

	// GameOver ends the active round, delivering a TerminalEvent to
	// the handler registered with OnTerminal.
	GameOver(winner string)
	OnTerminal(func(TerminalEvent))

	Snapshot() Snapshot
	Restore(Snapshot) error
}
