// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package autosave periodically snapshots the running world into a
// bounded pool of auto_* save files, replacing the oldest ones.
package autosave

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/bureau-foundation/arena/lib/clock"
	"github.com/bureau-foundation/arena/savefile"
	"github.com/bureau-foundation/arena/settings"
	"github.com/bureau-foundation/arena/world"
)

// Prefix starts the name of every autosave file.
const Prefix = "auto_"

const timestampLayout = "01-02-2006_15-04-05"

// Persistence is the subset of *savefile.Store the manager uses.
type Persistence interface {
	Path(name string) string
	Save(path string, snapshot world.Snapshot) error
	List() ([]savefile.Entry, error)
	Delete(path string) error
}

// World is the subset of world.Engine the manager reads.
type World interface {
	IsRoundActive() bool
	State() world.State
	CurrentMap() (world.Map, bool)
	Snapshot() world.Snapshot
}

// Settings supplies the autosave, autosaveAmount and autosaveSpacing
// values.
type Settings interface {
	Bool(name string) bool
	Int(name string) int
}

// Config holds a Manager's collaborators. All fields except Logger are
// required.
type Config struct {
	Clock    clock.Clock
	Saves    Persistence
	World    World
	Settings Settings
	Logger   *slog.Logger
}

// Manager decides when an autosave is due and maintains the pool. It
// is driven from the control loop and is not safe for concurrent use.
type Manager struct {
	clock    clock.Clock
	saves    Persistence
	world    World
	settings Settings
	logger   *slog.Logger

	next time.Time
}

// NewManager returns a Manager whose first save is due one spacing
// from now.
func NewManager(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	manager := &Manager{
		clock:    cfg.Clock,
		saves:    cfg.Saves,
		world:    cfg.World,
		settings: cfg.Settings,
		logger:   logger,
	}
	manager.Reset()
	return manager
}

func (manager *Manager) spacing() time.Duration {
	return time.Duration(manager.settings.Int(settings.AutosaveSpacing)) * time.Second
}

// Reset restarts the interval: the next save is due one spacing from
// now. Called when a world finishes loading and when the spacing
// changes.
func (manager *Manager) Reset() {
	manager.next = manager.clock.Now().Add(manager.spacing())
}

// Due returns when the next save will be attempted.
func (manager *Manager) Due() time.Time {
	return manager.next
}

// Tick saves if autosave is enabled and the interval has elapsed while
// a round is in progress. Nothing is saved between a game over and the
// next map.
func (manager *Manager) Tick() {
	if !manager.settings.Bool(settings.Autosave) || !manager.world.IsRoundActive() {
		return
	}
	if manager.world.State() == world.StateGameOver {
		return
	}
	now := manager.clock.Now()
	if now.Before(manager.next) {
		return
	}
	manager.next = now.Add(manager.spacing())

	path, err := manager.SaveNow()
	if err != nil {
		manager.logger.Error("autosave failed", "error", err)
		return
	}
	manager.logger.Info("autosaved", "path", path)
}

// SaveNow writes one autosave immediately, first deleting the oldest
// autosaves so that the pool holds at most autosaveAmount files once
// the write succeeds. A failed write leaves the pool one short until
// the next successful save.
func (manager *Manager) SaveNow() (string, error) {
	mapName := "unknown"
	if current, ok := manager.world.CurrentMap(); ok {
		mapName = current.FileName()
	}
	name := fmt.Sprintf("%s%s_%s", Prefix, mapName, manager.clock.Now().Format(timestampLayout))
	path := manager.saves.Path(name)

	existing, err := manager.List()
	if err != nil {
		return "", err
	}
	limit := max(manager.settings.Int(settings.AutosaveAmount), 1)
	if len(existing) >= limit {
		for _, stale := range existing[limit-1:] {
			if err := manager.saves.Delete(stale.Path); err != nil {
				manager.logger.Warn("removing old autosave", "path", stale.Path, "error", err)
				continue
			}
			manager.logger.Debug("removed old autosave", "path", stale.Path)
		}
	}

	if err := manager.saves.Save(path, manager.world.Snapshot()); err != nil {
		return "", fmt.Errorf("writing autosave %s: %w", name, err)
	}
	return path, nil
}

// List returns autosave files newest first. Files with equal
// modification times are ordered by name, descending.
func (manager *Manager) List() ([]savefile.Entry, error) {
	entries, err := manager.saves.List()
	if err != nil {
		return nil, err
	}
	var autosaves []savefile.Entry
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name, Prefix) {
			autosaves = append(autosaves, entry)
		}
	}
	sort.SliceStable(autosaves, func(i, j int) bool {
		if !autosaves[i].Modified.Equal(autosaves[j].Modified) {
			return autosaves[i].Modified.After(autosaves[j].Modified)
		}
		return autosaves[i].Name > autosaves[j].Name
	})
	return autosaves, nil
}

// Newest returns the most recently written autosave.
func (manager *Manager) Newest() (savefile.Entry, bool, error) {
	autosaves, err := manager.List()
	if err != nil || len(autosaves) == 0 {
		return savefile.Entry{}, false, err
	}
	return autosaves[0], true, nil
}
