// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package world

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
	"gopkg.in/yaml.v3"
)

// ShuffleMode selects the pool the next map is drawn from after a
// round ends.
type ShuffleMode string

const (
	ShuffleNone    ShuffleMode = "none"
	ShuffleAll     ShuffleMode = "all"
	ShuffleCustom  ShuffleMode = "custom"
	ShuffleBuiltin ShuffleMode = "builtin"
)

// ShuffleModes lists every mode in display order.
func ShuffleModes() []ShuffleMode {
	return []ShuffleMode{ShuffleNone, ShuffleAll, ShuffleCustom, ShuffleBuiltin}
}

// ParseShuffleMode accepts a mode name in any case.
func ParseShuffleMode(name string) (ShuffleMode, error) {
	for _, mode := range ShuffleModes() {
		if strings.EqualFold(string(mode), name) {
			return mode, nil
		}
	}
	return "", fmt.Errorf("unknown shuffle mode %q", name)
}

// Catalog is the set of playable maps and the policy for choosing the
// next one.
type Catalog interface {
	All() []Map
	Custom() []Map
	Builtin() []Map
	Find(name string) (Map, bool)
	Search(query string, limit int) []Map

	// SelectNext returns the map to play after current in mode, or nil
	// when rotation is off or nothing qualifies. A pending override is
	// returned and consumed first.
	SelectNext(mode Gamemode, current *Map) *Map

	ShuffleMode() ShuffleMode
	SetShuffleMode(ShuffleMode)
	SetNextOverride(*Map)
	NextOverride() *Map
	Reload() error
}

// MapCatalog is a Catalog over the built-in maps plus YAML map
// descriptors found in a directory. It is not safe for concurrent
// use.
type MapCatalog struct {
	directory string
	logger    *slog.Logger

	builtin  []Map
	custom   []Map
	shuffle  ShuffleMode
	override *Map
}

// NewMapCatalog returns a catalog reading custom maps from directory.
// Call Reload to scan it. Rotation starts in ShuffleAll.
func NewMapCatalog(directory string, logger *slog.Logger) *MapCatalog {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MapCatalog{
		directory: directory,
		logger:    logger,
		builtin:   BuiltinMaps(),
		shuffle:   ShuffleAll,
	}
}

// BuiltinMaps returns the maps shipped with the server.
func BuiltinMaps() []Map {
	return []Map{
		{Name: "Ground Zero", File: "groundZero.msav", Author: "Anuke", Width: 200, Height: 200},
		{Name: "Frozen Forest", File: "frozenForest.msav", Author: "Anuke", Width: 200, Height: 200},
		{Name: "Craters", File: "craters.msav", Author: "Anuke", Width: 250, Height: 250},
		{Name: "Fork", File: "fork.msav", Author: "Anuke", Width: 250, Height: 250,
			Modes: []Gamemode{Survival, Sandbox, PvP}},
		{Name: "Veins", File: "veins.msav", Author: "Anuke", Width: 350, Height: 200,
			Modes: []Gamemode{Survival, Sandbox, PvP, Attack}},
		{Name: "Glacier", File: "glacier.msav", Author: "Anuke", Width: 300, Height: 300,
			Modes: []Gamemode{Survival, Sandbox, Attack, Editor}},
	}
}

// descriptor is the on-disk form of a custom map.
type descriptor struct {
	Map `yaml:",inline"`
}

// Reload rescans the map directory. Descriptors that fail to parse are
// skipped with a warning; a missing directory means no custom maps.
func (catalog *MapCatalog) Reload() error {
	entries, err := os.ReadDir(catalog.directory)
	if errors.Is(err, os.ErrNotExist) {
		catalog.custom = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading map directory: %w", err)
	}

	var custom []Map
	for _, entry := range entries {
		extension := filepath.Ext(entry.Name())
		if entry.IsDir() || (extension != ".yaml" && extension != ".yml") {
			continue
		}
		path := filepath.Join(catalog.directory, entry.Name())
		loaded, err := readDescriptor(path)
		if err != nil {
			catalog.logger.Warn("skipping map descriptor", "path", path, "error", err)
			continue
		}
		custom = append(custom, loaded)
	}
	catalog.custom = custom
	catalog.logger.Debug("map catalog reloaded", "custom", len(custom), "builtin", len(catalog.builtin))
	return nil
}

func readDescriptor(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Map{}, err
	}
	var parsed descriptor
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return Map{}, err
	}
	loaded := parsed.Map
	if loaded.Name == "" {
		loaded.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	for _, mode := range loaded.Modes {
		if _, err := ParseGamemode(string(mode)); err != nil {
			return Map{}, err
		}
	}
	loaded.File = path
	loaded.Custom = true
	return loaded, nil
}

func (catalog *MapCatalog) Builtin() []Map { return slices.Clone(catalog.builtin) }
func (catalog *MapCatalog) Custom() []Map  { return slices.Clone(catalog.custom) }

// All returns custom maps followed by built-in ones.
func (catalog *MapCatalog) All() []Map {
	return append(slices.Clone(catalog.custom), catalog.builtin...)
}

// Find matches a map name ignoring case and treating underscores as
// spaces.
func (catalog *MapCatalog) Find(name string) (Map, bool) {
	want := normalizeMapName(name)
	for _, candidate := range catalog.All() {
		if normalizeMapName(candidate.Name) == want {
			return candidate, true
		}
	}
	return Map{}, false
}

func normalizeMapName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", " "))
}

// Search ranks maps by fuzzy match of query against their names, best
// first, returning at most limit results.
func (catalog *MapCatalog) Search(query string, limit int) []Map {
	pattern := []rune(normalizeMapName(query))
	if len(pattern) == 0 || limit <= 0 {
		return nil
	}

	type scored struct {
		candidate Map
		score     int
	}
	var matches []scored
	slab := util.MakeSlab(100*1024, 2048)
	for _, candidate := range catalog.All() {
		text := util.ToChars([]byte(normalizeMapName(candidate.Name)))
		result, _ := algo.FuzzyMatchV2(false, true, true, &text, pattern, false, slab)
		if result.Start < 0 || result.Score <= 0 {
			continue
		}
		matches = append(matches, scored{candidate: candidate, score: result.Score})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	var results []Map
	for _, match := range matches {
		if len(results) == limit {
			break
		}
		results = append(results, match.candidate)
	}
	return results
}

func (catalog *MapCatalog) ShuffleMode() ShuffleMode        { return catalog.shuffle }
func (catalog *MapCatalog) SetShuffleMode(mode ShuffleMode) { catalog.shuffle = mode }
func (catalog *MapCatalog) SetNextOverride(next *Map)       { catalog.override = next }
func (catalog *MapCatalog) NextOverride() *Map              { return catalog.override }

// SelectNext walks the shuffle pool in order, starting after current,
// and returns the first other map that supports mode. When current is
// the only candidate it is played again.
func (catalog *MapCatalog) SelectNext(mode Gamemode, current *Map) *Map {
	if catalog.override != nil {
		next := catalog.override
		catalog.override = nil
		return next
	}

	var pool []Map
	switch catalog.shuffle {
	case ShuffleAll:
		pool = catalog.All()
	case ShuffleCustom:
		pool = catalog.Custom()
		if len(pool) == 0 {
			pool = catalog.Builtin()
		}
	case ShuffleBuiltin:
		pool = catalog.Builtin()
	default:
		return nil
	}

	start := 0
	if current != nil {
		for index, candidate := range pool {
			if candidate.Name == current.Name {
				start = index + 1
				break
			}
		}
	}
	var fallback *Map
	for offset := range len(pool) {
		candidate := pool[(start+offset)%len(pool)]
		if !candidate.Supports(mode) {
			continue
		}
		if current != nil && candidate.Name == current.Name {
			fallback = &candidate
			continue
		}
		return &candidate
	}
	return fallback
}
