// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package settings is the server's runtime configuration: a fixed set
// of named, typed values that operators change with the config
// command, plus free-form keys the server remembers between runs (last
// gamemode, shuffle mode, global rules).
//
// Every mutation is written to disk before Set returns, then the
// change hooks registered for that name run. The file is JSON; hand
// edits may carry comments and trailing commas.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/tidwall/jsonc"
)

// ErrUnknown is returned for names with no Definition.
var ErrUnknown = errors.New("unknown setting")

// Definition declares one setting.
type Definition struct {
	Name        string
	Kind        Kind
	Default     Value
	Description string
}

// Store holds current values. It is safe for concurrent use, though
// the server only mutates it from the control loop.
type Store struct {
	path   string
	logger *slog.Logger

	mu          sync.Mutex
	definitions []Definition
	index       map[string]int // lower-cased name -> definitions index
	values      map[string]Value
	keys        map[string]string
	hooks       map[string][]func(Value)
}

type fileFormat struct {
	Config map[string]any    `json:"config"`
	Keys   map[string]string `json:"keys,omitempty"`
}

// Open loads the store at path, creating nothing until the first
// mutation. Values in the file that do not match their definition's
// kind are dropped with a warning.
func Open(path string, definitions []Definition, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	store := &Store{
		path:        path,
		logger:      logger,
		definitions: definitions,
		index:       make(map[string]int, len(definitions)),
		values:      make(map[string]Value),
		keys:        make(map[string]string),
		hooks:       make(map[string][]func(Value)),
	}
	for i, definition := range definitions {
		lower := strings.ToLower(definition.Name)
		if _, exists := store.index[lower]; exists {
			panic(fmt.Sprintf("settings: duplicate definition %q", definition.Name))
		}
		if definition.Default.Kind() != definition.Kind {
			panic(fmt.Sprintf("settings: %q default is %s, want %s", definition.Name, definition.Default.Kind(), definition.Kind))
		}
		store.index[lower] = i
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	if err := store.decode(data); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	return store, nil
}

func (s *Store) decode(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.UseNumber()
	var file fileFormat
	if err := decoder.Decode(&file); err != nil {
		return err
	}

	for name, raw := range file.Config {
		definition, ok := s.lookupLocked(name)
		if !ok {
			s.logger.Warn("ignoring unknown setting in file", "name", name)
			continue
		}
		value, ok := fromJSON(definition.Kind, raw)
		if !ok {
			s.logger.Warn("ignoring setting with wrong type", "name", name, "want", definition.Kind.String())
			continue
		}
		s.values[definition.Name] = value
	}
	for key, value := range file.Keys {
		s.keys[key] = value
	}
	return nil
}

func fromJSON(kind Kind, raw any) (Value, bool) {
	switch kind {
	case Bool:
		b, ok := raw.(bool)
		return BoolValue(b), ok
	case Int:
		number, ok := raw.(json.Number)
		if !ok {
			return Value{}, false
		}
		i, err := number.Int64()
		return IntValue(int(i)), err == nil
	default:
		text, ok := raw.(string)
		return StringValue(text), ok
	}
}

// Definitions returns the definitions in declaration order.
func (s *Store) Definitions() []Definition {
	return s.definitions
}

// Lookup finds a definition by case-insensitive name.
func (s *Store) Lookup(name string) (Definition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupLocked(name)
}

func (s *Store) lookupLocked(name string) (Definition, bool) {
	i, ok := s.index[strings.ToLower(name)]
	if !ok {
		return Definition{}, false
	}
	return s.definitions[i], true
}

// Get returns the current value of name, or its default when unset.
func (s *Store) Get(name string) (Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	definition, ok := s.lookupLocked(name)
	if !ok {
		return Value{}, false
	}
	if value, set := s.values[definition.Name]; set {
		return value, true
	}
	return definition.Default, true
}

// Bool returns a bool setting; unknown names read as false.
func (s *Store) Bool(name string) bool {
	value, _ := s.Get(name)
	return value.Bool()
}

// Int returns an int setting; unknown names read as 0.
func (s *Store) Int(name string) int {
	value, _ := s.Get(name)
	return value.Int()
}

// String returns a string setting; unknown names read as "".
func (s *Store) String(name string) string {
	value, _ := s.Get(name)
	return value.Text()
}

// Set parses raw for the named setting, persists, and runs hooks. The
// literal "default" restores the default value.
func (s *Store) Set(name, raw string) (Value, error) {
	definition, ok := s.Lookup(name)
	if !ok {
		return Value{}, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	value := definition.Default
	if raw != "default" {
		parsed, err := parse(definition.Kind, raw)
		if err != nil {
			return Value{}, err
		}
		value = parsed
	}
	if err := s.SetValue(definition.Name, value); err != nil {
		return Value{}, err
	}
	return value, nil
}

// SetValue stores a typed value, persists, and runs hooks.
func (s *Store) SetValue(name string, value Value) error {
	s.mu.Lock()
	definition, ok := s.lookupLocked(name)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	if value.Kind() != definition.Kind {
		s.mu.Unlock()
		return fmt.Errorf("setting %q is %s, got %s", definition.Name, definition.Kind, value.Kind())
	}
	previous, wasSet := s.values[definition.Name]
	s.values[definition.Name] = value
	if err := s.persistLocked(); err != nil {
		if wasSet {
			s.values[definition.Name] = previous
		} else {
			delete(s.values, definition.Name)
		}
		s.mu.Unlock()
		return err
	}
	hooks := slices.Clone(s.hooks[definition.Name])
	s.mu.Unlock()

	for _, hook := range hooks {
		hook(value)
	}
	return nil
}

// OnChange registers fn to run after every successful mutation of name.
func (s *Store) OnChange(name string, fn func(Value)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	definition, ok := s.lookupLocked(name)
	if !ok {
		panic(fmt.Sprintf("settings: OnChange for unknown setting %q", name))
	}
	s.hooks[definition.Name] = append(s.hooks[definition.Name], fn)
}

// Key returns a free-form key, or fallback when absent.
func (s *Store) Key(key, fallback string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value, ok := s.keys[key]; ok {
		return value
	}
	return fallback
}

// PutKey stores and persists a free-form key. On a failed write the
// previous value is kept.
func (s *Store) PutKey(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous, wasSet := s.keys[key]
	s.keys[key] = value
	if err := s.persistLocked(); err != nil {
		if wasSet {
			s.keys[key] = previous
		} else {
			delete(s.keys, key)
		}
		return err
	}
	return nil
}

// Persist writes the store to disk.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

// persistLocked writes to a temporary file in the same directory and
// renames it into place so a crash never leaves a truncated file.
func (s *Store) persistLocked() error {
	file := fileFormat{Config: make(map[string]any, len(s.values)), Keys: s.keys}
	for name, value := range s.values {
		file.Config[name] = value.any()
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	directory := filepath.Dir(s.path)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	temp, err := os.CreateTemp(directory, ".settings-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary settings file: %w", err)
	}
	tempPath := temp.Name()
	if _, err := temp.Write(append(data, '\n')); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := temp.Sync(); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("syncing settings: %w", err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing settings: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("replacing settings file: %w", err)
	}
	return nil
}
