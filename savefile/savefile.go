// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package savefile persists world snapshots.
//
// A save file is a fixed header followed by the body:
//
//	magic "ARSV" | version (1 byte) | compression (1 byte) |
//	payload length (uint32 big-endian) | BLAKE3-256 of payload (32 bytes)
//
// The payload is the CBOR-encoded world.Snapshot; the body is the
// payload after compression. Files are written to a temporary name in
// the same directory and renamed into place.
package savefile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/arena/lib/codec"
	"github.com/bureau-foundation/arena/world"
)

const (
	magic         = "ARSV"
	formatVersion = 1
	headerSize    = len(magic) + 1 + 1 + 4 + 32
)

// MaxPayloadSize bounds the decoded payload of a save. Headers
// claiming more are rejected before anything is allocated.
const MaxPayloadSize = 256 << 20

var (
	ErrNotSaveFile = errors.New("not a save file")
	ErrOutdated    = errors.New("unsupported save version")
	ErrCorrupt     = errors.New("save file is corrupt")
)

// LoadError reports a save that could not be read: missing, malformed
// or written by an incompatible version.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading save %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Entry describes a save file on disk.
type Entry struct {
	Name     string
	Path     string
	Modified time.Time
	Size     int64
}

// Store reads and writes save files in one directory.
type Store struct {
	directory   string
	extension   string
	compression Compression
}

// NewStore returns a Store for files named *.<extension> in directory.
func NewStore(directory, extension string, compression Compression) *Store {
	return &Store{
		directory:   directory,
		extension:   strings.TrimPrefix(extension, "."),
		compression: compression,
	}
}

func (store *Store) Directory() string { return store.directory }
func (store *Store) Extension() string { return store.extension }

// Path returns the file for a save slot or name.
func (store *Store) Path(name string) string {
	return filepath.Join(store.directory, name+"."+store.extension)
}

// Save encodes snapshot and atomically replaces path with it.
func (store *Store) Save(path string, snapshot world.Snapshot) error {
	payload, err := codec.Marshal(snapshot)
	if err != nil {
		return err
	}
	if len(payload) > MaxPayloadSize {
		return fmt.Errorf("save payload too large: %d bytes", len(payload))
	}
	body, used, err := compress(payload, store.compression)
	if err != nil {
		return err
	}

	header := make([]byte, 0, headerSize)
	header = append(header, magic...)
	header = append(header, formatVersion, byte(used))
	header = binary.BigEndian.AppendUint32(header, uint32(len(payload)))
	sum := blake3.Sum256(payload)
	header = append(header, sum[:]...)

	return writeAtomic(path, header, body)
}

func writeAtomic(path string, parts ...[]byte) error {
	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("creating save directory: %w", err)
	}
	temp, err := os.CreateTemp(directory, ".save-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary save: %w", err)
	}
	tempPath := temp.Name()
	fail := func(step string, err error) error {
		temp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("%s %s: %w", step, path, err)
	}
	for _, part := range parts {
		if _, err := temp.Write(part); err != nil {
			return fail("writing", err)
		}
	}
	if err := temp.Sync(); err != nil {
		return fail("syncing", err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming save into %s: %w", path, err)
	}
	return nil
}

// Load reads a snapshot. Every failure is a *LoadError.
func (store *Store) Load(path string) (world.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return world.Snapshot{}, &LoadError{Path: path, Err: err}
	}
	snapshot, err := decode(data)
	if err != nil {
		return world.Snapshot{}, &LoadError{Path: path, Err: err}
	}
	return snapshot, nil
}

func decode(data []byte) (world.Snapshot, error) {
	if len(data) < headerSize || !bytes.Equal(data[:len(magic)], []byte(magic)) {
		return world.Snapshot{}, ErrNotSaveFile
	}
	offset := len(magic)
	version := data[offset]
	if version != formatVersion {
		return world.Snapshot{}, fmt.Errorf("%w: %d", ErrOutdated, version)
	}
	compression := Compression(data[offset+1])
	size := int(binary.BigEndian.Uint32(data[offset+2 : offset+6]))
	var sum [32]byte
	copy(sum[:], data[offset+6:headerSize])

	payload, err := decompress(data[headerSize:], compression, size)
	if err != nil {
		return world.Snapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if blake3.Sum256(payload) != sum {
		return world.Snapshot{}, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	var snapshot world.Snapshot
	if err := codec.Unmarshal(payload, &snapshot); err != nil {
		return world.Snapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return snapshot, nil
}

// IsValid reports whether path holds a loadable save.
func (store *Store) IsValid(path string) bool {
	_, err := store.Load(path)
	return err == nil
}

// List returns the save files in the directory sorted by name. A
// missing directory has no saves.
func (store *Store) List() ([]Entry, error) {
	entries, err := os.ReadDir(store.directory)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}

	suffix := "." + store.extension
	var saves []Entry
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		saves = append(saves, Entry{
			Name:     strings.TrimSuffix(entry.Name(), suffix),
			Path:     filepath.Join(store.directory, entry.Name()),
			Modified: info.ModTime(),
			Size:     info.Size(),
		})
	}
	sort.Slice(saves, func(i, j int) bool { return saves[i].Name < saves[j].Name })
	return saves, nil
}

// Delete removes a save file.
func (store *Store) Delete(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting save: %w", err)
	}
	return nil
}
