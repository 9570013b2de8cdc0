// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/arena/lib/clock"
)

// RotatingFile appends lines to log-<i>.txt in a directory, moving to
// the next index once the current file grows past a size limit.
//
// RotatingFile is not safe for concurrent use; Sink serializes access.
type RotatingFile struct {
	directory string
	maxBytes  int64
	clock     clock.Clock

	current *os.File
	size    int64
}

// NewRotatingFile returns a RotatingFile writing under directory. No
// file is opened until the first WriteLine.
func NewRotatingFile(directory string, maxBytes int64, clk clock.Clock) *RotatingFile {
	return &RotatingFile{directory: directory, maxBytes: maxBytes, clock: clk}
}

// SetMaxBytes changes the rotation threshold. It applies from the next
// write on.
func (file *RotatingFile) SetMaxBytes(maxBytes int64) {
	file.maxBytes = maxBytes
}

// Path returns the file currently written to, or "" before the first
// write.
func (file *RotatingFile) Path() string {
	if file.current == nil {
		return ""
	}
	return file.current.Name()
}

// WriteLine appends text and a newline. A full current file is sealed
// with an end marker and the lowest-numbered file still under the limit
// is opened in its place.
func (file *RotatingFile) WriteLine(text string) error {
	if file.current != nil && file.size > file.maxBytes {
		marker := fmt.Sprintf("[End of log file. Date: %s]\n", file.clock.Now().Format(timestampLayout))
		_, writeErr := file.current.WriteString(marker)
		closeErr := file.current.Close()
		file.current = nil
		if err := errors.Join(writeErr, closeErr); err != nil {
			return fmt.Errorf("sealing log file: %w", err)
		}
	}

	if file.current == nil {
		if err := file.openNext(); err != nil {
			return err
		}
	}

	written, err := file.current.WriteString(text + "\n")
	file.size += int64(written)
	if err != nil {
		return fmt.Errorf("writing %s: %w", file.current.Name(), err)
	}
	return nil
}

func (file *RotatingFile) openNext() error {
	if err := os.MkdirAll(file.directory, 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	var path string
	for index := 0; ; index++ {
		path = filepath.Join(file.directory, fmt.Sprintf("log-%d.txt", index))
		info, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			break
		}
		if err != nil {
			return fmt.Errorf("inspecting %s: %w", path, err)
		}
		if info.Size() < file.maxBytes {
			break
		}
	}

	opened, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	info, err := opened.Stat()
	if err != nil {
		opened.Close()
		return fmt.Errorf("inspecting %s: %w", path, err)
	}
	file.current = opened
	file.size = info.Size()
	return nil
}

// Close closes the current file, if any.
func (file *RotatingFile) Close() error {
	if file.current == nil {
		return nil
	}
	err := file.current.Close()
	file.current = nil
	return err
}
