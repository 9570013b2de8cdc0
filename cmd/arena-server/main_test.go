// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/chzyer/readline"

	"github.com/bureau-foundation/arena/console"
)

type scriptedInput struct {
	lines []string
	end   error
}

func (input *scriptedInput) Readline() (string, error) {
	if len(input.lines) == 0 {
		return "", input.end
	}
	line := input.lines[0]
	input.lines = input.lines[1:]
	return line, nil
}

type recordingTarget struct {
	posted  []string
	stopped bool
	accept  int
}

func (target *recordingTarget) PostLine(line string) bool {
	if target.accept >= 0 && len(target.posted) >= target.accept {
		return false
	}
	target.posted = append(target.posted, line)
	return true
}

func (target *recordingTarget) Stop() { target.stopped = true }

var discard = slog.New(slog.DiscardHandler)

func TestReadConsolePostsTrimmedLines(t *testing.T) {
	for _, end := range []error{io.EOF, readline.ErrInterrupt, errors.New("terminal gone")} {
		input := &scriptedInput{lines: []string{"  status ", "", "   ", "host Craters"}, end: end}
		target := &recordingTarget{accept: -1}
		readConsole(input, target, discard)

		if want := []string{"status", "host Craters"}; !slices.Equal(target.posted, want) {
			t.Errorf("posted %q, want %q", target.posted, want)
		}
		if !target.stopped {
			t.Errorf("server not stopped when input ended with %v", end)
		}
	}
}

func TestReadConsoleReturnsWhenLoopStopped(t *testing.T) {
	input := &scriptedInput{lines: []string{"say one", "say two", "say three"}, end: io.EOF}
	target := &recordingTarget{accept: 1}
	readConsole(input, target, discard)

	if len(target.posted) != 1 {
		t.Errorf("posted %q after the loop refused input", target.posted)
	}
	if target.stopped {
		t.Error("Stop called on a loop that had already refused input")
	}
	if len(input.lines) != 1 {
		t.Errorf("reader kept consuming input: %d lines left", len(input.lines))
	}
}

func TestNewConsoleInstallsDefaultLogger(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var out bytes.Buffer
	sink, logger := newConsole(console.Options{Console: &out})
	defer sink.Close()

	if slog.Default() != logger {
		t.Fatal("console logger is not the process default")
	}
	slog.Warn("listener bind retried")
	if !strings.Contains(out.String(), "listener bind retried") {
		t.Errorf("console output = %q, want the default logger's message", out.String())
	}
}
