// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

type recordingOutput struct {
	infos  []string
	errors []string
}

func (output *recordingOutput) Infof(format string, args ...any) {
	output.infos = append(output.infos, fmt.Sprintf(format, args...))
}

func (output *recordingOutput) Errorf(format string, args ...any) {
	output.errors = append(output.errors, fmt.Sprintf(format, args...))
}

func (output *recordingOutput) lastError() string {
	if len(output.errors) == 0 {
		return ""
	}
	return output.errors[len(output.errors)-1]
}

// callLog records which handlers ran and with what arguments.
type callLog struct {
	calls []string
	args  [][]string
}

func (log *callLog) handler(name string) Handler {
	return func(args []string) error {
		log.calls = append(log.calls, name)
		log.args = append(log.args, args)
		return nil
	}
}

func TestParamSpecBounds(t *testing.T) {
	tests := []struct {
		spec             string
		minArgs, maxArgs int
		variadic         bool
	}{
		{"", 0, 0, false},
		{"<slot>", 1, 1, false},
		{"[map] [mode]", 0, 2, false},
		{"<message...>", 1, 1, true},
		{"<type-id/name/ip> <username/IP/ID...>", 2, 2, true},
		{"[remove/add] [name] [value...]", 0, 3, true},
	}
	for _, test := range tests {
		t.Run(test.spec, func(t *testing.T) {
			minArgs, maxArgs, variadic := parseParamSpec("test", test.spec)
			if minArgs != test.minArgs || maxArgs != test.maxArgs || variadic != test.variadic {
				t.Errorf("parseParamSpec(%q) = (%d, %d, %v), want (%d, %d, %v)",
					test.spec, minArgs, maxArgs, variadic, test.minArgs, test.maxArgs, test.variadic)
			}
		})
	}
}

func TestParamSpecMalformedPanics(t *testing.T) {
	for _, spec := range []string{"[a] <b>", "<a...> <b>", "plain", "<unterminated", "[]"} {
		t.Run(spec, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("parseParamSpec(%q) did not panic", spec)
				}
			}()
			parseParamSpec("test", spec)
		})
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	registry := NewRegistry(nil)
	registry.Register("stop", "", "", nil)
	defer func() {
		if recover() == nil {
			t.Error("duplicate registration did not panic")
		}
	}()
	registry.Register("stop", "", "", nil)
}

func TestDispatchExactMatchOnly(t *testing.T) {
	var log callLog
	registry := NewRegistry(nil)
	names := []string{"host", "hosts", "stop", "status", "save", "saves"}
	for _, name := range names {
		registry.Register(name, "[x]", "", log.handler(name))
	}

	for _, name := range names {
		log.calls = nil
		response := registry.Dispatch(name)
		if response.Kind != Valid {
			t.Fatalf("Dispatch(%q).Kind = %v", name, response.Kind)
		}
		if !reflect.DeepEqual(log.calls, []string{name}) {
			t.Errorf("Dispatch(%q) ran %v", name, log.calls)
		}
	}
}

func TestDispatchIsCaseSensitive(t *testing.T) {
	registry := NewRegistry(nil)
	registry.Register("host", "", "", nil)
	if response := registry.Dispatch("HOST"); response.Kind != UnknownCommand || response.Attempted != "HOST" {
		t.Errorf("Dispatch(HOST) = %+v, want UnknownCommand", response)
	}
	if command, ok := registry.Lookup("HOST"); !ok || command.Name != "host" {
		t.Errorf("Lookup(HOST) = %v, %v", command, ok)
	}
}

func TestDispatchArity(t *testing.T) {
	var log callLog
	registry := NewRegistry(nil)
	registry.Register("host", "[map] [mode]", "", log.handler("host"))
	registry.Register("load", "<slot>", "", log.handler("load"))

	tests := []struct {
		line string
		want Kind
		args []string
	}{
		{"host", Valid, nil},
		{"host mapA", Valid, []string{"mapA"}},
		{"host mapA modeB", Valid, []string{"mapA", "modeB"}},
		{"host mapA modeB extra", TooManyArgs, []string{"mapA", "modeB", "extra"}},
		{"load", TooFewArgs, nil},
		{"  load   3  ", Valid, []string{"3"}},
		{"load 3 4", TooManyArgs, []string{"3", "4"}},
	}
	for _, test := range tests {
		t.Run(test.line, func(t *testing.T) {
			response := registry.Dispatch(test.line)
			if response.Kind != test.want {
				t.Fatalf("Kind = %v, want %v", response.Kind, test.want)
			}
			if !reflect.DeepEqual(response.Args, test.args) {
				t.Errorf("Args = %q, want %q", response.Args, test.args)
			}
		})
	}
}

func TestDispatchVariadicJoinsTail(t *testing.T) {
	var log callLog
	registry := NewRegistry(nil)
	registry.Register("say", "<message...>", "", log.handler("say"))
	registry.Register("ban", "<type> <target...>", "", log.handler("ban"))

	registry.Dispatch("say  hello   there world")
	registry.Dispatch("ban name Some  Player")
	registry.Dispatch("ban ip")

	want := [][]string{
		{"hello   there world"},
		{"name", "Some  Player"},
	}
	if !reflect.DeepEqual(log.args, want) {
		t.Errorf("args = %q, want %q", log.args, want)
	}
	if response := registry.Dispatch("ban ip"); response.Kind != TooFewArgs {
		t.Errorf("ban ip = %v, want TooFewArgs", response.Kind)
	}
}

func TestDispatchBlankLine(t *testing.T) {
	registry := NewRegistry(nil)
	response := registry.Dispatch("   ")
	if response.Kind != UnknownCommand || response.Attempted != "" {
		t.Errorf("blank line = %+v", response)
	}
}

func TestDispatchRecoversHandlerFailures(t *testing.T) {
	registry := NewRegistry(nil)
	sentinel := errors.New("disk full")
	registry.Register("save", "<slot>", "", func([]string) error { return sentinel })
	registry.Register("crash", "", "", func([]string) error { panic("boom") })

	response := registry.Dispatch("save 1")
	if response.Kind != Valid || !errors.Is(response.Err, sentinel) {
		t.Errorf("save response = %+v, want Valid wrapping sentinel", response)
	}

	response = registry.Dispatch("crash")
	var handlerErr *HandlerError
	if !errors.As(response.Err, &handlerErr) || !handlerErr.Panic || handlerErr.Command != "crash" {
		t.Errorf("crash response err = %v, want panic HandlerError", response.Err)
	}
}

func TestResponseFailure(t *testing.T) {
	registry := NewRegistry(nil)
	registry.Register("load", "<slot>", "", nil)

	if err := registry.Dispatch("lod 1").Failure(); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("unknown failure = %v", err)
	}
	if err := registry.Dispatch("load").Failure(); !errors.Is(err, ErrTooFewArgs) {
		t.Errorf("too few failure = %v", err)
	}
	if err := registry.Dispatch("load 1 2").Failure(); !errors.Is(err, ErrTooManyArgs) {
		t.Errorf("too many failure = %v", err)
	}
	if err := registry.Dispatch("load 1").Failure(); err != nil {
		t.Errorf("valid failure = %v", err)
	}
}
