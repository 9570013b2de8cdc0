// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"unicode"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrTooFewArgs     = errors.New("too few command arguments")
	ErrTooManyArgs    = errors.New("too many command arguments")
)

// Kind classifies the outcome of a dispatch.
type Kind int

const (
	Valid Kind = iota
	UnknownCommand
	TooFewArgs
	TooManyArgs
)

func (kind Kind) String() string {
	switch kind {
	case Valid:
		return "valid"
	case UnknownCommand:
		return "unknown command"
	case TooFewArgs:
		return "too few arguments"
	case TooManyArgs:
		return "too many arguments"
	default:
		return fmt.Sprintf("Kind(%d)", int(kind))
	}
}

// Response is the outcome of one Dispatch call. Command is set for
// every kind except UnknownCommand, where Attempted holds the name
// that was not found. Err is set when a Valid command's handler failed.
type Response struct {
	Kind      Kind
	Command   *Command
	Args      []string
	Attempted string
	Err       error
}

// Failure returns nil for a successful dispatch, the handler error for
// a failed one, and a sentinel-wrapped parse error otherwise.
func (response Response) Failure() error {
	switch response.Kind {
	case Valid:
		return response.Err
	case UnknownCommand:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, response.Attempted)
	case TooFewArgs:
		return fmt.Errorf("%w: usage: %s", ErrTooFewArgs, response.Command.Usage())
	default:
		return fmt.Errorf("%w: usage: %s", ErrTooManyArgs, response.Command.Usage())
	}
}

// HandlerError reports a handler that returned an error or panicked.
type HandlerError struct {
	Command string
	Err     error
	Panic   bool
}

func (e *HandlerError) Error() string {
	if e.Panic {
		return fmt.Sprintf("command %s panicked: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("command %s: %v", e.Command, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// Registry holds commands in registration order. It is not safe for
// concurrent use; the server only touches it from its control loop.
type Registry struct {
	logger   *slog.Logger
	commands []*Command
	byName   map[string]*Command
}

// NewRegistry returns an empty registry. Handler failures are logged
// to logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{logger: logger, byName: make(map[string]*Command)}
}

// Register adds a command. Registering a name twice, or a malformed
// paramSpec, panics.
func (registry *Registry) Register(name, paramSpec, description string, handler Handler) *Command {
	if name == "" || strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		panic(fmt.Sprintf("command: invalid name %q", name))
	}
	if _, exists := registry.byName[name]; exists {
		panic(fmt.Sprintf("command: %q registered twice", name))
	}
	minArgs, maxArgs, variadic := parseParamSpec(name, paramSpec)
	command := &Command{
		Name:        name,
		ParamSpec:   paramSpec,
		Description: description,
		Handler:     handler,
		minArgs:     minArgs,
		maxArgs:     maxArgs,
		variadic:    variadic,
	}
	registry.commands = append(registry.commands, command)
	registry.byName[name] = command
	return command
}

// Commands returns every command in registration order.
func (registry *Registry) Commands() []*Command {
	return registry.commands
}

// Lookup finds a command by name, preferring an exact match and
// otherwise ignoring case.
func (registry *Registry) Lookup(name string) (*Command, bool) {
	if command, ok := registry.byName[name]; ok {
		return command, true
	}
	for _, command := range registry.commands {
		if strings.EqualFold(command.Name, name) {
			return command, true
		}
	}
	return nil, false
}

// Dispatch parses line and runs the matching handler. Command names
// match exactly. A blank line is reported as UnknownCommand with an
// empty Attempted.
func (registry *Registry) Dispatch(line string) Response {
	name, rest := splitName(line)
	if name == "" {
		return Response{Kind: UnknownCommand}
	}
	command, ok := registry.byName[name]
	if !ok {
		return Response{Kind: UnknownCommand, Attempted: name}
	}

	args := splitArgs(rest, command)
	switch {
	case len(args) < command.minArgs:
		return Response{Kind: TooFewArgs, Command: command, Args: args}
	case len(args) > command.maxArgs:
		return Response{Kind: TooManyArgs, Command: command, Args: args}
	}

	err := registry.invoke(command, args)
	if err != nil {
		registry.logger.Error("command failed", "command", command.Name, "error", err)
	}
	return Response{Kind: Valid, Command: command, Args: args, Err: err}
}

func (registry *Registry) invoke(command *Command, args []string) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			registry.logger.Debug("command panic stack", "command", command.Name, "stack", string(debug.Stack()))
			err = &HandlerError{Command: command.Name, Err: fmt.Errorf("%v", recovered), Panic: true}
		}
	}()
	if command.Handler == nil {
		return nil
	}
	if handlerErr := command.Handler(args); handlerErr != nil {
		return &HandlerError{Command: command.Name, Err: handlerErr}
	}
	return nil
}

// splitName separates the first whitespace-delimited token from the
// remaining text.
func splitName(line string) (name, rest string) {
	line = strings.TrimSpace(line)
	index := strings.IndexFunc(line, unicode.IsSpace)
	if index < 0 {
		return line, ""
	}
	return line[:index], strings.TrimLeftFunc(line[index:], unicode.IsSpace)
}

// splitArgs splits on whitespace. For a variadic command whose line
// holds more tokens than parameters, the last argument is the
// remaining text verbatim.
func splitArgs(rest string, command *Command) []string {
	if !command.variadic || command.maxArgs == 0 {
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return nil
		}
		return fields
	}
	var args []string
	for len(args) < command.maxArgs-1 {
		token, remaining := splitName(rest)
		if token == "" {
			return args
		}
		args = append(args, token)
		rest = remaining
	}
	if tail := strings.TrimSpace(rest); tail != "" {
		args = append(args, tail)
	}
	return args
}
