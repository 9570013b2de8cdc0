// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package command parses operator input lines and dispatches them to
// registered handlers. A command declares its arguments with a
// parameter spec such as "<slot>", "[map] [mode]" or
// "<message...>": angle brackets are required, square brackets are
// optional, and a trailing "..." in the last parameter makes it absorb
// the rest of the line.
package command

import (
	"fmt"
	"strings"
)

// Handler runs a command with its parsed arguments. A returned error
// is logged at the dispatch boundary; handlers that only need to tell
// the operator something should print it and return nil.
type Handler func(args []string) error

// Command is a registered command. The argument bounds are derived
// from ParamSpec at registration.
type Command struct {
	Name        string
	ParamSpec   string
	Description string
	Handler     Handler

	minArgs  int
	maxArgs  int
	variadic bool
}

// MinArgs is the number of required parameters.
func (command *Command) MinArgs() int { return command.minArgs }

// MaxArgs is the number of declared parameters. A variadic command
// accepts any amount of text in its last one.
func (command *Command) MaxArgs() int { return command.maxArgs }

// Variadic reports whether the last parameter absorbs the rest of the
// line.
func (command *Command) Variadic() bool { return command.variadic }

// Usage renders "name paramSpec".
func (command *Command) Usage() string {
	if command.ParamSpec == "" {
		return command.Name
	}
	return command.Name + " " + command.ParamSpec
}

// parseParamSpec derives argument bounds. A malformed spec is a
// programming error and panics.
func parseParamSpec(name, spec string) (minArgs, maxArgs int, variadic bool) {
	params := strings.Fields(spec)
	sawOptional := false
	for index, param := range params {
		if len(param) < 3 {
			panic(fmt.Sprintf("command %q: malformed parameter %q", name, param))
		}
		opening, closing := param[0], param[len(param)-1]
		inner := param[1 : len(param)-1]
		switch {
		case opening == '<' && closing == '>':
			if sawOptional {
				panic(fmt.Sprintf("command %q: required parameter %q after an optional one", name, param))
			}
			minArgs++
		case opening == '[' && closing == ']':
			sawOptional = true
		default:
			panic(fmt.Sprintf("command %q: malformed parameter %q", name, param))
		}
		if strings.HasSuffix(inner, "...") {
			if index != len(params)-1 {
				panic(fmt.Sprintf("command %q: variadic parameter %q is not last", name, param))
			}
			variadic = true
		}
		maxArgs++
	}
	return minArgs, maxArgs, variadic
}
