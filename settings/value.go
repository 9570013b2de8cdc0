// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package settings

import (
	"fmt"
	"strconv"
)

// Kind is the type of a setting's value.
type Kind int

const (
	Bool Kind = iota
	Int
	String
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case String:
		return "string"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a tagged bool, int or string.
type Value struct {
	kind Kind
	b    bool
	i    int
	s    string
}

func BoolValue(b bool) Value     { return Value{kind: Bool, b: b} }
func IntValue(i int) Value       { return Value{kind: Int, i: i} }
func StringValue(s string) Value { return Value{kind: String, s: s} }

func (v Value) Kind() Kind { return v.kind }

// Bool returns the boolean payload; false for other kinds.
func (v Value) Bool() bool { return v.kind == Bool && v.b }

// Int returns the integer payload; 0 for other kinds.
func (v Value) Int() int {
	if v.kind != Int {
		return 0
	}
	return v.i
}

// String renders the value the way operators type it.
func (v Value) String() string {
	switch v.kind {
	case Bool:
		return strconv.FormatBool(v.b)
	case Int:
		return strconv.Itoa(v.i)
	default:
		return v.s
	}
}

// Text returns the string payload; "" for other kinds.
func (v Value) Text() string {
	if v.kind != String {
		return ""
	}
	return v.s
}

func (v Value) any() any {
	switch v.kind {
	case Bool:
		return v.b
	case Int:
		return v.i
	default:
		return v.s
	}
}

// parse converts operator input into a value of kind. Booleans accept
// on/true and off/false; strings turn the two characters `\n` into a
// newline.
func parse(kind Kind, raw string) (Value, error) {
	switch kind {
	case Bool:
		switch raw {
		case "on", "true":
			return BoolValue(true), nil
		case "off", "false":
			return BoolValue(false), nil
		}
		return Value{}, fmt.Errorf("not a valid boolean: %s (use on/off or true/false)", raw)
	case Int:
		i, err := strconv.Atoi(raw)
		if err != nil {
			return Value{}, fmt.Errorf("not a valid number: %s", raw)
		}
		return IntValue(i), nil
	default:
		return StringValue(unescapeNewlines(raw)), nil
	}
}

func unescapeNewlines(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == 'n' {
			out = append(out, '\n')
			i++
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
