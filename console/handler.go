// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"context"
	"log/slog"
	"strings"
)

// Handler is a slog.Handler that renders records as console lines:
// the message followed by key=value pairs. Derived handlers share the
// parent's Sink.
type Handler struct {
	sink   *Sink
	attrs  []slog.Attr
	groups []string
}

// NewLogger returns a logger whose records flow through sink.
func NewLogger(sink *Sink) *slog.Logger {
	return slog.New(&Handler{sink: sink})
}

// Enabled follows the sink's debug flag; info and above always pass.
func (handler *Handler) Enabled(_ context.Context, level slog.Level) bool {
	if level >= slog.LevelInfo {
		return true
	}
	return handler.sink.DebugEnabled()
}

func (handler *Handler) Handle(_ context.Context, record slog.Record) error {
	var builder strings.Builder
	builder.WriteString(record.Message)

	prefix := ""
	if len(handler.groups) > 0 {
		prefix = strings.Join(handler.groups, ".") + "."
	}
	for _, attr := range handler.attrs {
		appendAttr(&builder, "", attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		appendAttr(&builder, prefix, attr)
		return true
	})

	handler.sink.write(levelFromSlog(record.Level), builder.String())
	return nil
}

func appendAttr(builder *strings.Builder, prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}
	if attr.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if attr.Key != "" {
			groupPrefix += attr.Key + "."
		}
		for _, member := range attr.Value.Group() {
			appendAttr(builder, groupPrefix, member)
		}
		return
	}
	builder.WriteByte(' ')
	builder.WriteString(prefix)
	builder.WriteString(attr.Key)
	builder.WriteByte('=')
	value := attr.Value.String()
	if strings.ContainsAny(value, " \t\"") {
		builder.WriteString(`"` + strings.ReplaceAll(value, `"`, `\"`) + `"`)
	} else {
		builder.WriteString(value)
	}
}

// WithAttrs returns a handler that appends attrs to every record.
// Attributes added here are rendered under the groups open at the time
// of the call.
func (handler *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return handler
	}
	prefixed := make([]slog.Attr, 0, len(handler.attrs)+len(attrs))
	prefixed = append(prefixed, handler.attrs...)
	for _, attr := range attrs {
		if len(handler.groups) > 0 {
			attr.Key = strings.Join(handler.groups, ".") + "." + attr.Key
		}
		prefixed = append(prefixed, attr)
	}
	return &Handler{sink: handler.sink, attrs: prefixed, groups: handler.groups}
}

func (handler *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return handler
	}
	groups := make([]string, 0, len(handler.groups)+1)
	groups = append(groups, handler.groups...)
	groups = append(groups, name)
	return &Handler{sink: handler.sink, attrs: handler.attrs, groups: groups}
}
