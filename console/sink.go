// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package console is the server's output path. Every line an operator
// sees, whether produced by a command handler through the printf-style
// methods or by any package through a *slog.Logger, goes through one
// Sink, which stamps it, colors it for a terminal, copies it into a
// rotating log file, and mirrors it to an attached remote connection.
package console

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/bureau-foundation/arena/lib/clock"
	"github.com/bureau-foundation/arena/lib/netutil"
)

const timestampLayout = "01-02-2006 15:04:05"

// remoteWriteTimeout bounds a mirror write on connections that support
// deadlines.
const remoteWriteTimeout = 2 * time.Second

// mirrorBacklog is how many lines may wait for a slow remote client
// before the mirror is detached.
const mirrorBacklog = 256

// Options configures a Sink.
type Options struct {
	// Console receives every line. Defaults to os.Stdout. Colors are
	// used only when Console is a terminal.
	Console io.Writer

	// Terminal, when set, picks the color profile in place of Console.
	// Used when Console wraps a terminal, as a line editor's output
	// does.
	Terminal *os.File

	// Clock stamps lines and log-file end markers. Defaults to the
	// real clock.
	Clock clock.Clock

	// LogDirectory holds log-<i>.txt files. Empty disables file
	// logging regardless of SetFileLogging.
	LogDirectory string

	// MaxLogBytes is the initial rotation threshold.
	MaxLogBytes int64
}

// Sink is the process-wide output facade. It is safe for concurrent
// use.
type Sink struct {
	clock   clock.Clock
	profile termenv.Profile

	mu          sync.Mutex
	console     io.Writer
	debug       bool
	fileEnabled bool
	fileFailed  bool
	file        *RotatingFile
	remote      *mirror
}

// mirror feeds one remote writer from its own goroutine so the sink
// never waits on the network. lines is closed, under Sink.mu, by
// whoever detaches it.
type mirror struct {
	writer io.Writer
	lines  chan string
	done   chan struct{}
}

// NewSink creates a Sink. File logging starts disabled; call
// SetFileLogging once settings are loaded.
func NewSink(options Options) *Sink {
	if options.Console == nil {
		options.Console = os.Stdout
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	var profiled io.Writer = options.Console
	if options.Terminal != nil {
		profiled = options.Terminal
	}
	sink := &Sink{
		clock:   options.Clock,
		profile: detectProfile(profiled),
		console: options.Console,
	}
	if options.LogDirectory != "" {
		sink.file = NewRotatingFile(options.LogDirectory, options.MaxLogBytes, options.Clock)
	}
	return sink
}

func detectProfile(writer io.Writer) termenv.Profile {
	file, ok := writer.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return termenv.Ascii
	}
	return termenv.NewOutput(file).EnvColorProfile()
}

// SetDebug enables or disables debug lines.
func (sink *Sink) SetDebug(enabled bool) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.debug = enabled
}

// DebugEnabled reports whether debug lines are printed.
func (sink *Sink) DebugEnabled() bool {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return sink.debug
}

// SetFileLogging turns the log file on or off and sets the rotation
// threshold. Any call clears a previous file failure so writes are
// retried.
func (sink *Sink) SetFileLogging(enabled bool, maxBytes int64) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.file == nil {
		return
	}
	sink.fileEnabled = enabled
	sink.fileFailed = false
	sink.file.SetMaxBytes(maxBytes)
	if !enabled {
		sink.file.Close()
	}
}

// LogFile returns the path of the log file currently written, or "".
func (sink *Sink) LogFile() string {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.file == nil {
		return ""
	}
	return sink.file.Path()
}

// Attach sets writer as the remote mirror, replacing any previous one.
// Lines are written to it in order from a separate goroutine.
func (sink *Sink) Attach(writer io.Writer) {
	attached := &mirror{
		writer: writer,
		lines:  make(chan string, mirrorBacklog),
		done:   make(chan struct{}),
	}
	sink.mu.Lock()
	sink.detachLocked()
	sink.remote = attached
	sink.mu.Unlock()
	go sink.pump(attached)
}

// Detach removes the remote mirror. Lines already queued are still
// written. Detaching when nothing is attached does nothing.
func (sink *Sink) Detach() {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.detachLocked()
}

func (sink *Sink) detachLocked() {
	if sink.remote != nil {
		close(sink.remote.lines)
		sink.remote = nil
	}
}

// pump writes queued lines to the mirror's writer until the mirror is
// detached or a write fails.
func (sink *Sink) pump(attached *mirror) {
	defer close(attached.done)
	for line := range attached.lines {
		err := writeRemote(attached.writer, line)
		if err == nil {
			continue
		}
		sink.mu.Lock()
		current := sink.remote == attached
		if current {
			sink.detachLocked()
		}
		sink.mu.Unlock()
		if current && !netutil.IsExpectedCloseError(err) {
			sink.write(LevelWarn, "Remote console detached: "+err.Error())
		}
		return
	}
}

// Attached reports whether a remote mirror is set.
func (sink *Sink) Attached() bool {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return sink.remote != nil
}

func (sink *Sink) Debugf(format string, args ...any) { sink.Log(LevelDebug, format, args...) }
func (sink *Sink) Infof(format string, args ...any)  { sink.Log(LevelInfo, format, args...) }
func (sink *Sink) Warnf(format string, args ...any)  { sink.Log(LevelWarn, format, args...) }
func (sink *Sink) Errorf(format string, args ...any) { sink.Log(LevelError, format, args...) }

// Log renders one line and writes it to the console, then the log
// file, then the remote mirror. Failures of the file or the mirror
// never affect the console.
func (sink *Sink) Log(level Level, format string, args ...any) {
	text := format
	if len(args) > 0 {
		text = fmt.Sprintf(format, args...)
	}
	sink.write(level, text)
}

func (sink *Sink) write(level Level, text string) {
	sink.mu.Lock()
	if level == LevelDebug && !sink.debug {
		sink.mu.Unlock()
		return
	}

	timestamp := "[" + sink.clock.Now().Format(timestampLayout) + "]"
	fmt.Fprintln(sink.console, sink.colorize(level, timestamp, text))

	plain := ansi.Strip(text)
	if sink.fileEnabled && !sink.fileFailed && sink.file != nil {
		if err := sink.file.WriteLine(timestamp + " " + level.Tag() + " " + plain); err != nil {
			sink.fileFailed = true
			fmt.Fprintln(sink.console, sink.colorize(LevelError, timestamp, "Log file disabled: "+err.Error()))
		}
	}

	overflow := false
	if sink.remote != nil {
		select {
		case sink.remote.lines <- plain:
		default:
			sink.detachLocked()
			overflow = true
		}
	}
	sink.mu.Unlock()

	if overflow {
		sink.write(LevelWarn, "Remote console detached: client is not reading")
	}
}

func writeRemote(writer io.Writer, text string) error {
	if deadliner, ok := writer.(interface{ SetWriteDeadline(time.Time) error }); ok {
		deadliner.SetWriteDeadline(time.Now().Add(remoteWriteTimeout))
	}
	_, err := io.WriteString(writer, text+"\n")
	return err
}

func (sink *Sink) colorize(level Level, timestamp, text string) string {
	profile := sink.profile
	stamp := profile.String(timestamp).Foreground(profile.Color("8")).Bold().String()

	var tagColor string
	switch level {
	case LevelDebug:
		tagColor = "14"
	case LevelInfo:
		tagColor = "12"
	case LevelWarn:
		tagColor = "11"
	default:
		tagColor = "9"
	}
	tag := profile.String(level.Tag()).Foreground(profile.Color(tagColor)).Bold().String()

	if level == LevelError {
		text = profile.String(text).Foreground(profile.Color("9")).String()
	}
	return stamp + " " + tag + " " + text
}

// Close detaches the remote mirror and releases the log file.
func (sink *Sink) Close() error {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.detachLocked()
	if sink.file == nil {
		return nil
	}
	return sink.file.Close()
}
