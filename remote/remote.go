// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package remote is the TCP command channel: a plain-text,
// line-oriented console that a local tool can connect to instead of
// typing at the terminal. Lines received are handed to the control
// loop exactly like local input, and console output is mirrored back
// while the connection lasts. There is no authentication; bind it to
// a loopback address.
package remote

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/bureau-foundation/arena/lib/netutil"
)

// ErrAddressInUse is returned by Enable when another socket owns the
// configured address.
var ErrAddressInUse = errors.New("remote console address already in use")

// maxLineLength bounds a single command line.
const maxLineLength = 64 * 1024

// Mirror receives console output for the connected client.
type Mirror interface {
	Attach(io.Writer)
	Detach()
}

// Config holds a Channel's collaborators. All fields except Logger are
// required.
type Config struct {
	// Address returns the host:port to bind, read at each Enable.
	Address func() string

	// Post hands fn to the control loop. It must give up and return
	// an error once ctx is done.
	Post func(ctx context.Context, fn func()) error

	// Dispatch runs one received line. It is only ever called through
	// Post.
	Dispatch func(line string)

	Mirror Mirror
	Logger *slog.Logger
}

// Channel owns the listener and its single accept goroutine. Enable,
// Disable and Toggle are meant for the control loop; Addr and Enabled
// are safe from anywhere.
type Channel struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	conn     net.Conn
	cancel   context.CancelFunc
	done     chan struct{}
}

// New returns a disabled Channel.
func New(cfg Config) *Channel {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Channel{cfg: cfg, logger: logger}
}

// Enabled reports whether the channel is listening.
func (channel *Channel) Enabled() bool {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	return channel.listener != nil
}

// Addr returns the bound address, or nil when disabled.
func (channel *Channel) Addr() net.Addr {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	if channel.listener == nil {
		return nil
	}
	return channel.listener.Addr()
}

// Enable binds the configured address and starts accepting. It does
// nothing when already enabled. The channel shuts down on its own when
// ctx is done.
func (channel *Channel) Enable(ctx context.Context) error {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	if channel.listener != nil {
		return nil
	}

	address := channel.cfg.Address()
	listener, err := netutil.ListenReusable(ctx, address)
	if err != nil {
		if netutil.IsAddressInUse(err) {
			return fmt.Errorf("%w: %w", ErrAddressInUse, err)
		}
		return err
	}

	serveCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	channel.listener = listener
	channel.cancel = cancel
	channel.done = done

	stop := context.AfterFunc(serveCtx, func() { listener.Close() })
	go func() {
		defer close(done)
		defer stop()
		channel.serve(serveCtx, listener)
	}()

	channel.logger.Info("remote console listening", "address", listener.Addr().String())
	return nil
}

// Disable closes the listener and any open connection, then waits for
// the accept goroutine to exit, so the address is free when it
// returns. It does nothing when already disabled.
func (channel *Channel) Disable() {
	channel.mu.Lock()
	if channel.listener == nil {
		channel.mu.Unlock()
		return
	}
	listener, conn := channel.listener, channel.conn
	cancel, done := channel.cancel, channel.done
	channel.listener, channel.conn = nil, nil
	channel.cancel, channel.done = nil, nil
	channel.mu.Unlock()

	cancel()
	listener.Close()
	if conn != nil {
		conn.Close()
	}
	<-done
	channel.cfg.Mirror.Detach()
	channel.logger.Info("remote console closed", "address", listener.Addr().String())
}

// Toggle applies a configuration change: the channel is disabled and,
// when on, enabled again with the current address.
func (channel *Channel) Toggle(ctx context.Context, on bool) error {
	channel.Disable()
	if !on {
		return nil
	}
	return channel.Enable(ctx)
}

// serve accepts one connection at a time until the listener closes.
func (channel *Channel) serve(ctx context.Context, listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() == nil && !netutil.IsExpectedCloseError(err) {
				channel.logger.Error("remote console accept failed", "error", err)
			}
			return
		}
		if !channel.track(conn) {
			conn.Close()
			return
		}
		channel.handle(ctx, conn)
	}
}

// track records conn as the active connection unless the channel is
// being disabled.
func (channel *Channel) track(conn net.Conn) bool {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	if channel.listener == nil {
		return false
	}
	channel.conn = conn
	return true
}

func (channel *Channel) untrack(conn net.Conn) {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	if channel.conn == conn {
		channel.conn = nil
	}
}

func (channel *Channel) isActive(conn net.Conn) bool {
	channel.mu.Lock()
	defer channel.mu.Unlock()
	return channel.conn == conn
}

func (channel *Channel) handle(ctx context.Context, conn net.Conn) {
	defer channel.untrack(conn)
	defer conn.Close()

	remoteAddress := conn.RemoteAddr().String()
	channel.logger.Info("remote console connected", "address", remoteAddress)

	err := channel.cfg.Post(ctx, func() {
		if channel.isActive(conn) {
			channel.cfg.Mirror.Attach(conn)
		}
	})
	if err != nil {
		return
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
	for scanner.Scan() {
		line := scanner.Text()
		if err := channel.cfg.Post(ctx, func() { channel.cfg.Dispatch(line) }); err != nil {
			return
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil && !netutil.IsExpectedCloseError(err) {
		channel.logger.Warn("remote console read failed", "address", remoteAddress, "error", err)
	}

	if ctx.Err() != nil {
		return
	}
	channel.cfg.Post(ctx, func() { channel.cfg.Mirror.Detach() })
	channel.logger.Info("remote console disconnected", "address", remoteAddress)
}
