// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/bureau-foundation/arena/lib/clock"
)

// ErrLoopStopped is returned by PostContext once the loop has exited.
var ErrLoopStopped = errors.New("control loop stopped")

// LoopConfig sizes a Loop and names its periodic work.
type LoopConfig struct {
	Clock clock.Clock

	// QueueSize bounds pending tasks. Posting to a full queue blocks.
	QueueSize int

	// TickRate is the period of OnTick.
	TickRate time.Duration
	OnTick   func()

	// FlushInterval is the period of OnFlush.
	FlushInterval time.Duration
	OnFlush       func()

	Logger *slog.Logger
}

// Loop is the control loop: a bounded queue of tasks drained by one
// goroutine. Everything that mutates server state runs as a task, so
// handlers need no locking among themselves. Post and PostContext are
// safe from any goroutine.
type Loop struct {
	cfg    LoopConfig
	logger *slog.Logger
	queue  chan func()

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewLoop returns a Loop that is not yet running. Tasks posted before
// Run are queued.
func NewLoop(cfg LoopConfig) *Loop {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	return &Loop{
		cfg:    cfg,
		logger: logger,
		queue:  make(chan func(), cfg.QueueSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Post queues fn, blocking while the queue is full. It returns false
// without queueing once the loop has stopped.
func (loop *Loop) Post(fn func()) bool {
	return loop.PostContext(context.Background(), fn) == nil
}

// PostContext is Post that also gives up when ctx is done.
func (loop *Loop) PostContext(ctx context.Context, fn func()) error {
	select {
	case <-loop.stop:
		return ErrLoopStopped
	case <-loop.done:
		return ErrLoopStopped
	default:
	}
	select {
	case loop.queue <- fn:
		return nil
	case <-loop.stop:
		return ErrLoopStopped
	case <-loop.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop asks Run to return after the task in progress. Calling it more
// than once is harmless.
func (loop *Loop) Stop() {
	loop.stopOnce.Do(func() { close(loop.stop) })
}

// Done is closed when Run has returned.
func (loop *Loop) Done() <-chan struct{} {
	return loop.done
}

// Run drains the queue and fires the periodic callbacks until ctx is
// done or Stop is called. It must be called exactly once.
func (loop *Loop) Run(ctx context.Context) {
	defer close(loop.done)

	var tickC, flushC <-chan time.Time
	if loop.cfg.OnTick != nil && loop.cfg.TickRate > 0 {
		ticker := loop.cfg.Clock.NewTicker(loop.cfg.TickRate)
		defer ticker.Stop()
		tickC = ticker.C
	}
	if loop.cfg.OnFlush != nil && loop.cfg.FlushInterval > 0 {
		ticker := loop.cfg.Clock.NewTicker(loop.cfg.FlushInterval)
		defer ticker.Stop()
		flushC = ticker.C
	}

	for {
		select {
		case fn := <-loop.queue:
			loop.run(fn)
		case <-tickC:
			loop.run(loop.cfg.OnTick)
		case <-flushC:
			loop.run(loop.cfg.OnFlush)
		case <-loop.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// run executes one task, turning a panic into an error log line so a
// faulty handler cannot take the server down.
func (loop *Loop) run(fn func()) {
	defer func() {
		if recovered := recover(); recovered != nil {
			loop.logger.Error("control loop task panicked",
				"panic", fmt.Sprint(recovered),
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}
