// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts wall-clock time so that the server's delayed
// and periodic work (round transitions, autosave ticks, settings
// flushes, log timestamps) can be driven deterministically in tests.
//
// Production code holds a [Clock] obtained from [Real]. Tests use
// [Fake], whose time only moves when Advance is called; AfterFunc
// callbacks run synchronously inside Advance and tickers deliver on
// their channel without blocking.
package clock

import "time"

// Clock is the subset of the time package the server depends on.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc calls f once after d has elapsed. The returned Timer
	// cancels the call if stopped first.
	AfterFunc(d time.Duration, f func()) *Timer

	// NewTicker delivers the current time on the ticker's channel
	// every d. Panics if d <= 0.
	NewTicker(d time.Duration) *Ticker
}

// Timer is a pending AfterFunc call.
type Timer struct {
	stop func() bool
}

// Stop cancels the pending call. It returns false if the call already
// ran or was already stopped.
func (t *Timer) Stop() bool { return t.stop() }

// Ticker delivers periodic ticks on C. The channel holds at most one
// undelivered tick; slow consumers miss ticks rather than queueing them.
type Ticker struct {
	C <-chan time.Time

	stop  func()
	reset func(time.Duration)
}

// Stop turns the ticker off. C is not closed.
func (t *Ticker) Stop() { t.stop() }

// Reset changes the period and restarts the cycle from now.
func (t *Ticker) Reset(d time.Duration) { t.reset(d) }
