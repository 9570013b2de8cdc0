// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bureau-foundation/arena/lib/clock"
	"github.com/bureau-foundation/arena/lib/testutil"
)

const loopWait = 5 * time.Second

func startLoop(t *testing.T, cfg LoopConfig) (*Loop, context.CancelFunc) {
	t.Helper()
	if cfg.Clock == nil {
		cfg.Clock = clock.Fake(epoch)
	}
	loop := NewLoop(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(func() {
		cancel()
		testutil.RequireClosed(t, loop.Done(), loopWait, "loop exit")
	})
	return loop, cancel
}

func TestLoopRunsTasksInOrder(t *testing.T) {
	loop, _ := startLoop(t, LoopConfig{QueueSize: 4})

	results := make(chan int, 10)
	for index := range 10 {
		if !loop.Post(func() { results <- index }) {
			t.Fatalf("Post %d refused", index)
		}
	}
	for want := range 10 {
		if got := testutil.RequireReceive(t, results, loopWait, "task %d", want); got != want {
			t.Fatalf("task order: got %d, want %d", got, want)
		}
	}
}

func TestLoopRecoversPanics(t *testing.T) {
	loop, _ := startLoop(t, LoopConfig{})

	loop.Post(func() { panic("handler bug") })
	after := make(chan struct{})
	loop.Post(func() { close(after) })
	testutil.RequireClosed(t, after, loopWait, "task after panic")
}

func TestLoopTicks(t *testing.T) {
	fake := clock.Fake(epoch)
	ticks := make(chan struct{}, 4)
	flushes := make(chan struct{}, 4)
	startLoop(t, LoopConfig{
		Clock:         fake,
		TickRate:      time.Second,
		OnTick:        func() { signal(ticks) },
		FlushInterval: time.Minute,
		OnFlush:       func() { signal(flushes) },
	})

	fake.WaitForTimers(2)
	fake.Advance(time.Second)
	testutil.RequireReceive(t, ticks, loopWait, "tick")

	fake.Advance(59 * time.Second)
	testutil.RequireReceive(t, flushes, loopWait, "flush")
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func TestLoopStop(t *testing.T) {
	loop := NewLoop(LoopConfig{Clock: clock.Fake(epoch)})
	go loop.Run(context.Background())

	loop.Post(loop.Stop)
	testutil.RequireClosed(t, loop.Done(), loopWait, "loop exit after Stop")
	loop.Stop()

	if loop.Post(func() {}) {
		t.Error("Post accepted a task after the loop stopped")
	}
	if err := loop.PostContext(context.Background(), func() {}); !errors.Is(err, ErrLoopStopped) {
		t.Errorf("PostContext = %v, want ErrLoopStopped", err)
	}
}

func TestPostContextGivesUpWhenFull(t *testing.T) {
	loop := NewLoop(LoopConfig{Clock: clock.Fake(epoch), QueueSize: 1})
	if !loop.Post(func() {}) {
		t.Fatal("first Post refused")
	}

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- loop.PostContext(ctx, func() {}) }()
	cancel()

	err := testutil.RequireReceive(t, result, loopWait, "blocked PostContext")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("PostContext = %v, want context.Canceled", err)
	}
}
