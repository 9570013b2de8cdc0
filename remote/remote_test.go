// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/arena/lib/testutil"
)

const wait = 5 * time.Second

// fakeMirror records attach and detach calls.
type fakeMirror struct {
	mu       sync.Mutex
	writer   io.Writer
	attached chan io.Writer
	detached chan struct{}
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{
		attached: make(chan io.Writer, 8),
		detached: make(chan struct{}, 8),
	}
}

func (mirror *fakeMirror) Attach(writer io.Writer) {
	mirror.mu.Lock()
	mirror.writer = writer
	mirror.mu.Unlock()
	mirror.attached <- writer
}

func (mirror *fakeMirror) Detach() {
	mirror.mu.Lock()
	mirror.writer = nil
	mirror.mu.Unlock()
	mirror.detached <- struct{}{}
}

func (mirror *fakeMirror) current() io.Writer {
	mirror.mu.Lock()
	defer mirror.mu.Unlock()
	return mirror.writer
}

// harness runs posted closures on a goroutine standing in for the
// control loop.
type harness struct {
	channel *Channel
	mirror  *fakeMirror
	lines   chan string
	queue   chan func()
}

func newHarness(t *testing.T, address string) *harness {
	t.Helper()
	h := &harness{
		mirror: newFakeMirror(),
		lines:  make(chan string, 16),
		queue:  make(chan func(), 16),
	}
	ctx, cancel := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		for {
			select {
			case fn := <-h.queue:
				fn()
			case <-ctx.Done():
				return
			}
		}
	}()

	addr := address
	h.channel = New(Config{
		Address: func() string { return addr },
		Post: func(ctx context.Context, fn func()) error {
			select {
			case h.queue <- fn:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		Dispatch: func(line string) { h.lines <- line },
		Mirror:   h.mirror,
	})
	t.Cleanup(func() {
		h.channel.Disable()
		cancel()
		<-loopDone
	})
	return h
}

func dial(t *testing.T, channel *Channel) net.Conn {
	t.Helper()
	addr := channel.Addr()
	if addr == nil {
		t.Fatal("channel has no address")
	}
	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestLinesReachDispatch(t *testing.T) {
	h := newHarness(t, "127.0.0.1:0")
	if err := h.channel.Enable(context.Background()); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if !h.channel.Enabled() {
		t.Fatal("Enabled() = false after Enable")
	}

	conn := dial(t, h.channel)
	if _, err := io.WriteString(conn, "status\nsay hello there\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := testutil.RequireReceive(t, h.lines, wait, "first line"); got != "status" {
		t.Errorf("first line = %q, want status", got)
	}
	if got := testutil.RequireReceive(t, h.lines, wait, "second line"); got != "say hello there" {
		t.Errorf("second line = %q, want %q", got, "say hello there")
	}
}

func TestMirrorAttachedWhileConnected(t *testing.T) {
	h := newHarness(t, "127.0.0.1:0")
	if err := h.channel.Enable(context.Background()); err != nil {
		t.Fatalf("Enable: %v", err)
	}

	conn := dial(t, h.channel)
	writer := testutil.RequireReceive(t, h.mirror.attached, wait, "attach")
	if _, err := io.WriteString(writer, "hello client\n"); err != nil {
		t.Fatalf("mirror write: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(wait))
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if line != "hello client\n" {
		t.Errorf("client read %q", line)
	}

	conn.Close()
	testutil.RequireReceive(t, h.mirror.detached, wait, "detach after client close")
	if h.mirror.current() != nil {
		t.Error("mirror still attached after disconnect")
	}
}

func TestSecondClientServedAfterFirst(t *testing.T) {
	h := newHarness(t, "127.0.0.1:0")
	if err := h.channel.Enable(context.Background()); err != nil {
		t.Fatalf("Enable: %v", err)
	}

	first := dial(t, h.channel)
	testutil.RequireReceive(t, h.mirror.attached, wait, "first attach")
	io.WriteString(first, "one\n")
	testutil.RequireReceive(t, h.lines, wait, "line from first client")
	first.Close()
	testutil.RequireReceive(t, h.mirror.detached, wait, "first detach")

	second := dial(t, h.channel)
	testutil.RequireReceive(t, h.mirror.attached, wait, "second attach")
	io.WriteString(second, "two\n")
	if got := testutil.RequireReceive(t, h.lines, wait, "line from second client"); got != "two" {
		t.Errorf("line = %q, want two", got)
	}
}

func TestDisableReleasesAddress(t *testing.T) {
	h := newHarness(t, "127.0.0.1:0")
	if err := h.channel.Enable(context.Background()); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	conn := dial(t, h.channel)
	testutil.RequireReceive(t, h.mirror.attached, wait, "attach")
	address := h.channel.Addr().String()

	h.channel.Disable()
	if h.channel.Enabled() {
		t.Fatal("Enabled() = true after Disable")
	}
	if h.channel.Addr() != nil {
		t.Error("Addr() non-nil after Disable")
	}
	testutil.RequireReceive(t, h.mirror.detached, wait, "detach on disable")

	conn.SetReadDeadline(time.Now().Add(wait))
	if _, err := conn.Read(make([]byte, 1)); err == nil {
		t.Error("client connection still open after Disable")
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		t.Fatalf("address %s not released: %v", address, err)
	}
	listener.Close()
}

func TestReenableOnSameAddress(t *testing.T) {
	probe, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	address := probe.Addr().String()
	probe.Close()

	h := newHarness(t, address)
	for round := range 3 {
		if err := h.channel.Enable(context.Background()); err != nil {
			t.Fatalf("round %d: Enable: %v", round, err)
		}
		conn := dial(t, h.channel)
		io.WriteString(conn, "ping\n")
		testutil.RequireReceive(t, h.lines, wait, "round %d line", round)
		h.channel.Disable()
	}
}

func TestToggle(t *testing.T) {
	h := newHarness(t, "127.0.0.1:0")
	if err := h.channel.Toggle(context.Background(), true); err != nil {
		t.Fatalf("Toggle(true): %v", err)
	}
	if !h.channel.Enabled() {
		t.Fatal("not enabled after Toggle(true)")
	}
	if err := h.channel.Toggle(context.Background(), false); err != nil {
		t.Fatalf("Toggle(false): %v", err)
	}
	if h.channel.Enabled() {
		t.Fatal("still enabled after Toggle(false)")
	}
}

func TestEnableTwiceKeepsListener(t *testing.T) {
	h := newHarness(t, "127.0.0.1:0")
	if err := h.channel.Enable(context.Background()); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	before := h.channel.Addr().String()
	if err := h.channel.Enable(context.Background()); err != nil {
		t.Fatalf("second Enable: %v", err)
	}
	if after := h.channel.Addr().String(); after != before {
		t.Errorf("address changed from %s to %s", before, after)
	}
}

func TestAddressInUse(t *testing.T) {
	occupant, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("occupant: %v", err)
	}
	defer occupant.Close()

	h := newHarness(t, occupant.Addr().String())
	err = h.channel.Enable(context.Background())
	if !errors.Is(err, ErrAddressInUse) {
		t.Fatalf("Enable error = %v, want ErrAddressInUse", err)
	}
	if h.channel.Enabled() {
		t.Error("channel enabled after bind failure")
	}
}

func TestDisableWithoutEnable(t *testing.T) {
	h := newHarness(t, "127.0.0.1:0")
	h.channel.Disable()
	select {
	case <-h.mirror.detached:
		t.Error("Detach called for a channel that was never enabled")
	default:
	}
}
