// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"

	"golang.org/x/sys/unix"
)

func TestIsExpectedCloseError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"eof", io.EOF, true},
		{"wrapped eof", fmt.Errorf("reading: %w", io.EOF), true},
		{"closed", net.ErrClosed, true},
		{"reset", &net.OpError{Op: "read", Err: unix.ECONNRESET}, true},
		{"broken pipe", &net.OpError{Op: "write", Err: unix.EPIPE}, true},
		{"other", errors.New("boom"), false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsExpectedCloseError(test.err); got != test.want {
				t.Errorf("IsExpectedCloseError(%v) = %v, want %v", test.err, got, test.want)
			}
		})
	}
}

func TestListenReusableRebindsAfterClose(t *testing.T) {
	listener, err := ListenReusable(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenReusable: %v", err)
	}
	address := listener.Addr().String()

	// Leave a connection behind so the port has TIME_WAIT state.
	conn, err := net.Dial("tcp", address)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	accepted, err := listener.Accept()
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	accepted.Close()
	conn.Close()
	listener.Close()

	again, err := ListenReusable(context.Background(), address)
	if err != nil {
		t.Fatalf("rebinding %s: %v", address, err)
	}
	again.Close()
}

func TestListenReusableAddressInUse(t *testing.T) {
	listener, err := ListenReusable(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenReusable: %v", err)
	}
	defer listener.Close()

	_, err = ListenReusable(context.Background(), listener.Addr().String())
	if err == nil {
		t.Fatal("expected second bind to fail")
	}
	if !IsAddressInUse(err) {
		t.Fatalf("IsAddressInUse(%v) = false", err)
	}
}
