// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestInfoUsesInjectedValues(t *testing.T) {
	saved := [3]string{GitCommit, BuildTime, Version}
	t.Cleanup(func() { GitCommit, BuildTime, Version = saved[0], saved[1], saved[2] })

	GitCommit, BuildTime, Version = "abc1234", "2026-01-02T03:04:05Z", "1.2.3"
	if got, want := Info(), "1.2.3 (abc1234, 2026-01-02T03:04:05Z)"; got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
}

func TestCommitNeverEmpty(t *testing.T) {
	if Commit() == "" {
		t.Error("Commit() returned an empty string")
	}
}

func TestRuntime(t *testing.T) {
	got := Runtime()
	if !strings.HasPrefix(got, runtime.Version()) || !strings.HasSuffix(got, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Errorf("Runtime() = %q", got)
	}
}
