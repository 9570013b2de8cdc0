// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"testing"
)

func TestReport(t *testing.T) {
	var out bytes.Buffer
	Report(&out, errors.New("settings file is not valid JSON"))
	if got, want := out.String(), "error: settings file is not valid JSON\n"; got != want {
		t.Errorf("Report wrote %q, want %q", got, want)
	}
}
