// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds binary entrypoint helpers for output that
// happens before the console sink exists or after it has closed, such
// as reporting a startup failure and exiting.
package process
