// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	store, err := Open(path, Builtin(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return store, path
}

func TestDefaults(t *testing.T) {
	store, _ := openTestStore(t)

	if store.Bool(Autosave) {
		t.Error("autosave should default to off")
	}
	if got := store.Int(AutosaveAmount); got != 10 {
		t.Errorf("autosaveAmount = %d, want 10", got)
	}
	if got := store.String(SocketInputAddress); got != "localhost" {
		t.Errorf("socketInputAddress = %q, want localhost", got)
	}
}

func TestSetParsesByKind(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{Autosave, "on", "true", false},
		{Autosave, "false", "false", false},
		{Autosave, "maybe", "", true},
		{AutosaveAmount, "3", "3", false},
		{AutosaveAmount, "three", "", true},
		{MessageOfTheDay, `hello\nworld`, "hello\nworld", false},
		{AutosaveAmount, "default", "10", false},
	}
	for _, test := range tests {
		t.Run(test.name+"="+test.raw, func(t *testing.T) {
			store, _ := openTestStore(t)
			value, err := store.Set(test.name, test.raw)
			if test.wantErr {
				if err == nil {
					t.Fatalf("Set(%q, %q) succeeded, want error", test.name, test.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("Set(%q, %q): %v", test.name, test.raw, err)
			}
			if value.String() != test.want {
				t.Errorf("value = %q, want %q", value.String(), test.want)
			}
		})
	}
}

func TestSetIsCaseInsensitive(t *testing.T) {
	store, _ := openTestStore(t)
	if _, err := store.Set("AUTOSAVEAMOUNT", "4"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := store.Int(AutosaveAmount); got != 4 {
		t.Errorf("autosaveAmount = %d, want 4", got)
	}
}

func TestSetUnknown(t *testing.T) {
	store, _ := openTestStore(t)
	if _, err := store.Set("nope", "1"); !errors.Is(err, ErrUnknown) {
		t.Fatalf("Set unknown = %v, want ErrUnknown", err)
	}
}

func TestSetPersistsAndReloads(t *testing.T) {
	store, path := openTestStore(t)
	if _, err := store.Set(Autosave, "on"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := store.Set(AutosaveSpacing, "30"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.PutKey(KeyLastMode, "pvp"); err != nil {
		t.Fatalf("PutKey: %v", err)
	}

	reopened, err := Open(path, Builtin(), nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !reopened.Bool(Autosave) || reopened.Int(AutosaveSpacing) != 30 {
		t.Errorf("reloaded autosave=%v spacing=%d", reopened.Bool(Autosave), reopened.Int(AutosaveSpacing))
	}
	if got := reopened.Key(KeyLastMode, "survival"); got != "pvp" {
		t.Errorf("lastServerMode = %q, want pvp", got)
	}
}

func TestOpenAcceptsCommentsAndDropsMistypedValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	content := `{
  // hand-edited
  "config": {
    "autosave": true,
    "autosaveAmount": "lots",
    "roundExtraTime": 5,
  },
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing settings: %v", err)
	}
	store, err := Open(path, Builtin(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !store.Bool(Autosave) {
		t.Error("autosave from file not applied")
	}
	if got := store.Int(AutosaveAmount); got != 10 {
		t.Errorf("mistyped autosaveAmount = %d, want default 10", got)
	}
	if got := store.Int(RoundExtraTime); got != 5 {
		t.Errorf("roundExtraTime = %d, want 5", got)
	}
}

func TestOnChangeRunsAfterPersist(t *testing.T) {
	store, path := openTestStore(t)
	var seen []int
	store.OnChange(AutosaveSpacing, func(value Value) {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("hook ran before settings were persisted: %v", err)
		}
		seen = append(seen, value.Int())
	})

	if _, err := store.Set(AutosaveSpacing, "15"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := store.Set(AutosaveSpacing, "bad"); err == nil {
		t.Fatal("expected parse error")
	}
	if len(seen) != 1 || seen[0] != 15 {
		t.Errorf("hook saw %v, want [15]", seen)
	}
}

func TestSetValueRejectsWrongKind(t *testing.T) {
	store, _ := openTestStore(t)
	if err := store.SetValue(Autosave, IntValue(1)); err == nil {
		t.Fatal("expected kind mismatch error")
	}
}

func TestFailedPersistLeavesValueAndSkipsHooks(t *testing.T) {
	directory := filepath.Join(t.TempDir(), "state")
	store, err := Open(filepath.Join(directory, "settings.json"), Builtin(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	hookRan := false
	store.OnChange(SocketInput, func(Value) { hookRan = true })

	// A regular file where the directory should be makes every write fail.
	if err := os.WriteFile(directory, []byte("in the way"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Set(SocketInput, "true"); err == nil {
		t.Fatal("Set succeeded without a writable settings directory")
	}
	if store.Bool(SocketInput) {
		t.Error("socketInput changed in memory although the write failed")
	}
	if hookRan {
		t.Error("change hook ran for a failed write")
	}

	if err := store.PutKey("lastServerMode", "pvp"); err == nil {
		t.Fatal("PutKey succeeded without a writable settings directory")
	}
	if got := store.Key("lastServerMode", "survival"); got != "survival" {
		t.Errorf("key = %q after a failed write, want the fallback", got)
	}

	if err := os.Remove(directory); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Set(SocketInput, "true"); err != nil {
		t.Fatalf("Set after the directory is writable again: %v", err)
	}
	if !store.Bool(SocketInput) || !hookRan {
		t.Errorf("socketInput = %v, hook ran = %v after a successful write", store.Bool(SocketInput), hookRan)
	}
}
