// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(Config{Path: filepath.Join(t.TempDir(), "admin.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordJoinUpdatesRecord(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.RecordJoin(ctx, "uuid-1", "Alpha", "10.0.0.1"); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordJoin(ctx, "uuid-1", "AlphaRenamed", "10.0.0.2"); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordKick(ctx, "uuid-1"); err != nil {
		t.Fatal(err)
	}

	info, ok, err := store.Info(ctx, "uuid-1")
	if err != nil || !ok {
		t.Fatalf("Info = %v, %v", ok, err)
	}
	want := PlayerInfo{ID: "uuid-1", LastName: "AlphaRenamed", LastIP: "10.0.0.2", TimesJoined: 2, TimesKicked: 1}
	if info != want {
		t.Errorf("Info = %+v, want %+v", info, want)
	}

	if _, ok, err := store.Info(ctx, "nobody"); ok || err != nil {
		t.Errorf("Info(nobody) = %v, %v", ok, err)
	}

	byIP, err := store.FindByIP(ctx, "10.0.0.2")
	if err != nil || len(byIP) != 1 || byIP[0].ID != "uuid-1" {
		t.Errorf("FindByIP(10.0.0.2) = %+v, %v", byIP, err)
	}
	if stale, err := store.FindByIP(ctx, "10.0.0.1"); err != nil || len(stale) != 0 {
		t.Errorf("FindByIP(10.0.0.1) = %+v, %v", stale, err)
	}
}

func TestBanAndUnbanID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	changed, err := store.BanID(ctx, "uuid-2")
	if err != nil || !changed {
		t.Fatalf("BanID = %v, %v", changed, err)
	}
	if changed, _ := store.BanID(ctx, "uuid-2"); changed {
		t.Error("second BanID reported a change")
	}
	banned, err := store.IsBanned(ctx, "uuid-2", "")
	if err != nil || !banned {
		t.Errorf("IsBanned = %v, %v", banned, err)
	}
	bans, err := store.Bans(ctx)
	if err != nil || len(bans) != 1 || bans[0].ID != "uuid-2" {
		t.Errorf("Bans = %+v, %v", bans, err)
	}

	if changed, err := store.UnbanID(ctx, "uuid-2"); err != nil || !changed {
		t.Fatalf("UnbanID = %v, %v", changed, err)
	}
	if changed, _ := store.UnbanID(ctx, "uuid-2"); changed {
		t.Error("second UnbanID reported a change")
	}
	if banned, _ := store.IsBanned(ctx, "uuid-2", ""); banned {
		t.Error("still banned after UnbanID")
	}
}

func TestBanIP(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if changed, err := store.BanIP(ctx, "192.168.1.9"); err != nil || !changed {
		t.Fatalf("BanIP = %v, %v", changed, err)
	}
	if changed, _ := store.BanIP(ctx, "192.168.1.9"); changed {
		t.Error("second BanIP reported a change")
	}
	if banned, _ := store.IsBanned(ctx, "someone", "192.168.1.9"); !banned {
		t.Error("address ban not reported by IsBanned")
	}
	ips, err := store.BannedIPs(ctx)
	if err != nil || len(ips) != 1 || ips[0] != "192.168.1.9" {
		t.Errorf("BannedIPs = %v, %v", ips, err)
	}
	if changed, _ := store.UnbanIP(ctx, "192.168.1.9"); !changed {
		t.Error("UnbanIP reported no change")
	}
	if ips, _ := store.BannedIPs(ctx); len(ips) != 0 {
		t.Errorf("BannedIPs after unban = %v", ips)
	}
}

func TestAdminAndWhitelistFlags(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if err := store.RecordJoin(ctx, "uuid-3", "Gamma", "10.0.0.3"); err != nil {
		t.Fatal(err)
	}

	if changed, err := store.SetAdmin(ctx, "uuid-3", true); err != nil || !changed {
		t.Fatalf("SetAdmin = %v, %v", changed, err)
	}
	if changed, _ := store.SetAdmin(ctx, "uuid-3", true); changed {
		t.Error("repeated SetAdmin reported a change")
	}
	admins, err := store.Admins(ctx)
	if err != nil || len(admins) != 1 || admins[0].LastName != "Gamma" {
		t.Errorf("Admins = %+v, %v", admins, err)
	}

	if changed, err := store.SetWhitelisted(ctx, "uuid-4", true); err != nil || !changed {
		t.Fatalf("SetWhitelisted = %v, %v", changed, err)
	}
	listed, err := store.Whitelisted(ctx)
	if err != nil || len(listed) != 1 || listed[0].ID != "uuid-4" {
		t.Errorf("Whitelisted = %+v, %v", listed, err)
	}

	found, err := store.FindByName(ctx, "gamma")
	if err != nil || len(found) != 1 || found[0].ID != "uuid-3" {
		t.Errorf("FindByName(gamma) = %+v, %v", found, err)
	}
}

func TestPlayerLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if limit, err := store.PlayerLimit(ctx); err != nil || limit != 0 {
		t.Fatalf("initial PlayerLimit = %d, %v", limit, err)
	}
	if err := store.SetPlayerLimit(ctx, 12); err != nil {
		t.Fatal(err)
	}
	if limit, _ := store.PlayerLimit(ctx); limit != 12 {
		t.Errorf("PlayerLimit = %d, want 12", limit)
	}
	if err := store.SetPlayerLimit(ctx, -1); err != nil {
		t.Fatal(err)
	}
	if limit, _ := store.PlayerLimit(ctx); limit != 0 {
		t.Errorf("PlayerLimit after disabling = %d, want 0", limit)
	}
	if err := store.Checkpoint(ctx); err != nil {
		t.Errorf("Checkpoint: %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admin.db")
	store, err := Open(Config{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := store.BanIP(ctx, "1.2.3.4"); err != nil {
		t.Fatal(err)
	}
	store.Close()

	reopened, err := Open(Config{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	if banned, _ := reopened.IsBanned(ctx, "", "1.2.3.4"); !banned {
		t.Error("ban lost across reopen")
	}
}
