// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"github.com/bureau-foundation/arena/settings"
	"github.com/bureau-foundation/arena/world"
)

// playersChanged diffs the engine's player list against the last one
// seen, admits newcomers, and applies auto-pause. It may run nested
// when admitting a player kicks them.
func (server *Server) playersChanged() {
	current := server.engine.Players()
	seen := make(map[string]world.Player, len(current))
	var joined []world.Player
	for _, player := range current {
		seen[player.ID] = player
		if _, ok := server.known[player.ID]; !ok {
			joined = append(joined, player)
		}
	}
	left := false
	for id := range server.known {
		if _, ok := seen[id]; !ok {
			left = true
			break
		}
	}
	server.known = seen

	for _, player := range joined {
		server.admit(player)
	}

	if !server.settings.Bool(settings.AutoPause) {
		return
	}
	count := len(server.engine.Players())
	state := server.engine.State()
	switch {
	case count > 0 && len(joined) > 0 && state == world.StatePaused && server.autoPaused:
		server.engine.SetState(world.StatePlaying)
		server.autoPaused = false
		server.logger.Info("auto-pause lifted", "players", count)
	case count == 0 && left && state == world.StatePlaying:
		server.engine.SetState(world.StatePaused)
		server.autoPaused = true
		server.logger.Info("auto-paused, no players left")
	}
}

// admit records a join and removes the player again if they are
// banned, not whitelisted while the whitelist is on, or over the
// player limit.
func (server *Server) admit(player world.Player) {
	ctx := server.ctx
	if err := server.admin.RecordJoin(ctx, player.ID, player.Name, player.IP); err != nil {
		server.logger.Error("recording join failed", "player_id", player.ID, "error", err)
	}
	server.logger.Info("player joined", "player", player.Name, "player_id", player.ID)

	banned, err := server.admin.IsBanned(ctx, player.ID, player.IP)
	if err != nil {
		server.logger.Error("ban check failed", "player_id", player.ID, "error", err)
	}
	if banned {
		server.engine.Kick(player.Name, "banned")
		return
	}

	info, _, err := server.admin.Info(ctx, player.ID)
	if err != nil {
		server.logger.Error("player lookup failed", "player_id", player.ID, "error", err)
	}
	if server.settings.Bool(settings.Whitelist) && !info.Whitelisted && !info.Admin {
		server.engine.Kick(player.Name, "not whitelisted")
		return
	}

	limit, err := server.admin.PlayerLimit(ctx)
	if err != nil {
		server.logger.Error("player limit lookup failed", "error", err)
	}
	if limit > 0 && len(server.engine.Players()) > limit && !info.Admin {
		server.engine.Kick(player.Name, "server full")
		return
	}

	if info.Admin {
		server.engine.SetAdmin(player.ID, true)
	}
}
