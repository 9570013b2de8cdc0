// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/arena/admin"
	"github.com/bureau-foundation/arena/lib/version"
	"github.com/bureau-foundation/arena/settings"
	"github.com/bureau-foundation/arena/world"
)

const (
	msgAlreadyHosting = "Already hosting. Type 'stop' to stop hosting first."
	msgNotHosting     = "Not hosting. Host a game first."
	msgNoValidSave    = "No (valid) save data found for slot."
	msgLoadFailed     = "Failed to load save. Outdated or corrupt file."
)

// registerCommands builds the operator command table. The confirm
// command is added by the suggester.
func (server *Server) registerCommands() {
	register := server.registry.Register

	register("help", "[command]", "Display the command list, or get help for a specific command.", server.help)
	register("version", "", "Display server version info.", server.version)
	register("exit", "", "Exit the server application.", server.exit)
	register("stop", "", "Stop hosting the server.", server.stop)
	register("host", "[mapname] [mode]", "Open the server. Will default to survival and a random map if not specified.", server.host)
	register("maps", "[all/custom/default]", "Display available maps. Displays only custom maps by default.", server.maps)
	register("reloadmaps", "", "Reload all maps from disk.", server.reloadMaps)
	register("status", "", "Display server status.", server.status)
	register("say", "<message...>", "Send a message to all players.", server.say)
	register("pause", "<on/off>", "Pause or unpause the game.", server.pause)
	register("rules", "[remove/add] [name] [value...]", "List, remove or add global rules. These will apply regardless of map.", server.rules)
	register("playerlimit", "[off/somenumber]", "Set the server player limit.", server.playerLimit)
	register("config", "[name] [value...]", "Configure server settings.", server.config)
	register("whitelist", "[add/remove] [ID]", "Add/remove players from the whitelist using their ID.", server.whitelist)
	register("shuffle", "[none/all/custom/builtin]", "Set map shuffling mode.", server.shuffle)
	register("nextmap", "<mapname...>", "Set the next map to be played after a game-over. Overrides shuffling.", server.nextMap)
	register("kick", "<username...>", "Kick a person by name.", server.kick)
	register("ban", "<type-id/name/ip> <username/IP/ID...>", "Ban a person.", server.ban)
	register("bans", "", "List all banned IPs and IDs.", server.bans)
	register("unban", "<ip/ID>", "Completely unban a person by IP or ID.", server.unban)
	register("admin", "<add/remove> <username/ID...>", "Make an online user admin.", server.adminCommand)
	register("admins", "", "List all admins.", server.admins)
	register("players", "", "List all players currently in game.", server.players)
	register("info", "<IP/UUID/name...>", "Find player info(s) by IP, UUID or last name.", server.info)
	register("runwave", "", "Trigger the next wave.", server.runWave)
	register("loadautosave", "", "Load the last autosave.", server.loadAutosave)
	register("load", "<slot>", "Load a save from a slot.", server.load)
	register("save", "<slot>", "Save game state to a slot.", server.save)
	register("saves", "", "List all saves in the save directory.", server.listSaves)
	register("gameover", "", "Force a game over.", server.gameOver)
}

func (server *Server) help(args []string) error {
	if len(args) > 0 {
		found, ok := server.registry.Lookup(args[0])
		if !ok {
			server.sink.Errorf("Command %s not found!", args[0])
			return nil
		}
		server.sink.Infof("%s:", found.Name)
		server.sink.Infof("  %s - %s", found.Usage(), found.Description)
		return nil
	}
	server.sink.Infof("Commands:")
	for _, registered := range server.registry.Commands() {
		server.sink.Infof("  %s - %s", registered.Usage(), registered.Description)
	}
	return nil
}

func (server *Server) version([]string) error {
	server.sink.Infof("Version: Arena %s", version.Info())
	server.sink.Infof("Go version: %s", version.Runtime())
	return nil
}

func (server *Server) exit([]string) error {
	server.sink.Infof("Shutting down server.")
	server.engine.CloseListener()
	server.loop.Stop()
	return nil
}

func (server *Server) stop([]string) error {
	server.engine.CloseListener()
	server.round.Cancel()
	server.engine.SetState(world.StateMenu)
	server.autoPaused = false
	server.sink.Infof("Stopped server.")
	return nil
}

func (server *Server) host(args []string) error {
	if server.engine.IsRoundActive() {
		server.sink.Errorf(msgAlreadyHosting)
		return nil
	}
	server.round.Cancel()

	preset := world.Survival
	if len(args) > 1 {
		mode, err := world.ParseGamemode(args[1])
		if err != nil {
			server.sink.Errorf("No gamemode '%s' found.", args[1])
			return nil
		}
		preset = mode
	}

	var chosen world.Map
	if len(args) > 0 {
		found, ok := server.catalog.Find(args[0])
		if !ok {
			server.sink.Errorf("No map with name '%s' found.", args[0])
			server.suggestMaps(args[0])
			return nil
		}
		chosen = found
	} else {
		next, ok := server.randomMap(preset)
		if !ok {
			server.sink.Errorf("No map supports gamemode '%s'.", preset)
			return nil
		}
		chosen = next
		server.sink.Infof("Randomized next map to be %s.", chosen.Name)
	}

	server.sink.Infof("Loading map...")
	server.engine.Reset()
	server.lastMode = preset
	if err := server.settings.PutKey(settings.KeyLastMode, string(preset)); err != nil {
		server.logger.Error("saving last gamemode failed", "error", err)
	}

	rules := server.rulesFor(chosen)
	if err := server.engine.LoadMap(chosen, rules); err != nil {
		var mapErr *world.MapError
		if errors.As(err, &mapErr) {
			server.sink.Errorf("%s: %v", mapErr.Map, mapErr.Err)
			return nil
		}
		return err
	}
	server.engine.ApplyRuleset(rules)
	server.engine.Play()
	server.sink.Infof("Map loaded.")
	server.worldLoaded()
	server.openListener()

	if server.settings.Bool(settings.AutoPause) {
		server.engine.SetState(world.StatePaused)
		server.autoPaused = true
	}
	return nil
}

// randomMap picks a map to host when none is named: the rotation's
// choice if it has one, otherwise the first map supporting mode.
func (server *Server) randomMap(mode world.Gamemode) (world.Map, bool) {
	var current *world.Map
	if m, ok := server.engine.CurrentMap(); ok {
		current = &m
	}
	if next := server.catalog.SelectNext(mode, current); next != nil {
		return *next, true
	}
	for _, candidate := range server.catalog.All() {
		if candidate.Supports(mode) {
			return candidate, true
		}
	}
	return world.Map{}, false
}

// suggestMaps lists close matches for a map name that was not found.
func (server *Server) suggestMaps(query string) {
	matches := server.catalog.Search(query, 3)
	if len(matches) == 0 {
		return
	}
	names := make([]string, len(matches))
	for index, match := range matches {
		names[index] = strings.ReplaceAll(match.Name, " ", "_")
	}
	server.sink.Infof("Similar maps: %s", strings.Join(names, ", "))
}

func (server *Server) maps(args []string) error {
	custom := len(args) == 0 || args[0] == "custom" || args[0] == "all"
	builtin := len(args) > 0 && (args[0] == "default" || args[0] == "all")

	if len(server.catalog.All()) == 0 {
		server.sink.Infof("No maps found.")
	} else {
		var listed []world.Map
		if custom {
			listed = append(listed, server.catalog.Custom()...)
		}
		if builtin {
			listed = append(listed, server.catalog.Builtin()...)
		}
		if len(listed) == 0 {
			server.sink.Infof("No custom maps loaded. To display built-in maps, use the \"%s\" argument.", "all")
		} else {
			server.sink.Infof("Maps:")
			for _, m := range listed {
				name := strings.ReplaceAll(m.Name, " ", "_")
				if m.Custom {
					server.sink.Infof("  %s (%s): Custom / %dx%d", name, filepath.Base(m.File), m.Width, m.Height)
				} else {
					server.sink.Infof("  %s: Default / %dx%d", name, m.Width, m.Height)
				}
			}
		}
	}

	directory := server.mapDirectory
	if absolute, err := filepath.Abs(directory); err == nil {
		directory = absolute
	}
	server.sink.Infof("Map directory: %s", directory)
	return nil
}

func (server *Server) reloadMaps([]string) error {
	before := len(server.catalog.All())
	if err := server.catalog.Reload(); err != nil {
		return fmt.Errorf("reloading maps: %w", err)
	}
	after := len(server.catalog.All())
	switch {
	case after > before:
		server.sink.Infof("%d new map(s) found and reloaded.", after-before)
	case after < before:
		server.sink.Infof("%d old map(s) deleted.", before-after)
	default:
		server.sink.Infof("Maps reloaded.")
	}
	return nil
}

func (server *Server) status([]string) error {
	if !server.engine.IsRoundActive() {
		server.sink.Infof("Status: server closed")
		return nil
	}
	current, _ := server.engine.CurrentMap()
	rules := server.engine.Rules()

	server.sink.Infof("Status:")
	server.sink.Infof("  Playing on map %s / Wave %d", current.Name, server.engine.Wave())
	server.sink.Infof("  Gamemode %s, %s", rules.Mode, server.engine.State())
	if rules.Waves && rules.WaveTimer {
		server.sink.Infof("  Waves every %d seconds.", rules.WaveSpacing)
	}
	if server.round.Pending() {
		server.sink.Infof("  Round over, next map loads in %s.", server.roundExtraTime())
	}

	players := server.engine.Players()
	if len(players) == 0 {
		server.sink.Infof("  No players connected.")
		return nil
	}
	server.sink.Infof("  Players: %d", len(players))
	for _, player := range players {
		server.sink.Infof("    %s %s / %s", playerTag(player), player.Name, player.ID)
	}
	return nil
}

func playerTag(player world.Player) string {
	if player.Admin {
		return "[A]"
	}
	return "[P]"
}

func (server *Server) say(args []string) error {
	if !server.engine.IsRoundActive() {
		server.sink.Errorf(msgNotHosting)
		return nil
	}
	server.engine.Announce("[Server]: " + args[0])
	server.sink.Infof("Server: %s", args[0])
	return nil
}

func (server *Server) pause(args []string) error {
	if !server.engine.IsRoundActive() {
		server.sink.Errorf("Cannot pause without a game running.")
		return nil
	}
	if server.engine.State() == world.StateGameOver {
		server.sink.Errorf("Cannot pause while the next map loads.")
		return nil
	}
	paused := args[0] == "on"
	server.autoPaused = false
	if paused {
		server.engine.SetState(world.StatePaused)
		server.sink.Infof("Game paused.")
	} else {
		server.engine.SetState(world.StatePlaying)
		server.sink.Infof("Game unpaused.")
	}
	return nil
}

func (server *Server) rules(args []string) error {
	global, err := parseGlobalRules(server.settings.Key(settings.KeyGlobalRules, ""))
	if err != nil {
		return err
	}

	switch {
	case len(args) == 0:
		if len(global) == 0 {
			server.sink.Infof("Rules: none")
			return nil
		}
		listing, err := yaml.Marshal(global)
		if err != nil {
			return err
		}
		server.sink.Infof("Rules:\n%s", strings.TrimRight(string(listing), "\n"))
		return nil
	case len(args) == 1:
		server.sink.Errorf("Incorrect usage. Specify the rule to remove or add.")
		return nil
	case args[0] != "remove" && args[0] != "add":
		server.sink.Errorf("Incorrect usage. Either add or remove a rule.")
		return nil
	}

	name := args[1]
	if args[0] == "remove" {
		if _, ok := global[name]; !ok {
			server.sink.Errorf("Rule not defined, so not removed.")
			return nil
		}
		delete(global, name)
		server.sink.Infof("Rule '%s' removed.", name)
	} else {
		if len(args) < 3 {
			server.sink.Errorf("Missing last argument. Specify which value to set the rule to.")
			return nil
		}
		value, err := parseRuleValue(args[2])
		if err == nil {
			_, err = applyGlobalRules(server.engine.Rules(), map[string]any{name: value})
		}
		if err != nil {
			server.sink.Errorf("Error parsing rule: %v", err)
			return nil
		}
		global[name] = value
		changed, _ := formatGlobalRules(map[string]any{name: value})
		server.sink.Infof("Changed rule: %s", changed)
	}

	text, err := formatGlobalRules(global)
	if err != nil {
		return err
	}
	if err := server.settings.PutKey(settings.KeyGlobalRules, text); err != nil {
		return err
	}
	if server.engine.IsRoundActive() {
		if current, ok := server.engine.CurrentMap(); ok {
			server.engine.ApplyRuleset(server.rulesFor(current))
		}
	}
	return nil
}

func (server *Server) playerLimit(args []string) error {
	if len(args) == 0 {
		limit, err := server.admin.PlayerLimit(server.ctx)
		if err != nil {
			return err
		}
		if limit == 0 {
			server.sink.Infof("Player limit is currently off.")
		} else {
			server.sink.Infof("Player limit is currently %d.", limit)
		}
		return nil
	}
	if args[0] == "off" {
		if err := server.admin.SetPlayerLimit(server.ctx, 0); err != nil {
			return err
		}
		server.sink.Infof("Player limit disabled.")
		return nil
	}
	limit, err := strconv.Atoi(args[0])
	if err != nil || limit <= 0 {
		server.sink.Errorf("Limit must be a number above 0.")
		return nil
	}
	if err := server.admin.SetPlayerLimit(server.ctx, limit); err != nil {
		return err
	}
	server.sink.Infof("Player limit is now %d.", limit)
	return nil
}

func (server *Server) config(args []string) error {
	if len(args) == 0 {
		server.sink.Infof("All config values:")
		for _, definition := range server.settings.Definitions() {
			value, _ := server.settings.Get(definition.Name)
			server.sink.Infof("| %s: %s", definition.Name, value)
			server.sink.Infof("| | %s", definition.Description)
			server.sink.Infof("|")
		}
		return nil
	}

	definition, ok := server.settings.Lookup(args[0])
	if !ok {
		server.sink.Errorf("Unknown config: '%s'. Run the command with no arguments to get a list of valid configs.", args[0])
		return nil
	}
	if len(args) == 1 {
		value, _ := server.settings.Get(definition.Name)
		server.sink.Infof("'%s' is currently %s.", definition.Name, value)
		return nil
	}

	value, err := server.settings.Set(definition.Name, args[1])
	if err != nil {
		server.sink.Errorf("%s", err)
		return nil
	}
	server.sink.Infof("%s set to %s.", definition.Name, value)
	return nil
}

func (server *Server) whitelist(args []string) error {
	if len(args) == 0 {
		listed, err := server.admin.Whitelisted(server.ctx)
		if err != nil {
			return err
		}
		if len(listed) == 0 {
			server.sink.Infof("No whitelisted players found.")
			return nil
		}
		server.sink.Infof("Whitelist:")
		for _, info := range listed {
			server.sink.Infof("- Name: %s / UUID: %s", info.LastName, info.ID)
		}
		return nil
	}
	if len(args) != 2 {
		server.sink.Errorf("Incorrect usage. Provide an ID to add or remove.")
		return nil
	}

	info, ok, err := server.admin.Info(server.ctx, args[1])
	if err != nil {
		return err
	}
	if !ok {
		server.sink.Errorf("Player ID not found. You must use the ID displayed when a player joins a server.")
		return nil
	}
	switch args[0] {
	case "add":
		if _, err := server.admin.SetWhitelisted(server.ctx, info.ID, true); err != nil {
			return err
		}
		server.sink.Infof("Player '%s' has been whitelisted.", info.LastName)
	case "remove":
		if _, err := server.admin.SetWhitelisted(server.ctx, info.ID, false); err != nil {
			return err
		}
		server.sink.Infof("Player '%s' has been removed from the whitelist.", info.LastName)
	default:
		server.sink.Errorf("Incorrect usage. Provide add/remove as the second argument.")
	}
	return nil
}

func (server *Server) shuffle(args []string) error {
	if len(args) == 0 {
		server.sink.Infof("Shuffle mode current set to '%s'.", server.catalog.ShuffleMode())
		return nil
	}
	mode, err := world.ParseShuffleMode(args[0])
	if err != nil {
		server.sink.Errorf("Invalid shuffle mode.")
		return nil
	}
	if err := server.settings.PutKey(settings.KeyShuffleMode, string(mode)); err != nil {
		return err
	}
	server.catalog.SetShuffleMode(mode)
	server.sink.Infof("Shuffle mode set to '%s'.", mode)
	return nil
}

func (server *Server) nextMap(args []string) error {
	found, ok := server.catalog.Find(args[0])
	if !ok {
		server.sink.Errorf("No map '%s' found.", args[0])
		server.suggestMaps(args[0])
		return nil
	}
	server.catalog.SetNextOverride(&found)
	server.sink.Infof("Next map set to '%s'.", found.Name)
	return nil
}

// onlinePlayer finds a connected player by name. exact requires a
// case-sensitive match.
func (server *Server) onlinePlayer(name string, exact bool) (world.Player, bool) {
	for _, player := range server.engine.Players() {
		if player.Name == name || (!exact && strings.EqualFold(player.Name, name)) {
			return player, true
		}
	}
	return world.Player{}, false
}

func (server *Server) kick(args []string) error {
	if !server.engine.IsRoundActive() {
		server.sink.Errorf("Not hosting a game yet. Calm down.")
		return nil
	}
	target, ok := server.onlinePlayer(args[0], true)
	if !ok {
		server.sink.Infof("Nobody with that name could be found...")
		return nil
	}
	server.engine.Announce(target.Name + " has been kicked by the server.")
	server.engine.Kick(target.Name, "kick")
	if err := server.admin.RecordKick(server.ctx, target.ID); err != nil {
		return err
	}
	server.sink.Infof("Kicked.")
	return nil
}

func (server *Server) ban(args []string) error {
	switch args[0] {
	case "id":
		if _, err := server.admin.BanID(server.ctx, args[1]); err != nil {
			return err
		}
		server.sink.Infof("Banned.")
	case "name":
		target, ok := server.onlinePlayer(args[1], false)
		if !ok {
			server.sink.Errorf("No matches found.")
			return nil
		}
		if _, err := server.admin.BanID(server.ctx, target.ID); err != nil {
			return err
		}
		server.sink.Infof("Banned.")
	case "ip":
		if _, err := server.admin.BanIP(server.ctx, args[1]); err != nil {
			return err
		}
		server.sink.Infof("Banned.")
	default:
		server.sink.Errorf("Invalid type.")
		return nil
	}

	for _, player := range server.engine.Players() {
		banned, err := server.admin.IsBanned(server.ctx, player.ID, player.IP)
		if err != nil {
			return err
		}
		if banned {
			server.engine.Announce(player.Name + " has been banned.")
			server.engine.Kick(player.Name, "banned")
		}
	}
	return nil
}

func (server *Server) bans([]string) error {
	banned, err := server.admin.Bans(server.ctx)
	if err != nil {
		return err
	}
	if len(banned) == 0 {
		server.sink.Infof("No ID-banned players have been found.")
	} else {
		server.sink.Infof("Banned players [ID]:")
		for _, info := range banned {
			server.sink.Infof(" %s / Last known name: '%s'", info.ID, info.LastName)
		}
	}

	addresses, err := server.admin.BannedIPs(server.ctx)
	if err != nil {
		return err
	}
	if len(addresses) == 0 {
		server.sink.Infof("No IP-banned players have been found.")
		return nil
	}
	server.sink.Infof("Banned players [IP]:")
	for _, address := range addresses {
		known, err := server.admin.FindByIP(server.ctx, address)
		if err != nil {
			return err
		}
		if len(known) > 0 {
			server.sink.Infof("  '%s' / Last known name: '%s' / ID: '%s'", address, known[0].LastName, known[0].ID)
		} else {
			server.sink.Infof("  '%s' (No known name or info)", address)
		}
	}
	return nil
}

func (server *Server) unban(args []string) error {
	byIP, err := server.admin.UnbanIP(server.ctx, args[0])
	if err != nil {
		return err
	}
	byID := false
	if !byIP {
		if byID, err = server.admin.UnbanID(server.ctx, args[0]); err != nil {
			return err
		}
	}
	if byIP || byID {
		server.sink.Infof("Unbanned player: %s", args[0])
	} else {
		server.sink.Errorf("That IP/ID is not banned!")
	}
	return nil
}

func (server *Server) adminCommand(args []string) error {
	if !server.engine.IsRoundActive() {
		server.sink.Errorf("Open the server first.")
		return nil
	}
	if args[0] != "add" && args[0] != "remove" {
		server.sink.Errorf("Second parameter must be either 'add' or 'remove'.")
		return nil
	}
	add := args[0] == "add"

	id, name := "", ""
	if online, ok := server.onlinePlayer(args[1], false); ok {
		id, name = online.ID, online.Name
	} else {
		info, ok, err := server.admin.Info(server.ctx, args[1])
		if err != nil {
			return err
		}
		if ok {
			id, name = info.ID, info.LastName
		}
	}
	if id == "" {
		server.sink.Errorf("Nobody with that name or ID could be found. If adding an admin by name, make sure they're online; otherwise, use their UUID.")
		return nil
	}

	if _, err := server.admin.SetAdmin(server.ctx, id, add); err != nil {
		return err
	}
	server.engine.SetAdmin(id, add)
	server.sink.Infof("Changed admin status of player: %s", name)
	return nil
}

func (server *Server) admins([]string) error {
	listed, err := server.admin.Admins(server.ctx)
	if err != nil {
		return err
	}
	if len(listed) == 0 {
		server.sink.Infof("No admins have been found.")
		return nil
	}
	server.sink.Infof("Admins:")
	for _, info := range listed {
		server.sink.Infof(" %s / ID: '%s' / IP: '%s'", info.LastName, info.ID, info.LastIP)
	}
	return nil
}

func (server *Server) players([]string) error {
	players := server.engine.Players()
	if len(players) == 0 {
		server.sink.Infof("No players are currently in the server.")
		return nil
	}
	server.sink.Infof("Players: %d", len(players))
	for _, player := range players {
		server.sink.Infof(" %s %s / ID: %s / IP: %s", playerTag(player), player.Name, player.ID, player.IP)
	}
	return nil
}

func (server *Server) info(args []string) error {
	query := args[0]
	found, err := server.admin.FindByName(server.ctx, query)
	if err != nil {
		return err
	}
	byIP, err := server.admin.FindByIP(server.ctx, query)
	if err != nil {
		return err
	}
	found = append(found, byIP...)
	if byID, ok, err := server.admin.Info(server.ctx, query); err != nil {
		return err
	} else if ok {
		found = append(found, byID)
	}
	slices.SortFunc(found, func(a, b admin.PlayerInfo) int { return strings.Compare(a.ID, b.ID) })
	found = slices.CompactFunc(found, func(a, b admin.PlayerInfo) bool { return a.ID == b.ID })

	if len(found) == 0 {
		server.sink.Infof("Nobody with that name could be found.")
		return nil
	}
	server.sink.Infof("Players found: %d", len(found))
	for index, info := range found {
		server.sink.Infof("[%d] Trace info for player '%s' / UUID %s", index, info.LastName, info.ID)
		server.sink.Infof("  IP: %s", info.LastIP)
		server.sink.Infof("  Admin: %t / Banned: %t / Whitelisted: %t", info.Admin, info.Banned, info.Whitelisted)
		server.sink.Infof("  Times joined: %d", info.TimesJoined)
		server.sink.Infof("  Times kicked: %d", info.TimesKicked)
	}
	return nil
}

func (server *Server) runWave([]string) error {
	if !server.engine.IsRoundActive() {
		server.sink.Errorf(msgNotHosting)
		return nil
	}
	server.engine.RunWave()
	server.sink.Infof("Spawned wave.")
	return nil
}

func (server *Server) loadAutosave([]string) error {
	if server.engine.IsRoundActive() {
		server.sink.Errorf(msgAlreadyHosting)
		return nil
	}
	newest, ok, err := server.autosave.Newest()
	if err != nil {
		return err
	}
	if !ok {
		server.sink.Errorf("No auto-saves found! Type `config autosave true` to enable auto-saves.")
		return nil
	}
	return server.loadSlot(newest.Path)
}

func (server *Server) load(args []string) error {
	if server.engine.IsRoundActive() {
		server.sink.Errorf(msgAlreadyHosting)
		return nil
	}
	return server.loadSlot(server.saves.Path(args[0]))
}

func (server *Server) loadSlot(path string) error {
	if !server.saves.IsValid(path) {
		server.sink.Errorf(msgNoValidSave)
		return nil
	}
	if err := server.loadSave(path); err != nil {
		server.logger.Warn("save load failed", "path", path, "error", err)
		server.sink.Errorf(msgLoadFailed)
		return nil
	}
	server.sink.Infof("Save loaded.")
	return nil
}

func (server *Server) save(args []string) error {
	if !server.engine.IsRoundActive() {
		server.sink.Errorf(msgNotHosting)
		return nil
	}
	path := server.saves.Path(args[0])
	if err := server.saves.Save(path, server.engine.Snapshot()); err != nil {
		server.sink.Errorf("Failed to save to %s: %v", path, err)
		return nil
	}
	server.sink.Infof("Saved to %s.", path)
	return nil
}

func (server *Server) listSaves([]string) error {
	entries, err := server.saves.List()
	if err != nil {
		return err
	}
	server.sink.Infof("Save files:")
	for _, entry := range entries {
		server.sink.Infof("| %s", entry.Name)
	}
	return nil
}

func (server *Server) gameOver([]string) error {
	if !server.engine.IsRoundActive() {
		server.sink.Errorf("Not playing a map.")
		return nil
	}
	server.sink.Infof("Core destroyed.")
	server.round.Cancel()
	server.engine.GameOver("")
	return nil
}
