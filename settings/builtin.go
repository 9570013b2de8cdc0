// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package settings

// Names of the built-in settings.
const (
	ServerName         = "name"
	Description        = "desc"
	Port               = "port"
	AutoUpdate         = "autoUpdate"
	StartCommands      = "startCommands"
	Logging            = "logging"
	Debug              = "debug"
	SocketInput        = "socketInput"
	SocketInputPort    = "socketInputPort"
	SocketInputAddress = "socketInputAddress"
	Autosave           = "autosave"
	AutosaveAmount     = "autosaveAmount"
	AutosaveSpacing    = "autosaveSpacing"
	AutoPause          = "autoPause"
	RoundExtraTime     = "roundExtraTime"
	MaxLogLength       = "maxLogLength"
	Whitelist          = "whitelist"
	MessageOfTheDay    = "motd"
)

// Keys stored alongside the settings.
const (
	KeyLastMode    = "lastServerMode"
	KeyShuffleMode = "shufflemode"
	KeyGlobalRules = "globalrules"
)

// Builtin returns the server's setting definitions.
func Builtin() []Definition {
	return []Definition{
		{ServerName, String, StringValue("Server"), "The server name as displayed on clients."},
		{Description, String, StringValue("off"), "The server description, displayed under the name. Max 100 characters."},
		{Port, Int, IntValue(6567), "The port to host on."},
		{AutoUpdate, Bool, BoolValue(false), "Whether to reload the pre-update autosave on startup."},
		{StartCommands, String, StringValue(""), "Comma-separated commands run on startup."},
		{Logging, Bool, BoolValue(true), "Whether to log everything to files."},
		{Debug, Bool, BoolValue(false), "Enable debug logging."},
		{SocketInput, Bool, BoolValue(false), "Allows a local application to control this server through a local TCP socket."},
		{SocketInputPort, Int, IntValue(6859), "The port for socket input."},
		{SocketInputAddress, String, StringValue("localhost"), "The bind address for socket input."},
		{Autosave, Bool, BoolValue(false), "Whether the periodic autosave is enabled."},
		{AutosaveAmount, Int, IntValue(10), "The maximum amount of autosaves. Older ones get replaced."},
		{AutosaveSpacing, Int, IntValue(60 * 5), "Spacing between autosaves in seconds."},
		{AutoPause, Bool, BoolValue(false), "Whether the game should pause when nobody is online."},
		{RoundExtraTime, Int, IntValue(12), "Time after the game ends before the next map loads, in seconds."},
		{MaxLogLength, Int, IntValue(1024 * 1024 * 5), "The maximum log file size, in bytes, before rotating."},
		{Whitelist, Bool, BoolValue(false), "Whether the whitelist is used."},
		{MessageOfTheDay, String, StringValue("off"), "The message displayed to players on join, or off."},
	}
}
