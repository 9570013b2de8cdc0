// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package admin is the player administration database: per-player
// records (last name and address, admin and whitelist flags, bans,
// join and kick counters), banned addresses, and the player limit.
// It is backed by SQLite through lib/sqlitepool.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/arena/lib/sqlitepool"
)

const schema = `
CREATE TABLE IF NOT EXISTS players (
	id           TEXT PRIMARY KEY,
	last_name    TEXT NOT NULL DEFAULT '',
	last_ip      TEXT NOT NULL DEFAULT '',
	admin        INTEGER NOT NULL DEFAULT 0,
	whitelisted  INTEGER NOT NULL DEFAULT 0,
	banned       INTEGER NOT NULL DEFAULT 0,
	times_joined INTEGER NOT NULL DEFAULT 0,
	times_kicked INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS players_last_name ON players (last_name COLLATE NOCASE);
CREATE TABLE IF NOT EXISTS ip_bans (
	ip TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const playerColumns = `id, last_name, last_ip, admin, whitelisted, banned, times_joined, times_kicked`

// PlayerInfo is the stored record for one player ID.
type PlayerInfo struct {
	ID          string
	LastName    string
	LastIP      string
	Admin       bool
	Whitelisted bool
	Banned      bool
	TimesJoined int
	TimesKicked int
}

// Config describes the database. Path is required.
type Config struct {
	Path   string
	Logger *slog.Logger
}

// Store is safe for concurrent use.
type Store struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger
}

// Open opens or creates the database and its schema.
func Open(cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: 2,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("admin store: %w", err)
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.pool.Close()
}

// exec runs a statement and returns the number of rows changed.
func (s *Store) exec(ctx context.Context, query string, args ...any) (int, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("admin store: %w", err)
	}
	defer s.pool.Put(conn)

	if err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args}); err != nil {
		return 0, fmt.Errorf("admin store: %w", err)
	}
	return conn.Changes(), nil
}

func (s *Store) queryPlayers(ctx context.Context, where string, args ...any) ([]PlayerInfo, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin store: %w", err)
	}
	defer s.pool.Put(conn)

	var players []PlayerInfo
	err = sqlitex.Execute(conn, "SELECT "+playerColumns+" FROM players "+where, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			players = append(players, PlayerInfo{
				ID:          stmt.ColumnText(0),
				LastName:    stmt.ColumnText(1),
				LastIP:      stmt.ColumnText(2),
				Admin:       stmt.ColumnInt64(3) != 0,
				Whitelisted: stmt.ColumnInt64(4) != 0,
				Banned:      stmt.ColumnInt64(5) != 0,
				TimesJoined: int(stmt.ColumnInt64(6)),
				TimesKicked: int(stmt.ColumnInt64(7)),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("admin store: %w", err)
	}
	return players, nil
}

func (s *Store) ensurePlayer(ctx context.Context, id string) error {
	_, err := s.exec(ctx, `INSERT INTO players (id) VALUES (?) ON CONFLICT (id) DO NOTHING`, id)
	return err
}

// RecordJoin creates or updates the player's record for a connection
// and counts the join.
func (s *Store) RecordJoin(ctx context.Context, id, name, ip string) error {
	_, err := s.exec(ctx, `
		INSERT INTO players (id, last_name, last_ip, times_joined) VALUES (?, ?, ?, 1)
		ON CONFLICT (id) DO UPDATE SET
			last_name = excluded.last_name,
			last_ip = excluded.last_ip,
			times_joined = times_joined + 1`,
		id, name, ip)
	return err
}

// RecordKick counts a kick against the player.
func (s *Store) RecordKick(ctx context.Context, id string) error {
	_, err := s.exec(ctx, `UPDATE players SET times_kicked = times_kicked + 1 WHERE id = ?`, id)
	return err
}

// Info returns the record for id.
func (s *Store) Info(ctx context.Context, id string) (PlayerInfo, bool, error) {
	players, err := s.queryPlayers(ctx, "WHERE id = ?", id)
	if err != nil || len(players) == 0 {
		return PlayerInfo{}, false, err
	}
	return players[0], true, nil
}

// FindByName returns players whose last name matches, ignoring case.
func (s *Store) FindByName(ctx context.Context, name string) ([]PlayerInfo, error) {
	return s.queryPlayers(ctx, "WHERE last_name = ? COLLATE NOCASE ORDER BY id", name)
}

// FindByIP returns players last seen connecting from ip.
func (s *Store) FindByIP(ctx context.Context, ip string) ([]PlayerInfo, error) {
	return s.queryPlayers(ctx, "WHERE last_ip = ? ORDER BY id", ip)
}

// BanID bans a player ID, creating its record if needed. It reports
// false when the ID was already banned.
func (s *Store) BanID(ctx context.Context, id string) (bool, error) {
	if err := s.ensurePlayer(ctx, id); err != nil {
		return false, err
	}
	changed, err := s.exec(ctx, `UPDATE players SET banned = 1 WHERE id = ? AND banned = 0`, id)
	if err == nil && changed > 0 {
		s.logger.Info("player banned", "player_id", id)
	}
	return changed > 0, err
}

// UnbanID lifts a ban on a player ID. It reports false when the ID
// was not banned.
func (s *Store) UnbanID(ctx context.Context, id string) (bool, error) {
	changed, err := s.exec(ctx, `UPDATE players SET banned = 0 WHERE id = ? AND banned = 1`, id)
	return changed > 0, err
}

// BanIP bans an address. It reports false when already banned.
func (s *Store) BanIP(ctx context.Context, ip string) (bool, error) {
	changed, err := s.exec(ctx, `INSERT INTO ip_bans (ip) VALUES (?) ON CONFLICT (ip) DO NOTHING`, ip)
	if err == nil && changed > 0 {
		s.logger.Info("address banned", "ip", ip)
	}
	return changed > 0, err
}

// UnbanIP lifts an address ban. It reports false when the address was
// not banned.
func (s *Store) UnbanIP(ctx context.Context, ip string) (bool, error) {
	changed, err := s.exec(ctx, `DELETE FROM ip_bans WHERE ip = ?`, ip)
	return changed > 0, err
}

// IsBanned reports whether the player ID or the address is banned.
func (s *Store) IsBanned(ctx context.Context, id, ip string) (bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return false, fmt.Errorf("admin store: %w", err)
	}
	defer s.pool.Put(conn)

	banned := false
	err = sqlitex.Execute(conn, `
		SELECT 1 FROM players WHERE id = ? AND banned = 1
		UNION ALL
		SELECT 1 FROM ip_bans WHERE ip = ?
		LIMIT 1`,
		&sqlitex.ExecOptions{
			Args: []any{id, ip},
			ResultFunc: func(*sqlite.Stmt) error {
				banned = true
				return nil
			},
		})
	if err != nil {
		return false, fmt.Errorf("admin store: %w", err)
	}
	return banned, nil
}

// Bans returns every banned player record.
func (s *Store) Bans(ctx context.Context) ([]PlayerInfo, error) {
	return s.queryPlayers(ctx, "WHERE banned = 1 ORDER BY id")
}

// BannedIPs returns every banned address.
func (s *Store) BannedIPs(ctx context.Context) ([]string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin store: %w", err)
	}
	defer s.pool.Put(conn)

	var ips []string
	err = sqlitex.Execute(conn, `SELECT ip FROM ip_bans ORDER BY ip`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			ips = append(ips, stmt.ColumnText(0))
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("admin store: %w", err)
	}
	return ips, nil
}

// SetAdmin grants or revokes admin status, creating the record if
// needed. It reports false when the flag already had that value.
func (s *Store) SetAdmin(ctx context.Context, id string, admin bool) (bool, error) {
	if err := s.ensurePlayer(ctx, id); err != nil {
		return false, err
	}
	changed, err := s.exec(ctx, `UPDATE players SET admin = ? WHERE id = ? AND admin != ?`,
		boolInt(admin), id, boolInt(admin))
	return changed > 0, err
}

// Admins returns every admin record.
func (s *Store) Admins(ctx context.Context) ([]PlayerInfo, error) {
	return s.queryPlayers(ctx, "WHERE admin = 1 ORDER BY id")
}

// SetWhitelisted adds or removes a player ID from the whitelist. It
// reports false when nothing changed.
func (s *Store) SetWhitelisted(ctx context.Context, id string, whitelisted bool) (bool, error) {
	if err := s.ensurePlayer(ctx, id); err != nil {
		return false, err
	}
	changed, err := s.exec(ctx, `UPDATE players SET whitelisted = ? WHERE id = ? AND whitelisted != ?`,
		boolInt(whitelisted), id, boolInt(whitelisted))
	return changed > 0, err
}

// Whitelisted returns every whitelisted record.
func (s *Store) Whitelisted(ctx context.Context) ([]PlayerInfo, error) {
	return s.queryPlayers(ctx, "WHERE whitelisted = 1 ORDER BY id")
}

// PlayerLimit returns the configured limit; 0 means unlimited.
func (s *Store) PlayerLimit(ctx context.Context) (int, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("admin store: %w", err)
	}
	defer s.pool.Put(conn)

	value := ""
	err = sqlitex.Execute(conn, `SELECT value FROM meta WHERE key = 'player_limit'`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			value = stmt.ColumnText(0)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("admin store: %w", err)
	}
	if value == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("admin store: player_limit %q: %w", value, err)
	}
	return limit, nil
}

// SetPlayerLimit stores the limit; 0 or less disables it.
func (s *Store) SetPlayerLimit(ctx context.Context, limit int) error {
	if limit < 0 {
		limit = 0
	}
	_, err := s.exec(ctx, `
		INSERT INTO meta (key, value) VALUES ('player_limit', ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		strconv.Itoa(limit))
	return err
}

// Checkpoint folds the write-ahead log back into the database file.
func (s *Store) Checkpoint(ctx context.Context) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("admin store: %w", err)
	}
	defer s.pool.Put(conn)
	if err := sqlitex.ExecuteTransient(conn, "PRAGMA wal_checkpoint(PASSIVE)", nil); err != nil {
		return fmt.Errorf("admin store: checkpoint: %w", err)
	}
	return nil
}

func boolInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
