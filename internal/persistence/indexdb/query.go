package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/NikitaCartes-forks/bonk/internal/actionlog"
)

// Query selects indexed actions. Zero fields match everything.
type Query struct {
	Action string
	World  string
	// Player matches the source player id or name.
	Player string
	Since  time.Time
	Until  time.Time

	// Near with Radius restricts to a horizontal box around a block.
	Near   *[3]int
	Radius int

	Limit int
}

// OpenReader opens an index for queries. The server may still be writing.
func OpenReader(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// QueryActions returns matching actions, newest first.
func QueryActions(ctx context.Context, db *sql.DB, q Query) ([]actionlog.Action, error) {
	var (
		where []string
		args  []any
	)
	if q.Action != "" {
		where = append(where, "action = ?")
		args = append(args, q.Action)
	}
	if q.World != "" {
		where = append(where, "world = ?")
		args = append(args, q.World)
	}
	if q.Player != "" {
		where = append(where, "(player_id = ? OR player_name = ? COLLATE NOCASE)")
		args = append(args, q.Player, q.Player)
	}
	if !q.Since.IsZero() {
		where = append(where, "ts >= ?")
		args = append(args, q.Since.UTC().Format(tsLayout))
	}
	if !q.Until.IsZero() {
		where = append(where, "ts <= ?")
		args = append(args, q.Until.UTC().Format(tsLayout))
	}
	if q.Near != nil {
		r := q.Radius
		if r < 0 {
			r = 0
		}
		where = append(where, "x BETWEEN ? AND ?", "z BETWEEN ? AND ?")
		args = append(args, q.Near[0]-r, q.Near[0]+r, q.Near[2]-r, q.Near[2]+r)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	stmt := "SELECT raw_json FROM actions"
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY ts DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	var out []actionlog.Action
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var a actionlog.Action
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return nil, fmt.Errorf("decode action: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountByAction returns the number of indexed actions per identifier.
func CountByAction(ctx context.Context, db *sql.DB) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT action, COUNT(*) FROM actions GROUP BY action`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}
