package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/NikitaCartes-forks/bonk/internal/actionlog"
	"github.com/NikitaCartes-forks/bonk/internal/sim/catalogs"
	"github.com/NikitaCartes-forks/bonk/internal/sim/tuning"
)

// SQLiteIndex is a queryable secondary index of the action log. Writes are
// queued to a single writer goroutine and batched into transactions.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan actionlog.Action
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropActionTotal atomic.Uint64
	writeFailTotal  atomic.Uint64

	commitEvery   int
	commitMaxWait time.Duration
}

type Stats struct {
	QueueDepth      int    `json:"queue_depth"`
	QueueCapacity   int    `json:"queue_capacity"`
	DropActionTotal uint64 `json:"drop_action_total"`
	WriteFailTotal  uint64 `json:"write_fail_total"`
}

// tsLayout is fixed width so stored timestamps sort as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// DefaultPath is the index location inside a world directory.
func DefaultPath(worldDir string) string {
	return filepath.Join(worldDir, "index", "actions.sqlite")
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db:            db,
		ch:            make(chan actionlog.Action, 65536),
		commitEvery:   500,
		commitMaxWait: 2 * time.Second,
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-only workload.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS actions (
			id TEXT PRIMARY KEY,
			ts TEXT NOT NULL,
			tick INTEGER NOT NULL,
			action TEXT NOT NULL,
			translation_type TEXT NOT NULL,
			world TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			object_id TEXT NOT NULL,
			source TEXT NOT NULL,
			player_id TEXT,
			player_name TEXT,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_actions_action_ts ON actions(action, ts);`,
		`CREATE INDEX IF NOT EXISTS idx_actions_player_ts ON actions(player_id, ts);`,
		`CREATE INDEX IF NOT EXISTS idx_actions_pos ON actions(world, x, z, y);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteAction enqueues a for indexing. It never blocks: when the writer
// falls behind the action is dropped, the JSONL log remains the source of
// truth.
func (s *SQLiteIndex) WriteAction(a actionlog.Action) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- a:
	default:
		s.dropActionTotal.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:      len(s.ch),
		QueueCapacity:   cap(s.ch),
		DropActionTotal: s.dropActionTotal.Load(),
		WriteFailTotal:  s.writeFailTotal.Load(),
	}
}

// UpsertCatalogs records the catalogs, tuning and extra named configs the
// server runs with, so indexed actions can be read against them.
func (s *SQLiteIndex) UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning, extra map[string]any) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if cats != nil {
		if b, _ := json.Marshal(cats.Items.Defs); len(b) > 0 {
			rows = append(rows, kv{name: "items_defs", digest: cats.Items.DefsDigest, json: b})
		}
		if b, _ := json.Marshal(cats.Items.Palette); len(b) > 0 {
			rows = append(rows, kv{name: "items_palette", digest: cats.Items.PaletteDigest, json: b})
		}
		if b, _ := json.Marshal(cats.Professions.ByID); len(b) > 0 {
			rows = append(rows, kv{name: "professions", digest: cats.Professions.Digest, json: b})
		}
	}
	// Values actually applied, as canonical JSON.
	canon := func(name string, v any) {
		b, err := json.Marshal(v)
		if err != nil {
			return
		}
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: name, digest: hex.EncodeToString(sum[:]), json: b})
	}
	canon("tuning", tune)
	for name, v := range extra {
		canon(name, v)
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertAction, err := s.db.Prepare(`INSERT OR REPLACE INTO actions(id,ts,tick,action,translation_type,world,x,y,z,object_id,source,player_id,player_name,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		// Drain so Close does not block.
		for range s.ch {
			s.writeFailTotal.Add(1)
		}
		return
	}
	defer insertAction.Close()

	var (
		tx      *sql.Tx
		opCount int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			s.writeFailTotal.Add(uint64(opCount))
		}
		tx = nil
		opCount = 0
	}

	write := func(a actionlog.Action) {
		begin()
		if tx == nil {
			s.writeFailTotal.Add(1)
			return
		}
		raw, _ := json.Marshal(a)
		var playerID, playerName sql.NullString
		if p := a.SourceProfile; p != nil {
			playerID = sql.NullString{String: p.ID, Valid: true}
			playerName = sql.NullString{String: p.Name, Valid: true}
		}
		if _, err := tx.Stmt(insertAction).Exec(
			a.ID,
			a.Timestamp.UTC().Format(tsLayout),
			int64(a.Tick),
			a.Identifier,
			a.TranslationType,
			a.World,
			a.Pos[0], a.Pos[1], a.Pos[2],
			a.ObjectIdentifier,
			a.SourceName,
			playerID,
			playerName,
			string(raw),
		); err != nil {
			s.writeFailTotal.Add(1)
			return
		}
		opCount++
		if opCount >= s.commitEvery {
			commit()
		}
	}

	// Actions are sparse, so an open batch is also flushed on a timer.
	flush := time.NewTicker(s.commitMaxWait)
	defer flush.Stop()
	for {
		select {
		case a, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			write(a)
		case <-flush.C:
			commit()
		}
	}
}
