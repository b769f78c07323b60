package indexdb

import (
	"context"
	"testing"
	"time"

	"github.com/NikitaCartes-forks/bonk/internal/actionlog"
	"github.com/NikitaCartes-forks/bonk/internal/sim/catalogs"
	"github.com/NikitaCartes-forks/bonk/internal/sim/tuning"
)

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan actionlog.Action, 1)}
	s.ch <- actionlog.Action{ID: "a1"}

	_ = s.WriteAction(actionlog.Action{ID: "a2"})
	_ = s.WriteAction(actionlog.Action{ID: "a3"})

	st := s.Stats()
	if st.DropActionTotal != 2 {
		t.Fatalf("DropActionTotal=%d want=2", st.DropActionTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestSQLiteIndex_WriteAndQuery(t *testing.T) {
	path := DefaultPath(t.TempDir())
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	if err := idx.UpsertCatalogs(cats, tuning.Defaults(), map[string]any{"bonk": map[string]int{"unconscious_ticks": 60}}); err != nil {
		t.Fatalf("upsert catalogs: %v", err)
	}

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	acts := []actionlog.Action{
		{ID: "a1", Timestamp: base, Tick: 10, Identifier: "villager-bonk", TranslationType: "entity", World: "overworld", Pos: [3]int{0, 64, 0}, ObjectIdentifier: "VILLAGER", SourceName: "player", SourceProfile: &actionlog.Profile{ID: "P1", Name: "Alex"}},
		{ID: "a2", Timestamp: base.Add(time.Minute), Tick: 20, Identifier: "villager-blam", TranslationType: "entity", World: "overworld", Pos: [3]int{50, 64, 50}, ObjectIdentifier: "VILLAGER", SourceName: "player", SourceProfile: &actionlog.Profile{ID: "P2", Name: "Steve"}},
		{ID: "a3", Timestamp: base.Add(2 * time.Minute), Tick: 30, Identifier: "villager-bonk", TranslationType: "entity", World: "nether", Pos: [3]int{2, 64, -1}, ObjectIdentifier: "VILLAGER", SourceName: "world"},
	}
	for _, a := range acts {
		if err := idx.WriteAction(a); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := idx.WriteAction(acts[0]); err != nil {
		t.Fatalf("write after close should be a no-op: %v", err)
	}

	db, err := OpenReader(path)
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	all, err := QueryActions(ctx, db, Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 || all[0].ID != "a3" || all[2].ID != "a1" {
		t.Fatalf("newest first: %+v", all)
	}
	if all[2].SourceProfile == nil || all[2].SourceProfile.Name != "Alex" || all[2].Tick != 10 {
		t.Fatalf("round trip: %+v", all[2])
	}

	cases := []struct {
		name string
		q    Query
		want []string
	}{
		{"by action", Query{Action: "villager-bonk"}, []string{"a3", "a1"}},
		{"by player name", Query{Player: "steve"}, []string{"a2"}},
		{"by player id", Query{Player: "P1"}, []string{"a1"}},
		{"by world", Query{World: "nether"}, []string{"a3"}},
		{"near", Query{Near: &[3]int{0, 64, 0}, Radius: 3}, []string{"a3", "a1"}},
		{"since", Query{Since: base.Add(time.Minute)}, []string{"a3", "a2"}},
		{"limit", Query{Limit: 1}, []string{"a3"}},
	}
	for _, tc := range cases {
		got, err := QueryActions(ctx, db, tc.q)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("%s: got %d want %d", tc.name, len(got), len(tc.want))
		}
		for i := range got {
			if got[i].ID != tc.want[i] {
				t.Fatalf("%s: got %s at %d want %s", tc.name, got[i].ID, i, tc.want[i])
			}
		}
	}

	counts, err := CountByAction(ctx, db)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts["villager-bonk"] != 2 || counts["villager-blam"] != 1 {
		t.Fatalf("counts: %v", counts)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM catalogs`).Scan(&n); err != nil || n != 5 {
		t.Fatalf("catalog rows: n=%d err=%v", n, err)
	}
}

func TestSQLiteIndex_LoneActionCommitsWithoutClose(t *testing.T) {
	path := DefaultPath(t.TempDir())
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })

	a := actionlog.Action{ID: "lone", Timestamp: time.Now().UTC(), Tick: 1, Identifier: "villager-bonk", TranslationType: "entity", World: "overworld", ObjectIdentifier: "VILLAGER", SourceName: "player"}
	if err := idx.WriteAction(a); err != nil {
		t.Fatalf("write: %v", err)
	}

	db, err := OpenReader(path)
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer db.Close()

	deadline := time.Now().Add(3 * idx.commitMaxWait)
	for {
		got, err := QueryActions(context.Background(), db, Query{})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(got) == 1 && got[0].ID == "lone" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("lone action not visible after %s: got %d", 3*idx.commitMaxWait, len(got))
		}
		time.Sleep(100 * time.Millisecond)
	}
}
