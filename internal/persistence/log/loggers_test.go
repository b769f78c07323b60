package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NikitaCartes-forks/bonk/internal/actionlog"
)

func action(id, ident, player string, ts time.Time) actionlog.Action {
	return actionlog.Action{
		ID:              id,
		Timestamp:       ts,
		Identifier:      ident,
		TranslationType: "entity",
		Pos:             [3]int{1, 64, -3},
		World:           "overworld",
		SourceName:      actionlog.SourcePlayer,
		SourceProfile:   &actionlog.Profile{ID: player, Name: "name-" + player},
	}
}

func TestActionLogger_RotatesHourlyAndReadsBack(t *testing.T) {
	worldDir := t.TempDir()
	l := NewActionLogger(worldDir)
	clock := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	l.w.now = func() time.Time { return clock }

	if err := l.WriteAction(action("a1", "villager-bonk", "P1", clock)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.WriteAction(action("a2", "villager-blam", "P2", clock)); err != nil {
		t.Fatalf("write: %v", err)
	}
	clock = clock.Add(2 * time.Minute)
	if err := l.WriteAction(action("a3", "villager-bonk", "P2", clock)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := ActionFiles(ActionsDir(worldDir))
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "actions-2026-03-01-10.jsonl.zst" || filepath.Base(files[1]) != "actions-2026-03-01-11.jsonl.zst" {
		t.Fatalf("files: %v", files)
	}

	all, err := ReadActions(ActionsDir(worldDir), Filter{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(all) != 3 || all[0].ID != "a1" || all[2].ID != "a3" {
		t.Fatalf("order: %+v", all)
	}
	if all[0].SourceProfile == nil || all[0].SourceProfile.Name != "name-P1" || all[0].Pos != [3]int{1, 64, -3} {
		t.Fatalf("round trip: %+v", all[0])
	}

	bonks, _ := ReadActions(ActionsDir(worldDir), Filter{Action: "villager-bonk", Player: "P2"})
	if len(bonks) != 1 || bonks[0].ID != "a3" {
		t.Fatalf("filtered: %+v", bonks)
	}
	byName, _ := ReadActions(ActionsDir(worldDir), Filter{Player: "NAME-P1"})
	if len(byName) != 1 {
		t.Fatalf("by name: %+v", byName)
	}
	late, _ := ReadActions(ActionsDir(worldDir), Filter{Since: clock})
	if len(late) != 1 || late[0].ID != "a3" {
		t.Fatalf("since: %+v", late)
	}
}

func TestScanActions_Stop(t *testing.T) {
	worldDir := t.TempDir()
	l := NewActionLogger(worldDir)
	now := time.Now().UTC()
	for _, id := range []string{"a1", "a2", "a3"} {
		_ = l.WriteAction(action(id, "villager-bonk", "P1", now))
	}
	_ = l.Close()

	n := 0
	err := ScanActions(ActionsDir(worldDir), Filter{}, func(actionlog.Action) error {
		n++
		if n == 2 {
			return ErrStop
		}
		return nil
	})
	if err != nil || n != 2 {
		t.Fatalf("scan: n=%d err=%v", n, err)
	}
}

func TestActionFiles_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "audit-2026-01-01-00.jsonl.zst"), nil, 0o644)
	files, err := ActionFiles(dir)
	if err != nil || len(files) != 0 {
		t.Fatalf("files: %v err=%v", files, err)
	}
	if _, err := ActionFiles(filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}
