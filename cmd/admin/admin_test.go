package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/NikitaCartes-forks/bonk/internal/actionlog"
	"github.com/NikitaCartes-forks/bonk/internal/persistence/indexdb"
	persistlog "github.com/NikitaCartes-forks/bonk/internal/persistence/log"
)

func seedWorld(t *testing.T) string {
	t.Helper()
	dataDir := t.TempDir()
	worldDir := filepath.Join(dataDir, "worlds", "overworld")

	jl := persistlog.NewActionLogger(worldDir)
	idx, err := indexdb.OpenSQLite(indexdb.DefaultPath(worldDir))
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	api := actionlog.NewAPI(actionlog.NewRegistry(), nil, jl, idx)
	if err := api.Registry().Register(func() actionlog.ActionType { return testType("villager-bonk") }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := api.Registry().Register(func() actionlog.ActionType { return testType("villager-blam") }); err != nil {
		t.Fatalf("register: %v", err)
	}

	rows := []struct {
		id, player string
		pos        [3]int
	}{
		{"villager-bonk", "alex", [3]int{0, 64, 0}},
		{"villager-blam", "steve", [3]int{40, 64, 40}},
		{"villager-bonk", "steve", [3]int{2, 64, 2}},
	}
	for i, r := range rows {
		act := actionlog.Action{
			Identifier:      r.id,
			TranslationType: "entity",
			Tick:            uint64(i),
			Pos:             r.pos,
			World:           "overworld",
			SourceName:      actionlog.SourcePlayer,
			SourceProfile:   &actionlog.Profile{ID: "P" + r.player, Name: r.player},
			Timestamp:       time.Now().UTC().Add(time.Duration(i) * time.Millisecond),
		}
		if err := api.LogAction(act); err != nil {
			t.Fatalf("log: %v", err)
		}
	}
	_ = jl.Close()
	_ = idx.Close()
	return dataDir
}

type testType string

func (t testType) Identifier() string      { return string(t) }
func (t testType) TranslationType() string { return "entity" }

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decodeLines(t *testing.T, s string) []actionlog.Action {
	t.Helper()
	var out []actionlog.Action
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		if line == "" {
			continue
		}
		var a actionlog.Action
		if err := json.Unmarshal([]byte(line), &a); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		out = append(out, a)
	}
	return out
}

func TestActionsScan(t *testing.T) {
	data := seedWorld(t)

	out, err := run(t, "actions", "scan", "--data", data)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	acts := decodeLines(t, out)
	if len(acts) != 3 || acts[0].SourceProfile.Name != "alex" {
		t.Fatalf("scan: %+v", acts)
	}

	out, _ = run(t, "actions", "scan", "--data", data, "--player", "steve", "--action", "villager-bonk")
	if acts := decodeLines(t, out); len(acts) != 1 || acts[0].Tick != 2 {
		t.Fatalf("filtered: %+v", acts)
	}

	out, _ = run(t, "actions", "scan", "--data", data, "--limit", "1")
	if acts := decodeLines(t, out); len(acts) != 1 {
		t.Fatalf("limit: %+v", acts)
	}
}

func TestActionsSearch(t *testing.T) {
	data := seedWorld(t)

	out, err := run(t, "actions", "search", "--data", data, "--player", "steve")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	acts := decodeLines(t, out)
	if len(acts) != 2 || acts[0].Tick != 2 {
		t.Fatalf("newest first: %+v", acts)
	}

	out, err = run(t, "actions", "search", "--data", data, "--near", "0,64,0", "--radius", "4")
	if err != nil {
		t.Fatalf("near: %v", err)
	}
	if acts := decodeLines(t, out); len(acts) != 2 {
		t.Fatalf("near: %+v", acts)
	}

	if _, err := run(t, "actions", "search", "--data", data, "--near", "0,64"); err == nil {
		t.Fatalf("expected error for bad --near")
	}
	if _, err := run(t, "actions", "search", "--data", t.TempDir()); err == nil {
		t.Fatalf("expected error for missing index")
	}
}

func TestActionsTypes(t *testing.T) {
	data := seedWorld(t)
	out, err := run(t, "actions", "types", "--data", data)
	if err != nil {
		t.Fatalf("types: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("types: %q", out)
	}
	var row struct {
		Identifier      string `json:"action"`
		TranslationType string `json:"translation_type"`
		Indexed         int    `json:"indexed"`
	}
	_ = json.Unmarshal([]byte(lines[1]), &row)
	if row.Identifier != "villager-bonk" || row.TranslationType != "entity" || row.Indexed != 2 {
		t.Fatalf("row: %+v", row)
	}
}

func TestStateCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/v1/state" {
			http.NotFound(rw, r)
			return
		}
		_, _ = rw.Write([]byte(`{"world_id":"overworld"}`))
	}))
	defer srv.Close()

	out, err := run(t, "state", "--url", srv.URL+"/")
	if err != nil || !strings.Contains(out, `"world_id":"overworld"`) {
		t.Fatalf("state: out=%q err=%v", out, err)
	}
}
