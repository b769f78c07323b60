package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NikitaCartes-forks/bonk/internal/actionlog"
	"github.com/NikitaCartes-forks/bonk/internal/bonk"
	"github.com/NikitaCartes-forks/bonk/internal/persistence/indexdb"
	"github.com/NikitaCartes-forks/bonk/internal/sim/catalogs"
	"github.com/NikitaCartes-forks/bonk/internal/sim/world"
)

func newTestAdmin(t *testing.T, withIndex bool) (*adminHandlers, *http.ServeMux) {
	t.Helper()
	cats, err := catalogs.Load("../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	w, err := world.New(world.WorldConfig{ID: "overworld", VillagerCount: 2}, cats)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	reg := actionlog.NewRegistry()
	if err := bonk.RegisterActionTypes(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	w.StepOnce()

	h := &adminHandlers{world: w, registry: reg}
	if withIndex {
		path := indexdb.DefaultPath(t.TempDir())
		idx, err := indexdb.OpenSQLite(path)
		if err != nil {
			t.Fatalf("open index: %v", err)
		}
		now := time.Now().UTC()
		_ = idx.WriteAction(actionlog.Action{ID: "a1", Timestamp: now, Identifier: bonk.BonkIdentifier, TranslationType: "entity", World: "overworld", SourceName: "player", SourceProfile: &actionlog.Profile{ID: "P1", Name: "alex"}})
		_ = idx.WriteAction(actionlog.Action{ID: "a2", Timestamp: now, Identifier: bonk.BlamIdentifier, TranslationType: "entity", World: "overworld", SourceName: "player", SourceProfile: &actionlog.Profile{ID: "P2", Name: "steve"}})
		if err := idx.Close(); err != nil {
			t.Fatalf("close index: %v", err)
		}
		db, err := indexdb.OpenReader(path)
		if err != nil {
			t.Fatalf("open reader: %v", err)
		}
		t.Cleanup(func() { _ = db.Close() })
		h.index = idx
		h.reader = db
	}
	mux := http.NewServeMux()
	h.register(mux)
	return h, mux
}

func get(mux *http.ServeMux, url, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, url, nil)
	req.RemoteAddr = remote
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestAdminState(t *testing.T) {
	_, mux := newTestAdmin(t, true)

	rr := get(mux, "/admin/v1/state", "127.0.0.1:5555")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: %d body=%s", rr.Code, rr.Body.String())
	}
	var resp struct {
		WorldID     string             `json:"world_id"`
		Metrics     world.WorldMetrics `json:"metrics"`
		ActionTypes []string           `json:"action_types"`
		Index       *indexdb.Stats     `json:"index"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.WorldID != "overworld" || resp.Metrics.Villagers != 2 || len(resp.ActionTypes) != 2 || resp.Index == nil {
		t.Fatalf("state: %+v", resp)
	}
}

func TestAdmin_RejectsRemote(t *testing.T) {
	_, mux := newTestAdmin(t, false)
	for _, url := range []string{"/admin/v1/state", "/admin/v1/actions"} {
		if rr := get(mux, url, "10.1.2.3:4444"); rr.Code != http.StatusForbidden {
			t.Fatalf("%s: status %d", url, rr.Code)
		}
	}
}

func TestAdminActions(t *testing.T) {
	_, mux := newTestAdmin(t, true)

	rr := get(mux, "/admin/v1/actions?player=steve", "[::1]:5555")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: %d body=%s", rr.Code, rr.Body.String())
	}
	var resp struct {
		OK      bool               `json:"ok"`
		Actions []actionlog.Action `json:"actions"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || len(resp.Actions) != 1 || resp.Actions[0].Identifier != bonk.BlamIdentifier {
		t.Fatalf("actions: %+v", resp)
	}

	if rr := get(mux, "/admin/v1/actions?limit=-1", "127.0.0.1:1"); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: %d", rr.Code)
	}
	if rr := get(mux, "/admin/v1/actions?since=yesterday", "127.0.0.1:1"); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad since: %d", rr.Code)
	}
}

func TestAdminActions_IndexDisabled(t *testing.T) {
	_, mux := newTestAdmin(t, false)
	if rr := get(mux, "/admin/v1/actions", "127.0.0.1:1"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: %d", rr.Code)
	}
}

func TestConfigPath(t *testing.T) {
	if got := configPath("", "cfg", "bonk.yaml"); got != "cfg/bonk.yaml" {
		t.Fatalf("default: %s", got)
	}
	if got := configPath(" /etc/bonk.yaml ", "cfg", "bonk.yaml"); got != "/etc/bonk.yaml" {
		t.Fatalf("override: %s", got)
	}
}
