package main

import (
	"database/sql"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/NikitaCartes-forks/bonk/internal/actionlog"
	"github.com/NikitaCartes-forks/bonk/internal/persistence/indexdb"
	"github.com/NikitaCartes-forks/bonk/internal/sim/world"
)

// adminHandlers serves local-only read endpoints. They never touch world
// state directly, only the metrics snapshot and the action index.
type adminHandlers struct {
	world    *world.World
	registry *actionlog.Registry
	index    *indexdb.SQLiteIndex
	// reader queries the action index; nil when indexing is disabled.
	reader *sql.DB
}

func (h *adminHandlers) register(mux *http.ServeMux) {
	mux.HandleFunc("/admin/v1/state", h.loopbackOnly(h.state))
	mux.HandleFunc("/admin/v1/actions", h.loopbackOnly(h.actions))
}

func (h *adminHandlers) loopbackOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		next(rw, r)
	}
}

func (h *adminHandlers) state(rw http.ResponseWriter, r *http.Request) {
	resp := struct {
		WorldID     string             `json:"world_id"`
		Tick        uint64             `json:"tick"`
		Metrics     world.WorldMetrics `json:"metrics"`
		ActionTypes []string           `json:"action_types"`
		Index       *indexdb.Stats     `json:"index,omitempty"`
	}{
		WorldID:     h.world.ID(),
		Tick:        h.world.CurrentTick(),
		Metrics:     h.world.Metrics(),
		ActionTypes: h.registry.Identifiers(),
	}
	if h.index != nil {
		st := h.index.Stats()
		resp.Index = &st
	}
	writeJSON(rw, http.StatusOK, resp)
}

func (h *adminHandlers) actions(rw http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		writeJSON(rw, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "action index disabled"})
		return
	}
	q := r.URL.Query()
	query := indexdb.Query{
		Action: strings.TrimSpace(q.Get("action")),
		World:  strings.TrimSpace(q.Get("world")),
		Player: strings.TrimSpace(q.Get("player")),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(rw, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad limit"})
			return
		}
		query.Limit = n
	}
	if v := q.Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			writeJSON(rw, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad since"})
			return
		}
		query.Since = time.Now().Add(-d)
	}
	acts, err := indexdb.QueryActions(r.Context(), h.reader, query)
	if err != nil {
		writeJSON(rw, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	if acts == nil {
		acts = []actionlog.Action{}
	}
	writeJSON(rw, http.StatusOK, map[string]any{"ok": true, "actions": acts})
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
