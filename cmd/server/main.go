package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NikitaCartes-forks/bonk/internal/actionlog"
	"github.com/NikitaCartes-forks/bonk/internal/bonk"
	"github.com/NikitaCartes-forks/bonk/internal/metrics"
	"github.com/NikitaCartes-forks/bonk/internal/persistence/indexdb"
	persistlog "github.com/NikitaCartes-forks/bonk/internal/persistence/log"
	"github.com/NikitaCartes-forks/bonk/internal/protocol"
	"github.com/NikitaCartes-forks/bonk/internal/sim/catalogs"
	"github.com/NikitaCartes-forks/bonk/internal/sim/tuning"
	"github.com/NikitaCartes-forks/bonk/internal/sim/world"
	"github.com/NikitaCartes-forks/bonk/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "overworld", "world id")
		seed       = flag.Int64("seed", 1337, "world seed")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		bonkPath   = flag.String("bonk", "", "path to bonk.yaml (default: <configs>/bonk.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite action index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)
	modLogger := log.New(os.Stdout, "[bonk] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	tune, err := tuning.Load(configPath(*tuningPath, *configDir, "tuning.yaml"))
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}
	bonkCfg, err := bonk.Load(configPath(*bonkPath, *configDir, "bonk.yaml"))
	if errors.Is(err, os.ErrNotExist) {
		logger.Printf("bonk.yaml not found; using defaults")
		bonkCfg = bonk.Defaults()
	} else if err != nil {
		logger.Fatalf("load bonk config: %v", err)
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	if err := os.MkdirAll(worldDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	actionLog := persistlog.NewActionLogger(worldDir)
	defer actionLog.Close()
	sinks := []actionlog.Sink{actionLog}

	// Optional: queryable index (JSONL stays the source of truth).
	idx, err := openRuntimeIndex(worldDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	var reader *sql.DB
	if idx != nil {
		defer idx.Close()
		sinks = append(sinks, idx)
		if err := idx.UpsertCatalogs(cats, tune, map[string]any{"bonk": bonkCfg}); err != nil {
			logger.Printf("index backend: upsert catalogs: %v", err)
		}
		if reader, err = indexdb.OpenReader(indexdb.DefaultPath(worldDir)); err != nil {
			logger.Printf("index backend: open reader: %v", err)
		} else {
			defer reader.Close()
		}
	}

	registry := actionlog.NewRegistry()
	api := actionlog.NewAPI(registry, logger, sinks...)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	w, err := world.New(world.WorldConfig{
		ID:                       *worldID,
		TickRateHz:               tune.TickRateHz,
		ObsRadius:                tune.ObsRadius,
		AttackReach:              tune.AttackReach,
		Seed:                     *seed,
		AgentMaxHP:               tune.AgentMaxHP,
		VillagerMaxHP:            tune.VillagerMaxHP,
		DefaultAttackDamage:      tune.DefaultAttackDamage,
		VillagerCount:            tune.VillagerCount,
		VillagerWanderEveryTicks: tune.VillagerWanderEveryTicks,
		VillagerHomeRadius:       tune.VillagerHomeRadius,
		StarterItems:             tune.StarterItems,
	}, cats)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	bonk.New(bonkCfg, api, modLogger, m).Init(w)
	metrics.RegisterWorld(reg, w)

	validator, err := protocol.NewValidator()
	if err != nil {
		logger.Fatalf("protocol schemas: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	if envBool("VC_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()) {
		admin := &adminHandlers{world: w, registry: registry, index: idx, reader: reader}
		admin.register(mux)
	} else {
		logger.Printf("admin endpoints disabled (VC_ENABLE_ADMIN_HTTP=false)")
	}
	if envBool("VC_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(w, logger, validator).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s world=%s", *addr, *worldID)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func configPath(flagVal, configDir, name string) string {
	if p := strings.TrimSpace(flagVal); p != "" {
		return p
	}
	return filepath.Join(configDir, name)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
