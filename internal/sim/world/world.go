package world

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/NikitaCartes-forks/bonk/internal/protocol"
	"github.com/NikitaCartes-forks/bonk/internal/sim/catalogs"
)

type WorldConfig struct {
	ID          string
	TickRateHz  int
	ObsRadius   int
	AttackReach int
	Seed        int64

	AgentMaxHP          int
	VillagerMaxHP       int
	DefaultAttackDamage int

	VillagerCount            int
	VillagerWanderEveryTicks int
	VillagerHomeRadius       int

	StarterItems map[string]int

	// Replica marks a non-authoritative copy of a world (e.g. replay). Mods
	// must not mutate entities in a replica.
	Replica bool
}

type JoinRequest struct {
	Name string
	Out  chan []byte
	Resp chan JoinResponse
}

type AttachRequest struct {
	ResumeToken string
	Out         chan []byte
	Resp        chan JoinResponse
}

type JoinResponse struct {
	Welcome  protocol.WelcomeMsg
	Catalogs []protocol.CatalogMsg
}

type ActionEnvelope struct {
	AgentID string
	Act     protocol.ActMsg
}

// World is a single-threaded authoritative simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg      WorldConfig
	catalogs *catalogs.Catalogs

	tick atomic.Uint64

	agents    map[string]*Agent
	clients   map[string]*clientState
	villagers map[string]*Villager

	inbox  chan ActionEnvelope
	join   chan JoinRequest
	attach chan AttachRequest
	leave  chan string
	stop   chan struct{}

	nextAgentNum    atomic.Uint64
	nextVillagerNum atomic.Uint64

	attackCallbacks []AttackCallback
	startingHooks   []func(*World)
	started         bool

	// Optional (may be nil).
	feedbackSink FeedbackSink

	feedbackThisTick []Feedback

	metrics atomic.Value // WorldMetrics
}

type clientState struct {
	Out chan []byte
}

func New(cfg WorldConfig, cats *catalogs.Catalogs) (*World, error) {
	if cats == nil {
		return nil, fmt.Errorf("nil catalogs")
	}
	if cfg.ID == "" {
		return nil, fmt.Errorf("empty world id")
	}
	if cfg.TickRateHz <= 0 {
		cfg.TickRateHz = 20
	}
	if cfg.AttackReach <= 0 {
		cfg.AttackReach = 3
	}
	if cfg.AgentMaxHP <= 0 {
		cfg.AgentMaxHP = 20
	}
	if cfg.VillagerMaxHP <= 0 {
		cfg.VillagerMaxHP = 20
	}
	if cfg.DefaultAttackDamage <= 0 {
		cfg.DefaultAttackDamage = 1
	}

	w := &World{
		cfg:       cfg,
		catalogs:  cats,
		agents:    map[string]*Agent{},
		clients:   map[string]*clientState{},
		villagers: map[string]*Villager{},
		inbox:     make(chan ActionEnvelope, 1024),
		join:      make(chan JoinRequest, 64),
		attach:    make(chan AttachRequest, 64),
		leave:     make(chan string, 64),
		stop:      make(chan struct{}),
	}
	w.spawnInitialVillagers()
	return w, nil
}

func (w *World) ID() string                   { return w.cfg.ID }
func (w *World) Config() WorldConfig          { return w.cfg }
func (w *World) Catalogs() *catalogs.Catalogs { return w.catalogs }

// IsServer reports whether this world is the authoritative copy.
func (w *World) IsServer() bool { return !w.cfg.Replica }

func (w *World) Inbox() chan<- ActionEnvelope { return w.inbox }
func (w *World) Join() chan<- JoinRequest     { return w.join }
func (w *World) Attach() chan<- AttachRequest { return w.attach }
func (w *World) Leave() chan<- string         { return w.leave }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) Run(ctx context.Context) error {
	w.Start()

	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingActions []ActionEnvelope
	var pendingJoins []JoinRequest
	var pendingLeaves []string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			pendingJoins = append(pendingJoins, req)
		case req := <-w.attach:
			w.handleAttach(req)
		case id := <-w.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-w.inbox:
			pendingActions = append(pendingActions, env)
		case <-ticker.C:
			w.step(pendingJoins, pendingLeaves, pendingActions)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingActions = pendingActions[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// StepOnce advances one tick with the given actions. Test helper; the world
// must not be running.
func (w *World) StepOnce(actions ...ActionEnvelope) {
	w.Start()
	w.step(nil, nil, actions)
}

func (w *World) step(joins []JoinRequest, leaves []string, actions []ActionEnvelope) {
	stepStart := time.Now()
	nowTick := w.tick.Load()
	w.feedbackThisTick = w.feedbackThisTick[:0]

	for _, id := range leaves {
		w.handleLeave(id)
	}
	for _, req := range joins {
		resp := w.joinAgent(req.Name, req.Out)
		if req.Resp != nil {
			req.Resp <- resp
		}
	}

	// Apply actions in inbox order.
	for _, env := range actions {
		a := w.agents[env.AgentID]
		if a == nil {
			continue
		}
		for _, inst := range env.Act.Instants {
			w.applyInstant(a, inst, nowTick)
		}
	}

	w.systemVillagers(nowTick)

	for id, a := range w.agents {
		cl := w.clients[id]
		if cl == nil {
			a.Events = nil
			continue
		}
		obs := w.buildObs(a, nowTick)
		b, err := json.Marshal(obs)
		if err != nil {
			continue
		}
		sendLatest(cl.Out, b)
	}

	stepMS := float64(time.Since(stepStart).Microseconds()) / 1000.0
	nextTick := w.tick.Add(1)
	w.storeMetrics(nextTick, stepMS)
}

// AddAgent places a new player at pos. Used by joins and tests.
func (w *World) AddAgent(name string, pos Vec3i) *Agent {
	if strings.TrimSpace(name) == "" {
		name = "player"
	}
	idNum := w.nextAgentNum.Add(1)
	a := &Agent{
		ID:        fmt.Sprintf("P%d", idNum),
		Name:      name,
		Pos:       pos,
		HP:        w.cfg.AgentMaxHP,
		Inventory: map[string]int{},
	}
	for item, n := range w.cfg.StarterItems {
		if _, ok := w.catalogs.Items.Defs[item]; ok && n > 0 {
			a.Inventory[item] = n
		}
	}
	w.agents[a.ID] = a
	return a
}

// SpawnVillager adds a villager at pos with the given profession ("" or
// NONE for unemployed).
func (w *World) SpawnVillager(profession string, pos Vec3i) *Villager {
	if profession == "" {
		profession = catalogs.ProfessionNone
	}
	idNum := w.nextVillagerNum.Add(1)
	v := &Villager{
		ID:         fmt.Sprintf("V%d", idNum),
		Home:       pos,
		Pos:        pos,
		HP:         w.cfg.VillagerMaxHP,
		Profession: profession,
	}
	if v.Employed() {
		v.Level = 1
	}
	w.villagers[v.ID] = v
	return v
}

// spawnInitialVillagers lays villagers out on a ring around the origin,
// cycling through the profession catalog.
func (w *World) spawnInitialVillagers() {
	profs := w.catalogs.Professions.IDs
	if len(profs) == 0 {
		profs = []string{catalogs.ProfessionNone}
	}
	for i := 0; i < w.cfg.VillagerCount; i++ {
		pos := Vec3i{X: (i%4)*4 - 6, Y: 0, Z: (i/4)*4 + 4}
		w.SpawnVillager(profs[i%len(profs)], pos)
	}
}

// joinSpawn places the n-th joining player (1-based) in front of the
// first row of villagers, within default reach of one of them.
func joinSpawn(n int) Vec3i {
	return Vec3i{X: ((n-1)%4)*4 - 6, Y: 0, Z: 2}
}

func (w *World) Villager(id string) *Villager { return w.villagers[id] }
func (w *World) Agent(id string) *Agent       { return w.agents[id] }

func (w *World) entity(id string) Entity {
	if v := w.villagers[id]; v != nil {
		return v
	}
	if a := w.agents[id]; a != nil {
		return a
	}
	return nil
}

func (w *World) removeVillager(id string) {
	if v := w.villagers[id]; v != nil {
		v.removed = true
		delete(w.villagers, id)
	}
}

func (w *World) joinAgent(name string, out chan []byte) JoinResponse {
	idNum := w.nextAgentNum.Load() + 1
	a := w.AddAgent(name, joinSpawn(int(idNum)))
	if out != nil {
		w.clients[a.ID] = &clientState{Out: out}
	}
	a.ResumeToken = fmt.Sprintf("resume_%s_%d", w.cfg.ID, time.Now().UnixNano())
	return w.welcome(a)
}

func (w *World) welcome(a *Agent) JoinResponse {
	items := w.catalogs.Items
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		PlayerID:        a.ID,
		ResumeToken:     a.ResumeToken,
		WorldParams: protocol.WorldParams{
			WorldID:     w.cfg.ID,
			TickRateHz:  w.cfg.TickRateHz,
			ObsRadius:   w.cfg.ObsRadius,
			AttackReach: w.cfg.AttackReach,
			Seed:        w.cfg.Seed,
		},
		Catalogs: protocol.CatalogDigests{
			ItemPalette:       protocol.DigestRef{Digest: items.PaletteDigest, Count: len(items.Palette)},
			ProfessionsDigest: w.catalogs.Professions.Digest,
		},
	}
	catalogMsgs := []protocol.CatalogMsg{
		{
			Type:            protocol.TypeCatalog,
			ProtocolVersion: protocol.Version,
			Name:            "item_palette",
			Digest:          items.PaletteDigest,
			Part:            1,
			TotalParts:      1,
			Data:            items.Palette,
		},
	}
	return JoinResponse{Welcome: welcome, Catalogs: catalogMsgs}
}

func (w *World) handleAttach(req AttachRequest) {
	token := strings.TrimSpace(req.ResumeToken)
	if token == "" || req.Out == nil {
		if req.Resp != nil {
			req.Resp <- JoinResponse{}
		}
		return
	}

	// Find agent deterministically by iterating sorted ids.
	ids := make([]string, 0, len(w.agents))
	for id := range w.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var a *Agent
	for _, id := range ids {
		if aa := w.agents[id]; aa != nil && aa.ResumeToken == token {
			a = aa
			break
		}
	}
	if a == nil {
		if req.Resp != nil {
			req.Resp <- JoinResponse{}
		}
		return
	}

	w.clients[a.ID] = &clientState{Out: req.Out}
	// Rotate token on successful resume.
	a.ResumeToken = fmt.Sprintf("resume_%s_%d", w.cfg.ID, time.Now().UnixNano())
	if req.Resp != nil {
		req.Resp <- w.welcome(a)
	}
}

// handleLeave detaches the client but keeps the agent for resume.
func (w *World) handleLeave(id string) {
	delete(w.clients, id)
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}

func actionResult(tick uint64, ref string, ok bool, code string, message string) protocol.Event {
	e := protocol.Event{
		"t":    tick,
		"type": "ACTION_RESULT",
		"ref":  ref,
		"ok":   ok,
	}
	if code != "" {
		e["code"] = code
	}
	if message != "" {
		e["message"] = message
	}
	return e
}
