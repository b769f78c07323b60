// Package bonk replaces melee hits on villagers with a shovel or mace by a
// trade reset.
//
// A shovel "bonks": if the villager has a profession and has never traded,
// its offers, experience and level are reset. Otherwise the bonk fails with
// an angry cue. A mace "blams": the villager is knocked out for a while and
// loses its offers, progress and gossip, unconditionally. Either way the
// hit itself is cancelled and the effect is written to the action log.
package bonk

import (
	"fmt"
	"log"

	"github.com/NikitaCartes-forks/bonk/internal/actionlog"
	"github.com/NikitaCartes-forks/bonk/internal/metrics"
	"github.com/NikitaCartes-forks/bonk/internal/sim/catalogs"
	"github.com/NikitaCartes-forks/bonk/internal/sim/world"
)

type Mod struct {
	cfg     Config
	api     *actionlog.API
	log     *log.Logger
	metrics *metrics.Metrics
}

// New returns the mod. logger and m may be nil.
func New(cfg Config, api *actionlog.API, logger *log.Logger, m *metrics.Metrics) *Mod {
	return &Mod{cfg: cfg, api: api, log: logger, metrics: m}
}

// Init hooks the mod into w. Action types are registered when the server
// starts.
func (m *Mod) Init(w *world.World) {
	w.OnAttackEntity(m.OnAttack)
	w.OnServerStarting(m.serverStarting)
	for _, msg := range m.unknownItems(w.Catalogs()) {
		m.logf("warning: %s", msg)
	}
	m.logf("Initialized!")
}

// unknownItems reports configured items the catalog cannot produce, which
// would leave one of the effects unreachable.
func (m *Mod) unknownItems(cats *catalogs.Catalogs) []string {
	if cats == nil {
		return nil
	}
	var out []string
	if _, ok := cats.Items.Defs[m.cfg.BlamItem]; !ok {
		out = append(out, fmt.Sprintf("blam item %q is not in the item catalog", m.cfg.BlamItem))
	}
	tagged := false
	for id := range cats.Items.Defs {
		if cats.Items.HasTag(id, m.cfg.ShovelTag) {
			tagged = true
			break
		}
	}
	if !tagged {
		out = append(out, fmt.Sprintf("no item carries shovel tag %q", m.cfg.ShovelTag))
	}
	return out
}

func (m *Mod) serverStarting(*world.World) {
	if m.api == nil {
		return
	}
	if err := RegisterActionTypes(m.api.Registry()); err != nil {
		m.logf("register action types: %v", err)
	}
}

// OnAttack is the attack callback. It passes every attack it does not
// handle and fails (cancels) every one it does.
func (m *Mod) OnAttack(ev world.AttackEvent) world.Result {
	shovel := ev.ItemIn(m.cfg.ShovelTag)
	mace := ev.ItemIs(m.cfg.BlamItem)
	if !(shovel || mace) || ev.World == nil || !ev.World.IsServer() {
		return world.ResultPass
	}
	v, ok := ev.Target.(*world.Villager)
	if !ok || v.Removed() {
		return world.ResultPass
	}

	old := v.Serialize()
	if shovel {
		success := m.bonkVillager(ev.World, v)
		m.metrics.IncrementInterception("bonk", success)
		if success || m.cfg.AuditFailedBonks {
			m.logAction(BonkActionType{}, ev, v, old)
		}
	} else {
		m.blamVillager(ev.World, v)
		m.metrics.IncrementInterception("blam", true)
		m.logAction(BlamActionType{}, ev, v, old)
	}
	return world.ResultFail
}

// bonkVillager resets v's trades if it has a profession and no experience.
// It reports whether the bonk landed.
func (m *Mod) bonkVillager(w *world.World, v *world.Villager) bool {
	if !v.Employed() || v.Experience != 0 {
		failBonk(w, v)
		return false
	}
	spawnBonkParticles(w, v)
	playBonkSounds(w, v)
	v.ResetOffers()
	return true
}

func failBonk(w *world.World, v *world.Villager) {
	w.SpawnParticles(world.Particle{
		Type:   world.ParticleAngryVillager,
		Origin: headPos(v),
		Count:  1,
		Speed:  0.01,
	})
	w.PlaySoundFromEntity(v, world.Sound{ID: world.SoundCowBell, Category: world.SoundCategoryNeutral, Volume: 1, Pitch: 0})
}

func (m *Mod) blamVillager(w *world.World, v *world.Villager) {
	if u, ok := world.AsUnconscious(v); ok {
		u.SetUnconsciousTime(m.cfg.UnconsciousTicks)
	}
	spawnBonkParticles(w, v)
	w.SpawnParticles(world.Particle{
		Type:   world.ParticleElectricSpark,
		Origin: headPos(v),
		Count:  20,
		Speed:  0.8,
	})
	playBonkSounds(w, v)
	w.PlaySoundFromEntity(v, world.Sound{ID: world.SoundMaceSmashAir, Category: world.SoundCategoryNeutral, Volume: 0.5, Pitch: 1})
	v.ResetOffers()
	v.ClearGossip()
}

func spawnBonkParticles(w *world.World, e world.Entity) {
	w.SpawnParticles(world.Particle{
		Type:   world.ParticlePoof,
		Origin: headPos(e),
		Count:  8,
		Spread: world.Vec3{X: 0.2, Y: 0.2, Z: 0.2},
		Speed:  0.01,
	})
}

func playBonkSounds(w *world.World, e world.Entity) {
	w.PlaySoundFromEntity(e, world.Sound{ID: world.SoundCowBell, Category: world.SoundCategoryNeutral, Volume: 1, Pitch: 0.7})
}

func headPos(e world.Entity) world.Vec3 {
	return e.BlockPos().Center().Add(world.Vec3{Y: 1.5})
}

func (m *Mod) logAction(t actionlog.ActionType, ev world.AttackEvent, v *world.Villager, oldState string) {
	if m.api == nil {
		return
	}
	act := populateAction(t, ev, v, oldState)
	if err := m.api.LogAction(act); err != nil {
		m.metrics.IncrementLogFailure(act.Identifier)
		m.logf("log %s for %s: %v", act.Identifier, v.ID, err)
	}
}

func populateAction(t actionlog.ActionType, ev world.AttackEvent, v *world.Villager, oldState string) actionlog.Action {
	act := actionlog.NewAction(t)
	act.Tick = ev.World.CurrentTick()
	act.Pos = v.BlockPos().ToArray()
	act.World = ev.World.ID()
	act.ObjectIdentifier = v.Type()
	act.OldObjectIdentifier = v.Type()
	act.ObjectState = v.Serialize()
	act.OldObjectState = oldState
	act.SourceName = actionlog.SourcePlayer
	if ev.Attacker != nil {
		act.SourceProfile = &actionlog.Profile{ID: ev.Attacker.ID, Name: ev.Attacker.Name}
	}
	return act
}

func (m *Mod) logf(format string, args ...any) {
	if m.log != nil {
		m.log.Printf(format, args...)
	}
}
