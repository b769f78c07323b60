package world

import (
	"fmt"

	"github.com/NikitaCartes-forks/bonk/internal/protocol"
)

// Result is an attack callback's verdict. Any result other than ResultPass
// stops the remaining callbacks and cancels the default attack.
type Result int

const (
	ResultPass Result = iota
	ResultSuccess
	ResultFail
)

func (r Result) String() string {
	switch r {
	case ResultPass:
		return "PASS"
	case ResultSuccess:
		return "SUCCESS"
	case ResultFail:
		return "FAIL"
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

// AttackEvent is delivered to callbacks on the world goroutine, before the
// default attack applies.
type AttackEvent struct {
	World    *World
	Attacker *Agent
	Hand     Hand
	Item     ItemStack
	Target   Entity
	// HitPos is where the attacker stood when swinging.
	HitPos Vec3i
}

// ItemIn reports whether the held item carries the given catalog tag.
func (ev AttackEvent) ItemIn(tag string) bool {
	if ev.Item.Empty() || ev.World == nil {
		return false
	}
	return ev.World.catalogs.Items.HasTag(ev.Item.Item, tag)
}

func (ev AttackEvent) ItemIs(item string) bool {
	return !ev.Item.Empty() && ev.Item.Item == item
}

type AttackCallback func(ev AttackEvent) Result

// OnAttackEntity registers cb. Callbacks run in registration order.
func (w *World) OnAttackEntity(cb AttackCallback) {
	if cb == nil {
		return
	}
	w.attackCallbacks = append(w.attackCallbacks, cb)
}

// Attack runs the attack callbacks and, unless one of them handled the
// event, applies the default attack. Must be called from the world goroutine
// (or before Run).
func (w *World) Attack(attacker *Agent, hand Hand, target Entity) Result {
	if attacker == nil || target == nil || target.Removed() {
		return ResultFail
	}
	ev := AttackEvent{
		World:    w,
		Attacker: attacker,
		Hand:     hand,
		Item:     attacker.StackInHand(hand),
		Target:   target,
		HitPos:   attacker.Pos,
	}
	for _, cb := range w.attackCallbacks {
		if r := cb(ev); r != ResultPass {
			return r
		}
	}
	w.defaultAttack(ev)
	return ResultPass
}

func (w *World) defaultAttack(ev AttackEvent) {
	dmg := w.attackDamage(ev.Item)
	switch t := ev.Target.(type) {
	case *Villager:
		t.HP -= dmg
		t.AddGossip(ev.Attacker.ID, GossipMinorNegative, 25)
		if t.HP <= 0 {
			t.HP = 0
			w.removeVillager(t.ID)
		}
	case *Agent:
		t.HP -= dmg
		if t.HP < 0 {
			t.HP = 0
		}
		t.AddEvent(protocol.Event{"t": w.tick.Load(), "type": "DAMAGED", "by": ev.Attacker.ID, "amount": dmg})
	}
}

func (w *World) attackDamage(item ItemStack) int {
	if !item.Empty() {
		if d, ok := w.catalogs.Items.Defs[item.Item]; ok && d.AttackDamage > 0 {
			return d.AttackDamage
		}
	}
	return w.cfg.DefaultAttackDamage
}
