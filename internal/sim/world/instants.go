package world

import (
	"github.com/NikitaCartes-forks/bonk/internal/protocol"
)

func (w *World) applyInstant(a *Agent, inst protocol.InstantReq, nowTick uint64) {
	switch inst.Type {
	case protocol.InstantAttack:
		w.handleInstantAttack(a, inst, nowTick)
	case protocol.InstantHold:
		w.handleInstantHold(a, inst, nowTick)
	case protocol.InstantTrade:
		w.handleInstantTrade(a, inst, nowTick)
	default:
		a.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrBadRequest, "unknown instant type"))
	}
}

func (w *World) handleInstantAttack(a *Agent, inst protocol.InstantReq, nowTick uint64) {
	hand, ok := ParseHand(inst.Hand)
	if !ok {
		a.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrBadRequest, "bad hand"))
		return
	}
	target := w.entity(inst.TargetID)
	if target == nil || target.Removed() || target.EntityID() == a.ID {
		a.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrInvalidTarget, "no such target"))
		return
	}
	if Chebyshev(a.Pos, target.BlockPos()) > w.cfg.AttackReach {
		a.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrOutOfReach, "target out of reach"))
		return
	}
	switch w.Attack(a, hand, target) {
	case ResultPass:
		a.AddEvent(actionResult(nowTick, inst.ID, true, "", ""))
	default:
		// A callback took over the swing; the default hit did not land.
		a.AddEvent(actionResult(nowTick, inst.ID, true, protocol.ErrCancelled, "attack handled"))
	}
}

func (w *World) handleInstantHold(a *Agent, inst protocol.InstantReq, nowTick uint64) {
	hand, ok := ParseHand(inst.Hand)
	if !ok {
		a.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrBadRequest, "bad hand"))
		return
	}
	if inst.ItemID != "" && a.Inventory[inst.ItemID] <= 0 {
		a.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrNoResource, "item not in inventory"))
		return
	}
	a.Hold(hand, inst.ItemID)
	a.AddEvent(actionResult(nowTick, inst.ID, true, "", ""))
}

func (w *World) handleInstantTrade(a *Agent, inst protocol.InstantReq, nowTick uint64) {
	v := w.villagers[inst.TargetID]
	if v == nil {
		a.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrInvalidTarget, "no such villager"))
		return
	}
	if Chebyshev(a.Pos, v.Pos) > w.cfg.AttackReach {
		a.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrOutOfReach, "villager out of reach"))
		return
	}
	if err := w.Trade(a, v, inst.OfferIndex); err != nil {
		a.AddEvent(actionResult(nowTick, inst.ID, false, tradeErrCode(err), err.Error()))
		return
	}
	a.AddEvent(actionResult(nowTick, inst.ID, true, "", ""))
}
