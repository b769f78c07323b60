package world

import (
	"sort"

	"github.com/NikitaCartes-forks/bonk/internal/protocol"
)

func (w *World) buildObs(a *Agent, nowTick uint64) protocol.ObsMsg {
	obs := protocol.ObsMsg{
		Type:            protocol.TypeObs,
		ProtocolVersion: protocol.Version,
		Tick:            nowTick,
		PlayerID:        a.ID,
		WorldID:         w.cfg.ID,
		Self:            protocol.SelfObs{Pos: a.Pos.ToArray(), HP: a.HP},
		Inventory:       a.inventoryList(),
		Equipment: protocol.EquipmentObs{
			MainHand: a.Equipment.MainHand,
			OffHand:  a.Equipment.OffHand,
		},
	}

	r := w.cfg.ObsRadius
	ents := make([]protocol.EntityObs, 0, 8)
	for _, v := range w.villagers {
		if Chebyshev(a.Pos, v.Pos) > r {
			continue
		}
		v.restockOffers(w.catalogs.Professions)
		e := protocol.EntityObs{
			ID:         v.ID,
			Type:       EntityVillager,
			Pos:        v.Pos.ToArray(),
			HP:         v.HP,
			Profession: v.Profession,
			Level:      v.Level,
		}
		if v.UnconsciousTime() > 0 {
			e.Tags = append(e.Tags, "UNCONSCIOUS")
		}
		for _, o := range v.Offers {
			e.Offers = append(e.Offers, protocol.OfferObs{
				Buy:      protocol.ItemStack{Item: o.Buy.Item, Count: o.Buy.Count},
				Sell:     protocol.ItemStack{Item: o.Sell.Item, Count: o.Sell.Count},
				Uses:     o.Uses,
				MaxUses:  o.MaxUses,
				Disabled: o.Disabled(),
			})
		}
		ents = append(ents, e)
	}
	for _, other := range w.agents {
		if other.ID == a.ID || Chebyshev(a.Pos, other.Pos) > r {
			continue
		}
		ents = append(ents, protocol.EntityObs{ID: other.ID, Type: EntityPlayer, Pos: other.Pos.ToArray(), HP: other.HP})
	}
	sort.Slice(ents, func(i, j int) bool { return ents[i].ID < ents[j].ID })
	obs.Entities = ents

	events := a.TakeEvents()
	for _, f := range w.feedbackThisTick {
		pos, ok := w.feedbackOrigin(f)
		if !ok || Chebyshev(a.Pos, pos) > r {
			continue
		}
		events = append(events, feedbackEvent(f))
	}
	if events == nil {
		events = []protocol.Event{}
	}
	obs.Events = events
	return obs
}
