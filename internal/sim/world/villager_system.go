package world

import (
	"encoding/binary"
	"hash/fnv"
	"sort"
)

// systemVillagers counts down unconscious timers and lets conscious villagers
// wander around their home. Movement is a pure function of (seed, tick, id)
// so replays agree.
func (w *World) systemVillagers(nowTick uint64) {
	ids := make([]string, 0, len(w.villagers))
	for id := range w.villagers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	every := uint64(w.cfg.VillagerWanderEveryTicks)
	for _, id := range ids {
		v := w.villagers[id]
		if t := v.UnconsciousTime(); t > 0 {
			v.SetUnconsciousTime(t - 1)
			continue
		}
		if every == 0 || nowTick%every != 0 {
			continue
		}
		w.wander(v, nowTick)
	}
}

func (w *World) wander(v *Villager, nowTick uint64) {
	h := fnv.New64a()
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(w.cfg.Seed))
	binary.LittleEndian.PutUint64(buf[8:16], nowTick)
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(v.ID))
	r := h.Sum64()

	next := v.Pos
	step := 1
	if r&1 == 1 {
		step = -1
	}
	if r&2 == 0 {
		next.X += step
	} else {
		next.Z += step
	}
	radius := w.cfg.VillagerHomeRadius
	if radius > 0 && Chebyshev(next, v.Home) > radius {
		return
	}
	v.Pos = next
}
