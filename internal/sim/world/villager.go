package world

import (
	"encoding/json"
	"sort"

	"github.com/NikitaCartes-forks/bonk/internal/sim/catalogs"
)

// Gossip kinds.
const (
	GossipTrading       = "TRADING"
	GossipMinorNegative = "MINOR_NEGATIVE"
)

// Experience needed to reach each level, indexed by level-1.
var levelXP = [...]int{0, 10, 70, 150, 250}

const maxVillagerLevel = len(levelXP)

type Villager struct {
	ID   string
	Home Vec3i
	Pos  Vec3i
	HP   int

	Profession string
	// Level is profession progress. New employed villagers start at 1;
	// a reset sets it to 0 until the next trade.
	Level      int
	Experience int

	// Offers is nil until first needed; restockOffers fills it from the
	// profession's trade table.
	Offers []TradeOffer
	Gossip []Gossip

	unconscious int
	removed     bool
}

type TradeOffer struct {
	Buy     ItemStack `json:"buy"`
	Sell    ItemStack `json:"sell"`
	Uses    int       `json:"uses"`
	MaxUses int       `json:"max_uses"`
	XP      int       `json:"xp"`
}

func (o TradeOffer) Disabled() bool { return o.Uses >= o.MaxUses }

type Gossip struct {
	Target string `json:"target"`
	Kind   string `json:"kind"`
	Value  int    `json:"value"`
}

func (v *Villager) EntityID() string { return v.ID }
func (v *Villager) Type() string     { return EntityVillager }
func (v *Villager) BlockPos() Vec3i  { return v.Pos }
func (v *Villager) Removed() bool    { return v.removed }

func (v *Villager) UnconsciousTime() int { return v.unconscious }

func (v *Villager) SetUnconsciousTime(ticks int) {
	if ticks < 0 {
		ticks = 0
	}
	v.unconscious = ticks
}

func (v *Villager) Employed() bool {
	return v.Profession != "" && v.Profession != catalogs.ProfessionNone
}

// ResetOffers drops the current trade offers and all profession progress.
func (v *Villager) ResetOffers() {
	v.Offers = nil
	v.Experience = 0
	v.Level = 0
}

func (v *Villager) ClearGossip() { v.Gossip = nil }

// AddGossip accumulates value for (target, kind), clamped to [0,100].
func (v *Villager) AddGossip(target, kind string, value int) {
	for i := range v.Gossip {
		g := &v.Gossip[i]
		if g.Target == target && g.Kind == kind {
			g.Value = clampGossip(g.Value + value)
			return
		}
	}
	v.Gossip = append(v.Gossip, Gossip{Target: target, Kind: kind, Value: clampGossip(value)})
}

func clampGossip(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func (v *Villager) addExperience(xp int) {
	v.Experience += xp
	for v.Level < maxVillagerLevel && v.Experience >= levelXP[v.Level] {
		v.Level++
	}
}

// restockOffers builds offers from the profession table when none are held.
func (v *Villager) restockOffers(profs catalogs.ProfessionCatalog) {
	if v.Offers != nil || !v.Employed() {
		return
	}
	def, ok := profs.ByID[v.Profession]
	if !ok {
		return
	}
	v.Offers = make([]TradeOffer, 0, len(def.Offers))
	for _, o := range def.Offers {
		if o.MinLevel > v.Level {
			continue
		}
		v.Offers = append(v.Offers, TradeOffer{
			Buy:     ItemStack{Item: o.Buy.Item, Count: o.Buy.Count},
			Sell:    ItemStack{Item: o.Sell.Item, Count: o.Sell.Count},
			MaxUses: o.MaxUses,
			XP:      o.XP,
		})
	}
}

// VillagerState is the serialized form of a villager used for before/after
// comparison in the action log.
type VillagerState struct {
	ID          string       `json:"id"`
	Pos         [3]int       `json:"pos"`
	HP          int          `json:"hp"`
	Profession  string       `json:"profession"`
	Level       int          `json:"level"`
	Experience  int          `json:"xp"`
	Offers      []TradeOffer `json:"offers"`
	Gossip      []Gossip     `json:"gossip"`
	Unconscious int          `json:"unconscious_ticks"`
}

func (v *Villager) State() VillagerState {
	s := VillagerState{
		ID:          v.ID,
		Pos:         v.Pos.ToArray(),
		HP:          v.HP,
		Profession:  v.Profession,
		Level:       v.Level,
		Experience:  v.Experience,
		Unconscious: v.unconscious,
	}
	if v.Offers != nil {
		s.Offers = append([]TradeOffer{}, v.Offers...)
	}
	if len(v.Gossip) > 0 {
		s.Gossip = append([]Gossip{}, v.Gossip...)
		sort.Slice(s.Gossip, func(i, j int) bool {
			if s.Gossip[i].Target != s.Gossip[j].Target {
				return s.Gossip[i].Target < s.Gossip[j].Target
			}
			return s.Gossip[i].Kind < s.Gossip[j].Kind
		})
	}
	return s
}

// Serialize returns the villager state as canonical JSON.
func (v *Villager) Serialize() string {
	b, err := json.Marshal(v.State())
	if err != nil {
		return "{}"
	}
	return string(b)
}
