package world

import (
	"sort"

	"github.com/NikitaCartes-forks/bonk/internal/protocol"
)

// Agent is a connected player.
type Agent struct {
	ID   string
	Name string

	// ResumeToken is a transport-level token used for reconnects.
	ResumeToken string

	Pos Vec3i
	HP  int

	Inventory map[string]int
	Equipment Equipment

	Events []protocol.Event

	removed bool
}

type Equipment struct {
	MainHand string
	OffHand  string
}

// Hand selects which equipment slot an interaction uses.
type Hand string

const (
	MainHand Hand = protocol.HandMain
	OffHand  Hand = protocol.HandOff
)

func ParseHand(s string) (Hand, bool) {
	switch s {
	case "", protocol.HandMain:
		return MainHand, true
	case protocol.HandOff:
		return OffHand, true
	}
	return "", false
}

// ItemStack is what an agent holds in one hand. The zero value is an empty hand.
type ItemStack struct {
	Item  string
	Count int
}

func (s ItemStack) Empty() bool { return s.Item == "" || s.Count <= 0 }

func (a *Agent) EntityID() string { return a.ID }
func (a *Agent) Type() string     { return EntityPlayer }
func (a *Agent) BlockPos() Vec3i  { return a.Pos }
func (a *Agent) Removed() bool    { return a.removed }

// StackInHand returns the stack held in hand. A held item whose inventory
// count dropped to zero reads as empty.
func (a *Agent) StackInHand(h Hand) ItemStack {
	item := a.Equipment.MainHand
	if h == OffHand {
		item = a.Equipment.OffHand
	}
	if item == "" {
		return ItemStack{}
	}
	n := a.Inventory[item]
	if n <= 0 {
		return ItemStack{}
	}
	return ItemStack{Item: item, Count: n}
}

func (a *Agent) Hold(h Hand, item string) {
	if h == OffHand {
		a.Equipment.OffHand = item
		return
	}
	a.Equipment.MainHand = item
}

func (a *Agent) AddEvent(e protocol.Event) {
	a.Events = append(a.Events, e)
}

func (a *Agent) TakeEvents() []protocol.Event {
	ev := a.Events
	a.Events = nil
	return ev
}

func (a *Agent) inventoryList() []protocol.ItemStack {
	out := make([]protocol.ItemStack, 0, len(a.Inventory))
	for item, n := range a.Inventory {
		if n <= 0 {
			continue
		}
		out = append(out, protocol.ItemStack{Item: item, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Item < out[j].Item })
	return out
}
