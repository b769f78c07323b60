package world

import (
	"errors"

	"github.com/NikitaCartes-forks/bonk/internal/protocol"
)

var (
	ErrVillagerUnconscious = errors.New("villager is unconscious")
	ErrNoProfession        = errors.New("villager has no profession")
	ErrNoSuchOffer         = errors.New("no such offer")
	ErrOfferDisabled       = errors.New("offer is out of stock")
	ErrCannotAfford        = errors.New("not enough items")
)

// Trade executes offer idx of v for a. Successful trades grant the villager
// experience and positive gossip about a.
func (w *World) Trade(a *Agent, v *Villager, idx int) error {
	if v.UnconsciousTime() > 0 {
		return ErrVillagerUnconscious
	}
	if !v.Employed() {
		return ErrNoProfession
	}
	v.restockOffers(w.catalogs.Professions)
	if idx < 0 || idx >= len(v.Offers) {
		return ErrNoSuchOffer
	}
	o := &v.Offers[idx]
	if o.Disabled() {
		return ErrOfferDisabled
	}
	if a.Inventory[o.Buy.Item] < o.Buy.Count {
		return ErrCannotAfford
	}
	a.Inventory[o.Buy.Item] -= o.Buy.Count
	a.Inventory[o.Sell.Item] += o.Sell.Count
	o.Uses++
	v.addExperience(o.XP)
	v.AddGossip(a.ID, GossipTrading, 2)
	return nil
}

func tradeErrCode(err error) string {
	switch {
	case errors.Is(err, ErrVillagerUnconscious):
		return protocol.ErrUnconscious
	case errors.Is(err, ErrNoProfession):
		return protocol.ErrNoProfession
	case errors.Is(err, ErrOfferDisabled):
		return protocol.ErrOutOfStock
	case errors.Is(err, ErrCannotAfford):
		return protocol.ErrNoResource
	case errors.Is(err, ErrNoSuchOffer):
		return protocol.ErrInvalidTarget
	}
	return protocol.ErrInternal
}
