package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"github.com/NikitaCartes-forks/bonk/internal/protocol"
)

// The bot joins a server, equips a tool and periodically swings it at the
// nearest villager in reach, logging the outcome and any feedback it sees.
func main() {
	var (
		url   = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name  = flag.String("name", "bot", "player name")
		item  = flag.String("item", "WOODEN_SHOVEL", "item to hold while attacking")
		every = flag.Uint64("every", 40, "attack every N ticks")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PlayerName:      *name,
		Capabilities:    protocol.HelloCapabilities{MaxQueue: 8},
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	b := &bot{item: *item, every: *every, reach: 3}
	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			b.reach = w.WorldParams.AttackReach
			logger.Printf("WELCOME player_id=%s world=%s tick_rate=%d", w.PlayerID, w.WorldParams.WorldID, w.WorldParams.TickRateHz)

		case protocol.TypeObs:
			var obs protocol.ObsMsg
			if err := json.Unmarshal(msg, &obs); err != nil {
				continue
			}
			for _, e := range obs.Events {
				logger.Printf("event %v", e)
			}
			if act, ok := b.next(&obs); ok {
				_ = conn.WriteJSON(act)
			}
		}
	}
}

type bot struct {
	item  string
	every uint64
	reach int
}

// next returns the bot's ACT for this observation, if any.
func (b *bot) next(obs *protocol.ObsMsg) (protocol.ActMsg, bool) {
	act := protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		Tick:            obs.Tick,
		PlayerID:        obs.PlayerID,
	}
	if b.item != "" && obs.Equipment.MainHand != b.item && hasItem(obs.Inventory, b.item) {
		act.Instants = append(act.Instants, protocol.InstantReq{
			ID: fmt.Sprintf("I_hold_%d", obs.Tick), Type: protocol.InstantHold, ItemID: b.item, Hand: protocol.HandMain,
		})
	}
	if b.every > 0 && obs.Tick%b.every == 0 {
		if target, ok := nearestVillager(obs, b.reach); ok {
			act.Instants = append(act.Instants, protocol.InstantReq{
				ID: fmt.Sprintf("I_attack_%d", obs.Tick), Type: protocol.InstantAttack, TargetID: target, Hand: protocol.HandMain,
			})
		}
	}
	return act, len(act.Instants) > 0
}

func hasItem(inv []protocol.ItemStack, item string) bool {
	for _, s := range inv {
		if s.Item == item && s.Count > 0 {
			return true
		}
	}
	return false
}

// nearestVillager picks the closest conscious villager within reach,
// breaking ties by id.
func nearestVillager(obs *protocol.ObsMsg, reach int) (string, bool) {
	best, bestD := "", -1
	for _, e := range obs.Entities {
		if e.Type != "VILLAGER" || hasTag(e.Tags, "UNCONSCIOUS") {
			continue
		}
		d := chebyshev(obs.Self.Pos, e.Pos)
		if d > reach {
			continue
		}
		if bestD < 0 || d < bestD || (d == bestD && e.ID < best) {
			best, bestD = e.ID, d
		}
	}
	return best, bestD >= 0
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func chebyshev(a, b [3]int) int {
	d := 0
	for i := 0; i < 3; i++ {
		x := a[i] - b[i]
		if x < 0 {
			x = -x
		}
		if x > d {
			d = x
		}
	}
	return d
}
