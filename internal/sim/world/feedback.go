package world

import "github.com/NikitaCartes-forks/bonk/internal/protocol"

// Particle and sound identifiers understood by clients.
const (
	ParticlePoof          = "POOF"
	ParticleAngryVillager = "ANGRY_VILLAGER"
	ParticleElectricSpark = "ELECTRIC_SPARK"

	SoundCowBell      = "BLOCK_NOTE_BLOCK_COW_BELL"
	SoundMaceSmashAir = "ITEM_MACE_SMASH_AIR"

	SoundCategoryNeutral = "NEUTRAL"
)

type Particle struct {
	Type   string  `json:"type"`
	Origin Vec3    `json:"origin"`
	Count  int     `json:"count"`
	Spread Vec3    `json:"spread"`
	Speed  float64 `json:"speed"`
}

type Sound struct {
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Volume   float64 `json:"volume"`
	Pitch    float64 `json:"pitch"`
}

// Feedback is one presentation effect emitted during a tick. Exactly one of
// Particle and Sound is set.
type Feedback struct {
	Tick     uint64    `json:"tick"`
	EntityID string    `json:"entity_id,omitempty"`
	Particle *Particle `json:"particle,omitempty"`
	Sound    *Sound    `json:"sound,omitempty"`
}

type FeedbackSink interface {
	WriteFeedback(f Feedback)
}

func (w *World) SetFeedbackSink(s FeedbackSink) { w.feedbackSink = s }

func (w *World) SpawnParticles(p Particle) {
	w.emitFeedback(Feedback{Tick: w.tick.Load(), Particle: &p})
}

// PlaySoundFromEntity plays s at e's position to every observer in range.
func (w *World) PlaySoundFromEntity(e Entity, s Sound) {
	f := Feedback{Tick: w.tick.Load(), Sound: &s}
	if e != nil {
		f.EntityID = e.EntityID()
	}
	w.emitFeedback(f)
}

func (w *World) emitFeedback(f Feedback) {
	if w.feedbackSink != nil {
		w.feedbackSink.WriteFeedback(f)
	}
	w.feedbackThisTick = append(w.feedbackThisTick, f)
}

// feedbackOrigin is the block position an observer must be near to see f.
func (w *World) feedbackOrigin(f Feedback) (Vec3i, bool) {
	if f.Particle != nil {
		o := f.Particle.Origin
		return Vec3i{X: floorInt(o.X), Y: floorInt(o.Y), Z: floorInt(o.Z)}, true
	}
	if e := w.entity(f.EntityID); e != nil {
		return e.BlockPos(), true
	}
	return Vec3i{}, false
}

func feedbackEvent(f Feedback) protocol.Event {
	e := protocol.Event{"t": f.Tick}
	if f.Particle != nil {
		p := f.Particle
		e["type"] = "PARTICLES"
		e["particle"] = p.Type
		e["origin"] = []float64{p.Origin.X, p.Origin.Y, p.Origin.Z}
		e["count"] = p.Count
		e["spread"] = []float64{p.Spread.X, p.Spread.Y, p.Spread.Z}
		e["speed"] = p.Speed
		return e
	}
	if f.Sound != nil {
		s := f.Sound
		e["type"] = "SOUND"
		e["sound"] = s.ID
		e["category"] = s.Category
		e["volume"] = s.Volume
		e["pitch"] = s.Pitch
		e["entity_id"] = f.EntityID
	}
	return e
}

func floorInt(f float64) int {
	i := int(f)
	if f < 0 && float64(i) != f {
		i--
	}
	return i
}
