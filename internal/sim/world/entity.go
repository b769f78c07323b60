package world

// Entity type identifiers. They double as the object identifiers written to
// the action log.
const (
	EntityPlayer   = "PLAYER"
	EntityVillager = "VILLAGER"
)

// Entity is anything that can be targeted in the world.
type Entity interface {
	EntityID() string
	Type() string
	BlockPos() Vec3i
	// Removed reports whether the entity has left the world (died, logged
	// out). Removed entities must not be mutated.
	Removed() bool
}

// Unconscious is implemented by entities that can be knocked out. While the
// remaining time is positive the entity takes no voluntary actions.
type Unconscious interface {
	UnconsciousTime() int
	SetUnconsciousTime(ticks int)
}

// AsUnconscious returns e's unconscious handle if e supports it.
func AsUnconscious(e Entity) (Unconscious, bool) {
	if e == nil {
		return nil, false
	}
	u, ok := e.(Unconscious)
	return u, ok
}
