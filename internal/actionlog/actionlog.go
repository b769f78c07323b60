// Package actionlog records moderation-relevant world actions.
//
// Mods declare the kinds of actions they emit by registering an ActionType
// with the Registry at server start. Each emitted Action is stamped and fanned
// out to the configured sinks (JSONL archive, SQLite index, ...).
package actionlog

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnknownActionType   = errors.New("actionlog: unknown action type")
	ErrDuplicateActionType = errors.New("actionlog: duplicate action type")
)

// SourcePlayer is the source name of actions caused by a player.
const SourcePlayer = "player"

// ActionType identifies a kind of action. Identifier must be unique across
// all registered types; TranslationType groups types for display ("block",
// "entity", "item").
type ActionType interface {
	Identifier() string
	TranslationType() string
}

type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Action struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	Tick            uint64    `json:"tick"`
	Identifier      string    `json:"action"`
	TranslationType string    `json:"translation_type"`

	Pos   [3]int `json:"pos"`
	World string `json:"world"`

	ObjectIdentifier    string `json:"object_id"`
	OldObjectIdentifier string `json:"old_object_id"`
	ObjectState         string `json:"object_state,omitempty"`
	OldObjectState      string `json:"old_object_state,omitempty"`

	SourceName    string   `json:"source"`
	SourceProfile *Profile `json:"source_profile,omitempty"`
}

// NewAction returns an Action carrying the type's identity. Callers fill the
// remaining fields before logging it.
func NewAction(t ActionType) Action {
	return Action{
		Identifier:      t.Identifier(),
		TranslationType: t.TranslationType(),
	}
}

type Sink interface {
	WriteAction(a Action) error
}

// Registry holds the registered action types by identifier.
type Registry struct {
	mu    sync.RWMutex
	types map[string]func() ActionType
}

func NewRegistry() *Registry {
	return &Registry{types: map[string]func() ActionType{}}
}

func (r *Registry) Register(factory func() ActionType) error {
	if factory == nil {
		return fmt.Errorf("actionlog: nil factory")
	}
	t := factory()
	id := strings.TrimSpace(t.Identifier())
	if id == "" {
		return fmt.Errorf("actionlog: empty identifier")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateActionType, id)
	}
	r.types[id] = factory
	return nil
}

func (r *Registry) Lookup(id string) (ActionType, bool) {
	r.mu.RLock()
	f, ok := r.types[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return f(), true
}

// Identifiers returns the registered identifiers in sorted order.
func (r *Registry) Identifiers() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.types))
	for id := range r.types {
		out = append(out, id)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// API is the entry point mods log actions through.
type API struct {
	registry *Registry
	sinks    []Sink
	log      *log.Logger

	now   func() time.Time
	newID func() string
}

func NewAPI(registry *Registry, logger *log.Logger, sinks ...Sink) *API {
	return &API{
		registry: registry,
		sinks:    sinks,
		log:      logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.NewString() },
	}
}

func (a *API) Registry() *Registry { return a.registry }

// LogAction stamps the action and hands it to every sink. Sink failures are
// logged and do not stop the fan-out; the first one is returned.
func (a *API) LogAction(act Action) error {
	if _, ok := a.registry.Lookup(act.Identifier); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownActionType, act.Identifier)
	}
	if act.ID == "" {
		act.ID = a.newID()
	}
	if act.Timestamp.IsZero() {
		act.Timestamp = a.now()
	}

	var first error
	for _, s := range a.sinks {
		if s == nil {
			continue
		}
		if err := s.WriteAction(act); err != nil {
			if a.log != nil {
				a.log.Printf("action %s (%s): sink: %v", act.ID, act.Identifier, err)
			}
			if first == nil {
				first = err
			}
		}
	}
	return first
}
