package actionlog

import (
	"errors"
	"testing"
	"time"
)

type testType struct{ id string }

func (t testType) Identifier() string      { return t.id }
func (t testType) TranslationType() string { return "entity" }

type memSink struct {
	actions []Action
	err     error
}

func (m *memSink) WriteAction(a Action) error {
	m.actions = append(m.actions, a)
	return m.err
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(func() ActionType { return testType{id: "villager-bonk"} }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(func() ActionType { return testType{id: "villager-blam"} }); err != nil {
		t.Fatalf("register: %v", err)
	}

	got, ok := r.Lookup("villager-bonk")
	if !ok || got.Identifier() != "villager-bonk" {
		t.Fatalf("lookup: got %v ok=%v", got, ok)
	}
	if _, ok := r.Lookup("block-break"); ok {
		t.Fatalf("expected unknown identifier")
	}

	ids := r.Identifiers()
	if len(ids) != 2 || ids[0] != "villager-blam" || ids[1] != "villager-bonk" {
		t.Fatalf("identifiers: %v", ids)
	}
}

func TestRegistry_RejectsDuplicateAndEmpty(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(func() ActionType { return testType{id: "villager-bonk"} })
	err := r.Register(func() ActionType { return testType{id: "villager-bonk"} })
	if !errors.Is(err, ErrDuplicateActionType) {
		t.Fatalf("expected ErrDuplicateActionType, got %v", err)
	}
	if err := r.Register(func() ActionType { return testType{id: "  "} }); err == nil {
		t.Fatalf("expected error for empty identifier")
	}
	if err := r.Register(nil); err == nil {
		t.Fatalf("expected error for nil factory")
	}
}

func TestAPI_LogAction_StampsAndFansOut(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(func() ActionType { return testType{id: "villager-bonk"} })

	a, b := &memSink{}, &memSink{}
	api := NewAPI(r, nil, a, nil, b)
	api.now = func() time.Time { return time.Unix(100, 0).UTC() }
	api.newID = func() string { return "id-1" }

	act := NewAction(testType{id: "villager-bonk"})
	act.Pos = [3]int{1, 2, 3}
	if err := api.LogAction(act); err != nil {
		t.Fatalf("log: %v", err)
	}
	if len(a.actions) != 1 || len(b.actions) != 1 {
		t.Fatalf("fan-out: a=%d b=%d", len(a.actions), len(b.actions))
	}
	got := a.actions[0]
	if got.ID != "id-1" || !got.Timestamp.Equal(time.Unix(100, 0)) {
		t.Fatalf("stamp: id=%q ts=%v", got.ID, got.Timestamp)
	}
	if got.TranslationType != "entity" || got.Pos != [3]int{1, 2, 3} {
		t.Fatalf("fields: %+v", got)
	}
}

func TestAPI_LogAction_UnknownType(t *testing.T) {
	sink := &memSink{}
	api := NewAPI(NewRegistry(), nil, sink)
	err := api.LogAction(NewAction(testType{id: "villager-bonk"}))
	if !errors.Is(err, ErrUnknownActionType) {
		t.Fatalf("expected ErrUnknownActionType, got %v", err)
	}
	if len(sink.actions) != 0 {
		t.Fatalf("unknown action reached sink")
	}
}

func TestAPI_LogAction_SinkErrorDoesNotStopFanOut(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(func() ActionType { return testType{id: "villager-blam"} })
	bad := &memSink{err: errors.New("disk full")}
	good := &memSink{}
	api := NewAPI(r, nil, bad, good)

	err := api.LogAction(NewAction(testType{id: "villager-blam"}))
	if err == nil || err.Error() != "disk full" {
		t.Fatalf("expected sink error, got %v", err)
	}
	if len(good.actions) != 1 {
		t.Fatalf("second sink skipped")
	}
}
