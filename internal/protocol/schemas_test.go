package protocol_test

import (
	"testing"

	"github.com/NikitaCartes-forks/bonk/internal/protocol"
)

func TestValidator_Samples(t *testing.T) {
	v, err := protocol.NewValidator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	if err := v.ValidateHello([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "player_name":"steve",
	  "capabilities":{"max_queue":8}
	}`)); err != nil {
		t.Fatalf("hello: %v", err)
	}

	if err := v.ValidateAct([]byte(`{
	  "type":"ACT",
	  "protocol_version":"1.0",
	  "tick":12,
	  "player_id":"P1",
	  "instants":[
	    {"id":"I1","type":"HOLD","item_id":"WOODEN_SHOVEL","hand":"MAIN_HAND"},
	    {"id":"I2","type":"ATTACK","target_id":"V1","hand":"MAIN_HAND"},
	    {"id":"I3","type":"TRADE","target_id":"V2","offer_index":0}
	  ]
	}`)); err != nil {
		t.Fatalf("act: %v", err)
	}
}

func TestValidator_Rejects(t *testing.T) {
	v, err := protocol.NewValidator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	bad := map[string]string{
		"attack without target": `{"type":"ACT","protocol_version":"1.0","instants":[{"id":"I1","type":"ATTACK"}]}`,
		"unknown instant":       `{"type":"ACT","protocol_version":"1.0","instants":[{"id":"I1","type":"FLY"}]}`,
		"bad hand":              `{"type":"ACT","protocol_version":"1.0","instants":[{"id":"I1","type":"ATTACK","target_id":"V1","hand":"FOOT"}]}`,
		"wrong type":            `{"type":"HELLO","protocol_version":"1.0"}`,
		"not json":              `{`,
	}
	for name, raw := range bad {
		if err := v.ValidateAct([]byte(raw)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	if err := v.ValidateHello([]byte(`{"type":"HELLO","protocol_version":"1.0","player_name":""}`)); err == nil {
		t.Fatalf("empty player_name accepted")
	}
}
