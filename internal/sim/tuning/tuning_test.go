package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_OverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(p, []byte("tick_rate_hz: 5\nvillager_count: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.TickRateHz != 5 || got.VillagerCount != 2 {
		t.Fatalf("overrides not applied: %+v", got)
	}
	if got.AttackReach != Defaults().AttackReach {
		t.Fatalf("attack_reach: got %d want default %d", got.AttackReach, Defaults().AttackReach)
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuning.yaml")
	_ = os.WriteFile(p, []byte("tick_rate_hz: 0\n"), 0o644)
	if _, err := Load(p); err == nil {
		t.Fatalf("expected error for tick_rate_hz=0")
	}
}

func TestLoad_RepoConfig(t *testing.T) {
	got, err := Load("../../../configs/tuning.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.StarterItems["MACE"] != 1 {
		t.Fatalf("starter items: %v", got.StarterItems)
	}
}
