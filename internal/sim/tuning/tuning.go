package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz  int `yaml:"tick_rate_hz"`
	ObsRadius   int `yaml:"obs_radius"`
	AttackReach int `yaml:"attack_reach"`

	AgentMaxHP          int `yaml:"agent_max_hp"`
	VillagerMaxHP       int `yaml:"villager_max_hp"`
	DefaultAttackDamage int `yaml:"default_attack_damage"`

	VillagerCount            int `yaml:"villager_count"`
	VillagerWanderEveryTicks int `yaml:"villager_wander_every_ticks"`
	VillagerHomeRadius       int `yaml:"villager_home_radius"`

	StarterItems map[string]int `yaml:"starter_items"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:               20,
		ObsRadius:                16,
		AttackReach:              3,
		AgentMaxHP:               20,
		VillagerMaxHP:            20,
		DefaultAttackDamage:      1,
		VillagerCount:            8,
		VillagerWanderEveryTicks: 40,
		VillagerHomeRadius:       6,
		StarterItems: map[string]int{
			"WOODEN_SHOVEL": 1,
			"MACE":          1,
			"EMERALD":       16,
		},
	}
}

// Load reads path over Defaults(); keys missing from the file keep their
// default value.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	switch {
	case t.TickRateHz <= 0:
		return fmt.Errorf("tick_rate_hz must be positive")
	case t.ObsRadius < 0:
		return fmt.Errorf("obs_radius must not be negative")
	case t.AttackReach <= 0:
		return fmt.Errorf("attack_reach must be positive")
	case t.AgentMaxHP <= 0 || t.VillagerMaxHP <= 0:
		return fmt.Errorf("max hp must be positive")
	case t.DefaultAttackDamage < 0:
		return fmt.Errorf("default_attack_damage must not be negative")
	case t.VillagerCount < 0:
		return fmt.Errorf("villager_count must not be negative")
	}
	return nil
}
