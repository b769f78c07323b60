package bonk

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// ShovelTag is the item catalog tag that makes an item bonk-capable.
	ShovelTag string `yaml:"shovel_tag"`
	// BlamItem is the item id that blams.
	BlamItem         string `yaml:"blam_item"`
	UnconsciousTicks int    `yaml:"unconscious_ticks"`

	// AuditFailedBonks also writes an action record when a bonk fails its
	// precondition. Failed bonks never mutate the villager.
	AuditFailedBonks bool `yaml:"audit_failed_bonks"`
}

func Defaults() Config {
	return Config{
		ShovelTag:        "shovels",
		BlamItem:         "MACE",
		UnconsciousTicks: 60,
		AuditFailedBonks: true,
	}
}

// Load reads path over Defaults().
func Load(path string) (Config, error) {
	c := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("bonk.yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("bonk.yaml: %w", err)
	}
	return c, nil
}

func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.ShovelTag) == "":
		return fmt.Errorf("shovel_tag is required")
	case strings.TrimSpace(c.BlamItem) == "":
		return fmt.Errorf("blam_item is required")
	case c.UnconsciousTicks <= 0:
		return fmt.Errorf("unconscious_ticks must be positive")
	}
	return nil
}
