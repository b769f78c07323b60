package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProfessionNone is the profession of an unemployed villager.
const ProfessionNone = "NONE"

type Catalogs struct {
	Items       ItemCatalog
	Professions ProfessionCatalog
}

type ItemCatalog struct {
	Palette       []string
	Defs          map[string]ItemDef
	PaletteDigest string
	DefsDigest    string
}

type ItemDef struct {
	ID           string   `yaml:"id" json:"id"`
	Kind         string   `yaml:"kind" json:"kind"` // "TOOL","WEAPON","MATERIAL","CURRENCY"
	Tags         []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	AttackDamage int      `yaml:"attack_damage,omitempty" json:"attack_damage,omitempty"`
}

// HasTag reports whether item carries tag. Unknown items carry no tags.
func (c ItemCatalog) HasTag(item, tag string) bool {
	d, ok := c.Defs[item]
	if !ok {
		return false
	}
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type ProfessionCatalog struct {
	ByID   map[string]ProfessionDef
	IDs    []string // sorted, includes NONE
	Digest string
}

type ProfessionDef struct {
	ID     string     `yaml:"id" json:"id"`
	Offers []OfferDef `yaml:"offers" json:"offers"`
}

type OfferDef struct {
	Buy      ItemCount `yaml:"buy" json:"buy"`
	Sell     ItemCount `yaml:"sell" json:"sell"`
	MaxUses  int       `yaml:"max_uses" json:"max_uses"`
	XP       int       `yaml:"xp" json:"xp"`
	MinLevel int       `yaml:"min_level,omitempty" json:"min_level,omitempty"`
}

type ItemCount struct {
	Item  string `yaml:"item" json:"item"`
	Count int    `yaml:"count" json:"count"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadItems(filepath.Join(configDir, "items.yaml"), &c.Items); err != nil {
		return nil, err
	}
	if err := loadProfessions(filepath.Join(configDir, "professions.yaml"), &c.Professions, &c.Items); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadItems(path string, out *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var doc struct {
		Items []ItemDef `yaml:"items"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("items.yaml: %w", err)
	}
	out.Defs = map[string]ItemDef{}
	for _, d := range doc.Items {
		d.ID = strings.TrimSpace(d.ID)
		if d.ID == "" {
			return fmt.Errorf("items.yaml: empty id")
		}
		if _, dup := out.Defs[d.ID]; dup {
			return fmt.Errorf("items.yaml: duplicate id %s", d.ID)
		}
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.Palette = ids
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func loadProfessions(path string, out *ProfessionCatalog, items *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var doc struct {
		Professions []ProfessionDef `yaml:"professions"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("professions.yaml: %w", err)
	}
	out.ByID = map[string]ProfessionDef{ProfessionNone: {ID: ProfessionNone}}
	for _, p := range doc.Professions {
		if p.ID == "" {
			return fmt.Errorf("professions.yaml: empty id")
		}
		if p.ID == ProfessionNone && len(p.Offers) > 0 {
			return fmt.Errorf("professions.yaml: %s cannot have offers", ProfessionNone)
		}
		for i, o := range p.Offers {
			for _, ic := range []ItemCount{o.Buy, o.Sell} {
				if _, ok := items.Defs[ic.Item]; !ok {
					return fmt.Errorf("professions.yaml: %s offer %d: unknown item %q", p.ID, i, ic.Item)
				}
				if ic.Count <= 0 {
					return fmt.Errorf("professions.yaml: %s offer %d: count must be positive", p.ID, i)
				}
			}
		}
		out.ByID[p.ID] = p
	}
	out.IDs = make([]string, 0, len(out.ByID))
	for id := range out.ByID {
		out.IDs = append(out.IDs, id)
	}
	sort.Strings(out.IDs)
	return nil
}
