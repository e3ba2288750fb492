// Package progression holds the static lookup tables of the rules engine: the
// experience curve, recruit pay and rarity tiers, ammunition bundling, and the
// armor categories used for the one-piece-per-category rule.
package progression

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RecruitCategory identifies the kind of retainer a recruit is.
type RecruitCategory string

// Recruit categories.
const (
	Hireling  RecruitCategory = "hireling"
	Mercenary RecruitCategory = "mercenary"
	Expert    RecruitCategory = "expert"
)

// Rarity is the availability tier of a recruit.
type Rarity string

// Rarity tiers.
const (
	Common   Rarity = "common"
	Uncommon Rarity = "uncommon"
	Rare     Rarity = "rare"
)

// AmmoKind identifies a bundled ammunition type.
type AmmoKind string

// Ammunition kinds.
const (
	Arrow       AmmoKind = "arrow"
	SlingBullet AmmoKind = "slingBullet"
)

// RecruitTier is the pay and capability row for one category and rarity.
type RecruitTier struct {
	Rarity       Rarity `yaml:"rarity"`
	CostPerMonth int    `yaml:"cost_per_month"`
	SpellsMax    int    `yaml:"spells_max"`
}

// RecruitCategoryDef describes one recruit category.
//
// When FixedRarity is set every recruit of the category uses that tier, whatever
// rarity it was stored with.
type RecruitCategoryDef struct {
	Category    RecruitCategory `yaml:"category"`
	Morale      int             `yaml:"morale"`
	FixedRarity Rarity          `yaml:"fixed_rarity"`
	Tiers       []RecruitTier   `yaml:"tiers"`
}

// RecruitTerms is a resolved table row ready to be applied to a recruit.
type RecruitTerms struct {
	Category     RecruitCategory
	Rarity       Rarity
	CostPerMonth int
	Morale       int
	SpellsMax    int
}

// AmmoCategory holds how many rounds of one ammunition kind fit in a slot.
type AmmoCategory struct {
	Kind            AmmoKind `yaml:"kind"`
	Label           string   `yaml:"label"`
	QuantityPerSlot int      `yaml:"quantity_per_slot"`
}

// Tables bundles every lookup table the engine consults.
type Tables struct {
	Recruits        []RecruitCategoryDef `yaml:"recruits"`
	Ammo            []AmmoCategory       `yaml:"ammo"`
	ArmorCategories []string             `yaml:"armor_categories"`
}

// DefaultTables returns the built-in tables.
//
// Postcondition: Returns a fresh value that passes Validate.
func DefaultTables() *Tables {
	return &Tables{
		Recruits: []RecruitCategoryDef{
			{
				Category:    Hireling,
				Morale:      5,
				FixedRarity: Common,
				Tiers:       []RecruitTier{{Rarity: Common, CostPerMonth: 300}},
			},
			{
				Category:    Mercenary,
				Morale:      8,
				FixedRarity: Common,
				Tiers:       []RecruitTier{{Rarity: Common, CostPerMonth: 600}},
			},
			{
				Category: Expert,
				Morale:   7,
				Tiers: []RecruitTier{
					{Rarity: Common, CostPerMonth: 600},
					{Rarity: Uncommon, CostPerMonth: 1200},
					{Rarity: Rare, CostPerMonth: 2400, SpellsMax: 1},
				},
			},
		},
		Ammo: []AmmoCategory{
			{Kind: Arrow, Label: "Arrows", QuantityPerSlot: 20},
			{Kind: SlingBullet, Label: "Sling Bullets", QuantityPerSlot: 20},
		},
		ArmorCategories: []string{"body", "helmet", "shield"},
	}
}

// ResolveRecruit looks up the terms for a category and rarity.
//
// Postcondition: Returns false when the category is unknown, or when the
// category has no fixed rarity and no tier matches rarity.
func (t *Tables) ResolveRecruit(category RecruitCategory, rarity Rarity) (RecruitTerms, bool) {
	for _, def := range t.Recruits {
		if def.Category != category {
			continue
		}
		want := rarity
		if def.FixedRarity != "" {
			want = def.FixedRarity
		}
		for _, tier := range def.Tiers {
			if tier.Rarity == want {
				return RecruitTerms{
					Category:     category,
					Rarity:       tier.Rarity,
					CostPerMonth: tier.CostPerMonth,
					Morale:       def.Morale,
					SpellsMax:    tier.SpellsMax,
				}, true
			}
		}
		return RecruitTerms{}, false
	}
	return RecruitTerms{}, false
}

// QuantityPerSlot returns the table ratio for kind, or 0 if kind is unknown.
func (t *Tables) QuantityPerSlot(kind AmmoKind) int {
	for _, a := range t.Ammo {
		if a.Kind == kind {
			return a.QuantityPerSlot
		}
	}
	return 0
}

// HasArmorCategory reports whether category is a known armor category.
func (t *Tables) HasArmorCategory(category string) bool {
	for _, c := range t.ArmorCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Validate checks the tables for structural problems.
//
// Postcondition: Returns nil iff every category has at least one tier, every
// fixed rarity names an existing tier, and no ratio or cost is negative.
func (t *Tables) Validate() error {
	var errs []error
	seen := make(map[RecruitCategory]bool)
	for _, def := range t.Recruits {
		if def.Category == "" {
			errs = append(errs, errors.New("recruit category must not be empty"))
			continue
		}
		if seen[def.Category] {
			errs = append(errs, fmt.Errorf("recruit category %q defined twice", def.Category))
		}
		seen[def.Category] = true
		if len(def.Tiers) == 0 {
			errs = append(errs, fmt.Errorf("recruit category %q has no tiers", def.Category))
		}
		fixedFound := def.FixedRarity == ""
		for _, tier := range def.Tiers {
			if tier.CostPerMonth < 0 {
				errs = append(errs, fmt.Errorf("recruit category %q tier %q: cost_per_month must be >= 0", def.Category, tier.Rarity))
			}
			if tier.SpellsMax < 0 {
				errs = append(errs, fmt.Errorf("recruit category %q tier %q: spells_max must be >= 0", def.Category, tier.Rarity))
			}
			if tier.Rarity == def.FixedRarity {
				fixedFound = true
			}
		}
		if !fixedFound {
			errs = append(errs, fmt.Errorf("recruit category %q: fixed_rarity %q has no tier", def.Category, def.FixedRarity))
		}
	}
	for _, a := range t.Ammo {
		if a.Kind == "" {
			errs = append(errs, errors.New("ammo kind must not be empty"))
		}
		if a.QuantityPerSlot < 0 {
			errs = append(errs, fmt.Errorf("ammo %q: quantity_per_slot must be >= 0", a.Kind))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("progression tables invalid: %w", errors.Join(errs...))
	}
	return nil
}

// LoadTables reads a YAML table file. Sections absent from the file keep their
// built-in defaults.
//
// Precondition: path names a readable YAML file.
// Postcondition: Returns validated tables or a non-nil error.
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadTables: cannot read file %q: %w", path, err)
	}
	var loaded Tables
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("LoadTables: cannot parse file %q: %w", path, err)
	}
	t := DefaultTables()
	if loaded.Recruits != nil {
		t.Recruits = loaded.Recruits
	}
	if loaded.Ammo != nil {
		t.Ammo = loaded.Ammo
	}
	if loaded.ArmorCategories != nil {
		t.ArmorCategories = loaded.ArmorCategories
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("LoadTables: %q: %w", path, err)
	}
	return t, nil
}
