// Package inventory models the items an actor carries and computes what that
// load means: slots used and available, which items must be dropped, how much
// armor is worn, and which light source is burning.
package inventory

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/knave/internal/game/dice"
)

// Category is the kind of an owned item.
type Category string

// Item categories.
const (
	CategoryWeapon      Category = "weapon"
	CategoryArmor       Category = "armor"
	CategoryEquipment   Category = "equipment"
	CategoryLightSource Category = "lightSource"
	CategorySpellbook   Category = "spellbook"
	CategorySpell       Category = "spell"
	CategoryAttack      Category = "attack"
)

// validCategories is the set of valid item categories.
var validCategories = map[Category]bool{
	CategoryWeapon:      true,
	CategoryArmor:       true,
	CategoryEquipment:   true,
	CategoryLightSource: true,
	CategorySpellbook:   true,
	CategorySpell:       true,
	CategoryAttack:      true,
}

// Light describes a light source item.
type Light struct {
	Lit          bool    `yaml:"lit" json:"lit"`
	DimRadius    float64 `yaml:"dim_radius" json:"dim_radius"`
	BrightRadius float64 `yaml:"bright_radius" json:"bright_radius"`
	Speed        int     `yaml:"speed" json:"speed"`
	Intensity    int     `yaml:"intensity" json:"intensity"`
}

// Relic marks equipment that grants a blessing while active.
type Relic struct {
	IsRelic  bool `yaml:"is_relic" json:"is_relic"`
	IsActive bool `yaml:"is_active" json:"is_active"`
}

// Damage is a weapon's damage dice, e.g. 1d6+1.
type Damage struct {
	Amount int    `yaml:"amount" json:"amount"`
	Size   string `yaml:"size" json:"size"`
	Bonus  int    `yaml:"bonus" json:"bonus"`
}

// Item is one owned item as the host stores it.
//
// Dropped is derived by the encumbrance calculator; its stored value is ignored
// as input and only ever proposed back to the host.
type Item struct {
	ID       string   `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	Category Category `yaml:"category" json:"category"`
	Slots    float64  `yaml:"slots" json:"slots"`
	Equipped bool     `yaml:"equipped" json:"equipped"`
	Dropped  bool     `yaml:"dropped" json:"dropped"`
	Broken   bool     `yaml:"broken,omitempty" json:"broken,omitempty"`

	ArmorPoints   int    `yaml:"armor_points,omitempty" json:"armor_points,omitempty"`
	ArmorCategory string `yaml:"armor_category,omitempty" json:"armor_category,omitempty"`

	Light  Light  `yaml:"light,omitempty" json:"light,omitempty"`
	Relic  Relic  `yaml:"relic,omitempty" json:"relic,omitempty"`
	Damage Damage `yaml:"damage,omitempty" json:"damage,omitempty"`

	// Cast is set on a spellbook once it has been used since the last rest.
	Cast        bool `yaml:"cast,omitempty" json:"cast,omitempty"`
	StaminaCost int  `yaml:"stamina_cost,omitempty" json:"stamina_cost,omitempty"`
	Tier        int  `yaml:"tier,omitempty" json:"tier,omitempty"`
}

// ActiveRelic reports whether the item currently grants a blessing.
func (it Item) ActiveRelic() bool {
	return it.Category == CategoryEquipment && it.Relic.IsRelic && it.Relic.IsActive
}

// DamageRoll returns the weapon's damage formula, or "" for non-weapons and
// weapons with no dice configured.
func (it Item) DamageRoll() string {
	if it.Category != CategoryWeapon || it.Damage.Amount < 1 || it.Damage.Size == "" {
		return ""
	}
	return dice.Format(it.Damage.Amount, it.Damage.Size, it.Damage.Bonus)
}

// Validate checks that the item satisfies its invariants.
//
// Precondition: it is a stored item snapshot.
// Postcondition: returns nil iff all fields are valid.
func (it Item) Validate() error {
	var errs []error
	if it.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if it.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if !validCategories[it.Category] {
		errs = append(errs, fmt.Errorf("category %q is not a valid item category", it.Category))
	}
	if it.Slots < 0 {
		errs = append(errs, errors.New("slots must be >= 0"))
	}
	if it.Category == CategoryArmor && it.ArmorCategory == "" {
		errs = append(errs, errors.New("armor_category is required when category is armor"))
	}
	if it.Category == CategoryWeapon && it.Damage.Amount > 0 {
		if _, err := dice.Parse(it.DamageRoll()); err != nil {
			errs = append(errs, fmt.Errorf("damage: %w", err))
		}
	}
	if it.Category == CategorySpell && (it.Tier < 0 || it.Tier > 3) {
		errs = append(errs, fmt.Errorf("tier must be 0-3, got %d", it.Tier))
	}
	if it.Category == CategorySpell && it.StaminaCost < 1 {
		errs = append(errs, errors.New("stamina_cost must be >= 1 for spells"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("item %q validation failed: %w", it.ID, errors.Join(errs...))
	}
	return nil
}

// Clone returns a copy of items.
func Clone(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
