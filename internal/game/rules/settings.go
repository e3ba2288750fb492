// Package rules defines the switches that decide which derived attributes the
// engine computes and which ones are taken verbatim from the stored actor.
package rules

import (
	"errors"
	"fmt"
)

// Default divisors and leveling unit.
const (
	DefaultCoinsPerSlot        = 500
	DefaultArrowsPerSlot       = 20
	DefaultSlingBulletsPerSlot = 20
	DefaultBaseLevelXP         = 2000
)

// Settings is the flat switch bundle read by every engine component.
//
// A Settings value is read-only for the duration of one derivation pass.
type Settings struct {
	// AutomaticSlots makes the engine compute slots.max.
	AutomaticSlots bool `mapstructure:"automatic_slots" yaml:"automatic_slots" json:"automatic_slots"`
	// AutomaticArmor makes the engine compute armor points and armor class.
	AutomaticArmor bool `mapstructure:"automatic_armor" yaml:"automatic_armor" json:"automatic_armor"`
	// AutomaticStamina derives stamina.max from empty slots. Requires AutomaticSlots.
	AutomaticStamina bool `mapstructure:"automatic_stamina" yaml:"automatic_stamina" json:"automatic_stamina"`
	// AutomaticRecruits derives recruit pay, morale and spell capacity from category and rarity.
	AutomaticRecruits bool `mapstructure:"automatic_recruits" yaml:"automatic_recruits" json:"automatic_recruits"`
	// AutomaticLevel derives level and xp progress from the experience total.
	AutomaticLevel bool `mapstructure:"automatic_level" yaml:"automatic_level" json:"automatic_level"`

	EnforceDrop         bool `mapstructure:"enforce_drop" yaml:"enforce_drop" json:"enforce_drop"`
	EnforceArmor        bool `mapstructure:"enforce_armor" yaml:"enforce_armor" json:"enforce_armor"`
	EnforceIntegerSlots bool `mapstructure:"enforce_integer_slots" yaml:"enforce_integer_slots" json:"enforce_integer_slots"`
	EnforceCompanions   bool `mapstructure:"enforce_companions" yaml:"enforce_companions" json:"enforce_companions"`
	EnforceBlessings    bool `mapstructure:"enforce_blessings" yaml:"enforce_blessings" json:"enforce_blessings"`

	// ArmorRequiresEquipped limits armor contribution to equipped pieces.
	ArmorRequiresEquipped bool `mapstructure:"armor_requires_equipped" yaml:"armor_requires_equipped" json:"armor_requires_equipped"`

	CoinsPerSlot        int `mapstructure:"coins_per_slot" yaml:"coins_per_slot" json:"coins_per_slot"`
	ArrowsPerSlot       int `mapstructure:"arrows_per_slot" yaml:"arrows_per_slot" json:"arrows_per_slot"`
	SlingBulletsPerSlot int `mapstructure:"sling_bullets_per_slot" yaml:"sling_bullets_per_slot" json:"sling_bullets_per_slot"`
	BaseLevelXP         int `mapstructure:"base_level_xp" yaml:"base_level_xp" json:"base_level_xp"`
}

// Defaults returns the settings a fresh world starts with: every derivation
// automatic and every enforcement switch on.
func Defaults() Settings {
	return Settings{
		AutomaticSlots:        true,
		AutomaticArmor:        true,
		AutomaticStamina:      true,
		AutomaticRecruits:     true,
		AutomaticLevel:        true,
		EnforceDrop:           true,
		EnforceArmor:          true,
		EnforceIntegerSlots:   false,
		EnforceCompanions:     true,
		EnforceBlessings:      true,
		ArmorRequiresEquipped: true,
		CoinsPerSlot:          DefaultCoinsPerSlot,
		ArrowsPerSlot:         DefaultArrowsPerSlot,
		SlingBulletsPerSlot:   DefaultSlingBulletsPerSlot,
		BaseLevelXP:           DefaultBaseLevelXP,
	}
}

// StaminaDerived reports whether stamina.max comes from empty slots.
// Stamina automation depends on slot automation; without it the manual max wins.
func (s Settings) StaminaDerived() bool {
	return s.AutomaticStamina && s.AutomaticSlots
}

// Validate checks the numeric switches.
//
// Postcondition: Returns nil iff all divisors are >= 0 and BaseLevelXP > 0.
func (s Settings) Validate() error {
	var errs []error
	if s.CoinsPerSlot < 0 {
		errs = append(errs, fmt.Errorf("coins_per_slot must be >= 0, got %d", s.CoinsPerSlot))
	}
	if s.ArrowsPerSlot < 0 {
		errs = append(errs, fmt.Errorf("arrows_per_slot must be >= 0, got %d", s.ArrowsPerSlot))
	}
	if s.SlingBulletsPerSlot < 0 {
		errs = append(errs, fmt.Errorf("sling_bullets_per_slot must be >= 0, got %d", s.SlingBulletsPerSlot))
	}
	if s.BaseLevelXP <= 0 {
		errs = append(errs, fmt.Errorf("base_level_xp must be > 0, got %d", s.BaseLevelXP))
	}
	return errors.Join(errs...)
}
