// Package actor defines the stored state of the three kinds of actor the rules
// engine derives attributes for: player characters, recruits, and monsters.
//
// Actor is a closed set. Consumers switch on the concrete type:
//
//	switch a := a.(type) {
//	case *actor.Character:
//	case *actor.Recruit:
//	case *actor.Monster:
//	}
package actor

import (
	"fmt"
	"maps"

	"github.com/cory-johannsen/knave/internal/game/progression"
)

// Kind names an actor variant on the wire and in storage.
type Kind string

// Actor kinds.
const (
	KindCharacter Kind = "character"
	KindRecruit   Kind = "recruit"
	KindMonster   Kind = "monster"
)

// Actor is implemented only by *Character, *Recruit and *Monster.
type Actor interface {
	Kind() Kind
	Common() *Base
	// Clone returns a deep copy of the same variant.
	Clone() Actor
	sealed()
}

// Pool is a bounded resource with a display percentage.
type Pool struct {
	Value    int `yaml:"value" json:"value"`
	Max      int `yaml:"max" json:"max"`
	Progress int `yaml:"progress" json:"progress"`
}

// SlotPool holds used and available inventory slots. Both may be fractional.
type SlotPool struct {
	Value float64 `yaml:"value" json:"value"`
	Max   float64 `yaml:"max" json:"max"`
}

// Counter is a bounded count with no progress bar.
type Counter struct {
	Value int `yaml:"value" json:"value"`
	Max   int `yaml:"max" json:"max"`
}

// XP is the point-based experience track.
type XP struct {
	Value    int `yaml:"value" json:"value"`
	Progress int `yaml:"progress" json:"progress"`
}

// XPTicks is the milestone-based experience track.
type XPTicks struct {
	Ticks    int `yaml:"ticks" json:"ticks"`
	Progress int `yaml:"progress" json:"progress"`
}

// Abilities holds the six ability bonuses of a character. Values may be negative.
type Abilities struct {
	Strength     int `yaml:"strength" json:"strength"`
	Dexterity    int `yaml:"dexterity" json:"dexterity"`
	Constitution int `yaml:"constitution" json:"constitution"`
	Intelligence int `yaml:"intelligence" json:"intelligence"`
	Wisdom       int `yaml:"wisdom" json:"wisdom"`
	Charisma     int `yaml:"charisma" json:"charisma"`
}

// NumberAppearing holds the dice formulas for how many monsters show up.
// They are never rolled here.
type NumberAppearing struct {
	Wilderness string `yaml:"wilderness" json:"wilderness"`
	Dungeon    string `yaml:"dungeon" json:"dungeon"`
}

// Base is the state every actor variant carries.
type Base struct {
	ID          string                       `yaml:"id" json:"id"`
	Name        string                       `yaml:"name" json:"name"`
	Coins       int                          `yaml:"coins" json:"coins"`
	Ammo        map[progression.AmmoKind]int `yaml:"ammo,omitempty" json:"ammo,omitempty"`
	HitPoints   Pool                         `yaml:"hit_points" json:"hit_points"`
	Slots       SlotPool                     `yaml:"slots" json:"slots"`
	Level       int                          `yaml:"level" json:"level"`
	ArmorPoints int                          `yaml:"armor_points" json:"armor_points"`
	ArmorClass  int                          `yaml:"armor_class" json:"armor_class"`
}

// Common returns the shared state.
func (b *Base) Common() *Base { return b }

func (b Base) clone() Base {
	b.Ammo = maps.Clone(b.Ammo)
	return b
}

// Character is a player character.
type Character struct {
	Base       `yaml:",inline" json:",inline"`
	Abilities  Abilities `yaml:"abilities" json:"abilities"`
	Wounds     Pool      `yaml:"wounds" json:"wounds"`
	Stamina    Pool      `yaml:"stamina" json:"stamina"`
	Spells     Counter   `yaml:"spells" json:"spells"`
	Blessings  Counter   `yaml:"blessings" json:"blessings"`
	Companions Counter   `yaml:"companions" json:"companions"`
	XP         XP        `yaml:"xp" json:"xp"`
	XPTicks    XPTicks   `yaml:"xp_ticks" json:"xp_ticks"`
}

// Recruit is a hireling, mercenary or expert in a character's service.
type Recruit struct {
	Base         `yaml:",inline" json:",inline"`
	Category     progression.RecruitCategory `yaml:"category" json:"category"`
	Rarity       progression.Rarity          `yaml:"rarity" json:"rarity"`
	Morale       int                         `yaml:"morale" json:"morale"`
	CostPerMonth int                         `yaml:"cost_per_month" json:"cost_per_month"`
	Spells       Counter                     `yaml:"spells" json:"spells"`
}

// Monster is a stat block.
type Monster struct {
	Base            `yaml:",inline" json:",inline"`
	NumberAppearing NumberAppearing `yaml:"number_appearing" json:"number_appearing"`
}

func (*Character) Kind() Kind { return KindCharacter }
func (*Recruit) Kind() Kind   { return KindRecruit }
func (*Monster) Kind() Kind   { return KindMonster }

func (c *Character) Clone() Actor {
	out := *c
	out.Base = c.Base.clone()
	return &out
}

func (r *Recruit) Clone() Actor {
	out := *r
	out.Base = r.Base.clone()
	return &out
}

func (m *Monster) Clone() Actor {
	out := *m
	out.Base = m.Base.clone()
	return &out
}

func (*Character) sealed() {}
func (*Recruit) sealed()   {}
func (*Monster) sealed()   {}

// New returns an empty actor of kind k.
//
// Postcondition: Returns an error iff k is not a known kind.
func New(k Kind) (Actor, error) {
	switch k {
	case KindCharacter:
		return &Character{}, nil
	case KindRecruit:
		return &Recruit{}, nil
	case KindMonster:
		return &Monster{}, nil
	default:
		return nil, fmt.Errorf("unknown actor kind %q", k)
	}
}
