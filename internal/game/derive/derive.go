// Package derive composes the rules engine: given one actor snapshot and the
// active settings it computes every derived attribute and the item overrides
// the host should persist.
//
// Derivation is pure. The input snapshot is never modified and nothing here
// performs I/O.
package derive

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/knave/internal/game/actor"
	"github.com/cory-johannsen/knave/internal/game/dice"
	"github.com/cory-johannsen/knave/internal/game/inventory"
	"github.com/cory-johannsen/knave/internal/game/pool"
	"github.com/cory-johannsen/knave/internal/game/progression"
	"github.com/cory-johannsen/knave/internal/game/rules"
)

// ErrNoActor is returned when a snapshot carries no actor.
var ErrNoActor = errors.New("snapshot has no actor")

// Composer derives snapshots against a set of lookup tables.
type Composer struct {
	tables *progression.Tables
}

// NewComposer returns a Composer using tables, or the built-in tables when
// tables is nil.
func NewComposer(tables *progression.Tables) *Composer {
	if tables == nil {
		tables = progression.DefaultTables()
	}
	return &Composer{tables: tables}
}

// Tables returns the lookup tables the composer reads.
func (c *Composer) Tables() *progression.Tables {
	return c.tables
}

// Derive derives snap with the built-in tables.
func Derive(snap Snapshot, s rules.Settings) (Result, error) {
	return NewComposer(nil).Derive(snap, s)
}

// Derive computes the derived state of snap under s.
//
// Precondition: snap.Actor is non-nil.
// Postcondition: Result.Actor is a fresh value of the same variant;
// len(Result.Items) == len(snap.Items); health, wounds and stamina satisfy
// 0 <= value <= max.
func (c *Composer) Derive(snap Snapshot, s rules.Settings) (Result, error) {
	if snap.Actor == nil {
		return Result{}, ErrNoActor
	}
	items := inventory.Clone(snap.Items)
	switch a := snap.Actor.Clone().(type) {
	case *actor.Character:
		return c.character(a, items, s), nil
	case *actor.Recruit:
		return c.recruit(a, items, s), nil
	case *actor.Monster:
		return c.monster(a, items, s), nil
	default:
		return Result{}, fmt.Errorf("unsupported actor type %T", a)
	}
}

func (c *Composer) character(ch *actor.Character, items []inventory.Item, s rules.Settings) Result {
	ch.Wounds = pool.Wounds(ch.Wounds)
	ch.HitPoints = pool.Health(ch.HitPoints)

	enc := inventory.ComputeEncumbrance(inventory.EncumbranceInput{
		Items:        items,
		Coins:        ch.Coins,
		Ammo:         ch.Ammo,
		AutomaticMax: inventory.CharacterCapacity(ch.Abilities.Constitution, ch.Wounds.Max, ch.Wounds.Value),
		StoredMax:    ch.Slots.Max,
	}, s, c.tables)
	ch.Slots = actor.SlotPool{Value: enc.Used, Max: enc.Max}
	markDropped(items, enc.Dropped)

	ch.Stamina = pool.Stamina(ch.Stamina, ch.Slots, s)

	armor := c.armor(&ch.Base, items, s)

	if s.EnforceBlessings {
		ch.Blessings.Value = activeRelics(items)
	}
	if s.EnforceCompanions {
		ch.Companions = pool.ClampCounter(ch.Companions)
	}
	if s.AutomaticLevel {
		lp := progression.Level(ch.XP.Value, s.BaseLevelXP)
		ch.Level = lp.Level
		ch.XP.Progress = lp.Progress
	}
	ch.XPTicks.Ticks = progression.ClampTicks(ch.XPTicks.Ticks)
	ch.XPTicks.Progress = progression.TickProgress(ch.XPTicks.Ticks)

	light, _ := inventory.BrightestLight(items)
	return Result{Actor: ch, Items: proposals(items, armor), Light: &light, Warnings: c.unknownArmor(items)}
}

func (c *Composer) recruit(r *actor.Recruit, items []inventory.Item, s rules.Settings) Result {
	var warnings []string
	if s.AutomaticRecruits {
		terms, ok := c.tables.ResolveRecruit(r.Category, r.Rarity)
		if ok {
			r.Rarity = terms.Rarity
			r.CostPerMonth = terms.CostPerMonth
			r.Morale = terms.Morale
			r.Spells.Max = terms.SpellsMax
			r.Spells = pool.ClampCounter(r.Spells)
		} else {
			warnings = append(warnings, fmt.Sprintf("recruit %q: no terms for category %q rarity %q; stored values kept", r.ID, r.Category, r.Rarity))
		}
	}

	enc := inventory.ComputeEncumbrance(inventory.EncumbranceInput{
		Items:        items,
		Coins:        r.Coins,
		Ammo:         r.Ammo,
		AutomaticMax: inventory.RecruitCapacity(),
		StoredMax:    r.Slots.Max,
	}, s, c.tables)
	r.Slots = actor.SlotPool{Value: enc.Used, Max: enc.Max}
	markDropped(items, enc.Dropped)

	armor := c.armor(&r.Base, items, s)
	r.HitPoints = pool.Health(r.HitPoints)

	warnings = append(warnings, c.unknownArmor(items)...)
	light, _ := inventory.BrightestLight(items)
	return Result{Actor: r, Items: proposals(items, armor), Light: &light, Warnings: warnings}
}

func (c *Composer) monster(m *actor.Monster, items []inventory.Item, s rules.Settings) Result {
	var warnings []string
	m.HitPoints = pool.Health(m.HitPoints)
	if s.AutomaticArmor {
		m.ArmorPoints = inventory.ArmorPointsFor(m.ArmorClass)
	}
	for _, f := range []struct{ where, expr string }{
		{"wilderness", m.NumberAppearing.Wilderness},
		{"dungeon", m.NumberAppearing.Dungeon},
	} {
		if f.expr == "" {
			continue
		}
		if _, err := dice.Parse(f.expr); err != nil {
			warnings = append(warnings, fmt.Sprintf("monster %q: %s number appearing: %v", m.ID, f.where, err))
		}
	}
	// Monsters carry no encumbrance, so nothing is ever dropped.
	markDropped(items, make([]bool, len(items)))
	return Result{Actor: m, Items: proposals(items, nil), Warnings: warnings}
}

// armor resolves worn armor into b when armor is automatic and returns the
// un-equip proposals, or nil.
func (c *Composer) armor(b *actor.Base, items []inventory.Item, s rules.Settings) []bool {
	if !s.AutomaticArmor {
		return nil
	}
	res := inventory.ResolveArmor(items, s)
	b.ArmorPoints = res.Points
	b.ArmorClass = res.Class
	return res.Unequip
}

// unknownArmor warns about armor pieces whose category the tables do not
// list. The pieces still count toward armor. An empty table accepts any category.
func (c *Composer) unknownArmor(items []inventory.Item) []string {
	if len(c.tables.ArmorCategories) == 0 {
		return nil
	}
	var warnings []string
	for _, it := range items {
		if it.Category == inventory.CategoryArmor && !c.tables.HasArmorCategory(it.ArmorCategory) {
			warnings = append(warnings, fmt.Sprintf("item %q: armor category %q is not in the armor table", it.ID, it.ArmorCategory))
		}
	}
	return warnings
}

func markDropped(items []inventory.Item, dropped []bool) {
	for i := range items {
		items[i].Dropped = dropped[i]
	}
}

func activeRelics(items []inventory.Item) int {
	n := 0
	for _, it := range items {
		if !it.Dropped && it.ActiveRelic() {
			n++
		}
	}
	return n
}

func proposals(items []inventory.Item, unequip []bool) []ItemProposal {
	out := make([]ItemProposal, len(items))
	for i, it := range items {
		equipped := it.Equipped
		if unequip != nil && unequip[i] {
			equipped = false
		}
		out[i] = ItemProposal{
			ItemID:     it.ID,
			Dropped:    it.Dropped,
			Equipped:   equipped,
			DamageRoll: it.DamageRoll(),
		}
	}
	return out
}
