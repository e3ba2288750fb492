// Package upkeep computes the between-scene bookkeeping actions of a game
// session: resting, casting from spellbooks and scrolls, and toggling relic
// blessings. Every action returns the new values for the host to persist; the
// dice a host rolls alongside them are not modelled here.
package upkeep

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/knave/internal/game/actor"
	"github.com/cory-johannsen/knave/internal/game/derive"
	"github.com/cory-johannsen/knave/internal/game/inventory"
	"github.com/cory-johannsen/knave/internal/game/pool"
	"github.com/cory-johannsen/knave/internal/game/progression"
)

// Refusal reasons.
var (
	ErrInsufficientStamina = errors.New("not enough stamina")
	ErrAlreadyCast         = errors.New("spellbook already cast since the last rest")
	ErrSpellLimit          = errors.New("spell limit reached")
	ErrNoIntelligence      = errors.New("intelligence must be at least 1 to cast from a spellbook")
	ErrNotACaster          = errors.New("only rare experts can cast spells")
	ErrBlessingLimit       = errors.New("blessing limit reached")
)

// RestKind selects how restful a rest is.
type RestKind string

// Rest kinds.
const (
	RestStandard  RestKind = "standard"
	RestSafeHaven RestKind = "safe_haven"
)

// RestOutcome is the state after a rest.
type RestOutcome struct {
	Actor actor.Actor
	// Items is aligned with the items passed to Rest, spellbooks reset.
	Items []inventory.Item
}

// CastOutcome is the state after casting from a spellbook.
type CastOutcome struct {
	Spells actor.Counter
	Book   inventory.Item
}

// BlessingOutcome is the state after toggling a relic.
type BlessingOutcome struct {
	Blessings actor.Counter
	Relic     inventory.Item
}

// Rest restores hit points to full, clears the spells cast counter, and
// makes every spellbook castable again. A safe haven rest also heals one
// wound. Recruits always take a standard rest and monsters only recover hit
// points.
//
// Precondition: a is non-nil.
// Postcondition: a and items are not modified.
func Rest(a actor.Actor, kind RestKind, items []inventory.Item) (RestOutcome, error) {
	if a == nil {
		return RestOutcome{}, errors.New("rest: no actor")
	}
	if kind != RestStandard && kind != RestSafeHaven {
		return RestOutcome{}, fmt.Errorf("rest: unknown rest kind %q", kind)
	}
	out := RestOutcome{Actor: a.Clone(), Items: inventory.Clone(items)}
	for i := range out.Items {
		if out.Items[i].Category == inventory.CategorySpellbook {
			out.Items[i].Cast = false
		}
	}
	base := out.Actor.Common()
	base.HitPoints.Value = base.HitPoints.Max
	base.HitPoints = pool.Health(base.HitPoints)

	switch v := out.Actor.(type) {
	case *actor.Character:
		v.Spells.Value = 0
		if kind == RestSafeHaven {
			v.Wounds.Value = min(v.Wounds.Value+1, v.Wounds.Max)
			v.Wounds = pool.Wounds(v.Wounds)
		}
	case *actor.Recruit:
		v.Spells.Value = 0
	case *actor.Monster:
	}
	return out, nil
}

// RestSnapshot rests the snapshot's actor and returns the rested snapshot,
// ready to derive.
func RestSnapshot(snap derive.Snapshot, kind RestKind) (derive.Snapshot, error) {
	out, err := Rest(snap.Actor, kind, snap.Items)
	if err != nil {
		return derive.Snapshot{}, err
	}
	return derive.Snapshot{Actor: out.Actor, Items: out.Items}, nil
}

// CastSpellbook casts book for c.
//
// Precondition: book is a spellbook owned by c.
// Postcondition: on success Spells.Value is one higher and Book.Cast is true.
func CastSpellbook(c *actor.Character, book inventory.Item) (CastOutcome, error) {
	if c.Abilities.Intelligence < 1 {
		return CastOutcome{}, ErrNoIntelligence
	}
	return castBook(c.Spells, book)
}

// CastRecruitSpell casts book for r. Only rare experts can cast.
//
// Precondition: book is a spellbook carried by r.
// Postcondition: on success Spells.Value is one higher and Book.Cast is true.
func CastRecruitSpell(r *actor.Recruit, book inventory.Item) (CastOutcome, error) {
	if r.Category != progression.Expert || r.Rarity != progression.Rare {
		return CastOutcome{}, ErrNotACaster
	}
	return castBook(r.Spells, book)
}

func castBook(spells actor.Counter, book inventory.Item) (CastOutcome, error) {
	if book.Category != inventory.CategorySpellbook {
		return CastOutcome{}, fmt.Errorf("item %q is a %s, not a spellbook", book.ID, book.Category)
	}
	if book.Cast {
		return CastOutcome{}, ErrAlreadyCast
	}
	if spells.Value >= spells.Max {
		return CastOutcome{}, ErrSpellLimit
	}
	spells.Value++
	book.Cast = true
	return CastOutcome{Spells: spells, Book: book}, nil
}

// CastSpell spends the stamina cost of a known spell.
//
// Postcondition: on success the returned pool has StaminaCost less value.
func CastSpell(c *actor.Character, spell inventory.Item) (actor.Pool, error) {
	if spell.Category != inventory.CategorySpell {
		return actor.Pool{}, fmt.Errorf("item %q is a %s, not a spell", spell.ID, spell.Category)
	}
	if spell.StaminaCost > c.Stamina.Value {
		return actor.Pool{}, fmt.Errorf("%w: %q costs %d, %d left", ErrInsufficientStamina, spell.Name, spell.StaminaCost, c.Stamina.Value)
	}
	st := c.Stamina
	st.Value -= max(spell.StaminaCost, 0)
	st.Progress = pool.Progress(st.Value, st.Max)
	return st, nil
}

// ToggleBlessing flips a relic between active and dormant. Activating is
// refused once every blessing slot is in use.
func ToggleBlessing(c *actor.Character, relic inventory.Item) (BlessingOutcome, error) {
	if !relic.Relic.IsRelic {
		return BlessingOutcome{}, fmt.Errorf("item %q is not a relic", relic.ID)
	}
	b := c.Blessings
	if relic.Relic.IsActive {
		b.Value = max(b.Value-1, 0)
		relic.Relic.IsActive = false
		return BlessingOutcome{Blessings: b, Relic: relic}, nil
	}
	if b.Value >= b.Max {
		return BlessingOutcome{}, ErrBlessingLimit
	}
	b.Value++
	relic.Relic.IsActive = true
	return BlessingOutcome{Blessings: b, Relic: relic}, nil
}

// LevelCheckModifier is the bonus a level adds to a check: the full level, or
// half of it rounded down.
func LevelCheckModifier(level int, half bool) int {
	if half {
		return level / 2
	}
	return level
}
