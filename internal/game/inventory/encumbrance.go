package inventory

import (
	"maps"
	"math"
	"slices"

	"github.com/cory-johannsen/knave/internal/game/progression"
	"github.com/cory-johannsen/knave/internal/game/rules"
)

// BaseCapacity is the slot capacity of an unwounded actor with no constitution bonus.
const BaseCapacity = 10

// EncumbranceInput is everything the calculator needs from an actor snapshot.
type EncumbranceInput struct {
	// Items in the caller's stable order; the order decides what is dropped first.
	Items []Item
	Coins int
	Ammo  map[progression.AmmoKind]int
	// AutomaticMax is the capacity used when slots are automatic.
	AutomaticMax float64
	// StoredMax is the capacity used when slots are entered manually.
	StoredMax float64
}

// Encumbrance is the result of one encumbrance pass.
type Encumbrance struct {
	Max  float64
	Used float64
	// Dropped is aligned with EncumbranceInput.Items.
	Dropped []bool
}

// Overflow returns how many slots the load exceeds capacity by, or 0.
func (e Encumbrance) Overflow() float64 {
	if e.Used <= e.Max {
		return 0
	}
	return roundHundredths(e.Used - e.Max)
}

// CharacterCapacity returns the automatic slot capacity of a character: the
// base ten, plus constitution, minus the wounds taken off the wound pool.
func CharacterCapacity(constitution, woundsMax, woundsValue int) float64 {
	return float64(BaseCapacity + constitution - (woundsMax - woundsValue))
}

// RecruitCapacity returns the automatic slot capacity of a recruit.
func RecruitCapacity() float64 {
	return BaseCapacity
}

// PerSlot returns how many rounds of kind fit in one slot. Arrows and sling
// bullets come from s; any other kind comes from the tables.
func PerSlot(kind progression.AmmoKind, s rules.Settings, t *progression.Tables) int {
	switch kind {
	case progression.Arrow:
		return s.ArrowsPerSlot
	case progression.SlingBullet:
		return s.SlingBulletsPerSlot
	}
	if t == nil {
		return 0
	}
	return t.QuantityPerSlot(kind)
}

// UsedSlots sums item slots, coin slots and ammunition slots, unrounded.
//
// Postcondition: result >= 0; a zero divisor contributes nothing.
func UsedSlots(in EncumbranceInput, s rules.Settings, t *progression.Tables) float64 {
	var used float64
	for _, it := range in.Items {
		used += nonNegative(it.Slots)
	}
	used += bundled(in.Coins, s.CoinsPerSlot)
	for _, kind := range slices.Sorted(maps.Keys(in.Ammo)) {
		used += bundled(in.Ammo[kind], PerSlot(kind, s, t))
	}
	return used
}

// ComputeEncumbrance totals the load, picks the capacity, rounds both and, when
// drops are enforced and the load overflows, marks the shortest prefix of the
// item list whose slots cover the overflow.
//
// Precondition: none; negative counts and slot costs are treated as zero.
// Postcondition: len(Dropped) == len(in.Items); no item is dropped unless
// Used > Max and s.EnforceDrop; dropped items form a prefix of in.Items.
func ComputeEncumbrance(in EncumbranceInput, s rules.Settings, t *progression.Tables) Encumbrance {
	capacity := in.StoredMax
	if s.AutomaticSlots {
		capacity = in.AutomaticMax
	}
	e := Encumbrance{
		Max:     roundSlots(math.Max(0, capacity), s.EnforceIntegerSlots),
		Used:    roundSlots(UsedSlots(in, s, t), s.EnforceIntegerSlots),
		Dropped: make([]bool, len(in.Items)),
	}
	if !s.EnforceDrop || e.Used <= e.Max {
		return e
	}
	overflow := e.Overflow()
	var freed float64
	for i, it := range in.Items {
		e.Dropped[i] = true
		freed = roundHundredths(freed + nonNegative(it.Slots))
		if freed >= overflow {
			break
		}
	}
	return e
}

func bundled(count, perSlot int) float64 {
	if count <= 0 || perSlot <= 0 {
		return 0
	}
	return float64(count) / float64(perSlot)
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

func roundSlots(v float64, integer bool) float64 {
	v = roundHundredths(v)
	if integer {
		return math.Ceil(v)
	}
	return v
}

func roundHundredths(v float64) float64 {
	return math.Round(v*100) / 100
}
