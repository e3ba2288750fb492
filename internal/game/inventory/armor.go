package inventory

import "github.com/cory-johannsen/knave/internal/game/rules"

// BaseArmorClass is the armor class of an unarmored actor.
const BaseArmorClass = 11

// ArmorResult is the outcome of resolving worn armor.
type ArmorResult struct {
	Points int
	Class  int
	// Contributing and Unequip are aligned with the resolved item list.
	Contributing []bool
	Unequip      []bool
}

// ArmorClassFor returns the armor class granted by points.
func ArmorClassFor(points int) int {
	return points + BaseArmorClass
}

// ArmorPointsFor inverts ArmorClassFor, used for monsters whose armor class is
// entered directly.
func ArmorPointsFor(class int) int {
	return class - BaseArmorClass
}

// ResolveArmor sums the armor points of the pieces being worn.
//
// A piece qualifies when it is armor, not dropped, and (if s.ArmorRequiresEquipped)
// equipped. With s.EnforceArmor only the first qualifying piece of each armor
// category counts and every later piece of that category is proposed un-equipped.
//
// Precondition: Dropped flags on items are already the derived ones.
// Postcondition: Points >= 0; Class == Points + 11; len(Unequip) == len(items).
func ResolveArmor(items []Item, s rules.Settings) ArmorResult {
	res := ArmorResult{
		Contributing: make([]bool, len(items)),
		Unequip:      make([]bool, len(items)),
	}
	worn := make(map[string]bool)
	for i, it := range items {
		if it.Category != CategoryArmor || it.Dropped {
			continue
		}
		if s.ArmorRequiresEquipped && !it.Equipped {
			continue
		}
		if s.EnforceArmor {
			if worn[it.ArmorCategory] {
				res.Unequip[i] = it.Equipped
				continue
			}
			worn[it.ArmorCategory] = true
		}
		res.Contributing[i] = true
		res.Points += it.ArmorPoints
		if res.Points < 0 {
			res.Points = 0
		}
	}
	res.Class = ArmorClassFor(res.Points)
	return res
}
