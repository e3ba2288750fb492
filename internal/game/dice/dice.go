// Package dice parses and formats dice expressions such as "2d6+1".
//
// Rolling is the host's business; this package only checks that stored formulas
// are well formed and builds the damage formula shown for a weapon.
package dice

import "fmt"

// Format builds a formula from a die count, a die size such as "d6", and a flat
// bonus: "2d6+1", "1d8", or "1d4-1".
//
// Precondition: amount >= 1; size starts with "d".
// Postcondition: Parse(Format(amount, size, bonus)) succeeds for valid inputs.
func Format(amount int, size string, bonus int) string {
	switch {
	case bonus > 0:
		return fmt.Sprintf("%d%s+%d", amount, size, bonus)
	case bonus < 0:
		return fmt.Sprintf("%d%s%d", amount, size, bonus)
	default:
		return fmt.Sprintf("%d%s", amount, size)
	}
}

// String renders e in canonical form.
func (e Expression) String() string {
	s := Format(e.Count, fmt.Sprintf("d%d", e.Sides), 0)
	if e.KeepHighest > 0 {
		s += fmt.Sprintf("kh%d", e.KeepHighest)
	}
	switch {
	case e.Modifier > 0:
		s += fmt.Sprintf("+%d", e.Modifier)
	case e.Modifier < 0:
		s += fmt.Sprintf("%d", e.Modifier)
	}
	return s
}

// Bounds returns the smallest and largest totals e can produce.
//
// Postcondition: min <= max.
func (e Expression) Bounds() (min, max int) {
	kept := e.Count
	if e.KeepHighest > 0 {
		kept = e.KeepHighest
	}
	return kept + e.Modifier, kept*e.Sides + e.Modifier
}
