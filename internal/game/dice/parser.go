package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Expression is a parsed dice formula.
// Invariant: Count >= 1, Sides >= 2 after a successful Parse.
type Expression struct {
	Raw         string // input as given
	Count       int    // number of dice
	Sides       int    // faces per die
	Modifier    int    // flat modifier, may be negative
	KeepHighest int    // keep only the N highest dice when > 0 (4d6kh3)
}

// Parse reads a formula of the form [N]dS[khK][+-M], for example "d20", "2d6",
// "2d6+3", "4d8-2", or "4d6kh3". Surrounding whitespace is ignored.
//
// Precondition: expr must be non-empty.
// Postcondition: Returns a valid Expression or a descriptive error.
func Parse(expr string) (Expression, error) {
	raw := expr
	s := strings.ToLower(strings.TrimSpace(expr))
	if s == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}

	countStr, rest, ok := strings.Cut(s, "d")
	if !ok {
		return Expression{}, fmt.Errorf("dice: missing 'd' in expression %q", raw)
	}
	count := 1
	if countStr != "" {
		n, err := strconv.Atoi(countStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: %w", raw, err)
		}
		if n < 1 {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: must be >= 1", raw)
		}
		count = n
	}

	body, modStr := splitModifier(rest)
	sidesStr, khStr, hasKeep := strings.Cut(body, "kh")

	sides, err := strconv.Atoi(sidesStr)
	if err != nil {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: %w", raw, err)
	}
	if sides < 2 {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: must be >= 2", raw)
	}

	keep := 0
	if hasKeep {
		keep, err = strconv.Atoi(khStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid kh value in %q: %w", raw, err)
		}
		if keep <= 0 || keep >= count {
			return Expression{}, fmt.Errorf("dice: kh value %d must be > 0 and < count %d in %q", keep, count, raw)
		}
	}

	modifier := 0
	if modStr != "" {
		modifier, err = strconv.Atoi(modStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", raw, err)
		}
	}

	return Expression{
		Raw:         raw,
		Count:       count,
		Sides:       sides,
		Modifier:    modifier,
		KeepHighest: keep,
	}, nil
}

// Valid reports whether expr parses.
func Valid(expr string) bool {
	_, err := Parse(expr)
	return err == nil
}

// splitModifier separates a trailing signed modifier from the die body. A sign
// in the first position belongs to the body and is left for Atoi to reject.
func splitModifier(s string) (body, modifier string) {
	if i := strings.IndexAny(s[min(1, len(s)):], "+-"); i >= 0 {
		i += min(1, len(s))
		return s[:i], s[i:]
	}
	return s, ""
}
