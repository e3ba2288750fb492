// Package pool derives the bounded resource pools of an actor: stamina, health,
// and wounds, plus plain bounded counters.
package pool

import (
	"math"

	"github.com/cory-johannsen/knave/internal/game/actor"
	"github.com/cory-johannsen/knave/internal/game/rules"
)

// Stamina derives the stamina pool. When stamina is derived from slots the
// maximum is the number of whole empty slots; otherwise the stored maximum is
// kept.
//
// Postcondition: 0 <= Value <= Max; Progress is 0 when Max is 0.
func Stamina(current actor.Pool, slots actor.SlotPool, s rules.Settings) actor.Pool {
	out := current
	if s.StaminaDerived() {
		out.Max = int(math.Floor(math.Max(0, slots.Max-slots.Value)))
	}
	return clamp(out)
}

// Health clamps hit points to their maximum.
//
// Postcondition: 0 <= Value <= Max; Progress = floor(Value/Max*100).
func Health(p actor.Pool) actor.Pool {
	return clamp(p)
}

// Wounds clamps the wound pool. Value counts remaining wound capacity, so a
// full pool means an unwounded character and shows 100.
//
// Postcondition: 0 <= Value <= Max; Progress = floor(Value/Max*100).
func Wounds(p actor.Pool) actor.Pool {
	return clamp(p)
}

// ClampCounter bounds c.Value to [0, c.Max].
func ClampCounter(c actor.Counter) actor.Counter {
	if c.Max < 0 {
		c.Max = 0
	}
	c.Value = min(max(c.Value, 0), c.Max)
	return c
}

// Progress returns floor(value/max*100), or 0 when max is not positive.
func Progress(value, maximum int) int {
	if maximum <= 0 {
		return 0
	}
	return int(math.Floor(float64(value) / float64(maximum) * 100))
}

func clamp(p actor.Pool) actor.Pool {
	if p.Max < 0 {
		p.Max = 0
	}
	p.Value = min(max(p.Value, 0), p.Max)
	p.Progress = Progress(p.Value, p.Max)
	return p
}
