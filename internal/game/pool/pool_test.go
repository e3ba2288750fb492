package pool_test

import (
	"testing"

	"github.com/cory-johannsen/knave/internal/game/actor"
	"github.com/cory-johannsen/knave/internal/game/pool"
	"github.com/cory-johannsen/knave/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestStamina_DerivedFromEmptySlots(t *testing.T) {
	got := pool.Stamina(actor.Pool{Value: 5, Max: 7}, actor.SlotPool{Value: 9, Max: 12}, rules.Defaults())
	assert.Equal(t, actor.Pool{Value: 3, Max: 3, Progress: 100}, got)
}

func TestStamina_FractionalSlotsFloor(t *testing.T) {
	got := pool.Stamina(actor.Pool{Value: 1, Max: 1}, actor.SlotPool{Value: 8.5, Max: 12}, rules.Defaults())
	assert.Equal(t, 3, got.Max)
	assert.Equal(t, 33, got.Progress)
}

func TestStamina_OverloadedIsZero(t *testing.T) {
	got := pool.Stamina(actor.Pool{Value: 2, Max: 2}, actor.SlotPool{Value: 14, Max: 12}, rules.Defaults())
	assert.Equal(t, actor.Pool{}, got)
}

func TestStamina_ManualWhenSlotsNotAutomatic(t *testing.T) {
	s := rules.Defaults()
	s.AutomaticSlots = false
	got := pool.Stamina(actor.Pool{Value: 9, Max: 6}, actor.SlotPool{Value: 0, Max: 20}, s)
	assert.Equal(t, actor.Pool{Value: 6, Max: 6, Progress: 100}, got)
}

func TestStamina_ManualWhenStaminaNotAutomatic(t *testing.T) {
	s := rules.Defaults()
	s.AutomaticStamina = false
	got := pool.Stamina(actor.Pool{Value: 2, Max: 4}, actor.SlotPool{Value: 0, Max: 20}, s)
	assert.Equal(t, actor.Pool{Value: 2, Max: 4, Progress: 50}, got)
}

func TestHealth_Clamps(t *testing.T) {
	assert.Equal(t, actor.Pool{Value: 8, Max: 8, Progress: 100}, pool.Health(actor.Pool{Value: 11, Max: 8}))
	assert.Equal(t, actor.Pool{Value: 0, Max: 8, Progress: 0}, pool.Health(actor.Pool{Value: -3, Max: 8}))
	assert.Equal(t, actor.Pool{Value: 0, Max: 0, Progress: 0}, pool.Health(actor.Pool{Value: 4, Max: 0}))
}

func TestWounds_DirectRatio(t *testing.T) {
	assert.Equal(t, 75, pool.Wounds(actor.Pool{Value: 9, Max: 12}).Progress)
	assert.Equal(t, 100, pool.Wounds(actor.Pool{Value: 12, Max: 12}).Progress)
}

func TestClampCounter(t *testing.T) {
	assert.Equal(t, actor.Counter{Value: 2, Max: 2}, pool.ClampCounter(actor.Counter{Value: 5, Max: 2}))
	assert.Equal(t, actor.Counter{Value: 0, Max: 2}, pool.ClampCounter(actor.Counter{Value: -1, Max: 2}))
	assert.Equal(t, actor.Counter{Value: 0, Max: 0}, pool.ClampCounter(actor.Counter{Value: 1, Max: -4}))
}

func TestProperty_PoolsStayInBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := actor.Pool{
			Value: rapid.IntRange(-50, 50).Draw(rt, "value"),
			Max:   rapid.IntRange(-10, 50).Draw(rt, "max"),
		}
		slots := actor.SlotPool{
			Value: rapid.Float64Range(0, 30).Draw(rt, "used"),
			Max:   rapid.Float64Range(-5, 30).Draw(rt, "capacity"),
		}
		s := rules.Defaults()
		s.AutomaticSlots = rapid.Bool().Draw(rt, "auto_slots")
		s.AutomaticStamina = rapid.Bool().Draw(rt, "auto_stamina")

		for _, got := range []actor.Pool{pool.Health(p), pool.Wounds(p), pool.Stamina(p, slots, s)} {
			assert.GreaterOrEqual(rt, got.Value, 0)
			assert.LessOrEqual(rt, got.Value, got.Max)
			assert.GreaterOrEqual(rt, got.Progress, 0)
			assert.LessOrEqual(rt, got.Progress, 100)
		}
	})
}
