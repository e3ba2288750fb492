package derive_test

import (
	"fmt"
	"testing"

	"github.com/cory-johannsen/knave/internal/game/actor"
	"github.com/cory-johannsen/knave/internal/game/derive"
	"github.com/cory-johannsen/knave/internal/game/inventory"
	"github.com/cory-johannsen/knave/internal/game/progression"
	"github.com/cory-johannsen/knave/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func gear(id string, slots float64) inventory.Item {
	return inventory.Item{ID: id, Name: id, Category: inventory.CategoryEquipment, Slots: slots}
}

func fighter() *actor.Character {
	c := &actor.Character{
		Abilities: actor.Abilities{Constitution: 2},
		Wounds:    actor.Pool{Value: 12, Max: 12},
		Stamina:   actor.Pool{Value: 5, Max: 5},
	}
	c.ID = "c1"
	c.Name = "Wren"
	c.HitPoints = actor.Pool{Value: 6, Max: 8}
	c.Level = 1
	return c
}

func TestDerive_NilActor(t *testing.T) {
	_, err := derive.Derive(derive.Snapshot{}, rules.Defaults())
	assert.ErrorIs(t, err, derive.ErrNoActor)
}

func TestDerive_CharacterStaminaExample(t *testing.T) {
	c := fighter()
	c.Abilities.Constitution = 2 // capacity 12
	items := []inventory.Item{gear("pack", 4), gear("tent", 5)}

	res, err := derive.Derive(derive.Snapshot{Actor: c, Items: items}, rules.Defaults())
	require.NoError(t, err)

	got := res.Actor.(*actor.Character)
	assert.Equal(t, actor.SlotPool{Value: 9, Max: 12}, got.Slots)
	assert.Equal(t, actor.Pool{Value: 3, Max: 3, Progress: 100}, got.Stamina)
	assert.Equal(t, 75, got.HitPoints.Progress)
	assert.Equal(t, 100, got.Wounds.Progress)
	assert.Equal(t, 11, got.ArmorClass)
	assert.Equal(t, 5, c.Stamina.Value, "input must not be modified")
}

func TestDerive_CharacterWoundsShrinkCapacity(t *testing.T) {
	c := fighter()
	c.Wounds = actor.Pool{Value: 9, Max: 12}
	res, err := derive.Derive(derive.Snapshot{Actor: c}, rules.Defaults())
	require.NoError(t, err)
	assert.Equal(t, 9.0, res.Actor.Common().Slots.Max)
}

func TestDerive_CharacterOverflowDropsPrefix(t *testing.T) {
	c := fighter()
	c.Abilities.Constitution = 0 // capacity 10
	c.Coins = 1000               // 2 slots
	items := []inventory.Item{gear("a", 2), gear("b", 3), gear("c", 5)}

	res, err := derive.Derive(derive.Snapshot{Actor: c, Items: items}, rules.Defaults())
	require.NoError(t, err)

	assert.Equal(t, 12.0, res.Actor.Common().Slots.Value)
	assert.True(t, res.Items[0].Dropped)
	assert.False(t, res.Items[1].Dropped)
	assert.False(t, res.Items[2].Dropped)
	assert.False(t, items[0].Dropped, "input items must not be modified")
}

func TestDerive_CharacterArmorUnequipsDuplicate(t *testing.T) {
	items := []inventory.Item{
		{ID: "gambeson", Name: "Gambeson", Category: inventory.CategoryArmor, ArmorCategory: "body", ArmorPoints: 1, Slots: 1, Equipped: true},
		{ID: "chain", Name: "Chain", Category: inventory.CategoryArmor, ArmorCategory: "body", ArmorPoints: 3, Slots: 2, Equipped: true},
		{ID: "shield", Name: "Shield", Category: inventory.CategoryArmor, ArmorCategory: "shield", ArmorPoints: 1, Slots: 1, Equipped: true},
	}
	res, err := derive.Derive(derive.Snapshot{Actor: fighter(), Items: items}, rules.Defaults())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Actor.Common().ArmorPoints)
	assert.Equal(t, 13, res.Actor.Common().ArmorClass)
	assert.True(t, res.Items[0].Equipped)
	assert.False(t, res.Items[1].Equipped)
	assert.True(t, res.Items[2].Equipped)
}

func TestDerive_CharacterManualArmorUntouched(t *testing.T) {
	c := fighter()
	c.ArmorPoints, c.ArmorClass = 5, 16
	s := rules.Defaults()
	s.AutomaticArmor = false
	res, err := derive.Derive(derive.Snapshot{Actor: c}, s)
	require.NoError(t, err)
	assert.Equal(t, 16, res.Actor.Common().ArmorClass)
}

func TestDerive_CharacterBlessingsCountActiveRelics(t *testing.T) {
	relic := func(id string, active bool) inventory.Item {
		it := gear(id, 1)
		it.Relic = inventory.Relic{IsRelic: true, IsActive: active}
		return it
	}
	c := fighter()
	c.Blessings = actor.Counter{Value: 0, Max: 2}
	items := []inventory.Item{relic("idol", true), relic("ring", false), relic("skull", true)}

	res, err := derive.Derive(derive.Snapshot{Actor: c, Items: items}, rules.Defaults())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Actor.(*actor.Character).Blessings.Value)
}

func TestDerive_CharacterCompanionsClamped(t *testing.T) {
	c := fighter()
	c.Companions = actor.Counter{Value: 4, Max: 2}
	res, err := derive.Derive(derive.Snapshot{Actor: c}, rules.Defaults())
	require.NoError(t, err)
	assert.Equal(t, actor.Counter{Value: 2, Max: 2}, res.Actor.(*actor.Character).Companions)

	s := rules.Defaults()
	s.EnforceCompanions = false
	res, err = derive.Derive(derive.Snapshot{Actor: c}, s)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Actor.(*actor.Character).Companions.Value)
}

func TestDerive_CharacterLevelFromXP(t *testing.T) {
	c := fighter()
	c.XP.Value = 5000
	c.XPTicks.Ticks = 14
	res, err := derive.Derive(derive.Snapshot{Actor: c}, rules.Defaults())
	require.NoError(t, err)

	got := res.Actor.(*actor.Character)
	assert.Equal(t, 3, got.Level)
	assert.Equal(t, 25, got.XP.Progress)
	assert.Equal(t, actor.XPTicks{Ticks: 10, Progress: 100}, got.XPTicks)

	s := rules.Defaults()
	s.AutomaticLevel = false
	res, err = derive.Derive(derive.Snapshot{Actor: c}, s)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Actor.Common().Level)
}

func TestDerive_CharacterLightAndDamage(t *testing.T) {
	items := []inventory.Item{
		{ID: "torch", Name: "Torch", Category: inventory.CategoryLightSource, Slots: 1,
			Light: inventory.Light{Lit: true, DimRadius: 40, BrightRadius: 20, Speed: 3, Intensity: 4}},
		{ID: "axe", Name: "Axe", Category: inventory.CategoryWeapon, Slots: 2,
			Damage: inventory.Damage{Amount: 1, Size: "d8", Bonus: 1}},
	}
	res, err := derive.Derive(derive.Snapshot{Actor: fighter(), Items: items}, rules.Defaults())
	require.NoError(t, err)
	require.NotNil(t, res.Light)
	assert.Equal(t, 40.0, res.Light.Dim)
	assert.Equal(t, inventory.AnimationTorch, res.Light.Animation)
	assert.Equal(t, "", res.Items[0].DamageRoll)
	assert.Equal(t, "1d8+1", res.Items[1].DamageRoll)
}

func TestDerive_RecruitRarityExamples(t *testing.T) {
	expert := &actor.Recruit{Category: progression.Expert, Rarity: progression.Rare}
	res, err := derive.Derive(derive.Snapshot{Actor: expert}, rules.Defaults())
	require.NoError(t, err)
	got := res.Actor.(*actor.Recruit)
	assert.Equal(t, 2400, got.CostPerMonth)
	assert.Equal(t, 1, got.Spells.Max)
	assert.Empty(t, res.Warnings)

	hireling := &actor.Recruit{Category: progression.Hireling, Rarity: progression.Rare, Spells: actor.Counter{Value: 1, Max: 1}}
	res, err = derive.Derive(derive.Snapshot{Actor: hireling}, rules.Defaults())
	require.NoError(t, err)
	got = res.Actor.(*actor.Recruit)
	assert.Equal(t, progression.Common, got.Rarity)
	assert.Equal(t, 0, got.Spells.Max)
	assert.Equal(t, 0, got.Spells.Value)
	assert.Equal(t, 300, got.CostPerMonth)
}

func TestDerive_RecruitUnknownCategoryPassesThrough(t *testing.T) {
	r := &actor.Recruit{Category: "squire", Rarity: progression.Common, CostPerMonth: 77, Morale: 3}
	res, err := derive.Derive(derive.Snapshot{Actor: r}, rules.Defaults())
	require.NoError(t, err)
	got := res.Actor.(*actor.Recruit)
	assert.Equal(t, 77, got.CostPerMonth)
	assert.Equal(t, 3, got.Morale)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "squire")
}

func TestDerive_RecruitCapacityIsTen(t *testing.T) {
	r := &actor.Recruit{Category: progression.Mercenary}
	res, err := derive.Derive(derive.Snapshot{Actor: r, Items: []inventory.Item{gear("spear", 2)}}, rules.Defaults())
	require.NoError(t, err)
	assert.Equal(t, actor.SlotPool{Value: 2, Max: 10}, res.Actor.Common().Slots)
	require.NotNil(t, res.Light)
	assert.Equal(t, inventory.Extinguished(), *res.Light)
}

func TestDerive_MonsterInverseArmor(t *testing.T) {
	m := &actor.Monster{NumberAppearing: actor.NumberAppearing{Wilderness: "2d6", Dungeon: "1d4"}}
	m.ArmorClass = 15
	m.HitPoints = actor.Pool{Value: 4, Max: 8}

	res, err := derive.Derive(derive.Snapshot{Actor: m}, rules.Defaults())
	require.NoError(t, err)
	got := res.Actor.(*actor.Monster)
	assert.Equal(t, 4, got.ArmorPoints)
	assert.Equal(t, 15, got.ArmorClass)
	assert.Equal(t, 50, got.HitPoints.Progress)
	assert.Nil(t, res.Light)
	assert.Empty(t, res.Warnings)
}

func TestDerive_MonsterBadNumberAppearingWarns(t *testing.T) {
	m := &actor.Monster{NumberAppearing: actor.NumberAppearing{Dungeon: "many"}}
	res, err := derive.Derive(derive.Snapshot{Actor: m}, rules.Defaults())
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "dungeon")
}

func TestDerive_MonsterNeverProposesDrops(t *testing.T) {
	m := &actor.Monster{}
	claw := inventory.Item{ID: "claw", Name: "Claw", Category: inventory.CategoryAttack, Equipped: true, Dropped: true}

	res, err := derive.Derive(derive.Snapshot{Actor: m, Items: []inventory.Item{claw}}, rules.Defaults())
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.False(t, res.Items[0].Dropped, "stored dropped flag is not echoed")
	assert.True(t, res.Items[0].Equipped)
}

func TestDerive_UnknownArmorCategoryWarns(t *testing.T) {
	c := fighter()
	items := []inventory.Item{
		{ID: "helm", Name: "Helm", Category: inventory.CategoryArmor, ArmorCategory: "helmet", ArmorPoints: 1, Slots: 1, Equipped: true},
		{ID: "greaves", Name: "Greaves", Category: inventory.CategoryArmor, ArmorCategory: "legs", ArmorPoints: 1, Slots: 1, Equipped: true},
	}

	res, err := derive.Derive(derive.Snapshot{Actor: c, Items: items}, rules.Defaults())
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "greaves")
	assert.Contains(t, res.Warnings[0], "legs")
	assert.Equal(t, 2, res.Actor.Common().ArmorPoints, "unlisted pieces still count")

	r := &actor.Recruit{Category: progression.Hireling}
	res, err = derive.Derive(derive.Snapshot{Actor: r, Items: items}, rules.Defaults())
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "legs")
}

func TestDerive_ArmorTableFromCustomTables(t *testing.T) {
	tables := progression.DefaultTables()
	tables.ArmorCategories = append(tables.ArmorCategories, "legs")
	items := []inventory.Item{{ID: "greaves", Name: "Greaves", Category: inventory.CategoryArmor, ArmorCategory: "legs", Slots: 1}}

	res, err := derive.NewComposer(tables).Derive(derive.Snapshot{Actor: fighter(), Items: items}, rules.Defaults())
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	tables.ArmorCategories = nil
	res, err = derive.NewComposer(tables).Derive(derive.Snapshot{Actor: fighter(), Items: items}, rules.Defaults())
	require.NoError(t, err)
	assert.Empty(t, res.Warnings, "an empty armor table accepts any category")
}

func TestComposer_UsesCustomTables(t *testing.T) {
	tables := progression.DefaultTables()
	tables.Ammo = append(tables.Ammo, progression.AmmoCategory{Kind: "bolt", Label: "Bolts", QuantityPerSlot: 10})
	c := fighter()
	c.Ammo = map[progression.AmmoKind]int{"bolt": 25}

	res, err := derive.NewComposer(tables).Derive(derive.Snapshot{Actor: c}, rules.Defaults())
	require.NoError(t, err)
	assert.Equal(t, 2.5, res.Actor.Common().Slots.Value)
}

func drawSnapshot(rt *rapid.T) derive.Snapshot {
	n := rapid.IntRange(0, 8).Draw(rt, "items")
	items := make([]inventory.Item, n)
	for i := range items {
		id := fmt.Sprintf("i%d", i)
		switch rapid.IntRange(0, 2).Draw(rt, "kind"+id) {
		case 0:
			items[i] = gear(id, float64(rapid.IntRange(0, 400).Draw(rt, "slots"+id))/100)
		case 1:
			items[i] = inventory.Item{
				ID: id, Name: id, Category: inventory.CategoryArmor, Slots: 1,
				ArmorCategory: rapid.SampledFrom([]string{"body", "helmet", "shield"}).Draw(rt, "cat"+id),
				ArmorPoints:   rapid.IntRange(0, 3).Draw(rt, "ap"+id),
				Equipped:      rapid.Bool().Draw(rt, "eq"+id),
			}
		default:
			items[i] = gear(id, 1)
			items[i].Relic = inventory.Relic{IsRelic: true, IsActive: rapid.Bool().Draw(rt, "active"+id)}
		}
		items[i].Dropped = rapid.Bool().Draw(rt, "dropped"+id)
	}

	var a actor.Actor
	switch rapid.IntRange(0, 2).Draw(rt, "variant") {
	case 0:
		c := &actor.Character{
			Abilities:  actor.Abilities{Constitution: rapid.IntRange(-3, 3).Draw(rt, "con")},
			Wounds:     actor.Pool{Value: rapid.IntRange(-2, 14).Draw(rt, "wounds"), Max: 12},
			Stamina:    actor.Pool{Value: rapid.IntRange(-2, 14).Draw(rt, "stamina"), Max: rapid.IntRange(0, 12).Draw(rt, "staminaMax")},
			Companions: actor.Counter{Value: rapid.IntRange(-1, 5).Draw(rt, "companions"), Max: 3},
			XP:         actor.XP{Value: rapid.IntRange(-100, 600000).Draw(rt, "xp")},
		}
		c.Slots.Max = rapid.Float64Range(0, 20).Draw(rt, "storedMax")
		a = c
	case 1:
		a = &actor.Recruit{
			Category: rapid.SampledFrom([]progression.RecruitCategory{progression.Hireling, progression.Mercenary, progression.Expert, "squire"}).Draw(rt, "category"),
			Rarity:   rapid.SampledFrom([]progression.Rarity{progression.Common, progression.Uncommon, progression.Rare}).Draw(rt, "rarity"),
		}
	default:
		m := &actor.Monster{}
		m.ArmorClass = rapid.IntRange(8, 20).Draw(rt, "ac")
		a = m
	}
	base := a.Common()
	base.Coins = rapid.IntRange(-10, 3000).Draw(rt, "coins")
	base.Ammo = map[progression.AmmoKind]int{progression.Arrow: rapid.IntRange(0, 60).Draw(rt, "arrows")}
	base.HitPoints = actor.Pool{Value: rapid.IntRange(-5, 15).Draw(rt, "hp"), Max: rapid.IntRange(0, 10).Draw(rt, "hpMax")}
	return derive.Snapshot{Actor: a, Items: items}
}

func drawSettings(rt *rapid.T) rules.Settings {
	s := rules.Defaults()
	s.AutomaticSlots = rapid.Bool().Draw(rt, "automaticSlots")
	s.AutomaticArmor = rapid.Bool().Draw(rt, "automaticArmor")
	s.AutomaticStamina = rapid.Bool().Draw(rt, "automaticStamina")
	s.EnforceDrop = rapid.Bool().Draw(rt, "enforceDrop")
	s.EnforceArmor = rapid.Bool().Draw(rt, "enforceArmor")
	s.EnforceIntegerSlots = rapid.Bool().Draw(rt, "enforceIntegerSlots")
	s.ArmorRequiresEquipped = rapid.Bool().Draw(rt, "armorRequiresEquipped")
	return s
}

func TestProperty_DeriveIsAFixedPoint(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		snap := drawSnapshot(rt)
		s := drawSettings(rt)

		first, err := derive.Derive(snap, s)
		require.NoError(rt, err)
		second, err := derive.Derive(derive.Apply(snap, first), s)
		require.NoError(rt, err)

		assert.Equal(rt, first.Actor, second.Actor)
		assert.Equal(rt, first.Items, second.Items)
		assert.Equal(rt, first.Light, second.Light)
	})
}

func TestProperty_PoolsClampedAfterDerive(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		res, err := derive.Derive(drawSnapshot(rt), drawSettings(rt))
		require.NoError(rt, err)

		hp := res.Actor.Common().HitPoints
		assert.True(rt, hp.Value >= 0 && hp.Value <= hp.Max)
		if c, ok := res.Actor.(*actor.Character); ok {
			assert.True(rt, c.Wounds.Value >= 0 && c.Wounds.Value <= c.Wounds.Max)
			assert.True(rt, c.Stamina.Value >= 0 && c.Stamina.Value <= c.Stamina.Max)
		}
	})
}
