package scripting_test

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/knave/internal/game/inventory"
	"github.com/cory-johannsen/knave/internal/scripting"
)

const keepWeaponsLast = `
function priority(item)
  if item.category == "weapon" then return 10 end
  if item.relic then return 5 end
  return item.slots
end
`

func ids(items []inventory.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestDropOrder_Order(t *testing.T) {
	d, err := scripting.NewDropOrder(keepWeaponsLast, 0, zap.NewNop())
	require.NoError(t, err)
	defer d.Close()

	items := []inventory.Item{
		{ID: "sword", Category: inventory.CategoryWeapon, Slots: 1, Equipped: true},
		{ID: "tent", Category: inventory.CategoryEquipment, Slots: 3},
		{ID: "idol", Category: inventory.CategoryEquipment, Slots: 1, Relic: inventory.Relic{IsRelic: true, IsActive: true}},
		{ID: "rope", Category: inventory.CategoryEquipment, Slots: 1},
		{ID: "chalk", Category: inventory.CategoryEquipment, Slots: 1},
	}
	got, err := d.Order(items)
	require.NoError(t, err)
	assert.Equal(t, []string{"rope", "chalk", "tent", "idol", "sword"}, ids(got))
	assert.Equal(t, "sword", items[0].ID, "input must not be reordered")
}

func TestDropOrder_DerivedFlagsHidden(t *testing.T) {
	d, err := scripting.NewDropOrder(`
function priority(item)
  assert(item.equipped == nil, "equipped visible")
  assert(item.dropped == nil, "dropped visible")
  return 0
end`, 0, zap.NewNop())
	require.NoError(t, err)
	defer d.Close()
	_, err = d.Order([]inventory.Item{{ID: "helm", Equipped: true, Dropped: true}})
	assert.NoError(t, err)
}

func TestNewDropOrder_MissingPriority(t *testing.T) {
	_, err := scripting.NewDropOrder(`x = 1`, 0, zap.NewNop())
	assert.ErrorIs(t, err, scripting.ErrNoPriority)
}

func TestNewDropOrder_SyntaxError(t *testing.T) {
	_, err := scripting.NewDropOrder(`function priority(`, 0, zap.NewNop())
	assert.Error(t, err)
}

func TestDropOrder_ScriptErrorKeepsOrder(t *testing.T) {
	d, err := scripting.NewDropOrder(`function priority(item) if item.id == "b" then error("bad") end return 0 end`, 0, zap.NewNop())
	require.NoError(t, err)
	defer d.Close()

	items := []inventory.Item{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	got, err := d.Order(items)
	assert.ErrorContains(t, err, "bad")
	assert.Equal(t, []string{"a", "b", "c"}, ids(got))
}

func TestDropOrder_NonNumberPriority(t *testing.T) {
	d, err := scripting.NewDropOrder(`function priority(item) return "high" end`, 0, zap.NewNop())
	require.NoError(t, err)
	defer d.Close()
	_, err = d.Order([]inventory.Item{{ID: "a"}})
	assert.ErrorContains(t, err, "want number")
}

func TestDropOrder_RunawayScriptIsStopped(t *testing.T) {
	d, err := scripting.NewDropOrder(`function priority(item) while true do end end`, 1000, zap.NewNop())
	require.NoError(t, err)
	defer d.Close()
	_, err = d.Order([]inventory.Item{{ID: "a"}})
	assert.Error(t, err)
}

func TestLoadDropOrder_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drop.lua")
	require.NoError(t, os.WriteFile(path, []byte(keepWeaponsLast), 0o644))
	d, err := scripting.LoadDropOrder(path, 0, zap.NewNop())
	require.NoError(t, err)
	d.Close()

	_, err = scripting.LoadDropOrder(filepath.Join(t.TempDir(), "missing.lua"), 0, zap.NewNop())
	assert.Error(t, err)
}

func TestDropOrder_ConcurrentCallers(t *testing.T) {
	d, err := scripting.NewDropOrder(keepWeaponsLast, 0, zap.NewNop())
	require.NoError(t, err)
	defer d.Close()

	items := []inventory.Item{{ID: "a", Slots: 2}, {ID: "b", Slots: 1}}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := d.Order(items)
			assert.NoError(t, err)
			assert.Equal(t, []string{"b", "a"}, ids(got))
		}()
	}
	wg.Wait()
}

func TestProperty_OrderIsStablePermutation(t *testing.T) {
	d, err := scripting.NewDropOrder(`function priority(item) return item.slots end`, 0, zap.NewNop())
	require.NoError(t, err)
	defer d.Close()

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 12).Draw(rt, "n")
		items := make([]inventory.Item, n)
		for i := range items {
			items[i] = inventory.Item{ID: fmt.Sprintf("i%d", i), Slots: float64(rapid.IntRange(0, 3).Draw(rt, fmt.Sprintf("s%d", i)))}
		}
		got, err := d.Order(items)
		require.NoError(rt, err)
		assert.ElementsMatch(rt, ids(items), ids(got))
		for i := 1; i < len(got); i++ {
			assert.LessOrEqual(rt, got[i-1].Slots, got[i].Slots)
			if got[i-1].Slots == got[i].Slots {
				var a, b int
				fmt.Sscanf(got[i-1].ID, "i%d", &a)
				fmt.Sscanf(got[i].ID, "i%d", &b)
				assert.Less(rt, a, b, "ties keep caller order")
			}
		}
	})
}
