package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/knave/internal/game/inventory"
)

// RegisterModules installs the knave global table into L:
//
//	knave.log(msg)       debug-level log line tagged with the script name
//	knave.category.<c>   item category names, e.g. knave.category.lightSource
//
// Precondition: L must be from NewSandboxedState; logger is non-nil.
// Postcondition: knave global is defined in L.
func RegisterModules(L *lua.LState, script string, logger *zap.Logger) {
	knave := L.NewTable()

	L.SetField(knave, "log", L.NewFunction(func(L *lua.LState) int {
		logger.Debug("lua", zap.String("script", script), zap.String("msg", L.CheckString(1)))
		return 0
	}))

	categories := L.NewTable()
	for _, c := range []inventory.Category{
		inventory.CategoryWeapon,
		inventory.CategoryArmor,
		inventory.CategoryEquipment,
		inventory.CategoryLightSource,
		inventory.CategorySpellbook,
		inventory.CategorySpell,
		inventory.CategoryAttack,
	} {
		categories.RawSetString(string(c), lua.LString(c))
	}
	L.SetField(knave, "category", categories)

	L.SetGlobal("knave", knave)
}
