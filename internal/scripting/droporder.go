package scripting

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/knave/internal/game/inventory"
)

// priorityFunc is the global a drop-order script must define.
const priorityFunc = "priority"

// ErrNoPriority is returned when a script does not define priority(item).
var ErrNoPriority = errors.New("drop-order script must define function priority(item)")

// DropOrder reorders an item list with a Lua priority(item) function before it
// reaches the encumbrance calculator. Items with a lower priority come first
// and so are the first to be dropped on overflow.
//
// DropOrder is safe for concurrent use; calls are serialized on one state.
type DropOrder struct {
	mu     sync.Mutex
	sb     *Sandbox
	fn     lua.LValue
	logger *zap.Logger
}

// LoadDropOrder reads the script at path.
//
// Precondition: logger is non-nil.
// Postcondition: Returns a ready DropOrder or an error naming the file.
func LoadDropOrder(path string, instLimit int, logger *zap.Logger) (*DropOrder, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading drop-order script: %w", err)
	}
	d, err := newDropOrder(string(src), path, instLimit, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Info("drop-order script loaded", zap.String("path", path))
	return d, nil
}

// NewDropOrder compiles src in a fresh sandbox.
//
// Precondition: logger is non-nil.
// Postcondition: Returns ErrNoPriority if src does not define priority.
func NewDropOrder(src string, instLimit int, logger *zap.Logger) (*DropOrder, error) {
	return newDropOrder(src, "inline", instLimit, logger)
}

func newDropOrder(src, name string, instLimit int, logger *zap.Logger) (*DropOrder, error) {
	sb := NewSandboxedState(instLimit)
	RegisterModules(sb.L, name, logger)
	if err := sb.DoString(src); err != nil {
		sb.Close()
		return nil, fmt.Errorf("loading drop-order script: %w", err)
	}
	fn := sb.L.GetGlobal(priorityFunc)
	if fn.Type() != lua.LTFunction {
		sb.Close()
		return nil, ErrNoPriority
	}
	return &DropOrder{sb: sb, fn: fn, logger: logger}, nil
}

// Order returns items stably sorted by ascending priority. Items with equal
// priority keep the caller's order.
//
// Postcondition: items is not modified. On error the returned slice is a copy
// of items in the caller's order.
func (d *DropOrder) Order(items []inventory.Item) ([]inventory.Item, error) {
	out := inventory.Clone(items)
	keys := make([]float64, len(items))

	d.mu.Lock()
	for i, it := range items {
		ret, err := d.sb.Call(d.fn, itemTable(d.sb.L, it))
		if err != nil {
			d.mu.Unlock()
			d.logger.Warn("drop-order script failed; keeping caller order",
				zap.String("item_id", it.ID), zap.Error(err))
			return out, fmt.Errorf("priority(%s): %w", it.ID, err)
		}
		n, ok := ret.(lua.LNumber)
		if !ok {
			d.mu.Unlock()
			return out, fmt.Errorf("priority(%s) returned %s, want number", it.ID, ret.Type())
		}
		keys[i] = float64(n)
	}
	d.mu.Unlock()

	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		switch {
		case keys[a] < keys[b]:
			return -1
		case keys[a] > keys[b]:
			return 1
		default:
			return 0
		}
	})
	for i, j := range idx {
		out[i] = items[j]
	}
	return out, nil
}

// Close releases the Lua state.
func (d *DropOrder) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sb.Close()
}

// itemTable exposes the fields a script may rank on. Equipped and dropped are
// derivation outputs and are never exposed.
func itemTable(L *lua.LState, it inventory.Item) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(it.ID))
	t.RawSetString("name", lua.LString(it.Name))
	t.RawSetString("category", lua.LString(it.Category))
	t.RawSetString("slots", lua.LNumber(it.Slots))
	t.RawSetString("broken", lua.LBool(it.Broken))
	t.RawSetString("armor_points", lua.LNumber(it.ArmorPoints))
	t.RawSetString("armor_category", lua.LString(it.ArmorCategory))
	t.RawSetString("lit", lua.LBool(it.Light.Lit))
	t.RawSetString("relic", lua.LBool(it.ActiveRelic()))
	return t
}
