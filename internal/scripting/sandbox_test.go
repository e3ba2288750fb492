package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/knave/internal/scripting"
)

func TestNewSandboxedState_UnsafeLibsNil(t *testing.T) {
	sb := scripting.NewSandboxedState(0)
	require.NotNil(t, sb)
	defer sb.Close()
	for _, name := range []string{"os", "io", "debug"} {
		assert.Equal(t, lua.LNil, sb.L.GetGlobal(name), "expected %s to be nil", name)
	}
}

func TestNewSandboxedState_DangerousGlobalsNil(t *testing.T) {
	sb := scripting.NewSandboxedState(0)
	defer sb.Close()
	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		assert.Equal(t, lua.LNil, sb.L.GetGlobal(name), "expected %s to be nil", name)
	}
}

func TestNewSandboxedState_SafeLibsAvailable(t *testing.T) {
	sb := scripting.NewSandboxedState(0)
	defer sb.Close()
	err := sb.DoString(`
		local x = math.sqrt(4)
		assert(x == 2.0, "math.sqrt failed")
		local s = string.upper("hello")
		assert(s == "HELLO", "string.upper failed")
	`)
	assert.NoError(t, err)
}

func TestSandbox_InstructionLimitExceeded(t *testing.T) {
	sb := scripting.NewSandboxedState(10)
	defer sb.Close()
	assert.Error(t, sb.DoString(`while true do end`))
}

func TestSandbox_ZeroLimitUsesDefault(t *testing.T) {
	sb := scripting.NewSandboxedState(0)
	defer sb.Close()
	assert.Error(t, sb.DoString(`while true do end`), "a zero limit is not unlimited")
}

func TestSandbox_BudgetResetsPerCall(t *testing.T) {
	sb := scripting.NewSandboxedState(200)
	defer sb.Close()
	require.NoError(t, sb.DoString(`function twice(n) return n * 2 end`))

	fn := sb.L.GetGlobal("twice")
	for i := 0; i < 100; i++ {
		ret, err := sb.Call(fn, lua.LNumber(i))
		require.NoError(t, err, "call %d", i)
		assert.Equal(t, lua.LNumber(i*2), ret)
	}
	assert.Equal(t, 0, sb.L.GetTop())
}

func TestSandbox_CallRuntimeError(t *testing.T) {
	sb := scripting.NewSandboxedState(0)
	defer sb.Close()
	require.NoError(t, sb.DoString(`function boom() error("nope") end`))
	_, err := sb.Call(sb.L.GetGlobal("boom"))
	assert.ErrorContains(t, err, "nope")
}

func TestProperty_InstructionLimitAlwaysErrors(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(1, 50).Draw(t, "limit")
		sb := scripting.NewSandboxedState(limit)
		defer sb.Close()
		if err := sb.DoString(`while true do end`); err == nil {
			t.Fatalf("expected error with limit=%d but got nil", limit)
		}
	})
}
