// Package scripting runs operator-supplied Lua hooks in a sandboxed GopherLua
// state. Hooks only ever reorder or annotate engine inputs; they never see the
// store or the network.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the maximum number of Lua opcodes one call may run
// when no limit is configured.
const DefaultInstructionLimit = 100_000

// countingContext is a context.Context that cancels itself after Done() has
// been called limit times. GopherLua's mainLoopWithContext calls Done() once
// per opcode, making this an exact instruction-count limit.
type countingContext struct {
	context.Context
	cancel    context.CancelFunc
	remaining *atomic.Int64
}

func (c *countingContext) Done() <-chan struct{} {
	if c.remaining.Add(-1) <= 0 {
		c.cancel()
	}
	return c.Context.Done()
}

func newCountingContext(limit int) (context.Context, context.CancelFunc) {
	base, cancel := context.WithCancel(context.Background())
	rem := &atomic.Int64{}
	rem.Store(int64(limit))
	return &countingContext{
		Context:   base,
		cancel:    cancel,
		remaining: rem,
	}, cancel
}

// Sandbox is a Lua state with only the base, table, string and math libraries
// and a per-call instruction budget.
//
// A Sandbox is not safe for concurrent use.
type Sandbox struct {
	L     *lua.LState
	limit int
}

// NewSandboxedState creates a Sandbox with:
//   - Only safe stdlib loaded: base, table, string, math
//   - Dangerous globals removed: dofile, loadfile, load, collectgarbage, require
//   - Each DoString or Call limited to at most instLimit Lua opcodes
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: The caller owns the Sandbox and must call Close when done.
func NewSandboxedState(instLimit int) *Sandbox {
	limit := instLimit
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	return &Sandbox{L: L, limit: limit}
}

// DoString runs src with a fresh instruction budget.
func (s *Sandbox) DoString(src string) error {
	defer s.budget()()
	return s.L.DoString(src)
}

// Call invokes fn with args and a fresh instruction budget and returns its
// single result.
//
// Postcondition: The Lua stack is left balanced.
func (s *Sandbox) Call(fn lua.LValue, args ...lua.LValue) (lua.LValue, error) {
	defer s.budget()()
	if err := s.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		return lua.LNil, err
	}
	ret := s.L.Get(-1)
	s.L.Pop(1)
	return ret, nil
}

// Close releases the Lua state.
func (s *Sandbox) Close() {
	s.L.Close()
}

// budget installs a fresh counting context and returns the func that removes it.
func (s *Sandbox) budget() func() {
	ctx, cancel := newCountingContext(s.limit)
	s.L.SetContext(ctx)
	return func() {
		s.L.RemoveContext()
		cancel()
	}
}
