package koto

import "fmt"

// file environment.go implements a two-tier environment: a single global
// ordered map plus a call stack of local frames, looked up local-to-global
// unless the `global` keyword forces a write into the outermost scope.

// maxCallDepth guards against unbounded recursion blowing the Go goroutine
// stack, raising a RuntimeError instead.
const maxCallDepth = 999

// frame is one local scope: a function call or the toplevel.
type frame struct {
	vars map[string]Value
}

func newFrame() *frame { return &frame{vars: make(map[string]Value)} }

// Environment holds the global bindings and the active call stack.
type Environment struct {
	global *Map
	stack  []*frame
}

// NewEnvironment returns an Environment with one empty local frame, mirroring
// the toplevel script's own implicit scope.
func NewEnvironment() *Environment {
	env := &Environment{global: NewEmptyMap()}
	env.stack = []*frame{newFrame()}
	return env
}

func (e *Environment) top() *frame { return e.stack[len(e.stack)-1] }

// PushFrame enters a new local scope (a function call).
func (e *Environment) PushFrame() error {
	if len(e.stack) >= maxCallDepth {
		return fmt.Errorf("call stack exceeded maximum depth of %d (recursion too deep)", maxCallDepth)
	}
	e.stack = append(e.stack, newFrame())
	return nil
}

// PopFrame leaves the current local scope.
func (e *Environment) PopFrame() {
	if len(e.stack) > 1 {
		e.stack = e.stack[:len(e.stack)-1]
	}
}

// Lookup resolves name local-first, then global.
func (e *Environment) Lookup(name string) (Value, bool) {
	if v, ok := e.top().vars[name]; ok {
		return v, true
	}
	if v, ok := e.global.Get(name); ok {
		return v, true
	}
	return Value{}, false
}

// SetLocal binds name in the current local frame. With no call frame active
// (the implicit toplevel scope), it binds into the global map instead, so a
// free name resolved at call time (e.g. a self-recursive toplevel function)
// can find it once a frame has been pushed for the call.
func (e *Environment) SetLocal(name string, v Value) {
	if len(e.stack) == 1 {
		e.SetGlobal(name, v)
		return
	}
	e.top().vars[name] = v
}

// SetGlobal binds name in the global map, for `global x = ...` assignments.
func (e *Environment) SetGlobal(name string, v Value) {
	_ = e.global.Set(name, v)
}

// Global returns the underlying global map, e.g. for the host API's
// prelude/env injection.
func (e *Environment) Global() *Map { return e.global }

// Depth reports the current call-stack depth, mostly for diagnostics.
func (e *Environment) Depth() int { return len(e.stack) }
