package koto

import "fmt"

// file builtins.go implements the builtin bridge: a native Go function is
// wrapped as a Builtin and registered into the environment, either as a bare
// global name or as an entry of a module Map, so a script can call it as an
// ordinary identifier or through dotted module access.

// NativeFunc is the Go-side shape every builtin must implement: it receives
// the live Runtime and already-evaluated arguments, and returns a Value or
// a *BuiltinError.
type NativeFunc func(rt *Runtime, args []Value) (Value, error)

// Register installs a native function under name (e.g. "list.size") into
// rt's global scope, making it callable as an ordinary identifier.
func (rt *Runtime) Register(name string, fn NativeFunc) {
	b := &Builtin{Name: name, Call: fn}
	rt.Env.SetGlobal(name, NewBuiltin(b))
}

// RegisterModule installs module as a Map global bound to each entry of fns,
// so a script can call it as "<module>.<name>(...)": the dotted lookup chain
// resolves the bare "<module>" identifier first and then indexes ".<name>"
// on the Map it finds, the same way any other map property access works.
func (rt *Runtime) RegisterModule(module string, fns map[string]NativeFunc) {
	m := NewEmptyMap()
	for name, fn := range fns {
		b := &Builtin{Name: fmt.Sprintf("%s.%s", module, name), Call: fn}
		_ = m.Set(name, NewBuiltin(b))
	}
	rt.Env.SetGlobal(module, NewMap(m))
}

// ArgError builds a *BuiltinError for a native function's arity or type
// mismatch, the idiomatic way for a builtin to report misuse to the script
// that called it.
func ArgError(format string, args ...any) error {
	return &BuiltinError{Msg: fmt.Sprintf(format, args...)}
}

// RequireArgs is a small helper most builtins open with: it reports a
// *BuiltinError if args doesn't have exactly n elements.
func RequireArgs(fn string, args []Value, n int) error {
	if len(args) != n {
		return ArgError("%s expects %d argument(s), got %d", fn, n, len(args))
	}
	return nil
}
