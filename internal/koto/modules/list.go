// Package modules demonstrates the builtin-registration contract: a small,
// representative slice of the `list` and `map` core modules, wired the way
// a full standard library would be, without reimplementing Koto's whole
// standard library.
package modules

import "github.com/dekarrin/koto/internal/koto"

// RegisterList installs a representative slice of the `list` module onto
// rt: size, push and contains, enough to exercise the builtin bridge
// end to end.
func RegisterList(rt *koto.Runtime) {
	rt.RegisterModule("list", map[string]koto.NativeFunc{
		"size": func(rt *koto.Runtime, args []koto.Value) (koto.Value, error) {
			if err := koto.RequireArgs("list.size", args, 1); err != nil {
				return koto.Value{}, err
			}
			if args[0].Kind() != koto.KindList {
				return koto.Value{}, koto.ArgError("list.size expects a List, got %s", args[0].Kind())
			}
			return koto.NewNumber(float64(args[0].List().Len())), nil
		},
		"push": func(rt *koto.Runtime, args []koto.Value) (koto.Value, error) {
			if len(args) < 2 {
				return koto.Value{}, koto.ArgError("list.push expects a List and at least one value")
			}
			if args[0].Kind() != koto.KindList {
				return koto.Value{}, koto.ArgError("list.push expects a List, got %s", args[0].Kind())
			}
			l := args[0].List()
			for _, v := range args[1:] {
				if err := l.Append(v); err != nil {
					return koto.Value{}, koto.ArgError("%s", err)
				}
			}
			return args[0], nil
		},
		"contains": func(rt *koto.Runtime, args []koto.Value) (koto.Value, error) {
			if err := koto.RequireArgs("list.contains", args, 2); err != nil {
				return koto.Value{}, err
			}
			if args[0].Kind() != koto.KindList {
				return koto.Value{}, koto.ArgError("list.contains expects a List, got %s", args[0].Kind())
			}
			for _, item := range args[0].List().Items() {
				if item.Equal(args[1]) {
					return koto.NewBool(true), nil
				}
			}
			return koto.NewBool(false), nil
		},
	})
}
