package modules

import "github.com/dekarrin/koto/internal/koto"

// RegisterMap installs a representative slice of the `map` module onto rt:
// keys, size and contains_key, mirroring list.go's demonstration of the
// builtin-registration contract for a second container type.
func RegisterMap(rt *koto.Runtime) {
	rt.RegisterModule("map", map[string]koto.NativeFunc{
		"size": func(rt *koto.Runtime, args []koto.Value) (koto.Value, error) {
			if err := koto.RequireArgs("map.size", args, 1); err != nil {
				return koto.Value{}, err
			}
			if args[0].Kind() != koto.KindMap {
				return koto.Value{}, koto.ArgError("map.size expects a Map, got %s", args[0].Kind())
			}
			return koto.NewNumber(float64(args[0].Map().Len())), nil
		},
		"keys": func(rt *koto.Runtime, args []koto.Value) (koto.Value, error) {
			if err := koto.RequireArgs("map.keys", args, 1); err != nil {
				return koto.Value{}, err
			}
			if args[0].Kind() != koto.KindMap {
				return koto.Value{}, koto.ArgError("map.keys expects a Map, got %s", args[0].Kind())
			}
			keys := args[0].Map().Keys()
			items := make([]koto.Value, len(keys))
			for i, k := range keys {
				items[i] = koto.NewStr(k)
			}
			return koto.NewList(koto.NewEmptyList(items)), nil
		},
		"contains_key": func(rt *koto.Runtime, args []koto.Value) (koto.Value, error) {
			if err := koto.RequireArgs("map.contains_key", args, 2); err != nil {
				return koto.Value{}, err
			}
			if args[0].Kind() != koto.KindMap {
				return koto.Value{}, koto.ArgError("map.contains_key expects a Map, got %s", args[0].Kind())
			}
			if args[1].Kind() != koto.KindStr {
				return koto.Value{}, koto.ArgError("map.contains_key expects a Str key, got %s", args[1].Kind())
			}
			_, ok := args[0].Map().Get(args[1].Str())
			return koto.NewBool(ok), nil
		},
	})
}
