// Package koto implements the core of the Koto scripting language: its value
// model, AST, lexer, Pratt parser, environment, and tree-walking evaluator.
package koto

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the tag of a Value's variant.
type Kind int

const (
	KindEmpty Kind = iota
	KindBool
	KindNumber
	KindVec4
	KindStr
	KindRange
	KindIndexRange
	KindList
	KindMap
	KindFunction
	KindBuiltin
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindBool:
		return "Bool"
	case KindNumber:
		return "Number"
	case KindVec4:
		return "Vec4"
	case KindStr:
		return "Str"
	case KindRange:
		return "Range"
	case KindIndexRange:
		return "IndexRange"
	case KindList:
		return "List"
	case KindMap:
		return "Map"
	case KindFunction:
		return "Function"
	case KindBuiltin:
		return "BuiltinFunction"
	default:
		return "UNKNOWN"
	}
}

// Range is an integer range, half-open unless Inclusive is set.
type Range struct {
	Start     int
	End       int
	Inclusive bool
}

// IndexRange is a slicing range; either bound may be absent.
type IndexRange struct {
	Start     *int
	End       *int
	Inclusive bool
}

// Value is a tagged union of every runtime value a Koto program can produce.
// The zero Value is Empty. Str, List, Map, Function and BuiltinFunction carry
// reference semantics: copying a Value copies the handle, not the underlying
// data (see [Value.Copy] and [Value.Share]).
type Value struct {
	kind    Kind
	b       bool
	n       float64
	vec     [4]float64
	s       string
	rng     Range
	idxRng  IndexRange
	list    *List
	mp      *Map
	fn      *Function
	builtin *Builtin
}

// Empty returns the unit value.
func Empty() Value { return Value{kind: KindEmpty} }

// NewBool wraps a bool.
func NewBool(b bool) Value { return Value{kind: KindBool, b: b} }

// NewNumber wraps a 64-bit float.
func NewNumber(n float64) Value { return Value{kind: KindNumber, n: n} }

// NewVec4 wraps four numeric lanes.
func NewVec4(x, y, z, w float64) Value {
	return Value{kind: KindVec4, vec: [4]float64{x, y, z, w}}
}

// NewStr wraps an immutable string.
func NewStr(s string) Value { return Value{kind: KindStr, s: s} }

// NewRange wraps an integer range.
func NewRange(start, end int, inclusive bool) Value {
	return Value{kind: KindRange, rng: Range{Start: start, End: end, Inclusive: inclusive}}
}

// NewIndexRange wraps a slicing range.
func NewIndexRange(start, end *int, inclusive bool) Value {
	return Value{kind: KindIndexRange, idxRng: IndexRange{Start: start, End: end, Inclusive: inclusive}}
}

// NewList wraps a shared list handle.
func NewList(l *List) Value { return Value{kind: KindList, list: l} }

// NewMap wraps a shared map handle.
func NewMap(m *Map) Value { return Value{kind: KindMap, mp: m} }

// NewFunction wraps a user-defined function.
func NewFunction(f *Function) Value { return Value{kind: KindFunction, fn: f} }

// NewBuiltin wraps a native callable.
func NewBuiltin(b *Builtin) Value { return Value{kind: KindBuiltin, builtin: b} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// Bool returns the underlying bool. Only meaningful when Kind() == KindBool;
// callers that need coercion should use Truthy instead.
func (v Value) Bool() bool { return v.b }

// Number returns the underlying float64. Only meaningful when
// Kind() == KindNumber.
func (v Value) Number() float64 { return v.n }

// Vec4 returns the four numeric lanes. Only meaningful when
// Kind() == KindVec4.
func (v Value) Vec4() (x, y, z, w float64) { return v.vec[0], v.vec[1], v.vec[2], v.vec[3] }

// Str returns the underlying string. Only meaningful when Kind() == KindStr.
func (v Value) Str() string { return v.s }

// Range returns the underlying range. Only meaningful when
// Kind() == KindRange.
func (v Value) Range() Range { return v.rng }

// IndexRange returns the underlying slicing range. Only meaningful when
// Kind() == KindIndexRange.
func (v Value) IndexRange() IndexRange { return v.idxRng }

// List returns the underlying shared list handle. Only meaningful when
// Kind() == KindList.
func (v Value) List() *List { return v.list }

// Map returns the underlying shared map handle. Only meaningful when
// Kind() == KindMap.
func (v Value) Map() *Map { return v.mp }

// Function returns the underlying function definition. Only meaningful when
// Kind() == KindFunction.
func (v Value) Function() *Function { return v.fn }

// Builtin returns the underlying native callable. Only meaningful when
// Kind() == KindBuiltin.
func (v Value) Builtin() *Builtin { return v.builtin }

// Truthy implements Koto's boolean coercion: Empty and false are falsy, every
// other value (including 0, "", and empty containers) is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindEmpty:
		return false
	case KindBool:
		return v.b
	default:
		return true
	}
}

// Copy produces a deep-ish clone of v: containers are cloned one level deep
// (their direct elements are copied by handle, not recursively), matching the
// `copy` operator's semantics. Non-container values are returned unchanged,
// since they already have value semantics or are immutable.
func (v Value) Copy() Value {
	switch v.kind {
	case KindList:
		return NewList(v.list.Clone())
	case KindMap:
		return NewMap(v.mp.Clone())
	default:
		return v
	}
}

// Share is an explicit alias: it returns v unchanged. It exists so that
// `share x` reads clearly next to `copy x` at call sites; for container
// values this is exactly what a plain assignment already does.
func (v Value) Share() Value { return v }

// Equal implements Koto's structural equality. Values of incompatible
// variants are never equal (and this never errors); List/Map compare
// element-wise; Function/BuiltinFunction compare by identity.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindEmpty:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindVec4:
		return v.vec == o.vec
	case KindStr:
		return v.s == o.s
	case KindRange:
		return v.rng == o.rng
	case KindIndexRange:
		return eqIntPtr(v.idxRng.Start, o.idxRng.Start) &&
			eqIntPtr(v.idxRng.End, o.idxRng.End) &&
			v.idxRng.Inclusive == o.idxRng.Inclusive
	case KindList:
		if v.list == o.list {
			return true
		}
		av, bv := v.list.Items(), o.list.Items()
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !av[i].Equal(bv[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if v.mp == o.mp {
			return true
		}
		if v.mp.Len() != o.mp.Len() {
			return false
		}
		for _, k := range v.mp.Keys() {
			ov, ok := o.mp.Get(k)
			if !ok {
				return false
			}
			vv, _ := v.mp.Get(k)
			if !vv.Equal(ov) {
				return false
			}
		}
		return true
	case KindFunction:
		return v.fn == o.fn
	case KindBuiltin:
		return v.builtin == o.builtin
	default:
		return false
	}
}

func eqIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// String renders v the way `debug` and string-conversion builtins display
// it.
func (v Value) String() string {
	switch v.kind {
	case KindEmpty:
		return "()"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return formatNumber(v.n)
	case KindVec4:
		return fmt.Sprintf("vec4(%s, %s, %s, %s)", formatNumber(v.vec[0]), formatNumber(v.vec[1]), formatNumber(v.vec[2]), formatNumber(v.vec[3]))
	case KindStr:
		return v.s
	case KindRange:
		op := ".."
		if v.rng.Inclusive {
			op = "..="
		}
		return fmt.Sprintf("%d%s%d", v.rng.Start, op, v.rng.End)
	case KindIndexRange:
		op := ".."
		if v.idxRng.Inclusive {
			op = "..="
		}
		start, end := "", ""
		if v.idxRng.Start != nil {
			start = strconv.Itoa(*v.idxRng.Start)
		}
		if v.idxRng.End != nil {
			end = strconv.Itoa(*v.idxRng.End)
		}
		return start + op + end
	case KindList:
		parts := make([]string, 0, v.list.Len())
		for _, item := range v.list.Items() {
			parts = append(parts, item.String())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		parts := make([]string, 0, v.mp.Len())
		for _, k := range v.mp.Keys() {
			val, _ := v.mp.Get(k)
			parts = append(parts, fmt.Sprintf("%s: %s", k, val.String()))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindFunction:
		return "||"
	case KindBuiltin:
		return fmt.Sprintf("||builtin:%s||", v.builtin.Name)
	default:
		return "?"
	}
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}
