package koto

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/dekarrin/koto/internal/util"
)

// file eval.go is the tree-walking evaluator: a single recursive Eval
// method dispatching on Node.Kind, with non-local control flow (return,
// break, continue) threaded through control.go's signal types instead of
// a side channel.

// Runtime is one script's live evaluation state: its environment, the
// script path and CLI arguments exposed to running code, and where
// `debug` output is written.
type Runtime struct {
	Env        *Environment
	ScriptPath string
	Args       []string
	Output     io.Writer
}

// NewRuntime returns a Runtime with a fresh Environment and debug output on
// stdout.
func NewRuntime() *Runtime {
	return &Runtime{Env: NewEnvironment(), Output: os.Stdout}
}

// Eval walks node and produces its value, or an error: a *RuntimeError for
// ordinary evaluation failures, or one of control.go's internal signal
// types for unwound return/break/continue (callers that can't handle a
// signal should let it propagate; Run and callValue are the two places
// that finally consume one).
func (rt *Runtime) Eval(node *Node) (Value, error) {
	switch node.Kind {
	case KindEmpty:
		return Empty(), nil
	case KindBool:
		return NewBool(node.Payload.(BoolLit).Value), nil
	case KindNumber:
		return NewNumber(node.Payload.(NumberLit).Value), nil
	case KindStr:
		return NewStr(node.Payload.(StrLit).Value), nil
	case KindStrInterp:
		return rt.evalStrInterp(node)
	case KindList:
		return rt.evalList(node)
	case KindMap:
		return rt.evalMap(node)
	case KindRange:
		return rt.evalRange(node)
	case KindIndexRange:
		return rt.evalIndexRangeValue(node)
	case KindId:
		name := node.Payload.(IdRef).Name
		if v, ok := rt.Env.Lookup(name); ok {
			return v, nil
		}
		return Value{}, runtimeErrf(node.Span, "unknown variable %q", name)
	case KindLookup:
		return rt.evalLookup(node.Payload.(LookupChain).Steps, node.Span)
	case KindCopy:
		v, err := rt.Eval(node.Payload.(UnaryWrap).Operand)
		if err != nil {
			return Value{}, err
		}
		return v.Copy(), nil
	case KindShare:
		v, err := rt.Eval(node.Payload.(UnaryWrap).Operand)
		if err != nil {
			return Value{}, err
		}
		return v.Share(), nil
	case KindNegate:
		return rt.evalNegate(node)
	case KindReturn:
		rs := node.Payload.(ReturnStmt)
		if rs.Value == nil {
			return Value{}, &returnSignal{value: Empty()}
		}
		v, err := rt.Eval(rs.Value)
		if err != nil {
			return Value{}, err
		}
		return Value{}, &returnSignal{value: v}
	case KindBreak:
		return Value{}, breakSignal{}
	case KindContinue:
		return Value{}, continueSignal{}
	case KindBlock:
		return rt.evalBlock(node)
	case KindOp:
		return rt.evalOp(node)
	case KindAssign:
		return rt.evalAssign(node)
	case KindMultiAssign:
		return rt.evalMultiAssign(node)
	case KindCall:
		return rt.evalCall(node)
	case KindDebug:
		return rt.evalDebug(node)
	case KindIf:
		return rt.evalIf(node)
	case KindFor:
		return rt.evalFor(node)
	case KindWhile:
		return rt.evalWhile(node)
	case KindFunction:
		return rt.evalFunctionLit(node)
	default:
		return Value{}, runtimeErrf(node.Span, "internal error: unhandled node kind %d", node.Kind)
	}
}

func (rt *Runtime) evalBlock(node *Node) (Value, error) {
	nodes := node.Payload.(BlockStmt).Nodes
	result := Empty()
	for _, n := range nodes {
		v, err := rt.Eval(n)
		if err != nil {
			return Value{}, err
		}
		result = v
	}
	return result, nil
}

func (rt *Runtime) evalStrInterp(node *Node) (Value, error) {
	parts := node.Payload.(StrInterp).Parts
	out := ""
	for _, part := range parts {
		if part.Expr == nil {
			out += part.Literal
			continue
		}
		v, err := rt.Eval(part.Expr)
		if err != nil {
			return Value{}, err
		}
		out += v.String()
	}
	return NewStr(out), nil
}

func (rt *Runtime) evalList(node *Node) (Value, error) {
	items := node.Payload.(ListLit).Items
	vals := make([]Value, 0, len(items))
	for _, it := range items {
		v, err := rt.Eval(it)
		if err != nil {
			return Value{}, err
		}
		vals = append(vals, v)
	}
	return NewList(NewEmptyList(vals)), nil
}

func (rt *Runtime) evalMap(node *Node) (Value, error) {
	entries := node.Payload.(MapLit).Entries
	m := NewEmptyMap()
	for _, e := range entries {
		v, err := rt.Eval(e.Value)
		if err != nil {
			return Value{}, err
		}
		if err := m.Set(e.Key, v); err != nil {
			return Value{}, runtimeErrf(node.Span, "%s", err)
		}
	}
	return NewMap(m), nil
}

func (rt *Runtime) evalRange(node *Node) (Value, error) {
	rl := node.Payload.(RangeLit)
	start := 0
	if rl.Start != nil {
		v, err := rt.Eval(rl.Start)
		if err != nil {
			return Value{}, err
		}
		if v.Kind() != KindNumber {
			return Value{}, runtimeErrf(node.Span, "range bounds must be numbers")
		}
		start = int(v.Number())
	}
	end := start
	if rl.End != nil {
		v, err := rt.Eval(rl.End)
		if err != nil {
			return Value{}, err
		}
		if v.Kind() != KindNumber {
			return Value{}, runtimeErrf(node.Span, "range bounds must be numbers")
		}
		end = int(v.Number())
	}
	return NewRange(start, end, rl.Inclusive), nil
}

func (rt *Runtime) evalIndexRangeBounds(node *Node) (IndexRange, error) {
	rl := node.Payload.(RangeLit)
	var start, end *int
	if rl.Start != nil {
		v, err := rt.Eval(rl.Start)
		if err != nil {
			return IndexRange{}, err
		}
		n := int(v.Number())
		start = &n
	}
	if rl.End != nil {
		v, err := rt.Eval(rl.End)
		if err != nil {
			return IndexRange{}, err
		}
		n := int(v.Number())
		end = &n
	}
	return IndexRange{Start: start, End: end, Inclusive: rl.Inclusive}, nil
}

func (rt *Runtime) evalIndexRangeValue(node *Node) (Value, error) {
	r, err := rt.evalIndexRangeBounds(node)
	if err != nil {
		return Value{}, err
	}
	return NewIndexRange(r.Start, r.End, r.Inclusive), nil
}

func (rt *Runtime) evalNegate(node *Node) (Value, error) {
	operand := node.Payload.(UnaryWrap).Operand
	v, err := rt.Eval(operand)
	if err != nil {
		return Value{}, err
	}
	switch v.Kind() {
	case KindNumber:
		return NewNumber(-v.Number()), nil
	case KindVec4:
		x, y, z, w := v.Vec4()
		return NewVec4(-x, -y, -z, -w), nil
	default:
		return Value{}, runtimeErrf(node.Span, "cannot negate a value of kind %s", v.Kind())
	}
}

// evalLookup walks a LookupChain left to right against its root binding.
func (rt *Runtime) evalLookup(steps []LookupStep, span Span) (Value, error) {
	if len(steps) == 0 {
		return Empty(), nil
	}
	cur, ok := rt.Env.Lookup(steps[0].Name)
	if !ok {
		return Value{}, runtimeErrf(span, "unknown variable %q%s", steps[0].Name, rt.globalNamesHint())
	}
	for _, step := range steps[1:] {
		v, err := rt.applyStep(cur, step, span)
		if err != nil {
			return Value{}, err
		}
		cur = v
	}
	return cur, nil
}

func (rt *Runtime) applyStep(cur Value, step LookupStep, span Span) (Value, error) {
	switch step.Kind {
	case LookupStepId:
		if cur.Kind() != KindMap {
			return Value{}, runtimeErrf(span, "cannot access property %q of a %s value", step.Name, cur.Kind())
		}
		v, ok := cur.Map().Get(step.Name)
		if !ok {
			return Value{}, runtimeErrf(span, "map has no key %q", step.Name)
		}
		return v, nil
	case LookupStepIndex:
		return rt.evalIndexStep(cur, step.Index, span)
	case LookupStepCall:
		args := make([]Value, 0, len(step.Args))
		for _, a := range step.Args {
			av, err := rt.Eval(a)
			if err != nil {
				return Value{}, err
			}
			args = append(args, av)
		}
		return rt.callValue(cur, args, span)
	default:
		return Value{}, runtimeErrf(span, "internal error: unhandled lookup step")
	}
}

func (rt *Runtime) evalIndexStep(cur Value, idxNode *Node, span Span) (Value, error) {
	if idxNode.Kind == KindIndexRange {
		r, err := rt.evalIndexRangeBounds(idxNode)
		if err != nil {
			return Value{}, err
		}
		switch cur.Kind() {
		case KindList:
			sliced, err := cur.List().Slice(r)
			if err != nil {
				return Value{}, runtimeErrf(span, "%s", err)
			}
			return NewList(sliced), nil
		case KindStr:
			runes := []rune(cur.Str())
			start, end, err := resolveSliceBounds(r, len(runes))
			if err != nil {
				return Value{}, runtimeErrf(span, "%s", err)
			}
			return NewStr(string(runes[start:end])), nil
		default:
			return Value{}, runtimeErrf(span, "cannot slice a value of kind %s", cur.Kind())
		}
	}

	iv, err := rt.Eval(idxNode)
	if err != nil {
		return Value{}, err
	}
	if iv.Kind() != KindNumber {
		return Value{}, runtimeErrf(span, "index must be a number")
	}
	i := int(iv.Number())
	switch cur.Kind() {
	case KindList:
		v, err := cur.List().Get(i)
		if err != nil {
			return Value{}, runtimeErrf(span, "%s", err)
		}
		return v, nil
	case KindStr:
		// negative indexing and all indexing is rune (Unicode codepoint)
		// based, not byte based.
		runes := []rune(cur.Str())
		idx, err := resolveIndex(i, len(runes))
		if err != nil {
			return Value{}, runtimeErrf(span, "%s", err)
		}
		return NewStr(string(runes[idx])), nil
	default:
		return Value{}, runtimeErrf(span, "cannot index a value of kind %s", cur.Kind())
	}
}

func (rt *Runtime) evalOp(node *Node) (Value, error) {
	b := node.Payload.(BinaryOp)
	switch b.Op {
	case "not":
		v, err := rt.Eval(b.LHS)
		if err != nil {
			return Value{}, err
		}
		if v.Kind() != KindBool {
			return Value{}, runtimeErrf(node.Span, "not requires a Bool operand, got %s", v.Kind())
		}
		return NewBool(!v.Bool()), nil
	case "and":
		l, err := rt.Eval(b.LHS)
		if err != nil {
			return Value{}, err
		}
		if l.Kind() != KindBool {
			return Value{}, runtimeErrf(node.Span, "and requires Bool operands, got %s", l.Kind())
		}
		if !l.Bool() {
			return l, nil
		}
		r, err := rt.Eval(b.RHS)
		if err != nil {
			return Value{}, err
		}
		if r.Kind() != KindBool {
			return Value{}, runtimeErrf(node.Span, "and requires Bool operands, got %s", r.Kind())
		}
		return r, nil
	case "or":
		l, err := rt.Eval(b.LHS)
		if err != nil {
			return Value{}, err
		}
		if l.Kind() != KindBool {
			return Value{}, runtimeErrf(node.Span, "or requires Bool operands, got %s", l.Kind())
		}
		if l.Bool() {
			return l, nil
		}
		r, err := rt.Eval(b.RHS)
		if err != nil {
			return Value{}, err
		}
		if r.Kind() != KindBool {
			return Value{}, runtimeErrf(node.Span, "or requires Bool operands, got %s", r.Kind())
		}
		return r, nil
	}

	l, err := rt.Eval(b.LHS)
	if err != nil {
		return Value{}, err
	}
	r, err := rt.Eval(b.RHS)
	if err != nil {
		return Value{}, err
	}

	switch b.Op {
	case "==":
		return NewBool(l.Equal(r)), nil
	case "!=":
		return NewBool(!l.Equal(r)), nil
	case "<", "<=", ">", ">=":
		return rt.evalComparison(b.Op, l, r, node.Span)
	case "+", "-", "*", "/", "%":
		return rt.evalArith(b.Op, l, r, node.Span)
	default:
		return Value{}, runtimeErrf(node.Span, "internal error: unhandled operator %q", b.Op)
	}
}

// evalComparison implements the "numeric or string" comparison table:
// strings compare lexicographically, numbers compare by value.
func (rt *Runtime) evalComparison(op string, l, r Value, span Span) (Value, error) {
	switch {
	case l.Kind() == KindNumber && r.Kind() == KindNumber:
		a, bb := l.Number(), r.Number()
		switch op {
		case "<":
			return NewBool(a < bb), nil
		case "<=":
			return NewBool(a <= bb), nil
		case ">":
			return NewBool(a > bb), nil
		case ">=":
			return NewBool(a >= bb), nil
		}
	case l.Kind() == KindStr && r.Kind() == KindStr:
		a, bb := l.Str(), r.Str()
		switch op {
		case "<":
			return NewBool(a < bb), nil
		case "<=":
			return NewBool(a <= bb), nil
		case ">":
			return NewBool(a > bb), nil
		case ">=":
			return NewBool(a >= bb), nil
		}
	default:
		return Value{}, runtimeErrf(span, "cannot compare %s and %s", l.Kind(), r.Kind())
	}
	return Value{}, runtimeErrf(span, "internal error: unhandled comparison %q", op)
}

// evalArith implements the arithmetic table, including the symmetric
// Vec4/Number broadcast (either operand may be the scalar).
func (rt *Runtime) evalArith(op string, l, r Value, span Span) (Value, error) {
	switch {
	case l.Kind() == KindNumber && r.Kind() == KindNumber:
		return numArith(op, l.Number(), r.Number(), span)
	case l.Kind() == KindVec4 && r.Kind() == KindVec4:
		lx, ly, lz, lw := l.Vec4()
		rx, ry, rz, rw := r.Vec4()
		x, err := numArith(op, lx, rx, span)
		if err != nil {
			return Value{}, err
		}
		y, _ := numArith(op, ly, ry, span)
		z, _ := numArith(op, lz, rz, span)
		w, _ := numArith(op, lw, rw, span)
		return NewVec4(x.Number(), y.Number(), z.Number(), w.Number()), nil
	case l.Kind() == KindVec4 && r.Kind() == KindNumber:
		x, y, z, w := l.Vec4()
		n := r.Number()
		return vec4BroadcastOp(op, x, y, z, w, n, span)
	case l.Kind() == KindNumber && r.Kind() == KindVec4:
		x, y, z, w := r.Vec4()
		n := l.Number()
		return vec4BroadcastOp(op, x, y, z, w, n, span)
	case op == "+" && l.Kind() == KindStr && r.Kind() == KindStr:
		return NewStr(l.Str() + r.Str()), nil
	case op == "+" && l.Kind() == KindList && r.Kind() == KindList:
		items := append(append([]Value{}, l.List().Items()...), r.List().Items()...)
		return NewList(NewEmptyList(items)), nil
	default:
		return Value{}, runtimeErrf(span, "cannot apply %q to %s and %s", op, l.Kind(), r.Kind())
	}
}

func vec4BroadcastOp(op string, x, y, z, w, n float64, span Span) (Value, error) {
	rx, err := numArith(op, x, n, span)
	if err != nil {
		return Value{}, err
	}
	ry, _ := numArith(op, y, n, span)
	rz, _ := numArith(op, z, n, span)
	rw, _ := numArith(op, w, n, span)
	return NewVec4(rx.Number(), ry.Number(), rz.Number(), rw.Number()), nil
}

func numArith(op string, a, b float64, span Span) (Value, error) {
	switch op {
	case "+":
		return NewNumber(a + b), nil
	case "-":
		return NewNumber(a - b), nil
	case "*":
		return NewNumber(a * b), nil
	case "/":
		if b == 0 {
			return Value{}, runtimeErrf(span, "division by zero")
		}
		return NewNumber(a / b), nil
	case "%":
		if b == 0 {
			return Value{}, runtimeErrf(span, "division by zero")
		}
		return NewNumber(math.Mod(a, b)), nil
	default:
		return Value{}, runtimeErrf(span, "internal error: unhandled arithmetic operator %q", op)
	}
}

func (rt *Runtime) evalAssign(node *Node) (Value, error) {
	as := node.Payload.(AssignStmt)
	v, err := rt.Eval(as.Expression)
	if err != nil {
		return Value{}, err
	}
	if err := rt.assignTo(as.Target, v, node.Span); err != nil {
		return Value{}, err
	}
	return v, nil
}

func (rt *Runtime) evalMultiAssign(node *Node) (Value, error) {
	ms := node.Payload.(MultiAssignStmt)
	if len(ms.Targets) != len(ms.Expressions) {
		return Value{}, runtimeErrf(node.Span, "assignment has %d target(s) but %d value(s)", len(ms.Targets), len(ms.Expressions))
	}
	vals := make([]Value, len(ms.Expressions))
	for i, e := range ms.Expressions {
		v, err := rt.Eval(e)
		if err != nil {
			return Value{}, err
		}
		vals[i] = v
	}
	for i, t := range ms.Targets {
		if err := rt.assignTo(t, vals[i], node.Span); err != nil {
			return Value{}, err
		}
	}
	if len(vals) == 0 {
		return Empty(), nil
	}
	return vals[len(vals)-1], nil
}

func (rt *Runtime) assignTo(target AssignTarget, v Value, span Span) error {
	if !target.IsLookup {
		if target.Scope == ScopeGlobal {
			rt.Env.SetGlobal(target.Name, v)
		} else {
			rt.Env.SetLocal(target.Name, v)
		}
		return nil
	}

	steps := target.Lookup
	cur, ok := rt.Env.Lookup(steps[0].Name)
	if !ok {
		return runtimeErrf(span, "unknown variable %q%s", steps[0].Name, rt.globalNamesHint())
	}
	for i := 1; i < len(steps)-1; i++ {
		next, err := rt.applyStep(cur, steps[i], span)
		if err != nil {
			return err
		}
		cur = next
	}

	last := steps[len(steps)-1]
	switch last.Kind {
	case LookupStepId:
		if cur.Kind() != KindMap {
			return runtimeErrf(span, "cannot assign property %q on a %s value", last.Name, cur.Kind())
		}
		if err := cur.Map().Set(last.Name, v); err != nil {
			return runtimeErrf(span, "%s", err)
		}
		return nil
	case LookupStepIndex:
		iv, err := rt.Eval(last.Index)
		if err != nil {
			return err
		}
		if iv.Kind() != KindNumber {
			return runtimeErrf(span, "index must be a number")
		}
		if cur.Kind() != KindList {
			return runtimeErrf(span, "cannot index-assign a %s value", cur.Kind())
		}
		if err := cur.List().Set(int(iv.Number()), v); err != nil {
			return runtimeErrf(span, "%s", err)
		}
		return nil
	default:
		return runtimeErrf(span, "cannot assign to a function call")
	}
}

func (rt *Runtime) evalCall(node *Node) (Value, error) {
	ce := node.Payload.(CallExpr)
	fnVal, err := rt.Eval(ce.Function)
	if err != nil {
		return Value{}, err
	}
	args := make([]Value, 0, len(ce.Args))
	for _, a := range ce.Args {
		av, err := rt.Eval(a)
		if err != nil {
			return Value{}, err
		}
		args = append(args, av)
	}
	return rt.callValue(fnVal, args, node.Span)
}

// CallValue invokes a Function or BuiltinFunction value from outside the
// package (the host API's CallFunction), using a zero Span since there is
// no call-site source location to report.
func (rt *Runtime) CallValue(fnVal Value, args []Value) (Value, error) {
	return rt.callValue(fnVal, args, Span{})
}

// callValue invokes a Function or BuiltinFunction value.
func (rt *Runtime) callValue(fnVal Value, args []Value, span Span) (Value, error) {
	switch fnVal.Kind() {
	case KindFunction:
		fn := fnVal.Function()
		if len(args) != len(fn.Params) {
			return Value{}, runtimeErrf(span, "function expects %d argument(s), got %d", len(fn.Params), len(args))
		}
		if err := rt.Env.PushFrame(); err != nil {
			return Value{}, runtimeErrf(span, "%s", err)
		}
		defer rt.Env.PopFrame()
		for name, v := range fn.Captures {
			rt.Env.SetLocal(name, v)
		}
		for i, p := range fn.Params {
			rt.Env.SetLocal(p, args[i])
		}
		result, err := rt.Eval(fn.Body)
		if err != nil {
			if rs, ok := err.(*returnSignal); ok {
				return rs.value, nil
			}
			return Value{}, err
		}
		return result, nil
	case KindBuiltin:
		v, err := fnVal.Builtin().Call(rt, args)
		if err != nil {
			if be, ok := err.(*BuiltinError); ok {
				return Value{}, runtimeErrf(span, "%s", be.Msg)
			}
			return Value{}, err
		}
		return v, nil
	default:
		return Value{}, runtimeErrf(span, "value of kind %s is not callable", fnVal.Kind())
	}
}

func (rt *Runtime) evalDebug(node *Node) (Value, error) {
	items := node.Payload.(DebugStmt).Items
	for _, item := range items {
		v, err := rt.Eval(item.Expr)
		if err != nil {
			return Value{}, err
		}
		fmt.Fprintf(rt.Output, "[debug] %s: %s\n", item.Text, v.String())
	}
	return Empty(), nil
}

func (rt *Runtime) evalIf(node *Node) (Value, error) {
	ie := node.Payload.(IfExpr)
	cond, err := rt.Eval(ie.Condition)
	if err != nil {
		return Value{}, err
	}
	if cond.Truthy() {
		return rt.Eval(ie.Then)
	}
	for _, arm := range ie.ElseIfs {
		c, err := rt.Eval(arm.Condition)
		if err != nil {
			return Value{}, err
		}
		if c.Truthy() {
			return rt.Eval(arm.Body)
		}
	}
	if ie.Else != nil {
		return rt.Eval(ie.Else)
	}
	return Empty(), nil
}

// evalFor implements `for a, b in r1, r2 if cond: body`, zipping multiple
// ranges positionally and stopping at the shortest.
func (rt *Runtime) evalFor(node *Node) (Value, error) {
	fs := node.Payload.(ForStmt)

	if len(fs.Ranges) == 1 && len(fs.Args) == 2 {
		rv, err := rt.Eval(fs.Ranges[0])
		if err != nil {
			return Value{}, err
		}
		if rv.Kind() == KindMap {
			return rt.evalForMap(fs, rv.Map(), node.Span)
		}
	}

	sequences := make([][]Value, len(fs.Ranges))
	for i, rnode := range fs.Ranges {
		rv, err := rt.Eval(rnode)
		if err != nil {
			return Value{}, err
		}
		seq, err := materializeSequence(rv, node.Span)
		if err != nil {
			return Value{}, err
		}
		sequences[i] = seq
	}

	n := -1
	for _, seq := range sequences {
		if n == -1 || len(seq) < n {
			n = len(seq)
		}
	}
	if n < 0 {
		n = 0
	}

	for idx := 0; idx < n; idx++ {
		for i, name := range fs.Args {
			if i < len(sequences) {
				rt.Env.SetLocal(name, sequences[i][idx])
			}
		}
		if fs.Condition != nil {
			c, err := rt.Eval(fs.Condition)
			if err != nil {
				return Value{}, err
			}
			if !c.Truthy() {
				continue
			}
		}
		_, err := rt.Eval(fs.Body)
		if err != nil {
			_, isBreak, isContinue := asControlSignal(err)
			if isBreak {
				break
			}
			if isContinue {
				continue
			}
			return Value{}, err
		}
	}
	return Empty(), nil
}

func (rt *Runtime) evalForMap(fs ForStmt, m *Map, span Span) (Value, error) {
	m.Lock()
	defer m.Unlock()
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		rt.Env.SetLocal(fs.Args[0], NewStr(k))
		rt.Env.SetLocal(fs.Args[1], v)
		if fs.Condition != nil {
			c, err := rt.Eval(fs.Condition)
			if err != nil {
				return Value{}, err
			}
			if !c.Truthy() {
				continue
			}
		}
		_, err := rt.Eval(fs.Body)
		if err != nil {
			_, isBreak, isContinue := asControlSignal(err)
			if isBreak {
				break
			}
			if isContinue {
				continue
			}
			return Value{}, err
		}
	}
	return Empty(), nil
}

func materializeSequence(v Value, span Span) ([]Value, error) {
	switch v.Kind() {
	case KindList:
		v.List().Lock()
		defer v.List().Unlock()
		items := v.List().Items()
		out := make([]Value, len(items))
		copy(out, items)
		return out, nil
	case KindRange:
		r := v.Range()
		end := r.End
		if r.Inclusive {
			end++
		}
		out := make([]Value, 0, end-r.Start)
		for i := r.Start; i < end; i++ {
			out = append(out, NewNumber(float64(i)))
		}
		return out, nil
	case KindStr:
		runes := []rune(v.Str())
		out := make([]Value, len(runes))
		for i, rn := range runes {
			out[i] = NewStr(string(rn))
		}
		return out, nil
	default:
		return nil, runtimeErrf(span, "cannot iterate over a value of kind %s", v.Kind())
	}
}

func (rt *Runtime) evalWhile(node *Node) (Value, error) {
	ws := node.Payload.(WhileStmt)
	for {
		c, err := rt.Eval(ws.Condition)
		if err != nil {
			return Value{}, err
		}
		truthy := c.Truthy()
		if ws.Negate {
			truthy = !truthy
		}
		if !truthy {
			break
		}
		_, err = rt.Eval(ws.Body)
		if err != nil {
			_, isBreak, isContinue := asControlSignal(err)
			if isBreak {
				break
			}
			if isContinue {
				continue
			}
			return Value{}, err
		}
	}
	return Empty(), nil
}

// evalFunctionLit constructs a closure, snapshotting each explicitly
// captured name's current value at definition time; any other free name is
// resolved against globals when the function is later called.
func (rt *Runtime) evalFunctionLit(node *Node) (Value, error) {
	fl := node.Payload.(FunctionLit)
	captures := make(map[string]Value, len(fl.Captures))
	for _, name := range fl.Captures {
		if v, ok := rt.Env.Lookup(name); ok {
			captures[name] = v
		}
	}
	return NewFunction(&Function{Params: fl.Params, Captures: captures, Body: fl.Body, Span: node.Span}), nil
}

// globalNamesHint appends a short, comma-joined sample of currently bound
// global names to an "unknown variable" error, to orient a script author
// without implying a fuzzy-matched suggestion.
func (rt *Runtime) globalNamesHint() string {
	names := rt.Env.Global().Keys()
	if len(names) == 0 {
		return ""
	}
	if len(names) > 5 {
		names = names[:5]
	}
	return " (known globals include: " + util.MakeTextList(names) + ")"
}
