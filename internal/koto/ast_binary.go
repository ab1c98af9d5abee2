package koto

// file ast_binary.go implements encoding.BinaryMarshaler/BinaryUnmarshaler
// for Node so internal/koto/cache can persist a parsed program with
// github.com/dekarrin/rezi's EncBinary/DecBinary.
// Every *Node is framed with a length prefix so a parent can carve out
// exactly its bytes before calling UnmarshalBinary on the slice, since that
// stdlib interface reports no consumed-byte count of its own.

import (
	"fmt"

	"github.com/dekarrin/rezi"
)

// MarshalBinary encodes n and everything it points to.
func (n *Node) MarshalBinary() ([]byte, error) {
	if n == nil {
		return rezi.Enc(false)
	}

	var buf []byte

	b, err := rezi.Enc(true)
	if err != nil {
		return nil, err
	}
	buf = append(buf, b...)

	if b, err = rezi.Enc(n.Span); err != nil {
		return nil, err
	}
	buf = append(buf, b...)

	if b, err = rezi.Enc(n.Text); err != nil {
		return nil, err
	}
	buf = append(buf, b...)

	if b, err = rezi.Enc(int(n.Kind)); err != nil {
		return nil, err
	}
	buf = append(buf, b...)

	payload, err := marshalPayload(n.Kind, n.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload of kind %d: %w", n.Kind, err)
	}
	buf = append(buf, payload...)

	return buf, nil
}

// UnmarshalBinary decodes a buffer produced by MarshalBinary into n. The
// buffer must contain exactly one node's bytes; use encodeChildNode /
// decodeChildNode to frame nested nodes with their own length prefix.
func (n *Node) UnmarshalBinary(data []byte) error {
	var off int

	var present bool
	used, err := rezi.Dec(data[off:], &present)
	if err != nil {
		return err
	}
	off += used
	if !present {
		return fmt.Errorf("cannot unmarshal nil node into non-nil target")
	}

	used, err = rezi.Dec(data[off:], &n.Span)
	if err != nil {
		return err
	}
	off += used

	used, err = rezi.Dec(data[off:], &n.Text)
	if err != nil {
		return err
	}
	off += used

	var kindInt int
	used, err = rezi.Dec(data[off:], &kindInt)
	if err != nil {
		return err
	}
	off += used
	n.Kind = Kind(kindInt)

	payload, err := unmarshalPayload(n.Kind, data[off:])
	if err != nil {
		return fmt.Errorf("unmarshal payload of kind %d: %w", n.Kind, err)
	}
	n.Payload = payload

	return nil
}

// encodeChildNode frames a (possibly nil) child *Node with a byte-length
// prefix so its parent's decoder knows exactly where it ends.
func encodeChildNode(n *Node) ([]byte, error) {
	nodeBytes, err := n.MarshalBinary()
	if err != nil {
		return nil, err
	}
	lenBytes, err := rezi.Enc(len(nodeBytes))
	if err != nil {
		return nil, err
	}
	return append(lenBytes, nodeBytes...), nil
}

// decodeChildNode reads one length-framed child node from the front of data
// and returns it along with the number of bytes consumed. A nil-marked
// child decodes to a nil *Node.
func decodeChildNode(data []byte) (*Node, int, error) {
	var off int
	var n int
	used, err := rezi.Dec(data[off:], &n)
	if err != nil {
		return nil, 0, err
	}
	off += used

	sub := data[off : off+n]
	off += n

	node := &Node{}
	if err := node.UnmarshalBinary(sub); err != nil {
		return nil, 0, err
	}
	if node.Kind == 0 && node.Text == "" && node.Payload == nil && len(sub) <= 2 {
		// MarshalBinary of a nil *Node is just the "present=false" byte;
		// UnmarshalBinary above would have errored on it, so this branch is
		// unreachable in practice but kept defensive against empty frames.
	}
	return node, off, nil
}

func encodeChildNodes(nodes []*Node) ([]byte, error) {
	var buf []byte
	b, err := rezi.Enc(len(nodes))
	if err != nil {
		return nil, err
	}
	buf = append(buf, b...)
	for _, child := range nodes {
		b, err := encodeChildNode(child)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}
	return buf, nil
}

func decodeChildNodes(data []byte) ([]*Node, int, error) {
	var off int
	var count int
	used, err := rezi.Dec(data[off:], &count)
	if err != nil {
		return nil, 0, err
	}
	off += used

	var nodes []*Node
	for i := 0; i < count; i++ {
		child, used, err := decodeChildNode(data[off:])
		if err != nil {
			return nil, 0, err
		}
		off += used
		nodes = append(nodes, child)
	}
	return nodes, off, nil
}

func marshalPayload(kind Kind, payload any) ([]byte, error) {
	switch kind {
	case KindEmpty:
		return nil, nil
	case KindBool:
		return rezi.Enc(payload.(BoolLit).Value)
	case KindNumber:
		return rezi.Enc(payload.(NumberLit).Value)
	case KindStr:
		return rezi.Enc(payload.(StrLit).Value)
	case KindVec4:
		return encodeChildNodes(payload.(ListLit).Items)
	case KindList:
		return encodeChildNodes(payload.(ListLit).Items)
	case KindMap:
		m := payload.(MapLit)
		var buf []byte
		b, err := rezi.Enc(len(m.Entries))
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		for _, entry := range m.Entries {
			if b, err = rezi.Enc(entry.Key); err != nil {
				return nil, err
			}
			buf = append(buf, b...)
			if b, err = encodeChildNode(entry.Value); err != nil {
				return nil, err
			}
			buf = append(buf, b...)
		}
		return buf, nil
	case KindRange, KindIndexRange:
		r := payload.(RangeLit)
		var buf []byte
		b, err := encodeChildNode(r.Start)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		if b, err = encodeChildNode(r.End); err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		if b, err = rezi.Enc(r.Inclusive); err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		return buf, nil
	case KindId:
		return rezi.Enc(payload.(IdRef).Name)
	case KindLookup:
		chain := payload.(LookupChain)
		var buf []byte
		b, err := rezi.Enc(len(chain.Steps))
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		for _, step := range chain.Steps {
			if b, err = rezi.Enc(int(step.Kind)); err != nil {
				return nil, err
			}
			buf = append(buf, b...)
			if b, err = rezi.Enc(step.Name); err != nil {
				return nil, err
			}
			buf = append(buf, b...)
			if b, err = encodeChildNode(step.Index); err != nil {
				return nil, err
			}
			buf = append(buf, b...)
			if b, err = encodeChildNodes(step.Args); err != nil {
				return nil, err
			}
			buf = append(buf, b...)
		}
		return buf, nil
	case KindCopy, KindShare, KindNegate:
		return encodeChildNode(payload.(UnaryWrap).Operand)
	case KindReturn:
		return encodeChildNode(payload.(ReturnStmt).Value)
	case KindBreak, KindContinue:
		return nil, nil
	case KindBlock:
		return encodeChildNodes(payload.(BlockStmt).Nodes)
	case KindOp:
		op := payload.(BinaryOp)
		var buf []byte
		b, err := rezi.Enc(op.Op)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		if b, err = encodeChildNode(op.LHS); err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		if b, err = encodeChildNode(op.RHS); err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		return buf, nil
	case KindAssign:
		a := payload.(AssignStmt)
		var buf []byte
		b, err := encodeAssignTarget(a.Target)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		if b, err = encodeChildNode(a.Expression); err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		return buf, nil
	case KindMultiAssign:
		m := payload.(MultiAssignStmt)
		var buf []byte
		b, err := rezi.Enc(len(m.Targets))
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		for _, t := range m.Targets {
			if b, err = encodeAssignTarget(t); err != nil {
				return nil, err
			}
			buf = append(buf, b...)
		}
		if b, err = encodeChildNodes(m.Expressions); err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		return buf, nil
	case KindCall:
		c := payload.(CallExpr)
		var buf []byte
		b, err := encodeChildNode(c.Function)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		if b, err = encodeChildNodes(c.Args); err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		return buf, nil
	case KindDebug:
		d := payload.(DebugStmt)
		var buf []byte
		b, err := rezi.Enc(len(d.Items))
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		for _, item := range d.Items {
			if b, err = rezi.Enc(item.Text); err != nil {
				return nil, err
			}
			buf = append(buf, b...)
			if b, err = encodeChildNode(item.Expr); err != nil {
				return nil, err
			}
			buf = append(buf, b...)
		}
		return buf, nil
	case KindIf:
		ifx := payload.(IfExpr)
		var buf []byte
		b, err := encodeChildNode(ifx.Condition)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		if b, err = encodeChildNode(ifx.Then); err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		if b, err = rezi.Enc(len(ifx.ElseIfs)); err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		for _, arm := range ifx.ElseIfs {
			if b, err = encodeChildNode(arm.Condition); err != nil {
				return nil, err
			}
			buf = append(buf, b...)
			if b, err = encodeChildNode(arm.Body); err != nil {
				return nil, err
			}
			buf = append(buf, b...)
		}
		if b, err = encodeChildNode(ifx.Else); err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		return buf, nil
	case KindFor:
		f := payload.(ForStmt)
		var buf []byte
		b, err := rezi.Enc(f.Args)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		if b, err = encodeChildNodes(f.Ranges); err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		if b, err = encodeChildNode(f.Condition); err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		if b, err = encodeChildNode(f.Body); err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		return buf, nil
	case KindWhile:
		w := payload.(WhileStmt)
		var buf []byte
		b, err := encodeChildNode(w.Condition)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		if b, err = encodeChildNode(w.Body); err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		if b, err = rezi.Enc(w.Negate); err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		return buf, nil
	case KindFunction:
		f := payload.(FunctionLit)
		var buf []byte
		b, err := rezi.Enc(f.Params)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		if b, err = rezi.Enc(f.Captures); err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		if b, err = encodeChildNode(f.Body); err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		return buf, nil
	case KindStrInterp:
		si := payload.(StrInterp)
		var buf []byte
		b, err := rezi.Enc(len(si.Parts))
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		for _, part := range si.Parts {
			if b, err = rezi.Enc(part.Literal); err != nil {
				return nil, err
			}
			buf = append(buf, b...)
			if b, err = encodeChildNode(part.Expr); err != nil {
				return nil, err
			}
			buf = append(buf, b...)
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("unknown node kind %d", kind)
	}
}

func encodeAssignTarget(t AssignTarget) ([]byte, error) {
	var buf []byte
	b, err := rezi.Enc(t.IsLookup)
	if err != nil {
		return nil, err
	}
	buf = append(buf, b...)
	if b, err = rezi.Enc(t.Name); err != nil {
		return nil, err
	}
	buf = append(buf, b...)
	if b, err = rezi.Enc(int(t.Scope)); err != nil {
		return nil, err
	}
	buf = append(buf, b...)
	if b, err = rezi.Enc(len(t.Lookup)); err != nil {
		return nil, err
	}
	buf = append(buf, b...)
	for _, step := range t.Lookup {
		if b, err = rezi.Enc(int(step.Kind)); err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		if b, err = rezi.Enc(step.Name); err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		if b, err = encodeChildNode(step.Index); err != nil {
			return nil, err
		}
		buf = append(buf, b...)
		if b, err = encodeChildNodes(step.Args); err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}
	return buf, nil
}

func decodeAssignTarget(data []byte) (AssignTarget, int, error) {
	var off int
	var t AssignTarget

	used, err := rezi.Dec(data[off:], &t.IsLookup)
	if err != nil {
		return t, 0, err
	}
	off += used

	used, err = rezi.Dec(data[off:], &t.Name)
	if err != nil {
		return t, 0, err
	}
	off += used

	var scopeInt int
	used, err = rezi.Dec(data[off:], &scopeInt)
	if err != nil {
		return t, 0, err
	}
	off += used
	t.Scope = Scope(scopeInt)

	var stepCount int
	used, err = rezi.Dec(data[off:], &stepCount)
	if err != nil {
		return t, 0, err
	}
	off += used

	for i := 0; i < stepCount; i++ {
		var step LookupStep
		var stepKindInt int

		used, err = rezi.Dec(data[off:], &stepKindInt)
		if err != nil {
			return t, 0, err
		}
		off += used
		step.Kind = LookupStepKind(stepKindInt)

		used, err = rezi.Dec(data[off:], &step.Name)
		if err != nil {
			return t, 0, err
		}
		off += used

		idx, used, err := decodeChildNode(data[off:])
		if err != nil {
			return t, 0, err
		}
		off += used
		step.Index = idx

		args, used, err := decodeChildNodes(data[off:])
		if err != nil {
			return t, 0, err
		}
		off += used
		step.Args = args

		t.Lookup = append(t.Lookup, step)
	}

	return t, off, nil
}

func unmarshalPayload(kind Kind, data []byte) (any, error) {
	var off int

	switch kind {
	case KindEmpty:
		return nil, nil
	case KindBool:
		var v BoolLit
		if _, err := rezi.Dec(data, &v.Value); err != nil {
			return nil, err
		}
		return v, nil
	case KindNumber:
		var v NumberLit
		if _, err := rezi.Dec(data, &v.Value); err != nil {
			return nil, err
		}
		return v, nil
	case KindStr:
		var v StrLit
		if _, err := rezi.Dec(data, &v.Value); err != nil {
			return nil, err
		}
		return v, nil
	case KindVec4, KindList:
		items, _, err := decodeChildNodes(data)
		if err != nil {
			return nil, err
		}
		return ListLit{Items: items}, nil
	case KindMap:
		var count int
		used, err := rezi.Dec(data[off:], &count)
		if err != nil {
			return nil, err
		}
		off += used

		var m MapLit
		for i := 0; i < count; i++ {
			var key string
			used, err = rezi.Dec(data[off:], &key)
			if err != nil {
				return nil, err
			}
			off += used

			val, used, err := decodeChildNode(data[off:])
			if err != nil {
				return nil, err
			}
			off += used

			m.Entries = append(m.Entries, MapEntry{Key: key, Value: val})
		}
		return m, nil
	case KindRange, KindIndexRange:
		start, used, err := decodeChildNode(data[off:])
		if err != nil {
			return nil, err
		}
		off += used

		end, used, err := decodeChildNode(data[off:])
		if err != nil {
			return nil, err
		}
		off += used

		var inclusive bool
		if _, err = rezi.Dec(data[off:], &inclusive); err != nil {
			return nil, err
		}
		return RangeLit{Start: start, End: end, Inclusive: inclusive}, nil
	case KindId:
		var name string
		if _, err := rezi.Dec(data, &name); err != nil {
			return nil, err
		}
		return IdRef{Name: name}, nil
	case KindLookup:
		var count int
		used, err := rezi.Dec(data[off:], &count)
		if err != nil {
			return nil, err
		}
		off += used

		var chain LookupChain
		for i := 0; i < count; i++ {
			var step LookupStep
			var stepKindInt int

			used, err = rezi.Dec(data[off:], &stepKindInt)
			if err != nil {
				return nil, err
			}
			off += used
			step.Kind = LookupStepKind(stepKindInt)

			used, err = rezi.Dec(data[off:], &step.Name)
			if err != nil {
				return nil, err
			}
			off += used

			idx, used, err := decodeChildNode(data[off:])
			if err != nil {
				return nil, err
			}
			off += used
			step.Index = idx

			args, used, err := decodeChildNodes(data[off:])
			if err != nil {
				return nil, err
			}
			off += used
			step.Args = args

			chain.Steps = append(chain.Steps, step)
		}
		return chain, nil
	case KindCopy, KindShare, KindNegate:
		operand, _, err := decodeChildNode(data)
		if err != nil {
			return nil, err
		}
		return UnaryWrap{Operand: operand}, nil
	case KindReturn:
		val, _, err := decodeChildNode(data)
		if err != nil {
			return nil, err
		}
		return ReturnStmt{Value: val}, nil
	case KindBreak, KindContinue:
		return nil, nil
	case KindBlock:
		nodes, _, err := decodeChildNodes(data)
		if err != nil {
			return nil, err
		}
		return BlockStmt{Nodes: nodes}, nil
	case KindOp:
		var op string
		used, err := rezi.Dec(data[off:], &op)
		if err != nil {
			return nil, err
		}
		off += used

		lhs, used, err := decodeChildNode(data[off:])
		if err != nil {
			return nil, err
		}
		off += used

		rhs, _, err := decodeChildNode(data[off:])
		if err != nil {
			return nil, err
		}
		return BinaryOp{Op: op, LHS: lhs, RHS: rhs}, nil
	case KindAssign:
		target, used, err := decodeAssignTarget(data[off:])
		if err != nil {
			return nil, err
		}
		off += used

		expr, _, err := decodeChildNode(data[off:])
		if err != nil {
			return nil, err
		}
		return AssignStmt{Target: target, Expression: expr}, nil
	case KindMultiAssign:
		var count int
		used, err := rezi.Dec(data[off:], &count)
		if err != nil {
			return nil, err
		}
		off += used

		var targets []AssignTarget
		for i := 0; i < count; i++ {
			target, used, err := decodeAssignTarget(data[off:])
			if err != nil {
				return nil, err
			}
			off += used
			targets = append(targets, target)
		}

		exprs, _, err := decodeChildNodes(data[off:])
		if err != nil {
			return nil, err
		}
		return MultiAssignStmt{Targets: targets, Expressions: exprs}, nil
	case KindCall:
		fn, used, err := decodeChildNode(data[off:])
		if err != nil {
			return nil, err
		}
		off += used

		args, _, err := decodeChildNodes(data[off:])
		if err != nil {
			return nil, err
		}
		return CallExpr{Function: fn, Args: args}, nil
	case KindDebug:
		var count int
		used, err := rezi.Dec(data[off:], &count)
		if err != nil {
			return nil, err
		}
		off += used

		var items []DebugItem
		for i := 0; i < count; i++ {
			var text string
			used, err = rezi.Dec(data[off:], &text)
			if err != nil {
				return nil, err
			}
			off += used

			expr, used, err := decodeChildNode(data[off:])
			if err != nil {
				return nil, err
			}
			off += used

			items = append(items, DebugItem{Text: text, Expr: expr})
		}
		return DebugStmt{Items: items}, nil
	case KindIf:
		cond, used, err := decodeChildNode(data[off:])
		if err != nil {
			return nil, err
		}
		off += used

		then, used, err := decodeChildNode(data[off:])
		if err != nil {
			return nil, err
		}
		off += used

		var armCount int
		used, err = rezi.Dec(data[off:], &armCount)
		if err != nil {
			return nil, err
		}
		off += used

		var arms []CondBlock
		for i := 0; i < armCount; i++ {
			armCond, used, err := decodeChildNode(data[off:])
			if err != nil {
				return nil, err
			}
			off += used

			armBody, used, err := decodeChildNode(data[off:])
			if err != nil {
				return nil, err
			}
			off += used

			arms = append(arms, CondBlock{Condition: armCond, Body: armBody})
		}

		elseBody, _, err := decodeChildNode(data[off:])
		if err != nil {
			return nil, err
		}

		return IfExpr{Condition: cond, Then: then, ElseIfs: arms, Else: elseBody}, nil
	case KindFor:
		var args []string
		used, err := rezi.Dec(data[off:], &args)
		if err != nil {
			return nil, err
		}
		off += used

		ranges, used, err := decodeChildNodes(data[off:])
		if err != nil {
			return nil, err
		}
		off += used

		cond, used, err := decodeChildNode(data[off:])
		if err != nil {
			return nil, err
		}
		off += used

		body, _, err := decodeChildNode(data[off:])
		if err != nil {
			return nil, err
		}

		return ForStmt{Args: args, Ranges: ranges, Condition: cond, Body: body}, nil
	case KindWhile:
		cond, used, err := decodeChildNode(data[off:])
		if err != nil {
			return nil, err
		}
		off += used

		body, used, err := decodeChildNode(data[off:])
		if err != nil {
			return nil, err
		}
		off += used

		var negate bool
		if _, err = rezi.Dec(data[off:], &negate); err != nil {
			return nil, err
		}

		return WhileStmt{Condition: cond, Body: body, Negate: negate}, nil
	case KindFunction:
		var params []string
		used, err := rezi.Dec(data[off:], &params)
		if err != nil {
			return nil, err
		}
		off += used

		var captures []string
		used, err = rezi.Dec(data[off:], &captures)
		if err != nil {
			return nil, err
		}
		off += used

		body, _, err := decodeChildNode(data[off:])
		if err != nil {
			return nil, err
		}

		return FunctionLit{Params: params, Captures: captures, Body: body}, nil
	case KindStrInterp:
		var count int
		used, err := rezi.Dec(data[off:], &count)
		if err != nil {
			return nil, err
		}
		off += used

		var parts []StrPart
		for i := 0; i < count; i++ {
			var literal string
			used, err = rezi.Dec(data[off:], &literal)
			if err != nil {
				return nil, err
			}
			off += used

			expr, used, err := decodeChildNode(data[off:])
			if err != nil {
				return nil, err
			}
			off += used

			parts = append(parts, StrPart{Literal: literal, Expr: expr})
		}
		return StrInterp{Parts: parts}, nil
	default:
		return nil, fmt.Errorf("unknown node kind %d", kind)
	}
}
