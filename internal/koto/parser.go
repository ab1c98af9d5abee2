package koto

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dekarrin/koto/internal/util"
)

// file parser.go implements a Pratt / precedence-climbing recursive-descent
// parser over the token stream produced by lexer.go.

// parseErr is the parser's internal error type; ParseSource converts it (and
// any lexError) into the public ParseError.
type parseErr struct {
	msg              string
	pos              Pos
	sourceLine       string
	isIndentationErr bool
}

func (e *parseErr) Error() string { return e.msg }

// ParseErrorInfo extracts the position/source-line/indentation-flag detail
// out of an error returned by ParseSource, so the module root can build its
// public ParseError without reaching into this package's unexported lexer
// and parser error types.
func ParseErrorInfo(err error) (msg string, pos Pos, sourceLine string, isIndentationErr bool) {
	switch e := err.(type) {
	case *parseErr:
		return e.msg, e.pos, e.sourceLine, e.isIndentationErr
	case *lexError:
		return e.msg, e.pos, e.sourceLine, e.isIndentationErr
	default:
		return err.Error(), Pos{}, "", false
	}
}

type parser struct {
	toks []token
	pos  int
}

// ParseSource parses a complete Koto program into its AST. The returned
// *Node is always KindBlock.
func ParseSource(source string) (*Node, error) {
	toks, err := lex(source)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.parseProgram()
}

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) at(c tokenClass) bool { return p.cur().class.id == c.id }

func (p *parser) atAny(cs ...tokenClass) bool {
	for _, c := range cs {
		if p.at(c) {
			return true
		}
	}
	return false
}

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(c tokenClass) (token, error) {
	if !p.at(c) {
		return token{}, p.errf("expected %s, found %s", c.human, p.cur().class.human)
	}
	return p.advance(), nil
}

func (p *parser) errf(format string, args ...any) error {
	t := p.cur()
	return &parseErr{msg: fmt.Sprintf(format, args...), pos: t.pos, sourceLine: t.fullLine}
}

func (p *parser) errIndentExpected() error {
	t := p.cur()
	return &parseErr{msg: "expected an indented block", pos: t.pos, sourceLine: t.fullLine, isIndentationErr: true}
}

// skipBlankLines consumes any run of bare newline tokens (blank source
// lines between statements).
func (p *parser) skipBlankLines() {
	for p.at(tkNewline) {
		p.advance()
	}
}

func isAssignOp(c tokenClass) bool {
	switch c.id {
	case tkAssign.id, tkPlusEq.id, tkMinusEq.id, tkStarEq.id, tkSlashEq.id, tkPercentEq.id:
		return true
	}
	return false
}

func compoundOp(c tokenClass) string {
	switch c.id {
	case tkPlusEq.id:
		return "+"
	case tkMinusEq.id:
		return "-"
	case tkStarEq.id:
		return "*"
	case tkSlashEq.id:
		return "/"
	case tkPercentEq.id:
		return "%"
	}
	return ""
}

// parseProgram parses the whole token stream as a top-level block.
func (p *parser) parseProgram() (*Node, error) {
	var nodes []*Node
	p.skipBlankLines()
	for !p.at(tkEOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, stmt)
		if err := p.endOfStatement(); err != nil {
			return nil, err
		}
		p.skipBlankLines()
	}
	return &Node{Kind: KindBlock, Payload: BlockStmt{Nodes: nodes}}, nil
}

// endOfStatement consumes a trailing newline/semicolon if one is present.
// Block-form statements (if/for/while) that end in an indented suite leave
// the cursor already past the line break (the lexer folded it into the
// DEDENT that closed the suite), so anything else is accepted as an
// implicit boundary rather than an error.
func (p *parser) endOfStatement() error {
	if p.at(tkNewline) {
		p.advance()
		return nil
	}
	if p.at(tkSemicolon) {
		p.advance()
		return nil
	}
	return nil
}

func (p *parser) parseStatement() (*Node, error) {
	switch {
	case p.at(tkDebug):
		return p.parseDebug()
	case p.at(tkReturn):
		return p.parseReturn()
	case p.at(tkBreak):
		t := p.advance()
		return &Node{Kind: KindBreak, Span: t.span()}, nil
	case p.at(tkContinue):
		t := p.advance()
		return &Node{Kind: KindContinue, Span: t.span()}, nil
	case p.at(tkIf):
		return p.parseIf()
	case p.at(tkFor):
		return p.parseFor()
	case p.at(tkWhile):
		return p.parseWhileUntil(false)
	case p.at(tkUntil):
		return p.parseWhileUntil(true)
	case p.at(tkGlobal):
		return p.parseGlobalAssign()
	default:
		return p.parseExprOrAssign()
	}
}

// parseSuite parses the body of a block-introducing construct (if/for/
// while/until), supporting both the inline `: stmt; stmt` form and the
// indented `:` NEWLINE INDENT ... DEDENT form.
func (p *parser) parseSuite() (*Node, error) {
	if _, err := p.expect(tkColon); err != nil {
		return nil, err
	}
	if p.at(tkNewline) {
		p.advance()
		if !p.at(tkIndent) {
			return nil, p.errIndentExpected()
		}
		p.advance()
		var nodes []*Node
		p.skipBlankLines()
		for !p.at(tkDedent) && !p.at(tkEOF) {
			stmt, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, stmt)
			if err := p.endOfStatement(); err != nil {
				return nil, err
			}
			p.skipBlankLines()
		}
		if p.at(tkDedent) {
			p.advance()
		}
		return &Node{Kind: KindBlock, Payload: BlockStmt{Nodes: nodes}}, nil
	}

	var nodes []*Node
	for {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, stmt)
		if p.at(tkSemicolon) {
			p.advance()
			continue
		}
		break
	}
	return &Node{Kind: KindBlock, Payload: BlockStmt{Nodes: nodes}}, nil
}

func (p *parser) parseDebug() (*Node, error) {
	start := p.advance() // 'debug'
	var items []DebugItem
	for {
		textStart := p.cur()
		expr, err := p.parseExpr(lbpAssign)
		if err != nil {
			return nil, err
		}
		text := sourceSliceBetween(textStart, p.toks[prevIdx(p.pos)])
		items = append(items, DebugItem{Text: text, Expr: expr})
		if p.at(tkComma) {
			p.advance()
			continue
		}
		break
	}
	return &Node{Kind: KindDebug, Payload: DebugStmt{Items: items}, Span: start.span()}, nil
}

func prevIdx(i int) int {
	if i == 0 {
		return 0
	}
	return i - 1
}

// sourceSliceBetween reconstructs the exact text spanned by [from, to]
// (inclusive) using each token's own lexeme and the gaps implied by its
// line/col, so `debug` can echo expressions verbatim.
func sourceSliceBetween(from, to token) string {
	if from.pos.Line == to.pos.Line {
		var sb strings.Builder
		sb.WriteString(from.fullLine)
		line := []rune(from.fullLine)
		startCol := from.pos.Col - 1
		endCol := to.pos.Col - 1 + len([]rune(to.lexeme))
		if startCol < 0 {
			startCol = 0
		}
		if endCol > len(line) {
			endCol = len(line)
		}
		if startCol > endCol {
			startCol = endCol
		}
		return string(line[startCol:endCol])
	}
	// multi-line expression: best-effort reconstruction from source lexemes
	return from.lexeme
}

func (p *parser) parseReturn() (*Node, error) {
	t := p.advance()
	if p.at(tkNewline) || p.at(tkSemicolon) || p.at(tkDedent) || p.at(tkEOF) {
		return &Node{Kind: KindReturn, Payload: ReturnStmt{}, Span: t.span()}, nil
	}
	expr, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindReturn, Payload: ReturnStmt{Value: expr}, Span: t.span()}, nil
}

func (p *parser) parseGlobalAssign() (*Node, error) {
	p.advance() // 'global'
	idTok, err := p.expect(tkIdent)
	if err != nil {
		return nil, err
	}
	target := AssignTarget{Name: idTok.lexeme, Scope: ScopeGlobal}
	return p.finishAssign(target, idTok.pos)
}

func (p *parser) finishAssign(target AssignTarget, start Pos) (*Node, error) {
	opTok := p.cur()
	if !isAssignOp(opTok.class) {
		return nil, p.errf("expected an assignment operator, found %s", opTok.class.human)
	}
	p.advance()
	rhs, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if opTok.class.id != tkAssign.id {
		rhs = &Node{Kind: KindOp, Payload: BinaryOp{Op: compoundOp(opTok.class), LHS: targetExprNode(target), RHS: rhs}}
	}
	return &Node{Kind: KindAssign, Payload: AssignStmt{Target: target, Expression: rhs}, Span: Span{Start: start}}, nil
}

func targetExprNode(t AssignTarget) *Node {
	if t.IsLookup {
		return &Node{Kind: KindLookup, Payload: LookupChain{Steps: t.Lookup}}
	}
	return &Node{Kind: KindId, Payload: IdRef{Name: t.Name}}
}

func toAssignTarget(n *Node) (AssignTarget, error) {
	switch n.Kind {
	case KindId:
		return AssignTarget{Name: n.Payload.(IdRef).Name, Scope: ScopeLocal}, nil
	case KindLookup:
		return AssignTarget{IsLookup: true, Lookup: n.Payload.(LookupChain).Steps}, nil
	default:
		return AssignTarget{}, &parseErr{msg: "invalid assignment target", pos: n.Span.Start}
	}
}

func (p *parser) parseExprOrAssign() (*Node, error) {
	start := p.cur().pos
	first, err := p.parseExpr(lbpAssign)
	if err != nil {
		return nil, err
	}
	if !p.at(tkComma) && !isAssignOp(p.cur().class) {
		return first, nil
	}

	target0, err := toAssignTarget(first)
	if err != nil {
		return nil, err
	}
	targets := []AssignTarget{target0}
	for p.at(tkComma) {
		p.advance()
		nxt, err := p.parseExpr(lbpAssign)
		if err != nil {
			return nil, err
		}
		t, err := toAssignTarget(nxt)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}

	if len(targets) == 1 {
		return p.finishAssign(targets[0], start)
	}

	opTok := p.cur()
	if opTok.class.id != tkAssign.id {
		return nil, p.errf("multiple assignment targets require '=', found %s", opTok.class.human)
	}
	p.advance()

	var exprs []*Node
	e1, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	exprs = append(exprs, e1)
	for p.at(tkComma) {
		p.advance()
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return &Node{Kind: KindMultiAssign, Payload: MultiAssignStmt{Targets: targets, Expressions: exprs}, Span: Span{Start: start}}, nil
}

// parseIf handles both the block-statement form (`if cond: body` with
// optional `else if`/`else` arms) and the ternary expression form
// (`if cond then a else b`), both of which produce a KindIf node usable as
// either a statement or an expression.
func (p *parser) parseIf() (*Node, error) {
	start := p.advance() // 'if'
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}

	if p.at(tkThen) {
		p.advance()
		thenExpr, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tkElse); err != nil {
			return nil, err
		}
		elseExpr, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindIf, Payload: IfExpr{Condition: cond, Then: thenExpr, Else: elseExpr}, Span: start.span()}, nil
	}

	thenBlock, err := p.parseSuite()
	if err != nil {
		return nil, err
	}

	var elseIfs []CondBlock
	var elseBlock *Node
	for p.at(tkElse) {
		p.advance()
		if p.at(tkIf) {
			p.advance()
			c, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			b, err := p.parseSuite()
			if err != nil {
				return nil, err
			}
			elseIfs = append(elseIfs, CondBlock{Condition: c, Body: b})
			continue
		}
		b, err := p.parseSuite()
		if err != nil {
			return nil, err
		}
		elseBlock = b
		break
	}

	return &Node{Kind: KindIf, Payload: IfExpr{Condition: cond, Then: thenBlock, ElseIfs: elseIfs, Else: elseBlock}, Span: start.span()}, nil
}

// parseFor parses `for a, b in r1, r2 [if cond]: body`. Multiple ranges are
// zipped positionally against the argument names, stopping at the
// shortest.
func (p *parser) parseFor() (*Node, error) {
	start := p.advance() // 'for'
	var args []string
	for {
		idTok, err := p.expect(tkIdent)
		if err != nil {
			return nil, err
		}
		args = append(args, idTok.lexeme)
		if p.at(tkComma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(tkIn); err != nil {
		return nil, err
	}
	var ranges []*Node
	for {
		r, err := p.parseExpr(lbpAssign)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
		if p.at(tkComma) {
			p.advance()
			continue
		}
		break
	}
	var cond *Node
	if p.at(tkIf) {
		p.advance()
		c, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		cond = c
	}
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindFor, Payload: ForStmt{Args: args, Ranges: ranges, Condition: cond, Body: body}, Span: start.span()}, nil
}

func (p *parser) parseWhileUntil(negate bool) (*Node, error) {
	start := p.advance() // 'while' or 'until'
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindWhile, Payload: WhileStmt{Condition: cond, Body: body, Negate: negate}, Span: start.span()}, nil
}

// parseExpr is the Pratt/precedence-climbing core: it parses a nud, then
// repeatedly extends it via led while the next token's binding power
// exceeds rbp.
func (p *parser) parseExpr(rbp int) (*Node, error) {
	left, err := p.nud()
	if err != nil {
		return nil, err
	}
	for rbp < p.cur().class.lbp {
		left, err = p.led(left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *parser) nud() (*Node, error) {
	t := p.cur()
	switch t.class.id {
	case tkNumber.id:
		p.advance()
		n, _ := strconv.ParseFloat(t.lexeme, 64)
		return &Node{Kind: KindNumber, Payload: NumberLit{Value: n}, Span: t.span()}, nil
	case tkTrue.id:
		p.advance()
		return &Node{Kind: KindBool, Payload: BoolLit{Value: true}, Span: t.span()}, nil
	case tkFalse.id:
		p.advance()
		return &Node{Kind: KindBool, Payload: BoolLit{Value: false}, Span: t.span()}, nil
	case tkString.id:
		p.advance()
		return p.buildStringNode(t)
	case tkIdent.id:
		p.advance()
		return &Node{Kind: KindId, Payload: IdRef{Name: t.lexeme}, Span: t.span()}, nil
	case tkLParen.id:
		p.advance()
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tkRParen); err != nil {
			return nil, err
		}
		return e, nil
	case tkLBracket.id:
		return p.parseListLit()
	case tkLBrace.id:
		return p.parseMapLit()
	case tkPipe.id:
		return p.parseFunctionLit()
	case tkMinus.id:
		p.advance()
		operand, err := p.parseExpr(55)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindNegate, Payload: UnaryWrap{Operand: operand}, Span: t.span()}, nil
	case tkNot.id:
		p.advance()
		operand, err := p.parseExpr(lbpRelational)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindOp, Payload: BinaryOp{Op: "not", LHS: operand}, Span: t.span()}, nil
	case tkCopy.id:
		p.advance()
		operand, err := p.parseExpr(lbpAssign + 1)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindCopy, Payload: UnaryWrap{Operand: operand}, Span: t.span()}, nil
	case tkShare.id:
		p.advance()
		operand, err := p.parseExpr(lbpAssign + 1)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindShare, Payload: UnaryWrap{Operand: operand}, Span: t.span()}, nil
	case tkIf.id:
		return p.parseIf()
	case tkDotDot.id, tkDotDotEq.id:
		// leading range with implicit start (e.g. `..5` inside an index subscript)
		inclusive := t.class.id == tkDotDotEq.id
		p.advance()
		end, err := p.parseExpr(lbpRange)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindRange, Payload: RangeLit{End: end, Inclusive: inclusive}, Span: t.span()}, nil
	default:
		return nil, p.errf("unexpected %s", t.class.human)
	}
}

func (p *parser) led(left *Node) (*Node, error) {
	t := p.cur()
	switch t.class.id {
	case tkPlus.id, tkMinus.id, tkStar.id, tkSlash.id, tkPercent.id,
		tkEq.id, tkNe.id, tkLt.id, tkLe.id, tkGt.id, tkGe.id,
		tkAnd.id, tkOr.id:
		p.advance()
		right, err := p.parseExpr(t.class.lbp)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindOp, Payload: BinaryOp{Op: t.class.id, LHS: left, RHS: right}, Span: left.Span}, nil
	case tkDotDot.id, tkDotDotEq.id:
		inclusive := t.class.id == tkDotDotEq.id
		p.advance()
		var end *Node
		if !p.atAny(tkRBracket, tkNewline, tkSemicolon, tkColon, tkRParen, tkComma, tkEOF) {
			e, err := p.parseExpr(lbpRange)
			if err != nil {
				return nil, err
			}
			end = e
		}
		return &Node{Kind: KindRange, Payload: RangeLit{Start: left, End: end, Inclusive: inclusive}, Span: left.Span}, nil
	case tkDot.id:
		p.advance()
		nameTok, err := p.expect(tkIdent)
		if err != nil {
			return nil, err
		}
		return appendLookupStep(left, LookupStep{Kind: LookupStepId, Name: nameTok.lexeme})
	case tkLBracket.id:
		p.advance()
		idx, err := p.parseSubscript()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tkRBracket); err != nil {
			return nil, err
		}
		return appendLookupStep(left, LookupStep{Kind: LookupStepIndex, Index: idx})
	case tkLParen.id:
		p.advance()
		args, err := p.parseArgList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tkRParen); err != nil {
			return nil, err
		}
		if left.Kind == KindId || left.Kind == KindLookup {
			return appendLookupStep(left, LookupStep{Kind: LookupStepCall, Args: args})
		}
		return &Node{Kind: KindCall, Payload: CallExpr{Function: left, Args: args}, Span: left.Span}, nil
	default:
		return nil, p.errf("unexpected %s in expression", t.class.human)
	}
}

func appendLookupStep(left *Node, step LookupStep) (*Node, error) {
	switch left.Kind {
	case KindId:
		return &Node{Kind: KindLookup, Payload: LookupChain{Steps: []LookupStep{
			{Kind: LookupStepId, Name: left.Payload.(IdRef).Name}, step,
		}}, Span: left.Span}, nil
	case KindLookup:
		lc := left.Payload.(LookupChain)
		lc.Steps = append(lc.Steps, step)
		left.Payload = lc
		return left, nil
	default:
		return nil, &parseErr{msg: "lookup chains must start from an identifier", pos: left.Span.Start}
	}
}

// parseSubscript parses the content of `[...]`: either a single index
// expression, or an index-range with optionally missing bounds (`a..`,
// `..b`, `..`), used for slicing.
func (p *parser) parseSubscript() (*Node, error) {
	if p.atAny(tkDotDot, tkDotDotEq) {
		return p.nud()
	}
	return p.parseExpr(0)
}

func (p *parser) parseArgList() ([]*Node, error) {
	var args []*Node
	if p.at(tkRParen) {
		return args, nil
	}
	for {
		a, err := p.parseExpr(lbpAssign)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.at(tkComma) {
			p.advance()
			continue
		}
		break
	}
	return args, nil
}

func (p *parser) parseListLit() (*Node, error) {
	start := p.advance() // '['
	var items []*Node
	for !p.at(tkRBracket) {
		it, err := p.parseExpr(lbpAssign)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
		if p.at(tkComma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(tkRBracket); err != nil {
		return nil, err
	}
	return &Node{Kind: KindList, Payload: ListLit{Items: items}, Span: start.span()}, nil
}

func (p *parser) parseMapLit() (*Node, error) {
	start := p.advance() // '{'
	var entries []MapEntry
	for !p.at(tkRBrace) {
		var key string
		if p.at(tkIdent) {
			key = p.advance().lexeme
		} else if p.at(tkString) {
			key = p.advance().lexeme
		} else {
			return nil, p.errf("expected a map key, found %s", p.cur().class.human)
		}
		if _, err := p.expect(tkColon); err != nil {
			return nil, err
		}
		val, err := p.parseExpr(lbpAssign)
		if err != nil {
			return nil, err
		}
		entries = append(entries, MapEntry{Key: key, Value: val})
		if p.at(tkComma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(tkRBrace); err != nil {
		return nil, err
	}
	return &Node{Kind: KindMap, Payload: MapLit{Entries: entries}, Span: start.span()}, nil
}

// parseFunctionLit parses `|a, b| body` and the captures-clause extension
// `|a, b| [x, y] body`, which lists names to snapshot by value at
// definition time instead of resolving them against globals at call time.
func (p *parser) parseFunctionLit() (*Node, error) {
	start := p.advance() // '|'
	var params []string
	seen := util.NewKeySet[string]()
	for !p.at(tkPipe) {
		idTok, err := p.expect(tkIdent)
		if err != nil {
			return nil, err
		}
		if seen.Has(idTok.lexeme) {
			return nil, &parseErr{
				msg:        fmt.Sprintf("duplicate parameter name %q", idTok.lexeme),
				pos:        idTok.pos,
				sourceLine: idTok.fullLine,
			}
		}
		seen.Add(idTok.lexeme)
		params = append(params, idTok.lexeme)
		if p.at(tkComma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(tkPipe); err != nil {
		return nil, err
	}

	var captures []string
	if p.at(tkLBracket) {
		p.advance()
		for !p.at(tkRBracket) {
			idTok, err := p.expect(tkIdent)
			if err != nil {
				return nil, err
			}
			captures = append(captures, idTok.lexeme)
			if p.at(tkComma) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(tkRBracket); err != nil {
			return nil, err
		}
	}

	var body *Node
	if p.at(tkColon) {
		b, err := p.parseSuite()
		if err != nil {
			return nil, err
		}
		body = b
	} else {
		b, err := p.parseExpr(lbpAssign)
		if err != nil {
			return nil, err
		}
		body = b
	}

	return &Node{Kind: KindFunction, Payload: FunctionLit{Params: params, Captures: captures, Body: body}, Span: start.span()}, nil
}

// buildStringNode splits a lexed string's raw content on `${...}` markers,
// recursively parsing each embedded expression with its own parser.
func (p *parser) buildStringNode(t token) (*Node, error) {
	raw := t.lexeme
	if !strings.Contains(raw, "${") {
		return &Node{Kind: KindStr, Payload: StrLit{Value: raw}, Span: t.span()}, nil
	}

	var parts []StrPart
	i := 0
	for i < len(raw) {
		j := strings.Index(raw[i:], "${")
		if j < 0 {
			parts = append(parts, StrPart{Literal: raw[i:]})
			break
		}
		if j > 0 {
			parts = append(parts, StrPart{Literal: raw[i : i+j]})
		}
		i += j + 2
		depth := 1
		start := i
		for i < len(raw) && depth > 0 {
			switch raw[i] {
			case '{':
				depth++
			case '}':
				depth--
			}
			if depth > 0 {
				i++
			}
		}
		exprSrc := raw[start:i]
		i++ // skip closing '}'
		exprNode, err := ParseExprSource(exprSrc)
		if err != nil {
			return nil, err
		}
		parts = append(parts, StrPart{Expr: exprNode})
	}
	return &Node{Kind: KindStrInterp, Payload: StrInterp{Parts: parts}, Span: t.span()}, nil
}

// ParseExprSource parses a single standalone expression, used to parse
// embedded `${...}` string-interpolation expressions.
func ParseExprSource(source string) (*Node, error) {
	toks, err := lex(source + "\n")
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.parseExpr(0)
}

