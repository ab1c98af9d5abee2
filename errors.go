package koto

import (
	"fmt"
	"strings"

	"github.com/dekarrin/koto/internal/koto"
	"github.com/dekarrin/rosed"
)

// file errors.go implements the three host-facing error categories (parse,
// runtime, builtin), plus the "Runtime error: <msg>\n --> line:col\n..."
// gutter/caret renderer, built with rosed for line wrapping.

// ParseError is returned by Parse when source fails to lex or parse. It
// distinguishes an error caused by unexpected end of input inside an
// unfinished indented block (IsIndentationError), the signal a REPL-style
// caller would use to decide whether to keep reading more lines.
type ParseError struct {
	Msg              string
	Pos              koto.Pos
	SourceLine       string
	IsIndentationErr bool
}

func (e *ParseError) Error() string { return renderDiagnostic("Parse error", e.Msg, e.Pos, e.SourceLine) }

// IsIndentationError reports whether e was caused by input ending while an
// indented block was still open.
func (e *ParseError) IsIndentationError() bool { return e.IsIndentationErr }

// RuntimeError and BuiltinError re-export the evaluator's own error types
// so callers of the host API never need to import internal/koto directly.
type RuntimeError = koto.RuntimeError
type BuiltinError = koto.BuiltinError

// renderError renders any error produced by this package in the required
// "<Category>: <msg>\n --> line:col\n<gutter>" shape. Errors that carry no
// position (a plain *BuiltinError reaching the top level, or an arbitrary
// Go error) are rendered as a bare message line.
func renderError(err error) string {
	switch e := err.(type) {
	case *ParseError:
		return e.Error()
	case *koto.RuntimeError:
		return renderDiagnostic("Runtime error", e.Msg, e.Span.Start, "")
	case *koto.BuiltinError:
		return fmt.Sprintf("Runtime error: %s", e.Msg)
	default:
		return fmt.Sprintf("Runtime error: %s", err.Error())
	}
}

func renderDiagnostic(category, msg string, pos koto.Pos, sourceLine string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", category, rosed.Edit(msg).Wrap(76).String())
	fmt.Fprintf(&b, " --> %d:%d\n", pos.Line, pos.Col)
	if sourceLine != "" {
		gutter := fmt.Sprintf("%d", pos.Line)
		pad := strings.Repeat(" ", len(gutter))
		fmt.Fprintf(&b, "%s |\n", pad)
		fmt.Fprintf(&b, "%s | %s\n", gutter, sourceLine)
		col := pos.Col - 1
		if col < 0 {
			col = 0
		}
		fmt.Fprintf(&b, "%s | %s^\n", pad, strings.Repeat(" ", col))
	}
	return b.String()
}
