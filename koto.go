// Package koto is the host API for embedding the Koto scripting language:
// it wraps internal/koto's parser and evaluator behind the small surface an
// embedder actually needs — Parse, SetArgs, SetScriptPath, Run, HasFunction,
// CallFunction and Prelude.
package koto

import (
	"io"
	"os"
	"path/filepath"

	"github.com/dekarrin/koto/internal/koto"
)

// Value, Kind and the Kind* constants are re-exported so callers never need
// to import internal/koto directly to build or inspect script values.
type Value = koto.Value
type Kind = koto.Kind

const (
	KindEmpty   = koto.KindEmpty
	KindBool    = koto.KindBool
	KindNumber  = koto.KindNumber
	KindVec4    = koto.KindVec4
	KindStr     = koto.KindStr
	KindRange   = koto.KindRange
	KindList    = koto.KindList
	KindMap     = koto.KindMap
	KindFunc    = koto.KindFunction
	KindBuiltin = koto.KindBuiltin
)

var (
	Empty      = koto.Empty
	NewBool    = koto.NewBool
	NewNumber  = koto.NewNumber
	NewStr     = koto.NewStr
	NewVec4    = koto.NewVec4
	NewList    = koto.NewList
	NewMap     = koto.NewMap
	NewEmptyList = koto.NewEmptyList
	NewEmptyMap  = koto.NewEmptyMap
)

// Program is a parsed script: an AST ready to be Run, possibly more than
// once, against the same interpreter.
type Program struct {
	ast *koto.Node
}

// ProgramFromAST wraps an already-parsed AST (e.g. one recovered from
// internal/koto/cache) as a Program, for embedders that maintain their own
// parse cache instead of calling Parse on raw source every time.
func ProgramFromAST(ast *koto.Node) *Program { return &Program{ast: ast} }

// Interpreter is a single script's host-facing handle: its runtime state
// (environment, args, script path) plus the last program it parsed.
type Interpreter struct {
	rt      *koto.Runtime
	program *Program
}

// New returns an Interpreter with an empty global environment and debug
// output on stdout.
func New() *Interpreter {
	return &Interpreter{rt: koto.NewRuntime()}
}

// SetOutput redirects where `debug` statements write, defaulting to stdout.
func (i *Interpreter) SetOutput(w io.Writer) { i.rt.Output = w }

// Runtime exposes the underlying internal/koto.Runtime, for callers (such
// as internal/koto/modules) that register native function tables directly
// rather than going through Register/RegisterModule.
func (i *Interpreter) Runtime() *koto.Runtime { return i.rt }

// Parse parses source into a Program without running it. A failure
// returns *ParseError.
func Parse(source string) (*Program, error) {
	ast, err := koto.ParseSource(source)
	if err != nil {
		msg, pos, line, isIndent := koto.ParseErrorInfo(err)
		return nil, &ParseError{Msg: msg, Pos: pos, SourceLine: line, IsIndentationErr: isIndent}
	}
	return &Program{ast: ast}, nil
}

// SetArgs installs the CLI arguments exposed to running scripts as
// `env.args`.
func (i *Interpreter) SetArgs(args []string) {
	i.rt.Args = args
	items := make([]koto.Value, len(args))
	for idx, a := range args {
		items[idx] = koto.NewStr(a)
	}
	_ = i.env().Set("args", koto.NewList(koto.NewEmptyList(items)))
}

// SetScriptPath records the script's own path, exposed as `env.script_path`
// and `env.script_dir`. An empty path clears both to empty strings, the
// state a `-c` inline script runs under.
func (i *Interpreter) SetScriptPath(path string) {
	i.rt.ScriptPath = path
	dir := ""
	if path != "" {
		dir = filepath.Dir(path)
	}
	_ = i.env().Set("script_path", koto.NewStr(path))
	_ = i.env().Set("script_dir", koto.NewStr(dir))
}

// env returns the global `env` map, creating and binding it on first use.
func (i *Interpreter) env() *koto.Map {
	v, ok := i.rt.Env.Global().Get("env")
	if ok && v.Kind() == KindMap {
		return v.Map()
	}
	m := koto.NewEmptyMap()
	i.rt.Env.Global().Set("env", koto.NewMap(m))
	return m
}

// Register installs a single native function under name.
func (i *Interpreter) Register(name string, fn koto.NativeFunc) { i.rt.Register(name, fn) }

// RegisterModule installs a native function table as a module Map callable
// as "<module>.<name>".
func (i *Interpreter) RegisterModule(module string, fns map[string]koto.NativeFunc) {
	i.rt.RegisterModule(module, fns)
}

// Run parses (if necessary) and evaluates source, returning the value of
// its last top-level statement. A failure returns *ParseError or
// *RuntimeError.
func (i *Interpreter) Run(source string) (Value, error) {
	program, err := Parse(source)
	if err != nil {
		return Value{}, err
	}
	return i.RunProgram(program)
}

// RunProgram evaluates an already-parsed Program, keeping it as the
// Interpreter's "current" program for HasFunction/CallFunction.
func (i *Interpreter) RunProgram(program *Program) (Value, error) {
	i.program = program
	v, err := i.rt.Eval(program.ast)
	if err != nil {
		return Value{}, err
	}
	return v, nil
}

// HasFunction reports whether name is currently bound to a callable value
// in the global scope, typically checked after Run has executed a script's
// top-level `fn = |...| ...` definitions.
func (i *Interpreter) HasFunction(name string) bool {
	v, ok := i.rt.Env.Lookup(name)
	if !ok {
		return false
	}
	return v.Kind() == KindFunc || v.Kind() == KindBuiltin
}

// CallFunction invokes a global function by name with args, the embedding
// entry point a host uses once a script has registered its own callbacks
// via Run.
func (i *Interpreter) CallFunction(name string, args ...Value) (Value, error) {
	v, ok := i.rt.Env.Lookup(name)
	if !ok {
		return Value{}, &koto.RuntimeError{Msg: "unknown function \"" + name + "\""}
	}
	return i.rt.CallValue(v, args)
}

// Prelude returns the global environment's backing map, letting an embedder
// inject or inspect bindings directly.
func (i *Interpreter) Prelude() *koto.Map { return i.rt.Env.Global() }

// RenderError formats any error produced by this package in the
// `Runtime error: <msg>\n --> line:col\n...` gutter/caret shape used for
// surfacing failures to a human (e.g. a CLI).
func RenderError(err error) string { return renderError(err) }

// DefaultOutput is stdout, used by New's Interpreter unless SetOutput is
// called.
var DefaultOutput io.Writer = os.Stdout
