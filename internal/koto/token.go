package koto

// file token.go defines the lexer's token classes and their Pratt binding
// powers.

// tokenClass is a type of token. lbp is its "left binding power" used by the
// Pratt/precedence-climbing parser in parser.go; zero means the token never
// appears in led position (it cannot continue an expression).
type tokenClass struct {
	id    string
	human string
	lbp   int
}

func (tc tokenClass) String() string { return tc.human }

// Binding powers implement a five-tier precedence ladder, lowest to
// highest. Assignment binds looser than everything so `x = a or b` parses as
// `x = (a or b)`.
const (
	lbpNone       = 0
	lbpAssign     = 5
	lbpRange      = 8
	lbpOr         = 10
	lbpAnd        = 10
	lbpEquality   = 20
	lbpRelational = 30
	lbpAdditive   = 40
	lbpMultiplic  = 50
	lbpCall       = 60
	lbpIndex      = 60
	lbpDot        = 70
)

var (
	tkEOF        = tokenClass{"eof", "end of input", lbpNone}
	tkNewline    = tokenClass{"newline", "end of line", lbpNone}
	tkIndent     = tokenClass{"indent", "indent", lbpNone}
	tkDedent     = tokenClass{"dedent", "dedent", lbpNone}
	tkNumber     = tokenClass{"number", "a number", lbpNone}
	tkString     = tokenClass{"string", "a string", lbpNone}
	tkIdent      = tokenClass{"ident", "an identifier", lbpNone}
	tkTrue       = tokenClass{"true", "'true'", lbpNone}
	tkFalse      = tokenClass{"false", "'false'", lbpNone}
	tkIf         = tokenClass{"if", "'if'", lbpNone}
	tkThen       = tokenClass{"then", "'then'", lbpNone}
	tkElse       = tokenClass{"else", "'else'", lbpNone}
	tkFor        = tokenClass{"for", "'for'", lbpNone}
	tkIn         = tokenClass{"in", "'in'", lbpNone}
	tkWhile      = tokenClass{"while", "'while'", lbpNone}
	tkUntil      = tokenClass{"until", "'until'", lbpNone}
	tkBreak      = tokenClass{"break", "'break'", lbpNone}
	tkContinue   = tokenClass{"continue", "'continue'", lbpNone}
	tkReturn     = tokenClass{"return", "'return'", lbpNone}
	tkCopy       = tokenClass{"copy", "'copy'", lbpNone}
	tkShare      = tokenClass{"share", "'share'", lbpNone}
	tkNot        = tokenClass{"not", "'not'", lbpNone}
	tkAnd        = tokenClass{"and", "'and'", lbpAnd}
	tkOr         = tokenClass{"or", "'or'", lbpOr}
	tkDebug      = tokenClass{"debug", "'debug'", lbpNone}
	tkGlobal     = tokenClass{"global", "'global'", lbpNone}
	tkPlus       = tokenClass{"+", "'+'", lbpAdditive}
	tkMinus      = tokenClass{"-", "'-'", lbpAdditive}
	tkStar       = tokenClass{"*", "'*'", lbpMultiplic}
	tkSlash      = tokenClass{"/", "'/'", lbpMultiplic}
	tkPercent    = tokenClass{"%", "'%'", lbpMultiplic}
	tkEq         = tokenClass{"==", "'=='", lbpEquality}
	tkNe         = tokenClass{"!=", "'!='", lbpEquality}
	tkLt         = tokenClass{"<", "'<'", lbpRelational}
	tkLe         = tokenClass{"<=", "'<='", lbpRelational}
	tkGt         = tokenClass{">", "'>'", lbpRelational}
	tkGe         = tokenClass{">=", "'>='", lbpRelational}
	tkAssign     = tokenClass{"=", "'='", lbpAssign}
	tkPlusEq     = tokenClass{"+=", "'+='", lbpAssign}
	tkMinusEq    = tokenClass{"-=", "'-='", lbpAssign}
	tkStarEq     = tokenClass{"*=", "'*='", lbpAssign}
	tkSlashEq    = tokenClass{"/=", "'/='", lbpAssign}
	tkPercentEq  = tokenClass{"%=", "'%='", lbpAssign}
	tkDotDot     = tokenClass{"..", "'..'", lbpRange}
	tkDotDotEq   = tokenClass{"..=", "'..='", lbpRange}
	tkDot        = tokenClass{".", "'.'", lbpDot}
	tkComma      = tokenClass{",", "','", lbpNone}
	tkColon      = tokenClass{":", "':'", lbpNone}
	tkSemicolon  = tokenClass{";", "';'", lbpNone}
	tkPipe       = tokenClass{"|", "'|'", lbpNone}
	tkLParen     = tokenClass{"(", "'('", lbpCall}
	tkRParen     = tokenClass{")", "')'", lbpNone}
	tkLBracket   = tokenClass{"[", "'['", lbpIndex}
	tkRBracket   = tokenClass{"]", "']'", lbpNone}
	tkLBrace     = tokenClass{"{", "'{'", lbpNone}
	tkRBrace     = tokenClass{"}", "'}'", lbpNone}
	tkBang       = tokenClass{"!", "'!'", lbpNone}
)

var keywords = map[string]tokenClass{
	"true":     tkTrue,
	"false":    tkFalse,
	"if":       tkIf,
	"then":     tkThen,
	"else":     tkElse,
	"for":      tkFor,
	"in":       tkIn,
	"while":    tkWhile,
	"until":    tkUntil,
	"break":    tkBreak,
	"continue": tkContinue,
	"return":   tkReturn,
	"copy":     tkCopy,
	"share":    tkShare,
	"not":      tkNot,
	"and":      tkAnd,
	"or":       tkOr,
	"debug":    tkDebug,
	"global":   tkGlobal,
}

// token is a single lexed token with enough positional information to
// render a caret diagnostic and to drive the indentation-sensitive grammar.
type token struct {
	class    tokenClass
	lexeme   string
	pos      Pos
	fullLine string
}

func (t token) span() Span { return Span{Start: t.pos, End: Pos{Line: t.pos.Line, Col: t.pos.Col + len([]rune(t.lexeme))}} }
