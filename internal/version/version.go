// Package version contains information on the current version of the
// program. It is split from the main program for easy use by both cmd/koto
// and server/api.
package version

// Current is the string representing the current version of the koto
// language core (lexer, parser, evaluator).
const Current = "0.1.0"

// ServerCurrent is the string representing the current version of the
// embeddable koto HTTP server.
const ServerCurrent = "0.1.0"
