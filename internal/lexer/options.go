package lexer

import (
	"tpp/internal/diag"
)

// Options configures a Lexer. A nil Reporter silently drops diagnostics;
// fatal lex errors are still returned from Tokenize.
type Options struct {
	Reporter diag.Reporter
}
