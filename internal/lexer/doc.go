// Package lexer splits template source into tokens. It only recognizes the
// template delimiters; directive semantics and HTML structure are handled by
// later phases.
package lexer
