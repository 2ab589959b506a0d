package token

import (
	"tpp/internal/source"
)

// Token is a single template token. Text always holds the exact source
// slice covered by Span, delimiters included, so that concatenating the
// Text of consecutive tokens reproduces the original source.
type Token struct {
	Kind Kind
	Span source.Span
	Text string

	// Name is the directive name for Directive/DirectiveEnd tokens and the
	// flag name for Option tokens.
	Name string
	// Args is the raw argument string for Directive tokens and the opaque
	// body for Expression tokens.
	Args string
}

// IsDirective reports whether the token is any `{% ... %}` form.
func (t Token) IsDirective() bool {
	switch t.Kind {
	case Directive, DirectiveEnd, RawBegin, RawEnd, Option:
		return true
	default:
		return false
	}
}

// IsContent reports whether the token contributes literal output.
func (t Token) IsContent() bool {
	return t.Kind == Text || t.Kind == RawText
}
