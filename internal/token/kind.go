package token

// Kind classifies a template token.
type Kind uint8

const (
	// EOF marks the end of the token stream.
	EOF Kind = iota

	// Text is literal template content between directives.
	Text

	// Directive is a `{% name args %}` tag. Whether it opens a block or
	// stands alone is decided by the parser against the directive registry.
	Directive

	// DirectiveEnd is a `{% endname %}` tag.
	DirectiveEnd

	// Expression is a `{{ expr }}` tag; the expression body is opaque.
	Expression

	// Comment is a `{# ... #}` tag, dropped at parse time.
	Comment

	// RawBegin and RawEnd delimit a `{% !raw %} ... {% !endraw %}` region.
	RawBegin
	RawEnd

	// RawText is the verbatim content of a raw region.
	RawText

	// Option is a `{% !flag %}` inline option override.
	Option
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Text:
		return "Text"
	case Directive:
		return "Directive"
	case DirectiveEnd:
		return "DirectiveEnd"
	case Expression:
		return "Expression"
	case Comment:
		return "Comment"
	case RawBegin:
		return "RawBegin"
	case RawEnd:
		return "RawEnd"
	case RawText:
		return "RawText"
	case Option:
		return "Option"
	}
	return "Unknown"
}
