package lexer

import (
	"errors"
	"fmt"
	"strings"

	"tpp/internal/diag"
	"tpp/internal/source"
	"tpp/internal/token"
)

// Template delimiters. The `{% !... %}` namespace is reserved for the
// preprocessor itself (raw regions, inline option overrides, debug markers).
const (
	tagOpen     = "{%"
	tagClose    = "%}"
	printOpen   = "{{"
	printClose  = "}}"
	commentOpen = "{#"
	commentEnd  = "#}"
)

// ErrLex is wrapped by every fatal lexical error.
var ErrLex = errors.New("lex error")

// Lexer scans one template file into tokens. Token spans are contiguous and
// cover the entire file, so the token stream round-trips to the source.
type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		file:   file,
		cursor: NewCursor(file),
		opts:   opts,
	}
}

// Tokenize scans the whole file. On a fatal lexical error it reports the
// diagnostic and returns the tokens produced so far together with the error.
func Tokenize(file *source.File, opts Options) ([]token.Token, error) {
	lx := New(file, opts)
	var tokens []token.Token
	for {
		tok, err := lx.next()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == token.RawBegin {
			raw, end, err := lx.scanRaw(tok.Span)
			if err != nil {
				return tokens, err
			}
			if !raw.Span.Empty() {
				tokens = append(tokens, raw)
			}
			tokens = append(tokens, end)
			continue
		}
		if tok.Kind == token.EOF {
			return tokens, nil
		}
	}
}

func (lx *Lexer) next() (token.Token, error) {
	if lx.cursor.EOF() {
		return token.Token{
			Kind: token.EOF,
			Span: source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off},
		}, nil
	}

	switch {
	case lx.cursor.HasPrefix(tagOpen):
		return lx.scanBlockTag()
	case lx.cursor.HasPrefix(printOpen):
		return lx.scanExpression()
	case lx.cursor.HasPrefix(commentOpen):
		return lx.scanComment()
	default:
		return lx.scanText(), nil
	}
}

// scanText consumes literal content up to the next delimiter or EOF.
func (lx *Lexer) scanText() token.Token {
	mark := lx.cursor.Mark()
	for !lx.cursor.EOF() {
		if lx.cursor.Peek() == '{' {
			if lx.cursor.HasPrefix(tagOpen) || lx.cursor.HasPrefix(printOpen) || lx.cursor.HasPrefix(commentOpen) {
				break
			}
		}
		lx.cursor.Bump()
	}
	return token.Token{
		Kind: token.Text,
		Span: lx.cursor.SpanFrom(mark),
		Text: lx.cursor.TextFrom(mark),
	}
}

func (lx *Lexer) scanExpression() (token.Token, error) {
	mark := lx.cursor.Mark()
	lx.cursor.Skip(uint32(len(printOpen)))
	body, ok := lx.scanTagBody(printClose)
	if !ok {
		return lx.fatal(diag.LexUnterminatedTag, lx.cursor.SpanFrom(mark), "unterminated {{ expression")
	}
	return token.Token{
		Kind: token.Expression,
		Span: lx.cursor.SpanFrom(mark),
		Text: lx.cursor.TextFrom(mark),
		Args: strings.TrimSpace(body),
	}, nil
}

func (lx *Lexer) scanComment() (token.Token, error) {
	mark := lx.cursor.Mark()
	lx.cursor.Skip(uint32(len(commentOpen)))
	if _, ok := lx.scanTagBody(commentEnd); !ok {
		return lx.fatal(diag.LexUnterminatedTag, lx.cursor.SpanFrom(mark), "unterminated {# comment")
	}
	return token.Token{
		Kind: token.Comment,
		Span: lx.cursor.SpanFrom(mark),
		Text: lx.cursor.TextFrom(mark),
	}, nil
}

func (lx *Lexer) scanBlockTag() (token.Token, error) {
	mark := lx.cursor.Mark()
	lx.cursor.Skip(uint32(len(tagOpen)))
	body, ok := lx.scanTagBody(tagClose)
	if !ok {
		return lx.fatal(diag.LexUnterminatedTag, lx.cursor.SpanFrom(mark), "unterminated {% tag")
	}
	body = strings.TrimSpace(body)
	span := lx.cursor.SpanFrom(mark)
	text := lx.cursor.TextFrom(mark)

	if rest, isInternal := strings.CutPrefix(body, "!"); isInternal {
		return lx.scanInternalTag(mark, span, text, strings.TrimSpace(rest))
	}

	name, args, _ := strings.Cut(body, " ")
	if !isDirectiveName(name) {
		return lx.fatal(diag.LexBadDirectiveName, span, fmt.Sprintf("invalid directive name %q", name))
	}

	if after, isEnd := strings.CutPrefix(name, "end"); isEnd && after != "" {
		return token.Token{
			Kind: token.DirectiveEnd,
			Span: span,
			Text: text,
			Name: after,
		}, nil
	}

	return token.Token{
		Kind: token.Directive,
		Span: span,
		Text: text,
		Name: name,
		Args: strings.TrimSpace(args),
	}, nil
}

// scanInternalTag handles the reserved `{% !... %}` forms: raw regions and
// option overrides.
func (lx *Lexer) scanInternalTag(mark Mark, span source.Span, text string, body string) (token.Token, error) {
	switch {
	case body == "raw":
		return token.Token{Kind: token.RawBegin, Span: span, Text: text}, nil

	case body == "endraw":
		return lx.fatal(diag.LexStrayRawEnd, span, "{% !endraw %} without matching {% !raw %}")

	default:
		name, args, _ := strings.Cut(body, " ")
		if !isOptionName(name) {
			return lx.fatal(diag.LexBadDirectiveName, span, fmt.Sprintf("invalid option directive %q", body))
		}
		return token.Token{
			Kind: token.Option,
			Span: span,
			Text: text,
			Name: name,
			Args: strings.TrimSpace(args),
		}, nil
	}
}

// ScanRaw consumes verbatim content after a RawBegin up to the matching
// `{% !endraw %}`. It returns a RawText token (possibly empty) and the
// RawEnd token. An unterminated region is fatal and blames the opening span.
func (lx *Lexer) scanRaw(openSpan source.Span) (raw, end token.Token, err error) {
	mark := lx.cursor.Mark()
	for !lx.cursor.EOF() {
		if lx.cursor.HasPrefix(tagOpen) {
			endMark := lx.cursor.Mark()
			if lx.tryRawEnd() {
				raw = token.Token{
					Kind: token.RawText,
					Span: source.Span{File: lx.file.ID, Start: uint32(mark), End: uint32(endMark)},
					Text: string(lx.file.Content[mark:endMark]),
				}
				end = token.Token{
					Kind: token.RawEnd,
					Span: lx.cursor.SpanFrom(endMark),
					Text: lx.cursor.TextFrom(endMark),
				}
				return raw, end, nil
			}
		}
		lx.cursor.Bump()
	}
	return token.Token{}, token.Token{}, lx.fatalErr(diag.LexUnterminatedRaw, openSpan, "unterminated {% !raw %} region")
}

// tryRawEnd consumes `{% !endraw %}` (with arbitrary interior spacing) at
// the cursor, or leaves the cursor untouched.
func (lx *Lexer) tryRawEnd() bool {
	save := lx.cursor.Off
	lx.cursor.Skip(uint32(len(tagOpen)))
	body, ok := lx.scanTagBody(tagClose)
	if ok && strings.TrimSpace(body) == "!endraw" {
		return true
	}
	lx.cursor.Off = save
	return false
}

// scanTagBody consumes up to and including the closing delimiter, honoring
// quoted strings so a close marker inside '...' or "..." does not end the
// tag. Returns the body without delimiters and false when the tag never
// closes.
func (lx *Lexer) scanTagBody(close string) (string, bool) {
	mark := lx.cursor.Mark()
	var quote byte
	for !lx.cursor.EOF() {
		ch := lx.cursor.Peek()
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			lx.cursor.Bump()
			continue
		}
		if ch == '\'' || ch == '"' {
			quote = ch
			lx.cursor.Bump()
			continue
		}
		if lx.cursor.HasPrefix(close) {
			body := lx.cursor.TextFrom(mark)
			lx.cursor.Skip(uint32(len(close)))
			return body, true
		}
		lx.cursor.Bump()
	}
	return "", false
}

func (lx *Lexer) fatal(code diag.Code, span source.Span, msg string) (token.Token, error) {
	return token.Token{}, lx.fatalErr(code, span, msg)
}

func (lx *Lexer) fatalErr(code diag.Code, span source.Span, msg string) error {
	if lx.opts.Reporter != nil {
		lx.opts.Reporter.Report(code, diag.SevError, span, msg, nil)
	}
	return fmt.Errorf("%w: %s", ErrLex, msg)
}

func isDirectiveName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch == '_':
		case ch >= '0' && ch <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func isOptionName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9', ch == '-':
		default:
			return false
		}
	}
	return true
}
