package htmlnorm

import (
	"strings"

	"tpp/internal/ast"
	"tpp/internal/diag"
	"tpp/internal/source"
)

// Phase one: scan the sibling list into a flat event stream. Text nodes are
// cut into HTML token classes; an open tag may span several siblings
// (directives between attributes), so the attribute machine keeps its state
// across node boundaries.

type evKind uint8

const (
	evNode evKind = iota // pass-through node (text, directive, leaf element, ...)
	evOpen               // element open tag, close expected later
	evClose              // `</tag>`
	evCondOpen
	evCondClose
)

type event struct {
	kind evKind
	node *ast.Node
	tag  string
	span source.Span
}

type attrState uint8

const (
	stBeforeAttr attrState = iota
	stAttrName
	stAfterName
	stBeforeValue
	stValue
)

type scanner struct {
	nz     *normalizer
	events []event

	// Open-tag machine; tagNode is non-nil while an open tag is being
	// consumed, possibly across sibling nodes.
	tagNode   *ast.Node
	state     attrState
	curAttr   *ast.Node
	nameBuf   strings.Builder
	slash     bool // saw `/` before `>`
	quote     byte
	fragStart int
	fragText  string
	fragBase  uint32
	fragFile  source.FileID

	// rawUntil is the tag whose close ends raw content mode (script/style).
	rawUntil string
	rawSpan  source.Span

	// attrOnly marks a sub-scanner over open-tag branch fragments: no tag
	// may be completed, only attributes produced.
	attrOnly bool
}

func newScanner(nz *normalizer) *scanner {
	return &scanner{nz: nz}
}

func (s *scanner) emit(ev event) {
	s.events = append(s.events, ev)
}

func (s *scanner) emitText(span source.Span, text string) {
	if text == "" {
		return
	}
	s.emit(event{kind: evNode, node: ast.NewText(span, text)})
}

// text scans one literal sibling.
func (s *scanner) text(n *ast.Node) {
	text := n.Text
	base := n.Span.Start
	file := n.Span.File
	i := 0
	for i < len(text) && s.nz.err == nil {
		switch {
		case s.rawUntil != "":
			i = s.rawText(text, i, base, file)
		case s.tagNode != nil:
			i = s.openTagText(text, i, base, file)
		default:
			i = s.contentText(text, i, base, file)
		}
	}
}

// node routes a non-text sibling.
func (s *scanner) node(n *ast.Node) {
	if s.tagNode != nil {
		s.nodeInOpenTag(n)
		return
	}
	if s.rawUntil != "" {
		// Script/style content: directives stay verbatim, branches are not
		// HTML-scanned.
		s.emit(event{kind: evNode, node: n})
		return
	}
	if n.Kind == ast.NodeDirective && n.IsBlock() {
		for _, br := range n.Branches {
			br.Children = s.nz.list(br.Children)
		}
	}
	s.emit(event{kind: evNode, node: n})
}

// finish validates the end-of-list scanner state.
func (s *scanner) finish() {
	if s.nz.err != nil {
		return
	}
	if s.rawUntil != "" {
		s.nz.fatal(diag.LexUnterminatedHTML, s.rawSpan,
			"<%s> content is never closed by </%s>", s.rawUntil, s.rawUntil)
		return
	}
	if s.tagNode != nil && !s.attrOnly {
		s.nz.fatal(diag.LexUnterminatedHTML, s.tagNode.Span,
			"open tag <%s never reaches '>'", s.tagNode.Tag)
	}
}

func span(file source.FileID, base uint32, from, to int) source.Span {
	return source.Span{File: file, Start: base + uint32(from), End: base + uint32(to)}
}

func isAlpha(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isTagNameChar(c byte) bool {
	return isAlpha(c) || c >= '0' && c <= '9' || c == ':' || c == '-'
}

func isAttrNameChar(c byte) bool {
	return isTagNameChar(c) || c == '_' || c == '.'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// contentText consumes character data until it hits a construct that
// switches modes, returning the new index.
func (s *scanner) contentText(text string, i int, base uint32, file source.FileID) int {
	start := i
	flush := func(to int) {
		s.emitText(span(file, base, start, to), text[start:to])
	}
	for i < len(text) {
		if text[i] != '<' {
			i++
			continue
		}
		rest := text[i:]
		switch {
		case hasPrefixFold(rest, "<!--[if") || hasPrefixFold(rest, "<![if"):
			flush(i)
			return s.scanCondOpen(text, i, base, file)
		case hasPrefixFold(rest, "<![endif]") || hasPrefixFold(rest, "<!--[endif]"):
			flush(i)
			return s.scanCondClose(text, i, base, file)
		case hasPrefixFold(rest, "<![cdata["):
			flush(i)
			return s.scanVerbatim(text, i, "]]>", base, file, "CDATA section")
		case hasPrefixFold(rest, "<!doctype"):
			flush(i)
			return s.scanVerbatim(text, i, ">", base, file, "doctype")
		case strings.HasPrefix(rest, "<!--"):
			flush(i)
			return s.scanComment(text, i, base, file)
		case len(rest) >= 3 && rest[1] == '/' && isAlpha(rest[2]):
			flush(i)
			return s.scanCloseTag(text, i, base, file)
		case len(rest) >= 2 && isAlpha(rest[1]):
			flush(i)
			return s.startOpenTag(text, i, base, file)
		default:
			// Literal '<' (e.g. "a < b").
			i++
		}
	}
	flush(i)
	return i
}

func (s *scanner) scanCondOpen(text string, i int, base uint32, file source.FileID) int {
	end := strings.Index(text[i:], "]>")
	if end < 0 {
		s.nz.fatal(diag.LexUnterminatedHTML, span(file, base, i, len(text)),
			"conditional comment open is not terminated by ']>'")
		return len(text)
	}
	end += i + len("]>")
	open := strings.Index(text[i:end], "[")
	cond := text[i+open+1 : end-len("]>")]
	node := &ast.Node{
		Kind: ast.NodeCondComment,
		Span: span(file, base, i, end),
		Name: cond,
		Text: text[i:end],
	}
	s.emit(event{kind: evCondOpen, node: node})
	return end
}

func (s *scanner) scanCondClose(text string, i int, base uint32, file source.FileID) int {
	end := strings.Index(text[i:], ">")
	if end < 0 {
		s.nz.fatal(diag.LexUnterminatedHTML, span(file, base, i, len(text)),
			"conditional comment close is not terminated by '>'")
		return len(text)
	}
	end += i + 1
	s.emit(event{kind: evCondClose, span: span(file, base, i, end), tag: text[i:end]})
	return end
}

// scanVerbatim keeps a CDATA section or doctype as plain text.
func (s *scanner) scanVerbatim(text string, i int, close string, base uint32, file source.FileID, what string) int {
	end := strings.Index(text[i:], close)
	if end < 0 {
		s.nz.fatal(diag.LexUnterminatedHTML, span(file, base, i, len(text)),
			"%s is not terminated by %q", what, close)
		return len(text)
	}
	end += i + len(close)
	s.emitText(span(file, base, i, end), text[i:end])
	return end
}

func (s *scanner) scanComment(text string, i int, base uint32, file source.FileID) int {
	end := strings.Index(text[i:], "-->")
	if end < 0 {
		s.nz.fatal(diag.LexUnterminatedHTML, span(file, base, i, len(text)),
			"HTML comment is not terminated by '-->'")
		return len(text)
	}
	body := text[i+len("<!--") : i+end]
	end += i + len("-->")
	s.emit(event{kind: evNode, node: &ast.Node{
		Kind: ast.NodeComment,
		Span: span(file, base, i, end),
		Text: body,
	}})
	return end
}

func (s *scanner) scanCloseTag(text string, i int, base uint32, file source.FileID) int {
	j := i + 2
	nameStart := j
	for j < len(text) && isTagNameChar(text[j]) {
		j++
	}
	name := text[nameStart:j]
	for j < len(text) && isSpace(text[j]) {
		j++
	}
	if j >= len(text) || text[j] != '>' {
		s.nz.fatal(diag.LexBadHTMLTag, span(file, base, i, min(j+1, len(text))),
			"malformed close tag </%s", name)
		return len(text)
	}
	j++
	s.emit(event{kind: evClose, tag: strings.ToLower(name), span: span(file, base, i, j)})
	return j
}

func (s *scanner) startOpenTag(text string, i int, base uint32, file source.FileID) int {
	j := i + 1
	nameStart := j
	for j < len(text) && isTagNameChar(text[j]) {
		j++
	}
	name := text[nameStart:j]
	s.tagNode = ast.NewElement(span(file, base, i, j), strings.ToLower(name))
	s.state = stBeforeAttr
	s.slash = false
	s.nameBuf.Reset()
	return j
}

// rawText consumes script/style content, looking only for the close tag.
func (s *scanner) rawText(text string, i int, base uint32, file source.FileID) int {
	needle := "</" + s.rawUntil
	for j := i; j+len(needle) <= len(text); j++ {
		if !hasPrefixFold(text[j:], needle) {
			continue
		}
		after := j + len(needle)
		if after < len(text) && isTagNameChar(text[after]) {
			continue
		}
		s.emitText(span(file, base, i, j), text[i:j])
		s.rawUntil = ""
		return s.scanCloseTag(text, j, base, file)
	}
	s.emitText(span(file, base, i, len(text)), text[i:])
	return len(text)
}

// openTagText runs the attribute machine over one literal sibling.
func (s *scanner) openTagText(text string, i int, base uint32, file source.FileID) int {
	if s.state == stValue {
		// Value resumed after an interleaved directive/expression sibling.
		s.startFrag(text, i, base, file)
	}
	for i < len(text) {
		c := text[i]
		switch s.state {
		case stBeforeAttr:
			switch {
			case isSpace(c):
				i++
			case c == '>':
				return s.finishOpenTag(text, i, base, file)
			case c == '/':
				s.slash = true
				i++
			case isAttrNameChar(c):
				s.nameBuf.Reset()
				s.state = stAttrName
			default:
				s.nz.fatal(diag.LexBadHTMLTag, span(file, base, i, i+1),
					"unexpected %q inside <%s> open tag", string(c), s.tagNode.Tag)
				return len(text)
			}
		case stAttrName:
			if isAttrNameChar(c) {
				s.nameBuf.WriteByte(c)
				i++
				continue
			}
			s.curAttr = ast.NewAttr(span(file, base, max(0, i-s.nameBuf.Len()), i), s.nameBuf.String())
			s.state = stAfterName
		case stAfterName:
			switch {
			case isSpace(c):
				i++
			case c == '=':
				s.state = stBeforeValue
				i++
			default:
				// Bare attribute; reprocess c as the next construct.
				s.curAttr.Bare = true
				s.pushAttr()
				s.state = stBeforeAttr
			}
		case stBeforeValue:
			switch {
			case isSpace(c):
				i++
			case c == '\'' || c == '"':
				s.quote = c
				s.state = stValue
				i++
				s.startFrag(text, i, base, file)
			default:
				s.quote = 0
				s.state = stValue
				s.startFrag(text, i, base, file)
			}
		case stValue:
			if s.quote != 0 {
				if c == s.quote {
					s.endFrag(text, i)
					s.curAttr.Quote = s.quote
					s.quote = 0
					s.pushAttr()
					s.state = stBeforeAttr
					i++
					continue
				}
				i++
				continue
			}
			if isSpace(c) || c == '>' {
				s.endFrag(text, i)
				s.pushAttr()
				s.state = stBeforeAttr
				continue
			}
			i++
		}
	}
	// Sibling boundary: flush a pending value fragment, keep the machine
	// state for the next sibling.
	if s.state == stValue {
		s.endFrag(text, len(text))
	}
	return len(text)
}

func (s *scanner) startFrag(text string, i int, base uint32, file source.FileID) {
	s.fragStart = i
	s.fragBase = base
	s.fragFile = file
}

func (s *scanner) endFrag(text string, to int) {
	if to > s.fragStart {
		s.curAttr.Value = append(s.curAttr.Value, ast.NewText(
			span(s.fragFile, s.fragBase, s.fragStart, to), text[s.fragStart:to]))
	}
	s.fragStart = to
}

func (s *scanner) pushAttr() {
	s.tagNode.Open = append(s.tagNode.Open, s.curAttr)
	s.curAttr = nil
}

func (s *scanner) finishOpenTag(text string, i int, base uint32, file source.FileID) int {
	i++
	el := s.tagNode
	s.tagNode = nil
	el.Span = source.Span{File: el.Span.File, Start: el.Span.Start, End: base + uint32(i)}
	el.Void = IsVoid(el.Tag)
	el.SelfClosing = s.slash
	if s.attrOnly {
		s.nz.fatal(diag.LexBadHTMLTag, el.Span,
			"open tag <%s> cannot terminate inside a directive branch", el.Tag)
		return len(text)
	}
	if el.Void || el.SelfClosing {
		s.emit(event{kind: evNode, node: el})
		return i
	}
	if rawContentTags[el.Tag] {
		s.emit(event{kind: evOpen, node: el})
		s.rawUntil = el.Tag
		s.rawSpan = el.Span
		return i
	}
	s.emit(event{kind: evOpen, node: el})
	return i
}

// nodeInOpenTag places a non-text sibling inside the open tag being built:
// between attributes it lands in the element's Open list, inside a value it
// joins the attribute's fragments.
func (s *scanner) nodeInOpenTag(n *ast.Node) {
	switch s.state {
	case stValue, stBeforeValue:
		if s.state == stBeforeValue {
			// `name={% ... %}`: unquoted value made of nodes.
			s.quote = 0
			s.state = stValue
			s.fragStart = 0
		}
		s.curAttr.Value = append(s.curAttr.Value, n)
	case stAttrName, stAfterName:
		s.nz.fatal(diag.LexBadHTMLTag, n.Span,
			"directive splits an attribute name inside <%s>", s.tagNode.Tag)
	default:
		if n.Kind == ast.NodeDirective && n.IsBlock() {
			for _, br := range n.Branches {
				frags, ok := s.scanAttrFragments(br.Children)
				if !ok {
					return
				}
				br.Children = frags
			}
		}
		s.tagNode.Open = append(s.tagNode.Open, n)
	}
}

// scanAttrFragments parses one directive branch that lives inside an open
// tag: its children must form whole attributes (Scenario: a branch per
// class variant).
func (s *scanner) scanAttrFragments(children []*ast.Node) ([]*ast.Node, bool) {
	sub := newScanner(s.nz)
	sub.attrOnly = true
	sub.tagNode = ast.NewElement(source.Span{}, s.tagNode.Tag)
	sub.state = stBeforeAttr
	for _, n := range children {
		if s.nz.err != nil {
			return nil, false
		}
		if n.Kind == ast.NodeText {
			sub.text(n)
		} else {
			sub.node(n)
		}
	}
	if s.nz.err != nil {
		return nil, false
	}
	if sub.state == stValue && sub.quote != 0 {
		s.nz.fatal(diag.LexBadHTMLTag, s.tagNode.Span,
			"attribute value quote is not closed inside its directive branch")
		return nil, false
	}
	switch sub.state {
	case stValue:
		sub.pushAttr()
	case stAfterName:
		sub.curAttr.Bare = true
		sub.pushAttr()
	case stAttrName:
		if sub.nameBuf.Len() > 0 {
			sub.curAttr = ast.NewAttr(source.Span{}, sub.nameBuf.String())
			sub.curAttr.Bare = true
			sub.pushAttr()
		}
	}
	return sub.tagNode.Open, true
}
