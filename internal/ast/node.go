package ast

import (
	"golang.org/x/net/html/atom"

	"tpp/internal/source"
)

// NodeKind discriminates the Node variants.
type NodeKind uint8

const (
	// NodeRoot is the tree root; only Children is populated.
	NodeRoot NodeKind = iota

	// NodeText is literal output. After normalization it never contains
	// HTML tag markup, only character data.
	NodeText

	// NodeExpr is a `{{ expr }}` leaf; the expression body is opaque.
	NodeExpr

	// NodeRaw is a `{% !raw %}` region; Text is emitted byte-for-byte and
	// every pass skips it.
	NodeRaw

	// NodeDirective is a `{% name %}` construct. A leaf directive has no
	// branches; a block directive has one branch per render path.
	NodeDirective

	// NodeOption is a `{% !flag %}` inline override. It affects option
	// resolution for nodes lexically after it and emits no output.
	NodeOption

	// NodeElement is an HTML element recognized by the normalizer.
	NodeElement

	// NodeAttr is one attribute inside an element's open tag.
	NodeAttr

	// NodeComment is an HTML comment (not a template `{# #}` comment, which
	// the parser drops).
	NodeComment

	// NodeCondComment is a downlevel conditional comment
	// (`<!--[if IE]> ... <![endif]-->`); its children render normally but
	// are shielded from script/style merging.
	NodeCondComment

	// NodeCloseTag is a `</tag>` whose open tag lives outside the current
	// sibling list (in an enclosing scope or a sibling branch). The balance
	// automaton proves it pairs with exactly one open.
	NodeCloseTag
)

func (k NodeKind) String() string {
	switch k {
	case NodeRoot:
		return "Root"
	case NodeText:
		return "Text"
	case NodeExpr:
		return "Expr"
	case NodeRaw:
		return "Raw"
	case NodeDirective:
		return "Directive"
	case NodeOption:
		return "Option"
	case NodeElement:
		return "Element"
	case NodeAttr:
		return "Attr"
	case NodeComment:
		return "Comment"
	case NodeCondComment:
		return "CondComment"
	case NodeCloseTag:
		return "CloseTag"
	}
	return "Unknown"
}

// Node is one template tree node. Which fields are meaningful depends on
// Kind; unused fields stay zero.
type Node struct {
	Kind NodeKind
	Span source.Span

	// Text: NodeText/NodeRaw literal content, NodeComment body.
	Text string

	// Name: directive name, option flag, attribute name, or conditional
	// comment condition. Args: raw directive arguments, or the opaque
	// expression body for NodeExpr.
	Name string
	Args string

	// Branches: NodeDirective render paths, in source order. A leaf
	// directive has none.
	Branches []*Branch

	// Element fields.
	Tag         string
	Atom        atom.Atom // 0 for unknown/namespaced tags
	Void        bool
	SelfClosing bool
	// OpenOnly marks an element whose close tag sits in another sibling
	// list; it serializes as the open tag alone and owns no children.
	OpenOnly bool
	// Open holds the open-tag interior: NodeAttr nodes, whitespace NodeText
	// separators, and NodeDirective nodes whose branches carry attribute
	// fragments (class="a" in one branch, class="b" in another).
	Open []*Node

	// Value: NodeAttr value fragments (text and expressions). A nil Value
	// with Bare set means the attribute was written without `=`. Quote is
	// the delimiter as written (`"`, `'`, or 0 for unquoted).
	Value []*Node
	Bare  bool
	Quote byte

	// Children: NodeRoot, NodeElement, NodeCondComment content.
	Children []*Node
}

// Branch is one mutually exclusive render path of a block directive.
// Keyword is the tag name as written: the directive name itself for the
// first branch, "elif"/"else"/"empty" for alternates.
type Branch struct {
	Keyword  string
	Args     string
	Span     source.Span
	Children []*Node
}

func NewRoot() *Node {
	return &Node{Kind: NodeRoot}
}

func NewText(span source.Span, text string) *Node {
	return &Node{Kind: NodeText, Span: span, Text: text}
}

func NewExpr(span source.Span, body string) *Node {
	return &Node{Kind: NodeExpr, Span: span, Args: body}
}

func NewRaw(span source.Span, text string) *Node {
	return &Node{Kind: NodeRaw, Span: span, Text: text}
}

func NewDirective(span source.Span, name, args string) *Node {
	return &Node{Kind: NodeDirective, Span: span, Name: name, Args: args}
}

func NewOption(span source.Span, flag, args string) *Node {
	return &Node{Kind: NodeOption, Span: span, Name: flag, Args: args}
}

func NewElement(span source.Span, tag string) *Node {
	return &Node{Kind: NodeElement, Span: span, Tag: tag, Atom: atom.Lookup([]byte(tag))}
}

func NewCloseTag(span source.Span, tag string) *Node {
	return &Node{Kind: NodeCloseTag, Span: span, Tag: tag, Atom: atom.Lookup([]byte(tag))}
}

func NewAttr(span source.Span, name string) *Node {
	return &Node{Kind: NodeAttr, Span: span, Name: name}
}

// IsBlock reports whether the directive node has branch structure.
func (n *Node) IsBlock() bool {
	return n.Kind == NodeDirective && len(n.Branches) > 0
}

// FoldToText rewrites the node in place into a literal text node, keeping
// its span. Used by constant folding and by passes that flatten structure.
func (n *Node) FoldToText(text string) {
	*n = Node{Kind: NodeText, Span: n.Span, Text: text}
}
