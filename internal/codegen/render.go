package codegen

import (
	"strings"

	"tpp/internal/ast"
	"tpp/internal/source"
)

// writer serializes the tree depth-first. It trusts the invariants the
// earlier phases enforced and never re-validates structure.
type writer struct {
	out strings.Builder

	// mark, when non-nil, is called around each node carrying a source
	// span; the generator uses it to interleave debug markers.
	mark func(w *writer, span source.Span, body func())
}

func (w *writer) node(n *ast.Node) {
	if w.mark != nil && !n.Span.Empty() && marked(n.Kind) {
		w.mark(w, n.Span, func() { w.emit(n) })
		return
	}
	w.emit(n)
}

// marked selects the kinds that get their own debug region. Attributes
// and open-tag interiors resolve through their element's region.
func marked(k ast.NodeKind) bool {
	switch k {
	case ast.NodeText, ast.NodeExpr, ast.NodeRaw, ast.NodeDirective,
		ast.NodeElement, ast.NodeCondComment, ast.NodeCloseTag:
		return true
	}
	return false
}

func (w *writer) emit(n *ast.Node) {
	switch n.Kind {
	case ast.NodeRoot:
		w.list(n.Children)
	case ast.NodeText:
		w.out.WriteString(n.Text)
	case ast.NodeExpr:
		w.out.WriteString("{{ ")
		w.out.WriteString(n.Args)
		w.out.WriteString(" }}")
	case ast.NodeRaw:
		w.out.WriteString("{% !raw %}")
		w.out.WriteString(n.Text)
		w.out.WriteString("{% !endraw %}")
	case ast.NodeOption:
		w.out.WriteString("{% !")
		w.out.WriteString(n.Name)
		w.out.WriteString(" %}")
	case ast.NodeDirective:
		w.directive(n)
	case ast.NodeElement:
		w.element(n)
	case ast.NodeAttr:
		w.attr(n)
	case ast.NodeComment:
		w.out.WriteString("<!--")
		w.out.WriteString(n.Text)
		w.out.WriteString("-->")
	case ast.NodeCondComment:
		w.out.WriteString(n.Text)
		w.list(n.Children)
		w.out.WriteString(n.Args)
	case ast.NodeCloseTag:
		w.out.WriteString("</")
		w.out.WriteString(n.Tag)
		w.out.WriteByte('>')
	}
}

func (w *writer) list(nodes []*ast.Node) {
	for _, n := range nodes {
		w.node(n)
	}
}

func (w *writer) directive(n *ast.Node) {
	if !n.IsBlock() {
		w.tag(n.Name, n.Args)
		return
	}
	for _, br := range n.Branches {
		w.tag(br.Keyword, br.Args)
		w.list(br.Children)
	}
	w.tag("end"+n.Name, "")
}

func (w *writer) tag(name, args string) {
	w.out.WriteString("{% ")
	w.out.WriteString(name)
	if args != "" {
		w.out.WriteByte(' ')
		w.out.WriteString(args)
	}
	w.out.WriteString(" %}")
}

func (w *writer) element(n *ast.Node) {
	w.out.WriteByte('<')
	w.out.WriteString(n.Tag)
	w.openParts(n.Open)
	if n.SelfClosing {
		w.out.WriteString("/>")
		return
	}
	w.out.WriteByte('>')
	if n.Void || n.OpenOnly {
		return
	}
	w.list(n.Children)
	w.out.WriteString("</")
	w.out.WriteString(n.Tag)
	w.out.WriteByte('>')
}

// openParts regenerates the open-tag interior with canonical single-space
// separators. Whitespace text nodes from the source are dropped; anything
// else keeps its shape.
func (w *writer) openParts(parts []*ast.Node) {
	for _, part := range parts {
		if part.Kind == ast.NodeText && strings.TrimSpace(part.Text) == "" {
			continue
		}
		w.out.WriteByte(' ')
		w.openPart(part)
	}
}

func (w *writer) openPart(part *ast.Node) {
	if part.Kind != ast.NodeDirective || !part.IsBlock() {
		w.emit(part)
		return
	}
	// A branch directive in the open tag carries attribute fragments per
	// branch; spaces go between the tags and the fragments.
	for i, br := range part.Branches {
		if i > 0 {
			w.out.WriteByte(' ')
		}
		w.tag(br.Keyword, br.Args)
		for _, frag := range br.Children {
			if frag.Kind == ast.NodeText && strings.TrimSpace(frag.Text) == "" {
				continue
			}
			w.out.WriteByte(' ')
			w.openPart(frag)
		}
	}
	w.out.WriteByte(' ')
	w.tag("end"+part.Name, "")
}

func (w *writer) attr(n *ast.Node) {
	w.out.WriteString(n.Name)
	if n.Bare {
		return
	}
	w.out.WriteByte('=')
	if n.Quote != 0 {
		w.out.WriteByte(n.Quote)
	}
	for _, frag := range n.Value {
		w.emit(frag)
	}
	if n.Quote != 0 {
		w.out.WriteByte(n.Quote)
	}
}

// Render serializes the tree without debug markers.
func Render(root *ast.Node) string {
	w := &writer{}
	w.node(root)
	return w.out.String()
}
