package optimize

import (
	"strings"

	"tpp/internal/ast"
	"tpp/internal/htmlnorm"
	"tpp/internal/options"
)

// Whitespace is the cleanup pass: HTML comments out, adjacent text merged,
// whitespace runs collapsed to one space, and whitespace dropped entirely
// next to block-level boundaries. Preformatted elements (pre, textarea,
// script, style) and raw regions keep every byte.
func Whitespace(root *ast.Node, ctx *Context) error {
	act := newActiveOptions(ctx.Options)
	w := &wsPass{ctx: ctx, act: act}
	root.Children = w.list(root.Children, wsScope{blockParent: true})
	return w.err
}

type wsScope struct {
	blockParent bool // whitespace at the list edges is insignificant
	pre         bool // inside a preformatted element
}

type wsPass struct {
	ctx *Context
	act *activeOptions
	err error
}

func (w *wsPass) list(nodes []*ast.Node, scope wsScope) []*ast.Node {
	if w.err != nil {
		return nodes
	}

	// Drop comments and merge adjacent text so a folded directive between
	// two text nodes does not stop their whitespace from collapsing.
	nodes = dropComments(nodes)
	nodes = mergeAdjacentText(nodes)

	out := nodes[:0]
	for _, n := range nodes {
		if w.err != nil {
			return nodes
		}
		if err := w.act.observe(n, w.ctx); err != nil {
			w.err = err
			return nodes
		}
		switch n.Kind {
		case ast.NodeText:
			if w.compressing(scope) {
				n.Text = collapseRuns(n.Text)
			}
		case ast.NodeElement:
			w.cleanAttributes(n)
			child := wsScope{
				blockParent: htmlnorm.IsBlockLevel(n.Tag),
				pre:         scope.pre || htmlnorm.IsPreformatted(n.Tag),
			}
			n.Children = w.list(n.Children, child)
		case ast.NodeCondComment:
			n.Children = w.list(n.Children, scope)
		case ast.NodeDirective:
			for _, br := range n.Branches {
				br.Children = w.list(br.Children, scope)
			}
		}
		out = append(out, n)
	}

	if w.compressing(scope) {
		out = trimBlockEdges(out, scope)
	}
	return out
}

func (w *wsPass) compressing(scope wsScope) bool {
	return !scope.pre && w.act.set.Enabled(options.FlagWhitespaceCompression)
}

// cleanAttributes drops empty class attributes when configured.
func (w *wsPass) cleanAttributes(el *ast.Node) {
	if !w.act.set.Enabled(options.FlagRemoveEmptyClassAttrs) {
		return
	}
	kept := el.Open[:0]
	for _, part := range el.Open {
		if part.Kind == ast.NodeAttr && part.Name == "class" && attrValueEmpty(part) {
			continue
		}
		kept = append(kept, part)
	}
	el.Open = kept
}

func attrValueEmpty(attr *ast.Node) bool {
	if attr.Bare {
		return false
	}
	for _, frag := range attr.Value {
		if frag.Kind != ast.NodeText || frag.Text != "" {
			return false
		}
	}
	return true
}

func dropComments(nodes []*ast.Node) []*ast.Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n.Kind == ast.NodeComment {
			continue
		}
		out = append(out, n)
	}
	return out
}

func mergeAdjacentText(nodes []*ast.Node) []*ast.Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n.Kind == ast.NodeText && len(out) > 0 {
			last := out[len(out)-1]
			if last.Kind == ast.NodeText {
				last.Text += n.Text
				last.Span = last.Span.Cover(n.Span)
				continue
			}
		}
		out = append(out, n)
	}
	return out
}

func collapseRuns(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	inRun := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			inRun = true
			continue
		}
		if inRun {
			sb.WriteByte(' ')
			inRun = false
		}
		sb.WriteByte(c)
	}
	if inRun {
		sb.WriteByte(' ')
	}
	return sb.String()
}

// trimBlockEdges removes the single spaces left over next to block-level
// boundaries: the edges of a block-level parent and both sides of
// block-level siblings.
func trimBlockEdges(nodes []*ast.Node, scope wsScope) []*ast.Node {
	isBlockNode := func(n *ast.Node) bool {
		switch n.Kind {
		case ast.NodeElement, ast.NodeCloseTag:
			return htmlnorm.IsBlockLevel(n.Tag)
		}
		return false
	}

	out := nodes[:0]
	for i, n := range nodes {
		if n.Kind != ast.NodeText {
			out = append(out, n)
			continue
		}
		left := i == 0 && scope.blockParent
		if i > 0 && isBlockNode(nodes[i-1]) {
			left = true
		}
		right := i == len(nodes)-1 && scope.blockParent
		if i < len(nodes)-1 && isBlockNode(nodes[i+1]) {
			right = true
		}
		if left {
			n.Text = strings.TrimLeft(n.Text, " ")
		}
		if right {
			n.Text = strings.TrimRight(n.Text, " ")
		}
		if n.Text == "" {
			continue
		}
		out = append(out, n)
	}
	return out
}
