package optimize

import (
	"strings"

	"tpp/internal/ast"
	"tpp/internal/minify"
	"tpp/internal/options"
)

// Merge gathers qualifying embedded <script> and <style> elements in
// document order, concatenates their content into the first one, and
// minifies the combined content. Elements with a src/data-no-merge escape
// and everything inside conditional comments stay where they are.
func Merge(root *ast.Node, ctx *Context) error {
	act := newActiveOptions(ctx.Options)
	m := &mergePass{ctx: ctx, act: act}

	m.collect(root)
	if m.err != nil {
		return m.err
	}

	removed := make(map[*ast.Node]bool)
	m.mergeKind(m.scripts, removed)
	m.mergeKind(m.styles, removed)
	if len(removed) > 0 {
		prune(root, removed)
	}

	for _, el := range m.scripts {
		if el.minify && !el.removed {
			minifyContent(el.node, minify.JS)
		}
	}
	for _, el := range m.styles {
		if el.minify && !el.removed {
			minifyContent(el.node, minify.CSS)
		}
	}
	return m.err
}

// mergeTarget captures the flag state where the element appears, so an
// inline override only governs elements lexically after it.
type mergeTarget struct {
	node    *ast.Node
	merge   bool
	minify  bool
	removed bool
}

type mergePass struct {
	ctx     *Context
	act     *activeOptions
	scripts []*mergeTarget
	styles  []*mergeTarget
	err     error
}

// collect walks in document order, honoring inline option overrides and
// skipping conditional comments and raw regions.
func (m *mergePass) collect(root *ast.Node) {
	ast.Walk(root, func(n *ast.Node) bool {
		if m.err != nil {
			return false
		}
		if err := m.act.observe(n, m.ctx); err != nil {
			m.err = err
			return false
		}
		switch n.Kind {
		case ast.NodeRaw, ast.NodeCondComment:
			return false
		case ast.NodeElement:
			if n.OpenOnly {
				return true
			}
			switch n.Tag {
			case "script":
				if mergeable(n) {
					m.scripts = append(m.scripts, &mergeTarget{
						node:   n,
						merge:  m.act.set.Enabled(options.FlagMergeInternalJS),
						minify: m.act.set.Enabled(options.FlagCompileJS),
					})
				}
				return false
			case "style":
				if mergeable(n) {
					m.styles = append(m.styles, &mergeTarget{
						node:   n,
						merge:  m.act.set.Enabled(options.FlagMergeInternalCSS),
						minify: m.act.set.Enabled(options.FlagCompileCSS),
					})
				}
				return false
			}
		}
		return true
	})
}

// mergeable excludes external references and explicitly escaped elements.
func mergeable(el *ast.Node) bool {
	for _, part := range el.Open {
		if part.Kind != ast.NodeAttr {
			continue
		}
		switch part.Name {
		case "src", "data-no-merge":
			return false
		}
	}
	return true
}

// mergeKind concatenates the merge-enabled targets' children into the
// first of them, in document order, and marks the rest for pruning.
// Targets collected under a no-merge override stay in place.
func (m *mergePass) mergeKind(targets []*mergeTarget, removed map[*ast.Node]bool) {
	var first *mergeTarget
	for _, t := range targets {
		if !t.merge {
			continue
		}
		if first == nil {
			first = t
			continue
		}
		content := t.node.Children
		if needsSeparator(first.node.Children, content) {
			first.node.Children = append(first.node.Children, separatorFor(first.node.Tag))
		}
		first.node.Children = append(first.node.Children, content...)
		t.removed = true
		removed[t.node] = true
	}
}

// needsSeparator guards against the last statement of one block running
// into the first of the next.
func needsSeparator(head, tail []*ast.Node) bool {
	if len(head) == 0 || len(tail) == 0 {
		return false
	}
	last := head[len(head)-1]
	if last.Kind == ast.NodeText && strings.HasSuffix(strings.TrimRight(last.Text, " \t\n\r"), ";") {
		return false
	}
	return true
}

func separatorFor(tag string) *ast.Node {
	sep := "\n"
	if tag == "script" {
		sep = ";\n"
	}
	return &ast.Node{Kind: ast.NodeText, Text: sep}
}

// prune removes merged-away elements from every child list in the tree.
func prune(root *ast.Node, removed map[*ast.Node]bool) {
	ast.Walk(root, func(n *ast.Node) bool {
		ast.EachChildList(n, func(children []*ast.Node) []*ast.Node {
			out := children[:0]
			for _, c := range children {
				if removed[c] {
					continue
				}
				out = append(out, c)
			}
			return out
		})
		return true
	})
}

// minifyContent compresses the element's literal fragments, leaving
// interleaved directives and expressions untouched.
func minifyContent(el *ast.Node, fn func(string) string) {
	for _, child := range el.Children {
		if child.Kind == ast.NodeText {
			child.Text = fn(child.Text)
		}
	}
}
