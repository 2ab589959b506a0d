package htmlnorm

import (
	"fmt"
	"strings"

	"tpp/internal/ast"
	"tpp/internal/diag"
	"tpp/internal/source"
)

// Phase three: prove that every open-only element pairs with exactly one
// close tag, across directive branches. The walk carries a stack of open
// tag names; entering a directive snapshots the stack per branch and every
// branch must leave it in the same shape.

type openTag struct {
	tag  string
	span source.Span
}

type balancer struct {
	rep diag.Reporter
	err error
}

func balance(root *ast.Node, rep diag.Reporter) error {
	b := &balancer{rep: rep}
	stack := b.walk(root.Children, nil)
	if b.err != nil {
		return b.err
	}
	for _, open := range stack {
		b.fatal(diag.StructUnclosedTag, open.span,
			"<%s> is never closed", open.tag)
	}
	return b.err
}

func (b *balancer) fatal(code diag.Code, span source.Span, format string, args ...any) {
	if b.err != nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if b.rep != nil {
		b.rep.Report(code, diag.SevError, span, msg, nil)
	}
	b.err = fmt.Errorf("%w: %s", ErrStruct, msg)
}

func (b *balancer) walk(nodes []*ast.Node, stack []openTag) []openTag {
	for _, n := range nodes {
		if b.err != nil {
			return stack
		}
		switch n.Kind {
		case ast.NodeElement:
			if n.OpenOnly {
				stack = append(stack, openTag{tag: n.Tag, span: n.Span})
				continue
			}
			// A nested element is locally balanced; its children may still
			// open or close outer tags through branches.
			stack = b.walk(n.Children, stack)

		case ast.NodeCloseTag:
			if len(stack) == 0 {
				b.fatal(diag.StructUnmatchedClose, n.Span,
					"</%s> has no matching open tag", n.Tag)
				return stack
			}
			top := stack[len(stack)-1]
			if top.tag != n.Tag {
				b.fatal(diag.StructUnmatchedClose, n.Span,
					"</%s> closes <%s> opened here", n.Tag, top.tag)
				return stack
			}
			stack = stack[:len(stack)-1]

		case ast.NodeCondComment:
			stack = b.walk(n.Children, stack)

		case ast.NodeDirective:
			if !n.IsBlock() {
				continue
			}
			stack = b.branches(n, stack)
		}
	}
	return stack
}

// branches runs every branch on its own copy of the entry stack and
// requires all exits to agree.
func (b *balancer) branches(n *ast.Node, entry []openTag) []openTag {
	var exit []openTag
	for i, br := range n.Branches {
		snapshot := make([]openTag, len(entry))
		copy(snapshot, entry)
		result := b.walk(br.Children, snapshot)
		if b.err != nil {
			return entry
		}
		if i == 0 {
			exit = result
			continue
		}
		if !sameShape(exit, result) {
			b.fatal(diag.StructBranchDiverges, br.Span,
				"{%% %s %%} branch leaves open tags [%s], previous branches leave [%s]",
				br.Keyword, shapeString(result), shapeString(exit))
			return entry
		}
	}
	// A directive with a single render path must also cover the "render
	// nothing" path unless its family always renders (else present, or the
	// directive body is unconditional). Treating every block directive as
	// possibly skipped matches the original: a tag opened under {% if %}
	// without an else must be closed in the same branch.
	if !alwaysRenders(n) && !sameShape(exit, entry) {
		b.fatal(diag.StructBranchDiverges, n.Span,
			"{%% %s %%} may render nothing but its body leaves open tags [%s]",
			n.Name, shapeString(exit))
		return entry
	}
	return exit
}

// alwaysRenders reports whether one of the directive's branches is
// guaranteed to run (an else/empty fallback is present, or the construct is
// a plain wrapper like block/with/spaceless).
func alwaysRenders(n *ast.Node) bool {
	switch n.Name {
	case "if", "ifchanged":
		for _, br := range n.Branches {
			if br.Keyword == "else" {
				return true
			}
		}
		return false
	case "for":
		for _, br := range n.Branches {
			if br.Keyword == "empty" {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func sameShape(a, b []openTag) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].tag != b[i].tag {
			return false
		}
	}
	return true
}

func shapeString(stack []openTag) string {
	tags := make([]string, len(stack))
	for i, open := range stack {
		tags[i] = open.tag
	}
	return strings.Join(tags, " ")
}
