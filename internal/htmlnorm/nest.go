package htmlnorm

import (
	"tpp/internal/ast"
	"tpp/internal/diag"
)

// Phase two: nest open/close pairs that live in the same sibling list.
// A close with no local open becomes a NodeCloseTag leaf; an open left on
// the stack at list end becomes an open-only element with its accumulated
// content flattened after it. The balance automaton settles both cases.

type nestFrame struct {
	node     *ast.Node
	children []*ast.Node
}

func (nz *normalizer) nest(events []event) []*ast.Node {
	var out []*ast.Node
	var stack []nestFrame

	appendNode := func(n *ast.Node) {
		if len(stack) > 0 {
			top := &stack[len(stack)-1]
			top.children = append(top.children, n)
		} else {
			out = append(out, n)
		}
	}

	for _, ev := range events {
		if nz.err != nil {
			return out
		}
		switch ev.kind {
		case evNode:
			appendNode(ev.node)

		case evOpen, evCondOpen:
			stack = append(stack, nestFrame{node: ev.node})

		case evClose:
			// Find the matching local open.
			match := -1
			for idx := len(stack) - 1; idx >= 0; idx-- {
				if stack[idx].node.Kind == ast.NodeElement && stack[idx].node.Tag == ev.tag {
					match = idx
					break
				}
			}
			if match < 0 {
				// Opened in an enclosing list or a sibling branch.
				appendNode(ast.NewCloseTag(ev.span, ev.tag))
				continue
			}
			// Anything still open above the match was never closed.
			for idx := len(stack) - 1; idx > match; idx-- {
				nz.fatal(diag.StructUnclosedTag, stack[idx].node.Span,
					"<%s> is closed by </%s> before its own close tag", stack[idx].node.Tag, ev.tag)
				return out
			}
			frame := stack[match]
			stack = stack[:match]
			el := frame.node
			el.Children = frame.children
			el.Span = el.Span.Cover(ev.span)
			appendNode(el)

		case evCondClose:
			if len(stack) == 0 || stack[len(stack)-1].node.Kind != ast.NodeCondComment {
				nz.fatal(diag.StructUnmatchedClose, ev.span,
					"conditional comment close without matching open")
				return out
			}
			frame := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			cc := frame.node
			cc.Children = frame.children
			cc.Span = cc.Span.Cover(ev.span)
			// Args keeps the close text for byte-faithful output.
			cc.Args = ev.tag
			appendNode(cc)
		}
	}

	// Remaining opens may be closed outside this list: flatten them into
	// open-only leaves followed by their content.
	for idx := len(stack) - 1; idx >= 0; idx-- {
		frame := stack[idx]
		if frame.node.Kind == ast.NodeCondComment {
			nz.fatal(diag.LexUnterminatedHTML, frame.node.Span,
				"conditional comment is never closed in its scope")
			return out
		}
		frame.node.OpenOnly = true
		flat := append([]*ast.Node{frame.node}, frame.children...)
		if idx > 0 {
			below := &stack[idx-1]
			below.children = append(below.children, flat...)
		} else {
			out = append(out, flat...)
		}
	}
	return out
}
