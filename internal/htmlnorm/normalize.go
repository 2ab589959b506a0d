// Package htmlnorm builds HTML structure on top of the directive tree.
// Elements whose open and close tags sit in the same sibling list are
// nested; tags that cross directive-branch boundaries stay as open-only and
// close-tag leaves, and a branch-aware stack automaton proves every pair
// reconciles. The passes in internal/optimize rely on the classification
// produced here.
package htmlnorm

import (
	"errors"
	"fmt"

	"tpp/internal/ast"
	"tpp/internal/diag"
	"tpp/internal/source"
)

// ErrStruct is wrapped by every fatal structural or HTML-lexical error.
var ErrStruct = errors.New("structural error")

type Options struct {
	// HTML enables structural processing. Off ("no-html" mode) leaves the
	// directive tree untouched: text stays text, nothing is tracked.
	HTML     bool
	Reporter diag.Reporter
}

// Normalize rewrites the tree in place. On error the tree is in an
// unspecified intermediate state and must be discarded.
func Normalize(root *ast.Node, opts Options) error {
	if !opts.HTML {
		return nil
	}
	nz := &normalizer{opts: opts}
	root.Children = nz.list(root.Children)
	if nz.err != nil {
		return nz.err
	}
	return balance(root, opts.Reporter)
}

type normalizer struct {
	opts Options
	err  error
}

// list runs the scan and nest phases over one sibling list. Directive
// branches are recursed into by the scanner.
func (nz *normalizer) list(nodes []*ast.Node) []*ast.Node {
	if nz.err != nil {
		return nodes
	}
	s := newScanner(nz)
	for _, n := range nodes {
		if nz.err != nil {
			return nodes
		}
		if n.Kind == ast.NodeText {
			s.text(n)
		} else {
			s.node(n)
		}
	}
	s.finish()
	if nz.err != nil {
		return nodes
	}
	return nz.nest(s.events)
}

func (nz *normalizer) fatal(code diag.Code, span source.Span, format string, args ...any) {
	if nz.err != nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if nz.opts.Reporter != nil {
		nz.opts.Reporter.Report(code, diag.SevError, span, msg, nil)
	}
	nz.err = fmt.Errorf("%w: %s", ErrStruct, msg)
}
