// Package optimize holds the semantics-preserving tree rewrites, composed
// in a fixed order: constant folding first (smaller, more literal tree),
// then whitespace compression, then script/style merging, then validation.
// Every pass threads the active option set in document order so an inline
// `{% !flag %}` override affects only nodes lexically after it.
package optimize

import (
	"errors"
	"fmt"

	"tpp/internal/ast"
	"tpp/internal/diag"
	"tpp/internal/directive"
	"tpp/internal/options"
	"tpp/internal/source"
)

// ErrOptimize is wrapped by every fatal pass error.
var ErrOptimize = errors.New("optimize error")

type Context struct {
	// Options is the unit's resolved option set; inline overrides are
	// applied on top of a copy during each pass.
	Options options.Set
	// Registry resolves pure directives; nil means directive.Default().
	Registry *directive.Registry
	Reporter diag.Reporter
}

func (ctx *Context) registry() *directive.Registry {
	if ctx.Registry != nil {
		return ctx.Registry
	}
	return directive.Default()
}

func (ctx *Context) fatal(code diag.Code, span source.Span, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if ctx.Reporter != nil {
		ctx.Reporter.Report(code, diag.SevError, span, msg, nil)
	}
	return fmt.Errorf("%w: %s", ErrOptimize, msg)
}

// Apply runs the full pass sequence over the tree.
func Apply(root *ast.Node, ctx *Context) error {
	if err := Fold(root, ctx); err != nil {
		return err
	}
	if err := Whitespace(root, ctx); err != nil {
		return err
	}
	if err := Merge(root, ctx); err != nil {
		return err
	}
	return Validate(root, ctx)
}

// activeOptions tracks the option set while walking in document order;
// NodeOption nodes mutate it for the remainder of the walk.
type activeOptions struct {
	set options.Set
}

func newActiveOptions(base options.Set) *activeOptions {
	return &activeOptions{set: base.Clone()}
}

// observe applies an inline override node. Unknown flags were rejected at
// parse of the manifest, but inline ones surface here.
func (a *activeOptions) observe(n *ast.Node, ctx *Context) error {
	if n.Kind != ast.NodeOption {
		return nil
	}
	if err := a.set.Apply(n.Name); err != nil {
		return ctx.fatal(diag.OptUnknownFlag, n.Span, "%v", err)
	}
	return nil
}
