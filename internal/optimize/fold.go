package optimize

import (
	"tpp/internal/ast"
	"tpp/internal/diag"
	"tpp/internal/directive"
)

// Fold replaces every pure directive that was written with fully literal
// arguments by its evaluated output. Evaluator failure on literal
// arguments is a template bug and fails the unit.
func Fold(root *ast.Node, ctx *Context) error {
	reg := ctx.registry()
	var err error
	ast.Walk(root, func(n *ast.Node) bool {
		if err != nil {
			return false
		}
		switch n.Kind {
		case ast.NodeRaw:
			return false
		case ast.NodeDirective:
			if n.IsBlock() {
				return true
			}
			entry, ok := reg.Lookup(n.Name)
			if !ok || entry.Purity != directive.Pure {
				return true
			}
			parse := entry.ArgParser
			if parse == nil {
				parse = directive.ParseLiteralArgs
			}
			args, literal := parse(n.Args)
			if !literal {
				// Runtime values involved; the directive stays.
				return true
			}
			out, evalErr := entry.Evaluator(args)
			if evalErr != nil {
				err = ctx.fatal(diag.FoldEvalFailed, n.Span,
					"pure directive {%% %s %%} failed on literal arguments: %v", n.Name, evalErr)
				return false
			}
			n.FoldToText(out)
		}
		return true
	})
	return err
}
