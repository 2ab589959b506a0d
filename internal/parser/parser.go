// Package parser builds the directive tree from the token stream. Branch
// and end keywords are supplied by the directive registry, so externally
// registered block directives parse exactly like built-ins.
package parser

import (
	"errors"
	"fmt"

	"tpp/internal/ast"
	"tpp/internal/diag"
	"tpp/internal/directive"
	"tpp/internal/source"
	"tpp/internal/token"
)

// ErrParse is wrapped by every fatal grammar error.
var ErrParse = errors.New("parse error")

type Options struct {
	// Registry resolves block/branch keywords; nil means directive.Default().
	Registry *directive.Registry
	Reporter diag.Reporter
}

// Parser holds the cursor state for one token stream.
type Parser struct {
	tokens []token.Token
	pos    int
	reg    *directive.Registry
	opts   Options
}

// Parse consumes the full token stream and returns the root node. Grammar
// errors are fatal: the first one is reported and returned.
func Parse(tokens []token.Token, opts Options) (*ast.Node, error) {
	reg := opts.Registry
	if reg == nil {
		reg = directive.Default()
	}
	p := &Parser{tokens: tokens, reg: reg, opts: opts}
	root := ast.NewRoot()
	children, err := p.parseChildren(nil)
	if err != nil {
		return nil, err
	}
	root.Children = children
	if len(tokens) > 0 {
		root.Span = tokens[0].Span.Cover(tokens[len(tokens)-1].Span)
	}
	return root, nil
}

// blockCtx tracks the enclosing block directive while parsing its body.
type blockCtx struct {
	open  token.Token
	entry *directive.Entry
}

func (c *blockCtx) acceptsBranch(keyword string) bool {
	for _, kw := range c.entry.BranchKeywords {
		if kw == keyword {
			return true
		}
	}
	return false
}

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) bump() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// parseChildren builds sibling nodes until EOF (top level) or until the
// enclosing block's branch/end tag, which is left for the caller.
func (p *Parser) parseChildren(ctx *blockCtx) ([]*ast.Node, error) {
	var children []*ast.Node
	for {
		tok := p.peek()
		switch tok.Kind {
		case token.EOF:
			if ctx != nil {
				return nil, p.fatal(diag.ParseUnmatchedOpen, ctx.open.Span,
					fmt.Sprintf("{%% %s %%} is never closed, expected {%% end%s %%}", ctx.open.Name, ctx.open.Name))
			}
			return children, nil

		case token.Text:
			p.bump()
			if tok.Text != "" {
				children = append(children, ast.NewText(tok.Span, tok.Text))
			}

		case token.Expression:
			p.bump()
			children = append(children, ast.NewExpr(tok.Span, tok.Args))

		case token.Comment:
			// Template comments never reach the tree.
			p.bump()

		case token.Option:
			p.bump()
			children = append(children, ast.NewOption(tok.Span, tok.Name, tok.Args))

		case token.RawBegin:
			node, err := p.parseRaw()
			if err != nil {
				return nil, err
			}
			children = append(children, node)

		case token.DirectiveEnd:
			if ctx != nil && tok.Name == ctx.open.Name {
				return children, nil
			}
			if ctx != nil {
				return nil, p.fatal(diag.ParseUnexpectedEndName, tok.Span,
					fmt.Sprintf("unexpected {%% end%s %%}, expected {%% end%s %%} for the {%% %s %%} open here", tok.Name, ctx.open.Name, ctx.open.Name))
			}
			return nil, p.fatal(diag.ParseUnexpectedClose, tok.Span,
				fmt.Sprintf("{%% end%s %%} without matching {%% %s %%}", tok.Name, tok.Name))

		case token.Directive:
			if p.reg.IsBranchKeyword(tok.Name) {
				if ctx != nil && ctx.acceptsBranch(tok.Name) {
					return children, nil
				}
				return nil, p.fatal(diag.ParseStrayBranch, tok.Span,
					fmt.Sprintf("{%% %s %%} outside a directive that accepts it", tok.Name))
			}
			node, err := p.parseDirective()
			if err != nil {
				return nil, err
			}
			children = append(children, node)

		default:
			return nil, p.fatal(diag.ParseInfo, tok.Span,
				fmt.Sprintf("unexpected %s token", tok.Kind))
		}
	}
}

// parseDirective handles a `{% name args %}` tag: a registered block entry
// opens a body with branches, everything else is a leaf.
func (p *Parser) parseDirective() (*ast.Node, error) {
	open := p.bump()
	node := ast.NewDirective(open.Span, open.Name, open.Args)

	entry, known := p.reg.Lookup(open.Name)
	if !known || !entry.Block {
		return node, nil
	}

	ctx := &blockCtx{open: open, entry: entry}
	branch := &ast.Branch{Keyword: open.Name, Args: open.Args, Span: open.Span}
	for {
		children, err := p.parseChildren(ctx)
		if err != nil {
			return nil, err
		}
		branch.Children = children
		node.Branches = append(node.Branches, branch)

		tok := p.bump()
		if tok.Kind == token.DirectiveEnd {
			node.Span = open.Span.Cover(tok.Span)
			return node, nil
		}
		// Alternate branch tag.
		branch = &ast.Branch{Keyword: tok.Name, Args: tok.Args, Span: tok.Span}
	}
}

// parseRaw folds the RawBegin/RawText/RawEnd triple the lexer guarantees
// into one opaque node.
func (p *Parser) parseRaw() (*ast.Node, error) {
	begin := p.bump()
	var text string
	span := begin.Span
	if p.peek().Kind == token.RawText {
		tok := p.bump()
		text = tok.Text
	}
	end := p.bump()
	if end.Kind != token.RawEnd {
		return nil, p.fatal(diag.ParseInfo, begin.Span, "raw region without end marker in token stream")
	}
	return ast.NewRaw(span.Cover(end.Span), text), nil
}

func (p *Parser) fatal(code diag.Code, span source.Span, msg string) error {
	if p.opts.Reporter != nil {
		p.opts.Reporter.Report(code, diag.SevError, span, msg, nil)
	}
	return fmt.Errorf("%w: %s", ErrParse, msg)
}
