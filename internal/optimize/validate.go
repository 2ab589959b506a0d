package optimize

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"tpp/internal/ast"
	"tpp/internal/diag"
	"tpp/internal/htmlnorm"
	"tpp/internal/options"
)

// Validate checks the normalized tree against the HTML tag and attribute
// tables. Findings with error severity fail the unit; enabling
// relax-html-validation downgrades them all to warnings. Raw regions and
// conditional comments are exempt, the latter because they deliberately
// carry markup for engines with different rules.
func Validate(root *ast.Node, ctx *Context) error {
	act := newActiveOptions(ctx.Options)
	v := &validator{ctx: ctx, act: act}
	v.walk(root, false)
	return v.err
}

type validator struct {
	ctx *Context
	act *activeOptions
	err error
}

// report emits one finding, downgrading to a warning when relaxed. The
// first error-severity finding makes the pass fail.
func (v *validator) report(code diag.Code, sev diag.Severity, n *ast.Node, format string, args ...any) {
	if v.act.set.Enabled(options.FlagRelaxHTMLValidation) {
		sev = diag.SevWarning
	}
	if sev < diag.SevError {
		if v.ctx.Reporter != nil {
			diag.ReportWarning(v.ctx.Reporter, code, n.Span, fmt.Sprintf(format, args...))
		}
		return
	}
	if v.err == nil {
		v.err = v.ctx.fatal(code, n.Span, format, args...)
	}
}

func (v *validator) walk(n *ast.Node, inInline bool) {
	if v.err != nil {
		return
	}
	if err := v.act.observe(n, v.ctx); err != nil {
		v.err = err
		return
	}
	switch n.Kind {
	case ast.NodeRaw, ast.NodeCondComment:
		return
	case ast.NodeElement:
		if v.validating() {
			v.element(n, inInline)
		}
		childInline := inInline
		if htmlnorm.IsInlineLevel(n.Tag) && !htmlnorm.IsInlineBlock(n.Tag) {
			childInline = true
		} else if htmlnorm.IsBlockLevel(n.Tag) {
			childInline = false
		}
		for _, child := range n.Children {
			v.walk(child, childInline)
		}
		return
	case ast.NodeDirective:
		for _, br := range n.Branches {
			for _, child := range br.Children {
				v.walk(child, inInline)
			}
		}
		return
	}
	for _, child := range n.Children {
		v.walk(child, inInline)
	}
}

func (v *validator) validating() bool {
	return v.act.set.Enabled(options.FlagHTML) && v.act.set.Enabled(options.FlagValidateHTML)
}

func (v *validator) element(el *ast.Node, inInline bool) {
	tag := strings.ToLower(el.Tag)

	if !htmlnorm.IsKnownTag(tag) {
		if !v.act.set.Enabled(options.FlagParseAllHTMLTags) {
			v.report(diag.ValUnknownTag, diag.SevError, el, "unknown tag <%s>", el.Tag)
		}
	} else if htmlnorm.IsDeprecatedTag(tag) {
		v.report(diag.ValDeprecatedTag, diag.SevWarning, el, "<%s> is deprecated", el.Tag)
	}

	if inInline && htmlnorm.IsBlockLevel(tag) {
		v.report(diag.StructBlockInInline, diag.SevError, el,
			"block-level <%s> inside inline content", el.Tag)
	}

	v.attributes(el, tag)
	v.langAttr(el)

	switch tag {
	case "script":
		v.literalAttr(el, "type", "text/javascript", diag.ValScriptType)
	case "style":
		v.literalAttr(el, "type", "text/css", diag.ValStyleType)
	case "a":
		v.anchor(el)
		if v.act.set.Enabled(options.FlagCheckAltAndTitleAttrs) && !hasAttr(el, "title") {
			v.report(diag.ValMissingTitle, diag.SevWarning, el, "<a> without title attribute")
		}
	case "img":
		if v.act.set.Enabled(options.FlagCheckAltAndTitleAttrs) && !hasAttr(el, "alt") {
			v.report(diag.ValMissingAlt, diag.SevWarning, el, "<img> without alt attribute")
		}
	}
}

// attributes checks names against the per-tag table and flags duplicates.
// Branch attribute variants are validated by name but kept out of the
// duplicate check, since only one branch renders.
func (v *validator) attributes(el *ast.Node, tag string) {
	seen := make(map[string]bool, len(el.Open))
	for _, part := range el.Open {
		switch part.Kind {
		case ast.NodeAttr:
			name := strings.ToLower(part.Name)
			if seen[name] {
				v.report(diag.ValDuplicateAttribute, diag.SevError, part,
					"duplicate attribute %q on <%s>", part.Name, el.Tag)
			}
			seen[name] = true
			v.attrName(part, tag, el.Tag)
		case ast.NodeDirective:
			for _, br := range part.Branches {
				for _, frag := range br.Children {
					if frag.Kind == ast.NodeAttr {
						v.attrName(frag, tag, el.Tag)
					}
				}
			}
		}
	}
}

func (v *validator) attrName(attr *ast.Node, tag, display string) {
	if htmlnorm.IsKnownTag(tag) && !htmlnorm.ValidAttribute(tag, attr.Name) {
		v.report(diag.ValInvalidAttribute, diag.SevError, attr,
			"attribute %q is not valid on <%s>", attr.Name, display)
	}
}

// literalAttr checks an attribute only when its value is fully literal;
// values with template expressions are taken on faith.
func (v *validator) literalAttr(el *ast.Node, name, want string, code diag.Code) {
	attr, ok := findAttr(el, name)
	if !ok || attr.Bare {
		return
	}
	val, literal := literalValue(attr)
	if !literal {
		return
	}
	if !strings.EqualFold(strings.TrimSpace(val), want) {
		v.report(code, diag.SevWarning, attr, "<%s> type should be %q, got %q", el.Tag, want, val)
	}
}

// langAttr checks that a literal lang value is a well-formed BCP 47 tag.
func (v *validator) langAttr(el *ast.Node) {
	attr, ok := findAttr(el, "lang")
	if !ok || attr.Bare {
		return
	}
	val, literal := literalValue(attr)
	if !literal || strings.TrimSpace(val) == "" {
		return
	}
	if _, err := language.Parse(strings.TrimSpace(val)); err != nil {
		v.report(diag.ValInvalidAttribute, diag.SevWarning, attr,
			"lang=%q is not a valid language tag", val)
	}
}

func (v *validator) anchor(el *ast.Node) {
	attr, ok := findAttr(el, "href")
	if !ok {
		if !hasAttr(el, "name") && !hasAttr(el, "id") {
			v.report(diag.ValMissingHref, diag.SevWarning, el, "<a> without href")
		}
		return
	}
	if val, literal := literalValue(attr); literal {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(val)), "javascript:") {
			v.report(diag.ValJavascriptHref, diag.SevError, attr,
				"javascript: href; bind the handler from a script instead")
		}
	}
}

func findAttr(el *ast.Node, name string) (*ast.Node, bool) {
	for _, part := range el.Open {
		if part.Kind == ast.NodeAttr && strings.EqualFold(part.Name, name) {
			return part, true
		}
	}
	return nil, false
}

func hasAttr(el *ast.Node, name string) bool {
	_, ok := findAttr(el, name)
	return ok
}

// literalValue concatenates the value's text fragments; ok is false when
// any fragment is an expression or directive.
func literalValue(attr *ast.Node) (string, bool) {
	var sb strings.Builder
	for _, frag := range attr.Value {
		if frag.Kind != ast.NodeText {
			return "", false
		}
		sb.WriteString(frag.Text)
	}
	return sb.String(), true
}
