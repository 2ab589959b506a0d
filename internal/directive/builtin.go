package directive

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// newBuiltinRegistry builds the table of directives every compile
// understands: the standard block families plus the pure leaf directives
// eligible for compile-time folding.
func newBuiltinRegistry() *Registry {
	r := NewRegistry()

	// Block families with alternate branches.
	r.MustRegister(Entry{Name: "if", Block: true, BranchKeywords: []string{"elif", "else"}})
	r.MustRegister(Entry{Name: "for", Block: true, BranchKeywords: []string{"empty"}})
	r.MustRegister(Entry{Name: "ifchanged", Block: true, BranchKeywords: []string{"else"}})

	// Plain open/end blocks.
	for _, name := range []string{
		"block", "with", "comment", "filter", "spaceless", "autoescape",
		"blocktrans", "verbatim",
	} {
		r.MustRegister(Entry{Name: name, Block: true})
	}

	// Context-dependent leaves: pass through untouched.
	for _, name := range []string{
		"extends", "include", "load", "url", "csrf_token", "now", "cycle",
		"trans",
	} {
		r.MustRegister(Entry{Name: name})
	}

	// Pure leaves: foldable when all arguments are literal.
	r.MustRegister(Entry{Name: "templatetag", Purity: Pure, Evaluator: evalTemplateTag, ArgParser: parseTemplateTagArgs})
	r.MustRegister(Entry{Name: "widthratio", Purity: Pure, Evaluator: evalWidthRatio})
	r.MustRegister(Entry{Name: "firstof", Purity: Pure, Evaluator: evalFirstOf})

	return r
}

var templateTagOutput = map[string]string{
	"openblock":     "{%",
	"closeblock":    "%}",
	"openvariable":  "{{",
	"closevariable": "}}",
	"openbrace":     "{",
	"closebrace":    "}",
	"opencomment":   "{#",
	"closecomment":  "#}",
}

// parseTemplateTagArgs accepts the single bare keyword grammar of
// templatetag: the argument is literal by construction.
func parseTemplateTagArgs(raw string) ([]string, bool) {
	fields := splitArgs(raw)
	return fields, len(fields) == 1 && templateTagOutput[fields[0]] != ""
}

func evalTemplateTag(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("templatetag takes exactly one argument, got %d", len(args))
	}
	out, ok := templateTagOutput[args[0]]
	if !ok {
		return "", fmt.Errorf("templatetag: unknown tag name %q", args[0])
	}
	return out, nil
}

func evalWidthRatio(args []string) (string, error) {
	if len(args) != 3 {
		return "", fmt.Errorf("widthratio takes exactly three arguments, got %d", len(args))
	}
	nums := make([]float64, 3)
	for i, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return "", fmt.Errorf("widthratio: argument %d is not a number: %q", i+1, arg)
		}
		nums[i] = v
	}
	if nums[1] == 0 {
		return "0", nil
	}
	ratio := nums[0] / nums[1] * nums[2]
	return strconv.FormatInt(int64(math.Round(ratio)), 10), nil
}

func evalFirstOf(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("firstof takes at least one argument")
	}
	for _, arg := range args {
		if arg != "" && arg != "0" {
			return arg, nil
		}
	}
	return "", nil
}

// ParseLiteralArgs splits a raw argument string into positional arguments
// and reports whether every one of them is a literal (quoted string or
// number). Folding only fires on fully literal argument lists; anything
// else is a runtime value and the directive stays in the tree.
func ParseLiteralArgs(raw string) (args []string, literal bool) {
	fields := splitArgs(raw)
	args = make([]string, 0, len(fields))
	literal = true
	for _, f := range fields {
		switch {
		case len(f) >= 2 && (f[0] == '\'' || f[0] == '"') && f[len(f)-1] == f[0]:
			args = append(args, f[1:len(f)-1])
		case isNumber(f):
			args = append(args, f)
		default:
			args = append(args, f)
			literal = false
		}
	}
	return args, literal
}

// splitArgs splits on whitespace, keeping quoted strings (with their
// quotes) as single fields.
func splitArgs(raw string) []string {
	var fields []string
	var cur strings.Builder
	var quote byte
	flush := func() {
		if cur.Len() > 0 {
			fields = append(fields, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		switch {
		case quote != 0:
			cur.WriteByte(ch)
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
			cur.WriteByte(ch)
		case ch == ' ' || ch == '\t' || ch == '\n':
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	flush()
	return fields
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
