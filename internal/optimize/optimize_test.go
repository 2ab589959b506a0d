package optimize

import (
	"errors"
	"strings"
	"testing"

	"tpp/internal/ast"
	"tpp/internal/codegen"
	"tpp/internal/diag"
	"tpp/internal/htmlnorm"
	"tpp/internal/lexer"
	"tpp/internal/options"
	"tpp/internal/parser"
	"tpp/internal/source"
)

func frontend(t *testing.T, src string) *ast.Node {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.html", []byte(src))
	tokens, err := lexer.Tokenize(fs.Get(id), lexer.Options{})
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	root, err := parser.Parse(tokens, parser.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := htmlnorm.Normalize(root, htmlnorm.Options{HTML: true}); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return root
}

func optimized(t *testing.T, src string, set options.Set) string {
	t.Helper()
	root := frontend(t, src)
	if err := Apply(root, &Context{Options: set}); err != nil {
		t.Fatalf("optimize: %v", err)
	}
	return codegen.Render(root)
}

func TestFoldPureDirective(t *testing.T) {
	got := optimized(t, `x{% templatetag openblock %}y`, options.Default())
	if got != "x{%y" {
		t.Errorf("got %q", got)
	}
}

func TestFoldWidthRatio(t *testing.T) {
	got := optimized(t, `<img src="b.png" alt="bar" width="{% widthratio 175 200 100 %}">`, options.Default())
	if !strings.Contains(got, `width="88"`) {
		t.Errorf("got %q", got)
	}
}

func TestFoldSkipsRuntimeArguments(t *testing.T) {
	src := `{% firstof user.name 'anon' %}`
	got := optimized(t, src, options.Default())
	if got != src {
		t.Errorf("directive with runtime args must stay, got %q", got)
	}
}

func TestFoldFailureIsFatal(t *testing.T) {
	root := frontend(t, `{% widthratio 'a' 'b' 100 %}`)
	err := Apply(root, &Context{Options: options.Default()})
	if !errors.Is(err, ErrOptimize) {
		t.Fatalf("want ErrOptimize, got %v", err)
	}
}

func TestWhitespaceAroundFoldedDirective(t *testing.T) {
	// Two text nodes separated by a fold-eliminated directive compress as
	// if they were one.
	got := optimized(t, `Hello   {% firstof '' %}   World`, options.Default())
	if got != "Hello World" {
		t.Errorf("got %q", got)
	}
}

func TestWhitespaceBlockEdges(t *testing.T) {
	got := optimized(t, "<div>\n  <p> a  b </p>\n</div>", options.Default())
	if got != "<div><p>a b</p></div>" {
		t.Errorf("got %q", got)
	}
}

func TestWhitespacePreservedInPre(t *testing.T) {
	src := "<pre>  two  spaces\n</pre>"
	got := optimized(t, src, options.Default())
	if got != src {
		t.Errorf("got %q", got)
	}
}

func TestWhitespaceDropsHTMLComments(t *testing.T) {
	got := optimized(t, `a<!-- note -->b`, options.Default())
	if got != "ab" {
		t.Errorf("got %q", got)
	}
}

func TestEmptyClassAttributeRemoved(t *testing.T) {
	got := optimized(t, `<p class="">x</p>`, options.Default())
	if got != "<p>x</p>" {
		t.Errorf("got %q", got)
	}
}

func TestInlineOptionScopesLexically(t *testing.T) {
	src := "a    b{% !no-whitespace-compression %}c    d"
	got := optimized(t, src, options.Default())
	if got != "a b{% !no-whitespace-compression %}c    d" {
		t.Errorf("got %q", got)
	}
}

func TestUnknownInlineOptionIsFatal(t *testing.T) {
	root := frontend(t, `{% !no-such-flag %}x`)
	err := Apply(root, &Context{Options: options.Default()})
	if !errors.Is(err, ErrOptimize) {
		t.Fatalf("want ErrOptimize, got %v", err)
	}
}

func TestRawRegionIsOpaque(t *testing.T) {
	src := `{% !raw %}a   b <div> {% broken %}{% !endraw %}`
	got := optimized(t, src, options.Default())
	if got != src {
		t.Errorf("raw region changed: %q", got)
	}
}

func TestScriptMergePreservesOrder(t *testing.T) {
	src := `<script type="text/javascript">var a = 1;</script>` +
		`<p>x</p>` +
		`<script type="text/javascript">var b = 2;</script>`
	got := optimized(t, src, options.Default())
	want := `<script type="text/javascript">var a=1;var b=2;</script><p>x</p>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestScriptMergeSkipsExternalAndEscaped(t *testing.T) {
	src := `<script src="ext.js"></script>` +
		`<script type="text/javascript" data-no-merge>var a = 1;</script>` +
		`<script type="text/javascript">var b = 2;</script>`
	set := options.Default()
	set.Disable(options.FlagCompileJS)
	got := optimized(t, src, set)
	if strings.Count(got, "<script") != 3 {
		t.Errorf("protected scripts merged: %q", got)
	}
}

func TestScriptMergeOverrideIsNotRetroactive(t *testing.T) {
	// A trailing no-merge override governs only what follows it; the two
	// scripts before it still merge.
	src := `<script type="text/javascript">var a = 1;</script>` +
		`<script type="text/javascript">var b = 2;</script>` +
		`{% !no-merge-internal-javascript %}`
	got := optimized(t, src, options.Default())
	if strings.Count(got, "<script") != 1 {
		t.Errorf("scripts before the override must merge: %q", got)
	}
	if !strings.Contains(got, "var a=1;var b=2;") {
		t.Errorf("got %q", got)
	}
}

func TestScriptMergeOverrideScopesForward(t *testing.T) {
	src := `{% !no-merge-internal-javascript %}` +
		`<script type="text/javascript">var a = 1;</script>` +
		`{% !merge-internal-javascript %}` +
		`<script type="text/javascript">var b = 2;</script>` +
		`<script type="text/javascript">var c = 3;</script>`
	got := optimized(t, src, options.Default())
	if strings.Count(got, "<script") != 2 {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, "var a=1;") {
		t.Errorf("excluded script changed: %q", got)
	}
	if !strings.Contains(got, "var b=2;var c=3;") {
		t.Errorf("re-enabled scripts must merge into the first of them: %q", got)
	}
}

func TestScriptInsideConditionalCommentStays(t *testing.T) {
	src := `<script type="text/javascript">var a = 1;</script>` +
		`<!--[if lt IE 9]><script type="text/javascript">var shim = 1;</script><![endif]-->`
	got := optimized(t, src, options.Default())
	if !strings.Contains(got, "var shim = 1;") {
		t.Errorf("conditional-comment script touched: %q", got)
	}
	if strings.Count(got, "<script") != 2 {
		t.Errorf("got %q", got)
	}
}

func TestStyleMerge(t *testing.T) {
	src := `<style type="text/css">a { color : red ; }</style>` +
		`<style type="text/css">b { color : blue ; }</style>`
	got := optimized(t, src, options.Default())
	want := `<style type="text/css">a{color:red;}b{color:blue;}</style>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMergeAcrossBranchesKeepsExpressions(t *testing.T) {
	src := `<script type="text/javascript">var a = {{ v }};</script>` +
		`<script type="text/javascript">var b = 2;</script>`
	got := optimized(t, src, options.Default())
	if strings.Count(got, "<script") != 1 {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, "{{ v }}") {
		t.Errorf("expression lost: %q", got)
	}
}

func TestValidateUnknownTag(t *testing.T) {
	root := frontend(t, `<blink>x</blink>`)
	err := Apply(root, &Context{Options: options.Default()})
	if !errors.Is(err, ErrOptimize) {
		t.Fatalf("want ErrOptimize, got %v", err)
	}
}

func TestValidateUnknownTagRelaxed(t *testing.T) {
	set := options.Default()
	set.Enable(options.FlagRelaxHTMLValidation)
	got := optimized(t, `<blink>x</blink>`, set)
	if got != "<blink>x</blink>" {
		t.Errorf("got %q", got)
	}
}

func TestValidateParseAllTags(t *testing.T) {
	set := options.Default()
	set.Enable(options.FlagParseAllHTMLTags)
	if got := optimized(t, `<widget>x</widget>`, set); got != "<widget>x</widget>" {
		t.Errorf("got %q", got)
	}
}

func TestValidateNamespacedTagExempt(t *testing.T) {
	got := optimized(t, `<fb:like>x</fb:like>`, options.Default())
	if got != "<fb:like>x</fb:like>" {
		t.Errorf("got %q", got)
	}
}

func TestValidateDuplicateAttribute(t *testing.T) {
	root := frontend(t, `<p class="a" class="b">x</p>`)
	err := Apply(root, &Context{Options: options.Default()})
	if !errors.Is(err, ErrOptimize) {
		t.Fatalf("want ErrOptimize, got %v", err)
	}
}

func TestValidateJavascriptHref(t *testing.T) {
	root := frontend(t, `<a href="javascript:void(0)">x</a>`)
	err := Apply(root, &Context{Options: options.Default()})
	if !errors.Is(err, ErrOptimize) {
		t.Fatalf("want ErrOptimize, got %v", err)
	}
}

func TestValidateBranchedAttributeVariants(t *testing.T) {
	// Scenario: attribute variants per branch; only the names are checked,
	// and one class per render path is not a duplicate.
	src := `<a {% if x %} class="a" {% else %} class="b" {% endif %} href="#">link</a>`
	got := optimized(t, src, options.Default())
	if !strings.Contains(got, `class="a"`) || !strings.Contains(got, `class="b"`) {
		t.Errorf("got %q", got)
	}
}

func TestValidateAltAndTitleChecks(t *testing.T) {
	set := options.Default()
	set.Enable(options.FlagCheckAltAndTitleAttrs)
	root := frontend(t, `<a href="/x">x</a><img src="a.png">`)

	bag := diag.NewBag(8)
	if err := Apply(root, &Context{Options: set, Reporter: diag.BagReporter{Bag: bag}}); err != nil {
		t.Fatalf("optimize: %v", err)
	}
	seen := make(map[diag.Code]bool)
	for _, d := range bag.Items() {
		seen[d.Code] = true
	}
	if !seen[diag.ValMissingAlt] {
		t.Error("missing alt warning not reported")
	}
	if !seen[diag.ValMissingTitle] {
		t.Error("missing title warning not reported")
	}
}

func TestValidateLangAttribute(t *testing.T) {
	// Bad language tags only warn; the unit still compiles.
	got := optimized(t, `<html lang="en-US"><body><p lang="not a tag">x</p></body></html>`, options.Default())
	if !strings.Contains(got, `lang="en-US"`) {
		t.Errorf("got %q", got)
	}
}

func TestValidateSkippedWithoutFlag(t *testing.T) {
	set := options.Default()
	set.Disable(options.FlagValidateHTML)
	if got := optimized(t, `<blink>x</blink>`, set); got != "<blink>x</blink>" {
		t.Errorf("got %q", got)
	}
}
