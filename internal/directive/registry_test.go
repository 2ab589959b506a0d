package directive

import (
	"testing"
)

func TestRegisterDuplicateFails(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Entry{Name: "once", Block: true}); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if err := r.Register(Entry{Name: "once"}); err == nil {
		t.Fatal("duplicate Register succeeded, want error")
	}
}

func TestRegisterAfterFreezeFails(t *testing.T) {
	r := NewRegistry()
	r.Freeze()
	if err := r.Register(Entry{Name: "late"}); err == nil {
		t.Fatal("Register after Freeze succeeded, want error")
	}
}

func TestPureRequiresEvaluator(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Entry{Name: "bad", Purity: Pure}); err == nil {
		t.Fatal("pure entry without evaluator accepted")
	}
}

func TestBuiltinsPresent(t *testing.T) {
	r := Default()
	for _, name := range []string{"if", "for", "block", "templatetag", "widthratio", "firstof"} {
		if _, ok := r.Lookup(name); !ok {
			t.Errorf("builtin %q not registered", name)
		}
	}
	e, _ := r.Lookup("if")
	if !e.Block || len(e.BranchKeywords) != 2 {
		t.Fatalf("if entry: block=%v branches=%v", e.Block, e.BranchKeywords)
	}
	if !r.IsBranchKeyword("else") || !r.IsBranchKeyword("empty") {
		t.Fatal("branch keyword index incomplete")
	}
	if r.IsBranchKeyword("if") {
		t.Fatal("directive name reported as branch keyword")
	}
}

func TestTemplateTagEval(t *testing.T) {
	cases := map[string]string{
		"openblock":    "{%",
		"closeblock":   "%}",
		"openvariable": "{{",
		"openbrace":    "{",
		"opencomment":  "{#",
	}
	for arg, want := range cases {
		got, err := evalTemplateTag([]string{arg})
		if err != nil {
			t.Fatalf("templatetag %s: %v", arg, err)
		}
		if got != want {
			t.Errorf("templatetag %s = %q, want %q", arg, got, want)
		}
	}
	if _, err := evalTemplateTag([]string{"bogus"}); err == nil {
		t.Fatal("unknown templatetag name accepted")
	}
}

func TestWidthRatioEval(t *testing.T) {
	got, err := evalWidthRatio([]string{"175", "200", "100"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "88" {
		t.Fatalf("widthratio 175 200 100 = %q, want 88", got)
	}
	if got, _ := evalWidthRatio([]string{"1", "0", "100"}); got != "0" {
		t.Fatalf("widthratio with zero max = %q, want 0", got)
	}
	if _, err := evalWidthRatio([]string{"a", "b", "c"}); err == nil {
		t.Fatal("non-numeric widthratio accepted")
	}
}

func TestFirstOfEval(t *testing.T) {
	got, err := evalFirstOf([]string{"", "0", "second", "third"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "second" {
		t.Fatalf("firstof = %q, want second", got)
	}
	if got, _ := evalFirstOf([]string{"", "0"}); got != "" {
		t.Fatalf("firstof with no truthy arg = %q, want empty", got)
	}
}

func TestParseLiteralArgs(t *testing.T) {
	args, literal := ParseLiteralArgs(`'a b' "c" 42`)
	if !literal {
		t.Fatal("fully literal args reported non-literal")
	}
	if len(args) != 3 || args[0] != "a b" || args[1] != "c" || args[2] != "42" {
		t.Fatalf("args = %v", args)
	}

	_, literal = ParseLiteralArgs(`user.name 'x'`)
	if literal {
		t.Fatal("variable arg reported literal")
	}
}

func TestTemplateTagArgParser(t *testing.T) {
	args, ok := parseTemplateTagArgs("openblock")
	if !ok || len(args) != 1 {
		t.Fatalf("parseTemplateTagArgs(openblock) = %v, %v", args, ok)
	}
	if _, ok := parseTemplateTagArgs("openblock extra"); ok {
		t.Fatal("two-argument templatetag accepted")
	}
}
