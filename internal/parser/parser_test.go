package parser

import (
	"errors"
	"testing"

	"tpp/internal/ast"
	"tpp/internal/diag"
	"tpp/internal/directive"
	"tpp/internal/lexer"
	"tpp/internal/source"
	"tpp/internal/token"
)

func parseSource(t *testing.T, src string) *ast.Node {
	t.Helper()
	root, err := tryParse(src)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	return root
}

func tryParse(src string) (*ast.Node, error) {
	fileSet := source.NewFileSet()
	id := fileSet.AddVirtual("test.html", []byte(src))
	tokens, err := lexer.Tokenize(fileSet.Get(id), lexer.Options{})
	if err != nil {
		return nil, err
	}
	return Parse(tokens, Options{})
}

func parseErr(t *testing.T, src string) (*diag.Bag, error) {
	t.Helper()
	fileSet := source.NewFileSet()
	id := fileSet.AddVirtual("test.html", []byte(src))
	tokens, err := lexer.Tokenize(fileSet.Get(id), lexer.Options{})
	if err != nil {
		t.Fatalf("Tokenize(%q) failed: %v", src, err)
	}
	bag := diag.NewBag(16)
	_, err = Parse(tokens, Options{Reporter: diag.BagReporter{Bag: bag}})
	if err == nil {
		t.Fatalf("Parse(%q) succeeded, want error", src)
	}
	return bag, err
}

func TestParseFlatContent(t *testing.T) {
	root := parseSource(t, "<p>{{ x }}</p>{# gone #}{% csrf_token %}")
	if len(root.Children) != 4 {
		t.Fatalf("got %d children, want 4", len(root.Children))
	}
	wantKinds := []ast.NodeKind{ast.NodeText, ast.NodeExpr, ast.NodeText, ast.NodeDirective}
	for i, want := range wantKinds {
		if root.Children[i].Kind != want {
			t.Fatalf("child %d kind %v, want %v", i, root.Children[i].Kind, want)
		}
	}
	if root.Children[3].Name != "csrf_token" {
		t.Fatalf("leaf directive name %q", root.Children[3].Name)
	}
}

func TestParseIfBranches(t *testing.T) {
	root := parseSource(t, "{% if a %}1{% elif b %}2{% else %}3{% endif %}")
	node := root.Children[0]
	if node.Kind != ast.NodeDirective || node.Name != "if" {
		t.Fatalf("node %v %q", node.Kind, node.Name)
	}
	if len(node.Branches) != 3 {
		t.Fatalf("got %d branches, want 3", len(node.Branches))
	}
	wantKw := []string{"if", "elif", "else"}
	wantText := []string{"1", "2", "3"}
	for i, br := range node.Branches {
		if br.Keyword != wantKw[i] {
			t.Fatalf("branch %d keyword %q, want %q", i, br.Keyword, wantKw[i])
		}
		if len(br.Children) != 1 || br.Children[0].Text != wantText[i] {
			t.Fatalf("branch %d children %v", i, br.Children)
		}
	}
	if node.Branches[1].Args != "b" {
		t.Fatalf("elif args %q", node.Branches[1].Args)
	}
}

func TestParseForEmpty(t *testing.T) {
	root := parseSource(t, "{% for x in xs %}<li>{{ x }}</li>{% empty %}none{% endfor %}")
	node := root.Children[0]
	if len(node.Branches) != 2 || node.Branches[1].Keyword != "empty" {
		t.Fatalf("branches %v", node.Branches)
	}
}

func TestParseNestedBlocks(t *testing.T) {
	root := parseSource(t, "{% block body %}{% if a %}{% for y in ys %}x{% endfor %}{% endif %}{% endblock %}")
	block := root.Children[0]
	ifNode := block.Branches[0].Children[0]
	forNode := ifNode.Branches[0].Children[0]
	if forNode.Name != "for" || len(forNode.Branches) != 1 {
		t.Fatalf("inner for %q %v", forNode.Name, forNode.Branches)
	}
}

func TestParseRawNode(t *testing.T) {
	root := parseSource(t, "{% !raw %}<div>{% broken_tag %}{% !endraw %}")
	node := root.Children[0]
	if node.Kind != ast.NodeRaw {
		t.Fatalf("kind %v", node.Kind)
	}
	if node.Text != "<div>{% broken_tag %}" {
		t.Fatalf("raw text %q", node.Text)
	}
}

func TestParseOptionNode(t *testing.T) {
	root := parseSource(t, "a{% !no-whitespace-compression %}b")
	if root.Children[1].Kind != ast.NodeOption || root.Children[1].Name != "no-whitespace-compression" {
		t.Fatalf("option node %v %q", root.Children[1].Kind, root.Children[1].Name)
	}
}

func TestUnmatchedOpenBlamesOpenSpan(t *testing.T) {
	src := "before {% if a %} body"
	bag, err := parseErr(t, src)
	if !errors.Is(err, ErrParse) {
		t.Fatalf("error %v is not ErrParse", err)
	}
	items := bag.Items()
	if len(items) != 1 || items[0].Code != diag.ParseUnmatchedOpen {
		t.Fatalf("diagnostics %v", items)
	}
	span := items[0].Primary
	if got := src[span.Start:span.End]; got != "{% if a %}" {
		t.Fatalf("blamed span %q, want the open tag", got)
	}
}

func TestUnexpectedClose(t *testing.T) {
	bag, _ := parseErr(t, "text {% endif %}")
	if items := bag.Items(); len(items) != 1 || items[0].Code != diag.ParseUnexpectedClose {
		t.Fatalf("diagnostics %v", items)
	}
}

func TestMismatchedEndName(t *testing.T) {
	bag, _ := parseErr(t, "{% if a %}{% endfor %}")
	if items := bag.Items(); len(items) != 1 || items[0].Code != diag.ParseUnexpectedEndName {
		t.Fatalf("diagnostics %v", items)
	}
}

func TestStrayBranchKeyword(t *testing.T) {
	for _, src := range []string{"{% else %}", "{% for x in y %}{% else %}{% endfor %}"} {
		bag, _ := parseErr(t, src)
		if items := bag.Items(); len(items) != 1 || items[0].Code != diag.ParseStrayBranch {
			t.Fatalf("source %q: diagnostics %v", src, items)
		}
	}
}

func TestRegistryDrivenBlocks(t *testing.T) {
	reg := directive.NewRegistry()
	reg.MustRegister(directive.Entry{Name: "panel", Block: true, BranchKeywords: []string{"alt"}})
	fileSet := source.NewFileSet()
	id := fileSet.AddVirtual("test.html", []byte("{% panel x %}body{% alt %}other{% endpanel %}"))
	tokens, err := lexer.Tokenize(fileSet.Get(id), lexer.Options{})
	if err != nil {
		t.Fatal(err)
	}
	root, err := Parse(tokens, Options{Registry: reg})
	if err != nil {
		t.Fatal(err)
	}
	node := root.Children[0]
	if len(node.Branches) != 2 || node.Branches[1].Keyword != "alt" {
		t.Fatalf("externally registered block parsed as %v", node.Branches)
	}
}

func TestEOFTokenIgnored(t *testing.T) {
	tokens := []token.Token{{Kind: token.EOF}}
	root, err := Parse(tokens, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(root.Children) != 0 {
		t.Fatalf("children %v", root.Children)
	}
}
