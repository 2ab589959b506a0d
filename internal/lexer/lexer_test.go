package lexer

import (
	"errors"
	"strings"
	"testing"

	"tpp/internal/diag"
	"tpp/internal/source"
	"tpp/internal/token"
)

func lexAll(t *testing.T, src string) []token.Token {
	t.Helper()
	fileSet := source.NewFileSet()
	id := fileSet.AddVirtual("test.html", []byte(src))
	tokens, err := Tokenize(fileSet.Get(id), Options{})
	if err != nil {
		t.Fatalf("Tokenize(%q) failed: %v", src, err)
	}
	return tokens
}

func lexErr(t *testing.T, src string) (*diag.Bag, error) {
	t.Helper()
	fileSet := source.NewFileSet()
	id := fileSet.AddVirtual("test.html", []byte(src))
	bag := diag.NewBag(16)
	_, err := Tokenize(fileSet.Get(id), Options{Reporter: diag.BagReporter{Bag: bag}})
	if err == nil {
		t.Fatalf("Tokenize(%q) succeeded, want error", src)
	}
	return bag, err
}

func kinds(tokens []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, tok.Kind)
	}
	return out
}

func checkKinds(t *testing.T, tokens []token.Token, want ...token.Kind) {
	t.Helper()
	got := kinds(tokens)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestTokenizeRoundTrip(t *testing.T) {
	sources := []string{
		"",
		"plain text only",
		"<p>{{ user.name }}</p>",
		"{% if a %}x{% elif b %}y{% else %}z{% endif %}",
		"{# note #}<br>{{ x }}",
		"a { b {{ c }} d { not a tag",
		"{% !raw %}{{ untouched }}{% if %}{% !endraw %}after",
		"{% !no-whitespace-compression %}<pre>  keep  </pre>",
		"{% widthratio a b 100 %}",
	}
	for _, src := range sources {
		tokens := lexAll(t, src)
		var sb strings.Builder
		var prev uint32
		for _, tok := range tokens {
			if tok.Span.Start != prev {
				t.Fatalf("source %q: token %v span starts at %d, want %d", src, tok.Kind, tok.Span.Start, prev)
			}
			prev = tok.Span.End
			sb.WriteString(tok.Text)
		}
		if sb.String() != src {
			t.Fatalf("round trip mismatch:\n got %q\nwant %q", sb.String(), src)
		}
		if last := tokens[len(tokens)-1]; last.Kind != token.EOF {
			t.Fatalf("source %q: last token is %v, want EOF", src, last.Kind)
		}
	}
}

func TestTokenizeKinds(t *testing.T) {
	tokens := lexAll(t, "<p>{{ x }}</p>{# c #}{% if a %}1{% endif %}")
	checkKinds(t, tokens,
		token.Text, token.Expression, token.Text, token.Comment,
		token.Directive, token.Text, token.DirectiveEnd, token.EOF)
}

func TestDirectiveFields(t *testing.T) {
	tokens := lexAll(t, "{% for item in items reversed %}{% endfor %}")
	open := tokens[0]
	if open.Name != "for" || open.Args != "item in items reversed" {
		t.Fatalf("open tag: name=%q args=%q", open.Name, open.Args)
	}
	end := tokens[1]
	if end.Kind != token.DirectiveEnd || end.Name != "for" {
		t.Fatalf("end tag: kind=%v name=%q", end.Kind, end.Name)
	}
}

func TestExpressionBodyTrimmed(t *testing.T) {
	tokens := lexAll(t, "{{   a|lower   }}")
	if tokens[0].Args != "a|lower" {
		t.Fatalf("expression args %q, want %q", tokens[0].Args, "a|lower")
	}
	if tokens[0].Text != "{{   a|lower   }}" {
		t.Fatalf("expression text %q not verbatim", tokens[0].Text)
	}
}

func TestRawRegionIsOpaque(t *testing.T) {
	tokens := lexAll(t, "a{% !raw %}{{ x }}{% broken {# nope{% !endraw %}b")
	checkKinds(t, tokens,
		token.Text, token.RawBegin, token.RawText, token.RawEnd, token.Text, token.EOF)
	if tokens[2].Text != "{{ x }}{% broken {# nope" {
		t.Fatalf("raw text %q", tokens[2].Text)
	}
}

func TestEmptyRawRegion(t *testing.T) {
	tokens := lexAll(t, "{% !raw %}{% !endraw %}")
	checkKinds(t, tokens, token.RawBegin, token.RawEnd, token.EOF)
}

func TestOptionToken(t *testing.T) {
	tokens := lexAll(t, "{% !no-whitespace-compression %}")
	if tokens[0].Kind != token.Option || tokens[0].Name != "no-whitespace-compression" {
		t.Fatalf("got kind=%v name=%q", tokens[0].Kind, tokens[0].Name)
	}
}

func TestQuotedCloseDelimiter(t *testing.T) {
	src := `{% if x == "%}" %}ok{% endif %}`
	tokens := lexAll(t, src)
	checkKinds(t, tokens, token.Directive, token.Text, token.DirectiveEnd, token.EOF)
	if tokens[0].Args != `x == "%}"` {
		t.Fatalf("args %q", tokens[0].Args)
	}
}

func TestUnterminatedRawBlamesOpening(t *testing.T) {
	src := "line1\n{% !raw %}\nnever closed"
	bag, err := lexErr(t, src)
	if !errors.Is(err, ErrLex) {
		t.Fatalf("error %v is not ErrLex", err)
	}
	items := bag.Items()
	if len(items) != 1 || items[0].Code != diag.LexUnterminatedRaw {
		t.Fatalf("diagnostics %v, want one LexUnterminatedRaw", items)
	}
	open := items[0].Primary
	if got := src[open.Start:open.End]; got != "{% !raw %}" {
		t.Fatalf("blamed span covers %q, want the opening tag", got)
	}
}

func TestStrayRawEnd(t *testing.T) {
	bag, _ := lexErr(t, "text{% !endraw %}")
	if items := bag.Items(); len(items) != 1 || items[0].Code != diag.LexStrayRawEnd {
		t.Fatalf("diagnostics %v, want one LexStrayRawEnd", items)
	}
}

func TestUnterminatedTags(t *testing.T) {
	for _, src := range []string{"{{ x", "{# c", "{% if a"} {
		bag, err := lexErr(t, src)
		if !errors.Is(err, ErrLex) {
			t.Fatalf("source %q: error %v is not ErrLex", src, err)
		}
		if items := bag.Items(); len(items) != 1 || items[0].Code != diag.LexUnterminatedTag {
			t.Fatalf("source %q: diagnostics %v, want one LexUnterminatedTag", src, items)
		}
	}
}

func TestBadDirectiveName(t *testing.T) {
	bag, _ := lexErr(t, "{% 9lives %}")
	if items := bag.Items(); len(items) != 1 || items[0].Code != diag.LexBadDirectiveName {
		t.Fatalf("diagnostics %v, want one LexBadDirectiveName", items)
	}
}
