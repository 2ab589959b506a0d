package diag

import (
	"strings"
	"testing"

	"tpp/internal/source"
)

func TestBagCapAndErrors(t *testing.T) {
	b := NewBag(2)
	if !b.Add(Diagnostic{Severity: SevWarning, Code: ValUnknownTag}) {
		t.Fatal("first add rejected")
	}
	if b.HasErrors() {
		t.Fatal("warning counted as error")
	}
	if !b.HasWarnings() {
		t.Fatal("warning not seen")
	}
	if !b.Add(Diagnostic{Severity: SevError, Code: ParseUnmatchedOpen}) {
		t.Fatal("second add rejected")
	}
	if b.Add(Diagnostic{Severity: SevError, Code: ParseUnmatchedOpen}) {
		t.Fatal("add beyond cap accepted")
	}
	if !b.HasErrors() {
		t.Fatal("error not seen")
	}
}

func TestBagSortDeterministic(t *testing.T) {
	b := NewBag(10)
	b.Add(Diagnostic{Severity: SevWarning, Code: ValUnknownTag, Primary: source.Span{Start: 10, End: 12}})
	b.Add(Diagnostic{Severity: SevError, Code: ParseUnmatchedOpen, Primary: source.Span{Start: 4, End: 8}})
	b.Add(Diagnostic{Severity: SevError, Code: StructUnclosedTag, Primary: source.Span{Start: 10, End: 12}})
	b.Sort()

	items := b.Items()
	if items[0].Code != ParseUnmatchedOpen {
		t.Errorf("first after sort = %v", items[0].Code)
	}
	// Same span: error before warning.
	if items[1].Code != StructUnclosedTag || items[2].Code != ValUnknownTag {
		t.Errorf("order = %v, %v", items[1].Code, items[2].Code)
	}
}

func TestBagDedup(t *testing.T) {
	b := NewBag(10)
	d := Diagnostic{Severity: SevError, Code: StructUnclosedTag, Primary: source.Span{Start: 1, End: 2}}
	b.Add(d)
	b.Add(d)
	b.Dedup()
	if b.Len() != 1 {
		t.Errorf("len after dedup = %d", b.Len())
	}
}

func TestFormatGolden(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("page.html", []byte("<div>\n<span>\n"))

	diags := []Diagnostic{
		{
			Severity: SevError,
			Code:     StructUnclosedTag,
			Message:  "unclosed <span> tag",
			Primary:  source.Span{File: id, Start: 6, End: 12},
			Notes:    []Note{{Span: source.Span{File: id, Start: 0, End: 5}, Msg: "outer <div> opened here"}},
		},
	}

	got := FormatGolden(diags, fs, true)
	want := "error TPP3002 page.html:2:1 unclosed <span> tag\n" +
		"note TPP3002 page.html:1:1 outer <div> opened here"
	if got != want {
		t.Errorf("golden output:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrettyContext(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("t.html", []byte("<a href=#>x</a>"))

	b := NewBag(5)
	b.Add(Diagnostic{
		Severity: SevError,
		Code:     ValMissingHref,
		Message:  "empty href",
		Primary:  source.Span{File: id, Start: 3, End: 9},
	})

	var sb strings.Builder
	Pretty(&sb, b, fs, PrettyOpts{Context: 1})
	out := sb.String()
	if !strings.Contains(out, "t.html:1:4: ERROR TPP5006: empty href") {
		t.Errorf("missing header line in %q", out)
	}
	if !strings.Contains(out, "   ^^^^^^") {
		t.Errorf("missing caret underline in %q", out)
	}
}

func TestPrettyContextLeadingLines(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("t.html", []byte("<div>\n<span>\n<p>bad</p>\n"))

	b := NewBag(5)
	b.Add(Diagnostic{
		Severity: SevError,
		Code:     ValUnknownTag,
		Message:  "bad tag",
		Primary:  source.Span{File: id, Start: 13, End: 16},
	})

	var sb strings.Builder
	Pretty(&sb, b, fs, PrettyOpts{Context: 2})
	out := sb.String()
	if !strings.Contains(out, "t.html:3:1: ERROR TPP5001: bad tag") {
		t.Errorf("missing header line in %q", out)
	}
	// One preceding line, then the offending line and its caret.
	if !strings.Contains(out, "  <span>\n  <p>bad</p>\n  ^^^") {
		t.Errorf("missing context block in %q", out)
	}
	if strings.Contains(out, "<div>") {
		t.Errorf("context exceeds the requested window: %q", out)
	}
}
