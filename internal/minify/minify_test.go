package minify

import "testing"

func TestJSBasics(t *testing.T) {
	cases := []struct{ in, want string }{
		{"var  x =  1 ;", "var x=1;"},
		{"if (a < b) { run( ); }", "if(a<b){run();}"},
		{"// gone\nvar x = 2;", "var x=2;"},
		{"var x = 1; /* gone\n   entirely */ var y = 2;", "var x=1;var y=2;"},
		{"return  value", "return value"},
		{"typeof x", "typeof x"},
		{`var s = "a  b  c";`, `var s="a  b  c";`},
		{`var s = 'don\'t  touch';`, `var s='don\'t  touch';`},
	}
	for _, tc := range cases {
		if got := JS(tc.in); got != tc.want {
			t.Errorf("JS(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestJSRegexVsDivision(t *testing.T) {
	cases := []struct{ in, want string }{
		{"var r = /a b/g ;", "var r=/a b/g;"},
		{"var d = a / b;", "var d=a/b;"},
		{"x = y.match( /[/ ]+/ );", "x=y.match(/[/ ]+/);"},
		{"(a) / b", "(a)/b"},
	}
	for _, tc := range cases {
		if got := JS(tc.in); got != tc.want {
			t.Errorf("JS(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestJSFragmentBoundaries(t *testing.T) {
	// A fragment following a template expression may need its leading
	// space (`{{ a }} in b`), and one preceding it may need its trailing
	// space (`typeof {{ v }}`).
	if got := JS(" in b"); got != " in b" {
		t.Errorf("leading boundary: %q", got)
	}
	if got := JS("typeof "); got != "typeof " {
		t.Errorf("trailing boundary: %q", got)
	}
	if got := JS(" + 1;"); got != "+1;" {
		t.Errorf("leading boundary before operator: %q", got)
	}
}

func TestCSSBasics(t *testing.T) {
	cases := []struct{ in, want string }{
		{"body {  color : red ; }", "body{color:red;}"},
		{"/* c */ p { margin : 0   auto ; }", "p{margin:0 auto;}"},
		{"a > b { x : y }", "a>b{x:y}"},
		{`div { background : url("a  b.png") ; }`, `div{background:url("a  b.png");}`},
		{".a ,  .b { }", ".a,.b{}"},
	}
	for _, tc := range cases {
		if got := CSS(tc.in); got != tc.want {
			t.Errorf("CSS(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
