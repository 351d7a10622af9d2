package textproc

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "paragraph", input: "<p>Hello World!</p>", want: []string{"hello", "world"}},
		{name: "entities", input: "Fish &amp; Chips", want: []string{"fish", "chips"}},
		{name: "digits split words", input: "go1 release 2026", want: []string{"go", "release"}},
		{name: "short and long dropped", input: "a bb supercalifragilistic", want: []string{"bb"}},
		{name: "leading underscore dropped", input: "_private ok_name", want: []string{"ok_name"}},
		{name: "adjacent blocks", input: "<p>first</p><p>second</p>", want: []string{"first", "second"}},
		{name: "script removed", input: "<script>var hidden = 1;</script><b>Shown</b>", want: []string{"shown"}},
		{name: "unicode letters", input: "<em>Café</em> Über", want: []string{"café", "über"}},
		{name: "empty", input: "   ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Tokenize(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestStripHTML_IdempotentOnPlainText(t *testing.T) {
	inputs := []string{
		"plain words only",
		"Fish & chips < dinner",
		"line one\nline two",
		"<div><p>Nested <a href=\"https://example.com\">link</a></p></div>",
		"Tom &quot;quoted&quot; text",
		"if a &lt;b then c",
		"Use the &lt;script&gt;alert(1)&lt;/script&gt; tag wisely",
		"AT&amp;amp;T &amp;lt;tag&amp;gt;",
		"<p>x &lt;/p&gt; y</p>",
	}
	for _, in := range inputs {
		once := StripHTML(in)
		twice := StripHTML(once)
		if once != twice {
			t.Fatalf("StripHTML not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestStripHTML_EscapedMarkupStaysText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "if a &lt;b then c", want: "if a  b then c"},
		{input: "Use the &lt;script&gt;alert(1)&lt;/script&gt; tag wisely", want: "Use the  script alert(1)  /script  tag wisely"},
		{input: "Fish &amp; Chips", want: "Fish   Chips"},
	}
	for _, tt := range tests {
		if got := StripHTML(tt.input); got != tt.want {
			t.Fatalf("StripHTML(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	got := Tokenize("Use the &lt;script&gt;alert(1)&lt;/script&gt; tag wisely")
	want := []string{"use", "the", "script", "alert", "script", "tag", "wisely"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize() = %#v, want %#v", got, want)
	}
	if again := Tokenize(StripHTML("Use the &lt;script&gt;alert(1)&lt;/script&gt; tag wisely")); !reflect.DeepEqual(again, want) {
		t.Fatalf("Tokenize(StripHTML()) = %#v, want %#v", again, want)
	}
}

func TestStripHTML_RemovesNewlines(t *testing.T) {
	got := StripHTML("<p>one\ntwo</p>\r\n")
	if got != "onetwo" {
		t.Fatalf("StripHTML() = %q, want %q", got, "onetwo")
	}
}

func TestSingleLine(t *testing.T) {
	if got := SingleLine("  a\n\tb   c "); got != "a b c" {
		t.Fatalf("SingleLine() = %q", got)
	}
	if got := SingleLine(""); got != "" {
		t.Fatalf("SingleLine(\"\") = %q", got)
	}
}
