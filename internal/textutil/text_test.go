package textutil

import "testing"

func TestTextContent(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{"empty", "", ""},
		{"plain text", "  hello world  ", "hello world"},
		{"inline tags", "<b>bold</b> and <i>italic</i>", "bold and italic"},
		{"entities", "a &amp; b &lt;c&gt;", "a & b <c>"},
		{"line breaks", "one<br>two", "one\ntwo"},
		{"blocks", "<div>first</div><div>second</div>", "first\n\nsecond"},
		{"only markup", "<br><div></div>", ""},
		{"script dropped", "<script>alert(1)</script>visible", "visible"},
		{"less than in text", "a < b", "a < b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TextContent(tt.markup); got != tt.want {
				t.Errorf("TextContent(%q) = %q, want %q", tt.markup, got, tt.want)
			}
		})
	}
}

func TestHasText(t *testing.T) {
	if Markup.HasText("<p>   </p>") {
		t.Error("whitespace-only markup should not count as text")
	}
	if !Markup.HasText("<p>x</p>") {
		t.Error("expected text to be found")
	}
	if !Plain.HasText("<instructions></instructions>") {
		t.Error("typed tags are text in plain content")
	}
	if Plain.HasText(" \n\t") {
		t.Error("whitespace-only plain content should not count as text")
	}
}

func TestPlainKeepsTypedText(t *testing.T) {
	typed := "Summarize <doc>hello world</doc> for a Vec<T> user; is x<y true?"

	if got := Plain.Text("  " + typed + "\n"); got != typed {
		t.Errorf("Plain.Text = %q, want %q", got, typed)
	}
	if got := Markup.Text(Plain.HTML(typed)); got != typed {
		t.Errorf("escaped plain text read back as markup = %q", got)
	}
	if got := Plain.HTML("a<b & c"); got != "a&lt;b &amp; c" {
		t.Errorf("Plain.HTML = %q", got)
	}
	if got := Markup.HTML("<b>x</b>"); got != "<b>x</b>" {
		t.Errorf("Markup.HTML = %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", Plain},
		{"plain", Plain},
		{"Markup", Markup},
		{"html", Markup},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := ParseFormat("rtf"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestCleanLine(t *testing.T) {
	got := CleanLine("line one\n\tline   two\x07")
	if got != "line one line two" {
		t.Errorf("CleanLine = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("abcdefghij", 6); got != "abc..." {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("héllo wörld", 5); got != "hé..." {
		t.Errorf("Truncate on runes = %q", got)
	}
}
