// Package textutil extracts displayable text from stored prompt content,
// and cleans strings for single-line display.
package textutil

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Format says how stored content is read. The zero value is Plain.
type Format int

const (
	// Plain content is exactly what the user typed
	Plain Format = iota
	// Markup content is rich-text markup from a contenteditable field
	Markup
)

// ParseFormat maps a config value to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "plain":
		return Plain, nil
	case "markup", "html":
		return Markup, nil
	}
	return Plain, fmt.Errorf("unknown content format %q", s)
}

func (f Format) String() string {
	if f == Markup {
		return "markup"
	}
	return "plain"
}

// Text returns the displayable text of content, trimmed. Plain content
// keeps every character, including a typed '<'.
func (f Format) Text(content string) string {
	if f == Markup {
		return TextContent(content)
	}
	return strings.TrimSpace(content)
}

// HasText reports whether content displays any non-whitespace text
func (f Format) HasText(content string) bool {
	return f.Text(content) != ""
}

// HTML returns content ready to be placed in a page
func (f Format) HTML(content string) string {
	if f == Markup {
		return content
	}
	return html.EscapeString(content)
}

// blockTags end a visual line when they open or close
var blockTags = map[string]bool{
	"br": true, "p": true, "div": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"pre": true, "blockquote": true,
}

// TextContent returns the text a user sees when markup is displayed: tags
// are dropped, entities decoded, block elements become line breaks and the
// result is trimmed. Plain text passes through unchanged apart from trimming.
func TextContent(markup string) string {
	if markup == "" {
		return ""
	}

	z := html.NewTokenizer(strings.NewReader(markup))
	var b strings.Builder
	skip := 0 // depth inside <script>/<style>

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return strings.TrimSpace(collapseBlankLines(b.String()))
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				if tt == html.StartTagToken {
					skip++
				}
				continue
			}
			if blockTags[tag] {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if (tag == "script" || tag == "style") && skip > 0 {
				skip--
				continue
			}
			if blockTags[tag] {
				b.WriteByte('\n')
			}
		}
	}
}

func collapseBlankLines(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}

// CleanLine removes characters that break single-line rendering and
// collapses runs of spaces
func CleanLine(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			b.WriteRune(' ')
		} else if r >= 32 && r != 127 {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Truncate shortens s to at most max runes, marking the cut with "..."
func Truncate(s string, max int) string {
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
