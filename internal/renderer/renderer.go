// Package renderer turns prompt records and completion text into the markup
// shown by the browser page and the terminal UI.
package renderer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/dpshade/promptpad/internal/models"
	"github.com/dpshade/promptpad/internal/textutil"
)

// EmptyClass marks an editable field that has no text
const EmptyClass = "is-empty"

// ActiveClass marks the list entry of the selected record
const ActiveClass = "active"

// IntentPath is where list affordances post their intents
const IntentPath = "/intent"

var listTemplate = template.Must(template.New("list").Parse(`{{range .}}
<li class="prompt-item{{if .Active}} active{{end}}" data-id="{{.ID}}">
  <form method="post" action="{{.Action}}">
    <input type="hidden" name="id" value="{{.ID}}">
    <button class="prompt-item-content" type="submit" name="action" value="select" data-action="select">
      <span class="prompt-item-title">{{.Title}}</span>
      <span class="prompt-item-description">{{.Content}}</span>
    </button>
    <button class="btn-icon" type="submit" name="action" value="remove" data-remove="remove" title="Remove">&times;</button>
  </form>
</li>{{end}}`))

type listItem struct {
	ID      int64
	Title   template.HTML
	Content template.HTML
	Active  bool
	Action  string
}

// Options configures a Renderer
type Options struct {
	// SanitizeMarkup passes stored markup and completion HTML through a
	// user-generated-content policy before it reaches the page.
	SanitizeMarkup bool
	// Format says how stored titles and content are read. Plain text is
	// escaped before it reaches the page.
	Format textutil.Format
}

// Renderer produces page fragments
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	format textutil.Format
}

// NewRenderer creates a new renderer instance
func NewRenderer(opts Options) *Renderer {
	r := &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		format: opts.Format,
	}
	if opts.SanitizeMarkup {
		r.policy = bluemonday.UGCPolicy()
	}
	return r
}

// Sanitizing reports whether the sanitize policy is on
func (r *Renderer) Sanitizing() bool {
	return r.policy != nil
}

// RenderList renders one entry per record, in order. Title and content are
// emitted in the renderer's format; the entry matching selectedID is marked
// active.
func (r *Renderer) RenderList(records []models.PromptRecord, selectedID *int64) template.HTML {
	items := make([]listItem, 0, len(records))
	for _, p := range records {
		items = append(items, listItem{
			ID:      p.ID,
			Title:   r.trusted(r.format.HTML(p.Title)),
			Content: r.trusted(r.format.HTML(p.Content)),
			Active:  selectedID != nil && *selectedID == p.ID,
			Action:  IntentPath,
		})
	}

	var buf bytes.Buffer
	if err := listTemplate.Execute(&buf, items); err != nil {
		return template.HTML(template.HTMLEscapeString(fmt.Sprintf("render error: %v", err)))
	}
	return template.HTML(buf.String())
}

// EditableState returns the class for an editable field's wrapper
func EditableState(fieldHasText bool) string {
	if fieldHasText {
		return ""
	}
	return EmptyClass
}

// RenderCompletion converts completion Markdown to HTML. Empty input
// yields empty output.
func (r *Renderer) RenderCompletion(raw string) template.HTML {
	if raw == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(raw), &buf); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(raw) + "</pre>")
	}
	return r.trusted(buf.String())
}

func (r *Renderer) trusted(markup string) template.HTML {
	if r.policy != nil {
		markup = r.policy.Sanitize(markup)
	}
	return template.HTML(markup)
}
