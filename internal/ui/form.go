package ui

import (
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// EditorForm holds the title input and the content textarea
type EditorForm struct {
	title    textinput.Model
	content  textarea.Model
	focused  int
	modified bool
}

// Form field indices
const (
	titleField = iota
	contentField
)

// NewEditorForm creates an empty editor with the title focused
func NewEditorForm() *EditorForm {
	ti := textinput.New()
	ti.Placeholder = "Prompt title"
	ti.CharLimit = 200
	ti.Width = 60
	ti.Prompt = ""

	ta := textarea.New()
	ta.Placeholder = "Write your prompt here..."
	ta.CharLimit = 0 // unlimited
	ta.MaxHeight = 0
	ta.ShowLineNumbers = false // avoids double spacing
	ta.SetWidth(80)
	ta.SetHeight(8)

	return &EditorForm{
		title:   ti,
		content: ta,
		focused: titleField,
	}
}

// SetValues replaces both fields, e.g. after a selection change
func (f *EditorForm) SetValues(title, content string) {
	f.title.SetValue(title)
	f.content.SetValue(content)
	f.modified = false
}

func (f *EditorForm) Title() string   { return f.title.Value() }
func (f *EditorForm) Content() string { return f.content.Value() }

// Modified reports whether the user typed since the last SetValues. The
// model asks for a second ctrl+n before discarding such a draft.
func (f *EditorForm) Modified() bool { return f.modified }

// Focus gives keyboard focus to field
func (f *EditorForm) Focus(field int) tea.Cmd {
	f.Blur()
	f.focused = field
	if field == contentField {
		return f.content.Focus()
	}
	return f.title.Focus()
}

// Blur removes focus from both fields
func (f *EditorForm) Blur() {
	f.title.Blur()
	f.content.Blur()
}

// Update forwards a message to the focused field
func (f *EditorForm) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.focused == contentField {
		before := f.content.Value()
		f.content, cmd = f.content.Update(msg)
		if f.content.Value() != before {
			f.modified = true
		}
		return cmd
	}

	before := f.title.Value()
	f.title, cmd = f.title.Update(msg)
	if f.title.Value() != before {
		f.modified = true
	}
	return cmd
}

// Resize fits the fields to the editor column
func (f *EditorForm) Resize(width, height int) {
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}
	f.title.Width = width - 2
	f.content.SetWidth(width)
	f.content.SetHeight(height)
}

func (f *EditorForm) TitleView() string   { return f.title.View() }
func (f *EditorForm) ContentView() string { return f.content.View() }
