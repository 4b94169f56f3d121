// Package ui is the terminal front end. It drives the same controller as
// the browser page: every key that changes state dispatches an intent and
// the model redraws from the returned view.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/dpshade/promptpad/internal/controller"
	apperrors "github.com/dpshade/promptpad/internal/errors"
	"github.com/dpshade/promptpad/internal/logger"
	"github.com/dpshade/promptpad/internal/renderer"
)

// Focus identifies the component receiving keys
type Focus int

const (
	FocusList Focus = iota
	FocusSearch
	FocusTitle
	FocusContent
)

// msgUnsavedDraft asks for a second ctrl+n before a typed draft is dropped
const msgUnsavedDraft = "Unsaved changes. Press ctrl+n again to discard them."

const (
	listWidth       = 34
	statusLifetime  = 3 * time.Second
	minContentLines = 3
	minResponseRows = 3
)

// Model represents the TUI application state
type Model struct {
	ctl *controller.Controller
	ctx context.Context
	log *logger.Logger

	view controller.View

	// UI components
	form     *EditorForm
	search   textinput.Model
	viewport viewport.Model
	help     help.Model
	keys     KeyMap

	focus        Focus
	showList     bool
	cursor       int
	discardArmed bool

	renderedFor   string
	renderedWidth int

	// Window dimensions
	width  int
	height int

	// Status messages
	flash    controller.Flash
	flashSeq int
}

// tickMsg clears the status message it was scheduled for
type tickMsg struct{ seq int }

// copyExpiredMsg refreshes the copy control once its confirmation lapses
type copyExpiredMsg struct{}

// completionDoneMsg carries the result of an asynchronous send
type completionDoneMsg struct {
	ticket controller.Ticket
	text   string
	err    error
}

// NewModel creates a new TUI model over a controller
func NewModel(ctx context.Context, ctl *controller.Controller, log *logger.Logger) Model {
	initializeColors()
	if log == nil {
		log = logger.NewNop()
	}

	search := textinput.New()
	search.Placeholder = "filter prompts"
	search.Prompt = "/ "
	search.CharLimit = 100

	vp := viewport.New(80, 8)
	vp.Style = lipgloss.NewStyle()

	m := Model{
		ctl:      ctl,
		ctx:      ctx,
		log:      log.WithComponent("tui"),
		view:     ctl.View(),
		form:     NewEditorForm(),
		search:   search,
		viewport: vp,
		help:     help.New(),
		keys:     keys,
		focus:    FocusTitle,
		showList: true,
		width:    100,
		height:   30,
	}
	m.form.SetValues(m.view.Title, m.view.Content)
	m.form.Focus(titleField)
	m.search.SetValue(m.view.Query)
	m.resize()
	m.refreshResponse()
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// clearStatusCmd returns a command that clears status seq after a delay
func clearStatusCmd(seq int) tea.Cmd {
	return tea.Tick(statusLifetime, func(time.Time) tea.Msg {
		return tickMsg{seq: seq}
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if msg.seq == m.flashSeq {
			m.flash = controller.Flash{}
		}
		return m, nil

	case copyExpiredMsg:
		m.view = m.ctl.View()
		return m, nil

	case completionDoneMsg:
		res := m.ctl.FinishCompletion(msg.ticket, msg.text, msg.err)
		cmd := m.apply(res)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.refreshResponse()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	cmd := m.forward(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	armed := m.discardArmed
	m.discardArmed = false

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.ExpandHelp):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return m, nil
	case key.Matches(msg, m.keys.ToggleList):
		m.showList = !m.showList
		if !m.showList && (m.focus == FocusList || m.focus == FocusSearch) {
			m.search.Blur()
			m.focus = FocusTitle
			m.resize()
			cmd := m.form.Focus(titleField)
			return m, cmd
		}
		m.resize()
		return m, nil
	case key.Matches(msg, m.keys.New):
		if m.form.Modified() && !armed {
			m.discardArmed = true
			cmd := m.notify(controller.Flash{Text: msgUnsavedDraft, Kind: controller.FlashError})
			return m, cmd
		}
		res := m.ctl.Dispatch(controller.New{})
		cmd := m.apply(res)
		m.form.SetValues(res.View.Title, res.View.Content)
		focus := m.setFocus(FocusTitle)
		return m, tea.Batch(cmd, focus)
	case key.Matches(msg, m.keys.Save):
		res := m.ctl.Dispatch(controller.Save{Title: m.form.Title(), Content: m.form.Content()})
		if res.Err == nil {
			m.form.SetValues(res.View.Title, res.View.Content)
		}
		cmd := m.apply(res)
		return m, cmd
	case key.Matches(msg, m.keys.Copy):
		res := m.ctl.Dispatch(controller.Copy{Content: m.form.Content()})
		cmd := m.apply(res)
		if res.Err != nil {
			return m, cmd
		}
		expire := tea.Tick(controller.CopyConfirmDuration, func(time.Time) tea.Msg {
			return copyExpiredMsg{}
		})
		return m, tea.Batch(cmd, expire)
	case key.Matches(msg, m.keys.Send):
		ticket, res := m.ctl.BeginCompletion(m.form.Content())
		cmd := m.apply(res)
		if res.Err != nil {
			return m, cmd
		}
		return m, m.completionCmd(ticket)
	case key.Matches(msg, m.keys.Remove):
		return m.removeRecord()
	case key.Matches(msg, m.keys.NextFocus):
		cmd := m.setFocus(m.nextFocus(1))
		return m, cmd
	case key.Matches(msg, m.keys.PrevFocus):
		cmd := m.setFocus(m.nextFocus(-1))
		return m, cmd
	}

	switch m.focus {
	case FocusList:
		return m.handleListKey(msg)
	case FocusSearch:
		return m.handleSearchKey(msg)
	}
	return m, m.form.Update(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.view.Records)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		if m.cursor >= len(m.view.Records) {
			return m, nil
		}
		res := m.ctl.Dispatch(controller.Select{ID: m.view.Records[m.cursor].ID})
		cmd := m.apply(res)
		if res.Err == nil {
			m.form.SetValues(res.View.Title, res.View.Content)
		}
		return m, cmd
	case key.Matches(msg, m.keys.Search):
		cmd := m.setFocus(FocusSearch)
		return m, cmd
	case key.Matches(msg, m.keys.EndSearch):
		if m.view.Query != "" {
			m.search.SetValue("")
			cmd := m.apply(m.ctl.Dispatch(controller.Search{Query: ""}))
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		cmd := m.setFocus(FocusList)
		return m, cmd
	case key.Matches(msg, m.keys.EndSearch):
		m.search.SetValue("")
		cmd := m.apply(m.ctl.Dispatch(controller.Search{Query: ""}))
		focus := m.setFocus(FocusList)
		return m, tea.Batch(cmd, focus)
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if q := m.search.Value(); q != m.view.Query {
		m.cursor = 0
		applied := m.apply(m.ctl.Dispatch(controller.Search{Query: q}))
		return m, tea.Batch(cmd, applied)
	}
	return m, cmd
}

// removeRecord deletes the record under the cursor, or the selected
// record when the list is not focused
func (m Model) removeRecord() (tea.Model, tea.Cmd) {
	var id int64
	switch {
	case m.focus == FocusList && m.cursor < len(m.view.Records):
		id = m.view.Records[m.cursor].ID
	case m.view.SelectedID != nil:
		id = *m.view.SelectedID
	default:
		return m, nil
	}

	wasSelected := m.view.SelectedID != nil && *m.view.SelectedID == id
	res := m.ctl.Dispatch(controller.Remove{ID: id})
	cmd := m.apply(res)
	if wasSelected {
		m.form.SetValues(res.View.Title, res.View.Content)
	}
	return m, cmd
}

func (m Model) completionCmd(ticket controller.Ticket) tea.Cmd {
	requester := m.ctl.Completer()
	ctx := m.ctx
	log := m.log
	return func() tea.Msg {
		log.Debug("sending prompt", zap.Int64("id", ticket.ID))
		text, err := requester.RequestCompletion(ctx, ticket.Text)
		return completionDoneMsg{ticket: ticket, text: text, err: err}
	}
}

// apply adopts a controller result and schedules its status message
func (m *Model) apply(res controller.Result) tea.Cmd {
	m.view = res.View
	if m.cursor >= len(m.view.Records) {
		m.cursor = max(len(m.view.Records)-1, 0)
	}
	m.refreshResponse()

	flash := res.View.Flash
	if flash.Text == "" && res.Err != nil {
		flash = controller.Flash{Text: apperrors.UserMessage(res.Err), Kind: controller.FlashError}
	}
	if res.Err != nil {
		m.log.Debug("intent failed", zap.Error(res.Err))
	}
	if flash.Text == "" {
		return nil
	}
	return m.notify(flash)
}

// notify shows flash in the status row until its tick arrives
func (m *Model) notify(flash controller.Flash) tea.Cmd {
	m.flash = flash
	m.flashSeq++
	return clearStatusCmd(m.flashSeq)
}

func (m *Model) forward(msg tea.Msg) tea.Cmd {
	switch m.focus {
	case FocusTitle, FocusContent:
		return m.form.Update(msg)
	case FocusSearch:
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return cmd
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return cmd
}

func (m Model) nextFocus(step int) Focus {
	order := []Focus{FocusTitle, FocusContent}
	if m.showList {
		order = []Focus{FocusList, FocusTitle, FocusContent}
	}
	idx := 0
	for i, f := range order {
		if f == m.focus || (m.focus == FocusSearch && f == FocusList) {
			idx = i
		}
	}
	idx = (idx + step + len(order)) % len(order)
	return order[idx]
}

func (m *Model) setFocus(f Focus) tea.Cmd {
	m.focus = f
	m.search.Blur()
	switch f {
	case FocusTitle:
		return m.form.Focus(titleField)
	case FocusContent:
		return m.form.Focus(contentField)
	case FocusSearch:
		m.form.Blur()
		return m.search.Focus()
	default:
		m.form.Blur()
		return nil
	}
}

func (m *Model) editorWidth() int {
	w := m.width - 4
	if m.showList {
		w -= listWidth + 2
	}
	return max(w, 20)
}

// resize lays out the editor column: title, content and response share
// what is left after the header, buttons, status and help rows
func (m *Model) resize() {
	w := m.editorWidth()
	reserved := 12
	if m.help.ShowAll {
		reserved += 3
	}
	available := max(m.height-reserved, minContentLines+minResponseRows)
	contentLines := max(available*2/5, minContentLines)
	responseRows := max(available-contentLines, minResponseRows)

	m.form.Resize(w, contentLines)
	m.viewport.Width = w
	m.viewport.Height = responseRows
	m.help.Width = m.width
}

// refreshResponse re-renders the completion Markdown when it or the
// viewport width changed
func (m *Model) refreshResponse() {
	if m.view.CompletionRaw == m.renderedFor && m.viewport.Width == m.renderedWidth {
		return
	}
	m.renderedFor = m.view.CompletionRaw
	m.renderedWidth = m.viewport.Width
	m.viewport.SetContent(renderer.RenderCompletionTerminal(m.view.CompletionRaw, m.viewport.Width-2))
	m.viewport.GotoTop()
}

// View renders the program
func (m Model) View() string {
	meta := fmt.Sprintf("%d prompts · %s", m.view.Total, strings.ToLower(m.view.Mode.String()))
	header := CreateHeader("promptpad", meta)

	editor := m.editorView()
	body := editor
	if m.showList {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.listView(), " ", editor)
	}

	status := ""
	if m.flash.Text != "" {
		status = CreateStatus(m.flash)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		AddMainPadding(body),
		AddMainPadding(status),
		AddMainPadding(m.help.View(m.keys)),
	)
}

func (m Model) listView() string {
	var b strings.Builder
	if m.focus == FocusSearch || m.view.Query != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}

	rows := max(m.height-8, 3)
	inner := listWidth - 4

	switch {
	case m.view.Total == 0:
		b.WriteString(StyleTextDim.Render("No prompts yet."))
	case len(m.view.Records) == 0:
		b.WriteString(StyleTextDim.Render("No prompts match."))
	default:
		start := 0
		if m.cursor >= rows {
			start = m.cursor - rows + 1
		}
		end := min(start+rows, len(m.view.Records))
		for i := start; i < end; i++ {
			p := m.view.Records[i]
			label := truncateLine(displayTitle(p.Title), inner)
			style := StyleUnselected
			switch {
			case m.focus == FocusList && i == m.cursor:
				style = StyleCursor
			case m.view.SelectedID != nil && *m.view.SelectedID == p.ID:
				style = StyleSelected
			}
			b.WriteString(style.Render(label))
			if i < end-1 {
				b.WriteString("\n")
			}
		}
	}

	panel := StylePanel
	if m.focus == FocusList || m.focus == FocusSearch {
		panel = StylePanelFocused
	}
	return panel.Width(listWidth - 2).Render(b.String())
}

func (m Model) editorView() string {
	titleLabel := StyleFormLabel.Render("Title")
	contentLabel := StyleFormLabel.Render("Content")
	if m.focus == FocusTitle {
		titleLabel = StyleFormLabel.Foreground(ColorSecondary).Render("Title")
	}
	if m.focus == FocusContent {
		contentLabel = StyleFormLabel.Foreground(ColorSecondary).Render("Content")
	}

	response := m.viewport.View()
	switch {
	case m.view.SendDisabled:
		response = StyleTextDim.Render("Waiting for the AI...")
	case m.view.CompletionRaw == "":
		response = StyleTextDim.Render("No response yet.")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Left,
		CreateButton(m.view.CopyLabel, "^Y", false),
		CreateButton(m.view.SendLabel, "^R", m.view.SendDisabled),
		CreateButton("Save", "^S", false),
		CreateButton("New", "^N", false),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		titleLabel,
		m.form.TitleView(),
		"",
		contentLabel,
		m.form.ContentView(),
		"",
		StyleFormLabel.Render("Response"),
		StyleResponse.Width(m.viewport.Width).Render(response),
		buttons,
	)
}

func displayTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
