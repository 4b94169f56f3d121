package controller

import (
	"html/template"
	"time"

	"github.com/dpshade/promptpad/internal/models"
)

// Control labels
const (
	CopyLabel    = "Copy"
	CopiedLabel  = "Copied!"
	SendLabel    = "Send"
	SendingLabel = "Sending..."
)

// CopyConfirmDuration is how long the copy control reads "Copied!"
const CopyConfirmDuration = 2 * time.Second

// User-visible messages
const (
	MsgSaved          = "Prompt saved successfully!"
	MsgEmptyFields    = "Title and content cannot be empty."
	MsgNothingToCopy  = "Nothing to copy."
	MsgCopyFailed     = "Could not copy the content."
	MsgSelectToSend   = "Please save and select a prompt before sending it to the AI."
	MsgNothingToSend  = "There is no content to send."
	MsgSendFailed     = "Could not send the prompt."
	MsgRequestPending = "A request is already in progress."
)

// Mode is the editor's state
type Mode int

const (
	// ModeNew means no selection; the editor holds an unsaved draft
	ModeNew Mode = iota
	// ModeSelected means the editor shows a stored record
	ModeSelected
)

func (m Mode) String() string {
	if m == ModeSelected {
		return "SELECTED"
	}
	return "NEW"
}

// FlashKind classifies a transient message
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

// Flash is a transient message for the user
type Flash struct {
	Text string
	Kind FlashKind
}

// View is everything a presentation layer needs to draw the page
type View struct {
	Mode       Mode
	SelectedID *int64

	Title        string
	Content      string
	TitleClass   string
	ContentClass string

	CompletionRaw  string
	CompletionHTML template.HTML

	Query    string
	Records  []models.PromptRecord // filtered by Query, newest first
	ListHTML template.HTML
	Total    int

	Flash Flash

	CopyLabel    string
	SendLabel    string
	SendDisabled bool
}

// Selected reports whether the view shows a stored record
func (v View) Selected() bool {
	return v.Mode == ModeSelected
}
