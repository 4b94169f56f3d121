// Package controller owns the selection state machine and turns user
// intents into collection, storage and view updates. Every presentation
// layer (browser page, terminal UI, CLI) drives the same Controller.
package controller

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dpshade/promptpad/internal/clipboard"
	"github.com/dpshade/promptpad/internal/collection"
	"github.com/dpshade/promptpad/internal/completion"
	apperrors "github.com/dpshade/promptpad/internal/errors"
	"github.com/dpshade/promptpad/internal/logger"
	"github.com/dpshade/promptpad/internal/models"
	"github.com/dpshade/promptpad/internal/renderer"
	"github.com/dpshade/promptpad/internal/textutil"
)

// Store persists the application state. *storage.Storage satisfies it.
type Store interface {
	Save(state models.AppState)
}

// Options wires a Controller's collaborators. Nil fields get defaults.
type Options struct {
	Store     Store
	Clipboard clipboard.Writer
	Completer completion.Requester
	Renderer  *renderer.Renderer
	Clock     func() time.Time
	Logger    *logger.Logger
	// Format says how editor content is read; the shipped editors are plain
	Format textutil.Format
}

// Controller serializes intents with a mutex. The mutex is not held while
// a completion request is in flight.
type Controller struct {
	mu sync.Mutex

	coll      *collection.Collection
	store     Store
	clip      clipboard.Writer
	completer completion.Requester
	render    *renderer.Renderer
	now       func() time.Time
	log       *logger.Logger
	format    textutil.Format

	title         string
	content       string
	completionRaw string
	query         string
	flash         Flash
	copiedAt      time.Time
	inFlight      bool
}

// NewController creates a controller over a loaded state. A persisted
// selection is restored into the editor.
func NewController(state models.AppState, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Renderer == nil {
		opts.Renderer = renderer.NewRenderer(renderer.Options{Format: opts.Format})
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.System{}
	}
	if opts.Completer == nil {
		opts.Completer = completion.NewClient(completion.DefaultEndpoint, nil)
	}

	c := &Controller{
		coll:      collection.New(state, opts.Clock),
		store:     opts.Store,
		clip:      opts.Clipboard,
		completer: opts.Completer,
		render:    opts.Renderer,
		now:       opts.Clock,
		log:       opts.Logger.WithComponent("controller"),
		format:    opts.Format,
	}
	c.coll.SetFormat(opts.Format)
	if p, ok := c.coll.Selected(); ok {
		c.load(p)
	}
	return c
}

// Dispatch applies one intent and returns the resulting view
func (c *Controller) Dispatch(in Intent) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.flash = Flash{}

	var err error
	switch in := in.(type) {
	case New:
		c.handleNew()
	case Save:
		err = c.handleSave(in)
	case Select:
		err = c.handleSelect(in)
	case Remove:
		c.handleRemove(in)
	case Search:
		c.query = in.Query
	case Copy:
		err = c.handleCopy(in)
	case Edit:
		c.title = in.Title
		c.content = in.Content
	default:
		err = apperrors.InvalidInputError(fmt.Sprintf("unknown intent %T", in))
	}

	return Result{View: c.view(), Err: err}
}

func (c *Controller) handleNew() {
	c.coll.ClearSelection()
	c.clearEditor()
}

func (c *Controller) handleSave(in Save) error {
	c.title = in.Title
	c.content = in.Content

	if id, ok := c.coll.SelectedID(); ok {
		if err := c.coll.Update(id, in.Title, in.Content); err != nil {
			return c.fail(err)
		}
		p, _ := c.coll.Find(id)
		c.title, c.content = p.Title, p.Content
	} else {
		p, err := c.coll.Create(in.Title, in.Content)
		if err != nil {
			return c.fail(err)
		}
		c.title, c.content = p.Title, p.Content
	}

	c.persist()
	c.flash = Flash{Text: MsgSaved, Kind: FlashSuccess}
	return nil
}

func (c *Controller) handleSelect(in Select) error {
	if !c.coll.Select(in.ID) {
		return apperrors.NotFoundError("prompt").WithContext("id", in.ID)
	}
	p, _ := c.coll.Find(in.ID)
	c.load(p)
	return nil
}

func (c *Controller) handleRemove(in Remove) {
	wasSelected := c.coll.IsSelected(in.ID)
	if !c.coll.Remove(in.ID) {
		return
	}
	if wasSelected {
		c.clearEditor()
	}
	c.persist()
}

func (c *Controller) handleCopy(in Copy) error {
	c.content = in.Content

	text := c.format.Text(in.Content)
	if text == "" {
		c.flash = Flash{Text: MsgNothingToCopy, Kind: FlashError}
		return apperrors.ValidationError(MsgNothingToCopy)
	}

	if err := c.clip.WriteAll(text); err != nil {
		c.log.Warn("copy failed", zap.Error(err))
		c.flash = Flash{Text: MsgCopyFailed, Kind: FlashError}
		return apperrors.ClipboardError(err)
	}

	c.copiedAt = c.now()
	return nil
}

// fail shows a validation message; other errors keep their own message
func (c *Controller) fail(err error) error {
	if apperrors.Is(err, apperrors.ErrCodeValidation) {
		c.flash = Flash{Text: MsgEmptyFields, Kind: FlashError}
	} else {
		c.flash = Flash{Text: apperrors.UserMessage(err), Kind: FlashError}
	}
	return err
}

func (c *Controller) load(p models.PromptRecord) {
	c.title = p.Title
	c.content = p.Content
	c.completionRaw = p.Response
}

func (c *Controller) clearEditor() {
	c.title = ""
	c.content = ""
	c.completionRaw = ""
}

func (c *Controller) persist() {
	if c.store != nil {
		c.store.Save(c.coll.Snapshot())
	}
}

// View returns the current view without changing state
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view()
}

// DismissFlash clears the transient message once it has been shown
func (c *Controller) DismissFlash() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flash = Flash{}
}

// Snapshot returns the state as it would be persisted
func (c *Controller) Snapshot() models.AppState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coll.Snapshot()
}

// Find returns a stored record
func (c *Controller) Find(id int64) (models.PromptRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coll.Find(id)
}

// FuzzySearch ranks records by fuzzy match without touching the view
func (c *Controller) FuzzySearch(query string) []models.PromptRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coll.FuzzyFilter(query)
}

// Format reports how stored content is read
func (c *Controller) Format() textutil.Format {
	return c.format
}

func (c *Controller) copyRemaining() time.Duration {
	if c.copiedAt.IsZero() {
		return 0
	}
	left := CopyConfirmDuration - c.now().Sub(c.copiedAt)
	if left < 0 {
		return 0
	}
	return left
}

func (c *Controller) view() View {
	records := c.coll.Filter(c.query)
	var selected *int64
	if id, ok := c.coll.SelectedID(); ok {
		selected = models.IDPtr(id)
	}

	v := View{
		Mode:          ModeNew,
		SelectedID:    selected,
		Title:         c.title,
		Content:       c.content,
		TitleClass:    renderer.EditableState(c.format.HasText(c.title)),
		ContentClass:  renderer.EditableState(c.format.HasText(c.content)),
		CompletionRaw: c.completionRaw,
		Query:         c.query,
		Records:       records,
		ListHTML:      c.render.RenderList(records, selected),
		Total:         c.coll.Len(),
		Flash:         c.flash,
		CopyLabel:     CopyLabel,
		SendLabel:     SendLabel,
		SendDisabled:  c.inFlight,
	}
	if selected != nil {
		v.Mode = ModeSelected
	}
	if c.completionRaw != "" {
		v.CompletionHTML = c.render.RenderCompletion(c.completionRaw)
	}
	if c.copyRemaining() > 0 {
		v.CopyLabel = CopiedLabel
	}
	if c.inFlight {
		v.SendLabel = SendingLabel
	}
	return v
}
