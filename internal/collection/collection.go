// Package collection holds the in-memory prompt list and the current
// selection. Records are kept newest first.
package collection

import (
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	apperrors "github.com/dpshade/promptpad/internal/errors"
	"github.com/dpshade/promptpad/internal/models"
	"github.com/dpshade/promptpad/internal/textutil"
)

// Clock returns the current time; replaced in tests
type Clock func() time.Time

// Collection is the ordered set of prompt records plus the selection.
// It is not safe for concurrent use; the controller serializes access.
type Collection struct {
	prompts  []models.PromptRecord
	selected *int64
	lastID   int64
	now      Clock
	format   textutil.Format
}

// New creates a collection seeded from a loaded state
func New(state models.AppState, now Clock) *Collection {
	if now == nil {
		now = time.Now
	}
	state = state.Normalize()

	c := &Collection{
		prompts: append([]models.PromptRecord{}, state.Prompts...),
		now:     now,
	}
	if state.SelectedID != nil {
		c.selected = models.IDPtr(*state.SelectedID)
	}
	for _, p := range c.prompts {
		if p.ID > c.lastID {
			c.lastID = p.ID
		}
	}
	return c
}

// SetFormat sets how content is read when validating and matching
func (c *Collection) SetFormat(f textutil.Format) {
	c.format = f
}

// Create validates and inserts a new record at the front, then selects it
func (c *Collection) Create(title, content string) (models.PromptRecord, error) {
	title, content, err := c.validate(title, content)
	if err != nil {
		return models.PromptRecord{}, err
	}

	record := models.PromptRecord{
		ID:      c.nextID(),
		Title:   title,
		Content: content,
	}
	c.prompts = append([]models.PromptRecord{record}, c.prompts...)
	c.selected = models.IDPtr(record.ID)
	return record, nil
}

// nextID uses the clock in milliseconds, stepping past the last issued id
// when the clock has not advanced.
func (c *Collection) nextID() int64 {
	id := c.now().UnixMilli()
	if id <= c.lastID {
		id = c.lastID + 1
	}
	c.lastID = id
	return id
}

// Update replaces title and content of an existing record in place
func (c *Collection) Update(id int64, title, content string) error {
	i := c.index(id)
	if i < 0 {
		return apperrors.NotFoundError("prompt").WithContext("id", id)
	}

	title, content, err := c.validate(title, content)
	if err != nil {
		return err
	}

	c.prompts[i].Title = title
	c.prompts[i].Content = content
	return nil
}

// Remove deletes a record, clearing the selection when it pointed at it.
// Reports whether a record was removed.
func (c *Collection) Remove(id int64) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}

	c.prompts = append(c.prompts[:i], c.prompts[i+1:]...)
	if c.IsSelected(id) {
		c.selected = nil
	}
	return true
}

// SetResponse stores the completion text on a record. Reports whether the
// record still exists.
func (c *Collection) SetResponse(id int64, text string) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.prompts[i].Response = text
	return true
}

// Find returns the record with the given id
func (c *Collection) Find(id int64) (models.PromptRecord, bool) {
	if i := c.index(id); i >= 0 {
		return c.prompts[i], true
	}
	return models.PromptRecord{}, false
}

// Filter returns records whose title or content contains query, ignoring
// case, in collection order. An empty query matches everything.
func (c *Collection) Filter(query string) []models.PromptRecord {
	q := strings.ToLower(query)
	result := make([]models.PromptRecord, 0, len(c.prompts))
	for _, p := range c.prompts {
		if q == "" ||
			strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Content), q) {
			result = append(result, p)
		}
	}
	return result
}

// promptSource adapts the collection for fuzzy matching
type promptSource struct {
	records []models.PromptRecord
	format  textutil.Format
}

func (s promptSource) String(i int) string {
	return s.records[i].Title + " " + s.format.Text(s.records[i].Content)
}

func (s promptSource) Len() int {
	return len(s.records)
}

// FuzzyFilter ranks records by fuzzy match against title and displayable
// content, best first. An empty query returns everything in order.
func (c *Collection) FuzzyFilter(query string) []models.PromptRecord {
	if strings.TrimSpace(query) == "" {
		return c.Filter("")
	}

	source := promptSource{records: c.prompts, format: c.format}
	matches := fuzzy.FindFrom(query, source)

	result := make([]models.PromptRecord, 0, len(matches))
	for _, m := range matches {
		result = append(result, c.prompts[m.Index])
	}
	return result
}

// Select makes id the current selection. Reports false, leaving the
// selection untouched, if no such record exists.
func (c *Collection) Select(id int64) bool {
	if c.index(id) < 0 {
		return false
	}
	c.selected = models.IDPtr(id)
	return true
}

// ClearSelection returns to draft mode
func (c *Collection) ClearSelection() {
	c.selected = nil
}

// Selected returns the selected record, if any
func (c *Collection) Selected() (models.PromptRecord, bool) {
	if c.selected == nil {
		return models.PromptRecord{}, false
	}
	return c.Find(*c.selected)
}

// SelectedID returns the selected id, if any
func (c *Collection) SelectedID() (int64, bool) {
	if c.selected == nil {
		return 0, false
	}
	return *c.selected, true
}

// IsSelected reports whether id is the current selection
func (c *Collection) IsSelected(id int64) bool {
	return c.selected != nil && *c.selected == id
}

// Len returns the number of records
func (c *Collection) Len() int {
	return len(c.prompts)
}

// Snapshot returns a copy of the state suitable for persisting
func (c *Collection) Snapshot() models.AppState {
	state := models.AppState{
		Prompts: append([]models.PromptRecord{}, c.prompts...),
	}
	if c.selected != nil {
		state.SelectedID = models.IDPtr(*c.selected)
	}
	return state
}

func (c *Collection) index(id int64) int {
	for i, p := range c.prompts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// validate trims both fields and rejects blank ones. Content counts as
// blank when it displays no text in the collection's format.
func (c *Collection) validate(title, content string) (string, string, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || !c.format.HasText(content) {
		return "", "", apperrors.ValidationError("Title and content cannot be empty.")
	}
	return title, content, nil
}
