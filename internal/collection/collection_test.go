package collection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dpshade/promptpad/internal/errors"
	"github.com/dpshade/promptpad/internal/models"
	"github.com/dpshade/promptpad/internal/textutil"
)

func frozen(ms int64) Clock {
	return func() time.Time { return time.UnixMilli(ms) }
}

func ids(records []models.PromptRecord) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestCreateInsertsAtFrontAndSelects(t *testing.T) {
	c := New(models.NewAppState(), frozen(1000))

	a, err := c.Create("A", "alpha")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), a.ID)
	assert.Empty(t, a.Response)

	b, err := c.Create("  B  ", "  beta  ")
	require.NoError(t, err)
	assert.Equal(t, "B", b.Title)
	assert.Equal(t, "beta", b.Content)

	assert.Equal(t, []int64{b.ID, a.ID}, ids(c.Filter("")))
	assert.True(t, c.IsSelected(b.ID))
}

func TestCreateIDsStayUniqueUnderFrozenClock(t *testing.T) {
	c := New(models.NewAppState(), frozen(1000))

	seen := map[int64]bool{}
	for i := 0; i < 5; i++ {
		r, err := c.Create("t", "c")
		require.NoError(t, err)
		assert.False(t, seen[r.ID], "duplicate id %d", r.ID)
		seen[r.ID] = true
	}
	assert.Equal(t, []int64{1004, 1003, 1002, 1001, 1000}, ids(c.Filter("")))
}

func TestNewSeedsLastIDFromState(t *testing.T) {
	state := models.AppState{Prompts: []models.PromptRecord{{ID: 5000, Title: "t", Content: "c"}}}
	c := New(state, frozen(10))

	r, err := c.Create("t", "c")
	require.NoError(t, err)
	assert.Equal(t, int64(5001), r.ID)
}

func TestCreateRejectsBlank(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		content string
	}{
		{"empty title", "", "content"},
		{"blank title", "   ", "content"},
		{"empty content", "title", ""},
		{"markup only content", "title", "<div><br></div>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(models.NewAppState(), frozen(1))
			c.SetFormat(textutil.Markup)
			_, err := c.Create(tt.title, tt.content)
			assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
			assert.Equal(t, 0, c.Len())
			_, selected := c.Selected()
			assert.False(t, selected)
		})
	}
}

func TestPlainContentKeepsTags(t *testing.T) {
	c := New(models.NewAppState(), frozen(1))

	r, err := c.Create("Wrapper", "<instructions></instructions>")
	require.NoError(t, err)
	assert.Equal(t, "<instructions></instructions>", r.Content)

	_, err = c.Create("Blank", "  \n ")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))

	got := c.FuzzyFilter("instr")
	require.Len(t, got, 1)
	assert.Equal(t, r.ID, got[0].ID)
}

func TestUpdatePreservesPositionAndResponse(t *testing.T) {
	c := New(models.NewAppState(), frozen(1))
	a, _ := c.Create("A", "a")
	b, _ := c.Create("B", "b")
	require.True(t, c.SetResponse(a.ID, "answer"))

	require.NoError(t, c.Update(a.ID, "A2", "a2"))

	got, ok := c.Find(a.ID)
	require.True(t, ok)
	assert.Equal(t, "A2", got.Title)
	assert.Equal(t, "a2", got.Content)
	assert.Equal(t, "answer", got.Response)
	assert.Equal(t, []int64{b.ID, a.ID}, ids(c.Filter("")))
}

func TestUpdateErrors(t *testing.T) {
	c := New(models.NewAppState(), frozen(1))
	a, _ := c.Create("A", "a")

	err := c.Update(999, "x", "y")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))

	err = c.Update(a.ID, "", "y")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
	got, _ := c.Find(a.ID)
	assert.Equal(t, "A", got.Title)
}

func TestRemove(t *testing.T) {
	c := New(models.NewAppState(), frozen(1))
	a, _ := c.Create("A", "a")
	b, _ := c.Create("B", "b")

	assert.False(t, c.Remove(12345))
	assert.Equal(t, 2, c.Len())

	require.True(t, c.Select(a.ID))
	assert.True(t, c.Remove(b.ID))
	assert.True(t, c.IsSelected(a.ID))

	assert.True(t, c.Remove(a.ID))
	_, selected := c.SelectedID()
	assert.False(t, selected)
	assert.Equal(t, 0, c.Len())
}

func TestSetResponseMissingIsNoop(t *testing.T) {
	c := New(models.NewAppState(), frozen(1))
	assert.False(t, c.SetResponse(7, "text"))
}

func TestFilter(t *testing.T) {
	c := New(models.NewAppState(), frozen(1))
	c.Create("Email draft", "Write to Bob")
	c.Create("SQL helper", "select * from users")
	c.Create("Shopping", "eggs, MILK")

	assert.Len(t, c.Filter(""), 3)
	assert.Equal(t, []string{"Shopping"}, titles(c.Filter("milk")))
	assert.Equal(t, []string{"SQL helper"}, titles(c.Filter("sql")))
	assert.Equal(t, []string{"Email draft"}, titles(c.Filter("BOB")))
	assert.Empty(t, c.Filter("zzz"))

	// filter is pure and keeps order
	all := c.Filter("")
	assert.Equal(t, all, c.Filter(""))
	assert.Equal(t, 3, c.Len())
}

func TestFuzzyFilter(t *testing.T) {
	c := New(models.NewAppState(), frozen(1))
	c.Create("Translate to French", "translate the text below")
	c.Create("Code review", "review this diff")

	got := c.FuzzyFilter("rvw")
	require.NotEmpty(t, got)
	assert.Equal(t, "Code review", got[0].Title)

	assert.Len(t, c.FuzzyFilter(""), 2)
}

func TestSelectUnknownKeepsSelection(t *testing.T) {
	c := New(models.NewAppState(), frozen(1))
	a, _ := c.Create("A", "a")

	assert.False(t, c.Select(999))
	assert.True(t, c.IsSelected(a.ID))

	c.ClearSelection()
	_, ok := c.Selected()
	assert.False(t, ok)
}

func TestSnapshotIsACopy(t *testing.T) {
	c := New(models.NewAppState(), frozen(1))
	a, _ := c.Create("A", "a")

	snap := c.Snapshot()
	require.NotNil(t, snap.SelectedID)
	assert.Equal(t, a.ID, *snap.SelectedID)

	snap.Prompts[0].Title = "mutated"
	got, _ := c.Find(a.ID)
	assert.Equal(t, "A", got.Title)
}

func TestNewDropsDanglingSelection(t *testing.T) {
	state := models.AppState{
		Prompts:    []models.PromptRecord{{ID: 1, Title: "t", Content: "c"}},
		SelectedID: models.IDPtr(2),
	}
	c := New(state, nil)
	_, ok := c.SelectedID()
	assert.False(t, ok)
}

func titles(records []models.PromptRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Title)
	}
	return out
}
