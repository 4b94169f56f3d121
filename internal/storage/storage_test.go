package storage

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dpshade/promptpad/internal/errors"
	"github.com/dpshade/promptpad/internal/logger"
	"github.com/dpshade/promptpad/internal/models"
)

type memKV struct {
	data     map[string][]byte
	writeErr error
	readErr  error
	writes   int
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}}
}

func (m *memKV) Read(key string) ([]byte, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.data[key], nil
}

func (m *memKV) Write(key string, val []byte) error {
	m.writes++
	if m.writeErr != nil {
		return m.writeErr
	}
	m.data[key] = val
	return nil
}

func (m *memKV) Has(key string) bool {
	_, ok := m.data[key]
	return ok
}

func sampleState() models.AppState {
	return models.AppState{
		Prompts: []models.PromptRecord{
			{ID: 2000, Title: "B", Content: "<b>bold</b>", Response: "**ok**"},
			{ID: 1000, Title: "A", Content: "plain"},
		},
		SelectedID: models.IDPtr(1000),
	}
}

func TestRoundTripOnDisk(t *testing.T) {
	s := NewStorage(t.TempDir(), logger.NewNop())

	s.Save(sampleState())
	got := s.Load()

	assert.Equal(t, sampleState(), got)
}

func TestLoadMissingIsEmpty(t *testing.T) {
	s := NewStorage(t.TempDir(), logger.NewNop())

	got := s.Load()
	assert.Empty(t, got.Prompts)
	assert.NotNil(t, got.Prompts)
	assert.Nil(t, got.SelectedID)
}

func TestLoadCorruptIsEmpty(t *testing.T) {
	kv := newMemKV()
	kv.data[SnapshotKey] = []byte("{not json")
	s := NewWithKV(kv, logger.NewNop())

	got := s.Load()
	assert.Empty(t, got.Prompts)
	assert.Nil(t, got.SelectedID)
}

func TestLoadReadErrorIsEmpty(t *testing.T) {
	kv := newMemKV()
	kv.data[SnapshotKey] = []byte(`{"prompts":[]}`)
	kv.readErr = errors.New("disk gone")
	s := NewWithKV(kv, nil)

	assert.Empty(t, s.Load().Prompts)
}

func TestLoadClearsDanglingSelection(t *testing.T) {
	kv := newMemKV()
	kv.data[SnapshotKey] = []byte(`{"prompts":[{"id":1,"title":"t","content":"c","response":""}],"selectedId":99}`)
	s := NewWithKV(kv, logger.NewNop())

	got := s.Load()
	require.Len(t, got.Prompts, 1)
	assert.Nil(t, got.SelectedID)
}

func TestSnapshotWireFormat(t *testing.T) {
	kv := newMemKV()
	s := NewWithKV(kv, logger.NewNop())

	s.Save(models.AppState{Prompts: []models.PromptRecord{{ID: 5, Title: "t", Content: "c"}}})

	assert.JSONEq(t,
		`{"prompts":[{"id":5,"title":"t","content":"c","response":""}],"selectedId":null}`,
		string(kv.data[SnapshotKey]))
}

func TestSaveFailureIsSwallowed(t *testing.T) {
	kv := newMemKV()
	kv.writeErr = errors.New("quota exceeded")
	s := NewWithKV(kv, logger.NewNop())

	assert.NotPanics(t, func() { s.Save(sampleState()) })
	assert.Equal(t, 1, kv.writes)
	assert.Empty(t, s.Load().Prompts)
}

func TestExportFormats(t *testing.T) {
	s := NewWithKV(newMemKV(), logger.NewNop())
	s.Save(sampleState())

	var js bytes.Buffer
	require.NoError(t, s.Export(&js, FormatJSON))
	assert.Contains(t, js.String(), `"selectedId": 1000`)

	var ym bytes.Buffer
	require.NoError(t, s.Export(&ym, FormatYAML))
	assert.Contains(t, ym.String(), "selectedId: 1000")
	assert.Contains(t, ym.String(), "title: B")

	err := s.Export(&bytes.Buffer{}, "xml")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidInput))
}

func TestImportMergesNewestFirst(t *testing.T) {
	s := NewWithKV(newMemKV(), logger.NewNop())
	s.Save(sampleState())

	input := `
prompts:
  - id: 1500
    title: imported
    content: from yaml
  - id: 1000
    title: duplicate
    content: skipped
`
	state, added, err := s.Import(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	require.Len(t, state.Prompts, 3)
	assert.Equal(t, []int64{2000, 1500, 1000}, []int64{state.Prompts[0].ID, state.Prompts[1].ID, state.Prompts[2].ID})
	assert.Equal(t, "A", state.Prompts[2].Title)
	assert.Equal(t, state, s.Load())
}

func TestImportJSONExport(t *testing.T) {
	src := NewWithKV(newMemKV(), logger.NewNop())
	src.Save(sampleState())
	var buf bytes.Buffer
	require.NoError(t, src.Export(&buf, FormatJSON))

	dst := NewWithKV(newMemKV(), logger.NewNop())
	state, added, err := dst.Import(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Len(t, state.Prompts, 2)
}

func TestImportRejectsGarbage(t *testing.T) {
	s := NewWithKV(newMemKV(), logger.NewNop())
	_, _, err := s.Import(strings.NewReader("{broken"))
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidInput))
}
