package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpshade/promptpad/internal/completion"
	"github.com/dpshade/promptpad/internal/controller"
	"github.com/dpshade/promptpad/internal/logger"
	"github.com/dpshade/promptpad/internal/models"
)

type stubCompleter struct {
	reply string
	err   error
}

func (s stubCompleter) RequestCompletion(ctx context.Context, text string) (string, error) {
	return s.reply, s.err
}

type stubClipboard struct{ text string }

func (c *stubClipboard) WriteAll(text string) error {
	c.text = text
	return nil
}

type memStore struct{ state models.AppState }

func (m *memStore) Save(state models.AppState) { m.state = state }

type recordingCompleter struct {
	reply string
	got   string
}

func (r *recordingCompleter) RequestCompletion(ctx context.Context, text string) (string, error) {
	r.got = text
	return r.reply, nil
}

func newTestServer(t *testing.T, comp stubCompleter) (http.Handler, *controller.Controller, *stubClipboard) {
	t.Helper()
	return newTestServerWith(t, comp)
}

func newTestServerWith(t *testing.T, comp completion.Requester) (http.Handler, *controller.Controller, *stubClipboard) {
	t.Helper()
	clip := &stubClipboard{}
	ctl := controller.NewController(models.NewAppState(), controller.Options{
		Store:     &memStore{},
		Clipboard: clip,
		Completer: comp,
		Logger:    logger.NewNop(),
	})
	srv, err := NewServer(ctl, "", logger.NewNop())
	require.NoError(t, err)
	return srv.Handler(), ctl, clip
}

func postIntent(t *testing.T, h http.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/intent", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func getPage(t *testing.T, h http.Handler, target string) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestIndexRendersEmptyPage(t *testing.T) {
	h, _, _ := newTestServer(t, stubCompleter{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	body := rec.Body.String()
	assert.Contains(t, body, "No prompts yet.")
	assert.Contains(t, body, `class="field title-wrapper is-empty"`)
	assert.Contains(t, body, ">Copy</button>")
	assert.Contains(t, body, ">Send</button>")
}

func TestSaveRedirectsAndShowsFlashOnce(t *testing.T) {
	h, ctl, _ := newTestServer(t, stubCompleter{})

	rec := postIntent(t, h, url.Values{"action": {"save"}, "title": {"Hello"}, "content": {"World"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	body := getPage(t, h, "/")
	assert.Contains(t, body, "Prompt saved successfully!")
	assert.Contains(t, body, `value="Hello"`)
	assert.Contains(t, body, `<li class="prompt-item active"`)

	assert.NotContains(t, getPage(t, h, "/"), "Prompt saved successfully!")
	assert.Equal(t, 1, ctl.View().Total)
}

func TestSaveBlankShowsError(t *testing.T) {
	h, _, _ := newTestServer(t, stubCompleter{})

	postIntent(t, h, url.Values{"action": {"save"}, "title": {""}, "content": {"x"}})

	assert.Contains(t, getPage(t, h, "/"), "Title and content cannot be empty.")
}

func TestSearchQueryFiltersList(t *testing.T) {
	h, ctl, _ := newTestServer(t, stubCompleter{})
	ctl.Dispatch(controller.Save{Title: "Alpha", Content: "one"})
	ctl.Dispatch(controller.New{})
	ctl.Dispatch(controller.Save{Title: "Beta test", Content: "two"})

	body := getPage(t, h, "/?q=test")
	assert.Contains(t, body, "Beta test")
	assert.NotContains(t, body, "Alpha")

	// the filter sticks until the next search
	assert.NotContains(t, getPage(t, h, "/"), "Alpha")
	assert.Contains(t, getPage(t, h, "/?q="), "Alpha")

	assert.Contains(t, getPage(t, h, "/?q=zzz"), `No prompts match`)
}

func TestSelectAndRemoveFromList(t *testing.T) {
	h, ctl, _ := newTestServer(t, stubCompleter{})
	a := ctl.Dispatch(controller.Save{Title: "First", Content: "one"}).View
	ctl.Dispatch(controller.New{})
	id := *a.SelectedID

	postIntent(t, h, url.Values{"action": {"select"}, "id": {formatID(id)}})
	assert.Equal(t, "First", ctl.View().Title)

	postIntent(t, h, url.Values{"action": {"remove"}, "id": {formatID(id)}})
	v := ctl.View()
	assert.Equal(t, 0, v.Total)
	assert.Equal(t, controller.ModeNew, v.Mode)

	rec := postIntent(t, h, url.Values{"action": {"select"}, "id": {"abc"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCopyChangesLabel(t *testing.T) {
	h, _, clip := newTestServer(t, stubCompleter{})

	postIntent(t, h, url.Values{"action": {"copy"}, "title": {"t"}, "content": {"<b>copy me</b>"}})

	assert.Equal(t, "<b>copy me</b>", clip.text, "textarea text is copied as typed")
	body := getPage(t, h, "/")
	assert.Contains(t, body, ">Copied!</button>")
	assert.Contains(t, body, "&lt;b&gt;copy me&lt;/b&gt;", "draft survives the redirect")
}

func TestTypedTagsReachRelayUnchanged(t *testing.T) {
	typed := "Summarize <doc>hello world</doc> for a Vec<T> user; is x<y true?"
	comp := &recordingCompleter{reply: "done"}
	h, _, clip := newTestServerWith(t, comp)

	postIntent(t, h, url.Values{"action": {"save"}, "title": {"Tags"}, "content": {typed}})
	postIntent(t, h, url.Values{"action": {"copy"}, "title": {"Tags"}, "content": {typed}})
	postIntent(t, h, url.Values{"action": {"send"}, "title": {"Tags"}, "content": {typed}})

	assert.Equal(t, typed, clip.text)
	assert.Equal(t, typed, comp.got)
	body := getPage(t, h, "/")
	assert.Contains(t, body, "&lt;doc&gt;hello world&lt;/doc&gt;")
	assert.NotContains(t, body, "<doc>")
}

func TestSendRendersCompletion(t *testing.T) {
	h, ctl, _ := newTestServer(t, stubCompleter{reply: "**ok**"})
	ctl.Dispatch(controller.Save{Title: "Ask", Content: "question"})

	rec := postIntent(t, h, url.Values{"action": {"send"}, "title": {"Ask"}, "content": {"question"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	assert.Contains(t, getPage(t, h, "/"), "<strong>ok</strong>")
}

func TestSendFailureShowsMessage(t *testing.T) {
	h, ctl, _ := newTestServer(t, stubCompleter{err: errors.New("500")})
	ctl.Dispatch(controller.Save{Title: "Ask", Content: "question"})

	postIntent(t, h, url.Values{"action": {"send"}, "title": {"Ask"}, "content": {"question"}})

	body := getPage(t, h, "/")
	assert.Contains(t, body, "Could not send the prompt.")
	assert.Contains(t, body, ">Send</button>")
}

func TestUnknownAction(t *testing.T) {
	h, _, _ := newTestServer(t, stubCompleter{})
	rec := postIntent(t, h, url.Values{"action": {"explode"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestStateAndStatic(t *testing.T) {
	h, ctl, _ := newTestServer(t, stubCompleter{})
	ctl.Dispatch(controller.Save{Title: "T", Content: "C"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	var state models.AppState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Len(t, state.Prompts, 1)
	assert.NotNil(t, state.SelectedID)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".prompt-item")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func formatID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
