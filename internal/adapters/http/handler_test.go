package httpadapter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/PabloGalante/counsel-agent/internal/adapters/http"
	"github.com/PabloGalante/counsel-agent/internal/adapters/llm"
	"github.com/PabloGalante/counsel-agent/internal/adapters/storage/memory"
	"github.com/PabloGalante/counsel-agent/internal/app/conversation"
	"github.com/PabloGalante/counsel-agent/internal/app/risk"
	"github.com/PabloGalante/counsel-agent/internal/app/store"
	"github.com/PabloGalante/counsel-agent/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubUploader struct{ gotName string }

func (u *stubUploader) Upload(_ context.Context, att domain.Attachment) (string, error) {
	u.gotName = att.File.Name
	return "https://res.cloudinary.com/demo/" + att.File.Name, nil
}

type stubRecognizer struct{}

func (stubRecognizer) Identify(context.Context, string) (*domain.Recognition, error) {
	return &domain.Recognition{Matched: true, Title: "Song", Artists: []string{"Band"}}, nil
}

type blockingAnalyzer struct {
	started chan struct{}
	release chan struct{}
}

func (a *blockingAnalyzer) Analyze(context.Context, domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	a.started <- struct{}{}
	<-a.release
	return &domain.AnalysisResult{Summary: "done"}, nil
}

type testServer struct {
	handler  http.Handler
	sessions *conversation.Service
	uploader *stubUploader
}

func newTestServer(t *testing.T, analyzer domain.AnalysisService, recognizer domain.AudioRecognizer) *testServer {
	t.Helper()
	if analyzer == nil {
		analyzer = llm.NewMockAnalyzer()
	}

	uploader := &stubUploader{}
	sessions := conversation.NewService(store.New(memory.NewKVStore()), analyzer, uploader)
	handler := httpadapter.NewServer(httpadapter.Deps{
		Sessions:       sessions,
		Evaluator:      risk.NewEvaluator(risk.DefaultPolicy()),
		Recognizer:     recognizer,
		MaxUploadBytes: 1 << 20,
	})
	t.Cleanup(sessions.Wait)
	return &testServer{handler: handler, sessions: sessions, uploader: uploader}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type thread struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type message struct {
	ID               string `json:"id"`
	Role             string `json:"role"`
	Text             string `json:"text"`
	AttachmentURL    string `json:"attachment_url"`
	DisplayableImage bool   `json:"displayable_image"`
	Pending          bool   `json:"pending"`
	Failed           bool   `json:"failed"`
}

type submitResult struct {
	UserMessage      message `json:"user_message"`
	AssistantMessage message `json:"assistant_message"`
	Error            string  `json:"error"`
}

func (s *testServer) createThread(t *testing.T, name string) thread {
	t.Helper()
	w := s.do(t, http.MethodPost, "/threads", `{"name":"`+name+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[thread](t, w)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	w := srv.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-123")
	w := httptest.NewRecorder()
	srv.handler.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-Id"))
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	w := srv.do(t, http.MethodOptions, "/threads", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	srv.do(t, http.MethodGet, "/healthz", "")

	w := srv.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "counsel_api_requests_total")
}

func TestThreadLifecycle(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	first := srv.createThread(t, "first")
	second := srv.createThread(t, "second")
	assert.True(t, second.Active)

	w := srv.do(t, http.MethodPost, "/threads", "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, store.DefaultThreadName, decode[thread](t, w).Name)

	w = srv.do(t, http.MethodPatch, "/threads/"+first.ID, `{"name":"renamed"}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = srv.do(t, http.MethodPatch, "/threads/"+first.ID, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodGet, "/threads?order=desc", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Threads []thread `json:"threads"`
	}](t, w)
	require.Len(t, list.Threads, 3)
	assert.Equal(t, "renamed", list.Threads[2].Name)

	w = srv.do(t, http.MethodDelete, "/threads/"+second.ID, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = srv.do(t, http.MethodGet, "/threads/"+second.ID+"/messages", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitJSON(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	th := srv.createThread(t, "chat")

	w := srv.do(t, http.MethodPost, "/threads/"+th.ID+"/messages",
		`{"text":"Can I use this?","attachment_url":"https://cdn.example.com/a.png"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode[submitResult](t, w)
	assert.Equal(t, "user", res.UserMessage.Role)
	assert.True(t, res.UserMessage.DisplayableImage)
	assert.Equal(t, "assistant", res.AssistantMessage.Role)
	assert.NotEmpty(t, res.AssistantMessage.Text)
	assert.False(t, res.AssistantMessage.Pending)

	w = srv.do(t, http.MethodGet, "/threads/"+th.ID+"/messages", "")
	require.Equal(t, http.StatusOK, w.Code)
	timeline := decode[struct {
		Pending  bool      `json:"pending"`
		Messages []message `json:"messages"`
	}](t, w)
	assert.False(t, timeline.Pending)
	require.Len(t, timeline.Messages, 2)
	assert.Equal(t, "https://cdn.example.com/a.png", timeline.Messages[0].AttachmentURL)
}

func TestSubmitErrors(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	th := srv.createThread(t, "chat")

	w := srv.do(t, http.MethodPost, "/threads/"+th.ID+"/messages", `{"text":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodPost, "/threads/missing/messages", `{"text":"hi"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = srv.do(t, http.MethodPost, "/threads/"+th.ID+"/messages", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitAnalysisFailure(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	th := srv.createThread(t, "chat")

	w := srv.do(t, http.MethodPost, "/threads/"+th.ID+"/messages", `{"text":"please #fail"}`)
	require.Equal(t, http.StatusBadGateway, w.Code)

	res := decode[submitResult](t, w)
	assert.Equal(t, "please #fail", res.UserMessage.Text)
	assert.Equal(t, conversation.AnalysisErrorText, res.AssistantMessage.Text)
	assert.True(t, res.AssistantMessage.Failed)
	assert.NotEmpty(t, res.Error)
	assert.False(t, srv.sessions.IsPending(domain.ThreadID(th.ID)))
}

func TestSubmitMultipart(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	th := srv.createThread(t, "chat")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("text", "is this photo ok?"))
	fw, err := mw.CreateFormFile("file", "photo.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("\x89PNG\r\n\x1a\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/threads/"+th.ID+"/messages", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[submitResult](t, w)
	assert.Equal(t, "photo.png", srv.uploader.gotName)
	assert.Equal(t, "https://res.cloudinary.com/demo/photo.png", res.UserMessage.AttachmentURL)
	assert.Equal(t, "is this photo ok?", res.UserMessage.Text)
}

func TestSubmitAsyncAndBusy(t *testing.T) {
	analyzer := &blockingAnalyzer{started: make(chan struct{}, 1), release: make(chan struct{})}
	srv := newTestServer(t, analyzer, nil)
	th := srv.createThread(t, "chat")
	path := "/threads/" + th.ID + "/messages"

	w := srv.do(t, http.MethodPost, path+"?async=true", `{"text":"first"}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	res := decode[submitResult](t, w)
	assert.True(t, res.AssistantMessage.Pending)
	<-analyzer.started

	w = srv.do(t, http.MethodPost, path, `{"text":"second"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = srv.do(t, http.MethodDelete, "/threads/"+th.ID, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	close(analyzer.release)
	srv.sessions.Wait()

	w = srv.do(t, http.MethodGet, path, "")
	timeline := decode[struct {
		Messages []message `json:"messages"`
	}](t, w)
	require.Len(t, timeline.Messages, 2)
	assert.Equal(t, "done", timeline.Messages[1].Text)
}

func TestSessionEndpoints(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	first := srv.createThread(t, "first")
	srv.createThread(t, "second")

	w := srv.do(t, http.MethodPut, "/session/active", `{"thread_id":"`+first.ID+`"}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = srv.do(t, http.MethodPut, "/session/active", `{"thread_id":"missing"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = srv.do(t, http.MethodPut, "/session/draft", `{"text":"half a question"}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = srv.do(t, http.MethodGet, "/session", "")
	require.Equal(t, http.StatusOK, w.Code)
	state := decode[conversation.SessionState](t, w)
	assert.Equal(t, domain.ThreadID(first.ID), state.ActiveThreadID)
	assert.Equal(t, "half a question", state.Draft.Text)
	assert.Empty(t, state.Pending)

	w = srv.do(t, http.MethodDelete, "/session/draft", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = srv.do(t, http.MethodGet, "/session", "")
	state = decode[conversation.SessionState](t, w)
	assert.Empty(t, state.Draft.Text)
	assert.Equal(t, domain.ThreadID(first.ID), state.ActiveThreadID)
}

func TestRiskEndpoints(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	w := srv.do(t, http.MethodGet, "/risk/steps", "")
	require.Equal(t, http.StatusOK, w.Code)
	steps := decode[struct {
		Steps []struct {
			Name    string   `json:"name"`
			Options []string `json:"options"`
		} `json:"steps"`
	}](t, w)
	require.Len(t, steps.Steps, 5)
	assert.Equal(t, "content_type", steps.Steps[0].Name)

	w = srv.do(t, http.MethodPost, "/risk/evaluate",
		`{"content_type":"image","source":"from client","has_license":"no","free_text":"similar to their trademark"}`)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[struct {
		Findings []domain.Finding `json:"findings"`
	}](t, w)

	codes := make([]string, 0, len(res.Findings))
	for _, f := range res.Findings {
		codes = append(codes, f.Code)
	}
	assert.Equal(t, []string{risk.CodeClientLicenseRequired, risk.CodeDerivativeWork, risk.CodeTrademarkUse}, codes)

	w = srv.do(t, http.MethodPost, "/risk/evaluate", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[struct {
		Findings []domain.Finding `json:"findings"`
	}](t, w)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, risk.CodeIncompleteInput, res.Findings[0].Code)
}

func TestAudioIdentify(t *testing.T) {
	w := newTestServer(t, nil, nil).do(t, http.MethodPost, "/audio/identify", `{"url":"https://x.io/a.mp3"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	srv := newTestServer(t, nil, stubRecognizer{})
	w = srv.do(t, http.MethodPost, "/audio/identify", `{"url":"https://x.io/a.mp3"}`)
	require.Equal(t, http.StatusOK, w.Code)
	rec := decode[domain.Recognition](t, w)
	assert.True(t, rec.Matched)
	assert.Equal(t, "Song", rec.Title)

	w = srv.do(t, http.MethodPost, "/audio/identify", `{"url":"not a url"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
