package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studybuddy/internal/appstate"
	"studybuddy/internal/asynctask"
	"studybuddy/internal/contact"
	"studybuddy/internal/logger"
	"studybuddy/internal/metrics"
	"studybuddy/internal/opentdb"
	"studybuddy/internal/quiz"
	"studybuddy/internal/study"
)

type testServer struct {
	handler  http.Handler
	settings *appstate.Store
}

func newTestServer(t *testing.T, platform study.Platform, relay http.HandlerFunc) *testServer {
	t.Helper()

	fetcher := func(context.Context, int) ([]opentdb.RawQuestion, error) {
		return []opentdb.RawQuestion{{
			Type:             "multiple",
			Category:         "Science",
			Question:         "H2O is?",
			CorrectAnswer:    "Water",
			IncorrectAnswers: []string{"Salt", "Sand", "Air"},
		}}, nil
	}
	service := quiz.NewService(quiz.NewCatalog(quiz.SampleQuestionSet()), quiz.NewMemoryHistory(), fetcher)
	m := metrics.NewMetrics(prometheus.NewRegistry())
	settings := appstate.NewStore(appstate.DefaultSettings())

	pending := asynctask.Options{Delay: time.Hour}
	chat := study.NewChat(study.Fixed("ok"), pending)
	voice := study.NewVoice(platform, settings, study.Fixed(study.MockVoiceAnswer), pending)
	uploads := study.NewUploads(platform, study.Fixed(study.DefaultUploadSummary), pending)
	t.Cleanup(func() {
		chat.Close()
		voice.Close()
		uploads.Close()
	})

	server := &testServer{settings: settings}
	var relayClient *contact.Relay
	if relay != nil {
		upstream := httptest.NewServer(relay)
		t.Cleanup(upstream.Close)
		relayClient = contact.NewRelay(upstream.URL, upstream.Client())
	}

	api := NewAPI(Dependencies{
		Service:  service,
		Sessions: quiz.NewSessions(service, m),
		Chat:     chat,
		Voice:    voice,
		Uploads:  uploads,
		Settings: settings,
		Relay:    relayClient,
		Logger:   logger.Discard(),
		Metrics:  m,
	})
	server.handler = NewRouter(api, RouterOptions{})
	return server
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	s.handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, body []byte, dst any) {
	t.Helper()
	if err := json.Unmarshal(body, dst); err != nil {
		t.Fatalf("decode %q: %v", string(body), err)
	}
}

func TestStatusRecorderWriteTracksAndTruncates(t *testing.T) {
	base := httptest.NewRecorder()
	recorder := &statusRecorder{
		ResponseWriter: base,
		statusCode:     http.StatusOK,
		maxLogBytes:    10,
	}

	payload := []byte("abcdefghijklmnopqrstuvwxyz")
	written, err := recorder.Write(payload)
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if written != len(payload) {
		t.Fatalf("written bytes = %d, want %d", written, len(payload))
	}
	if recorder.bytesWritten != len(payload) {
		t.Fatalf("bytesWritten = %d, want %d", recorder.bytesWritten, len(payload))
	}
	if recorder.logBody.Len() != 10 {
		t.Fatalf("log body length = %d, want 10", recorder.logBody.Len())
	}
	if !recorder.truncated {
		t.Fatalf("expected truncated flag to be true")
	}
}

func TestStatusRecorderKeepsShortBodies(t *testing.T) {
	recorder := &statusRecorder{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK, maxLogBytes: 64}

	_, _ = recorder.Write([]byte("short"))
	recorder.WriteHeader(http.StatusTeapot)

	assert.Equal(t, "short", recorder.logBody.String())
	assert.False(t, recorder.truncated)
	assert.Equal(t, http.StatusTeapot, recorder.statusCode)
}

func TestHealthAndRequestID(t *testing.T) {
	server := newTestServer(t, study.PlatformIOS, nil)

	resp := server.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.NotEmpty(t, resp.Header().Get("X-Request-Id"))
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())
}

func TestQuizSessionFlow(t *testing.T) {
	server := newTestServer(t, study.PlatformIOS, nil)

	resp := server.do(t, http.MethodGet, "/quizzes", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var sets questionSetsResponse
	decodeBody(t, resp.Body.Bytes(), &sets)
	require.Len(t, sets.Sets, 1)
	assert.Equal(t, quiz.SampleSetID, sets.Sets[0].SetID)
	assert.Equal(t, 3, sets.Sets[0].QuestionCount)

	resp = server.do(t, http.MethodPost, "/sessions", startSessionRequest{SetID: quiz.SampleSetID})
	require.Equal(t, http.StatusCreated, resp.Code)
	var started sessionResponse
	decodeBody(t, resp.Body.Bytes(), &started)
	require.NotEmpty(t, started.SessionID)
	assert.Equal(t, quiz.StateInProgress, started.State)
	assert.NotContains(t, resp.Body.String(), "correct_index")

	base := "/sessions/" + started.SessionID
	resp = server.do(t, http.MethodPost, base+"/advance", nil)
	assert.Equal(t, http.StatusConflict, resp.Code)

	var current sessionResponse
	for idx, letter := range []string{"A", "C", "A"} {
		resp = server.do(t, http.MethodPost, base+"/answer", answerRequest{Letter: letter})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		resp = server.do(t, http.MethodPost, base+"/advance", nil)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		decodeBody(t, resp.Body.Bytes(), &current)
		if idx < 2 {
			assert.Equal(t, idx+1, current.CurrentIndex)
		}
	}

	assert.Equal(t, quiz.StateCompleted, current.State)
	require.NotNil(t, current.Result)
	assert.Equal(t, 100, current.Result.Score)
	assert.Equal(t, quiz.GradeA, current.Result.Grade)
	assert.Empty(t, current.Warnings)

	resp = server.do(t, http.MethodPost, base+"/acknowledge", nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)
	resp = server.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = server.do(t, http.MethodGet, "/history", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var history historyResponse
	decodeBody(t, resp.Body.Bytes(), &history)
	require.Len(t, history.Results, 1)
	assert.Nil(t, history.Results[0].Review)

	resp = server.do(t, http.MethodGet, "/history?review=1", nil)
	decodeBody(t, resp.Body.Bytes(), &history)
	require.Len(t, history.Results, 1)
	assert.Len(t, history.Results[0].Review, 3)

	resp = server.do(t, http.MethodGet, "/progress", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var progress quiz.ProgressSummary
	decodeBody(t, resp.Body.Bytes(), &progress)
	assert.Equal(t, 1, progress.QuizzesTaken)
	assert.Equal(t, 100, progress.BestScore)
}

func TestSessionAnswerValidation(t *testing.T) {
	server := newTestServer(t, study.PlatformIOS, nil)

	resp := server.do(t, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.Code)
	var started sessionResponse
	decodeBody(t, resp.Body.Bytes(), &started)
	assert.Equal(t, quiz.SampleSetID, started.SetID)

	base := "/sessions/" + started.SessionID
	resp = server.do(t, http.MethodPost, base+"/answer", map[string]int{"option_index": 7})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = server.do(t, http.MethodPost, base+"/answer", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	req := httptest.NewRequest(http.MethodPost, base+"/answer", strings.NewReader("{"))
	recorder := httptest.NewRecorder()
	server.handler.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	resp = server.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)
	resp = server.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestStartSessionUnknownSet(t *testing.T) {
	server := newTestServer(t, study.PlatformIOS, nil)

	resp := server.do(t, http.MethodPost, "/sessions", startSessionRequest{SetID: "missing"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
	resp = server.do(t, http.MethodGet, "/quizzes/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestImportQuizHidesAnswerKey(t *testing.T) {
	server := newTestServer(t, study.PlatformIOS, nil)

	resp := server.do(t, http.MethodPost, "/quizzes/import", importRequest{Title: "Chemistry", Amount: 1})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var summary questionSetSummary
	decodeBody(t, resp.Body.Bytes(), &summary)
	assert.Equal(t, "Chemistry", summary.Title)
	assert.Equal(t, quiz.SourceOpenTDB, summary.Source)
	assert.Equal(t, 1, summary.QuestionCount)

	resp = server.do(t, http.MethodGet, "/quizzes/"+summary.SetID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "H2O is?")
	assert.NotContains(t, resp.Body.String(), "correct_index")
}

func TestChatSendAndPendingConflict(t *testing.T) {
	server := newTestServer(t, study.PlatformIOS, nil)

	resp := server.do(t, http.MethodPost, "/chat/messages", chatSendRequest{Text: "   "})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = server.do(t, http.MethodPost, "/chat/messages", chatSendRequest{Text: "What is velocity?"})
	require.Equal(t, http.StatusAccepted, resp.Code)
	var sent chatSendResponse
	decodeBody(t, resp.Body.Bytes(), &sent)
	assert.True(t, sent.Message.IsUser)
	assert.True(t, sent.Reply.Loading)

	resp = server.do(t, http.MethodPost, "/chat/messages", chatSendRequest{Text: "Again"})
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = server.do(t, http.MethodGet, "/chat/messages", nil)
	var messages chatMessagesResponse
	decodeBody(t, resp.Body.Bytes(), &messages)
	assert.True(t, messages.ReplyPending)
	assert.Len(t, messages.Messages, 3)
	assert.Equal(t, study.Greeting, messages.Messages[0].Text)

	resp = server.do(t, http.MethodGet, "/chat/suggestions", nil)
	var suggestions suggestionsResponse
	decodeBody(t, resp.Body.Bytes(), &suggestions)
	assert.Len(t, suggestions.Suggestions, 4)
}

func TestVoiceRecordingLifecycle(t *testing.T) {
	server := newTestServer(t, study.PlatformAndroid, nil)

	resp := server.do(t, http.MethodDelete, "/voice/recording", nil)
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = server.do(t, http.MethodPost, "/voice/recording", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	resp = server.do(t, http.MethodPost, "/voice/recording", nil)
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = server.do(t, http.MethodDelete, "/voice/recording", nil)
	require.Equal(t, http.StatusAccepted, resp.Code)
	var stopped recordingResponse
	decodeBody(t, resp.Body.Bytes(), &stopped)
	assert.NotEmpty(t, stopped.TaskID)
	assert.False(t, stopped.Recording)

	resp = server.do(t, http.MethodGet, "/voice/sessions", nil)
	var sessions voiceSessionsResponse
	decodeBody(t, resp.Body.Bytes(), &sessions)
	assert.False(t, sessions.Recording)
	assert.True(t, sessions.Processing)
	require.Len(t, sessions.Sessions, 2)
	assert.Equal(t, stopped.TaskID, sessions.Sessions[0].ID)
	assert.Equal(t, study.VoiceProcessing, sessions.Sessions[0].Status)
}

func TestVoiceUnavailableOnWeb(t *testing.T) {
	server := newTestServer(t, study.PlatformWeb, nil)

	resp := server.do(t, http.MethodPost, "/voice/recording", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestUploadsLifecycle(t *testing.T) {
	server := newTestServer(t, study.PlatformWeb, nil)

	resp := server.do(t, http.MethodPost, "/uploads", study.UploadRequest{Name: "photo.jpg", SizeBytes: 1024, Kind: study.KindImage, Source: study.SourceCamera})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = server.do(t, http.MethodPost, "/uploads", study.UploadRequest{Name: "", SizeBytes: 10})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = server.do(t, http.MethodPost, "/uploads", study.UploadRequest{Name: "notes.pdf", SizeBytes: 3 * 1024 * 1024})
	require.Equal(t, http.StatusAccepted, resp.Code)
	var file study.File
	decodeBody(t, resp.Body.Bytes(), &file)
	assert.Equal(t, study.FileProcessing, file.Status)
	assert.Equal(t, study.KindDocument, file.Kind)
	assert.InDelta(t, 3.0, file.SizeMB, 0.001)

	resp = server.do(t, http.MethodGet, "/uploads", nil)
	var listed uploadsResponse
	decodeBody(t, resp.Body.Bytes(), &listed)
	assert.True(t, listed.Processing)
	require.Len(t, listed.Files, 3)
	assert.Equal(t, file.ID, listed.Files[0].ID)

	resp = server.do(t, http.MethodDelete, "/uploads/"+file.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)
	resp = server.do(t, http.MethodDelete, "/uploads/"+file.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSettingsToggleAndPatch(t *testing.T) {
	server := newTestServer(t, study.PlatformIOS, nil)

	resp := server.do(t, http.MethodGet, "/settings", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var settings settingsResponse
	decodeBody(t, resp.Body.Bytes(), &settings)
	assert.False(t, settings.DarkMode)
	assert.NotEmpty(t, settings.Available)

	resp = server.do(t, http.MethodPatch, "/settings", settingsRequest{Toggle: "dark-mode"})
	require.Equal(t, http.StatusOK, resp.Code)
	decodeBody(t, resp.Body.Bytes(), &settings)
	assert.True(t, settings.DarkMode)

	off := false
	resp = server.do(t, http.MethodPatch, "/settings", settingsRequest{VoiceResponses: &off})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, server.settings.Get().VoiceResponses)
	assert.True(t, server.settings.Get().DarkMode)

	resp = server.do(t, http.MethodPatch, "/settings", settingsRequest{Toggle: "volume"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAccountForms(t *testing.T) {
	server := newTestServer(t, study.PlatformIOS, nil)

	resp := server.do(t, http.MethodPost, "/account/signin", map[string]string{"email": "a@b.co"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = server.do(t, http.MethodPost, "/account/signup", map[string]string{
		"full_name":        "Sam Lee",
		"email":            "sam@example.com",
		"password":         "secret",
		"confirm_password": "other",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "Passwords do not match")

	resp = server.do(t, http.MethodPost, "/account/signup", map[string]string{
		"full_name":        "Sam Lee",
		"email":            "sam@example.com",
		"password":         "secret",
		"confirm_password": "secret",
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Contains(t, resp.Body.String(), "switch_to_sign_in\":true")
}

func TestContactRelay(t *testing.T) {
	var calls atomic.Int32
	server := newTestServer(t, study.PlatformWeb, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if strings.Contains(readAll(t, r.Body), "fail") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	resp := server.do(t, http.MethodPost, "/contact", contact.Submission{Name: "Ana", Email: "ana@example.com", Message: "Hi there"})
	require.Equal(t, http.StatusOK, resp.Code)
	var result contact.Result
	decodeBody(t, resp.Body.Bytes(), &result)
	assert.Equal(t, contact.OutcomeSent, result.Outcome)
	assert.True(t, result.ClearForm)

	resp = server.do(t, http.MethodPost, "/contact", contact.Submission{Name: "Ana", Email: "ana@example.com", Message: "please fail"})
	require.Equal(t, http.StatusBadGateway, resp.Code)
	decodeBody(t, resp.Body.Bytes(), &result)
	assert.Equal(t, contact.MessageRejected, result.Message)

	resp = server.do(t, http.MethodPost, "/contact", contact.Submission{Name: "Ana", Email: "not-an-email", Message: "Hi"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = server.do(t, http.MethodPost, "/contact", contact.Submission{Name: "Bot", Email: "bot@example.com", Message: "spam", Honeypot: "x"})
	require.Equal(t, http.StatusOK, resp.Code)
	decodeBody(t, resp.Body.Bytes(), &result)
	assert.Equal(t, contact.OutcomeSuppressed, result.Outcome)

	assert.Equal(t, int32(2), calls.Load())
}

func TestContactUnavailableWithoutRelay(t *testing.T) {
	server := newTestServer(t, study.PlatformWeb, nil)

	resp := server.do(t, http.MethodPost, "/contact", contact.Submission{Name: "Ana", Email: "ana@example.com", Message: "Hi"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	server := newTestServer(t, study.PlatformIOS, nil)

	server.do(t, http.MethodGet, "/quizzes", nil)
	server.do(t, http.MethodGet, "/sessions/nope", nil)

	resp := server.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, "studybuddy_http_requests_total")
	assert.Contains(t, body, `status="404"`)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	server := newTestServer(t, study.PlatformIOS, nil)

	resp := server.do(t, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = server.do(t, http.MethodPut, "/settings", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
}

func TestCORSPreflight(t *testing.T) {
	server := newTestServer(t, study.PlatformWeb, nil)

	req := httptest.NewRequest(http.MethodOptions, "/contact", nil)
	req.Header.Set("Origin", "https://portfolio.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	recorder := httptest.NewRecorder()
	server.handler.ServeHTTP(recorder, req)

	assert.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
}

func TestQuizRoutesWithoutService(t *testing.T) {
	handler := NewRouter(NewAPI(Dependencies{}), RouterOptions{})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/quizzes", nil))
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/chat/messages", nil))
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

func readAll(t *testing.T, r io.Reader) string {
	t.Helper()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}
