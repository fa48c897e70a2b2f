package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"csdash/internal/config"
	"csdash/internal/engine"
	"csdash/internal/models"
	"csdash/internal/observability"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockQuestionService struct {
	mock.Mock
}

func (m *mockQuestionService) GetQuestionHistory(ctx context.Context, projectID int) (models.HistoryByDate, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.HistoryByDate), args.Error(1)
}

func (m *mockQuestionService) SubmitAnswer(ctx context.Context, questionID int, answer string) (string, error) {
	args := m.Called(ctx, questionID, answer)
	return args.String(0), args.Error(1)
}

func (m *mockQuestionService) SaveQuestion(ctx context.Context, questionID int) (bool, error) {
	args := m.Called(ctx, questionID)
	return args.Bool(0), args.Error(1)
}

func (m *mockQuestionService) BookmarkQuestion(ctx context.Context, questionID int) (bool, error) {
	args := m.Called(ctx, questionID)
	return args.Bool(0), args.Error(1)
}

func (m *mockQuestionService) GetBookmarkedIDs(ctx context.Context, projectID int) (models.BookmarkSet, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.BookmarkSet), args.Error(1)
}

func intPtr(v int) *int {
	return &v
}

func testLogger() *observability.Logger {
	return observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{SessionSecret: "test-secret"},
		Engine: config.EngineConfig{HistoryTabID: config.HistoryTabID},
	}
}

func newHistoryTestRouter(svc *mockQuestionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	logger := testLogger()
	cache := engine.NewMemoryCache()
	engines := engine.NewManager(svc, cache, cfg.Engine.HistoryTabID, 0, logger)
	h := NewHistoryHandler(engines, svc, cache, cfg, logger)

	router := gin.New()
	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	router.Use(sessions.Sessions(config.SessionName, store))

	router.GET("/v1/projects/:id/bookmarks", h.GetBookmarks)
	router.GET("/v1/projects/:id/history", h.GetHistory)
	router.POST("/v1/projects/:id/history/refresh", h.RefreshHistory)
	router.POST("/v1/projects/:id/history/dates/:date/toggle", h.ToggleDate)
	router.POST("/v1/projects/:id/tab", h.SetTab)
	router.POST("/v1/projects/:id/active-questions", h.SetActiveQuestions)
	router.POST("/v1/projects/:id/questions/select", h.SelectQuestion)
	router.POST("/v1/projects/:id/questions/:qid/answer", h.SubmitAnswer)
	router.POST("/v1/projects/:id/questions/:qid/bookmark", h.BookmarkQuestion)
	router.POST("/v1/projects/:id/questions/:qid/save", h.SaveQuestion)
	return router
}

// doJSON performs a request, carrying cookies between calls so consecutive
// requests land on the same engine session.
type testClient struct {
	router  *gin.Engine
	cookies []*http.Cookie
}

func (tc *testClient) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, ck := range tc.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	tc.router.ServeHTTP(w, req)
	if set := w.Result().Cookies(); len(set) > 0 {
		tc.cookies = set
	}
	return w
}

func expectInitialLoad(svc *mockQuestionService, projectID int, history models.HistoryByDate) {
	svc.On("GetBookmarkedIDs", mock.Anything, projectID).Return(models.NewBookmarkSet(), nil).Once()
	svc.On("GetQuestionHistory", mock.Anything, projectID).Return(history, nil).Once()
}

func TestGetHistoryReturnsSnapshot(t *testing.T) {
	svc := &mockQuestionService{}
	expectInitialLoad(svc, 1, models.HistoryByDate{
		"2025-10-30": {{ID: 1, Question: "클로저란 무엇인가요?"}},
		"2025-10-29": {{ID: 2, Question: "이벤트 루프를 설명해주세요."}},
	})

	tc := &testClient{router: newHistoryTestRouter(svc)}
	w := tc.do(t, http.MethodGet, "/v1/projects/1/history", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snap engine.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.Len(t, snap.Groups, 2)
	assert.Equal(t, "2025-10-30", snap.Groups[0].Date)
	assert.Equal(t, 2, snap.Total)
	assert.False(t, snap.Stale)
	svc.AssertExpectations(t)
}

func TestGetHistoryEmptyState(t *testing.T) {
	svc := &mockQuestionService{}
	expectInitialLoad(svc, 1, models.HistoryByDate{})

	tc := &testClient{router: newHistoryTestRouter(svc)}
	w := tc.do(t, http.MethodGet, "/v1/projects/1/history", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snap engine.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.True(t, snap.Empty)
	assert.Equal(t, engine.EmptyHistoryMessage, snap.EmptyMessage)
}

func TestRefreshFailureReturnsStaleSnapshot(t *testing.T) {
	svc := &mockQuestionService{}
	expectInitialLoad(svc, 1, models.HistoryByDate{
		"2025-10-30": {{ID: 1}},
	})
	svc.On("GetQuestionHistory", mock.Anything, 1).
		Return(nil, errors.New("upstream down")).Once()

	tc := &testClient{router: newHistoryTestRouter(svc)}
	tc.do(t, http.MethodGet, "/v1/projects/1/history", "")

	w := tc.do(t, http.MethodPost, "/v1/projects/1/history/refresh", "")
	require.Equal(t, http.StatusOK, w.Code, "stale data is served, not an error page")

	var snap engine.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.True(t, snap.Stale)
	require.Len(t, snap.Groups, 1, "previous data retained")
}

func TestSetTabEdgeTriggersRefresh(t *testing.T) {
	svc := &mockQuestionService{}
	expectInitialLoad(svc, 1, models.HistoryByDate{})
	svc.On("GetQuestionHistory", mock.Anything, 1).Return(models.HistoryByDate{}, nil).Once()

	tc := &testClient{router: newHistoryTestRouter(svc)}

	w := tc.do(t, http.MethodPost, "/v1/projects/1/tab", `{"tab":"overview"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["refreshed"])

	w = tc.do(t, http.MethodPost, "/v1/projects/1/tab", `{"tab":"question-history"}`)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["refreshed"])

	w = tc.do(t, http.MethodPost, "/v1/projects/1/tab", `{"tab":"question-history"}`)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["refreshed"], "no edge while staying on the tab")
	svc.AssertExpectations(t)
}

func TestSubmitAnswerEndpoint(t *testing.T) {
	svc := &mockQuestionService{}
	expectInitialLoad(svc, 1, models.HistoryByDate{
		"2025-10-30": {{ID: 10, Question: "프로세스와 스레드의 차이는?"}},
	})
	svc.On("SubmitAnswer", mock.Anything, 10, "프로세스는 독립된 메모리를 가집니다.").
		Return("Good answer!", nil).Once()

	tc := &testClient{router: newHistoryTestRouter(svc)}
	w := tc.do(t, http.MethodPost, "/v1/projects/1/questions/10/answer",
		`{"answer":"프로세스는 독립된 메모리를 가집니다."}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Feedback string          `json:"feedback"`
		Snapshot engine.Snapshot `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Good answer!", resp.Feedback)
	assert.Equal(t, engine.StateAnswered, resp.Snapshot.AnswerState)
	svc.AssertExpectations(t)
}

func TestSubmitAnswerUnknownQuestionIs404(t *testing.T) {
	svc := &mockQuestionService{}
	expectInitialLoad(svc, 1, models.HistoryByDate{})

	tc := &testClient{router: newHistoryTestRouter(svc)}
	w := tc.do(t, http.MethodPost, "/v1/projects/1/questions/999/answer", `{"answer":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitAnswerUpstreamFailureIsBadGateway(t *testing.T) {
	svc := &mockQuestionService{}
	expectInitialLoad(svc, 1, models.HistoryByDate{
		"2025-10-30": {{ID: 10}},
	})
	svc.On("SubmitAnswer", mock.Anything, 10, "my answer").
		Return("", errors.New("backend unavailable")).Once()

	tc := &testClient{router: newHistoryTestRouter(svc)}
	w := tc.do(t, http.MethodPost, "/v1/projects/1/questions/10/answer", `{"answer":"my answer"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, engine.SubmissionErrorAdvisory, resp["message"])
}

func TestSubmitAnswerActiveQuestionIsConflict(t *testing.T) {
	svc := &mockQuestionService{}
	expectInitialLoad(svc, 1, models.HistoryByDate{
		"2025-10-30": {{ID: 10}},
	})

	tc := &testClient{router: newHistoryTestRouter(svc)}
	w := tc.do(t, http.MethodPost, "/v1/projects/1/active-questions", `{"ids":[10]}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = tc.do(t, http.MethodPost, "/v1/projects/1/questions/10/answer", `{"answer":"blocked"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBookmarkEndpointTogglesFlag(t *testing.T) {
	svc := &mockQuestionService{}
	expectInitialLoad(svc, 1, models.HistoryByDate{
		"2025-10-30": {{ID: 10, FolderName: "components"}},
	})
	svc.On("BookmarkQuestion", mock.Anything, 10).Return(true, nil).Twice()

	tc := &testClient{router: newHistoryTestRouter(svc)}

	w := tc.do(t, http.MethodPost, "/v1/projects/1/questions/10/bookmark", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["bookmarked"])

	w = tc.do(t, http.MethodPost, "/v1/projects/1/questions/10/bookmark", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["bookmarked"])
	svc.AssertExpectations(t)
}

func TestBookmarkCollectionServedThroughCache(t *testing.T) {
	svc := &mockQuestionService{}
	// First read fills the cache; the second must not reach the service.
	svc.On("GetBookmarkedIDs", mock.Anything, 1).Return(models.NewBookmarkSet(), nil).Once()
	// Session creation on the toggle loads its own copy.
	svc.On("GetBookmarkedIDs", mock.Anything, 1).Return(models.NewBookmarkSet(), nil).Once()
	// The confirmed toggle drops the cached entry, so the next read refetches.
	svc.On("GetBookmarkedIDs", mock.Anything, 1).Return(models.NewBookmarkSet(77), nil).Once()
	svc.On("GetQuestionHistory", mock.Anything, 1).Return(models.HistoryByDate{
		"2025-10-30": {{ID: 1, CSQuestionID: intPtr(77)}},
	}, nil).Once()
	svc.On("BookmarkQuestion", mock.Anything, 77).Return(true, nil).Once()

	tc := &testClient{router: newHistoryTestRouter(svc)}

	w := tc.do(t, http.MethodGet, "/v1/projects/1/bookmarks", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = tc.do(t, http.MethodGet, "/v1/projects/1/bookmarks", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = tc.do(t, http.MethodPost, "/v1/projects/1/questions/77/bookmark", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = tc.do(t, http.MethodGet, "/v1/projects/1/bookmarks", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Bookmarked []int `json:"bookmarked"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []int{77}, resp.Bookmarked)
	svc.AssertExpectations(t)
}

func TestSaveQuestionEndpoint(t *testing.T) {
	svc := &mockQuestionService{}
	expectInitialLoad(svc, 1, models.HistoryByDate{})
	svc.On("SaveQuestion", mock.Anything, 55).Return(true, nil).Once()

	tc := &testClient{router: newHistoryTestRouter(svc)}
	w := tc.do(t, http.MethodPost, "/v1/projects/1/questions/55/save", "")
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestToggleDateEndpoint(t *testing.T) {
	svc := &mockQuestionService{}
	expectInitialLoad(svc, 1, models.HistoryByDate{
		"2025-10-30": {{ID: 1}},
	})

	tc := &testClient{router: newHistoryTestRouter(svc)}
	w := tc.do(t, http.MethodPost, "/v1/projects/1/history/dates/2025-10-30/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snap engine.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.Len(t, snap.Groups, 1)
	assert.False(t, snap.Groups[0].Expanded)

	w = tc.do(t, http.MethodPost, "/v1/projects/1/history/dates/not-a-date/toggle", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvalidProjectIDRejected(t *testing.T) {
	svc := &mockQuestionService{}
	tc := &testClient{router: newHistoryTestRouter(svc)}
	w := tc.do(t, http.MethodGet, "/v1/projects/abc/history", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSelectQuestionWithoutIdentityRejected(t *testing.T) {
	svc := &mockQuestionService{}
	expectInitialLoad(svc, 1, models.HistoryByDate{})

	tc := &testClient{router: newHistoryTestRouter(svc)}
	w := tc.do(t, http.MethodPost, "/v1/projects/1/questions/select",
		`{"question":{"id":0,"question":"identity-less record"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
