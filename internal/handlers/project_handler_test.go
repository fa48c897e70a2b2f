package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"csdash/internal/config"
	"csdash/internal/engine"
	"csdash/internal/models"
	contextutils "csdash/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProjectService struct {
	mock.Mock
}

func (m *mockProjectService) GetProjectByID(ctx context.Context, id int) (*models.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *mockProjectService) DeleteProject(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newProjectTestRouter(projects *mockProjectService, questions *mockQuestionService) (*gin.Engine, *engine.Manager) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	logger := testLogger()
	engines := engine.NewManager(questions, engine.NewMemoryCache(), cfg.Engine.HistoryTabID, 0, logger)
	h := NewProjectHandler(projects, engines, cfg, logger)

	router := gin.New()
	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	router.Use(sessions.Sessions(config.SessionName, store))
	router.GET("/v1/projects/:id", h.GetProject)
	router.DELETE("/v1/projects/:id", h.DeleteProject)
	return router, engines
}

func TestGetProjectOK(t *testing.T) {
	projects := &mockProjectService{}
	projects.On("GetProjectByID", mock.Anything, 3).Return(&models.Project{
		ID:    3,
		Title: "shopping-mall",
		Files: []string{"src/App.tsx"},
	}, nil).Once()

	router, _ := newProjectTestRouter(projects, &mockQuestionService{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/projects/3", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var p models.Project
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "shopping-mall", p.Title)
	projects.AssertExpectations(t)
}

func TestGetProjectNotFound(t *testing.T) {
	projects := &mockProjectService{}
	projects.On("GetProjectByID", mock.Anything, 9).Return(nil, contextutils.ErrProjectNotFound).Once()

	router, _ := newProjectTestRouter(projects, &mockQuestionService{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/projects/9", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetProjectLoadFailureIsBadGateway(t *testing.T) {
	projects := &mockProjectService{}
	projects.On("GetProjectByID", mock.Anything, 9).Return(nil, errors.New("connection reset")).Once()

	router, _ := newProjectTestRouter(projects, &mockQuestionService{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/projects/9", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestDeleteProjectClosesEngineSessions(t *testing.T) {
	projects := &mockProjectService{}
	projects.On("DeleteProject", mock.Anything, 3).Return(nil).Once()

	questions := &mockQuestionService{}
	questions.On("GetBookmarkedIDs", mock.Anything, 3).Return(models.NewBookmarkSet(), nil)
	questions.On("GetQuestionHistory", mock.Anything, 3).Return(models.HistoryByDate{}, nil)

	router, engines := newProjectTestRouter(projects, questions)
	engines.GetOrCreate(context.Background(), "sess-a", 3)
	require.Equal(t, 1, engines.Len())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/projects/3", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, engines.Len(), "engine sessions for the project are torn down")
	projects.AssertExpectations(t)
}

func TestDeleteProjectInvalidID(t *testing.T) {
	router, _ := newProjectTestRouter(&mockProjectService{}, &mockQuestionService{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/projects/-1", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
