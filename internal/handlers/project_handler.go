package handlers

import (
	"net/http"
	"strconv"

	"csdash/internal/config"
	"csdash/internal/engine"
	"csdash/internal/observability"
	"csdash/internal/serviceinterfaces"
	contextutils "csdash/internal/utils"

	"github.com/gin-gonic/gin"
)

// ProjectHandler serves project detail and deletion.
type ProjectHandler struct {
	projects serviceinterfaces.ProjectServiceInterface
	engines  *engine.Manager
	cfg      *config.Config
	logger   *observability.Logger
}

// NewProjectHandler creates a new ProjectHandler instance.
func NewProjectHandler(projects serviceinterfaces.ProjectServiceInterface, engines *engine.Manager, cfg *config.Config, logger *observability.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, engines: engines, cfg: cfg, logger: logger}
}

// parseProjectID extracts and validates the :id path parameter.
func parseProjectID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		HandleValidationError(c, "project id", c.Param("id"), "must be a positive integer")
		return 0, false
	}
	return id, true
}

// GetProject handles GET /v1/projects/:id
func (h *ProjectHandler) GetProject(c *gin.Context) {
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}

	project, err := h.projects.GetProjectByID(c.Request.Context(), projectID)
	if err != nil {
		if contextutils.IsError(err, contextutils.ErrProjectNotFound) {
			HandleAppError(c, err)
			return
		}
		HandleAppError(c, contextutils.WrapError(contextutils.ErrProjectLoadFailed, err.Error()))
		return
	}

	c.JSON(http.StatusOK, project)
}

// DeleteProject handles DELETE /v1/projects/:id. Engine sessions tracking the
// project are closed so in-flight results hit the liveness guard.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}

	if err := h.projects.DeleteProject(c.Request.Context(), projectID); err != nil {
		HandleAppError(c, err)
		return
	}

	closed := h.engines.CloseProject(projectID)
	h.logger.Info(c.Request.Context(), "Project deleted", map[string]interface{}{
		"project_id":      projectID,
		"sessions_closed": closed,
	})
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
