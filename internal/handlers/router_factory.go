// Package handlers wires the HTTP surface of the dashboard backend: project
// detail, the engine-backed question history view, and the collaborator
// operations reached from it.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"csdash/internal/config"
	"csdash/internal/engine"
	"csdash/internal/middleware"
	"csdash/internal/observability"
	"csdash/internal/serviceinterfaces"
	"csdash/internal/version"
)

// NewRouter creates the gin engine with all middleware and routes wired.
func NewRouter(
	cfg *config.Config,
	projectService serviceinterfaces.ProjectServiceInterface,
	questionService serviceinterfaces.QuestionServiceInterface,
	engines *engine.Manager,
	cache *engine.MemoryCache,
	logger *observability.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(middleware.ErrorRecoveryMiddleware(logger, nil))

	// HTTP request logging through the observability logger
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.Request.URL.Path,
			"http.status_code": statusCode,
			"http.latency_ms":  latency.Milliseconds(),
			"http.client_ip":   c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields["http.error"] = c.Errors.String()
		}

		switch {
		case statusCode >= 500:
			logger.Error(c.Request.Context(), "HTTP request failed", nil, fields)
		case statusCode >= 400:
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		default:
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	})

	// Health check endpoint (before tracing middleware)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "csdash"})
	})

	router.Use(observability.GinMiddlewareWithErrorHandling("csdash-backend"))

	router.RedirectTrailingSlash = false

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	sessionOpts := sessions.Options{
		Path:     config.SessionPath,
		MaxAge:   int(config.SessionMaxAge.Seconds()),
		HttpOnly: config.SessionHTTPOnly,
		Secure:   config.SessionSecure,
	}
	if cfg.Server.Debug {
		sessionOpts.SameSite = http.SameSiteDefaultMode
	} else {
		sessionOpts.SameSite = http.SameSiteLaxMode
		sessionOpts.Secure = true
	}
	store.Options(sessionOpts)
	router.Use(sessions.Sessions(config.SessionName, store))

	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	router.Use(secure.New(secureConfig))

	projectHandler := NewProjectHandler(projectService, engines, cfg, logger)
	historyHandler := NewHistoryHandler(engines, questionService, cache, cfg, logger)

	v1 := router.Group("/v1")
	{
		v1.GET("/version", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"service":   "csdash",
				"version":   version.Version,
				"commit":    version.Commit,
				"buildTime": version.BuildTime,
			})
		})

		projects := v1.Group("/projects")
		{
			projects.GET("/:id", projectHandler.GetProject)
			projects.DELETE("/:id", projectHandler.DeleteProject)

			projects.GET("/:id/bookmarks", historyHandler.GetBookmarks)
			projects.GET("/:id/history", historyHandler.GetHistory)
			projects.POST("/:id/history/refresh", historyHandler.RefreshHistory)
			projects.POST("/:id/history/dates/:date/toggle", historyHandler.ToggleDate)
			projects.POST("/:id/tab", historyHandler.SetTab)
			projects.POST("/:id/active-questions", historyHandler.SetActiveQuestions)

			projects.POST("/:id/questions/select", historyHandler.SelectQuestion)
			projects.POST("/:id/questions/:qid/answer", historyHandler.SubmitAnswer)
			projects.POST("/:id/questions/:qid/bookmark", historyHandler.BookmarkQuestion)
			projects.POST("/:id/questions/:qid/save", historyHandler.SaveQuestion)
		}
	}

	return router
}
