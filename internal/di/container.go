// Package di provides the dependency injection container managing service
// lifecycle for the dashboard backend.
package di

import (
	"context"
	"database/sql"
	"sync"

	"csdash/internal/config"
	"csdash/internal/database"
	"csdash/internal/engine"
	"csdash/internal/observability"
	"csdash/internal/serviceinterfaces"
	"csdash/internal/services"
	contextutils "csdash/internal/utils"
)

// ServiceContainer manages service dependencies and lifecycle.
type ServiceContainer struct {
	cfg    *config.Config
	logger *observability.Logger

	mu            sync.RWMutex
	dbManager     *database.Manager
	db            *sql.DB
	projects      serviceinterfaces.ProjectServiceInterface
	questions     serviceinterfaces.QuestionServiceInterface
	cache         *engine.MemoryCache
	engines       *engine.Manager
	shutdownFuncs []func(context.Context) error
}

// NewServiceContainer creates a new dependency injection container
func NewServiceContainer(cfg *config.Config, logger *observability.Logger) *ServiceContainer {
	return &ServiceContainer{cfg: cfg, logger: logger}
}

// Initialize connects the database, runs migrations, and builds the services
// and the engine session manager.
func (sc *ServiceContainer) Initialize(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.dbManager = database.NewManager(sc.logger)
	db, err := sc.dbManager.InitDB(sc.cfg.Database)
	if err != nil {
		return contextutils.WrapError(err, "failed to initialize database")
	}
	sc.db = db
	sc.shutdownFuncs = append(sc.shutdownFuncs, func(context.Context) error {
		return db.Close()
	})

	sc.projects = services.NewProjectService(db, sc.logger)
	sc.questions = services.NewQuestionService(db, sc.logger)
	// One cache instance shared by the read-through handlers and the engine's
	// bookmark invalidation
	sc.cache = engine.NewMemoryCache()
	sc.engines = engine.NewManager(sc.questions, sc.cache,
		sc.cfg.Engine.HistoryTabID, sc.cfg.Engine.SessionTTL, sc.logger)
	sc.shutdownFuncs = append(sc.shutdownFuncs, func(context.Context) error {
		sc.engines.Close()
		return nil
	})

	sc.logger.Info(ctx, "Service container initialized")
	return nil
}

// Shutdown tears everything down in reverse initialization order.
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var firstErr error
	for i := len(sc.shutdownFuncs) - 1; i >= 0; i-- {
		if err := sc.shutdownFuncs[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	sc.shutdownFuncs = nil
	return firstErr
}

// GetDatabase returns the shared database handle
func (sc *ServiceContainer) GetDatabase() *sql.DB {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.db
}

// GetProjectService returns the project service
func (sc *ServiceContainer) GetProjectService() serviceinterfaces.ProjectServiceInterface {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.projects
}

// GetQuestionService returns the question service
func (sc *ServiceContainer) GetQuestionService() serviceinterfaces.QuestionServiceInterface {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.questions
}

// GetCollectionCache returns the shared process-local collection cache
func (sc *ServiceContainer) GetCollectionCache() *engine.MemoryCache {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.cache
}

// GetEngineManager returns the engine session manager
func (sc *ServiceContainer) GetEngineManager() *engine.Manager {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.engines
}

// GetConfig returns the loaded configuration
func (sc *ServiceContainer) GetConfig() *config.Config {
	return sc.cfg
}

// GetLogger returns the container's logger
func (sc *ServiceContainer) GetLogger() *observability.Logger {
	return sc.logger
}
