package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/civiclens/civiclens/internal/infrastructure/config"
	"github.com/civiclens/civiclens/internal/shared/logger"
)

// Router exposes the HTTP engine built by the Container.
type Router struct {
	*Container
}

// NewRouter creates a new HTTP router with all dependencies.
func NewRouter(db *gorm.DB, cfg *config.Config, log logger.Interface) (*Router, error) {
	c, err := NewContainer(db, cfg, log)
	if err != nil {
		return nil, err
	}
	return &Router{Container: c}, nil
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// Run starts the HTTP server
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}

// StartWorkers runs the triage workers in this process.
func (r *Router) StartWorkers(ctx context.Context) error {
	return r.StartBackground(ctx)
}
