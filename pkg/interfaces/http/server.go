// Package http exposes the planning engine over a JSON HTTP API
package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/troikatech/planwise/pkg/application/apperr"
	"github.com/troikatech/planwise/pkg/application/dto"
)

// Planner is the orchestration surface the HTTP layer exposes
type Planner interface {
	CheckFeasibility(ctx context.Context, req dto.FeasibilityRequest) (*dto.FeasibilityResult, error)
	OptimizeSchedule(ctx context.Context, req dto.OptimizationRequest) (*dto.OptimizationResult, error)
}

// RiskSyncer refreshes external risks on demand
type RiskSyncer interface {
	Sync(ctx context.Context) (int, error)
}

// Server wires the planning orchestrator into a gin router
type Server struct {
	engine  *gin.Engine
	planner Planner
	syncer  RiskSyncer
	log     *logrus.Entry
}

// NewServer creates the HTTP server. The risk syncer may be nil when no
// risk feed is configured; the sync endpoint then responds 503.
func NewServer(planner Planner, syncer RiskSyncer, log *logrus.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		engine:  gin.New(),
		planner: planner,
		syncer:  syncer,
		log:     log.WithField("component", "http"),
	}
	s.engine.Use(gin.Recovery())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.health)

	v1 := s.engine.Group("/api/v1")
	{
		v1.POST("/feasibility/check", s.checkFeasibility)
		v1.POST("/schedule/optimize", s.optimizeSchedule)
		v1.POST("/risks/sync", s.syncRisks)
	}
}

// Run serves HTTP on the given address until the listener fails
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Handler exposes the router, used by tests and for embedding in a custom
// http.Server
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) checkFeasibility(c *gin.Context) {
	var req dto.FeasibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := s.planner.CheckFeasibility(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) optimizeSchedule(c *gin.Context) {
	var req dto.OptimizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := s.planner.OptimizeSchedule(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) syncRisks(c *gin.Context) {
	if s.syncer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no risk feed configured"})
		return
	}

	count, err := s.syncer.Sync(c.Request.Context())
	if err != nil {
		s.log.WithError(err).Error("risk sync failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "risk sync failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"synced": count})
}

// respondError maps application error kinds to HTTP status codes
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrSchedulingConflict):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrDataUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.log.WithError(err).Error("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
