// Package api exposes the relationship finder over HTTP
package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/rohankatakam/relfinder/internal/errors"
	"github.com/rohankatakam/relfinder/internal/graph"
	"github.com/rohankatakam/relfinder/internal/sparql"
)

// RelationshipFinder is implemented by finder.Finder
type RelationshipFinder interface {
	FindRelationships(ctx context.Context, entity1, entity2 string, maxDistance int) (*graph.RelationshipGraph, error)
}

// EntityStore is implemented by sparql.Endpoint
type EntityStore interface {
	Entities(ctx context.Context, classes []string) ([]sparql.Entity, error)
	EntityCountForClass(ctx context.Context, class string) (int, error)
	EntityDataProperties(ctx context.Context, iri string, limit int) ([]sparql.DataProperty, error)
}

// Enricher is implemented by graph.Enricher
type Enricher interface {
	Enrich(ctx context.Context, g *graph.RelationshipGraph) error
}

// Config holds the dependencies and limits of the HTTP service
type Config struct {
	APIKey           string
	MaxDistanceLimit int
	EntityClasses    []string
	Finder           RelationshipFinder
	Store            EntityStore
	Enricher         Enricher            // optional
	Gatherer         prometheus.Gatherer // optional, serves /metrics
}

// Server is the HTTP front end
type Server struct {
	cfg    Config
	engine *gin.Engine
	logger *slog.Logger
}

// NewServer builds the router. An empty API key is a configuration error.
func NewServer(cfg Config) (*Server, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.ConfigError("api key must be set")
	}
	if cfg.Finder == nil || cfg.Store == nil {
		return nil, apperrors.ConfigError("finder and entity store are required")
	}
	if cfg.MaxDistanceLimit < 1 {
		cfg.MaxDistanceLimit = 3
	}

	if err := registerValidators(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:    cfg,
		engine: gin.New(),
		logger: slog.Default().With("component", "api"),
	}
	s.routes()
	return s, nil
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.Use(gin.Recovery(), s.requestLogger())

	if s.cfg.Gatherer != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	authed := s.engine.Group("/", APIKeyAuth(s.cfg.APIKey))
	authed.GET("/", s.handleIndex)
	authed.GET("/entities", s.handleEntities)
	authed.GET("/triples-count", s.handleTriplesCount)
	authed.POST("/entities/properties", s.handleProperties)
	authed.POST("/query", s.handleQuery)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// APIKeyAuth rejects requests whose Api-Key header does not match key
func APIKeyAuth(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader("Api-Key")
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid API key"})
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request served",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (s *Server) handleEntities(c *gin.Context) {
	entities, err := s.cfg.Store.Entities(c.Request.Context(), s.cfg.EntityClasses)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entities": entities})
}

func (s *Server) handleTriplesCount(c *gin.Context) {
	total := 0
	for _, class := range s.cfg.EntityClasses {
		n, err := s.cfg.Store.EntityCountForClass(c.Request.Context(), class)
		if err != nil {
			s.fail(c, err)
			return
		}
		total += n
	}
	c.JSON(http.StatusOK, gin.H{"count": total})
}

func (s *Server) handleProperties(c *gin.Context) {
	var req propertiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	props, err := s.cfg.Store.EntityDataProperties(c.Request.Context(), req.IRI, 0)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"properties": props})
}

func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if req.MaxDistance > s.cfg.MaxDistanceLimit {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": fmt.Sprintf("maxDistance must be at most %d", s.cfg.MaxDistanceLimit),
		})
		return
	}

	ctx := c.Request.Context()
	g, err := s.cfg.Finder.FindRelationships(ctx, req.Entities[0], req.Entities[1], req.MaxDistance)
	if err != nil {
		s.fail(c, err)
		return
	}

	if s.cfg.Enricher != nil {
		if err := s.cfg.Enricher.Enrich(ctx, g); err != nil {
			s.logger.Warn("graph enrichment failed, returning local names", "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"nodes":   g.Nodes,
		"edges":   g.Edges,
		"classes": g.Classes(),
	})
}

func (s *Server) fail(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)

	s.logger.Error("request failed",
		"path", c.FullPath(),
		"status", status,
		"error", err)

	c.JSON(status, gin.H{"message": err.Error()})
}
