// Package server exposes the knowledge base over HTTP: document upload and
// management, retrieval, prompt editing and LiveKit session tokens. The
// voice frontend is the primary consumer.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"voicekb/config"
	"voicekb/internal/prompt"
	"voicekb/internal/usecase"
)

type Server struct {
	cfg       *config.Config
	ingestor  *usecase.Ingestor
	retriever *usecase.Retriever
	prompts   *prompt.Store
	log       *charmlog.Logger
	engine    *gin.Engine
}

func New(
	cfg *config.Config,
	ingestor *usecase.Ingestor,
	retriever *usecase.Retriever,
	prompts *prompt.Store,
	log *charmlog.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:       cfg,
		ingestor:  ingestor,
		retriever: retriever,
		prompts:   prompts,
		log:       log,
		engine:    gin.New(),
	}

	s.engine.Use(
		requestLogger(log),
		gin.Recovery(),
		corsMiddleware(cfg.Server.CORSOrigins),
	)
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")

	api.GET("/health", s.handleHealth)

	docs := api.Group("/documents")
	{
		docs.POST("/upload", s.handleUpload)
		docs.GET("", s.handleListDocuments)
		docs.DELETE("/:id", s.handleDeleteDocument)
	}

	api.POST("/retrieve", s.handleRetrieve)
	api.GET("/prompt", s.handleGetPrompt)
	api.PUT("/prompt", s.handleUpdatePrompt)
	api.POST("/token", s.handleToken)
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully with a
// 10 second drain window.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("server listening", "addr", srv.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
