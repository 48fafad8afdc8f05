// Package api exposes the published spike set over HTTP. Handlers only read
// the pool store; they never trigger or wait for a scan.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appconfig "oisentry/config"
	"oisentry/internal/metrics"
	"oisentry/internal/pool"
	"oisentry/logger"
)

// Server hosts the read-only query endpoints.
type Server struct {
	config     *appconfig.Config
	store      *pool.Store
	log        *logger.Log
	httpServer *http.Server
}

func NewServer(cfg *appconfig.Config, store *pool.Store) *Server {
	return &Server{
		config: cfg,
		store:  store,
		log:    logger.GetLogger(),
	}
}

// Run starts the HTTP server and blocks until the provided context is
// cancelled or the underlying server exits with an error.
func (s *Server) Run(ctx context.Context) error {
	log := s.log.WithComponent("api")

	s.httpServer = &http.Server{
		Addr:         s.config.API.Address,
		Handler:      s.router(),
		ReadTimeout:  s.config.API.ReadTimeout,
		WriteTimeout: s.config.API.WriteTimeout,
	}

	log.WithFields(logger.Fields{"address": s.config.API.Address}).Info("starting query API server")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		log.Info("query API server stopped")
		return nil
	case err := <-errCh:
		if err == nil {
			return nil
		}
		return err
	}
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/coinpool", s.handleCoinPool)
	router.GET("/oitop", s.handleOITop)
	router.GET("/health", s.handleHealth)

	if s.config.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	return router
}
