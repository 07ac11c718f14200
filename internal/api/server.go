// Package api exposes the bank service over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"bida-banking-workers/internal/bank"
	"bida-banking-workers/internal/bank/escrow"
	"bida-banking-workers/internal/common/logger"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Releaser is implemented by *escrow.Hook.
type Releaser interface {
	OnApplicationApproved(ctx context.Context, investorID, applicationID string) (*bank.EscrowAccount, error)
}

// DocumentSearcher is implemented by *documents.Indexer.
type DocumentSearcher interface {
	SearchDocuments(ctx context.Context, investorID, category string) ([]bank.Document, error)
}

var errSearchDisabled = errors.New("document search is not configured")

// CheckFunc reports whether a dependency is ready.
type CheckFunc func(ctx context.Context) error

// Options configures the server. Releaser defaults to an escrow hook over
// Service; Search and Checks are optional.
type Options struct {
	Service  *bank.Service
	Releaser Releaser
	Search   DocumentSearcher
	Checks   map[string]CheckFunc
	Logger   logger.Logger
}

type Server struct {
	service  *bank.Service
	releaser Releaser
	search   DocumentSearcher
	checks   map[string]CheckFunc
	logger   logger.Logger
	engine   *gin.Engine
	http     *http.Server
}

func NewServer(opts Options) *Server {
	// Amounts must reach decimal.Decimal without a float64 round trip.
	binding.EnableDecoderUseNumber = true

	s := &Server{
		service:  opts.Service,
		releaser: opts.Releaser,
		search:   opts.Search,
		checks:   opts.Checks,
		logger:   opts.Logger.WithFields(map[string]interface{}{"component": "http-api"}),
	}
	if s.releaser == nil {
		s.releaser = escrow.NewHook(opts.Service, 0, opts.Logger)
	}
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1/banking")
	{
		v1.GET("/partners", s.listPartners)
		v1.GET("/partners/:bankId", s.getPartner)

		v1.POST("/investors", s.initState)
		v1.GET("/investors/:id", s.getState)
		v1.PATCH("/investors/:id", s.updateState)
		v1.POST("/investors/:id/bank", s.selectBank)
		v1.POST("/investors/:id/kyc", s.performKYC)
		v1.POST("/investors/:id/account", s.openAccount)
		v1.POST("/investors/:id/escrow", s.createEscrow)
		v1.POST("/investors/:id/escrow/release", s.releaseEscrow)
		v1.POST("/investors/:id/letters-of-credit", s.issueLC)
		v1.POST("/investors/:id/loans", s.preApproveLoan)
		v1.POST("/investors/:id/fx-quotes", s.requestFXQuote)
		v1.GET("/investors/:id/documents", s.documents)
		v1.GET("/investors/:id/documents/search", s.searchDocuments)
		v1.GET("/investors/:id/readiness", s.readiness)
		v1.GET("/investors/:id/messages", s.messages)

		v1.POST("/applications/:applicationId/approved", s.applicationApproved)
	}
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request", map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"durationMs": time.Since(start).Milliseconds(),
		})
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then drains for up
// to ten seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", map[string]interface{}{"address": addr})
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	c.JSON(status, gin.H{"status": state, "checks": results})
}
