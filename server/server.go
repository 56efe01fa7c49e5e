package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avrilo/paperscout"
	"github.com/avrilo/paperscout/cache"
	"github.com/avrilo/paperscout/core"
	"github.com/avrilo/paperscout/logging"
)

// Service answers research queries. *paperscout.Assistant is the production
// implementation.
type Service interface {
	Research(ctx context.Context, query string) (*paperscout.ResearchResult, error)
	Cache() *cache.Store
}

// Options configure a Server.
type Options struct {
	Addr           string
	RequestTimeout time.Duration
	Logger         logging.Logger
}

// Server is the HTTP boundary over the assistant.
type Server struct {
	assistant Service
	engine    *gin.Engine
	addr      string
	timeout   time.Duration
	logger    logging.Logger
}

// New builds the server and registers all routes.
func New(assistant Service, optFns ...func(o *Options)) *Server {
	opts := Options{
		Addr:           ":8000",
		RequestTimeout: 120 * time.Second,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), corsMiddleware())

	s := &Server{
		assistant: assistant,
		engine:    engine,
		addr:      opts.Addr,
		timeout:   opts.RequestTimeout,
		logger:    opts.Logger,
	}
	s.registerRoutes()
	return s
}

// WithAddr sets the listen address.
func WithAddr(addr string) func(o *Options) {
	return func(o *Options) { o.Addr = addr }
}

// WithRequestTimeout bounds how long one research request may run.
func WithRequestTimeout(d time.Duration) func(o *Options) {
	return func(o *Options) { o.RequestTimeout = d }
}

// WithLogger sets the server logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

func (s *Server) registerRoutes() {
	s.engine.GET("/", s.handleRoot)
	s.engine.GET("/health", s.handleHealth)
	s.engine.POST("/api/research", s.handleResearch)
	s.engine.DELETE("/api/cache", s.handleClearCache)
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe blocks serving requests until the context is canceled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// researchRequest is the POST /api/research body.
type researchRequest struct {
	Query string `json:"query" binding:"required,min=1,max=500"`
}

// errorBody is the uniform error response shape.
type errorBody struct {
	Detail    string `json:"detail"`
	ErrorType string `json:"error_type"`
}

// serviceName and serviceVersion identify the API on the root health check.
const (
	serviceName    = "PaperScout Research API"
	serviceVersion = "1.0.0"
)

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"agents": []string{"Researcher", "Analyst"},
		"tools":  []string{"search_arxiv"},
		"cache":  s.assistant.Cache().Stats(),
	})
}

func (s *Server) handleResearch(c *gin.Context) {
	var req researchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorBody{
			Detail:    "query is required and must be 1-500 characters",
			ErrorType: "invalid_input",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	result, err := s.assistant.Research(ctx, req.Query)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result.Response)
}

func (s *Server) handleClearCache(c *gin.Context) {
	cleared := s.assistant.Cache().Clear()
	c.JSON(http.StatusOK, gin.H{
		"message":         "cache cleared",
		"entries_removed": cleared,
	})
}

// writeError maps core error categories to HTTP statuses. Unclassified
// failures are reported as processing errors without leaking internals.
func (s *Server) writeError(c *gin.Context, err error) {
	errType := core.ErrorType(err)

	status := http.StatusInternalServerError
	if errors.Is(err, core.ErrInvalidInput) {
		status = http.StatusUnprocessableEntity
	}

	s.logger.Error("research request failed", "error_type", errType, "error", err)
	c.JSON(status, errorBody{Detail: err.Error(), ErrorType: errType})
}

// corsMiddleware allows any origin, matching a development-friendly
// boundary default.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
