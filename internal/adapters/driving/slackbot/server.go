package slackbot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/slackrag/internal/core/domain"
	"github.com/custodia-labs/slackrag/internal/core/ports/driven"
	"github.com/custodia-labs/slackrag/internal/core/ports/driving"
	"github.com/custodia-labs/slackrag/internal/logger"
	"github.com/custodia-labs/slackrag/internal/metrics"
)

// DefaultAnswerTimeout bounds the work done for one mention.
const DefaultAnswerTimeout = 2 * time.Minute

// Route paths.
const (
	EventsPath  = "/slack/events"
	HealthPath  = "/healthz"
	MetricsPath = "/metrics"
)

// Config configures the events server.
type Config struct {
	// SigningSecret verifies inbound requests (required).
	SigningSecret string

	// AnswerTimeout bounds answering one mention. Zero uses DefaultAnswerTimeout.
	AnswerTimeout time.Duration
}

// Server handles Slack events over HTTP.
type Server struct {
	cfg         Config
	answer      driving.AnswerService
	poster      driven.ReplyPoster
	newResolver func() driven.UserResolver
	engine      *gin.Engine

	mu      sync.Mutex
	baseCtx context.Context
	wg      sync.WaitGroup
}

// NewServer creates an events server. newResolver may be nil, in which
// case mentions of other users stay as raw ids in the question.
func NewServer(
	cfg Config,
	answer driving.AnswerService,
	poster driven.ReplyPoster,
	newResolver func() driven.UserResolver,
) (*Server, error) {
	if cfg.SigningSecret == "" {
		return nil, fmt.Errorf("%w: SLACK_SIGNING_SECRET", domain.ErrMissingConfig)
	}
	if answer == nil || poster == nil {
		return nil, errors.New("slackbot: answer service and reply poster are required")
	}
	if cfg.AnswerTimeout <= 0 {
		cfg.AnswerTimeout = DefaultAnswerTimeout
	}

	s := &Server{
		cfg:         cfg,
		answer:      answer,
		poster:      poster,
		newResolver: newResolver,
		baseCtx:     context.Background(),
	}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	if !logger.IsVerbose() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.POST(EventsPath, s.handleEvents)
	r.GET(HealthPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
	r.GET(MetricsPath, gin.WrapH(metrics.Handler()))

	return r
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down and waits for
// in-flight mentions to be answered.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("Slack events server listening on %s", addr)
	err := httpServer.ListenAndServe()
	s.Wait()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Wait blocks until every acknowledged mention has been handled.
func (s *Server) Wait() {
	s.wg.Wait()
}

// dispatch runs fn in the background, detached from the request. A panic
// in fn is logged and handed to onPanic, which may be nil.
func (s *Server) dispatch(fn, onPanic func(ctx context.Context)) {
	s.mu.Lock()
	base := s.baseCtx
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(base), s.cfg.AnswerTimeout)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic while handling event: %v", r)
				if onPanic != nil {
					onPanic(ctx)
				}
			}
		}()
		fn(ctx)
	}()
}

// requestLogger logs each request at debug level.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
