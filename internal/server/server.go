package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Options configures the HTTP server.
type Options struct {
	Addr      string
	RateLimit float64
	RateBurst int
}

// Server is the HTTP front of the research service.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// New assembles the mux and middleware chain around the research service.
func New(opts Options, service ResearchService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	researchHandler := NewResearchHandler(service, logger)
	rateLimiter := NewRateLimiter(opts.RateLimit, opts.RateBurst, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", Health)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("POST /api/v1/research",
		rateLimiter.Middleware(
			http.HandlerFunc(researchHandler.Research),
		),
	)

	var handler http.Handler = mux
	handler = CORS(handler)
	handler = AccessLog(logger)(handler)
	handler = RequestID(handler)
	handler = Recovery(logger)(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  120 * time.Second,
		},
		logger: logger,
	}
}

// Handler exposes the assembled handler chain for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts serving and blocks until the listener fails or the
// server is shut down.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
