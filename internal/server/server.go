// Package server exposes the menu catalog over HTTP. Every menu payload
// carries its ratings plus the aggregate computed by package rating.
package server

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/julianstephens/menuboard/internal/constants"
	"github.com/julianstephens/menuboard/internal/logger"
	"github.com/julianstephens/menuboard/internal/storage"
)

type Server struct {
	store storage.Provider
	log   *log.Logger
	now   func() time.Time

	rateLimitEnabled bool
	ipLimiters       sync.Map // map[string]*rate.Limiter
	rateLimit        rate.Limit
	rateBurst        int
}

type Option func(*Server)

// WithRateLimit sets the per-client-IP budget for rating submissions.
// A non-positive limit disables throttling.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		s.rateLimitEnabled = perSecond > 0
		s.rateLimit = rate.Limit(perSecond)
		if burst > 0 {
			s.rateBurst = burst
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func New(store storage.Provider, opts ...Option) *Server {
	s := &Server{
		store:            store,
		log:              logger.Named("server"),
		now:              time.Now,
		rateLimitEnabled: true,
		rateLimit:        rate.Limit(constants.DefaultRateLimit),
		rateBurst:        constants.DefaultRateBurst,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler wrapped in request id and logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /categories", s.listCategories)
	mux.HandleFunc("POST /categories", s.createCategory)
	mux.HandleFunc("PUT /categories/{id}", s.updateCategory)
	mux.HandleFunc("PATCH /categories/{id}", s.updateCategory)
	mux.HandleFunc("DELETE /categories/{id}", s.deleteCategory)

	mux.HandleFunc("GET /categories/{id}/menus", s.listMenus)
	mux.HandleFunc("POST /categories/{id}/menus", s.createMenu)

	mux.HandleFunc("GET /menus/out_of_stock", s.listOutOfStock)
	mux.HandleFunc("GET /menus/{id}", s.showMenu)
	mux.HandleFunc("PUT /menus/{id}", s.updateMenu)
	mux.HandleFunc("PATCH /menus/{id}", s.updateMenu)
	mux.HandleFunc("DELETE /menus/{id}", s.deleteMenu)
	mux.HandleFunc("GET /menus/{id}/average_rating", s.averageRating)

	mux.HandleFunc("GET /menus/{id}/ratings", s.listRatings)
	mux.Handle("POST /menus/{id}/ratings", s.throttle(http.HandlerFunc(s.createRating)))

	mux.Handle("GET /metrics", promhttp.Handler())

	return s.withRequestID(s.withLogging(mux))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.log.Info("Starting HTTP server", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-serverErrors
}

func (s *Server) getIPLimiter(ip string) *rate.Limiter {
	if val, ok := s.ipLimiters.Load(ip); ok {
		return val.(*rate.Limiter)
	}
	limiter, _ := s.ipLimiters.LoadOrStore(ip, rate.NewLimiter(s.rateLimit, s.rateBurst))
	return limiter.(*rate.Limiter)
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
