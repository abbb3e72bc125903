package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/Alias1177/Turnips/internal/journal"
	"github.com/Alias1177/Turnips/internal/metrics"
	"github.com/Alias1177/Turnips/internal/turnips"
)

// Config holds server configuration
type Config struct {
	Port      int
	Log       zerolog.Logger
	Predictor *turnips.Predictor
	Journal   *journal.Journal
	Metrics   *metrics.Recorder
	DevMode   bool
}

// Server exposes the predictor and the island journal over HTTP.
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	predictor *turnips.Predictor
	journal   *journal.Journal
	metrics   *metrics.Recorder
	// confidence decides most_likely; it follows the journal's rollover setting.
	confidence float64
	now        func() time.Time
}

func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		predictor: cfg.Predictor,
		journal:   cfg.Journal,
		metrics:   cfg.Metrics,
		now:       time.Now,
	}
	s.confidence = turnips.RolloverConfidence
	if s.journal != nil {
		s.confidence = s.journal.Confidence()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(30 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/predict", func(r chi.Router) {
			r.Post("/", s.handlePredictAll)
			r.Post("/pattern", s.handlePredictPattern)
			r.Post("/profit", s.handleProfit)
		})

		if s.journal == nil {
			return
		}
		r.Route("/islands/{userID}", func(r chi.Router) {
			r.Get("/", s.handleGetIsland)
			r.Get("/prediction", s.handleIslandPrediction)
			r.Get("/pattern", s.handleIslandPattern)
			r.Get("/profit", s.handleIslandProfit)
			r.Put("/prices", s.handleRecordPrice)
			r.Put("/buy-price", s.handleSetBuyPrice)
			r.Put("/past-pattern", s.handleSetPastPattern)
		})
	})
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
