// Briefhub Server
// Serves departure-sequencing lookups and flight-plan fetches over REST
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skyops/briefhub/internal/db"
	"github.com/skyops/briefhub/internal/metrics"
	"github.com/skyops/briefhub/pkg/cdm"
	"github.com/skyops/briefhub/pkg/config"
	"github.com/skyops/briefhub/pkg/logger"
	"github.com/skyops/briefhub/pkg/poller"
	"github.com/skyops/briefhub/pkg/simbrief"
)

var configPath = flag.String("config", "configs/config.json", "Path to configuration file")

// Server holds the HTTP server and its dependencies
type Server struct {
	router   *chi.Mux
	cfg      *config.Config
	log      logger.Logger
	metrics  *metrics.Metrics
	cdmCli   *cdm.Client
	sbCli    *simbrief.Client
	history  *db.HistoryRepository
	database *db.DB

	// mu serializes access to the single-slot jobs and the last good OFP.
	// The jobs themselves are not safe for concurrent use.
	mu       sync.Mutex
	cdmJob   *poller.Job[cdm.Result]
	ofpJob   *poller.Job[simbrief.OFP]
	lastGood *simbrief.OFP
}

func main() {
	flag.Parse()

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	log := logger.New()
	defer log.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	cdmClient, err := cdm.New(cfg.CDM, log)
	if err != nil {
		log.Error("failed to initialize CDM client", "error", err)
		os.Exit(1)
	}

	srv := &Server{
		router:  chi.NewRouter(),
		cfg:     cfg,
		log:     log,
		metrics: metrics.NewMetrics("briefhub"),
		cdmCli:  cdmClient,
		sbCli:   simbrief.NewClient(cfg.Simbrief, log),
		cdmJob:  poller.New[cdm.Result](),
		ofpJob:  poller.New[simbrief.OFP](),
	}

	if cfg.Database.Enabled {
		database, err := db.Connect(cfg.Database)
		if err != nil {
			log.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer database.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := database.InitSchema(ctx); err != nil {
			cancel()
			log.Error("failed to initialize schema", "error", err)
			os.Exit(1)
		}
		cancel()

		srv.database = database
		srv.history = db.NewHistoryRepository(database)
		log.Info("lookup history enabled", "database", cfg.Database.Database)
	}

	srv.setupRoutes()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	// Outstanding background fetches run to completion; never leave one
	// behind with the process exiting under it.
	srv.mu.Lock()
	srv.cdmJob.Wait()
	srv.ofpJob.Wait()
	srv.mu.Unlock()

	log.Info("server stopped")
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	r := s.router

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// CORS for development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/cdm", s.handleStartCDMLookup)
		r.Get("/cdm", s.handleGetCDMResult)

		r.Post("/ofp", s.handleStartOFPFetch)
		r.Get("/ofp", s.handleGetOFP)

		r.Get("/history/cdm", s.handleCDMHistory)
		r.Get("/history/ofp", s.handleOFPHistory)
		r.Get("/stats", s.handleStats)
	})

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())
}

// handleStartCDMLookup launches a background departure-data lookup.
// At most one lookup runs at a time; a second request gets 409.
func (s *Server) handleStartCDMLookup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Airport  string `json:"airport"`
		Callsign string `json:"callsign"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Airport == "" || req.Callsign == "" {
		http.Error(w, "airport and callsign are required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	started := s.cdmJob.Start(func() *cdm.Result {
		return s.runCDMLookup(req.Airport, req.Callsign)
	})
	s.mu.Unlock()

	if !started {
		http.Error(w, "A lookup is already in progress", http.StatusConflict)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"accepted": true,
		"airport":  req.Airport,
		"callsign": req.Callsign,
	})
}

// runCDMLookup is the body of the background lookup goroutine.
func (s *Server) runCDMLookup(airport, callsign string) *cdm.Result {
	start := time.Now()
	res := s.cdmCli.Lookup(context.Background(), airport, callsign)

	s.metrics.CDMLookups.WithLabelValues(res.Status.String()).Inc()
	s.metrics.FetchDuration.WithLabelValues("cdm").Observe(time.Since(start).Seconds())
	s.metrics.DeadServers.Set(float64(s.cdmCli.DeadServerCount()))

	if s.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := s.history.RecordCDMLookup(ctx, airport, callsign, res); err != nil {
			s.log.Warn("failed to record lookup", "error", err)
		}
	}

	return res
}

// handleGetCDMResult polls the lookup slot and returns the latest result.
func (s *Server) handleGetCDMResult(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	inProgress := s.cdmJob.Poll()
	res := s.cdmJob.Current()
	s.mu.Unlock()

	if inProgress {
		respondJSON(w, http.StatusAccepted, map[string]interface{}{
			"in_progress": true,
		})
		return
	}
	if res == nil {
		http.Error(w, "No lookup performed yet", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, res)
}

// handleStartOFPFetch launches a background flight-plan fetch for the
// configured pilot.
func (s *Server) handleStartOFPFetch(w http.ResponseWriter, r *http.Request) {
	pilotID := s.cfg.Simbrief.PilotID
	if pilotID == "" {
		http.Error(w, "No pilot id configured", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	started := s.ofpJob.Start(func() *simbrief.OFP {
		return s.runOFPFetch(pilotID)
	})
	s.mu.Unlock()

	if !started {
		http.Error(w, "A fetch is already in progress", http.StatusConflict)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"accepted": true,
	})
}

// runOFPFetch is the body of the background fetch goroutine.
func (s *Server) runOFPFetch(pilotID string) *simbrief.OFP {
	start := time.Now()
	ofp := s.sbCli.Fetch(context.Background(), pilotID)

	s.metrics.OFPFetches.WithLabelValues(ofp.Status).Inc()
	s.metrics.FetchDuration.WithLabelValues("ofp").Observe(time.Since(start).Seconds())

	if s.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := s.history.RecordOFPFetch(ctx, ofp); err != nil {
			s.log.Warn("failed to record fetch", "error", err)
		}
	}

	return ofp
}

// handleGetOFP polls the fetch slot and returns the latest flight plan.
//
// A failed fetch never displaces the last good one: the stale record is
// reported under "last_result" while "ofp" keeps the newest complete plan.
func (s *Server) handleGetOFP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	inProgress := s.ofpJob.Poll()
	res := s.ofpJob.Current()
	if res != nil && res.Valid() && (s.lastGood == nil || res.Seqno > s.lastGood.Seqno) {
		s.lastGood = res
	}
	lastGood := s.lastGood
	s.mu.Unlock()

	if inProgress {
		respondJSON(w, http.StatusAccepted, map[string]interface{}{
			"in_progress": true,
		})
		return
	}
	if res == nil && lastGood == nil {
		http.Error(w, "No flight plan fetched yet", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ofp":         lastGood,
		"last_result": res,
	})
}

// handleCDMHistory returns recent lookups from the database.
func (s *Server) handleCDMHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "History is not enabled", http.StatusNotFound)
		return
	}

	lookups, err := s.history.RecentCDMLookups(r.Context(), 50)
	if err != nil {
		s.log.Error("failed to query lookup history", "error", err)
		http.Error(w, "Failed to get history", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"lookups": lookups,
		"count":   len(lookups),
	})
}

// handleOFPHistory returns recent fetches from the database.
func (s *Server) handleOFPHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "History is not enabled", http.StatusNotFound)
		return
	}

	fetches, err := s.history.RecentOFPFetches(r.Context(), 50)
	if err != nil {
		s.log.Error("failed to query fetch history", "error", err)
		http.Error(w, "Failed to get history", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"fetches": fetches,
		"count":   len(fetches),
	})
}

// handleStats returns database statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.database == nil {
		http.Error(w, "History is not enabled", http.StatusNotFound)
		return
	}

	stats, err := s.database.GetStats(r.Context())
	if err != nil {
		s.log.Error("failed to query stats", "error", err)
		http.Error(w, "Failed to get stats", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
