// Package api exposes the HTTP interface for the tracking subsystem.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fleetops/vesselwatch/internal/registry"
	"github.com/fleetops/vesselwatch/internal/track"
	"github.com/fleetops/vesselwatch/internal/vessel"
)

// Searcher is the name/MMSI search strategy behind the search endpoint.
type Searcher interface {
	Search(ctx context.Context, query string) []vessel.Record
}

// Pinger reports durable-tier reachability for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wires HTTP handlers to the tracker and its collaborators.
type Server struct {
	router       chi.Router
	tracker      *track.Tracker
	resolver     vessel.Resolver
	searcher     Searcher
	registry     vessel.Registry
	upstreamHost string
	durable      Pinger
	logger       *zap.Logger
}

// NewServer constructs a Server with middleware and routes. durable may
// be nil when no durable cache tier is configured.
func NewServer(
	tracker *track.Tracker,
	resolver vessel.Resolver,
	searcher Searcher,
	reg vessel.Registry,
	upstreamHost string,
	durable Pinger,
	logger *zap.Logger,
) *Server {
	s := &Server{
		tracker:      tracker,
		resolver:     resolver,
		searcher:     searcher,
		registry:     reg,
		upstreamHost: strings.ToLower(upstreamHost),
		durable:      durable,
		logger:       logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/track", s.trackReference)
		r.Get("/search", s.search)
		r.Route("/vessels", func(r chi.Router) {
			r.Get("/", s.listVessels)
			r.Get("/{vessel_id}/track", s.trackVessel)
		})
		r.Post("/preload", s.preload)
		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", s.cacheStats)
			r.Delete("/", s.cacheClearAll)
			r.Delete("/{vessel_id}", s.cacheClearOne)
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.durable != nil {
		if err := s.durable.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "durable cache unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// trackReference wraps the resolution service directly: it validates the
// reference belongs to the expected upstream and returns the record plus
// source metadata.
func (s *Server) trackReference(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	if ref == "" {
		writeError(w, http.StatusBadRequest, "missing ref parameter")
		return
	}
	parsed, err := url.Parse(ref)
	if err != nil || parsed.Host == "" {
		writeError(w, http.StatusBadRequest, "ref must be an absolute URL")
		return
	}
	host := strings.ToLower(parsed.Hostname())
	if host != s.upstreamHost && !strings.HasSuffix(host, "."+s.upstreamHost) {
		writeError(w, http.StatusBadRequest, "ref does not belong to the expected upstream")
		return
	}

	rec := s.resolver.Resolve(r.Context(), ref)
	source := "live"
	if rec.Synthetic {
		source = "synthetic"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"record":     rec,
		"source":     source,
		"fetched_at": rec.ResolvedAt,
	})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing q parameter")
		return
	}
	records := s.searcher.Search(r.Context(), query)
	writeJSON(w, http.StatusOK, map[string]any{"results": records})
}

func (s *Server) listVessels(w http.ResponseWriter, r *http.Request) {
	vessels, err := s.registry.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "registry unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vessels": vessels})
}

func (s *Server) trackVessel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "vessel_id")
	v, err := s.registry.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			writeError(w, http.StatusNotFound, "vessel not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "registry unavailable")
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.GetTrackingData(r.Context(), v))
}

func (s *Server) preload(w http.ResponseWriter, r *http.Request) {
	vessels, err := s.registry.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "registry unavailable")
		return
	}
	// Detached from the request context: preload is fire-and-forget and
	// should survive the caller navigating away.
	go s.tracker.Preload(context.Background(), vessels)
	writeJSON(w, http.StatusAccepted, map[string]any{"preloading": len(vessels)})
}

func (s *Server) cacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.CacheStats(r.Context()))
}

func (s *Server) cacheClearOne(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "vessel_id")
	s.tracker.ClearOne(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]string{"cleared": id})
}

func (s *Server) cacheClearAll(w http.ResponseWriter, r *http.Request) {
	s.tracker.ClearAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"cleared": "all"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
