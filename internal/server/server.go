// Package server exposes a Tracker over a small JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/byteowlz/trackr/internal/article"
	"github.com/byteowlz/trackr/internal/fetcher"
	"github.com/byteowlz/trackr/internal/logging"
	"github.com/byteowlz/trackr/internal/source"
	"github.com/byteowlz/trackr/internal/summarizer"
	"github.com/byteowlz/trackr/internal/weather"
	"github.com/byteowlz/trackr/pkg/trackr"
)

// Service is the subset of *trackr.Tracker the API serves.
type Service interface {
	Sources() []trackr.SourceInfo
	List(ctx context.Context, name string, opts trackr.ListOptions) (*trackr.Listing, error)
	Summarize(ctx context.Context, url string) (*trackr.Summary, error)
	Weather(ctx context.Context, city string) (*weather.Reading, error)
}

type Server struct {
	service Service
	router  *mux.Router
	log     *logging.Logger
}

func New(service Service, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Discard()
	}
	s := &Server{service: service, router: mux.NewRouter(), log: log}

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/api/v1/sources", s.handleSources).Methods("GET")
	s.router.HandleFunc("/api/v1/sources/{name}", s.handleList).Methods("GET")
	s.router.HandleFunc("/api/v1/summary", s.handleSummary).Methods("GET")
	s.router.HandleFunc("/api/v1/weather", s.handleWeather).Methods("GET")
	s.router.Use(s.logRequests)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debugf("%s %s (%s)", r.Method, r.URL.RequestURI(), time.Since(start).Round(time.Millisecond))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Sources())
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	opts := trackr.ListOptions{Page: 1}
	if q := r.URL.Query().Get("page"); q != "" {
		p, err := strconv.Atoi(q)
		if err != nil || p < 1 {
			writeError(w, http.StatusBadRequest, "page must be a number of at least 1")
			return
		}
		opts.Page = p
	}
	opts.Summarize, _ = strconv.ParseBool(r.URL.Query().Get("summarize"))

	l, err := s.service.List(r.Context(), name, opts)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		writeError(w, http.StatusBadRequest, "missing url parameter")
		return
	}

	sum, err := s.service.Summarize(r.Context(), target)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	reading, err := s.service.Weather(r.Context(), r.URL.Query().Get("city"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.log.Warnf("request failed: %v", err)
	}
	writeError(w, status, err.Error())
}

// statusFor maps domain errors onto HTTP statuses. Failures of the boards or
// of the text APIs are gateway errors.
func statusFor(err error) int {
	if reason, ok := fetcher.ReasonOf(err); ok {
		if reason == fetcher.ReasonTimeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	}
	switch {
	case errors.Is(err, source.ErrUnknownSource):
		return http.StatusNotFound
	case errors.Is(err, source.ErrInvalidPage), errors.Is(err, summarizer.ErrEmptyContent):
		return http.StatusBadRequest
	case errors.Is(err, summarizer.ErrMissingKeys), errors.Is(err, weather.ErrMissingAPIKey),
		errors.Is(err, article.ErrUnconfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, article.ErrUnauthorized), errors.Is(err, article.ErrRateLimited):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
