// Package server is the HTTP surface: the tweet acquisition orchestrator,
// the v1.1 timeline endpoint, the curated-content CRUD, sentiment analysis,
// health and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"curio/internal/config"
	"curio/internal/metrics"
	"curio/internal/model"
	"curio/internal/rapidapi"
	"curio/internal/sentiment"
	"curio/internal/store"
	"curio/internal/xclient"
)

// Server holds the process-lifetime collaborators. Clients for the official
// and proxy APIs are built per request because the credential arrives with
// the request; the constructors are fields so tests can substitute fakes.
type Server struct {
	cfg      config.Config
	db       *store.DB
	log      *zap.Logger
	analyzer *sentiment.Analyzer
	mux      *http.ServeMux

	newOfficial func(bearer string) xclient.OfficialAPI
	newProxy    func(key string) rapidapi.ProxyAPI
	v1          xclient.V1API
}

// New wires a server from its collaborators.
func New(cfg config.Config, db *store.DB, log *zap.Logger, analyzer *sentiment.Analyzer) *Server {
	s := &Server{
		cfg:      cfg,
		db:       db,
		log:      log,
		analyzer: analyzer,
		newOfficial: func(bearer string) xclient.OfficialAPI {
			return xclient.NewHTTPClient(bearer)
		},
		newProxy: func(key string) rapidapi.ProxyAPI {
			return rapidapi.New(key)
		},
		v1: xclient.NewV1Client(
			cfg.Credentials.ConsumerKey,
			cfg.Credentials.ConsumerSecret,
			cfg.Credentials.AccessToken,
			cfg.Credentials.AccessSecret,
		),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/twitter/following-tweets", s.handleFollowingTweets)
	mux.HandleFunc("GET /api/twitter/user-timeline", s.handleUserTimeline)

	mux.HandleFunc("GET /api/content/practices", s.handleListPractices)
	mux.HandleFunc("POST /api/content/practices", s.handleCreatePractice)
	mux.HandleFunc("PATCH /api/content/practices/{id}", s.handleUpdatePractice)
	mux.HandleFunc("DELETE /api/content/practices/{id}", s.handleDeletePractice)

	mux.HandleFunc("GET /api/content/images", s.handleListImages)
	mux.HandleFunc("POST /api/content/images", s.handleCreateImage)
	mux.HandleFunc("PATCH /api/content/images/{id}", s.handleUpdateImage)
	mux.HandleFunc("DELETE /api/content/images/{id}", s.handleDeleteImage)

	mux.HandleFunc("GET /api/content/posts", s.handleListPosts)
	mux.HandleFunc("POST /api/content/posts", s.handleCreatePost)

	mux.HandleFunc("POST /api/analytics/sentiment", s.handleSentiment)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	s.mux = mux
}

// Handler exposes the routed mux, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.mux }

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Server.Addr, Handler: s.mux}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("server listening", zap.String("addr", s.cfg.Server.Addr))
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func route(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return r.URL.Path
}

// respond writes a JSON body and records the request outcome.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", zap.Error(err))
	}
	metrics.IncRequest(route(r), code)
	s.log.Info("request", zap.String("route", route(r)), zap.Int("status", code))
}

type errorResponse struct {
	Error string `json:"error"`
}

// fail writes an {error} body with the given status.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, code int, msg string) {
	s.respond(w, r, code, errorResponse{Error: msg})
}

// upstreamFail translates an adapter error into a response: recognized
// upstream failures keep their status code in the message, everything else
// collapses into a generic internal error.
func (s *Server) upstreamFail(w http.ResponseWriter, r *http.Request, err error) {
	var ue *model.UpstreamError
	if errors.As(err, &ue) {
		s.log.Warn("upstream failure", zap.String("source", ue.Source), zap.Int("status", ue.Status))
		s.fail(w, r, http.StatusInternalServerError, ue.Error())
		return
	}
	s.log.Error("internal error", zap.Error(err))
	s.fail(w, r, http.StatusInternalServerError, "internal server error")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, map[string]any{"success": true, "message": "ok"})
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Text == "" {
		s.fail(w, r, http.StatusBadRequest, "missing parameter: text")
		return
	}
	s.respond(w, r, http.StatusOK, s.analyzer.Analyze(r.Context(), body.Text))
}
