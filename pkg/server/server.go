package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhaopengme/recipeclaw/pkg/gateway"
	"github.com/zhaopengme/recipeclaw/pkg/interaction"
	"github.com/zhaopengme/recipeclaw/pkg/logger"
	"github.com/zhaopengme/recipeclaw/pkg/metrics"
)

const (
	InteractionsPath = "/interactions"
	// legacyInteractionsPath is the endpoint URL older app registrations point at.
	legacyInteractionsPath = "/application-command"

	msgInvalidSignature = "invalid request signature"

	maxInteractionBody = 1 << 20
)

const routeDocs = `Recipe Extractor Bot:
You can use the following routes:
GET  /              - This route
POST /interactions  - Handle Discord application commands
GET  /healthz       - Liveness check
GET  /metrics       - Prometheus metrics
`

// Router is the interaction handler surface the server needs.
type Router interface {
	Route(ctx context.Context, rawBody []byte) gateway.Outcome
}

type Server struct {
	Router     *chi.Mux
	Addr       string
	verifier   *interaction.Verifier
	gateway    Router
	httpServer *http.Server
}

func New(addr string, verifier *interaction.Verifier, gw Router) *Server {
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger.Slog()))
	r.Use(middleware.Recoverer)

	s := &Server{
		Router:   r,
		Addr:     addr,
		verifier: verifier,
		gateway:  gw,
	}

	r.Get("/", s.handleDocs)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Post(InteractionsPath, s.handleInteraction)
	r.Post(legacyInteractionsPath, s.handleInteraction)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start blocks until the server stops. A graceful Shutdown returns nil.
func (s *Server) Start() error {
	logger.InfoCF("server", "Starting interactions endpoint", map[string]any{"addr": s.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(routeDocs))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxInteractionBody)
	body, ok := s.verifier.VerifyRequest(r)
	if !ok {
		logger.WarnCF("server", "Rejected unsigned interaction", map[string]any{
			"request_id": GetRequestID(r.Context()),
		})
		metrics.RecordInteraction("unauthorized", "401")
		http.Error(w, msgInvalidSignature, http.StatusUnauthorized)
		return
	}

	out := s.gateway.Route(r.Context(), body)
	logger.DebugCF("server", "Interaction routed", map[string]any{
		"request_id": GetRequestID(r.Context()),
		"kind":       string(out.Kind),
		"status":     out.Status,
	})
	if out.Response == nil {
		http.Error(w, out.Message, out.Status)
		return
	}
	writeJSON(w, out.Status, out.Response)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.ErrorCF("server", "Failed to encode response", map[string]any{"error": err.Error()})
	}
}
