package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chris/copiloto/internal/agent"
	"github.com/chris/copiloto/internal/intent"
)

const maxBodyBytes = 1 << 20

type Server struct {
	agent          *agent.Agent
	classifier     *intent.Classifier
	profiles       map[string]agent.Profile
	requestTimeout time.Duration
}

// New wires the HTTP surface. profiles must contain chat, assistant and memory.
func New(ag *agent.Agent, classifier *intent.Classifier, profiles map[string]agent.Profile, requestTimeout time.Duration) *Server {
	return &Server{agent: ag, classifier: classifier, profiles: profiles, requestTimeout: requestTimeout}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID, logRequests, recoverJSON, timeout(s.requestTimeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleText(s.profiles["chat"]))
		r.Post("/assistant", s.handleText(s.profiles["assistant"]))
		r.Post("/intent", s.handleIntent)
		r.Post("/memory-chat", s.handleMemoryChat)
	})
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then drains.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
