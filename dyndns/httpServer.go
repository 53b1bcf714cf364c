package dyndns

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

type HTTPServer struct {
	handler *Handler
	listen  string
	server  *http.Server
	logger  *logrus.Entry
}

func (s *HTTPServer) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /{$}", s.handleUpdate)
	mux.HandleFunc("POST /{$}", s.handleUpdate)

	return mux
}

func (s *HTTPServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	params := map[string]string{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	response := s.handler.Handle(r.Context(), params)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(response.StatusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.WithError(err).Warn("Could not write response")
	}
}

// Start listens on the configured address and serves in the background.
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.listen, err)
	}

	s.server = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("HTTP server failed")
		}
	}()

	s.logger.WithField("listen", ln.Addr().String()).Info("HTTP server started")
	return nil
}

func (s *HTTPServer) Stop() {
	if s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.WithError(err).Warn("HTTP server did not shut down cleanly")
	}
}

func CreateHTTPServer(logger *logrus.Entry, handler *Handler, listen string) *HTTPServer {
	return &HTTPServer{
		handler: handler,
		listen:  listen,
		logger:  logger.WithField("module", "http-server"),
	}
}
