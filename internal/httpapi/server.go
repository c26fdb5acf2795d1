// Package httpapi exposes the two inbound endpoints remote nodes' pollers
// call into: POST /fetch_messages and POST /friend_request.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mankeli-chat/mankeli/internal/mailbox"
	"go.uber.org/zap"
)

// Server manages the inbound HTTP listener lifecycle.
type Server struct {
	svc    *mailbox.Service
	http   *http.Server
	logger *zap.Logger
}

// NewServer creates the inbound server bound to addr.
func NewServer(addr string, svc *mailbox.Service, logger *zap.Logger) *Server {
	s := &Server{svc: svc, logger: logger}

	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.Methods(http.MethodPost).Path("/fetch_messages").HandlerFunc(s.handleFetchMessages)
	r.Methods(http.MethodPost).Path("/friend_request").HandlerFunc(s.handleFriendRequest)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler, for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start begins serving. Blocks until Stop or a listener error.
func (s *Server) Start() error {
	s.logger.Info("inbound endpoints listening", zap.String("addr", s.http.Addr))
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop performs a graceful shutdown, letting in-flight requests finish.
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("inbound server stopping")
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

// logRequests tags every request with an ID and logs its outcome.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		m := httpsnoop.CaptureMetrics(next, w, r)
		s.logger.Info("handled",
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", m.Code),
			zap.Duration("duration", m.Duration),
		)
	})
}
