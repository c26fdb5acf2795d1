package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mankeli-chat/mankeli/internal/mailbox"
	"github.com/mankeli-chat/mankeli/internal/protocol"
	"github.com/mankeli-chat/mankeli/internal/relation"
	"go.uber.org/zap"
)

// writeError maps the taxonomy onto status codes: invalid transitions and
// malformed input are the caller's fault (400), a missing relationship is
// 404, everything else is an internal error whose detail stays in the logs.
func (s *Server) writeError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var status int
	var msg string
	switch {
	case errors.Is(err, relation.ErrInvalidTransition), errors.Is(err, mailbox.ErrInvalidInput):
		status = http.StatusBadRequest
		msg = err.Error()
	case errors.Is(err, relation.ErrNotFound):
		status = http.StatusNotFound
		msg = err.Error()
	default:
		status = http.StatusInternalServerError
		msg = "internal error"
		logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, protocol.ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
