package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mankeli-chat/mankeli/internal/mailbox"
	"github.com/mankeli-chat/mankeli/internal/protocol"
)

func (s *Server) handleFetchMessages(w http.ResponseWriter, r *http.Request) {
	var req protocol.FetchMessagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: malformed body: %v", mailbox.ErrInvalidInput, err), s.logger)
		return
	}

	msgs, err := s.svc.CollectMessages(req.Username)
	if err != nil {
		s.writeError(w, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, protocol.FetchMessagesResponse{Messages: msgs})
}

func (s *Server) handleFriendRequest(w http.ResponseWriter, r *http.Request) {
	var req protocol.FriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: malformed body: %v", mailbox.ErrInvalidInput, err), s.logger)
		return
	}

	token, err := s.svc.HandleFriendRequest(req)
	if err != nil {
		s.writeError(w, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, protocol.FriendRequestResponse{Status: token})
}
