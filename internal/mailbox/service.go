// Package mailbox is the service layer every surface goes through: the
// console for local actions, the inbound HTTP handlers for peer requests,
// and the pollers for ingest. It owns no state of its own; all durable
// state lives in the store, all transition decisions in relation.
package mailbox

import (
	"errors"
	"fmt"
	"time"

	"github.com/mankeli-chat/mankeli/internal/bus"
	"github.com/mankeli-chat/mankeli/internal/protocol"
	"github.com/mankeli-chat/mankeli/internal/relation"
	"github.com/mankeli-chat/mankeli/internal/store"
	"go.uber.org/zap"
)

// ErrInvalidInput marks a request rejected before any transition decision
// applies: missing fields, a misrouted addressee, a body that does not
// parse. Caller-correctable, like relation.ErrInvalidTransition.
var ErrInvalidInput = errors.New("invalid input")

// Service wires the store, the state machine and the event bus together.
type Service struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger
}

// NewService creates the mailbox service. bus may be nil (console usage).
func NewService(db *store.DB, b *bus.Bus, logger *zap.Logger) *Service {
	return &Service{db: db, bus: b, logger: logger}
}

// Identity returns the node's own user record.
func (s *Service) Identity() (*store.Identity, error) {
	return s.db.Identity()
}

// Friends returns all relationship rows.
func (s *Service) Friends() ([]store.Friend, error) {
	return s.db.ListFriends()
}

// Inbox returns ingested mail, newest first.
func (s *Service) Inbox() ([]store.InboxMessage, error) {
	return s.db.ListInbox()
}

// Outbound returns the outgoing audit log, newest first.
func (s *Service) Outbound() ([]store.OutgoingMessage, error) {
	return s.db.ListOutgoing()
}

// DeleteInboxMessage removes one read message.
func (s *Service) DeleteInboxMessage(id int64) error {
	return s.db.DeleteInboxMessage(id)
}

// RemoveFriend drops the relationship entirely.
func (s *Service) RemoveFriend(username string) error {
	return s.db.DeleteFriend(username)
}

// Invite records a local invitation to the peer at address. The friend
// poller delivers it on its next tick.
func (s *Service) Invite(username, address string) error {
	if username == "" || address == "" {
		return fmt.Errorf("%w: username and address are required", ErrInvalidInput)
	}
	row, err := s.db.GetFriend(username)
	if err != nil {
		return err
	}
	dec, err := relation.ApplyLocalInvite(currentOf(row))
	if err != nil {
		return err
	}
	if !dec.Apply {
		return nil
	}
	if err := s.db.UpsertFriend(username, address, dec.Status, dec.Delivered); err != nil {
		return err
	}
	s.publishFriend(bus.KindFriendUpdated, username, dec.Status)
	return nil
}

// Accept answers a received invitation. Idempotent.
func (s *Service) Accept(username string) error {
	return s.answer(username, relation.ApplyLocalAccept)
}

// Reject declines a received invitation. Idempotent.
func (s *Service) Reject(username string) error {
	return s.answer(username, relation.ApplyLocalReject)
}

func (s *Service) answer(username string, decide func(relation.Status, bool) (relation.Decision, error)) error {
	row, err := s.db.GetFriend(username)
	if err != nil {
		return err
	}
	dec, err := decide(currentOf(row))
	if err != nil {
		return err
	}
	if !dec.Apply {
		return nil
	}
	if err := s.db.UpsertFriend(username, row.Address, dec.Status, dec.Delivered); err != nil {
		return err
	}
	s.publishFriend(bus.KindFriendUpdated, username, dec.Status)
	return nil
}

// QueueMessage puts mail on the store-and-forward queue for an accepted
// friend, snapshotting the friend's current address.
func (s *Service) QueueMessage(recipient, subject, body string) error {
	row, err := s.db.GetFriend(recipient)
	if err != nil {
		return err
	}
	if row == nil {
		return fmt.Errorf("%w: %s", relation.ErrNotFound, recipient)
	}
	if row.Status != relation.Accepted {
		return fmt.Errorf("%w: %s has not accepted your invitation", relation.ErrInvalidTransition, recipient)
	}
	ident, err := s.db.Identity()
	if err != nil {
		return err
	}
	return s.db.QueueOutgoing(ident.Username, recipient, row.Address, subject, body)
}

// HandleFriendRequest dispatches an inbound /friend_request body through the
// transition table and returns the response status token.
func (s *Service) HandleFriendRequest(req protocol.FriendRequest) (string, error) {
	reqStatus, err := relation.Parse(req.ReqType)
	if err != nil {
		return "", err
	}
	if req.Hostname == "" {
		return "", fmt.Errorf("%w: hostname is required", ErrInvalidInput)
	}

	ident, err := s.db.Identity()
	if err != nil {
		return "", err
	}
	if req.Username != ident.Username {
		// One user per node; a mismatched addressee is a misrouted request.
		return "", fmt.Errorf("%w: request addressed to %q, this node serves %q",
			ErrInvalidInput, req.Username, ident.Username)
	}

	row, err := s.db.GetFriend(req.Hostname)
	if err != nil {
		return "", err
	}
	current, exists := currentOf(row)
	dec, err := relation.ApplyInbound(current, exists, reqStatus)
	if err != nil {
		return "", err
	}
	if dec.Apply {
		address := req.Address
		if address == "" && row != nil {
			address = row.Address
		}
		if address == "" {
			return "", fmt.Errorf("%w: address is required for a new relationship", ErrInvalidInput)
		}
		if err := s.db.UpsertFriend(req.Hostname, address, dec.Status, dec.Delivered); err != nil {
			return "", err
		}
		s.publishFriend(bus.KindFriendUpdated, req.Hostname, dec.Status)
	}
	return reqStatus.Token(), nil
}

// CollectMessages serves an inbound /fetch_messages body: the undelivered
// queue for username, marked delivered as part of serving it.
func (s *Service) CollectMessages(username string) ([]protocol.Message, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	rows, err := s.db.CollectOutgoingFor(username)
	if err != nil {
		return nil, err
	}
	msgs := make([]protocol.Message, 0, len(rows))
	for _, m := range rows {
		msgs = append(msgs, protocol.Message{Sender: m.Sender, Subject: m.Subject, Body: m.Body})
	}
	if len(msgs) > 0 {
		s.bus.Publish(bus.Event{
			Kind:      bus.KindMailCollected,
			Timestamp: time.Now(),
			Payload:   bus.MailCollected{Recipient: username, Count: len(msgs)},
		})
	}
	return msgs, nil
}

// IngestMessages stores one peer's pulled mail as a batch and announces it.
func (s *Service) IngestMessages(peer string, msgs []protocol.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	batch := make([]store.InboxMessage, 0, len(msgs))
	for _, m := range msgs {
		batch = append(batch, store.InboxMessage{Sender: m.Sender, Subject: m.Subject, Body: m.Body})
	}
	if err := s.db.InsertInboxBatch(batch); err != nil {
		return err
	}
	s.bus.Publish(bus.Event{
		Kind:      bus.KindMailReceived,
		Timestamp: time.Now(),
		Payload:   bus.MailReceived{Sender: peer, Count: len(msgs)},
	})
	return nil
}

func (s *Service) publishFriend(kind, username string, status relation.Status) {
	s.bus.Publish(bus.Event{
		Kind:      kind,
		Timestamp: time.Now(),
		Payload:   bus.FriendChange{Username: username, Status: string(status)},
	})
}

// currentOf flattens an optional row into the state machine's inputs.
func currentOf(row *store.Friend) (relation.Status, bool) {
	if row == nil {
		return "", false
	}
	return row.Status, true
}
