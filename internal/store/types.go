package store

import "github.com/mankeli-chat/mankeli/internal/relation"

// Identity is the node's own user record. Singleton, created at first run.
type Identity struct {
	ID       int64
	Username string
	Address  string
}

// Friend is the stored relationship with one remote node.
type Friend struct {
	ID        int64
	Username  string
	Address   string
	Status    relation.Status
	Delivered bool
	UpdatedAt int64
}

// OutgoingMessage is one queued (or already collected) piece of outbound mail.
// RecipientAddress is snapshotted at enqueue time.
type OutgoingMessage struct {
	ID               int64
	Sender           string
	Recipient        string
	RecipientAddress string
	Subject          string
	Body             string
	QueuedAt         int64
	Delivered        bool
}

// InboxMessage is mail pulled from a peer. Immutable once created.
type InboxMessage struct {
	ID         int64
	Sender     string
	Subject    string
	Body       string
	ReceivedAt int64
}
