package bus

import "time"

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Event kinds published by the node.
const (
	KindMailReceived    = "mail.received"    // Payload: MailReceived
	KindMailCollected   = "mail.collected"   // Payload: MailCollected
	KindFriendUpdated   = "friend.updated"   // Payload: FriendChange
	KindFriendDelivered = "friend.delivered" // Payload: FriendChange
)

// MailReceived is the payload for mail.received.
type MailReceived struct {
	Sender string
	Count  int
}

// MailCollected is the payload for mail.collected, published when a peer
// pulls queued outgoing messages from this node.
type MailCollected struct {
	Recipient string
	Count     int
}

// FriendChange is the payload for friend.* events.
type FriendChange struct {
	Username string
	Status   string
}
