package relation

import "fmt"

// Status is the relationship state with one remote node, stored literally in
// the friends table and carried literally in friend_request bodies.
type Status string

const (
	// InviteSent: this node invited the peer and awaits an answer.
	InviteSent Status = "InviteSent"
	// InviteReceived: the peer invited this node; the local operator must
	// accept or reject. Never legal on the wire.
	InviteReceived Status = "InviteReceived"
	// Accepted: both sides agreed; mail flows.
	Accepted Status = "Accepted"
	// Rejected: the invitation was declined. A fresh invite may reopen it.
	Rejected Status = "Rejected"
)

// Parse converts a wire req_type into a Status.
func Parse(s string) (Status, error) {
	switch Status(s) {
	case InviteSent, InviteReceived, Accepted, Rejected:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: unknown req_type %q", ErrInvalidTransition, s)
}

// Token returns the short response token for a status.
func (s Status) Token() string {
	switch s {
	case InviteSent:
		return "invite_sent"
	case InviteReceived:
		return "invite_received"
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// Valid reports whether s is one of the four defined states.
func (s Status) Valid() bool {
	switch s {
	case InviteSent, InviteReceived, Accepted, Rejected:
		return true
	}
	return false
}
