// Package relation holds the pure decision logic for relationship status
// transitions. It never touches the store: callers load the current row,
// ask for a Decision, and apply it. Every transition is idempotent under
// re-delivery, so at-least-once pushes from peers are safe.
package relation

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: the transition references a relationship that does not exist.
	ErrNotFound = errors.New("no relationship found")
	// ErrInvalidTransition: the request is semantically illegal from the
	// current state. Caller-correctable.
	ErrInvalidTransition = errors.New("invalid transition")
)

// Decision is the outcome of a transition request.
type Decision struct {
	// Status is the row's status after applying the decision.
	Status Status
	// Delivered is the row's delivered flag after applying. False means the
	// friend poller still owes the peer this status.
	Delivered bool
	// Apply is false when the transition was already satisfied and the row
	// must not be touched.
	Apply bool
}

// ApplyInbound decides the local row change for a peer-initiated request.
// exists is false when no row is stored for the peer; current is ignored
// in that case.
func ApplyInbound(current Status, exists bool, req Status) (Decision, error) {
	switch req {
	case InviteSent:
		// Translate to the receiver's perspective: the peer's "I sent you an
		// invite" becomes our InviteReceived. Delivered is true because the
		// peer needs no push to learn what it just told us.
		if !exists || current == Rejected {
			return Decision{Status: InviteReceived, Delivered: true, Apply: true}, nil
		}
		if current == InviteSent {
			// Crossed invites: both sides already asked for this friendship,
			// so complete it. Delivered stays false so the poller pushes the
			// Accepted back and flips the peer's InviteSent the same way.
			return Decision{Status: Accepted, Delivered: false, Apply: true}, nil
		}
		// Replay or already answered: keep the local view.
		return Decision{Status: current, Apply: false}, nil

	case InviteReceived:
		return Decision{}, fmt.Errorf("%w: InviteReceived must not appear on the wire", ErrInvalidTransition)

	case Accepted:
		if !exists {
			return Decision{}, ErrNotFound
		}
		switch current {
		case InviteSent:
			return Decision{Status: Accepted, Delivered: true, Apply: true}, nil
		case Accepted:
			return Decision{Status: Accepted, Delivered: true, Apply: false}, nil
		default:
			return Decision{}, fmt.Errorf("%w: no pending invitation to accept", ErrInvalidTransition)
		}

	case Rejected:
		if !exists {
			return Decision{}, ErrNotFound
		}
		switch current {
		case InviteSent:
			return Decision{Status: Rejected, Delivered: true, Apply: true}, nil
		case Rejected:
			return Decision{Status: Rejected, Delivered: true, Apply: false}, nil
		default:
			return Decision{}, fmt.Errorf("%w: no pending invitation to reject", ErrInvalidTransition)
		}
	}
	return Decision{}, fmt.Errorf("%w: unknown req_type %q", ErrInvalidTransition, req)
}

// ApplyLocalInvite decides the row change for the local "invite" action.
func ApplyLocalInvite(current Status, exists bool) (Decision, error) {
	if !exists || current == Rejected {
		return Decision{Status: InviteSent, Delivered: false, Apply: true}, nil
	}
	switch current {
	case InviteSent:
		// Already invited; nothing new to push.
		return Decision{Status: InviteSent, Apply: false}, nil
	case InviteReceived:
		return Decision{}, fmt.Errorf("%w: peer already invited you, accept or reject instead", ErrInvalidTransition)
	default:
		return Decision{}, fmt.Errorf("%w: already friends", ErrInvalidTransition)
	}
}

// ApplyLocalAccept decides the row change for the local "accept" action.
func ApplyLocalAccept(current Status, exists bool) (Decision, error) {
	if !exists {
		return Decision{}, ErrNotFound
	}
	switch current {
	case InviteReceived:
		return Decision{Status: Accepted, Delivered: false, Apply: true}, nil
	case Accepted:
		return Decision{Status: Accepted, Apply: false}, nil
	default:
		return Decision{}, fmt.Errorf("%w: no invitation to accept", ErrInvalidTransition)
	}
}

// ApplyLocalReject decides the row change for the local "reject" action.
func ApplyLocalReject(current Status, exists bool) (Decision, error) {
	if !exists {
		return Decision{}, ErrNotFound
	}
	switch current {
	case InviteReceived:
		return Decision{Status: Rejected, Delivered: false, Apply: true}, nil
	case Rejected:
		return Decision{Status: Rejected, Apply: false}, nil
	default:
		return Decision{}, fmt.Errorf("%w: no invitation to reject", ErrInvalidTransition)
	}
}
