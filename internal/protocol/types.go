// Package protocol defines the JSON bodies exchanged between nodes. Both the
// inbound handlers and the outbound peer client marshal exactly these types;
// the wire contract is shared with independently-operated implementations, so
// nothing here may change shape casually.
package protocol

// FetchMessagesRequest is the body of POST /fetch_messages. Username and
// Address identify the polling node.
type FetchMessagesRequest struct {
	Username string `json:"username"`
	Address  string `json:"address"`
}

// Message is one piece of mail as it travels between nodes.
type Message struct {
	Sender  string `json:"sender"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// FetchMessagesResponse is the success body of POST /fetch_messages.
// Messages is always present, possibly empty.
type FetchMessagesResponse struct {
	Messages []Message `json:"messages"`
}

// FriendRequest is the body of POST /friend_request. Username is the
// addressee (the receiving node's identity), Hostname the sending node's
// identity, ReqType the sender's current relationship status. Address is the
// sender's reachable address; optional on updates, required when the request
// creates a new relationship.
type FriendRequest struct {
	Username string `json:"username"`
	Hostname string `json:"hostname"`
	Address  string `json:"address,omitempty"`
	ReqType  string `json:"req_type"`
}

// FriendRequestResponse is the success body of POST /friend_request.
type FriendRequestResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
