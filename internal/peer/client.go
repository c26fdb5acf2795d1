// Package peer is the thin outbound side of the node protocol: one POST per
// call, a timeout, and JSON in both directions. The network stack underneath
// is plain net/http; everything above treats a slow or dead peer the same
// way, as an error for that peer only.
package peer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mankeli-chat/mankeli/internal/protocol"
)

// Client issues requests to remote nodes' inbound endpoints.
type Client struct {
	http *http.Client
}

// New creates a client whose calls all time out after the given duration.
func New(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{Timeout: timeout},
	}
}

// FetchMessages pulls queued mail for us from the peer at addr.
func (c *Client) FetchMessages(ctx context.Context, addr string, req protocol.FetchMessagesRequest) ([]protocol.Message, error) {
	var resp protocol.FetchMessagesResponse
	if err := c.post(ctx, addr, "/fetch_messages", req, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// PushFriendRequest delivers our current relationship status to the peer at
// addr and returns the peer's status token.
func (c *Client) PushFriendRequest(ctx context.Context, addr string, req protocol.FriendRequest) (string, error) {
	var resp protocol.FriendRequestResponse
	if err := c.post(ctx, addr, "/friend_request", req, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

func (c *Client) post(ctx context.Context, addr, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	url := "http://" + addr + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post %s: %s", url, peerError(resp))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}

// peerError extracts the peer's error body when it sent one.
func peerError(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var body protocol.ErrorResponse
		if json.Unmarshal(data, &body) == nil && body.Error != "" {
			return fmt.Sprintf("%s (%s)", resp.Status, body.Error)
		}
	}
	return resp.Status
}
