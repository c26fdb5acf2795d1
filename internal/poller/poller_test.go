package poller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mankeli-chat/mankeli/internal/bus"
	"github.com/mankeli-chat/mankeli/internal/config"
	"github.com/mankeli-chat/mankeli/internal/mailbox"
	"github.com/mankeli-chat/mankeli/internal/peer"
	"github.com/mankeli-chat/mankeli/internal/protocol"
	"github.com/mankeli-chat/mankeli/internal/relation"
	"github.com/mankeli-chat/mankeli/internal/store"
	"go.uber.org/zap"
)

func testPollConfig() config.Poll {
	return config.Poll{
		MessageInterval: config.Duration(time.Minute),
		FriendInterval:  config.Duration(30 * time.Second),
		EmptyBackoff:    config.Duration(5 * time.Second),
		ErrorBackoff:    config.Duration(10 * time.Second),
		MessageFanout:   10,
		FriendFanout:    5,
	}
}

func testFixture(t *testing.T) (*store.DB, *mailbox.Service, *bus.Bus) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.EnsureIdentity("bob", "bob.example.net:7420"); err != nil {
		t.Fatal(err)
	}
	b := bus.New()
	logger, _ := zap.NewDevelopment()
	return db, mailbox.NewService(db, b, logger), b
}

// mailPeer serves /fetch_messages with a fixed batch and records the caller.
func mailPeer(t *testing.T, sender string, batch []protocol.Message) (addr string, calls *atomic.Int64) {
	t.Helper()
	calls = &atomic.Int64{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req protocol.FetchMessagesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("peer %s: decode: %v", sender, err)
		}
		if req.Username != "bob" {
			t.Errorf("peer %s: polled by %q, want bob", sender, req.Username)
		}
		_ = json.NewEncoder(w).Encode(protocol.FetchMessagesResponse{Messages: batch})
	}))
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://"), calls
}

func TestMessageTickIngestsFromAcceptedFriends(t *testing.T) {
	db, svc, _ := testFixture(t)
	logger, _ := zap.NewDevelopment()

	aliceAddr, _ := mailPeer(t, "alice", []protocol.Message{{Sender: "alice", Subject: "hi", Body: "hello"}})
	carolAddr, _ := mailPeer(t, "carol", []protocol.Message{{Sender: "carol", Subject: "yo", Body: "hey"}})

	if err := db.UpsertFriend("alice", aliceAddr, relation.Accepted, true); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertFriend("carol", carolAddr, relation.Accepted, true); err != nil {
		t.Fatal(err)
	}
	// Pending relationships are not polled.
	if err := db.UpsertFriend("dave", "localhost:1", relation.InviteSent, true); err != nil {
		t.Fatal(err)
	}

	cfg := testPollConfig()
	p := NewMessagePoller(db, svc, peer.New(time.Second), cfg, logger)

	delay := p.Tick(context.Background())
	if delay != cfg.MessageInterval.Std() {
		t.Errorf("delay = %v, want interval %v", delay, cfg.MessageInterval.Std())
	}

	inbox, err := db.ListInbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(inbox) != 2 {
		t.Fatalf("inbox = %d rows, want 2", len(inbox))
	}
}

func TestMessageTickEmptySet(t *testing.T) {
	db, svc, _ := testFixture(t)
	logger, _ := zap.NewDevelopment()
	cfg := testPollConfig()
	p := NewMessagePoller(db, svc, peer.New(time.Second), cfg, logger)

	if delay := p.Tick(context.Background()); delay != cfg.EmptyBackoff.Std() {
		t.Errorf("delay = %v, want empty backoff %v", delay, cfg.EmptyBackoff.Std())
	}
}

func TestMessageTickStoreErrorBacksOff(t *testing.T) {
	db, svc, _ := testFixture(t)
	logger, _ := zap.NewDevelopment()
	cfg := testPollConfig()
	p := NewMessagePoller(db, svc, peer.New(time.Second), cfg, logger)

	_ = db.Close()
	if delay := p.Tick(context.Background()); delay != cfg.ErrorBackoff.Std() {
		t.Errorf("delay = %v, want error backoff %v", delay, cfg.ErrorBackoff.Std())
	}
}

func TestMessageTickIsolatesHungPeer(t *testing.T) {
	db, svc, _ := testFixture(t)
	logger, _ := zap.NewDevelopment()

	block := make(chan struct{})
	hung := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer hung.Close()
	defer close(block)

	aliceAddr, _ := mailPeer(t, "alice", []protocol.Message{{Sender: "alice", Subject: "hi", Body: "hello"}})
	carolAddr, _ := mailPeer(t, "carol", []protocol.Message{{Sender: "carol", Subject: "yo", Body: "hey"}})

	if err := db.UpsertFriend("alice", aliceAddr, relation.Accepted, true); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertFriend("carol", carolAddr, relation.Accepted, true); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertFriend("mallory", strings.TrimPrefix(hung.URL, "http://"), relation.Accepted, true); err != nil {
		t.Fatal(err)
	}

	// The hung peer burns its own timeout, not the tick.
	p := NewMessagePoller(db, svc, peer.New(200*time.Millisecond), testPollConfig(), logger)

	start := time.Now()
	p.Tick(context.Background())
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("tick took %v, hung peer stalled the pass", elapsed)
	}

	inbox, err := db.ListInbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(inbox) != 2 {
		t.Errorf("inbox = %d rows, want 2 (healthy peers unaffected)", len(inbox))
	}
}

func TestFriendTickPushesOnceThenSkips(t *testing.T) {
	db, _, b := testFixture(t)
	logger, _ := zap.NewDevelopment()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req protocol.FriendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Hostname != "bob" || req.ReqType != "InviteSent" || req.Address == "" {
			t.Errorf("push body = %+v", req)
		}
		_ = json.NewEncoder(w).Encode(protocol.FriendRequestResponse{Status: "invite_sent"})
	}))
	defer srv.Close()

	if err := db.UpsertFriend("alice", strings.TrimPrefix(srv.URL, "http://"), relation.InviteSent, false); err != nil {
		t.Fatal(err)
	}

	ch, unsub := b.Subscribe("friend.delivered", 10)
	defer unsub()

	cfg := testPollConfig()
	p := NewFriendPoller(db, peer.New(time.Second), b, cfg, logger)

	if delay := p.Tick(context.Background()); delay != cfg.FriendInterval.Std() {
		t.Errorf("first delay = %v, want interval", delay)
	}
	if calls.Load() != 1 {
		t.Fatalf("first tick made %d calls, want 1", calls.Load())
	}

	f, err := db.GetFriend("alice")
	if err != nil {
		t.Fatal(err)
	}
	if !f.Delivered {
		t.Error("delivered flag not set after successful push")
	}

	select {
	case evt := <-ch:
		got := evt.Payload.(bus.FriendChange)
		if got.Username != "alice" || got.Status != "InviteSent" {
			t.Errorf("event payload = %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for friend.delivered")
	}

	// Second tick sees nothing undelivered: zero network pushes.
	if delay := p.Tick(context.Background()); delay != cfg.EmptyBackoff.Std() {
		t.Errorf("second delay = %v, want empty backoff", delay)
	}
	if calls.Load() != 1 {
		t.Errorf("second tick made %d extra calls, want 0", calls.Load()-1)
	}
}

func TestFriendTickFailureLeavesUndelivered(t *testing.T) {
	db, _, b := testFixture(t)
	logger, _ := zap.NewDevelopment()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(protocol.ErrorResponse{Error: "boom"})
	}))
	defer srv.Close()

	if err := db.UpsertFriend("alice", strings.TrimPrefix(srv.URL, "http://"), relation.Accepted, false); err != nil {
		t.Fatal(err)
	}

	p := NewFriendPoller(db, peer.New(time.Second), b, testPollConfig(), logger)
	p.Tick(context.Background())

	f, err := db.GetFriend("alice")
	if err != nil {
		t.Fatal(err)
	}
	if f.Delivered {
		t.Error("delivered flag set despite failed push; next tick would skip the retry")
	}
}

func TestStartStop(t *testing.T) {
	db, svc, b := testFixture(t)
	logger, _ := zap.NewDevelopment()
	cfg := testPollConfig()

	mp := NewMessagePoller(db, svc, peer.New(time.Second), cfg, logger)
	fp := NewFriendPoller(db, peer.New(time.Second), b, cfg, logger)

	mp.Start(context.Background())
	fp.Start(context.Background())

	// Give the first immediate ticks a moment, then stop; Stop must not hang.
	time.Sleep(100 * time.Millisecond)
	done := make(chan struct{})
	go func() {
		mp.Stop()
		fp.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() did not return")
	}
}
