package poller

import (
	"context"
	"time"

	"github.com/mankeli-chat/mankeli/internal/bus"
	"github.com/mankeli-chat/mankeli/internal/config"
	"github.com/mankeli-chat/mankeli/internal/peer"
	"github.com/mankeli-chat/mankeli/internal/protocol"
	"github.com/mankeli-chat/mankeli/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FriendPoller pushes undelivered local status changes to their peers.
type FriendPoller struct {
	db     *store.DB
	client *peer.Client
	bus    *bus.Bus
	logger *zap.Logger

	interval     time.Duration
	emptyBackoff time.Duration
	errorBackoff time.Duration
	fanout       int

	cancel context.CancelFunc
	done   chan struct{}
}

// NewFriendPoller creates the status-pushing loop.
func NewFriendPoller(db *store.DB, client *peer.Client, b *bus.Bus, cfg config.Poll, logger *zap.Logger) *FriendPoller {
	return &FriendPoller{
		db:           db,
		client:       client,
		bus:          b,
		logger:       logger.Named("friend_poller"),
		interval:     cfg.FriendInterval.Std(),
		emptyBackoff: cfg.EmptyBackoff.Std(),
		errorBackoff: cfg.ErrorBackoff.Std(),
		fanout:       cfg.FriendFanout,
	}
}

// Start begins polling until the context is cancelled or Stop is called.
func (p *FriendPoller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go runLoop(ctx, p.done, p.Tick)
}

// Stop cancels the loop and waits for the current pass to wind down.
func (p *FriendPoller) Stop() {
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
}

// Tick performs one full push pass and returns the delay before the next.
func (p *FriendPoller) Tick(ctx context.Context) time.Duration {
	ident, err := p.db.Identity()
	if err != nil {
		p.logger.Error("failed to read identity", zap.Error(err))
		return p.errorBackoff
	}
	friends, err := p.db.UndeliveredFriends()
	if err != nil {
		p.logger.Error("failed to read relationships", zap.Error(err))
		return p.errorBackoff
	}
	if len(friends) == 0 {
		return p.emptyBackoff
	}

	var g errgroup.Group
	g.SetLimit(p.fanout)
	for _, f := range friends {
		f := f
		g.Go(func() error {
			p.push(ctx, ident, f)
			return nil
		})
	}
	_ = g.Wait()
	return p.interval
}

// push delivers one relationship's current status. On failure the delivered
// flag stays false and the next tick retries; transitions are idempotent so
// a push that succeeded remotely but failed locally is safe to repeat.
func (p *FriendPoller) push(ctx context.Context, ident *store.Identity, f store.Friend) {
	token, err := p.client.PushFriendRequest(ctx, f.Address, protocol.FriendRequest{
		Username: f.Username,
		Hostname: ident.Username,
		Address:  ident.Address,
		ReqType:  string(f.Status),
	})
	if err != nil {
		p.logger.Warn("push failed", zap.String("peer", f.Username), zap.Error(err))
		return
	}
	if err := p.db.MarkFriendDelivered(f.Username, f.Status); err != nil {
		p.logger.Error("failed to mark delivered", zap.String("peer", f.Username), zap.Error(err))
		return
	}
	p.logger.Info("status delivered",
		zap.String("peer", f.Username),
		zap.String("status", string(f.Status)),
		zap.String("peer_token", token),
	)
	p.bus.Publish(bus.Event{
		Kind:      bus.KindFriendDelivered,
		Timestamp: time.Now(),
		Payload:   bus.FriendChange{Username: f.Username, Status: string(f.Status)},
	})
}
