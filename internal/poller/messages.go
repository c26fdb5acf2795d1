// Package poller holds the two background synchronization loops. Each loop
// exposes Tick, which performs exactly one reconciliation pass and returns
// the delay before the next one, so tests drive single passes without
// wall-clock timers; Start runs Tick on that schedule until Stop.
package poller

import (
	"context"
	"time"

	"github.com/mankeli-chat/mankeli/internal/config"
	"github.com/mankeli-chat/mankeli/internal/mailbox"
	"github.com/mankeli-chat/mankeli/internal/peer"
	"github.com/mankeli-chat/mankeli/internal/protocol"
	"github.com/mankeli-chat/mankeli/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MessagePoller pulls queued mail from every accepted relationship.
type MessagePoller struct {
	db     *store.DB
	svc    *mailbox.Service
	client *peer.Client
	logger *zap.Logger

	interval     time.Duration
	emptyBackoff time.Duration
	errorBackoff time.Duration
	fanout       int

	cancel context.CancelFunc
	done   chan struct{}
}

// NewMessagePoller creates the mail-pulling loop.
func NewMessagePoller(db *store.DB, svc *mailbox.Service, client *peer.Client, cfg config.Poll, logger *zap.Logger) *MessagePoller {
	return &MessagePoller{
		db:           db,
		svc:          svc,
		client:       client,
		logger:       logger.Named("message_poller"),
		interval:     cfg.MessageInterval.Std(),
		emptyBackoff: cfg.EmptyBackoff.Std(),
		errorBackoff: cfg.ErrorBackoff.Std(),
		fanout:       cfg.MessageFanout,
	}
}

// Start begins polling until the context is cancelled or Stop is called.
func (p *MessagePoller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go runLoop(ctx, p.done, p.Tick)
}

// Stop cancels the loop and waits for the current pass to wind down.
// In-flight peer calls finish or hit their timeout.
func (p *MessagePoller) Stop() {
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
}

// Tick performs one full pull pass and returns the delay before the next.
func (p *MessagePoller) Tick(ctx context.Context) time.Duration {
	ident, err := p.db.Identity()
	if err != nil {
		p.logger.Error("failed to read identity", zap.Error(err))
		return p.errorBackoff
	}
	friends, err := p.db.AcceptedFriends()
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
			p.pull(ctx, ident, f)
			return nil
		})
	}
	_ = g.Wait()
	return p.interval
}

// pull fetches one peer's queue. Failures stay inside this peer's slot.
func (p *MessagePoller) pull(ctx context.Context, ident *store.Identity, f store.Friend) {
	msgs, err := p.client.FetchMessages(ctx, f.Address, protocol.FetchMessagesRequest{
		Username: ident.Username,
		Address:  ident.Address,
	})
	if err != nil {
		p.logger.Warn("pull failed", zap.String("peer", f.Username), zap.Error(err))
		return
	}
	if len(msgs) == 0 {
		return
	}
	if err := p.svc.IngestMessages(f.Username, msgs); err != nil {
		p.logger.Error("ingest failed", zap.String("peer", f.Username), zap.Error(err))
		return
	}
	p.logger.Info("mail ingested", zap.String("peer", f.Username), zap.Int("count", len(msgs)))
}

// runLoop ticks immediately, then sleeps whatever delay the tick asked for.
func runLoop(ctx context.Context, done chan struct{}, tick func(context.Context) time.Duration) {
	defer close(done)
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			timer.Reset(tick(ctx))
		}
	}
}
