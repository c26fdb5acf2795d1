package daemon

import (
	"github.com/mankeli-chat/mankeli/internal/bus"
	"go.uber.org/zap"
)

// notifier drains the event bus into the daemon log so that node activity
// shows up in one place even when no console is attached.
type notifier struct {
	bus    *bus.Bus
	logger *zap.Logger
	unsub  func()
	quit   chan struct{}
	done   chan struct{}
}

func newNotifier(b *bus.Bus, logger *zap.Logger) *notifier {
	return &notifier{bus: b, logger: logger.Named("events")}
}

func (n *notifier) Start() {
	ch, unsub := n.bus.Subscribe("", 64)
	n.unsub = unsub
	n.quit = make(chan struct{})
	n.done = make(chan struct{})
	go func() {
		defer close(n.done)
		for {
			select {
			case evt := <-ch:
				n.log(evt)
			case <-n.quit:
				return
			}
		}
	}()
}

func (n *notifier) Stop() {
	if n.unsub == nil {
		return
	}
	n.unsub()
	close(n.quit)
	<-n.done
	n.unsub = nil
}

func (n *notifier) log(evt bus.Event) {
	switch payload := evt.Payload.(type) {
	case bus.MailReceived:
		n.logger.Info("mail received",
			zap.String("sender", payload.Sender),
			zap.Int("count", payload.Count),
		)
	case bus.MailCollected:
		n.logger.Info("mail collected",
			zap.String("recipient", payload.Recipient),
			zap.Int("count", payload.Count),
		)
	case bus.FriendChange:
		n.logger.Info("relationship event",
			zap.String("kind", evt.Kind),
			zap.String("peer", payload.Username),
			zap.String("status", payload.Status),
		)
	default:
		n.logger.Info("event", zap.String("kind", evt.Kind))
	}
}
