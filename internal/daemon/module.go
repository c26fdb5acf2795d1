package daemon

import (
	"context"

	"github.com/mankeli-chat/mankeli/internal/bus"
	"github.com/mankeli-chat/mankeli/internal/config"
	"github.com/mankeli-chat/mankeli/internal/httpapi"
	"github.com/mankeli-chat/mankeli/internal/lock"
	"github.com/mankeli-chat/mankeli/internal/logging"
	"github.com/mankeli-chat/mankeli/internal/mailbox"
	"github.com/mankeli-chat/mankeli/internal/peer"
	"github.com/mankeli-chat/mankeli/internal/poller"
	"github.com/mankeli-chat/mankeli/internal/profile"
	"github.com/mankeli-chat/mankeli/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	ProfileName string
	ConfigPath  string // optional override for testing; empty = profile default
}

// Module returns the fx module for the daemon, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideBus,
			provideLock,
			provideStore,
			provideMailbox,
			providePeerClient,
			provideMessagePoller,
			provideFriendPoller,
			provideServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.ProfileName), p.ProfileName)
}

func provideConfig(p Params) (*config.Config, error) {
	path := p.ConfigPath
	if path == "" {
		path = profile.ConfigPath(p.ProfileName)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.ProfileName); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.ProfileName))
	l, err := lock.Acquire(profile.Dir(p.ProfileName))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideStore(p Params, cfg *config.Config, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := profile.DBPath(p.ProfileName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}

	ident, err := db.EnsureIdentity(cfg.Username, cfg.AdvertiseAddr)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("store initialized",
		zap.String("path", dbPath),
		zap.String("username", ident.Username),
		zap.String("address", ident.Address),
	)
	return db, nil
}

func provideMailbox(db *store.DB, b *bus.Bus, logger *zap.Logger) *mailbox.Service {
	return mailbox.NewService(db, b, logger)
}

func providePeerClient(cfg *config.Config) *peer.Client {
	return peer.New(cfg.Poll.PeerTimeout.Std())
}

func provideMessagePoller(db *store.DB, svc *mailbox.Service, client *peer.Client, cfg *config.Config, logger *zap.Logger) *poller.MessagePoller {
	return poller.NewMessagePoller(db, svc, client, cfg.Poll, logger)
}

func provideFriendPoller(db *store.DB, client *peer.Client, b *bus.Bus, cfg *config.Config, logger *zap.Logger) *poller.FriendPoller {
	return poller.NewFriendPoller(db, client, b, cfg.Poll, logger)
}

func provideServer(cfg *config.Config, svc *mailbox.Service, logger *zap.Logger) *httpapi.Server {
	return httpapi.NewServer(cfg.ListenAddr, svc, logger)
}

func registerLifecycle(lc fx.Lifecycle, srv *httpapi.Server, mp *poller.MessagePoller, fp *poller.FriendPoller, db *store.DB, lk *lock.Lock, b *bus.Bus, logger *zap.Logger) {
	notifier := newNotifier(b, logger)

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			notifier.Start()

			// Serve the inbound endpoints in the background.
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("inbound server error", zap.Error(err))
				}
			}()

			mp.Start(context.Background())
			fp.Start(context.Background())
			logger.Info("daemon started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			mp.Stop()
			fp.Stop()
			srv.Stop(ctx)
			notifier.Stop()
			_ = db.Close()
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
