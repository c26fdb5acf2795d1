package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mankeli-chat/mankeli/internal/config"
	"github.com/mankeli-chat/mankeli/internal/console"
	"github.com/mankeli-chat/mankeli/internal/mailbox"
	"github.com/mankeli-chat/mankeli/internal/profile"
	"github.com/mankeli-chat/mankeli/internal/store"
	"go.uber.org/zap"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides MANKELI_PROFILE)")
	flag.Parse()

	name := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(name); err != nil {
		fatal(err)
	}

	cfg, err := config.Load(profile.ConfigPath(name))
	if err != nil {
		fatal(fmt.Errorf("load config (run mankelid once, or create %s): %w", profile.ConfigPath(name), err))
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	if err := profile.EnsureDir(name); err != nil {
		fatal(err)
	}
	db, err := store.Open(profile.DBPath(name))
	if err != nil {
		fatal(err)
	}
	defer func() { _ = db.Close() }()
	if _, err := db.Migrate(); err != nil {
		fatal(err)
	}
	if _, err := db.EnsureIdentity(cfg.Username, cfg.AdvertiseAddr); err != nil {
		fatal(err)
	}

	// No bus and no logger output: the daemon owns the loops, and writing to
	// stderr would tear up the terminal UI.
	svc := mailbox.NewService(db, nil, zap.NewNop())

	if err := console.NewApp(svc, name).Run(); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
