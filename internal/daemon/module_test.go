package daemon

import (
	"testing"

	"github.com/mankeli-chat/mankeli/internal/config"
	"github.com/mankeli-chat/mankeli/internal/profile"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func TestModuleGraph(t *testing.T) {
	if err := fx.ValidateApp(Module(Params{ProfileName: "validate"})); err != nil {
		t.Fatal(err)
	}
}

func TestLifecycle(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	const name = "lifecycle"
	if err := profile.EnsureDir(name); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Username = "alice"
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.AdvertiseAddr = "127.0.0.1:7420"
	if err := config.Save(profile.ConfigPath(name), cfg); err != nil {
		t.Fatal(err)
	}

	app := fxtest.New(t, Module(Params{ProfileName: name}))
	app.RequireStart()
	app.RequireStop()
}
