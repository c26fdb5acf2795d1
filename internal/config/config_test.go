package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.Username = "alice"
	cfg.AdvertiseAddr = "alice.example.net:7420"
	cfg.Poll.MessageInterval = Duration(5 * time.Second)
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Username != "alice" {
		t.Errorf("Username = %q, want alice", loaded.Username)
	}
	if loaded.Poll.MessageInterval.Std() != 5*time.Second {
		t.Errorf("MessageInterval = %v, want 5s", loaded.Poll.MessageInterval.Std())
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	raw := "username = \"bob\"\nadvertise_addr = \"bob.example.net:7420\"\n"
	if err := os.WriteFile(path, []byte(raw), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	def := Default()
	if cfg.ListenAddr != def.ListenAddr {
		t.Errorf("ListenAddr = %q, want default %q", cfg.ListenAddr, def.ListenAddr)
	}
	if cfg.Poll.MessageInterval != def.Poll.MessageInterval {
		t.Errorf("MessageInterval = %v, want default %v", cfg.Poll.MessageInterval, def.Poll.MessageInterval)
	}
	if cfg.Poll.MessageFanout != 10 || cfg.Poll.FriendFanout != 5 {
		t.Errorf("fanout = %d/%d, want 10/5", cfg.Poll.MessageFanout, cfg.Poll.FriendFanout)
	}
	if cfg.Poll.PeerTimeout.Std() != 10*time.Second {
		t.Errorf("PeerTimeout = %v, want 10s", cfg.Poll.PeerTimeout.Std())
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil for config without username")
	}
	cfg.Username = "alice"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil for config without advertise_addr")
	}
	cfg.AdvertiseAddr = "alice.example.net:7420"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestDurationRoundTrip(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("90s")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if d.Std() != 90*time.Second {
		t.Errorf("parsed = %v, want 90s", d.Std())
	}
	text, err := d.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(text) != "1m30s" {
		t.Errorf("MarshalText() = %q, want 1m30s", text)
	}

	if err := d.UnmarshalText([]byte("not-a-duration")); err == nil {
		t.Error("UnmarshalText() = nil for garbage input")
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
