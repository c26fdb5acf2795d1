package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration is a time.Duration that decodes from TOML strings like "30s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML encoding.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config represents a node's <profile>/config.toml.
type Config struct {
	// Username is the node's mail identity, created in the store on first run.
	Username string `toml:"username"`
	// ListenAddr is the host:port the inbound endpoints bind to.
	ListenAddr string `toml:"listen_addr"`
	// AdvertiseAddr is the address other nodes reach this node at. Carried in
	// outbound friend requests so peers can store it.
	AdvertiseAddr string `toml:"advertise_addr"`

	Poll Poll `toml:"poll"`
}

// Poll holds the synchronization loop settings.
type Poll struct {
	MessageInterval Duration `toml:"message_interval"`
	FriendInterval  Duration `toml:"friend_interval"`
	EmptyBackoff    Duration `toml:"empty_backoff"`
	ErrorBackoff    Duration `toml:"error_backoff"`
	MessageFanout   int      `toml:"message_fanout"`
	FriendFanout    int      `toml:"friend_fanout"`
	PeerTimeout     Duration `toml:"peer_timeout"`
}

// Default returns a config with every poll setting at its default.
func Default() *Config {
	return &Config{
		ListenAddr: "127.0.0.1:7420",
		Poll: Poll{
			MessageInterval: Duration(30 * time.Second),
			FriendInterval:  Duration(15 * time.Second),
			EmptyBackoff:    Duration(15 * time.Second),
			ErrorBackoff:    Duration(60 * time.Second),
			MessageFanout:   10,
			FriendFanout:    5,
			PeerTimeout:     Duration(10 * time.Second),
		},
	}
}

// Load reads config from the given path and fills unset poll settings with
// defaults. Returns an error if the file is missing.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// Validate checks the fields the daemon cannot default.
func (c *Config) Validate() error {
	if c.Username == "" {
		return fmt.Errorf("config: username is required")
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("config: listen_addr is required")
	}
	if c.AdvertiseAddr == "" {
		return fmt.Errorf("config: advertise_addr is required")
	}
	return nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.ListenAddr == "" {
		c.ListenAddr = def.ListenAddr
	}
	if c.Poll.MessageInterval == 0 {
		c.Poll.MessageInterval = def.Poll.MessageInterval
	}
	if c.Poll.FriendInterval == 0 {
		c.Poll.FriendInterval = def.Poll.FriendInterval
	}
	if c.Poll.EmptyBackoff == 0 {
		c.Poll.EmptyBackoff = def.Poll.EmptyBackoff
	}
	if c.Poll.ErrorBackoff == 0 {
		c.Poll.ErrorBackoff = def.Poll.ErrorBackoff
	}
	if c.Poll.MessageFanout <= 0 {
		c.Poll.MessageFanout = def.Poll.MessageFanout
	}
	if c.Poll.FriendFanout <= 0 {
		c.Poll.FriendFanout = def.Poll.FriendFanout
	}
	if c.Poll.PeerTimeout == 0 {
		c.Poll.PeerTimeout = def.Poll.PeerTimeout
	}
}
