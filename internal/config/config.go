package config

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Storage drivers. DriverMemory keeps the bankroll for the lifetime of the process.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config represents the complete blackjack configuration
type Config struct {
	Server  ServerSettings
	Game    GameSettings
	Storage StorageSettings
	Pacing  PacingSettings
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address     string `hcl:"address,optional"`
	Port        int    `hcl:"port,optional"`
	FrontendURL string `hcl:"frontend_url,optional"`
	LogLevel    string `hcl:"log_level,optional"`

	// SessionIdleMinutes is how long a session may sit unused before the
	// server drops it from memory.
	SessionIdleMinutes int `hcl:"session_idle_minutes,optional"`
}

// GameSettings configures every session the process creates
type GameSettings struct {
	StartingBankroll   int   `hcl:"starting_bankroll,optional"`
	ReshuffleEachRound *bool `hcl:"reshuffle_each_round,optional"`
	// Seed fixes the shuffle sequence. Zero seeds from the clock.
	Seed int64 `hcl:"seed,optional"`
}

// StorageSettings selects where bankrolls and round history live
type StorageSettings struct {
	Driver string `hcl:"driver,optional"`
	DSN    string `hcl:"dsn,optional"`
}

// PacingSettings are the delays the event stream leaves between animations
type PacingSettings struct {
	DealDelayMS   int
	RevealDelayMS int
	SettleDelayMS int
}

type file struct {
	Server  *ServerSettings  `hcl:"server,block"`
	Game    *GameSettings    `hcl:"game,block"`
	Storage *StorageSettings `hcl:"storage,block"`
	Pacing  *pacingFile      `hcl:"pacing,block"`
}

// pacingFile keeps absent delays apart from an explicit zero.
type pacingFile struct {
	DealDelayMS   *int `hcl:"deal_delay_ms,optional"`
	RevealDelayMS *int `hcl:"reveal_delay_ms,optional"`
	SettleDelayMS *int `hcl:"settle_delay_ms,optional"`
}

// Default returns default configuration
func Default() *Config {
	reshuffle := true
	return &Config{
		Server: ServerSettings{
			Address:            "localhost",
			Port:               8080,
			FrontendURL:        "http://localhost:3000",
			LogLevel:           "info",
			SessionIdleMinutes: 30,
		},
		Game: GameSettings{
			StartingBankroll:   100,
			ReshuffleEachRound: &reshuffle,
		},
		Storage: StorageSettings{
			Driver: DriverMemory,
		},
		Pacing: PacingSettings{
			DealDelayMS:   700,
			RevealDelayMS: 700,
			SettleDelayMS: 300,
		},
	}
}

// Load loads configuration from an HCL file. A missing file yields the defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}
	return decode(f)
}

// Parse parses configuration from HCL source
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}
	return decode(f)
}

func decode(f *hcl.File) (*Config, error) {
	var raw file
	if diags := gohcl.DecodeBody(f.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config := Default()

	// Apply defaults for missing values
	if s := raw.Server; s != nil {
		if s.Address != "" {
			config.Server.Address = s.Address
		}
		if s.Port != 0 {
			config.Server.Port = s.Port
		}
		if s.FrontendURL != "" {
			config.Server.FrontendURL = s.FrontendURL
		}
		if s.LogLevel != "" {
			config.Server.LogLevel = s.LogLevel
		}
		if s.SessionIdleMinutes != 0 {
			config.Server.SessionIdleMinutes = s.SessionIdleMinutes
		}
	}
	if g := raw.Game; g != nil {
		if g.StartingBankroll != 0 {
			config.Game.StartingBankroll = g.StartingBankroll
		}
		if g.ReshuffleEachRound != nil {
			config.Game.ReshuffleEachRound = g.ReshuffleEachRound
		}
		config.Game.Seed = g.Seed
	}
	if s := raw.Storage; s != nil {
		if s.Driver != "" {
			config.Storage.Driver = s.Driver
		}
		config.Storage.DSN = s.DSN
	}
	if p := raw.Pacing; p != nil {
		if p.DealDelayMS != nil {
			config.Pacing.DealDelayMS = *p.DealDelayMS
		}
		if p.RevealDelayMS != nil {
			config.Pacing.RevealDelayMS = *p.RevealDelayMS
		}
		if p.SettleDelayMS != nil {
			config.Pacing.SettleDelayMS = *p.SettleDelayMS
		}
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Server.LogLevel, err)
	}

	if c.Server.SessionIdleMinutes < 1 {
		return fmt.Errorf("session idle minutes must be positive, got %d", c.Server.SessionIdleMinutes)
	}

	if c.Game.StartingBankroll <= 0 {
		return fmt.Errorf("starting bankroll must be positive, got %d", c.Game.StartingBankroll)
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage driver %s requires a dsn", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("invalid storage driver: %s", c.Storage.Driver)
	}

	if c.Pacing.DealDelayMS < 0 || c.Pacing.RevealDelayMS < 0 || c.Pacing.SettleDelayMS < 0 {
		return fmt.Errorf("pacing delays must not be negative")
	}

	return nil
}

// Address returns the full server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// SessionIdle returns how long an unused session is kept in memory
func (s ServerSettings) SessionIdle() time.Duration {
	return time.Duration(s.SessionIdleMinutes) * time.Minute
}

// Reshuffle reports whether hands go back into the deck after every round.
func (g GameSettings) Reshuffle() bool {
	return g.ReshuffleEachRound == nil || *g.ReshuffleEachRound
}

func (p PacingSettings) DealDelay() time.Duration {
	return time.Duration(p.DealDelayMS) * time.Millisecond
}

func (p PacingSettings) RevealDelay() time.Duration {
	return time.Duration(p.RevealDelayMS) * time.Millisecond
}

func (p PacingSettings) SettleDelay() time.Duration {
	return time.Duration(p.SettleDelayMS) * time.Millisecond
}
