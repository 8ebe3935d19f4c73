package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/calvinwijaya/blackjack/internal/api"
	"github.com/calvinwijaya/blackjack/internal/config"
	"github.com/calvinwijaya/blackjack/internal/db"
	"github.com/calvinwijaya/blackjack/internal/game"
	"github.com/calvinwijaya/blackjack/internal/randutil"
	"github.com/calvinwijaya/blackjack/internal/store"
	"github.com/charmbracelet/log"
)

// load reads the config file, applies the global and command flag overrides,
// validates the result and builds the logger.
func (g *Globals) load(overrides ...func(*config.Config) error) (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	// Apply command line overrides
	if g.LogLevel != "" {
		cfg.Server.LogLevel = g.LogLevel
	}
	if g.Seed != nil {
		cfg.Game.Seed = *g.Seed
	}
	for _, override := range overrides {
		if err := override(cfg); err != nil {
			return nil, nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	level, _ := log.ParseLevel(cfg.Server.LogLevel)
	logger.SetLevel(level)

	return cfg, logger, nil
}

// openStore opens the configured store. The returned close func is never nil.
func openStore(cfg *config.Config, logger *log.Logger) (store.Store, func() error, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		logger.Info("In-memory store initialized")
		return store.NewMemoryStore(), func() error { return nil }, nil
	}

	if cfg.Storage.Driver == config.DriverSQLite {
		// Create data directory if it doesn't exist
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.DSN), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	database, err := db.NewDatabase(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Database initialized", "driver", cfg.Storage.Driver)
	return store.NewDatabaseStore(database), database.Close, nil
}

// sessionOptions are the options every session gets from the config.
func sessionOptions(cfg *config.Config) []game.SessionOption {
	return []game.SessionOption{
		game.WithStartingBankroll(cfg.Game.StartingBankroll),
		game.WithReshuffleEachRound(cfg.Game.Reshuffle()),
	}
}

// newSessionFactory builds sessions from the config. With a seed, each new
// session draws its own seed from one seeded source, so a run is reproducible
// without every table dealing the same cards.
func newSessionFactory(cfg *config.Config) api.SessionFactory {
	var (
		mu     sync.Mutex
		master = randutil.NewTimeSeeded()
	)
	if cfg.Game.Seed != 0 {
		master = randutil.New(cfg.Game.Seed)
	}

	return func(kv store.KV, opts ...game.SessionOption) (*game.Session, error) {
		mu.Lock()
		seed := master.Int64()
		mu.Unlock()

		all := append(sessionOptions(cfg), game.WithSeed(seed))
		return game.NewSession(kv, append(all, opts...)...)
	}
}

func pacing(cfg *config.Config) api.Pacing {
	return api.Pacing{
		Deal:   cfg.Pacing.DealDelay(),
		Reveal: cfg.Pacing.RevealDelay(),
		Settle: cfg.Pacing.SettleDelay(),
	}
}
