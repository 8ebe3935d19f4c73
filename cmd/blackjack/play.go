package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calvinwijaya/blackjack/internal/console"
	"github.com/calvinwijaya/blackjack/internal/game"
	"github.com/calvinwijaya/blackjack/internal/store"
	"github.com/charmbracelet/log"
)

// PlayCmd plays one session in the terminal
type PlayCmd struct {
	Session string `default:"console" help:"Session id; reuse it to keep the bankroll between runs"`
}

func (c *PlayCmd) Run(g *Globals) error {
	cfg, logger, err := g.load()
	if err != nil {
		return err
	}
	// Log lines would interleave with the table.
	if g.LogLevel == "" {
		logger.SetLevel(log.WarnLevel)
	}

	st, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := append(sessionOptions(cfg),
		game.WithID(c.Session),
		game.WithLogger(logger),
	)
	if cfg.Game.Seed != 0 {
		opts = append(opts, game.WithSeed(cfg.Game.Seed))
	}

	session, err := game.NewSession(store.Prefixed(st, store.SessionPrefix(c.Session)), opts...)
	if err != nil {
		return err
	}
	session.Subscribe(historyRecorder(st, session, logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = console.NewShell(session, os.Stdin, os.Stdout).Run(ctx)
	if errors.Is(err, context.Canceled) {
		// Interrupted at the prompt.
		return nil
	}
	return err
}

// historyRecorder saves every settled round to the store's history.
func historyRecorder(h store.History, session *game.Session, logger *log.Logger) game.Subscriber {
	return game.SubscriberFunc(func(e game.Event) {
		settled, ok := e.(game.RoundSettledEvent)
		if !ok {
			return
		}
		if err := h.RecordRound(store.NewRoundRecord(session, settled, time.Now())); err != nil {
			logger.Warn("failed to record round", "round", settled.Round, "err", err)
		}
	})
}
