package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/calvinwijaya/blackjack/internal/api"
	"github.com/calvinwijaya/blackjack/internal/config"
	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
)

// ServeCmd runs the HTTP and WebSocket front end
type ServeCmd struct {
	Addr     string `short:"a" help:"Server address to bind to, host:port (overrides config)"`
	Frontend string `help:"Frontend URL for CORS (overrides config)"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, logger, err := g.load(c.apply)
	if err != nil {
		return err
	}

	st, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Initialize WebSocket hub
	hub := api.NewHub(logger)

	// Initialize API handlers
	handlers := api.NewHandlers(st, hub, logger,
		api.WithSessionFactory(newSessionFactory(cfg)),
		api.WithPacing(pacing(cfg)),
	)

	// Set up router
	r := mux.NewRouter()
	handlers.RegisterRoutes(r)
	r.Use(requestLogger(logger))

	// Configure CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.Server.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Create server
	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      corsHandler.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Set up graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	group.Go(func() error {
		handlers.RunEviction(gctx, time.Minute, cfg.Server.SessionIdle())
		return nil
	})
	group.Go(func() error {
		logger.Info("Starting server", "addr", srv.Addr, "frontend", cfg.Server.FrontendURL, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// apply sets the command line overrides on cfg
func (c *ServeCmd) apply(cfg *config.Config) error {
	if c.Addr != "" {
		host, port, err := net.SplitHostPort(c.Addr)
		if err != nil {
			return fmt.Errorf("invalid --addr: %w", err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid --addr port %q: %w", port, err)
		}
		cfg.Server.Address, cfg.Server.Port = host, p
	}
	if c.Frontend != "" {
		cfg.Server.FrontendURL = c.Frontend
	}
	return nil
}

// requestLogger logs every request with its duration
func requestLogger(logger *log.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "uri", r.RequestURI, "took", time.Since(start))
		})
	}
}
