package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"

	"github.com/bitagora/paywatch/internal/api"
	"github.com/bitagora/paywatch/internal/config"
	"github.com/bitagora/paywatch/internal/logging"
	"github.com/bitagora/paywatch/internal/monitor"
	"github.com/bitagora/paywatch/internal/price"
	"github.com/bitagora/paywatch/internal/provider"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logging.
	logCloser, err := logging.Setup(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	slog.Info("paywatch starting",
		"port", cfg.Port,
		"network", cfg.Network,
		"blockchainAPI", cfg.BlockchainAPI,
		"pollInterval", cfg.PollInterval,
		"timeout", cfg.Timeout,
		"maxActiveSessions", cfg.MaxActiveSessions,
	)

	// Initialize blockchain checkers and the session manager.
	resolve := newResolver(cfg)
	manager := monitor.NewManager(clock.New(), resolve, cfg)

	// Build API router.
	deps := &api.Dependencies{
		Manager: manager,
		Price:   price.NewService(),
		Config:  cfg,
	}
	router := api.NewRouter(deps)

	// Start HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
	}

	// Graceful shutdown.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	sig := <-done
	slog.Info("shutdown signal received", "signal", sig)

	// Stop the manager first (cancel all sessions, wait for goroutines).
	manager.Shutdown()

	// Then shut down the HTTP server.
	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("paywatch stopped")
}

// newResolver wires the explorer checkers. Each real selector resolves to a
// failover set whose primary is the selected provider; the mock resolves to
// the bare mock checker.
func newResolver(cfg *config.Config) monitor.ResolverFunc {
	httpClient := provider.NewHTTPClient()

	mempool := provider.NewMempoolChecker(httpClient, cfg.Network)
	blockcypher := provider.NewBlockCypherChecker(httpClient, cfg.Network, cfg.BlockCypherToken)
	blockchair := provider.NewBlockchairChecker(httpClient, cfg.Network, cfg.BlockchairAPIKey)

	checkers := map[string]provider.AddressChecker{
		config.APIMempool: provider.NewSet(
			[]provider.AddressChecker{mempool, blockcypher, blockchair},
			[]int{config.RateLimitMempool, config.RateLimitBlockCypher, config.RateLimitBlockchair},
		),
		config.APIBlockCypher: provider.NewSet(
			[]provider.AddressChecker{blockcypher, blockchair, mempool},
			[]int{config.RateLimitBlockCypher, config.RateLimitBlockchair, config.RateLimitMempool},
		),
		config.APIBlockchair: provider.NewSet(
			[]provider.AddressChecker{blockchair, mempool, blockcypher},
			[]int{config.RateLimitBlockchair, config.RateLimitMempool, config.RateLimitBlockCypher},
		),
		config.APIMock: provider.NewMockChecker(),
	}

	slog.Info("provider checkers initialized", "selectors", len(checkers))

	return func(apiName string) (provider.AddressChecker, error) {
		c, ok := checkers[apiName]
		if !ok {
			return nil, fmt.Errorf("%w: %s", config.ErrUnknownProvider, apiName)
		}
		return c, nil
	}
}
