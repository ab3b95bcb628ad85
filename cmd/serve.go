package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/wagate/internal/broadcast"
	"github.com/nextlevelbuilder/wagate/internal/config"
	"github.com/nextlevelbuilder/wagate/internal/protocol"
	"github.com/nextlevelbuilder/wagate/internal/store/pg"
	"github.com/nextlevelbuilder/wagate/internal/wbot"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the session gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	db, err := pg.Open(cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	bus := broadcast.NewBus()
	var pub broadcast.Publisher
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer rdb.Close()
		pub = broadcast.NewRedisPublisher(rdb)
		slog.Info("redis broadcast enabled", "addr", cfg.RedisAddr)
	}
	emit := broadcast.NewEmitter(bus, pub)

	connections := pg.NewConnectionStore(db)
	creds := pg.NewCredentialStore(db, cfg.EncryptionKey)
	monitor := wbot.NewMonitor(pg.NewContactStore(db), pg.NewTicketStore(db), emit)

	// The protocol capability is injected here; swap the loopback
	// dialer for a wire adapter to talk to the real network.
	dialer := protocol.NewLoopbackDialer()

	mgr := wbot.NewManager(wbot.ManagerConfig{
		ConnectTimeout:         cfg.ConnectTimeout,
		ReconnectDelay:         cfg.ReconnectDelay,
		WatchdogReconnectDelay: cfg.WatchdogReconnectDelay,
		MaxPairingRetries:      cfg.MaxPairingRetries,
		StartConcurrency:       cfg.StartConcurrency,
	}, connections, creds, dialer, emit, monitor)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux()}
	go func() {
		slog.Info("metrics listening", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server failed", "error", err)
		}
	}()

	if err := mgr.StartAll(ctx); err != nil {
		return err
	}
	slog.Info("gateway started", "sessions", mgr.Registry().Len())

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mgr.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	return nil
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
