package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/swamys/hotfoods/internal/auth"
	"github.com/swamys/hotfoods/internal/broadcast"
	"github.com/swamys/hotfoods/internal/config"
	"github.com/swamys/hotfoods/internal/events"
	"github.com/swamys/hotfoods/internal/idgen"
	"github.com/swamys/hotfoods/internal/menu"
	"github.com/swamys/hotfoods/internal/model"
	"github.com/swamys/hotfoods/internal/server"
	"github.com/swamys/hotfoods/internal/status"
	"github.com/swamys/hotfoods/internal/store"
	"github.com/swamys/hotfoods/internal/store/memory"
	"github.com/swamys/hotfoods/internal/store/postgres"
	"github.com/swamys/hotfoods/internal/storeconfig"
	hfsync "github.com/swamys/hotfoods/internal/sync"
	"github.com/swamys/hotfoods/internal/telemetry"
)

const (
	shutdownTimeout    = 10 * time.Second
	sessionPurgePeriod = time.Hour
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the hotfoods HTTP and gRPC servers",
	GroupID: "system",
	// Override PersistentPreRunE so we don't build an API client.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if useMemory, _ := cmd.Flags().GetBool("memory"); useMemory {
			cfg.Store = config.StoreMemory
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		return serve(cfg, logger)
	},
}

func init() {
	serveCmd.Flags().Bool("memory", false, "use the in-memory store instead of Postgres")
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("HF_LOG_LEVEL: %w", err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func openStore(cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("using in-memory store; data is lost on exit")
		return memory.New(), nil
	}
	return postgres.New(cfg.DatabaseURL)
}

func serve(cfg *config.Config, logger *slog.Logger) error {
	hours := status.DefaultHours()
	if cfg.HoursFile != "" {
		h, err := status.LoadHours(cfg.HoursFile)
		if err != nil {
			return err
		}
		hours = h
		logger.Info("shop hours loaded", "file", cfg.HoursFile)
	}

	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}

	// Metrics.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := telemetry.NewPrometheusCollector(reg)
	if err != nil {
		st.Close()
		return err
	}

	instanceID, err := idgen.InstanceID()
	if err != nil {
		st.Close()
		return err
	}

	registry := broadcast.New(
		broadcast.WithWarnThreshold(cfg.SubscriberWarn),
		broadcast.WithLogger(logger),
		broadcast.WithCollector(collector),
	)

	// Event bus.
	var publisher events.Publisher = &events.NoopPublisher{}
	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			st.Close()
			return err
		}
		publisher = pub
		logger.Info("events enabled", "nats_url", cfg.NATSURL, "instance", instanceID)
	} else {
		logger.Info("events disabled (HF_NATS_URL not set)")
	}

	// Bind both ports before any background work starts so a bind failure
	// leaves nothing running.
	grpcLis, httpLis, err := listen(cfg.GRPCAddr, cfg.HTTPAddr)
	if err != nil {
		publisher.Close()
		st.Close()
		return err
	}

	// Services.
	configs := storeconfig.New(st, registry,
		storeconfig.WithPublisher(publisher, instanceID),
		storeconfig.WithHours(hours),
		storeconfig.WithCollector(collector),
		storeconfig.WithLogger(logger),
	)
	menuSvc := menu.New(st,
		menu.WithPublisher(publisher),
		menu.WithHours(hours),
		menu.WithLogger(logger),
	)
	authSvc := auth.New(st,
		auth.WithTTL(cfg.SessionTTL),
		auth.WithPublisher(publisher),
		auth.WithLogger(logger),
	)

	srv := server.New(configs, registry, menuSvc, authSvc,
		server.WithAdminToken(cfg.AdminToken),
		server.WithKeepalive(cfg.KeepaliveInterval),
		server.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		server.WithLogger(logger),
	)

	relayCancel := startRelay(cfg.NATSURL, registry, instanceID, logger)

	// gRPC store status and health.
	grpcServer, healthServer := srv.NewGRPCServer()
	go func() {
		logger.Info("gRPC server listening", "addr", grpcLis.Addr().String())
		if err := grpcServer.Serve(grpcLis); err != nil {
			logger.Error("gRPC server error", "err", err)
		}
	}()

	// HTTP.
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.NewHTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", "addr", httpLis.Addr().String())
		if err := httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "err", err)
		}
	}()

	// Backup sync.
	scheduler, syncSub := startSync(cfg, st, registry, logger)

	// Session cleanup.
	purgeCtx, purgeCancel := context.WithCancel(context.Background())
	go purgeSessions(purgeCtx, authSvc, logger)

	logger.Info("hotfoods server started",
		"grpc_addr", cfg.GRPCAddr,
		"http_addr", cfg.HTTPAddr,
		"store", cfg.Store,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	purgeCancel()
	relayCancel()
	if syncSub != nil {
		syncSub.Cancel()
	}
	if scheduler != nil {
		scheduler.Stop()
		logger.Info("sync scheduler stopped")
	}

	// End status streams first; http.Server.Shutdown would otherwise wait on
	// them until the deadline.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("status streams did not close", "err", err, "open", srv.OpenStreams())
	}

	healthServer.Shutdown()
	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "err", err)
	}
	logger.Info("HTTP server stopped")

	if err := publisher.Close(); err != nil {
		logger.Error("error closing publisher", "err", err)
	}
	if err := st.Close(); err != nil {
		logger.Error("error closing store", "err", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// listen binds the gRPC and HTTP addresses. If the second bind fails the
// first listener is closed.
func listen(grpcAddr, httpAddr string) (grpcLis, httpLis net.Listener, err error) {
	grpcLis, err = net.Listen("tcp", grpcAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("gRPC listen: %w", err)
	}
	httpLis, err = net.Listen("tcp", httpAddr)
	if err != nil {
		grpcLis.Close()
		return nil, nil, fmt.Errorf("HTTP listen: %w", err)
	}
	return grpcLis, httpLis, nil
}

// startRelay forwards store config changes from other instances into
// registry. The returned func stops it and is safe to call when no relay
// was started.
func startRelay(natsURL string, registry *broadcast.Registry, instanceID string, logger *slog.Logger) context.CancelFunc {
	if natsURL == "" {
		return func() {}
	}
	sub, err := events.NewNATSSubscriber(natsURL)
	if err != nil {
		logger.Error("failed to create relay subscriber", "err", err)
		return func() {}
	}
	relay := events.NewRelay(sub, registry, instanceID, logger)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := relay.Run(ctx); err != nil {
			logger.Error("relay error", "err", err)
		}
		sub.Close()
	}()
	logger.Info("store config relay started")
	return cancel
}

// startSync starts the backup scheduler when an interval and at least one
// destination are configured. Store config changes trigger an extra run.
func startSync(cfg *config.Config, st store.Store, registry *broadcast.Registry, logger *slog.Logger) (*hfsync.Scheduler, *broadcast.Subscription) {
	if cfg.SyncInterval <= 0 {
		return nil, nil
	}
	var dests []hfsync.Destination

	if cfg.SyncS3Bucket != "" {
		s3Dest, err := hfsync.NewS3Destination(
			context.Background(),
			cfg.SyncS3Bucket,
			cfg.SyncS3Key,
			cfg.SyncS3Region,
			cfg.SyncS3Endpoint,
		)
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("sync S3 destination enabled", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key)
		}
	}
	if cfg.SyncGitRepo != "" {
		dests = append(dests, hfsync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch))
		logger.Info("sync git destination enabled", "repo", cfg.SyncGitRepo, "file", cfg.SyncGitFile)
	}
	if len(dests) == 0 {
		return nil, nil
	}

	scheduler := hfsync.NewScheduler(st, dests, cfg.SyncInterval, logger)
	scheduler.Start()
	sub := registry.Subscribe(func(*model.StoreConfig) error {
		scheduler.Trigger()
		return nil
	})
	logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
	return scheduler, sub
}

func purgeSessions(ctx context.Context, authSvc *auth.Service, logger *slog.Logger) {
	ticker := time.NewTicker(sessionPurgePeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := authSvc.PurgeExpired(ctx)
			if err != nil {
				logger.Error("purging expired sessions", "err", err)
				continue
			}
			if n > 0 {
				logger.Info("purged expired sessions", "count", n)
			}
		}
	}
}
