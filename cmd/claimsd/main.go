package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/claims-validator/internal/async"
	"github.com/joseph-ayodele/claims-validator/internal/common"
	"github.com/joseph-ayodele/claims-validator/internal/ingest"
	"github.com/joseph-ayodele/claims-validator/internal/notify"
	"github.com/joseph-ayodele/claims-validator/internal/pipeline"
	"github.com/joseph-ayodele/claims-validator/internal/repository"
	"github.com/joseph-ayodele/claims-validator/pkg/metrics"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("claimsd.config_invalid", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := common.InitDatabase(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("claimsd.db_open_failed", "error", err)
		os.Exit(1)
	}
	defer db.Close(logger)

	if err := db.HealthCheck(ctx, 5*time.Second, logger); err != nil {
		logger.Error("claimsd.db_ping_failed", "error", err)
		os.Exit(1)
	}

	store := repository.NewStore(db, logger)
	collector := metrics.NewCollector(logger)
	processor := pipeline.NewProcessor(store, logger,
		pipeline.WithReviewer(common.NewReviewer(cfg.AI, logger)),
		pipeline.WithAIConcurrency(cfg.AI.Concurrency),
		pipeline.WithRecorder(collector),
	)

	notifier := notify.NewSlackNotifier(cfg.Slack.BotToken, cfg.Slack.ChannelID, cfg.Slack.APIURL, logger)
	d := newDaemon(store, notifier, logger)
	queue := async.NewValidationQueue(processor, logger,
		async.WithWorkers(cfg.Daemon.Workers),
		async.WithQueueSize(cfg.Daemon.QueueSize),
		async.WithRunTimeout(cfg.Daemon.RunTimeout),
		async.WithOnDone(d.onDone),
	)
	d.queue = queue

	if cfg.Daemon.Schedule != "" {
		sched, err := async.NewScheduler(cfg.Daemon.Schedule, cfg.Daemon.Tenants, d.submit, logger)
		if err != nil {
			logger.Error("claimsd.schedule_invalid", "error", err)
			os.Exit(2)
		}
		go sched.WithTenantSource(d.tenantCodes).Run(ctx)
	} else {
		logger.Info("claimsd.schedule_disabled")
	}

	if cfg.Daemon.Inbox != "" {
		err := d.watchInbox(ctx, ingest.WatchConfig{
			Roots:    []string{cfg.Daemon.Inbox},
			Debounce: cfg.Daemon.Debounce,
			Logger:   logger,
		})
		if err != nil {
			logger.Error("claimsd.inbox_failed", "inbox", cfg.Daemon.Inbox, "error", err)
			os.Exit(1)
		}
		logger.Info("claimsd.inbox_watching", "inbox", cfg.Daemon.Inbox)
	}

	metricsServer := collector.StartServer(cfg.Daemon.MetricsAddr)

	lis, err := net.Listen("tcp", cfg.Daemon.GRPCAddr)
	if err != nil {
		logger.Error("claimsd.listen_failed", "addr", cfg.Daemon.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	logger.Info("claimsd.listening", "grpc_addr", cfg.Daemon.GRPCAddr, "metrics_addr", cfg.Daemon.MetricsAddr)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("claimsd.grpc_serve_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("claimsd.shutdown")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	_ = collector.Shutdown(shutdownCtx, metricsServer)
	grpcServer.GracefulStop()
}
