package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/voice-receptionist/internal/assistant"
	"gitlab.com/timkado/api/voice-receptionist/internal/config"
	"gitlab.com/timkado/api/voice-receptionist/internal/httpapi"
	"gitlab.com/timkado/api/voice-receptionist/internal/jetstream"
	"gitlab.com/timkado/api/voice-receptionist/internal/notify"
	"gitlab.com/timkado/api/voice-receptionist/internal/observer"
	"gitlab.com/timkado/api/voice-receptionist/internal/storage"
	"gitlab.com/timkado/api/voice-receptionist/internal/usecase"
	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
	"gitlab.com/timkado/api/voice-receptionist/pkg/utils"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server (default)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	observer.InitMetrics(cfg.Metrics.Enabled)

	logger.Log.Info("Starting Voice Receptionist",
		zap.String("version", Version),
		zap.String("environment", cfg.Environment),
		zap.String("database_driver", cfg.Database.Driver),
		zap.Bool("nats_enabled", cfg.NATS.Enabled),
		zap.Bool("notifications_enabled", cfg.Notifications.Enabled),
	)

	repo, err := initRepo(cfg, cfg.Database.AutoMigrate)
	if err != nil {
		return err
	}

	// Lifecycle events are optional; without NATS they are dropped.
	var publisher jetstream.EventPublisher = jetstream.NoopPublisher{}
	var jsClient *jetstream.Client
	if cfg.NATS.Enabled {
		jsClient, err = initJetStream(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		publisher = jetstream.NewPublisher(jsClient, cfg.NATS.SubjectPrefix)
	}

	voiceConfigRepo := storage.NewVoiceConfigRepoAdapter(repo)
	callLogRepo := storage.NewCallLogRepoAdapter(repo)
	serviceRepo := storage.NewServiceRepoAdapter(repo)
	appointmentRepo := storage.NewAppointmentRepoAdapter(repo)
	failureRepo := storage.NewWebhookFailureRepoAdapter(repo)

	var notificationWorker *usecase.NotificationWorker
	var notifier usecase.INotificationWorker
	if cfg.Notifications.Enabled {
		notificationWorker, err = usecase.NewNotificationWorker(
			cfg.Notifications.Pool,
			notify.NewResendClient(cfg.Notifications.Resend),
			logger.Log,
		)
		if err != nil {
			return fmt.Errorf("failed to initialize notification worker pool: %w", err)
		}
		notifier = notificationWorker
	}

	calls := usecase.NewCallService(voiceConfigRepo, callLogRepo, serviceRepo, publisher, assistant.OptionsFromConfig(cfg.Assistant))
	appointments := usecase.NewAppointmentService(voiceConfigRepo, serviceRepo, appointmentRepo, publisher, notifier)

	processor := usecase.NewProcessor(calls, failureRepo, nil)
	processor.Setup()

	var resetJob *usecase.MinutesResetJob
	if cfg.Scheduler.Enabled {
		resetJob, err = usecase.NewMinutesResetJob(voiceConfigRepo, cfg.Scheduler.MinutesResetSpec, cfg.Scheduler.MinutesResetZone, logger.Log)
		if err != nil {
			return err
		}
		resetJob.Start()
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	serverOpts := httpapi.Options{
		Port:          cfg.Server.Port,
		WebhookSecret: cfg.Server.WebhookSecret,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		MaxBodyBytes:  cfg.Server.MaxBodyBytes,
		Metrics:       cfg.Metrics.Enabled,
		Version:       Version,
	}
	if jsClient != nil {
		serverOpts.Broker = jsClient
	}
	server := httpapi.NewServer(serverOpts, processor, appointments, repo, logger.Log)
	server.Start()

	if cfg.Server.WebhookSecret == "" {
		logger.Log.Warn("Webhook secret is not configured; requests are not authenticated")
	}
	logger.Log.Info("Endpoints available",
		zap.String("webhook", fmt.Sprintf("http://localhost:%d/api/voice/webhook", cfg.Server.Port)),
		zap.String("appointments", fmt.Sprintf("http://localhost:%d/api/voice/appointments", cfg.Server.Port)),
		zap.String("health", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port)),
	)

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Log.Info("Received termination signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	logger.Log.Info("Starting graceful shutdown", zap.Duration("timeout", shutdownTimeout))

	// The server stops first so no new work reaches the pools below.
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Log.Error("[shutdown] Error stopping HTTP server", zap.Error(err))
	}

	var wg sync.WaitGroup
	if resetJob != nil {
		stopComponent(&wg, "minutes reset job", func() { resetJob.Stop(shutdownCtx) })
	}
	if notificationWorker != nil {
		stopComponent(&wg, "notification worker pool", notificationWorker.Stop)
	}

	waitCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Log.Info("[shutdown] Background workers stopped")
	case <-shutdownCtx.Done():
		logger.Log.Warn("[shutdown] Graceful shutdown timed out, closing connections anyway")
	}

	if jsClient != nil {
		logger.Log.Info("[shutdown] Closing NATS connection")
		jsClient.Close()
	}
	if err := repo.Close(shutdownCtx); err != nil {
		logger.Log.Error("[shutdown] Failed to close database connection", zap.Error(err))
	}

	logger.Log.Info("Voice Receptionist shutdown complete")
	return nil
}

// stopComponent runs stop in its own goroutine, tracked by wg and guarded against panics.
func stopComponent(wg *sync.WaitGroup, name string, stop func()) {
	wg.Add(1)
	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Stopping " + name)
		start := time.Now()
		stop()
		logger.Log.Info("[shutdown] Stopped "+name, zap.Duration("duration", time.Since(start)))
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while stopping "+name,
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
	})
}

// initJetStream connects to NATS and ensures the lifecycle stream exists.
func initJetStream(ctx context.Context, cfg *config.Config) (*jetstream.Client, error) {
	client, err := jetstream.NewClient(cfg.NATS.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream client: %w", err)
	}

	setupCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	streamCfg := jetstream.LifecycleStreamConfig(cfg.NATS.Stream, cfg.NATS.SubjectPrefix, cfg.NATS.MaxAgeDays)
	if err := client.SetupStream(setupCtx, streamCfg); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set up stream %s: %w", cfg.NATS.Stream, err)
	}

	logger.Log.Info("Initialized JetStream client", zap.String("stream", cfg.NATS.Stream))
	return client, nil
}
