package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/voice-receptionist/internal/apperrors"
	"gitlab.com/timkado/api/voice-receptionist/internal/config"
	"gitlab.com/timkado/api/voice-receptionist/internal/notify"
	"gitlab.com/timkado/api/voice-receptionist/internal/observer"
	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
	"gitlab.com/timkado/api/voice-receptionist/pkg/utils"
)

const defaultSendTimeout = 30 * time.Second

// NotificationTask holds the data for one confirmation email.
type NotificationTask struct {
	Ctx           context.Context // Context derived for the task, NOT the original request context
	TenantID      string
	AppointmentID string
	Email         notify.Email
}

// INotificationWorker defines the interface for the notification worker pool.
type INotificationWorker interface {
	SubmitTask(task NotificationTask) error
	Stop()
}

// NotificationWorker sends confirmation emails off the request path.
type NotificationWorker struct {
	pool        *ants.PoolWithFunc
	sender      notify.Sender
	cfg         config.NotificationWorkerConfig
	sendTimeout time.Duration
	baseLogger  *zap.Logger
}

// Ensure NotificationWorker implements INotificationWorker
var _ INotificationWorker = (*NotificationWorker)(nil)

// NewNotificationWorker creates and initializes a new notification worker pool.
func NewNotificationWorker(cfg config.NotificationWorkerConfig, sender notify.Sender, baseLogger *zap.Logger) (*NotificationWorker, error) {
	worker := &NotificationWorker{
		sender:      sender,
		cfg:         cfg,
		sendTimeout: defaultSendTimeout,
		baseLogger:  baseLogger.Named("notification_worker"),
	}

	pool, err := ants.NewPoolWithFunc(cfg.PoolSize, func(i interface{}) {
		task, ok := i.(NotificationTask)
		if !ok {
			worker.baseLogger.Error("Invalid task data type received", zap.Any("data", i))
			return
		}
		worker.processNotificationTask(task)
	},
		ants.WithExpiryDuration(cfg.ExpiryTime),
		ants.WithNonblocking(false),
		ants.WithMaxBlockingTasks(cfg.QueueSize),
		ants.WithPanicHandler(func(err interface{}) {
			worker.baseLogger.Error("Panic recovered in notification worker", zap.Any("panic_error", err), zap.Stack("stack"))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification worker pool: %w", err)
	}
	worker.pool = pool
	worker.baseLogger.Info("Notification worker pool initialized",
		zap.Int("pool_size", cfg.PoolSize),
		zap.Int("queue_size", cfg.QueueSize),
		zap.Duration("expiry_time", cfg.ExpiryTime),
	)
	return worker, nil
}

// SubmitTask queues a confirmation email. It blocks while every worker is busy
// and fails once QueueSize submitters are already waiting.
func (w *NotificationWorker) SubmitTask(task NotificationTask) error {
	start := time.Now()
	observer.IncNotificationTasksSubmitted(task.TenantID)
	observer.SetNotificationQueueLength(w.pool.Waiting())

	err := w.pool.Invoke(task)
	if err != nil {
		w.baseLogger.Warn("Failed to submit notification task to pool",
			zap.String("appointment_id", task.AppointmentID),
			zap.String("tenant_id", task.TenantID),
			zap.Duration("submit_duration", time.Since(start)),
			zap.Error(err),
		)
		observer.IncNotificationTasksProcessed(task.TenantID, "submit_error")
		if errors.Is(err, ants.ErrPoolOverload) {
			return fmt.Errorf("notification pool overload: %w", err)
		}
		return fmt.Errorf("failed to invoke notification task: %w", err)
	}

	return nil
}

// processNotificationTask runs on a worker goroutine.
func (w *NotificationWorker) processNotificationTask(task NotificationTask) {
	ctx := task.Ctx
	if ctx == nil {
		ctx = logger.WithLogger(context.Background(), w.baseLogger)
	}
	log := logger.FromContext(ctx).With(zap.String("appointment_id", task.AppointmentID))
	defer utils.RecoverWithLog(ctx, "confirmation email send")

	ctx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	defer cancel()

	start := time.Now()
	status := "success"

	emailID, err := w.sender.Send(ctx, task.Email)
	switch {
	case apperrors.IsFatal(err):
		status = "failure_rejected"
		log.Error("Confirmation email rejected by provider", zap.Error(err))
	case err != nil:
		status = "failure_send"
		log.Error("Failed to send confirmation email", zap.Error(err))
	default:
		log.Info("Confirmation email sent", zap.String("email_id", emailID))
	}

	duration := time.Since(start)
	observer.ObserveNotificationProcessingDuration(task.TenantID, duration)
	observer.IncNotificationTasksProcessed(task.TenantID, status)
}

// Stop gracefully shuts down the worker pool, waiting for in-flight sends.
func (w *NotificationWorker) Stop() {
	if w.pool != nil {
		w.baseLogger.Info("Releasing notification worker pool")
		start := time.Now()
		if err := w.pool.ReleaseTimeout(w.sendTimeout); err != nil {
			w.baseLogger.Warn("Notification worker pool release timed out", zap.Error(err))
		}
		w.baseLogger.Info("Notification worker pool released", zap.Duration("duration", time.Since(start)))
	}
}
