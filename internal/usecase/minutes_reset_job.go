package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/voice-receptionist/internal/storage"
	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
	"gitlab.com/timkado/api/voice-receptionist/pkg/utils"
)

const (
	// DefaultMinutesResetSpec fires at midnight on the first of every month.
	DefaultMinutesResetSpec = "0 0 1 * *"
	minutesResetTimeout     = time.Minute
)

// MinutesResetJob zeroes every tenant's monthly minutes on a cron schedule.
type MinutesResetJob struct {
	repo       storage.VoiceConfigRepo
	cron       *cron.Cron
	spec       string
	scheduled  func(ctx context.Context) error
	now        func() time.Time
	baseLogger *zap.Logger
}

// NewMinutesResetJob schedules the reset. zone names the IANA zone the spec is
// evaluated in; an unknown zone falls back to UTC.
func NewMinutesResetJob(repo storage.VoiceConfigRepo, spec, zone string, baseLogger *zap.Logger) (*MinutesResetJob, error) {
	if spec == "" {
		spec = DefaultMinutesResetSpec
	}
	loc := utils.LoadLocationOrUTC(zone)

	job := &MinutesResetJob{
		repo:       repo,
		cron:       cron.New(cron.WithLocation(loc)),
		spec:       spec,
		now:        utils.Now,
		baseLogger: baseLogger.Named("minutes_reset"),
	}

	job.scheduled = utils.WrapWithContextRecovery(func(ctx context.Context) error {
		_, err := job.Run(ctx)
		return err
	})

	if _, err := job.cron.AddFunc(spec, job.runScheduled); err != nil {
		return nil, fmt.Errorf("invalid minutes reset schedule %q: %w", spec, err)
	}
	return job, nil
}

// runScheduled is the cron entry point; a panic in the reset is logged and
// does not take down the scheduler goroutine.
func (j *MinutesResetJob) runScheduled() {
	ctx := logger.WithLogger(context.Background(), j.baseLogger)
	if err := j.scheduled(ctx); err != nil {
		j.baseLogger.Error("Monthly minutes reset failed", zap.Error(err))
	}
}

// Run resets the counters once and returns how many configurations changed.
func (j *MinutesResetJob) Run(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(logger.WithLogger(ctx, j.baseLogger), minutesResetTimeout)
	defer cancel()

	at := j.now()
	j.baseLogger.Info("Starting monthly minutes reset", zap.Time("reset_at", at))

	rows, err := j.repo.ResetMonthlyMinutes(ctx, at)
	if err != nil {
		return 0, err
	}

	j.baseLogger.Info("Monthly minutes reset completed", zap.Int64("voice_configs", rows))
	return rows, nil
}

// Start begins running the schedule in the background.
func (j *MinutesResetJob) Start() {
	j.cron.Start()
	j.baseLogger.Info("Minutes reset job started", zap.String("schedule", j.spec))
}

// Stop halts the schedule and waits for a running reset to finish or ctx to end.
func (j *MinutesResetJob) Stop(ctx context.Context) {
	done := j.cron.Stop()
	select {
	case <-done.Done():
		j.baseLogger.Info("Minutes reset job stopped")
	case <-ctx.Done():
		j.baseLogger.Warn("Minutes reset job stop timed out", zap.Error(ctx.Err()))
	}
}
