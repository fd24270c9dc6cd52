package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
)

var opts simOptions

func main() {
	rootCmd := &cobra.Command{
		Use:   "callsim",
		Short: "Replay simulated calls against a voice receptionist instance",
		Long: `Sends the webhook sequence of a phone call (assistant-request, status-update,
end-of-call-report and optionally a createAppointment function call) for a
provisioned destination number.

Examples:
  callsim --phone +15550100000
  callsim --phone +15550100000 --calls 50 --concurrency 10 --book Botox`,
		SilenceUsage: true,
		RunE:         run,
	}

	f := rootCmd.Flags()
	f.StringVar(&opts.BaseURL, "url", "http://localhost:8080", "base URL of the service")
	f.StringVar(&opts.Phone, "phone", "", "provisioned destination number (required)")
	f.StringVar(&opts.Secret, "secret", os.Getenv("VAPI_WEBHOOK_SECRET"), "webhook shared secret")
	f.IntVar(&opts.Calls, "calls", 1, "number of calls to simulate")
	f.IntVar(&opts.Concurrency, "concurrency", 4, "calls in flight at once")
	f.Float64Var(&opts.DurationSeconds, "duration", 0, "reported call duration in seconds; random when 0")
	f.StringVar(&opts.BookService, "book", "", "service name to book during each call")
	f.StringVar(&opts.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	_ = rootCmd.MarkFlagRequired("phone")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if err := logger.Initialize(opts.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	if opts.Calls <= 0 {
		return fmt.Errorf("--calls must be positive")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sim := newSimulator(opts)
	stats := &simStats{}

	var wg sync.WaitGroup
	pool, err := ants.NewPoolWithFunc(opts.Concurrency, func(data interface{}) {
		defer wg.Done()
		stats.record(sim.simulateCall(ctx))
	})
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	logger.Log.Info("Starting call simulation",
		zap.String("url", opts.BaseURL),
		zap.String("phone", opts.Phone),
		zap.Int("calls", opts.Calls),
		zap.Int("concurrency", opts.Concurrency),
		zap.String("book", opts.BookService),
	)

	start := time.Now()
	for i := 0; i < opts.Calls; i++ {
		if ctx.Err() != nil {
			logger.Log.Warn("Interrupted, waiting for calls in flight")
			break
		}
		wg.Add(1)
		if err := pool.Invoke(i); err != nil {
			wg.Done()
			logger.Log.Warn("Failed to submit simulated call", zap.Error(err))
		}
	}
	wg.Wait()

	summary := stats.snapshot()
	logger.Log.Info("Call simulation finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int64("succeeded", summary.Succeeded),
		zap.Int64("failed", summary.Failed),
		zap.Int64("booked", summary.Booked),
	)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d calls failed", summary.Failed, summary.Succeeded+summary.Failed)
	}
	return nil
}
