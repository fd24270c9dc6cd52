package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/voice-receptionist/internal/model"
	"gitlab.com/timkado/api/voice-receptionist/internal/storage"
)

const defaultMaxBodyBytes = 2 << 20

// WebhookProcessor handles one telephony webhook body.
type WebhookProcessor interface {
	Process(ctx context.Context, raw []byte) (int, interface{})
}

// AppointmentCreator books appointments requested by the assistant.
type AppointmentCreator interface {
	CreateFromToolCall(ctx context.Context, evt *model.FunctionCallEvent) (*model.FunctionResultResponse, error)
}

// BrokerChecker reports whether the event broker connection is up.
type BrokerChecker interface {
	IsConnected() bool
}

// Options configures the HTTP server.
type Options struct {
	Port          int
	WebhookSecret string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	MaxBodyBytes  int64
	Metrics       bool
	Version       string
	// Broker is checked by /ready when set.
	Broker BrokerChecker
}

// Server serves the webhook API plus health and metrics endpoints
type Server struct {
	httpServer   *http.Server
	engine       *gin.Engine
	processor    WebhookProcessor
	appointments AppointmentCreator
	db           storage.HealthChecker
	opts         Options
	logger       *zap.Logger
}

// HealthResponse is the response structure for health check endpoints
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(opts Options, processor WebhookProcessor, appointments AppointmentCreator, db storage.HealthChecker, logger *zap.Logger) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}

	engine := gin.New()
	engine.Use(requestID(logger), accessLog(), recovery())

	s := &Server{
		engine:       engine,
		processor:    processor,
		appointments: appointments,
		db:           db,
		opts:         opts,
		logger:       logger,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", opts.Port),
			Handler:      engine,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
		},
	}

	engine.GET("/health", s.handleHealth)
	engine.GET("/ready", s.handleReady)
	if opts.Metrics {
		logger.Info("Registering /metrics endpoint")
		engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	voice := engine.Group("/api/voice", webhookSecret(opts.WebhookSecret), limitBody(opts.MaxBodyBytes))
	{
		voice.POST("/webhook", s.handleWebhook)
		voice.POST("/appointments", s.handleAppointment)
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start begins serving in the background
func (s *Server) Start() {
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}
