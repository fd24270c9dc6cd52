package integration_test

import (
	"context"
	"fmt"
	"log"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	natsgo "github.com/nats-io/nats.go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
	pgtc "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"gitlab.com/timkado/api/voice-receptionist/internal/assistant"
	"gitlab.com/timkado/api/voice-receptionist/internal/config"
	"gitlab.com/timkado/api/voice-receptionist/internal/httpapi"
	"gitlab.com/timkado/api/voice-receptionist/internal/jetstream"
	notifymock "gitlab.com/timkado/api/voice-receptionist/internal/notify/mock"
	"gitlab.com/timkado/api/voice-receptionist/internal/storage"
	"gitlab.com/timkado/api/voice-receptionist/internal/usecase"
	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
)

const (
	testStream        = "voice_calls_it"
	testSubjectPrefix = "it.voice"
	testWebhookSecret = "integration-secret"
)

// IntegrationSuite runs the service in-process against real Postgres and NATS containers.
type IntegrationSuite struct {
	suite.Suite
	Postgres    testcontainers.Container
	PostgresDSN string
	NATS        testcontainers.Container
	NATSURL     string
	Ctx         context.Context
	cancel      context.CancelFunc

	repo        *storage.GormRepo
	db          *gorm.DB
	jsClient    *jetstream.Client
	nc          *natsgo.Conn
	js          natsgo.JetStreamContext
	sender      *notifymock.SenderMock
	emailsSent  atomic.Int32
	notifier    *usecase.NotificationWorker
	server      *httptest.Server
	client      *resty.Client
	provisioner *usecase.Provisioner
}

func TestIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration tests need Docker; skipped with -short")
	}
	suite.Run(t, new(IntegrationSuite))
}

// SetupSuite starts the containers and wires the application once.
func (s *IntegrationSuite) SetupSuite() {
	s.Ctx, s.cancel = context.WithCancel(context.Background())
	logger.Log = zaptest.NewLogger(s.T()).Named("IntegrationSuite")
	startTime := time.Now()
	var err error

	s.Postgres, s.PostgresDSN, err = startPostgres(s.Ctx)
	s.Require().NoError(err, "failed to start postgres")

	s.NATS, s.NATSURL, err = startNATSContainer(s.Ctx)
	s.Require().NoError(err, "failed to start NATS")

	s.repo, err = storage.NewGormRepo(storage.Options{
		Driver:          storage.DriverPostgres,
		DSN:             s.PostgresDSN,
		AutoMigrate:     true,
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Minute,
		RetryMaxElapsed: 5 * time.Second,
	})
	s.Require().NoError(err, "failed to open repository")

	s.db, err = gorm.Open(postgres.Open(s.PostgresDSN), &gorm.Config{})
	s.Require().NoError(err, "failed to open verification connection")

	s.jsClient, err = jetstream.NewClient(s.NATSURL)
	s.Require().NoError(err, "failed to connect JetStream client")
	s.Require().NoError(s.jsClient.SetupStream(s.Ctx, jetstream.LifecycleStreamConfig(testStream, testSubjectPrefix, 1)))

	s.nc, err = natsgo.Connect(s.NATSURL, natsgo.Name("Integration Test Subscriber"))
	s.Require().NoError(err)
	s.js, err = s.nc.JetStream()
	s.Require().NoError(err)

	s.sender = &notifymock.SenderMock{}
	s.sender.On("Send", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { s.emailsSent.Add(1) }).
		Return("email-it", nil)
	s.notifier, err = usecase.NewNotificationWorker(config.NotificationWorkerConfig{
		PoolSize:   2,
		QueueSize:  16,
		MaxBlock:   time.Second,
		ExpiryTime: time.Minute,
	}, s.sender, logger.Log)
	s.Require().NoError(err)

	publisher := jetstream.NewPublisher(s.jsClient, testSubjectPrefix)
	voiceConfigRepo := storage.NewVoiceConfigRepoAdapter(s.repo)
	serviceRepo := storage.NewServiceRepoAdapter(s.repo)

	calls := usecase.NewCallService(voiceConfigRepo, storage.NewCallLogRepoAdapter(s.repo), serviceRepo, publisher, assistant.Options{
		ModelProvider:     "openai",
		Model:             "gpt-4o-mini",
		VoiceProvider:     "11labs",
		DefaultVoiceID:    "voice-default",
		FunctionServerURL: "http://localhost/api/voice/appointments",
	})
	processor := usecase.NewProcessor(calls, storage.NewWebhookFailureRepoAdapter(s.repo), nil)
	processor.Setup()
	appointments := usecase.NewAppointmentService(voiceConfigRepo, serviceRepo, storage.NewAppointmentRepoAdapter(s.repo), publisher, s.notifier)
	s.provisioner = usecase.NewProvisioner(voiceConfigRepo, serviceRepo)

	api := httpapi.NewServer(httpapi.Options{WebhookSecret: testWebhookSecret}, processor, appointments, s.repo, logger.Log)
	s.server = httptest.NewServer(api.Handler())
	s.client = resty.New().
		SetBaseURL(s.server.URL).
		SetHeader(httpapi.SecretHeader, testWebhookSecret).
		SetTimeout(10 * time.Second)

	log.Printf("IntegrationSuite setup complete in %v", time.Since(startTime))
}

// TearDownSuite stops the application and terminates the containers.
func (s *IntegrationSuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.notifier != nil {
		s.notifier.Stop()
	}
	if s.nc != nil {
		s.nc.Close()
	}
	if s.jsClient != nil {
		s.jsClient.Close()
	}
	if s.repo != nil {
		_ = s.repo.Close(s.Ctx)
	}
	if s.NATS != nil {
		if err := testcontainers.TerminateContainer(s.NATS); err != nil {
			s.T().Logf("Error terminating NATS container: %v", err)
		}
	}
	if s.Postgres != nil {
		if err := testcontainers.TerminateContainer(s.Postgres); err != nil {
			s.T().Logf("Error terminating PostgreSQL container: %v", err)
		}
	}
	if s.cancel != nil {
		s.cancel()
	}
}

// SetupTest empties every table and the lifecycle stream.
func (s *IntegrationSuite) SetupTest() {
	err := s.db.WithContext(s.Ctx).Exec(
		"TRUNCATE TABLE appointments, call_logs, services, webhook_failures, voice_configs RESTART IDENTITY CASCADE",
	).Error
	s.Require().NoError(err, "failed to truncate tables")
	s.Require().NoError(s.js.PurgeStream(testStream), "failed to purge stream")
	s.emailsSent.Store(0)
}

func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	pgContainer, err := pgtc.Run(ctx,
		"postgres:17-bookworm",
		pgtc.WithDatabase("voice_receptionist"),
		pgtc.WithUsername("postgres"),
		pgtc.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start PostgreSQL container: %w", err)
	}

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return pgContainer, "", fmt.Errorf("failed to get PostgreSQL connection string: %w", err)
	}
	return pgContainer, dsn, nil
}

func startNATSContainer(ctx context.Context) (testcontainers.Container, string, error) {
	natsContainer, err := tcnats.Run(ctx,
		"nats:2.11-alpine",
		tcnats.WithArgument("name", "voice-it-nats"),
		tcnats.WithArgument("store_dir", "/data"),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start NATS container: %w", err)
	}

	natsURL, err := natsContainer.ConnectionString(ctx)
	if err != nil {
		return natsContainer, "", fmt.Errorf("failed to get NATS connection string: %w", err)
	}
	return natsContainer, natsURL, nil
}
