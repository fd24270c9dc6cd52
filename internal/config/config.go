package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"logLevel"`
	Log         struct {
		File       string `mapstructure:"file"`
		MaxSizeMB  int    `mapstructure:"maxSizeMB"`
		MaxBackups int    `mapstructure:"maxBackups"`
		MaxAgeDays int    `mapstructure:"maxAgeDays"`
		Compress   bool   `mapstructure:"compress"`
	} `mapstructure:"log"`
	Server struct {
		Port          int           `mapstructure:"port"`
		WebhookSecret string        `mapstructure:"webhookSecret"` // Shared secret sent by the telephony provider
		ReadTimeout   time.Duration `mapstructure:"readTimeout"`
		WriteTimeout  time.Duration `mapstructure:"writeTimeout"`
		MaxBodyBytes  int64         `mapstructure:"maxBodyBytes"`
	} `mapstructure:"server"`
	Database struct {
		Driver          string        `mapstructure:"driver"` // postgres or sqlite
		DSN             string        `mapstructure:"dsn"`
		AutoMigrate     bool          `mapstructure:"autoMigrate"`
		MaxOpenConns    int           `mapstructure:"maxOpenConns"`
		MaxIdleConns    int           `mapstructure:"maxIdleConns"`
		ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
		RetryMaxElapsed time.Duration `mapstructure:"retryMaxElapsed"` // Budget for retrying transient errors per operation
	} `mapstructure:"database"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	NATS      struct {
		Enabled       bool   `mapstructure:"enabled"`
		URL           string `mapstructure:"url"`
		Stream        string `mapstructure:"stream"`
		SubjectPrefix string `mapstructure:"subjectPrefix"`
		MaxAgeDays    int    `mapstructure:"maxAgeDays"`
	} `mapstructure:"nats"`
	Notifications struct {
		Enabled bool                     `mapstructure:"enabled"`
		Resend  ResendConfig             `mapstructure:"resend"`
		Pool    NotificationWorkerConfig `mapstructure:"pool"`
	} `mapstructure:"notifications"`
	Scheduler struct {
		Enabled          bool   `mapstructure:"enabled"`
		MinutesResetSpec string `mapstructure:"minutesResetSpec"`
		MinutesResetZone string `mapstructure:"minutesResetZone"`
	} `mapstructure:"scheduler"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
}

// AssistantConfig holds the defaults used when assembling a per-call assistant.
type AssistantConfig struct {
	ModelProvider       string  `mapstructure:"modelProvider"`
	Model               string  `mapstructure:"model"`
	Temperature         float32 `mapstructure:"temperature"`
	VoiceProvider       string  `mapstructure:"voiceProvider"`
	DefaultVoiceID      string  `mapstructure:"defaultVoiceID"`
	FunctionServerURL   string  `mapstructure:"functionServerURL"` // Where the provider posts createAppointment calls
	MaxServicesInPrompt int     `mapstructure:"maxServicesInPrompt"`
}

// ResendConfig holds the outbound email provider settings.
type ResendConfig struct {
	APIKey  string        `mapstructure:"apiKey"`
	BaseURL string        `mapstructure:"baseURL"`
	From    string        `mapstructure:"from"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
}

// NotificationWorkerConfig holds configuration for the confirmation email worker pool
type NotificationWorkerConfig struct {
	PoolSize   int           `mapstructure:"poolSize"`   // Number of workers
	QueueSize  int           `mapstructure:"queueSize"`  // Max tasks waiting for a worker
	MaxBlock   time.Duration `mapstructure:"maxBlock"`   // Max time to wait when submitting if queue full
	ExpiryTime time.Duration `mapstructure:"expiryTime"` // Idle worker expiry time
}

// LoadConfig reads configuration from file or environment variables
func LoadConfig(path string) (*Config, error) {
	// A missing .env is normal outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("default")
	v.SetConfigType("yaml")

	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath("$HOME/.voice-receptionist")
	v.AddConfigPath("/etc/voice-receptionist")

	if err := v.ReadInConfig(); err != nil {
		// It's ok if config file is not found, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, Config{})

	// Conventional names used by deployment manifests
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		v.Set("database.dsn", dsn)
	}
	if lgLevel := os.Getenv("LOG_LEVEL"); lgLevel != "" {
		v.Set("logLevel", lgLevel)
	}
	if url := os.Getenv("NATS_URL"); url != "" {
		v.Set("nats.url", url)
	}
	if key := os.Getenv("RESEND_API_KEY"); key != "" {
		v.Set("notifications.resend.apiKey", key)
	}
	if secret := os.Getenv("VAPI_WEBHOOK_SECRET"); secret != "" {
		v.Set("server.webhookSecret", secret)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("logLevel", "info")
	v.SetDefault("log.maxSizeMB", 100)
	v.SetDefault("log.maxBackups", 5)
	v.SetDefault("log.maxAgeDays", 30)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 15*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("server.maxBodyBytes", 2<<20)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.autoMigrate", true)
	v.SetDefault("database.maxOpenConns", 20)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 30*time.Minute)
	v.SetDefault("database.retryMaxElapsed", 5*time.Second)

	v.SetDefault("assistant.modelProvider", "openai")
	v.SetDefault("assistant.model", "gpt-4o-mini")
	v.SetDefault("assistant.temperature", 0.7)
	v.SetDefault("assistant.voiceProvider", "11labs")
	v.SetDefault("assistant.defaultVoiceID", "21m00Tcm4TlvDq8ikWAM")
	v.SetDefault("assistant.maxServicesInPrompt", 50)

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.stream", "voice_calls")
	v.SetDefault("nats.subjectPrefix", "v1.voice")
	v.SetDefault("nats.maxAgeDays", 7)

	v.SetDefault("notifications.enabled", false)
	v.SetDefault("notifications.resend.baseURL", "https://api.resend.com")
	v.SetDefault("notifications.resend.timeout", 10*time.Second)
	v.SetDefault("notifications.resend.retries", 2)
	v.SetDefault("notifications.pool.poolSize", 4)
	v.SetDefault("notifications.pool.queueSize", 1000)
	v.SetDefault("notifications.pool.maxBlock", time.Second)
	v.SetDefault("notifications.pool.expiryTime", time.Minute)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.minutesResetSpec", "0 0 1 * *")
	v.SetDefault("scheduler.minutesResetZone", "UTC")

	v.SetDefault("metrics.enabled", true)
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Notifications.Enabled && c.Notifications.Resend.APIKey == "" {
		return errors.New("notifications enabled but notifications.resend.apiKey is empty")
	}
	return nil
}

// bindEnvs recursively binds environment variables to config struct fields
func bindEnvs(v *viper.Viper, cfg interface{}, parts ...string) {
	ifv := reflect.ValueOf(cfg)
	ift := reflect.TypeOf(cfg)
	for i := 0; i < ift.NumField(); i++ {
		fieldVal := ifv.Field(i)
		fieldType := ift.Field(i)

		tag := fieldType.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}

		path := append(append([]string{}, parts...), tag)
		key := strings.Join(path, ".")

		if fieldType.Type.Kind() == reflect.Struct {
			bindEnvs(v, fieldVal.Interface(), path...)
			continue
		}

		_ = v.BindEnv(key)
	}
}
