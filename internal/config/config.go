package config

import (
	"time"

	"github.com/spf13/viper"
	"github.com/wb-go/wbf/zlog"
)

// Config holds the main configuration for the application.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Storage  Storage  `mapstructure:"storage"`
	Kafka    Kafka    `mapstructure:"kafka"`
	Retry    Retry    `mapstructure:"retry"`
	Composer Composer `mapstructure:"composer"`
	Sentry   Sentry   `mapstructure:"sentry"`
}

// Server holds HTTP server-related configuration.
type Server struct {
	HTTPPort string `mapstructure:"http_port"` // HTTP port to listen on
}

// Storage holds configuration for the object storage backend.
type Storage struct {
	Endpoint             string        `mapstructure:"endpoint"`
	AccessKey            string        `mapstructure:"access_key"`
	SecretKey            string        `mapstructure:"secret_key"`
	UseSSL               bool          `mapstructure:"use_ssl"`
	InputBucket          string        `mapstructure:"input_bucket"`
	OutputBucket         string        `mapstructure:"output_bucket"`          // defaults to input bucket
	DefaultBackgroundKey string        `mapstructure:"default_background_key"` // stock background clip
	UploadURLTTL         time.Duration `mapstructure:"upload_url_ttl"`         // presigned upload expiry
	DownloadURLTTL       time.Duration `mapstructure:"download_url_ttl"`       // presigned download expiry
}

// Kafka holds configuration for the Kafka message queue.
type Kafka struct {
	GroupID string   `mapstructure:"group_id"` // Consumer group ID
	Topic   string   `mapstructure:"topic"`    // Kafka topic name
	Brokers []string `mapstructure:"brokers"`  // List of Kafka broker addresses
}

// Retry defines retry policy configuration.
type Retry struct {
	Attempts int           `mapstructure:"attempts"` // Number of retry attempts
	Delay    time.Duration `mapstructure:"delay"`    // Initial delay between retries
	Backoff  float64       `mapstructure:"backoff"`  // Backoff multiplier for delays
}

// Composer holds settings for the video composition step.
type Composer struct {
	FFmpegPath  string `mapstructure:"ffmpeg_path"`
	FFprobePath string `mapstructure:"ffprobe_path"`
	WorkDir     string `mapstructure:"work_dir"` // base dir for transient job files
	Preset      string `mapstructure:"preset"`
	Threads     int    `mapstructure:"threads"`
}

// Sentry holds error reporting configuration. Reporting is disabled when
// the DSN is empty.
type Sentry struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// mustBindEnv binds critical environment variables to Viper keys.
//
// It panics if any environment variable cannot be bound.
func mustBindEnv() {
	bindings := map[string]string{
		"storage.endpoint":   "S3_ENDPOINT",
		"storage.access_key": "S3_ACCESS_KEY",
		"storage.secret_key": "S3_SECRET_KEY",
		"sentry.dsn":         "SENTRY_DSN",
	}

	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			zlog.Logger.Panic().Err(err).Msgf("failed to bind env %s", env)
		}
	}
}

// MustLoad loads the configuration from the specified directory.
// It panics if the configuration file cannot be loaded or unmarshaled.
func MustLoad(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		zlog.Logger.Panic().Err(err).Msg("failed to read config")
	}

	mustBindEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		zlog.Logger.Panic().Err(err).Msgf("failed to unmarshal config: %v", err)
	}

	applyDefaults(&cfg)

	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.OutputBucket == "" {
		cfg.Storage.OutputBucket = cfg.Storage.InputBucket
	}
	if cfg.Storage.DefaultBackgroundKey == "" {
		cfg.Storage.DefaultBackgroundKey = "backgrounds/background.mp4"
	}
	if cfg.Storage.UploadURLTTL == 0 {
		cfg.Storage.UploadURLTTL = 5 * time.Minute
	}
	if cfg.Storage.DownloadURLTTL == 0 {
		cfg.Storage.DownloadURLTTL = time.Hour
	}
}
