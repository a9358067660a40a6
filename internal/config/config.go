package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	AttachmentMaxMB        int
	ProgressCacheTTL       time.Duration
	NotificationChannel    string
	OpenAIAPIKey           string
	OpenAIModel            string
	GradingWorkers         int
	GradingQueueSize       int
	GradingJobTimeout      time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and an
// optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("OPENLEARN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "OpenLearn API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cloudinary.folder", "openlearn/assignments")
	v.SetDefault("attachment.max_mb", 10)
	v.SetDefault("progress.cache_ttl", "30s")
	v.SetDefault("notification.channel", "openlearn")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("grading.workers", 4)
	v.SetDefault("grading.queue_size", 256)
	v.SetDefault("grading.job_timeout", "60s")

	ttl, err := time.ParseDuration(v.GetString("progress.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid progress cache ttl: %w", err)
	}

	jobTimeout, err := time.ParseDuration(v.GetString("grading.job_timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid grading job timeout: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		AttachmentMaxMB:        v.GetInt("attachment.max_mb"),
		ProgressCacheTTL:       ttl,
		NotificationChannel:    v.GetString("notification.channel"),
		OpenAIAPIKey:           v.GetString("openai.api_key"),
		OpenAIModel:            v.GetString("openai.model"),
		GradingWorkers:         v.GetInt("grading.workers"),
		GradingQueueSize:       v.GetInt("grading.queue_size"),
		GradingJobTimeout:      jobTimeout,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.AttachmentMaxMB <= 0 {
		cfg.AttachmentMaxMB = 10
	}

	return cfg, nil
}
