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
	CORSOrigins            string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	UploadMaxSizeMB        int
	ResultsCacheTTL        time.Duration
	PlayViewTTL            time.Duration
	PlayRateLimit          int
	PlayRateWindow         time.Duration
	EventsChannel          string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from EVIDENCE_* environment variables and
// an optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EVIDENCE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Evidence Builder API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cors.origins", "*")
	v.SetDefault("cloudinary.folder", "evidence/tasks")
	v.SetDefault("upload.max_size_mb", 10)
	v.SetDefault("results.cache_ttl", "2m")
	v.SetDefault("play.view_ttl", "2h")
	v.SetDefault("play.rate_limit", 30)
	v.SetDefault("play.rate_window", "1m")
	v.SetDefault("events.channel", "evidence")

	resultsTTL, err := parseDuration(v, "results.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	viewTTL, err := parseDuration(v, "play.view_ttl")
	if err != nil {
		return Config{}, err
	}
	rateWindow, err := parseDuration(v, "play.rate_window")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		CORSOrigins:            v.GetString("cors.origins"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		UploadMaxSizeMB:        v.GetInt("upload.max_size_mb"),
		ResultsCacheTTL:        resultsTTL,
		PlayViewTTL:            viewTTL,
		PlayRateLimit:          v.GetInt("play.rate_limit"),
		PlayRateWindow:         rateWindow,
		EventsChannel:          strings.TrimSpace(v.GetString("events.channel")),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}
	if cfg.PlayViewTTL <= 0 {
		return Config{}, fmt.Errorf("play view ttl must be positive")
	}
	if cfg.PlayRateLimit <= 0 {
		cfg.PlayRateLimit = 30
	}
	if cfg.UploadMaxSizeMB <= 0 {
		cfg.UploadMaxSizeMB = 10
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
