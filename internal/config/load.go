package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take
// precedence over values from the config file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults for settings that have sensible out-of-the-box values.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.refresh_token_lifetime_minutes", 10080)
	v.SetDefault("auth.reset_token_lifetime_minutes", 60)
	v.SetDefault("mail.port", 587)
	v.SetDefault("reminder.interval_seconds", 60)
	v.SetDefault("reminder.window_minutes", 32)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars can carry everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("TASKWARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind critical environment variables so AutomaticEnv works
	// for keys that never appear in the config file.
	bindEnvs := []struct {
		key    string
		envVar string
	}{
		{"server.port", "TASKWARD_SERVER_PORT"},
		{"server.log_level", "TASKWARD_SERVER_LOG_LEVEL"},
		{"server.base_url", "TASKWARD_SERVER_BASE_URL"},
		{"database.url", "TASKWARD_DATABASE_URL"},
		{"auth.jwt_secret", "TASKWARD_AUTH_JWT_SECRET"},
		{"mail.host", "TASKWARD_MAIL_HOST"},
		{"mail.port", "TASKWARD_MAIL_PORT"},
		{"mail.username", "TASKWARD_MAIL_USERNAME"},
		{"mail.password", "TASKWARD_MAIL_PASSWORD"},
		{"mail.from", "TASKWARD_MAIL_FROM"},
		{"reminder.interval_seconds", "TASKWARD_REMINDER_INTERVAL_SECONDS"},
		{"reminder.window_minutes", "TASKWARD_REMINDER_WINDOW_MINUTES"},
	}

	for _, env := range bindEnvs {
		if err := v.BindEnv(env.key, env.envVar); err != nil {
			return nil, fmt.Errorf("error binding environment variable %s: %w", env.envVar, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}
