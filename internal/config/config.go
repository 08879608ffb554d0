package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Mail     MailConfig     `mapstructure:"mail"     validate:"required"`
	Reminder ReminderConfig `mapstructure:"reminder" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// BaseURL is the externally visible origin of the server, used to
	// build absolute links (password reset) embedded in outgoing email.
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`

	// ResetTokenLifetimeMinutes bounds the validity window of password
	// reset tokens issued by the auth service.
	ResetTokenLifetimeMinutes int `mapstructure:"reset_token_lifetime_minutes" validate:"required,gt=0"`
}

// MailConfig contains the outbound SMTP settings.
type MailConfig struct {
	Host     string `mapstructure:"host"      validate:"required"`
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"      validate:"required,email"`
}

// ReminderConfig contains settings for the background due-date scanner.
type ReminderConfig struct {
	// IntervalSeconds is how often the scanner runs. The scan is cheap at
	// the task volumes this application targets, so once a minute is the
	// expected setting.
	IntervalSeconds int `mapstructure:"interval_seconds" validate:"required,gt=0"`

	// WindowMinutes is the due-soon window: a reminder fires once a task's
	// remaining time drops below this many minutes.
	WindowMinutes int `mapstructure:"window_minutes" validate:"required,gt=0"`
}
