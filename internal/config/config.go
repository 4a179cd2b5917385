package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Webhook  WebhookConfig  `mapstructure:"webhook"  validate:"required"`
	Stream   StreamConfig   `mapstructure:"stream"   validate:"required"`
	Task     TaskConfig     `mapstructure:"task"     validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`
	BcryptCost                  int    `mapstructure:"bcrypt_cost"                    validate:"gte=0,lte=31"`
}

// WebhookConfig contains outbound webhook delivery settings.
type WebhookConfig struct {
	// DeliveryTimeoutSeconds bounds each outbound POST; a timeout counts as a
	// delivery failure for health accounting.
	DeliveryTimeoutSeconds int `mapstructure:"delivery_timeout_seconds" validate:"required,gt=0,lte=60"`

	// FailureThreshold is the consecutive-failure count at which a
	// subscription is automatically disabled.
	FailureThreshold int `mapstructure:"failure_threshold" validate:"required,gt=0"`
}

// StreamConfig contains live notification stream settings.
type StreamConfig struct {
	// HeartbeatSeconds is the cadence of heartbeat pings and store polls.
	HeartbeatSeconds int `mapstructure:"heartbeat_seconds" validate:"required,gt=0"`

	// WindowSeconds is the sliding lookback window for each poll. It must be
	// wider than the heartbeat cadence so notifications created between two
	// polls are never missed.
	WindowSeconds int `mapstructure:"window_seconds" validate:"required,gtefield=HeartbeatSeconds"`
}

// TaskConfig contains background task runner settings.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize   int `mapstructure:"queue_size"   validate:"required,gt=0"`
}
