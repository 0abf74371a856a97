// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Backend       BackendConfig       `mapstructure:"backend"`
	Form          FormConfig          `mapstructure:"form"`
	Session       SessionConfig       `mapstructure:"session"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address" validate:"required"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
	MaxBodyBytes    int64  `mapstructure:"max_body_bytes"`
}

// BackendConfig points at the candidate service that owns jobs, job levels and candidates.
type BackendConfig struct {
	BaseURL   string `mapstructure:"base_url" validate:"required,url"`
	Timeout   int    `mapstructure:"timeout"` // milliseconds
	AuthToken string `mapstructure:"auth_token"`
}

// FormConfig selects the resume policy and field limits of the application form.
type FormConfig struct {
	ResumeMode         string   `mapstructure:"resume_mode" validate:"oneof=url file"`
	NameMaxLength      int      `mapstructure:"name_max_length" validate:"gte=0"`
	MaxResumeBytes     int64    `mapstructure:"max_resume_bytes" validate:"gt=0"`
	AllowedResumeTypes []string `mapstructure:"allowed_resume_types" validate:"min=1"`
}

type SessionConfig struct {
	Store         string `mapstructure:"store" validate:"oneof=memory redis"`
	CookieName    string `mapstructure:"cookie_name" validate:"required"`
	CookieSecure  bool   `mapstructure:"cookie_secure"`
	TTL           int    `mapstructure:"ttl"`             // milliseconds
	SubmitLockTTL int    `mapstructure:"submit_lock_ttl"` // milliseconds
	KeyPrefix     string `mapstructure:"key_prefix"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
	// DialTimeout is in milliseconds.
	DialTimeout int `mapstructure:"dial_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
	Output string `mapstructure:"output"`
}

type ObservabilityConfig struct {
	ServiceName string `mapstructure:"service_name"`
	Tracing     struct {
		Enabled     bool    `mapstructure:"enabled"`
		SampleRatio float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
	} `mapstructure:"tracing"`
}

// UsesRedis reports whether sessions are kept in redis.
func (c *Config) UsesRedis() bool {
	return c.Session.Store == "redis"
}

// String returns a log safe summary. Secrets are redacted.
func (c Config) String() string {
	token := ""
	if c.Backend.AuthToken != "" {
		token = "REDACTED_NOT_EMPTY"
	}
	return fmt.Sprintf(
		"app=%s env=%s addr=%s backend=%s token=%s resume_mode=%s session_store=%s",
		c.App.Name, c.App.Environment, c.Server.Address, c.Backend.BaseURL, token,
		c.Form.ResumeMode, c.Session.Store,
	)
}
