package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App      AppSettings      `mapstructure:"app"`
	Postgres PostgresSettings `mapstructure:"postgres"`
	Redis    RedisSettings    `mapstructure:"redis"`
	Kafka    KafkaSettings    `mapstructure:"kafka"`
	Auth     AuthSettings     `mapstructure:"auth"`
	Frontend FrontendSettings `mapstructure:"frontend"`
	Argon2   Argon2Settings   `mapstructure:"argon2"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures the session store connection.
type RedisSettings struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	DB            int           `mapstructure:"db"`
	Password      string        `mapstructure:"password"`
	TLSEnabled    bool          `mapstructure:"tls_enabled"`
	SessionPrefix string        `mapstructure:"session_prefix"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
}

// KafkaSettings configures the event/notification producer.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	Async       bool     `mapstructure:"async"`
}

// AuthSettings configures the identity and token core.
type AuthSettings struct {
	// SecretKey signs activation and password-reset tokens.
	SecretKey string `mapstructure:"secret_key"`
	// TokenExpiry bounds how long activation/reset links stay valid.
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
	// IdentityFields lists the account attributes eligible for login and
	// uniqueness resolution, in resolution order.
	IdentityFields []string `mapstructure:"identity_fields"`
	// UsernameRequired controls whether registration demands an explicit
	// username; when false a random unique one is generated.
	UsernameRequired  bool `mapstructure:"username_required"`
	MinPasswordLength int  `mapstructure:"min_password_length"`
}

// FrontendSettings describes how activation/reset URLs are assembled.
type FrontendSettings struct {
	URL                string `mapstructure:"url"`
	ActivationRoute    string `mapstructure:"activation_route"`
	ResetPasswordRoute string `mapstructure:"reset_password_route"`
}

// Argon2Settings configures Argon2id password hashing parameters.
type Argon2Settings struct {
	Memory      uint32 `mapstructure:"memory"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("ACCOUNTS")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.session_prefix",
		"redis.session_ttl",
		"kafka.brokers",
		"kafka.topic_prefix",
		"kafka.async",
		"auth.secret_key",
		"auth.token_expiry",
		"auth.identity_fields",
		"auth.username_required",
		"auth.min_password_length",
		"frontend.url",
		"frontend.activation_route",
		"frontend.reset_password_route",
		"argon2.memory",
		"argon2.iterations",
		"argon2.parallelism",
		"argon2.salt_length",
		"argon2.key_length",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *AppConfig) error {
	if cfg.Auth.SecretKey == "" {
		return fmt.Errorf("auth.secret_key must be configured")
	}
	if cfg.Frontend.URL == "" {
		return fmt.Errorf("frontend.url must be configured")
	}
	if len(cfg.Auth.IdentityFields) == 0 {
		return fmt.Errorf("auth.identity_fields must not be empty")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "account-service")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "accounts")
	v.SetDefault("postgres.password", "accounts_password")
	v.SetDefault("postgres.database", "accounts")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.session_prefix", "accounts:session")
	v.SetDefault("redis.session_ttl", "336h")

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic_prefix", "accounts")
	v.SetDefault("kafka.async", true)

	v.SetDefault("auth.token_expiry", "72h")
	v.SetDefault("auth.identity_fields", []string{"email", "username"})
	v.SetDefault("auth.username_required", false)
	v.SetDefault("auth.min_password_length", 8)

	v.SetDefault("frontend.activation_route", "activation")
	v.SetDefault("frontend.reset_password_route", "reset_password")

	v.SetDefault("argon2.memory", 65536) // 64 MB
	v.SetDefault("argon2.iterations", 3)
	v.SetDefault("argon2.parallelism", 4)
	v.SetDefault("argon2.salt_length", 16)
	v.SetDefault("argon2.key_length", 32)
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "ACCOUNTS_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
