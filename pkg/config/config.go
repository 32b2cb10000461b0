package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultJWTSecret     = "your-secret-key-change-in-production"
	defaultEncryptionKey = "dev-encryption-key-change-in-production"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	MongoDB   MongoDBConfig   `mapstructure:"mongodb"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	OTel      OTelConfig      `mapstructure:"otel"`
	Security  SecurityConfig  `mapstructure:"security"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Cache     CacheConfig     `mapstructure:"cache"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"` // development, staging, production
	Debug       bool   `mapstructure:"debug"`
	Version     string `mapstructure:"version"`
	LogLevel    string `mapstructure:"log_level"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	CORSOrigins  []string      `mapstructure:"-"`
}

// Addr returns the listen address
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the Redis address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// KafkaConfig holds Kafka/Redpanda connection settings
type KafkaConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Brokers  []string `mapstructure:"-"`
	ClientID string   `mapstructure:"client_id"`
}

// MongoDBConfig holds MongoDB connection settings
type MongoDBConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret         string        `mapstructure:"secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	MemberTokenTTL time.Duration `mapstructure:"member_token_ttl"`
	Issuer         string        `mapstructure:"issuer"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	ServiceName   string  `mapstructure:"service_name"`
	CollectorAddr string  `mapstructure:"collector_addr"`
	LogsEndpoint  string  `mapstructure:"logs_endpoint"`
	SampleRatio   float64 `mapstructure:"sample_ratio"`
}

// SecurityConfig holds field encryption and password hashing settings
type SecurityConfig struct {
	EncryptionKey string `mapstructure:"encryption_key"`
	HashingSecret string `mapstructure:"hashing_secret"`
	BcryptCost    int    `mapstructure:"bcrypt_cost"`
}

// WebhookConfig holds settings for outbound prize activation calls
type WebhookConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig holds limits for public member endpoints
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	UseRedis          bool `mapstructure:"use_redis"`
	RequestsPerSecond int  `mapstructure:"requests_per_second"`
	BurstSize         int  `mapstructure:"burst_size"`
}

// AuditConfig holds async audit writer settings
type AuditConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	BufferSize    int           `mapstructure:"buffer_size"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// CacheConfig holds Redis cache TTLs
type CacheConfig struct {
	PrizeTypeTTL time.Duration `mapstructure:"prize_type_ttl"`
}

// Load reads an optional .env file, then the environment. Variables are named
// SECTION_KEY after the mapstructure tags, e.g. DATABASE_HOST or RATE_LIMIT_BURST_SIZE.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return load()
}

// LoadWithPath is Load with an explicit env file that must exist
func LoadWithPath(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return load()
}

// defaults also declares every key, AutomaticEnv only resolves known keys
var defaults = map[string]interface{}{
	"app.name":        "prize-platform",
	"app.environment": "development",
	"app.debug":       true,
	"app.version":     "1.0.0",
	"app.log_level":   "info",

	"server.host":          "0.0.0.0",
	"server.port":          3100,
	"server.read_timeout":  "30s",
	"server.write_timeout": "30s",
	"server.idle_timeout":  "120s",
	"server.cors_origins":  "*",

	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "postgres",
	"database.dbname":             "prize_platform",
	"database.sslmode":            "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  "1h",
	"database.conn_max_idle_time": "30m",

	"redis.host":           "localhost",
	"redis.port":           6379,
	"redis.password":       "",
	"redis.db":             0,
	"redis.pool_size":      50,
	"redis.min_idle_conns": 5,
	"redis.dial_timeout":   "5s",
	"redis.read_timeout":   "3s",
	"redis.write_timeout":  "3s",

	"kafka.enabled":   false,
	"kafka.brokers":   "localhost:9092",
	"kafka.client_id": "prize-platform",

	"mongodb.enabled":  false,
	"mongodb.uri":      "mongodb://localhost:27017",
	"mongodb.database": "prize_platform",

	"jwt.secret":           defaultJWTSecret,
	"jwt.access_token_ttl": "24h",
	"jwt.member_token_ttl": "72h",
	"jwt.issuer":           "prize-platform",

	"otel.enabled":        false,
	"otel.service_name":   "prize-platform",
	"otel.collector_addr": "localhost:4317",
	"otel.logs_endpoint":  "http://localhost:4318/v1/logs",
	"otel.sample_ratio":   1.0,

	"security.encryption_key": defaultEncryptionKey,
	"security.hashing_secret": "dev-hashing-secret",
	"security.bcrypt_cost":    10,

	"webhook.timeout": "10s",

	"rate_limit.enabled":             true,
	"rate_limit.use_redis":           true,
	"rate_limit.requests_per_second": 5,
	"rate_limit.burst_size":          20,

	"audit.enabled":        true,
	"audit.buffer_size":    1000,
	"audit.batch_size":     100,
	"audit.flush_interval": "5s",

	"cache.prize_type_ttl": "5m",
}

func load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	// list values are comma separated, with blanks dropped
	cfg.Server.CORSOrigins = splitList(v.GetString("server.cors_origins"))
	cfg.Kafka.Brokers = splitList(v.GetString("kafka.brokers"))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.DBName == "" {
		return fmt.Errorf("database name is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if c.Security.EncryptionKey == "" {
		return fmt.Errorf("encryption key is required")
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required when kafka is enabled")
	}

	if c.IsProduction() {
		if c.JWT.Secret == defaultJWTSecret {
			return fmt.Errorf("JWT secret must be changed in production")
		}
		if c.Security.EncryptionKey == defaultEncryptionKey {
			return fmt.Errorf("encryption key must be changed in production")
		}
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
