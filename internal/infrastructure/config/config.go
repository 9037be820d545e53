package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Validation ValidationConfig
	Currency   CurrencyConfig
	Tiering    TieringConfig
	Reference  ReferenceConfig
	Storage    StorageConfig
	Lock       LockConfig
	Metrics    MetricsConfig
	Telemetry  TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds analytical store connection settings
type DatabaseConfig struct {
	Driver          string // sqlite, postgres
	Path            string // sqlite file path, ":memory:" allowed
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	AutoMigrate     bool
	UpsertBatchSize int
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds read API server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	DefaultLimit   int
	MaxLimit       int
	CORSOrigins    []string
	// RunRateLimit caps pipeline run triggers per client per RunRateWindow
	RunRateLimit  int
	RunRateWindow time.Duration
}

// ValidationConfig holds validation engine switches
type ValidationConfig struct {
	// SourceBReferentialChecks enables city/district existence checks for
	// source B records. Disabled unless explicitly turned on.
	SourceBReferentialChecks bool
}

// CurrencyConfig holds the static settlement multipliers seeded each run
type CurrencyConfig struct {
	Rates map[string]string // currency code -> multiplier
}

// TieringConfig holds clustering parameters
type TieringConfig struct {
	K         int
	Seed      int64 // 0 means unseeded
	NInit     int
	MaxIter   int
	ElbowMaxK int
	ExportKey string // blob key for the CSV export, empty disables it
}

// ReferenceConfig holds the locations of the translation reference files
type ReferenceConfig struct {
	CityFile     string
	DistrictFile string
}

// StorageConfig holds blob storage settings
type StorageConfig struct {
	Type      string // local, s3
	LocalPath string
	S3        S3Config
}

// S3Config holds S3-compatible storage settings
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// LockConfig holds pipeline run lock settings
type LockConfig struct {
	Backend string // memory, redis
	TTL     time.Duration
	Key     string
}

// MetricsConfig holds Prometheus metrics settings
type MetricsConfig struct {
	Enabled      bool
	TextfilePath string // written after each pipeline run when set
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
	DBSlowQueryThresh time.Duration
	// LogsEnabled ships log entries to the collector alongside spans
	LogsEnabled bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with RECON_ prefix (e.g., RECON_DATABASE_DRIVER)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("RECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Path:            v.GetString("database.path"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
			UpsertBatchSize: v.GetInt("database.upsert_batch_size"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			DefaultLimit:   v.GetInt("http.default_limit"),
			MaxLimit:       v.GetInt("http.max_limit"),
			CORSOrigins:    v.GetStringSlice("http.cors_origins"),
			RunRateLimit:   v.GetInt("http.run_rate_limit"),
			RunRateWindow:  v.GetDuration("http.run_rate_window"),
		},
		Validation: ValidationConfig{
			SourceBReferentialChecks: v.GetBool("validation.source_b_referential_checks"),
		},
		Currency: CurrencyConfig{
			Rates: upperKeys(v.GetStringMapString("currency.rates")),
		},
		Tiering: TieringConfig{
			K:         v.GetInt("tiering.k"),
			Seed:      v.GetInt64("tiering.seed"),
			NInit:     v.GetInt("tiering.n_init"),
			MaxIter:   v.GetInt("tiering.max_iter"),
			ElbowMaxK: v.GetInt("tiering.elbow_max_k"),
			ExportKey: v.GetString("tiering.export_key"),
		},
		Reference: ReferenceConfig{
			CityFile:     v.GetString("reference.city_file"),
			DistrictFile: v.GetString("reference.district_file"),
		},
		Storage: StorageConfig{
			Type:      v.GetString("storage.type"),
			LocalPath: v.GetString("storage.local_path"),
			S3: S3Config{
				Endpoint:        v.GetString("storage.s3.endpoint"),
				Region:          v.GetString("storage.s3.region"),
				Bucket:          v.GetString("storage.s3.bucket"),
				AccessKeyID:     v.GetString("storage.s3.access_key_id"),
				SecretAccessKey: v.GetString("storage.s3.secret_access_key"),
				UsePathStyle:    v.GetBool("storage.s3.use_path_style"),
			},
		},
		Lock: LockConfig{
			Backend: v.GetString("lock.backend"),
			TTL:     v.GetDuration("lock.ttl"),
			Key:     v.GetString("lock.key"),
		},
		Metrics: MetricsConfig{
			Enabled:      v.GetBool("metrics.enabled"),
			TextfilePath: v.GetString("metrics.textfile_path"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// viper lowercases map keys; currency codes are upper case everywhere else.
func upperKeys(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToUpper(k)] = v
	}
	return out
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "salesrecon"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "salesrecon.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "salesrecon"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.UpsertBatchSize == 0 {
		cfg.Database.UpsertBatchSize = 500
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.DefaultLimit == 0 {
		cfg.HTTP.DefaultLimit = 100
	}
	if cfg.HTTP.MaxLimit == 0 {
		cfg.HTTP.MaxLimit = 1000
	}
	if cfg.HTTP.RunRateLimit == 0 {
		cfg.HTTP.RunRateLimit = 6
	}
	if cfg.HTTP.RunRateWindow == 0 {
		cfg.HTTP.RunRateWindow = time.Minute
	}
	if len(cfg.Currency.Rates) == 0 {
		cfg.Currency.Rates = map[string]string{"RMB": "1", "USD": "7.28"}
	}
	if cfg.Tiering.K == 0 {
		cfg.Tiering.K = 3
	}
	if cfg.Tiering.NInit == 0 {
		cfg.Tiering.NInit = 10
	}
	if cfg.Tiering.MaxIter == 0 {
		cfg.Tiering.MaxIter = 300
	}
	if cfg.Tiering.ElbowMaxK == 0 {
		cfg.Tiering.ElbowMaxK = 9
	}
	if cfg.Reference.CityFile == "" {
		cfg.Reference.CityFile = "reference/city_translations.json"
	}
	if cfg.Reference.DistrictFile == "" {
		cfg.Reference.DistrictFile = "reference/district_translations.json"
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.LocalPath == "" {
		cfg.Storage.LocalPath = "data"
	}
	if cfg.Storage.S3.Region == "" {
		cfg.Storage.S3.Region = "us-east-1"
	}
	if cfg.Lock.Backend == "" {
		cfg.Lock.Backend = "memory"
	}
	if cfg.Lock.TTL == 0 {
		cfg.Lock.TTL = 30 * time.Minute
	}
	if cfg.Lock.Key == "" {
		cfg.Lock.Key = "salesrecon:pipeline:run"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "salesrecon"
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Database.UpsertBatchSize < 0 {
		return fmt.Errorf("database.upsert_batch_size cannot be negative")
	}
	if c.Tiering.K < 1 {
		return fmt.Errorf("tiering.k must be at least 1, got %d", c.Tiering.K)
	}
	if c.Tiering.NInit < 1 {
		return fmt.Errorf("tiering.n_init must be at least 1, got %d", c.Tiering.NInit)
	}
	if c.Tiering.ElbowMaxK < 1 {
		return fmt.Errorf("tiering.elbow_max_k must be at least 1, got %d", c.Tiering.ElbowMaxK)
	}
	switch c.Storage.Type {
	case "local":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when storage.type is s3")
		}
	default:
		return fmt.Errorf("storage.type must be local or s3, got %q", c.Storage.Type)
	}
	switch c.Lock.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("lock.backend must be memory or redis, got %q", c.Lock.Backend)
	}

	if c.App.Env == "production" && c.Database.Driver == "postgres" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// RedisAddr returns host:port for the Redis client
func (r *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
