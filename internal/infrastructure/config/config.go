package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. APPAREL_DATABASE_PASSWORD.
const EnvPrefix = "APPAREL"

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Log        LogConfig        `mapstructure:"log"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Stripe     StripeConfig     `mapstructure:"stripe"`
	Vectorizer VectorizerConfig `mapstructure:"vectorizer"`
	AIGen      AIGenConfig      `mapstructure:"aigen"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Pricing    PricingConfig    `mapstructure:"pricing"`
	Printing   PrintingConfig   `mapstructure:"printing"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Swagger    SwaggerConfig    `mapstructure:"swagger"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
	// PublicURL is the storefront origin used in campaign share links
	PublicURL string `mapstructure:"public_url"`
}

// IsProduction reports whether the app runs with production safeguards.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// SwaggerConfig guards the /swagger API docs. Production must disable them
// or require auth or an IP allow list.
type SwaggerConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	RequireAuth bool     `mapstructure:"require_auth"` // admin bearer token
	AllowedIPs  []string `mapstructure:"allowed_ips"`  // IPs or CIDRs, empty allows all
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr
	// File enables a rotating file sink next to Output
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres, sqlite
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
	MigrationsPath  string `mapstructure:"migrations_path"`
}

// DSN returns the postgres URL with user info and query values escaped
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port for the redis client.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret                 string        `mapstructure:"secret"`
	RefreshSecret          string        `mapstructure:"refresh_secret"`
	AccessTokenExpiration  time.Duration `mapstructure:"access_token_expiration"`
	RefreshTokenExpiration time.Duration `mapstructure:"refresh_token_expiration"`
	// OrganizerTokenGrace keeps organizer tokens valid past the campaign deadline
	OrganizerTokenGrace time.Duration `mapstructure:"organizer_token_grace"`
	Issuer              string        `mapstructure:"issuer"`
}

type HTTPConfig struct {
	ReadTimeout           time.Duration `mapstructure:"read_timeout"`
	WriteTimeout          time.Duration `mapstructure:"write_timeout"`
	IdleTimeout           time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes        int           `mapstructure:"max_header_bytes"`
	MaxBodySize           int64         `mapstructure:"max_body_size"`
	MaxUploadSize         int64         `mapstructure:"max_upload_size"`
	RateLimitEnabled      bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRequests     int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow       time.Duration `mapstructure:"rate_limit_window"`
	AuthRateLimitRequests int           `mapstructure:"auth_rate_limit_requests"`
	AuthRateLimitWindow   time.Duration `mapstructure:"auth_rate_limit_window"`
	CORSAllowOrigins      []string      `mapstructure:"cors_allow_origins"`
	CORSAllowMethods      []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders      []string      `mapstructure:"cors_allow_headers"`
	TrustedProxies        []string      `mapstructure:"trusted_proxies"`
}

// StorageConfig points at S3-compatible object storage for artwork
type StorageConfig struct {
	Provider          string        `mapstructure:"provider"` // s3, memory
	Endpoint          string        `mapstructure:"endpoint"`
	Region            string        `mapstructure:"region"`
	Bucket            string        `mapstructure:"bucket"`
	AccessKey         string        `mapstructure:"access_key"`
	SecretKey         string        `mapstructure:"secret_key"`
	UseSSL            bool          `mapstructure:"use_ssl"`
	UsePathStyle      bool          `mapstructure:"use_path_style"`
	PresignExpiration time.Duration `mapstructure:"presign_expiration"`
	CreateBucket      bool          `mapstructure:"create_bucket"`
}

type StripeConfig struct {
	SecretKey      string `mapstructure:"secret_key"`
	PublishableKey string `mapstructure:"publishable_key"`
	WebhookSecret  string `mapstructure:"webhook_secret"`
	Currency       string `mapstructure:"currency"`
}

type VectorizerConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Endpoint  string        `mapstructure:"endpoint"`
	APIID     string        `mapstructure:"api_id"`
	APISecret string        `mapstructure:"api_secret"`
	Mode      string        `mapstructure:"mode"` // production, preview, test
	Timeout   time.Duration `mapstructure:"timeout"`
}

type AIGenConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	AspectRatio string        `mapstructure:"aspect_ratio"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// KafkaConfig controls the domain event relay
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

type SchedulerConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Workers           int           `mapstructure:"workers"`
	QueueSize         int           `mapstructure:"queue_size"`
	JobTimeout        time.Duration `mapstructure:"job_timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
	CampaignSweepCron string        `mapstructure:"campaign_sweep_cron"`
}

type PricingConfig struct {
	SetupFeePerColor      decimal.Decimal `mapstructure:"setup_fee_per_color"`
	SetupFeeWaiverQty     int             `mapstructure:"setup_fee_waiver_qty"`
	ShippingFlat          decimal.Decimal `mapstructure:"shipping_flat"`
	FreeShippingThreshold decimal.Decimal `mapstructure:"free_shipping_threshold"`
	MaxOrderQuantity      int             `mapstructure:"max_order_quantity"`
	DefaultExpectedQty    int             `mapstructure:"default_expected_qty"`
}

// PrintingConfig controls headless Chrome PDF rendering
type PrintingConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	RemoteURL string        `mapstructure:"remote_url"`
	NoSandbox bool          `mapstructure:"no_sandbox"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"`
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          `mapstructure:"insecure"`
	MetricsEnabled    bool          `mapstructure:"metrics_enabled"`
	MetricsInterval   time.Duration `mapstructure:"metrics_interval"`
	LogsEnabled       bool          `mapstructure:"logs_enabled"`
	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"`
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`
	ProfilingEnabled  bool          `mapstructure:"profiling_enabled"`
	PyroscopeAddress  string        `mapstructure:"pyroscope_address"`
}

// defaults lists every key viper should know about. AutomaticEnv only
// resolves keys that are registered, so keys without a sensible default
// are registered with their zero value.
var defaults = map[string]any{
	"app.name":       "apparel-storefront",
	"app.env":        "development",
	"app.port":       "8080",
	"app.public_url": "http://localhost:3000",

	"database.driver":             "postgres",
	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "apparel",
	"database.sslmode":            "disable",
	"database.sqlite_path":        "apparel.db",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,
	"database.auto_migrate":       false,
	"database.migrations_path":    "migrations",

	"redis.enabled":  false,
	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"jwt.secret":                   "",
	"jwt.refresh_secret":           "",
	"jwt.access_token_expiration":  "15m",
	"jwt.refresh_token_expiration": "168h",
	"jwt.organizer_token_grace":    "720h",
	"jwt.issuer":                   "apparel-storefront",

	"log.level":        "info",
	"log.format":       "console",
	"log.output":       "stdout",
	"log.file":         "",
	"log.max_size_mb":  100,
	"log.max_backups":  5,
	"log.max_age_days": 28,
	"log.compress":     false,

	"http.read_timeout":             "15s",
	"http.write_timeout":            "30s",
	"http.idle_timeout":             "60s",
	"http.max_header_bytes":         1 << 20,
	"http.max_body_size":            1 << 20,
	"http.max_upload_size":          25 << 20,
	"http.rate_limit_enabled":       false,
	"http.rate_limit_requests":      120,
	"http.rate_limit_window":        "1m",
	"http.auth_rate_limit_requests": 5,
	"http.auth_rate_limit_window":   "1m",
	"http.cors_allow_origins":       []string{},
	"http.cors_allow_methods":       []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
	"http.cors_allow_headers":       []string{"Content-Type", "Authorization", "X-Request-ID", "Stripe-Signature"},
	"http.trusted_proxies":          []string{},

	"storage.provider":           "s3",
	"storage.endpoint":           "",
	"storage.region":             "us-east-1",
	"storage.bucket":             "artwork",
	"storage.access_key":         "",
	"storage.secret_key":         "",
	"storage.use_ssl":            false,
	"storage.use_path_style":     false,
	"storage.presign_expiration": "15m",
	"storage.create_bucket":      false,

	"stripe.secret_key":      "",
	"stripe.publishable_key": "",
	"stripe.webhook_secret":  "",
	"stripe.currency":        "usd",

	"vectorizer.enabled":    false,
	"vectorizer.endpoint":   "https://vectorizer.ai/api/v1/vectorize",
	"vectorizer.api_id":     "",
	"vectorizer.api_secret": "",
	"vectorizer.mode":       "production",
	"vectorizer.timeout":    "90s",

	"aigen.enabled":      false,
	"aigen.api_key":      "",
	"aigen.model":        "imagen-3.0-generate-002",
	"aigen.aspect_ratio": "1:1",
	"aigen.timeout":      "60s",

	"kafka.enabled":       false,
	"kafka.brokers":       []string{},
	"kafka.topic":         "apparel.events",
	"kafka.batch_timeout": "100ms",

	"scheduler.enabled":             false,
	"scheduler.workers":             2,
	"scheduler.queue_size":          100,
	"scheduler.job_timeout":         "3m",
	"scheduler.max_retries":         3,
	"scheduler.retry_delay":         "10s",
	"scheduler.campaign_sweep_cron": "@every 1m",

	"pricing.setup_fee_per_color":     "15",
	"pricing.setup_fee_waiver_qty":    72,
	"pricing.shipping_flat":           "8.95",
	"pricing.free_shipping_threshold": "150",
	"pricing.max_order_quantity":      10000,
	"pricing.default_expected_qty":    24,

	"printing.enabled":    false,
	"printing.remote_url": "",
	"printing.no_sandbox": false,
	"printing.timeout":    "30s",

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "",
	"telemetry.insecure":                false,
	"telemetry.metrics_enabled":         false,
	"telemetry.metrics_interval":        "60s",
	"telemetry.logs_enabled":            false,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": "200ms",
	"telemetry.profiling_enabled":       false,
	"telemetry.pyroscope_address":       "",

	"swagger.enabled":      true,
	"swagger.require_auth": false,
	"swagger.allowed_ips":  []string{},
}

// Load reads configuration, highest priority first, from:
//  1. APPAREL_* environment variables
//  2. a .env file in the working directory
//  3. config.toml in ., ./config or /app
//  4. built-in defaults
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	for _, dir := range []string{".", "./config", "/app"} {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v)
}

// Defaults returns the built-in configuration without reading files or env.
func Defaults() *Config {
	cfg, err := decode(viper.New())
	if err != nil {
		panic(fmt.Sprintf("config: invalid built-in defaults: %v", err))
	}
	return cfg
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		stringToDecimalHook,
	)))
	if err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	return &cfg, nil
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

func stringToDecimalHook(from, to reflect.Type, data any) (any, error) {
	if to != decimalType {
		return data, nil
	}
	switch from.Kind() {
	case reflect.String:
		s := strings.TrimSpace(data.(string))
		if s == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(s)
	case reflect.Float32, reflect.Float64:
		return decimal.NewFromFloat(reflect.ValueOf(data).Float()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decimal.NewFromInt(reflect.ValueOf(data).Int()), nil
	}
	return data, nil
}

func (c *Config) validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Database.Driver == "postgres" || c.Database.Driver == "sqlite",
		"database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	check(c.Database.MaxOpenConns > 0, "database.max_open_conns must be positive")
	check(c.Database.MaxIdleConns >= 0 && c.Database.MaxIdleConns <= c.Database.MaxOpenConns,
		"database.max_idle_conns (%d) must be between 0 and database.max_open_conns (%d)",
		c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	check(c.Storage.Provider == "s3" || c.Storage.Provider == "memory",
		"storage.provider must be s3 or memory, got %q", c.Storage.Provider)
	check(!c.Kafka.Enabled || len(c.Kafka.Brokers) > 0,
		"kafka.brokers is required when kafka.enabled is true")
	check(!c.AIGen.Enabled || c.AIGen.APIKey != "",
		"aigen.api_key is required when aigen.enabled is true")
	check(!c.Vectorizer.Enabled || (c.Vectorizer.APIID != "" && c.Vectorizer.APISecret != ""),
		"vectorizer.api_id and vectorizer.api_secret are required when vectorizer.enabled is true")
	check(!c.Pricing.SetupFeePerColor.IsNegative() && !c.Pricing.ShippingFlat.IsNegative(),
		"pricing fees cannot be negative")
	check(c.Telemetry.SamplingRatio >= 0 && c.Telemetry.SamplingRatio <= 1,
		"telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)

	if c.App.IsProduction() {
		check(len(c.JWT.Secret) >= 32, "jwt.secret must be at least 32 characters in production")
		check(c.Database.Driver == "postgres", "database.driver must be postgres in production")
		check(c.Database.Password != "", "database.password is required in production")
		check(c.Stripe.SecretKey != "" && c.Stripe.WebhookSecret != "",
			"stripe.secret_key and stripe.webhook_secret are required in production")
		check(c.Storage.Provider != "memory", "storage.provider=memory is not allowed in production")
		for _, origin := range c.HTTP.CORSAllowOrigins {
			check(origin != "*", "http.cors_allow_origins cannot be '*' in production")
		}
		check(!c.Telemetry.DBLogFullSQL, "telemetry.db_log_full_sql must be false in production")
		check(!c.Swagger.Enabled || c.Swagger.RequireAuth || len(c.Swagger.AllowedIPs) > 0,
			"swagger must be disabled, require auth or set allowed_ips in production")
	}

	return errors.Join(errs...)
}
