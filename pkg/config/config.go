// Package config loads process configuration from TMS_* environment
// variables. Every binary calls Load once at startup and passes the relevant
// sections down explicitly.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"

	"github.com/angelmondragon/tms-backend/pkg/enums"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Dispatch      DispatchConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Telemetry     TelemetryConfig
	CORS          CORSConfig
}

// Load reads the environment, fills in a DSN from its parts when
// TMS_DB_DSN is unset and rejects values no binary could run with.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.DB.DSN == "" {
		dsn, err := cfg.DB.dsnFromParts()
		if err != nil {
			return nil, err
		}
		cfg.DB.DSN = dsn
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs error
	if !enums.Permission(c.Dispatch.EligibilityPermission).IsValid() {
		errs = multierr.Append(errs, fmt.Errorf("%s: unknown permission %q", EnvEligibilityPermission, c.Dispatch.EligibilityPermission))
	}
	if c.Dispatch.MaxActiveJobs < 1 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be at least 1", EnvMaxActiveJobs))
	}
	if c.Outbox.BatchSize < 1 || c.Outbox.MaxAttempts < 1 {
		errs = multierr.Append(errs, errors.New("outbox batch size and max attempts must be positive"))
	}
	if c.Dispatch.AutoAssignLockTTL >= c.Dispatch.AutoAssignInterval {
		errs = multierr.Append(errs, errors.New("auto-assign lock ttl must be shorter than its interval"))
	}
	return errs
}

type AppConfig struct {
	Env          string `envconfig:"TMS_APP_ENV" required:"true"`
	Port         string `envconfig:"TMS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TMS_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"TMS_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"TMS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool  { return strings.EqualFold(a.Env, AppEnvDev) }
func (a AppConfig) IsProd() bool { return strings.EqualFold(a.Env, AppEnvProd) }

type ServiceConfig struct {
	// Kind is overwritten by each binary's main.
	Kind string `envconfig:"TMS_SERVICE_KIND" default:"api"`

	// WorkerID tags cron worker logs. Empty falls back to the hostname.
	WorkerID string `envconfig:"TMS_WORKER_ID"`

	// MetricsAddr is where background workers expose /metrics. The API serves
	// it on its own router.
	MetricsAddr string `envconfig:"TMS_METRICS_ADDR" default:":9090"`
}

type DBConfig struct {
	DSN    string `envconfig:"TMS_DB_DSN"`
	Driver string `envconfig:"TMS_DB_DRIVER" default:"postgres"`

	// Used only when DSN is empty.
	Host     string `envconfig:"TMS_DB_HOST"`
	Port     int    `envconfig:"TMS_DB_PORT" default:"5432"`
	User     string `envconfig:"TMS_DB_USER"`
	Password string `envconfig:"TMS_DB_PASSWORD"`
	Name     string `envconfig:"TMS_DB_NAME"`
	SSLMode  string `envconfig:"TMS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TMS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TMS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TMS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TMS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"TMS_DB_SLOW_QUERY" default:"500ms"`
}

func (db DBConfig) dsnFromParts() (string, error) {
	var missing []string
	for env, value := range map[string]string{EnvDBHost: db.Host, EnvDBUser: db.User, EnvDBName: db.Name} {
		if value == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("%s is unset and so is %s", EnvDBDSN, strings.Join(missing, ", "))
	}

	dsn := url.URL{
		Scheme: "postgres",
		User:   url.User(db.User),
		Host:   net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
		Path:   db.Name,
	}
	if db.Password != "" {
		dsn.User = url.UserPassword(db.User, db.Password)
	}
	if db.SSLMode != "" {
		dsn.RawQuery = url.Values{"sslmode": {db.SSLMode}}.Encode()
	}
	return dsn.String(), nil
}

type RedisConfig struct {
	URL          string        `envconfig:"TMS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TMS_REDIS_ADDR"`
	Password     string        `envconfig:"TMS_REDIS_PASSWORD"`
	DB           int           `envconfig:"TMS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TMS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TMS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TMS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TMS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TMS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TMS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TMS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TMS_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// TokenTTL is the lifetime of both the access token and its backing session.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// PasswordConfig holds argon2id cost parameters.
type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TMS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TMS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TMS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TMS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TMS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow       time.Duration `envconfig:"TMS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit   int           `envconfig:"TMS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit      int           `envconfig:"TMS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	CodeRequestWindow time.Duration `envconfig:"TMS_AUTH_RATE_LIMIT_CODE_WINDOW" default:"5m"`
	CodeRequestLimit  int           `envconfig:"TMS_AUTH_RATE_LIMIT_CODE_EMAIL_LIMIT" default:"3"`
	CodeRequestIPMax  int           `envconfig:"TMS_AUTH_RATE_LIMIT_CODE_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TMS_AUTO_MIGRATE" default:"false"`
}

// DispatchConfig tunes the planner and the auto-assignment batch.
type DispatchConfig struct {
	AutoAssignInterval    time.Duration `envconfig:"TMS_DISPATCH_AUTO_ASSIGN_INTERVAL" default:"5m"`
	AutoAssignLockTTL     time.Duration `envconfig:"TMS_DISPATCH_AUTO_ASSIGN_LOCK_TTL" default:"4m"`
	MaxActiveJobs         int           `envconfig:"TMS_DISPATCH_MAX_ACTIVE_JOBS" default:"5"`
	EligibilityPermission string        `envconfig:"TMS_DISPATCH_ELIGIBILITY_PERMISSION" default:"READ_TRANSPORT_REQUEST"`
	AuthCodeTTL           time.Duration `envconfig:"TMS_DISPATCH_AUTH_CODE_TTL" default:"15m"`
	IdempotencyTTL        time.Duration `envconfig:"TMS_DISPATCH_IDEMPOTENCY_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TMS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"TMS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TMS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DispatchTopic     string `envconfig:"TMS_PUBSUB_DISPATCH_TOPIC" default:"tms-dispatch-events"`
	NotificationTopic string `envconfig:"TMS_PUBSUB_NOTIFICATION_TOPIC" default:"tms-notification-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TMS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TMS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TMS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type TelemetryConfig struct {
	Enabled      bool   `envconfig:"TMS_OTEL_ENABLED" default:"false"`
	OTLPEndpoint string `envconfig:"TMS_OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	Insecure     bool   `envconfig:"TMS_OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"TMS_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	// MaxAge is how long browsers may cache a preflight, in seconds.
	MaxAge int  `envconfig:"TMS_CORS_MAX_AGE" default:"300"`
	Debug  bool `envconfig:"TMS_CORS_DEBUG" default:"false"`
}
