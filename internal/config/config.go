package config

import (
	"reflect"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/nimasrn/denitracker/pkg/logger"
	"github.com/pkg/errors"
)

const ConfigTagName = "env"
const ConfigDefaultTagName = "default"

var config *Config

// Config holds every setting of the device client and the reference ledger
// API. Only this struct may be used to read configuration; no direct access
// to env or any other config source should be made.
type Config struct {
	AppEnv   string `env:"APP_ENV" default:"dev"`
	AppName  string `env:"APP_NAME" default:"denitracker"`
	LogLevel string `env:"LOG_LEVEL" default:"info"`
	LogFile  string `env:"LOG_FILE"`

	LocalDBPath  string `env:"LOCAL_DB_PATH" default:"denitracker.db"`
	LocalDBDebug bool   `env:"LOCAL_DB_DEBUG"`

	RemoteBaseURL          string        `env:"REMOTE_BASE_URL" default:"http://127.0.0.1:8000/api"`
	RemoteTimeout          time.Duration `env:"REMOTE_TIMEOUT" default:"5s"`
	RemoteMaxRetries       int           `env:"REMOTE_MAX_RETRIES" default:"1"`
	RemoteRetryDelay       time.Duration `env:"REMOTE_RETRY_DELAY" default:"200ms"`
	RemoteBreakerThreshold int           `env:"REMOTE_BREAKER_THRESHOLD" default:"3"`
	RemoteBreakerTimeout   time.Duration `env:"REMOTE_BREAKER_TIMEOUT" default:"30s"`

	ConnectivityProbeInterval time.Duration `env:"CONNECTIVITY_PROBE_INTERVAL" default:"10s"`
	SyncOnStart               bool          `env:"SYNC_ON_START" default:"true"`
	TransactionWritePolicy    string        `env:"TRANSACTION_WRITE_POLICY" default:"remote"`

	HttpListenAddr string `env:"HTTP_LISTEN_ADDR" default:"127.0.0.1:8700"`
	MetricsAddr    string `env:"METRICS_ADDR"`
	MetricsURI     string `env:"METRICS_URI" default:"/metrics"`
	PromNamespace  string `env:"PROM_NAMESPACE" default:"denitracker"`

	LedgerListenAddr string        `env:"LEDGER_LISTEN_ADDR" default:":8000"`
	IdempotencyTTL   time.Duration `env:"IDEMPOTENCY_TTL" default:"24h"`

	PostgresHost     string `env:"POSTGRES_HOST"`
	PostgresPort     string `env:"POSTGRES_PORT" default:"5432"`
	PostgresUser     string `env:"POSTGRES_USER"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresDatabase string `env:"POSTGRES_DBNAME"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" default:"disable"`
	PostgresMaxConns int    `env:"POSTGRES_MAX_CONNS" default:"20"`

	RedisAddr      string `env:"REDIS_ADDR"`
	RedisUsername  string `env:"REDIS_USER"`
	RedisPassword  string `env:"REDIS_PASS"`
	RedisDatabase  int    `env:"REDIS_DATABASE"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" default:"ledger:"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c, err := Parse(path)
	if err != nil {
		return err
	}
	config = c
	return nil
}

// Parse reads the optional env file and maps the environment onto a fresh
// Config, filling empty fields from their default tags.
func Parse(path string) (*Config, error) {
	c := &Config{}
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		if err := godotenv.Load(path); err != nil {
			return nil, errors.New("failed to load configuration file " + path + " error: " + err.Error())
		}
	}

	if err := applyDefaults(c); err != nil {
		return nil, errors.Wrap(err, "failed to apply configuration defaults")
	}

	if _, err := env.UnmarshalFromEnviron(c); err != nil {
		return nil, errors.New("failed to map env variables to Configuration object " + " error: " + err.Error())
	}
	return c, nil
}

// applyDefaults unmarshals the default tags through go-env by presenting
// them as an environment set, so the same parsing rules apply to both.
func applyDefaults(c *Config) error {
	defaults := env.EnvSet{}
	t := reflect.TypeOf(*c)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		key, def := f.Tag.Get(ConfigTagName), f.Tag.Get(ConfigDefaultTagName)
		if key == "" || def == "" {
			continue
		}
		defaults[key] = def
	}
	return env.Unmarshal(defaults, c)
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}

// Set installs an already parsed config, used by tests and embedded callers.
func Set(c *Config) {
	config = c
}
