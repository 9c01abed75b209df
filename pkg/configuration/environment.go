package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c, err := Load(".env", ".env.local")
	if err != nil {
		panic(err)
	}
	return c
})

// LoadEnv loads the env files that exist, looking in the working directory first and then in
// the nearest parent holding a go.mod. It returns how many files were loaded.
func LoadEnv(envFiles []string) (int, error) {
	existing := existingFiles("", envFiles)
	if len(existing) == 0 {
		if root := moduleRoot(); root != "" {
			existing = existingFiles(root, envFiles)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func existingFiles(dir string, envFiles []string) []string {
	out := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		path := file
		if dir != "" {
			path = filepath.Join(dir, file)
		}
		if fs.FileExists(path) {
			out = append(out, path)
		}
	}
	return out
}

func moduleRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if fs.FileExists(filepath.Join(dir, "go.mod")) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"accounts"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

// CommitOptions drive the retry policy of audited commits.
type CommitOptions struct {
	MaxAttempts int           `env:"AUDIT_COMMIT_MAX_ATTEMPTS" envDefault:"5"`
	BaseBackoff time.Duration `env:"AUDIT_COMMIT_BASE_BACKOFF" envDefault:"50ms"`
	MaxBackoff  time.Duration `env:"AUDIT_COMMIT_MAX_BACKOFF" envDefault:"2s"`
	JitterMax   time.Duration `env:"AUDIT_COMMIT_JITTER_MAX" envDefault:"25ms"`
	Timeout     time.Duration `env:"AUDIT_COMMIT_TIMEOUT" envDefault:"10s"`
}

func (c *CommitOptions) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("AUDIT_COMMIT_MAX_ATTEMPTS must be at least 1, got %d", c.MaxAttempts)
	}
	if c.BaseBackoff < 0 || c.MaxBackoff < 0 || c.JitterMax < 0 || c.Timeout < 0 {
		return fmt.Errorf("audit commit durations must be non-negative")
	}
	if c.MaxBackoff > 0 && c.BaseBackoff > c.MaxBackoff {
		return fmt.Errorf("AUDIT_COMMIT_BASE_BACKOFF (%s) exceeds AUDIT_COMMIT_MAX_BACKOFF (%s)", c.BaseBackoff, c.MaxBackoff)
	}
	return nil
}

// AuditFeedOptions control publishing audit records to the outbox and on to a Redis stream.
type AuditFeedOptions struct {
	Enabled      bool   `env:"AUDIT_OUTBOX_ENABLED" envDefault:"false"`
	Table        string `env:"AUDIT_OUTBOX_TABLE" envDefault:"audit_outbox"`
	Topic        string `env:"AUDIT_OUTBOX_TOPIC" envDefault:"accounts.audit.v1"`
	Stream       string `env:"AUDIT_STREAM" envDefault:"accounts:audit"`
	StreamMaxLen int64  `env:"AUDIT_STREAM_MAXLEN" envDefault:"100000"`
}

func (a *AuditFeedOptions) Validate() error {
	if !a.Enabled {
		return nil
	}
	if strings.TrimSpace(a.Table) == "" {
		return fmt.Errorf("AUDIT_OUTBOX_TABLE is required when AUDIT_OUTBOX_ENABLED is set")
	}
	if strings.TrimSpace(a.Topic) == "" {
		return fmt.Errorf("AUDIT_OUTBOX_TOPIC is required when AUDIT_OUTBOX_ENABLED is set")
	}
	return nil
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
	Addr    string `env:"PROMETHEUS_METRICS_ADDR" envDefault:"localhost:9464"`
}

type OutboxOptions struct {
	RelayPollInterval    time.Duration `env:"OUTBOX_RELAY_POLL_INTERVAL" envDefault:"1s"`
	RelayBatchSize       int           `env:"OUTBOX_RELAY_BATCH_SIZE" envDefault:"100"`
	RelayLockTTL         time.Duration `env:"OUTBOX_RELAY_LOCK_TTL" envDefault:"60s"`
	RelayMaxAttempts     int           `env:"OUTBOX_RELAY_MAX_ATTEMPTS" envDefault:"25"`
	RelaySingleActive    bool          `env:"OUTBOX_RELAY_SINGLE_ACTIVE" envDefault:"true"`
	RelayDispatchTimeout time.Duration `env:"OUTBOX_RELAY_DISPATCH_TIMEOUT" envDefault:"30s"`
	RelayBaseBackoff     time.Duration `env:"OUTBOX_RELAY_BASE_BACKOFF" envDefault:"1s"`
	RelayMaxBackoff      time.Duration `env:"OUTBOX_RELAY_MAX_BACKOFF" envDefault:"60s"`

	LastErrorMaxBytes int `env:"OUTBOX_LAST_ERROR_MAX_BYTES" envDefault:"2048"`

	CleanerInterval      time.Duration `env:"OUTBOX_CLEANER_INTERVAL" envDefault:"1m"`
	CleanerRetention     time.Duration `env:"OUTBOX_CLEANER_RETENTION" envDefault:"168h"`
	CleanerDeadRetention time.Duration `env:"OUTBOX_CLEANER_DEAD_RETENTION" envDefault:"0"`
}

type Configuration struct {
	Database   DatabaseOptions
	Commit     CommitOptions
	AuditFeed  AuditFeedOptions
	Prometheus PrometheusOptions
	Outbox     OutboxOptions

	RedisURL         string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	MigrationsDir    string `env:"MIGRATIONS_DIR" envDefault:""`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`

	logger *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func Use() *Configuration {
	return singleton()
}

// Load reads the env files and the process environment into a new Configuration.
func Load(envFiles ...string) (*Configuration, error) {
	c := &Configuration{}
	if err := c.load(envFiles); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 && len(envFiles) > 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	if err := c.Commit.Validate(); err != nil {
		return fmt.Errorf("audit commit configuration error: %w", err)
	}
	if err := c.AuditFeed.Validate(); err != nil {
		return fmt.Errorf("audit feed configuration error: %w", err)
	}

	c.logger = newLogger(c.LogrusLogLevel(), c.GoAppEnvironment == Production)
	c.Database.Opts = c.Database.ConnectionString()
	return nil
}

func newLogger(level logrus.Level, structured bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	if structured {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
