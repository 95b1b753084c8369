package server

import (
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"taskdesk/internal/domain/errors"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

const defaultDatabaseURL = "postgresql://taskdesk:taskdesk@db:5432/taskdesk?sslmode=disable"

// Duration reads "15s"-style values from both JSON and the environment.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) SetValue(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return d.SetValue(s)
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("duration must be a string like \"15s\": %w", err)
	}
	*d = Duration(time.Duration(n) * time.Second)
	return nil
}

type JWTConfig struct {
	Secret string   `json:"secret" env:"JWT_SECRET"`
	TTL    Duration `json:"ttl" env:"JWT_TTL" env-default:"24h"`
	Issuer string   `json:"issuer" env:"JWT_ISSUER" env-default:"taskdesk"`
}

type SMTPConfig struct {
	Host     string `json:"host" env:"SMTP_HOST"`
	Port     int    `json:"port" env:"SMTP_PORT" env-default:"587"`
	Username string `json:"username" env:"SMTP_USER"`
	Password string `json:"password" env:"SMTP_PASSWORD"`
	From     string `json:"from" env:"SMTP_FROM"`
	FromName string `json:"from_name" env:"SMTP_FROM_NAME" env-default:"Task Desk"`
}

type NotifyConfig struct {
	Workers   int `json:"workers" env:"NOTIFY_WORKERS" env-default:"2"`
	QueueSize int `json:"queue_size" env:"NOTIFY_QUEUE_SIZE" env-default:"100"`
}

// AdminConfig is the account bootstrapped at startup and by cmd/seed.
// Nothing is created while Password is empty.
type AdminConfig struct {
	Name     string `json:"name" env:"ADMIN_NAME" env-default:"Administrator"`
	Email    string `json:"email" env:"ADMIN_EMAIL" env-default:"admin@example.com"`
	Password string `json:"password" env:"ADMIN_PASSWORD"`
}

// Config is the service configuration. AllowMemoryStore lets the server run
// on the in-memory store when Postgres is unreachable; that data is lost on
// restart.
type Config struct {
	Env              string       `json:"env" env:"ENV" env-default:"prod"`
	Addr             string       `json:"addr" env:"ADDR" env-default:"0.0.0.0"`
	Port             int          `json:"port" env:"PORT" env-default:"8080"`
	DatabaseURL      string       `json:"database_url" env:"DATABASE_URL" env-default:"postgresql://taskdesk:taskdesk@db:5432/taskdesk?sslmode=disable"`
	MigratePath      string       `json:"migrate_path" env:"MIGRATE_PATH" env-default:"migrations"`
	ClientOrigins    []string     `json:"client_origins" env:"CLIENT_ORIGINS" env-separator:"," env-default:"http://localhost:5173"`
	AppURL           string       `json:"app_url" env:"APP_URL"`
	TimeZone         string       `json:"time_zone" env:"TIME_ZONE" env-default:"UTC"`
	ShutdownTimeout  Duration     `json:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"30s"`
	AllowMemoryStore bool         `json:"allow_memory_store" env:"ALLOW_MEMORY_STORE" env-default:"false"`
	JWT              JWTConfig    `json:"jwt"`
	SMTP             SMTPConfig   `json:"smtp"`
	Notify           NotifyConfig `json:"notify"`
	Admin            AdminConfig  `json:"admin"`
}

// ListenAddr is the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Addr, strconv.Itoa(c.Port))
}

// Location resolves TimeZone; Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BaseURL is the address used in email links.
func (c *Config) BaseURL() string {
	if c.AppURL != "" {
		return c.AppURL
	}
	if len(c.ClientOrigins) > 0 {
		return c.ClientOrigins[0]
	}
	return ""
}

func (c *Config) Validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("%w: unknown env %q", errors.ErrConfigInvalidFormat, c.Env)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port must be between 1 and 65535, got %d", errors.ErrConfigInvalidFormat, c.Port)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("%w: database url is required", errors.ErrConfigInvalidFormat)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("%w: JWT_SECRET is required", errors.ErrConfigInvalidFormat)
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("%w: jwt ttl must be positive", errors.ErrConfigInvalidFormat)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown timeout must be positive", errors.ErrConfigInvalidFormat)
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("%w: time zone %q: %v", errors.ErrConfigInvalidFormat, c.TimeZone, err)
	}
	if c.Notify.Workers < 1 || c.Notify.QueueSize < 1 {
		return fmt.Errorf("%w: notify workers and queue size must be positive", errors.ErrConfigInvalidFormat)
	}
	if c.Admin.Password != "" && len(c.Admin.Password) < 6 {
		return fmt.Errorf("%w: ADMIN_PASSWORD must be at least 6 characters", errors.ErrConfigInvalidFormat)
	}
	return nil
}

type flagValues struct {
	configFile  string
	env         string
	addr        string
	port        int
	dbURL       string
	migratePath string
	set         map[string]bool
}

func parseFlags(args []string) (*flagValues, error) {
	fv := &flagValues{set: map[string]bool{}}
	fs := flag.NewFlagSet("taskdesk", flag.ContinueOnError)
	fs.StringVar(&fv.configFile, "c", "", "path to a JSON config file")
	fs.StringVar(&fv.env, "env", "", "environment: local, dev or prod")
	fs.StringVar(&fv.addr, "addr", "", "server address")
	fs.IntVar(&fv.port, "port", 0, "server port")
	fs.StringVar(&fv.dbURL, "dburl", "", "database connection string")
	fs.StringVar(&fv.migratePath, "migratepath", "", "path to the migrations directory")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { fv.set[f.Name] = true })
	return fv, nil
}

// ReadConfig layers defaults, an optional JSON file (-c or CONFIG), the
// environment and explicitly set flags, in that order of precedence.
func ReadConfig(args []string, logger zerolog.Logger) (*Config, error) {
	fv, err := parseFlags(args)
	if err != nil {
		return nil, err
	}

	configPath := fv.configFile
	if configPath == "" {
		configPath = os.Getenv("CONFIG")
	}

	cfg := &Config{}
	if configPath != "" {
		if err := cleanenv.ReadConfig(configPath, cfg); err != nil {
			logger.Warn().
				Err(err).
				Str("path", configPath).
				Msg(errors.ErrConfigFileReadFailed.Error())
			cfg = &Config{}
			if err := cleanenv.ReadEnv(cfg); err != nil {
				return nil, fmt.Errorf("%w: %v", errors.ErrConfigParseFailed, err)
			}
		} else {
			logger.Info().
				Str("path", configPath).
				Msg("loaded config file")
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrConfigParseFailed, err)
	}

	applyDBParts(cfg)
	applyFlagOverrides(cfg, fv)
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDBParts builds the database URL from DB_* variables when no URL was
// configured explicitly.
func applyDBParts(cfg *Config) {
	if cfg.DatabaseURL != defaultDatabaseURL {
		return
	}
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	if dbUser != "" && dbPassword != "" && dbName != "" && dbHost != "" && dbPort != "" {
		cfg.DatabaseURL = fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable", dbUser, dbPassword, dbHost, dbPort, dbName)
	}
}

func applyFlagOverrides(cfg *Config, fv *flagValues) {
	if fv.set["env"] {
		cfg.Env = fv.env
	}
	if fv.set["addr"] {
		cfg.Addr = fv.addr
	}
	if fv.set["port"] {
		cfg.Port = fv.port
	}
	if fv.set["dburl"] {
		cfg.DatabaseURL = fv.dbURL
	}
	if fv.set["migratepath"] {
		cfg.MigratePath = fv.migratePath
	}
}
