package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the console shell and CLI.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App     AppConfig
	Backend BackendConfig
	HTTP    HTTPConfig
	Storage StorageConfig
	DB      DBConfig
	Redis   RedisConfig
	Bridge  BridgeConfig
	Ding    DingConfig
}

type AppConfig struct {
	Env   string
	Port  int
	Title string

	// Origin is the return address handed to the SSO logout endpoint.
	Origin string

	DefaultLocale string

	// DialogTimeout bounds how long a confirmation dialog may stay unanswered.
	DialogTimeout time.Duration
}

// BackendConfig points at the SSO/auth server.
type BackendConfig struct {
	BaseServer string
	BaseAPI    string
}

type HTTPConfig struct {
	Timeout time.Duration

	// CoalesceUnauthorized collapses overlapping 401 confirmations into one dialog.
	CoalesceUnauthorized bool
}

type StorageConfig struct {
	// Driver accepts: memory, file, sqlite, redis, postgres
	Driver     string
	Namespace  string
	File       string
	SQLitePath string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

// BridgeConfig controls the tokens guarding the shell's IPC endpoints.
type BridgeConfig struct {
	Secret string
	TTL    time.Duration
}

// DingConfig carries the DingTalk QR login parameters.
type DingConfig struct {
	ClientID    string
	RedirectURI string
	State       string
}

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := optionalInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.Title = strings.TrimSpace(os.Getenv("APP_TITLE"))
	c.App.Origin = strings.TrimSpace(os.Getenv("APP_ORIGIN"))
	c.App.DefaultLocale = strings.TrimSpace(os.Getenv("DEFAULT_LOCALE"))
	c.App.DialogTimeout = mustDuration("DIALOG_TIMEOUT")

	c.Backend.BaseServer = strings.TrimRight(strings.TrimSpace(os.Getenv("BASE_SERVER")), "/")
	c.Backend.BaseAPI = strings.TrimSpace(os.Getenv("BASE_API"))

	c.HTTP.Timeout = mustDuration("HTTP_TIMEOUT")
	c.HTTP.CoalesceUnauthorized = mustBool("HTTP_COALESCE_401")

	c.Storage.Driver = strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_DRIVER")))
	c.Storage.Namespace = strings.TrimSpace(os.Getenv("STORAGE_NAMESPACE"))
	c.Storage.File = strings.TrimSpace(os.Getenv("STORAGE_FILE"))
	c.Storage.SQLitePath = strings.TrimSpace(os.Getenv("STORAGE_SQLITE_PATH"))

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := optionalInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := optionalInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Bridge.Secret = os.Getenv("BRIDGE_SECRET")
	c.Bridge.TTL = mustDuration("BRIDGE_TTL")

	c.Ding.ClientID = strings.TrimSpace(os.Getenv("DING_CLIENT_ID"))
	c.Ding.RedirectURI = strings.TrimSpace(os.Getenv("DING_REDIRECT_URI"))
	c.Ding.State = strings.TrimSpace(os.Getenv("DING_STATE"))

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the configuration and fills in defaults.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port == 0 {
		c.App.Port = 8173
	}
	if c.App.Port < 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.App.Title == "" {
		c.App.Title = "Breeze-Vite-UI"
	}
	if c.App.Origin == "" {
		c.App.Origin = fmt.Sprintf("http://localhost:%d", c.App.Port)
	}
	if c.App.DefaultLocale == "" {
		c.App.DefaultLocale = "zh-CN"
	}
	if c.App.DialogTimeout <= 0 {
		c.App.DialogTimeout = 2 * time.Minute
	}

	if c.Backend.BaseServer == "" {
		errs = append(errs, errors.New("BASE_SERVER is required"))
	} else if u, err := url.Parse(c.Backend.BaseServer); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("BASE_SERVER must be an absolute URL, got %q", c.Backend.BaseServer))
	}
	if c.Backend.BaseAPI == "" {
		c.Backend.BaseAPI = "/api"
	}
	if !strings.HasPrefix(c.Backend.BaseAPI, "/") {
		errs = append(errs, fmt.Errorf("BASE_API must start with /, got %q", c.Backend.BaseAPI))
	}

	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = 50 * time.Second
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverMemory
	}
	if c.Storage.Namespace == "" {
		c.Storage.Namespace = "breeze"
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverFile:
		if c.Storage.File == "" {
			errs = append(errs, errors.New("STORAGE_FILE is required for the file driver"))
		}
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("STORAGE_SQLITE_PATH is required for the sqlite driver"))
		}
	case DriverRedis:
		if c.Redis.Host == "" {
			errs = append(errs, errors.New("REDIS_HOST is required for the redis driver"))
		}
		if c.Redis.Port == 0 {
			c.Redis.Port = 6379
		}
		if c.Redis.Port < 0 || c.Redis.Port > 65535 {
			errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
		}
	case DriverPostgres:
		errs = append(errs, c.validateDB()...)
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be one of memory, file, sqlite, redis, postgres, got %q", c.Storage.Driver))
	}

	if c.Bridge.Secret == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("BRIDGE_SECRET is required in production"))
		}
	}
	if c.Bridge.TTL <= 0 {
		c.Bridge.TTL = 12 * time.Hour
	}

	if c.Ding.State == "" {
		c.Ding.State = "state"
	}

	return joinErrors(errs)
}

func (c *Config) validateDB() []error {
	var errs []error
	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required for the postgres driver"))
	}
	if c.DB.Port == 0 {
		c.DB.Port = 5432
	}
	if c.DB.Port < 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required for the postgres driver"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required for the postgres driver"))
	}
	if c.DB.SSLMode == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}
	return errs
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

// IsDevelopment reports whether the backend is reached through a dev proxy
// that already strips the API prefix.
func (c Config) IsDevelopment() bool {
	return c.App.Env == "local" || c.App.Env == "dev"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

// APIBaseURL is the prefix every auth API call is relative to.
func (c Config) APIBaseURL() string {
	return c.Backend.BaseServer + c.Backend.BaseAPI
}

// LogoutURL is the server-side SSO logout endpoint.
// Development proxies mount the SSO routes without the API prefix.
func (c Config) LogoutURL() string {
	if c.IsDevelopment() {
		return c.Backend.BaseServer + "/sso/logout"
	}
	return c.Backend.BaseServer + c.Backend.BaseAPI + "/sso/logout"
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func optionalInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func mustBool(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
