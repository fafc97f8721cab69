package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Config holds runtime configuration for the dashboard service and CLI.
type Config struct {
	ListenAddr      string        `env:"APP_LISTEN_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"APP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"APP_WRITE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	MaxUploadMB     int64         `env:"APP_MAX_UPLOAD_MB" envDefault:"64"`

	// BackendURL is the base URL of the template/metrics API.
	BackendURL string `env:"APP_BACKEND_URL" envDefault:"http://127.0.0.1:8000"`
	// BackendTimeout of 0 leaves requests without a client-side deadline.
	BackendTimeout time.Duration `env:"APP_BACKEND_TIMEOUT" envDefault:"0s"`

	LogLevel  string `env:"APP_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"APP_LOG_FORMAT" envDefault:"json"`

	HealthPollInterval     time.Duration `env:"APP_HEALTH_POLL_INTERVAL" envDefault:"30s"`
	HealthHistoryMaxPoints int           `env:"APP_HEALTH_HISTORY_MAX_POINTS" envDefault:"120"`

	// ActivityStore selects the activity log backend: none, sqlite or mysql.
	ActivityStore      string `env:"APP_ACTIVITY_STORE" envDefault:"none"`
	ActivitySQLitePath string `env:"APP_ACTIVITY_SQLITE_PATH" envDefault:"./template-trends-activity.db"`

	DBHost         string        `env:"APP_DB_HOST" envDefault:"127.0.0.1"`
	DBPort         int           `env:"APP_DB_PORT" envDefault:"3306"`
	DBUser         string        `env:"APP_DB_USER" envDefault:"dashboard"`
	DBPassword     string        `env:"APP_DB_PASSWORD" envDefault:""`
	DBName         string        `env:"APP_DB_NAME" envDefault:"template_trends"`
	DBConnTimeout  time.Duration `env:"APP_DB_CONN_TIMEOUT" envDefault:"5s"`
	DBQueryTimeout time.Duration `env:"APP_DB_QUERY_TIMEOUT" envDefault:"10s"`
}

// FromEnv loads configuration from environment variables, after applying
// defaults from the first env files found on disk.
func FromEnv() (Config, error) {
	loadConfigDefaultsFromFile()
	loadSecretsDefaultsFromFile()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.BackendURL = strings.TrimRight(strings.TrimSpace(cfg.BackendURL), "/")
	cfg.ActivityStore = strings.ToLower(strings.TrimSpace(cfg.ActivityStore))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("APP_BACKEND_URL is required")
	}
	switch c.ActivityStore {
	case "", "none", "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported APP_ACTIVITY_STORE %q (expected none, sqlite or mysql)", c.ActivityStore)
	}
	if c.ActivityStore == "sqlite" && strings.TrimSpace(c.ActivitySQLitePath) == "" {
		return fmt.Errorf("APP_ACTIVITY_SQLITE_PATH is required when APP_ACTIVITY_STORE=sqlite")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("APP_MAX_UPLOAD_MB must be positive")
	}
	return nil
}

func loadConfigDefaultsFromFile() {
	bootstrapCandidates := []string{
		"./template-trends.env",
		"/etc/default/template-trends",
	}
	for _, candidate := range bootstrapCandidates {
		_ = applyEnvDefaultsFromFile(absPath(candidate))
	}

	candidates := make([]string, 0, 2)
	if explicit := strings.TrimSpace(os.Getenv("APP_CONFIG_FILE")); explicit != "" {
		candidates = append(candidates, explicit)
	}
	candidates = append(candidates, "/etc/template-trends/config.env")

	for _, candidate := range candidates {
		if err := applyEnvDefaultsFromFile(absPath(candidate)); err == nil {
			return
		}
	}
}

func loadSecretsDefaultsFromFile() {
	candidates := make([]string, 0, 3)
	if explicit := strings.TrimSpace(os.Getenv("APP_SECRETS_FILE")); explicit != "" {
		candidates = append(candidates, explicit)
	}
	if credDir := strings.TrimSpace(os.Getenv("CREDENTIALS_DIRECTORY")); credDir != "" {
		credName := strings.TrimSpace(os.Getenv("APP_SECRETS_CREDENTIAL_NAME"))
		if credName == "" {
			credName = "app-secrets"
		}
		candidates = append(candidates, filepath.Join(credDir, credName))
	}
	candidates = append(candidates, "/etc/template-trends/secrets.env")
	for _, candidate := range candidates {
		if err := applyEnvDefaultsFromFile(candidate); err == nil {
			return
		}
	}
}

func absPath(candidate string) string {
	if filepath.IsAbs(candidate) {
		return candidate
	}
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, candidate)
	}
	return candidate
}

// applyEnvDefaultsFromFile sets every key of the env file that is not
// already present in the process environment.
func applyEnvDefaultsFromFile(path string) error {
	values, err := godotenv.Read(path)
	if err != nil {
		return err
	}
	for key, val := range values {
		if strings.TrimSpace(key) == "" {
			continue
		}
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, val)
		}
	}
	return nil
}

// MySQLDSN returns a mysql driver DSN for the activity log database.
func (c Config) MySQLDSN() string {
	mc := mysql.NewConfig()
	mc.User = c.DBUser
	mc.Passwd = c.DBPassword
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", c.DBHost, c.DBPort)
	mc.DBName = c.DBName
	mc.ParseTime = true
	mc.Timeout = c.DBConnTimeout
	mc.ReadTimeout = c.DBQueryTimeout
	mc.WriteTimeout = c.DBQueryTimeout
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}
