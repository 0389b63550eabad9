package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const configFileEnv = "CONFIG_FILE"

type Config struct {
	AppEnv   string `validate:"oneof=dev prod"`
	LogLevel slog.Level
	HTTPAddr string `validate:"required"`

	// DBDriver is the database/sql driver name: "sqlite3" or "pgx".
	DBDriver string `validate:"oneof=sqlite3 pgx"`
	// DBDSN overrides the DSN built from SQLitePath. Required for pgx.
	DBDSN           string `validate:"required_if=DBDriver pgx"`
	SQLitePath      string
	MaxOpenConns    int           `validate:"gte=0"`
	MaxIdleConns    int           `validate:"gte=0"`
	ConnMaxLifetime time.Duration `validate:"gte=0"`

	// LogSQL wraps the driver so every statement is logged at debug level.
	LogSQL bool
	// AutoMigrate applies embedded schema migrations before serving.
	AutoMigrate bool
}

var validate = validator.New()

// LoadFromEnv builds the Config from, in increasing precedence: built-in
// defaults, the YAML file named by CONFIG_FILE, and the process environment
// (including variables loaded from a .env file in the working directory).
func LoadFromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	file, err := loadFile(strings.TrimSpace(os.Getenv(configFileEnv)))
	if err != nil {
		return Config{}, err
	}
	get := func(key, def string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		if v, ok := file[key]; ok && v != "" {
			return v
		}
		return def
	}

	level, err := parseLogLevel(get("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	maxOpenConns, err := parseInt("DB_MAX_OPEN_CONNS", get("DB_MAX_OPEN_CONNS", "4"))
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := parseInt("DB_MAX_IDLE_CONNS", get("DB_MAX_IDLE_CONNS", "4"))
	if err != nil {
		return Config{}, err
	}

	connMaxLifetimeStr := get("DB_CONN_MAX_LIFETIME", "0s")
	connMaxLifetime, err := time.ParseDuration(connMaxLifetimeStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %q: %w", connMaxLifetimeStr, err)
	}

	logSQL, err := parseBool("DB_LOG_SQL", get("DB_LOG_SQL", "false"))
	if err != nil {
		return Config{}, err
	}
	autoMigrate, err := parseBool("DB_AUTO_MIGRATE", get("DB_AUTO_MIGRATE", "false"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:          get("APP_ENV", "dev"),
		LogLevel:        level,
		HTTPAddr:        get("HTTP_ADDR", ":8080"),
		DBDriver:        get("DB_DRIVER", "sqlite3"),
		DBDSN:           get("DB_DSN", ""),
		SQLitePath:      get("SQLITE_PATH", "Resources/hawaii.sqlite"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxLifetime: connMaxLifetime,
		LogSQL:          logSQL,
		AutoMigrate:     autoMigrate,
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, describeValidation(err)
	}
	return cfg, nil
}

// loadFile reads a flat YAML mapping whose keys are the environment variable
// names, e.g. "DB_DRIVER: pgx". An empty path yields an empty mapping.
func loadFile(path string) (map[string]string, error) {
	out := map[string]string{}
	if path == "" {
		return out, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", configFileEnv, path, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s %q: decode yaml: %w", configFileEnv, path, err)
	}
	for k, v := range raw {
		if v == nil {
			continue
		}
		out[strings.ToUpper(strings.TrimSpace(k))] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out, nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Field() {
		case "AppEnv":
			msgs = append(msgs, fmt.Sprintf("invalid APP_ENV %q (allowed: dev, prod)", fe.Value()))
		case "DBDriver":
			msgs = append(msgs, fmt.Sprintf("invalid DB_DRIVER %q (allowed: sqlite3, pgx)", fe.Value()))
		case "DBDSN":
			msgs = append(msgs, "DB_DSN is required when DB_DRIVER=pgx")
		default:
			msgs = append(msgs, fmt.Sprintf("invalid %s: failed %q", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

func parseInt(key, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func parseBool(key, s string) (bool, error) {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return b, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
