// Package config loads the sqlhelper command's configuration from a YAML
// file, .env files and SQLHELPER_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/ido50/sqlhelper"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppFs is the filesystem configuration and .env files are read from.
var AppFs = afero.NewOsFs()

const envPrefix = "SQLHELPER"

// Config holds the application configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig describes the database connection.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	ConnectionLimit int           `mapstructure:"connection_limit"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	UseProcedure    bool          `mapstructure:"use_procedure"`
	PageSize        int           `mapstructure:"page_size"`
}

// ServerConfig describes the HTTP dispatch server.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig describes the logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var defaults = map[string]interface{}{
	"database.driver":           "mysql",
	"database.host":             "localhost",
	"database.port":             0, // driver's default port
	"database.user":             "root",
	"database.password":         "",
	"database.name":             "",
	"database.ssl_mode":         "disable",
	"database.connection_limit": 10,
	"database.connect_timeout":  "10s",
	"database.use_procedure":    false,
	"database.page_size":        sqlhelper.DefaultPageSize,
	"server.addr":               ":8080",
	"server.shutdown_timeout":   "10s",
	"log.level":                 "info",
	"log.format":                "text",
}

// Load loads configuration from, in increasing priority: defaults, the
// configuration file, .env, .env.local and the process environment. If
// path is empty, sqlhelper.yaml is searched for in the working directory
// and the user's home directory; a missing file is not an error then.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetFs(AppFs)

	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sqlhelper")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
			v.AddConfigPath(filepath.Join(home, ".config", "sqlhelper"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed reading config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	dotenv, err := loadDotEnv(".env", ".env.local")
	if err != nil {
		return nil, err
	}
	for envKey, val := range dotenv {
		// the real environment wins over .env files
		if _, set := os.LookupEnv(envKey); set {
			continue
		}
		if key, ok := configKey(envKey); ok {
			v.Set(key, val)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed decoding config: %w", err)
	}

	if cfg.Database.Port == 0 {
		cfg.Database.Port = defaultPort(cfg.Database.Driver)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadDotEnv parses the named .env files, later files overriding earlier
// ones. Missing files are skipped.
func loadDotEnv(names ...string) (map[string]string, error) {
	vals := make(map[string]string)

	for _, name := range names {
		f, err := AppFs.Open(name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed opening %s: %w", name, err)
		}

		parsed, err := godotenv.Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed parsing %s: %w", name, err)
		}

		for key, val := range parsed {
			vals[key] = val
		}
	}

	return vals, nil
}

// configKey converts an environment variable name such as
// SQLHELPER_DATABASE_CONNECTION_LIMIT to its configuration key
// (database.connection_limit).
func configKey(envKey string) (string, bool) {
	rest, ok := strings.CutPrefix(envKey, envPrefix+"_")
	if !ok {
		return "", false
	}

	section, name, ok := strings.Cut(strings.ToLower(rest), "_")
	if !ok || section == "" || name == "" {
		return "", false
	}

	key := section + "." + name
	if _, known := defaults[key]; !known {
		return "", false
	}
	return key, true
}

// Validate checks the configuration for values that can never work.
func (c *Config) Validate() error {
	if _, err := driverName(c.Database.Driver); err != nil {
		return err
	}
	if c.Database.Port < 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port %d", c.Database.Port)
	}
	if c.Database.ConnectionLimit < 0 {
		return fmt.Errorf("invalid connection limit %d", c.Database.ConnectionLimit)
	}
	if c.Database.PageSize < 1 {
		return fmt.Errorf("invalid page size %d", c.Database.PageSize)
	}
	return nil
}

func driverName(driver string) (string, error) {
	switch strings.ToLower(driver) {
	case "mysql", "mariadb":
		return "mysql", nil
	case "postgres", "postgresql":
		return "postgres", nil
	case "sqlite", "sqlite3":
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// defaultPort returns the port the driver's server listens on by default,
// zero for file-based databases.
func defaultPort(driver string) int {
	switch name, _ := driverName(driver); name {
	case "mysql":
		return 3306
	case "postgres":
		return 5432
	default:
		return 0
	}
}

// DSN renders the data source name for the configured driver. A zero port
// is replaced with the driver's default.
func (c DatabaseConfig) DSN() (string, error) {
	driver, err := driverName(c.Driver)
	if err != nil {
		return "", err
	}

	port := c.Port
	if port == 0 {
		port = defaultPort(driver)
	}
	addr := net.JoinHostPort(c.Host, strconv.Itoa(port))

	switch driver {
	case "mysql":
		myCfg := mysql.NewConfig()
		myCfg.User = c.User
		myCfg.Passwd = c.Password
		myCfg.Net = "tcp"
		myCfg.Addr = addr
		myCfg.DBName = c.Name
		myCfg.Timeout = c.ConnectTimeout
		return myCfg.FormatDSN(), nil
	case "postgres":
		params := url.Values{}
		if c.SSLMode != "" {
			params.Set("sslmode", c.SSLMode)
		}
		if c.ConnectTimeout > 0 {
			params.Set("connect_timeout", strconv.Itoa(int(c.ConnectTimeout.Seconds())))
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     addr,
			Path:     "/" + c.Name,
			RawQuery: params.Encode(),
		}
		return u.String(), nil
	default:
		if c.Name == "" {
			return ":memory:", nil
		}
		return c.Name, nil
	}
}

// Helper converts the database configuration into the options
// sqlhelper.Open expects.
func (c DatabaseConfig) Helper() (sqlhelper.Config, error) {
	driver, err := driverName(c.Driver)
	if err != nil {
		return sqlhelper.Config{}, err
	}

	dsn, err := c.DSN()
	if err != nil {
		return sqlhelper.Config{}, err
	}

	return sqlhelper.Config{
		Driver:          driver,
		DSN:             dsn,
		Database:        c.Name,
		ConnectionLimit: c.ConnectionLimit,
		UseProcedures:   c.UseProcedure,
		PageSize:        c.PageSize,
		ConnectTimeout:  c.ConnectTimeout,
	}, nil
}

// SlogLevel returns the configured log level, info if it can't be parsed.
func (c LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewLogger creates the logger described by the configuration, writing
// to w.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
