package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Cache backends for the persistent travel-time cache.
const (
	CacheNone     = "none"
	CacheSQLite   = "sqlite"
	CachePostgres = "postgres"
	CacheRedis    = "redis"
)

// AppConfig holds the configuration for the application.
// Tags used:
//   - mapstructure: environment key, used by viper to unmarshal
//   - default: value applied when the key is missing
type AppConfig struct {
	// Environment specifies the runtime environment (development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity.
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// Port is the HTTP listen port.
	Port int `mapstructure:"PORT" default:"8080"`
	// AppPassword gates planning requests. Empty disables the check.
	AppPassword string `mapstructure:"APP_PASSWORD"`
	// PlanTimeout bounds a whole planning run.
	PlanTimeout time.Duration `mapstructure:"PLAN_TIMEOUT" default:"2m"`

	Source  SourceConfig  `mapstructure:",squash"`
	Depot   DepotConfig   `mapstructure:",squash"`
	OSRM    OSRMConfig    `mapstructure:",squash"`
	Planner PlannerConfig `mapstructure:",squash"`
	Cache   CacheConfig   `mapstructure:",squash"`
}

// SourceConfig locates the address/coordinate feed.
type SourceConfig struct {
	CSVURL     string `mapstructure:"SHEET_CSV_URL"`
	XLSXPath   string `mapstructure:"SHEET_XLSX_PATH"`
	XLSXSheet  string `mapstructure:"SHEET_XLSX_NAME" default:"Sheet1"`
	AddressCol int    `mapstructure:"SOURCE_ADDRESS_COL" default:"3"`
	LatCol     int    `mapstructure:"SOURCE_LAT_COL" default:"5"`
	LonCol     int    `mapstructure:"SOURCE_LON_COL" default:"6"`
}

// DepotConfig is the default depot and its fallback coordinates.
type DepotConfig struct {
	Address string  `mapstructure:"DEPOT_ADDRESS" default:"22209 58th Ave W, Mountlake Terrace, WA 98043"`
	Lat     float64 `mapstructure:"DEPOT_LAT" default:"47.797121"`
	Lon     float64 `mapstructure:"DEPOT_LON" default:"-122.310876"`
}

// HasFallback reports whether fallback coordinates are configured.
func (d DepotConfig) HasFallback() bool {
	return d.Lat != 0 || d.Lon != 0
}

type OSRMConfig struct {
	BaseURL     string        `mapstructure:"OSRM_BASE_URL" default:"http://router.project-osrm.org"`
	Profile     string        `mapstructure:"OSRM_PROFILE" default:"driving"`
	Timeout     time.Duration `mapstructure:"OSRM_TIMEOUT" default:"10s"`
	MaxAttempts int           `mapstructure:"OSRM_MAX_ATTEMPTS" default:"1"`
}

type PlannerConfig struct {
	MaxParallel int `mapstructure:"PLANNER_MAX_PARALLEL" default:"8"`
}

type CacheConfig struct {
	Backend     string        `mapstructure:"CACHE_BACKEND" default:"none"`
	SQLitePath  string        `mapstructure:"SQLITE_PATH" default:"data/traveltime.db"`
	DatabaseURL string        `mapstructure:"DATABASE_URL"`
	RedisURL    string        `mapstructure:"REDIS_URL"`
	TTL         time.Duration `mapstructure:"CACHE_TTL" default:"168h"`
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: field %q: %s", e.Field, e.Message)
}

// Load reads the configuration and validates it.
func Load(path string) (*AppConfig, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Read loads a .env file from path (if present) into the environment and then
// decodes environment variables into an AppConfig without validating it.
func Read(path string) (*AppConfig, error) {
	if err := godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	var cfg AppConfig

	if err := processTags(v, &cfg); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &cfg, nil
}

// Validate checks cross-field constraints on an already-decoded config.
func (c *AppConfig) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, &ConfigError{Field: "PORT", Message: "must be between 1 and 65535"})
	}

	switch {
	case c.Source.CSVURL == "" && c.Source.XLSXPath == "":
		errs = append(errs, &ConfigError{Field: "SHEET_CSV_URL", Message: "one of SHEET_CSV_URL or SHEET_XLSX_PATH is required"})
	case c.Source.CSVURL != "" && c.Source.XLSXPath != "":
		errs = append(errs, &ConfigError{Field: "SHEET_XLSX_PATH", Message: "cannot be combined with SHEET_CSV_URL"})
	}

	for key, col := range map[string]int{
		"SOURCE_ADDRESS_COL": c.Source.AddressCol,
		"SOURCE_LAT_COL":     c.Source.LatCol,
		"SOURCE_LON_COL":     c.Source.LonCol,
	} {
		if col < 0 {
			errs = append(errs, &ConfigError{Field: key, Message: "must not be negative"})
		}
	}

	if strings.TrimSpace(c.Depot.Address) == "" {
		errs = append(errs, &ConfigError{Field: "DEPOT_ADDRESS", Message: "cannot be empty"})
	}

	if c.OSRM.MaxAttempts < 1 {
		errs = append(errs, &ConfigError{Field: "OSRM_MAX_ATTEMPTS", Message: "must be at least 1"})
	}

	if c.Planner.MaxParallel < 1 {
		errs = append(errs, &ConfigError{Field: "PLANNER_MAX_PARALLEL", Message: "must be at least 1"})
	}

	switch c.Cache.Backend {
	case CacheNone, CacheSQLite:
	case CachePostgres:
		if c.Cache.DatabaseURL == "" {
			errs = append(errs, &ConfigError{Field: "DATABASE_URL", Message: "required for postgres cache"})
		}
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			errs = append(errs, &ConfigError{Field: "REDIS_URL", Message: "required for redis cache"})
		}
	default:
		errs = append(errs, &ConfigError{Field: "CACHE_BACKEND", Message: "must be one of none, sqlite, postgres, redis"})
	}

	return errors.Join(errs...)
}

// processTags binds every tagged field to its environment key and registers
// defaults in viper.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		if key == "" {
			continue
		}

		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}

		if def := field.Tag.Get("default"); def != "" {
			v.SetDefault(key, def)
		}
	}
	return nil
}
