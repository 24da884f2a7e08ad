/*
Package config loads interestd settings.

SOURCES (later wins):
  1. Defaults (setDefaults)
  2. config.yaml in ./config, ~/.interestd or /etc/interestd
     (or the file given with --config)
  3. Environment: INTEREST_<SECTION>_<KEY>, e.g. INTEREST_STORE_DSN

EXAMPLE:
  server:
    port: 8080
  store:
    driver: sqlite        # sqlite | postgres | memory
    dsn: ./data/interest.db
  log:
    level: info
    format: json          # json | text
  calc:
    day_base: 30
    divide_by: 12
  import:
    schedule: "0 6 * * *" # cron, empty disables
    sources:
      - index: ipca
        url: https://example.org/ipca.xml
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/warp/interest-engine/importer"
)

type Config struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Store  StoreConfig  `mapstructure:"store"  yaml:"store"`
	Log    LogConfig    `mapstructure:"log"    yaml:"log"`
	Calc   CalcConfig   `mapstructure:"calc"   yaml:"calc"`
	Import ImportConfig `mapstructure:"import" yaml:"import"`
}

type ServerConfig struct {
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn"    yaml:"dsn"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type CalcConfig struct {
	DayBase  int `mapstructure:"day_base"  yaml:"day_base"`
	DivideBy int `mapstructure:"divide_by" yaml:"divide_by"`
}

type ImportConfig struct {
	Schedule string            `mapstructure:"schedule" yaml:"schedule"`
	Sources  []importer.Source `mapstructure:"sources"  yaml:"sources"`
}

const envPrefix = "INTEREST"

// Load searches the default locations. A missing file is not an error.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".interestd"))
	v.AddConfigPath("/etc/interestd")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads path, which must exist.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:*", "http://127.0.0.1:*"})

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "./data/interest.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("calc.day_base", 30)
	v.SetDefault("calc.divide_by", 12)

	v.SetDefault("import.schedule", "")
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	if c.Store.Driver != "memory" && c.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required for driver %s", c.Store.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: out of range: %d", c.Server.Port)
	}
	if c.Calc.DayBase <= 0 || c.Calc.DivideBy <= 0 {
		return fmt.Errorf("calc.day_base and calc.divide_by must be positive")
	}
	for i := range c.Import.Sources {
		if err := c.Import.Sources[i].Validate(); err != nil {
			return fmt.Errorf("import.sources[%d]: %w", i, err)
		}
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
