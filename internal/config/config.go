// Package config provides Viper-based configuration loading for the simulator.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SimulationConfig holds the engine defaults a request does not override.
type SimulationConfig struct {
	// Hours is the simulated duration used when the encounter file omits one.
	Hours float64 `mapstructure:"hours"`
	// Mode is "expected" or "stochastic".
	Mode string `mapstructure:"mode"`
	// Seed fixes the stochastic seed; 0 draws a fresh one per run.
	Seed                  uint64        `mapstructure:"seed"`
	RegenInterval         time.Duration `mapstructure:"regen_interval"`
	PlayerRespawnDelay    time.Duration `mapstructure:"player_respawn_delay"`
	EncounterRespawnDelay time.Duration `mapstructure:"encounter_respawn_delay"`
	// Timeout bounds the wall-clock time of one run.
	Timeout time.Duration `mapstructure:"timeout"`
	// ProgressInterval is how often progress is logged.
	ProgressInterval time.Duration `mapstructure:"progress_interval"`
	// ScriptInstructionLimit is the Lua opcode budget per trigger evaluation.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
	// ScriptDir holds *.lua helper libraries for scripted triggers. Empty disables them.
	ScriptDir string `mapstructure:"script_dir"`
}

// DataConfig locates the game data directory.
type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

// BatchConfig holds batch-run settings.
type BatchConfig struct {
	// Workers is the number of simulations run concurrently.
	Workers int `mapstructure:"workers"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// Enabled turns on run-history persistence.
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation"`
	Data       DataConfig       `mapstructure:"data"`
	Batch      BatchConfig      `mapstructure:"batch"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Data.Dir == "" {
		errs = append(errs, "data.dir must not be empty")
	}
	if c.Batch.Workers < 1 {
		errs = append(errs, fmt.Sprintf("batch.workers must be >= 1, got %d", c.Batch.Workers))
	}
	if c.Database.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.Hours <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.hours must be > 0, got %g", s.Hours))
	}
	validModes := map[string]bool{"expected": true, "stochastic": true}
	if !validModes[s.Mode] {
		errs = append(errs, fmt.Sprintf("simulation.mode must be one of [expected, stochastic], got %q", s.Mode))
	}
	for name, d := range map[string]time.Duration{
		"regen_interval":          s.RegenInterval,
		"player_respawn_delay":    s.PlayerRespawnDelay,
		"encounter_respawn_delay": s.EncounterRespawnDelay,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Sprintf("simulation.%s must be > 0, got %s", name, d))
		}
	}
	if s.Timeout < 0 {
		errs = append(errs, "simulation.timeout must not be negative")
	}
	if s.ProgressInterval <= 0 {
		errs = append(errs, "simulation.progress_interval must be > 0")
	}
	if s.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("simulation.script_instruction_limit must be >= 0, got %d", s.ScriptInstructionLimit))
	}
	if len(errs) > 0 {
		// map iteration above is unordered
		sort.Strings(errs)
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and
// environment variables only.
//
// Precondition: path is empty or names a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with MWISIM_ prefix
	v.SetEnvPrefix("MWISIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("simulation.hours", 24.0)
	v.SetDefault("simulation.mode", "expected")
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.regen_interval", "10s")
	v.SetDefault("simulation.player_respawn_delay", "150s")
	v.SetDefault("simulation.encounter_respawn_delay", "3s")
	v.SetDefault("simulation.timeout", "5m")
	v.SetDefault("simulation.progress_interval", "1s")
	v.SetDefault("simulation.script_instruction_limit", 10000)
	v.SetDefault("simulation.script_dir", "")

	v.SetDefault("data.dir", "content")
	v.SetDefault("batch.workers", 4)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "mwisim")
	v.SetDefault("database.password", "mwisim")
	v.SetDefault("database.name", "mwisim")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
