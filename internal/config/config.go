// Package config provides Viper-based configuration loading for the derive service.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/knave/internal/game/rules"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// Enabled turns on the snapshot store. With it off, only stateless derivation is served.
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
	// Output is "stderr", "stdout", or a file path. Empty means stderr.
	Output string `mapstructure:"output"`
}

// GRPCConfig holds the derive service listener settings.
type GRPCConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// ShutdownTimeout bounds graceful stop before the server is stopped hard.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (g GRPCConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

// ContentConfig locates YAML content on disk.
type ContentConfig struct {
	// TablesFile overrides the built-in recruit, ammunition and armor tables. Empty keeps the built-ins.
	TablesFile string `mapstructure:"tables_file"`
	// SnapshotDir holds actor snapshot fixtures, one YAML file per actor.
	SnapshotDir string `mapstructure:"snapshot_dir"`
}

// ScriptingConfig holds the drop-order hook settings.
type ScriptingConfig struct {
	// DropOrderScript is a Lua file defining priority(item). Empty disables reordering.
	DropOrderScript string `mapstructure:"drop_order_script"`
	// InstructionLimit caps the Lua instructions one call may run. 0 uses the
	// sandbox default of 100000; there is no unlimited setting.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	Rules     rules.Settings  `mapstructure:"rules"`
	Content   ContentConfig   `mapstructure:"content"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Database.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateGRPC(c.GRPC); err != nil {
		errs = append(errs, err.Error())
	}
	if err := c.Rules.Validate(); err != nil {
		errs = append(errs, "rules: "+strings.ReplaceAll(err.Error(), "\n", "; "))
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
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
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGRPC(g GRPCConfig) error {
	var errs []string
	if g.Host == "" {
		errs = append(errs, "grpc.host must not be empty")
	}
	if g.Port < 0 || g.Port > 65535 {
		errs = append(errs, fmt.Sprintf("grpc.port must be 0-65535, got %d", g.Port))
	}
	if g.ShutdownTimeout < 0 {
		errs = append(errs, "grpc.shutdown_timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
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
// overrides, and validates the result. An empty path loads defaults and
// environment overrides only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// New returns a Viper instance with defaults and KNAVE_ environment overrides.
//
// Postcondition: Returns a non-nil *viper.Viper.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("KNAVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "knave")
	v.SetDefault("database.password", "knave")
	v.SetDefault("database.name", "knave")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("grpc.host", "127.0.0.1")
	v.SetDefault("grpc.port", 50061)
	v.SetDefault("grpc.shutdown_timeout", "10s")

	d := rules.Defaults()
	v.SetDefault("rules.automatic_slots", d.AutomaticSlots)
	v.SetDefault("rules.automatic_armor", d.AutomaticArmor)
	v.SetDefault("rules.automatic_stamina", d.AutomaticStamina)
	v.SetDefault("rules.automatic_recruits", d.AutomaticRecruits)
	v.SetDefault("rules.automatic_level", d.AutomaticLevel)
	v.SetDefault("rules.enforce_drop", d.EnforceDrop)
	v.SetDefault("rules.enforce_armor", d.EnforceArmor)
	v.SetDefault("rules.enforce_integer_slots", d.EnforceIntegerSlots)
	v.SetDefault("rules.enforce_companions", d.EnforceCompanions)
	v.SetDefault("rules.enforce_blessings", d.EnforceBlessings)
	v.SetDefault("rules.armor_requires_equipped", d.ArmorRequiresEquipped)
	v.SetDefault("rules.coins_per_slot", d.CoinsPerSlot)
	v.SetDefault("rules.arrows_per_slot", d.ArrowsPerSlot)
	v.SetDefault("rules.sling_bullets_per_slot", d.SlingBulletsPerSlot)
	v.SetDefault("rules.base_level_xp", d.BaseLevelXP)

	v.SetDefault("content.tables_file", "")
	v.SetDefault("content.snapshot_dir", "content/snapshots")

	v.SetDefault("scripting.drop_order_script", "")
	v.SetDefault("scripting.instruction_limit", 100000)
}
