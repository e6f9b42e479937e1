// Package daemon manages the Exhale daemon lifecycle and configuration.
package daemon

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // timezone names resolve on hosts without zoneinfo

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/exhale-app/exhale/internal/domain"
	"github.com/exhale-app/exhale/internal/infra/logging"
)

// Storage drivers.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config holds all daemon configuration.
type Config struct {
	API       APIConfig       `toml:"api" mapstructure:"api"`
	Engine    EngineConfig    `toml:"engine" mapstructure:"engine"`
	Profile   ProfileConfig   `toml:"profile" mapstructure:"profile"`
	Logging   logging.Config  `toml:"logging" mapstructure:"logging"`
	Telemetry TelemetryConfig `toml:"telemetry" mapstructure:"telemetry"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host" mapstructure:"host"`
	Port        int      `toml:"port" mapstructure:"port"`
	CORSOrigins []string `toml:"cors_origins" mapstructure:"cors_origins"`
}

// EngineConfig controls the progression engine host.
type EngineConfig struct {
	// Timezone names the IANA zone that defines calendar days. Empty: local.
	Timezone string `toml:"timezone" mapstructure:"timezone"`
	Storage  string `toml:"storage" mapstructure:"storage"`
	DataDir  string `toml:"data_dir" mapstructure:"data_dir"`
	// RolloverInterval is how often the daemon rolls daily state over while
	// serving, e.g. "1m".
	RolloverInterval string `toml:"rollover_interval" mapstructure:"rollover_interval"`
}

// ProfileConfig seeds the smoking profile on first run.
type ProfileConfig struct {
	QuitDate          string  `toml:"quit_date" mapstructure:"quit_date"` // YYYY-MM-DD or RFC 3339; empty: first start
	CigarettesPerDay  int     `toml:"cigarettes_per_day" mapstructure:"cigarettes_per_day"`
	PricePerPack      float64 `toml:"price_per_pack" mapstructure:"price_per_pack"`
	CigarettesPerPack int     `toml:"cigarettes_per_pack" mapstructure:"cigarettes_per_pack"`
}

// TelemetryConfig controls the Prometheus endpoint.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus" mapstructure:"prometheus"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	homeDir := exhaleHome()
	log := logging.DefaultConfig()
	log.File = filepath.Join(homeDir, "exhale.log")
	return Config{
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        7878,
			CORSOrigins: []string{"*"},
		},
		Engine: EngineConfig{
			Storage:          StorageSQLite,
			DataDir:          homeDir,
			RolloverInterval: "1m",
		},
		Profile: ProfileConfig{
			CigarettesPerDay:  20,
			PricePerPack:      10,
			CigarettesPerPack: domain.DefaultCigarettesPerPack,
		},
		Logging: log,
	}
}

// LoadConfig reads $EXHALE_HOME/config.toml over the defaults. Any key can
// be overridden by an EXHALE_<SECTION>_<KEY> environment variable.
func LoadConfig() (Config, error) {
	return loadConfigFile(filepath.Join(exhaleHome(), "config.toml"))
}

func loadConfigFile(path string) (Config, error) {
	defaults, err := encodeConfig(DefaultConfig())
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix("EXHALE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Seeding every key from the defaults makes env overrides visible to
	// Unmarshal even when the file omits them.
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, fmt.Errorf("read defaults: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the daemon cannot start with.
func (c Config) Validate() error {
	if _, err := c.Engine.Location(); err != nil {
		return err
	}
	switch c.Engine.Storage {
	case StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("engine.storage: unknown driver %q", c.Engine.Storage)
	}
	if _, err := c.Profile.UserProfile(time.UTC); err != nil {
		return err
	}
	return nil
}

// SaveConfig writes the config to $EXHALE_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(exhaleHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := encodeConfig(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func encodeConfig(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// Location resolves the configured timezone.
func (e EngineConfig) Location() (*time.Location, error) {
	if e.Timezone == "" || strings.EqualFold(e.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidTimezone, e.Timezone)
	}
	return loc, nil
}

// UserProfile converts the first-run profile. A date-only quit date means
// midnight in loc; an empty one yields a zero QuitAt.
func (p ProfileConfig) UserProfile(loc *time.Location) (domain.UserProfile, error) {
	profile := domain.UserProfile{
		CigarettesPerDay:  p.CigarettesPerDay,
		PricePerPack:      p.PricePerPack,
		CigarettesPerPack: p.CigarettesPerPack,
	}
	if p.QuitDate != "" {
		quitAt, err := ParseQuitDate(p.QuitDate, loc)
		if err != nil {
			return domain.UserProfile{}, err
		}
		profile.QuitAt = quitAt
	}
	if err := profile.Validate(); err != nil {
		return domain.UserProfile{}, err
	}
	return profile, nil
}

// ParseQuitDate accepts an RFC 3339 timestamp or YYYY-MM-DD (midnight in loc).
func ParseQuitDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: quit date %q", domain.ErrInvalidProfile, s)
	}
	return t, nil
}

// exhaleHome returns the Exhale data directory.
func exhaleHome() string {
	if env := os.Getenv("EXHALE_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".exhale")
}

// ExhaleHome is exported for use by other packages.
func ExhaleHome() string {
	return exhaleHome()
}
