package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

const (
	// DirName is the per-user and per-project data directory name.
	DirName = ".crewmanifest"

	defaultTransferDelay = 250 * time.Millisecond
	defaultSaveInterval  = 30 * time.Second
	defaultTickInterval  = 50 * time.Millisecond
	defaultScreenWidth   = 120
	defaultScreenHeight  = 40
	defaultLogMaxSizeMB  = 10
	defaultLogMaxBackups = 5
	defaultLogMaxAgeDays = 28
)

var defaultLaunchSites = []string{"LaunchPad", "Runway"}

// Config stores runtime settings loaded from TOML files.
type Config struct {
	TransferDelay time.Duration `validate:"gt=0"`
	SaveInterval  time.Duration `validate:"gt=0"`
	TickInterval  time.Duration `validate:"gt=0"`
	LaunchSites   []string      `validate:"min=1,dive,required"`
	ScreenWidth   int           `validate:"gte=20"`
	ScreenHeight  int           `validate:"gte=10"`
	DataDir       string        `validate:"required"`
	LogMaxSizeMB  int           `validate:"gt=0"`
	LogMaxBackups int           `validate:"gte=0"`
	LogMaxAgeDays int           `validate:"gte=0"`
	OTel          OTelConfig
}

// OTelConfig stores tracing export settings.
type OTelConfig struct {
	Endpoint string `validate:"omitempty,url"`
}

type fileConfig struct {
	TransferDelay *string     `toml:"transfer_delay"`
	SaveInterval  *string     `toml:"save_interval"`
	TickInterval  *string     `toml:"tick_interval"`
	LaunchSites   []string    `toml:"launch_sites"`
	ScreenWidth   *int        `toml:"screen_width"`
	ScreenHeight  *int        `toml:"screen_height"`
	DataDir       *string     `toml:"data_dir"`
	LogMaxSizeMB  *int        `toml:"log_max_size_mb"`
	LogMaxBackups *int        `toml:"log_max_backups"`
	LogMaxAgeDays *int        `toml:"log_max_age_days"`
	OTel          *otelConfig `toml:"otel"`
}

type otelConfig struct {
	Endpoint *string `toml:"endpoint"`
}

var validate = validator.New()

// Load reads config from ~/.crewmanifest/config.toml and overlays a
// project-local .crewmanifest/config.toml.
func Load(ctx context.Context) (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	workingDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	cfg := defaults(homeDir)
	paths := []string{
		filepath.Join(homeDir, DirName, "config.toml"),
		filepath.Join(workingDir, DirName, "config.toml"),
	}

	for _, path := range paths {
		if err := overlayFromFile(&cfg, path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	_ = ctx
	return &cfg, nil
}

// Default returns the built-in configuration rooted at homeDir.
func Default(homeDir string) Config {
	return defaults(homeDir)
}

func defaults(homeDir string) Config {
	return Config{
		TransferDelay: defaultTransferDelay,
		SaveInterval:  defaultSaveInterval,
		TickInterval:  defaultTickInterval,
		LaunchSites:   append([]string(nil), defaultLaunchSites...),
		ScreenWidth:   defaultScreenWidth,
		ScreenHeight:  defaultScreenHeight,
		DataDir:       filepath.Join(homeDir, DirName),
		LogMaxSizeMB:  defaultLogMaxSizeMB,
		LogMaxBackups: defaultLogMaxBackups,
		LogMaxAgeDays: defaultLogMaxAgeDays,
	}
}

// Validate checks loaded values against their field constraints.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config must not be nil")
	}
	if err := validate.Struct(c); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return err
		}
		messages := make([]string, 0, len(validationErrs))
		for _, e := range validationErrs {
			messages = append(messages, fmt.Sprintf(
				"field '%s' failed validation: %s (value: '%v')",
				e.Namespace(),
				e.Tag(),
				e.Value(),
			))
		}
		return fmt.Errorf("validate config:\n  %s", strings.Join(messages, "\n  "))
	}
	return nil
}

// LogDir is where runtime logs are written.
func (c *Config) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// SettingsPath is the panel settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.DataDir, "settings.toml")
}

// StorePath is the simulation database file.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "sim.db")
}

func overlayFromFile(cfg *Config, path string) error {
	if cfg == nil {
		return errors.New("config must not be nil")
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat config file %q: %w", path, err)
	}

	var decoded fileConfig
	if _, err := toml.DecodeFile(path, &decoded); err != nil {
		return fmt.Errorf("decode config file %q: %w", path, err)
	}

	applyScalarOverrides(cfg, decoded)
	if err := applyDurationOverrides(cfg, decoded, path); err != nil {
		return err
	}
	if err := applyLogOverrides(cfg, decoded, path); err != nil {
		return err
	}
	return nil
}

func parseDuration(value, key, path string) (time.Duration, error) {
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("parse %s in %q: %w", key, path, err)
	}
	return parsed, nil
}

func applyScalarOverrides(cfg *Config, decoded fileConfig) {
	if decoded.LaunchSites != nil {
		sites := make([]string, 0, len(decoded.LaunchSites))
		for _, site := range decoded.LaunchSites {
			if trimmed := strings.TrimSpace(site); trimmed != "" {
				sites = append(sites, trimmed)
			}
		}
		cfg.LaunchSites = sites
	}
	if decoded.ScreenWidth != nil {
		cfg.ScreenWidth = *decoded.ScreenWidth
	}
	if decoded.ScreenHeight != nil {
		cfg.ScreenHeight = *decoded.ScreenHeight
	}
	if decoded.DataDir != nil {
		cfg.DataDir = expandHome(strings.TrimSpace(*decoded.DataDir))
	}
	if decoded.OTel != nil && decoded.OTel.Endpoint != nil {
		cfg.OTel.Endpoint = strings.TrimSpace(*decoded.OTel.Endpoint)
	}
}

func applyDurationOverrides(cfg *Config, decoded fileConfig, path string) error {
	if decoded.TransferDelay != nil {
		value, err := parseDuration(*decoded.TransferDelay, "transfer_delay", path)
		if err != nil {
			return err
		}
		cfg.TransferDelay = value
	}
	if decoded.SaveInterval != nil {
		value, err := parseDuration(*decoded.SaveInterval, "save_interval", path)
		if err != nil {
			return err
		}
		cfg.SaveInterval = value
	}
	if decoded.TickInterval != nil {
		value, err := parseDuration(*decoded.TickInterval, "tick_interval", path)
		if err != nil {
			return err
		}
		cfg.TickInterval = value
	}
	return nil
}

func applyLogOverrides(cfg *Config, decoded fileConfig, path string) error {
	if decoded.LogMaxSizeMB != nil {
		if *decoded.LogMaxSizeMB <= 0 {
			return fmt.Errorf("parse log_max_size_mb in %q: must be > 0", path)
		}
		cfg.LogMaxSizeMB = *decoded.LogMaxSizeMB
	}
	if decoded.LogMaxBackups != nil {
		cfg.LogMaxBackups = *decoded.LogMaxBackups
	}
	if decoded.LogMaxAgeDays != nil {
		cfg.LogMaxAgeDays = *decoded.LogMaxAgeDays
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}
