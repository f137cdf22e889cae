// Package settings persists panel geometry and display flags between sessions.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// FileName is the settings file stored under the data directory.
const FileName = "settings.toml"

// Rect is a panel rectangle in screen cells.
type Rect struct {
	X      int `toml:"x"`
	Y      int `toml:"y"`
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Settings holds every persisted panel rectangle and flag.
type Settings struct {
	Manifest     Rect `toml:"manifest"`
	Transfer     Rect `toml:"transfer"`
	Roster       Rect `toml:"roster"`
	Debugger     Rect `toml:"debugger"`
	ShowDebugger bool `toml:"show_debugger"`
	AppLauncher  bool `toml:"app_launcher"`
}

// Defaults returns the layout used when no settings file exists.
func Defaults() Settings {
	return Settings{
		Manifest:    Rect{X: 0, Y: 0, Width: 48, Height: 20},
		Transfer:    Rect{X: 50, Y: 0, Width: 48, Height: 20},
		Roster:      Rect{X: 0, Y: 21, Width: 64, Height: 16},
		Debugger:    Rect{X: 66, Y: 21, Width: 48, Height: 16},
		AppLauncher: true,
	}
}

// Path returns the settings file path within dataDir.
func Path(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}

// Load reads settings from path. Missing files yield defaults with no error.
// Any other failure is logged and returned alongside the defaults, so callers
// can always continue with the returned value.
func Load(path string, logger *log.Logger) (Settings, error) {
	logger = orDiscard(logger)
	loaded := Defaults()

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("settings file not found, using defaults", "path", path)
			return loaded, nil
		}
		logger.Error("failed to load settings", "path", path, "err", err)
		return Defaults(), fmt.Errorf("stat settings file %q: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, &loaded); err != nil {
		logger.Error("failed to load settings", "path", path, "err", err)
		return Defaults(), fmt.Errorf("decode settings file %q: %w", path, err)
	}

	logger.Info(
		"settings loaded",
		"path", path,
		"manifest", loaded.Manifest,
		"transfer", loaded.Transfer,
		"roster", loaded.Roster,
		"debugger", loaded.Debugger,
		"show_debugger", loaded.ShowDebugger,
	)
	return loaded, nil
}

// Save writes s to path through a temp file and rename. Failures are logged
// and returned; the previous file is left untouched.
func (s Settings) Save(path string, logger *log.Logger) error {
	logger = orDiscard(logger)
	if err := s.save(path); err != nil {
		logger.Error("failed to save settings", "path", path, "err", err)
		return err
	}
	logger.Debug("settings saved", "path", path)
	return nil
}

func (s Settings) save(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.toml")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp settings file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}

// ClampToScreen moves every rectangle origin inside a width x height screen.
func (s *Settings) ClampToScreen(width, height int) {
	for _, r := range []*Rect{&s.Manifest, &s.Transfer, &s.Roster, &s.Debugger} {
		r.clamp(width, height)
	}
}

func (r *Rect) clamp(width, height int) {
	r.X = clamp(r.X, 0, width-r.Width)
	r.Y = clamp(r.Y, 0, height-r.Height)
}

func clamp(value, lower, upper int) int {
	if upper < lower {
		upper = lower
	}
	if value < lower {
		return lower
	}
	if value > upper {
		return upper
	}
	return value
}

func orDiscard(logger *log.Logger) *log.Logger {
	if logger != nil {
		return logger
	}
	return log.NewWithOptions(io.Discard, log.Options{})
}
