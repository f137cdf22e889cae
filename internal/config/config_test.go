package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	work := t.TempDir()
	t.Setenv("HOME", home)
	chdir(t, work)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.TransferDelay != defaultTransferDelay {
		t.Fatalf("transfer_delay = %s, want %s", cfg.TransferDelay, defaultTransferDelay)
	}
	if cfg.SaveInterval != defaultSaveInterval {
		t.Fatalf("save_interval = %s, want %s", cfg.SaveInterval, defaultSaveInterval)
	}
	if cfg.TickInterval != defaultTickInterval {
		t.Fatalf("tick_interval = %s, want %s", cfg.TickInterval, defaultTickInterval)
	}
	if !reflect.DeepEqual(cfg.LaunchSites, defaultLaunchSites) {
		t.Fatalf("launch_sites = %v, want %v", cfg.LaunchSites, defaultLaunchSites)
	}
	if cfg.ScreenWidth != defaultScreenWidth || cfg.ScreenHeight != defaultScreenHeight {
		t.Fatalf("screen = %dx%d, want %dx%d", cfg.ScreenWidth, cfg.ScreenHeight, defaultScreenWidth, defaultScreenHeight)
	}
	if cfg.DataDir != filepath.Join(home, DirName) {
		t.Fatalf("data_dir = %q, want %q", cfg.DataDir, filepath.Join(home, DirName))
	}
	if cfg.LogMaxSizeMB != defaultLogMaxSizeMB {
		t.Fatalf("log_max_size_mb = %d, want %d", cfg.LogMaxSizeMB, defaultLogMaxSizeMB)
	}
	if cfg.LogMaxBackups != defaultLogMaxBackups || cfg.LogMaxAgeDays != defaultLogMaxAgeDays {
		t.Fatalf("log rotation = %d backups/%d days, want %d/%d", cfg.LogMaxBackups, cfg.LogMaxAgeDays, defaultLogMaxBackups, defaultLogMaxAgeDays)
	}
	if cfg.LogDir() != filepath.Join(home, DirName, "logs") {
		t.Fatalf("log dir = %q", cfg.LogDir())
	}
}

func TestLoadOverlayProjectOverHome(t *testing.T) {
	home := t.TempDir()
	work := t.TempDir()
	t.Setenv("HOME", home)

	writeFile(t, filepath.Join(home, DirName, "config.toml"), `
transfer_delay = "500ms"
save_interval = "1m"
launch_sites = ["LaunchPad"]
screen_width = 200
log_max_size_mb = 20
log_max_backups = 2

[otel]
endpoint = "http://localhost:4318"
	`)

	writeFile(t, filepath.Join(work, DirName, "config.toml"), `
transfer_delay = "750ms"
launch_sites = [" Island_Airfield ", "", "Runway"]
data_dir = "~/kerbals"
	`)
	chdir(t, work)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.TransferDelay != 750*time.Millisecond {
		t.Fatalf("transfer_delay = %s, want 750ms", cfg.TransferDelay)
	}
	if cfg.SaveInterval != time.Minute {
		t.Fatalf("save_interval = %s, want 1m", cfg.SaveInterval)
	}
	if want := []string{"Island_Airfield", "Runway"}; !reflect.DeepEqual(cfg.LaunchSites, want) {
		t.Fatalf("launch_sites = %v, want %v", cfg.LaunchSites, want)
	}
	if cfg.ScreenWidth != 200 {
		t.Fatalf("screen_width = %d, want 200", cfg.ScreenWidth)
	}
	if cfg.DataDir != filepath.Join(home, "kerbals") {
		t.Fatalf("data_dir = %q, want %q", cfg.DataDir, filepath.Join(home, "kerbals"))
	}
	if cfg.LogMaxSizeMB != 20 {
		t.Fatalf("log_max_size_mb = %d, want 20", cfg.LogMaxSizeMB)
	}
	if cfg.LogMaxBackups != 2 {
		t.Fatalf("log_max_backups = %d, want 2", cfg.LogMaxBackups)
	}
	if cfg.OTel.Endpoint != "http://localhost:4318" {
		t.Fatalf("otel endpoint = %q", cfg.OTel.Endpoint)
	}
	if cfg.StorePath() != filepath.Join(home, "kerbals", "sim.db") {
		t.Fatalf("store path = %q", cfg.StorePath())
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "bad duration", content: `transfer_delay = "soon"`, want: "parse transfer_delay"},
		{name: "zero delay", content: `transfer_delay = "0s"`, want: "TransferDelay"},
		{name: "no launch sites", content: `launch_sites = ["  "]`, want: "LaunchSites"},
		{name: "tiny screen", content: `screen_height = 2`, want: "ScreenHeight"},
		{name: "bad endpoint", content: "[otel]\nendpoint = \"not a url\"", want: "Endpoint"},
		{name: "bad log size", content: `log_max_size_mb = 0`, want: "log_max_size_mb"},
		{name: "negative log backups", content: `log_max_backups = -1`, want: "LogMaxBackups"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			work := t.TempDir()
			t.Setenv("HOME", home)
			writeFile(t, filepath.Join(work, DirName, "config.toml"), tt.content)
			chdir(t, work)

			_, err := Load(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() {
		if chdirErr := os.Chdir(cwd); chdirErr != nil {
			t.Fatalf("restore cwd: %v", chdirErr)
		}
	})
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
}
