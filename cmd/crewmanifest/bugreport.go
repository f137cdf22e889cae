package main

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/crewmanifest/crewmanifest/internal/config"
	"github.com/crewmanifest/crewmanifest/internal/simstore"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

const (
	bugreportLogLimit = 3
	redacted          = `"***REDACTED***"`
)

var (
	bugreportNowFn = func() time.Time {
		return time.Now().UTC()
	}
	bugreportGetwdFn = os.Getwd
)

var sensitiveKeys = []string{"token", "secret", "password", "key", "auth", "endpoint"}

func newBugreportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bugreport",
		Short: "Collect logs, settings and a roster summary into a tarball",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.logger.With("command", "bugreport").Info("collecting diagnostic bundle")
			return runBugReport(cmd.Context(), a, cmd.OutOrStdout())
		},
	}
}

func runBugReport(ctx context.Context, a *app, out io.Writer) error {
	cwd, err := bugreportGetwdFn()
	if err != nil {
		return fmt.Errorf("resolve current directory: %w", err)
	}

	now := bugreportNowFn()
	bundlePath := filepath.Join(cwd, fmt.Sprintf("crewmanifest-bugreport-%s.tar.gz", now.Format("20060102-150405")))
	if err := writeBundle(ctx, a, bundlePath, now); err != nil {
		_ = os.Remove(bundlePath)
		return err
	}

	if _, err := fmt.Fprintf(out, "Bug report written to: %s\n", bundlePath); err != nil {
		return fmt.Errorf("write bugreport output: %w", err)
	}
	return nil
}

// bundle streams diagnostic entries straight into a gzipped tarball and
// remembers what went in for the README.
type bundle struct {
	tw       *tar.Writer
	modTime  time.Time
	entries  []bundleEntry
	warnings []string
}

type bundleEntry struct {
	name string
	size int
	note string
}

func writeBundle(ctx context.Context, a *app, destination string, now time.Time) (err error) {
	// #nosec G304 -- destination is generated in the working directory.
	file, err := os.OpenFile(destination, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create archive %s: %w", destination, err)
	}
	gz := gzip.NewWriter(file)
	b := &bundle{tw: tar.NewWriter(gz), modTime: now}
	defer func() {
		for _, closer := range []io.Closer{b.tw, gz, file} {
			if closeErr := closer.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("finalize archive: %w", closeErr)
			}
		}
	}()

	if err := b.addLogs(a.cfg.LogDir(), bugreportLogLimit); err != nil {
		return err
	}
	if err := b.addFile(a.cfg.SettingsPath(), "settings.toml", "display settings", nil); err != nil {
		return err
	}
	configPath := filepath.Join(a.cfg.DataDir, "config.toml")
	if err := b.addFile(configPath, "config.toml", "redacted", redactSensitiveConfig); err != nil {
		return err
	}
	if err := b.add("effective-config.txt", "after defaults and overrides", effectiveConfig(a.cfg)); err != nil {
		return err
	}

	kerbals, vessels := b.storeCounts(ctx, a)
	return b.add("README.txt", "", b.readme(kerbals, vessels))
}

func (b *bundle) add(name, note string, data []byte) error {
	header := &tar.Header{
		Name:     name,
		Mode:     0o600,
		Size:     int64(len(data)),
		ModTime:  b.modTime,
		Typeflag: tar.TypeReg,
	}
	if err := b.tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write %s header: %w", name, err)
	}
	if _, err := b.tw.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	b.entries = append(b.entries, bundleEntry{name: name, size: len(data), note: note})
	return nil
}

func (b *bundle) warnf(format string, args ...any) {
	b.warnings = append(b.warnings, fmt.Sprintf(format, args...))
}

// addLogs bundles the newest log files. Unreadable logs only produce
// warnings; a broken archive is an error.
func (b *bundle) addLogs(dir string, limit int) error {
	logs, err := recentLogs(dir, limit)
	if err != nil {
		b.warnf("unable to read logs directory: %v", err)
		return nil
	}
	for _, logPath := range logs {
		// #nosec G304 -- source path comes from the configured log directory.
		data, err := os.ReadFile(logPath)
		if err != nil {
			b.warnf("unable to read log %s: %v", logPath, err)
			continue
		}
		if err := b.add(path.Join("logs", filepath.Base(logPath)), "log", data); err != nil {
			return err
		}
	}
	return nil
}

func (b *bundle) addFile(src, name, note string, transform func(string) string) error {
	// #nosec G304 -- paths come from the loaded configuration.
	data, err := os.ReadFile(src)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		b.warnf("%s not found", filepath.Base(src))
		return nil
	case err != nil:
		b.warnf("unable to read %s: %v", src, err)
		return nil
	}
	if transform != nil {
		data = []byte(transform(string(data)))
	}
	return b.add(name, note, data)
}

func (b *bundle) storeCounts(ctx context.Context, a *app) (kerbals, vessels int) {
	if _, err := os.Stat(a.cfg.StorePath()); err != nil {
		b.warnf("no sim store found")
		return 0, 0
	}
	err := a.withWorld(ctx, false, func(world *simstore.World) error {
		kerbals = len(world.Roster.Crew())
		vessels = len(world.Vessels)
		return nil
	})
	if err != nil {
		b.warnf("unable to read sim store: %v", err)
	}
	return kerbals, vessels
}

func (b *bundle) readme(kerbals, vessels int) []byte {
	var sb strings.Builder
	sb.WriteString("Crew Manifest bug report\n\n")
	fmt.Fprintf(&sb, "Version: %s\n", Version)
	fmt.Fprintf(&sb, "Generated: %s\n", b.modTime.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Roster: %d kerbals, %d vessels\n\nContents:\n", kerbals, vessels)

	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	for _, entry := range b.entries {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", entry.name, humanize.Bytes(uint64(entry.size)), entry.note)
	}
	_ = tw.Flush()

	if len(b.warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warning := range b.warnings {
			fmt.Fprintf(&sb, "- %s\n", warning)
		}
	}
	return []byte(sb.String())
}

func effectiveConfig(cfg *config.Config) []byte {
	endpoint := cfg.OTel.Endpoint
	if endpoint != "" {
		endpoint = "***REDACTED***"
	}
	lines := []string{
		fmt.Sprintf("transfer_delay = %q", cfg.TransferDelay),
		fmt.Sprintf("save_interval = %q", cfg.SaveInterval),
		fmt.Sprintf("tick_interval = %q", cfg.TickInterval),
		fmt.Sprintf("launch_sites = %q", cfg.LaunchSites),
		fmt.Sprintf("screen = \"%dx%d\"", cfg.ScreenWidth, cfg.ScreenHeight),
		fmt.Sprintf("data_dir = %q", cfg.DataDir),
		fmt.Sprintf("log_max_size_mb = %d", cfg.LogMaxSizeMB),
		fmt.Sprintf("otel_endpoint = %q", endpoint),
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}

// redactSensitiveConfig blanks the value of any key that looks like a
// credential or a collector address. Comments and table headers pass through.
func redactSensitiveConfig(configText string) string {
	lines := strings.Split(configText, "\n")
	for i, line := range lines {
		lines[i] = redactLine(line)
	}
	return strings.Join(lines, "\n")
}

func redactLine(line string) string {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "[") {
		return line
	}
	name, _, ok := strings.Cut(line, "=")
	if !ok {
		return line
	}
	key := strings.ToLower(strings.TrimSpace(name))
	if slices.ContainsFunc(sensitiveKeys, func(marker string) bool { return strings.Contains(key, marker) }) {
		return name + "= " + redacted
	}
	return line
}

// recentLogs returns up to limit *.log paths in dir, newest first.
func recentLogs(dir string, limit int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type logFile struct {
		path    string
		modTime time.Time
	}
	logs := make([]logFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".log" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		logs = append(logs, logFile{path: filepath.Join(dir, entry.Name()), modTime: info.ModTime()})
	}
	slices.SortFunc(logs, func(a, b logFile) int { return b.modTime.Compare(a.modTime) })
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}

	paths := make([]string, len(logs))
	for i, l := range logs {
		paths[i] = l.path
	}
	return paths, nil
}
