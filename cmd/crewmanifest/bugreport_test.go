package main

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/crewmanifest/crewmanifest/internal/config"
)

func TestRunBugReportCreatesArchiveWithRedactedConfigAndArtifacts(t *testing.T) {
	restore := snapshotBugreportHooks()
	defer restore()

	a, cwd := setupBugreportFixture(t)
	writeBugreportFile(t, filepath.Join(a.cfg.DataDir, "config.toml"),
		"transfer_delay = \"1s\"\napi_token = \"supersecret\"\n\n[otel]\nendpoint = \"http://collector:4318\"\n")
	writeBugreportFile(t, a.cfg.SettingsPath(), "show_manifest = true\n")
	base := time.Date(2026, 2, 11, 9, 0, 0, 0, time.UTC)
	for i := 1; i <= 4; i++ {
		path := filepath.Join(a.cfg.LogDir(), fmt.Sprintf("crewmanifest-%d.log", i))
		writeBugreportFile(t, path, fmt.Sprintf("log %d\n", i))
		mod := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatalf("set modtime: %v", err)
		}
	}

	var out bytes.Buffer
	if err := runBugReport(context.Background(), a, &out); err != nil {
		t.Fatalf("run bugreport: %v", err)
	}
	if !strings.Contains(out.String(), "Bug report written to:") {
		t.Fatalf("unexpected output: %q", out.String())
	}

	contents := extractTarballTextFiles(t, filepath.Join(cwd, "crewmanifest-bugreport-20260211-100000.tar.gz"))
	for _, path := range []string{"README.txt", "settings.toml", "config.toml", "effective-config.txt"} {
		if _, ok := contents[path]; !ok {
			t.Fatalf("missing artifact %q in bugreport archive", path)
		}
	}

	logCount := 0
	for name := range contents {
		if strings.HasPrefix(name, "logs/") {
			logCount++
		}
	}
	if logCount != 3 {
		t.Fatalf("log file count = %d, want 3 most recent logs", logCount)
	}
	if _, ok := contents["logs/crewmanifest-1.log"]; ok {
		t.Fatal("oldest log should not be bundled")
	}
	if strings.Contains(contents["config.toml"], "supersecret") || strings.Contains(contents["config.toml"], "collector") {
		t.Fatalf("config should be redacted: %q", contents["config.toml"])
	}
	if !strings.Contains(contents["config.toml"], "transfer_delay = \"1s\"") {
		t.Fatalf("non-sensitive config should survive: %q", contents["config.toml"])
	}
	readme := contents["README.txt"]
	if !strings.Contains(readme, "Version: dev") {
		t.Fatalf("readme missing version: %q", readme)
	}
	for _, entry := range []string{"logs/crewmanifest-4.log", "effective-config.txt", "redacted"} {
		if !strings.Contains(readme, entry) {
			t.Fatalf("readme should list %q: %q", entry, readme)
		}
	}
}

func TestRunBugReportHandlesMissingOptionalArtifacts(t *testing.T) {
	restore := snapshotBugreportHooks()
	defer restore()

	a, cwd := setupBugreportFixture(t)

	var out bytes.Buffer
	if err := runBugReport(context.Background(), a, &out); err != nil {
		t.Fatalf("run bugreport: %v", err)
	}

	contents := extractTarballTextFiles(t, filepath.Join(cwd, "crewmanifest-bugreport-20260211-100000.tar.gz"))
	readme := contents["README.txt"]
	for _, warning := range []string{"unable to read logs directory", "settings.toml not found", "no sim store found"} {
		if !strings.Contains(readme, warning) {
			t.Fatalf("readme should include %q: %q", warning, readme)
		}
	}
	if _, ok := contents["config.toml"]; ok {
		t.Fatal("missing config should not be bundled")
	}
}

func TestRunBugReportSummarizesStore(t *testing.T) {
	restore := snapshotBugreportHooks()
	defer restore()

	a, cwd := setupBugreportFixture(t)
	var discard bytes.Buffer
	if err := runCommand(a, &discard, "demo"); err != nil {
		t.Fatalf("seed demo: %v", err)
	}

	var out bytes.Buffer
	if err := runBugReport(context.Background(), a, &out); err != nil {
		t.Fatalf("run bugreport: %v", err)
	}
	contents := extractTarballTextFiles(t, filepath.Join(cwd, "crewmanifest-bugreport-20260211-100000.tar.gz"))
	if !strings.Contains(contents["README.txt"], "kerbals, 2 vessels") {
		t.Fatalf("readme should summarize the store: %q", contents["README.txt"])
	}
}

func TestRedactSensitiveConfig(t *testing.T) {
	input := "api_key = \"abc\"\npassword=\"def\"\n[otel]\nendpoint = \"http://x\"\nnormal = \"value\"\n"
	got := redactSensitiveConfig(input)
	if strings.Contains(got, "abc") || strings.Contains(got, "def") || strings.Contains(got, "http://x") {
		t.Fatalf("expected sensitive values to be redacted: %q", got)
	}
	if strings.Count(got, "***REDACTED***") != 3 {
		t.Fatalf("expected three redactions, got %q", got)
	}
	if !strings.Contains(got, "normal = \"value\"") {
		t.Fatalf("normal value should be kept: %q", got)
	}
}

func TestRecentLogsNewestFirst(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 4; i++ {
		path := filepath.Join(dir, fmt.Sprintf("log-%d.log", i))
		if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
			t.Fatalf("write file %d: %v", i, err)
		}
		mod := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatalf("set modtime %d: %v", i, err)
		}
	}
	writeBugreportFile(t, filepath.Join(dir, "notes.txt"), "not a log")

	logs, err := recentLogs(dir, 2)
	if err != nil {
		t.Fatalf("recentLogs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("log count = %d, want 2", len(logs))
	}
	if !strings.HasSuffix(logs[0], "log-4.log") || !strings.HasSuffix(logs[1], "log-3.log") {
		t.Fatalf("logs = %v, want log-4.log then log-3.log", logs)
	}
}

func snapshotBugreportHooks() func() {
	prevNow := bugreportNowFn
	prevGetwd := bugreportGetwdFn
	return func() {
		bugreportNowFn = prevNow
		bugreportGetwdFn = prevGetwd
	}
}

func setupBugreportFixture(t *testing.T) (*app, string) {
	t.Helper()

	cwd := t.TempDir()
	bugreportGetwdFn = func() (string, error) { return cwd, nil }
	bugreportNowFn = func() time.Time { return time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC) }

	cfg := config.Default(t.TempDir())
	return testApp(&cfg), cwd
}

func writeBugreportFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func extractTarballTextFiles(t *testing.T, archivePath string) map[string]string {
	t.Helper()

	// #nosec G304 -- archivePath is generated in the test-owned temp directory.
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer archiveFile.Close()

	gzipReader, err := gzip.NewReader(archiveFile)
	if err != nil {
		t.Fatalf("create gzip reader: %v", err)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)
	files := make(map[string]string)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read tar entry: %v", err)
		}
		data, err := io.ReadAll(tarReader)
		if err != nil {
			t.Fatalf("read tar entry %s: %v", header.Name, err)
		}
		files[header.Name] = string(data)
	}
	if len(files) == 0 {
		t.Fatalf("archive %s is empty", archivePath)
	}
	return files
}
