package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitDataDirCreatesStructure(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "kiroku")
	if err := InitDataDir(dataDir); err != nil {
		t.Fatalf("InitDataDir returned error: %v", err)
	}
	for _, dir := range []string{"qr", "reports", "logs"} {
		info, err := os.Stat(filepath.Join(dataDir, dir))
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s to exist, err=%v", dir, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dataDir, "config.yaml")); err != nil {
		t.Fatalf("expected default config.yaml, got %v", err)
	}
}

func TestInitDataDirKeepsExistingSettings(t *testing.T) {
	dataDir := t.TempDir()
	custom := "station_name: east-gate\nqr_code_dir: qr\nreport_dir: reports\nlog_level: debug\n"
	if err := os.WriteFile(filepath.Join(dataDir, "config.yaml"), []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := InitDataDir(dataDir); err != nil {
		t.Fatalf("InitDataDir returned error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dataDir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != custom {
		t.Fatalf("existing config.yaml was overwritten")
	}
}

func TestNewDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if cfg.Settings.LogLevel != "info" {
		t.Fatalf("default log level = %q, want info", cfg.Settings.LogLevel)
	}
	if got := cfg.QRCodeDir(); !strings.HasPrefix(got, cfg.DataDir) {
		t.Fatalf("expected qr dir under data dir, got %s", got)
	}
	if got := cfg.RosterPath(); filepath.Base(got) != "roster.csv" {
		t.Fatalf("roster path = %s", got)
	}
}

func TestNewParsesYamlAndResolvesDirs(t *testing.T) {
	dataDir := t.TempDir()
	configYAML := strings.TrimSpace(`
station_name: west-gate
qr_code_dir: labels/qr
report_dir: /srv/reports
printer_executable: /opt/brother/ptouch/ptedit
log_level: warn
`)
	if err := os.WriteFile(filepath.Join(dataDir, "config.yaml"), []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := New(dataDir)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if cfg.Settings.StationName != "west-gate" {
		t.Fatalf("station name = %q", cfg.Settings.StationName)
	}
	if got := cfg.QRCodeDir(); got != filepath.Join(cfg.DataDir, "labels", "qr") {
		t.Fatalf("relative qr dir not resolved, got %s", got)
	}
	if got := cfg.ReportDir(); got != "/srv/reports" {
		t.Fatalf("absolute report dir must be kept, got %s", got)
	}
	if cfg.Settings.LogLevel != "warn" {
		t.Fatalf("log level = %q, want warn", cfg.Settings.LogLevel)
	}
}

func TestNewEnvOverridesFile(t *testing.T) {
	dataDir := t.TempDir()
	configYAML := "station_name: file-station\nqr_code_dir: qr\nreport_dir: reports\nlog_level: info\n"
	if err := os.WriteFile(filepath.Join(dataDir, "config.yaml"), []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KIROKU_STATION_NAME", "env-station")
	t.Setenv("KIROKU_LOG_LEVEL", "ERROR")
	cfg, err := New(dataDir)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if cfg.Settings.StationName != "env-station" {
		t.Fatalf("env override lost, station = %q", cfg.Settings.StationName)
	}
	if cfg.Settings.LogLevel != "error" {
		t.Fatalf("log level = %q, want error (lowercased)", cfg.Settings.LogLevel)
	}
}

func TestNewRejectsBadLogLevel(t *testing.T) {
	dataDir := t.TempDir()
	configYAML := "station_name: s\nqr_code_dir: qr\nreport_dir: reports\nlog_level: loud\n"
	if err := os.WriteFile(filepath.Join(dataDir, "config.yaml"), []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(dataDir); err == nil {
		t.Fatalf("expected validation error for log_level=loud")
	}
}

func TestSaveRoundTrips(t *testing.T) {
	dataDir := t.TempDir()
	cfg, err := New(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Settings.PrinterExecutable = "/usr/local/bin/ptouch-editor"
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	reloaded, err := New(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Settings.PrinterExecutable != cfg.Settings.PrinterExecutable {
		t.Fatalf("printer path not persisted, got %q", reloaded.Settings.PrinterExecutable)
	}
}
