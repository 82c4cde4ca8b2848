// internal/config/config.go
//
// This package handles the settings file and the data directory layout.
// Every station gets a data directory (default ./kiroku) holding the roster,
// the attendance log, generated reports, QR images and the diagnostic log.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultDataDir is used when no --data flag is given.
	DefaultDataDir = "kiroku"

	// envPrefix namespaces the environment overrides (KIROKU_LOG_LEVEL etc).
	envPrefix = "KIROKU_"
)

const defaultSettingsYAML = `# kiroku station configuration
# Environment variables (KIROKU_QR_CODE_DIR, KIROKU_REPORT_DIR,
# KIROKU_PRINTER_EXECUTABLE, KIROKU_LABEL_TEMPLATE, KIROKU_LOG_LEVEL,
# KIROKU_STATION_NAME, KIROKU_REPORT_FONT) take precedence over this file.
# A .env file placed next to this one is loaded first.

station_name: kiroku

# Directories are resolved relative to the data directory unless absolute.
qr_code_dir: qr
report_dir: reports

# Path to the Brother P-touch Editor executable. Leave empty to probe the
# usual install locations for the current platform.
printer_executable: ""

# Label template (.lbx) handed to the editor together with the merge CSV.
label_template: ""

# Optional TTF font for PDF reports. Required for non-Latin student names.
report_font: ""

# One of: debug, info, warn, error
log_level: info
`

// Settings models config.yaml plus its environment overrides.
type Settings struct {
	StationName       string `yaml:"station_name" validate:"required"`
	QRCodeDir         string `yaml:"qr_code_dir" validate:"required"`
	ReportDir         string `yaml:"report_dir" validate:"required"`
	PrinterExecutable string `yaml:"printer_executable"`
	LabelTemplate     string `yaml:"label_template"`
	ReportFont        string `yaml:"report_font"`
	LogLevel          string `yaml:"log_level" validate:"required,oneof=debug info warn error"`
}

// Config holds the resolved runtime configuration.
type Config struct {
	// DataDir is the directory all state lives under.
	DataDir string

	Settings Settings
}

// InitDataDir creates the data directory structure on first run. Missing
// folders are created rather than reported as fatal errors, and a commented
// default config.yaml is written when none exists yet.
func InitDataDir(dataDir string) error {
	dirs := []string{
		filepath.Join(dataDir, "qr"),
		filepath.Join(dataDir, "reports"),
		filepath.Join(dataDir, "logs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	return ensureSettingsFile(filepath.Join(dataDir, "config.yaml"))
}

func ensureSettingsFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(defaultSettingsYAML), 0o644); err != nil {
		return fmt.Errorf("config: write default %s: %w", path, err)
	}
	return nil
}

// New loads the configuration for the given data directory: defaults, then
// config.yaml, then .env, then process environment, in increasing precedence.
func New(dataDir string) (*Config, error) {
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve data dir: %w", err)
	}

	cfg := &Config{
		DataDir:  abs,
		Settings: defaultSettings(),
	}

	if err := cfg.loadSettingsFile(); err != nil {
		return nil, err
	}

	// godotenv never overrides variables that are already exported, so the
	// process environment keeps the last word.
	_ = godotenv.Load(filepath.Join(abs, ".env"))
	cfg.applyEnvOverrides()

	cfg.Settings.normalize()
	if err := cfg.Settings.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// SettingsPath returns the on-disk location of config.yaml.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.DataDir, "config.yaml")
}

// RosterPath returns the roster CSV location.
func (c *Config) RosterPath() string {
	return filepath.Join(c.DataDir, "roster.csv")
}

// AttendancePath returns the attendance log CSV location.
func (c *Config) AttendancePath() string {
	return filepath.Join(c.DataDir, "attendance.csv")
}

// LogPath returns the diagnostic log location.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "logs", "kiroku.log")
}

// QRCodeDir returns the absolute QR image output directory.
func (c *Config) QRCodeDir() string {
	return c.resolve(c.Settings.QRCodeDir)
}

// ReportDir returns the absolute report output directory.
func (c *Config) ReportDir() string {
	return c.resolve(c.Settings.ReportDir)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.DataDir, path)
}

// Save persists the current settings back to config.yaml.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c.Settings)
	if err != nil {
		return fmt.Errorf("config: marshal settings: %w", err)
	}
	if err := os.WriteFile(c.SettingsPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", c.SettingsPath(), err)
	}
	return nil
}

func (c *Config) loadSettingsFile() error {
	path := c.SettingsPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &c.Settings); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	overrides := map[string]*string{
		"STATION_NAME":       &c.Settings.StationName,
		"QR_CODE_DIR":        &c.Settings.QRCodeDir,
		"REPORT_DIR":         &c.Settings.ReportDir,
		"PRINTER_EXECUTABLE": &c.Settings.PrinterExecutable,
		"LABEL_TEMPLATE":     &c.Settings.LabelTemplate,
		"REPORT_FONT":        &c.Settings.ReportFont,
		"LOG_LEVEL":          &c.Settings.LogLevel,
	}
	for key, target := range overrides {
		if value, ok := os.LookupEnv(envPrefix + key); ok && strings.TrimSpace(value) != "" {
			*target = strings.TrimSpace(value)
		}
	}
}

func defaultSettings() Settings {
	return Settings{
		StationName: "kiroku",
		QRCodeDir:   "qr",
		ReportDir:   "reports",
		LogLevel:    "info",
	}
}

func (s *Settings) normalize() {
	s.StationName = strings.TrimSpace(s.StationName)
	s.QRCodeDir = strings.TrimSpace(s.QRCodeDir)
	s.ReportDir = strings.TrimSpace(s.ReportDir)
	s.PrinterExecutable = strings.TrimSpace(s.PrinterExecutable)
	s.LabelTemplate = strings.TrimSpace(s.LabelTemplate)
	s.ReportFont = strings.TrimSpace(s.ReportFont)
	s.LogLevel = strings.ToLower(strings.TrimSpace(s.LogLevel))
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
}

func (s *Settings) validate() error {
	err := validator.New().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("invalid settings: %s", strings.Join(parts, ", "))
	}
	return err
}
