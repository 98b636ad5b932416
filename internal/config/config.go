package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// AppName names the global config directory.
const AppName = "idscan"

// ErrNotFound is returned when no config file exists at the searched
// locations.
var ErrNotFound = errors.New("no config file")

// FileConfig is the on-disk YAML configuration shape for idscan. Pointer
// fields distinguish "unset" from a zero value.
type FileConfig struct {
	Identifiers *string `yaml:"identifiers"`
	Wordlist    *string `yaml:"wordlist"`
	Recursive   *bool   `yaml:"recursive"`
	Verbose     *bool   `yaml:"verbose"`
	Binary      *bool   `yaml:"binary"`
	Color       *bool   `yaml:"color"`
	Format      *string `yaml:"format"`
	Threads     *int    `yaml:"threads"`
	MaxBytes    *int64  `yaml:"max_bytes"`
	Include     *string `yaml:"include"`
	Exclude     *string `yaml:"exclude"`
	LogLevel    *string `yaml:"log_level"`

	// Archive extraction limits
	MaxArchiveBytes   *int64  `yaml:"max_archive_bytes"`
	MaxEntries        *int    `yaml:"max_entries"`
	ArchiveTimeBudget *string `yaml:"archive_time_budget"`

	MatchTimeout *string `yaml:"match_timeout"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadLocal searches for a config file in dir. It supports .idscan.yml/.yaml
// and idscan.yml/.yaml, in that order.
func LoadLocal(dir string) (FileConfig, error) {
	for _, name := range []string{".idscan.yml", ".idscan.yaml", "idscan.yml", "idscan.yaml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return FileConfig{}, ErrNotFound
}

// GlobalPath returns the location of the global config file.
func GlobalPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yml")
}

// LoadGlobal loads the global config file from the XDG config directory.
func LoadGlobal() (FileConfig, error) {
	p := GlobalPath()
	if _, err := os.Stat(p); err != nil {
		return FileConfig{}, ErrNotFound
	}
	return LoadFile(p)
}

// Duration parses an optional duration field.
func Duration(s *string) (*time.Duration, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return nil, fmt.Errorf("invalid duration %q: %w", *s, err)
	}
	return &d, nil
}
