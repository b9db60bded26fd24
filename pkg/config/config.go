// Package config provides configuration management for svnstamp.
// It supports multi-layer configuration with precedence:
//  1. Built-in defaults (lowest priority)
//  2. Global user config (~/.config/svnstamp/config.toml)
//  3. Project config (.svnstamp/config.toml or svnstamp.toml)
//  4. Project .env file
//  5. Environment variables (SVNSTAMP_*)
//  6. CLI flags (highest priority)
package config

import (
	"slices"
	"strings"
)

// Timestamp formats understood by the CLI besides raw Go layouts.
const (
	FormatRFC3339   = "rfc3339"
	FormatQualifier = "qualifier"
)

// QualifierLayout is the OSGi build qualifier layout (yyyyMMddHHmm).
const QualifierLayout = "200601021504"

// Config is the main configuration struct for svnstamp.
type Config struct {
	// Timestamp configures the timestamp computation and its rendering.
	Timestamp TimestampConfig `toml:"timestamp"`

	// Svn configures the Subversion client.
	Svn SvnConfig `toml:"svn"`

	// Sources lists the files that contributed to this config, lowest precedence first.
	Sources []string `toml:"-"`
}

// TimestampConfig holds timestamp settings.
type TimestampConfig struct {
	// Ignore lists bare file names excluded from the timestamp (e.g. "pom.xml").
	Ignore []string `toml:"ignore"`

	// Format is "rfc3339", "qualifier", or a Go time layout.
	Format string `toml:"format"`
}

// SvnConfig holds Subversion client settings.
type SvnConfig struct {
	// Binary is the svn executable, a name on PATH or a path.
	Binary string `toml:"binary"`

	// ConfigDir is passed as --config-dir when set.
	ConfigDir string `toml:"config_dir"`

	// Username and Password are passed as credentials when set.
	// The password is visible in the process list while svn runs; prefer the
	// svn auth cache (see ConfigDir) on shared machines.
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// NewConfig creates a new Config with built-in defaults.
func NewConfig() *Config {
	return &Config{
		Timestamp: TimestampConfig{
			Ignore: []string{},
			Format: FormatRFC3339,
		},
		Svn: SvnConfig{
			Binary: "svn",
		},
	}
}

// IgnoreList renders the ignore entries as a newline-separated list.
func (c *Config) IgnoreList() string {
	return strings.Join(c.Timestamp.Ignore, "\n")
}

// AddIgnore appends names not already on the ignore list.
func (c *Config) AddIgnore(names ...string) {
	for _, name := range names {
		if name != "" && !slices.Contains(c.Timestamp.Ignore, name) {
			c.Timestamp.Ignore = append(c.Timestamp.Ignore, name)
		}
	}
}

// Merge merges another config into this one (other takes precedence).
// Ignore lists accumulate across layers.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	c.AddIgnore(other.Timestamp.Ignore...)
	if other.Timestamp.Format != "" {
		c.Timestamp.Format = other.Timestamp.Format
	}

	if other.Svn.Binary != "" {
		c.Svn.Binary = other.Svn.Binary
	}
	if other.Svn.ConfigDir != "" {
		c.Svn.ConfigDir = other.Svn.ConfigDir
	}
	if other.Svn.Username != "" {
		c.Svn.Username = other.Svn.Username
	}
	if other.Svn.Password != "" {
		c.Svn.Password = other.Svn.Password
	}

	c.Sources = append(c.Sources, other.Sources...)
}

// TimeLayout resolves Format to a Go time layout.
func (c *Config) TimeLayout() string {
	return TimeLayout(c.Timestamp.Format)
}

// TimeLayout resolves a format name to a Go time layout.
// Unknown names are returned unchanged and used as layouts.
func TimeLayout(format string) string {
	switch strings.ToLower(format) {
	case "", FormatRFC3339:
		return "2006-01-02T15:04:05Z07:00"
	case FormatQualifier:
		return QualifierLayout
	}
	return format
}
