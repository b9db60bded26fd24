package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/albertocavalcante/svnstamp/internal/log"
)

// ConfigFileName is the name of the project-level config file.
const ConfigFileName = "svnstamp.toml"

// ConfigDirName is the name of the project-level config directory.
const ConfigDirName = ".svnstamp"

// GlobalConfigDir is the name of the global config directory inside user's config.
const GlobalConfigDir = "svnstamp"

// EnvFileName is the dotenv file read from the project directory.
const EnvFileName = ".env"

// LoadFrom loads configuration for the project at dir, in order of precedence:
//  1. Built-in defaults
//  2. Global user config (~/.config/svnstamp/config.toml)
//  3. Project config (.svnstamp/config.toml or svnstamp.toml), searched upward
//  4. dir/.env
//  5. Environment variables (SVNSTAMP_*)
//
// CLI flags are applied separately after LoadFrom() returns.
func LoadFrom(dir string) *Config {
	cfg := NewConfig()

	if globalCfg := loadGlobalConfig(); globalCfg != nil {
		cfg.Merge(globalCfg)
	}

	if projectCfg := loadProjectConfigFrom(dir); projectCfg != nil {
		cfg.Merge(projectCfg)
	}

	applyEnvironment(cfg, envLookup(dir))

	return cfg
}

// loadGlobalConfig loads ~/.config/svnstamp/config.toml.
func loadGlobalConfig() *Config {
	path := GetGlobalConfigPath()
	if path == "" {
		return nil
	}
	return loadConfigFile(path)
}

// loadProjectConfigFrom looks for project configuration starting from dir.
func loadProjectConfigFrom(dir string) *Config {
	current := dir
	for {
		for _, path := range GetProjectConfigPaths(current) {
			if cfg := loadConfigFile(path); cfg != nil {
				return cfg
			}
		}

		if isWorkingCopyRoot(current) {
			break
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return nil
}

// isWorkingCopyRoot checks for the .svn administrative directory.
// Since Subversion 1.7 only the working copy root carries one.
func isWorkingCopyRoot(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".svn"))
	return err == nil && info.IsDir()
}

// loadConfigFile loads a configuration from a TOML file.
// Missing or malformed files yield nil.
func loadConfigFile(path string) *Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		log.Warn("skipping malformed config file", "path", path, "error", err)
		return nil
	}
	cfg.Sources = []string{path}

	return &cfg
}

// envLookup returns a lookup that prefers the process environment over dir/.env.
func envLookup(dir string) func(string) (string, bool) {
	dotenv, err := godotenv.Read(filepath.Join(dir, EnvFileName))
	if err != nil {
		dotenv = nil
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
}

// applyEnvironment applies SVNSTAMP_* variables to the config.
func applyEnvironment(cfg *Config, lookup func(string) (string, bool)) {
	// SVNSTAMP_IGNORE: comma or newline separated names, replaces file layers
	if v, ok := lookup("SVNSTAMP_IGNORE"); ok && v != "" {
		cfg.Timestamp.Ignore = SplitList(v)
	}

	if v, ok := lookup("SVNSTAMP_FORMAT"); ok && v != "" {
		cfg.Timestamp.Format = v
	}
	if v, ok := lookup("SVNSTAMP_SVN_BINARY"); ok && v != "" {
		cfg.Svn.Binary = v
	}
	if v, ok := lookup("SVNSTAMP_SVN_CONFIG_DIR"); ok && v != "" {
		cfg.Svn.ConfigDir = v
	}
	if v, ok := lookup("SVNSTAMP_SVN_USERNAME"); ok && v != "" {
		cfg.Svn.Username = v
	}
	if v, ok := lookup("SVNSTAMP_SVN_PASSWORD"); ok && v != "" {
		cfg.Svn.Password = v
	}
}

// SplitList splits a comma or newline separated list and trims whitespace.
func SplitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r' || r == '\f'
	})
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// GetGlobalConfigPath returns the path to the global config file.
func GetGlobalConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, GlobalConfigDir, "config.toml")
}

// GetProjectConfigPaths returns potential project config paths for a given directory.
func GetProjectConfigPaths(dir string) []string {
	return []string{
		filepath.Join(dir, ConfigDirName, "config.toml"),
		filepath.Join(dir, ConfigFileName),
	}
}
