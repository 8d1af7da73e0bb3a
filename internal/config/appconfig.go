// Package config provides configuration management for dirfusion.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AppConfig is the configuration stored in ~/.config/dirfusion/config.yaml.
type AppConfig struct {
	// BackupDir holds one YAML backup file per merge run
	BackupDir string `yaml:"backup_dir"`
	// StateDB is the SQLite run-history database; defaults to BackupDir/.dirfusion.db
	StateDB string `yaml:"state_db,omitempty"`
	// CacheRoot is where the temporary empty-folder cache is created; defaults to the OS temp dir
	CacheRoot string `yaml:"cache_root,omitempty"`
	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level"`
	// IncludeHidden merges dot-files and hidden entries
	IncludeHidden bool `yaml:"include_hidden"`
	// CacheEmptyFolders relocates sources left without files after a merge
	CacheEmptyFolders bool `yaml:"cache_empty_folders"`
}

const (
	appConfigDir  = ".config/dirfusion"
	appConfigFile = "config.yaml"
	stateDBFile   = ".dirfusion.db"

	defaultBackupDir = "~/.local/share/dirfusion/backups"
	defaultLogLevel  = "info"
)

// Default returns the configuration used when no file or override exists.
func Default() *AppConfig {
	return &AppConfig{
		BackupDir:         defaultBackupDir,
		LogLevel:          defaultLogLevel,
		CacheEmptyFolders: true,
	}
}

// LoadAppConfig loads the configuration with precedence, highest first:
// DIRFUSION_* environment variables, the nearest .env.local walking up from
// the working directory, ~/.config/dirfusion/config.yaml, built-in defaults.
// A missing config file is not an error.
func LoadAppConfig() (*AppConfig, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}

	return LoadFrom(AppConfigPath(), cwd)
}

// LoadFrom is LoadAppConfig with an explicit config file and working directory.
func LoadFrom(configPath, workDir string) (*AppConfig, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath) //nolint:gosec // path is from user home dir, intentional
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing app config %s: %w", configPath, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("reading app config: %w", err)
		}
	}

	env, err := newEnvSource(workDir)
	if err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ExpandPaths expands templates, ~ and environment variables in every path
// field and fills in the derived state database path.
func (c *AppConfig) ExpandPaths(envVars map[string]string, renderer PathRenderer) {
	c.BackupDir = ExpandPathWithTemplate(c.BackupDir, envVars, renderer)
	c.CacheRoot = ExpandPathWithTemplate(c.CacheRoot, envVars, renderer)

	if c.StateDB == "" {
		c.StateDB = filepath.Join(c.BackupDir, stateDBFile)
	} else {
		c.StateDB = ExpandPathWithTemplate(c.StateDB, envVars, renderer)
	}
}

// SaveAppConfig saves the app configuration to ~/.config/dirfusion/config.yaml
func SaveAppConfig(cfg *AppConfig) error {
	path := AppConfigPath()
	if path == "" {
		return fmt.Errorf("getting home directory: %w", os.ErrNotExist)
	}

	return SaveAppConfigTo(cfg, path)
}

// SaveAppConfigTo writes cfg to path with a header comment.
func SaveAppConfigTo(cfg *AppConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := marshalYAML(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	content := fmt.Sprintf("# dirfusion app configuration\n# Paths accept ~, $VARS and {{ .Hostname }} style templates\n\n%s", string(data))

	// Use 0600 permissions to restrict access to owner only
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// AppConfigPath returns the path where the app config is stored.
// Returns an empty string if the home directory cannot be determined.
func AppConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, appConfigDir, appConfigFile)
}

// marshalYAML encodes a value to YAML with 2-space indentation.
func marshalYAML(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	if err := enc.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
