package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variable names
const (
	EnvBackupDir         = "DIRFUSION_BACKUP_DIR"
	EnvStateDB           = "DIRFUSION_STATE_DB"
	EnvCacheRoot         = "DIRFUSION_CACHE_ROOT"
	EnvIncludeHidden     = "DIRFUSION_INCLUDE_HIDDEN"
	EnvCacheEmptyFolders = "DIRFUSION_CACHE_EMPTY_FOLDERS"
	EnvLogLevel          = "DIRFUSION_LOG_LEVEL"

	envLocalFile = ".env.local"
)

// envSource resolves a variable from the process environment first, then from
// the values read out of .env.local. The process environment is never
// modified.
type envSource struct {
	dotenv map[string]string
	path   string
}

func newEnvSource(workDir string) (*envSource, error) {
	src := &envSource{dotenv: map[string]string{}}

	if workDir == "" {
		return src, nil
	}

	src.path = findEnvLocal(workDir)
	if src.path == "" {
		return src, nil
	}

	values, err := godotenv.Read(src.path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", src.path, err)
	}

	src.dotenv = values

	return src, nil
}

func (e *envSource) lookup(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v, true
	}

	v, ok := e.dotenv[key]

	return v, ok && v != ""
}

func (c *AppConfig) applyEnv(env *envSource) error {
	textFields := []struct {
		dst *string
		key string
	}{
		{&c.BackupDir, EnvBackupDir},
		{&c.StateDB, EnvStateDB},
		{&c.CacheRoot, EnvCacheRoot},
		{&c.LogLevel, EnvLogLevel},
	}

	for _, s := range textFields {
		if v, ok := env.lookup(s.key); ok {
			*s.dst = v
		}
	}

	bools := []struct {
		dst *bool
		key string
	}{
		{&c.IncludeHidden, EnvIncludeHidden},
		{&c.CacheEmptyFolders, EnvCacheEmptyFolders},
	}

	for _, b := range bools {
		v, ok := env.lookup(b.key)
		if !ok {
			continue
		}

		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return NewFieldError(b.key, v, ErrInvalidConfig)
		}

		*b.dst = parsed
	}

	return nil
}

// findEnvLocal searches for .env.local starting from dir and walking up
// parent directories. Stops at the user's home directory.
// Returns the path to .env.local if found, empty string otherwise.
func findEnvLocal(dir string) string {
	homeDir, err := os.UserHomeDir()
	if err == nil {
		homeDir = filepath.Clean(homeDir)
	}

	dir = filepath.Clean(dir)

	for {
		envPath := filepath.Join(dir, envLocalFile)
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}

		if dir == homeDir {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	return ""
}
