package config

import (
	"log/slog"
	"path/filepath"
	"strings"
)

// Validate checks an expanded configuration. All problems are reported
// together as *ValidationErrors.
func (c *AppConfig) Validate() error {
	errs := &ValidationErrors{}

	if strings.TrimSpace(c.BackupDir) == "" {
		errs.Add(NewFieldError("backup_dir", c.BackupDir, ErrRequired))
	} else {
		errs.Add(validatePath("backup_dir", c.BackupDir))
	}

	if c.StateDB != "" {
		errs.Add(validatePath("state_db", c.StateDB))
	}

	if c.CacheRoot != "" {
		errs.Add(validatePath("cache_root", c.CacheRoot))
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs.Add(NewFieldError("log_level", c.LogLevel, err))
	}

	if errs.HasErrors() {
		return errs
	}

	return nil
}

// validatePath checks that an expanded path is usable for file operations.
func validatePath(field, path string) error {
	if strings.ContainsRune(path, '\x00') {
		return NewFieldError(field, path, ErrNullByte)
	}

	if !filepath.IsAbs(path) {
		return NewFieldError(field, path, ErrNotAbsolute)
	}

	return nil
}

// ParseLogLevel maps a config log level to a slog.Level. An empty value is info.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, ErrUnknownLevel
	}
}
