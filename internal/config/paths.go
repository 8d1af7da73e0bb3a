package config

import (
	"os"
	"path/filepath"
	"strings"
)

// PathRenderer renders template strings. Used to inject the template engine
// into config path expansion without creating a circular dependency.
type PathRenderer interface {
	RenderString(name, tmplStr string) (string, error)
}

// ExpandPathWithTemplate first renders any Go template expressions in the path,
// then performs standard ~ and env var expansion. If the path contains no {{ delimiters,
// it falls back directly to ExpandPath.
func ExpandPathWithTemplate(path string, envVars map[string]string, renderer PathRenderer) string {
	if path == "" || renderer == nil || !strings.Contains(path, "{{") {
		return ExpandPath(path, envVars)
	}

	rendered, err := renderer.RenderString("path", path)
	if err != nil {
		// Fall back to ExpandPath on template error
		return ExpandPath(path, envVars)
	}

	return ExpandPath(rendered, envVars)
}

// ExpandPath expands ~ and environment variables in a single path.
func ExpandPath(path string, envVars map[string]string) string {
	if path == "" {
		return path
	}

	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	// Expand environment variables from the provided map
	for key, value := range envVars {
		path = strings.ReplaceAll(path, "$"+key, value)
	}

	// Also expand standard environment variables
	path = os.ExpandEnv(path)

	return path
}
