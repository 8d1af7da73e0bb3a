// Package platform provides OS detection and the hidden-entry convention of the
// current platform.
package platform

import (
	"log/slog"
	"os"
	"os/user"
	"runtime"
	"strings"
)

// Supported operating system identifiers.
const (
	// OSLinux represents Linux and other Unix-like operating systems
	OSLinux = "linux"
	// OSWindows represents Windows operating systems
	OSWindows = "windows"
)

// Platform holds detected platform information: the operating system, Linux
// distribution, hostname and current user.
type Platform struct {
	EnvVars  map[string]string
	OS       string
	Distro   string
	Hostname string
	User     string
}

// Detect detects the current platform characteristics.
func Detect() *Platform {
	p := &Platform{
		OS:       detectOS(),
		Hostname: detectHostname(),
		User:     detectUser(),
		EnvVars:  make(map[string]string),
	}

	if p.OS == OSLinux {
		p.Distro = detectDistro()
	}

	return p
}

// detectDistro returns the Linux distribution ID from /etc/os-release
// Returns values like "arch", "ubuntu", "fedora", "debian", etc.
func detectDistro() string {
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		slog.Debug("unable to detect linux distribution",
			slog.String("file", "/etc/os-release"),
			slog.String("error", err.Error()),
			slog.String("fallback", "empty"))
		return ""
	}

	for _, line := range strings.Split(string(data), "\n") {
		if id, ok := strings.CutPrefix(line, "ID="); ok {
			return strings.Trim(id, "\"")
		}
	}

	return ""
}

func detectHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		slog.Debug("unable to detect hostname",
			slog.String("error", err.Error()),
			slog.String("fallback", "empty"))
		return ""
	}

	return hostname
}

func detectUser() string {
	u, err := user.Current()
	if err != nil {
		slog.Debug("unable to detect current user",
			slog.String("error", err.Error()),
			slog.String("fallback", "empty"))
		return ""
	}

	return u.Username
}

func detectOS() string {
	if runtime.GOOS == "windows" {
		return OSWindows
	}

	// Also check OS environment variable (for cross-platform scripts)
	if strings.Contains(strings.ToLower(os.Getenv("OS")), "windows") {
		return OSWindows
	}

	return OSLinux
}

// copyMap returns a shallow copy of a string map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}

	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}

	return cp
}

// WithOS returns a copy of the Platform with the OS field overridden.
func (p *Platform) WithOS(osType string) *Platform {
	newP := *p
	newP.OS = osType
	newP.EnvVars = copyMap(p.EnvVars)

	return &newP
}

// WithHostname returns a copy of the Platform with the Hostname field overridden.
func (p *Platform) WithHostname(hostname string) *Platform {
	newP := *p
	newP.Hostname = hostname
	newP.EnvVars = copyMap(p.EnvVars)

	return &newP
}
