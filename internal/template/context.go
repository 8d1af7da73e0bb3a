// Package template renders Go templates in configured paths with a
// platform-aware context.
package template

import (
	"os"
	"strings"

	"github.com/AntoineGS/dirfusion/internal/platform"
)

// Context holds platform-aware data available to all templates.
type Context struct {
	OS       string
	Distro   string
	Hostname string
	User     string
	Env      map[string]string
}

// NewContextFromPlatform creates a Context from platform detection results,
// merging platform EnvVars with the process environment.
func NewContextFromPlatform(p *platform.Platform) *Context {
	env := make(map[string]string)

	for _, e := range os.Environ() {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}

	// Platform-specific env vars override the process env
	for k, v := range p.EnvVars {
		env[k] = v
	}

	return &Context{
		OS:       p.OS,
		Distro:   p.Distro,
		Hostname: p.Hostname,
		User:     p.User,
		Env:      env,
	}
}
