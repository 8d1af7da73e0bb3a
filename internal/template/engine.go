package template

import (
	"bytes"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/go-sprout/sprout"
	"github.com/go-sprout/sprout/group/all"
)

// Engine renders Go templates with the sprout function registry and a
// platform-aware Context as the template data.
type Engine struct {
	ctx   *Context
	funcs template.FuncMap
}

// NewEngine creates an Engine bound to ctx.
func NewEngine(ctx *Context) *Engine {
	handler := sprout.New()
	if err := handler.AddGroups(all.RegistryGroup()); err != nil {
		slog.Debug("sprout registry setup incomplete", slog.String("error", err.Error()))
	}

	return &Engine{
		ctx:   ctx,
		funcs: handler.Build(),
	}
}

// RenderString parses and executes tmplStr. Missing keys are errors so a typo
// in a configured path never silently expands to an empty segment.
func (e *Engine) RenderString(name, tmplStr string) (string, error) {
	t, err := template.New(name).Funcs(e.funcs).Option("missingkey=error").Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("parsing template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, e.ctx); err != nil {
		return "", fmt.Errorf("rendering template %s: %w", name, err)
	}

	return buf.String(), nil
}
