// Package render formats CSL-JSON items with a cached CSL style.
package render

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai-writing-be/internal/pkg/logger"
	"ai-writing-be/pkg/citation"
	"ai-writing-be/pkg/citation/csl"
	"ai-writing-be/pkg/citation/style"
)

// Source is anything that yields CSL items: resolved metadata or pasted text.
type Source interface {
	Items() ([]csl.Item, error)
}

// Templates provides loaded style definitions.
type Templates interface {
	EnsureLoaded(ctx context.Context, key string) (*style.Definition, error)
}

type Renderer struct {
	templates Templates
	logger    logger.ILogger
}

func New(templates Templates, logger logger.ILogger) *Renderer {
	return &Renderer{templates: templates, logger: logger}
}

// Render formats src with the style identified by styleKey. Multiple items
// yield one entry per line. src is never modified.
func (r *Renderer) Render(ctx context.Context, src Source, styleKey string) (string, error) {
	def, err := r.templates.EnsureLoaded(ctx, styleKey)
	if err != nil {
		return "", err
	}

	if src == nil {
		return "", r.fail(def.Key, errors.New("nothing to render"))
	}
	items, err := src.Items()
	if err != nil {
		return "", r.fail(def.Key, err)
	}
	for i, it := range items {
		if !it.Renderable() {
			return "", r.fail(def.Key, fmt.Errorf("item %d has no title, container, identifier or names", i+1))
		}
	}

	out, err := Bibliography(def.Style, items)
	if err != nil {
		return "", r.fail(def.Key, err)
	}
	return out, nil
}

func (r *Renderer) fail(key string, cause error) error {
	r.logger.Error("CITATION", "Citation rendering failed", map[string]interface{}{
		"style": key,
		"error": cause.Error(),
	})
	return &citation.RenderError{StyleKey: key, Cause: cause}
}

// Bibliography evaluates the style's bibliography layout for every item.
func Bibliography(s *csl.Style, items []csl.Item) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = "", fmt.Errorf("style evaluation fault: %v", rec)
		}
	}()

	ordered := sortItems(s, items)
	entries := make([]string, 0, len(ordered))
	for i, it := range ordered {
		e := newEvaluator(s, it, i+1)
		entry := cleanup(e.layout())
		if entry == "" {
			return "", fmt.Errorf("style produced no output for item %d", i+1)
		}
		entries = append(entries, entry)
	}
	return strings.Join(entries, "\n"), nil
}
