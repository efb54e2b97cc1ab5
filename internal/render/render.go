// internal/render/render.go
package render

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"text/template"

	"sigdiff/internal/apidiff"
	sderr "sigdiff/internal/errors"
)

// ChangedItem carries both display strings for one changed symbol.
type ChangedItem struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// TemplateData is the flattened, render-ready projection of a diff
// result. This is the only place symbols become plain strings.
type TemplateData struct {
	Added   []string      `json:"added"`
	Removed []string      `json:"removed"`
	Changed []ChangedItem `json:"changed"`
}

// Project flattens a diff result for the renderer, preserving order.
func Project(result *apidiff.Result) TemplateData {
	data := TemplateData{
		Added:   make([]string, 0, len(result.Added)),
		Removed: make([]string, 0, len(result.Removed)),
		Changed: make([]ChangedItem, 0, len(result.Changed)),
	}

	for _, sym := range result.Added {
		data.Added = append(data.Added, sym.Display())
	}
	for _, sym := range result.Removed {
		data.Removed = append(data.Removed, sym.Display())
	}
	for _, ch := range result.Changed {
		data.Changed = append(data.Changed, ChangedItem{
			Old: ch.Old.Display(),
			New: ch.New.Display(),
		})
	}

	return data
}

// Render expands a template over the projected diff. The template sees
// three insertion points: .added and .removed as string sequences, and
// .changed as a sequence of {old, new} pairs.
func Render(templateText string, data TemplateData) (string, error) {
	tmpl, err := template.New("report").Parse(templateText)
	if err != nil {
		return "", sderr.RenderFailed(fmt.Errorf("parsing template: %w", err))
	}

	changed := make([]map[string]string, 0, len(data.Changed))
	for _, ch := range data.Changed {
		changed = append(changed, map[string]string{"old": ch.Old, "new": ch.New})
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, map[string]any{
		"added":   data.Added,
		"removed": data.Removed,
		"changed": changed,
	})
	if err != nil {
		return "", sderr.RenderFailed(fmt.Errorf("executing template: %w", err))
	}

	return buf.String(), nil
}

// WriteOutput writes rendered text to path, refusing to overwrite an
// existing file. An empty path means stdout. The text is fully rendered
// before this is called, so a failure here never leaves partial output
// from a failed render.
func WriteOutput(path, text string, stdout io.Writer) error {
	if path == "" {
		if _, err := io.WriteString(stdout, text); err != nil {
			return sderr.OutputWriteFailed("stdout", err)
		}
		return nil
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return sderr.OutputWriteFailed(path, err)
	}

	if _, err := f.WriteString(text); err != nil {
		f.Close()
		os.Remove(path)
		return sderr.OutputWriteFailed(path, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return sderr.OutputWriteFailed(path, err)
	}

	return nil
}
